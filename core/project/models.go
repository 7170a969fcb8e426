package project

import (
	"context"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/user"
)

// Statuses
const (
	StatusPlanning  = "planning"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusOnHold    = "on_hold"
)

const (
	noManager       = "No Manager"
	createdAtLayout = "2006-01-02 15:04:05"
)

// ProgressPercentage returns the percentage of completed phases, rounded to 2 decimals; 0 without phases.
func ProgressPercentage(total, completed int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*10000) / 100
}

type Project struct {
	ID          int64
	Name        string
	Description null.String
	ManagerID   null.Int64
	ManagerName null.String
	StartDate   time.Time
	EndDate     time.Time
	Status      string
	CreatedAt   time.Time // UTC
	UpdatedAt   time.Time // UTC
	Milestones  []Milestone
	Users       []user.User
}

func (p Project) CompletedMilestones() int {
	return lo.CountBy(p.Milestones, func(m Milestone) bool { return m.IsCompleted })
}

func (p Project) ProgressPercentage() float64 {
	return ProgressPercentage(len(p.Milestones), p.CompletedMilestones())
}

func (p Project) managerName() string {
	if p.ManagerName.Valid {
		return p.ManagerName.String
	}
	return noManager
}

type Milestone struct {
	ID          int64       `json:"id"`
	ProjectID   int64       `json:"project_id"`
	Name        string      `json:"name"`
	Description null.String `json:"description"`
	IsCompleted bool        `json:"is_completed"`
	DueDate     null.Time   `json:"-"`
	CreatedAt   time.Time   `json:"created_at"` // UTC
	UpdatedAt   time.Time   `json:"updated_at"` // UTC
}

// Summary is the project item of the dashboards' lists.
type Summary struct {
	ID                  int64       `json:"id"`
	Name                string      `json:"name"`
	Description         null.String `json:"description"`
	ManagerName         string      `json:"manager_name"`
	StartDate           string      `json:"start_date"`
	EndDate             string      `json:"end_date"`
	Status              string      `json:"status"`
	ProgressPercentage  float64     `json:"progress_percentage"`
	MilestonesCount     int         `json:"milestones_count"`
	CompletedMilestones int         `json:"completed_milestones"`
	AssignedUsers       int         `json:"assigned_users"`
	AssignedUserIDs     []int64     `json:"assigned_user_ids"`
	CreatedAt           string      `json:"created_at"`
}

func (p Project) Summary() Summary {
	return Summary{
		ID:                  p.ID,
		Name:                p.Name,
		Description:         p.Description,
		ManagerName:         p.managerName(),
		StartDate:           p.StartDate.Format(core.DateLayout),
		EndDate:             p.EndDate.Format(core.DateLayout),
		Status:              p.Status,
		ProgressPercentage:  p.ProgressPercentage(),
		MilestonesCount:     len(p.Milestones),
		CompletedMilestones: p.CompletedMilestones(),
		AssignedUsers:       len(p.Users),
		AssignedUserIDs:     lo.Map(p.Users, func(u user.User, _ int) int64 { return u.ID }),
		CreatedAt:           p.CreatedAt.Format(createdAtLayout),
	}
}

type (
	AssignedUser struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		UserType string `json:"user_type"`
	}

	MilestoneDetail struct {
		Milestone
		DueDate *string `json:"due_date"`
	}

	// Detail is the full view of a project.
	Detail struct {
		ID                 int64             `json:"id"`
		Name               string            `json:"name"`
		Description        null.String       `json:"description"`
		ManagerName        string            `json:"manager_name"`
		StartDate          string            `json:"start_date"`
		EndDate            string            `json:"end_date"`
		Status             string            `json:"status"`
		ProgressPercentage float64           `json:"progress_percentage"`
		Milestones         []MilestoneDetail `json:"milestones"`
		AssignedUsers      []AssignedUser    `json:"assigned_users"`
	}
)

func NewAssignedUser(usr user.User) AssignedUser {
	return AssignedUser{ID: usr.ID, Name: usr.Name, Email: usr.Email, UserType: usr.UserType}
}

func (p Project) Detail() Detail {
	return Detail{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		ManagerName:        p.managerName(),
		StartDate:          p.StartDate.Format(core.DateLayout),
		EndDate:            p.EndDate.Format(core.DateLayout),
		Status:             p.Status,
		ProgressPercentage: p.ProgressPercentage(),
		Milestones: lo.Map(p.Milestones, func(m Milestone, _ int) MilestoneDetail {
			md := MilestoneDetail{Milestone: m}
			if m.DueDate.Valid {
				due := m.DueDate.Time.Format(core.DateLayout)
				md.DueDate = &due
			}
			return md
		}),
		AssignedUsers: lo.Map(p.Users, func(u user.User, _ int) AssignedUser { return NewAssignedUser(u) }),
	}
}

// NewProject contains information needed to create a Project with its milestones.
type NewProject struct {
	Name          string         `json:"name" validate:"required,max=255"`
	Description   *string        `json:"description"`
	StartDate     string         `json:"start_date" validate:"required,date"`
	EndDate       string         `json:"end_date" validate:"required,date"`
	Milestones    []NewMilestone `json:"milestones" validate:"required,min=1,dive"`
	AssignedUsers []int64        `json:"assigned_users"`
}

type NewMilestone struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description"`
	DueDate     string  `json:"due_date" validate:"omitempty,date"`
}

func (np *NewProject) Validate(ctx context.Context, validate *validator.Validate, svc Service) error {
	np.Name = core.CleanString(np.Name)
	np.StartDate = core.CleanString(np.StartDate)
	np.EndDate = core.CleanString(np.EndDate)
	for i := range np.Milestones {
		np.Milestones[i].Name = core.CleanString(np.Milestones[i].Name)
		np.Milestones[i].DueDate = core.CleanString(np.Milestones[i].DueDate)
	}

	if err := validate.Struct(np); err != nil {
		return err
	}
	return svc.CheckUsers(ctx, np.AssignedUsers)
}

// UsersUpdate holds the users to assign to a project, replacing the current ones.
type UsersUpdate struct {
	AssignedUsers []int64 `json:"assigned_users"`
}

// MilestoneUpdate marks a milestone as (in)complete.
type MilestoneUpdate struct {
	IsCompleted *bool `json:"is_completed" validate:"required"`
}
