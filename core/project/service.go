package project

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/user"
)

var (
	// errors
	ErrNotFound       = errors.New("project not found")
	ErrUnknownUsers   = errors.New("assigned_users contains unknown users")
	errInvalidProject = errors.New("invalid project")
)

type (
	// Repository methods accept an optional executor, to run inside the service transactions.
	Repository interface {
		CreateProject(ctx context.Context, p Project, exec ...core.DBExecutor) (Project, error)
		CreateMilestones(ctx context.Context, milestones []Milestone, exec ...core.DBExecutor) ([]Milestone, error)
		// QueryProjects returns the projects, with their milestones and users, newest first.
		// A zero managerID returns the projects of every manager.
		QueryProjects(ctx context.Context, managerID int64, exec ...core.DBExecutor) ([]Project, error)
		GetProject(ctx context.Context, id int64, exec ...core.DBExecutor) (Project, error)
		// GetManagedMilestone returns the milestone if its project is managed by managerID.
		GetManagedMilestone(ctx context.Context, managerID, milestoneID int64, exec ...core.DBExecutor) (Milestone, error)
		UpdateMilestone(ctx context.Context, m Milestone, exec ...core.DBExecutor) error
		// UpdateProgress stores the milestone counts & the percentage on the project.
		UpdateProgress(ctx context.Context, projectID int64, total, completed int, pct float64, exec ...core.DBExecutor) error
		// SyncUsers replaces the users assigned to the project.
		SyncUsers(ctx context.Context, projectID int64, userIDs []int64, exec ...core.DBExecutor) error
	}

	Service interface {
		CheckUsers(ctx context.Context, userIDs []int64) error
		ListForManager(ctx context.Context, managerID int64) ([]Project, error)
		ListAll(ctx context.Context) ([]Project, error)
		Get(ctx context.Context, id int64) (Project, error)
		Create(ctx context.Context, managerID int64, np NewProject) (Project, error)
		UpdateMilestone(ctx context.Context, managerID, milestoneID int64, isCompleted bool) (float64, error)
		SyncUsers(ctx context.Context, projectID int64, userIDs []int64) error
	}

	service struct {
		db      core.DB
		repo    Repository
		userSvc user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, userSvc user.Service) Service {
	return &service{
		db:      db,
		repo:    repo,
		userSvc: userSvc,
	}
}

// CheckUsers makes sure every id references an existing user.
func (svc *service) CheckUsers(ctx context.Context, userIDs []int64) error {
	ids := lo.Uniq(userIDs)
	if len(ids) == 0 {
		return nil
	}
	users, err := svc.userSvc.Filter(ctx, user.QueryFilter{IDs: ids})
	if err != nil {
		return errors.Wrap(err, "filtering users")
	}
	if len(users) != len(ids) {
		return core.NewValidationError(
			errInvalidProject,
			core.FieldError{Field: "assigned_users", Error: ErrUnknownUsers.Error()},
		)
	}
	return nil
}

func (svc *service) ListForManager(ctx context.Context, managerID int64) ([]Project, error) {
	return svc.repo.QueryProjects(ctx, managerID)
}

func (svc *service) ListAll(ctx context.Context) ([]Project, error) {
	return svc.repo.QueryProjects(ctx, 0)
}

func (svc *service) Get(ctx context.Context, id int64) (Project, error) {
	return svc.repo.GetProject(ctx, id)
}

func parseDate(s string) null.Time {
	t, err := time.Parse(core.DateLayout, s)
	return null.NewTime(t, err == nil && s != "")
}

// Create saves the project, its milestones and its users in one transaction.
func (svc *service) Create(ctx context.Context, managerID int64, np NewProject) (Project, error) {
	now := time.Now().UTC()
	p := Project{
		Name:        np.Name,
		Description: null.StringFromPtr(np.Description),
		ManagerID:   null.Int64From(managerID),
		StartDate:   parseDate(np.StartDate).Time,
		EndDate:     parseDate(np.EndDate).Time,
		Status:      StatusPlanning,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := core.WithTransaction(ctx, svc.db, func(tx core.DBTransactor) error {
		var err error
		if p, err = svc.repo.CreateProject(ctx, p, tx); err != nil {
			return errors.Wrap(err, "creating project")
		}

		milestones := lo.Map(np.Milestones, func(nm NewMilestone, _ int) Milestone {
			return Milestone{
				ProjectID:   p.ID,
				Name:        nm.Name,
				Description: null.StringFromPtr(nm.Description),
				DueDate:     parseDate(nm.DueDate),
				CreatedAt:   now,
				UpdatedAt:   now,
			}
		})
		if p.Milestones, err = svc.repo.CreateMilestones(ctx, milestones, tx); err != nil {
			return errors.Wrap(err, "creating milestones")
		}
		if err = svc.repo.UpdateProgress(ctx, p.ID, len(p.Milestones), 0, 0, tx); err != nil {
			return errors.Wrap(err, "updating progress")
		}
		if err = svc.repo.SyncUsers(ctx, p.ID, lo.Uniq(np.AssignedUsers), tx); err != nil {
			return errors.Wrap(err, "assigning users")
		}
		return nil
	})
	if err != nil {
		return Project{}, err
	}
	return svc.repo.GetProject(ctx, p.ID)
}

// UpdateMilestone completes (or reopens) a milestone of a project managed by managerID,
// and returns the new progress percentage of the project.
func (svc *service) UpdateMilestone(ctx context.Context, managerID, milestoneID int64, isCompleted bool) (float64, error) {
	var pct float64
	err := core.WithTransaction(ctx, svc.db, func(tx core.DBTransactor) error {
		m, err := svc.repo.GetManagedMilestone(ctx, managerID, milestoneID, tx)
		if err != nil {
			return err
		}
		m.IsCompleted = isCompleted
		m.UpdatedAt = time.Now().UTC()
		if err = svc.repo.UpdateMilestone(ctx, m, tx); err != nil {
			return errors.Wrap(err, "updating milestone")
		}

		p, err := svc.repo.GetProject(ctx, m.ProjectID, tx)
		if err != nil {
			return errors.Wrapf(err, "finding project #%d", m.ProjectID)
		}
		pct = p.ProgressPercentage()
		return svc.repo.UpdateProgress(ctx, p.ID, len(p.Milestones), p.CompletedMilestones(), pct, tx)
	})
	if err != nil {
		return 0, err
	}
	return pct, nil
}

func (svc *service) SyncUsers(ctx context.Context, projectID int64, userIDs []int64) error {
	if _, err := svc.repo.GetProject(ctx, projectID); err != nil {
		return err
	}
	return core.WithTransaction(ctx, svc.db, func(tx core.DBTransactor) error {
		return svc.repo.SyncUsers(ctx, projectID, lo.Uniq(userIDs), tx)
	})
}
