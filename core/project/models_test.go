package project

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/user"
)

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		total, completed int
		want             float64
	}{
		{0, 0, 0},
		{-1, 0, 0},
		{4, 0, 0},
		{4, 4, 100},
		{4, 1, 25},
		{3, 1, 33.33},
		{3, 2, 66.67},
		{7, 1, 14.29},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.completed, tt.total), func(t *testing.T) {
			assert.Equal(t, tt.want, ProgressPercentage(tt.total, tt.completed))
		})
	}
}

func TestProject_views(t *testing.T) {
	p := Project{
		ID:        1,
		Name:      "Bridge",
		StartDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Status:    StatusActive,
		CreatedAt: time.Date(2024, 1, 10, 9, 5, 3, 0, time.UTC),
		Milestones: []Milestone{
			{ID: 1, Name: "Foundations", IsCompleted: true, DueDate: null.TimeFrom(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))},
			{ID: 2, Name: "Deck"},
			{ID: 3, Name: "Paint"},
		},
		Users: []user.User{{ID: 7, Name: "Jo", Email: "jo@test.cd", UserType: user.RoleStaff}},
	}

	sum := p.Summary()
	assert.Equal(t, "No Manager", sum.ManagerName)
	assert.Equal(t, "2024-01-15", sum.StartDate)
	assert.Equal(t, "2024-06-30", sum.EndDate)
	assert.Equal(t, "2024-01-10 09:05:03", sum.CreatedAt)
	assert.Equal(t, 33.33, sum.ProgressPercentage)
	assert.Equal(t, 3, sum.MilestonesCount)
	assert.Equal(t, 1, sum.CompletedMilestones)
	assert.Equal(t, 1, sum.AssignedUsers)
	assert.Equal(t, []int64{7}, sum.AssignedUserIDs)

	p.ManagerName = null.StringFrom("Mary")
	detail := p.Detail()
	assert.Equal(t, "Mary", detail.ManagerName)
	require.Len(t, detail.Milestones, 3)
	require.NotNil(t, detail.Milestones[0].DueDate)
	assert.Equal(t, "2024-02-01", *detail.Milestones[0].DueDate)
	assert.Nil(t, detail.Milestones[1].DueDate)
	assert.Equal(t, []AssignedUser{{ID: 7, Name: "Jo", Email: "jo@test.cd", UserType: user.RoleStaff}}, detail.AssignedUsers)
}

func newValidator() *validator.Validate {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

func TestNewProject_validation(t *testing.T) {
	validate := newValidator()
	valid := func() NewProject {
		return NewProject{
			Name:       "Bridge",
			StartDate:  "2024-01-15",
			EndDate:    "2024-06-30",
			Milestones: []NewMilestone{{Name: "Foundations", DueDate: "2024-02-01"}},
		}
	}
	np := valid()
	assert.NoError(t, validate.Struct(&np))

	tests := []struct {
		name      string
		mutate    func(np *NewProject)
		wantField string
		wantTag   string
	}{
		{name: "name required", mutate: func(np *NewProject) { np.Name = "" }, wantField: "name", wantTag: "required"},
		{name: "bad start date", mutate: func(np *NewProject) { np.StartDate = "15/01/2024" }, wantField: "start_date", wantTag: "date"},
		{name: "end before start", mutate: func(np *NewProject) { np.EndDate = "2024-01-01" }, wantField: "end_date", wantTag: "after_start"},
		{name: "end on start", mutate: func(np *NewProject) { np.EndDate = np.StartDate }, wantField: "end_date", wantTag: "after_start"},
		{name: "no milestones", mutate: func(np *NewProject) { np.Milestones = []NewMilestone{} }, wantField: "milestones", wantTag: "min"},
		{name: "nil milestones", mutate: func(np *NewProject) { np.Milestones = nil }, wantField: "milestones", wantTag: "required"},
		{name: "milestone name", mutate: func(np *NewProject) { np.Milestones[0].Name = "" }, wantField: "name", wantTag: "required"},
		{name: "milestone due date", mutate: func(np *NewProject) { np.Milestones[0].DueDate = "soon" }, wantField: "due_date", wantTag: "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			np := valid()
			tt.mutate(&np)
			err := validate.Struct(&np)
			require.Error(t, err)
			vErrs, ok := err.(validator.ValidationErrors)
			require.True(t, ok)
			require.Len(t, vErrs, 1)
			assert.Equal(t, tt.wantField, vErrs[0].Field())
			assert.Equal(t, tt.wantTag, vErrs[0].Tag())
		})
	}
}
