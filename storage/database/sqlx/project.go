package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/project"
	"github.com/trezcool/ujenzi/core/user"
)

const (
	projectsTable     = "projects"
	milestonesTable   = "project_milestones"
	projectUsersTable = "project_users"
)

type (
	projectRow struct {
		ID          int64       `db:"id"`
		Name        string      `db:"name"`
		Description null.String `db:"description"`
		ManagerID   null.Int64  `db:"manager_id"`
		ManagerName null.String `db:"manager_name"`
		StartDate   null.Time   `db:"start_date"`
		EndDate     null.Time   `db:"end_date"`
		Status      string      `db:"status"`
		CreatedAt   null.Time   `db:"created_at"`
		UpdatedAt   null.Time   `db:"updated_at"`
	}

	milestoneRow struct {
		ID          int64       `db:"id"`
		ProjectID   int64       `db:"project_id"`
		Name        string      `db:"name"`
		Description null.String `db:"description"`
		IsCompleted bool        `db:"is_completed"`
		DueDate     null.Time   `db:"due_date"`
		CreatedAt   null.Time   `db:"created_at"`
		UpdatedAt   null.Time   `db:"updated_at"`
	}

	projectUserRow struct {
		ProjectID int64  `db:"project_id"`
		ID        int64  `db:"id"`
		Name      string `db:"name"`
		Email     string `db:"email"`
		UserType  string `db:"user_type"`
	}
)

var milestoneColumns = []string{
	"m.id", "m.project_id", "m.name", "m.description", "m.is_completed", "m.due_date", "m.created_at", "m.updated_at",
}

type projectRepository struct {
	executor
}

var _ project.Repository = (*projectRepository)(nil) // interface compliance check

func NewProjectRepository(exec core.DBExecutor) project.Repository {
	return &projectRepository{executor{exec: exec}}
}

func (repo projectRepository) unboil(row projectRow) project.Project {
	return project.Project{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		ManagerID:   row.ManagerID,
		ManagerName: row.ManagerName,
		StartDate:   row.StartDate.Time.UTC(),
		EndDate:     row.EndDate.Time.UTC(),
		Status:      row.Status,
		CreatedAt:   row.CreatedAt.Time.UTC(),
		UpdatedAt:   row.UpdatedAt.Time.UTC(),
		Milestones:  make([]project.Milestone, 0),
		Users:       make([]user.User, 0),
	}
}

func (repo projectRepository) unboilMilestone(row milestoneRow) project.Milestone {
	return project.Milestone{
		ID:          row.ID,
		ProjectID:   row.ProjectID,
		Name:        row.Name,
		Description: row.Description,
		IsCompleted: row.IsCompleted,
		DueDate:     row.DueDate,
		CreatedAt:   row.CreatedAt.Time.UTC(),
		UpdatedAt:   row.UpdatedAt.Time.UTC(),
	}
}

func (repo projectRepository) insert(ctx context.Context, exec core.DBExecutor, table string, values map[string]interface{}) (int64, error) {
	query, args, err := builder(exec).Insert(table).SetMap(values).Suffix("RETURNING id").ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	var id int64
	if err = exec.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, errors.Wrapf(err, "inserting into %s", table)
	}
	return id, nil
}

func (repo projectRepository) CreateProject(ctx context.Context, p project.Project, exec ...core.DBExecutor) (project.Project, error) {
	id, err := repo.insert(ctx, repo.getExec(exec), projectsTable, map[string]interface{}{
		"name":        p.Name,
		"description": p.Description,
		"manager_id":  p.ManagerID,
		"start_date":  null.NewTime(p.StartDate, !p.StartDate.IsZero()),
		"end_date":    null.NewTime(p.EndDate, !p.EndDate.IsZero()),
		"status":      p.Status,
		"created_at":  p.CreatedAt.UTC(),
		"updated_at":  p.UpdatedAt.UTC(),
	})
	if err != nil {
		return project.Project{}, err
	}
	p.ID = id
	return p, nil
}

func (repo projectRepository) CreateMilestones(ctx context.Context, milestones []project.Milestone, exec ...core.DBExecutor) ([]project.Milestone, error) {
	exe := repo.getExec(exec)
	created := make([]project.Milestone, 0, len(milestones))
	for _, m := range milestones {
		id, err := repo.insert(ctx, exe, milestonesTable, map[string]interface{}{
			"project_id":   m.ProjectID,
			"name":         m.Name,
			"description":  m.Description,
			"is_completed": m.IsCompleted,
			"due_date":     m.DueDate,
			"created_at":   m.CreatedAt.UTC(),
			"updated_at":   m.UpdatedAt.UTC(),
		})
		if err != nil {
			return nil, err
		}
		m.ID = id
		created = append(created, m)
	}
	return created, nil
}

func (repo projectRepository) selectProjects(exec core.DBExecutor) sq.SelectBuilder {
	return builder(exec).
		Select(
			"p.id", "p.name", "p.description", "p.manager_id", "u.name AS manager_name",
			"p.start_date", "p.end_date", "p.status", "p.created_at", "p.updated_at",
		).
		From(projectsTable + " p").
		LeftJoin(user.TableName + " u ON u.id = p.manager_id")
}

// load fetches the projects matching qb, then their milestones & users.
func (repo projectRepository) load(ctx context.Context, exec core.DBExecutor, qb sq.SelectBuilder) ([]project.Project, error) {
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []projectRow
	if err = exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}
	if len(rows) == 0 {
		return make([]project.Project, 0), nil
	}

	projects := make([]project.Project, 0, len(rows))
	index := make(map[int64]int, len(rows)) // {project ID: index in projects}
	for i, row := range rows {
		projects = append(projects, repo.unboil(row))
		index[row.ID] = i
	}
	ids := lo.Keys(index)

	// milestones
	query, args, err = builder(exec).
		Select(milestoneColumns...).
		From(milestonesTable + " m").
		Where(sq.Eq{"m.project_id": ids}).
		OrderBy("m.id ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var mRows []milestoneRow
	if err = exec.SelectContext(ctx, &mRows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying milestones")
	}
	for _, row := range mRows {
		p := &projects[index[row.ProjectID]]
		p.Milestones = append(p.Milestones, repo.unboilMilestone(row))
	}

	// users
	query, args, err = builder(exec).
		Select("pu.project_id", "u.id", "u.name", "u.email", "u.user_type").
		From(projectUsersTable + " pu").
		Join(user.TableName + " u ON u.id = pu.user_id").
		Where(sq.Eq{"pu.project_id": ids}).
		OrderBy("pu.id ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var uRows []projectUserRow
	if err = exec.SelectContext(ctx, &uRows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying project users")
	}
	for _, row := range uRows {
		p := &projects[index[row.ProjectID]]
		p.Users = append(p.Users, user.User{ID: row.ID, Name: row.Name, Email: row.Email, UserType: row.UserType})
	}

	return projects, nil
}

func (repo projectRepository) QueryProjects(ctx context.Context, managerID int64, exec ...core.DBExecutor) ([]project.Project, error) {
	exe := repo.getExec(exec)
	qb := repo.selectProjects(exe).OrderBy("p.created_at DESC", "p.id DESC")
	if managerID != 0 {
		qb = qb.Where(sq.Eq{"p.manager_id": managerID})
	}
	return repo.load(ctx, exe, qb)
}

func (repo projectRepository) GetProject(ctx context.Context, id int64, exec ...core.DBExecutor) (project.Project, error) {
	exe := repo.getExec(exec)
	projects, err := repo.load(ctx, exe, repo.selectProjects(exe).Where(sq.Eq{"p.id": id}))
	if err != nil {
		return project.Project{}, errors.Wrap(err, "finding project")
	}
	if len(projects) == 0 {
		return project.Project{}, project.ErrNotFound
	}
	return projects[0], nil
}

func (repo projectRepository) GetManagedMilestone(ctx context.Context, managerID, milestoneID int64, exec ...core.DBExecutor) (project.Milestone, error) {
	exe := repo.getExec(exec)
	query, args, err := builder(exe).
		Select(milestoneColumns...).
		From(milestonesTable + " m").
		Join(projectsTable + " p ON p.id = m.project_id").
		Where(sq.Eq{"m.id": milestoneID, "p.manager_id": managerID}).
		ToSql()
	if err != nil {
		return project.Milestone{}, errors.Wrap(err, "building query")
	}
	var row milestoneRow
	if err = exe.GetContext(ctx, &row, query, args...); err != nil {
		return project.Milestone{}, trapNoRowsErr(err, project.ErrNotFound, "finding milestone")
	}
	return repo.unboilMilestone(row), nil
}

func (repo projectRepository) update(ctx context.Context, exec core.DBExecutor, table string, id int64, values map[string]interface{}) error {
	query, args, err := builder(exec).Update(table).SetMap(values).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrapf(err, "updating %s #%d", table, id)
	}
	return checkAffected(res, project.ErrNotFound, "updating "+table)
}

func (repo projectRepository) UpdateMilestone(ctx context.Context, m project.Milestone, exec ...core.DBExecutor) error {
	return repo.update(ctx, repo.getExec(exec), milestonesTable, m.ID, map[string]interface{}{
		"name":         m.Name,
		"description":  m.Description,
		"is_completed": m.IsCompleted,
		"due_date":     m.DueDate,
		"updated_at":   m.UpdatedAt.UTC(),
	})
}

func (repo projectRepository) UpdateProgress(ctx context.Context, projectID int64, total, completed int, pct float64, exec ...core.DBExecutor) error {
	return repo.update(ctx, repo.getExec(exec), projectsTable, projectID, map[string]interface{}{
		"total_phases":          total,
		"completed_phases":      completed,
		"completion_percentage": pct,
		"updated_at":            time.Now().UTC(),
	})
}

func (repo projectRepository) SyncUsers(ctx context.Context, projectID int64, userIDs []int64, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)

	// detach the users not in userIDs
	query, args, err := builder(exe).
		Delete(projectUsersTable).
		Where(sq.Eq{"project_id": projectID}).
		Where(sq.NotEq{"user_id": userIDs}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = exe.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "detaching project users")
	}

	// attach the new ones
	query, args, err = builder(exe).Select("user_id").From(projectUsersTable).Where(sq.Eq{"project_id": projectID}).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	var attached []int64
	if err = exe.SelectContext(ctx, &attached, query, args...); err != nil {
		return errors.Wrap(err, "querying project users")
	}

	now := time.Now().UTC()
	for _, userID := range lo.Without(userIDs, attached...) {
		_, err = repo.insert(ctx, exe, projectUsersTable, map[string]interface{}{
			"project_id": projectID,
			"user_id":    userID,
			"created_at": now,
			"updated_at": now,
		})
		if err != nil {
			return errors.Wrap(err, "attaching project users")
		}
	}
	return nil
}
