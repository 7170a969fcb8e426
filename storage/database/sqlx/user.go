package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/user"
)

var userColumns = []string{
	"id", "name", "email", "password", "user_type", "is_active", "is_authorized",
	"authorization_notes", "created_at", "updated_at",
}

type userRow struct {
	ID                 int64       `db:"id"`
	Name               string      `db:"name"`
	Email              string      `db:"email"`
	Password           string      `db:"password"`
	UserType           string      `db:"user_type"`
	IsActive           bool        `db:"is_active"`
	IsAuthorized       bool        `db:"is_authorized"`
	AuthorizationNotes null.String `db:"authorization_notes"`
	CreatedAt          null.Time   `db:"created_at"`
	UpdatedAt          null.Time   `db:"updated_at"`
}

type userRepository struct {
	executor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) user.Repository {
	return &userRepository{executor{exec: exec}}
}

// values maps the writable columns to the user fields.
func (repo userRepository) values(usr user.User) map[string]interface{} {
	return map[string]interface{}{
		"name":                usr.Name,
		"email":               usr.Email,
		"password":            string(usr.PasswordHash),
		"user_type":           usr.UserType,
		"is_active":           usr.IsActive,
		"is_authorized":       usr.IsAuthorized,
		"authorization_notes": usr.AuthorizationNotes,
		"created_at":          null.NewTime(usr.CreatedAt.UTC(), !usr.CreatedAt.IsZero()),
		"updated_at":          null.NewTime(usr.UpdatedAt.UTC(), !usr.UpdatedAt.IsZero()),
	}
}

func (repo userRepository) unboil(row userRow) user.User {
	return user.User{
		ID:                 row.ID,
		Name:               row.Name,
		Email:              row.Email,
		UserType:           row.UserType,
		IsActive:           row.IsActive,
		IsAuthorized:       row.IsAuthorized,
		AuthorizationNotes: row.AuthorizationNotes,
		PasswordHash:       []byte(row.Password),
		CreatedAt:          row.CreatedAt.Time.UTC(),
		UpdatedAt:          row.UpdatedAt.Time.UTC(),
	}
}

func (repo userRepository) unboilSlice(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.unboil(row))
	}
	return users
}

func (repo userRepository) selectUsers(exec core.DBExecutor) sq.SelectBuilder {
	return builder(exec).Select(userColumns...).From(user.TableName)
}

func (repo userRepository) getOne(ctx context.Context, qb sq.SelectBuilder, exec core.DBExecutor, msg string) (user.User, error) {
	query, args, err := qb.Limit(1).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	var row userRow
	if err = exec.GetContext(ctx, &row, query, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, msg)
	}
	return repo.unboil(row), nil
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...int64) error {
	exec := repo.getExec(nil)
	qb := builder(exec).Select("1").From(user.TableName).Where(sq.Eq{"email": email})
	if len(excludedIDs) > 0 {
		qb = qb.Where(sq.NotEq{"id": excludedIDs})
	}
	query, args, err := qb.Limit(1).ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}

	var found []int
	if err = exec.SelectContext(ctx, &found, query, args...); err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if len(found) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	exec := repo.getExec(nil)
	query, args, err := builder(exec).
		Insert(user.TableName).
		SetMap(repo.values(usr)).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	if err = exec.QueryRowxContext(ctx, query, args...).Scan(&usr.ID); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int64) (user.User, error) {
	exec := repo.getExec(nil)
	return repo.getOne(ctx, repo.selectUsers(exec).Where(sq.Eq{"id": id}), exec, "finding user by ID")
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	exec := repo.getExec(nil)
	return repo.getOne(ctx, repo.selectUsers(exec).Where(sq.Eq{"email": email}), exec, "finding user by email")
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	exec := repo.getExec(nil)
	qb := repo.selectUsers(exec)
	if filter.IDs != nil {
		qb = qb.Where(sq.Eq{"id": filter.IDs})
	}
	if len(filter.Roles) > 0 {
		qb = qb.Where(sq.Eq{"user_type": filter.Roles})
	}
	if filter.IsActive != nil {
		qb = qb.Where(sq.Eq{"is_active": *filter.IsActive})
	}

	query, args, err := qb.OrderBy(core.DBOrdering{Field: "name", Ascending: true}.String(), "id ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []userRow
	if err = exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return repo.unboilSlice(rows), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	exec := repo.getExec(nil)
	vals := repo.values(usr)
	delete(vals, "created_at")
	query, args, err := builder(exec).
		Update(user.TableName).
		SetMap(vals).
		Where(sq.Eq{"id": usr.ID}).
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}

	res, err := exec.ExecContext(ctx, query, args...)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = checkAffected(res, user.ErrNotFound, "updating user"); err != nil {
		return user.User{}, err
	}
	return usr, nil
}
