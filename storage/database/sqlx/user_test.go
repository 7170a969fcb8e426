package sqlxrepos_test

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/ujenzi/core/user"
	sqlxrepos "github.com/trezcool/ujenzi/storage/database/sqlx"
	"github.com/trezcool/ujenzi/tests"
)

func TestUserRepository(t *testing.T) {
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewUserRepository(db)

	createdAt := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	jo := testutil.CreateUser(t, repo, "Jo", "jo@test.cd", "s3cret-pass", user.RoleStaff, true, createdAt)
	ann := testutil.CreateUser(t, repo, "Ann", "ann@test.cd", "", user.RoleClient, false)
	bob := testutil.CreateUser(t, repo, "Bob", "bob@test.cd", "", user.RoleManager, true)

	t.Run("get", func(t *testing.T) {
		usr, err := repo.GetUserByID(ctx, jo.ID)
		require.NoError(t, err)
		assert.Equal(t, "jo@test.cd", usr.Email)
		assert.Equal(t, user.RoleStaff, usr.UserType)
		assert.True(t, usr.IsActive)
		assert.True(t, createdAt.Equal(usr.CreatedAt))
		assert.NoError(t, usr.CheckPassword("s3cret-pass"))

		usr, err = repo.GetUserByEmail(ctx, "ann@test.cd")
		require.NoError(t, err)
		assert.Equal(t, ann.ID, usr.ID)
		assert.False(t, usr.IsActive)

		_, err = repo.GetUserByID(ctx, 404)
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))
		_, err = repo.GetUserByEmail(ctx, "nobody@test.cd")
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	})

	t.Run("email uniqueness", func(t *testing.T) {
		assert.Equal(t, user.ErrEmailExists, repo.CheckEmailUniqueness(ctx, "jo@test.cd"))
		assert.NoError(t, repo.CheckEmailUniqueness(ctx, "jo@test.cd", jo.ID))
		assert.NoError(t, repo.CheckEmailUniqueness(ctx, "new@test.cd"))
	})

	t.Run("filter", func(t *testing.T) {
		active := true
		tests := []struct {
			name   string
			filter user.QueryFilter
			want   []int64
		}{
			{name: "no filter", filter: user.QueryFilter{}, want: []int64{ann.ID, bob.ID, jo.ID}},
			{name: "ids", filter: user.QueryFilter{IDs: []int64{jo.ID, bob.ID}}, want: []int64{bob.ID, jo.ID}},
			{name: "empty ids", filter: user.QueryFilter{IDs: []int64{}}, want: []int64{}},
			{name: "roles", filter: user.QueryFilter{Roles: []string{user.RoleStaff, user.RoleClient}}, want: []int64{ann.ID, jo.ID}},
			{
				name:   "assignable",
				filter: user.QueryFilter{Roles: user.AssignableRoles, IsActive: &active},
				want:   []int64{jo.ID},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				users, err := repo.FilterUsers(ctx, tt.filter)
				require.NoError(t, err)
				ids := make([]int64, 0, len(users))
				for _, u := range users {
					ids = append(ids, u.ID)
				}
				assert.Equal(t, tt.want, ids)
			})
		}
	})

	t.Run("update", func(t *testing.T) {
		ann.IsActive = true
		ann.AuthorizationNotes = null.StringFrom("checked by HR")
		ann.UpdatedAt = time.Now().UTC()
		_, err := repo.UpdateUser(ctx, ann)
		require.NoError(t, err)

		usr, err := repo.GetUserByID(ctx, ann.ID)
		require.NoError(t, err)
		assert.True(t, usr.IsActive)
		assert.Equal(t, "checked by HR", usr.AuthorizationNotes.String)

		_, err = repo.UpdateUser(ctx, user.User{ID: 404, Email: "x@test.cd"})
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	})
}
