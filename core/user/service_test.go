package user_test

import (
	"context"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/user"
	emailsvc "github.com/trezcool/ujenzi/services/email"
	logsvc "github.com/trezcool/ujenzi/services/logger"
	sqlxrepos "github.com/trezcool/ujenzi/storage/database/sqlx"
	"github.com/trezcool/ujenzi/tests"
)

var ctx = context.Background()

func setup(t *testing.T) (user.Service, user.Repository) {
	db := testutil.PrepareDB(t)
	repo := sqlxrepos.NewUserRepository(db)
	conf := &core.Config{Env: "TEST", TestMode: true, AppName: "Ujenzi"}
	core.ParseEmailTemplates(logsvc.NewRollbarLogger(log.Default(), conf))
	emailsvc.ResetSentMessages()
	return user.NewService(repo, emailsvc.NewConsoleServiceMock(conf)), repo
}

func TestService_Register(t *testing.T) {
	svc, _ := setup(t)

	usr, err := svc.Register(ctx, user.NewUser{Name: "Jo", Email: "jo@test.cd", UserType: user.RoleStaff, Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotZero(t, usr.ID)
	assert.False(t, usr.IsActive, "accounts wait for an admin")
	assert.False(t, usr.IsAuthorized)

	sent := emailsvc.GetSentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "jo@test.cd", sent[0].To[0].Address)
	assert.Equal(t, "Registration received", sent[0].Subject)

	err = svc.CheckUniqueness(ctx, "jo@test.cd")
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok)
	assert.Equal(t, map[string][]string{"email": {user.ErrEmailExists.Error()}}, vErr.FieldMessages())
	assert.NoError(t, svc.CheckUniqueness(ctx, "jo@test.cd", usr.ID))
}

func TestService_Authenticate(t *testing.T) {
	svc, repo := setup(t)
	testutil.CreateUser(t, repo, "Jo", "jo@test.cd", "s3cret-pass", user.RoleStaff, true)
	testutil.CreateUser(t, repo, "Ann", "ann@test.cd", "s3cret-pass", user.RoleClient, false)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "ok", email: " JO@test.cd ", pwd: "s3cret-pass"},
		{name: "wrong password", email: "jo@test.cd", pwd: "nope", wantErr: user.ErrInvalidCredentials},
		{name: "unknown email", email: "bob@test.cd", pwd: "s3cret-pass", wantErr: user.ErrInvalidCredentials},
		{name: "inactive", email: "ann@test.cd", pwd: "s3cret-pass", wantErr: user.ErrAccountDeactivated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Authenticate(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "jo@test.cd", usr.Email)
		})
	}
}

func TestService_AssignableUsers(t *testing.T) {
	svc, repo := setup(t)
	jo := testutil.CreateUser(t, repo, "Jo", "jo@test.cd", "", user.RoleStaff, true)
	ann := testutil.CreateUser(t, repo, "Ann", "ann@test.cd", "", user.RoleClient, true)
	testutil.CreateUser(t, repo, "Bob", "bob@test.cd", "", user.RoleForeman, false)
	testutil.CreateUser(t, repo, "Mary", "mary@test.cd", "", user.RoleManager, true)

	users, err := svc.AssignableUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, ann.ID, users[0].ID)
	assert.Equal(t, jo.ID, users[1].ID)
}

func TestService_ResetPassword(t *testing.T) {
	svc, repo := setup(t)
	testutil.CreateUser(t, repo, "Jo", "jo@test.cd", "s3cret-pass", user.RoleStaff, true)

	_, err := svc.ResetPassword(ctx, "Jo@Test.cd", "n3w-pass-word")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "jo@test.cd", "s3cret-pass")
	assert.Equal(t, user.ErrInvalidCredentials, err)
	_, err = svc.Authenticate(ctx, "jo@test.cd", "n3w-pass-word")
	assert.NoError(t, err)

	_, err = svc.ResetPassword(ctx, "nobody@test.cd", "n3w-pass-word")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
}

func TestService_EnsureAdmin(t *testing.T) {
	svc, repo := setup(t)

	admin, err := svc.EnsureAdmin(ctx, "Root", " ROOT@test.cd", "adm1n-pass")
	require.NoError(t, err)
	assert.Equal(t, "root@test.cd", admin.Email)
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.IsActive)

	jo := testutil.CreateUser(t, repo, "Jo", "jo@test.cd", "s3cret-pass", user.RoleStaff, false)
	promoted, err := svc.EnsureAdmin(ctx, "", "jo@test.cd", "adm1n-pass")
	require.NoError(t, err)
	assert.Equal(t, jo.ID, promoted.ID)
	assert.Equal(t, "Jo", promoted.Name, "an empty name keeps the current one")

	got, err := svc.GetByID(ctx, jo.ID)
	require.NoError(t, err)
	assert.True(t, got.IsAdmin())
	assert.True(t, got.IsActive)
	assert.True(t, got.IsAuthorized)
	assert.NoError(t, got.CheckPassword("adm1n-pass"))
}
