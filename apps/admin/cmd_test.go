package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"github.com/trezcool/ujenzi/core"
	"github.com/trezcool/ujenzi/core/user"
	emailsvc "github.com/trezcool/ujenzi/services/email"
	"github.com/trezcool/ujenzi/storage/database"
	sqlxrepos "github.com/trezcool/ujenzi/storage/database/sqlx"
	"github.com/trezcool/ujenzi/tests"
)

var (
	ctx     = context.Background()
	usrRepo user.Repository
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	// set up DB & services
	db := testutil.PrepareDB(t)
	usrRepo = sqlxrepos.NewUserRepository(db)

	var out bytes.Buffer
	return &commandLine{
		db:     db,
		engine: database.EngineSQLite,
		usrSvc: user.NewService(usrRepo, emailsvc.NewConsoleServiceMock(&core.Config{AppName: "Ujenzi", TestMode: true})),
		out:    &out,
	}, &out
}

func mockPassword(t *testing.T, pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
	t.Cleanup(func() { readPasswordFunc = term.ReadPassword })
}

func Test_commandLine_migrate(t *testing.T) {
	cli, out := setup(t)

	var gotCommand string
	var gotArgs []string
	runMigrationsFunc = func(_ context.Context, _ *sqlx.DB, engine, command string, args ...string) error {
		assert.Equal(t, database.EngineSQLite, engine)
		gotCommand, gotArgs = command, args
		if command == "lol" {
			return errors.New(`"lol": no such command`)
		}
		return nil
	}
	t.Cleanup(func() { runMigrationsFunc = database.RunMigrations })

	tests := []struct {
		name        string
		args        []string
		wantErr     bool
		wantCommand string
		wantArgs    []string
	}{
		{name: "no command", args: []string{"migrate"}, wantErr: true},
		{name: "unknown command", args: []string{"migrate", "lol"}, wantErr: true, wantCommand: "lol", wantArgs: []string{}},
		{name: "up", args: []string{"migrate", "up"}, wantCommand: "up", wantArgs: []string{}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}, wantCommand: "up-to", wantArgs: []string{"2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}, wantCommand: "down-to", wantArgs: []string{"1"}},
		{name: "status", args: []string{"migrate", "status"}, wantCommand: "status", wantArgs: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotCommand, gotArgs = "", nil
			out.Reset()

			err := cli.run(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Contains(t, out.String(), "migrate "+tt.wantCommand+": done")
			}
			assert.Equal(t, tt.wantCommand, gotCommand)
			if tt.wantCommand != "" {
				assert.Equal(t, tt.wantArgs, append([]string{}, gotArgs...))
			}
		})
	}
}

func Test_commandLine_migrate_embedded(t *testing.T) {
	cli, _ := setup(t)
	assert.NoError(t, cli.run([]string{"migrate", "up"}), "already migrated")
}

func Test_commandLine_addUser(t *testing.T) {
	cli, out := setup(t)
	mary := testutil.CreateUser(t, usrRepo, "Mary", "mary@test.cd", "", user.RoleManager, false)

	t.Run("email required", func(t *testing.T) {
		mockPassword(t, "s3cret-pass")
		assert.Error(t, cli.run([]string{"adduser"}))
	})

	t.Run("empty password", func(t *testing.T) {
		mockPassword(t, "")
		err := cli.run([]string{"adduser", "--email", "root@test.cd"})
		assert.Equal(t, errEmptyPassword, err)
	})

	t.Run("create", func(t *testing.T) {
		mockPassword(t, "s3cret-pass")
		out.Reset()
		require.NoError(t, cli.run([]string{"adduser", "--email", "Root@Test.cd"}))
		assert.Contains(t, out.String(), `admin "Root" <root@test.cd> is ready`)

		usr, err := usrRepo.GetUserByEmail(ctx, "root@test.cd")
		require.NoError(t, err)
		assert.Equal(t, user.RoleAdmin, usr.UserType)
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword("s3cret-pass"))
	})

	t.Run("promote", func(t *testing.T) {
		mockPassword(t, "new-s3cret")
		require.NoError(t, cli.run([]string{"adduser", "--email", mary.Email, "--name", "Mary K."}))

		usr, err := usrRepo.GetUserByID(ctx, mary.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mary K.", usr.Name)
		assert.Equal(t, user.RoleAdmin, usr.UserType)
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword("new-s3cret"))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "Jo", "jo@test.cd", "old-pass-1", user.RoleStaff, true)

	tests := []struct {
		name    string
		args    []string
		pwd     string
		wantErr error
	}{
		{name: "user not found", args: []string{"resetpassword", "--email", "lol@test.cd"}, pwd: "lol-lol-lol", wantErr: user.ErrNotFound},
		{name: "empty password", args: []string{"resetpassword", "--email", usr.Email}, wantErr: errEmptyPassword},
		{name: "reset", args: []string{"resetpassword", "--email", usr.Email}, pwd: "new-pass-2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)

			err := cli.run(tt.args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)

			refreshed, err := usrRepo.GetUserByID(ctx, usr.ID)
			require.NoError(t, err)
			assert.NoError(t, refreshed.CheckPassword(tt.pwd))
		})
	}
}
