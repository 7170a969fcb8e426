package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/ujenzi/core/user"
	"github.com/trezcool/ujenzi/storage/database"
)

var (
	readPasswordFunc  = term.ReadPassword       // mockable
	runMigrationsFunc = database.RunMigrations // mockable

	errEmptyPassword = errors.New("password cannot be empty")
)

type commandLine struct {
	db     *sqlx.DB
	engine string
	usrSvc user.Service
	out    io.Writer
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Ujenzi administration tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(cli.out)
	root.SetErr(cli.out)
	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
	)
	return root
}

// run executes the command line, args excluding the program name.
func (cli *commandLine) run(args []string) error {
	root := cli.rootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func (cli *commandLine) promptPassword() (string, error) {
	_, _ = fmt.Fprint(cli.out, "Enter password: ")
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	if len(pwd) == 0 {
		return "", errEmptyPassword
	}
	return string(pwd), nil
}

func (cli *commandLine) success(format string, args ...interface{}) {
	_, _ = color.New(color.FgGreen).Fprintf(cli.out, format+"\n", args...)
}
