package main

import (
	"github.com/spf13/cobra"
)

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run the embedded migrations: up, up-by-one, up-to, down, down-to, redo, reset, status, version",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := runMigrationsFunc(cmd.Context(), cli.db, cli.engine, args[0], args[1:]...); err != nil {
				return err
			}
			cli.success("migrate %s: done", args[0])
			return nil
		},
	}
}
