package main

import (
	"github.com/spf13/cobra"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password. The password is prompted next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			usr, err := cli.usrSvc.ResetPassword(cmd.Context(), email, pwd)
			if err != nil {
				return err
			}
			cli.success("password of <%s> updated", usr.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The user's email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
