package main

import (
	"strings"

	"github.com/spf13/cobra"
)

// addUserCmd creates an admin, or promotes and re-activates the user with that email.
func (cli *commandLine) addUserCmd() *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create or promote an admin user. The password is prompted next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := cli.promptPassword()
			if err != nil {
				return err
			}
			if name == "" {
				name, _, _ = strings.Cut(email, "@")
			}
			usr, err := cli.usrSvc.EnsureAdmin(cmd.Context(), name, email, pwd)
			if err != nil {
				return err
			}
			cli.success("admin %q <%s> is ready", usr.Name, usr.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "The user's full name (defaults to the email's local part)")
	cmd.Flags().StringVar(&email, "email", "", "The user's email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
