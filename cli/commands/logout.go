package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and drop the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closer, err := a.newService(a.cfg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}
			if closer != nil {
				defer closer()
			}

			if err := svc.Logout(cmd.Context()); err != nil {
				// The local session is gone either way; just report it.
				fmt.Fprintf(a.stderr, "Warning: backend logout failed: %v\n", err)
			}
			fmt.Fprintln(a.stdout, "Signed out.")
			return nil
		},
	}
}
