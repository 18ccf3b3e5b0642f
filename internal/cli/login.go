package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to X in a visible browser and store the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newAuthManager(currentConfig())
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		if err := mgr.Login(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged in.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored X session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := newAuthManager(currentConfig())
		if err != nil {
			return err
		}
		if err := mgr.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}
