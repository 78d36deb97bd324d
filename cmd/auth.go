package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	var (
		user  string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize calendar access for a user",
		Long: `Run the interactive OAuth authorization flow for the given user and
store the resulting credentials.

The flow opens the Google consent page in the browser and waits for the
redirect on a loopback listener. Existing credentials for the user are
replaced.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := newServerContext(cmd, debug)
			if err != nil {
				return err
			}
			defer func() { _ = sc.Shutdown() }()

			if _, err := sc.Authenticator().Authorize(sc.Context(), user); err != nil {
				return fmt.Errorf("authorization failed: %w", err)
			}

			fmt.Printf("Authorization complete for user %s\n", user)
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User identifier (e-mail address)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
