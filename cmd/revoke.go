package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRevokeCmd() *cobra.Command {
	var (
		user  string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke a user's stored calendar credentials",
		Long: `Delete the stored credentials for the given user and ask Google to
invalidate the tokens.

Provider-side revocation is best effort: the local credentials are removed
even when the revocation endpoint cannot be reached.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := newServerContext(cmd, debug)
			if err != nil {
				return err
			}
			defer func() { _ = sc.Shutdown() }()

			ok, msg := sc.Service().Revoke(sc.Context(), user)
			fmt.Println(msg)
			if !ok {
				return fmt.Errorf("revocation failed for user %s", user)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User identifier (e-mail address)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
