package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// parseScheduleDate parses a YYYY-MM-DD date in the local time zone.
func parseScheduleDate(s string) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return date, nil
}

func newScheduleCmd() *cobra.Command {
	var (
		user  string
		date  string
		debug bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print a user's calendar schedule",
		Long: `Print the given user's calendar schedule for today, or for the date
given with --date.

If the user has no stored credentials, the interactive authorization flow
is started in the browser before the schedule is fetched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := newServerContext(cmd, debug)
			if err != nil {
				return err
			}
			defer func() { _ = sc.Shutdown() }()

			ctx := sc.Context()
			if date != "" {
				day, err := parseScheduleDate(date)
				if err != nil {
					return err
				}
				fmt.Println(sc.Service().GetScheduleForDate(ctx, user, day))
				return nil
			}

			fmt.Println(sc.Service().GetSchedule(ctx, user))
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User identifier (e-mail address)")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date to fetch the schedule for (YYYY-MM-DD, default: today)")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
