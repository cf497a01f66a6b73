package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/learnadoodle/planner/internal/auth"
	"github.com/learnadoodle/planner/internal/calendar"
)

type weekView struct {
	WeekStart string   `json:"weekStart"`
	WeekEnd   string   `json:"weekEnd"`
	Days      []string `json:"days"`
}

var now = time.Now

func weekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week [date]",
		Short: "Print the Monday-to-Sunday week containing a date (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := now()
			if len(args) == 1 {
				d, err := calendar.ParseDate(args[0])
				if err != nil {
					return err
				}
				day = d
			}
			view := weekView{
				WeekStart: calendar.Format(calendar.WeekStart(day)),
				WeekEnd:   calendar.Format(calendar.WeekEnd(day)),
			}
			for _, d := range calendar.WeekDays(day) {
				view.Days = append(view.Days, calendar.Format(d))
			}
			return render(cmd, view)
		},
	}
}

func recoveryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recovery <url>",
		Short: "Extract password-recovery tokens from a redirect URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens := auth.ParseRecoveryFragment(args[0])
			return render(cmd, struct {
				auth.RecoveryTokens
				Recovery bool `json:"recovery"`
			}{tokens, tokens.IsRecovery()})
		},
	}
}
