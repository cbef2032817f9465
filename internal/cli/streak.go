package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show a user's streaks as of today",
	RunE:  runStreak,
}

func init() {
	streakCmd.Flags().String("user", "", "user id")
}

func runStreak(cmd *cobra.Command, args []string) error {
	user, err := requireUser(cmd)
	if err != nil {
		return err
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	summary, err := e.profiles.GetStreakSummary(cmd.Context(), user)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "as of %s (%s)\n", summary.AsOf, e.calendar.Location())
	fmt.Fprintf(out, "  %-14s current %3d  best %3d  last %s\n", "all", summary.CurrentStreak, summary.BestStreak, formatDate(summary.LastActivityDate))
	for _, p := range summary.Platforms {
		fmt.Fprintf(out, "  %-14s current %3d  best %3d  last %s\n", p.Category, p.CurrentStreak, p.BestStreak, formatDate(p.LastActivityDate))
	}
	return nil
}
