package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Rebuild stored streaks and completion totals from task history",
	RunE:  runRecompute,
}

func init() {
	recomputeCmd.Flags().String("user", "", "user id")
}

func runRecompute(cmd *cobra.Command, args []string) error {
	user, err := requireUser(cmd)
	if err != nil {
		return err
	}
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	profile, err := e.profiles.Recompute(cmd.Context(), user)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "user:            %s\n", profile.UserID)
	fmt.Fprintf(out, "current streak:  %d\n", profile.CurrentStreak)
	fmt.Fprintf(out, "best streak:     %d\n", profile.BestStreak)
	fmt.Fprintf(out, "last activity:   %s\n", formatDate(profile.LastActivityDate))
	fmt.Fprintf(out, "completed tasks: %d\n", profile.TotalTasksCompleted)
	return nil
}
