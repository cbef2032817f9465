package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "List a user's tasks for one week",
	RunE:  runWeek,
}

func init() {
	weekCmd.Flags().String("user", "", "user id")
	weekCmd.Flags().Int("offset", 0, "weeks from the current one (-1 is last week)")
}

func runWeek(cmd *cobra.Command, args []string) error {
	user, err := requireUser(cmd)
	if err != nil {
		return err
	}
	offset, _ := cmd.Flags().GetInt("offset")

	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.close()

	view, err := e.tasks.GetWeekTasks(cmd.Context(), user, offset)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Week %s .. %s: %d tasks, %d completed (%.0f%%)\n",
		view.WeekStart, view.WeekEnd, view.Total, view.Completed, view.CompletionRate*100)
	for _, t := range view.Tasks {
		fmt.Fprintf(out, "  %-10s %-6s %-12s %s\n", t.Status, t.Priority, t.Category, t.Title)
	}
	return nil
}
