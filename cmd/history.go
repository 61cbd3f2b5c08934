package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/xvierd/countdown-cli/internal/config"
	"github.com/xvierd/countdown-cli/internal/domain"
	"github.com/xvierd/countdown-cli/internal/services"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent countdown runs",
	Long:  `List recent countdown runs, newest first, with how each one ended.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		runs, err := app.history.Recent(context.Background(), historyLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return outputHistoryJSON(cmd.OutOrStdout(), runs)
		}
		printHistory(cmd.OutOrStdout(), runs, time.Now())
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of runs to show")
}

func printHistory(w io.Writer, runs []*domain.CountdownRun, now time.Time) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No countdowns yet.")
		return
	}

	theme := config.DefaultThemeConfig()
	if app.config != nil {
		theme = app.config.Theme
	}
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ColorMuted))
	for _, r := range runs {
		elapsed := formatClock(r.Elapsed(now))
		fmt.Fprintf(w, "%s  %-10s %s of %s  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			domain.GetOutcomeLabel(r.Outcome),
			elapsed,
			formatClock(r.Requested),
			muted.Render(shortID(r.ID)),
		)
	}

	sum := services.Summarize(runs)
	fmt.Fprintf(w, "\n%d runs · %d expired · %d stopped · %d reset · %s counted\n",
		sum.Runs,
		sum.ByOutcome[domain.OutcomeExpired],
		sum.ByOutcome[domain.OutcomeStopped],
		sum.ByOutcome[domain.OutcomeReset],
		formatClock(sum.Counted),
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func outputHistoryJSON(w io.Writer, runs []*domain.CountdownRun) error {
	list := make([]map[string]interface{}, 0, len(runs))
	for _, r := range runs {
		data := map[string]interface{}{
			"id":         r.ID,
			"requested":  r.Requested.String(),
			"outcome":    string(r.Outcome),
			"started_at": r.StartedAt.Format(time.RFC3339),
			"fields": map[string]string{
				"hours":   r.Snapshot.Value(domain.FieldHours),
				"minutes": r.Snapshot.Value(domain.FieldMinutes),
				"seconds": r.Snapshot.Value(domain.FieldSeconds),
			},
		}
		if r.EndedAt != nil {
			data["ended_at"] = r.EndedAt.Format(time.RFC3339)
			data["elapsed"] = r.Elapsed(*r.EndedAt).String()
		}
		list = append(list, data)
	}

	sum := services.Summarize(runs)
	result := map[string]interface{}{
		"runs":    list,
		"counted": sum.Counted.String(),
	}

	jsonData, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	fmt.Fprintln(w, string(jsonData))
	return nil
}
