package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vytor/part107/internal/app"
	"github.com/vytor/part107/internal/models"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show study progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				sum, err := a.Progress.Summary(c)
				if err != nil {
					return err
				}
				if ctx.flags.json {
					return writeJSON(cmd, sum)
				}
				printSummary(cmd, sum)
				return nil
			})
		},
	}
}

func printSummary(cmd *cobra.Command, sum *models.ProgressSummary) {
	out := cmd.OutOrStdout()
	p := newPainter(cmd)

	rows := [][]string{
		{"Cards studied", strconv.Itoa(sum.CardsStudied)},
		{"Cards mastered", strconv.Itoa(sum.CardsMastered)},
		{"Cards struggling", strconv.Itoa(sum.CardsStruggling)},
		{"Cards due", strconv.Itoa(sum.CardsDue)},
		{"Average ease", fmt.Sprintf("%.2f", sum.AvgEaseFactor)},
		{"Average interval", fmt.Sprintf("%.2f days", sum.AvgIntervalDays)},
		{"Tests taken", strconv.Itoa(sum.TestsTaken)},
		{"Average score", strconv.Itoa(sum.AverageScore) + "%"},
		{"Time on tests", formatDuration(sum.TotalStudySeconds)},
		{"Study streak", strconv.Itoa(sum.StudyStreakDays) + " day(s)"},
	}
	if sum.LastTestAt != nil {
		rows = append(rows, []string{"Last test", sum.LastTestAt.Local().Format("2006-01-02 15:04")})
	}
	if sum.DaysUntilExam != nil {
		rows = append(rows, []string{"Days until exam", strconv.Itoa(*sum.DaysUntilExam)})
	}

	fmt.Fprintln(out, p.title("Progress"))
	fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

	if len(sum.WeakAreas) == 0 {
		return
	}
	weak := make([][]string, 0, len(sum.WeakAreas))
	for _, w := range sum.WeakAreas {
		weak = append(weak, []string{
			w.Title,
			fmt.Sprintf("%d/%d", w.Correct, w.Total),
			p.bad(strconv.Itoa(w.Percentage) + "%"),
		})
	}
	fmt.Fprintln(out, p.title("Weak areas"))
	fmt.Fprintln(out, renderTable([]string{"Module", "Correct", "Score"}, weak, []columnAlignment{alignLeft, alignRight, alignRight}))
}
