package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vytor/part107/internal/app"
	"github.com/vytor/part107/internal/models"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		moduleID string
		since    string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past practice tests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := models.HistoryFilter{ModuleID: moduleID, Limit: limit}
			if since != "" {
				t, err := time.ParseInLocation("2006-01-02", since, time.Local)
				if err != nil {
					return fmt.Errorf("--since must be YYYY-MM-DD: %w", err)
				}
				filter.Since = &t
			}

			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				attempts, err := a.Practice.History(c, filter)
				if err != nil {
					return err
				}
				if ctx.flags.json {
					return writeJSON(cmd, attempts)
				}
				if len(attempts) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No practice tests taken yet.")
					return nil
				}

				rows := make([][]string, 0, len(attempts))
				for _, at := range attempts {
					module := at.ModuleID
					if module == "" {
						module = "all"
					}
					rows = append(rows, []string{
						at.Date.Local().Format("2006-01-02 15:04"),
						module,
						strconv.Itoa(at.ScorePercent) + "%",
						fmt.Sprintf("%d/%d", at.CorrectCount(), at.TotalQuestions),
						formatSeconds(at.TimeSpentSeconds),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Date", "Module", "Score", "Correct", "Time"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&moduleID, "module", "m", "", "Only tests from this module")
	cmd.Flags().StringVar(&since, "since", "", "Only tests taken on or after this date (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of tests to list (0 for all)")
	return cmd
}
