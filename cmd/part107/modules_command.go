package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vytor/part107/internal/app"
)

func newModulesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List study modules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				modules := a.Study.ListModules(c)
				if ctx.flags.json {
					return writeJSON(cmd, modules)
				}

				rows := make([][]string, 0, len(modules))
				for _, m := range modules {
					rows = append(rows, []string{
						m.ID,
						m.Title,
						strconv.Itoa(m.ExamPercentage) + "%",
						strconv.Itoa(m.Topics),
						strconv.Itoa(m.Flashcards),
						strconv.Itoa(m.Questions),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Module", "Exam", "Topics", "Cards", "Questions"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}
