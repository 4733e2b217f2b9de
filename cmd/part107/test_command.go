package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vytor/part107/internal/app"
	"github.com/vytor/part107/internal/services"
)

func newTestCommand(ctx *commandContext) *cobra.Command {
	var (
		mode     string
		moduleID string
	)

	cmd := &cobra.Command{
		Use:   "test",
		Short: "Take a multiple-choice practice test",
		Long: `Take a practice test. Answer each question with its letter (A-D) or
number, or press Enter to skip. Type q to submit early.

Modes: mini (10), quick (20), practice (50), full (100), module (every
question of --module).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				test, err := a.Practice.StartTest(c, services.StartTestRequest{Mode: mode, ModuleID: moduleID})
				if err != nil {
					return err
				}

				result, err := runTest(c, cmd, a.Practice, test)
				if err != nil {
					_ = a.Practice.DiscardTest(c, test.ID)
					return err
				}
				if ctx.flags.json {
					return writeJSON(cmd, result)
				}
				printTestResult(cmd.OutOrStdout(), newPainter(cmd), result)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "quick", "Test mode: mini, quick, practice, full or module")
	cmd.Flags().StringVarP(&moduleID, "module", "m", "", "Module to draw questions from (module mode)")
	return cmd
}

func runTest(ctx context.Context, cmd *cobra.Command, svc services.PracticeService, test *services.TestView) (*services.TestView, error) {
	out := cmd.OutOrStdout()
	p := newPainter(cmd)
	in := newPrompter(cmd)

	fmt.Fprintf(out, "%s %s, %d questions\n", p.title("Practice test:"), test.Mode, test.Total)

questions:
	for i, q := range test.Questions {
		fmt.Fprintf(out, "\n%d. %s\n", i+1, q.Question)
		for j, opt := range q.Options {
			fmt.Fprintf(out, "   %c) %s\n", 'A'+j, opt)
		}

		for {
			reply, ok := in.ask("Answer> ")
			if !ok || strings.EqualFold(reply, "q") {
				break questions
			}
			if reply == "" {
				break
			}
			option, ok := parseOption(reply, len(q.Options))
			if !ok {
				fmt.Fprintf(out, "enter a letter A-%c, a number 1-%d, or nothing to skip\n", 'A'+len(q.Options)-1, len(q.Options))
				continue
			}
			if _, err := svc.Answer(ctx, test.ID, i, option); err != nil {
				return nil, err
			}
			break
		}
	}

	return svc.Submit(ctx, test.ID)
}

// parseOption accepts "b", "B" or "2" for the second of n options.
func parseOption(reply string, n int) (int, bool) {
	if len(reply) == 1 {
		c := reply[0] | 0x20
		if c >= 'a' && int(c-'a') < n {
			return int(c - 'a'), true
		}
	}
	if v, err := strconv.Atoi(reply); err == nil && v >= 1 && v <= n {
		return v - 1, true
	}
	return 0, false
}

func printTestResult(out io.Writer, p painter, test *services.TestView) {
	attempt := test.Attempt
	if attempt == nil {
		return
	}

	score := fmt.Sprintf("%d%%", attempt.ScorePercent)
	if attempt.ScorePercent >= 70 {
		score = p.good(score)
	} else {
		score = p.bad(score)
	}
	fmt.Fprintf(out, "\n%s %s (%d/%d correct) in %s\n",
		p.title("Score:"), score, attempt.CorrectCount(), attempt.TotalQuestions, formatSeconds(attempt.TimeSpentSeconds))

	var rows [][]string
	for i, q := range test.Questions {
		if q.CorrectAnswer == nil || (q.Selected != nil && *q.Selected == *q.CorrectAnswer) {
			continue
		}
		yours := "-"
		if q.Selected != nil {
			yours = string(rune('A' + *q.Selected))
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			q.Question,
			yours,
			string(rune('A'+*q.CorrectAnswer)) + ") " + q.Options[*q.CorrectAnswer],
		})
	}
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Question", "Yours", "Correct"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
}
