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

const studyHelp = "ratings: 1 again, 2 hard, 3 fair, 4 good, 5 easy | s shuffle, r restart, q quit"

func newStudyCommand(ctx *commandContext) *cobra.Command {
	var (
		moduleID   string
		difficulty string
		quick      bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "study",
		Short: "Review flashcards with spaced repetition",
		Long: `Review flashcards one at a time. Press Enter to reveal the answer, then
rate how well you recalled it from 1 (again) to 5 (easy).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("--cards must not be negative")
			}
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				view, err := a.Study.StartSession(c, services.StartSessionRequest{
					ModuleID:   moduleID,
					Difficulty: difficulty,
					Quick:      quick,
				})
				if err != nil {
					return err
				}
				defer func() { _ = a.Study.EndSession(c, view.ID) }()

				return runStudy(c, cmd, a.Study, view, limit)
			})
		},
	}

	cmd.Flags().StringVarP(&moduleID, "module", "m", "", "Only study cards from this module")
	cmd.Flags().StringVarP(&difficulty, "difficulty", "d", "", "Only study cards of this difficulty (easy, medium, hard)")
	cmd.Flags().BoolVarP(&quick, "quick", "q", false, "Quick session with a smaller deck")
	cmd.Flags().IntVarP(&limit, "cards", "n", 0, "Stop after this many reviews (0 for no limit)")
	return cmd
}

func runStudy(ctx context.Context, cmd *cobra.Command, study services.StudyService, view *services.SessionView, limit int) error {
	out := cmd.OutOrStdout()
	p := newPainter(cmd)
	in := newPrompter(cmd)

	fmt.Fprintf(out, "%s (%d cards)\n%s\n", p.title("Study session"), view.Total, p.faint(studyHelp))

	reviewed := 0
	for limit == 0 || reviewed < limit {
		fmt.Fprintf(out, "\n[%d/%d] %s\n", view.Position+1, view.Total, view.Card.Front)

		reply, ok := in.ask("Press Enter to flip> ")
		if !ok {
			break
		}
		switch strings.ToLower(reply) {
		case "q":
			return printStudySummary(out, p, view)
		case "s":
			next, err := study.Shuffle(ctx, view.ID)
			if err != nil {
				return err
			}
			view = next
			fmt.Fprintln(out, p.faint("deck reshuffled"))
			continue
		case "r":
			next, err := study.Reset(ctx, view.ID)
			if err != nil {
				return err
			}
			view = next
			fmt.Fprintln(out, p.faint("session restarted"))
			continue
		}

		flipped, err := study.Flip(ctx, view.ID)
		if err != nil {
			return err
		}
		view = flipped
		fmt.Fprintf(out, "%s %s\n", p.good("Answer:"), view.Card.Back)

		quality, quit, ok := askQuality(in, out)
		if !ok {
			break
		}
		if quit {
			return printStudySummary(out, p, view)
		}

		res, err := study.Review(ctx, view.ID, quality)
		if err != nil {
			return err
		}
		view = res.Session
		reviewed++

		fmt.Fprintln(out, p.faint(fmt.Sprintf("next review in %d day(s), ease %.2f",
			res.Outcome.State.IntervalDays, res.Outcome.State.EaseFactor)))
		if res.Outcome.Wrapped {
			fmt.Fprintln(out, p.title("Deck complete, starting over"))
		}
	}

	return printStudySummary(out, p, view)
}

func askQuality(in *prompter, out io.Writer) (quality int, quit, ok bool) {
	for {
		reply, ok := in.ask("Rate 1-5> ")
		if !ok {
			return 0, false, false
		}
		if strings.EqualFold(reply, "q") {
			return 0, true, true
		}
		q, err := strconv.Atoi(reply)
		if err == nil && q >= 1 && q <= 5 {
			return q, false, true
		}
		fmt.Fprintln(out, studyHelp)
	}
}

func printStudySummary(out io.Writer, p painter, view *services.SessionView) error {
	st := view.Stats
	fmt.Fprintf(out, "\n%s reviewed %d, correct %d, accuracy %d%%, streak %d, time %s\n",
		p.title("Session:"), st.CardsReviewed, st.Correct, st.Accuracy, st.Streak, formatSeconds(st.ElapsedSeconds))
	return nil
}
