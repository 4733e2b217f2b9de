package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vytor/part107/internal/app"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a JSON backup of settings, card progress and test history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				export, err := a.Progress.Export(c)
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					return writeJSON(cmd, export)
				}

				data, err := json.MarshalIndent(export, "", "  ")
				if err != nil {
					return fmt.Errorf("encode backup: %w", err)
				}
				if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
					return fmt.Errorf("write backup: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s (%d cards, %d tests)\n",
					output, len(export.FlashcardProgress), len(export.TestHistory))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Backup file to write (default stdout)")
	return cmd
}

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Restore a JSON backup, replacing the sections it contains",
		Long: `Restore a backup written by export. Each section present in the file
(settings, flashcardProgress, testHistory) replaces the stored one; absent
sections are left alone. Use - to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				res, err := a.Progress.Import(c, data)
				if err != nil {
					return err
				}
				if ctx.flags.json {
					return writeJSON(cmd, res)
				}

				var parts []string
				if res.Settings {
					parts = append(parts, "settings")
				}
				parts = append(parts, fmt.Sprintf("%d cards", res.Cards), fmt.Sprintf("%d tests", res.Attempts))
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s\n", strings.Join(parts, ", "))
				return nil
			})
		},
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}
	return data, nil
}

func newResetCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all card progress, test history and settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				reply, ok := newPrompter(cmd).ask("This erases all study progress. Type 'yes' to continue: ")
				if !ok || !strings.EqualFold(reply, "yes") {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			return ctx.withApp(cmd, func(c context.Context, a *app.App) error {
				if err := a.Progress.ClearAll(c); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "All progress cleared.")
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
