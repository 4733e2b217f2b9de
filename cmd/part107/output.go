package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/vytor/part107/internal/logger"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// painter colours text only when stdout is a terminal.
type painter struct {
	enabled bool
}

func newPainter(cmd *cobra.Command) painter {
	return painter{enabled: logger.IsTerminal(cmd.OutOrStdout())}
}

func (p painter) paint(s string, colors ...text.Color) string {
	if !p.enabled {
		return s
	}
	return text.Colors(colors).Sprint(s)
}

func (p painter) good(s string) string  { return p.paint(s, text.FgGreen) }
func (p painter) bad(s string) string   { return p.paint(s, text.FgRed) }
func (p painter) title(s string) string { return p.paint(s, text.Bold, text.FgCyan) }
func (p painter) faint(s string) string { return p.paint(s, text.Faint) }

func formatSeconds(sec int) string {
	return (time.Duration(sec) * time.Second).String()
}

func formatDuration(sec int) string {
	h, m := sec/3600, (sec%3600)/60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm %ds", m, sec%60)
}
