package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "part107",
		Short:         "Study for the FAA Part 107 remote pilot knowledge test",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.store, "store", "", "Storage backend: sqlite or file (default from STORE_DRIVER)")
	pf.StringVar(&flags.dbPath, "db", "", "SQLite database path (default from DB_PATH)")
	pf.StringVar(&flags.dataFile, "data-file", "", "JSON progress file (default from DATA_FILE)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVar(&flags.json, "json", false, "Print machine-readable JSON")

	rootCmd.AddCommand(newModulesCommand(ctx))
	rootCmd.AddCommand(newStudyCommand(ctx))
	rootCmd.AddCommand(newTestCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newExportCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))
	rootCmd.AddCommand(newResetCommand(ctx))

	return rootCmd
}

func envSet(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}
