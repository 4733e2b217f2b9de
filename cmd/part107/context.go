package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vytor/part107/internal/app"
	"github.com/vytor/part107/internal/config"
	"github.com/vytor/part107/internal/logger"
)

type globalFlags struct {
	store    string
	dbPath   string
	dataFile string
	logLevel string
	json     bool
}

// commandContext builds the application from global flags and the environment.
type commandContext struct {
	flags *globalFlags
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) config(cmd *cobra.Command) config.Config {
	cfg := config.Load()
	pf := cmd.Flags()
	if pf.Changed("store") {
		cfg.StoreDriver = strings.ToLower(c.flags.store)
	}
	if pf.Changed("db") {
		cfg.DBPath = c.flags.dbPath
	}
	if pf.Changed("data-file") {
		cfg.DataFile = c.flags.dataFile
	}
	if pf.Changed("log-level") {
		cfg.LogLevel = strings.ToUpper(c.flags.logLevel)
	} else if !envSet("LOG_LEVEL") {
		// Keep the terminal quiet unless asked otherwise.
		cfg.LogLevel = "WARN"
	}
	return cfg
}

func (c *commandContext) openApp(cmd *cobra.Command) (*app.App, error) {
	cfg := c.config(cmd)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.New(
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithCaller(false),
	)
	logger.SetDefault(log)

	return app.New(cfg)
}

// commandCtx returns the command's context carrying the default logger.
func commandCtx(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.NewContext(ctx, logger.Default())
}

// withApp opens the application, runs fn and closes the store again.
func (c *commandContext) withApp(cmd *cobra.Command, fn func(context.Context, *app.App) error) (err error) {
	a, err := c.openApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(commandCtx(cmd), a)
}
