package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/youta-t/flarc"

	"github.com/crimson-sun/teximal/internal/config"
	"github.com/crimson-sun/teximal/internal/logging"
	"github.com/crimson-sun/teximal/internal/output"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger := initLogging(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd, err := newCommand(cfg)
	if err != nil {
		logger.Error("failed to build commands", "err", err)
		os.Exit(1)
	}
	os.Exit(flarc.Run(ctx, cmd, flarc.WithHelp(true)))
}

// initLogging installs the process-wide logger on stderr. JSON reports on
// stdout get JSON logs.
func initLogging(cfg config.Config) *slog.Logger {
	return logging.Init(cfg.Output.Format == string(output.FormatJSON), logging.ParseLevel(cfg.LogLevel))
}
