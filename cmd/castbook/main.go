package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	// Initialize context that cancelled on SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Getenv, os.Getwd, os.Args[1:]); err != nil {
		slog.Error("castbook stopped with error", "error", err.Error())
		os.Exit(1)
	}
}

// Load config and run server until ctx is done
func run(ctx context.Context, getenv func(string) string, getwd func() (string, error), args []string) error {
	config := NewConfig()

	if err := config.LoadDotEnv(getwd); err != nil {
		return fmt.Errorf("error while loading .env. Err: %w", err)
	}
	if err := config.LoadEnv(getenv); err != nil {
		return fmt.Errorf("error while loading environment. Err: %w", err)
	}
	if err := config.ParseFlags(args); err != nil {
		return fmt.Errorf("error while parsing flags. Err: %w", err)
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid config. Err: %w", err)
	}

	app, err := NewServerApp(ctx, config)
	if err != nil {
		return fmt.Errorf("can't initialize app, sorry. Err: %w", err)
	}
	defer app.Close()

	return app.Run(ctx)
}
