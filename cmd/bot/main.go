package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"weatherbot/internal/app"
	"weatherbot/internal/config"
	"weatherbot/pkg/systemd"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		_ = systemd.Failed(err.Error(), 1)
		os.Exit(1)
	}
}

func run() error {
	var cfgPath, envFile string
	flags := pflag.NewFlagSet("weatherbot", pflag.ContinueOnError)
	flags.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file with overrides (ignored when missing)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if err := config.LoadEnvFile(envFile); err != nil {
		return fmt.Errorf("env file: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, config.NewManager(cfgPath))
	if err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		stopCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		_ = a.Stop(stopCtx, app.StopFatalError)
		return fmt.Errorf("start: %w", err)
	}
	_ = systemd.Ready()

	select {
	case <-ctx.Done():
	case <-a.Done():
	}
	reason := app.StopSignal
	if ctx.Err() == nil {
		reason = app.StopFatalError
	}
	_ = systemd.Stopping()

	stopCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	_ = a.Stop(stopCtx, reason)
	if reason == app.StopFatalError {
		return a.Err()
	}
	return nil
}
