// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/shuttle/pkg/config"
	"github.com/walteh/shuttle/pkg/monitor"
	"github.com/walteh/shuttle/pkg/notify"
	"github.com/walteh/shuttle/pkg/store"
	"github.com/walteh/shuttle/pkg/transfer"
	"github.com/walteh/shuttle/pkg/userlog"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	debug      bool
)

func main() {
	root := &cobra.Command{
		Use:           "shuttle",
		Short:         "Watch a remote store directory and shuttle finished files to a destination",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", ".shuttle.yaml", "config file path")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	if err := root.Execute(); err != nil {
		logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
		logger.Error().Err(err).Msg("shuttle exited with error")
		os.Exit(1)
	}
}

// setupLogging configures zerolog based on flags
func setupLogging() zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	return logger
}

func run(cmd *cobra.Command, args []string) error {
	logger := setupLogging()

	// Cancellation is cooperative: an interrupt stops the loop between
	// iterations or inside a sleep, and Run returns cleanly.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	// Load config
	cfg, err := config.Load(ctx, configFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	// Create the notification side-channel (no-op when no webhook is set)
	notifier := notify.FromConfig(cfg.Notification)

	// Create the store client and establish credentials. No usable
	// credentials is fatal: nothing can proceed without a token.
	client := store.New(cfg.Store)
	if cfg.Store.Token != "" {
		logger.Info().Msg("using configured store token")
		notifier.Notify(ctx, notify.Event{Message: "🔑 Connecting to the store with the configured token", Severity: notify.SeverityInfo})
	} else {
		if err := client.Login(ctx); err != nil {
			notifier.Notify(ctx, notify.Event{Message: "❌ Store login failed: " + err.Error(), Severity: notify.SeverityError})
			return errors.Errorf("logging in to store: %w", err)
		}
		notifier.Notify(ctx, notify.Event{Message: "✅ Store login succeeded", Severity: notify.SeverityInfo})
	}

	// Wire the orchestrator and the monitor loop
	orchestrator := transfer.NewOrchestrator(transfer.Options{
		Store:    client,
		Notifier: notifier,
		Readiness: transfer.ReadinessParams{
			CheckInterval: cfg.Monitor.Readiness.CheckInterval(),
			MaxSamples:    cfg.Monitor.Readiness.MaxSamples(),
			StableSamples: cfg.Monitor.Readiness.StableSamples,
		},
		Confirm: transfer.ConfirmParams{
			Interval:       cfg.Monitor.Confirm.Interval(),
			CopyAttempts:   cfg.Monitor.Confirm.CopyAttempts,
			DeleteAttempts: cfg.Monitor.Confirm.DeleteAttempts,
		},
	})
	mon := monitor.New(monitor.Options{
		Store:     client,
		Transfers: orchestrator,
		Notifier:  notifier,
		UserLog:   userlog.NewForContext(ctx),
		Config:    cfg.Monitor,
	})

	// Run until cancelled. Anything Run returns is unexpected and must
	// fail visibly rather than be swallowed.
	if err := mon.Run(ctx); err != nil {
		notifier.Notify(ctx, notify.Event{Message: "❌ Monitor crashed: " + err.Error(), Severity: notify.SeverityError})
		return errors.Errorf("running monitor: %w", err)
	}

	return nil
}
