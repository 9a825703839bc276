// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/pwstrength/internal/api"
	"github.com/holomush/pwstrength/internal/breach"
	"github.com/holomush/pwstrength/internal/observability"
	"github.com/holomush/pwstrength/pkg/errutil"
)

// shutdownTimeout bounds the graceful drain of both listeners.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and metrics",
		Long: `Serve the evaluation API on api.addr and, unless metrics.addr is
empty, Prometheus metrics and health probes on metrics.addr. Stops
gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	opts := cfg.BreachOptions()
	opts.Logger = logger
	checker, err := breach.New(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ready atomic.Bool
	handlerOpts := []api.Option{api.WithLogger(logger)}

	var obsServer *observability.Server
	var obsErrCh <-chan error
	if cfg.Metrics.Addr != "" {
		obsServer = observability.NewServer(cfg.Metrics.Addr, ready.Load, observability.WithLogger(logger))
		obsErrCh, err = obsServer.Start()
		if err != nil {
			return err
		}
		handlerOpts = append(handlerOpts, api.WithMetrics(obsServer.Metrics()))
	}

	apiServer := api.NewServer(cfg.API.Addr, api.NewHandler(checker, handlerOpts...))
	apiErrCh, err := apiServer.Start()
	if err != nil {
		stopAll(logger, obsServer, nil)
		return err
	}
	ready.Store(true)
	logger.Info("pwstrength serving",
		"api_addr", apiServer.Addr(),
		"metrics_addr", cfg.Metrics.Addr,
		"breach_mode", cfg.Breach.Mode,
	)

	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err, ok := <-apiErrCh:
		if ok {
			serveErr = oops.Code("API_SERVE_FAILED").Wrap(err)
		}
	case err, ok := <-obsErrCh:
		if ok {
			serveErr = oops.Code("OBSERVABILITY_SERVE_FAILED").Wrap(err)
		}
	}

	ready.Store(false)
	stopAll(logger, obsServer, apiServer)
	return serveErr
}

type stopper interface {
	Stop(ctx context.Context) error
}

// stopAll drains the API first so scrapes keep working until it is done.
func stopAll(logger *slog.Logger, obs *observability.Server, apiServer *api.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var servers []stopper
	if apiServer != nil {
		servers = append(servers, apiServer)
	}
	if obs != nil {
		servers = append(servers, obs)
	}
	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			errutil.LogError(shutdownCtx, logger, "shutdown failed", err)
		}
	}
}
