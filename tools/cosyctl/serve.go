package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AltairaLabs/cosyvoice-bridge/pkg/config"
	"github.com/AltairaLabs/cosyvoice-bridge/runtime/logger"
	metricsprom "github.com/AltairaLabs/cosyvoice-bridge/runtime/metrics/prometheus"
	"github.com/AltairaLabs/cosyvoice-bridge/server/bridge"
)

const (
	keyAddr        = "addr"
	keyMetricsAddr = "metrics-addr"

	shutdownTimeout = 10 * time.Second
)

func (c *cli) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the host bridge over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, overrides, err := c.loadConfig()
			if err != nil {
				return err
			}
			overrideString(c.v, keyAddr, &cfg.Spec.Server.Addr)
			if addr := c.v.GetString(keyMetricsAddr); addr != "" {
				cfg.Spec.Metrics.Enabled = true
				cfg.Spec.Metrics.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", cfg.Spec.Server.Addr)
			if err != nil {
				return err
			}
			return serve(ctx, cfg, overrides, ln)
		},
	}
	cmd.Flags().String(keyAddr, "", "Bridge listen address (default from config, :8080)")
	cmd.Flags().String(keyMetricsAddr, "", "Serve Prometheus metrics on this address")
	c.bindFlags(cmd, keyAddr, keyMetricsAddr)
	return cmd
}

// serve runs the bridge on ln until ctx is cancelled. Settings are loaded and
// the first readiness check starts in the background, so /ready answers 503
// until it completes.
func serve(ctx context.Context, cfg *config.Config, overrides map[string]any, ln net.Listener) error {
	a, err := newApp(ctx, cfg, overrides)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = a.Close(closeCtx)
	}()

	opts := []bridge.Option{
		bridge.WithNotificationLog(a.notes),
		bridge.WithReadHeaderTimeout(cfg.Spec.Server.ReadHeaderTimeout),
	}
	if cfg.Spec.Server.MaxBodySize > 0 {
		opts = append(opts, bridge.WithMaxBodySize(cfg.Spec.Server.MaxBodySize))
	}
	if cfg.Spec.Metrics.Enabled {
		exporter := metricsprom.NewExporter(cfg.Spec.Metrics.Addr)
		opts = append(opts, bridge.WithHandler("GET /metrics", exporter.Handler()))
		go func() {
			if err := exporter.Serve(ctx); err != nil {
				logger.Error("Metrics exporter stopped", "error", err)
			}
		}()
	}
	srv := bridge.NewServer(a.service, opts...)

	go func() {
		report := a.service.LoadSettings(ctx, a.effective)
		logger.InfoContext(ctx, "Initial readiness check complete",
			"voices", report.Voices, "ok", report.OK(), "duration", report.Duration)
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Bridge listening", "addr", ln.Addr().String(), "endpoint", a.service.Settings().Endpoint())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down bridge")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	// Serve may not have reached the listener yet.
	_ = ln.Close()
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
