package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/pocode/internal/config"
	"github.com/MeKo-Tech/pocode/internal/server"
	"github.com/spf13/cobra"
)

var serveConfigKeys = map[string]string{
	"server.host":                            "host",
	"server.port":                            "port",
	"server.cors_origin":                     "cors-origin",
	"server.max_upload_mb":                   "max-upload-size",
	"server.timeout_sec":                     "timeout",
	"server.shutdown_timeout":                "shutdown-timeout",
	"server.max_batch_items":                 "max-batch-items",
	"server.rate_limit.enabled":              "rate-limit-enabled",
	"server.rate_limit.requests_per_minute":  "requests-per-minute",
	"server.rate_limit.requests_per_hour":    "requests-per-hour",
	"server.rate_limit.max_requests_per_day": "max-requests-per-day",
	"server.rate_limit.max_data_per_day_mb":  "max-data-per-day",
	"codec.format":                           "format",
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start an HTTP server that encodes and decodes symbols.

The server provides the following endpoints:
  GET  /health        - Health check
  GET  /formats       - Supported symbologies
  POST /encode        - Encode JSON {format,text|data_base64,...}
  POST /decode        - Decode a JSON text matrix or a multipart image
  POST /batch/encode  - Encode several items at once
  GET  /ws            - WebSocket encode/decode frames
  GET  /metrics       - Prometheus metrics

Examples:
  pocode serve
  pocode serve --port 8080
  pocode serve --host 0.0.0.0 --port 3000 --rate-limit-enabled`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         runServe,
	}

	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringP("host", "H", d.Server.Host, "server host")
	f.IntP("port", "p", d.Server.Port, "server port")
	f.String("cors-origin", d.Server.CORSOrigin, "CORS allowed origins")
	f.Int("max-upload-size", d.Server.MaxUploadMB, "maximum request body in MB")
	f.Int("timeout", d.Server.TimeoutSec, "request timeout in seconds")
	f.Int("shutdown-timeout", d.Server.ShutdownTimeout, "shutdown timeout in seconds")
	f.Int("max-batch-items", d.Server.MaxBatchItems, "maximum items per batch request")
	f.String("format", d.Codec.Format, "default symbology for encode requests")
	// Rate limiting flags
	f.Bool("rate-limit-enabled", d.Server.RateLimit.Enabled, "enable rate limiting")
	f.Int("requests-per-minute", d.Server.RateLimit.RequestsPerMinute, "maximum requests per minute per client")
	f.Int("requests-per-hour", d.Server.RateLimit.RequestsPerHour, "maximum requests per hour per client")
	f.Int("max-requests-per-day", d.Server.RateLimit.MaxRequestsPerDay, "maximum requests per day per client (0 for none)")
	f.Int64("max-data-per-day", d.Server.RateLimit.MaxDataPerDayMB, "maximum upload volume per day per client in MB (0 for none)")
	return cmd
}

// serverConfig maps the resolved configuration to server.Config.
func serverConfig(cfg *config.Config) (server.Config, error) {
	defaults, err := cfg.Codec.EncodeOptions()
	if err != nil {
		return server.Config{}, err
	}
	rl := cfg.Server.RateLimit
	return server.Config{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		CORSOrigin:    cfg.Server.CORSOrigin,
		MaxUploadMB:   int64(cfg.Server.MaxUploadMB),
		TimeoutSec:    cfg.Server.TimeoutSec,
		MaxBatchItems: cfg.Server.MaxBatchItems,
		Defaults:      defaults,
		Render:        cfg.Codec.RenderOptions(),
		RateLimit: server.RateLimitConfig{
			Enabled:           rl.Enabled,
			RequestsPerMinute: rl.RequestsPerMinute,
			RequestsPerHour:   rl.RequestsPerHour,
			MaxRequestsPerDay: rl.MaxRequestsPerDay,
			MaxDataPerDay:     rl.MaxDataPerDayMB * 1024 * 1024,
		},
	}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCommandConfig(cmd, serveConfigKeys)
	if err != nil {
		return err
	}
	serverCfg, err := serverConfig(cfg)
	if err != nil {
		return err
	}

	codecServer, err := server.NewServer(serverCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              serverCfg.Addr(),
		Handler:           codecServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Duration(serverCfg.TimeoutSec) * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return serveUntilDone(ctx, httpServer, time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
}

// serveUntilDone runs httpServer until ctx ends or listening fails, then
// shuts it down within shutdownTimeout.
func serveUntilDone(ctx context.Context, httpServer *http.Server, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", httpServer.Addr, err)
	}
	slog.Info("Starting pocode server", "addr", ln.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	slog.Info("Starting graceful shutdown", "timeout", shutdownTimeout.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("Graceful shutdown completed")
	return nil
}
