package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/marmos91/dittoacl/internal/logger"
	"github.com/marmos91/dittoacl/internal/telemetry"
	"github.com/marmos91/dittoacl/pkg/api"
	"github.com/marmos91/dittoacl/pkg/api/auth"
	"github.com/marmos91/dittoacl/pkg/config"
	"github.com/marmos91/dittoacl/pkg/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the permission API",
	Long: `Serve the permission operations over HTTP.

The API listens on api.port and, when metrics are enabled, Prometheus
metrics are served on metrics.port. Mutations run as jobs holding the
permission lock; poll /api/v1/jobs/{id} for their progress.

Examples:
  # Serve with the default configuration
  dfsacl serve

  # Serve with a custom config file
  dfsacl serve --config /etc/dittoacl/config.yaml

  # Override settings through the environment
  DITTOACL_LOGGING_LEVEL=DEBUG dfsacl serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}
	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", logger.Err(err))
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    telemetry.ServiceName,
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
		Tags:           map[string]string{"backend": cfg.Filesystem.Backend},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.Err(err))
		}
	}()

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("job store close error", logger.Err(err))
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	logger.Info("Filesystem configured",
		"root", cfg.Filesystem.Root,
		logger.Backend(cfg.Filesystem.Backend),
		"pools", cfg.Pools.Source,
		"jobs", cfg.Jobs.Store)

	if !cfg.API.Enabled && !cfg.Metrics.Enabled {
		return fmt.Errorf("nothing to serve: both api and metrics are disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		metricsServer := metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		g.Go(func() error { return metricsServer.Start(gctx) })
	} else {
		logger.Info("Metrics collection disabled")
	}

	if cfg.API.Enabled {
		deps := api.Deps{
			Service: a.service,
			Runner:  a.runner,
			Checker: a.checker,
			Pools:   a.pools,
			Domain:  a.domain,
		}
		if cfg.API.JWT.Secret != "" {
			jwtService, err := auth.NewJWTService(auth.JWTConfig{
				Secret:   cfg.API.JWT.Secret,
				Issuer:   cfg.API.JWT.Issuer,
				TokenTTL: cfg.API.JWT.TokenTTL,
			})
			if err != nil {
				return err
			}
			deps.JWT = jwtService
		} else {
			logger.Warn("API authentication disabled: api.jwt.secret is not set")
		}

		apiServer := api.NewServer(cfg.API, deps)
		g.Go(func() error { return apiServer.Start(gctx) })
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")
	if err := g.Wait(); err != nil {
		logger.Error("Server error", logger.Err(err))
		return err
	}
	logger.Info("Server stopped")
	return nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "defaults"
}
