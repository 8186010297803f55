// Package bootstrap handles application initialization and lifecycle
// management for the sponsored-articles proxy.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/cybersalt/cs-sponsored-articles/infrastructure/profiling"
	"github.com/cybersalt/cs-sponsored-articles/internal/metrics"
	"github.com/cybersalt/cs-sponsored-articles/internal/provision"
)

const profilingShutdownTimeout = 5 * time.Second

// Serve runs the proxy until ctx is cancelled or a shutdown signal arrives.
func Serve(ctx context.Context, configPath string, debug bool) error {
	// Phase 1: Load config and create logger
	cfg, err := LoadConfig(configPath, debug)
	if err != nil {
		return err
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	// Phase 2: Start profiling server (if enabled)
	if pprofServer := profiling.Start(cfg.Profiling, log); pprofServer != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), profilingShutdownTimeout)
			defer cancel()
			_ = pprofServer.Shutdown(shutdownCtx)
		}()
	}

	// Phase 3: Setup database and the optional cache
	db, err := SetupDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	redisClient := SetupRedis(ctx, cfg, log)
	defer closeRedis(redisClient, log)

	// Phase 4: Metrics and domain services
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	svc := SetupServices(cfg, db, redisClient, m, log)

	if cfg.Provision.OnStartup {
		svc.Provisioner.Run(ctx, provision.ActionUpdate)
	}

	// Phase 5: Setup and run HTTP server
	server := SetupHTTPServer(cfg, svc, db, redisClient, reg, log)

	log.Info("Starting HTTP server",
		infralogger.String("host", cfg.Service.Host),
		infralogger.Int("port", cfg.Service.Port),
		infralogger.String("upstream", cfg.Upstream.URL),
		infralogger.String("boundary_mode", cfg.Plugin.BoundaryMode),
		infralogger.String("lookup_mode", cfg.Plugin.LookupMode),
		infralogger.Strings("candidates", svc.Tagger.Candidates()),
	)

	if runErr := server.RunWithGracefulShutdown(ctx); runErr != nil {
		log.Error("Server error", infralogger.Error(runErr))
		return fmt.Errorf("server error: %w", runErr)
	}

	log.Info("Server exited")
	return nil
}

// Provision runs field provisioning once for action. Like the lifecycle
// hook it serves, it reports failures in the log only.
func Provision(ctx context.Context, configPath string, debug bool, action provision.Action) (provision.Outcome, error) {
	cfg, err := LoadConfig(configPath, debug)
	if err != nil {
		return provision.Outcome{}, err
	}

	log, err := CreateLogger(cfg)
	if err != nil {
		return provision.Outcome{}, err
	}
	defer func() { _ = log.Sync() }()

	db, err := SetupDatabase(ctx, cfg, log)
	if err != nil {
		return provision.Outcome{}, err
	}
	defer closeDatabase(db, log)

	return NewProvisioner(cfg, db, log).Run(ctx, action), nil
}
