// Command oracle runs the simulation on a fixed interval, as a stand-in feed
// for the parametric bond oracle. Each run is written to OUTPUT_PATH and, when
// KAFKA_ENABLED is true, published to Kafka. Health, readiness, and metrics
// are served on HTTP_ADDR.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/VISENDI56/iLuminara-Core-sub003/internal/adapter/file"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/adapter/httpadapter"
	kafkaadapter "github.com/VISENDI56/iLuminara-Core-sub003/internal/adapter/kafka"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/config"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/domain"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/observability"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	zones, err := domain.LoadZonesFile(cfg.ZonesFile)
	if err != nil {
		logger.Error("failed to load zone table", "error", err)
		os.Exit(1)
	}

	// The artifact is written last so it only reflects runs every sink accepted.
	var loaders []pipeline.ReportLoader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, writer)
		logger.Info("kafka publishing enabled",
			"brokers", cfg.KafkaBrokers,
			"events_topic", cfg.KafkaEventsTopic,
			"alerts_topic", cfg.KafkaAlertsTopic,
		)
	} else {
		logger.Info("kafka publishing disabled")
	}
	loaders = append(loaders, file.NewWriter(cfg.OutputPath, logger))

	sim := pipeline.NewSimulator(zones, clockwork.NewRealClock(), logger, metrics)
	p := pipeline.New(sim, loaders, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start simulation loop. Invalid parameters end the process.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx, cfg.GeneratorParams(), cfg.Interval); err != nil {
			logger.Error("pipeline error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
