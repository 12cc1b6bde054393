package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/VISENDI56/iLuminara-Core-sub003/internal/domain"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// ReportLoader delivers a finished report to a sink (file, Kafka).
type ReportLoader interface {
	LoadReport(ctx context.Context, report domain.Report) error
}

// Pipeline runs the simulator and hands each report to every loader in order.
type Pipeline struct {
	sim     *Simulator
	loaders []ReportLoader
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
	last    atomic.Pointer[domain.Report]
}

// New creates a Pipeline with the given simulator, sinks, and observability.
func New(sim *Simulator, loaders []ReportLoader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		sim:     sim,
		loaders: loaders,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once at least one run has been loaded into every sink.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no simulation run has completed yet")
	}
	return nil
}

// RunOnce simulates one run and loads it. Loaders run in order and the first
// failure aborts the rest; the report is still returned alongside the error.
func (p *Pipeline) RunOnce(ctx context.Context, params domain.GeneratorParams) (domain.Report, error) {
	start := time.Now()

	report, err := p.sim.Simulate(ctx, params)
	if err != nil {
		p.metrics.Runs.WithLabelValues(outcome(err)).Inc()
		return domain.Report{}, err
	}

	for _, l := range p.loaders {
		if err := l.LoadReport(ctx, report); err != nil {
			p.metrics.Runs.WithLabelValues("error").Inc()
			return report, fmt.Errorf("load run %s: %w", report.Metadata.RunID, err)
		}
	}

	p.metrics.Runs.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.last.Store(&report)
	p.ready.Store(true)
	return report, nil
}

// LatestRun returns the most recent fully loaded report.
func (p *Pipeline) LatestRun() (domain.Report, bool) {
	r := p.last.Load()
	if r == nil {
		return domain.Report{}, false
	}
	return *r, true
}

// Run simulates on a fixed interval until the context is cancelled. Run n uses
// seed params.Seed+n. Invalid parameters stop the loop immediately; load
// failures are retried with the same seed after a backoff.
func (p *Pipeline) Run(ctx context.Context, params domain.GeneratorParams, interval time.Duration) error {
	if err := params.Validate(); err != nil {
		return err
	}

	p.logger.Info("pipeline started", "interval", interval, "base_seed", params.Seed)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	backoff := initialBackoff

	for run := int64(0); ; {
		runParams := params
		runParams.Seed = params.Seed + run

		_, err := p.RunOnce(ctx, runParams)
		if ctx.Err() != nil {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
		if err != nil {
			p.logger.Error("simulation run failed", "error", err, "seed", runParams.Seed, "retry_in", backoff)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}

		backoff = initialBackoff
		run++
		if !sleepWithContext(ctx, interval) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

func outcome(err error) string {
	if errors.Is(err, domain.ErrInvalidDuration) || errors.Is(err, domain.ErrInvalidParams) {
		return "invalid"
	}
	return "error"
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
