package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/VISENDI56/iLuminara-Core-sub003/internal/domain"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/observability"
)

// Simulator runs generate, aggregate, classify and report for one parameter set.
type Simulator struct {
	zones   []domain.Zone
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSimulator creates a Simulator over the given zone table. The clock stamps
// generated_at and resolves a zero start time.
func NewSimulator(zones []domain.Zone, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Simulator {
	return &Simulator{zones: zones, clock: clock, logger: logger, metrics: metrics}
}

// Simulate produces a complete report. Apart from run_id and generated_at the
// report is a pure function of params and the zone table.
func (s *Simulator) Simulate(ctx context.Context, params domain.GeneratorParams) (domain.Report, error) {
	if err := ctx.Err(); err != nil {
		return domain.Report{}, err
	}
	if params.StartTime.IsZero() {
		params.StartTime = s.clock.Now().UTC().Truncate(time.Hour)
	}

	events, err := domain.GenerateEvents(params, s.zones)
	if err != nil {
		return domain.Report{}, err
	}
	events = domain.SortByHour(events)

	timeline, err := domain.AggregateHourly(events, domain.DefaultAggregateOptions(params.DurationHours, params.StartTime))
	if err != nil {
		return domain.Report{}, fmt.Errorf("aggregate: %w", err)
	}

	report := domain.BuildReport(domain.ReportInput{
		RunID:       uuid.NewString(),
		GeneratedAt: s.clock.Now(),
		Params:      params,
		Zones:       s.zones,
		Events:      events,
		Timeline:    timeline,
	})
	s.record(report)

	s.logger.Info("simulation complete",
		"run_id", report.Metadata.RunID,
		"seed", params.Seed,
		"duration_hours", params.DurationHours,
		"events", report.Metadata.TotalEvents,
		"max_z_score", report.Trigger.CurrentMaxZScore,
		"peak_alert_level", report.Trigger.PeakAlertLevel,
		"status", report.Trigger.Status,
	)
	return report, nil
}

func (s *Simulator) record(report domain.Report) {
	for i := range report.Events {
		s.metrics.EventsGenerated.WithLabelValues(string(report.Events[i].Source)).Inc()
	}
	s.metrics.MaxZScore.Set(report.Trigger.CurrentMaxZScore)
	s.metrics.PeakAlertLevel.Set(float64(report.Trigger.PeakAlertLevel.Rank()))
	if report.Trigger.Status == domain.BondPayoutReleased {
		s.metrics.PayoutReleased.Set(1)
	} else {
		s.metrics.PayoutReleased.Set(0)
	}
}
