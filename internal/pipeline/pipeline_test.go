package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/VISENDI56/iLuminara-Core-sub003/internal/domain"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/observability"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/pipeline"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testNow = time.Date(2025, time.April, 1, 13, 37, 0, 0, time.UTC)

// --- mocks ---

type mockLoader struct {
	mu      sync.Mutex
	seeds   []int64
	runIDs  []string
	failFor int // number of initial calls that fail
	onLoad  func(calls int)
}

func (m *mockLoader) LoadReport(_ context.Context, report domain.Report) error {
	m.mu.Lock()
	m.seeds = append(m.seeds, report.Metadata.Seed)
	m.runIDs = append(m.runIDs, report.Metadata.RunID)
	calls := len(m.seeds)
	m.mu.Unlock()

	if m.onLoad != nil {
		m.onLoad(calls)
	}
	if calls <= m.failFor {
		return errors.New("sink unavailable")
	}
	return nil
}

func (m *mockLoader) loadedSeeds() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int64(nil), m.seeds...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSimulator(metrics *observability.Metrics) *pipeline.Simulator {
	return pipeline.NewSimulator(domain.DefaultZones(), clockwork.NewFakeClockAt(testNow), discardLogger(), metrics)
}

func params(duration int, seed int64) domain.GeneratorParams {
	p := domain.DefaultGeneratorParams(time.Time{}, seed)
	p.DurationHours = duration
	return p
}

// --- simulator ---

func TestSimulator_Simulate_ResolvesStartFromClock(t *testing.T) {
	sim := newSimulator(observability.NewMetricsForTesting())

	report, err := sim.Simulate(context.Background(), params(72, 42))
	require.NoError(t, err)

	assert.Equal(t, testNow.Truncate(time.Hour), report.Metadata.StartTime)
	assert.Equal(t, testNow, report.Metadata.GeneratedAt)
	_, err = uuid.Parse(report.Metadata.RunID)
	require.NoError(t, err)
	require.Len(t, report.Timeline, 72)
	assert.Equal(t, testNow.Truncate(time.Hour), report.Timeline[0].Timestamp)
}

func TestSimulator_Simulate_KeepsExplicitStart(t *testing.T) {
	sim := newSimulator(observability.NewMetricsForTesting())
	start := time.Date(2025, time.March, 3, 6, 0, 0, 0, time.UTC)

	p := params(24, 7)
	p.StartTime = start
	report, err := sim.Simulate(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, start, report.Metadata.StartTime)
}

func TestSimulator_Simulate_EventsSortedByHour(t *testing.T) {
	sim := newSimulator(observability.NewMetricsForTesting())

	report, err := sim.Simulate(context.Background(), params(72, 42))
	require.NoError(t, err)
	for i := 1; i < len(report.Events); i++ {
		require.LessOrEqual(t, report.Events[i-1].HourOffset, report.Events[i].HourOffset)
	}
}

func TestSimulator_Simulate_Deterministic(t *testing.T) {
	sim := newSimulator(observability.NewMetricsForTesting())

	a, err := sim.Simulate(context.Background(), params(72, 42))
	require.NoError(t, err)
	b, err := sim.Simulate(context.Background(), params(72, 42))
	require.NoError(t, err)

	assert.NotEqual(t, a.Metadata.RunID, b.Metadata.RunID)
	a.Metadata.RunID, b.Metadata.RunID = "", ""
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different reports (-first +second):\n%s", diff)
	}
}

func TestSimulator_Simulate_RecordsMetrics(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	sim := newSimulator(metrics)

	report, err := sim.Simulate(context.Background(), params(72, 42))
	require.NoError(t, err)

	cbs := testutil.ToFloat64(metrics.EventsGenerated.WithLabelValues(string(domain.SourceCommunityReport)))
	emr := testutil.ToFloat64(metrics.EventsGenerated.WithLabelValues(string(domain.SourceClinicalRecord)))
	assert.Equal(t, float64(report.Metadata.TotalEvents), cbs+emr)
	assert.Equal(t, report.Trigger.CurrentMaxZScore, testutil.ToFloat64(metrics.MaxZScore))
	assert.Equal(t, float64(report.Trigger.PeakAlertLevel.Rank()), testutil.ToFloat64(metrics.PeakAlertLevel))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.PayoutReleased))
}

func TestSimulator_Simulate_InvalidDuration(t *testing.T) {
	sim := newSimulator(observability.NewMetricsForTesting())

	_, err := sim.Simulate(context.Background(), params(0, 42))
	require.ErrorIs(t, err, domain.ErrInvalidDuration)
}

func TestSimulator_Simulate_CancelledContext(t *testing.T) {
	sim := newSimulator(observability.NewMetricsForTesting())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Simulate(ctx, params(72, 42))
	require.ErrorIs(t, err, context.Canceled)
}

// --- pipeline ---

func TestPipeline_RunOnce_LoadsEverySink(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	first, second := &mockLoader{}, &mockLoader{}
	p := pipeline.New(newSimulator(metrics), []pipeline.ReportLoader{first, second}, discardLogger(), metrics)

	require.Error(t, p.CheckReadiness(context.Background()))
	_, ok := p.LatestRun()
	assert.False(t, ok)

	report, err := p.RunOnce(context.Background(), params(72, 42))
	require.NoError(t, err)
	latest, ok := p.LatestRun()
	require.True(t, ok)
	assert.Equal(t, report.Metadata.RunID, latest.Metadata.RunID)
	assert.Equal(t, domain.BondPayoutReleased, report.Trigger.Status)
	assert.Equal(t, []int64{42}, first.loadedSeeds())
	assert.Equal(t, []int64{42}, second.loadedSeeds())
	assert.Equal(t, first.runIDs, second.runIDs)

	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Runs.WithLabelValues("success")))
}

func TestPipeline_RunOnce_LoaderFailureStopsChain(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	failing, next := &mockLoader{failFor: 1}, &mockLoader{}
	p := pipeline.New(newSimulator(metrics), []pipeline.ReportLoader{failing, next}, discardLogger(), metrics)

	report, err := p.RunOnce(context.Background(), params(24, 42))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink unavailable")
	assert.NotEmpty(t, report.Metadata.RunID)
	assert.Empty(t, next.loadedSeeds())
	require.Error(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Runs.WithLabelValues("error")))
}

func TestPipeline_RunOnce_InvalidParams(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	ldr := &mockLoader{}
	p := pipeline.New(newSimulator(metrics), []pipeline.ReportLoader{ldr}, discardLogger(), metrics)

	_, err := p.RunOnce(context.Background(), params(-3, 42))
	require.ErrorIs(t, err, domain.ErrInvalidDuration)
	assert.Empty(t, ldr.loadedSeeds())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Runs.WithLabelValues("invalid")))
}

func TestPipeline_Run_AdvancesSeedPerRun(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ldr := &mockLoader{onLoad: func(calls int) {
		if calls == 3 {
			cancel()
		}
	}}
	p := pipeline.New(newSimulator(metrics), []pipeline.ReportLoader{ldr}, discardLogger(), metrics)

	err := p.Run(ctx, params(36, 42), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []int64{42, 43, 44}, ldr.loadedSeeds())
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.PipelineRunning))
}

func TestPipeline_Run_RetriesSameSeedAfterFailure(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ldr := &mockLoader{failFor: 1, onLoad: func(calls int) {
		if calls == 2 {
			cancel()
		}
	}}
	p := pipeline.New(newSimulator(metrics), []pipeline.ReportLoader{ldr}, discardLogger(), metrics)

	err := p.Run(ctx, params(36, 42), time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []int64{42, 42}, ldr.loadedSeeds())
}

func TestPipeline_Run_InvalidParamsReturnsError(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(newSimulator(metrics), nil, discardLogger(), metrics)

	err := p.Run(context.Background(), params(0, 42), time.Second)
	require.ErrorIs(t, err, domain.ErrInvalidDuration)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	ldr := &mockLoader{}
	p := pipeline.New(newSimulator(metrics), []pipeline.ReportLoader{ldr}, discardLogger(), metrics)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx, params(72, 42), time.Second)
	require.NoError(t, err)
	assert.Empty(t, ldr.loadedSeeds())
	require.Error(t, p.CheckReadiness(context.Background()))
}
