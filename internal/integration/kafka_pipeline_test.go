//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VISENDI56/iLuminara-Core-sub003/internal/adapter/file"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/adapter/kafka"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/config"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/domain"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/observability"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/pipeline"
)

const (
	testEventsTopic = "test-surveillance-events"
	testAlertsTopic = "test-outbreak-alerts"
)

// TestPipelinePublishesRun runs one simulation through the file and Kafka
// sinks and reads the run back from both topics.
func TestPipelinePublishesRun(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testEventsTopic)
	createTopic(t, broker, testAlertsTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaEventsTopic: testEventsTopic,
		KafkaAlertsTopic: testAlertsTopic,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	writer := kafka.NewWriter(cfg, logger)
	t.Cleanup(func() { _ = writer.Close() })
	artifact := file.NewWriter(filepath.Join(t.TempDir(), "simulated_outbreak.json"), logger)

	start := time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)
	sim := pipeline.NewSimulator(domain.DefaultZones(), clockwork.NewFakeClockAt(start), logger, metrics)
	p := pipeline.New(sim, []pipeline.ReportLoader{artifact, writer}, logger, metrics)

	params := domain.DefaultGeneratorParams(start, 42)
	params.DurationHours = 48
	report, err := p.RunOnce(ctx, params)
	require.NoError(t, err)
	require.NotEmpty(t, report.Events)

	events := newConsumer(broker, testEventsTopic)
	defer events.Close()
	for i, want := range report.Events {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := events.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read event %d", i)

		assert.Equal(t, want.ID, string(msg.Key))
		headers := headerMap(msg)
		assert.Equal(t, string(want.Source), headers["source"])
		assert.Equal(t, want.Zone, headers["zone"])
		assert.Equal(t, report.Metadata.RunID, headers["run_id"])
	}

	alerts := newConsumer(broker, testAlertsTopic)
	defer alerts.Close()
	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := alerts.ReadMessage(readCtx)
	require.NoError(t, err, "read run summary")

	assert.Equal(t, report.Metadata.RunID, string(msg.Key))
	assert.Equal(t, string(report.Trigger.Status), headerMap(msg)["status"])

	var summary kafka.RunSummary
	require.NoError(t, json.Unmarshal(msg.Value, &summary))
	assert.Equal(t, report.Metadata.TotalEvents, summary.Metadata.TotalEvents)
	assert.Equal(t, report.Trigger.PeakAlertLevel, summary.Trigger.PeakAlertLevel)
	assert.Equal(t, domain.BondPayoutReleased, summary.Trigger.Status)
}
