package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/VISENDI56/iLuminara-Core-sub003/internal/config"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/domain"
)

// RunSummary is the alert-topic payload published once per run.
type RunSummary struct {
	Metadata domain.SimulationMetadata `json:"simulation_metadata"`
	Trigger  domain.BondTrigger        `json:"parametric_bond_trigger"`
}

// Writer publishes simulation output to Kafka: every event on the events
// topic and one run summary on the alerts topic.
// It implements pipeline.ReportLoader.
type Writer struct {
	writer      *kafkago.Writer
	eventsTopic string
	alertsTopic string
	logger      *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topics. The topic is
// set per message, so one producer serves both.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{
		writer:      w,
		eventsTopic: cfg.KafkaEventsTopic,
		alertsTopic: cfg.KafkaAlertsTopic,
		logger:      logger,
	}
}

// LoadReport serializes the run and publishes it in a single WriteMessages call.
func (w *Writer) LoadReport(ctx context.Context, report domain.Report) error {
	msgs, err := buildMessages(w.eventsTopic, w.alertsTopic, report)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish run %s: %w", report.Metadata.RunID, err)
	}
	w.logger.Info("published simulation run",
		"run_id", report.Metadata.RunID,
		"events", len(report.Events),
		"status", report.Trigger.Status,
	)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// buildMessages orders event messages first so consumers of the alerts topic
// can assume the run's events are already on the events topic.
func buildMessages(eventsTopic, alertsTopic string, report domain.Report) ([]kafkago.Message, error) {
	msgs := make([]kafkago.Message, 0, len(report.Events)+1)
	for i := range report.Events {
		msg, err := serializeEvent(eventsTopic, report.Metadata.RunID, report.Events[i])
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	summary, err := serializeSummary(alertsTopic, report)
	if err != nil {
		return nil, err
	}
	return append(msgs, summary), nil
}

// serializeEvent marshals a SurveillanceEvent into a Kafka message keyed by event ID.
func serializeEvent(topic, runID string, event domain.SurveillanceEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize surveillance event: %w", err)
	}
	return kafkago.Message{
		Topic: topic,
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(event.Source)},
			{Key: "zone", Value: []byte(event.Zone)},
			{Key: "run_id", Value: []byte(runID)},
		},
	}, nil
}

// serializeSummary marshals the run metadata and bond trigger keyed by run ID.
func serializeSummary(topic string, report domain.Report) (kafkago.Message, error) {
	data, err := json.Marshal(RunSummary{Metadata: report.Metadata, Trigger: report.Trigger})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run summary: %w", err)
	}
	return kafkago.Message{
		Topic: topic,
		Key:   []byte(report.Metadata.RunID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(report.Trigger.Status)},
			{Key: "generated_at", Value: []byte(report.Metadata.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
