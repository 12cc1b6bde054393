package domain

import (
	"math"
	"slices"
	"time"
)

// Source identifies the reporting channel of a surveillance event.
type Source string

const (
	SourceCommunityReport Source = "CBS" // community-based surveillance
	SourceClinicalRecord  Source = "EMR" // electronic medical record
)

// AgeGroup is the reported age band of a case.
type AgeGroup string

const (
	AgeUnder5  AgeGroup = "<5"
	Age5To14   AgeGroup = "5-14"
	Age15To49  AgeGroup = "15-49"
	Age50AndUp AgeGroup = "50+"
)

// Phase names the outbreak stage an event was generated in.
type Phase string

const (
	PhaseBackground   Phase = "background"
	PhaseWeakSignal   Phase = "weak_signal"
	PhaseConfirmation Phase = "confirmation"
	PhaseCritical     Phase = "critical"
)

// Severity is the case severity tag attached by the generator.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// SurveillanceEvent is a single synthetic case report.
//
// Timestamp always equals the run start plus HourOffset hours (see
// [OffsetTime]). AlertLevel is empty on generated events and only set on the
// labelled copies carried by a [Report].
type SurveillanceEvent struct {
	ID            string             `json:"event_id"`
	Timestamp     time.Time          `json:"timestamp"`
	HourOffset    float64            `json:"hour"`
	Phase         Phase              `json:"phase"`
	Source        Source             `json:"source"`
	Zone          string             `json:"location"`
	SpatialCellID string             `json:"h3_index"`
	AgeGroup      AgeGroup           `json:"age_group"`
	Symptoms      map[string]float64 `json:"symptom_vector"`
	LabConfirmed  *bool              `json:"lab_confirmed,omitempty"`
	Severity      Severity           `json:"severity"`
	AlertLevel    AlertLevel         `json:"alert_level,omitempty"`
}

// Hour returns the integer hour bin of the event.
func (e SurveillanceEvent) Hour() int {
	return int(math.Floor(e.HourOffset))
}

// Confirmed reports whether the event carries a positive lab result.
func (e SurveillanceEvent) Confirmed() bool {
	return e.LabConfirmed != nil && *e.LabConfirmed
}

// OffsetTime converts an hour offset into an absolute UTC timestamp.
func OffsetTime(start time.Time, hourOffset float64) time.Time {
	return start.UTC().Add(time.Duration(hourOffset * float64(time.Hour)))
}

// SortByHour returns a copy of events ordered by hour offset. Events sharing
// an offset keep their generation order.
func SortByHour(events []SurveillanceEvent) []SurveillanceEvent {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b SurveillanceEvent) int {
		switch {
		case a.HourOffset < b.HourOffset:
			return -1
		case a.HourOffset > b.HourOffset:
			return 1
		default:
			return 0
		}
	})
	return sorted
}
