package domain

import (
	"math"
	"time"
)

// BondStatus is the parametric bond state reported in the artifact.
type BondStatus string

const (
	BondLocked         BondStatus = "LOCKED"
	BondPayoutReleased BondStatus = "PAYOUT_RELEASED"
)

// attackRatePopulation is the denominator attack rates are expressed per.
const attackRatePopulation = 1000

// SimulationMetadata describes the run that produced a report.
type SimulationMetadata struct {
	RunID         string    `json:"run_id"`
	GeneratedAt   time.Time `json:"generated_at"`
	StartTime     time.Time `json:"start_time"`
	DurationHours int       `json:"duration_hours"`
	Seed          int64     `json:"seed"`
	GrowthFactor  float64   `json:"growth_factor"`
	TotalEvents   int       `json:"total_events"`
}

// BondTrigger summarizes the payout decision over the whole timeline.
type BondTrigger struct {
	ThresholdZScore  float64    `json:"threshold_z_score"`
	CriticalZScore   float64    `json:"critical_z_score"`
	CurrentMaxZScore float64    `json:"current_max_z_score"`
	PeakAlertLevel   AlertLevel `json:"peak_alert_level"`
	TriggerHour      *int       `json:"trigger_hour,omitempty"` // first payout-eligible hour
	Status           BondStatus `json:"status"`
}

// ZoneSummary is the per-zone case tally. AttackRate is cases per 1,000 residents.
type ZoneSummary struct {
	Zone
	Cases      int     `json:"cases"`
	AttackRate float64 `json:"attack_rate"`
}

// Report is the JSON artifact consumed by the dashboards.
type Report struct {
	Metadata  SimulationMetadata  `json:"simulation_metadata"`
	Events    []SurveillanceEvent `json:"events"`
	Timeline  []HourlyAggregate   `json:"z_score_timeline"`
	Trigger   BondTrigger         `json:"parametric_bond_trigger"`
	Geography []ZoneSummary       `json:"geographic_data"`
}

// ReportInput gathers everything BuildReport needs. Events should already be
// sorted by hour offset.
type ReportInput struct {
	RunID       string
	GeneratedAt time.Time
	Params      GeneratorParams
	Zones       []Zone
	Events      []SurveillanceEvent
	Timeline    []HourlyAggregate
}

// BuildReport assembles the output artifact. Events are copied and labelled
// with the alert level of their hour bin; the inputs are not modified.
func BuildReport(in ReportInput) Report {
	return Report{
		Metadata: SimulationMetadata{
			RunID:         in.RunID,
			GeneratedAt:   in.GeneratedAt.UTC(),
			StartTime:     in.Params.StartTime.UTC(),
			DurationHours: in.Params.DurationHours,
			Seed:          in.Params.Seed,
			GrowthFactor:  in.Params.GrowthFactor,
			TotalEvents:   len(in.Events),
		},
		Events:    labelEvents(in.Events, in.Timeline),
		Timeline:  in.Timeline,
		Trigger:   evaluateTrigger(in.Timeline),
		Geography: summarizeZones(in.Zones, in.Events),
	}
}

func labelEvents(events []SurveillanceEvent, timeline []HourlyAggregate) []SurveillanceEvent {
	out := make([]SurveillanceEvent, len(events))
	for i, e := range events {
		if h := e.Hour(); h >= 0 && h < len(timeline) {
			e.AlertLevel = timeline[h].Classification
		}
		out[i] = e
	}
	return out
}

func evaluateTrigger(timeline []HourlyAggregate) BondTrigger {
	t := BondTrigger{
		ThresholdZScore:  BondThresholdZScore,
		CriticalZScore:   PayoutZScore,
		CurrentMaxZScore: MaxZScore(timeline),
		PeakAlertLevel:   AlertGreen,
		Status:           BondLocked,
	}
	for i := range timeline {
		a := &timeline[i]
		if a.Classification.Rank() > t.PeakAlertLevel.Rank() {
			t.PeakAlertLevel = a.Classification
		}
		if a.PayoutEligible && t.TriggerHour == nil {
			hour := a.Hour
			t.TriggerHour = &hour
			t.Status = BondPayoutReleased
		}
	}
	return t
}

func summarizeZones(zones []Zone, events []SurveillanceEvent) []ZoneSummary {
	cases := make(map[string]int, len(zones))
	for i := range events {
		cases[events[i].Zone]++
	}
	out := make([]ZoneSummary, len(zones))
	for i, z := range zones {
		c := cases[z.Name]
		rate := 0.0
		if z.Population > 0 {
			rate = math.Round(float64(c)/float64(z.Population)*attackRatePopulation*1000) / 1000
		}
		out[i] = ZoneSummary{Zone: z, Cases: c, AttackRate: rate}
	}
	return out
}
