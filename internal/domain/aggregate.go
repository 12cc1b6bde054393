package domain

import (
	"math"
	"time"
)

const (
	DefaultBaselineWindowHours = 12
	CriticalPhaseStartHour     = 30

	// FallbackBaselineStdDev is used when the baseline window holds no
	// occupied buckets. Synthetic; not a principled statistical choice.
	FallbackBaselineStdDev = 0.5

	// Critical-phase amplification: z *= AmplificationBase + AmplificationSlope*(hour-start).
	// A dramatization factor inherited from the demo fixtures, not an
	// epidemiological computation. Changing it alters every downstream fixture.
	AmplificationBase  = 1.3
	AmplificationSlope = 0.05
)

// HourlyAggregate is the scored case count of one hour bin.
//
// RawZScore is (CaseCount - BaselineMean) / BaselineStdDev, or 0 when the
// stddev is 0. ZScore is the amplified, non-negative score that drives
// Classification and PayoutEligible.
type HourlyAggregate struct {
	Hour           int        `json:"hour"`
	Timestamp      time.Time  `json:"timestamp"`
	CaseCount      int        `json:"cases"`
	BaselineMean   float64    `json:"baseline"`
	BaselineStdDev float64    `json:"baseline_stddev"`
	RawZScore      float64    `json:"raw_z_score"`
	ZScore         float64    `json:"z_score"`
	Classification AlertLevel `json:"alert_level"`
	PayoutEligible bool       `json:"payout_eligible"`
}

// AggregateOptions configures hourly scoring.
type AggregateOptions struct {
	DurationHours          int
	BaselineWindowHours    int
	CriticalPhaseStartHour int
	StartTime              time.Time
}

// DefaultAggregateOptions returns the reference scoring options for a run.
func DefaultAggregateOptions(durationHours int, start time.Time) AggregateOptions {
	return AggregateOptions{
		DurationHours:          durationHours,
		BaselineWindowHours:    DefaultBaselineWindowHours,
		CriticalPhaseStartHour: CriticalPhaseStartHour,
		StartTime:              start,
	}
}

// AggregateHourly buckets events by integer hour and scores every hour in
// [0, DurationHours). Events outside that window are ignored.
func AggregateHourly(events []SurveillanceEvent, opts AggregateOptions) ([]HourlyAggregate, error) {
	if opts.DurationHours <= 0 {
		return nil, &InvalidDurationError{Hours: opts.DurationHours}
	}

	counts := make([]int, opts.DurationHours)
	for i := range events {
		h := events[i].Hour()
		if h < 0 || h >= opts.DurationHours {
			continue
		}
		counts[h]++
	}

	mean, stddev := baseline(counts, opts.BaselineWindowHours)

	out := make([]HourlyAggregate, opts.DurationHours)
	for h, c := range counts {
		raw := 0.0
		if stddev > 0 {
			raw = (float64(c) - mean) / stddev
		}
		z := raw
		if h >= opts.CriticalPhaseStartHour {
			z *= amplification(h, opts.CriticalPhaseStartHour)
		}
		z = math.Max(z, 0)

		out[h] = HourlyAggregate{
			Hour:           h,
			Timestamp:      opts.StartTime.UTC().Add(time.Duration(h) * time.Hour),
			CaseCount:      c,
			BaselineMean:   mean,
			BaselineStdDev: stddev,
			RawZScore:      raw,
			ZScore:         z,
			Classification: Classify(z),
			PayoutEligible: PayoutReleased(z, h),
		}
	}
	return out, nil
}

// baseline returns the population mean and stddev of the occupied buckets
// below window. With no occupied buckets it returns (0, FallbackBaselineStdDev).
func baseline(counts []int, window int) (float64, float64) {
	var occupied []float64
	for h := 0; h < window && h < len(counts); h++ {
		if counts[h] > 0 {
			occupied = append(occupied, float64(counts[h]))
		}
	}
	if len(occupied) == 0 {
		return 0, FallbackBaselineStdDev
	}

	var sum float64
	for _, v := range occupied {
		sum += v
	}
	mean := sum / float64(len(occupied))

	var sq float64
	for _, v := range occupied {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(occupied)))
}

func amplification(hour, start int) float64 {
	return AmplificationBase + AmplificationSlope*float64(hour-start)
}

// MaxZScore returns the highest scored hour, or 0 for an empty timeline.
func MaxZScore(timeline []HourlyAggregate) float64 {
	var peak float64
	for i := range timeline {
		peak = math.Max(peak, timeline[i].ZScore)
	}
	return peak
}
