package domain

import "math"

// AlertLevel is the categorical outcome of scoring an hour.
type AlertLevel string

const (
	AlertGreen    AlertLevel = "GREEN"
	AlertYellow   AlertLevel = "YELLOW"
	AlertOrange   AlertLevel = "ORANGE"
	AlertRed      AlertLevel = "RED"
	AlertCritical AlertLevel = "CRITICAL"
)

// Threshold is the inclusive lower bound of an alert band.
type Threshold struct {
	Level AlertLevel
	Min   float64
}

const (
	// BondThresholdZScore is the ORANGE cut point, reported on the bond trigger.
	BondThresholdZScore = 2.576
	// PayoutZScore must be strictly exceeded for the bond to pay out.
	PayoutZScore = 4.2
	// PayoutMinHour must be strictly exceeded for the bond to pay out.
	// Redundant with the critical-phase amplification but part of the trigger contract.
	PayoutMinHour = 30
)

// alertThresholds is ordered by ascending Min.
var alertThresholds = [...]Threshold{
	{Level: AlertGreen, Min: 0.0},
	{Level: AlertYellow, Min: 1.0},
	{Level: AlertOrange, Min: BondThresholdZScore},
	{Level: AlertRed, Min: PayoutZScore},
	{Level: AlertCritical, Min: 5.0},
}

// Thresholds returns the ordered alert cut points.
func Thresholds() []Threshold {
	out := make([]Threshold, len(alertThresholds))
	copy(out, alertThresholds[:])
	return out
}

// Classify maps a z-score to the highest alert level whose lower bound does
// not exceed it. Negative and NaN scores classify GREEN.
func Classify(z float64) AlertLevel {
	level := AlertGreen
	if math.IsNaN(z) {
		return level
	}
	for _, t := range alertThresholds {
		if z < t.Min {
			break
		}
		level = t.Level
	}
	return level
}

// PayoutReleased reports whether an hour's score flips the parametric bond.
func PayoutReleased(z float64, hour int) bool {
	return z > PayoutZScore && hour > PayoutMinHour
}

// Rank returns the ordinal of the level, GREEN=0 through CRITICAL=4.
// Unknown levels rank -1.
func (l AlertLevel) Rank() int {
	for i, t := range alertThresholds {
		if t.Level == l {
			return i
		}
	}
	return -1
}
