// Package domain models a synthetic disease-outbreak surveillance run.
//
// # Event Sources
//
// Two report channels feed the simulation:
//
//	CBS  Community-Based Surveillance. Informal reports from community health
//	     volunteers. Never lab confirmed.
//	EMR  Electronic Medical Record. Clinic and treatment-centre records. May
//	     carry a lab confirmation.
//
// # Outbreak Phases
//
// A run covers duration_hours (72 by default) split into four phases:
//
//	background     [0, 12)   2-5 low-intensity febrile/respiratory reports per zone
//	weak_signal    [12, 24)  a fixed handful of CBS "watery stool" reports in two zones
//	confirmation   [24, 30)  lab-confirmed EMR cases in the same two zones
//	critical       [30, end) exponential growth, 1.15x per hour by default
//
// Phase windows are clipped to the requested duration, so a 10 hour run holds
// background events only. Generated events are not ordered by hour offset;
// callers sort with [SortByHour] before aggregating.
//
// # Scoring
//
// Events are bucketed into integer hours. The baseline is the population mean
// and standard deviation of the occupied hourly buckets inside the baseline
// window (first 12 hours). Each hour scores
//
//	z = (cases - baseline_mean) / baseline_stddev
//
// From the critical phase start (hour 30) the score is multiplied by
// 1.3 + 0.05*(hour-30). That factor and the 0.5 stddev fallback used when the
// baseline window is empty are synthetic constants kept for fixture
// compatibility; they do not model real epidemiology. Negative scores are
// clamped to 0 before classification.
//
// # Alert Levels
//
// Scores map to the highest level whose lower bound they reach:
//
//	GREEN 0.0 | YELLOW 1.0 | ORANGE 2.576 | RED 4.2 | CRITICAL 5.0
//
// The parametric bond pays out when an hour after hour 30 scores above 4.2.
//
// # ID Generation
//
// Event IDs are deterministic SHA-256 hashes of seed|sequence|zone|offset, so
// two runs with the same seed produce byte-identical event arrays. See
// [eventID].
package domain
