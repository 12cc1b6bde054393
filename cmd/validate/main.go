// Command validate checks a simulation artifact for internal consistency:
// event bounds and timestamps, the no-early-confirmation rule, timeline
// scoring, the bond trigger summary, and geographic totals. With -reproduce
// it also regenerates the run from its recorded parameters and diffs the
// result against the file.
//
// Usage:
//
//	go run ./cmd/validate -in simulated_outbreak.json -reproduce
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/VISENDI56/iLuminara-Core-sub003/internal/domain"
)

// timestampTolerance absorbs float rounding in hour offsets.
const timestampTolerance = time.Millisecond

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	in := flag.String("in", "simulated_outbreak.json", "path to the simulation artifact")
	reproduce := flag.Bool("reproduce", false, "regenerate the run from its metadata and compare")
	flag.Parse()

	os.Exit(run(*in, *reproduce, os.Stdout))
}

func run(path string, reproduce bool, w io.Writer) int {
	fmt.Fprintln(w, "=== Outbreak Artifact Validation ===")
	fmt.Fprintln(w)

	report, err := loadReport(path)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load %s: %v\n", path, err)
		return 1
	}

	phases := []*phase{
		validateEvents(report),
		validateConfirmationRule(report),
		validateTimeline(report),
		validateTrigger(report),
		validateGeography(report),
	}
	if reproduce {
		phases = append(phases, validateReproduction(report))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run %s: %d events, %d timeline hours, status %s\n",
		report.Metadata.RunID, len(report.Events), len(report.Timeline), report.Trigger.Status)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func loadReport(path string) (domain.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Report{}, err
	}
	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return domain.Report{}, err
	}
	return report, nil
}

// ── Phase 1: Events ──

func validateEvents(r domain.Report) *phase {
	p := &phase{name: "Phase 1: Event bounds and timestamps"}
	md := r.Metadata

	if md.TotalEvents != len(r.Events) {
		p.errorf("total_events=%d but %d events present", md.TotalEvents, len(r.Events))
	}

	zones := make(map[string]string, len(r.Geography))
	for _, z := range r.Geography {
		zones[z.Name] = z.SpatialCellID
	}

	seen := make(map[string]bool, len(r.Events))
	for i := range r.Events {
		e := &r.Events[i]
		if e.ID == "" {
			p.errorf("event %d: empty event_id", i)
		} else if seen[e.ID] {
			p.errorf("event %d: duplicate event_id %s", i, e.ID)
		}
		seen[e.ID] = true

		if e.HourOffset < 0 || e.HourOffset >= float64(md.DurationHours) {
			p.errorf("%s: hour %g outside [0, %d)", e.ID, e.HourOffset, md.DurationHours)
		}
		if i > 0 && e.HourOffset < r.Events[i-1].HourOffset {
			p.errorf("%s: events not sorted by hour", e.ID)
		}
		if e.Source != domain.SourceCommunityReport && e.Source != domain.SourceClinicalRecord {
			p.errorf("%s: unknown source %q", e.ID, e.Source)
		}
		if cell, ok := zones[e.Zone]; !ok {
			p.errorf("%s: zone %q not in geographic_data", e.ID, e.Zone)
		} else if cell != e.SpatialCellID {
			p.errorf("%s: h3_index %s does not match zone %s (%s)", e.ID, e.SpatialCellID, e.Zone, cell)
		}

		want := domain.OffsetTime(md.StartTime, e.HourOffset)
		if d := e.Timestamp.Sub(want); d > timestampTolerance || d < -timestampTolerance {
			p.errorf("%s: timestamp %s, expected %s", e.ID, e.Timestamp.Format(time.RFC3339Nano), want.Format(time.RFC3339Nano))
		}
	}
	return p
}

// ── Phase 2: Confirmation rule ──

func validateConfirmationRule(r domain.Report) *phase {
	p := &phase{name: "Phase 2: No lab confirmation before hour 24"}
	for i := range r.Events {
		e := &r.Events[i]
		if e.Confirmed() && e.HourOffset < domain.WeakSignalEndHour {
			p.errorf("%s: lab-confirmed %s event at hour %g", e.ID, e.Source, e.HourOffset)
		}
	}
	return p
}

// ── Phase 3: Timeline ──

func validateTimeline(r domain.Report) *phase {
	p := &phase{name: "Phase 3: Timeline scoring and classification"}
	md := r.Metadata

	if len(r.Timeline) != md.DurationHours {
		p.errorf("timeline has %d hours, expected %d", len(r.Timeline), md.DurationHours)
	}

	counts := make(map[int]int)
	for i := range r.Events {
		counts[r.Events[i].Hour()]++
	}

	for i := range r.Timeline {
		a := &r.Timeline[i]
		if a.Hour != i {
			p.errorf("timeline[%d]: hour %d, timeline not contiguous", i, a.Hour)
		}
		if want := md.StartTime.Add(time.Duration(a.Hour) * time.Hour); !a.Timestamp.Equal(want) {
			p.errorf("hour %d: timestamp %s, expected %s", a.Hour, a.Timestamp.Format(time.RFC3339), want.Format(time.RFC3339))
		}
		if a.CaseCount != counts[a.Hour] {
			p.errorf("hour %d: cases=%d but %d events bin there", a.Hour, a.CaseCount, counts[a.Hour])
		}
		if a.ZScore < 0 || math.IsNaN(a.ZScore) {
			p.errorf("hour %d: invalid z_score %g", a.Hour, a.ZScore)
		}
		if want := domain.Classify(a.ZScore); a.Classification != want {
			p.errorf("hour %d: alert_level %s, z=%.3f classifies as %s", a.Hour, a.Classification, a.ZScore, want)
		}
		if want := domain.PayoutReleased(a.ZScore, a.Hour); a.PayoutEligible != want {
			p.errorf("hour %d: payout_eligible=%t, expected %t", a.Hour, a.PayoutEligible, want)
		}
	}

	for i := range r.Events {
		e := &r.Events[i]
		if h := e.Hour(); h >= 0 && h < len(r.Timeline) && e.AlertLevel != r.Timeline[h].Classification {
			p.errorf("%s: alert_level %s, hour %d is %s", e.ID, e.AlertLevel, h, r.Timeline[h].Classification)
		}
	}
	return p
}

// ── Phase 4: Bond trigger ──

func validateTrigger(r domain.Report) *phase {
	p := &phase{name: "Phase 4: Parametric bond trigger"}
	t := r.Trigger

	if t.ThresholdZScore != domain.BondThresholdZScore || t.CriticalZScore != domain.PayoutZScore {
		p.errorf("thresholds %.3f/%.3f, expected %.3f/%.3f",
			t.ThresholdZScore, t.CriticalZScore, domain.BondThresholdZScore, domain.PayoutZScore)
	}
	if want := domain.MaxZScore(r.Timeline); t.CurrentMaxZScore != want {
		p.errorf("current_max_z_score=%g, timeline max is %g", t.CurrentMaxZScore, want)
	}

	peak := domain.AlertGreen
	firstEligible := -1
	for i := range r.Timeline {
		a := &r.Timeline[i]
		if a.Classification.Rank() > peak.Rank() {
			peak = a.Classification
		}
		if a.PayoutEligible && firstEligible < 0 {
			firstEligible = a.Hour
		}
	}
	if t.PeakAlertLevel != peak {
		p.errorf("peak_alert_level=%s, timeline peak is %s", t.PeakAlertLevel, peak)
	}

	switch {
	case firstEligible < 0 && t.Status != domain.BondLocked:
		p.errorf("status %s but no hour is payout eligible", t.Status)
	case firstEligible >= 0 && t.Status != domain.BondPayoutReleased:
		p.errorf("status %s but hour %d is payout eligible", t.Status, firstEligible)
	case firstEligible < 0 && t.TriggerHour != nil:
		p.errorf("trigger_hour=%d set on a locked bond", *t.TriggerHour)
	case firstEligible >= 0 && (t.TriggerHour == nil || *t.TriggerHour != firstEligible):
		p.errorf("trigger_hour does not match first eligible hour %d", firstEligible)
	}
	return p
}

// ── Phase 5: Geography ──

func validateGeography(r domain.Report) *phase {
	p := &phase{name: "Phase 5: Geographic totals"}

	counts := make(map[string]int)
	for i := range r.Events {
		counts[r.Events[i].Zone]++
	}

	total := 0
	for _, z := range r.Geography {
		total += z.Cases
		if z.Cases != counts[z.Name] {
			p.errorf("%s: cases=%d but %d events", z.Name, z.Cases, counts[z.Name])
		}
		if z.Population > 0 {
			want := float64(z.Cases) / float64(z.Population) * 1000
			if math.Abs(z.AttackRate-want) > 0.0005 {
				p.errorf("%s: attack_rate=%.3f, expected %.3f", z.Name, z.AttackRate, want)
			}
		}
	}
	if total != len(r.Events) {
		p.errorf("zone cases sum to %d, %d events present", total, len(r.Events))
	}
	return p
}

// ── Phase 6: Reproduction ──

func validateReproduction(r domain.Report) *phase {
	p := &phase{name: "Phase 6: Reproduction from seed"}
	md := r.Metadata

	zones := make([]domain.Zone, len(r.Geography))
	for i, z := range r.Geography {
		zones[i] = z.Zone
	}

	params := domain.GeneratorParams{
		DurationHours: md.DurationHours,
		Seed:          md.Seed,
		StartTime:     md.StartTime,
		GrowthFactor:  md.GrowthFactor,
		SeedCases:     domain.DefaultSeedCases,
	}
	events, err := domain.GenerateEvents(params, zones)
	if err != nil {
		p.errorf("regenerate: %v", err)
		return p
	}
	events = domain.SortByHour(events)
	timeline, err := domain.AggregateHourly(events, domain.DefaultAggregateOptions(md.DurationHours, md.StartTime))
	if err != nil {
		p.errorf("aggregate: %v", err)
		return p
	}
	want := domain.BuildReport(domain.ReportInput{
		RunID:       md.RunID,
		GeneratedAt: md.GeneratedAt,
		Params:      params,
		Zones:       zones,
		Events:      events,
		Timeline:    timeline,
	})

	if diff := cmp.Diff(want, r, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		p.errorf("artifact differs from regenerated run (-want +got):\n%s", diff)
	}
	return p
}
