package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDurationHours = 72
	// DefaultGrowthFactor multiplies expected critical-phase cases every hour.
	DefaultGrowthFactor = 1.15
	// DefaultSeedCases is the expected case count at the first critical hour.
	DefaultSeedCases = 2.0

	BackgroundEndHour   = 12
	WeakSignalEndHour   = 24
	ConfirmationEndHour = 30

	weakSignalEvents       = 8
	weakSignalSpacingHours = 1.5
	confirmationsPerHour   = 2
	backgroundCBSShare     = 0.7
	criticalEMRShare       = 0.6

	// maxHourlyCases bounds critical-phase output for extreme growth factors.
	maxHourlyCases = 5000

	// pcgStream is the fixed second PCG word; only the seed varies between runs.
	pcgStream = 0x9e3779b97f4a7c15
)

var (
	backgroundSymptoms = []string{"fever", "cough", "body_ache"}
	confirmedSymptoms  = []string{"watery_stool", "rice_water_stool", "vomiting", "dehydration"}
)

// GeneratorParams configures one simulation run.
type GeneratorParams struct {
	DurationHours int
	Seed          int64
	StartTime     time.Time
	GrowthFactor  float64
	SeedCases     float64
}

// DefaultGeneratorParams returns the reference 72 hour configuration.
func DefaultGeneratorParams(start time.Time, seed int64) GeneratorParams {
	return GeneratorParams{
		DurationHours: DefaultDurationHours,
		Seed:          seed,
		StartTime:     start,
		GrowthFactor:  DefaultGrowthFactor,
		SeedCases:     DefaultSeedCases,
	}
}

// Validate checks the parameters without generating anything.
func (p GeneratorParams) Validate() error {
	if p.DurationHours <= 0 {
		return &InvalidDurationError{Hours: p.DurationHours}
	}
	if !(p.GrowthFactor > 0) || math.IsInf(p.GrowthFactor, 0) {
		return fmt.Errorf("%w: growth factor %g must be positive", ErrInvalidParams, p.GrowthFactor)
	}
	if !(p.SeedCases >= 0) || math.IsInf(p.SeedCases, 0) {
		return fmt.Errorf("%w: seed cases %g must be non-negative", ErrInvalidParams, p.SeedCases)
	}
	return nil
}

// ParseSeed parses a decimal integer seed.
func ParseSeed(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, &InvalidSeedError{Value: s}
	}
	return v, nil
}

type generator struct {
	params GeneratorParams
	zones  []Zone
	start  time.Time
	rng    *rand.Rand
	seq    int
	events []SurveillanceEvent
}

// GenerateEvents produces the synthetic event set for one run. The result is
// a pure function of params and zones. It is grouped by phase, not sorted by
// hour offset.
func GenerateEvents(params GeneratorParams, zones []Zone) ([]SurveillanceEvent, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := validateZones(zones); err != nil {
		return nil, err
	}

	g := &generator{
		params: params,
		zones:  zones,
		start:  params.StartTime.UTC(),
		rng:    rand.New(rand.NewPCG(uint64(params.Seed), pcgStream)), //nolint:gosec // reproducible synthetic data
	}
	g.background()
	g.weakSignal()
	g.confirmation()
	g.critical()
	return g.events, nil
}

// background emits 2-5 low-intensity non-specific reports per zone.
func (g *generator) background() {
	for _, z := range g.zones {
		n := 2 + g.rng.IntN(4)
		for range n {
			offset := g.rng.Float64() * BackgroundEndHour
			source := SourceClinicalRecord
			var confirmed *bool
			if g.rng.Float64() < backgroundCBSShare {
				source = SourceCommunityReport
			} else {
				confirmed = boolPtr(false)
			}
			g.emit(PhaseBackground, source, z, offset, g.symptoms(backgroundSymptoms, 0.1, 0.4), confirmed, SeverityLow)
		}
	}
}

// weakSignal emits a fixed set of unconfirmed CBS diarrhoeal reports
// concentrated in the first two zones.
func (g *generator) weakSignal() {
	if g.params.DurationHours <= BackgroundEndHour {
		return
	}
	for i := range weakSignalEvents {
		offset := BackgroundEndHour + weakSignalSpacingHours*float64(i) + g.rng.Float64()
		symptoms := map[string]float64{
			"watery_stool": g.intensity(0.6, 0.9),
			"vomiting":     g.intensity(0.4, 0.7),
		}
		g.emit(PhaseWeakSignal, SourceCommunityReport, g.hotspot(i), offset, symptoms, nil, SeverityModerate)
	}
}

// confirmation emits lab-confirmed EMR cases in the hotspot zones.
func (g *generator) confirmation() {
	for h := WeakSignalEndHour; h < ConfirmationEndHour && h < g.params.DurationHours; h++ {
		for j := range confirmationsPerHour {
			offset := float64(h) + g.rng.Float64()
			g.emit(PhaseConfirmation, SourceClinicalRecord, g.hotspot(j), offset,
				g.symptoms(confirmedSymptoms, 0.8, 1.0), boolPtr(true), SeverityHigh)
		}
	}
}

// critical grows the expected hourly case count geometrically and spreads the
// cases across random zones.
func (g *generator) critical() {
	expected := g.params.SeedCases
	for h := ConfirmationEndHour; h < g.params.DurationHours; h++ {
		n := int(math.Min(math.Round(expected), maxHourlyCases))
		for range n {
			z := g.zones[g.rng.IntN(len(g.zones))]
			offset := float64(h) + g.rng.Float64()
			source := SourceCommunityReport
			var confirmed *bool
			if g.rng.Float64() < criticalEMRShare {
				source = SourceClinicalRecord
				confirmed = boolPtr(g.rng.Float64() < 0.5)
			}
			g.emit(PhaseCritical, source, z, offset, g.symptoms(confirmedSymptoms, 0.7, 1.0), confirmed, SeverityCritical)
		}
		if expected < maxHourlyCases {
			expected *= g.params.GrowthFactor
		}
	}
}

// emit appends an event unless its offset falls outside the run window.
// Dropped events still consume their draws and sequence number, so a shorter
// run is a clipped copy of a longer one with the same seed.
func (g *generator) emit(phase Phase, source Source, z Zone, offset float64, symptoms map[string]float64, confirmed *bool, severity Severity) {
	age := g.ageGroup()
	seq := g.seq
	g.seq++
	if offset < 0 || offset >= float64(g.params.DurationHours) {
		return
	}
	g.events = append(g.events, SurveillanceEvent{
		ID:            eventID(g.params.Seed, seq, z.Name, offset, source),
		Timestamp:     OffsetTime(g.start, offset),
		HourOffset:    offset,
		Phase:         phase,
		Source:        source,
		Zone:          z.Name,
		SpatialCellID: z.SpatialCellID,
		AgeGroup:      age,
		Symptoms:      symptoms,
		LabConfirmed:  confirmed,
		Severity:      severity,
	})
}

// hotspot returns one of the first two zones, alternating by index.
func (g *generator) hotspot(i int) Zone {
	return g.zones[i%min(2, len(g.zones))]
}

func (g *generator) symptoms(names []string, lo, hi float64) map[string]float64 {
	out := make(map[string]float64, len(names))
	for _, name := range names {
		out[name] = g.intensity(lo, hi)
	}
	return out
}

// intensity draws a value in [lo, hi] rounded to two decimals.
func (g *generator) intensity(lo, hi float64) float64 {
	v := lo + g.rng.Float64()*(hi-lo)
	return math.Round(v*100) / 100
}

// ageGroup draws an age band weighted toward children, who carry most of the
// diarrhoeal burden in camp settings.
func (g *generator) ageGroup() AgeGroup {
	switch r := g.rng.Float64(); {
	case r < 0.25:
		return AgeUnder5
	case r < 0.45:
		return Age5To14
	case r < 0.85:
		return Age15To49
	default:
		return Age50AndUp
	}
}

// eventID hashes the run seed, sequence number, zone, and offset into a
// deterministic identifier prefixed with the lower-cased source.
func eventID(seed int64, seq int, zone string, offset float64, source Source) string {
	input := fmt.Sprintf("%d|%d|%s|%.6f", seed, seq, zone, offset)
	hash := sha256.Sum256([]byte(input))
	return strings.ToLower(string(source)) + "-" + hex.EncodeToString(hash[:8])
}

func boolPtr(b bool) *bool { return &b }
