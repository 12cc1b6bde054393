package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VISENDI56/iLuminara-Core-sub003/internal/adapter/file"
	"github.com/VISENDI56/iLuminara-Core-sub003/internal/domain"
)

var testStart = time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC)

func buildReport(t *testing.T) domain.Report {
	t.Helper()
	params := domain.DefaultGeneratorParams(testStart, 42)
	zones := domain.DefaultZones()

	events, err := domain.GenerateEvents(params, zones)
	require.NoError(t, err)
	events = domain.SortByHour(events)
	timeline, err := domain.AggregateHourly(events, domain.DefaultAggregateOptions(params.DurationHours, testStart))
	require.NoError(t, err)

	return domain.BuildReport(domain.ReportInput{
		RunID:       "run-1",
		GeneratedAt: testStart.Add(72 * time.Hour),
		Params:      params,
		Zones:       zones,
		Events:      events,
		Timeline:    timeline,
	})
}

func writeReport(t *testing.T, report domain.Report) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "simulated_outbreak.json")
	require.NoError(t, file.WriteJSON(path, report))
	return path
}

func TestRun_ValidArtifactPasses(t *testing.T) {
	var out bytes.Buffer
	code := run(writeReport(t, buildReport(t)), true, &out)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
}

func TestRun_DetectsEarlyConfirmation(t *testing.T) {
	report := buildReport(t)
	confirmed := true
	report.Events[0].Source = domain.SourceClinicalRecord
	report.Events[0].LabConfirmed = &confirmed

	var out bytes.Buffer
	code := run(writeReport(t, report), false, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "lab-confirmed")
}

func TestRun_DetectsTamperedTrigger(t *testing.T) {
	report := buildReport(t)
	report.Trigger.Status = domain.BondLocked

	var out bytes.Buffer
	code := run(writeReport(t, report), false, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "Phase 4")
}

func TestRun_DetectsMisclassifiedHour(t *testing.T) {
	report := buildReport(t)
	report.Timeline[len(report.Timeline)-1].Classification = domain.AlertGreen

	var out bytes.Buffer
	code := run(writeReport(t, report), false, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "classifies as CRITICAL")
}

func TestRun_ReproductionCatchesEditedEvent(t *testing.T) {
	report := buildReport(t)
	report.Events[len(report.Events)-1].Symptoms["vomiting"] = 0.01

	var out bytes.Buffer
	code := run(writeReport(t, report), true, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "differs from regenerated run")
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	code := run(filepath.Join(t.TempDir(), "missing.json"), false, &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FATAL")
}
