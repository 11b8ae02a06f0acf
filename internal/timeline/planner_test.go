package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listerineh/flights-cli/internal/config"
	"github.com/listerineh/flights-cli/internal/model"
)

func plannerConfig() config.TimelineConfig {
	return config.TimelineConfig{MaxSamples: 30, FallbackWindowHours: 6}
}

func ptr(t time.Time) *time.Time { return &t }

func TestPlanRejectsUnusableCallsigns(t *testing.T) {
	tests := []struct {
		callsign string
		ok       bool
	}{
		{"UAL123", true},
		{"BA9", true},
		{"DLH1234", true},
		{"A1", false}, // prefix too short
		{"", false},
		{"ual123", false},  // lowercase
		{"UAL-123", false}, // separator
		{"TOOLONGCS1", false},
	}

	dep := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	arr := dep.Add(2 * time.Hour)

	for _, tt := range tests {
		t.Run(tt.callsign, func(t *testing.T) {
			summaries := model.SummaryArtifact{Summaries: map[string]model.FlightSummary{
				"f1": {FlightID: "f1", Callsign: tt.callsign, ActualDeparture: ptr(dep), ActualArrival: ptr(arr)},
			}}
			art := Plan(plannerConfig(), 360, summaries, model.CandidateArtifact{})

			if tt.ok {
				assert.Contains(t, art.Plans, "f1")
			} else {
				assert.NotContains(t, art.Plans, "f1")
				assert.Contains(t, art.Skipped, "f1")
			}
		})
	}
}

func TestPlanTimestampsBoundedAndAligned(t *testing.T) {
	dep := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	arr := dep.Add(5 * time.Hour)

	summaries := model.SummaryArtifact{Summaries: map[string]model.FlightSummary{
		"f1": {FlightID: "f1", Callsign: "UAL123", ActualDeparture: ptr(dep), ActualArrival: ptr(arr)},
	}}

	art := Plan(plannerConfig(), 360, summaries, model.CandidateArtifact{})
	plan, ok := art.Plans["f1"]
	require.True(t, ok)

	assert.LessOrEqual(t, len(plan.Timestamps), 30)
	assert.NotEmpty(t, plan.Timestamps)
	assert.False(t, plan.Fallback)

	for i, ts := range plan.Timestamps {
		assert.Zero(t, ts%360, "timestamp %d not bucket aligned", ts)
		assert.GreaterOrEqual(t, ts, dep.Unix()-360)
		assert.LessOrEqual(t, ts, arr.Unix())
		if i > 0 {
			assert.Greater(t, ts, plan.Timestamps[i-1])
		}
	}
}

func TestPlanShortFlightEmitsFewerSamples(t *testing.T) {
	dep := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	arr := dep.Add(30 * time.Minute) // 1800s span, 6 buckets

	summaries := model.SummaryArtifact{Summaries: map[string]model.FlightSummary{
		"f1": {FlightID: "f1", Callsign: "UAL123", ActualDeparture: ptr(dep), ActualArrival: ptr(arr)},
	}}

	art := Plan(plannerConfig(), 360, summaries, model.CandidateArtifact{})
	plan := art.Plans["f1"]
	assert.LessOrEqual(t, len(plan.Timestamps), 6)
}

func TestPlanPrefersActualOverSeenOverScheduled(t *testing.T) {
	actualDep := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	actualArr := actualDep.Add(time.Hour)
	seenDep := actualDep.Add(-2 * time.Hour)
	seenArr := actualArr.Add(2 * time.Hour)

	summaries := model.SummaryArtifact{Summaries: map[string]model.FlightSummary{
		"f1": {
			FlightID: "f1", Callsign: "UAL123",
			ActualDeparture: ptr(actualDep), ActualArrival: ptr(actualArr),
			FirstSeen: ptr(seenDep), LastSeen: ptr(seenArr),
		},
		"f2": {
			FlightID: "f2", Callsign: "UAL124",
			FirstSeen: ptr(seenDep), LastSeen: ptr(seenArr),
		},
	}}

	art := Plan(plannerConfig(), 360, summaries, model.CandidateArtifact{})

	first := art.Plans["f1"].Timestamps[0]
	assert.GreaterOrEqual(t, first, actualDep.Unix()-360)

	firstSeenPlan := art.Plans["f2"].Timestamps[0]
	assert.Less(t, firstSeenPlan, actualDep.Unix())
}

func TestPlanFallbackWindowAnchoredOnDiscovery(t *testing.T) {
	discovered := time.Date(2026, 8, 2, 12, 0, 0, 0, time.UTC)

	summaries := model.SummaryArtifact{Summaries: map[string]model.FlightSummary{
		"f1": {FlightID: "f1", Callsign: "UAL123"}, // no window metadata at all
	}}
	candidates := model.CandidateArtifact{Candidates: []model.FlightCandidate{
		{FlightID: "f1", DiscoveredAt: discovered},
	}}

	art := Plan(plannerConfig(), 360, summaries, candidates)
	plan, ok := art.Plans["f1"]
	require.True(t, ok)
	assert.True(t, plan.Fallback)

	last := plan.Timestamps[len(plan.Timestamps)-1]
	first := plan.Timestamps[0]
	assert.LessOrEqual(t, last, discovered.Unix())
	assert.GreaterOrEqual(t, first, discovered.Add(-6*time.Hour).Unix()-360)
}

func TestPlanInconsistentWindowFallsBack(t *testing.T) {
	dep := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	arr := dep.Add(-time.Hour) // arrival before departure

	summaries := model.SummaryArtifact{Summaries: map[string]model.FlightSummary{
		"f1": {FlightID: "f1", Callsign: "UAL123", ActualDeparture: ptr(dep), ActualArrival: ptr(arr)},
	}}

	art := Plan(plannerConfig(), 360, summaries, model.CandidateArtifact{})
	require.Contains(t, art.Plans, "f1")
	assert.True(t, art.Plans["f1"].Fallback)
}
