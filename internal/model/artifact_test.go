package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCandidateArtifactRejectsDuplicates(t *testing.T) {
	now := time.Now()
	art := CandidateArtifact{Candidates: []FlightCandidate{
		{FlightID: "a1", DiscoveredAt: now},
		{FlightID: "a1", DiscoveredAt: now},
	}}
	assert.Error(t, art.Validate())
}

func TestSummaryArtifactKeyConsistency(t *testing.T) {
	art := SummaryArtifact{Summaries: map[string]FlightSummary{
		"a1": {FlightID: "a2", Callsign: "UAL1"},
	}}
	assert.Error(t, art.Validate())

	art.Summaries["a1"] = FlightSummary{FlightID: "a1", Callsign: "UAL1"}
	art.Summaries["a2"] = FlightSummary{FlightID: "a2", Callsign: "UAL2"}
	assert.NoError(t, art.Validate())
}

func TestTimelineArtifactOrdering(t *testing.T) {
	art := TimelineArtifact{Plans: map[string]PollPlan{
		"a1": {FlightID: "a1", Timestamps: []int64{100, 100}},
	}}
	assert.Error(t, art.Validate())

	art.Plans["a1"] = PollPlan{FlightID: "a1", Timestamps: []int64{100, 460, 820}}
	assert.NoError(t, art.Validate())
}

func TestFragmentArtifactValidate(t *testing.T) {
	art := FragmentArtifact{Fragments: map[string][]PositionSample{
		"a1": {{Timestamp: 0}},
	}}
	assert.Error(t, art.Validate())

	art.Fragments["a1"] = []PositionSample{{Timestamp: 100}}
	assert.NoError(t, art.Validate())
}

func TestMetricsArtifactValidate(t *testing.T) {
	art := MetricsArtifact{Flights: map[string]FlightMetrics{
		"a1": {FlightID: "a1", PathKM: -1},
	}}
	assert.Error(t, art.Validate())

	art.Flights["a1"] = FlightMetrics{FlightID: "a1", PathKM: 10}
	assert.NoError(t, art.Validate())
}

func TestBudgetStateValidate(t *testing.T) {
	assert.NoError(t, BudgetState{SpentCredits: 0}.Validate())
	assert.Error(t, BudgetState{SpentCredits: -1}.Validate())
}
