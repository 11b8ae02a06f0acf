package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// RunManifest identifies a run. The RunID is a UUID that stays stable even
// if the run directory is moved or renamed. Written once at discovery time.
type RunManifest struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the manifest.
func (m RunManifest) Validate() error {
	if m.RunID == "" {
		return eris.New("model: manifest missing run_id")
	}
	if m.CreatedAt.IsZero() {
		return eris.New("model: manifest missing created_at")
	}
	return nil
}

// BudgetState persists the credits consumed by a run across invocations.
type BudgetState struct {
	SpentCredits int64 `json:"spent_credits"`
}

// Validate checks the budget state.
func (b BudgetState) Validate() error {
	if b.SpentCredits < 0 {
		return eris.Errorf("model: negative spent credits %d", b.SpentCredits)
	}
	return nil
}

// CandidateArtifact is the discovery stage output: the stable candidate
// universe for the run.
type CandidateArtifact struct {
	Candidates []FlightCandidate `json:"candidates"`
}

// Validate checks every candidate record.
func (a CandidateArtifact) Validate() error {
	seen := make(map[string]bool, len(a.Candidates))
	for _, c := range a.Candidates {
		if err := c.Validate(); err != nil {
			return err
		}
		if seen[c.FlightID] {
			return eris.Errorf("model: duplicate candidate %s", c.FlightID)
		}
		seen[c.FlightID] = true
	}
	return nil
}

// SkipRecord explains why a flight was excluded by a stage.
type SkipRecord struct {
	Reason   string `json:"reason"`
	Attempts int    `json:"attempts,omitempty"`
}

// SummaryArtifact is the verifier output: summaries for landed flights plus
// the skip ledger for everything else.
type SummaryArtifact struct {
	Summaries map[string]FlightSummary `json:"summaries"`
	Skipped   map[string]SkipRecord    `json:"skipped,omitempty"`
}

// Validate checks every summary record.
func (a SummaryArtifact) Validate() error {
	for id, s := range a.Summaries {
		if err := s.Validate(); err != nil {
			return err
		}
		if s.FlightID != id {
			return eris.Errorf("model: summary keyed %s but carries flight_id %s", id, s.FlightID)
		}
	}
	return nil
}

// PollPlan is the bounded polling schedule for one flight.
type PollPlan struct {
	FlightID   string  `json:"flight_id"`
	Callsign   string  `json:"callsign"`
	Timestamps []int64 `json:"timestamps"` // unix seconds, ascending
	Fallback   bool    `json:"fallback,omitempty"`
}

// TimelineArtifact is the planner output.
type TimelineArtifact struct {
	Plans   map[string]PollPlan   `json:"plans"`
	Skipped map[string]SkipRecord `json:"skipped,omitempty"`
}

// Validate checks plan ordering and keys.
func (a TimelineArtifact) Validate() error {
	for id, p := range a.Plans {
		if p.FlightID != id {
			return eris.Errorf("model: plan keyed %s but carries flight_id %s", id, p.FlightID)
		}
		for i := 1; i < len(p.Timestamps); i++ {
			if p.Timestamps[i] <= p.Timestamps[i-1] {
				return eris.Errorf("model: plan %s timestamps not ascending", id)
			}
		}
	}
	return nil
}

// FragmentArtifact is the reconstructor output: raw unordered position
// fragments per flight, plus the bucket ledger for idempotent resume.
type FragmentArtifact struct {
	Fragments     map[string][]PositionSample `json:"fragments"`
	ServedBuckets []int64                     `json:"served_buckets"`
	Complete      bool                        `json:"complete"`
}

// Validate checks fragment keying.
func (a FragmentArtifact) Validate() error {
	for id, frags := range a.Fragments {
		if id == "" {
			return eris.New("model: fragment set keyed by empty flight_id")
		}
		for _, f := range frags {
			if f.Timestamp <= 0 {
				return eris.Errorf("model: fragment for %s has non-positive timestamp", id)
			}
		}
	}
	return nil
}

// TrajectoryArtifact is the assembler output.
type TrajectoryArtifact struct {
	Trajectories map[string]FlightTrajectory `json:"trajectories"`
	Unusable     map[string]string           `json:"unusable,omitempty"`
}

// Validate checks every assembled trajectory.
func (a TrajectoryArtifact) Validate() error {
	for id, t := range a.Trajectories {
		if t.FlightID != id {
			return eris.Errorf("model: trajectory keyed %s but carries flight_id %s", id, t.FlightID)
		}
		if err := t.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MetricsArtifact is the metrics engine output, one record per usable flight.
type MetricsArtifact struct {
	Flights map[string]FlightMetrics `json:"flights"`
	Skipped map[string]string        `json:"skipped,omitempty"`
}

// Validate checks metric keying and non-negative figures.
func (a MetricsArtifact) Validate() error {
	for id, m := range a.Flights {
		if m.FlightID != id {
			return eris.Errorf("model: metrics keyed %s but carries flight_id %s", id, m.FlightID)
		}
		if m.PathKM < 0 || m.GreatCircleKM < 0 || m.FuelTotalKG < 0 || m.CO2TotalKG < 0 {
			return eris.Errorf("model: metrics for %s carries negative figures", id)
		}
	}
	return nil
}
