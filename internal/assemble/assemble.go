// Package assemble turns each flight's unordered fragment set into a single
// time-ordered trajectory, defending against duplicate and clock-skewed
// observations from overlapping snapshot queries.
package assemble

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/listerineh/flights-cli/internal/config"
	"github.com/listerineh/flights-cli/internal/model"
)

// Run assembles every flight's fragments. Fragments are sorted by timestamp;
// the first occurrence wins on duplicate timestamps and any sample not
// strictly after its predecessor is dropped. Flights retaining fewer than
// cfg.MinSamples samples (floor of 2, the trajectory invariant) are recorded
// as unusable and excluded downstream.
func Run(cfg config.AssembleConfig, fragments model.FragmentArtifact, summaries model.SummaryArtifact) model.TrajectoryArtifact {
	minSamples := cfg.MinSamples
	if minSamples < 2 {
		minSamples = 2
	}

	art := model.TrajectoryArtifact{
		Trajectories: make(map[string]model.FlightTrajectory),
		Unusable:     make(map[string]string),
	}

	for id, frags := range fragments.Fragments {
		samples := order(frags)
		if len(samples) < minSamples {
			art.Unusable[id] = fmt.Sprintf("only %d usable samples, need %d", len(samples), minSamples)
			continue
		}

		callsign := ""
		if s, ok := summaries.Summaries[id]; ok {
			callsign = s.CallsignOrFlight()
		}
		art.Trajectories[id] = model.FlightTrajectory{
			FlightID: id,
			Callsign: callsign,
			Samples:  samples,
		}
	}

	zap.L().Info("trajectories assembled",
		zap.Int("usable", len(art.Trajectories)),
		zap.Int("unusable", len(art.Unusable)),
	)
	return art
}

// order sorts fragments ascending and drops duplicates and regressions so the
// result is strictly increasing in time. The sort is stable so the first
// occurrence of a duplicated timestamp is the one retained.
func order(frags []model.PositionSample) []model.PositionSample {
	sorted := make([]model.PositionSample, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	out := sorted[:0]
	var prev int64 = -1
	for _, s := range sorted {
		if s.Timestamp <= prev {
			continue
		}
		out = append(out, s)
		prev = s.Timestamp
	}
	return out
}
