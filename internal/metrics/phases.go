package metrics

import (
	"github.com/listerineh/flights-cli/internal/config"
	"github.com/listerineh/flights-cli/internal/model"
)

// nearLevelVR is the vertical rate (ft/min) below which a low-altitude
// aircraft is treated as rolling rather than flying.
const nearLevelVR = 1.0

// classifySample applies the per-sample heuristics. Low-altitude samples are
// split by speed and vertical rate into ground, takeoff and landing; everything
// else is climb, descent or cruise by vertical rate alone.
func classifySample(s model.PositionSample, cfg config.MetricsConfig) model.Phase {
	if s.Altitude < cfg.LowAltitudeFt {
		switch {
		case s.VerticalRate > nearLevelVR && s.GroundSpeed > cfg.TakeoffSpeedKts:
			return model.PhaseTakeoff
		case s.VerticalRate < nearLevelVR && s.GroundSpeed < cfg.GroundSpeedKts:
			return model.PhaseGround
		case s.VerticalRate < nearLevelVR && s.GroundSpeed < cfg.LandingSpeedKts:
			return model.PhaseLanding
		}
	}
	switch {
	case s.VerticalRate > cfg.VerticalRateThr:
		return model.PhaseClimb
	case s.VerticalRate < -cfg.VerticalRateThr:
		return model.PhaseDescent
	default:
		return model.PhaseCruise
	}
}

// DetectSegments assigns a phase to every sample and groups the assignments
// into contiguous segments that partition the trajectory's time span.
//
// Phase progression is forward-only in the canonical order. A sample whose raw
// classification ranks at or below the committed phase is absorbed into it, so
// a noisy climb reading in the middle of a descent cannot flip the flight back.
// Advancing to a later phase requires the raw classification to persist for
// cfg.MinDwellSamples consecutive samples. Ground samples before rotation fold
// into takeoff.
//
// Landing cannot commit until the flight has been airborne. A low-altitude,
// near-level sample between the taxi and rotation speed cutoffs classifies as
// landing per-sample; before any climb has committed that reading is a takeoff
// roll, and letting it through would latch the whole flight on landing.
func DetectSegments(t model.FlightTrajectory, cfg config.MetricsConfig) []model.PhaseSegment {
	n := len(t.Samples)
	if n == 0 {
		return nil
	}

	dwell := cfg.MinDwellSamples
	if dwell < 1 {
		dwell = 1
	}

	raw := make([]model.Phase, n)
	for i, s := range t.Samples {
		raw[i] = classifySample(s, cfg)
	}

	committed := make([]model.Phase, n)
	cur := model.PhaseGround
	for i := 0; i < n; i++ {
		p := raw[i]
		if p == model.PhaseLanding && cur.Rank() < model.PhaseClimb.Rank() {
			committed[i] = cur
			continue
		}
		if p.Rank() > cur.Rank() {
			run := 1
			for j := i + 1; j < n && run < dwell && raw[j] == p; j++ {
				run++
			}
			if run >= dwell {
				cur = p
			}
		}
		committed[i] = cur
	}

	// Taxi-out and an all-ground tail of a never-advancing trajectory are
	// accounted against takeoff; ground cannot reappear later because the
	// progression never moves backwards.
	for i := range committed {
		if committed[i] == model.PhaseGround {
			committed[i] = model.PhaseTakeoff
		}
	}

	var segs []model.PhaseSegment
	start := 0
	for i := 1; i <= n; i++ {
		if i < n && committed[i] == committed[start] {
			continue
		}
		seg := model.PhaseSegment{
			Phase:      committed[start],
			StartIndex: start,
			EndIndex:   i - 1,
			StartTime:  t.Samples[start].Timestamp,
		}
		// Each segment owns the interval up to the next segment's first
		// sample so the segments tile the span with no gaps.
		if i < n {
			seg.EndTime = t.Samples[i].Timestamp
		} else {
			seg.EndTime = t.Samples[n-1].Timestamp
		}
		seg.DurationS = seg.EndTime - seg.StartTime
		segs = append(segs, seg)
		start = i
	}
	return segs
}
