// Package timeline derives the bounded polling schedule for each verified
// flight. The schedule is the credit-optimization lever: it never emits more
// poll timestamps than the configured per-flight budget, trading
// reconstruction fidelity for cost.
package timeline

import (
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/listerineh/flights-cli/internal/config"
	"github.com/listerineh/flights-cli/internal/model"
)

// Callsigns that fail this pattern confuse the snapshot filter and waste
// credits on unmatchable queries.
var validCallsign = regexp.MustCompile(`^[A-Z0-9]{2,4}[0-9]{1,4}$`)

// Plan computes one poll schedule per summarized flight. Poll timestamps are
// evenly spaced over the flight's active window, aligned down to the
// reconstructor's bucket grid so concurrent flights share snapshot calls,
// and capped at cfg.MaxSamples. Flights with missing or inconsistent window
// metadata get a fixed-length fallback window anchored on discovery time.
func Plan(cfg config.TimelineConfig, bucketSecs int, summaries model.SummaryArtifact, candidates model.CandidateArtifact) model.TimelineArtifact {
	art := model.TimelineArtifact{
		Plans:   make(map[string]model.PollPlan),
		Skipped: make(map[string]model.SkipRecord),
	}

	discovered := make(map[string]time.Time, len(candidates.Candidates))
	for _, c := range candidates.Candidates {
		discovered[c.FlightID] = c.DiscoveredAt
	}

	for id, s := range summaries.Summaries {
		callsign := s.CallsignOrFlight()
		if !validCallsign.MatchString(callsign) {
			art.Skipped[id] = model.SkipRecord{Reason: "unusable callsign: " + callsign}
			continue
		}

		start, end, fallback := activeWindow(s, discovered[id], cfg)
		plan := model.PollPlan{
			FlightID:   id,
			Callsign:   callsign,
			Timestamps: pollTimestamps(start, end, cfg.MaxSamples, bucketSecs),
			Fallback:   fallback,
		}
		if len(plan.Timestamps) == 0 {
			art.Skipped[id] = model.SkipRecord{Reason: "empty poll window"}
			continue
		}
		art.Plans[id] = plan
	}

	zap.L().Info("timelines planned",
		zap.Int("planned", len(art.Plans)),
		zap.Int("skipped", len(art.Skipped)),
	)
	return art
}

// activeWindow picks the best available departure/arrival pair: actual times,
// then the service's first/last-seen observations. Anything missing or
// inconsistent falls back to a fixed window ending at discovery time.
func activeWindow(s model.FlightSummary, discoveredAt time.Time, cfg config.TimelineConfig) (start, end time.Time, fallback bool) {
	switch {
	case s.ActualDeparture != nil && s.ActualArrival != nil:
		start, end = *s.ActualDeparture, *s.ActualArrival
	case s.FirstSeen != nil && s.LastSeen != nil:
		start, end = *s.FirstSeen, *s.LastSeen
	case s.SchedDeparture != nil && s.SchedArrival != nil:
		start, end = *s.SchedDeparture, *s.SchedArrival
	}

	if !start.Before(end) {
		anchor := discoveredAt
		if anchor.IsZero() {
			anchor = time.Now().UTC()
		}
		window := time.Duration(cfg.FallbackWindowHours) * time.Hour
		return anchor.Add(-window), anchor, true
	}
	return start, end, false
}

// pollTimestamps spreads up to maxSamples timestamps evenly over [start, end]
// and snaps them onto the bucket grid.
func pollTimestamps(start, end time.Time, maxSamples, bucketSecs int) []int64 {
	if maxSamples <= 0 {
		return nil
	}
	if bucketSecs <= 0 {
		bucketSecs = 1
	}

	startTS := start.Unix()
	endTS := end.Unix()
	span := endTS - startTS
	if span < 0 {
		return nil
	}

	count := maxSamples
	if fit := int(span/int64(bucketSecs)) + 1; fit < count {
		count = fit
	}
	if count < 1 {
		count = 1
	}

	out := make([]int64, 0, count)
	var prev int64 = -1
	for i := 0; i < count; i++ {
		ts := startTS
		if count > 1 {
			ts = startTS + span*int64(i)/int64(count-1)
		}
		ts -= ts % int64(bucketSecs)
		if ts <= prev {
			continue
		}
		out = append(out, ts)
		prev = ts
	}
	return out
}
