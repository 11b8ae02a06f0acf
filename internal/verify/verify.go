// Package verify confirms which candidates have actually completed their
// flight before any expensive position data is fetched. Only landed flights
// pass to the planner; everything else is recorded as skipped with a reason.
package verify

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/listerineh/flights-cli/internal/budget"
	"github.com/listerineh/flights-cli/internal/config"
	"github.com/listerineh/flights-cli/internal/model"
	"github.com/listerineh/flights-cli/internal/resilience"
	"github.com/listerineh/flights-cli/pkg/fr24"
)

// Completion classification of a candidate.
const (
	statusLanded   = "landed"
	statusAirborne = "airborne"
	statusUnknown  = "unknown"
)

// Result is the verifier stage outcome.
type Result struct {
	Artifact model.SummaryArtifact
	// Incomplete is set when the budget ran out with candidates still
	// unprocessed; those candidates are absent from the artifact entirely
	// and a later re-run picks them up.
	Incomplete bool
}

// Run verifies candidates against the summary endpoint. prev carries the
// artifact from an earlier invocation when re-running: landed flights are
// kept, skipped flights are re-verified until their attempt budget is spent.
func Run(ctx context.Context, client fr24.Client, guard *budget.Guard, cfg config.VerifyConfig, costs config.BudgetConfig, candidates model.CandidateArtifact, prev *model.SummaryArtifact, now time.Time) (*Result, error) {
	res := &Result{Artifact: model.SummaryArtifact{
		Summaries: make(map[string]model.FlightSummary),
		Skipped:   make(map[string]model.SkipRecord),
	}}

	// Completion is only observable after the wait window: verifying too
	// early systematically misclassifies in-flight aircraft.
	var eligible []model.FlightCandidate
	for _, c := range candidates.Candidates {
		if now.Sub(c.DiscoveredAt) >= cfg.MinWait() {
			eligible = append(eligible, c)
		}
	}
	if len(candidates.Candidates) > 0 && len(eligible) == 0 {
		return nil, eris.Errorf("verify: no candidate has aged past the %dh completion window yet", cfg.MinWaitHours)
	}

	// Carry over prior results so a re-run only pays for what is still open.
	type job struct {
		cand     model.FlightCandidate
		attempts int
	}
	var pending []job
	for _, cand := range eligible {
		prevAttempts := 0
		if prev != nil {
			if s, ok := prev.Summaries[cand.FlightID]; ok {
				res.Artifact.Summaries[cand.FlightID] = s
				continue
			}
			if sk, ok := prev.Skipped[cand.FlightID]; ok {
				if sk.Attempts >= cfg.MaxAttempts {
					res.Artifact.Skipped[cand.FlightID] = sk
					continue
				}
				prevAttempts = sk.Attempts
			}
		}
		pending = append(pending, job{cand: cand, attempts: prevAttempts})
	}

	zap.L().Info("verification starting",
		zap.Int("pending", len(pending)),
		zap.Int64("estimated_cost", int64(len(pending))*costs.SummaryCost),
		zap.Int64("credits_remaining", guard.Remaining()),
	)

	var mu sync.Mutex
	exhausted := false

	g, gctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers <= 0 {
		workers = 10
	}
	g.SetLimit(workers)

	for _, j := range pending {
		cand, prevAttempts := j.cand, j.attempts
		g.Go(func() error {
			mu.Lock()
			stop := exhausted
			mu.Unlock()
			if stop || gctx.Err() != nil {
				return nil
			}

			if granted, _ := guard.Charge(costs.SummaryCost); !granted {
				mu.Lock()
				exhausted = true
				mu.Unlock()
				return nil
			}

			summary, status, err := verifyOne(gctx, client, cand.FlightID)
			mu.Lock()
			defer mu.Unlock()

			switch {
			case err != nil:
				zap.L().Warn("verification query failed",
					zap.String("flight_id", cand.FlightID), zap.Error(err))
				res.Artifact.Skipped[cand.FlightID] = model.SkipRecord{
					Reason:   "query failed: " + err.Error(),
					Attempts: prevAttempts + 1,
				}
			case status == statusLanded:
				res.Artifact.Summaries[cand.FlightID] = *summary
			default:
				res.Artifact.Skipped[cand.FlightID] = model.SkipRecord{
					Reason:   "not completed: " + status,
					Attempts: prevAttempts + 1,
				}
			}
			return nil
		})
	}

	_ = g.Wait()
	res.Incomplete = exhausted

	zap.L().Info("verification finished",
		zap.Int("landed", len(res.Artifact.Summaries)),
		zap.Int("skipped", len(res.Artifact.Skipped)),
		zap.Bool("incomplete", res.Incomplete),
		zap.Int64("credits_remaining", guard.Remaining()),
	)
	return res, nil
}

// verifyOne fetches and classifies a single candidate. Transient service
// errors are retried with backoff before being reported.
func verifyOne(ctx context.Context, client fr24.Client, flightID string) (*model.FlightSummary, string, error) {
	raw, err := resilience.DoVal(ctx, retryConfig("summary"), func(ctx context.Context) (*fr24.FlightSummary, error) {
		return client.Summary(ctx, flightID)
	})
	if eris.Is(err, fr24.ErrNotFound) {
		return nil, statusUnknown, nil
	}
	if err != nil {
		return nil, statusUnknown, err
	}

	status := classify(raw)
	if status != statusLanded {
		return nil, status, nil
	}

	summary := toModel(flightID, raw)
	if err := summary.Validate(); err != nil {
		return nil, statusUnknown, err
	}
	return &summary, statusLanded, nil
}

func retryConfig(op string) resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger(op)
	return cfg
}

// classify maps a wire summary to a completion status. A recorded landing
// time is authoritative; the textual status breaks ties.
func classify(s *fr24.FlightSummary) string {
	if s.DatetimeLanded != "" {
		return statusLanded
	}
	switch strings.ToLower(s.Status.Text) {
	case "landed":
		return statusLanded
	case "airborne", "en-route", "live":
		return statusAirborne
	}
	if s.DatetimeTakeoff != "" {
		// Took off, never seen landing: still in the air as far as the
		// service knows.
		return statusAirborne
	}
	return statusUnknown
}

// toModel converts the wire summary into the typed artifact record.
func toModel(flightID string, s *fr24.FlightSummary) model.FlightSummary {
	m := model.FlightSummary{
		FlightID:      flightID,
		Flight:        s.Flight,
		Callsign:      s.Callsign,
		AircraftModel: s.Type,
		AircraftReg:   s.Reg,
		DepartureICAO: s.OrigICAO,
		ArrivalICAO:   s.DestICAO,
		Status:        statusLanded,
	}
	m.ActualDeparture = parseTime(s.DatetimeTakeoff)
	m.ActualArrival = parseTime(s.DatetimeLanded)
	m.FirstSeen = parseTime(s.FirstSeen)
	m.LastSeen = parseTime(s.LastSeen)
	return m
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
