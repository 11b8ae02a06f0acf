// Package discovery builds the initial candidate universe for a run from
// geographic seeds: recent-flight listings per airport and, optionally,
// historic bounding-box snapshots at fixed hours of the lookback window.
package discovery

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/listerineh/flights-cli/internal/budget"
	"github.com/listerineh/flights-cli/internal/config"
	"github.com/listerineh/flights-cli/internal/model"
	"github.com/listerineh/flights-cli/pkg/fr24"
)

// seedWorkers bounds concurrent seed queries; each query is still paced by
// the client's rate limiter.
const seedWorkers = 4

// Result is the discovery stage outcome.
type Result struct {
	Artifact model.CandidateArtifact
	// Incomplete is set when the budget ran out before all seeds were
	// queried. The artifact still holds everything found so far.
	Incomplete bool
}

// Run queries every configured seed and returns the deduplicated candidate
// set. One seed failing does not abort the others; failures are logged with
// their cause. A zero budget yields an empty artifact and no error.
func Run(ctx context.Context, client fr24.Client, guard *budget.Guard, cfg config.DiscoveryConfig, costs config.BudgetConfig, airports []string, now time.Time) (*Result, error) {
	res := &Result{}

	var mu sync.Mutex
	seen := make(map[string]bool)
	exhausted := false

	add := func(id, source string) {
		mu.Lock()
		defer mu.Unlock()
		if id == "" || seen[id] {
			return
		}
		if cfg.MaxCandidates > 0 && len(seen) >= cfg.MaxCandidates {
			return
		}
		seen[id] = true
		res.Artifact.Candidates = append(res.Artifact.Candidates, model.FlightCandidate{
			FlightID:     id,
			Source:       source,
			DiscoveredAt: now,
		})
	}

	markExhausted := func() {
		mu.Lock()
		exhausted = true
		mu.Unlock()
	}
	isExhausted := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return exhausted
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seedWorkers)

	for _, icao := range airports {
		g.Go(func() error {
			discoverAirport(gctx, client, guard, cfg, costs, icao, add, markExhausted, isExhausted)
			return nil
		})
	}

	if cfg.Bounds != "" {
		g.Go(func() error {
			discoverBounds(gctx, client, guard, cfg, costs, now, add, markExhausted, isExhausted)
			return nil
		})
	}

	_ = g.Wait()

	sort.Slice(res.Artifact.Candidates, func(i, j int) bool {
		return res.Artifact.Candidates[i].FlightID < res.Artifact.Candidates[j].FlightID
	})
	res.Incomplete = exhausted

	zap.L().Info("discovery finished",
		zap.Int("candidates", len(res.Artifact.Candidates)),
		zap.Int("airport_seeds", len(airports)),
		zap.Bool("incomplete", res.Incomplete),
		zap.Int64("credits_remaining", guard.Remaining()),
	)
	return res, nil
}

// discoverAirport pages through the recent-flights listing for one airport.
func discoverAirport(ctx context.Context, client fr24.Client, guard *budget.Guard, cfg config.DiscoveryConfig, costs config.BudgetConfig, icao string, add func(id, source string), markExhausted func(), isExhausted func() bool) {
	log := zap.L().With(zap.String("seed", "airport:"+icao))

	for page := 1; ; page++ {
		if ctx.Err() != nil || isExhausted() {
			return
		}
		if granted, _ := guard.Charge(costs.DiscoverCost); !granted {
			log.Warn("discovery budget exhausted, stopping seed")
			markExhausted()
			return
		}

		resp, err := client.AirportFlights(ctx, icao, page, cfg.PageLimit)
		if err != nil {
			log.Error("airport seed query failed", zap.Int("page", page), zap.Error(err))
			return
		}
		for _, f := range resp.Flights {
			add(f.FR24ID, "airport:"+icao)
		}
		if !resp.HasMore {
			return
		}
	}
}

// discoverBounds takes historic snapshots of the bounding box at the
// configured hours for each day of the lookback window.
func discoverBounds(ctx context.Context, client fr24.Client, guard *budget.Guard, cfg config.DiscoveryConfig, costs config.BudgetConfig, now time.Time, add func(id, source string), markExhausted func(), isExhausted func() bool) {
	log := zap.L().With(zap.String("seed", "bounds"))

	days := cfg.LookbackDays
	if days <= 0 {
		days = 1
	}
	midnight := now.UTC().Truncate(24 * time.Hour)

	for day := 1; day <= days; day++ {
		base := midnight.AddDate(0, 0, -day)
		for _, hour := range cfg.SnapshotHours {
			if ctx.Err() != nil || isExhausted() {
				return
			}
			ts := base.Add(time.Duration(hour) * time.Hour).Unix()

			if granted, _ := guard.Charge(costs.SnapshotCost); !granted {
				log.Warn("discovery budget exhausted, stopping seed")
				markExhausted()
				return
			}

			positions, err := client.Snapshot(ctx, ts, cfg.Bounds)
			if err != nil {
				log.Error("bounds snapshot failed", zap.Int64("timestamp", ts), zap.Error(err))
				continue
			}
			for _, p := range positions {
				add(p.FR24ID, "bounds")
			}
		}
	}
}
