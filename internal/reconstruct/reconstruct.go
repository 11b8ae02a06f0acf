// Package reconstruct executes the polling schedules by harvesting historic
// position snapshots. All flights sharing a timestamp bucket are served by a
// single bulk snapshot call; fragments are keyed by (flight, timestamp) so
// re-serving a bucket can never duplicate entries.
package reconstruct

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/listerineh/flights-cli/internal/budget"
	"github.com/listerineh/flights-cli/internal/config"
	"github.com/listerineh/flights-cli/internal/model"
	"github.com/listerineh/flights-cli/internal/resilience"
	"github.com/listerineh/flights-cli/pkg/fr24"
)

// Result is the reconstructor stage outcome.
type Result struct {
	Artifact model.FragmentArtifact
	// Incomplete is set on budget exhaustion; served buckets and their
	// fragments are persisted and the next invocation resumes from there.
	Incomplete bool
}

// Run issues one snapshot query per distinct timestamp bucket and appends the
// returned positions to the fragment set of every flight that requested the
// bucket. prev carries the artifact of an earlier invocation; buckets it
// already served are skipped, which makes re-running idempotent.
func Run(ctx context.Context, client fr24.Client, guard *budget.Guard, cfg config.ReconstructConfig, costs config.BudgetConfig, timelines model.TimelineArtifact, prev *model.FragmentArtifact) (*Result, error) {
	bucketSecs := int64(cfg.BucketSecs)
	if bucketSecs <= 0 {
		bucketSecs = 360
	}

	// Coalesce every flight's schedule into the minimal set of buckets.
	wanted := make(map[int64]map[string]bool)
	for id, plan := range timelines.Plans {
		for _, ts := range plan.Timestamps {
			b := ts - ts%bucketSecs
			if wanted[b] == nil {
				wanted[b] = make(map[string]bool)
			}
			wanted[b][id] = true
		}
	}

	res := &Result{Artifact: model.FragmentArtifact{
		Fragments: make(map[string][]model.PositionSample),
	}}

	served := make(map[int64]bool)
	haveKey := make(map[string]map[int64]bool)
	if prev != nil {
		for _, b := range prev.ServedBuckets {
			served[b] = true
		}
		for id, frags := range prev.Fragments {
			res.Artifact.Fragments[id] = append(res.Artifact.Fragments[id], frags...)
			for _, f := range frags {
				if haveKey[id] == nil {
					haveKey[id] = make(map[int64]bool)
				}
				haveKey[id][f.Timestamp] = true
			}
		}
	}

	var pending []int64
	for b := range wanted {
		if !served[b] {
			pending = append(pending, b)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i] < pending[j] })

	zap.L().Info("reconstructing positions",
		zap.Int("buckets_total", len(wanted)),
		zap.Int("buckets_pending", len(pending)),
		zap.Int("flights", len(timelines.Plans)),
		zap.Int64("estimated_cost", int64(len(pending))*costs.SnapshotCost),
	)

	var mu sync.Mutex
	exhausted := false

	g, gctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers <= 0 {
		workers = 5
	}
	g.SetLimit(workers)

	for _, bucket := range pending {
		g.Go(func() error {
			mu.Lock()
			stop := exhausted
			mu.Unlock()
			if stop || gctx.Err() != nil {
				return nil
			}

			if granted, _ := guard.Charge(costs.SnapshotCost); !granted {
				mu.Lock()
				exhausted = true
				mu.Unlock()
				return nil
			}

			var positions []fr24.Position
			err := resilience.Do(gctx, retryConfig(), func(ctx context.Context) error {
				var err error
				positions, err = client.Snapshot(ctx, bucket, cfg.Bounds)
				return err
			})
			if err != nil {
				// The bucket stays unserved and keeps the artifact marked
				// incomplete, so a re-run claims it again.
				zap.L().Error("snapshot bucket failed",
					zap.Int64("bucket", bucket), zap.Error(err))
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for _, p := range positions {
				if !wanted[bucket][p.FR24ID] {
					continue
				}
				ts := int64(p.Timestamp)
				if ts == 0 {
					ts = bucket
				}
				if haveKey[p.FR24ID] == nil {
					haveKey[p.FR24ID] = make(map[int64]bool)
				}
				if haveKey[p.FR24ID][ts] {
					continue
				}
				haveKey[p.FR24ID][ts] = true
				res.Artifact.Fragments[p.FR24ID] = append(res.Artifact.Fragments[p.FR24ID], model.PositionSample{
					Timestamp:    ts,
					Latitude:     p.Latitude,
					Longitude:    p.Longitude,
					Altitude:     p.Altitude,
					GroundSpeed:  p.GroundSpeed,
					VerticalRate: p.VerticalRate,
				})
			}
			served[bucket] = true
			return nil
		})
	}

	_ = g.Wait()

	for b := range served {
		res.Artifact.ServedBuckets = append(res.Artifact.ServedBuckets, b)
	}
	sort.Slice(res.Artifact.ServedBuckets, func(i, j int) bool {
		return res.Artifact.ServedBuckets[i] < res.Artifact.ServedBuckets[j]
	})

	res.Incomplete = exhausted
	res.Artifact.Complete = !exhausted && allServed(wanted, served)

	zap.L().Info("reconstruction finished",
		zap.Int("buckets_served", len(res.Artifact.ServedBuckets)),
		zap.Int("flights_with_fragments", len(res.Artifact.Fragments)),
		zap.Bool("incomplete", res.Incomplete),
		zap.Int64("credits_remaining", guard.Remaining()),
	)
	return res, nil
}

func retryConfig() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("snapshot")
	return cfg
}

// allServed reports whether every wanted bucket has been served.
func allServed(wanted map[int64]map[string]bool, served map[int64]bool) bool {
	for b := range wanted {
		if !served[b] {
			return false
		}
	}
	return true
}
