package main

import (
	"net/http"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/listerineh/flights-cli/internal/budget"
	"github.com/listerineh/flights-cli/internal/config"
	"github.com/listerineh/flights-cli/internal/model"
	"github.com/listerineh/flights-cli/internal/runstore"
	"github.com/listerineh/flights-cli/pkg/fr24"
)

// newClient builds the flight-data client from the loaded configuration.
func newClient() (fr24.Client, error) {
	if cfg.API.Key == "" {
		return nil, eris.New("api key not configured (set FLIGHTS_API_KEY)")
	}

	opts := []fr24.Option{}
	if cfg.API.BaseURL != "" {
		opts = append(opts, fr24.WithBaseURL(cfg.API.BaseURL))
	}
	if cfg.API.RateLimit > 0 {
		opts = append(opts, fr24.WithRateLimit(cfg.API.RateLimit, cfg.API.RateBurst))
	}
	if cfg.API.TimeoutSecs > 0 {
		opts = append(opts, fr24.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout()}))
	}
	return fr24.NewClient(cfg.API.Key, opts...), nil
}

// loadGuard rebuilds the budget guard from the run's persisted spend.
func loadGuard(st *runstore.Store) (*budget.Guard, error) {
	state, err := runstore.Read[model.BudgetState](st, runstore.StageBudget)
	if err != nil && !eris.Is(err, runstore.ErrAbsent) {
		return nil, err
	}
	return budget.NewGuard(cfg.Budget.RunCredits, state.SpentCredits), nil
}

// saveGuard persists the run's total spend so a later invocation resumes
// against the same ceiling.
func saveGuard(st *runstore.Store, g *budget.Guard) error {
	return runstore.Write(st, runstore.StageBudget, model.BudgetState{SpentCredits: g.Spent()})
}

// seedAirports resolves the discovery seed list: an explicit config override,
// otherwise every airport in the reference table.
func seedAirports() ([]string, error) {
	if len(cfg.Discovery.Airports) > 0 {
		return cfg.Discovery.Airports, nil
	}

	table, err := config.LoadAirports(cfg.Discovery.AirportsFile)
	if err != nil {
		return nil, err
	}
	icaos := make([]string, 0, len(table))
	for icao := range table {
		icaos = append(icaos, icao)
	}
	sort.Strings(icaos)
	return icaos, nil
}

// stageDone reports whether a stage artifact already exists and should be
// kept. force always re-runs.
func stageDone(st *runstore.Store, stage string, force bool) bool {
	if force || !st.Exists(stage) {
		return false
	}
	zap.L().Info("stage artifact exists, skipping (use --force to redo)",
		zap.String("stage", stage), zap.String("run", st.Dir()))
	return true
}

// logIncomplete notes a budget-bounded stage that stopped early. The run is
// left resumable, not failed.
func logIncomplete(stage string, g *budget.Guard) {
	zap.L().Warn("budget exhausted before stage completed; re-run to resume",
		zap.String("stage", stage),
		zap.Int64("spent_credits", g.Spent()),
	)
}
