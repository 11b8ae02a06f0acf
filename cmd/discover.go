package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listerineh/flights-cli/internal/discovery"
	"github.com/listerineh/flights-cli/internal/model"
	"github.com/listerineh/flights-cli/internal/runstore"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Start a new run and discover candidate flights",
	Long:  "Queries the configured airport and bounding-box seeds, deduplicates the results into the run's candidate universe, and creates the run directory every later stage operates on.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := runstore.New(cfg.Runs.BaseDir)
		if err != nil {
			return err
		}

		manifest := model.RunManifest{
			RunID:     uuid.NewString(),
			CreatedAt: time.Now().UTC(),
		}
		if err := runstore.Write(st, runstore.StageManifest, manifest); err != nil {
			return err
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		guard, err := loadGuard(st)
		if err != nil {
			return err
		}
		airports, err := seedAirports()
		if err != nil {
			return err
		}

		zap.L().Info("run started",
			zap.String("run", st.Dir()),
			zap.Int("airport_seeds", len(airports)),
			zap.Int64("budget_credits", cfg.Budget.RunCredits),
		)

		res, err := discovery.Run(ctx, client, guard, cfg.Discovery, cfg.Budget, airports, time.Now().UTC())
		if err != nil {
			return err
		}

		if err := saveGuard(st, guard); err != nil {
			return err
		}
		if err := runstore.Write(st, runstore.StageCandidates, res.Artifact); err != nil {
			return err
		}
		if res.Incomplete {
			logIncomplete(runstore.StageCandidates, guard)
		}

		// The run directory is the handle for every later stage.
		fmt.Println(st.Dir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
