package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/listerineh/flights-cli/internal/config"
	"github.com/listerineh/flights-cli/internal/metrics"
	"github.com/listerineh/flights-cli/internal/model"
	"github.com/listerineh/flights-cli/internal/runstore"
)

var computeCmd = &cobra.Command{
	Use:   "compute <run-dir>",
	Short: "Compute distances, phases and emission estimates per flight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		st, err := runstore.Open(args[0])
		if err != nil {
			return err
		}
		if stageDone(st, runstore.StageMetrics, force) {
			return nil
		}

		trajectories, err := runstore.Read[model.TrajectoryArtifact](st, runstore.StageTrajectories)
		if err != nil {
			return eris.Wrap(err, "compute needs the assembly artifact")
		}
		summaries, err := runstore.Read[model.SummaryArtifact](st, runstore.StageSummaries)
		if err != nil {
			return eris.Wrap(err, "compute needs the verification artifact")
		}

		airports, err := config.LoadAirports(cfg.Metrics.AirportsFile)
		if err != nil {
			return err
		}
		profiles, err := metrics.LoadFuelProfiles(cfg.Metrics.FuelProfilesFile)
		if err != nil {
			return err
		}

		engine := metrics.NewEngine(cfg.Metrics, profiles, airports)
		art := engine.ComputeAll(trajectories, summaries)
		return runstore.Write(st, runstore.StageMetrics, art)
	},
}

func init() {
	computeCmd.Flags().Bool("force", false, "re-run even if the metrics artifact exists")
	rootCmd.AddCommand(computeCmd)
}
