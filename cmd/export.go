package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listerineh/flights-cli/internal/db"
	"github.com/listerineh/flights-cli/internal/export"
	"github.com/listerineh/flights-cli/internal/model"
	"github.com/listerineh/flights-cli/internal/runstore"
)

var exportCmd = &cobra.Command{
	Use:   "export <run-dir>",
	Short: "Export computed metrics and trajectories to PostgreSQL",
	Long:  "Upserts one row per flight and replaces its position rows. Exporting the same run twice leaves the database unchanged, so export can follow every compute invocation.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := runstore.Open(args[0])
		if err != nil {
			return err
		}

		metricsArt, err := runstore.Read[model.MetricsArtifact](st, runstore.StageMetrics)
		if err != nil {
			return eris.Wrap(err, "export needs the metrics artifact")
		}
		trajectories, err := runstore.Read[model.TrajectoryArtifact](st, runstore.StageTrajectories)
		if err != nil {
			return eris.Wrap(err, "export needs the assembly artifact")
		}

		pool, err := db.Connect(ctx, cfg.Export.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		exporter := export.New(pool, cfg.Export)
		if err := exporter.EnsureSchema(ctx); err != nil {
			return err
		}
		flights, positions, err := exporter.Export(ctx, metricsArt, trajectories)
		if err != nil {
			return err
		}

		zap.L().Info("export finished",
			zap.Int64("flights", flights),
			zap.Int64("positions", positions),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
