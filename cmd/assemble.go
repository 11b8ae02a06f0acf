package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listerineh/flights-cli/internal/assemble"
	"github.com/listerineh/flights-cli/internal/model"
	"github.com/listerineh/flights-cli/internal/runstore"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble <run-dir>",
	Short: "Assemble ordered trajectories from the harvested fragments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		st, err := runstore.Open(args[0])
		if err != nil {
			return err
		}
		if stageDone(st, runstore.StageTrajectories, force) {
			return nil
		}

		fragments, err := runstore.Read[model.FragmentArtifact](st, runstore.StageFragments)
		if err != nil {
			return eris.Wrap(err, "assemble needs the reconstruction artifact")
		}
		if !fragments.Complete {
			zap.L().Warn("assembling from an incomplete reconstruction; trajectories may be sparse",
				zap.String("run", st.Dir()))
		}
		summaries, err := runstore.Read[model.SummaryArtifact](st, runstore.StageSummaries)
		if err != nil {
			return eris.Wrap(err, "assemble needs the verification artifact")
		}

		art := assemble.Run(cfg.Assemble, fragments, summaries)
		return runstore.Write(st, runstore.StageTrajectories, art)
	},
}

func init() {
	assembleCmd.Flags().Bool("force", false, "re-run even if the trajectories artifact exists")
	rootCmd.AddCommand(assembleCmd)
}
