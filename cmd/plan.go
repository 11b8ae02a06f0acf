package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/listerineh/flights-cli/internal/model"
	"github.com/listerineh/flights-cli/internal/runstore"
	"github.com/listerineh/flights-cli/internal/timeline"
)

var planCmd = &cobra.Command{
	Use:   "plan <run-dir>",
	Short: "Derive the bounded polling schedule for each verified flight",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		st, err := runstore.Open(args[0])
		if err != nil {
			return err
		}
		if stageDone(st, runstore.StageTimelines, force) {
			return nil
		}

		summaries, err := runstore.Read[model.SummaryArtifact](st, runstore.StageSummaries)
		if err != nil {
			return eris.Wrap(err, "plan needs the verification artifact")
		}
		candidates, err := runstore.Read[model.CandidateArtifact](st, runstore.StageCandidates)
		if err != nil {
			return eris.Wrap(err, "plan needs the discovery artifact")
		}

		art := timeline.Plan(cfg.Timeline, cfg.Reconstruct.BucketSecs, summaries, candidates)
		return runstore.Write(st, runstore.StageTimelines, art)
	},
}

func init() {
	planCmd.Flags().Bool("force", false, "re-run even if the timelines artifact exists")
	rootCmd.AddCommand(planCmd)
}
