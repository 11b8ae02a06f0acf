package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/listerineh/flights-cli/internal/model"
	"github.com/listerineh/flights-cli/internal/runstore"
	"github.com/listerineh/flights-cli/internal/verify"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <run-dir>",
	Short: "Verify which candidates have completed their flight",
	Long:  "Fetches the flight summary for every candidate that has aged past the completion window and keeps only landed flights. Re-running with --force keeps landed entries and re-verifies skipped ones until their attempt budget is spent.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		force, _ := cmd.Flags().GetBool("force")

		st, err := runstore.Open(args[0])
		if err != nil {
			return err
		}
		if stageDone(st, runstore.StageSummaries, force) {
			return nil
		}

		candidates, err := runstore.Read[model.CandidateArtifact](st, runstore.StageCandidates)
		if err != nil {
			return eris.Wrap(err, "verify needs the discovery artifact")
		}

		var prev *model.SummaryArtifact
		if p, err := runstore.Read[model.SummaryArtifact](st, runstore.StageSummaries); err == nil {
			prev = &p
		} else if !eris.Is(err, runstore.ErrAbsent) {
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

		res, err := verify.Run(ctx, client, guard, cfg.Verify, cfg.Budget, candidates, prev, time.Now().UTC())
		if err != nil {
			return err
		}

		if err := saveGuard(st, guard); err != nil {
			return err
		}
		if err := runstore.Write(st, runstore.StageSummaries, res.Artifact); err != nil {
			return err
		}
		if res.Incomplete {
			logIncomplete(runstore.StageSummaries, guard)
		}
		return nil
	},
}

func init() {
	verifyCmd.Flags().Bool("force", false, "re-run even if the summaries artifact exists")
	rootCmd.AddCommand(verifyCmd)
}
