package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/listerineh/flights-cli/internal/model"
	"github.com/listerineh/flights-cli/internal/reconstruct"
	"github.com/listerineh/flights-cli/internal/runstore"
)

var reconstructCmd = &cobra.Command{
	Use:   "reconstruct <run-dir>",
	Short: "Harvest position snapshots along the planned timelines",
	Long:  "Issues one historic snapshot query per distinct timestamp bucket and collects position fragments for every planned flight. An interrupted or budget-bounded invocation resumes automatically; already-served buckets are never paid for twice.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		force, _ := cmd.Flags().GetBool("force")

		st, err := runstore.Open(args[0])
		if err != nil {
			return err
		}

		var prev *model.FragmentArtifact
		if p, err := runstore.Read[model.FragmentArtifact](st, runstore.StageFragments); err == nil {
			if p.Complete && !force {
				zap.L().Info("reconstruction already complete, skipping (use --force to redo)",
					zap.String("run", st.Dir()))
				return nil
			}
			prev = &p
		} else if !eris.Is(err, runstore.ErrAbsent) {
			return err
		}

		timelines, err := runstore.Read[model.TimelineArtifact](st, runstore.StageTimelines)
		if err != nil {
			return eris.Wrap(err, "reconstruct needs the timeline artifact")
		}

		client, err := newClient()
		if err != nil {
			return err
		}
		guard, err := loadGuard(st)
		if err != nil {
			return err
		}

		res, err := reconstruct.Run(ctx, client, guard, cfg.Reconstruct, cfg.Budget, timelines, prev)
		if err != nil {
			return err
		}

		if err := saveGuard(st, guard); err != nil {
			return err
		}
		if err := runstore.Write(st, runstore.StageFragments, res.Artifact); err != nil {
			return err
		}
		if res.Incomplete {
			logIncomplete(runstore.StageFragments, guard)
		}
		return nil
	},
}

func init() {
	reconstructCmd.Flags().Bool("force", false, "re-run even if reconstruction is complete; served buckets are still reused")
	rootCmd.AddCommand(reconstructCmd)
}
