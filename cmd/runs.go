package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/listerineh/flights-cli/internal/model"
	"github.com/listerineh/flights-cli/internal/runstore"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect pipeline run history",
	Long:  "Commands for listing run directories and summarizing their stage progress.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		names, err := runstore.ListRuns(cfg.Runs.BaseDir)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}
		if len(names) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		limit, _ := cmd.Flags().GetInt("limit")
		if limit > 0 && len(names) > limit {
			names = names[:limit]
		}

		rows := make([]runRow, 0, len(names))
		for _, name := range names {
			rows = append(rows, inspectRun(filepath.Join(cfg.Runs.BaseDir, name)))
		}
		formatRunsList(os.Stdout, rows)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-dir>",
	Short: "Show a run's stage progress and budget as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		row := inspectRun(args[0])

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(row)
	},
}

func init() {
	runsListCmd.Flags().Int("limit", 20, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// runRow is one run's inventory, derived entirely from its artifacts.
type runRow struct {
	Name         string   `json:"name"`
	RunID        string   `json:"run_id,omitempty"`
	Dir          string   `json:"dir"`
	CreatedAt    string   `json:"created_at,omitempty"`
	SpentCredits int64    `json:"spent_credits"`
	Candidates   int      `json:"candidates"`
	Landed       int      `json:"landed"`
	Flights      int      `json:"flights_computed"`
	Stages       []string `json:"stages_done"`
}

// inspectRun reads whatever artifacts the run has. Missing or unreadable
// artifacts leave their fields zero; inspection never fails.
func inspectRun(dir string) runRow {
	row := runRow{Name: filepath.Base(dir), Dir: dir}

	st, err := runstore.Open(dir)
	if err != nil {
		return row
	}

	if m, err := runstore.Read[model.RunManifest](st, runstore.StageManifest); err == nil {
		row.RunID = m.RunID
		row.CreatedAt = m.CreatedAt.Format("2006-01-02 15:04")
	}
	if b, err := runstore.Read[model.BudgetState](st, runstore.StageBudget); err == nil {
		row.SpentCredits = b.SpentCredits
	}
	if c, err := runstore.Read[model.CandidateArtifact](st, runstore.StageCandidates); err == nil {
		row.Candidates = len(c.Candidates)
	}
	if s, err := runstore.Read[model.SummaryArtifact](st, runstore.StageSummaries); err == nil {
		row.Landed = len(s.Summaries)
	}
	if m, err := runstore.Read[model.MetricsArtifact](st, runstore.StageMetrics); err == nil {
		row.Flights = len(m.Flights)
	}

	for _, stage := range []string{
		runstore.StageCandidates, runstore.StageSummaries, runstore.StageTimelines,
		runstore.StageFragments, runstore.StageTrajectories, runstore.StageMetrics,
	} {
		if st.Exists(stage) {
			row.Stages = append(row.Stages, stage)
		}
	}
	return row
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, rows []runRow) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tCREATED\tCANDIDATES\tLANDED\tCOMPUTED\tCREDITS\tLAST_STAGE")
	_, _ = fmt.Fprintln(w, "---\t-------\t----------\t------\t--------\t-------\t----------")

	for _, r := range rows {
		last := ""
		if len(r.Stages) > 0 {
			last = r.Stages[len(r.Stages)-1]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.Name, r.CreatedAt, r.Candidates, r.Landed, r.Flights, r.SpentCredits, last)
	}
	_ = w.Flush()
}
