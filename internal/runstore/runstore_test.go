package runstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listerineh/flights-cli/internal/model"
)

func TestNewCreatesRunDirectory(t *testing.T) {
	base := t.TempDir()

	st, err := New(base)
	require.NoError(t, err)

	info, err := os.Stat(st.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Contains(t, filepath.Base(st.Dir()), "run_")
}

func TestOpenRejectsMissingDirectory(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestReadAbsentArtifact(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = Read[model.BudgetState](st, StageBudget)
	assert.True(t, eris.Is(err, ErrAbsent))
	assert.False(t, st.Exists(StageBudget))
}

func TestWriteReadRoundTrip(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	in := model.BudgetState{SpentCredits: 420}
	require.NoError(t, Write(st, StageBudget, in))
	assert.True(t, st.Exists(StageBudget))

	out, err := Read[model.BudgetState](st, StageBudget)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWriteRefusesInvalidArtifact(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	err = Write(st, StageManifest, model.RunManifest{}) // missing run_id
	assert.Error(t, err)
	assert.False(t, st.Exists(StageManifest))
}

func TestReadRejectsCorruptArtifact(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(st.Dir(), StageBudget+".json"), []byte("{nope"), 0o644))

	_, err = Read[model.BudgetState](st, StageBudget)
	require.Error(t, err)
	assert.False(t, eris.Is(err, ErrAbsent))
}

func TestWriteSurvivesRewrite(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, Write(st, StageBudget, model.BudgetState{SpentCredits: 1}))
	require.NoError(t, Write(st, StageBudget, model.BudgetState{SpentCredits: 2}))

	out, err := Read[model.BudgetState](st, StageBudget)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.SpentCredits)

	// No temp files may survive the rename.
	entries, err := os.ReadDir(st.Dir())
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp")
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	base := t.TempDir()
	for _, name := range []string{"run_2026-01-01_00-00-00", "run_2026-03-01_00-00-00", "run_2026-02-01_00-00-00"} {
		require.NoError(t, os.Mkdir(filepath.Join(base, name), 0o755))
	}
	// Non-run entries are ignored.
	require.NoError(t, os.Mkdir(filepath.Join(base, "scratch"), 0o755))

	runs, err := ListRuns(base)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"run_2026-03-01_00-00-00",
		"run_2026-02-01_00-00-00",
		"run_2026-01-01_00-00-00",
	}, runs)
}

func TestListRunsMissingBase(t *testing.T) {
	runs, err := ListRuns(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestBudgetStatePersistsAcrossInvocations(t *testing.T) {
	st, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, Write(st, StageManifest, model.RunManifest{RunID: "r", CreatedAt: time.Now()}))
	require.NoError(t, Write(st, StageBudget, model.BudgetState{SpentCredits: 300}))

	// A second invocation reopens the same directory.
	st2, err := Open(st.Dir())
	require.NoError(t, err)
	state, err := Read[model.BudgetState](st2, StageBudget)
	require.NoError(t, err)
	assert.Equal(t, int64(300), state.SpentCredits)
}
