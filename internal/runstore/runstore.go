// Package runstore manages the durable per-run artifact directory that gives
// the pipeline its checkpoint/resume semantics. A stage's artifact is the
// sole contract with the next stage; no stage communicates through process
// memory.
package runstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Stage names double as artifact file names within the run directory.
const (
	StageManifest     = "manifest"
	StageBudget       = "budget"
	StageCandidates   = "candidates"
	StageSummaries    = "summaries"
	StageTimelines    = "timelines"
	StageFragments    = "fragments"
	StageTrajectories = "trajectories"
	StageMetrics      = "metrics"
)

// ErrAbsent reports that a stage artifact does not exist yet. It is the only
// recoverable read outcome; any other read failure means the artifact is
// corrupt and the stage must abort.
var ErrAbsent = eris.New("runstore: artifact absent")

// Store is a handle on one run directory.
type Store struct {
	dir string
}

// New creates a fresh uniquely-named run directory under base.
func New(base string) (*Store, error) {
	name := "run_" + time.Now().UTC().Format("2006-01-02_15-04-05")
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "runstore: create run directory %s", dir)
	}
	return &Store{dir: dir}, nil
}

// Open validates an existing run directory and returns a handle on it.
func Open(dir string) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "runstore: open run directory %s", dir)
	}
	if !info.IsDir() {
		return nil, eris.Errorf("runstore: %s is not a directory", dir)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the run directory path.
func (s *Store) Dir() string { return s.dir }

// Exists reports whether the artifact for stage has been written.
func (s *Store) Exists(stage string) bool {
	_, err := os.Stat(s.path(stage))
	return err == nil
}

func (s *Store) path(stage string) string {
	return filepath.Join(s.dir, stage+".json")
}

// validator is implemented by artifact types that check themselves at the
// read/write boundary, so malformed data fails fast instead of propagating.
type validator interface {
	Validate() error
}

// Read loads and validates the artifact for stage. Returns ErrAbsent when
// the artifact has not been written; any other error is structural and
// should abort the stage.
func Read[T any](s *Store, stage string) (T, error) {
	var v T
	data, err := os.ReadFile(s.path(stage))
	if err != nil {
		if os.IsNotExist(err) {
			return v, ErrAbsent
		}
		return v, eris.Wrapf(err, "runstore: read %s artifact", stage)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, eris.Wrapf(err, "runstore: %s artifact is corrupt", stage)
	}
	if val, ok := any(v).(validator); ok {
		if err := val.Validate(); err != nil {
			return v, eris.Wrapf(err, "runstore: %s artifact failed validation", stage)
		}
	}
	return v, nil
}

// Write atomically replaces the artifact for stage: the payload is written
// to a temp file in the same directory and renamed over the target, so a
// concurrent reader never observes a partial artifact.
func Write[T any](s *Store, stage string, v T) error {
	if val, ok := any(v).(validator); ok {
		if err := val.Validate(); err != nil {
			return eris.Wrapf(err, "runstore: refusing to write invalid %s artifact", stage)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "runstore: marshal %s artifact", stage)
	}

	tmp, err := os.CreateTemp(s.dir, stage+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "runstore: create temp file for %s", stage)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return eris.Wrapf(err, "runstore: write %s artifact", stage)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrapf(err, "runstore: close temp file for %s", stage)
	}
	if err := os.Rename(tmpName, s.path(stage)); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrapf(err, "runstore: replace %s artifact", stage)
	}
	return nil
}

// ListRuns returns the run directory names under base, newest first. The
// timestamped naming scheme makes lexical order chronological.
func ListRuns(base string) ([]string, error) {
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "runstore: list runs under %s", base)
	}
	var runs []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), "run_") {
			runs = append(runs, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(runs)))
	return runs, nil
}
