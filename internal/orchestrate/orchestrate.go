package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/agentx-labs/projinit/internal/driver"
	"github.com/agentx-labs/projinit/internal/logging"
	"github.com/agentx-labs/projinit/internal/merge"
	"go.uber.org/zap"
)

// Job describes one run.
type Job struct {
	// Tool and Args start the scaffolding tool. The staging directory,
	// relative to the tool's working directory, is appended as the final
	// positional argument.
	Tool string
	Args []string
	Env  []string

	Rules      []driver.Rule
	ProjectDir string
	Policy     merge.Policy

	// StagingPrefix names the temporary directory (e.g. "alephjs_project").
	StagingPrefix string
}

// Report describes a finished run.
type Report struct {
	OK      bool
	Staging string
	Outcome *driver.Outcome
	Merge   *merge.Result // nil when the merge was skipped
}

// Runner executes Jobs.
type Runner struct {
	Log    *zap.Logger
	Driver *driver.Driver
	Merger *merge.Merger

	// TempDir is where staging directories are created; empty means
	// os.TempDir().
	TempDir string
}

// NewRunner returns a Runner whose driver and merger share log.
func NewRunner(log *zap.Logger) *Runner {
	log = logging.OrNop(log)
	return &Runner{
		Log:    log,
		Driver: &driver.Driver{Log: log},
		Merger: &merge.Merger{Log: log},
	}
}

// Run executes job. The project directory is only written to when the tool
// finished without printing the error marker.
func (r *Runner) Run(ctx context.Context, job Job) (report *Report, err error) {
	log := logging.OrNop(r.Log)

	staging, err := os.MkdirTemp(r.TempDir, job.StagingPrefix)
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	defer func() {
		if rmErr := removeStaging(staging); rmErr != nil && err == nil {
			err = rmErr
		}
	}()
	log.Debug("staging directory created", zap.String("path", staging))

	cmd := driver.Command{
		Name: job.Tool,
		Args: append(append([]string{}, job.Args...), filepath.Base(staging)),
		Dir:  filepath.Dir(staging),
		Env:  job.Env,
	}

	d := r.Driver
	if d == nil {
		d = &driver.Driver{Log: log}
	}
	outcome, err := d.Run(ctx, cmd, job.Rules)
	if err != nil {
		return nil, fmt.Errorf("driving %s: %w", job.Tool, err)
	}

	report = &Report{OK: outcome.OK, Staging: staging, Outcome: outcome}
	if !outcome.OK {
		log.Warn("tool reported errors; project directory left untouched",
			zap.String("project", job.ProjectDir),
			zap.Int("error_lines", len(outcome.ErrorLines)))
		return report, nil
	}

	m := r.Merger
	if m == nil {
		m = &merge.Merger{Log: log}
	}
	res, err := m.Merge(staging, job.ProjectDir, job.Policy)
	if err != nil {
		return nil, fmt.Errorf("merging into %s: %w", job.ProjectDir, err)
	}
	report.Merge = res
	log.Info("project files merged",
		zap.String("project", job.ProjectDir),
		zap.Int("copied", len(res.Copied)),
		zap.Int("skipped", len(res.Skipped)))
	return report, nil
}

// removeStaging deletes the staging tree; a tree that is already gone is
// not an error.
func removeStaging(path string) error {
	if err := os.RemoveAll(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing staging directory %s: %w", path, err)
	}
	return nil
}
