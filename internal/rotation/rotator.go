// Package rotation implements the per-run input rotation sequence: archive
// the active input area, recreate it empty, then sweep queued files through
// staging into the fresh input area.
package rotation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/docrotate/internal/fsops"
	"git.home.luguber.info/inful/docrotate/internal/logfields"
)

// Rotator executes the four-step rotation over one directory set. Every step
// is best effort: a failed step is recorded as a warning and the sequence
// continues, so a run can still process whatever the filesystem allows.
type Rotator struct {
	Inputs  string
	Queue   string
	Staging string

	Logger *slog.Logger
	Now    func() time.Time
}

// Result describes what one rotation did. Warnings collect every non-fatal
// step failure; the caller surfaces them but never aborts on them.
type Result struct {
	ArchivedTo   string // path of the inputs_old_<stamp> directory, empty when inputs did not exist or archival failed
	QueueMoved   int
	StagingMoved int
	Warnings     []error
}

func (r *Rotator) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Rotator) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Run performs the rotation once. Postcondition: Inputs exists and holds what
// was queued (plus anything that predated the run in staging); Queue and
// Staging exist and are empty apart from entries that failed to move.
func (r *Rotator) Run() Result {
	var res Result
	log := r.logger()
	stamp := fsops.Stamp(r.now())

	// Step 1: archive current inputs.
	if _, err := os.Stat(r.Inputs); err == nil {
		archived := filepath.Join(filepath.Dir(r.Inputs), fmt.Sprintf("%s_old_%s", filepath.Base(r.Inputs), stamp))
		if err := os.Rename(r.Inputs, archived); err != nil {
			res.Warnings = append(res.Warnings, fmt.Errorf("archive inputs: %w", err))
			log.Warn("failed to archive inputs, clearing instead", logfields.Path(r.Inputs), logfields.Error(err))
			if rmErr := os.RemoveAll(r.Inputs); rmErr != nil {
				res.Warnings = append(res.Warnings, fmt.Errorf("clear inputs: %w", rmErr))
			}
		} else {
			res.ArchivedTo = archived
			log.Info("archived previous inputs", logfields.Path(archived))
		}
	} else {
		log.Info("no existing inputs directory to archive", logfields.Path(r.Inputs))
	}

	// Step 2: recreate an empty inputs directory.
	if err := os.MkdirAll(r.Inputs, 0o750); err != nil {
		res.Warnings = append(res.Warnings, fmt.Errorf("recreate inputs: %w", err))
		log.Warn("failed to recreate inputs", logfields.Path(r.Inputs), logfields.Error(err))
	}

	// Step 3: queue -> staging.
	moved := fsops.MoveContents(r.Queue, r.Staging)
	res.QueueMoved = moved.Moved
	res.Warnings = append(res.Warnings, moved.Errors...)
	log.Info("moved queued entries to staging", logfields.Moved(moved.Moved))

	// Step 4: staging -> inputs.
	moved = fsops.MoveContents(r.Staging, r.Inputs)
	res.StagingMoved = moved.Moved
	res.Warnings = append(res.Warnings, moved.Errors...)
	log.Info("moved staged entries to inputs", logfields.Moved(moved.Moved))

	// Queue and staging stay around as the external drop points.
	for _, dir := range []string{r.Queue, r.Staging} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			res.Warnings = append(res.Warnings, fmt.Errorf("ensure %s: %w", dir, err))
		}
	}

	return res
}
