// Package fsops provides the filesystem primitives the pipeline is built on:
// atomic file writes, best-effort directory content moves that survive
// cross-device boundaries, and non-destructive snapshot copies.
package fsops

import (
	"fmt"
	"time"
)

// Stamp formats t as a millisecond-granularity timestamp suitable for
// directory and report names. Millisecond resolution keeps sibling archive
// directories created within one process from colliding.
func Stamp(t time.Time) string {
	return fmt.Sprintf("%s_%03d", t.Format("20060102_150405"), t.Nanosecond()/int(time.Millisecond))
}
