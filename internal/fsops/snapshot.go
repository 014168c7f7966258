package fsops

import (
	"fmt"
	"os"
	"time"
)

// Snapshot creates a timestamped sibling copy of srcDir named
// "<srcDir>_<stamp>" and returns its path. The source is never modified. A
// missing source yields an empty snapshot directory so the audit trail stays
// continuous. An unlikely timestamp collision falls back to a "_1" suffix.
func Snapshot(srcDir string, now time.Time) (string, error) {
	dest := fmt.Sprintf("%s_%s", srcDir, Stamp(now))

	if _, err := os.Stat(srcDir); os.IsNotExist(err) {
		if err := os.MkdirAll(dest, 0o750); err != nil {
			return "", fmt.Errorf("create empty snapshot %s: %w", dest, err)
		}
		return dest, nil
	}

	if _, err := os.Stat(dest); err == nil {
		dest += "_1"
	}
	if err := CopyTree(srcDir, dest); err != nil {
		return "", fmt.Errorf("snapshot %s: %w", srcDir, err)
	}
	return dest, nil
}
