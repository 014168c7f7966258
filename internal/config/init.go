package config

import (
	"fmt"
	"os"
)

const defaultConfigContent = `# docrotate configuration
#
# Files dropped into inputs_queue are swept into inputs at the start of each
# run; previous inputs are archived to inputs_old_<timestamp> siblings.

# Source extensions to pick up (pdf, docx, txt, md, html).
input_types:
  - pdf

# Target formats to produce for every source file.
output_types:
  - md

# Files larger than this are rejected without conversion.
max_file_size_mb: 100

# Retries per (file, format) task after the first failed attempt.
retry_attempts: 2
retry_delay_seconds: 1.0

# Per-attempt conversion ceiling in seconds; 0 disables the timeout.
convert_timeout_seconds: 0

directories:
  inputs: ./inputs
  outputs: ./outputs
  inputs_queue: ./inputs_queue
  inputs_staging: ./inputs_staging

# Durable run history (SQLite). Empty path disables it.
history:
  path: ./docrotate-runs.db

# Publish a run summary to NATS after each run. Empty URL disables it.
events:
  nats_url: ""
  subject: docrotate.runs

# Watch mode settings for 'docrotate daemon'.
daemon:
  watch: true
  debounce_seconds: 2
  interval_minutes: 0
  metrics_listen: ""
`

// Init writes the commented default configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
