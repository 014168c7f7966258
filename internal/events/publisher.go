// Package events publishes run-completed events to NATS so downstream
// consumers (dashboards, indexers) can react to finished conversion runs.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// RunCompletedEvent is the payload published after every run.
type RunCompletedEvent struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Discovered int       `json:"discovered"`
	Succeeded  int       `json:"succeeded"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Bytes      int64     `json:"bytes"`
	Outcome    string    `json:"outcome"`
	ReportPath string    `json:"report_path,omitempty"`
	DryRun     bool      `json:"dry_run,omitempty"`
}

// Publisher sends run events over a NATS connection.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to the given NATS URL. The caller owns Close.
func NewPublisher(url, subject string) (*Publisher, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url is required")
	}
	if subject == "" {
		return nil, fmt.Errorf("nats subject is required")
	}

	conn, err := nats.Connect(url,
		nats.Name("docrotate"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	slog.Info("connected to NATS", "url", url, "subject", subject)
	return &Publisher{conn: conn, subject: subject}, nil
}

// PublishRunCompleted publishes one run summary and flushes the connection
// so the event is on the wire before a short-lived process exits.
func (p *Publisher) PublishRunCompleted(event RunCompletedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish run event: %w", err)
	}
	if err := p.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("flush run event: %w", err)
	}

	slog.Debug("published run completed event",
		"run_id", event.RunID,
		"outcome", event.Outcome)
	return nil
}

// Close drains the connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}
