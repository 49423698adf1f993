// Package notify publishes publish-run results to NATS so other tooling
// (chat bots, dashboards) can react to documentation updates.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/styleguide-tools/stylepub/internal/logfields"
	"github.com/styleguide-tools/stylepub/internal/publish"
)

// Publisher sends run-completed events to a NATS subject. Notifications are
// fire-and-forget; delivery failures are the caller's to log, never to act on.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// NewPublisher connects to the NATS server.
func NewPublisher(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url, nats.Name("stylepub"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	return &Publisher{conn: conn, subject: subject}, nil
}

// RunCompleted publishes the report as JSON and flushes the connection.
func (p *Publisher) RunCompleted(ctx context.Context, report *publish.Report) error {
	data, err := encodeReport(report)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish run notification: %w", err)
	}
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	slog.Debug("Published run notification",
		logfields.RunID(report.RunID),
		slog.String("subject", p.subject))
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

func encodeReport(report *publish.Report) ([]byte, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run report: %w", err)
	}
	return data, nil
}
