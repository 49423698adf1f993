package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving publish-run events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, runID, eventType string, payload []byte, metadata map[string]string) error

	// GetByRunID retrieves all events for a specific run.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// RecentRunIDs returns the identifiers of the most recent runs, newest first.
	RecentRunIDs(ctx context.Context, limit int) ([]string, error)

	// Close closes the store and releases resources.
	Close() error
}
