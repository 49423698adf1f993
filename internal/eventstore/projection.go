package eventstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// RunSummary is the folded view of a single publish run's event stream.
type RunSummary struct {
	RunID      string
	Started    time.Time
	Finished   time.Time
	Outcome    string // success | failed | unknown (run never completed)
	Steps      []string
	FailedStep string
	Error      string
	Commit     string
}

// StepPayload is the JSON payload carried by step events.
type StepPayload struct {
	Step       string  `json:"step"`
	DurationMS float64 `json:"duration_ms,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// RunCompletedPayload is the JSON payload carried by RunCompleted events.
type RunCompletedPayload struct {
	Outcome    string  `json:"outcome"`
	DurationMS float64 `json:"duration_ms"`
	Commit     string  `json:"commit,omitempty"`
}

// Summarize folds a run's ordered event stream into a RunSummary.
func Summarize(runID string, events []Event) (*RunSummary, error) {
	if len(events) == 0 {
		return nil, fmt.Errorf("no events recorded for run %s", runID)
	}

	summary := &RunSummary{
		RunID:   runID,
		Started: events[0].Timestamp(),
		Outcome: "unknown",
	}

	for _, event := range events {
		switch event.Type() {
		case EventRunStarted:
			summary.Started = event.Timestamp()
		case EventStepCompleted:
			var payload StepPayload
			if err := json.Unmarshal(event.Payload(), &payload); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", event.Type(), err)
			}
			summary.Steps = append(summary.Steps, payload.Step)
		case EventStepFailed:
			var payload StepPayload
			if err := json.Unmarshal(event.Payload(), &payload); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", event.Type(), err)
			}
			summary.FailedStep = payload.Step
			summary.Error = payload.Error
		case EventRunCompleted:
			var payload RunCompletedPayload
			if err := json.Unmarshal(event.Payload(), &payload); err != nil {
				return nil, fmt.Errorf("decode %s payload: %w", event.Type(), err)
			}
			summary.Outcome = payload.Outcome
			summary.Commit = payload.Commit
			summary.Finished = event.Timestamp()
		}
	}

	return summary, nil
}

// RecentRuns projects the newest runs in the store into summaries.
func RecentRuns(ctx context.Context, store Store, limit int) ([]*RunSummary, error) {
	runIDs, err := store.RecentRunIDs(ctx, limit)
	if err != nil {
		return nil, err
	}

	summaries := make([]*RunSummary, 0, len(runIDs))
	for _, runID := range runIDs {
		events, err := store.GetByRunID(ctx, runID)
		if err != nil {
			return nil, err
		}
		summary, err := Summarize(runID, events)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
