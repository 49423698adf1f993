package eventstore

import (
	"encoding/json"
	"testing"
	"time"
)

func appendJSON(t *testing.T, store Store, runID, eventType string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := store.Append(t.Context(), runID, eventType, data, nil); err != nil {
		t.Fatalf("append %s: %v", eventType, err)
	}
}

func TestSummarize_SuccessfulRun(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	appendJSON(t, store, testRunID, EventRunStarted, map[string]string{"branch": "main"})
	for _, step := range []string{"precondition", "clean_output", "checkout_publish"} {
		appendJSON(t, store, testRunID, EventStepCompleted, StepPayload{Step: step, DurationMS: 1})
	}
	appendJSON(t, store, testRunID, EventRunCompleted, RunCompletedPayload{Outcome: "success", DurationMS: 5, Commit: "abc123"})

	events, err := store.GetByRunID(t.Context(), testRunID)
	if err != nil {
		t.Fatalf("get events: %v", err)
	}

	summary, err := Summarize(testRunID, events)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if summary.Outcome != "success" {
		t.Errorf("expected success outcome, got %s", summary.Outcome)
	}
	if summary.Commit != "abc123" {
		t.Errorf("expected commit abc123, got %s", summary.Commit)
	}
	if len(summary.Steps) != 3 {
		t.Errorf("expected 3 completed steps, got %d", len(summary.Steps))
	}
	if summary.FailedStep != "" {
		t.Errorf("expected no failed step, got %s", summary.FailedStep)
	}
	if summary.Finished.Before(summary.Started) {
		t.Errorf("finished %v precedes started %v", summary.Finished, summary.Started)
	}
}

func TestSummarize_FailedRun(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	appendJSON(t, store, "run-2", EventRunStarted, map[string]string{})
	appendJSON(t, store, "run-2", EventStepCompleted, StepPayload{Step: "precondition"})
	appendJSON(t, store, "run-2", EventStepFailed, StepPayload{Step: "merge_primary", Error: "merge of main failed"})
	appendJSON(t, store, "run-2", EventRunCompleted, RunCompletedPayload{Outcome: "failed", DurationMS: 2})

	events, err := store.GetByRunID(t.Context(), "run-2")
	if err != nil {
		t.Fatalf("get events: %v", err)
	}

	summary, err := Summarize("run-2", events)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}

	if summary.Outcome != "failed" {
		t.Errorf("expected failed outcome, got %s", summary.Outcome)
	}
	if summary.FailedStep != "merge_primary" {
		t.Errorf("expected failed step merge_primary, got %s", summary.FailedStep)
	}
	if summary.Error == "" {
		t.Error("expected an error message in the summary")
	}
}

func TestSummarize_NoEvents(t *testing.T) {
	if _, err := Summarize("run-x", nil); err == nil {
		t.Fatal("expected error for empty event stream")
	}
}

func TestRecentRuns(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	defer func() { _ = store.Close() }()

	for _, runID := range []string{"run-a", "run-b"} {
		appendJSON(t, store, runID, EventRunStarted, map[string]string{})
		appendJSON(t, store, runID, EventRunCompleted, RunCompletedPayload{Outcome: "success"})
		time.Sleep(2 * time.Millisecond)
	}

	summaries, err := RecentRuns(t.Context(), store, 10)
	if err != nil {
		t.Fatalf("recent runs: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].RunID != "run-b" {
		t.Errorf("expected newest run first, got %s", summaries[0].RunID)
	}
}
