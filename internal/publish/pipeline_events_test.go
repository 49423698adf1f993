package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/styleguide-tools/stylepub/internal/eventstore"
)

type captureNotifier struct {
	reports []*Report
	err     error
}

func (c *captureNotifier) RunCompleted(_ context.Context, report *Report) error {
	c.reports = append(c.reports, report)
	return c.err
}

func TestRun_RecordsHistory(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	pipeline := New(testOptions(t), newFakeGit("main"), &fakeRenderer{}, WithStore(store))

	report, err := pipeline.Run(t.Context())
	require.NoError(t, err)

	events, err := store.GetByRunID(t.Context(), report.RunID)
	require.NoError(t, err)
	// RunStarted + 8 steps + RunCompleted.
	require.Len(t, events, 10)

	summary, err := eventstore.Summarize(report.RunID, events)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, summary.Outcome)
	require.Len(t, summary.Steps, len(StepOrder))
	require.Equal(t, report.Commit, summary.Commit)
}

func TestRun_RecordsFailedStep(t *testing.T) {
	store, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	git := newFakeGit("main")
	git.mergeErr = errors.New("merge blew up")
	pipeline := New(testOptions(t), git, &fakeRenderer{}, WithStore(store))

	report, runErr := pipeline.Run(t.Context())
	require.Error(t, runErr)

	events, err := store.GetByRunID(t.Context(), report.RunID)
	require.NoError(t, err)

	summary, err := eventstore.Summarize(report.RunID, events)
	require.NoError(t, err)
	require.Equal(t, OutcomeFailed, summary.Outcome)
	require.Equal(t, string(StepMergePrimary), summary.FailedStep)
	require.Contains(t, summary.Error, "merge blew up")
}

func TestRun_NotifiesOnBothOutcomes(t *testing.T) {
	notifier := &captureNotifier{}
	pipeline := New(testOptions(t), newFakeGit("main"), &fakeRenderer{}, WithNotifier(notifier))

	_, err := pipeline.Run(t.Context())
	require.NoError(t, err)

	git := newFakeGit("main")
	git.pushErr = errors.New("rejected")
	failing := New(testOptions(t), git, &fakeRenderer{}, WithNotifier(notifier))
	_, err = failing.Run(t.Context())
	require.Error(t, err)

	require.Len(t, notifier.reports, 2)
	require.Equal(t, OutcomeSuccess, notifier.reports[0].Outcome)
	require.Equal(t, OutcomeFailed, notifier.reports[1].Outcome)
}

func TestRun_NotifierErrorDoesNotFailRun(t *testing.T) {
	notifier := &captureNotifier{err: errors.New("nats down")}
	pipeline := New(testOptions(t), newFakeGit("main"), &fakeRenderer{}, WithNotifier(notifier))

	_, err := pipeline.Run(t.Context())
	require.NoError(t, err)
}
