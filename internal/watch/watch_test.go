package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_DebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "styleguide.md")
	require.NoError(t, os.WriteFile(source, []byte("# v0"), 0o644))

	var triggers atomic.Int32
	watcher, err := NewWatcher(source, 100*time.Millisecond, func() {
		triggers.Add(1)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watcher.Start(ctx) }()

	// Give the watcher time to register.
	time.Sleep(100 * time.Millisecond)

	for i := range 5 {
		require.NoError(t, os.WriteFile(source, []byte{byte('0' + i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return triggers.Load() == 1
	}, 2*time.Second, 20*time.Millisecond, "rapid writes must collapse into one trigger")

	// Quiet period, then one more write yields exactly one more trigger.
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(source, []byte("final"), 0o644))
	require.Eventually(t, func() bool {
		return triggers.Load() == 2
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "styleguide.md")
	require.NoError(t, os.WriteFile(source, []byte("# v0"), 0o644))

	var triggers atomic.Int32
	watcher, err := NewWatcher(source, 50*time.Millisecond, func() {
		triggers.Add(1)
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = watcher.Start(ctx) }()
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	require.Zero(t, triggers.Load())
}

func TestCoalescer_CollapsesBurstTriggers(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32

	coalescer := NewCoalescer(func(context.Context) {
		runs.Add(1)
		started <- struct{}{}
		<-release
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go coalescer.Start(ctx)

	coalescer.Trigger()
	<-started // first run in flight

	// A burst of triggers during the run coalesces into one pending run.
	for range 10 {
		coalescer.Trigger()
	}
	release <- struct{}{}

	<-started // the single follow-up run
	release <- struct{}{}

	require.Eventually(t, func() bool {
		return runs.Load() == 2
	}, time.Second, 10*time.Millisecond)

	// No further runs without further triggers.
	time.Sleep(50 * time.Millisecond)
	require.Equal(t, int32(2), runs.Load())
}

func TestScheduler_FiresPeriodically(t *testing.T) {
	scheduler, err := NewScheduler()
	require.NoError(t, err)

	var fires atomic.Int32
	jobID, err := scheduler.SchedulePeriodicPublish(20*time.Millisecond, func() {
		fires.Add(1)
	})
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	scheduler.Start()
	defer func() { require.NoError(t, scheduler.Stop()) }()

	require.Eventually(t, func() bool {
		return fires.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}
