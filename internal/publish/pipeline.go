package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/styleguide-tools/stylepub/internal/eventstore"
	"github.com/styleguide-tools/stylepub/internal/gitops"
	"github.com/styleguide-tools/stylepub/internal/logfields"
	"github.com/styleguide-tools/stylepub/internal/metrics"
)

// GitOps is the version-control collaborator the pipeline drives.
// *gitops.Client satisfies it; tests inject fakes.
type GitOps interface {
	CurrentBranch() (string, error)
	UntrackedFiles() ([]string, error)
	Checkout(branch string) error
	MergeFrom(ctx context.Context, branch string) error
	CommitAll(message string) (string, error)
	Push(ctx context.Context, remote, branch string) error
}

// Renderer is the documentation-generator collaborator.
// generator implementations satisfy it.
type Renderer interface {
	Render(ctx context.Context, source, outputDir string) error
}

// Notifier receives the final report of every run (e.g. a NATS publisher).
type Notifier interface {
	RunCompleted(ctx context.Context, report *Report) error
}

// Options carries the run parameters resolved from configuration.
type Options struct {
	RepoRoot      string
	Source        string // relative to RepoRoot
	Output        string // relative to RepoRoot, removed wholesale each run
	PrimaryBranch string
	PublishBranch string
	Remote        string
	CommitMessage string
}

// Pipeline executes the publish sequence against its collaborators.
type Pipeline struct {
	opts     Options
	git      GitOps
	renderer Renderer
	store    eventstore.Store
	recorder metrics.Recorder
	notifier Notifier
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithStore records run events into the given event store.
func WithStore(store eventstore.Store) Option {
	return func(p *Pipeline) { p.store = store }
}

// WithRecorder emits run metrics through the given recorder.
func WithRecorder(recorder metrics.Recorder) Option {
	return func(p *Pipeline) { p.recorder = recorder }
}

// WithNotifier sends the final report of every run to the given notifier.
func WithNotifier(notifier Notifier) Option {
	return func(p *Pipeline) { p.notifier = notifier }
}

// New creates a publish pipeline.
func New(opts Options, git GitOps, renderer Renderer, options ...Option) *Pipeline {
	p := &Pipeline{
		opts:     opts,
		git:      git,
		renderer: renderer,
		recorder: metrics.NoopRecorder{},
	}
	for _, option := range options {
		option(p)
	}
	return p
}

type runState struct {
	commit string
}

// Run executes the full publish sequence. It returns a Report in every case;
// the error is non-nil when any step failed.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	runID := uuid.NewString()

	startBranch, err := p.git.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("failed to determine starting branch: %w", err)
	}

	report := &Report{
		RunID:         runID,
		StartBranch:   startBranch,
		Started:       time.Now(),
		StepDurations: make(map[StepName]time.Duration),
	}

	slog.Info("Starting publish run",
		logfields.RunID(runID),
		logfields.Branch(startBranch),
		logfields.Source(p.opts.Source),
		logfields.Output(p.opts.Output))

	p.emit(ctx, runID, eventstore.EventRunStarted,
		map[string]string{"branch": startBranch, "source": p.opts.Source})

	state := &runState{}
	steps := []struct {
		name StepName
		fn   func(context.Context, *runState) error
	}{
		{StepPrecondition, p.stepPrecondition},
		{StepCleanOutput, p.stepCleanOutput},
		{StepCheckoutPublish, p.stepCheckoutPublish},
		{StepMergePrimary, p.stepMergePrimary},
		{StepGenerate, p.stepGenerate},
		{StepCommit, p.stepCommit},
		{StepPush, p.stepPush},
		{StepCheckoutBack, func(_ context.Context, _ *runState) error {
			return p.git.Checkout(startBranch)
		}},
	}

	for _, step := range steps {
		select {
		case <-ctx.Done():
			return p.finish(ctx, report, state, &StepError{Step: step.name, Err: ctx.Err()})
		default:
		}

		start := time.Now()
		err := step.fn(ctx, state)
		duration := time.Since(start)
		report.StepDurations[step.name] = duration
		p.recorder.ObserveStepDuration(string(step.name), duration)

		if err != nil {
			p.recorder.IncStepResult(string(step.name), metrics.ResultFailure)
			p.emitStep(ctx, runID, eventstore.EventStepFailed, step.name, duration, err)
			slog.Error("Publish step failed",
				logfields.RunID(runID),
				logfields.Step(string(step.name)),
				logfields.Error(err))
			return p.finish(ctx, report, state, &StepError{Step: step.name, Err: err})
		}

		report.Completed = append(report.Completed, step.name)
		p.recorder.IncStepResult(string(step.name), metrics.ResultSuccess)
		p.emitStep(ctx, runID, eventstore.EventStepCompleted, step.name, duration, nil)
		slog.Debug("Publish step completed",
			logfields.RunID(runID),
			logfields.Step(string(step.name)),
			logfields.DurationMS(float64(duration.Milliseconds())))
	}

	return p.finish(ctx, report, state, nil)
}

func (p *Pipeline) stepPrecondition(_ context.Context, _ *runState) error {
	untracked, err := p.git.UntrackedFiles()
	if err != nil {
		return err
	}
	if len(untracked) > 0 {
		return &gitops.UntrackedFilesError{Paths: untracked}
	}
	return nil
}

// stepCleanOutput removes the previous Generated Output entirely. RemoveAll
// succeeds whether or not the directory exists, keeping the step idempotent.
func (p *Pipeline) stepCleanOutput(_ context.Context, _ *runState) error {
	return os.RemoveAll(p.outputDir())
}

func (p *Pipeline) stepCheckoutPublish(_ context.Context, _ *runState) error {
	return p.git.Checkout(p.opts.PublishBranch)
}

func (p *Pipeline) stepMergePrimary(ctx context.Context, _ *runState) error {
	return p.git.MergeFrom(ctx, p.opts.PrimaryBranch)
}

func (p *Pipeline) stepGenerate(ctx context.Context, _ *runState) error {
	return p.renderer.Render(ctx, filepath.Join(p.opts.RepoRoot, p.opts.Source), p.outputDir())
}

func (p *Pipeline) stepCommit(_ context.Context, state *runState) error {
	commit, err := p.git.CommitAll(p.opts.CommitMessage)
	if err != nil {
		return err
	}
	state.commit = commit
	return nil
}

func (p *Pipeline) stepPush(ctx context.Context, _ *runState) error {
	return p.git.Push(ctx, p.opts.Remote, p.opts.PublishBranch)
}

func (p *Pipeline) outputDir() string {
	return filepath.Join(p.opts.RepoRoot, p.opts.Output)
}

// finish closes out the report, emits the terminal event and notification,
// and returns the run error unchanged.
func (p *Pipeline) finish(ctx context.Context, report *Report, state *runState, runErr *StepError) (*Report, error) {
	report.Finished = time.Now()
	report.Commit = state.commit

	if runErr != nil {
		report.Outcome = OutcomeFailed
		report.FailedStep = runErr.Step
		report.Error = runErr.Err.Error()
	} else {
		report.Outcome = OutcomeSuccess
	}

	// Where the workspace actually ended up; on failure this is often the
	// publishing branch, which is reported rather than corrected.
	if branch, err := p.git.CurrentBranch(); err == nil {
		report.FinalBranch = branch
	}

	p.recorder.ObserveRunDuration(report.Duration())
	p.recorder.IncRunOutcome(report.Outcome)

	payload := eventstore.RunCompletedPayload{
		Outcome:    report.Outcome,
		DurationMS: float64(report.Duration().Milliseconds()),
		Commit:     report.Commit,
	}
	data, err := json.Marshal(payload)
	if err == nil {
		p.emitRaw(ctx, report.RunID, eventstore.EventRunCompleted, data, nil)
	}

	if p.notifier != nil {
		if err := p.notifier.RunCompleted(ctx, report); err != nil {
			slog.Warn("Failed to send run notification", logfields.RunID(report.RunID), logfields.Error(err))
		}
	}

	if runErr != nil {
		return report, runErr
	}

	slog.Info("Publish run completed",
		logfields.RunID(report.RunID),
		logfields.Branch(report.FinalBranch),
		logfields.DurationMS(float64(report.Duration().Milliseconds())))
	return report, nil
}

func (p *Pipeline) emitStep(ctx context.Context, runID, eventType string, step StepName, duration time.Duration, stepErr error) {
	payload := eventstore.StepPayload{
		Step:       string(step),
		DurationMS: float64(duration.Milliseconds()),
	}
	if stepErr != nil {
		payload.Error = stepErr.Error()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	p.emitRaw(ctx, runID, eventType, data, nil)
}

func (p *Pipeline) emit(ctx context.Context, runID, eventType string, payload map[string]string) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	p.emitRaw(ctx, runID, eventType, data, nil)
}

// emitRaw appends to the event store when one is configured. History is
// advisory; a store failure never fails the run.
func (p *Pipeline) emitRaw(ctx context.Context, runID, eventType string, payload []byte, metadata map[string]string) {
	if p.store == nil {
		return
	}
	if err := p.store.Append(ctx, runID, eventType, payload, metadata); err != nil {
		slog.Warn("Failed to record run event",
			logfields.RunID(runID),
			slog.String("event_type", eventType),
			logfields.Error(err))
	}
}
