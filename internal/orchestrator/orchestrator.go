// Package orchestrator drives a single analysis task through the pipeline:
// preprocess, concurrent detection, matching, assembly. It owns the task
// state machine and publishes lifecycle and progress events.
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/framelens/composition-go/internal/assembler"
	"github.com/framelens/composition-go/internal/detector"
	apperrors "github.com/framelens/composition-go/internal/errors"
	"github.com/framelens/composition-go/internal/logger"
	"github.com/framelens/composition-go/internal/matcher"
	"github.com/framelens/composition-go/internal/observer"
	"github.com/framelens/composition-go/internal/preprocess"
	"github.com/framelens/composition-go/pkg/models"
)

// Progress checkpoints published during a run, in order.
const (
	progressPreprocessed = 5
	progressHistogram    = 15
	progressAngle        = 25
	progressLines        = 35
	progressSaliency     = 45
	progressStructural   = 55
	progressMatching     = 70
	progressComplete     = 100
)

// Options configures an Orchestrator.
type Options struct {
	// StageTimeout bounds each pipeline stage. Zero disables the bound.
	StageTimeout time.Duration
	// CompletionDelay holds the completed state briefly before returning,
	// cancellable like any other stage.
	CompletionDelay time.Duration
	// ThumbnailLongEdge is the working-copy size handed to the preprocessor.
	ThumbnailLongEdge int
}

// Orchestrator runs one analysis at a time. Starting a new analysis cancels
// any in-flight run synchronously before the new one begins.
type Orchestrator struct {
	mu     sync.Mutex
	state  models.AnalysisState
	cancel context.CancelFunc
	done   chan struct{}
	pool   *WorkerPool
	pub    observer.Subject
	opts   Options
}

// New creates an orchestrator over the given worker pool and event publisher.
func New(pool *WorkerPool, pub observer.Subject, opts Options) *Orchestrator {
	if opts.ThumbnailLongEdge <= 0 {
		opts.ThumbnailLongEdge = preprocess.DefaultLongEdge
	}
	return &Orchestrator{
		state: models.AnalysisState{Phase: models.PhaseIdle},
		pool:  pool,
		pub:   pub,
		opts:  opts,
	}
}

// State returns a snapshot of the current analysis state.
func (o *Orchestrator) State() models.AnalysisState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Cancel aborts the in-flight analysis, if any, and blocks until the run has
// fully exited. The cancelled task reaches no terminal phase.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	cancel := o.cancel
	done := o.done
	o.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Analyze runs the full pipeline for one task and blocks until it reaches a
// terminal state or is cancelled. Any previous in-flight run is cancelled
// first.
func (o *Orchestrator) Analyze(ctx context.Context, task models.AnalysisTask) models.AnalysisState {
	o.Cancel()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	o.mu.Lock()
	o.cancel = cancel
	o.done = done
	o.state = models.AnalysisState{
		Phase:  models.PhaseAnalyzing,
		TaskID: task.ID,
	}
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		o.cancel = nil
		o.done = nil
		o.mu.Unlock()
		close(done)
	}()

	started := time.Now()
	o.pub.NotifyObservers(runCtx, observer.TaskEvent{
		EventType: observer.TaskStarted,
		Timestamp: started,
		TaskID:    task.ID,
	})

	state := o.run(runCtx, task, started)

	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
	return state
}

func (o *Orchestrator) run(ctx context.Context, task models.AnalysisTask, started time.Time) models.AnalysisState {
	thumb, err := preprocess.Thumbnail(task.Frame, o.opts.ThumbnailLongEdge)
	if err != nil {
		return o.fail(ctx, task, err, started)
	}
	if state, cancelled := o.checkpoint(ctx, task, progressPreprocessed, "preprocessing"); cancelled {
		return state
	}

	bounds := thumb.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	// All five detectors run concurrently on the pool; results are joined in
	// a fixed order so progress stays monotonic.
	histCh := make(chan detector.HistogramOutput, 1)
	angleCh := make(chan detector.AngleOutput, 1)
	linesCh := make(chan detector.LineOutput, 1)
	salCh := make(chan detector.SaliencyOutput, 1)
	structCh := make(chan structuralResult, 1)

	o.pool.Start()
	o.pool.Submit(func() { histCh <- detector.AnalyzeHistogram(thumb) })
	o.pool.Submit(func() { angleCh <- detector.DetectDominantAngle(thumb) })
	o.pool.Submit(func() { linesCh <- detector.DetectLeadingLines(thumb) })
	o.pool.Submit(func() { salCh <- detector.DetectSalientRegions(thumb) })
	o.pool.Submit(func() {
		out, serr := detector.ExtractObservations(thumb)
		structCh <- structuralResult{out: out, err: serr}
	})

	var in matcher.Inputs
	in.Width, in.Height = width, height

	if state, terminal := joinStage(o, ctx, task, started, histCh, &in.Histogram, progressHistogram, "histogram"); terminal {
		return state
	}
	if state, terminal := joinStage(o, ctx, task, started, angleCh, &in.Angle, progressAngle, "dominant angle"); terminal {
		return state
	}
	if state, terminal := joinStage(o, ctx, task, started, linesCh, &in.Lines, progressLines, "leading lines"); terminal {
		return state
	}
	if state, terminal := joinStage(o, ctx, task, started, salCh, &in.Saliency, progressSaliency, "saliency"); terminal {
		return state
	}

	var structural structuralResult
	if state, terminal := joinStage(o, ctx, task, started, structCh, &structural, progressStructural, "structural"); terminal {
		return state
	}
	if structural.err != nil {
		if apperrors.IsType(structural.err, apperrors.ErrorTypePlatform) {
			// Structural primitives unavailable for this frame. Degrade to
			// an analysis without observations instead of failing.
			logger.WithField("task_id", task.ID).Warn("Structural detection unavailable, continuing without observations")
			structural.out = detector.StructuralOutput{}
		} else {
			return o.fail(ctx, task, structural.err, started)
		}
	}
	in.Structural = structural.out

	if state, cancelled := o.checkpoint(ctx, task, progressMatching, "matching"); cancelled {
		return state
	}

	outcome := matcher.Match(in)
	result := assembler.Assemble(outcome, structural.out.Observations(), width, height)

	if o.opts.CompletionDelay > 0 {
		select {
		case <-ctx.Done():
			return o.cancelled(task)
		case <-time.After(o.opts.CompletionDelay):
		}
	}
	if state, cancelled := o.checkpoint(ctx, task, progressComplete, "complete"); cancelled {
		return state
	}

	state := models.AnalysisState{
		Phase:  models.PhaseCompleted,
		TaskID: task.ID,
		Progress: models.AnalysisProgress{
			Percent: progressComplete,
			Stage:   "complete",
		},
		Result: &result,
	}
	o.pub.NotifyObservers(ctx, observer.TaskEvent{
		EventType: observer.TaskCompleted,
		Timestamp: time.Now(),
		TaskID:    task.ID,
		Result:    &result,
		Duration:  time.Since(started),
	})
	return state
}

type structuralResult struct {
	out detector.StructuralOutput
	err error
}

// joinStage receives one detector result, bounded by the stage timeout and
// the run context. It returns a terminal state when the run must stop.
func joinStage[T any](o *Orchestrator, ctx context.Context, task models.AnalysisTask, started time.Time, ch <-chan T, dst *T, percent int, stage string) (models.AnalysisState, bool) {
	var timeout <-chan time.Time
	if o.opts.StageTimeout > 0 {
		timer := time.NewTimer(o.opts.StageTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
		return o.cancelled(task), true
	case <-timeout:
		err := apperrors.NewTimeoutError("analysis stage timed out: "+stage, nil)
		return o.fail(ctx, task, err, started), true
	case v := <-ch:
		*dst = v
	}

	state, cancelled := o.checkpoint(ctx, task, percent, stage)
	return state, cancelled
}

// checkpoint publishes a progress event unless the run has been cancelled.
func (o *Orchestrator) checkpoint(ctx context.Context, task models.AnalysisTask, percent int, stage string) (models.AnalysisState, bool) {
	if ctx.Err() != nil {
		return o.cancelled(task), true
	}

	progress := models.AnalysisProgress{Percent: percent, Stage: stage}
	o.mu.Lock()
	o.state.Progress = progress
	o.mu.Unlock()

	o.pub.NotifyObservers(ctx, observer.TaskEvent{
		EventType: observer.TaskProgress,
		Timestamp: time.Now(),
		TaskID:    task.ID,
		Progress:  &progress,
	})
	return models.AnalysisState{}, false
}

// cancelled returns the post-cancellation state. No terminal event is
// published for a cancelled task.
func (o *Orchestrator) cancelled(task models.AnalysisTask) models.AnalysisState {
	logger.WithField("task_id", task.ID).Debug("Analysis run cancelled")
	return models.AnalysisState{Phase: models.PhaseIdle}
}

func (o *Orchestrator) fail(ctx context.Context, task models.AnalysisTask, err error, started time.Time) models.AnalysisState {
	state := models.AnalysisState{
		Phase:  models.PhaseFailed,
		TaskID: task.ID,
		Err:    err,
	}
	o.pub.NotifyObservers(ctx, observer.TaskEvent{
		EventType: observer.TaskFailed,
		Timestamp: time.Now(),
		TaskID:    task.ID,
		Err:       err,
		Duration:  time.Since(started),
	})
	return state
}
