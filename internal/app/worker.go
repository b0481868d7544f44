package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"reposter/internal/activity"
	"reposter/internal/app/model"
	"reposter/internal/distribution/youtube"
	"reposter/internal/queue"
)

const BatchCompletedMessage = "Batch upload process completed"

type State int

const (
	StateIdle State = iota
	StateRunning
)

func (s State) String() string {
	if s == StateRunning {
		return "running"
	}
	return "idle"
}

// Worker is the single consumer of the job queue. It sleeps until triggered,
// then drains the queue one job at a time. Idle and Running transitions share
// one lock with enqueueing, so a submission either lands in the current drain
// or starts the next one.
type Worker struct {
	processor Processor
	queue     *queue.Queue
	log       activity.Emitter

	mu      sync.Mutex
	state   State
	trigger chan struct{}

	onComplete func()
	onState    func(State)
}

type WorkerOption func(*Worker)

// WithCompletionHook runs fn after every drain, once the worker is Idle again.
func WithCompletionHook(fn func()) WorkerOption {
	return func(w *Worker) { w.onComplete = fn }
}

// WithStateHook runs fn on every Idle/Running transition. fn runs under the
// worker lock and must not call back into the worker.
func WithStateHook(fn func(State)) WorkerOption {
	return func(w *Worker) { w.onState = fn }
}

func NewWorker(processor Processor, q *queue.Queue, log activity.Emitter, opts ...WorkerOption) *Worker {
	w := &Worker{
		processor: processor,
		queue:     q,
		log:       log,
		trigger:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Pending is the number of queued jobs not yet started.
func (w *Worker) Pending() int {
	return w.queue.Len()
}

// Run blocks until ctx is done, draining the queue each time it is triggered.
func (w *Worker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.trigger:
			w.drain(ctx)
		}
	}
}

// enqueue appends jobs and reports whether this call started a new drain.
// Jobs left over from an interrupted drain are discarded first.
func (w *Worker) enqueue(jobs []model.Job) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.state == StateRunning {
		w.queue.Push(jobs...)
		return false
	}

	if stale := w.queue.Clear(); stale > 0 {
		slog.Warn("Discarded stale jobs", "count", stale)
	}
	w.queue.Push(jobs...)
	w.setStateLocked(StateRunning)

	select {
	case w.trigger <- struct{}{}:
	default:
	}
	return true
}

// next pops the head job, or moves to Idle when the queue is empty.
func (w *Worker) next() (model.Job, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	job, ok := w.queue.Pop()
	if !ok {
		w.setStateLocked(StateIdle)
	}
	return job, ok
}

func (w *Worker) setIdle() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setStateLocked(StateIdle)
}

func (w *Worker) setStateLocked(s State) {
	if w.state == s {
		return
	}
	w.state = s
	slog.Debug("Worker state changed", "state", s.String())
	if w.onState != nil {
		w.onState(s)
	}
}

// drain processes jobs until the queue is empty. Once next has gone Idle a
// new submission may already own the Running state, so the finalizer only
// resets the state on the cancel and panic paths.
func (w *Worker) drain(ctx context.Context) {
	idled := false
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Worker loop panic", "panic", r, "stack", string(debug.Stack()))
			w.log.Emit(fmt.Sprintf("Unexpected worker failure: %v", r), activity.LevelError)
		}
		if !idled {
			w.setIdle()
		}
		w.log.Emit(BatchCompletedMessage, activity.LevelSuccess)
		if w.onComplete != nil {
			w.onComplete()
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			if left := w.queue.Len(); left > 0 {
				w.log.Emit(fmt.Sprintf("Stopping, %d videos not processed", left), activity.LevelWarning)
			}
			return
		}

		job, ok := w.next()
		if !ok {
			idled = true
			return
		}
		w.process(ctx, job)
	}
}

// process runs one job. Failures, panics included, end only this job.
func (w *Worker) process(ctx context.Context, job model.Job) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Job panic", "url", job.SourceURL, "panic", r, "stack", string(debug.Stack()))
			w.fail(job, stageErr(StageUnexpected, job.SourceURL, fmt.Errorf("panic: %v", r)))
		}
	}()

	w.log.Emit("Processing: "+job.SourceURL, activity.LevelInfo)

	videoID, err := w.processor.Process(ctx, job)
	if err != nil {
		w.fail(job, err)
		return
	}

	slog.Info("Uploaded", "ordinal", job.Ordinal, "url", job.SourceURL, "video_id", videoID, "watch", youtube.WatchURL(videoID))
	w.log.Emit("✅ Upload successful! Video ID: "+videoID, activity.LevelSuccess)
}

func (w *Worker) fail(job model.Job, err error) {
	cause := err
	stage := StageUnexpected
	var se *StageError
	if errors.As(err, &se) {
		cause = se.Err
		stage = se.Stage
	}

	slog.Warn("Job failed", "ordinal", job.Ordinal, "url", job.SourceURL, "stage", stage, "error", cause)
	w.log.Emit(fmt.Sprintf("❌ Error processing %s: %v", job.SourceURL, cause), activity.LevelError)
}
