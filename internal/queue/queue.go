// Package queue serializes analysis tasks: one task in flight at a time,
// FIFO pending order, bounded history of terminal outcomes.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/framelens/composition-go/internal/logger"
	"github.com/framelens/composition-go/internal/observer"
	"github.com/framelens/composition-go/internal/orchestrator"
	"github.com/framelens/composition-go/pkg/models"
)

// State is the queue's lifecycle state.
type State string

const (
	StateIdle       State = "idle"
	StateProcessing State = "processing"
	StatePaused     State = "paused"
	StateStopped    State = "stopped"
)

// DefaultHistoryLimit bounds the terminal-outcome history when no limit is
// configured.
const DefaultHistoryLimit = 50

// TaskHandle tracks one enqueued task. Await blocks until the task reaches a
// terminal state or is cancelled.
type TaskHandle struct {
	Task  models.AnalysisTask
	done  chan struct{}
	state models.AnalysisState

	// cancel aborts this task's run. Set under the queue lock when the task
	// is dispatched, so cancelling a handle can never hit a later task.
	cancel context.CancelFunc
}

// Await blocks until the task resolves or the context expires. A cancelled
// task resolves with the idle phase and no result.
func (h *TaskHandle) Await(ctx context.Context) (models.AnalysisState, error) {
	select {
	case <-ctx.Done():
		return models.AnalysisState{}, ctx.Err()
	case <-h.done:
		return h.state, nil
	}
}

// HistoryEntry records one terminal task outcome.
type HistoryEntry struct {
	Task       models.AnalysisTask `json:"task"`
	Phase      models.TaskPhase    `json:"phase"`
	Error      string              `json:"error,omitempty"`
	FinishedAt time.Time           `json:"finished_at"`
}

// Status is a point-in-time queue snapshot.
type Status struct {
	State         State  `json:"state"`
	CurrentTaskID string `json:"current_task_id,omitempty"`
	PendingCount  int    `json:"pending_count"`
	HistoryCount  int    `json:"history_count"`
}

// Queue feeds tasks to the orchestrator one at a time. Enqueueing while a
// task is in flight supersedes it: the in-flight task is cancelled and the
// new task takes its place at the end of the pending list. While paused,
// pending tasks accumulate and nothing is superseded.
type Queue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	state   State
	pending []*TaskHandle
	current *TaskHandle
	history []HistoryEntry
	limit   int
	closed  bool

	orch *orchestrator.Orchestrator
	pub  observer.Subject
}

// New creates a queue over the orchestrator and starts its dispatch loop.
func New(orch *orchestrator.Orchestrator, pub observer.Subject, historyLimit int) *Queue {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	q := &Queue{
		state: StateIdle,
		limit: historyLimit,
		orch:  orch,
		pub:   pub,
	}
	q.cond = sync.NewCond(&q.mu)
	go q.loop()
	return q
}

// Enqueue appends a task and returns a handle to await its outcome. The
// task's ID and creation time are filled in when absent. Enqueueing
// reactivates a stopped or idle queue; when a task is already in flight and
// the queue is not paused, that task is cancelled so the queue moves on.
func (q *Queue) Enqueue(task models.AnalysisTask) *TaskHandle {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now()
	}

	handle := &TaskHandle{Task: task, done: make(chan struct{})}

	q.mu.Lock()
	if q.state == StateStopped || q.state == StateIdle {
		q.state = StateProcessing
	}
	q.pending = append(q.pending, handle)
	var superseded *TaskHandle
	if q.current != nil && q.state == StateProcessing {
		superseded = q.current
	}
	q.mu.Unlock()

	logger.WithFields(logrus.Fields{
		"task_id":   task.ID,
		"supersede": superseded != nil,
	}).Info("Task enqueued")

	if superseded != nil {
		superseded.cancel()
	}
	q.cond.Broadcast()
	return handle
}

// Stop cancels the in-flight task, clears the pending list, and leaves the
// queue in the stopped state. History is preserved. A later Enqueue
// reactivates the queue.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.state = StateStopped
	dropped := q.pending
	q.pending = nil
	current := q.current
	q.mu.Unlock()

	if current != nil {
		current.cancel()
	}

	for _, h := range dropped {
		h.state = models.AnalysisState{Phase: models.PhaseIdle, TaskID: h.Task.ID}
		close(h.done)
		q.pub.NotifyObservers(context.Background(), observer.TaskEvent{
			EventType: observer.TaskCancelled,
			Timestamp: time.Now(),
			TaskID:    h.Task.ID,
		})
	}

	q.pub.NotifyObservers(context.Background(), observer.TaskEvent{
		EventType: observer.QueueStopped,
		Timestamp: time.Now(),
	})
	q.cond.Broadcast()
}

// Pause holds dispatch after the in-flight task finishes. Pending tasks
// accumulate until Resume.
func (q *Queue) Pause() {
	q.mu.Lock()
	if q.state == StateProcessing {
		q.state = StatePaused
	}
	q.mu.Unlock()
	q.cond.Broadcast()
}

// Resume restarts dispatch after a pause.
func (q *Queue) Resume() {
	q.mu.Lock()
	if q.state == StatePaused {
		q.state = StateProcessing
	}
	q.mu.Unlock()
	q.cond.Broadcast()
}

// ClearHistory drops all recorded terminal outcomes.
func (q *Queue) ClearHistory() {
	q.mu.Lock()
	q.history = nil
	q.mu.Unlock()
}

// History returns a copy of the recorded terminal outcomes, oldest first.
func (q *Queue) History() []HistoryEntry {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]HistoryEntry, len(q.history))
	copy(out, q.history)
	return out
}

// Status returns a snapshot of the queue.
func (q *Queue) Status() Status {
	q.mu.Lock()
	defer q.mu.Unlock()
	s := Status{
		State:        q.state,
		PendingCount: len(q.pending),
		HistoryCount: len(q.history),
	}
	if q.current != nil {
		s.CurrentTaskID = q.current.Task.ID
	}
	return s
}

// Close stops the dispatch loop. The queue cannot be reused afterwards.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	current := q.current
	q.mu.Unlock()
	if current != nil {
		current.cancel()
	}
	q.cond.Broadcast()
}

func (q *Queue) loop() {
	for {
		q.mu.Lock()
		for !q.closed && (q.state != StateProcessing || len(q.pending) == 0) {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		handle := q.pending[0]
		q.pending = q.pending[1:]
		// The run context is created and bound to the handle while the lock is
		// held. Anything observing this task as current cancels this context
		// and nothing else, even if the run has already moved on by the time
		// the cancel fires.
		taskCtx, cancel := context.WithCancel(context.Background())
		handle.cancel = cancel
		q.current = handle
		q.mu.Unlock()

		state := q.orch.Analyze(taskCtx, handle.Task)
		cancel()

		q.mu.Lock()
		q.current = nil
		terminal := state.Phase == models.PhaseCompleted || state.Phase == models.PhaseFailed
		if terminal {
			entry := HistoryEntry{
				Task:       handle.Task,
				Phase:      state.Phase,
				FinishedAt: time.Now(),
			}
			if state.Err != nil {
				entry.Error = state.Err.Error()
			}
			q.history = append(q.history, entry)
			if len(q.history) > q.limit {
				q.history = q.history[len(q.history)-q.limit:]
			}
		}
		drained := len(q.pending) == 0 && q.state == StateProcessing
		if drained {
			q.state = StateIdle
		}
		q.mu.Unlock()

		handle.state = state
		close(handle.done)

		if !terminal {
			q.pub.NotifyObservers(context.Background(), observer.TaskEvent{
				EventType: observer.TaskCancelled,
				Timestamp: time.Now(),
				TaskID:    handle.Task.ID,
			})
		}

		if drained {
			q.pub.NotifyObservers(context.Background(), observer.TaskEvent{
				EventType: observer.QueueEmpty,
				Timestamp: time.Now(),
			})
		}
	}
}
