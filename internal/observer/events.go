package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/framelens/composition-go/pkg/models"
)

// TaskEvent represents a task lifecycle or queue event
type TaskEvent struct {
	EventType EventType                         `json:"event_type"`
	Timestamp time.Time                         `json:"timestamp"`
	TaskID    string                            `json:"task_id,omitempty"`
	Progress  *models.AnalysisProgress          `json:"progress,omitempty"`
	Result    *models.CompositionAnalysisResult `json:"result,omitempty"`
	Err       error                             `json:"-"`
	Duration  time.Duration                     `json:"duration,omitempty"`
}

// EventType represents the type of task event
type EventType string

const (
	// TaskStarted when a task begins analysis
	TaskStarted EventType = "task_started"
	// TaskProgress when a task passes a progress checkpoint
	TaskProgress EventType = "task_progress"
	// TaskCompleted when a task finishes successfully
	TaskCompleted EventType = "task_completed"
	// TaskFailed when a task fails
	TaskFailed EventType = "task_failed"
	// TaskCancelled when a task is cancelled before completing
	TaskCancelled EventType = "task_cancelled"
	// QueueEmpty when the pending list drains
	QueueEmpty EventType = "queue_empty"
	// QueueStopped when the queue is stopped and reset
	QueueStopped EventType = "queue_stopped"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event TaskEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event TaskEvent)
}

// LoggingObserver logs task events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles task events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event TaskEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"task_id":    event.TaskID,
	}
	if event.Progress != nil {
		fields["percent"] = event.Progress.Percent
		fields["stage"] = event.Progress.Stage
	}
	if event.Duration > 0 {
		fields["duration"] = event.Duration
	}
	if event.Err != nil {
		fields["error"] = event.Err.Error()
	}

	switch event.EventType {
	case TaskStarted:
		o.logger.WithFields(fields).Info("Analysis task started")
	case TaskProgress:
		o.logger.WithFields(fields).Debug("Analysis task progress")
	case TaskCompleted:
		o.logger.WithFields(fields).Info("Analysis task completed")
	case TaskFailed:
		o.logger.WithFields(fields).Error("Analysis task failed")
	case TaskCancelled:
		o.logger.WithFields(fields).Info("Analysis task cancelled")
	case QueueEmpty:
		o.logger.WithFields(fields).Debug("Analysis queue empty")
	case QueueStopped:
		o.logger.WithFields(fields).Info("Analysis queue stopped")
	default:
		o.logger.WithFields(fields).Info("Task event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from task events
type MetricsObserver struct {
	mu                  sync.RWMutex
	startedTasks        int64
	completedTasks      int64
	failedTasks         int64
	cancelledTasks      int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles task events by updating counters
func (o *MetricsObserver) OnEvent(ctx context.Context, event TaskEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case TaskStarted:
		o.startedTasks++
	case TaskCompleted:
		o.completedTasks++
		o.totalProcessingTime += event.Duration
	case TaskFailed:
		o.failedTasks++
	case TaskCancelled:
		o.cancelledTasks++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Snapshot returns current metrics
func (o *MetricsObserver) Snapshot() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.completedTasks > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.completedTasks)
	}

	return map[string]interface{}{
		"started_tasks":         o.startedTasks,
		"completed_tasks":       o.completedTasks,
		"failed_tasks":          o.failedTasks,
		"cancelled_tasks":       o.cancelledTasks,
		"total_processing_time": o.totalProcessingTime.String(),
		"avg_processing_time":   avgProcessingTime.String(),
	}
}

// ChannelObserver forwards events into a buffered channel so a UI or test can
// pull the stream instead of registering callbacks. Events are dropped when
// the buffer is full rather than blocking the publisher.
type ChannelObserver struct {
	name   string
	events chan TaskEvent
}

// NewChannelObserver creates a channel observer with the given buffer size
func NewChannelObserver(name string, buffer int) *ChannelObserver {
	return &ChannelObserver{
		name:   name,
		events: make(chan TaskEvent, buffer),
	}
}

// OnEvent forwards the event into the channel, dropping on overflow
func (o *ChannelObserver) OnEvent(ctx context.Context, event TaskEvent) {
	select {
	case o.events <- event:
	default:
	}
}

// Events returns the receive side of the event stream
func (o *ChannelObserver) Events() <-chan TaskEvent {
	return o.events
}

// GetObserverName returns the observer name
func (o *ChannelObserver) GetObserverName() string {
	return o.name
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers an event to every observer in subscription order.
// Delivery is synchronous so observers see events in the order they were
// published. A panicking observer does not break delivery to the rest.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event TaskEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		func(obs Observer) {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}
