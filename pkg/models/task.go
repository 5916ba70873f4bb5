package models

import (
	"image"
	"time"
)

// TaskPhase is the lifecycle phase of an analysis task. Transitions within a
// single task are monotonic: idle -> analyzing -> {completed | failed}. A
// cancelled task returns silently to idle and never reaches a terminal phase.
type TaskPhase string

const (
	PhaseIdle      TaskPhase = "idle"
	PhaseAnalyzing TaskPhase = "analyzing"
	PhaseCompleted TaskPhase = "completed"
	PhaseFailed    TaskPhase = "failed"
)

// AnalysisProgress reports percent-complete and a human-readable stage label.
// Percent is monotonically non-decreasing within a task.
type AnalysisProgress struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
}

// AnalysisTask is an immutable unit of work submitted to the queue. Priority
// is recorded but processing stays strictly FIFO.
type AnalysisTask struct {
	ID        string      `json:"id"`
	Source    string      `json:"source,omitempty"`
	Priority  int         `json:"priority"`
	CreatedAt time.Time   `json:"created_at"`
	Frame     image.Image `json:"-"`
}

// AnalysisState is a snapshot of the orchestrator's state. Result is non-nil
// only in the completed phase; Err only in the failed phase.
type AnalysisState struct {
	Phase    TaskPhase                  `json:"phase"`
	TaskID   string                     `json:"task_id,omitempty"`
	Progress AnalysisProgress           `json:"progress"`
	Result   *CompositionAnalysisResult `json:"result,omitempty"`
	Err      error                      `json:"-"`
}
