package models

import "time"

// SessionStatus is the lifecycle state of one generation run.
type SessionStatus string

const (
	SessionActive    SessionStatus = "ACTIVE"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionFailed    SessionStatus = "FAILED"
	SessionPaused    SessionStatus = "PAUSED"
)

// AgentType identifies which workflow agent produced a log entry.
type AgentType string

const (
	AgentResearch  AgentType = "RESEARCH"
	AgentOutline   AgentType = "OUTLINE"
	AgentWriter    AgentType = "WRITER"
	AgentFormatter AgentType = "FORMATTER"
)

// ResearchSession is one generation run, stored in MongoDB.
type ResearchSession struct {
	ID          string        `json:"id"            bson:"_id"`
	ProjectID   string        `json:"project_id"    bson:"project_id"`
	Status      SessionStatus `json:"status"        bson:"status"`
	Progress    int           `json:"progress"      bson:"progress"`
	CurrentStep string        `json:"current_step"  bson:"current_step"`
	Memory      string        `json:"memory,omitempty" bson:"memory,omitempty"`
	CreatedAt   time.Time     `json:"created_at"    bson:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"    bson:"updated_at"`
}

// AgentLog is one immutable workflow step record. Append-only; never
// edited or removed after insert.
type AgentLog struct {
	SessionID string         `json:"session_id" bson:"session_id"`
	Timestamp time.Time      `json:"timestamp"  bson:"timestamp"`
	Agent     AgentType      `json:"agent"      bson:"agent"`
	Action    string         `json:"action"     bson:"action"`
	Input     map[string]any `json:"input,omitempty"  bson:"input,omitempty"`
	Output    map[string]any `json:"output,omitempty" bson:"output,omitempty"`
	Success   bool           `json:"success"    bson:"success"`
	DurationMs int64         `json:"duration_ms" bson:"duration_ms"`
	Error     string         `json:"error,omitempty" bson:"error,omitempty"`
}
