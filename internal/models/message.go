package models

import "time"

// MessageType discriminates the websocket message union.
type MessageType string

const (
	MsgProgressUpdate MessageType = "PROGRESS_UPDATE"
	MsgAgentLog       MessageType = "AGENT_LOG"
	MsgToolUsage      MessageType = "TOOL_USAGE"
	MsgError          MessageType = "ERROR"
	MsgCompletion     MessageType = "COMPLETION"
	MsgStatusChange   MessageType = "STATUS_CHANGE"
)

// WSMessage is the envelope pushed to subscribed connections. Payload
// shape depends on Type.
type WSMessage struct {
	Type      MessageType `json:"type"`
	Payload   any         `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
	SessionID string      `json:"session_id,omitempty"`
}

// ProgressPayload accompanies PROGRESS_UPDATE messages.
type ProgressPayload struct {
	Progress int    `json:"progress"`
	Step     string `json:"step"`
}

// ErrorPayload accompanies ERROR messages.
type ErrorPayload struct {
	Message string `json:"message"`
}

// CompletionPayload accompanies COMPLETION messages.
type CompletionPayload struct {
	ProjectID    string `json:"project_id"`
	PDFAvailable bool   `json:"pdf_available"`
}

// StatusChangePayload accompanies STATUS_CHANGE messages.
type StatusChangePayload struct {
	Status ProjectStatus `json:"status"`
}

// ToolUsagePayload accompanies TOOL_USAGE messages.
type ToolUsagePayload struct {
	Tool   string `json:"tool"`
	Detail string `json:"detail,omitempty"`
}

// NewMessage stamps a message with the current time.
func NewMessage(t MessageType, sessionID string, payload any) WSMessage {
	return WSMessage{
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now(),
		SessionID: sessionID,
	}
}
