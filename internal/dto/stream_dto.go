package dto

import "github.com/google/uuid"

// PublishCheckpointMessage carries a fully rendered document snapshot to the
// autosave consumer. The consumer only writes bytes; it never touches the
// session, which keeps the session single-writer.
type PublishCheckpointMessage struct {
	SessionId uuid.UUID `json:"session_id"`
	Path      string    `json:"path"`
	Document  string    `json:"document"`
}

// StreamEventDTO is the wire shape pushed to websocket clients. Fragment
// events carry one LLM response fragment; concatenating them in arrival
// order yields the full reply.
type StreamEventDTO struct {
	Type      string      `json:"type"`                // "progress" | "fragment"
	Operation string      `json:"operation,omitempty"` // fragment source: "chat" | "draft"
	Fragment  string      `json:"fragment,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// PublishProgressMessage fans workshop progress out to stream clients.
type PublishProgressMessage struct {
	SessionId uuid.UUID           `json:"session_id"`
	Phase     int                 `json:"phase"`
	Message   string              `json:"message"`
	Checklist []ChecklistEntryDTO `json:"checklist"`
}
