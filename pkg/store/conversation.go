package store

// Question is one prompt of the guided workshop dialogue.
type Question struct {
	Key    string `json:"key"` // field path, e.g. "scope.condition"
	Prompt string `json:"prompt"`
}

// Conversation tracks where the guided workshop stands for one session.
// It lives beside the pathway session and never inside it: the document
// only ever persists composed field text, not the Q&A bookkeeping.
type Conversation struct {
	SessionID string `json:"session_id"`
	Phase     int    `json:"phase"` // 1..5, see Phase* constants
	State     string `json:"state"` // "IDLE" | "ASKING" | "REVIEWING"

	// THE QUEUE (questions still to ask in the current phase)
	Pending []Question `json:"pending"`

	// THE LEDGER (answers collected so far, keyed by question key)
	Answers map[string]string `json:"answers"`

	// Condition feeds literature query building once known
	Condition string `json:"condition"`

	LastPrompt string `json:"last_prompt"`
}

const (
	PhaseScope      = 1
	PhaseEvidence   = 2
	PhaseLogic      = 3
	PhaseTesting    = 4
	PhaseOperations = 5

	StateIdle      = "IDLE"
	StateAsking    = "ASKING"
	StateReviewing = "REVIEWING"
)
