package dto

type WorkshopAnswerRequest struct {
	Answer string `json:"answer" validate:"required"`
}

// WorkshopStepResponse is what the guided dialogue says next. After an
// evidence-point answer it also reports the lookup results and the item
// that was attached.
type WorkshopStepResponse struct {
	Phase     int    `json:"phase"`
	PhaseName string `json:"phase_name"`
	Key       string `json:"key,omitempty"`    // question key, e.g. "scope.condition"
	Prompt    string `json:"prompt,omitempty"` // next question; empty when Done
	Message   string `json:"message,omitempty"`

	Suggestions []string `json:"suggestions,omitempty"` // e.g. standard KPIs

	Citations []CitationDTO    `json:"citations,omitempty"`
	Evidence  *EvidenceItemDTO `json:"evidence,omitempty"`

	Done bool `json:"done"`
}
