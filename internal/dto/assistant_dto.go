package dto

import "github.com/google/uuid"

type AssistantChatRequest struct {
	Message string `json:"message" validate:"required"`
	Stream  bool   `json:"stream"` // fragments go to the session's stream clients
}

type AssistantChatResponse struct {
	Reply    string `json:"reply"`
	Streamed bool   `json:"streamed"`
	Fallback bool   `json:"fallback"` // true when the fixed fallback text was substituted
}

type DraftDiagramRequest struct {
	Stream bool `json:"stream"`
}

type DraftDiagramResponse struct {
	DiagramSource string `json:"diagram_source"`
	Fallback      bool   `json:"fallback"`
}

type VerifyCitationRequest struct {
	ItemId uuid.UUID `json:"item_id" validate:"required"`
}

// VerifyCitationResponse carries the model's relevance verdict. When the
// model was unavailable the item keeps its previous verification and
// Fallback is set.
type VerifyCitationResponse struct {
	ItemId       uuid.UUID `json:"item_id"`
	Verification string    `json:"verification"`
	Fallback     bool      `json:"fallback"`
}

type SummaryResponse struct {
	Summary   string `json:"summary"`
	Condensed bool   `json:"condensed"` // true when the model shortened the digest
}
