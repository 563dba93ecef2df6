package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreatePathwayRequest struct {
	Title string `json:"title"`
}

type CreatePathwayResponse struct {
	Id uuid.UUID `json:"id"`
}

type PathwayResponse struct {
	Id            uuid.UUID         `json:"id"`
	Title         string            `json:"title"`
	Scope         string            `json:"scope"`
	EvidenceItems []EvidenceItemDTO `json:"evidence_items"`
	Logic         string            `json:"logic"`
	Testing       string            `json:"testing"`
	Operations    string            `json:"operations"`
	DiagramSource string            `json:"diagram_source"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     *time.Time        `json:"updated_at"`
}

// UpdatePathwayFieldRequest replaces one text field wholesale. Evidence has
// its own append endpoint; there is no partial-field merge.
type UpdatePathwayFieldRequest struct {
	Field string `json:"field" validate:"required,oneof=title scope logic testing operations diagram"`
	Value string `json:"value"`
}

type SavePathwayRequest struct {
	Path string `json:"path"` // empty = configured report path
}

type SavePathwayResponse struct {
	Path string `json:"path"`
}

type LoadPathwayRequest struct {
	Path string `json:"path"` // empty = configured report path
}

type ChecklistEntryDTO struct {
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

type ProgressResponse struct {
	Entries  []ChecklistEntryDTO `json:"entries"`
	Complete int                 `json:"complete"`
	Total    int                 `json:"total"`
}
