package dto

import (
	"time"

	"github.com/google/uuid"
)

// EvidenceSearchRequest runs a literature lookup. Either Query is given
// verbatim, or Condition+Point are composed into the guideline-filtered
// query server-side.
type EvidenceSearchRequest struct {
	Query     string `json:"query"`
	Condition string `json:"condition"`
	Point     string `json:"point"`
	RetMax    int    `json:"ret_max" validate:"omitempty,min=1,max=20"`
}

type CitationDTO struct {
	UID      string `json:"uid"`
	Citation string `json:"citation"`
	Title    string `json:"title"`
	Source   string `json:"source"`
	Year     string `json:"year"`
}

type EvidenceSearchResponse struct {
	Query     string        `json:"query"`
	Citations []CitationDTO `json:"citations"`
	Note      string        `json:"note,omitempty"` // set when the lookup failed or matched nothing
}

type AppendEvidenceRequest struct {
	Point        string `json:"point" validate:"required"`
	Citation     string `json:"citation" validate:"required"`
	Verification string `json:"verification"`
}

type EvidenceItemDTO struct {
	Id           uuid.UUID `json:"id"`
	Point        string    `json:"point"`
	Citation     string    `json:"citation"`
	Verification string    `json:"verification"`
	CreatedAt    time.Time `json:"created_at"`
}
