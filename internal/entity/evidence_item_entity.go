package entity

import (
	"time"

	"github.com/google/uuid"
)

// EvidenceItem ties one decision point to a literature citation and a
// relevance judgment. Items are append-only and never deduplicated: the same
// point/citation pair may legitimately appear twice.
type EvidenceItem struct {
	Id           uuid.UUID
	Point        string
	Citation     string
	Verification string
	CreatedAt    time.Time
}
