package entity

import (
	"time"

	"github.com/google/uuid"
)

// PathwaySession is the document-under-construction for one authoring run.
// The six content fields (Scope, EvidenceItems, Logic, Testing, Operations,
// DiagramSource) round-trip through the Markdown report verbatim; Id and the
// timestamps are bookkeeping and are regenerated on load.
type PathwaySession struct {
	Id            uuid.UUID
	Title         string
	Scope         string
	EvidenceItems []EvidenceItem
	Logic         string
	Testing       string
	Operations    string
	DiagramSource string // raw Mermaid text, never fenced
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}
