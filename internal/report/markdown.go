package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"carepathiq-be/internal/entity"
)

// Document layout: a title line followed by headed sections in fixed order.
// Parse(Render(s)) reproduces the six content fields verbatim; the progress
// checklist is derived on render and ignored on parse.
const (
	titlePrefix = "# Clinical Pathway"

	headingScope      = "## 1. Scope & Objectives"
	headingEvidence   = "## 2. Evidence & Decision Points"
	headingLogic      = "## 3. Decision Logic"
	headingTesting    = "## 4. Validation & Testing"
	headingOperations = "## 5. Operations & Rollout"
	headingDiagram    = "## 6. Pathway Diagram"
	headingProgress   = "## Progress Checklist"

	labelPoint        = "**Point:**"
	labelCitation     = "**Citation:**"
	labelVerification = "**Verification:**"

	noEvidenceSentinel = "_No evidence attached yet._"
	noDiagramSentinel  = "_No diagram drafted yet._"

	fenceOpen  = "```mermaid"
	fenceClose = "```"
)

// ChecklistEntry is one line of the derived progress checklist.
type ChecklistEntry struct {
	Label string
	Done  bool
}

// Checklist derives workshop progress from what the session already holds.
func Checklist(s *entity.PathwaySession) []ChecklistEntry {
	return []ChecklistEntry{
		{Label: "Scope & Objectives", Done: s.Scope != ""},
		{Label: "Evidence Review", Done: len(s.EvidenceItems) > 0},
		{Label: "Decision Logic", Done: s.Logic != ""},
		{Label: "Validation & Testing", Done: s.Testing != ""},
		{Label: "Operations & Rollout", Done: s.Operations != ""},
		{Label: "Pathway Diagram", Done: s.DiagramSource != ""},
	}
}

// Render serializes the session into the pathway document.
func Render(s *entity.PathwaySession) string {
	var b strings.Builder

	if s.Title != "" {
		fmt.Fprintf(&b, "%s: %s\n\n", titlePrefix, s.Title)
	} else {
		b.WriteString(titlePrefix + "\n\n")
	}

	writeSection(&b, headingScope, s.Scope)

	b.WriteString(headingEvidence + "\n\n")
	if len(s.EvidenceItems) == 0 {
		b.WriteString(noEvidenceSentinel + "\n\n")
	} else {
		for i, item := range s.EvidenceItems {
			fmt.Fprintf(&b, "%d. %s %s\n", i+1, labelPoint, item.Point)
			fmt.Fprintf(&b, "   %s %s\n", labelCitation, item.Citation)
			fmt.Fprintf(&b, "   %s %s\n", labelVerification, item.Verification)
		}
		b.WriteString("\n")
	}

	writeSection(&b, headingLogic, s.Logic)
	writeSection(&b, headingTesting, s.Testing)
	writeSection(&b, headingOperations, s.Operations)

	b.WriteString(headingDiagram + "\n\n")
	if s.DiagramSource == "" {
		b.WriteString(noDiagramSentinel + "\n\n")
	} else {
		b.WriteString(fenceOpen + "\n")
		b.WriteString(s.DiagramSource + "\n")
		b.WriteString(fenceClose + "\n\n")
	}

	b.WriteString(headingProgress + "\n\n")
	for _, entry := range Checklist(s) {
		mark := " "
		if entry.Done {
			mark = "x"
		}
		fmt.Fprintf(&b, "- [%s] %s\n", mark, entry.Label)
	}

	return b.String()
}

func writeSection(b *strings.Builder, heading, body string) {
	b.WriteString(heading + "\n\n")
	if body != "" {
		b.WriteString(body + "\n\n")
	}
}

// Parse reads a pathway document back into a session. Identity and
// timestamps are regenerated; only document content survives the trip.
func Parse(data string) (*entity.PathwaySession, error) {
	s := &entity.PathwaySession{
		Id:            uuid.New(),
		EvidenceItems: []entity.EvidenceItem{},
		CreatedAt:     time.Now(),
	}

	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")

	sawTitle := false
	section := ""
	var body []string

	flush := func() {
		text := strings.Trim(strings.Join(body, "\n"), "\n")
		switch section {
		case headingScope:
			s.Scope = text
		case headingEvidence:
			s.EvidenceItems = parseEvidence(body)
		case headingLogic:
			s.Logic = text
		case headingTesting:
			s.Testing = text
		case headingOperations:
			s.Operations = text
		case headingDiagram:
			s.DiagramSource = parseDiagram(body)
		}
		body = body[:0]
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, titlePrefix) && !sawTitle {
			sawTitle = true
			rest := strings.TrimPrefix(trimmed, titlePrefix)
			s.Title = strings.TrimSpace(strings.TrimPrefix(rest, ":"))
			continue
		}

		if strings.HasPrefix(trimmed, "## ") {
			flush()
			section = trimmed
			continue
		}

		if section != "" {
			body = append(body, line)
		}
	}
	flush()

	if !sawTitle {
		return nil, fmt.Errorf("not a pathway document: missing %q heading", titlePrefix)
	}

	return s, nil
}

func parseEvidence(body []string) []entity.EvidenceItem {
	items := []entity.EvidenceItem{}
	var cur *entity.EvidenceItem

	for _, line := range body {
		t := strings.TrimSpace(line)
		if t == "" || t == noEvidenceSentinel {
			continue
		}

		if point, ok := evidenceItemStart(t); ok {
			if cur != nil {
				items = append(items, *cur)
			}
			cur = &entity.EvidenceItem{
				Id:        uuid.New(),
				Point:     point,
				CreatedAt: time.Now(),
			}
			continue
		}
		if cur == nil {
			continue
		}

		switch {
		case strings.HasPrefix(t, labelCitation):
			cur.Citation = strings.TrimSpace(strings.TrimPrefix(t, labelCitation))
		case strings.HasPrefix(t, labelVerification):
			cur.Verification = strings.TrimSpace(strings.TrimPrefix(t, labelVerification))
		}
	}
	if cur != nil {
		items = append(items, *cur)
	}

	return items
}

// evidenceItemStart matches "N. **Point:** text" list entries.
func evidenceItemStart(line string) (string, bool) {
	num, rest, found := strings.Cut(line, ". ")
	if !found || num == "" {
		return "", false
	}
	for _, r := range num {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	if !strings.HasPrefix(rest, labelPoint) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(rest, labelPoint)), true
}

// parseDiagram returns the fenced Mermaid body without the fence markup.
func parseDiagram(body []string) string {
	var content []string
	inFence := false
	sawFence := false

	for _, line := range body {
		t := strings.TrimSpace(line)
		switch {
		case t == fenceOpen && !inFence:
			inFence = true
			sawFence = true
		case t == fenceClose && inFence:
			inFence = false
		case inFence:
			content = append(content, line)
		}
	}
	if sawFence {
		return strings.Join(content, "\n")
	}

	// No fence found: tolerate a bare diagram body, minus the placeholder.
	joined := strings.Trim(strings.Join(body, "\n"), "\n")
	if joined == noDiagramSentinel {
		return ""
	}
	return joined
}
