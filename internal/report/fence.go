package report

import "strings"

// StripMermaidFence removes enclosing ```mermaid / ``` markup from model
// output or pasted text. The session only ever stores the bare source.
func StripMermaidFence(s string) string {
	t := strings.TrimSpace(s)
	if strings.HasPrefix(t, "```") {
		idx := strings.Index(t, "\n")
		if idx < 0 {
			return ""
		}
		t = t[idx+1:]
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}
