package transcript

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Entry is one utterance of the assistant conversation pane.
type Entry struct {
	Role    string `yaml:"role"` // "user", "assistant", "system"
	Content string `yaml:"content"`
}

// Transcript is the on-disk shape of the conversation, saved beside the
// pathway document so a resumed session keeps its chat context.
type Transcript struct {
	SessionTitle string  `yaml:"session_title,omitempty"`
	Entries      []Entry `yaml:"entries"`
}

func Save(path string, t *Transcript) error {
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	return os.WriteFile(path, data, 0640)
}

// TryToResume loads a transcript if one exists. A missing file is a fresh
// start, not an error.
func TryToResume(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Transcript{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	var t Transcript
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	return &t, nil
}
