package workshop

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"carepathiq-be/internal/dto"
)

// TerminalStream satisfies the stream sink with a terminal instead of
// websocket clients: model fragments print as they arrive, progress events
// are dropped because the runner prints the checklist itself.
type TerminalStream struct {
	Out io.Writer
}

func (t *TerminalStream) SendFragment(_ uuid.UUID, _ string, fragment string) {
	fmt.Fprint(t.Out, fragment)
}

func (t *TerminalStream) SendProgress(_ *dto.PublishProgressMessage) {}
