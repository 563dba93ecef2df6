package workshop

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/term"

	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/service"
)

// REPL is the free-form assistant loop: plain input goes to the model with
// the session as context, slash commands touch the session directly.
type REPL struct {
	Pathway        service.IPathwaySessionService
	Evidence       service.IEvidenceService
	Assistant      service.IAssistantService
	ReportPath     string
	TranscriptPath string
	Out            io.Writer
}

func (r *REPL) Run(ctx context.Context) error {
	sessionId, err := r.openSession(ctx)
	if err != nil {
		return err
	}

	banner.Fprintln(r.Out, "CarePathIQ assistant — /search <query>, /draft, /summary, /save, /quit")

	t := term.NewTerminal(os.Stdin, "> ")

	for {
		line, err := r.readLine(t)
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := r.command(ctx, sessionId, line); quit {
				break
			}
			continue
		}

		response, err := r.Assistant.Chat(ctx, sessionId, &dto.AssistantChatRequest{
			Message: line,
			Stream:  true,
		})
		if err != nil {
			return err
		}
		if response.Fallback {
			// Nothing streamed; show the fixed fallback.
			assistant.Fprintln(r.Out, response.Reply)
		} else {
			fmt.Fprintln(r.Out)
		}
	}

	return r.save(ctx, sessionId)
}

// readLine switches the terminal into raw mode for one line, the way an
// interactive chat expects, and restores it before anything else prints.
func (r *REPL) readLine(t *term.Terminal) (string, error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		// Not a terminal (piped input); plain reads still work.
		return t.ReadLine()
	}

	if width, height, err := term.GetSize(fd); err == nil {
		t.SetSize(width, height)
	}

	line, readErr := t.ReadLine()
	if restoreErr := term.Restore(fd, oldState); restoreErr != nil {
		return line, restoreErr
	}
	return line, readErr
}

func (r *REPL) command(ctx context.Context, sessionId uuid.UUID, line string) (quit bool) {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/search":
		if arg == "" {
			fmt.Fprintln(r.Out, "usage: /search <query>")
			return false
		}
		result := r.Evidence.Search(ctx, &dto.EvidenceSearchRequest{Query: arg})
		if result.Note != "" {
			fmt.Fprintln(r.Out, result.Note)
		}
		for i, citation := range result.Citations {
			fmt.Fprintf(r.Out, "%d. %s\n", i+1, citation.Citation)
		}

	case "/draft":
		response, err := r.Assistant.DraftDiagram(ctx, sessionId, &dto.DraftDiagramRequest{})
		if err != nil {
			fmt.Fprintln(r.Out, err)
			return false
		}
		if response.Fallback {
			dim.Fprintln(r.Out, "(model unavailable, placeholder diagram attached)")
		}
		fmt.Fprintln(r.Out, response.DiagramSource)

	case "/summary":
		response, err := r.Assistant.Summarize(ctx, sessionId, true)
		if err != nil {
			fmt.Fprintln(r.Out, err)
			return false
		}
		assistant.Fprintln(r.Out, response.Summary)

	case "/save":
		if err := r.save(ctx, sessionId); err != nil {
			fmt.Fprintln(r.Out, err)
		}

	default:
		fmt.Fprintf(r.Out, "unknown command %s\n", cmd)
	}

	return false
}

func (r *REPL) openSession(ctx context.Context) (uuid.UUID, error) {
	if _, err := os.Stat(r.ReportPath); err == nil {
		loaded, err := r.Pathway.Load(ctx, r.ReportPath)
		if err == nil {
			assistant.Fprintf(r.Out, "Resumed %q from %s\n", loaded.Title, r.ReportPath)
			if err := r.Assistant.ResumeTranscript(loaded.Id, r.TranscriptPath); err != nil {
				dim.Fprintf(r.Out, "(no transcript resumed: %v)\n", err)
			}
			return loaded.Id, nil
		}
		fmt.Fprintf(r.Out, "Could not resume from %s: %v\n", r.ReportPath, err)
	}

	created := r.Pathway.Create(ctx, &dto.CreatePathwayRequest{})
	return created.Id, nil
}

func (r *REPL) save(ctx context.Context, sessionId uuid.UUID) error {
	saved, err := r.Pathway.Save(ctx, sessionId, r.ReportPath)
	if err != nil {
		return err
	}
	if err := r.Assistant.SaveTranscript(sessionId, r.TranscriptPath); err != nil {
		dim.Fprintf(r.Out, "(transcript not saved: %v)\n", err)
	}
	fmt.Fprintf(r.Out, "Saved to %s\n", saved.Path)
	return nil
}
