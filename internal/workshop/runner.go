package workshop

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/service"
)

var (
	banner    = color.New(color.FgCyan, color.Bold)
	phaseHead = color.New(color.FgYellow, color.Bold)
	assistant = color.New(color.FgGreen)
	dim       = color.New(color.Faint)
)

// Runner drives the five-phase workshop at a terminal. It is a thin client
// of the same services the HTTP surface uses; all session state stays in
// the service layer.
type Runner struct {
	Pathway        service.IPathwaySessionService
	Workshop       service.IWorkshopService
	Assistant      service.IAssistantService
	ReportPath     string
	TranscriptPath string
	In             io.Reader
	Out            io.Writer
}

func (r *Runner) Run(ctx context.Context, resume bool) error {
	reader := bufio.NewReader(r.In)

	banner.Fprintln(r.Out, "CarePathIQ — clinical pathway workshop")
	fmt.Fprintln(r.Out)

	sessionId, err := r.openSession(ctx, reader, resume)
	if err != nil {
		return err
	}

	step, err := r.Workshop.Start(ctx, sessionId)
	if err != nil {
		return err
	}

	lastPhase := 0
	for {
		if step.Phase != lastPhase {
			fmt.Fprintln(r.Out)
			phaseHead.Fprintf(r.Out, "— Phase %d: %s —\n", step.Phase, step.PhaseName)
			lastPhase = step.Phase
		}
		if step.Message != "" {
			assistant.Fprintln(r.Out, step.Message)
		}
		r.printEvidenceFeedback(step)

		if step.Done {
			break
		}

		for _, suggestion := range step.Suggestions {
			dim.Fprintf(r.Out, "  * %s\n", suggestion)
		}

		fmt.Fprintf(r.Out, "%s\n> ", step.Prompt)
		answer, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		answer = strings.TrimRight(answer, "\r\n")
		if answer == "" {
			continue
		}

		step, err = r.Workshop.Answer(ctx, sessionId, &dto.WorkshopAnswerRequest{Answer: answer})
		if err != nil {
			return err
		}
	}

	return r.finish(ctx, sessionId)
}

// openSession either resumes from the saved document or starts fresh. A
// declined or failed resume falls through to a new session; the user sees
// the reason and loses nothing.
func (r *Runner) openSession(ctx context.Context, reader *bufio.Reader, resume bool) (uuid.UUID, error) {
	if resume {
		if _, err := os.Stat(r.ReportPath); err == nil {
			loaded, err := r.Pathway.Load(ctx, r.ReportPath)
			if err != nil {
				fmt.Fprintf(r.Out, "Could not resume from %s: %v\n", r.ReportPath, err)
			} else {
				assistant.Fprintf(r.Out, "Resumed %q from %s\n", loaded.Title, r.ReportPath)
				if err := r.Assistant.ResumeTranscript(loaded.Id, r.TranscriptPath); err != nil {
					dim.Fprintf(r.Out, "(no transcript resumed: %v)\n", err)
				}
				r.printChecklist(ctx, loaded.Id)
				return loaded.Id, nil
			}
		} else {
			fmt.Fprintf(r.Out, "Nothing to resume at %s, starting fresh.\n", r.ReportPath)
		}
	}

	fmt.Fprint(r.Out, "Working title for this pathway: ")
	title, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return uuid.Nil, err
	}

	created := r.Pathway.Create(ctx, &dto.CreatePathwayRequest{Title: strings.TrimSpace(title)})
	return created.Id, nil
}

func (r *Runner) printEvidenceFeedback(step *dto.WorkshopStepResponse) {
	if len(step.Citations) > 0 {
		fmt.Fprintln(r.Out, "Literature found:")
		for i, citation := range step.Citations {
			fmt.Fprintf(r.Out, "  %d. %s\n", i+1, citation.Citation)
		}
	}
	if step.Evidence != nil {
		assistant.Fprintf(r.Out, "Attached: %s\n", step.Evidence.Citation)
		dim.Fprintf(r.Out, "  Review: %s\n", step.Evidence.Verification)
	}
}

func (r *Runner) printChecklist(ctx context.Context, sessionId uuid.UUID) {
	progress, err := r.Pathway.Progress(ctx, sessionId)
	if err != nil {
		return
	}
	for _, entry := range progress.Entries {
		mark := " "
		if entry.Done {
			mark = "x"
		}
		fmt.Fprintf(r.Out, "  [%s] %s\n", mark, entry.Label)
	}
}

func (r *Runner) finish(ctx context.Context, sessionId uuid.UUID) error {
	saved, err := r.Pathway.Save(ctx, sessionId, r.ReportPath)
	if err != nil {
		// Save failures are loud: the session is still in memory, so the
		// user can fix the path problem and save again from chat.
		fmt.Fprintf(r.Out, "Could not save the document: %v\n", err)
		return err
	}
	if err := r.Assistant.SaveTranscript(sessionId, r.TranscriptPath); err != nil {
		dim.Fprintf(r.Out, "(transcript not saved: %v)\n", err)
	}

	fmt.Fprintln(r.Out)
	r.printChecklist(ctx, sessionId)
	banner.Fprintf(r.Out, "Pathway document written to %s\n", saved.Path)
	return nil
}
