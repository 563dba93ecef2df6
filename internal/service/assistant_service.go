package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"carepathiq-be/internal/constant"
	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/entity"
	"carepathiq-be/internal/metrics"
	"carepathiq-be/internal/pkg/logger"
	"carepathiq-be/internal/report"
	"carepathiq-be/internal/repository/memory"
	"carepathiq-be/pkg/llm"
	"carepathiq-be/pkg/transcript"
)

// IAssistantService is the draft/verify boundary with the hosted model. The
// interactive flow never blocks on it: a missing provider or a failed call
// substitutes the fixed fallback text and the session stays intact. Errors
// returned here mean the session itself was not found, never that the model
// misbehaved.
type IAssistantService interface {
	Chat(ctx context.Context, sessionId uuid.UUID, request *dto.AssistantChatRequest) (*dto.AssistantChatResponse, error)
	DraftDiagram(ctx context.Context, sessionId uuid.UUID, request *dto.DraftDiagramRequest) (*dto.DraftDiagramResponse, error)
	VerifyCitation(ctx context.Context, sessionId uuid.UUID, request *dto.VerifyCitationRequest) (*dto.VerifyCitationResponse, error)
	Summarize(ctx context.Context, sessionId uuid.UUID, condense bool) (*dto.SummaryResponse, error)
	SaveTranscript(sessionId uuid.UUID, path string) error
	ResumeTranscript(sessionId uuid.UUID, path string) error
}

type assistantService struct {
	llmProvider    llm.LLMProvider // nil when no usable key is configured
	sessionRepo    *memory.SessionRepository
	transcriptRepo *memory.TranscriptRepository
	streamService  IStreamService
	temperature    float64
	logger         logger.ILogger
}

func NewAssistantService(
	llmProvider llm.LLMProvider,
	sessionRepo *memory.SessionRepository,
	transcriptRepo *memory.TranscriptRepository,
	streamService IStreamService,
	temperature float64,
	log logger.ILogger,
) IAssistantService {
	return &assistantService{
		llmProvider:    llmProvider,
		sessionRepo:    sessionRepo,
		transcriptRepo: transcriptRepo,
		streamService:  streamService,
		temperature:    temperature,
		logger:         log,
	}
}

func (s *assistantService) Chat(ctx context.Context, sessionId uuid.UUID, request *dto.AssistantChatRequest) (*dto.AssistantChatResponse, error) {
	session, found := s.sessionRepo.Get(sessionId)
	if !found {
		return nil, fmt.Errorf("session %s not found", sessionId)
	}

	t, found := s.transcriptRepo.Get(sessionId)
	if !found {
		t = &transcript.Transcript{SessionTitle: session.Title}
	}

	history := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.AssistantSystemPromptV1},
		{Role: constant.ChatMessageRoleSystem, Content: "Current pathway state:\n" + Digest(session)},
	}
	for _, entry := range t.Entries {
		history = append(history, llm.Message{Role: entry.Role, Content: entry.Content})
	}
	history = append(history, llm.Message{Role: constant.ChatMessageRoleUser, Content: request.Message})

	reply, fallback := s.complete(ctx, "chat", sessionId, history, request.Stream)

	// The transcript records the fallback too, so a resumed conversation
	// reads the same way the user saw it.
	t.Entries = append(t.Entries,
		transcript.Entry{Role: constant.ChatMessageRoleUser, Content: request.Message},
		transcript.Entry{Role: constant.ChatMessageRoleAssistant, Content: reply},
	)
	s.transcriptRepo.Save(sessionId, t)

	return &dto.AssistantChatResponse{
		Reply:    reply,
		Streamed: request.Stream,
		Fallback: fallback,
	}, nil
}

func (s *assistantService) DraftDiagram(ctx context.Context, sessionId uuid.UUID, request *dto.DraftDiagramRequest) (*dto.DraftDiagramResponse, error) {
	session, found := s.sessionRepo.Get(sessionId)
	if !found {
		return nil, fmt.Errorf("session %s not found", sessionId)
	}

	prompt := fmt.Sprintf(constant.FlowchartPromptV1, session.Scope, session.Logic)
	history := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.AssistantSystemPromptV1},
		{Role: constant.ChatMessageRoleUser, Content: prompt},
	}

	raw, fallback := s.completeWith(ctx, "draft", sessionId, history, request.Stream, constant.FallbackDiagram)

	diagram := report.StripMermaidFence(raw)
	session.DiagramSource = diagram
	now := time.Now()
	session.UpdatedAt = &now
	s.sessionRepo.Save(session)

	return &dto.DraftDiagramResponse{
		DiagramSource: diagram,
		Fallback:      fallback,
	}, nil
}

func (s *assistantService) VerifyCitation(ctx context.Context, sessionId uuid.UUID, request *dto.VerifyCitationRequest) (*dto.VerifyCitationResponse, error) {
	session, found := s.sessionRepo.Get(sessionId)
	if !found {
		return nil, fmt.Errorf("session %s not found", sessionId)
	}

	idx := -1
	for i := range session.EvidenceItems {
		if session.EvidenceItems[i].Id == request.ItemId {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("evidence item %s not found", request.ItemId)
	}
	item := &session.EvidenceItems[idx]

	prompt := fmt.Sprintf(constant.VerifyCitationPromptV1, item.Citation, item.Point)
	history := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.AssistantSystemPromptV1},
		{Role: constant.ChatMessageRoleUser, Content: prompt},
	}

	verdict, fallback := s.complete(ctx, "verify", sessionId, history, false)
	if fallback {
		// Keep the previous verification rather than recording the fallback
		// text as a verdict.
		return &dto.VerifyCitationResponse{
			ItemId:       item.Id,
			Verification: item.Verification,
			Fallback:     true,
		}, nil
	}

	item.Verification = strings.TrimSpace(verdict)
	now := time.Now()
	session.UpdatedAt = &now
	s.sessionRepo.Save(session)

	return &dto.VerifyCitationResponse{
		ItemId:       item.Id,
		Verification: item.Verification,
	}, nil
}

func (s *assistantService) Summarize(ctx context.Context, sessionId uuid.UUID, condense bool) (*dto.SummaryResponse, error) {
	session, found := s.sessionRepo.Get(sessionId)
	if !found {
		return nil, fmt.Errorf("session %s not found", sessionId)
	}

	digest := Digest(session)
	if !condense || s.llmProvider == nil {
		return &dto.SummaryResponse{Summary: digest}, nil
	}

	history := []llm.Message{
		{Role: constant.ChatMessageRoleSystem, Content: constant.AssistantSystemPromptV1},
		{Role: constant.ChatMessageRoleUser, Content: fmt.Sprintf(constant.SummarizePromptV1, digest)},
	}
	summary, fallback := s.complete(ctx, "summarize", sessionId, history, false)
	if fallback {
		// The deterministic digest always works as the answer of record.
		return &dto.SummaryResponse{Summary: digest}, nil
	}

	return &dto.SummaryResponse{Summary: summary, Condensed: true}, nil
}

func (s *assistantService) SaveTranscript(sessionId uuid.UUID, path string) error {
	t, found := s.transcriptRepo.Get(sessionId)
	if !found {
		t = &transcript.Transcript{}
	}
	return transcript.Save(path, t)
}

func (s *assistantService) ResumeTranscript(sessionId uuid.UUID, path string) error {
	t, err := transcript.TryToResume(path)
	if err != nil {
		return err
	}
	s.transcriptRepo.Save(sessionId, t)
	return nil
}

// complete runs one model call with the standard fallback reply.
func (s *assistantService) complete(ctx context.Context, operation string, sessionId uuid.UUID, history []llm.Message, stream bool) (string, bool) {
	return s.completeWith(ctx, operation, sessionId, history, stream, constant.AssistantFallbackReply)
}

// completeWith runs one model call, streaming fragments to the session's
// stream clients when asked. The bool reports whether the fallback text was
// substituted.
func (s *assistantService) completeWith(ctx context.Context, operation string, sessionId uuid.UUID, history []llm.Message, stream bool, fallbackText string) (string, bool) {
	if s.llmProvider == nil {
		metrics.LLMCalls.WithLabelValues(operation, "no_key").Inc()
		if operation == "draft" {
			return fallbackText, true
		}
		return constant.AssistantUnavailableNoKey, true
	}

	opts := []llm.Option{llm.WithTemperature(s.temperature)}

	var reply string
	var err error
	if stream && s.streamService != nil {
		reply, err = s.llmProvider.ChatStream(ctx, history, func(fragment string) {
			s.streamService.SendFragment(sessionId, operation, fragment)
		}, opts...)
	} else {
		reply, err = s.llmProvider.Chat(ctx, history, opts...)
	}
	if err != nil {
		s.logger.Warn("AssistantService", "Model call failed", map[string]interface{}{
			"operation":  operation,
			"session_id": sessionId,
			"error":      err.Error(),
		})
		metrics.LLMCalls.WithLabelValues(operation, "failed").Inc()
		return fallbackText, true
	}

	metrics.LLMCalls.WithLabelValues(operation, "ok").Inc()
	return strings.TrimSpace(reply), false
}

// Digest is the deterministic plaintext rollup of the six session fields,
// used as model context and as the summary of record when no model runs.
func Digest(session *entity.PathwaySession) string {
	var b strings.Builder

	title := session.Title
	if title == "" {
		title = "Untitled pathway"
	}
	fmt.Fprintf(&b, "Pathway: %s\n", title)

	writeDigestSection(&b, "Scope", session.Scope)

	if len(session.EvidenceItems) == 0 {
		b.WriteString("Evidence: none attached\n")
	} else {
		fmt.Fprintf(&b, "Evidence (%d items):\n", len(session.EvidenceItems))
		for _, item := range session.EvidenceItems {
			fmt.Fprintf(&b, "- %s -> %s [%s]\n", item.Point, item.Citation, item.Verification)
		}
	}

	writeDigestSection(&b, "Logic", session.Logic)
	writeDigestSection(&b, "Testing", session.Testing)
	writeDigestSection(&b, "Operations", session.Operations)

	if session.DiagramSource == "" {
		b.WriteString("Diagram: not drafted\n")
	} else {
		b.WriteString("Diagram: drafted\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeDigestSection(b *strings.Builder, label, body string) {
	if body == "" {
		fmt.Fprintf(b, "%s: not specified\n", label)
		return
	}
	fmt.Fprintf(b, "%s:\n%s\n", label, body)
}
