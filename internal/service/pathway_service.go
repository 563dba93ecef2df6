package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
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
)

// IPathwaySessionService owns the pathway session lifecycle: field updates,
// evidence appends, document save/load, progress. Explicit saves are
// synchronous so file errors reach the user; checkpoints go through the
// event bus and are written by the consumer.
type IPathwaySessionService interface {
	Create(ctx context.Context, request *dto.CreatePathwayRequest) *dto.CreatePathwayResponse
	CreateDemo(ctx context.Context) *dto.CreatePathwayResponse
	Get(ctx context.Context, sessionId uuid.UUID) (*dto.PathwayResponse, error)
	UpdateField(ctx context.Context, sessionId uuid.UUID, request *dto.UpdatePathwayFieldRequest) (*dto.PathwayResponse, error)
	AppendEvidence(ctx context.Context, sessionId uuid.UUID, request *dto.AppendEvidenceRequest) (*dto.EvidenceItemDTO, error)
	Save(ctx context.Context, sessionId uuid.UUID, path string) (*dto.SavePathwayResponse, error)
	Load(ctx context.Context, path string) (*dto.PathwayResponse, error)
	Progress(ctx context.Context, sessionId uuid.UUID) (*dto.ProgressResponse, error)
	Delete(ctx context.Context, sessionId uuid.UUID)
	Checkpoint(ctx context.Context, sessionId uuid.UUID)

	// Session exposes the live entity to the workshop and assistant layers,
	// which compose prompts from its fields. Single logical writer per
	// session, so no locking here.
	Session(sessionId uuid.UUID) (*entity.PathwaySession, bool)
}

type pathwaySessionService struct {
	sessionRepo       *memory.SessionRepository
	checkpointService IPublisherService
	defaultPath       string
	logger            logger.ILogger
}

func NewPathwaySessionService(
	sessionRepo *memory.SessionRepository,
	checkpointService IPublisherService,
	defaultPath string,
	log logger.ILogger,
) IPathwaySessionService {
	return &pathwaySessionService{
		sessionRepo:       sessionRepo,
		checkpointService: checkpointService,
		defaultPath:       defaultPath,
		logger:            log,
	}
}

func (s *pathwaySessionService) Create(ctx context.Context, request *dto.CreatePathwayRequest) *dto.CreatePathwayResponse {
	session := &entity.PathwaySession{
		Id:            uuid.New(),
		Title:         request.Title,
		EvidenceItems: []entity.EvidenceItem{},
		CreatedAt:     time.Now(),
	}
	s.sessionRepo.Save(session)

	s.logger.Info("PathwayService", "Session created", map[string]interface{}{
		"session_id": session.Id,
		"title":      session.Title,
	})

	return &dto.CreatePathwayResponse{Id: session.Id}
}

// CreateDemo seeds the stock "Acute Chest Pain" workshop dataset.
func (s *pathwaySessionService) CreateDemo(ctx context.Context) *dto.CreatePathwayResponse {
	session := &entity.PathwaySession{
		Id:    uuid.New(),
		Title: "Acute Chest Pain",
		Scope: "Condition: Acute Chest Pain\n" +
			"Population: Adults >=18 years presenting to ED with chest pain\n" +
			"Setting: Emergency Department\n" +
			"Problem: Need a clear, evidence-based pathway to risk-stratify chest pain and reduce unnecessary admissions.\n" +
			"Objectives:\n" +
			"- Reduce time to risk stratification to <30 minutes\n" +
			"- Ensure >=90% of high-risk patients receive cardiology consult\n" +
			"- Decrease unnecessary admissions for low-risk patients by 20%",
		EvidenceItems: []entity.EvidenceItem{},
		CreatedAt:     time.Now(),
	}
	s.sessionRepo.Save(session)

	return &dto.CreatePathwayResponse{Id: session.Id}
}

func (s *pathwaySessionService) Get(ctx context.Context, sessionId uuid.UUID) (*dto.PathwayResponse, error) {
	session, found := s.sessionRepo.Get(sessionId)
	if !found {
		return nil, fmt.Errorf("session %s not found", sessionId)
	}
	return toPathwayResponse(session), nil
}

func (s *pathwaySessionService) UpdateField(ctx context.Context, sessionId uuid.UUID, request *dto.UpdatePathwayFieldRequest) (*dto.PathwayResponse, error) {
	session, found := s.sessionRepo.Get(sessionId)
	if !found {
		return nil, fmt.Errorf("session %s not found", sessionId)
	}

	// Edge newlines would not survive the document round trip, so they are
	// dropped on write: stored state always equals reloaded state.
	value := strings.Trim(request.Value, "\n")

	switch request.Field {
	case "title":
		session.Title = strings.TrimSpace(value)
	case "scope":
		session.Scope = value
	case "logic":
		session.Logic = value
	case "testing":
		session.Testing = value
	case "operations":
		session.Operations = value
	case "diagram":
		// Clients may paste fenced Mermaid; the session keeps the bare source.
		session.DiagramSource = report.StripMermaidFence(value)
	default:
		return nil, fmt.Errorf("unknown field %q", request.Field)
	}

	now := time.Now()
	session.UpdatedAt = &now
	s.sessionRepo.Save(session)

	return toPathwayResponse(session), nil
}

func (s *pathwaySessionService) AppendEvidence(ctx context.Context, sessionId uuid.UUID, request *dto.AppendEvidenceRequest) (*dto.EvidenceItemDTO, error) {
	session, found := s.sessionRepo.Get(sessionId)
	if !found {
		return nil, fmt.Errorf("session %s not found", sessionId)
	}

	verification := request.Verification
	if verification == "" {
		verification = constant.VerificationPending
	}

	// The document stores these as single labeled lines, which the parser
	// reads back trimmed.
	item := entity.EvidenceItem{
		Id:           uuid.New(),
		Point:        strings.TrimSpace(request.Point),
		Citation:     strings.TrimSpace(request.Citation),
		Verification: verification,
		CreatedAt:    time.Now(),
	}

	// Append only, no dedup: the same point/citation pair may recur.
	session.EvidenceItems = append(session.EvidenceItems, item)
	now := time.Now()
	session.UpdatedAt = &now
	s.sessionRepo.Save(session)

	return toEvidenceItemDTO(item), nil
}

func (s *pathwaySessionService) Save(ctx context.Context, sessionId uuid.UUID, path string) (*dto.SavePathwayResponse, error) {
	session, found := s.sessionRepo.Get(sessionId)
	if !found {
		return nil, fmt.Errorf("session %s not found", sessionId)
	}

	if path == "" {
		path = s.defaultPath
	}

	document := report.Render(session)
	if err := os.WriteFile(path, []byte(document), 0644); err != nil {
		metrics.DocumentSaves.WithLabelValues("explicit", "failed").Inc()
		return nil, fmt.Errorf("write pathway document: %w", err)
	}

	metrics.DocumentSaves.WithLabelValues("explicit", "ok").Inc()
	s.logger.Info("PathwayService", "Document saved", map[string]interface{}{
		"session_id": sessionId,
		"path":       path,
	})

	return &dto.SavePathwayResponse{Path: path}, nil
}

func (s *pathwaySessionService) Load(ctx context.Context, path string) (*dto.PathwayResponse, error) {
	if path == "" {
		path = s.defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pathway document: %w", err)
	}

	session, err := report.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse pathway document: %w", err)
	}

	s.sessionRepo.Save(session)
	s.logger.Info("PathwayService", "Document loaded", map[string]interface{}{
		"session_id": session.Id,
		"path":       path,
	})

	return toPathwayResponse(session), nil
}

func (s *pathwaySessionService) Progress(ctx context.Context, sessionId uuid.UUID) (*dto.ProgressResponse, error) {
	session, found := s.sessionRepo.Get(sessionId)
	if !found {
		return nil, fmt.Errorf("session %s not found", sessionId)
	}
	return toProgressResponse(session), nil
}

func (s *pathwaySessionService) Delete(ctx context.Context, sessionId uuid.UUID) {
	s.sessionRepo.Delete(sessionId)
}

// Checkpoint publishes a rendered snapshot for the autosave consumer. A
// publish failure only logs: losing one checkpoint is harmless because the
// next mutation produces another and explicit saves stay synchronous.
func (s *pathwaySessionService) Checkpoint(ctx context.Context, sessionId uuid.UUID) {
	session, found := s.sessionRepo.Get(sessionId)
	if !found {
		return
	}

	payload := dto.PublishCheckpointMessage{
		SessionId: sessionId,
		Path:      s.defaultPath,
		Document:  report.Render(session),
	}
	msgJson, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("PathwayService", "Failed to marshal checkpoint", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return
	}

	if err := s.checkpointService.Publish(ctx, msgJson); err != nil {
		s.logger.Error("PathwayService", "Failed to publish checkpoint", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
}

func (s *pathwaySessionService) Session(sessionId uuid.UUID) (*entity.PathwaySession, bool) {
	return s.sessionRepo.Get(sessionId)
}

// --- DTO mapping ---

func toPathwayResponse(session *entity.PathwaySession) *dto.PathwayResponse {
	items := make([]dto.EvidenceItemDTO, 0, len(session.EvidenceItems))
	for _, item := range session.EvidenceItems {
		items = append(items, *toEvidenceItemDTO(item))
	}

	return &dto.PathwayResponse{
		Id:            session.Id,
		Title:         session.Title,
		Scope:         session.Scope,
		EvidenceItems: items,
		Logic:         session.Logic,
		Testing:       session.Testing,
		Operations:    session.Operations,
		DiagramSource: session.DiagramSource,
		CreatedAt:     session.CreatedAt,
		UpdatedAt:     session.UpdatedAt,
	}
}

func toEvidenceItemDTO(item entity.EvidenceItem) *dto.EvidenceItemDTO {
	return &dto.EvidenceItemDTO{
		Id:           item.Id,
		Point:        item.Point,
		Citation:     item.Citation,
		Verification: item.Verification,
		CreatedAt:    item.CreatedAt,
	}
}

func toProgressResponse(session *entity.PathwaySession) *dto.ProgressResponse {
	checklist := report.Checklist(session)
	entries := make([]dto.ChecklistEntryDTO, 0, len(checklist))
	complete := 0
	for _, entry := range checklist {
		if entry.Done {
			complete++
		}
		entries = append(entries, dto.ChecklistEntryDTO{Label: entry.Label, Done: entry.Done})
	}

	return &dto.ProgressResponse{
		Entries:  entries,
		Complete: complete,
		Total:    len(entries),
	}
}
