package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"carepathiq-be/internal/constant"
	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/pkg/logger"
	"carepathiq-be/internal/report"
	"carepathiq-be/internal/repository/memory"
	"carepathiq-be/pkg/store"
)

// IWorkshopService drives the five-phase guided dialogue: scope, evidence,
// logic, testing, operations. Each phase ends with a review step: the
// composed summary is shown and the author approves it or redoes the phase.
// An approved phase writes the matching session field, emits a progress
// event, and checkpoints the document.
type IWorkshopService interface {
	Start(ctx context.Context, sessionId uuid.UUID) (*dto.WorkshopStepResponse, error)
	Answer(ctx context.Context, sessionId uuid.UUID, request *dto.WorkshopAnswerRequest) (*dto.WorkshopStepResponse, error)
}

type workshopService struct {
	conversationRepo *memory.ConversationRepository
	pathwayService   IPathwaySessionService
	evidenceService  IEvidenceService
	assistantService IAssistantService
	progressService  IPublisherService
	logger           logger.ILogger
}

func NewWorkshopService(
	conversationRepo *memory.ConversationRepository,
	pathwayService IPathwaySessionService,
	evidenceService IEvidenceService,
	assistantService IAssistantService,
	progressService IPublisherService,
	log logger.ILogger,
) IWorkshopService {
	return &workshopService{
		conversationRepo: conversationRepo,
		pathwayService:   pathwayService,
		evidenceService:  evidenceService,
		assistantService: assistantService,
		progressService:  progressService,
		logger:           log,
	}
}

var phaseNames = map[int]string{
	store.PhaseScope:      "Scope & Objectives",
	store.PhaseEvidence:   "Evidence Appraisal",
	store.PhaseLogic:      "Decision Logic",
	store.PhaseTesting:    "Validation & Testing",
	store.PhaseOperations: "Operations & Rollout",
}

func scopeQuestions() []store.Question {
	return []store.Question{
		{Key: "scope.condition", Prompt: constant.QuestionScopeCondition},
		{Key: "scope.population", Prompt: constant.QuestionScopePopulation},
		{Key: "scope.setting", Prompt: constant.QuestionScopeSetting},
		{Key: "scope.problem", Prompt: constant.QuestionScopeProblem},
		{Key: "scope.objectives", Prompt: constant.QuestionScopeObjectives},
	}
}

func logicQuestions() []store.Question {
	return []store.Question{
		{Key: "logic.entry", Prompt: constant.QuestionLogicEntry},
		{Key: "logic.branches", Prompt: constant.QuestionLogicBranches},
		{Key: "logic.endpoints", Prompt: constant.QuestionLogicEndpoints},
	}
}

func testingQuestions() []store.Question {
	return []store.Question{
		{Key: "testing.scenarios", Prompt: constant.QuestionTestingScenarios},
		{Key: "testing.issues", Prompt: constant.QuestionTestingIssues},
		{Key: "testing.mitigation", Prompt: constant.QuestionTestingMitigation},
	}
}

func operationsQuestions() []store.Question {
	return []store.Question{
		{Key: "operations.rollout", Prompt: constant.QuestionOperationsRollout},
		{Key: "operations.ehr", Prompt: constant.QuestionOperationsEHR},
		{Key: "operations.kpis", Prompt: constant.QuestionOperationsKPIs},
	}
}

func (s *workshopService) Start(ctx context.Context, sessionId uuid.UUID) (*dto.WorkshopStepResponse, error) {
	session, found := s.pathwayService.Session(sessionId)
	if !found {
		return nil, fmt.Errorf("session %s not found", sessionId)
	}

	conv := &store.Conversation{
		SessionID: sessionId.String(),
		Phase:     store.PhaseScope,
		State:     store.StateAsking,
		Pending:   scopeQuestions(),
		Answers:   map[string]string{},
		// A resumed session already names its condition in the scope text.
		Condition: scopeCondition(session.Scope),
	}
	s.conversationRepo.Save(conv)

	return s.nextStep(conv, "Welcome to the pathway workshop. Five phases: scope, evidence, logic, testing, operations."), nil
}

func (s *workshopService) Answer(ctx context.Context, sessionId uuid.UUID, request *dto.WorkshopAnswerRequest) (*dto.WorkshopStepResponse, error) {
	conv, found := s.conversationRepo.Get(sessionId)
	if !found {
		return nil, fmt.Errorf("workshop not started for session %s", sessionId)
	}
	if conv.State == store.StateIdle {
		return nil, fmt.Errorf("workshop already finished for session %s", sessionId)
	}

	answer := strings.TrimSpace(request.Answer)

	if conv.State == store.StateReviewing {
		return s.answerReview(ctx, sessionId, conv, answer)
	}

	if conv.Phase == store.PhaseEvidence {
		return s.answerEvidence(ctx, sessionId, conv, answer)
	}

	if len(conv.Pending) == 0 {
		return nil, fmt.Errorf("no pending question for session %s", sessionId)
	}

	question := conv.Pending[0]
	conv.Pending = conv.Pending[1:]
	conv.Answers[question.Key] = answer
	if question.Key == "scope.condition" && answer != "" {
		conv.Condition = answer
	}

	if len(conv.Pending) > 0 {
		s.conversationRepo.Save(conv)
		return s.nextStep(conv, ""), nil
	}

	return s.beginReview(sessionId, conv), nil
}

// answerEvidence handles the open-ended phase two loop: each answer is a
// decision point to look up, and "done" closes the phase.
func (s *workshopService) answerEvidence(ctx context.Context, sessionId uuid.UUID, conv *store.Conversation, answer string) (*dto.WorkshopStepResponse, error) {
	if strings.EqualFold(answer, "done") {
		return s.beginReview(sessionId, conv), nil
	}

	condition := conv.Condition
	if condition == "" {
		condition = constant.DefaultConditionHint
	}

	result := s.evidenceService.Search(ctx, &dto.EvidenceSearchRequest{
		Condition: condition,
		Point:     answer,
	})

	citation := "No citation"
	if len(result.Citations) > 0 {
		citation = result.Citations[0].Citation
	}

	item, err := s.pathwayService.AppendEvidence(ctx, sessionId, &dto.AppendEvidenceRequest{
		Point:    answer,
		Citation: citation,
	})
	if err != nil {
		return nil, err
	}

	// Best-effort relevance check; a fallback leaves the item pending.
	if verified, err := s.assistantService.VerifyCitation(ctx, sessionId, &dto.VerifyCitationRequest{ItemId: item.Id}); err == nil {
		item.Verification = verified.Verification
	}

	s.conversationRepo.Save(conv)

	step := s.nextStep(conv, result.Note)
	step.Citations = result.Citations
	step.Evidence = item
	return step, nil
}

// beginReview shows the composed phase summary and asks the author to lock
// it in. Nothing is written to the session until the phase is approved.
func (s *workshopService) beginReview(sessionId uuid.UUID, conv *store.Conversation) *dto.WorkshopStepResponse {
	conv.State = store.StateReviewing
	conv.LastPrompt = constant.QuestionReviewApprove
	s.conversationRepo.Save(conv)

	return &dto.WorkshopStepResponse{
		Phase:     conv.Phase,
		PhaseName: phaseNames[conv.Phase],
		Message:   fmt.Sprintf("Here is what I captured for %s:\n\n%s", phaseNames[conv.Phase], s.phasePreview(sessionId, conv)),
		Key:       "review.approve",
		Prompt:    constant.QuestionReviewApprove,
	}
}

// answerReview resolves the review step: "yes" locks the phase, anything
// else reopens its questions so the author can answer them again.
func (s *workshopService) answerReview(ctx context.Context, sessionId uuid.UUID, conv *store.Conversation, answer string) (*dto.WorkshopStepResponse, error) {
	conv.State = store.StateAsking

	if strings.EqualFold(answer, "yes") {
		return s.completePhase(ctx, sessionId, conv)
	}

	switch conv.Phase {
	case store.PhaseScope:
		conv.Pending = scopeQuestions()
	case store.PhaseEvidence:
		conv.Pending = nil // the open lookup loop reopens
	case store.PhaseLogic:
		conv.Pending = logicQuestions()
	case store.PhaseTesting:
		conv.Pending = testingQuestions()
	case store.PhaseOperations:
		conv.Pending = operationsQuestions()
	}
	s.conversationRepo.Save(conv)

	return s.nextStep(conv, "No problem, let's run this phase again."), nil
}

// phasePreview composes the text the review step shows. For the evidence
// phase that is the attached items; for the others the same composed field
// text that approval will write.
func (s *workshopService) phasePreview(sessionId uuid.UUID, conv *store.Conversation) string {
	switch conv.Phase {
	case store.PhaseScope:
		return composeScope(conv.Answers)
	case store.PhaseEvidence:
		session, found := s.pathwayService.Session(sessionId)
		if !found || len(session.EvidenceItems) == 0 {
			return "No evidence attached."
		}
		var b strings.Builder
		for _, item := range session.EvidenceItems {
			fmt.Fprintf(&b, "- %s: %s [%s]\n", item.Point, item.Citation, item.Verification)
		}
		return strings.TrimRight(b.String(), "\n")
	case store.PhaseLogic:
		return composeLogic(conv.Answers)
	case store.PhaseTesting:
		return composeTesting(conv.Answers)
	case store.PhaseOperations:
		return composeOperations(conv.Answers)
	}
	return ""
}

func (s *workshopService) completePhase(ctx context.Context, sessionId uuid.UUID, conv *store.Conversation) (*dto.WorkshopStepResponse, error) {
	var message string

	switch conv.Phase {
	case store.PhaseScope:
		if _, err := s.pathwayService.UpdateField(ctx, sessionId, &dto.UpdatePathwayFieldRequest{
			Field: "scope",
			Value: composeScope(conv.Answers),
		}); err != nil {
			return nil, err
		}
		if title := conv.Answers["scope.condition"]; title != "" {
			if _, err := s.pathwayService.UpdateField(ctx, sessionId, &dto.UpdatePathwayFieldRequest{
				Field: "title",
				Value: title,
			}); err != nil {
				return nil, err
			}
		}
		conv.Phase = store.PhaseEvidence
		conv.Pending = nil
		message = "Scope captured. Now the science: name decision points and I'll search the literature."

	case store.PhaseEvidence:
		conv.Phase = store.PhaseLogic
		conv.Pending = logicQuestions()
		message = "Evidence phase closed. Let's map the decision logic."

	case store.PhaseLogic:
		if _, err := s.pathwayService.UpdateField(ctx, sessionId, &dto.UpdatePathwayFieldRequest{
			Field: "logic",
			Value: composeLogic(conv.Answers),
		}); err != nil {
			return nil, err
		}
		// Draft the flowchart as soon as the logic exists, like the phase
		// three wrap-up of the interactive tool.
		if _, err := s.assistantService.DraftDiagram(ctx, sessionId, &dto.DraftDiagramRequest{}); err != nil {
			return nil, err
		}
		conv.Phase = store.PhaseTesting
		conv.Pending = testingQuestions()
		message = "Logic mapped and a draft diagram attached. On to validation."

	case store.PhaseTesting:
		if _, err := s.pathwayService.UpdateField(ctx, sessionId, &dto.UpdatePathwayFieldRequest{
			Field: "testing",
			Value: composeTesting(conv.Answers),
		}); err != nil {
			return nil, err
		}
		conv.Phase = store.PhaseOperations
		conv.Pending = operationsQuestions()
		message = "Validation plan recorded. Last phase: operations and rollout."

	case store.PhaseOperations:
		if _, err := s.pathwayService.UpdateField(ctx, sessionId, &dto.UpdatePathwayFieldRequest{
			Field: "operations",
			Value: composeOperations(conv.Answers),
		}); err != nil {
			return nil, err
		}
		conv.State = store.StateIdle
		conv.Pending = nil
		message = "Workshop complete. Save the document or keep editing fields directly."
	}

	s.conversationRepo.Save(conv)
	s.publishProgress(ctx, sessionId, conv.Phase, message)
	s.pathwayService.Checkpoint(ctx, sessionId)

	if conv.State == store.StateIdle {
		return &dto.WorkshopStepResponse{
			Phase:     store.PhaseOperations,
			PhaseName: phaseNames[store.PhaseOperations],
			Message:   message,
			Done:      true,
		}, nil
	}

	return s.nextStep(conv, message), nil
}

func (s *workshopService) nextStep(conv *store.Conversation, message string) *dto.WorkshopStepResponse {
	step := &dto.WorkshopStepResponse{
		Phase:     conv.Phase,
		PhaseName: phaseNames[conv.Phase],
		Message:   message,
	}

	if conv.Phase == store.PhaseEvidence {
		step.Key = "evidence.point"
		step.Prompt = constant.QuestionEvidencePoint
	} else if len(conv.Pending) > 0 {
		step.Key = conv.Pending[0].Key
		step.Prompt = conv.Pending[0].Prompt
		if step.Key == "operations.kpis" {
			step.Suggestions = constant.StandardKPIs
		}
	}

	conv.LastPrompt = step.Prompt
	s.conversationRepo.Save(conv)
	return step
}

func (s *workshopService) publishProgress(ctx context.Context, sessionId uuid.UUID, phase int, message string) {
	session, found := s.pathwayService.Session(sessionId)
	if !found {
		return
	}

	checklist := report.Checklist(session)
	entries := make([]dto.ChecklistEntryDTO, 0, len(checklist))
	for _, entry := range checklist {
		entries = append(entries, dto.ChecklistEntryDTO{Label: entry.Label, Done: entry.Done})
	}

	payload := dto.PublishProgressMessage{
		SessionId: sessionId,
		Phase:     phase,
		Message:   message,
		Checklist: entries,
	}
	msgJson, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("WorkshopService", "Failed to marshal progress", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return
	}

	if err := s.progressService.Publish(ctx, msgJson); err != nil {
		s.logger.Error("WorkshopService", "Failed to publish progress", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
	}
}

// scopeCondition reads the condition back out of a composed scope field.
func scopeCondition(scope string) string {
	for _, line := range strings.Split(scope, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, constant.ConditionLinePrefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, constant.ConditionLinePrefix))
		}
	}
	return ""
}

// --- Field composition (labeled lines, parsed back nowhere: the composed
// text IS the field content) ---

func composeScope(answers map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", constant.ConditionLinePrefix, answers["scope.condition"])
	fmt.Fprintf(&b, "Population: %s\n", answers["scope.population"])
	fmt.Fprintf(&b, "Setting: %s\n", answers["scope.setting"])
	fmt.Fprintf(&b, "Problem: %s\n", answers["scope.problem"])
	b.WriteString("Objectives:\n")
	for _, objective := range strings.Split(answers["scope.objectives"], "\n") {
		objective = strings.TrimSpace(objective)
		if objective == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", objective)
	}
	return strings.TrimRight(b.String(), "\n")
}

func composeLogic(answers map[string]string) string {
	return fmt.Sprintf("Entry: %s\nBranches:\n%s\nExit points: %s",
		answers["logic.entry"],
		answers["logic.branches"],
		answers["logic.endpoints"],
	)
}

func composeTesting(answers map[string]string) string {
	return fmt.Sprintf("Scenarios: %s\nExpected issues: %s\nMitigation: %s",
		answers["testing.scenarios"],
		answers["testing.issues"],
		answers["testing.mitigation"],
	)
}

func composeOperations(answers map[string]string) string {
	return fmt.Sprintf("Rollout: %s\nEHR/CDS tooling: %s\nKPIs: %s",
		answers["operations.rollout"],
		answers["operations.ehr"],
		answers["operations.kpis"],
	)
}
