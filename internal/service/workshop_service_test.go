package service

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carepathiq-be/internal/constant"
	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/repository/memory"
	"carepathiq-be/pkg/store"
)

type workshopFixture struct {
	workshop  IWorkshopService
	pathway   IPathwaySessionService
	publisher *recordingPublisher
}

// newWorkshopFixture wires the full service stack against a literature fake
// and no language model, the configuration the interactive demo runs in
// when no key is set.
func newWorkshopFixture(t *testing.T) *workshopFixture {
	t.Helper()

	client := pubmedFake(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			w.Write([]byte(`{"esearchresult":{"idlist":["9"]}}`))
		case "/esummary.fcgi":
			w.Write([]byte(`{"result":{"uids":["9"],"9":{"uid":"9","title":"HEART score validation","authors":[{"name":"Six A"}],"pubdate":"2008","source":"Neth Heart J"}}}`))
		}
	})

	publisher := &recordingPublisher{}
	sessionRepo := memory.NewSessionRepository()
	pathway := NewPathwaySessionService(sessionRepo, publisher, filepath.Join(t.TempDir(), "pathway.md"), nopLogger{})
	evidence := NewEvidenceService(client, 3, nopLogger{})
	assistant := NewAssistantService(nil, sessionRepo, memory.NewTranscriptRepository(), &recordingStream{}, 0.2, nopLogger{})
	workshop := NewWorkshopService(memory.NewConversationRepository(), pathway, evidence, assistant, publisher, nopLogger{})

	return &workshopFixture{workshop: workshop, pathway: pathway, publisher: publisher}
}

func TestWorkshopFullWalk(t *testing.T) {
	f := newWorkshopFixture(t)
	ctx := context.Background()
	created := f.pathway.Create(ctx, &dto.CreatePathwayRequest{})
	sessionId := created.Id

	step, err := f.workshop.Start(ctx, sessionId)
	require.NoError(t, err)
	assert.Equal(t, store.PhaseScope, step.Phase)
	assert.Equal(t, "scope.condition", step.Key)
	assert.Equal(t, constant.QuestionScopeCondition, step.Prompt)

	reply := func(answer string) *dto.WorkshopStepResponse {
		t.Helper()
		step, err := f.workshop.Answer(ctx, sessionId, &dto.WorkshopAnswerRequest{Answer: answer})
		require.NoError(t, err)
		return step
	}

	// Phase 1: scope, ending with the review step.
	reply("Acute Chest Pain")
	reply("Adults >=18 in the ED")
	reply("Emergency Department")
	reply("Inconsistent risk stratification")
	step = reply("Faster triage\nFewer admissions")

	assert.Equal(t, store.PhaseScope, step.Phase)
	assert.Equal(t, "review.approve", step.Key)
	assert.Equal(t, constant.QuestionReviewApprove, step.Prompt)
	assert.Contains(t, step.Message, "Condition: Acute Chest Pain")

	// Nothing lands in the session until the phase is approved.
	session, found := f.pathway.Session(sessionId)
	require.True(t, found)
	assert.Empty(t, session.Scope)

	step = reply("yes")
	assert.Equal(t, store.PhaseEvidence, step.Phase)
	assert.Equal(t, constant.QuestionEvidencePoint, step.Prompt)

	session, _ = f.pathway.Session(sessionId)
	assert.Equal(t, "Acute Chest Pain", session.Title)
	assert.Contains(t, session.Scope, "Condition: Acute Chest Pain")
	assert.Contains(t, session.Scope, "Setting: Emergency Department")
	assert.Contains(t, session.Scope, "- Faster triage")
	assert.Contains(t, session.Scope, "- Fewer admissions")

	// Phase 2: evidence loop, one lookup then done.
	step = reply("HEART score at triage")
	assert.Equal(t, store.PhaseEvidence, step.Phase)
	require.NotNil(t, step.Evidence)
	assert.Equal(t, "HEART score at triage", step.Evidence.Point)
	assert.Equal(t, "Six A et al. (2008). HEART score validation. Neth Heart J.", step.Evidence.Citation)
	require.Len(t, step.Citations, 1)

	step = reply("done")
	assert.Equal(t, "review.approve", step.Key)
	assert.Contains(t, step.Message, "HEART score at triage")

	step = reply("yes")
	assert.Equal(t, store.PhaseLogic, step.Phase)
	assert.Equal(t, "logic.entry", step.Key)

	// Phase 3: logic; the wrap-up drafts the diagram (fallback without a model).
	reply("Chest pain at triage")
	reply("HEART<4 -> discharge, HEART>=4 -> admit")
	reply("Discharge, admit, escalate")
	step = reply("yes")
	assert.Equal(t, store.PhaseTesting, step.Phase)

	session, _ = f.pathway.Session(sessionId)
	assert.Equal(t, "Entry: Chest pain at triage\nBranches:\nHEART<4 -> discharge, HEART>=4 -> admit\nExit points: Discharge, admit, escalate", session.Logic)
	assert.Equal(t, constant.FallbackDiagram, session.DiagramSource)

	// Phase 4: testing.
	reply("STEMI mimic walkthrough")
	reply("Alert fatigue")
	reply("Tiered alerts")
	step = reply("yes")
	assert.Equal(t, store.PhaseOperations, step.Phase)

	// The KPI question ships the standard suggestion list.
	reply("Pilot on one unit")
	step = reply("Order set plus BPA")
	assert.Equal(t, "operations.kpis", step.Key)
	assert.Equal(t, constant.StandardKPIs, step.Suggestions)

	reply("Length of stay; readmissions")
	step = reply("yes")
	assert.True(t, step.Done)

	session, _ = f.pathway.Session(sessionId)
	assert.Equal(t, "Rollout: Pilot on one unit\nEHR/CDS tooling: Order set plus BPA\nKPIs: Length of stay; readmissions", session.Operations)
	assert.Equal(t, "Scenarios: STEMI mimic walkthrough\nExpected issues: Alert fatigue\nMitigation: Tiered alerts", session.Testing)

	// Five phase completions, each publishing progress plus a checkpoint.
	assert.Len(t, f.publisher.payloads, 10)

	// The finished workshop rejects further answers.
	_, err = f.workshop.Answer(ctx, sessionId, &dto.WorkshopAnswerRequest{Answer: "extra"})
	assert.Error(t, err)
}

func TestWorkshopEvidenceLookupFailureStillAppends(t *testing.T) {
	// Literature endpoint down: the loop appends the point with "No citation"
	// instead of breaking the dialogue.
	client := pubmedFake(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	publisher := &recordingPublisher{}
	sessionRepo := memory.NewSessionRepository()
	pathway := NewPathwaySessionService(sessionRepo, publisher, filepath.Join(t.TempDir(), "pathway.md"), nopLogger{})
	evidence := NewEvidenceService(client, 3, nopLogger{})
	assistant := NewAssistantService(nil, sessionRepo, memory.NewTranscriptRepository(), &recordingStream{}, 0.2, nopLogger{})
	workshop := NewWorkshopService(memory.NewConversationRepository(), pathway, evidence, assistant, publisher, nopLogger{})

	ctx := context.Background()
	created := pathway.Create(ctx, &dto.CreatePathwayRequest{Title: "Sepsis"})

	_, err := workshop.Start(ctx, created.Id)
	require.NoError(t, err)
	for _, answer := range []string{"Sepsis", "Adults", "ED", "Late recognition", "Earlier antibiotics", "yes"} {
		_, err = workshop.Answer(ctx, created.Id, &dto.WorkshopAnswerRequest{Answer: answer})
		require.NoError(t, err)
	}

	step, err := workshop.Answer(ctx, created.Id, &dto.WorkshopAnswerRequest{Answer: "Lactate measurement"})
	require.NoError(t, err)

	assert.Equal(t, "Literature lookup failed; please try again.", step.Message)
	require.NotNil(t, step.Evidence)
	assert.Equal(t, "No citation", step.Evidence.Citation)
	assert.Empty(t, step.Citations)

	session, _ := pathway.Session(created.Id)
	require.Len(t, session.EvidenceItems, 1)
	assert.Equal(t, "Lactate measurement", session.EvidenceItems[0].Point)
}

func TestWorkshopDoneIsCaseInsensitive(t *testing.T) {
	f := newWorkshopFixture(t)
	ctx := context.Background()
	created := f.pathway.Create(ctx, &dto.CreatePathwayRequest{Title: "Case"})

	_, err := f.workshop.Start(ctx, created.Id)
	require.NoError(t, err)
	for _, answer := range []string{"Sepsis", "Adults", "ED", "Late recognition", "Earlier antibiotics", "yes"} {
		_, err = f.workshop.Answer(ctx, created.Id, &dto.WorkshopAnswerRequest{Answer: answer})
		require.NoError(t, err)
	}

	step, err := f.workshop.Answer(ctx, created.Id, &dto.WorkshopAnswerRequest{Answer: "DONE"})
	require.NoError(t, err)
	assert.Equal(t, store.PhaseEvidence, step.Phase)
	assert.Equal(t, "review.approve", step.Key)

	step, err = f.workshop.Answer(ctx, created.Id, &dto.WorkshopAnswerRequest{Answer: "yes"})
	require.NoError(t, err)
	assert.Equal(t, store.PhaseLogic, step.Phase)
}

func TestWorkshopRedoReopensPhase(t *testing.T) {
	f := newWorkshopFixture(t)
	ctx := context.Background()
	created := f.pathway.Create(ctx, &dto.CreatePathwayRequest{})

	_, err := f.workshop.Start(ctx, created.Id)
	require.NoError(t, err)

	reply := func(answer string) *dto.WorkshopStepResponse {
		t.Helper()
		step, err := f.workshop.Answer(ctx, created.Id, &dto.WorkshopAnswerRequest{Answer: answer})
		require.NoError(t, err)
		return step
	}

	for _, answer := range []string{"Stroke", "Adults", "ED", "Slow door-to-needle", "Faster thrombolysis"} {
		reply(answer)
	}

	// Declining the review restarts the phase from its first question.
	step := reply("no")
	assert.Equal(t, store.PhaseScope, step.Phase)
	assert.Equal(t, "scope.condition", step.Key)

	session, _ := f.pathway.Session(created.Id)
	assert.Empty(t, session.Scope)

	for _, answer := range []string{"TIA", "Adults", "ED", "Slow door-to-needle", "Faster thrombolysis"} {
		reply(answer)
	}
	step = reply("yes")
	assert.Equal(t, store.PhaseEvidence, step.Phase)

	session, _ = f.pathway.Session(created.Id)
	assert.Contains(t, session.Scope, "Condition: TIA")
	assert.Equal(t, "TIA", session.Title)
}

func TestWorkshopAnswerWithoutStart(t *testing.T) {
	f := newWorkshopFixture(t)
	ctx := context.Background()
	created := f.pathway.Create(ctx, &dto.CreatePathwayRequest{Title: "No start"})

	_, err := f.workshop.Answer(ctx, created.Id, &dto.WorkshopAnswerRequest{Answer: "hello"})
	assert.Error(t, err)
}

func TestScopeConditionDerivation(t *testing.T) {
	assert.Equal(t, "Sepsis", scopeCondition("Condition: Sepsis\nPopulation: Adults"))
	assert.Equal(t, "Acute Chest Pain", scopeCondition("  Condition:   Acute Chest Pain  "))
	assert.Equal(t, "", scopeCondition("Population: Adults"))
	assert.Equal(t, "", scopeCondition(""))
}

func TestWorkshopStartUnknownSession(t *testing.T) {
	f := newWorkshopFixture(t)

	_, err := f.workshop.Start(context.Background(), uuid.New())
	assert.Error(t, err)
}
