package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carepathiq-be/internal/constant"
	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/entity"
	"carepathiq-be/internal/repository/memory"
	"carepathiq-be/pkg/llm"
)

type assistantFixture struct {
	svc            IAssistantService
	sessionRepo    *memory.SessionRepository
	transcriptRepo *memory.TranscriptRepository
	stream         *recordingStream
	session        *entity.PathwaySession
}

func newAssistantFixture(t *testing.T, provider llm.LLMProvider) *assistantFixture {
	t.Helper()
	sessionRepo := memory.NewSessionRepository()
	transcriptRepo := memory.NewTranscriptRepository()
	stream := &recordingStream{}

	session := &entity.PathwaySession{
		Id:            uuid.New(),
		Title:         "Sepsis triage",
		Scope:         "Condition: Sepsis",
		Logic:         "Entry: qSOFA >= 2",
		EvidenceItems: []entity.EvidenceItem{},
		CreatedAt:     time.Now(),
	}
	sessionRepo.Save(session)

	return &assistantFixture{
		svc:            NewAssistantService(provider, sessionRepo, transcriptRepo, stream, 0.2, nopLogger{}),
		sessionRepo:    sessionRepo,
		transcriptRepo: transcriptRepo,
		stream:         stream,
		session:        session,
	}
}

// ============================================
// CHAT
// ============================================

func TestChatWithProvider(t *testing.T) {
	provider := &scriptedProvider{reply: "Consider a lactate branch."}
	f := newAssistantFixture(t, provider)

	res, err := f.svc.Chat(context.Background(), f.session.Id, &dto.AssistantChatRequest{
		Message: "What branch is missing?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Consider a lactate branch.", res.Reply)
	assert.False(t, res.Fallback)

	// Model context: persona, then the session digest, then the user turn.
	require.Len(t, provider.histories, 1)
	history := provider.histories[0]
	require.Len(t, history, 3)
	assert.Equal(t, constant.ChatMessageRoleSystem, history[0].Role)
	assert.Contains(t, history[1].Content, "Pathway: Sepsis triage")
	assert.Equal(t, "What branch is missing?", history[2].Content)

	// Both turns land in the transcript.
	tr, found := f.transcriptRepo.Get(f.session.Id)
	require.True(t, found)
	require.Len(t, tr.Entries, 2)
	assert.Equal(t, constant.ChatMessageRoleUser, tr.Entries[0].Role)
	assert.Equal(t, "Consider a lactate branch.", tr.Entries[1].Content)
}

func TestChatWithoutProviderFallsBack(t *testing.T) {
	f := newAssistantFixture(t, nil)

	res, err := f.svc.Chat(context.Background(), f.session.Id, &dto.AssistantChatRequest{Message: "hello"})
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, constant.AssistantUnavailableNoKey, res.Reply)

	// The fallback is recorded too, so a resumed chat reads the same.
	tr, found := f.transcriptRepo.Get(f.session.Id)
	require.True(t, found)
	require.Len(t, tr.Entries, 2)
	assert.Equal(t, constant.AssistantUnavailableNoKey, tr.Entries[1].Content)
}

func TestChatModelErrorFallsBack(t *testing.T) {
	f := newAssistantFixture(t, &scriptedProvider{failing: true})

	res, err := f.svc.Chat(context.Background(), f.session.Id, &dto.AssistantChatRequest{Message: "hello"})
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, constant.AssistantFallbackReply, res.Reply)
}

func TestChatStreamsFragments(t *testing.T) {
	f := newAssistantFixture(t, &scriptedProvider{reply: "streamed reply"})

	res, err := f.svc.Chat(context.Background(), f.session.Id, &dto.AssistantChatRequest{
		Message: "stream this",
		Stream:  true,
	})
	require.NoError(t, err)

	assert.True(t, res.Streamed)
	assert.Equal(t, []string{"streamed reply"}, f.stream.fragments)
}

func TestChatUnknownSession(t *testing.T) {
	f := newAssistantFixture(t, nil)

	_, err := f.svc.Chat(context.Background(), uuid.New(), &dto.AssistantChatRequest{Message: "hi"})
	assert.Error(t, err)
}

// ============================================
// DRAFT DIAGRAM
// ============================================

func TestDraftDiagramStripsFenceAndStores(t *testing.T) {
	provider := &scriptedProvider{reply: "```mermaid\ngraph TD; A-->B;\n```"}
	f := newAssistantFixture(t, provider)

	res, err := f.svc.DraftDiagram(context.Background(), f.session.Id, &dto.DraftDiagramRequest{})
	require.NoError(t, err)

	assert.Equal(t, "graph TD; A-->B;", res.DiagramSource)
	assert.False(t, res.Fallback)

	stored, _ := f.sessionRepo.Get(f.session.Id)
	assert.Equal(t, "graph TD; A-->B;", stored.DiagramSource)
}

func TestDraftDiagramFallbackWithoutProvider(t *testing.T) {
	f := newAssistantFixture(t, nil)

	res, err := f.svc.DraftDiagram(context.Background(), f.session.Id, &dto.DraftDiagramRequest{})
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, constant.FallbackDiagram, res.DiagramSource)

	stored, _ := f.sessionRepo.Get(f.session.Id)
	assert.Equal(t, constant.FallbackDiagram, stored.DiagramSource)
}

func TestDraftDiagramPromptCarriesScopeAndLogic(t *testing.T) {
	provider := &scriptedProvider{reply: "graph TD; A-->B;"}
	f := newAssistantFixture(t, provider)

	_, err := f.svc.DraftDiagram(context.Background(), f.session.Id, &dto.DraftDiagramRequest{})
	require.NoError(t, err)

	require.Len(t, provider.histories, 1)
	prompt := provider.histories[0][len(provider.histories[0])-1].Content
	assert.Contains(t, prompt, "Condition: Sepsis")
	assert.Contains(t, prompt, "Entry: qSOFA >= 2")
}

// ============================================
// VERIFY CITATION
// ============================================

func TestVerifyCitationRecordsVerdict(t *testing.T) {
	provider := &scriptedProvider{reply: "Verified - directly supports the lactate branch."}
	f := newAssistantFixture(t, provider)

	item := entity.EvidenceItem{
		Id: uuid.New(), Point: "Lactate>2", Citation: "Smith 2020",
		Verification: constant.VerificationPending, CreatedAt: time.Now(),
	}
	f.session.EvidenceItems = append(f.session.EvidenceItems, item)
	f.sessionRepo.Save(f.session)

	res, err := f.svc.VerifyCitation(context.Background(), f.session.Id, &dto.VerifyCitationRequest{ItemId: item.Id})
	require.NoError(t, err)

	assert.False(t, res.Fallback)
	assert.Equal(t, "Verified - directly supports the lactate branch.", res.Verification)

	stored, _ := f.sessionRepo.Get(f.session.Id)
	assert.Equal(t, res.Verification, stored.EvidenceItems[0].Verification)
}

func TestVerifyCitationFallbackKeepsPrevious(t *testing.T) {
	f := newAssistantFixture(t, &scriptedProvider{failing: true})

	item := entity.EvidenceItem{
		Id: uuid.New(), Point: "Lactate>2", Citation: "Smith 2020",
		Verification: constant.VerificationPending, CreatedAt: time.Now(),
	}
	f.session.EvidenceItems = append(f.session.EvidenceItems, item)
	f.sessionRepo.Save(f.session)

	res, err := f.svc.VerifyCitation(context.Background(), f.session.Id, &dto.VerifyCitationRequest{ItemId: item.Id})
	require.NoError(t, err)

	assert.True(t, res.Fallback)
	assert.Equal(t, constant.VerificationPending, res.Verification)

	stored, _ := f.sessionRepo.Get(f.session.Id)
	assert.Equal(t, constant.VerificationPending, stored.EvidenceItems[0].Verification)
}

func TestVerifyCitationUnknownItem(t *testing.T) {
	f := newAssistantFixture(t, nil)

	_, err := f.svc.VerifyCitation(context.Background(), f.session.Id, &dto.VerifyCitationRequest{ItemId: uuid.New()})
	assert.Error(t, err)
}

// ============================================
// SUMMARIZE
// ============================================

func TestSummarizePlainDigest(t *testing.T) {
	f := newAssistantFixture(t, nil)

	res, err := f.svc.Summarize(context.Background(), f.session.Id, false)
	require.NoError(t, err)

	assert.False(t, res.Condensed)
	assert.Contains(t, res.Summary, "Pathway: Sepsis triage")
	assert.Contains(t, res.Summary, "Evidence: none attached")
	assert.Contains(t, res.Summary, "Diagram: not drafted")
}

func TestSummarizeCondensed(t *testing.T) {
	f := newAssistantFixture(t, &scriptedProvider{reply: "Short committee summary."})

	res, err := f.svc.Summarize(context.Background(), f.session.Id, true)
	require.NoError(t, err)

	assert.True(t, res.Condensed)
	assert.Equal(t, "Short committee summary.", res.Summary)
}

func TestSummarizeCondensedFailureReturnsDigest(t *testing.T) {
	f := newAssistantFixture(t, &scriptedProvider{failing: true})

	res, err := f.svc.Summarize(context.Background(), f.session.Id, true)
	require.NoError(t, err)

	assert.False(t, res.Condensed)
	assert.Contains(t, res.Summary, "Pathway: Sepsis triage")
}

// ============================================
// TRANSCRIPT PERSISTENCE
// ============================================

func TestTranscriptSaveAndResume(t *testing.T) {
	f := newAssistantFixture(t, &scriptedProvider{reply: "noted"})
	path := filepath.Join(t.TempDir(), "transcript.yaml")
	ctx := context.Background()

	_, err := f.svc.Chat(ctx, f.session.Id, &dto.AssistantChatRequest{Message: "remember this"})
	require.NoError(t, err)
	require.NoError(t, f.svc.SaveTranscript(f.session.Id, path))

	// A fresh repository resumes the same conversation from disk.
	resumed := newAssistantFixture(t, &scriptedProvider{reply: "noted"})
	require.NoError(t, resumed.svc.ResumeTranscript(f.session.Id, path))

	tr, found := resumed.transcriptRepo.Get(f.session.Id)
	require.True(t, found)
	require.Len(t, tr.Entries, 2)
	assert.Equal(t, "remember this", tr.Entries[0].Content)
}

func TestResumeTranscriptMissingFileIsFreshStart(t *testing.T) {
	f := newAssistantFixture(t, nil)

	err := f.svc.ResumeTranscript(f.session.Id, filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	tr, found := f.transcriptRepo.Get(f.session.Id)
	require.True(t, found)
	assert.Empty(t, tr.Entries)
}

// ============================================
// DIGEST
// ============================================

func TestDigestListsEvidence(t *testing.T) {
	session := &entity.PathwaySession{
		Id:    uuid.New(),
		Title: "Digest check",
		EvidenceItems: []entity.EvidenceItem{
			{Point: "Lactate>2", Citation: "Smith 2020", Verification: "Verified"},
		},
	}

	digest := Digest(session)
	assert.Contains(t, digest, "Evidence (1 items):")
	assert.Contains(t, digest, "- Lactate>2 -> Smith 2020 [Verified]")
	assert.Contains(t, digest, "Logic: not specified")
}
