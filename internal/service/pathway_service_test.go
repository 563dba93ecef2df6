package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carepathiq-be/internal/constant"
	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/repository/memory"
)

func newPathwayFixture(t *testing.T) (IPathwaySessionService, *recordingPublisher, string) {
	t.Helper()
	publisher := &recordingPublisher{}
	path := filepath.Join(t.TempDir(), "pathway.md")
	svc := NewPathwaySessionService(memory.NewSessionRepository(), publisher, path, nopLogger{})
	return svc, publisher, path
}

func TestCreateAndGet(t *testing.T) {
	svc, _, _ := newPathwayFixture(t)
	ctx := context.Background()

	created := svc.Create(ctx, &dto.CreatePathwayRequest{Title: "Sepsis triage"})
	require.NotEqual(t, uuid.Nil, created.Id)

	got, err := svc.Get(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "Sepsis triage", got.Title)
	assert.Empty(t, got.EvidenceItems)
	assert.Nil(t, got.UpdatedAt)
}

func TestGetUnknownSession(t *testing.T) {
	svc, _, _ := newPathwayFixture(t)

	_, err := svc.Get(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestUpdateFieldStripsDiagramFence(t *testing.T) {
	svc, _, _ := newPathwayFixture(t)
	ctx := context.Background()
	created := svc.Create(ctx, &dto.CreatePathwayRequest{Title: "Fence"})

	res, err := svc.UpdateField(ctx, created.Id, &dto.UpdatePathwayFieldRequest{
		Field: "diagram",
		Value: "```mermaid\ngraph TD; A-->B;\n```",
	})
	require.NoError(t, err)

	assert.Equal(t, "graph TD; A-->B;", res.DiagramSource)
	assert.NotNil(t, res.UpdatedAt)
}

func TestUpdateFieldNormalizesEdgeNewlines(t *testing.T) {
	// Leading/trailing newlines would be lost on the document round trip,
	// so they are dropped at write time: what is stored is what reloads.
	svc, _, path := newPathwayFixture(t)
	ctx := context.Background()
	created := svc.Create(ctx, &dto.CreatePathwayRequest{Title: "Edges"})

	res, err := svc.UpdateField(ctx, created.Id, &dto.UpdatePathwayFieldRequest{
		Field: "logic",
		Value: "line one\n\n",
	})
	require.NoError(t, err)
	assert.Equal(t, "line one", res.Logic)

	// Interior blank lines are content and survive save/load verbatim.
	_, err = svc.UpdateField(ctx, created.Id, &dto.UpdatePathwayFieldRequest{
		Field: "testing",
		Value: "\nScenarios: one\n\nMitigation: two\n",
	})
	require.NoError(t, err)

	_, err = svc.Save(ctx, created.Id, path)
	require.NoError(t, err)
	loaded, err := svc.Load(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, "line one", loaded.Logic)
	assert.Equal(t, "Scenarios: one\n\nMitigation: two", loaded.Testing)
}

func TestUpdateFieldRejectsUnknown(t *testing.T) {
	svc, _, _ := newPathwayFixture(t)
	ctx := context.Background()
	created := svc.Create(ctx, &dto.CreatePathwayRequest{Title: "X"})

	_, err := svc.UpdateField(ctx, created.Id, &dto.UpdatePathwayFieldRequest{
		Field: "evidence",
		Value: "not a field",
	})
	assert.Error(t, err)
}

func TestAppendEvidenceKeepsDuplicates(t *testing.T) {
	svc, _, _ := newPathwayFixture(t)
	ctx := context.Background()
	created := svc.Create(ctx, &dto.CreatePathwayRequest{Title: "Dups"})

	req := &dto.AppendEvidenceRequest{Point: "Lactate>2", Citation: "Smith 2020"}
	first, err := svc.AppendEvidence(ctx, created.Id, req)
	require.NoError(t, err)
	second, err := svc.AppendEvidence(ctx, created.Id, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.Id, second.Id)
	assert.Equal(t, constant.VerificationPending, first.Verification)

	got, err := svc.Get(ctx, created.Id)
	require.NoError(t, err)
	require.Len(t, got.EvidenceItems, 2)
	assert.Equal(t, "Lactate>2", got.EvidenceItems[0].Point)
	assert.Equal(t, "Lactate>2", got.EvidenceItems[1].Point)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	svc, _, path := newPathwayFixture(t)
	ctx := context.Background()
	created := svc.Create(ctx, &dto.CreatePathwayRequest{Title: "Round trip"})

	_, err := svc.UpdateField(ctx, created.Id, &dto.UpdatePathwayFieldRequest{
		Field: "scope",
		Value: "Condition: Sepsis\nPopulation: Adults",
	})
	require.NoError(t, err)
	_, err = svc.AppendEvidence(ctx, created.Id, &dto.AppendEvidenceRequest{
		Point: "Lactate>2", Citation: "Smith 2020", Verification: "Verified",
	})
	require.NoError(t, err)

	saved, err := svc.Save(ctx, created.Id, "")
	require.NoError(t, err)
	assert.Equal(t, path, saved.Path)

	loaded, err := svc.Load(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "Round trip", loaded.Title)
	assert.Equal(t, "Condition: Sepsis\nPopulation: Adults", loaded.Scope)
	require.Len(t, loaded.EvidenceItems, 1)
	assert.Equal(t, "Verified", loaded.EvidenceItems[0].Verification)
}

func TestSaveSurfacesFileError(t *testing.T) {
	svc, _, _ := newPathwayFixture(t)
	ctx := context.Background()
	created := svc.Create(ctx, &dto.CreatePathwayRequest{Title: "Bad path"})

	_, err := svc.Save(ctx, created.Id, filepath.Join(t.TempDir(), "missing", "dir", "pathway.md"))
	assert.Error(t, err)
}

func TestLoadMissingDocument(t *testing.T) {
	svc, _, _ := newPathwayFixture(t)

	_, err := svc.Load(context.Background(), filepath.Join(t.TempDir(), "nothing.md"))
	assert.Error(t, err)
}

func TestCheckpointPublishesRenderedDocument(t *testing.T) {
	svc, publisher, path := newPathwayFixture(t)
	ctx := context.Background()
	created := svc.Create(ctx, &dto.CreatePathwayRequest{Title: "Checkpointed"})

	svc.Checkpoint(ctx, created.Id)

	require.Len(t, publisher.payloads, 1)
	var msg dto.PublishCheckpointMessage
	require.NoError(t, json.Unmarshal(publisher.payloads[0], &msg))
	assert.Equal(t, created.Id, msg.SessionId)
	assert.Equal(t, path, msg.Path)
	assert.Contains(t, msg.Document, "# Clinical Pathway: Checkpointed")

	// The consumer writes the file, not the publisher.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestCheckpointPublishFailureIsSwallowed(t *testing.T) {
	svc, publisher, _ := newPathwayFixture(t)
	publisher.fail = true
	ctx := context.Background()
	created := svc.Create(ctx, &dto.CreatePathwayRequest{Title: "Lossy"})

	// Must not panic or error out; the next mutation re-checkpoints.
	svc.Checkpoint(ctx, created.Id)
	assert.Empty(t, publisher.payloads)
}

func TestCheckpointUnknownSessionIsNoop(t *testing.T) {
	svc, publisher, _ := newPathwayFixture(t)

	svc.Checkpoint(context.Background(), uuid.New())
	assert.Empty(t, publisher.payloads)
}

func TestCreateDemoSeedsScope(t *testing.T) {
	svc, _, _ := newPathwayFixture(t)
	ctx := context.Background()

	created := svc.CreateDemo(ctx)
	got, err := svc.Get(ctx, created.Id)
	require.NoError(t, err)

	assert.Equal(t, "Acute Chest Pain", got.Title)
	assert.Contains(t, got.Scope, "Condition: Acute Chest Pain")
	assert.Contains(t, got.Scope, "Objectives:")
}

func TestProgressCountsCompletedSections(t *testing.T) {
	svc, _, _ := newPathwayFixture(t)
	ctx := context.Background()
	created := svc.Create(ctx, &dto.CreatePathwayRequest{Title: "Progress"})

	progress, err := svc.Progress(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, 0, progress.Complete)
	assert.Equal(t, 6, progress.Total)

	_, err = svc.UpdateField(ctx, created.Id, &dto.UpdatePathwayFieldRequest{Field: "scope", Value: "something"})
	require.NoError(t, err)

	progress, err = svc.Progress(ctx, created.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, progress.Complete)
}

func TestDeleteRemovesSession(t *testing.T) {
	svc, _, _ := newPathwayFixture(t)
	ctx := context.Background()
	created := svc.Create(ctx, &dto.CreatePathwayRequest{Title: "Gone"})

	svc.Delete(ctx, created.Id)
	_, err := svc.Get(ctx, created.Id)
	assert.Error(t, err)
}
