package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"carepathiq-be/internal/dto"
	"carepathiq-be/pkg/pubmed"
)

func pubmedFake(t *testing.T, handler http.HandlerFunc) *pubmed.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return pubmed.NewClient(server.URL+"/", "carepathiq-test", "dev@example.com")
}

func TestEvidenceSearchMapsCitations(t *testing.T) {
	client := pubmedFake(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			w.Write([]byte(`{"esearchresult":{"idlist":["42"]}}`))
		case "/esummary.fcgi":
			w.Write([]byte(`{"result":{"uids":["42"],"42":{"uid":"42","title":"Troponin pathways","authors":[{"name":"Jones P"}],"pubdate":"2019 Jun","source":"Lancet"}}}`))
		}
	})
	svc := NewEvidenceService(client, 3, nopLogger{})

	res := svc.Search(context.Background(), &dto.EvidenceSearchRequest{
		Condition: "Acute Chest Pain",
		Point:     "Troponin at arrival",
	})

	assert.Equal(t, "(Acute Chest Pain) AND (Troponin at arrival) AND (Guideline[pt] OR Systematic Review[pt])", res.Query)
	assert.Empty(t, res.Note)
	require.Len(t, res.Citations, 1)
	assert.Equal(t, "42", res.Citations[0].UID)
	assert.Equal(t, "Jones P et al. (2019). Troponin pathways. Lancet.", res.Citations[0].Citation)
}

func TestEvidenceSearchVerbatimQueryWins(t *testing.T) {
	var seenTerm string
	client := pubmedFake(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/esearch.fcgi" {
			seenTerm = r.URL.Query().Get("term")
		}
		w.Write([]byte(`{"esearchresult":{"idlist":[]}}`))
	})
	svc := NewEvidenceService(client, 3, nopLogger{})

	res := svc.Search(context.Background(), &dto.EvidenceSearchRequest{
		Query:     "sepsis bundles",
		Condition: "ignored",
		Point:     "ignored too",
	})

	assert.Equal(t, "sepsis bundles", seenTerm)
	assert.Equal(t, "sepsis bundles", res.Query)
}

func TestEvidenceSearchFailureReturnsEmptyWithNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()
	client := pubmed.NewClient(server.URL+"/", "carepathiq-test", "dev@example.com")
	svc := NewEvidenceService(client, 3, nopLogger{})

	res := svc.Search(context.Background(), &dto.EvidenceSearchRequest{Query: "sepsis"})

	// Remote failure never becomes an error; the caller shows the note.
	require.NotNil(t, res)
	assert.Empty(t, res.Citations)
	assert.Equal(t, "Literature lookup failed; please try again.", res.Note)
}

func TestEvidenceSearchZeroHitsNote(t *testing.T) {
	client := pubmedFake(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"esearchresult":{"idlist":[]}}`))
	})
	svc := NewEvidenceService(client, 3, nopLogger{})

	res := svc.Search(context.Background(), &dto.EvidenceSearchRequest{Query: "xyzzy"})

	assert.Empty(t, res.Citations)
	assert.Equal(t, "No records matched this query.", res.Note)
}

func TestEvidenceSearchDefaultRetMax(t *testing.T) {
	var seenRetMax string
	client := pubmedFake(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/esearch.fcgi" {
			seenRetMax = r.URL.Query().Get("retmax")
		}
		w.Write([]byte(`{"esearchresult":{"idlist":[]}}`))
	})
	svc := NewEvidenceService(client, 3, nopLogger{})

	svc.Search(context.Background(), &dto.EvidenceSearchRequest{Query: "sepsis"})
	assert.Equal(t, "3", seenRetMax)

	svc.Search(context.Background(), &dto.EvidenceSearchRequest{Query: "sepsis", RetMax: 7})
	assert.Equal(t, "7", seenRetMax)
}
