package service

import (
	"context"

	"carepathiq-be/internal/dto"
	"carepathiq-be/internal/metrics"
	"carepathiq-be/internal/pkg/logger"
	"carepathiq-be/pkg/pubmed"
)

// IEvidenceService runs the two-step literature lookup. A failed or empty
// lookup comes back as an empty citation list with a human-readable note;
// the remote call never surfaces as an error to the interactive flow.
type IEvidenceService interface {
	Search(ctx context.Context, request *dto.EvidenceSearchRequest) *dto.EvidenceSearchResponse
}

type evidenceService struct {
	client        *pubmed.Client
	defaultRetMax int
	logger        logger.ILogger
}

func NewEvidenceService(client *pubmed.Client, defaultRetMax int, log logger.ILogger) IEvidenceService {
	return &evidenceService{
		client:        client,
		defaultRetMax: defaultRetMax,
		logger:        log,
	}
}

func (s *evidenceService) Search(ctx context.Context, request *dto.EvidenceSearchRequest) *dto.EvidenceSearchResponse {
	query := request.Query
	if query == "" {
		query = pubmed.BuildQuery(request.Condition, request.Point)
	}

	retMax := request.RetMax
	if retMax <= 0 {
		retMax = s.defaultRetMax
	}

	summaries, err := s.client.Search(ctx, query, retMax)
	if err != nil {
		// Single-user interactive tool: the user sees the note and simply
		// retries, so no retry/backoff here.
		s.logger.Warn("EvidenceService", "Literature lookup failed", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		metrics.EvidenceLookups.WithLabelValues("failed").Inc()
		return &dto.EvidenceSearchResponse{
			Query:     query,
			Citations: []dto.CitationDTO{},
			Note:      "Literature lookup failed; please try again.",
		}
	}

	if len(summaries) == 0 {
		metrics.EvidenceLookups.WithLabelValues("empty").Inc()
		return &dto.EvidenceSearchResponse{
			Query:     query,
			Citations: []dto.CitationDTO{},
			Note:      "No records matched this query.",
		}
	}

	citations := make([]dto.CitationDTO, 0, len(summaries))
	for _, sum := range summaries {
		citations = append(citations, dto.CitationDTO{
			UID:      sum.UID,
			Citation: sum.Citation(),
			Title:    sum.Title,
			Source:   sum.Source,
			Year:     sum.Year,
		})
	}

	metrics.EvidenceLookups.WithLabelValues("hit").Inc()
	return &dto.EvidenceSearchResponse{
		Query:     query,
		Citations: citations,
	}
}
