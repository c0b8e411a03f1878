package services

import (
	"context"
	"time"

	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/ports/driving"
	"github.com/custodia-labs/docuquery/internal/logger"
	"github.com/custodia-labs/docuquery/internal/metrics"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService answers questions by retrieving chunks and composing an
// answer from them. It never mutates shared state.
type QueryService struct {
	retriever *Retriever
	composer  *AnswerComposer
}

// NewQueryService creates a new query service.
func NewQueryService(retriever *Retriever, composer *AnswerComposer) *QueryService {
	return &QueryService{
		retriever: retriever,
		composer:  composer,
	}
}

// Retrieve returns the topK chunks most similar to question.
func (s *QueryService) Retrieve(ctx context.Context, question string, topK int) (domain.RetrievalResult, error) {
	return s.retriever.Retrieve(ctx, question, topK)
}

// Query retrieves the topK chunks for question and composes an answer.
func (s *QueryService) Query(ctx context.Context, question string, topK int) (*domain.Answer, error) {
	start := time.Now()
	logger.Debug("Query: %q, top-k %d", question, topK)

	result, err := s.retriever.Retrieve(ctx, question, topK)
	if err != nil {
		metrics.RecordQuery(metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	answer, err := s.composer.Compose(ctx, result.Query, result)
	if err != nil {
		metrics.RecordQuery(metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	outcome := metrics.OutcomeSuccess
	if result.IsEmpty() {
		outcome = metrics.OutcomeEmpty
	}
	metrics.RecordQuery(outcome, time.Since(start))

	return answer, nil
}
