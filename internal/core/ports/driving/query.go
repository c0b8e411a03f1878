package driving

import (
	"context"

	"github.com/custodia-labs/docuquery/internal/core/domain"
)

// QueryService answers natural-language questions from the corpus.
type QueryService interface {
	// Query retrieves up to topK chunks and composes a grounded answer.
	Query(ctx context.Context, question string, topK int) (*domain.Answer, error)

	// Retrieve returns ranked chunks without generating an answer.
	Retrieve(ctx context.Context, question string, topK int) (domain.RetrievalResult, error)
}
