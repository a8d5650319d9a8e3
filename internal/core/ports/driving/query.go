package driving

import (
	"context"

	"github.com/openclaw/ragmem/internal/core/domain"
)

// AnswerOptions carries per-query overrides for the answer pipeline.
type AnswerOptions struct {
	// KeepN overrides the number of chunks kept after reranking.
	KeepN int

	// Model overrides the generation model.
	Model string

	// Bucket overrides the search bucket.
	Bucket string

	// IncludeContext attaches the reranked chunks to the answer.
	IncludeContext bool
}

// AnswerService runs the full retrieval-augmented query pipeline.
type AnswerService interface {
	// Answer retrieves, reranks and generates a grounded answer.
	// Failures are *domain.PipelineError values naming the stage.
	Answer(ctx context.Context, query string, opts AnswerOptions) (*domain.Answer, error)
}

// SearchOptions carries per-query overrides for plain retrieval.
type SearchOptions struct {
	// NumDocs overrides the result count.
	NumDocs int

	// Bucket overrides the search bucket.
	Bucket string

	// Prioritise orders results by source priority before certainty.
	Prioritise bool
}

// SearchService performs retrieval-only queries.
type SearchService interface {
	Search(ctx context.Context, query string, opts SearchOptions) ([]domain.RetrievedChunk, error)
}
