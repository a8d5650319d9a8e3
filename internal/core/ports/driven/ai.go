package driven

import (
	"context"

	"github.com/openclaw/ragmem/internal/core/domain"
)

// Retriever performs similarity search over an embedded bucket and
// returns candidates in the canonical normalised shape. It may return
// fewer than numDocs results; an empty result is valid.
type Retriever interface {
	Search(ctx context.Context, bucket, query string, numDocs int) ([]domain.RetrievedChunk, error)
}

// Generator produces a chat completion for the assembled prompt.
type Generator interface {
	Complete(ctx context.Context, model string, messages []domain.ChatMessage) (string, error)
}

// EmbeddingTask reports the progress of a bucket embedding run.
type EmbeddingTask struct {
	ID       string
	Status   string
	Progress float64
	Detail   string
}

// Embedder triggers and inspects bucket embedding on the external
// service.
type Embedder interface {
	TriggerEmbedding(ctx context.Context, bucket string) (string, error)
	EmbeddingStatus(ctx context.Context, taskID string) (*EmbeddingTask, error)
}
