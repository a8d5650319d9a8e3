package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/openclaw/ragmem/internal/core/domain"
	"github.com/openclaw/ragmem/internal/core/ports/driven"
	"github.com/openclaw/ragmem/internal/core/ports/driving"
	"github.com/openclaw/ragmem/internal/logger"
	"github.com/openclaw/ragmem/internal/rerank"
)

// Ensure AnswerPipeline implements the interface.
var _ driving.AnswerService = (*AnswerPipeline)(nil)

// groundingInstruction is the fixed system prompt for answer
// generation.
const groundingInstruction = "Answer based on the provided context. If the context doesn't contain " +
	"enough information, say so. Include references to source files when relevant."

// noResultsMessage is the terminal answer text for an empty candidate
// pool.
const noResultsMessage = "No relevant documents found for your query."

// AnswerPipeline runs retrieve, rerank, prompt assembly and
// generation as a single-shot query.
type AnswerPipeline struct {
	retriever driven.Retriever
	generator driven.Generator
	cfg       domain.Config
}

// NewAnswerPipeline creates an answer pipeline.
func NewAnswerPipeline(retriever driven.Retriever, generator driven.Generator, cfg domain.Config) *AnswerPipeline {
	return &AnswerPipeline{retriever: retriever, generator: generator, cfg: cfg}
}

// Answer runs the full pipeline. An empty retrieval pool is a valid
// terminal state (NoResults), not an error; any other failure surfaces
// as a *domain.PipelineError naming the stage.
func (p *AnswerPipeline) Answer(ctx context.Context, query string, opts driving.AnswerOptions) (*domain.Answer, error) {
	bucket := p.cfg.Bucket
	if opts.Bucket != "" {
		bucket = opts.Bucket
	}
	model := p.cfg.Model
	if opts.Model != "" {
		model = opts.Model
	}
	keepN := p.cfg.AnswerNumDocs
	if opts.KeepN > 0 {
		keepN = opts.KeepN
	}

	// 1. Retrieve an oversampled candidate pool
	candidates, err := p.retriever.Search(ctx, bucket, query, p.cfg.RetrieveNumDocs)
	if err != nil {
		return nil, &domain.PipelineError{Stage: domain.StageRetrieval, Err: err}
	}
	if len(candidates) == 0 {
		logger.Info("No candidates retrieved for query")
		return &domain.Answer{
			Text:      noResultsMessage,
			Sources:   []string{},
			NoResults: true,
		}, nil
	}
	logger.Debug("Retrieved %d candidates", len(candidates))

	// 2. Rerank down to the context budget
	ranked := rerank.Rerank(query, candidates, keepN, p.cfg.PriorityPrefixes)

	// 3. Assemble the grounded prompt and generate
	messages := buildPrompt(query, ranked)
	text, err := p.generator.Complete(ctx, model, messages)
	if err != nil {
		return nil, &domain.PipelineError{Stage: domain.StageGeneration, Err: err}
	}

	answer := &domain.Answer{
		Text:            text,
		Model:           model,
		Sources:         uniqueSources(ranked),
		ChunksUsed:      len(ranked),
		ChunksRetrieved: len(candidates),
	}
	if opts.IncludeContext {
		answer.Context = ranked
	}
	return answer, nil
}

// buildPrompt assembles the grounding instruction plus a numbered
// context block, separated from the question by a visible divider.
func buildPrompt(query string, chunks []domain.ScoredChunk) []domain.ChatMessage {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[%d] Source: %s\n%s", i+1, c.Source, c.Content)
	}
	contextBlock := strings.Join(parts, "\n\n---\n\n")

	return []domain.ChatMessage{
		{Role: "system", Content: groundingInstruction},
		{Role: "user", Content: fmt.Sprintf("Context:\n\n%s\n\n---\n\nQuestion: %s", contextBlock, query)},
	}
}

// uniqueSources collects cited sources in first-seen order. Citations
// come from the accepted chunk set, never from the generated text.
func uniqueSources(chunks []domain.ScoredChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	sources := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if _, ok := seen[c.Source]; ok {
			continue
		}
		seen[c.Source] = struct{}{}
		sources = append(sources, c.Source)
	}
	return sources
}
