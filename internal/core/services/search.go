package services

import (
	"context"
	"sort"

	"github.com/openclaw/ragmem/internal/core/domain"
	"github.com/openclaw/ragmem/internal/core/ports/driven"
	"github.com/openclaw/ragmem/internal/core/ports/driving"
	"github.com/openclaw/ragmem/internal/rerank"
)

// Ensure SearchPipeline implements the interface.
var _ driving.SearchService = (*SearchPipeline)(nil)

// SearchPipeline performs retrieval-only queries against the
// similarity-search collaborator.
type SearchPipeline struct {
	retriever driven.Retriever
	cfg       domain.Config
}

// NewSearchPipeline creates a search pipeline.
func NewSearchPipeline(retriever driven.Retriever, cfg domain.Config) *SearchPipeline {
	return &SearchPipeline{retriever: retriever, cfg: cfg}
}

// Search returns raw similarity-search results. With Prioritise set,
// results are reordered by source priority first, certainty second.
func (p *SearchPipeline) Search(ctx context.Context, query string, opts driving.SearchOptions) ([]domain.RetrievedChunk, error) {
	bucket := p.cfg.Bucket
	if opts.Bucket != "" {
		bucket = opts.Bucket
	}
	numDocs := p.cfg.SearchNumDocs
	if opts.NumDocs > 0 {
		numDocs = opts.NumDocs
	}

	results, err := p.retriever.Search(ctx, bucket, query, numDocs)
	if err != nil {
		return nil, &domain.PipelineError{Stage: domain.StageRetrieval, Err: err}
	}

	if opts.Prioritise {
		prefixes := p.cfg.PriorityPrefixes
		sort.SliceStable(results, func(i, j int) bool {
			pi := rerank.PriorityRank(results[i].Source, prefixes)
			pj := rerank.PriorityRank(results[j].Source, prefixes)
			if pi != pj {
				return pi < pj
			}
			return results[i].Certainty > results[j].Certainty
		})
	}
	return results, nil
}
