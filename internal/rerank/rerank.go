// Package rerank rescores a similarity-search candidate pool by
// combining retrieval certainty, TF-IDF weighted lexical overlap with
// the query and source-priority rank, then suppresses near-duplicate
// sibling chunks while collecting the top results.
//
// Reranking is deterministic: identical inputs always produce the
// same output ordering (ties keep the original candidate order).
package rerank

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/openclaw/ragmem/internal/core/domain"
	"github.com/openclaw/ragmem/internal/tokeniser"
)

// Combined score weights.
const (
	certaintyWeight = 2.0
	overlapWeight   = 1.0
	priorityWeight  = 0.3
)

// duplicateOverlap is the token-set overlap ratio above which two
// adjacent sibling chunks are considered duplicates.
const duplicateOverlap = 0.8

// chunkKeyPattern matches keys produced by the chunker's fan-out.
// Dedup only applies to sources following this naming scheme.
var chunkKeyPattern = regexp.MustCompile(`^(.+)__chunk-(\d+)\.\w+$`)

// Rerank scores the candidates and returns at most keepN chunks in
// descending combined-score order, with adjacent near-duplicate
// sibling chunks suppressed.
func Rerank(query string, candidates []domain.RetrievedChunk, keepN int, priorityPrefixes []string) []domain.ScoredChunk {
	if len(candidates) == 0 || keepN <= 0 {
		return nil
	}

	queryTokens := tokeniser.Tokenise(query)
	idf := idfScores(candidates)

	scored := make([]domain.ScoredChunk, 0, len(candidates))
	for _, c := range candidates {
		overlap := overlapScore(queryTokens, c.Content, idf)
		rank := PriorityRank(c.Source, priorityPrefixes)
		score := certaintyWeight*c.Certainty +
			overlapWeight*overlap +
			priorityWeight/(float64(rank)+1)
		scored = append(scored, domain.ScoredChunk{RetrievedChunk: c, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	result := make([]domain.ScoredChunk, 0, keepN)
	for _, c := range scored {
		if isDuplicateOfAny(c, result) {
			continue
		}
		result = append(result, c)
		if len(result) >= keepN {
			break
		}
	}
	return result
}

// idfScores computes inverse-document-frequency weights per token
// across the candidate set: ln((N+1)/(df+1)) + 1.
func idfScores(candidates []domain.RetrievedChunk) map[string]float64 {
	n := len(candidates)
	df := make(map[string]int)
	for _, c := range candidates {
		for tok := range tokeniser.TokenSet(c.Content) {
			df[tok]++
		}
	}

	idf := make(map[string]float64, len(df))
	for tok, count := range df {
		idf[tok] = math.Log(float64(n+1)/float64(count+1)) + 1
	}
	return idf
}

// overlapScore sums tf*idf over the query tokens present in the
// candidate. Term frequency is relative to the candidate's length.
func overlapScore(queryTokens []string, content string, idf map[string]float64) float64 {
	docTokens := tokeniser.Tokenise(content)
	if len(docTokens) == 0 {
		return 0
	}

	counts := make(map[string]int, len(docTokens))
	for _, tok := range docTokens {
		counts[tok]++
	}

	total := float64(len(docTokens))
	score := 0.0
	for _, qt := range queryTokens {
		count, ok := counts[qt]
		if !ok {
			continue
		}
		weight, ok := idf[qt]
		if !ok {
			weight = 1.0
		}
		score += float64(count) / total * weight
	}
	return score
}

// PriorityRank returns the index of the first configured prefix the
// source starts with; sources matching none rank last.
func PriorityRank(source string, prefixes []string) int {
	for i, prefix := range prefixes {
		if strings.HasPrefix(source, prefix) {
			return i
		}
	}
	return len(prefixes)
}

// isDuplicateOfAny reports whether the candidate is an adjacent
// near-duplicate of any already-accepted chunk.
func isDuplicateOfAny(c domain.ScoredChunk, accepted []domain.ScoredChunk) bool {
	for i := range accepted {
		if isAdjacentDuplicate(c.RetrievedChunk, accepted[i].RetrievedChunk) {
			return true
		}
	}
	return false
}

// isAdjacentDuplicate reports whether two chunks are siblings from the
// same source document with ordinals at most one apart and a token-set
// overlap above the duplicate threshold. Chunks from sources that do
// not follow the chunk-key naming scheme are never deduplicated.
func isAdjacentDuplicate(a, b domain.RetrievedChunk) bool {
	ma := chunkKeyPattern.FindStringSubmatch(a.Source)
	mb := chunkKeyPattern.FindStringSubmatch(b.Source)
	if ma == nil || mb == nil || ma[1] != mb[1] {
		return false
	}

	ordA, errA := strconv.Atoi(ma[2])
	ordB, errB := strconv.Atoi(mb[2])
	if errA != nil || errB != nil {
		return false
	}
	if diff := ordA - ordB; diff > 1 || diff < -1 {
		return false
	}

	setA := tokeniser.TokenSet(a.Content)
	setB := tokeniser.TokenSet(b.Content)
	if len(setA) == 0 || len(setB) == 0 {
		return false
	}

	shared := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			shared++
		}
	}
	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	return float64(shared)/float64(smaller) > duplicateOverlap
}
