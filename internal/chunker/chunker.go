// Package chunker splits source documents into bounded-size, titled
// chunks using format-aware strategies: structured-section splitting
// for prose and record grouping for conversational JSON exports.
//
// Chunk keys are deterministic. A document that fits the token budget
// passes through verbatim under its own key; a split document yields
// keys <base>__chunk-001.md .. <base>__chunk-NNN.md with contiguous
// ordinals, so a later pass can replace the full set atomically.
package chunker

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/openclaw/ragmem/internal/core/domain"
	"github.com/openclaw/ragmem/internal/tokeniser"
)

// chunkExt is the extension applied to derived chunk keys.
const chunkExt = ".md"

// piece is an unkeyed chunk candidate produced by a splitting strategy.
type piece struct {
	title string
	body  string

	// extra holds additional metadata header lines (record chunks
	// carry channel, date range and authors).
	extra []string
}

// Chunk splits text into ordered chunks for the given source key.
//
// Empty or whitespace-only input yields no chunks; this is a valid
// result signalling there is nothing to index. A document within the
// budget yields exactly one chunk: its own key, verbatim content and
// no metadata header.
func Chunk(text, sourceKey string, maxTokens int) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if est := tokeniser.EstimateTokens(text); est <= maxTokens {
		return []domain.Chunk{{
			Key:     sourceKey,
			Content: text,
			Tokens:  est,
		}}
	}

	var pieces []piece
	doc := domain.SourceDocument{Key: sourceKey}
	if doc.Format() == domain.FormatStructured {
		var ok bool
		pieces, ok = splitRecords(text, sourceKey, maxTokens)
		if !ok {
			pieces = splitProse(text, maxTokens)
		}
	} else {
		pieces = splitProse(text, maxTokens)
	}

	return assemble(pieces, sourceKey)
}

// assemble attaches metadata headers and deterministic keys. Keys are
// derived only when the pass produced more than one chunk; a single
// over-budget chunk keeps the source key so the stored object set
// stays addressable by source.
func assemble(pieces []piece, sourceKey string) []domain.Chunk {
	total := len(pieces)
	chunks := make([]domain.Chunk, 0, total)

	for i, p := range pieces {
		title := p.title
		if title == "" {
			title = tokeniser.ExtractHeading(p.body)
		}
		if title == "" {
			title = filepath.Base(sourceKey)
		}

		content := metadataHeader(sourceKey, i+1, total, title, p.extra) + "\n\n" + p.body

		key := sourceKey
		if total > 1 {
			key = chunkKey(sourceKey, i+1)
		}

		chunks = append(chunks, domain.Chunk{
			Key:     key,
			Content: content,
			Title:   title,
			Tokens:  tokeniser.EstimateTokens(content),
		})
	}

	return chunks
}

// chunkKey derives the deterministic key for the 1-based ordinal.
func chunkKey(sourceKey string, ordinal int) string {
	ext := filepath.Ext(sourceKey)
	base := strings.TrimSuffix(sourceKey, ext)
	return fmt.Sprintf("%s__chunk-%03d%s", base, ordinal, chunkExt)
}

// metadataHeader builds the YAML-style header prefixed to split chunks.
func metadataHeader(source string, ordinal, total int, title string, extra []string) string {
	lines := []string{"---"}
	lines = append(lines, "source: "+source)
	lines = append(lines, fmt.Sprintf("chunk: %d/%d", ordinal, total))
	if title != "" {
		lines = append(lines, "title: "+title)
	}
	lines = append(lines, extra...)
	lines = append(lines, "---")
	return strings.Join(lines, "\n")
}
