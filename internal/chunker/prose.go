package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/openclaw/ragmem/internal/tokeniser"
)

var (
	// headingPattern matches depth-2 and depth-3 section headings.
	headingPattern = regexp.MustCompile(`^#{2,3}\s+\S`)

	paragraphSplit = regexp.MustCompile(`\n\s*\n`)
)

// section is a heading plus the body up to the next section boundary.
type section struct {
	heading string
	body    string
}

// splitProse splits markdown-like text on depth-2/3 heading boundaries,
// then sub-splits any section still over the budget on paragraph
// boundaries. Sub-split pieces of a titled section are labelled
// "<heading> (part k)"; untitled content shares the document's first
// heading as a stable title.
func splitProse(text string, maxTokens int) []piece {
	docTitle := tokeniser.ExtractHeading(text)

	sections := splitSections(text)
	if len(sections) == 0 {
		sections = []section{{body: text}}
	}

	var pieces []piece
	for _, sec := range sections {
		heading := sec.heading
		titled := heading != ""
		if !titled {
			heading = docTitle
		}

		if tokeniser.EstimateTokens(sec.body) <= maxTokens {
			pieces = append(pieces, piece{title: heading, body: sec.body})
			continue
		}

		parts := splitParagraphs(sec.body, maxTokens)
		for k, part := range parts {
			title := heading
			if len(parts) > 1 && titled {
				title = fmt.Sprintf("%s (part %d)", heading, k+1)
			}
			pieces = append(pieces, piece{title: title, body: part})
		}
	}

	return pieces
}

// splitSections walks the text line by line, starting a new section at
// every depth-2/3 heading. Content before the first heading becomes an
// untitled leading section.
func splitSections(text string) []section {
	var (
		sections []section
		heading  string
		body     []string
	)

	flush := func() {
		trimmed := strings.TrimSpace(strings.Join(body, "\n"))
		if trimmed != "" {
			sections = append(sections, section{heading: heading, body: trimmed})
		}
		body = body[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if headingPattern.MatchString(line) {
			flush()
			heading = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#"))
			continue
		}
		body = append(body, line)
	}
	flush()

	return sections
}

// splitParagraphs accumulates blank-line-delimited blocks into pieces,
// starting a new piece when adding the next paragraph would exceed the
// budget. A single oversized paragraph still becomes one piece.
func splitParagraphs(text string, maxTokens int) []string {
	var (
		parts   []string
		current []string
		tokens  int
	)

	for _, para := range paragraphSplit.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		pt := tokeniser.EstimateTokens(para)
		if len(current) > 0 && tokens+pt > maxTokens {
			parts = append(parts, strings.Join(current, "\n\n"))
			current = []string{para}
			tokens = pt
		} else {
			current = append(current, para)
			tokens += pt
		}
	}
	if len(current) > 0 {
		parts = append(parts, strings.Join(current, "\n\n"))
	}

	if len(parts) == 0 {
		return []string{text}
	}
	return parts
}
