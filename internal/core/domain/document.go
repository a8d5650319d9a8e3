package domain

// Format tags how a source document's content should be chunked.
type Format string

const (
	// FormatProse is markdown-like text split on headings and paragraphs.
	FormatProse Format = "prose"

	// FormatStructured is a JSON export of timestamped, authored records
	// (conversation logs), grouped record-by-record.
	FormatStructured Format = "structured"
)

// SourceDocument is a local file tracked by the sync engine.
type SourceDocument struct {
	// Path is the absolute location on disk.
	Path string

	// Key is the object key relative to the workspace root. Unique
	// within a sync root.
	Key string
}

// Format derives the chunking format from the document key.
// JSON files are treated as structured record exports; everything
// else is chunked as prose.
func (d SourceDocument) Format() Format {
	if hasExt(d.Key, ".json") {
		return FormatStructured
	}
	return FormatProse
}

func hasExt(key, ext string) bool {
	if len(key) < len(ext) {
		return false
	}
	return key[len(key)-len(ext):] == ext
}

// Chunk is one bounded-size, addressable slice of a source document,
// ready to be stored as an object.
type Chunk struct {
	// Key is the object key. Equal to the source key for pass-through
	// documents, otherwise derived as <base>__chunk-NNN.md.
	Key string

	// Content is the chunk body, prefixed with a metadata header when
	// the document was split into multiple chunks.
	Content string

	// Title is the section heading or derived label for the chunk.
	// Empty for pass-through documents.
	Title string

	// Tokens is the estimated token count of the content.
	Tokens int
}

// RetrievedChunk is the canonical shape of a similarity-search hit.
// It exists only for the duration of one query.
type RetrievedChunk struct {
	Content   string  `json:"content"`
	Source    string  `json:"source"`
	Certainty float64 `json:"certainty"`
}

// ScoredChunk is a retrieved chunk with its combined rerank score.
type ScoredChunk struct {
	RetrievedChunk

	// Score is the combined rerank score (certainty, lexical overlap
	// and source priority).
	Score float64 `json:"score"`
}
