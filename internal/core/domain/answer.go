package domain

// ChatMessage is a single turn in a chat completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Answer is the result of one retrieval-augmented query.
type Answer struct {
	// Text is the generated answer. When NoResults is true it carries
	// the "no relevant documents" message instead of a generation.
	Text string `json:"answer"`

	// Model is the generation model that produced the answer.
	Model string `json:"model,omitempty"`

	// Sources lists the unique source keys of the chunks used, in
	// first-seen order.
	Sources []string `json:"sources"`

	// ChunksUsed is the number of chunks that survived reranking.
	ChunksUsed int `json:"chunks_used"`

	// ChunksRetrieved is the size of the raw candidate pool.
	ChunksRetrieved int `json:"chunks_retrieved"`

	// NoResults is true when retrieval returned an empty pool. This is
	// a valid terminal state, not an error.
	NoResults bool `json:"-"`

	// Context holds the reranked chunks when the caller asked for them.
	Context []ScoredChunk `json:"context,omitempty"`
}
