package domain

import "time"

// Config holds all tunables for the sync and query pipelines. It is
// loaded once at startup and passed explicitly into each component;
// there is no process-wide mutable configuration.
type Config struct {
	// Bucket is the object storage bucket holding the synced corpus.
	Bucket string `toml:"bucket"`

	// Region is the storage region used for request signing.
	Region string `toml:"region"`

	// Workspace is the local sync root.
	Workspace string `toml:"workspace"`

	// Patterns are glob patterns, relative to Workspace, selecting the
	// files to sync.
	Patterns []string `toml:"patterns"`

	// Exclude are glob patterns removing matches from the sync set.
	Exclude []string `toml:"exclude"`

	// PriorityPrefixes rank sources during rerank; earlier entries win.
	PriorityPrefixes []string `toml:"priority_prefixes"`

	// ChunkSize is the chunk budget in estimated tokens.
	ChunkSize int `toml:"chunk_size"`

	// RetrieveNumDocs is the oversampled candidate pool size fetched
	// before reranking.
	RetrieveNumDocs int `toml:"retrieve_num_docs"`

	// AnswerNumDocs is the number of chunks kept after reranking.
	AnswerNumDocs int `toml:"answer_num_docs"`

	// SearchNumDocs is the default result count for plain search.
	SearchNumDocs int `toml:"search_num_docs"`

	// Model is the chat completion model used for answers.
	Model string `toml:"model"`

	// MaxRetries bounds attempts against the AI endpoints for
	// transient failures.
	MaxRetries int `toml:"max_retries"`

	// RetryBaseDelay is the first backoff delay; later attempts double
	// it. Configured in the file as retry_base_delay_secs.
	RetryBaseDelay time.Duration `toml:"-"`

	// WatchInterval is the minimum spacing between watch-mode sync
	// passes. Configured in the file as watch_interval_secs.
	WatchInterval time.Duration `toml:"-"`
}

// DefaultConfig returns the built-in configuration. Values mirror a
// typical agent-memory workspace layout.
func DefaultConfig() Config {
	return Config{
		Bucket:    "ragmem-memory",
		Region:    "us-central-1",
		Workspace: ".",
		Patterns: []string{
			"MEMORY.md",
			"memory/*.md",
			"knowledge/*.json",
			"knowledge/*.md",
			"docs/*.md",
		},
		Exclude: []string{
			"*.tmp",
			"*~",
			".git/*",
			"node_modules/*",
		},
		PriorityPrefixes: []string{"memory/", "MEMORY.md"},
		ChunkSize:        800,
		RetrieveNumDocs:  20,
		AnswerNumDocs:    8,
		SearchNumDocs:    5,
		Model:            "meta-llama/Meta-Llama-3.1-70B-Instruct",
		MaxRetries:       3,
		RetryBaseDelay:   time.Second,
		WatchInterval:    2 * time.Second,
	}
}
