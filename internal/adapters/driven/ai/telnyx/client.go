// Package telnyx implements the AI ports against the Telnyx inference
// API: similarity search for retrieval, chat completions for answer
// generation and the bucket embedding endpoints.
package telnyx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/openclaw/ragmem/internal/core/domain"
	"github.com/openclaw/ragmem/internal/core/ports/driven"
	"github.com/openclaw/ragmem/internal/logger"
)

// Ensure Client implements the interfaces.
var (
	_ driven.Retriever = (*Client)(nil)
	_ driven.Generator = (*Client)(nil)
	_ driven.Embedder  = (*Client)(nil)
)

// Default configuration values.
const (
	DefaultBaseURL   = "https://api.telnyx.com/v2"
	DefaultTimeout   = 60 * time.Second
	DefaultMaxTokens = 2048

	// defaultRequestsPerSecond bounds the request rate against the
	// inference API.
	defaultRequestsPerSecond = 5
)

const userAgent = "ragmem/1.0"

// Config holds configuration for the Telnyx AI client.
type Config struct {
	// APIKey is the Telnyx API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.telnyx.com/v2).
	BaseURL string

	// MaxRetries bounds attempts for transient failures (default 3).
	MaxRetries int

	// RetryBaseDelay is the first backoff delay; later attempts double
	// it (default 1s).
	RetryBaseDelay time.Duration

	// Timeout is the per-request timeout (default 60s).
	Timeout time.Duration
}

// Client calls the Telnyx AI endpoints with bounded retries and a
// token-bucket rate limiter. Only transport errors and 5xx responses
// are retried; 4xx responses surface immediately.
type Client struct {
	client         *http.Client
	baseURL        string
	apiKey         string
	maxRetries     int
	retryBaseDelay time.Duration
	limiter        *rate.Limiter
}

// NewClient creates a new Telnyx AI client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("telnyx: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client:         &http.Client{Timeout: cfg.Timeout},
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		maxRetries:     cfg.MaxRetries,
		retryBaseDelay: cfg.RetryBaseDelay,
		limiter:        rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultRequestsPerSecond),
	}, nil
}

// similaritySearchRequest is the similarity-search request format.
type similaritySearchRequest struct {
	BucketName string `json:"bucket_name"`
	Query      string `json:"query"`
	NumDocs    int    `json:"num_docs"`
}

// similaritySearchResponse is the similarity-search response format.
// The shape varies between API versions, so every field the
// normalisation needs is optional.
type similaritySearchResponse struct {
	Data []struct {
		DocumentChunk string   `json:"document_chunk"`
		Content       string   `json:"content"`
		FileName      string   `json:"file_name"`
		Certainty     *float64 `json:"certainty"`
		Metadata      struct {
			Filename  string   `json:"filename"`
			Certainty *float64 `json:"certainty"`
		} `json:"metadata"`
	} `json:"data"`
}

// Search performs a similarity search over the bucket and normalises
// the results. Field precedence: document_chunk over content,
// metadata.filename over file_name, metadata.certainty over the
// top-level certainty.
func (c *Client) Search(ctx context.Context, bucket, query string, numDocs int) ([]domain.RetrievedChunk, error) {
	body, err := c.post(ctx, "/ai/embeddings/similarity-search", similaritySearchRequest{
		BucketName: bucket,
		Query:      query,
		NumDocs:    numDocs,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	var resp similaritySearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("similarity search: decode response: %w", err)
	}

	chunks := make([]domain.RetrievedChunk, 0, len(resp.Data))
	for _, doc := range resp.Data {
		content := doc.DocumentChunk
		if content == "" {
			content = doc.Content
		}
		if content == "" {
			logger.Warn("Dropping similarity-search result with no content field")
			continue
		}
		source := doc.Metadata.Filename
		if source == "" {
			source = doc.FileName
		}
		if source == "" {
			source = "unknown"
		}
		certainty := 0.0
		switch {
		case doc.Metadata.Certainty != nil:
			certainty = *doc.Metadata.Certainty
		case doc.Certainty != nil:
			certainty = *doc.Certainty
		}
		chunks = append(chunks, domain.RetrievedChunk{
			Content:   content,
			Source:    source,
			Certainty: certainty,
		})
	}
	return chunks, nil
}

// chatCompletionRequest is the chat completions request format.
type chatCompletionRequest struct {
	Model       string               `json:"model"`
	Messages    []domain.ChatMessage `json:"messages"`
	MaxTokens   int                  `json:"max_tokens"`
	Temperature float64              `json:"temperature"`
}

// chatCompletionResponse is the chat completions response format.
type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete produces a chat completion for the assembled prompt.
func (c *Client) Complete(ctx context.Context, model string, messages []domain.ChatMessage) (string, error) {
	body, err := c.post(ctx, "/ai/chat/completions", chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   DefaultMaxTokens,
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("chat completion: decode response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// embeddingResponse wraps the embedding task endpoints.
type embeddingResponse struct {
	Data struct {
		TaskID   string  `json:"task_id"`
		Status   string  `json:"status"`
		Progress float64 `json:"progress"`
		Error    string  `json:"error"`
	} `json:"data"`
}

// TriggerEmbedding starts an embedding run over the bucket and
// returns the task ID.
func (c *Client) TriggerEmbedding(ctx context.Context, bucket string) (string, error) {
	body, err := c.post(ctx, "/ai/embeddings", map[string]string{"bucket_name": bucket})
	if err != nil {
		return "", fmt.Errorf("trigger embedding: %w", err)
	}

	var resp embeddingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("trigger embedding: decode response: %w", err)
	}
	return resp.Data.TaskID, nil
}

// EmbeddingStatus reports the progress of an embedding task.
func (c *Client) EmbeddingStatus(ctx context.Context, taskID string) (*driven.EmbeddingTask, error) {
	body, err := c.get(ctx, "/ai/embeddings/"+taskID)
	if err != nil {
		return nil, fmt.Errorf("embedding status: %w", err)
	}

	var resp embeddingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("embedding status: decode response: %w", err)
	}
	task := &driven.EmbeddingTask{
		ID:       taskID,
		Status:   resp.Data.Status,
		Progress: resp.Data.Progress,
		Detail:   resp.Data.Error,
	}
	if task.Status == "" {
		task.Status = "unknown"
	}
	return task, nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return c.doWithRetry(ctx, http.MethodPost, path, jsonBody)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	return c.doWithRetry(ctx, http.MethodGet, path, nil)
}

// telnyxError is the error envelope returned on 4xx responses.
type telnyxError struct {
	Errors []struct {
		Detail string `json:"detail"`
		Title  string `json:"title"`
	} `json:"errors"`
}

// doWithRetry sends the request, retrying transport errors and 5xx
// responses with exponential backoff. 4xx responses are never retried.
func (c *Client) doWithRetry(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryBaseDelay << (attempt - 1)
			logger.Debug("Retrying %s %s in %s (attempt %d/%d)", method, path, delay, attempt+1, c.maxRetries)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		respBody, status, err := c.do(ctx, method, path, body)
		if err != nil {
			lastErr = err
			continue
		}
		switch {
		case status >= 200 && status < 300:
			return respBody, nil
		case status >= 500:
			lastErr = fmt.Errorf("status %d", status)
			continue
		default:
			return nil, fmt.Errorf("%w (status %d): %s", domain.ErrClientRejected, status, clientErrorDetail(respBody))
		}
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrRetriesExhausted, lastErr)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return respBody, resp.StatusCode, nil
}

// clientErrorDetail extracts the human-readable detail from a Telnyx
// error envelope, falling back to the raw body.
func clientErrorDetail(body []byte) string {
	var te telnyxError
	if err := json.Unmarshal(body, &te); err == nil && len(te.Errors) > 0 {
		if te.Errors[0].Detail != "" {
			return te.Errors[0].Detail
		}
		if te.Errors[0].Title != "" {
			return te.Errors[0].Title
		}
	}
	return string(body)
}
