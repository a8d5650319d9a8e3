package telnyx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/ragmem/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		APIKey:         "KEY_test",
		BaseURL:        server.URL,
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestClient_Search(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai/embeddings/similarity-search", r.URL.Path)
		assert.Equal(t, "Bearer KEY_test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		io.WriteString(w, `{"data": [
			{"document_chunk": "from chunk field", "content": "ignored",
			 "metadata": {"filename": "memory/a.md", "certainty": 0.91}},
			{"content": "fallback content", "file_name": "docs/b.md", "certainty": 0.5},
			{"document_chunk": "no source info"},
			{"file_name": "shapeless.md"}
		]}`)
	})

	chunks, err := client.Search(context.Background(), "memory", "release process", 20)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"bucket_name": "memory",
		"query":       "release process",
		"num_docs":    float64(20),
	}, gotBody)
	require.Len(t, chunks, 3, "results with no content field are dropped")
	assert.Equal(t, domain.RetrievedChunk{Content: "from chunk field", Source: "memory/a.md", Certainty: 0.91}, chunks[0])
	assert.Equal(t, domain.RetrievedChunk{Content: "fallback content", Source: "docs/b.md", Certainty: 0.5}, chunks[1])
	assert.Equal(t, domain.RetrievedChunk{Content: "no source info", Source: "unknown", Certainty: 0}, chunks[2])
}

func TestClient_SearchMetadataCertaintyWins(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": [
			{"document_chunk": "x", "certainty": 0.2, "metadata": {"filename": "a.md", "certainty": 0.9}}
		]}`)
	})

	chunks, err := client.Search(context.Background(), "memory", "q", 5)

	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, 0.9, chunks[0].Certainty)
}

func TestClient_SearchEmptyResult(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": []}`)
	})

	chunks, err := client.Search(context.Background(), "memory", "q", 5)

	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"errors": [{"detail": "invalid API key", "title": "Unauthorized"}]}`)
	})

	_, err := client.Search(context.Background(), "memory", "q", 5)

	assert.ErrorIs(t, err, domain.ErrClientRejected)
	assert.ErrorContains(t, err, "invalid API key")
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_ServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		io.WriteString(w, `{"data": []}`)
	})

	_, err := client.Search(context.Background(), "memory", "q", 5)

	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_RetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.Search(context.Background(), "memory", "q", 5)

	assert.ErrorIs(t, err, domain.ErrRetriesExhausted)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_Complete(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		io.WriteString(w, `{"choices": [{"message": {"content": "The release ships on Friday."}}]}`)
	})

	messages := []domain.ChatMessage{
		{Role: "system", Content: "instruction"},
		{Role: "user", Content: "question"},
	}
	answer, err := client.Complete(context.Background(), "meta-llama/Meta-Llama-3.1-70B-Instruct", messages)

	require.NoError(t, err)
	assert.Equal(t, "The release ships on Friday.", answer)
	assert.Equal(t, "meta-llama/Meta-Llama-3.1-70B-Instruct", gotBody["model"])
	assert.Equal(t, float64(DefaultMaxTokens), gotBody["max_tokens"])
	assert.Equal(t, 0.3, gotBody["temperature"])
}

func TestClient_CompleteNoChoices(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"choices": []}`)
	})

	_, err := client.Complete(context.Background(), "m", nil)

	assert.ErrorContains(t, err, "no choices")
}

func TestClient_TriggerEmbedding(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ai/embeddings", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusAccepted)
		io.WriteString(w, `{"data": {"task_id": "task-42"}}`)
	})

	taskID, err := client.TriggerEmbedding(context.Background(), "memory")

	require.NoError(t, err)
	assert.Equal(t, "task-42", taskID)
}

func TestClient_EmbeddingStatus(t *testing.T) {
	t.Run("in progress", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/ai/embeddings/task-42", r.URL.Path)
			io.WriteString(w, `{"data": {"status": "processing", "progress": 40}}`)
		})

		task, err := client.EmbeddingStatus(context.Background(), "task-42")

		require.NoError(t, err)
		assert.Equal(t, "task-42", task.ID)
		assert.Equal(t, "processing", task.Status)
		assert.Equal(t, 40.0, task.Progress)
	})

	t.Run("failed with detail", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"data": {"status": "failed", "error": "bucket not embedded"}}`)
		})

		task, err := client.EmbeddingStatus(context.Background(), "task-42")

		require.NoError(t, err)
		assert.Equal(t, "failed", task.Status)
		assert.Equal(t, "bucket not embedded", task.Detail)
	})

	t.Run("missing status", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"data": {}}`)
		})

		task, err := client.EmbeddingStatus(context.Background(), "task-42")

		require.NoError(t, err)
		assert.Equal(t, "unknown", task.Status)
	})
}
