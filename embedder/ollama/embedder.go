package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tenderhq/tender/cache"
	"github.com/tenderhq/tender/embedder"
)

type ollamaEmbedder struct {
	options embedder.Options
	client  *http.Client
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding for text via the Ollama embeddings endpoint.
//
// Empty input returns the zero vector without a network call. Transport
// failures and non-2xx statuses are retried up to the configured attempt
// budget with a fixed delay, then surfaced to the caller. A 2xx response
// carrying a missing or wrong-dimension embedding is a format error, not a
// transient one: it degrades to the zero vector and is not retried.
func (e *ollamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if len(strings.TrimSpace(text)) == 0 {
		e.options.Logger.Warn("embedding requested for empty text, returning zero vector")
		return embedder.ZeroVector(e.options.Dimension), nil
	}

	key := cache.Key("embedding", text)

	if vec, ok := e.fromCache(ctx, key); ok {
		return vec, nil
	}

	var lastErr error

	for attempt := 0; attempt < e.options.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.options.RetryDelay):
			}
		}

		vec, degraded, err := e.call(ctx, text)
		if err != nil {
			lastErr = err
			e.options.Logger.Warn("embedding attempt failed",
				"attempt", attempt+1,
				"attempts", e.options.Attempts,
				"error", err,
			)
			continue
		}

		if degraded != "" {
			e.options.Logger.Warn("embedding response malformed, returning zero vector", "reason", degraded)
			return embedder.ZeroVector(e.options.Dimension), nil
		}

		e.toCache(ctx, key, vec)

		return vec, nil
	}

	return nil, fmt.Errorf("embedding request failed after %d attempts: %w", e.options.Attempts, lastErr)
}

// call issues one request. A non-empty degraded reason means the server
// responded but the payload does not match the configured dimension.
func (e *ollamaEmbedder) call(ctx context.Context, text string) ([]float32, string, error) {
	body, err := json.Marshal(embedRequest{
		Model:  e.options.Model,
		Prompt: text,
	})
	if err != nil {
		return nil, "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.options.BaseUrl+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	rsp, err := e.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("calling embedding provider: %w", err)
	}
	defer rsp.Body.Close()

	if rsp.StatusCode < 200 || rsp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("embedding provider returned status %d", rsp.StatusCode)
	}

	var embedRsp embedResponse
	if err := json.NewDecoder(rsp.Body).Decode(&embedRsp); err != nil {
		return nil, fmt.Sprintf("undecodable response body: %v", err), nil
	}

	if len(embedRsp.Embedding) == 0 {
		return nil, "response has no embedding", nil
	}

	if len(embedRsp.Embedding) != e.options.Dimension {
		return nil, fmt.Sprintf("embedding has %d dimensions, expected %d", len(embedRsp.Embedding), e.options.Dimension), nil
	}

	return embedRsp.Embedding, "", nil
}

func (e *ollamaEmbedder) fromCache(ctx context.Context, key string) ([]float32, bool) {
	if e.options.Cache == nil {
		return nil, false
	}

	value, ok, err := e.options.Cache.Get(ctx, key)
	if err != nil {
		e.options.Logger.Debug("cache read failed, treating as miss", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var vec []float32
	if err := json.Unmarshal(value, &vec); err != nil {
		e.options.Logger.Debug("cached embedding undecodable, treating as miss", "error", err)
		return nil, false
	}

	return vec, true
}

func (e *ollamaEmbedder) toCache(ctx context.Context, key string, vec []float32) {
	if e.options.Cache == nil {
		return
	}

	value, err := json.Marshal(vec)
	if err != nil {
		return
	}

	if err := e.options.Cache.Set(ctx, key, value, e.options.CacheTTL); err != nil {
		e.options.Logger.Debug("cache write failed", "error", err)
	}
}

func NewEmbedder(opts ...embedder.Option) embedder.Embedder {
	options := embedder.NewOptions(opts...)

	e := &ollamaEmbedder{
		options: options,
		client: &http.Client{
			Timeout: options.Timeout,
		},
	}

	return e
}
