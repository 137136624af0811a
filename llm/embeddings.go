package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/graphrag/types"
)

// EmbeddingsConfig holds the configuration for an OpenAI-compatible
// embeddings endpoint.
type EmbeddingsConfig struct {
	// APIKey is the authentication key for the endpoint.
	APIKey string

	// BaseURL is the base URL (e.g., "https://api.openai.com").
	BaseURL string

	// Model is the embedding model name. Defaults to "text-embedding-3-small".
	Model string

	// Timeout is the HTTP client timeout. Defaults to 30s if zero.
	Timeout time.Duration

	// EndpointPath is the embeddings path. Defaults to "/v1/embeddings".
	EndpointPath string
}

// EmbeddingsClient 把文本映射为稠密向量，供向量检索使用。
type EmbeddingsClient struct {
	cfg    EmbeddingsConfig
	client *http.Client
	logger *zap.Logger
}

// NewEmbeddingsClient creates an embeddings client for the given endpoint.
func NewEmbeddingsClient(cfg EmbeddingsConfig, logger *zap.Logger) *EmbeddingsClient {
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/embeddings"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmbeddingsClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("component", "embeddings_client")),
	}
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Embed returns the embedding vector for a single text.
func (c *EmbeddingsClient) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingsRequest{
		Model: c.cfg.Model,
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + c.cfg.EndpointPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, types.NewError(types.ErrTimeout, "embeddings request canceled or timed out").WithCause(err).WithRetryable(true)
		}
		return nil, types.NewError(types.ErrProviderUnavailable, "embeddings request failed").WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, types.NewError(types.ErrProviderUnavailable, "read embeddings response").WithCause(err).WithRetryable(true)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, mapHTTPError(resp.StatusCode, raw)
	}

	var parsed embeddingsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, types.NewError(types.ErrProviderUnavailable, "decode embeddings response").WithCause(err)
	}
	if parsed.Error != nil {
		return nil, types.NewError(types.ErrProviderUnavailable, parsed.Error.Message)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Embedding) == 0 {
		return nil, types.NewError(types.ErrProviderUnavailable, "embeddings response has no data")
	}

	c.logger.Debug("embedding finished",
		zap.String("model", c.cfg.Model),
		zap.Int("dimensions", len(parsed.Data[0].Embedding)),
		zap.Duration("elapsed", time.Since(start)))

	return parsed.Data[0].Embedding, nil
}
