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

// Provider 是判断与生成共用的同步补全接口。
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config holds the configuration for an OpenAI-compatible endpoint.
type Config struct {
	// APIKey is the authentication key for the endpoint.
	APIKey string

	// BaseURL is the base URL (e.g., "https://api.openai.com").
	BaseURL string

	// Model is the model name sent with every request.
	Model string

	// Temperature is the sampling temperature. Judgment tasks want 0.
	Temperature float64

	// Timeout is the HTTP client timeout. Defaults to 30s if zero.
	Timeout time.Duration

	// EndpointPath is the chat completions path. Defaults to "/v1/chat/completions".
	EndpointPath string
}

// Client 是 OpenAI 兼容端点的同步补全客户端。
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a chat-completions client for the given endpoint.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/v1/chat/completions"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With(zap.String("component", "llm_client")),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends a single-turn prompt and returns the model's text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + c.cfg.EndpointPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", types.NewError(types.ErrTimeout, "llm request canceled or timed out").WithCause(err).WithRetryable(true)
		}
		return "", types.NewError(types.ErrProviderUnavailable, "llm request failed").WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", types.NewError(types.ErrProviderUnavailable, "read llm response").WithCause(err).WithRetryable(true)
	}

	if resp.StatusCode != http.StatusOK {
		return "", mapHTTPError(resp.StatusCode, raw)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", types.NewError(types.ErrProviderUnavailable, "decode llm response").WithCause(err)
	}
	if parsed.Error != nil {
		return "", types.NewError(types.ErrProviderUnavailable, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", types.NewError(types.ErrProviderUnavailable, "llm response has no choices")
	}

	c.logger.Debug("completion finished",
		zap.String("model", c.cfg.Model),
		zap.Duration("elapsed", time.Since(start)))

	return parsed.Choices[0].Message.Content, nil
}

// mapHTTPError 将 HTTP 状态映射为统一错误码。
func mapHTTPError(status int, body []byte) error {
	msg := fmt.Sprintf("llm endpoint returned %d: %s", status, truncate(string(body), 200))
	switch {
	case status == http.StatusTooManyRequests:
		return types.NewError(types.ErrProviderUnavailable, msg).WithRetryable(true)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return types.NewError(types.ErrTimeout, msg).WithRetryable(true)
	case status >= 500:
		return types.NewError(types.ErrProviderUnavailable, msg).WithRetryable(true)
	default:
		return types.NewError(types.ErrProviderUnavailable, msg)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
