package retrieval

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
	"golang.org/x/time/rate"

	"github.com/BaSui01/graphrag/types"
)

// WebSearchConfig 配置网络搜索客户端
type WebSearchConfig struct {
	// APIKey 搜索服务密钥
	APIKey string `json:"api_key"`
	// BaseURL 搜索服务地址
	BaseURL string `json:"base_url"`
	// MaxResults 最多返回结果数
	MaxResults int `json:"max_results"`
	// RateLimitRPS 每秒请求上限
	RateLimitRPS float64 `json:"rate_limit_rps"`
	// Timeout 请求超时
	Timeout time.Duration `json:"timeout"`
}

// DefaultWebSearchConfig 返回默认网络搜索配置
func DefaultWebSearchConfig() WebSearchConfig {
	return WebSearchConfig{
		BaseURL:      "https://api.tavily.com",
		MaxResults:   3,
		RateLimitRPS: 1,
		Timeout:      15 * time.Second,
	}
}

// WebTool 调用 Tavily 风格的搜索 API。
// 结果作为低信任来源参与评分，与本地证据同样对待。
type WebTool struct {
	config  WebSearchConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewWebTool creates a rate-limited web search tool.
func NewWebTool(config WebSearchConfig, logger *zap.Logger) *WebTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxResults <= 0 {
		config.MaxResults = DefaultWebSearchConfig().MaxResults
	}
	if config.RateLimitRPS <= 0 {
		config.RateLimitRPS = DefaultWebSearchConfig().RateLimitRPS
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultWebSearchConfig().Timeout
	}
	return &WebTool{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimitRPS), 1),
		logger:  logger.With(zap.String("component", "web_tool")),
	}
}

type webSearchRequest struct {
	APIKey      string `json:"api_key"`
	Query       string `json:"query"`
	MaxResults  int    `json:"max_results"`
	SearchDepth string `json:"search_depth"`
}

type webSearchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// WebSearch 执行一次外部搜索并把结果映射为文档。
func (w *WebTool) WebSearch(ctx context.Context, query string) ([]types.Document, error) {
	if w.config.APIKey == "" {
		return nil, types.NewError(types.ErrToolUnavailable, "web search has no api key configured")
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return nil, types.NewError(types.ErrTimeout, "web search rate limit wait canceled").WithCause(err)
	}

	body, err := json.Marshal(webSearchRequest{
		APIKey:      w.config.APIKey,
		Query:       query,
		MaxResults:  w.config.MaxResults,
		SearchDepth: "advanced",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal web search request: %w", err)
	}

	url := strings.TrimSuffix(w.config.BaseURL, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build web search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, types.NewError(types.ErrToolUnavailable, "web search request failed").WithCause(err).WithRetryable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, types.NewError(types.ErrToolUnavailable,
			fmt.Sprintf("web search returned %d: %s", resp.StatusCode, string(raw))).WithRetryable(resp.StatusCode >= 500)
	}

	var parsed webSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, types.NewError(types.ErrToolUnavailable, "decode web search response").WithCause(err)
	}

	docs := make([]types.Document, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.Content == "" {
			continue
		}
		docs = append(docs, types.Document{
			Content: r.Content,
			Source:  types.SourceWeb,
			Metadata: map[string]string{
				"url":   r.URL,
				"title": r.Title,
			},
		})
	}

	w.logger.Debug("web search finished", zap.Int("documents", len(docs)))
	return docs, nil
}
