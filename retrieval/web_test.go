package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/BaSui01/graphrag/types"
)

func TestWebTool_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req webSearchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.APIKey != "k" || req.Query != "latest GDPR fines" || req.MaxResults != 3 {
			t.Errorf("unexpected request %+v", req)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"title": "News", "url": "https://example.com/a", "content": "A fine was issued.", "score": 0.9},
				{"title": "Empty", "url": "https://example.com/b", "content": "", "score": 0.1},
			},
		})
	}))
	defer srv.Close()

	cfg := DefaultWebSearchConfig()
	cfg.APIKey = "k"
	cfg.BaseURL = srv.URL
	cfg.RateLimitRPS = 100
	tool := NewWebTool(cfg, zap.NewNop())

	docs, err := tool.WebSearch(context.Background(), "latest GDPR fines")
	if err != nil {
		t.Fatalf("WebSearch failed: %v", err)
	}

	if len(docs) != 1 {
		t.Fatalf("expected empty-content results to be dropped, got %d docs", len(docs))
	}
	if docs[0].Source != types.SourceWeb {
		t.Errorf("expected web provenance, got %s", docs[0].Source)
	}
	if docs[0].Metadata["url"] != "https://example.com/a" || docs[0].Metadata["title"] != "News" {
		t.Errorf("expected url/title metadata, got %v", docs[0].Metadata)
	}
}

func TestWebTool_NoAPIKey(t *testing.T) {
	tool := NewWebTool(DefaultWebSearchConfig(), zap.NewNop())

	_, err := tool.WebSearch(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error without api key")
	}
	if types.GetErrorCode(err) != types.ErrToolUnavailable {
		t.Errorf("expected TOOL_UNAVAILABLE, got %s", types.GetErrorCode(err))
	}
}

func TestWebTool_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultWebSearchConfig()
	cfg.APIKey = "k"
	cfg.BaseURL = srv.URL
	cfg.RateLimitRPS = 100
	tool := NewWebTool(cfg, zap.NewNop())

	_, err := tool.WebSearch(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if !types.IsRetryable(err) {
		t.Error("expected 5xx to be retryable")
	}
}
