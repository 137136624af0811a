package retrieval

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/graphrag/types"
)

// StructuredQuerier 对知识图谱执行图遍历查询。
type StructuredQuerier interface {
	StructuredQuery(ctx context.Context, query string) ([]types.Document, error)
}

// VectorSearcher 执行向量/混合相似度检索，支持可选的元数据过滤。
type VectorSearcher interface {
	VectorSearch(ctx context.Context, query string, topK int, filters map[string]string) ([]types.Document, error)
}

// WebSearcher 执行外部网络搜索，结果按低信任来源处理。
type WebSearcher interface {
	WebSearch(ctx context.Context, query string) ([]types.Document, error)
}

// Tools 汇集三个检索来源。缺失的来源在分发时产生空结果。
type Tools struct {
	Structured StructuredQuerier
	Vector     VectorSearcher
	Web        WebSearcher
}

// ToolObserver 在每次工具调用后被调用，用于指标采集。
// status 为 "ok" 或 "error"。
type ToolObserver func(source types.Source, status string, elapsed time.Duration)

// Config 配置编排器
type Config struct {
	// 每个来源返回的文档数
	TopK int `json:"top_k"`
	// 单次工具调用超时
	ToolTimeout time.Duration `json:"tool_timeout"`
}

// DefaultConfig 返回默认编排配置
func DefaultConfig() Config {
	return Config{
		TopK:        3,
		ToolTimeout: 15 * time.Second,
	}
}

// Orchestrator 按路由分发检索工具并合并结果。
type Orchestrator struct {
	tools    Tools
	config   Config
	observer ToolObserver
	logger   *zap.Logger
}

// NewOrchestrator creates a retrieval orchestrator over the given tool set.
func NewOrchestrator(tools Tools, config Config, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.TopK <= 0 {
		config.TopK = DefaultConfig().TopK
	}
	if config.ToolTimeout <= 0 {
		config.ToolTimeout = DefaultConfig().ToolTimeout
	}
	return &Orchestrator{
		tools:  tools,
		config: config,
		logger: logger.With(zap.String("component", "retrieval_orchestrator")),
	}
}

// Observe registers a hook invoked after every tool call.
func (o *Orchestrator) Observe(fn ToolObserver) {
	o.observer = fn
}

// Retrieve 为给定查询与路由取回文档。
// 分发表:
//   - structured  → 图查询
//   - semantic    → 向量检索
//   - hybrid      → 图查询 + 向量检索，图结果在前（精度更高）
//   - web_search  → 网络搜索
//
// 结果按内容哈希去重、保序，再按问题中的元数据过滤条件后置过滤。
// 任何工具失败都只记录并产生该来源的空集。
func (o *Orchestrator) Retrieve(ctx context.Context, query string, route types.Route, filters map[string]string) []types.Document {
	var docs []types.Document

	switch route {
	case types.RouteStructured:
		docs = o.callStructured(ctx, query)
	case types.RouteSemantic:
		docs = o.callVector(ctx, query, filters)
	case types.RouteHybrid:
		docs = append(o.callStructured(ctx, query), o.callVector(ctx, query, filters)...)
	case types.RouteWebSearch:
		docs = o.callWeb(ctx, query)
	default:
		o.logger.Warn("unknown route, falling back to hybrid dispatch", zap.String("route", string(route)))
		docs = append(o.callStructured(ctx, query), o.callVector(ctx, query, filters)...)
	}

	docs = dedupeByContent(docs)
	docs = applyMetadataFilters(docs, filters)

	o.logger.Debug("retrieval finished",
		zap.String("route", string(route)),
		zap.Int("documents", len(docs)))

	return docs
}

func (o *Orchestrator) callStructured(ctx context.Context, query string) []types.Document {
	if o.tools.Structured == nil {
		return nil
	}
	return o.call(ctx, types.SourceGraph, func(ctx context.Context) ([]types.Document, error) {
		return o.tools.Structured.StructuredQuery(ctx, query)
	})
}

func (o *Orchestrator) callVector(ctx context.Context, query string, filters map[string]string) []types.Document {
	if o.tools.Vector == nil {
		return nil
	}
	return o.call(ctx, types.SourceVector, func(ctx context.Context) ([]types.Document, error) {
		return o.tools.Vector.VectorSearch(ctx, query, o.config.TopK, filters)
	})
}

func (o *Orchestrator) callWeb(ctx context.Context, query string) []types.Document {
	if o.tools.Web == nil {
		return nil
	}
	return o.call(ctx, types.SourceWeb, func(ctx context.Context) ([]types.Document, error) {
		return o.tools.Web.WebSearch(ctx, query)
	})
}

// call 执行单个工具调用，带独立超时；失败降级为空结果。
func (o *Orchestrator) call(ctx context.Context, source types.Source, fn func(context.Context) ([]types.Document, error)) []types.Document {
	ctx, cancel := context.WithTimeout(ctx, o.config.ToolTimeout)
	defer cancel()

	start := time.Now()
	docs, err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		o.logger.Warn("retrieval tool failed, treating as empty result",
			zap.String("source", string(source)),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		if o.observer != nil {
			o.observer(source, "error", elapsed)
		}
		return nil
	}

	if o.observer != nil {
		o.observer(source, "ok", elapsed)
	}
	return docs
}

// dedupeByContent 按内容哈希去重，保留首次出现的顺序。
func dedupeByContent(docs []types.Document) []types.Document {
	if len(docs) <= 1 {
		return docs
	}
	seen := make(map[string]struct{}, len(docs))
	out := make([]types.Document, 0, len(docs))
	for _, d := range docs {
		hash := d.ContentHash()
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}
		out = append(out, d)
	}
	return out
}

// applyMetadataFilters 对返回的文档做后置过滤。
// 只有携带该元数据键的文档才参与过滤；缺键的文档无法证明不匹配，予以保留。
func applyMetadataFilters(docs []types.Document, filters map[string]string) []types.Document {
	if len(filters) == 0 || len(docs) == 0 {
		return docs
	}
	out := make([]types.Document, 0, len(docs))
	for _, d := range docs {
		if matchesFilters(d, filters) {
			out = append(out, d)
		}
	}
	return out
}

func matchesFilters(d types.Document, filters map[string]string) bool {
	for key, want := range filters {
		got, ok := d.Metadata[key]
		if !ok {
			continue
		}
		if got != want {
			return false
		}
	}
	return true
}
