package retrieval

import (
	"context"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/BaSui01/graphrag/types"
)

// DocumentChunk 是向量索引里的一个文档块。
// 写入由离线摄取管道负责，查询期只读。
type DocumentChunk struct {
	ID        uint              `gorm:"primaryKey"`
	Content   string            `gorm:"type:text"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb"`
	Embedding pgvector.Vector   `gorm:"type:vector(1536)"`
}

// TableName implements the gorm table name convention.
func (DocumentChunk) TableName() string {
	return "document_chunks"
}

// EmbedFunc 把查询文本变成向量。嵌入计算方式不属于本核心，
// 由调用方注入。
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// EnrichFunc 用图上下文补充一条向量命中，返回要并入文档元数据的键值。
// 失败是非致命的：命中原样保留。
type EnrichFunc func(ctx context.Context, doc types.Document) (map[string]string, error)

// VectorTool 在 Postgres + pgvector 上执行相似度检索。
type VectorTool struct {
	db     *gorm.DB
	table  string
	embed  EmbedFunc
	enrich EnrichFunc
	logger *zap.Logger
}

// NewVectorTool creates a similarity-search tool over a shared gorm handle.
// The connection pool is long-lived and safe for concurrent use.
func NewVectorTool(db *gorm.DB, table string, embed EmbedFunc, logger *zap.Logger) *VectorTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if table == "" {
		table = DocumentChunk{}.TableName()
	}
	return &VectorTool{
		db:     db,
		table:  table,
		embed:  embed,
		logger: logger.With(zap.String("component", "vector_tool")),
	}
}

// WithGraphEnricher 注册可选的图上下文补充钩子。
func (v *VectorTool) WithGraphEnricher(fn EnrichFunc) *VectorTool {
	v.enrich = fn
	return v
}

// VectorSearch 嵌入查询并按余弦距离取回最近的 topK 个块。
// filters 作为 jsonb 相等条件下推到 SQL。
func (v *VectorTool) VectorSearch(ctx context.Context, query string, topK int, filters map[string]string) ([]types.Document, error) {
	if v.embed == nil {
		return nil, types.NewError(types.ErrToolUnavailable, "no embedder configured")
	}

	embedding, err := v.embed(ctx, query)
	if err != nil {
		return nil, types.NewError(types.ErrToolUnavailable, "query embedding failed").WithCause(err).WithRetryable(true)
	}

	tx := v.db.WithContext(ctx).Table(v.table)
	for key, value := range filters {
		tx = tx.Where("metadata ->> ? = ?", key, value)
	}

	var chunks []DocumentChunk
	err = tx.
		Order(gorm.Expr("embedding <=> ?", pgvector.NewVector(embedding))).
		Limit(topK).
		Find(&chunks).Error
	if err != nil {
		return nil, types.NewError(types.ErrToolUnavailable, "vector search failed").WithCause(err).WithRetryable(true)
	}

	docs := make([]types.Document, 0, len(chunks))
	for _, chunk := range chunks {
		doc := types.Document{
			Content:  chunk.Content,
			Source:   types.SourceVector,
			Metadata: flattenMetadata(chunk.Metadata),
		}
		docs = append(docs, v.enrichDocument(ctx, doc))
	}

	v.logger.Debug("vector search finished", zap.Int("documents", len(docs)))
	return docs, nil
}

// enrichDocument 尝试用图上下文补充命中；失败只记录。
func (v *VectorTool) enrichDocument(ctx context.Context, doc types.Document) types.Document {
	if v.enrich == nil {
		return doc
	}

	extra, err := v.enrich(ctx, doc)
	if err != nil {
		v.logger.Warn("graph enrichment failed, keeping bare hit", zap.Error(err))
		return doc
	}

	if len(extra) > 0 && doc.Metadata == nil {
		doc.Metadata = make(map[string]string, len(extra))
	}
	for key, value := range extra {
		if _, exists := doc.Metadata[key]; !exists {
			doc.Metadata[key] = value
		}
	}
	return doc
}

func flattenMetadata(m datatypes.JSONMap) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for key, value := range m {
		out[key] = fmt.Sprintf("%v", value)
	}
	return out
}
