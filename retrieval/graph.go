package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/BaSui01/graphrag/types"
)

// entityQuery 按名称/描述的宽松匹配定位实体并带回一跳邻居。
// 数据可能与问题用词不完全一致，所以用 toLower + CONTAINS 而不是相等。
// 只读查询；图在查询期绝不被修改。
const entityQuery = `
MATCH (e)
WHERE toLower(coalesce(e.name, '')) CONTAINS toLower($term)
   OR toLower(coalesce(e.description, '')) CONTAINS toLower($term)
OPTIONAL MATCH (e)-[r]-(related)
RETURN coalesce(e.name, '') AS name,
       coalesce(e.description, '') AS description,
       labels(e)[0] AS type,
       coalesce(e.year, '') AS year,
       collect(DISTINCT coalesce(related.name, ''))[..5] AS related
LIMIT $limit`

// GraphTool 通过 Neo4j 执行结构化图查询。
type GraphTool struct {
	driver   neo4j.DriverWithContext
	database string
	limit    int
	logger   *zap.Logger
}

// NewGraphTool creates a structured-query tool over a shared Neo4j driver.
// The driver is long-lived, pooled, and safe for concurrent use.
func NewGraphTool(driver neo4j.DriverWithContext, database string, limit int, logger *zap.Logger) *GraphTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = 5
	}
	return &GraphTool{
		driver:   driver,
		database: database,
		limit:    limit,
		logger:   logger.With(zap.String("component", "graph_tool")),
	}
}

// Driver 暴露底层驱动，调用方负责在关闭时释放它。
func (g *GraphTool) Driver() neo4j.DriverWithContext {
	return g.driver
}

// StructuredQuery 在知识图谱上执行图遍历并把记录映射为文档。
func (g *GraphTool) StructuredQuery(ctx context.Context, query string) ([]types.Document, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: g.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, entityQuery, map[string]any{
			"term":  query,
			"limit": g.limit,
		})
		if err != nil {
			return nil, err
		}

		var docs []types.Document
		for res.Next(ctx) {
			docs = append(docs, recordToDocument(res.Record()))
		}
		return docs, res.Err()
	})
	if err != nil {
		return nil, types.NewError(types.ErrToolUnavailable, "graph query failed").WithCause(err).WithRetryable(true)
	}

	docs := out.([]types.Document)
	g.logger.Debug("graph query finished", zap.Int("documents", len(docs)))
	return docs, nil
}

// enrichQuery 为一条向量命中找最匹配的图实体及其邻居。
const enrichQuery = `
MATCH (e)
WHERE toLower(coalesce(e.name, '')) CONTAINS toLower($term)
OPTIONAL MATCH (e)-[r]-(related)
RETURN coalesce(e.name, '') AS name,
       collect(DISTINCT coalesce(related.name, ''))[..5] AS related
LIMIT 1`

// Enrich 用图上下文补充一条向量命中，满足 EnrichFunc。
// 找不到对应实体不是错误，返回空元数据即可。
func (g *GraphTool) Enrich(ctx context.Context, doc types.Document) (map[string]string, error) {
	term := doc.Metadata["title"]
	if term == "" {
		term = firstWords(doc.Content, 6)
	}
	if term == "" {
		return nil, nil
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: g.database,
	})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, enrichQuery, map[string]any{"term": term})
		if err != nil {
			return nil, err
		}
		meta := map[string]string{}
		if res.Next(ctx) {
			rec := res.Record()
			if name := stringValue(rec, "name"); name != "" {
				meta["graph_entity"] = name
			}
			if related := stringListValue(rec, "related"); len(related) > 0 {
				meta["graph_context"] = strings.Join(related, ", ")
			}
		}
		return meta, res.Err()
	})
	if err != nil {
		return nil, types.NewError(types.ErrToolUnavailable, "graph enrichment failed").WithCause(err).WithRetryable(true)
	}
	return out.(map[string]string), nil
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

// recordToDocument 把一条图记录整理成可评分的文本文档。
func recordToDocument(rec *neo4j.Record) types.Document {
	name := stringValue(rec, "name")
	description := stringValue(rec, "description")
	entityType := stringValue(rec, "type")
	year := stringValue(rec, "year")
	related := stringListValue(rec, "related")

	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", name, description)
	if len(related) > 0 {
		fmt.Fprintf(&b, " (related: %s)", strings.Join(related, ", "))
	}

	metadata := map[string]string{
		"name": name,
		"type": entityType,
	}
	if year != "" {
		metadata["year"] = year
	}

	return types.Document{
		Content:  b.String(),
		Source:   types.SourceGraph,
		Metadata: metadata,
	}
}

func stringValue(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func stringListValue(rec *neo4j.Record, key string) []string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}
