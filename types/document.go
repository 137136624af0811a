package types

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Source 标识文档来自哪个检索后端。
type Source string

const (
	SourceGraph  Source = "graph"  // structured graph traversal
	SourceVector Source = "vector" // vector/hybrid similarity search
	SourceWeb    Source = "web"    // external web search, lower-trust provenance
)

// Document 代表一条检索结果。
// Relevance 在评分前为 nil；评分后指向评分结果。
type Document struct {
	Content   string            `json:"content"`
	Source    Source            `json:"source"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Relevance *bool             `json:"relevance,omitempty"`
}

// ContentHash returns the sha256 hex digest of the document content,
// used for deduplication across retrieval sources.
func (d Document) ContentHash() string {
	sum := sha256.Sum256([]byte(d.Content))
	return hex.EncodeToString(sum[:])
}

// Graded reports whether the document has been relevance-graded.
func (d Document) Graded() bool {
	return d.Relevance != nil
}

// IsRelevant reports whether the document was graded relevant.
// An ungraded document is never relevant.
func (d Document) IsRelevant() bool {
	return d.Relevance != nil && *d.Relevance
}

// WithRelevance returns a copy of the document with the grade set.
func (d Document) WithRelevance(relevant bool) Document {
	d.Relevance = &relevant
	return d
}

// Fingerprint 返回问题的稳定指纹，用于日志与缓存键。
// 大小写与首尾空白不影响指纹。
func Fingerprint(question string) string {
	normalized := strings.ToLower(strings.TrimSpace(question))
	normalized = strings.Join(strings.Fields(normalized), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:16])
}
