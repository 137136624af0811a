package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/graphrag/judge"
	"github.com/BaSui01/graphrag/types"
)

// InsufficientEvidenceAnswer 是证据耗尽时的标准答复。
// 生成永远返回非空字符串；证据不足是合法的生成结果，不是错误。
const InsufficientEvidenceAnswer = "I do not have sufficient information to answer this question."

const generatePrompt = `You are an assistant answering user questions from supplied context documents. Use only information present in the context. If the context does not contain enough information, reply exactly: "%s". Be precise and cite specific sources from the context when possible. Use clear, professional language.

Context documents:
%s

Question: %s

Answer:`

// GeneratorConfig 配置答案生成器
type GeneratorConfig struct {
	// 塞进提示词的证据 Token 上限
	EvidenceTokenLimit int `json:"evidence_token_limit"`
	// 单次生成调用超时
	Timeout time.Duration `json:"timeout"`
}

// DefaultGeneratorConfig 返回默认生成配置
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		EvidenceTokenLimit: 3000,
		Timeout:            30 * time.Second,
	}
}

// Generator 基于已评分的证据生成答案草稿。
type Generator struct {
	provider judge.Provider
	config   GeneratorConfig
	counter  *tokenCounter
	logger   *zap.Logger
}

// NewGenerator creates an evidence-grounded answer generator.
func NewGenerator(provider judge.Provider, config GeneratorConfig, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.EvidenceTokenLimit <= 0 {
		config.EvidenceTokenLimit = DefaultGeneratorConfig().EvidenceTokenLimit
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultGeneratorConfig().Timeout
	}
	return &Generator{
		provider: provider,
		config:   config,
		counter:  newTokenCounter(),
		logger:   logger.With(zap.String("component", "generator")),
	}
}

// Generate 产出一个答案草稿。永远返回非空字符串：
// 证据为空或模型失败时返回标准的证据不足答复，绝不上抛。
func (g *Generator) Generate(ctx context.Context, question string, docs []types.Document) string {
	if len(docs) == 0 {
		return InsufficientEvidenceAnswer
	}

	evidence := g.buildEvidence(docs)
	prompt := fmt.Sprintf(generatePrompt, InsufficientEvidenceAnswer, evidence, question)

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	out, err := g.provider.Complete(ctx, prompt)
	if err != nil {
		g.logger.Warn("generation call failed, returning insufficient-evidence answer", zap.Error(err))
		return InsufficientEvidenceAnswer
	}
	if out = strings.TrimSpace(out); out == "" {
		return InsufficientEvidenceAnswer
	}
	return out
}

// buildEvidence 把文档拼成提示词上下文，按 Token 预算截断。
// 文档顺序即证据优先级：前面的来源精度更高。
func (g *Generator) buildEvidence(docs []types.Document) string {
	var b strings.Builder
	used := 0

	for i, d := range docs {
		section := fmt.Sprintf("[%d] (%s) %s", i+1, d.Source, d.Content)
		if title := d.Metadata["title"]; title != "" {
			section = fmt.Sprintf("[%d] (%s: %s) %s", i+1, d.Source, title, d.Content)
		}

		cost := g.counter.Count(section)
		if used+cost > g.config.EvidenceTokenLimit && used > 0 {
			g.logger.Debug("evidence token budget reached",
				zap.Int("included", i),
				zap.Int("dropped", len(docs)-i))
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(section)
		used += cost
	}

	return b.String()
}
