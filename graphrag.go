// Package graphrag provides a top-level convenience entry point for creating
// a question-answering engine with minimal boilerplate.
//
// Usage:
//
//	import "github.com/BaSui01/graphrag"
//
//	provider := llm.NewClient(llm.Config{APIKey: key, BaseURL: url, Model: "gpt-4o-mini"}, nil)
//	engine, err := graphrag.New(provider, retrieval.Tools{Vector: vectorTool})
//	answer, err := engine.Ask(ctx, "What is a holographic will?")
//
// Callers who need full control over configuration, caching, and metrics
// should assemble workflow.Engine directly; both produce identical results.
package graphrag

import (
	"go.uber.org/zap"

	"github.com/BaSui01/graphrag/config"
	"github.com/BaSui01/graphrag/judge"
	"github.com/BaSui01/graphrag/llm"
	"github.com/BaSui01/graphrag/retrieval"
	"github.com/BaSui01/graphrag/workflow"
)

// Option configures the engine created by [New].
type Option func(*builder)

type builder struct {
	workflowCfg config.WorkflowConfig
	logger      *zap.Logger
	engineOpts  []workflow.EngineOption
}

// WithWorkflowConfig overrides the default workflow bounds and timeouts.
func WithWorkflowConfig(cfg config.WorkflowConfig) Option {
	return func(b *builder) { b.workflowCfg = cfg }
}

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(b *builder) { b.logger = logger }
}

// WithCache enables answer-level caching.
func WithCache(c workflow.ResponseCache) Option {
	return func(b *builder) { b.engineOpts = append(b.engineOpts, workflow.WithCache(c)) }
}

// New creates a [workflow.Engine] over the given LLM provider and retrieval
// tools, with default workflow configuration. Missing tools degrade the
// corresponding retrieval routes instead of failing.
func New(provider llm.Provider, tools retrieval.Tools, opts ...Option) (*workflow.Engine, error) {
	b := &builder{workflowCfg: config.DefaultWorkflowConfig()}
	for _, opt := range opts {
		opt(b)
	}

	j := judge.New(provider, judge.Config{Timeout: b.workflowCfg.JudgeTimeout}, b.logger)

	orch := retrieval.NewOrchestrator(tools, retrieval.Config{
		TopK:        b.workflowCfg.TopK,
		ToolTimeout: b.workflowCfg.ToolTimeout,
	}, b.logger)

	generator := workflow.NewGenerator(provider, workflow.GeneratorConfig{
		EvidenceTokenLimit: b.workflowCfg.EvidenceTokenLimit,
		Timeout:            b.workflowCfg.JudgeTimeout,
	}, b.logger)

	controller := workflow.NewController(j, orch, generator, workflow.Config{
		MaxRetrievalAttempts:  b.workflowCfg.MaxRetrievalAttempts,
		MaxGenerationAttempts: b.workflowCfg.MaxGenerationAttempts,
		MaxSubQuestions:       b.workflowCfg.MaxSubQuestions,
		WebFallbackEnabled:    b.workflowCfg.WebFallbackEnabled,
	}, b.logger)

	return workflow.NewEngine(b.workflowCfg, controller, b.logger, b.engineOpts...)
}
