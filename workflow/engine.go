package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BaSui01/graphrag/config"
	"github.com/BaSui01/graphrag/internal/metrics"
	"github.com/BaSui01/graphrag/types"
)

// ResponseCache 按问题指纹缓存定稿答案。*cache.Manager 实现它。
type ResponseCache interface {
	Get(ctx context.Context, fingerprint string) (*types.Answer, bool, error)
	SetIfAbsent(ctx context.Context, fingerprint string, answer *types.Answer, ttl time.Duration) error
}

// EngineOption 配置引擎的可选依赖
type EngineOption func(*Engine)

// WithCache 启用答案级缓存
func WithCache(c ResponseCache) EngineOption {
	return func(e *Engine) { e.cache = c }
}

// WithMetrics 启用 Prometheus 指标采集
func WithMetrics(m *metrics.Collector) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// Engine is the public entry point: it owns the per-question lifecycle
// around the state machine (fingerprinting, cache lookup, trace assembly)
// while the Controller owns the steps in between.
type Engine struct {
	controller *Controller
	config     config.WorkflowConfig
	cache      ResponseCache
	metrics    *metrics.Collector
	tracer     trace.Tracer
	logger     *zap.Logger
}

// NewEngine 校验工作流配置并组装引擎。
// 配置错误是致命的：启动时失败，而不是运行中降级。
func NewEngine(cfg config.WorkflowConfig, controller *Controller, logger *zap.Logger, opts ...EngineOption) (*Engine, error) {
	if controller == nil {
		return nil, types.NewError(types.ErrConfiguration, "controller is required")
	}
	if cfg.MaxRetrievalAttempts <= 0 || cfg.MaxGenerationAttempts <= 0 {
		return nil, types.NewError(types.ErrConfiguration, "attempt bounds must be positive")
	}
	if cfg.MaxSubQuestions <= 0 {
		return nil, types.NewError(types.ErrConfiguration, "max_sub_questions must be positive")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{
		controller: controller,
		config:     cfg,
		tracer:     otel.Tracer("graphrag/workflow"),
		logger:     logger.With(zap.String("component", "engine")),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Ask 处理一个问题并返回带溯源信息的答案。
// 同一问题重复提问返回相同答案（缓存命中或确定性重放）。
func (e *Engine) Ask(ctx context.Context, question string) (*types.Answer, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return nil, types.NewError(types.ErrEmptyQuestion, "question must not be empty")
	}

	fingerprint := types.Fingerprint(trimmed)
	traceID := uuid.NewString()
	start := time.Now()

	ctx, span := e.tracer.Start(ctx, "engine.ask",
		trace.WithAttributes(
			attribute.String("question.fingerprint", fingerprint),
			attribute.String("trace.id", traceID)))
	defer span.End()

	logger := e.logger.With(
		zap.String("trace_id", traceID),
		zap.String("fingerprint", fingerprint))

	if answer, ok := e.lookupCache(ctx, fingerprint, logger); ok {
		answer.Trace.TraceID = traceID
		answer.Trace.Cached = true
		answer.Trace.Elapsed = time.Since(start)
		if e.metrics != nil {
			e.metrics.RecordQuestion(string(answer.Trace.Route), true, time.Since(start))
		}
		logger.Info("answer served from cache")
		return answer, nil
	}

	s, err := e.controller.Run(ctx, trimmed)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, types.NewError(types.ErrTimeout, "workflow deadline exceeded").WithCause(err)
		}
		return nil, err
	}

	answer := &types.Answer{
		Text: s.FinalAnswer,
		Trace: types.Trace{
			TraceID:            traceID,
			Fingerprint:        fingerprint,
			Route:              s.Route,
			SubQuestions:       s.SubQuestions,
			RetrievalAttempts:  s.RetrievalAttempts,
			GenerationAttempts: s.GenerationAttempts,
			Caveats:            s.Caveats,
			Cached:             false,
			Elapsed:            time.Since(start),
		},
	}

	if e.metrics != nil {
		e.metrics.RecordQuestion(string(s.Route), false, answer.Trace.Elapsed)
		e.metrics.RecordAttempts(s.RetrievalAttempts, s.GenerationAttempts)
	}

	e.storeCache(ctx, fingerprint, answer, logger)

	logger.Info("answer produced",
		zap.String("route", string(s.Route)),
		zap.Duration("elapsed", answer.Trace.Elapsed),
		zap.Int("caveats", len(answer.Trace.Caveats)))

	return answer, nil
}

// lookupCache 缓存故障只降级为未命中，绝不阻断问答。
func (e *Engine) lookupCache(ctx context.Context, fingerprint string, logger *zap.Logger) (*types.Answer, bool) {
	if !e.config.EnableCache || e.cache == nil {
		return nil, false
	}
	answer, ok, err := e.cache.Get(ctx, fingerprint)
	if err != nil {
		logger.Warn("cache lookup failed", zap.Error(err))
		if e.metrics != nil {
			e.metrics.RecordCacheResult("error")
		}
		return nil, false
	}
	if e.metrics != nil {
		if ok {
			e.metrics.RecordCacheResult("hit")
		} else {
			e.metrics.RecordCacheResult("miss")
		}
	}
	return answer, ok
}

// storeCache 用 insert-if-absent 写入，先到的答案保持权威。
func (e *Engine) storeCache(ctx context.Context, fingerprint string, answer *types.Answer, logger *zap.Logger) {
	if !e.config.EnableCache || e.cache == nil {
		return
	}
	if err := e.cache.SetIfAbsent(ctx, fingerprint, answer, e.config.CacheTTL); err != nil {
		logger.Warn("cache store failed", zap.Error(err))
	}
}
