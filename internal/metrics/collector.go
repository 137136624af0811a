// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 问答指标
	questionsTotal   *prometheus.CounterVec
	questionDuration *prometheus.HistogramVec

	// 尝试指标
	retrievalAttempts  prometheus.Histogram
	generationAttempts prometheus.Histogram

	// 检索工具指标
	toolCallsTotal   *prometheus.CounterVec
	toolCallDuration *prometheus.HistogramVec

	// 判断降级指标
	judgmentFallbacks *prometheus.CounterVec

	// 缓存指标
	cacheResults *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// 问答指标
	c.questionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Total number of questions answered",
		},
		[]string{"route", "cached"},
	)

	c.questionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "question_duration_seconds",
			Help:      "End-to-end question answering duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"route"},
	)

	// 尝试指标
	c.retrievalAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_attempts",
			Help:      "Number of retrieval rewrite attempts per question",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
	)

	c.generationAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_attempts",
			Help:      "Number of regeneration attempts per question",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
	)

	// 检索工具指标
	c.toolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of retrieval tool calls",
		},
		[]string{"source", "status"},
	)

	c.toolCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_call_duration_seconds",
			Help:      "Retrieval tool call duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// 判断降级指标
	c.judgmentFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judgment_fallbacks_total",
			Help:      "Total number of LLM judgments replaced by conservative fallbacks",
		},
		[]string{"task"},
	)

	// 缓存指标
	c.cacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_results_total",
			Help:      "Answer cache lookup results",
		},
		[]string{"result"}, // result: hit, miss, error
	)

	logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 问答指标记录
// =============================================================================

// RecordQuestion 记录一次问答
func (c *Collector) RecordQuestion(route string, cached bool, duration time.Duration) {
	c.questionsTotal.WithLabelValues(route, boolLabel(cached)).Inc()
	c.questionDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// RecordAttempts 记录一次问答消耗的尝试次数
func (c *Collector) RecordAttempts(retrieval, generation int) {
	c.retrievalAttempts.Observe(float64(retrieval))
	c.generationAttempts.Observe(float64(generation))
}

// =============================================================================
// 🔧 工具与判断指标记录
// =============================================================================

// RecordToolCall 记录一次检索工具调用
func (c *Collector) RecordToolCall(source, status string, duration time.Duration) {
	c.toolCallsTotal.WithLabelValues(source, status).Inc()
	c.toolCallDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordJudgmentFallback 记录一次判断降级
func (c *Collector) RecordJudgmentFallback(task string) {
	c.judgmentFallbacks.WithLabelValues(task).Inc()
}

// =============================================================================
// 💾 缓存指标记录
// =============================================================================

// RecordCacheResult 记录一次缓存查询结果
func (c *Collector) RecordCacheResult(result string) {
	c.cacheResults.WithLabelValues(result).Inc()
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
