package types

import "time"

// Caveat 标记最终答案伴随的降级情况。
type Caveat string

const (
	// CaveatLowConfidence 生成时没有任何相关证据。
	CaveatLowConfidence Caveat = "low_confidence"

	// CaveatHallucinationRisk 生成次数用尽时答案仍未通过事实性检查。
	CaveatHallucinationRisk Caveat = "hallucination_risk"

	// CaveatPartiallyAddressed 预算用尽时答案仍未完全回应问题。
	CaveatPartiallyAddressed Caveat = "partially_addressed"

	// CaveatJudgmentFallback 某次判断输出不合法，使用了保守默认值。
	CaveatJudgmentFallback Caveat = "judgment_fallback"
)

// Trace 是返回给调用方的结构化可观测轨迹。
type Trace struct {
	TraceID            string        `json:"trace_id"`
	Fingerprint        string        `json:"fingerprint"`
	Route              Route         `json:"route"`
	SubQuestions       []string      `json:"sub_questions,omitempty"`
	RetrievalAttempts  int           `json:"retrieval_attempts"`
	GenerationAttempts int           `json:"generation_attempts"`
	Caveats            []Caveat      `json:"caveats,omitempty"`
	Cached             bool          `json:"cached"`
	Elapsed            time.Duration `json:"elapsed"`
}

// Answer 是工作流的最终产出：答案文本加轨迹。
// Text 永远非空；降级情况通过 Trace.Caveats 表达，不混入正文。
type Answer struct {
	Text  string `json:"text"`
	Trace Trace  `json:"trace"`
}
