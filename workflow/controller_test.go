package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/graphrag/judge"
	"github.com/BaSui01/graphrag/testutil"
	"github.com/BaSui01/graphrag/testutil/mocks"
	"github.com/BaSui01/graphrag/types"
)

func newTestController(j Judgment, r Retriever, g AnswerGenerator, cfg Config) *Controller {
	return NewController(j, r, g, cfg, zap.NewNop())
}

// ============================================================
// 主干路径
// ============================================================

// 干净的一轮：路由 → 检索 → 证据相关 → 生成 → 通过两项检查 → 定稿。
func TestController_HappyPath(t *testing.T) {
	retriever := &mocks.MockRetriever{Docs: []types.Document{
		testutil.Doc("the statute of limitations is ten years", types.SourceVector),
	}}
	generator := &mocks.MockGenerator{Answer: "It is ten years."}

	c := newTestController(&mocks.MockJudgment{}, retriever, generator, DefaultConfig())

	s, err := c.Run(context.Background(), "what is the statute of limitations?")
	require.NoError(t, err)

	assert.Equal(t, "It is ten years.", s.FinalAnswer)
	assert.Equal(t, types.RouteSemantic, s.Route)
	assert.Equal(t, 0, s.RetrievalAttempts)
	assert.Equal(t, 0, s.GenerationAttempts)
	assert.Empty(t, s.Caveats)
	assert.Equal(t, types.GradeAddressesQuestion, s.AnswerGrade)
	assert.Equal(t, 1, retriever.CallCount())

	// 检索到的文档全部带有评分
	for _, d := range s.RetrievedDocuments {
		assert.True(t, d.Graded())
	}
}

// 第一轮证据全部不相关：重写一次后检索成功。
func TestController_RewriteOnceThenSucceed(t *testing.T) {
	retriever := &mocks.MockRetriever{
		RetrieveFunc: func(ctx context.Context, query string, route types.Route, filters map[string]string) []types.Document {
			if query == "rewritten query" {
				return []types.Document{testutil.Doc("useful evidence", types.SourceVector)}
			}
			return []types.Document{testutil.Doc("noise", types.SourceVector)}
		},
	}
	j := &mocks.MockJudgment{
		GradeDocumentFunc: func(ctx context.Context, question string, doc types.Document) bool {
			return doc.Content == "useful evidence"
		},
		RewriteFunc: func(ctx context.Context, original, active string) (string, bool) {
			return "rewritten query", false
		},
	}
	generator := &mocks.MockGenerator{Answer: "answer from better evidence"}

	c := newTestController(j, retriever, generator, DefaultConfig())

	s, err := c.Run(context.Background(), "vague question")
	require.NoError(t, err)

	assert.Equal(t, "answer from better evidence", s.FinalAnswer)
	assert.Equal(t, 1, s.RetrievalAttempts)
	assert.Equal(t, "rewritten query", s.ActiveQuery)
	// 重写不改变原始问题
	assert.Equal(t, "vague question", s.OriginalQuestion)
	assert.Equal(t, []string{"vague question", "rewritten query"}, retriever.Queries)
	assert.Empty(t, s.Caveats)
}

// ============================================================
// 网络搜索回退
// ============================================================

// 本地检索预算耗尽后强制一次网络搜索，且之后无论评分结果如何都生成。
func TestController_WebFallbackAfterExhaustion(t *testing.T) {
	retriever := &mocks.MockRetriever{
		RetrieveFunc: func(ctx context.Context, query string, route types.Route, filters map[string]string) []types.Document {
			if route == types.RouteWebSearch {
				return []types.Document{testutil.Doc("fresh web result", types.SourceWeb)}
			}
			return []types.Document{testutil.Doc("stale local noise", types.SourceVector)}
		},
	}
	j := &mocks.MockJudgment{
		GradeDocumentFunc: func(ctx context.Context, question string, doc types.Document) bool {
			return doc.Source == types.SourceWeb
		},
	}
	generator := &mocks.MockGenerator{Answer: "answer from the web"}

	cfg := DefaultConfig()
	cfg.MaxRetrievalAttempts = 1

	c := newTestController(j, retriever, generator, cfg)

	s, err := c.Run(context.Background(), "very recent event")
	require.NoError(t, err)

	assert.Equal(t, "answer from the web", s.FinalAnswer)
	assert.Equal(t, types.RouteWebSearch, s.Route)
	// 语义检索两次（首次 + 重写后），然后一次网络搜索
	assert.Equal(t, []types.Route{types.RouteSemantic, types.RouteSemantic, types.RouteWebSearch}, retriever.Routes)
}

// 网络回退后证据仍然全不相关：不再回退第二次，带低置信标记生成。
func TestController_WebFallbackUsedOnlyOnce(t *testing.T) {
	retriever := &mocks.MockRetriever{Docs: []types.Document{
		testutil.Doc("irrelevant everywhere", types.SourceVector),
	}}
	j := &mocks.MockJudgment{
		GradeDocumentFunc: func(ctx context.Context, question string, doc types.Document) bool {
			return false
		},
	}
	generator := &mocks.MockGenerator{GenerateFunc: func(ctx context.Context, question string, docs []types.Document) string {
		assert.Empty(t, docs)
		return InsufficientEvidenceAnswer
	}}

	cfg := DefaultConfig()
	cfg.MaxRetrievalAttempts = 1

	c := newTestController(j, retriever, generator, cfg)

	s, err := c.Run(context.Background(), "unanswerable question")
	require.NoError(t, err)

	assert.Equal(t, InsufficientEvidenceAnswer, s.FinalAnswer)
	assert.Contains(t, s.Caveats, types.CaveatLowConfidence)
	// 首次 + 重写后 + 网络回退 = 3 次检索，之后不再回退
	assert.Equal(t, 3, retriever.CallCount())
	assert.Equal(t, types.RouteWebSearch, retriever.Routes[2])
}

// 回退开关关闭时，预算耗尽直接带标记生成。
func TestController_EvidenceExhaustedWithoutFallback(t *testing.T) {
	retriever := &mocks.MockRetriever{Docs: []types.Document{
		testutil.Doc("noise", types.SourceVector),
	}}
	j := &mocks.MockJudgment{
		GradeDocumentFunc: func(ctx context.Context, question string, doc types.Document) bool {
			return false
		},
	}
	generator := &mocks.MockGenerator{GenerateFunc: func(ctx context.Context, question string, docs []types.Document) string {
		return InsufficientEvidenceAnswer
	}}

	cfg := DefaultConfig()
	cfg.MaxRetrievalAttempts = 1
	cfg.WebFallbackEnabled = false

	c := newTestController(j, retriever, generator, cfg)

	s, err := c.Run(context.Background(), "question with no evidence")
	require.NoError(t, err)

	assert.Equal(t, InsufficientEvidenceAnswer, s.FinalAnswer)
	assert.Contains(t, s.Caveats, types.CaveatLowConfidence)
	assert.Equal(t, 2, retriever.CallCount())
	assert.Equal(t, 1, s.RetrievalAttempts)
}

// 已经在网络路由上时，预算耗尽不再触发回退。
func TestController_NoFallbackFromWebRoute(t *testing.T) {
	retriever := &mocks.MockRetriever{Docs: []types.Document{
		testutil.Doc("web noise", types.SourceWeb),
	}}
	j := &mocks.MockJudgment{
		RouteFunc: func(ctx context.Context, question string) judge.RouteDecision {
			return judge.RouteDecision{Route: types.RouteWebSearch}
		},
		GradeDocumentFunc: func(ctx context.Context, question string, doc types.Document) bool {
			return false
		},
	}
	generator := &mocks.MockGenerator{Answer: InsufficientEvidenceAnswer}

	cfg := DefaultConfig()
	cfg.MaxRetrievalAttempts = 1

	c := newTestController(j, retriever, generator, cfg)

	s, err := c.Run(context.Background(), "breaking news nobody covered")
	require.NoError(t, err)

	assert.Contains(t, s.Caveats, types.CaveatLowConfidence)
	assert.Equal(t, 2, retriever.CallCount())
	for _, route := range retriever.Routes {
		assert.Equal(t, types.RouteWebSearch, route)
	}
}

// ============================================================
// 答案评分循环
// ============================================================

// 事实性检查始终不通过：生成预算耗尽后带幻觉风险标记定稿。
func TestController_HallucinationGiveUp(t *testing.T) {
	retriever := &mocks.MockRetriever{Docs: []types.Document{
		testutil.Doc("evidence", types.SourceVector),
	}}
	j := &mocks.MockJudgment{
		GradeAnswerFunc: func(ctx context.Context, question, generation string, docs []types.Document) judge.AnswerAssessment {
			return judge.AnswerAssessment{Grounded: false}
		},
	}
	generator := &mocks.MockGenerator{Answer: "speculative answer"}

	cfg := DefaultConfig()
	cfg.MaxGenerationAttempts = 2

	c := newTestController(j, retriever, generator, cfg)

	s, err := c.Run(context.Background(), "tricky question")
	require.NoError(t, err)

	// 两次生成：首次 + 一次重新生成，然后放弃
	assert.Equal(t, 2, generator.CallCount())
	assert.Equal(t, 2, s.GenerationAttempts)
	assert.Contains(t, s.Caveats, types.CaveatHallucinationRisk)
	assert.Equal(t, "speculative answer", s.FinalAnswer)
	assert.Equal(t, types.GradeNotGrounded, s.AnswerGrade)
}

// 答案有依据但答非所问：回到重写；检索预算耗尽后带部分回应标记定稿。
func TestController_PartiallyAddressedGiveUp(t *testing.T) {
	retriever := &mocks.MockRetriever{Docs: []types.Document{
		testutil.Doc("tangential evidence", types.SourceVector),
	}}
	j := &mocks.MockJudgment{
		GradeAnswerFunc: func(ctx context.Context, question, generation string, docs []types.Document) judge.AnswerAssessment {
			return judge.AnswerAssessment{Grounded: true, Addresses: false}
		},
	}
	generator := &mocks.MockGenerator{Answer: "related but incomplete"}

	cfg := DefaultConfig()
	cfg.MaxRetrievalAttempts = 1

	c := newTestController(j, retriever, generator, cfg)

	s, err := c.Run(context.Background(), "multi-faceted question")
	require.NoError(t, err)

	assert.Contains(t, s.Caveats, types.CaveatPartiallyAddressed)
	assert.Equal(t, "related but incomplete", s.FinalAnswer)
	assert.Equal(t, types.GradeDoesNotAddress, s.AnswerGrade)
	assert.Equal(t, 1, s.RetrievalAttempts)
}

// ============================================================
// 分解
// ============================================================

func TestController_DecomposesCompoundQuestion(t *testing.T) {
	decomposeCalls := 0
	retriever := &mocks.MockRetriever{
		RetrieveFunc: func(ctx context.Context, query string, route types.Route, filters map[string]string) []types.Document {
			return []types.Document{testutil.Doc("evidence for "+query, types.SourceVector)}
		},
	}
	j := &mocks.MockJudgment{
		RouteFunc: func(ctx context.Context, question string) judge.RouteDecision {
			return judge.RouteDecision{Route: types.RouteHybrid, Compound: question == "A and also B?"}
		},
		DecomposeFunc: func(ctx context.Context, question string, max int) ([]string, bool) {
			decomposeCalls++
			return []string{"what is A?", "what is B?"}, false
		},
	}
	generator := &mocks.MockGenerator{GenerateFunc: func(ctx context.Context, question string, docs []types.Document) string {
		return "answer to " + question
	}}

	c := newTestController(j, retriever, generator, DefaultConfig())

	s, err := c.Run(context.Background(), "A and also B?")
	require.NoError(t, err)

	assert.Equal(t, []string{"what is A?", "what is B?"}, s.SubQuestions)
	// 合并答案保持子问题原始顺序，与完成顺序无关
	assert.Equal(t, "what is A?\nanswer to what is A?\n\nwhat is B?\nanswer to what is B?", s.FinalAnswer)
	// 子问题不再二次分解
	assert.Equal(t, 1, decomposeCalls)
	assert.Equal(t, 2, retriever.CallCount())
}

func TestController_DecompositionWithoutGainContinuesAsSingle(t *testing.T) {
	retriever := &mocks.MockRetriever{Docs: []types.Document{
		testutil.Doc("evidence", types.SourceVector),
	}}
	j := &mocks.MockJudgment{
		RouteFunc: func(ctx context.Context, question string) judge.RouteDecision {
			return judge.RouteDecision{Route: types.RouteSemantic, Compound: true}
		},
		DecomposeFunc: func(ctx context.Context, question string, max int) ([]string, bool) {
			// 分解只吐回原问题：无收益
			return []string{question}, false
		},
	}
	generator := &mocks.MockGenerator{Answer: "single answer"}

	c := newTestController(j, retriever, generator, DefaultConfig())

	s, err := c.Run(context.Background(), "looks compound but is not")
	require.NoError(t, err)

	assert.Equal(t, "single answer", s.FinalAnswer)
	assert.Empty(t, s.SubQuestions)
}

func TestController_DecompositionFallbackCarriesCaveat(t *testing.T) {
	retriever := &mocks.MockRetriever{Docs: []types.Document{
		testutil.Doc("evidence", types.SourceVector),
	}}
	j := &mocks.MockJudgment{
		RouteFunc: func(ctx context.Context, question string) judge.RouteDecision {
			return judge.RouteDecision{Route: types.RouteSemantic, Compound: true}
		},
		DecomposeFunc: func(ctx context.Context, question string, max int) ([]string, bool) {
			return []string{question}, true
		},
	}
	generator := &mocks.MockGenerator{Answer: "answer"}

	c := newTestController(j, retriever, generator, DefaultConfig())

	s, err := c.Run(context.Background(), "compound question, broken judge")
	require.NoError(t, err)

	assert.Equal(t, "answer", s.FinalAnswer)
	assert.Contains(t, s.Caveats, types.CaveatJudgmentFallback)
}

// ============================================================
// 降级与取消
// ============================================================

func TestController_RouteFallbackCarriesCaveat(t *testing.T) {
	retriever := &mocks.MockRetriever{Docs: []types.Document{
		testutil.Doc("evidence", types.SourceVector),
	}}
	j := &mocks.MockJudgment{
		RouteFunc: func(ctx context.Context, question string) judge.RouteDecision {
			return judge.RouteDecision{Route: types.RouteHybrid, Fallback: true}
		},
	}
	generator := &mocks.MockGenerator{Answer: "answer"}

	c := newTestController(j, retriever, generator, DefaultConfig())

	s, err := c.Run(context.Background(), "question")
	require.NoError(t, err)

	assert.Equal(t, types.RouteHybrid, s.Route)
	assert.Contains(t, s.Caveats, types.CaveatJudgmentFallback)
	// 同一标记只记录一次
	count := 0
	for _, cv := range s.Caveats {
		if cv == types.CaveatJudgmentFallback {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestController_CancelledContext(t *testing.T) {
	c := newTestController(&mocks.MockJudgment{}, &mocks.MockRetriever{}, &mocks.MockGenerator{}, DefaultConfig())

	s, err := c.Run(testutil.CancelledContext(), "question")
	require.Error(t, err)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, context.Canceled)
}

// 相同输入与相同判断脚本下，两次运行产生完全一致的终态。
func TestController_Deterministic(t *testing.T) {
	newDeps := func() (*mocks.MockRetriever, *mocks.MockGenerator) {
		return &mocks.MockRetriever{Docs: []types.Document{
			testutil.Doc("stable evidence", types.SourceVector),
		}}, &mocks.MockGenerator{Answer: "stable answer"}
	}

	r1, g1 := newDeps()
	s1, err := newTestController(&mocks.MockJudgment{}, r1, g1, DefaultConfig()).Run(context.Background(), "same question")
	require.NoError(t, err)

	r2, g2 := newDeps()
	s2, err := newTestController(&mocks.MockJudgment{}, r2, g2, DefaultConfig()).Run(context.Background(), "same question")
	require.NoError(t, err)

	assert.Equal(t, s1.FinalAnswer, s2.FinalAnswer)
	assert.Equal(t, s1.Route, s2.Route)
	assert.Equal(t, s1.RetrievalAttempts, s2.RetrievalAttempts)
	assert.Equal(t, s1.Fingerprint, s2.Fingerprint)
}
