// =============================================================================
// 🎭 Mock 实现
// =============================================================================
// 为工作流各契约提供可脚本化的测试替身。MockJudgment 等类型通过
// 函数字段注入行为，未设置的字段使用保守默认值。
// =============================================================================
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/graphrag/judge"
	"github.com/BaSui01/graphrag/types"
)

// =============================================================================
// 🤖 ScriptedProvider
// =============================================================================

// ScriptedProvider 按脚本逐条返回响应的 LLM Provider。
// 响应耗尽后重复返回最后一条；Err 非空时每次调用都返回该错误。
type ScriptedProvider struct {
	mu        sync.Mutex
	responses []string
	index     int

	// Err 注入的调用错误
	Err error

	// Prompts 记录收到的全部提示词
	Prompts []string
}

// NewScriptedProvider 创建脚本化 Provider
func NewScriptedProvider(responses ...string) *ScriptedProvider {
	return &ScriptedProvider{responses: responses}
}

// Complete 返回脚本中的下一条响应
func (p *ScriptedProvider) Complete(ctx context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Prompts = append(p.Prompts, prompt)
	if p.Err != nil {
		return "", p.Err
	}
	if len(p.responses) == 0 {
		return "", nil
	}
	resp := p.responses[min(p.index, len(p.responses)-1)]
	p.index++
	return resp, nil
}

// CallCount 返回已收到的调用次数
func (p *ScriptedProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Prompts)
}

// =============================================================================
// ⚖️ MockJudgment
// =============================================================================

// MockJudgment 判断服务替身。未设置的函数字段使用保守默认值：
// semantic 路由、不分解、全部相关、查询原样保留、答案通过两项检查。
type MockJudgment struct {
	RouteFunc         func(ctx context.Context, question string) judge.RouteDecision
	DecomposeFunc     func(ctx context.Context, question string, max int) ([]string, bool)
	GradeDocumentFunc func(ctx context.Context, question string, doc types.Document) bool
	RewriteFunc       func(ctx context.Context, original, active string) (string, bool)
	GradeAnswerFunc   func(ctx context.Context, question, generation string, docs []types.Document) judge.AnswerAssessment
}

func (m *MockJudgment) ClassifyRoute(ctx context.Context, question string) judge.RouteDecision {
	if m.RouteFunc != nil {
		return m.RouteFunc(ctx, question)
	}
	return judge.RouteDecision{Route: types.RouteSemantic}
}

func (m *MockJudgment) Decompose(ctx context.Context, question string, max int) ([]string, bool) {
	if m.DecomposeFunc != nil {
		return m.DecomposeFunc(ctx, question, max)
	}
	return []string{question}, false
}

func (m *MockJudgment) GradeDocument(ctx context.Context, question string, doc types.Document) bool {
	if m.GradeDocumentFunc != nil {
		return m.GradeDocumentFunc(ctx, question, doc)
	}
	return true
}

func (m *MockJudgment) Rewrite(ctx context.Context, original, active string) (string, bool) {
	if m.RewriteFunc != nil {
		return m.RewriteFunc(ctx, original, active)
	}
	return active, false
}

func (m *MockJudgment) GradeAnswer(ctx context.Context, question, generation string, docs []types.Document) judge.AnswerAssessment {
	if m.GradeAnswerFunc != nil {
		return m.GradeAnswerFunc(ctx, question, generation, docs)
	}
	return judge.AnswerAssessment{Grounded: true, Addresses: true}
}

// =============================================================================
// 🔍 MockRetriever
// =============================================================================

// MockRetriever 检索替身。RetrieveFunc 为空时返回 Docs。
type MockRetriever struct {
	mu           sync.Mutex
	Docs         []types.Document
	RetrieveFunc func(ctx context.Context, query string, route types.Route, filters map[string]string) []types.Document

	// Queries 按调用顺序记录收到的查询
	Queries []string
	// Routes 按调用顺序记录收到的路由
	Routes []types.Route
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string, route types.Route, filters map[string]string) []types.Document {
	m.mu.Lock()
	m.Queries = append(m.Queries, query)
	m.Routes = append(m.Routes, route)
	m.mu.Unlock()

	if m.RetrieveFunc != nil {
		return m.RetrieveFunc(ctx, query, route, filters)
	}
	out := make([]types.Document, len(m.Docs))
	copy(out, m.Docs)
	return out
}

// CallCount 返回检索调用次数
func (m *MockRetriever) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Queries)
}

// =============================================================================
// ✍️ MockGenerator
// =============================================================================

// MockGenerator 生成替身。GenerateFunc 为空时返回 Answer。
type MockGenerator struct {
	mu           sync.Mutex
	Answer       string
	GenerateFunc func(ctx context.Context, question string, docs []types.Document) string

	calls int
}

func (m *MockGenerator) Generate(ctx context.Context, question string, docs []types.Document) string {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, question, docs)
	}
	if m.Answer == "" {
		return "mock answer"
	}
	return m.Answer
}

// CallCount 返回生成调用次数
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
