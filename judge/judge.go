package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/graphrag/types"
)

// Task 标识一类判断任务，用于日志与指标。
type Task string

const (
	TaskRoute         Task = "route"
	TaskDecompose     Task = "decompose"
	TaskGradeDocument Task = "grade_document"
	TaskRewrite       Task = "rewrite"
	TaskGradeAnswer   Task = "grade_answer"
)

// Provider 是判断任务依赖的最小 LLM 接口。
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// FallbackFunc 在某次判断降级为保守默认值时被调用，用于指标采集。
type FallbackFunc func(task Task)

// Config 配置判断服务
type Config struct {
	// 单次判断调用超时
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig 返回默认判断配置
func DefaultConfig() Config {
	return Config{Timeout: 30 * time.Second}
}

// Judge 将非受限的模型输出收敛为受约束的判断结果。
type Judge struct {
	provider   Provider
	config     Config
	onFallback FallbackFunc
	logger     *zap.Logger
}

// New creates a judgment service on top of the given provider.
func New(provider Provider, config Config, logger *zap.Logger) *Judge {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Judge{
		provider: provider,
		config:   config,
		logger:   logger.With(zap.String("component", "judge")),
	}
}

// OnFallback registers a hook invoked whenever a task falls back to its
// conservative default.
func (j *Judge) OnFallback(fn FallbackFunc) {
	j.onFallback = fn
}

// RouteDecision 是路由分类的结果。
type RouteDecision struct {
	Route    types.Route `json:"route"`
	Compound bool        `json:"compound"`
	// Fallback 为 true 表示判断输出不合法，路由取了保守默认值。
	Fallback bool `json:"fallback"`
}

// ClassifyRoute 决定问题的检索路由与是否复合。
// 不合法的输出回退到 hybrid（最安全的通用路由）且不标记复合，
// 失败被记录而不上抛。
func (j *Judge) ClassifyRoute(ctx context.Context, question string) RouteDecision {
	fallback := RouteDecision{Route: types.RouteHybrid, Compound: false, Fallback: true}

	raw, err := j.complete(ctx, TaskRoute, fmt.Sprintf(routePrompt, question))
	if err != nil {
		return j.fellBack(TaskRoute, fallback, err)
	}

	var parsed struct {
		Route    string `json:"route"`
		Compound bool   `json:"compound"`
	}
	if err := unmarshalJSON(raw, &parsed); err != nil {
		return j.fellBack(TaskRoute, fallback, err)
	}
	if !types.ValidRoute(parsed.Route) {
		return j.fellBack(TaskRoute, fallback,
			types.NewError(types.ErrMalformedJudgment, fmt.Sprintf("unknown route %q", parsed.Route)))
	}

	return RouteDecision{Route: types.Route(parsed.Route), Compound: parsed.Compound}
}

// Decompose 将复合问题拆成至多 max 个独立子问题。
// 零个子问题或不合法输出都返回空序列加 fallback 标记；
// 分解永远只是优化，不是必需。
func (j *Judge) Decompose(ctx context.Context, question string, max int) ([]string, bool) {
	raw, err := j.complete(ctx, TaskDecompose, fmt.Sprintf(decomposePrompt, max, question))
	if err != nil {
		j.recordFallback(TaskDecompose, err)
		return nil, true
	}

	var parsed struct {
		SubQuestions []string `json:"sub_questions"`
	}
	if err := unmarshalJSON(raw, &parsed); err != nil {
		j.recordFallback(TaskDecompose, err)
		return nil, true
	}

	subs := make([]string, 0, len(parsed.SubQuestions))
	for _, s := range parsed.SubQuestions {
		if s = strings.TrimSpace(s); s != "" {
			subs = append(subs, s)
		}
	}
	if len(subs) == 0 {
		j.recordFallback(TaskDecompose,
			types.NewError(types.ErrMalformedJudgment, "decomposition yielded no sub-questions"))
		return nil, true
	}
	if len(subs) > max {
		subs = subs[:max]
	}
	return subs, false
}

// GradeDocument 独立评估单个文档与问题的相关性。
// 只有判断明确肯定时才算相关；任何含糊或不合法的结果都算不相关
// （宁可重试检索，也不要从噪声里生成答案）。
func (j *Judge) GradeDocument(ctx context.Context, question string, doc types.Document) bool {
	raw, err := j.complete(ctx, TaskGradeDocument, fmt.Sprintf(gradeDocumentPrompt, doc.Content, question))
	if err != nil {
		j.recordFallback(TaskGradeDocument, err)
		return false
	}

	var parsed struct {
		Relevant string `json:"relevant"`
	}
	if err := unmarshalJSON(raw, &parsed); err != nil {
		j.recordFallback(TaskGradeDocument, err)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(parsed.Relevant)) {
	case "yes":
		return true
	case "no":
		return false
	default:
		j.recordFallback(TaskGradeDocument,
			types.NewError(types.ErrMalformedJudgment, fmt.Sprintf("grade %q is not yes/no", parsed.Relevant)))
		return false
	}
}

// Rewrite 重写查询以提升检索召回。
// 不合法输出返回原查询不变加 fallback 标记。
func (j *Judge) Rewrite(ctx context.Context, original, active string) (string, bool) {
	raw, err := j.complete(ctx, TaskRewrite, fmt.Sprintf(rewritePrompt, original, active))
	if err != nil {
		j.recordFallback(TaskRewrite, err)
		return active, true
	}

	var parsed struct {
		Query string `json:"query"`
	}
	if err := unmarshalJSON(raw, &parsed); err != nil {
		j.recordFallback(TaskRewrite, err)
		return active, true
	}

	query := strings.TrimSpace(parsed.Query)
	if query == "" {
		j.recordFallback(TaskRewrite,
			types.NewError(types.ErrMalformedJudgment, "rewrite produced an empty query"))
		return active, true
	}
	return query, false
}

// AnswerAssessment 是答案质量评分的结果：
// 事实性（groundedness）与针对性（addresses the question）两个独立判断。
type AnswerAssessment struct {
	Grounded  bool `json:"grounded"`
	Addresses bool `json:"addresses"`
	// Fallback 为 true 表示至少一个判断降级为保守默认值。
	Fallback bool `json:"fallback"`
}

// GradeAnswer 对答案草稿做两项独立检查。
// 不合法输出按保守默认处理：grounded=false / addresses=false，
// 由调用方有界的重试预算兜底。
func (j *Judge) GradeAnswer(ctx context.Context, question, generation string, docs []types.Document) AnswerAssessment {
	assessment := AnswerAssessment{}

	contextText := joinDocuments(docs)

	raw, err := j.complete(ctx, TaskGradeAnswer, fmt.Sprintf(gradeGroundedPrompt, contextText, generation))
	if err != nil {
		j.recordFallback(TaskGradeAnswer, err)
		assessment.Fallback = true
	} else if grounded, ok := parseYesNo(raw, "grounded"); ok {
		assessment.Grounded = grounded
	} else {
		j.recordFallback(TaskGradeAnswer,
			types.NewError(types.ErrMalformedJudgment, "groundedness grade failed schema validation"))
		assessment.Fallback = true
	}

	raw, err = j.complete(ctx, TaskGradeAnswer, fmt.Sprintf(gradeAddressesPrompt, question, generation))
	if err != nil {
		j.recordFallback(TaskGradeAnswer, err)
		assessment.Fallback = true
	} else if addresses, ok := parseYesNo(raw, "addresses"); ok {
		assessment.Addresses = addresses
	} else {
		j.recordFallback(TaskGradeAnswer,
			types.NewError(types.ErrMalformedJudgment, "usefulness grade failed schema validation"))
		assessment.Fallback = true
	}

	return assessment
}

// complete 带超时地调用底层模型。
func (j *Judge) complete(ctx context.Context, task Task, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	out, err := j.provider.Complete(ctx, prompt)
	if err != nil {
		return "", types.NewError(types.ErrToolUnavailable, fmt.Sprintf("judgment call %s failed", task)).WithCause(err)
	}
	return out, nil
}

func (j *Judge) fellBack(task Task, d RouteDecision, err error) RouteDecision {
	j.recordFallback(task, err)
	return d
}

func (j *Judge) recordFallback(task Task, err error) {
	j.logger.Warn("judgment fell back to conservative default",
		zap.String("task", string(task)),
		zap.Error(err))
	if j.onFallback != nil {
		j.onFallback(task)
	}
}

// unmarshalJSON 从模型输出里提取最外层的 JSON 对象并解析。
// 模型经常在 JSON 外包一层说明文字或代码栅栏。
func unmarshalJSON(response string, v any) error {
	response = strings.TrimSpace(response)
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")
	if startIdx < 0 || endIdx <= startIdx {
		return types.NewError(types.ErrMalformedJudgment, "response contains no JSON object")
	}
	if err := json.Unmarshal([]byte(response[startIdx:endIdx+1]), v); err != nil {
		return types.NewError(types.ErrMalformedJudgment, "response failed schema validation").WithCause(err)
	}
	return nil
}

// parseYesNo 解析 {"<field>": "yes"|"no"} 形式的二元评分。
func parseYesNo(response, field string) (value bool, ok bool) {
	var parsed map[string]string
	if err := unmarshalJSON(response, &parsed); err != nil {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(parsed[field])) {
	case "yes":
		return true, true
	case "no":
		return false, true
	default:
		return false, false
	}
}

func joinDocuments(docs []types.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d.Content != "" {
			parts = append(parts, d.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
