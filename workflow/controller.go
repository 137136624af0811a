package workflow

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BaSui01/graphrag/judge"
	"github.com/BaSui01/graphrag/retrieval"
	"github.com/BaSui01/graphrag/types"
)

// Judgment 是控制器消费的判断服务契约。*judge.Judge 实现它。
type Judgment interface {
	ClassifyRoute(ctx context.Context, question string) judge.RouteDecision
	Decompose(ctx context.Context, question string, max int) ([]string, bool)
	GradeDocument(ctx context.Context, question string, doc types.Document) bool
	Rewrite(ctx context.Context, original, active string) (string, bool)
	GradeAnswer(ctx context.Context, question, generation string, docs []types.Document) judge.AnswerAssessment
}

// Retriever 是控制器消费的检索契约。*retrieval.Orchestrator 实现它。
type Retriever interface {
	Retrieve(ctx context.Context, query string, route types.Route, filters map[string]string) []types.Document
}

// AnswerGenerator 是控制器消费的生成契约。*Generator 实现它。
type AnswerGenerator interface {
	Generate(ctx context.Context, question string, docs []types.Document) string
}

// Config 配置控制器的循环边界
type Config struct {
	// 检索重写次数上限
	MaxRetrievalAttempts int `json:"max_retrieval_attempts"`
	// 重新生成次数上限
	MaxGenerationAttempts int `json:"max_generation_attempts"`
	// 分解子问题上限
	MaxSubQuestions int `json:"max_sub_questions"`
	// 检索预算耗尽后是否强制一次网络搜索
	WebFallbackEnabled bool `json:"web_fallback_enabled"`
}

// DefaultConfig 返回默认控制器配置
func DefaultConfig() Config {
	return Config{
		MaxRetrievalAttempts:  2,
		MaxGenerationAttempts: 2,
		MaxSubQuestions:       4,
		WebFallbackEnabled:    true,
	}
}

// Controller 驱动单个问题走完整个自适应工作流。
// 所有跨步骤状态都在 WorkflowState 里；控制器自身无状态，
// 可被任意多个问题并发使用。
type Controller struct {
	judge     Judgment
	retriever Retriever
	generator AnswerGenerator
	config    Config
	tracer    trace.Tracer
	logger    *zap.Logger
}

// NewController wires the judgment service, retrieval orchestrator, and
// generator into a bounded state machine.
func NewController(j Judgment, r Retriever, g AnswerGenerator, config Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxRetrievalAttempts <= 0 {
		config.MaxRetrievalAttempts = DefaultConfig().MaxRetrievalAttempts
	}
	if config.MaxGenerationAttempts <= 0 {
		config.MaxGenerationAttempts = DefaultConfig().MaxGenerationAttempts
	}
	if config.MaxSubQuestions <= 0 {
		config.MaxSubQuestions = DefaultConfig().MaxSubQuestions
	}
	return &Controller{
		judge:     j,
		retriever: r,
		generator: g,
		config:    config,
		tracer:    otel.Tracer("graphrag/workflow"),
		logger:    logger.With(zap.String("component", "controller")),
	}
}

// Run 处理一个问题直到终态，返回定稿后的 WorkflowState。
// 只有上下文取消会返回错误；一切检索/判断故障都在内部降级。
func (c *Controller) Run(ctx context.Context, question string) (*types.WorkflowState, error) {
	return c.run(ctx, question, true)
}

// run 执行一个（子）工作流实例。allowDecompose 防止子问题再次分解。
func (c *Controller) run(ctx context.Context, question string, allowDecompose bool) (*types.WorkflowState, error) {
	ctx, span := c.tracer.Start(ctx, "workflow.run",
		trace.WithAttributes(attribute.String("question.fingerprint", types.Fingerprint(question))))
	defer span.End()

	s := types.NewWorkflowState(question)
	filters := retrieval.ExtractFilters(question)
	state := StateRouting
	webFallbackUsed := false

	for state != StateFinalized {
		// 协作式取消：残缺的子工作流不贡献答案。
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		span.AddEvent(string(state))

		var (
			outcome Outcome
			err     error
		)

		switch state {
		case StateRouting:
			outcome = c.stepRoute(ctx, s, allowDecompose)

		case StateDecomposing:
			subs, fellBack := c.judge.Decompose(ctx, s.OriginalQuestion, c.config.MaxSubQuestions)
			if fellBack {
				s.AddCaveat(types.CaveatJudgmentFallback)
			}
			if len(subs) <= 1 {
				// 分解无收益：按单一问题继续，分解只是优化。
				outcome = OutcomeNotDecomposed
				break
			}
			s.SubQuestions = subs
			if err := c.runSubWorkflows(ctx, s, subs); err != nil {
				return nil, err
			}
			return s, nil

		case StateRetrieving:
			s.SetRetrieved(c.retriever.Retrieve(ctx, s.ActiveQuery, s.Route, filters))
			outcome = OutcomeRetrieved

		case StateGradingDocuments:
			outcome = c.stepGradeDocuments(ctx, s, &webFallbackUsed)

		case StateRewriting:
			rewritten, fellBack := c.judge.Rewrite(ctx, s.OriginalQuestion, s.ActiveQuery)
			if fellBack {
				s.AddCaveat(types.CaveatJudgmentFallback)
			}
			s.ActiveQuery = rewritten
			s.RetrievalAttempts++
			outcome = OutcomeRewritten

		case StateGenerating:
			s.Generation = c.generator.Generate(ctx, s.OriginalQuestion, s.RelevantDocuments)
			outcome = OutcomeGenerated

		case StateGradingAnswer:
			outcome = c.stepGradeAnswer(ctx, s)

		default:
			return nil, types.NewError(types.ErrInvalidTransition, "unknown state "+string(state))
		}

		if state, err = nextState(state, outcome); err != nil {
			return nil, err
		}
	}

	// 终态转换：final_answer 只在这里设置一次，且非空
	// （生成器保证非空输出）。
	s.FinalAnswer = s.Generation

	span.SetAttributes(
		attribute.String("workflow.route", string(s.Route)),
		attribute.Int("workflow.retrieval_attempts", s.RetrievalAttempts),
		attribute.Int("workflow.generation_attempts", s.GenerationAttempts),
		attribute.Int("workflow.caveats", len(s.Caveats)))

	c.logger.Info("workflow finalized",
		zap.String("fingerprint", s.Fingerprint),
		zap.String("route", string(s.Route)),
		zap.Int("retrieval_attempts", s.RetrievalAttempts),
		zap.Int("generation_attempts", s.GenerationAttempts),
		zap.Int("caveats", len(s.Caveats)))

	return s, nil
}

// stepRoute 分类路由并决定是否进入分解。
func (c *Controller) stepRoute(ctx context.Context, s *types.WorkflowState, allowDecompose bool) Outcome {
	decision := c.judge.ClassifyRoute(ctx, s.OriginalQuestion)
	s.Route = decision.Route
	if decision.Fallback {
		s.AddCaveat(types.CaveatJudgmentFallback)
	}

	c.logger.Debug("question routed",
		zap.String("fingerprint", s.Fingerprint),
		zap.String("route", string(decision.Route)),
		zap.Bool("compound", decision.Compound))

	if decision.Compound && allowDecompose {
		return OutcomeCompound
	}
	return OutcomeRouted
}

// stepGradeDocuments 逐个评分文档并选择下一步：
// 有证据 → 生成；无证据且有预算 → 重写；预算耗尽 → 一次网络回退；
// 回退也用完 → 带降级标记生成。
func (c *Controller) stepGradeDocuments(ctx context.Context, s *types.WorkflowState, webFallbackUsed *bool) Outcome {
	relevant := make([]types.Document, 0, len(s.RetrievedDocuments))
	for i, doc := range s.RetrievedDocuments {
		graded := doc.WithRelevance(c.judge.GradeDocument(ctx, s.OriginalQuestion, doc))
		s.RetrievedDocuments[i] = graded
		if graded.IsRelevant() {
			relevant = append(relevant, graded)
		}
	}
	s.RelevantDocuments = relevant

	c.logger.Debug("documents graded",
		zap.String("fingerprint", s.Fingerprint),
		zap.Int("retrieved", len(s.RetrievedDocuments)),
		zap.Int("relevant", len(relevant)))

	switch {
	case len(relevant) > 0:
		return OutcomeDocsRelevant

	case s.RetrievalAttempts < c.config.MaxRetrievalAttempts:
		return OutcomeDocsIrrelevant

	case c.config.WebFallbackEnabled && !*webFallbackUsed && s.Route != types.RouteWebSearch:
		// 检索预算耗尽：最后强制一次网络搜索，之后无论结果如何都生成。
		*webFallbackUsed = true
		s.Route = types.RouteWebSearch
		c.logger.Info("retrieval exhausted, forcing web search fallback",
			zap.String("fingerprint", s.Fingerprint))
		return OutcomeWebFallback

	default:
		s.AddCaveat(types.CaveatLowConfidence)
		return OutcomeEvidenceExhausted
	}
}

// stepGradeAnswer 执行两项答案检查并应用转换策略。
func (c *Controller) stepGradeAnswer(ctx context.Context, s *types.WorkflowState) Outcome {
	assessment := c.judge.GradeAnswer(ctx, s.OriginalQuestion, s.Generation, s.RelevantDocuments)
	if assessment.Fallback {
		s.AddCaveat(types.CaveatJudgmentFallback)
	}

	switch {
	case !assessment.Grounded:
		s.AnswerGrade = types.GradeNotGrounded
		s.GenerationAttempts++
		if s.GenerationAttempts < c.config.MaxGenerationAttempts {
			return OutcomeNotGrounded
		}
		// 生成预算耗尽：带幻觉风险标记定稿。
		s.AddCaveat(types.CaveatHallucinationRisk)
		return OutcomeGiveUp

	case !assessment.Addresses:
		s.AnswerGrade = types.GradeDoesNotAddress
		if s.RetrievalAttempts < c.config.MaxRetrievalAttempts {
			return OutcomeNotAddressed
		}
		s.AddCaveat(types.CaveatPartiallyAddressed)
		return OutcomeGiveUp

	default:
		s.AnswerGrade = types.GradeAddressesQuestion
		return OutcomeAnswerAccepted
	}
}

// runSubWorkflows 并发运行各子问题的独立子工作流并按原始顺序合并。
// 子工作流之间没有共享可变状态；Assembler 是汇合点。
func (c *Controller) runSubWorkflows(ctx context.Context, s *types.WorkflowState, subs []string) error {
	results := make([]*types.WorkflowState, len(subs))

	g, ctx := errgroup.WithContext(ctx)
	for i, sub := range subs {
		g.Go(func() error {
			st, err := c.run(ctx, sub, false)
			if err != nil {
				return err
			}
			results[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	answers := make([]string, len(results))
	for i, result := range results {
		answers[i] = result.FinalAnswer
		for _, caveat := range result.Caveats {
			s.AddCaveat(caveat)
		}
		if result.RetrievalAttempts > s.RetrievalAttempts {
			s.RetrievalAttempts = result.RetrievalAttempts
		}
		if result.GenerationAttempts > s.GenerationAttempts {
			s.GenerationAttempts = result.GenerationAttempts
		}
	}

	s.FinalAnswer = Assemble(subs, answers)
	s.AnswerGrade = types.GradeAddressesQuestion
	return nil
}
