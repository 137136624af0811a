package workflow

import (
	"fmt"

	"github.com/BaSui01/graphrag/types"
)

// State 是状态机的命名状态。
type State string

const (
	StateRouting          State = "routing"
	StateDecomposing      State = "decomposing"
	StateRetrieving       State = "retrieving"
	StateGradingDocuments State = "grading_documents"
	StateRewriting        State = "rewriting"
	StateGenerating       State = "generating"
	StateGradingAnswer    State = "grading_answer"
	StateFinalized        State = "finalized"
)

// Outcome 是一个状态执行完后的结局，决定下一状态。
type Outcome string

const (
	// Routing 结局
	OutcomeRouted   Outcome = "routed"   // 单一问题，直接检索
	OutcomeCompound Outcome = "compound" // 检测到复合意图，进入分解

	// Decomposing 结局
	OutcomeNotDecomposed Outcome = "not_decomposed" // 分解失败或无收益，按单一问题继续

	// Retrieving 结局
	OutcomeRetrieved Outcome = "retrieved"

	// GradingDocuments 结局
	OutcomeDocsRelevant      Outcome = "docs_relevant"      // 有可用证据，进入生成
	OutcomeDocsIrrelevant    Outcome = "docs_irrelevant"    // 无证据且还有检索预算，重写
	OutcomeWebFallback       Outcome = "web_fallback"       // 预算耗尽，强制一次网络搜索
	OutcomeEvidenceExhausted Outcome = "evidence_exhausted" // 彻底没有证据，带降级标记生成

	// Rewriting 结局
	OutcomeRewritten Outcome = "rewritten"

	// Generating 结局
	OutcomeGenerated Outcome = "generated"

	// GradingAnswer 结局
	OutcomeAnswerAccepted Outcome = "answer_accepted" // 定稿
	OutcomeNotGrounded    Outcome = "not_grounded"    // 重新生成
	OutcomeNotAddressed   Outcome = "not_addressed"   // 回到重写
	OutcomeGiveUp         Outcome = "give_up"         // 预算耗尽，带降级标记定稿
)

type stateOutcome struct {
	state   State
	outcome Outcome
}

// transitions 是完整的转换表。不在表里的 (状态, 结局) 组合
// 是编程缺陷，不是运行期要容忍的情况。
var transitions = map[stateOutcome]State{
	{StateRouting, OutcomeRouted}:   StateRetrieving,
	{StateRouting, OutcomeCompound}: StateDecomposing,

	{StateDecomposing, OutcomeNotDecomposed}: StateRetrieving,

	{StateRetrieving, OutcomeRetrieved}: StateGradingDocuments,

	{StateGradingDocuments, OutcomeDocsRelevant}:      StateGenerating,
	{StateGradingDocuments, OutcomeDocsIrrelevant}:    StateRewriting,
	{StateGradingDocuments, OutcomeWebFallback}:       StateRetrieving,
	{StateGradingDocuments, OutcomeEvidenceExhausted}: StateGenerating,

	{StateRewriting, OutcomeRewritten}: StateRetrieving,

	{StateGenerating, OutcomeGenerated}: StateGradingAnswer,

	{StateGradingAnswer, OutcomeAnswerAccepted}: StateFinalized,
	{StateGradingAnswer, OutcomeNotGrounded}:    StateGenerating,
	{StateGradingAnswer, OutcomeNotAddressed}:   StateRewriting,
	{StateGradingAnswer, OutcomeGiveUp}:         StateFinalized,
}

// nextState 查转换表。非法转换返回 INVALID_TRANSITION 错误。
func nextState(state State, outcome Outcome) (State, error) {
	next, ok := transitions[stateOutcome{state, outcome}]
	if !ok {
		return "", types.NewError(types.ErrInvalidTransition,
			fmt.Sprintf("no transition from %s on %s", state, outcome))
	}
	return next, nil
}
