package types

// Route 代表问题的检索路由。
type Route string

const (
	RouteStructured Route = "structured" // graph traversal over concrete entities/relations
	RouteSemantic   Route = "semantic"   // open-ended/contextual, vector similarity
	RouteHybrid     Route = "hybrid"     // both signals present
	RouteWebSearch  Route = "web_search" // current events or outside corpus coverage
)

// ValidRoute reports whether s names a known route.
func ValidRoute(s string) bool {
	switch Route(s) {
	case RouteStructured, RouteSemantic, RouteHybrid, RouteWebSearch:
		return true
	}
	return false
}

// AnswerGrade 代表答案质量评估的结论。
type AnswerGrade string

const (
	GradeGrounded         AnswerGrade = "grounded"
	GradeNotGrounded      AnswerGrade = "not_grounded"
	GradeAddressesQuestion AnswerGrade = "addresses_question"
	GradeDoesNotAddress   AnswerGrade = "does_not_address"
	GradeUnknown          AnswerGrade = "unknown"
)

// WorkflowState 是贯穿单个子工作流的唯一可变记录。
// 每个进入的问题创建一份全新实例，输出最终答案后即丢弃，
// 绝不在并发子工作流之间共享。
type WorkflowState struct {
	// OriginalQuestion 原始问题文本，创建后不再修改。
	OriginalQuestion string `json:"original_question"`

	// Fingerprint 问题的稳定标识，用于日志与缓存。
	Fingerprint string `json:"fingerprint"`

	// Route 由路由器设置一次，可能被回退逻辑覆盖。
	Route Route `json:"route"`

	// SubQuestions 分解产生的子问题，未分解时为空。
	SubQuestions []string `json:"sub_questions,omitempty"`

	// ActiveQuery 当前发给检索的查询，起始等于原始问题，
	// 可能被重写后的查询替换。
	ActiveQuery string `json:"active_query"`

	// RetrievedDocuments 每次检索尝试都整体替换。
	RetrievedDocuments []Document `json:"retrieved_documents,omitempty"`

	// RelevantDocuments 通过相关性评分的子集，只来自最近一次检索。
	RelevantDocuments []Document `json:"relevant_documents,omitempty"`

	// Generation 最近一次产生的答案草稿。
	Generation string `json:"generation,omitempty"`

	// AnswerGrade 最近一次答案评分结论。
	AnswerGrade AnswerGrade `json:"answer_grade,omitempty"`

	// RetrievalAttempts / GenerationAttempts 单调递增，受配置上限约束。
	RetrievalAttempts  int `json:"retrieval_attempts"`
	GenerationAttempts int `json:"generation_attempts"`

	// FinalAnswer 仅在终态转换时设置一次，且非空。
	FinalAnswer string `json:"final_answer,omitempty"`

	// Caveats 工作流途中收集的降级标记。
	Caveats []Caveat `json:"caveats,omitempty"`
}

// NewWorkflowState creates a fresh state for one question.
func NewWorkflowState(question string) *WorkflowState {
	return &WorkflowState{
		OriginalQuestion: question,
		Fingerprint:      Fingerprint(question),
		ActiveQuery:      question,
		AnswerGrade:      GradeUnknown,
	}
}

// SetRetrieved replaces the retrieved set and clears the relevant subset.
// RelevantDocuments never survives a retrieval attempt that replaced
// RetrievedDocuments.
func (s *WorkflowState) SetRetrieved(docs []Document) {
	s.RetrievedDocuments = docs
	s.RelevantDocuments = nil
}

// AddCaveat records a caveat once; duplicates are ignored.
func (s *WorkflowState) AddCaveat(c Caveat) {
	for _, existing := range s.Caveats {
		if existing == c {
			return
		}
	}
	s.Caveats = append(s.Caveats, c)
}

// Finalized reports whether the terminal transition has happened.
func (s *WorkflowState) Finalized() bool {
	return s.FinalAnswer != ""
}
