package workflow

import (
	"fmt"
	"strings"
)

// Assemble 把各子问题的最终答案按原始子问题顺序合并成一个连贯答案。
// 完成顺序与合并顺序无关。单个子答案原样返回。
func Assemble(subQuestions, answers []string) string {
	if len(answers) == 0 {
		return ""
	}
	if len(answers) == 1 {
		return answers[0]
	}

	var b strings.Builder
	for i, answer := range answers {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if i < len(subQuestions) {
			fmt.Fprintf(&b, "%s\n%s", subQuestions[i], answer)
		} else {
			b.WriteString(answer)
		}
	}
	return b.String()
}
