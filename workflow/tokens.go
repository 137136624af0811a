package workflow

import (
	"github.com/pkoukk/tiktoken-go"
)

// tokenCounter 用 tiktoken 给证据文本计数；编码表加载失败时
// 退化为按字符数估算，保证离线测试可用。
type tokenCounter struct {
	encoding *tiktoken.Tiktoken
}

func newTokenCounter() *tokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &tokenCounter{}
	}
	return &tokenCounter{encoding: enc}
}

// Count returns the token count of text.
func (c *tokenCounter) Count(text string) int {
	if c.encoding != nil {
		return len(c.encoding.Encode(text, nil, nil))
	}
	// 粗略估算: 平均 4 字符一个 token
	return (len(text) + 3) / 4
}
