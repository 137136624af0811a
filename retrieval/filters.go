package retrieval

import (
	"regexp"
	"strings"
)

// 问题中可识别的元数据过滤信号。

var (
	yearPattern     = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	quotedPattern   = regexp.MustCompile(`"([^"]{2,120})"`)
	documentPattern = regexp.MustCompile(`(?i)\b(?:document|ruling|provision|regulation)\s+([A-Za-z0-9/\-\.]{1,40})`)
)

// ExtractFilters 从问题文本里提取元数据过滤条件，
// 例如命名的文档或年份。没有信号时返回 nil。
func ExtractFilters(question string) map[string]string {
	filters := make(map[string]string)

	if m := yearPattern.FindString(question); m != "" {
		filters["year"] = m
	}
	if m := quotedPattern.FindStringSubmatch(question); len(m) == 2 {
		filters["document"] = strings.TrimSpace(m[1])
	} else if m := documentPattern.FindStringSubmatch(question); len(m) == 2 {
		filters["document"] = strings.TrimSpace(m[1])
	}

	if len(filters) == 0 {
		return nil
	}
	return filters
}
