// Package markup 将单行文本拆分为普通/加粗片段，约定使用 **bold** 标记。
package markup

import (
	"regexp"
	"strings"
)

// emphasisPattern 采用最左优先、非贪婪、不重叠的匹配；标记不可嵌套。
var emphasisPattern = regexp.MustCompile(`\*\*.*?\*\*`)

const marker = "**"

// Run 是一段连续文本及其是否加粗。
type Run struct {
	Text       string `json:"text"`
	Emphasized bool   `json:"emphasized,omitempty"`
}

// Parse 按阅读顺序返回片段，空片段会被丢弃。
// 未闭合的 ** 视为普通文本。
func Parse(text string) []Run {
	matches := emphasisPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		if text == "" {
			return nil
		}
		return []Run{{Text: text}}
	}

	runs := make([]Run, 0, 2*len(matches)+1)
	prev := 0
	for _, m := range matches {
		runs = appendRun(runs, text[prev:m[0]], false)
		inner := text[m[0]+len(marker) : m[1]-len(marker)]
		runs = appendRun(runs, inner, true)
		prev = m[1]
	}
	runs = appendRun(runs, text[prev:], false)
	return runs
}

func appendRun(runs []Run, text string, emphasized bool) []Run {
	if text == "" {
		return runs
	}
	return append(runs, Run{Text: text, Emphasized: emphasized})
}

// Plain 拼接所有片段的文本（不含标记）。
func Plain(runs []Run) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// HasEmphasis 报告片段中是否存在加粗部分。
func HasEmphasis(runs []Run) bool {
	for _, r := range runs {
		if r.Emphasized {
			return true
		}
	}
	return false
}
