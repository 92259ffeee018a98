package canvasrenderer

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/anika57/slidecrafter/markup"
)

// styledFaces 测量带粗细的文本宽度，测试中可替换为等宽实现。
type styledFaces interface {
	width(text string, bold bool) float64
}

func (f faceSet) width(text string, bold bool) float64 { return f.pick(bold).TextWidth(text) }

type segment struct {
	text  string
	bold  bool
	width float64
}

type wrappedLine struct {
	segments []segment
	width    float64
}

func (l wrappedLine) text() string {
	var b strings.Builder
	for _, s := range l.segments {
		b.WriteString(s.text)
	}
	return b.String()
}

type token struct {
	text  string
	bold  bool
	space bool
	// glue 表示与前一个词之间没有空白，不能在此处断行
	glue bool
}

// wrapRuns 贪心换行：优先在空白处断行，单个词超过宽度时在词内拆分。
// 加粗属性跨行保留，行首空白被丢弃。宽度单位与 faces 的测量单位一致（mm）。
func wrapRuns(runs []markup.Run, allBold bool, limit float64, faces styledFaces) []wrappedLine {
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	var lines []wrappedLine
	var cur wrappedLine

	emit := func(force bool) {
		if len(cur.segments) == 0 && !force {
			return
		}
		lines = append(lines, cur)
		cur = wrappedLine{}
	}
	push := func(text string, bold bool) {
		w := faces.width(text, bold)
		if n := len(cur.segments); n > 0 && cur.segments[n-1].bold == bold {
			last := &cur.segments[n-1]
			last.text += text
			last.width += w
		} else {
			cur.segments = append(cur.segments, segment{text: text, bold: bold, width: w})
		}
		cur.width += w
	}

	for _, tok := range tokenizeRuns(runs, allBold) {
		if tok.text == "\n" {
			emit(true)
			continue
		}
		if tok.space {
			if len(cur.segments) == 0 {
				continue
			}
			push(tok.text, tok.bold)
			continue
		}

		w := faces.width(tok.text, tok.bold)
		if cur.width > 0 && cur.width+w > limit && !tok.glue {
			trimTrailingSpace(&cur, faces)
			emit(false)
		}
		if w <= limit {
			push(tok.text, tok.bold)
			continue
		}
		for _, chunk := range splitTokenByWidth(tok.text, limit, func(s string) float64 { return faces.width(s, tok.bold) }) {
			cw := faces.width(chunk, tok.bold)
			if cur.width > 0 && cur.width+cw > limit {
				emit(false)
			}
			push(chunk, tok.bold)
		}
	}
	trimTrailingSpace(&cur, faces)
	emit(len(lines) == 0)
	return lines
}

func trimTrailingSpace(l *wrappedLine, faces styledFaces) {
	for n := len(l.segments); n > 0; n = len(l.segments) {
		last := &l.segments[n-1]
		trimmed := strings.TrimRightFunc(last.text, unicode.IsSpace)
		if trimmed == last.text {
			return
		}
		l.width -= last.width
		if trimmed == "" {
			l.segments = l.segments[:n-1]
			continue
		}
		last.text = trimmed
		last.width = faces.width(trimmed, last.bold)
		l.width += last.width
		return
	}
}

// tokenizeRuns 将带样式的片段拆成词与空白交替的记号。
func tokenizeRuns(runs []markup.Run, allBold bool) []token {
	var tokens []token
	for _, run := range runs {
		bold := allBold || run.Emphasized
		var b strings.Builder
		lastWasSpace := false
		flush := func() {
			if b.Len() == 0 {
				return
			}
			tokens = append(tokens, token{text: b.String(), bold: bold, space: lastWasSpace})
			b.Reset()
		}
		for _, r := range run.Text {
			if r == '\r' {
				continue
			}
			if r == '\n' {
				flush()
				tokens = append(tokens, token{text: "\n"})
				continue
			}
			isSpace := unicode.IsSpace(r)
			if b.Len() > 0 && lastWasSpace != isSpace {
				flush()
			}
			lastWasSpace = isSpace
			b.WriteRune(r)
		}
		flush()
	}
	return markGlue(tokens)
}

// markGlue 标记紧跟在词后面的词，例如 "**Solar**ized" 不在样式边界处断行。
func markGlue(tokens []token) []token {
	for i := 1; i < len(tokens); i++ {
		prev := tokens[i-1]
		if !tokens[i].space && !prev.space && prev.text != "\n" && tokens[i].text != "\n" {
			tokens[i].glue = true
		}
	}
	return tokens
}

func splitTokenByWidth(text string, limit float64, measure func(string) float64) []string {
	if limit <= 0 || limit == math.MaxFloat64 {
		return []string{text}
	}
	var parts []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if measure(b.String()) > limit && utf8.RuneCountInString(b.String()) > 1 {
			runes := []rune(b.String())
			parts = append(parts, string(runes[:len(runes)-1]))
			b.Reset()
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}
