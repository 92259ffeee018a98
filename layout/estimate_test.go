package layout

import (
	"strings"
	"testing"
)

func TestEstimateHeight(t *testing.T) {
	cfg := DefaultConfig()
	if got := EstimateHeight(""); got != 1*cfg.LineHeight {
		t.Fatalf("空字符串应为一行高度，实际 %g", got)
	}
	if got := EstimateHeight(strings.Repeat("a", 65)); got != cfg.LineHeight {
		t.Fatalf("65 个字符应为一行，实际 %g", got)
	}
	if got := EstimateHeight(strings.Repeat("a", 66)); got != 2*cfg.LineHeight {
		t.Fatalf("66 个字符应为两行，实际 %g", got)
	}
	if got := EstimateHeight(strings.Repeat("a", 130)); got != 2*cfg.LineHeight {
		t.Fatalf("130 个字符应恰好两行，实际 %g", got)
	}
	// 按字符（rune）计数，而不是字节。
	if got := EstimateHeight(strings.Repeat("中", 65)); got != cfg.LineHeight {
		t.Fatalf("65 个汉字应为一行，实际 %g", got)
	}

	custom := Config{LineCharWidth: 10, LineHeight: 1}
	if got := custom.EstimateLines(strings.Repeat("b", 31)); got != 4 {
		t.Fatalf("自定义每行 10 字符时 31 字符应为 4 行，实际 %d", got)
	}
}
