package layout

import "unicode/utf8"

// EstimateHeight 使用默认参数估算一条要点所需的高度。
func EstimateHeight(text string) float64 {
	return DefaultConfig().EstimateHeight(text)
}

// EstimateLines 按固定的每行字符数估算行数，至少一行。
// 这是廉价的近似：不做字形测量，对非拉丁文字或比例字体可能偏差。
func (c Config) EstimateLines(text string) int {
	c = c.normalized()
	n := utf8.RuneCountInString(text)
	lines := (n + c.LineCharWidth - 1) / c.LineCharWidth
	if lines < 1 {
		lines = 1
	}
	return lines
}

// EstimateHeight 返回 行数 × 单行高度，结果不小于一行。
func (c Config) EstimateHeight(text string) float64 {
	c = c.normalized()
	return float64(c.EstimateLines(text)) * c.LineHeight
}
