package layout

import (
	"strings"

	"github.com/anika57/slidecrafter/markup"
)

// Place 将幻灯片记录依次转换为绝对定位的绘制指令。
// 引擎本身不会失败：nil 或空输入得到空结果。
func Place(records []SlideRecord, cfg Config) *Result {
	cfg = cfg.normalized()
	res := &Result{
		Page:   cfg.Page,
		Slides: make([]Slide, 0, len(records)),
	}
	for i, rec := range records {
		res.Slides = append(res.Slides, placeSlide(i, rec, cfg))
	}
	return res
}

// placeSlide 处理单张幻灯片；cursor 只在本函数内存在，每张幻灯片从顶部边距重新开始。
func placeSlide(index int, rec SlideRecord, cfg Config) Slide {
	cmds := make([]DrawCommand, 0, len(rec.Bullets)+2)
	cursor := cfg.TopMargin

	// 标题不解析加粗标记，作为单个普通片段输出。
	cmds = append(cmds, DrawCommand{
		Kind:  KindTitle,
		X:     cfg.LeftMargin,
		Y:     cursor,
		W:     cfg.TitleWidth,
		H:     cfg.TitleHeight,
		Runs:  []markup.Run{{Text: rec.Title}},
		Style: TextStyle{FontSize: cfg.TitleFontSize, Bold: true},
	})
	cursor += cfg.TitleHeight + cfg.TitleGap

	for _, bullet := range rec.Bullets {
		height := cfg.EstimateHeight(bullet)
		cmds = append(cmds, DrawCommand{
			Kind:  KindBullet,
			X:     cfg.ContentX,
			Y:     cursor,
			W:     cfg.ContentWidth,
			H:     height,
			Runs:  markup.Parse(bullet),
			Style: TextStyle{FontSize: cfg.BulletFontSize, Bulleted: true},
		})
		cursor += height + cfg.BulletGap
	}

	if ref := resolveImage(index, rec, cfg); ref != "" {
		// 图片位置固定，与文本不做高度协调，文本溢出时可能重叠。
		cmds = append(cmds, DrawCommand{
			Kind:     KindImage,
			X:        cfg.ImageX,
			Y:        cfg.ImageY,
			W:        cfg.ImageWidth,
			H:        cfg.ImageHeight,
			ImageRef: ref,
			Fit:      cfg.ImageFit,
		})
	}

	return Slide{Index: index, Commands: cmds}
}

// resolveImage 实现图片策略：第一张幻灯片无条件改用固定示例图片；
// 最终引用以 http 开头时才输出图片块。
func resolveImage(index int, rec SlideRecord, cfg Config) string {
	ref := rec.ImageRef
	if index == 0 {
		ref = cfg.FallbackImage
	}
	if !strings.HasPrefix(ref, "http") {
		return ""
	}
	return ref
}

// Count 统计结果中某种指令的数量。
func (r *Result) Count(kind Kind) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, s := range r.Slides {
		for _, c := range s.Commands {
			if c.Kind == kind {
				n++
			}
		}
	}
	return n
}
