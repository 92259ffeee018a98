package dsl

import (
	"fmt"

	"github.com/anika57/slidecrafter/binding"
	"github.com/anika57/slidecrafter/deck"
	"github.com/anika57/slidecrafter/layout"
)

// Deck 将大纲转换为 deck.Deck，字符串中的 ${path} 按 data 绑定。
// 没有要点的幻灯片得到空（非 nil）的 content。
func (d *Document) Deck(data any) (deck.Deck, error) {
	if d == nil {
		return deck.Deck{}, fmt.Errorf("大纲文档为空")
	}
	out := deck.Deck{Slides: []deck.Slide{}}
	for _, sb := range d.Slides() {
		slide := deck.Slide{
			Title:   binding.Interpolate(string(sb.Title), data),
			Content: []string{},
		}
		for _, item := range sb.Items {
			switch {
			case item.Bullet != nil:
				slide.Content = append(slide.Content, binding.Interpolate(string(*item.Bullet), data))
			case item.Property != nil:
				p := item.Property
				switch p.Key {
				case "image", "image_url":
					slide.ImageURL = binding.Interpolate(string(p.Value), data)
				default:
					return deck.Deck{}, fmt.Errorf("%s: slide 不支持属性 %q", p.Pos, p.Key)
				}
			}
		}
		out.Slides = append(out.Slides, slide)
	}
	return out, nil
}

// Meta 收集文档标题及 author/subject 等属性。
func (d *Document) Meta(data any) (layout.DocumentMeta, error) {
	if d == nil {
		return layout.DocumentMeta{}, nil
	}
	meta := layout.DocumentMeta{Title: binding.Interpolate(string(d.Title), data)}
	for _, p := range d.Properties() {
		val := binding.Interpolate(string(p.Value), data)
		switch p.Key {
		case "author":
			meta.Author = val
		case "subject":
			meta.Subject = val
		case "creator":
			meta.Creator = val
		default:
			return layout.DocumentMeta{}, fmt.Errorf("%s: deck 不支持属性 %q", p.Pos, p.Key)
		}
	}
	return meta, nil
}
