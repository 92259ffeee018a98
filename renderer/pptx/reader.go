package pptxrenderer

import (
	"fmt"
	"strings"

	ppt "github.com/VantageDataChat/GoPPT"

	"github.com/anika57/slidecrafter/deck"
)

// ReadDeck recovers titles and bullets from a PPTX file. The first non-empty
// paragraph of a slide is its title; later paragraphs become bullets with the
// bullet prefix removed. Images and emphasis are not recovered.
func ReadDeck(path string) (deck.Deck, error) {
	reader := &ppt.PPTXReader{}
	pres, err := reader.Read(path)
	if err != nil {
		return deck.Deck{}, fmt.Errorf("读取 PPTX %s 失败: %w", path, err)
	}

	slides := pres.GetAllSlides()
	if len(slides) == 0 {
		return deck.Deck{}, deck.ErrNoSlides
	}
	out := deck.Deck{Slides: make([]deck.Slide, 0, len(slides))}
	for _, slide := range slides {
		s := deck.Slide{Content: []string{}}
		for _, shape := range slide.GetShapes() {
			rts, ok := shape.(*ppt.RichTextShape)
			if !ok {
				continue
			}
			for _, para := range rts.GetParagraphs() {
				var b strings.Builder
				for _, elem := range para.GetElements() {
					if run, ok := elem.(*ppt.TextRun); ok {
						b.WriteString(run.GetText())
					}
				}
				text := strings.TrimSpace(b.String())
				if text == "" {
					continue
				}
				if s.Title == "" {
					s.Title = text
					continue
				}
				s.Content = append(s.Content, strings.TrimSpace(strings.TrimPrefix(text, strings.TrimSpace(BulletPrefix))))
			}
		}
		out.Slides = append(out.Slides, s)
	}
	return out, nil
}
