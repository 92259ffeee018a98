// Package pptxrenderer writes placed slides as an editable PowerPoint file
// using github.com/VantageDataChat/GoPPT.
package pptxrenderer

import (
	"bytes"
	"context"
	"fmt"
	"image/png"

	ppt "github.com/VantageDataChat/GoPPT"
	"github.com/charmbracelet/log"

	"github.com/anika57/slidecrafter/assets"
	"github.com/anika57/slidecrafter/layout"
	"github.com/anika57/slidecrafter/renderer"
)

// BulletPrefix 作为每个要点块的第一个文本片段。
const BulletPrefix = "• "

// 字号（pt），与默认放置参数一致。
const (
	titleFontSize  = 28
	bulletFontSize = 16
)

const textColor = "FF1E1E1E"

// Renderer exports a layout.Result to PPTX bytes.
type Renderer struct {
	loader assets.Loader
	logger *log.Logger
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the PPTX renderer.
type Options struct {
	// Loader 为 nil 时不嵌入图片。
	Loader assets.Loader
	Logger *log.Logger
}

// NewRenderer creates a PPTX renderer.
func NewRenderer(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{loader: opts.Loader, logger: logger}
}

// Render builds one PowerPoint slide per placed slide.
func (r *Renderer) Render(ctx context.Context, result *layout.Result) ([]byte, error) {
	if err := renderer.Check(result); err != nil {
		return nil, err
	}

	p := ppt.New()
	props := p.GetDocumentProperties()
	props.Title = result.Meta.Title
	props.Creator = result.Meta.Creator
	if props.Creator == "" {
		props.Creator = result.Meta.Author
	}

	for i, placed := range result.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// 新建的演示文稿自带一张空白幻灯片，第一张直接复用
		slide := p.GetActiveSlide()
		if i > 0 {
			slide = p.CreateSlide()
		}
		for _, cmd := range placed.Commands {
			switch cmd.Kind {
			case layout.KindTitle:
				addText(slide, cmd, true)
			case layout.KindBullet:
				addText(slide, cmd, false)
			case layout.KindImage:
				r.addImage(ctx, slide, cmd)
			}
		}
	}

	w, err := ppt.NewWriter(p, ppt.WriterPowerPoint2007)
	if err != nil {
		return nil, fmt.Errorf("创建 PPTX 写入器失败: %w", err)
	}
	var buf bytes.Buffer
	if err := w.(*ppt.PPTXWriter).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("写入 PPTX 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func addText(slide *ppt.Slide, cmd layout.DrawCommand, title bool) {
	shape := slide.CreateRichTextShape()
	shape.SetOffsetX(layout.InchToEMU(cmd.X)).SetOffsetY(layout.InchToEMU(cmd.Y))
	shape.SetWidth(layout.InchToEMU(cmd.W)).SetHeight(layout.InchToEMU(cmd.H))

	if cmd.Style.Bulleted {
		styleRun(shape.CreateTextRun(BulletPrefix), title, false)
	}
	for _, run := range cmd.Runs {
		styleRun(shape.CreateTextRun(run.Text), title, cmd.Style.Bold || run.Emphasized)
	}
}

func styleRun(tr *ppt.TextRun, title, bold bool) {
	if title {
		tr.GetFont().SetSize(titleFontSize)
	} else {
		tr.GetFont().SetSize(bulletFontSize)
	}
	tr.GetFont().SetBold(bold).SetColor(ppt.NewColor(textColor))
}

// addImage 嵌入图片；加载失败时只记录日志，不中断导出。
func (r *Renderer) addImage(ctx context.Context, slide *ppt.Slide, cmd layout.DrawCommand) {
	if r.loader == nil || cmd.ImageRef == "" {
		return
	}
	img, err := r.loader.Load(ctx, cmd.ImageRef)
	if err != nil {
		r.logger.Warn("跳过无法加载的图片", "ref", cmd.ImageRef, "err", err)
		return
	}
	data, mime, err := embeddable(img)
	if err != nil {
		r.logger.Warn("跳过无法转换的图片", "ref", cmd.ImageRef, "err", err)
		return
	}
	x, y, w, h := assets.Contain(cmd.X, cmd.Y, cmd.W, cmd.H, img.Width, img.Height)

	shape := slide.CreateDrawingShape()
	shape.SetImageData(data, mime)
	shape.SetOffsetX(layout.InchToEMU(x)).SetOffsetY(layout.InchToEMU(y))
	shape.SetWidth(layout.InchToEMU(w)).SetHeight(layout.InchToEMU(h))
}

// embeddable 返回 PowerPoint 可直接显示的图片数据，其余格式转为 PNG。
func embeddable(img assets.Image) ([]byte, string, error) {
	switch img.MIME {
	case "image/png", "image/jpeg", "image/gif":
		return img.Data, img.MIME, nil
	}
	decoded, err := img.Decode()
	if err != nil {
		return nil, "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, decoded); err != nil {
		return nil, "", fmt.Errorf("转换图片 %s 为 PNG 失败: %w", img.Ref, err)
	}
	return buf.Bytes(), "image/png", nil
}
