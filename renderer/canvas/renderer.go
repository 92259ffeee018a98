package canvasrenderer

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/anika57/slidecrafter/assets"
	"github.com/anika57/slidecrafter/fonts"
	"github.com/anika57/slidecrafter/layout"
	"github.com/anika57/slidecrafter/markup"
	"github.com/anika57/slidecrafter/renderer"
)

// BulletPrefix 绘制在每个要点块首行之前。
const BulletPrefix = "• "

var textColor = color.RGBA{R: 30, G: 30, B: 30, A: 255}

// Renderer draws placed slides into a PDF preview via github.com/tdewolff/canvas.
// 所有放置坐标为英寸，绘制前统一换算为毫米。
type Renderer struct {
	loader assets.Loader
	logger *log.Logger

	fontMu   sync.Mutex
	families map[string]*canvas.FontFamily
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options configures the canvas renderer.
type Options struct {
	// Loader 为 nil 时不绘制图片。
	Loader assets.Loader
	Logger *log.Logger
}

// NewRenderer creates a renderer that skips images.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with an image loader and logger.
func NewRendererWithOptions(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{
		loader:   opts.Loader,
		logger:   logger,
		families: map[string]*canvas.FontFamily{},
	}
}

// Render renders the result into a PDF byte slice, one page per slide.
func (r *Renderer) Render(ctx context.Context, result *layout.Result) ([]byte, error) {
	if err := renderer.Check(result); err != nil {
		return nil, err
	}
	pageW := layout.InchToMM(result.Page.Width)
	pageH := layout.InchToMM(result.Page.Height)

	var buf bytes.Buffer
	writer := pdf.New(&buf, pageW, pageH, nil)
	applyMeta(writer, result.Meta)
	for i, slide := range result.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if i > 0 {
			writer.NewPage(pageW, pageH)
		}
		c := canvas.New(pageW, pageH)
		cctx := canvas.NewContext(c)
		cctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与放置结果保持左上角为原点

		if err := r.drawSlide(ctx, cctx, slide); err != nil {
			return nil, fmt.Errorf("绘制第 %d 张幻灯片失败: %w", slide.Index+1, err)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	writer.SetInfo(meta.Title, meta.Subject, "", meta.Author, meta.Creator)
}

func (r *Renderer) drawSlide(ctx context.Context, cctx *canvas.Context, slide layout.Slide) error {
	for _, cmd := range slide.Commands {
		switch cmd.Kind {
		case layout.KindTitle, layout.KindBullet:
			if err := r.drawText(cctx, cmd); err != nil {
				return err
			}
		case layout.KindImage:
			r.drawImage(ctx, cctx, cmd)
		}
	}
	return nil
}

func (r *Renderer) drawText(cctx *canvas.Context, cmd layout.DrawCommand) error {
	faces, err := r.faces(cmd.Style.FontSize)
	if err != nil {
		return err
	}
	x := layout.InchToMM(cmd.X)
	width := layout.InchToMM(cmd.W)

	indent := 0.0
	if cmd.Style.Bulleted {
		prefix := faces.pick(false)
		indent = prefix.TextWidth(BulletPrefix)
	}
	lines := wrapRuns(cmd.Runs, cmd.Style.Bold, width-indent, faces)

	metrics := faces.regular.Metrics()
	// 估算高度只按字符数计算，实际换行更多时文本会压到下一块
	if used := float64(len(lines)) * metrics.LineHeight; used > layout.InchToMM(cmd.H)+0.5 {
		r.logger.Debug("文本超出估算高度", "text", markup.Plain(cmd.Runs), "lines", len(lines))
	}
	cursorY := layout.InchToMM(cmd.Y)
	for i, ln := range lines {
		baseline := cursorY + metrics.Ascent
		if i == 0 && cmd.Style.Bulleted {
			cctx.DrawText(x, baseline, canvas.NewTextLine(faces.regular, BulletPrefix, canvas.Left))
		}
		penX := x + indent
		for _, seg := range ln.segments {
			face := faces.pick(seg.bold)
			cctx.DrawText(penX, baseline, canvas.NewTextLine(face, seg.text, canvas.Left))
			penX += seg.width
		}
		cursorY += metrics.LineHeight
	}
	return nil
}

// drawImage 尽力绘制图片：加载或解码失败只记录日志并跳过。
func (r *Renderer) drawImage(ctx context.Context, cctx *canvas.Context, cmd layout.DrawCommand) {
	if r.loader == nil || cmd.ImageRef == "" {
		return
	}
	img, err := r.loader.Load(ctx, cmd.ImageRef)
	if err != nil {
		r.logger.Warn("跳过无法加载的图片", "ref", cmd.ImageRef, "err", err)
		return
	}
	decoded, err := img.Decode()
	if err != nil {
		r.logger.Warn("跳过无法解码的图片", "ref", cmd.ImageRef, "err", err)
		return
	}
	x, y, w, _ := assets.Contain(
		layout.InchToMM(cmd.X), layout.InchToMM(cmd.Y),
		layout.InchToMM(cmd.W), layout.InchToMM(cmd.H),
		img.Width, img.Height,
	)
	dpmm := float64(img.Width) / w
	if dpmm <= 0 {
		dpmm = 1
	}
	cctx.DrawImage(x, y, decoded, canvas.DPMM(dpmm))
}

type faceSet struct {
	regular *canvas.FontFace
	bold    *canvas.FontFace
}

func (f faceSet) pick(bold bool) *canvas.FontFace {
	if bold {
		return f.bold
	}
	return f.regular
}

// faces 返回指定字号（pt）下的常规与粗体字体面。
func (r *Renderer) faces(sizePt float64) (faceSet, error) {
	regular, err := r.family(fonts.SansRegular)
	if err != nil {
		return faceSet{}, err
	}
	bold, err := r.family(fonts.SansBold)
	if err != nil {
		return faceSet{}, err
	}
	return faceSet{
		regular: regular.Face(sizePt, textColor, canvas.FontRegular, canvas.FontNormal),
		bold:    bold.Face(sizePt, textColor, canvas.FontBold, canvas.FontNormal),
	}, nil
}

func (r *Renderer) family(name string) (*canvas.FontFamily, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if fam, ok := r.families[name]; ok {
		return fam, nil
	}
	data, err := fonts.Load(name)
	if err != nil {
		return nil, err
	}
	style := canvas.FontRegular
	if name == fonts.SansBold {
		style = canvas.FontBold
	}
	fam := canvas.NewFontFamily(name)
	if err := fam.LoadFont(data, 0, style); err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", name, err)
	}
	r.families[name] = fam
	return fam, nil
}
