// Package assets loads the images referenced by placed slides and computes how
// they fit into their boxes. Renderers use it; the placement engine never does.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	_ "golang.org/x/image/webp"
)

// ErrUnsupported is returned by a loader that does not handle a reference.
var ErrUnsupported = errors.New("assets: unsupported image reference")

// Image is a decoded-enough image: raw bytes plus format and pixel size.
type Image struct {
	Ref    string
	Data   []byte
	MIME   string
	Width  int
	Height int
}

// Decode returns the image as a standard library image.Image.
func (img Image) Decode() (image.Image, error) {
	m, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", img.Ref, err)
	}
	return m, nil
}

// Loader resolves an image reference into bytes.
type Loader interface {
	Load(ctx context.Context, ref string) (Image, error)
}

// Inspect reads the image header to fill format and size.
func Inspect(ref string, data []byte) (Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("inspect image %s: %w", ref, err)
	}
	return Image{
		Ref:    ref,
		Data:   data,
		MIME:   "image/" + format,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}

// HTTPLoader fetches http(s) references.
type HTTPLoader struct {
	Client   *http.Client
	Timeout  time.Duration
	MaxBytes int64
}

const defaultMaxBytes = 20 << 20

// Load implements Loader.
func (l *HTTPLoader) Load(ctx context.Context, ref string) (Image, error) {
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return Image{}, ErrUnsupported
	}
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return Image{}, fmt.Errorf("build request for %s: %w", ref, err)
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("fetch %s: unexpected status %d", ref, resp.StatusCode)
	}
	limit := l.MaxBytes
	if limit <= 0 {
		limit = defaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Image{}, fmt.Errorf("read %s: %w", ref, err)
	}
	if int64(len(data)) > limit {
		return Image{}, fmt.Errorf("fetch %s: body exceeds %d bytes", ref, limit)
	}
	return Inspect(ref, data)
}

// Static serves fixed references from memory, keyed by the exact ref. It
// reports ErrUnsupported for any other ref.
type Static map[string][]byte

// Load implements Loader.
func (s Static) Load(_ context.Context, ref string) (Image, error) {
	data, ok := s[ref]
	if !ok {
		return Image{}, ErrUnsupported
	}
	return Inspect(ref, data)
}

// Chain tries each loader in order and returns the first success. When every
// loader fails it returns the first error other than ErrUnsupported, so a
// later Static can stand in for a failed download.
type Chain []Loader

// Load implements Loader.
func (c Chain) Load(ctx context.Context, ref string) (Image, error) {
	var first error
	for _, l := range c {
		if l == nil {
			continue
		}
		img, err := l.Load(ctx, ref)
		if err == nil {
			return img, nil
		}
		if first == nil && !errors.Is(err, ErrUnsupported) {
			first = err
		}
	}
	if first == nil {
		first = ErrUnsupported
	}
	return Image{}, first
}

// 占位图配色
var (
	placeholderFill   = color.RGBA{R: 226, G: 232, B: 240, A: 255}
	placeholderStroke = color.RGBA{R: 148, G: 163, B: 184, A: 255}
)

// Placeholder draws a w×h PNG with a framed cross, used where a known image
// cannot be downloaded.
func Placeholder(w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("placeholder size %dx%d is not positive", w, h)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: placeholderFill}, image.Point{}, draw.Src)

	stroke := max(1, min(w, h)/100)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			border := x < stroke || y < stroke || x >= w-stroke || y >= h-stroke
			// 两条对角线，按较长边取样
			dx, dy := float64(x)/float64(w), float64(y)/float64(h)
			d := float64(stroke) / float64(max(w, h))
			diagonal := math.Abs(dx-dy) < d || math.Abs(dx+dy-1) < d
			if border || diagonal {
				img.Set(x, y, placeholderStroke)
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}

// Contain scales an image of imgW×imgH so it fits entirely inside the box,
// keeping its aspect ratio, and centres it. A degenerate image fills the box.
func Contain(boxX, boxY, boxW, boxH float64, imgW, imgH int) (x, y, w, h float64) {
	if imgW <= 0 || imgH <= 0 || boxW <= 0 || boxH <= 0 {
		return boxX, boxY, boxW, boxH
	}
	scale := boxW / float64(imgW)
	if s := boxH / float64(imgH); s < scale {
		scale = s
	}
	w = float64(imgW) * scale
	h = float64(imgH) * scale
	return boxX + (boxW-w)/2, boxY + (boxH-h)/2, w, h
}
