package renderer

import (
	"context"
	"errors"

	"github.com/anika57/slidecrafter/layout"
)

// ErrNothingToRender 表示放置结果中没有任何幻灯片。
var ErrNothingToRender = errors.New("缺少可渲染的幻灯片")

// Renderer 将放置结果输出为最终文件，例如 PPTX 或 PDF 预览。
// Render 返回生成的二进制数据以及可能的错误。
type Renderer interface {
	Render(ctx context.Context, result *layout.Result) ([]byte, error)
}

// Check 校验结果是否可渲染，供各实现共用。
func Check(result *layout.Result) error {
	if result == nil || len(result.Slides) == 0 {
		return ErrNothingToRender
	}
	return nil
}
