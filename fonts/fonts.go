// Package fonts 提供内置字体，PDF 预览不依赖系统字体。
package fonts

import (
	"fmt"
	"strings"

	"github.com/go-fonts/latin-modern/lmsans10bold"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// 内置字体名称。
const (
	SansRegular = "sans-regular"
	SansBold    = "sans-bold"
)

var builtin = map[string][]byte{
	SansRegular: lmsans10regular.TTF,
	SansBold:    lmsans10bold.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:sans-bold" 或直接 "sans-bold"。
func Load(name string) ([]byte, error) {
	key := strings.TrimPrefix(name, "embed:")
	data, ok := builtin[key]
	if !ok || len(data) == 0 {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 未找到", key)
	}
	return data, nil
}
