package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// MarshalDebug 以缩进 JSON 形式序列化放置结果，nil 结果输出空的 slides。
func MarshalDebug(res *Result) ([]byte, error) {
	if res == nil {
		res = &Result{Slides: []Slide{}}
	}
	return json.MarshalIndent(res, "", "  ")
}

// WriteDebugJSON 将放置结果写入 path，必要时创建目录。
func WriteDebugJSON(res *Result, path string) error {
	data, err := MarshalDebug(res)
	if err != nil {
		return fmt.Errorf("序列化布局结果失败: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建调试目录失败: %w", err)
		}
	}
	return os.WriteFile(path, data, 0o644)
}
