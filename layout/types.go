package layout

import (
	"fmt"

	"github.com/anika57/slidecrafter/markup"
)

// 该文件定义放置引擎的输入记录与输出的绘制指令，供渲染器与调试 JSON 共用。
// 所有坐标与尺寸均以英寸为单位，原点为页面左上角。

// SlideRecord 是一张幻灯片的抽象内容，交给引擎后不再修改。
// ImageRef 为空表示没有图片；Bullets 为 nil 表示记录中没有要点数组。
type SlideRecord struct {
	Title    string   `json:"title"`
	Bullets  []string `json:"bullets"`
	ImageRef string   `json:"imageRef,omitempty"`
}

// Kind 区分绘制指令的种类。
type Kind int

const (
	KindTitle Kind = iota
	KindBullet
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindBullet:
		return "bullet"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// MarshalText 让调试 JSON 中输出可读的种类名。
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText 解析调试 JSON 中的种类名。
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "title":
		*k = KindTitle
	case "bullet":
		*k = KindBullet
	case "image":
		*k = KindImage
	default:
		return fmt.Errorf("未知的绘制指令种类 %q", text)
	}
	return nil
}

// TextStyle 描述文本块的字号（pt）、粗细与是否为项目符号列表。
type TextStyle struct {
	FontSize float64 `json:"fontSize"`
	Bold     bool    `json:"bold,omitempty"`
	Bulleted bool    `json:"bulleted,omitempty"`
}

// DrawCommand 是一个已定位、定尺寸的绘制指令。
// 文本类指令使用 Runs 与 Style；图片指令使用 ImageRef 与 Fit。
type DrawCommand struct {
	Kind     Kind         `json:"kind"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	W        float64      `json:"w"`
	H        float64      `json:"h"`
	Runs     []markup.Run `json:"runs,omitempty"`
	Style    TextStyle    `json:"style"`
	ImageRef string       `json:"imageRef,omitempty"`
	Fit      string       `json:"fit,omitempty"`
}

// Slide 保存某一输入记录对应的绘制指令，Index 为其在输入中的序号。
type Slide struct {
	Index    int           `json:"index"`
	Commands []DrawCommand `json:"commands"`
}

// PageSize 以英寸为单位。
type PageSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DocumentMeta 保存导出文件的元信息，由调用方填写。
type DocumentMeta struct {
	Title   string `json:"title,omitempty"`
	Author  string `json:"author,omitempty"`
	Subject string `json:"subject,omitempty"`
	Creator string `json:"creator,omitempty"`
}

// Result 是一次放置的完整输出。
type Result struct {
	Page   PageSize     `json:"page"`
	Slides []Slide      `json:"slides"`
	Meta   DocumentMeta `json:"meta"`
}
