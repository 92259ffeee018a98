package layout

// FallbackImage 是第一张幻灯片固定使用的示例图片。
const FallbackImage = "https://images.unsplash.com/photo-1518779576417-8e68e71c9987?q=80&w=2070&auto=format&fit=crop&ixlib=rb-4.0.3&ixid=M3wxMjA3fDB8MHxwaG90by1wYWdlfHx8fGVufDB8fHx8fA%3D%3D"

// FitContain 表示图片按比例缩放并完整放入目标框。
const FitContain = "contain"

// Config 汇总放置引擎使用的全部常量（单位：英寸，字号为 pt）。
type Config struct {
	Page PageSize

	TopMargin  float64
	LeftMargin float64

	TitleWidth    float64
	TitleHeight   float64
	TitleGap      float64
	TitleFontSize float64

	ContentX       float64
	ContentWidth   float64
	BulletGap      float64
	BulletFontSize float64

	// 高度估算：每行字符数与单行高度
	LineCharWidth int
	LineHeight    float64

	ImageX      float64
	ImageY      float64
	ImageWidth  float64
	ImageHeight float64
	ImageFit    string

	FallbackImage string
}

// DefaultConfig 返回 16:9 页面下的默认排版参数。
func DefaultConfig() Config {
	return Config{
		Page:           PageSize{Width: 10, Height: 5.625},
		TopMargin:      0.5,
		LeftMargin:     0.5,
		TitleWidth:     9,
		TitleHeight:    0.5,
		TitleGap:       0.3,
		TitleFontSize:  28,
		ContentX:       0.8,
		ContentWidth:   5.0,
		BulletGap:      0.1,
		BulletFontSize: 16,
		LineCharWidth:  65,
		LineHeight:     0.35,
		ImageX:         6.0,
		ImageY:         1.5,
		ImageWidth:     3.5,
		ImageHeight:    5.0,
		ImageFit:       FitContain,
		FallbackImage:  FallbackImage,
	}
}

// normalized 为非法值回填默认值：估算参数保证不会除零；几何参数全为零
// 时整组取默认值，只设置了部分几何参数时保留调用方的值；字号不能为零。
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.geometryUnset() {
		c.TopMargin, c.LeftMargin = def.TopMargin, def.LeftMargin
		c.TitleWidth, c.TitleHeight, c.TitleGap = def.TitleWidth, def.TitleHeight, def.TitleGap
		c.ContentX, c.ContentWidth, c.BulletGap = def.ContentX, def.ContentWidth, def.BulletGap
		c.ImageX, c.ImageY = def.ImageX, def.ImageY
		c.ImageWidth, c.ImageHeight = def.ImageWidth, def.ImageHeight
	}
	if c.TitleFontSize <= 0 {
		c.TitleFontSize = def.TitleFontSize
	}
	if c.BulletFontSize <= 0 {
		c.BulletFontSize = def.BulletFontSize
	}
	if c.LineCharWidth <= 0 {
		c.LineCharWidth = def.LineCharWidth
	}
	if c.LineHeight <= 0 {
		c.LineHeight = def.LineHeight
	}
	if c.Page.Width <= 0 || c.Page.Height <= 0 {
		c.Page = def.Page
	}
	if c.ImageFit == "" {
		c.ImageFit = FitContain
	}
	if c.FallbackImage == "" {
		c.FallbackImage = def.FallbackImage
	}
	return c
}

func (c Config) geometryUnset() bool {
	for _, v := range []float64{
		c.TopMargin, c.LeftMargin,
		c.TitleWidth, c.TitleHeight, c.TitleGap,
		c.ContentX, c.ContentWidth, c.BulletGap,
		c.ImageX, c.ImageY, c.ImageWidth, c.ImageHeight,
	} {
		if v != 0 {
			return false
		}
	}
	return true
}
