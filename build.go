package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anika57/slidecrafter/assets"
	"github.com/anika57/slidecrafter/config"
	"github.com/anika57/slidecrafter/deck"
	"github.com/anika57/slidecrafter/dsl"
	"github.com/anika57/slidecrafter/layout"
	"github.com/anika57/slidecrafter/renderer"
	canvasrenderer "github.com/anika57/slidecrafter/renderer/canvas"
	pptxrenderer "github.com/anika57/slidecrafter/renderer/pptx"
	"github.com/anika57/slidecrafter/server"
)

const creator = "slidecrafter"

// 支持的导出格式。
const (
	formatPPTX = "pptx"
	formatPDF  = "pdf"
)

type buildOpts struct {
	input    string
	output   string
	format   string
	debug    string
	dataJSON string
	strict   bool
	offline  bool
}

// pipeline 汇总一次构建所需的显式配置，命令层从 viper 填充。
type pipeline struct {
	layout layout.Config
	rules  deck.Rules
	loader assets.Loader
}

func newPipeline(v *viper.Viper, offline bool) pipeline {
	cfg := config.LayoutConfig(v)
	return pipeline{
		layout: cfg,
		rules:  config.Rules(v),
		loader: newLoader(cfg, config.FetchTimeout(v), offline),
	}
}

// 第一张幻灯片的固定图片下载失败或离线时用占位图代替。
const placeholderWidth, placeholderHeight = 350, 500

// newLoader 先下载图片，失败时回落到固定图片的占位图；离线时只有占位图。
func newLoader(cfg layout.Config, timeout time.Duration, offline bool) assets.Loader {
	pinned := assets.Static{}
	if cfg.FallbackImage != "" {
		if data, err := assets.Placeholder(placeholderWidth, placeholderHeight); err == nil {
			pinned[cfg.FallbackImage] = data
		}
	}
	if offline {
		return pinned
	}
	return assets.Chain{&assets.HTTPLoader{Timeout: timeout}, pinned}
}

func newBuildCmd(v *viper.Viper) *cobra.Command {
	var opts buildOpts

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Place a deck and export it as PPTX or PDF",
		Long: `Build reads a deck (JSON as produced by generate, a .deck outline or an
existing .pptx), places every slide on a 16:9 page and writes the result.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts, newPipeline(v, opts.offline))
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "deck JSON, .deck outline or .pptx file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "presentation.pptx", "output file")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: pptx or pdf (default: from the output extension)")
	cmd.Flags().StringVar(&opts.debug, "debug", "", "write the placement as JSON to this path")
	cmd.Flags().StringVar(&opts.dataJSON, "data", "", "JSON data bound to ${...} in outlines")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "fail instead of warning when the deck breaks the rules")
	cmd.Flags().BoolVar(&opts.offline, "offline", false, "do not download images; the first slide gets a placeholder")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// run 串联读取、校验、放置与渲染。
func run(ctx context.Context, opts buildOpts, p pipeline) error {
	logger := log.FromContext(ctx)
	prog := newProgress(logger)

	format, err := resolveFormat(opts.format, opts.output)
	if err != nil {
		return err
	}

	var data any
	if opts.dataJSON != "" {
		if err := json.Unmarshal([]byte(opts.dataJSON), &data); err != nil {
			return fmt.Errorf("解析 data JSON 失败: %w", err)
		}
	}

	records, meta, err := loadInput(logger, opts.input, data, opts.strict, p.rules)
	if err != nil {
		return err
	}

	result := layout.Place(records, p.layout)
	result.Meta = meta
	logger.Debug("放置完成", "slides", len(result.Slides), "images", result.Count(layout.KindImage))

	if opts.debug != "" {
		if err := layout.WriteDebugJSON(result, opts.debug); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}

	out, err := newRenderer(format, p.loader, logger).Render(ctx, result)
	if err != nil {
		return fmt.Errorf("渲染 %s 失败: %w", format, err)
	}
	if err := writeOutput(opts.output, out); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("已生成 %s", opts.output))
	return nil
}

// loadInput 按扩展名读取输入并转换为放置记录。
func loadInput(logger *log.Logger, path string, data any, strict bool, rules deck.Rules) ([]layout.SlideRecord, layout.DocumentMeta, error) {
	meta := layout.DocumentMeta{Creator: creator}

	var d deck.Deck
	switch strings.ToLower(filepath.Ext(path)) {
	case ".deck":
		file, err := os.Open(path)
		if err != nil {
			return nil, meta, fmt.Errorf("无法打开大纲文件 %s: %w", path, err)
		}
		defer file.Close()
		doc, err := dsl.Parse(file)
		if err != nil {
			return nil, meta, fmt.Errorf("解析大纲失败: %w", err)
		}
		if d, err = doc.Deck(data); err != nil {
			return nil, meta, err
		}
		docMeta, err := doc.Meta(data)
		if err != nil {
			return nil, meta, err
		}
		docMeta.Creator = firstNonEmpty(docMeta.Creator, creator)
		meta = docMeta
	case ".pptx":
		var err error
		if d, err = pptxrenderer.ReadDeck(path); err != nil {
			return nil, meta, err
		}
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, meta, fmt.Errorf("读取 %s 失败: %w", path, err)
		}
		if d, err = deck.Decode(raw); err != nil {
			if strict {
				return nil, meta, err
			}
			// 非严格模式下与 HTTP 接口一致：畸形内容静默降级
			logger.Warn("deck JSON 不完整，按宽松模式读取", "err", err)
			records := deck.Lenient(raw)
			if len(records) > 0 {
				meta.Title = records[0].Title
			}
			return records, meta, nil
		}
	}

	if rep := deck.Validate(d, rules); !rep.OK() {
		if strict {
			return nil, meta, rep.Err()
		}
		for _, p := range rep.Problems {
			logger.Warn("deck 不符合规则", "problem", p.String())
		}
	}
	if meta.Title == "" && len(d.Slides) > 0 {
		meta.Title = d.Slides[0].Title
	}
	return d.Records(), meta, nil
}

func resolveFormat(flag, output string) (string, error) {
	format := strings.ToLower(strings.TrimPrefix(flag, "."))
	if format == "" {
		format = strings.ToLower(strings.TrimPrefix(filepath.Ext(output), "."))
	}
	switch format {
	case formatPPTX, formatPDF:
		return format, nil
	case "":
		return formatPPTX, nil
	default:
		return "", fmt.Errorf("不支持的输出格式 %q（可选 pptx、pdf）", format)
	}
}

func newRenderer(format string, loader assets.Loader, logger *log.Logger) renderer.Renderer {
	if format == formatPDF {
		return canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{Loader: loader, Logger: logger})
	}
	return pptxrenderer.NewRenderer(pptxrenderer.Options{Loader: loader, Logger: logger})
}

// exportFormats 为 HTTP 导出接口注册全部格式。
func exportFormats(loader assets.Loader, logger *log.Logger) map[string]server.Format {
	return map[string]server.Format{
		formatPPTX: {
			Renderer:    newRenderer(formatPPTX, loader, logger),
			Extension:   formatPPTX,
			ContentType: "application/vnd.openxmlformats-officedocument.presentationml.presentation",
		},
		formatPDF: {
			Renderer:    newRenderer(formatPDF, loader, logger),
			Extension:   formatPDF,
			ContentType: "application/pdf",
		},
	}
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
