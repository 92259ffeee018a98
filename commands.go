package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anika57/slidecrafter/config"
	"github.com/anika57/slidecrafter/deck"
	"github.com/anika57/slidecrafter/generator"
	pptxrenderer "github.com/anika57/slidecrafter/renderer/pptx"
	"github.com/anika57/slidecrafter/server"
)

// newGenerator 可在测试中替换为假模型。
var newGenerator = func(ctx context.Context, v *viper.Viper) (*generator.Generator, error) {
	g, err := generator.New(ctx, config.ModelConfig(v))
	if err != nil {
		return nil, err
	}
	return g.WithLogger(log.FromContext(ctx)), nil
}

func newGenerateCmd(v *viper.Viper) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "generate <topic...>",
		Short: "Ask the model for a new deck about a topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := log.FromContext(ctx)
			g, err := newGenerator(ctx, v)
			if err != nil {
				return err
			}
			prog := newProgress(logger)
			d, err := g.Generate(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if err := writeDeck(cmd.OutOrStdout(), output, d); err != nil {
				return err
			}
			prog.done(fmt.Sprintf("生成了 %d 张幻灯片", len(d.Slides)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the deck JSON here instead of stdout")
	return cmd
}

func newEditCmd(v *viper.Viper) *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "edit -i deck.json <instruction...>",
		Short: "Ask the model to change an existing deck",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			raw, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("读取 %s 失败: %w", input, err)
			}
			current, err := deck.Decode(raw)
			if err != nil {
				return err
			}
			g, err := newGenerator(ctx, v)
			if err != nil {
				return err
			}
			prog := newProgress(log.FromContext(ctx))
			d, err := g.Edit(ctx, current, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if err := writeDeck(cmd.OutOrStdout(), output, d); err != nil {
				return err
			}
			prog.done("修改完成")
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "deck JSON to edit")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the deck JSON here instead of stdout")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newImportCmd() *cobra.Command {
	var input, output string
	cmd := &cobra.Command{
		Use:   "import -i deck.pptx",
		Short: "Recover titles and bullets from a PPTX file as deck JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := pptxrenderer.ReadDeck(input)
			if err != nil {
				return err
			}
			log.FromContext(cmd.Context()).Debug("读取完成", "slides", len(d.Slides))
			return writeDeck(cmd.OutOrStdout(), output, d)
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "PPTX file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the deck JSON here instead of stdout")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newServeCmd(v *viper.Viper) *cobra.Command {
	var addr string
	var offline bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := log.FromContext(ctx)
			if addr == "" {
				addr = v.GetString("server.addr")
			}

			opts := server.Options{
				Layout:        config.LayoutConfig(v),
				Rules:         config.Rules(v),
				DefaultFormat: formatPPTX,
				Creator:       creator,
				Logger:        logger,
			}
			g, err := newGenerator(ctx, v)
			switch {
			case err == nil:
				opts.Responder = g
			case errors.Is(err, generator.ErrMissingAPIKey):
				logger.Warn("未配置模型 API key，/api/generate 将不可用")
			default:
				return err
			}

			opts.Formats = exportFormats(newPipeline(v, offline).loader, logger)
			return server.New(opts).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	cmd.Flags().BoolVar(&offline, "offline", false, "do not download images during export")
	return cmd
}

func newConfigCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, o := range config.Options() {
				val := v.Get(o.Key)
				if o.Key == "model.api_key" && v.GetString(o.Key) != "" {
					val = "********"
				}
				if _, err := fmt.Fprintf(w, "%s = %v\t# %s\n", o.Key, val, o.Comment); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// writeDeck 输出 deck JSON；path 为空或 "-" 时写到 w。
func writeDeck(w io.Writer, path string, d deck.Deck) error {
	body, err := d.JSON()
	if err != nil {
		return fmt.Errorf("序列化 deck 失败: %w", err)
	}
	if path == "" || path == "-" {
		_, err := fmt.Fprintln(w, body)
		return err
	}
	return writeOutput(path, []byte(body+"\n"))
}
