package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anika57/slidecrafter/config"
)

// version 由构建时 -ldflags 注入。
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// newRootCmd 组装命令树；配置在每个子命令执行前加载到共享的 viper 实例。
func newRootCmd() *cobra.Command {
	var (
		verbose    bool
		configFile string
	)
	v := viper.New()

	root := &cobra.Command{
		Use:          "slidecrafter",
		Short:        "Generate, edit and export slide decks",
		Long:         `slidecrafter turns a topic or an outline into a slide deck, places every title, bullet and image on a 16:9 page and exports it as PPTX or a PDF preview.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			logger := newLogger(cmd.ErrOrStderr(), level)
			cmd.SetContext(charmlog.WithContext(cmd.Context(), logger))

			if err := config.LoadDotEnv(".env.local", ".env"); err != nil {
				return err
			}
			if configFile != "" {
				v.SetConfigFile(configFile)
			}
			if err := config.Load(cmd.Context(), v); err != nil {
				return err
			}
			if err := config.Check(v); err != nil {
				return err
			}
			if used := v.ConfigFileUsed(); used != "" {
				logger.Debug("配置已加载", "file", used)
			}
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("slidecrafter %s\n", version))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: slidecrafter.{toml,yaml,json} in the config dirs)")

	root.AddCommand(newBuildCmd(v))
	root.AddCommand(newGenerateCmd(v))
	root.AddCommand(newEditCmd(v))
	root.AddCommand(newImportCmd())
	root.AddCommand(newServeCmd(v))
	root.AddCommand(newConfigCmd(v))
	return root
}
