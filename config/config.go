// Package config resolves settings with precedence defaults < file < env and
// converts them into the explicit configs used by the other packages.
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/anika57/slidecrafter/deck"
	"github.com/anika57/slidecrafter/generator"
	"github.com/anika57/slidecrafter/layout"
)

// AppName is used for the config directory, file name and env prefix.
const AppName = "slidecrafter"

// Option documents one configuration key.
type Option struct {
	Key     string
	Default any
	Comment string
}

// Options returns every configuration key with its default and meaning.
func Options() []Option {
	def := layout.DefaultConfig()
	rules := deck.DefaultRules()
	return []Option{
		{Key: "model.api_key", Default: "", Comment: "API key for the chat model; GEMINI_API_KEY is also read"},
		{Key: "model.base_url", Default: generator.DefaultBaseURL, Comment: "OpenAI-compatible endpoint"},
		{Key: "model.name", Default: generator.DefaultModel, Comment: "Model name"},
		{Key: "model.timeout", Default: "120s", Comment: "Per-request timeout for model calls"},

		{Key: "deck.min_slides", Default: rules.MinSlides, Comment: "Fewest slides a deck should have"},
		{Key: "deck.max_slides", Default: rules.MaxSlides, Comment: "Most slides a deck should have"},

		{Key: "server.addr", Default: ":8080", Comment: "HTTP listen address for serve"},
		{Key: "export.fetch_timeout", Default: "15s", Comment: "Timeout for downloading slide images during export"},

		{Key: "layout.line_char_width", Default: def.LineCharWidth, Comment: "Characters per line used by height estimation"},
		{Key: "layout.line_height", Default: def.LineHeight, Comment: "Height of one estimated line; bare numbers are inches, 9mm or 25pt also work"},
		{Key: "layout.fallback_image", Default: def.FallbackImage, Comment: "Image always placed on the first slide"},
	}
}

func applyDefaults(v *viper.Viper) {
	for _, o := range Options() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Load seeds defaults, reads slidecrafter.{toml,yaml,json} if present and
// binds SLIDECRAFTER_* environment variables.
func Load(ctx context.Context, v *viper.Viper) error {
	if v.ConfigFileUsed() == "" {
		v.SetConfigName(AppName)
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, AppName))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", AppName))
		}
		v.AddConfigPath(".")
	}

	applyDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("model.api_key", "SLIDECRAFTER_MODEL_API_KEY", "GEMINI_API_KEY"); err != nil {
		return err
	}
	return ctx.Err()
}

// LoadDotEnv loads KEY=VALUE files into the process environment. Variables
// that are already set win; missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Check reports every invalid key at once.
func Check(v *viper.Viper) error {
	var problems []string
	add := func(format string, args ...any) { problems = append(problems, fmt.Sprintf(format, args...)) }

	if raw := v.GetString("model.base_url"); raw != "" {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			add("model.base_url is not a valid url")
		}
	}
	if strings.TrimSpace(v.GetString("model.name")) == "" {
		add("model.name is required")
	}
	for _, key := range []string{"model.timeout", "export.fetch_timeout"} {
		if d, err := parseDuration(v.GetString(key)); err != nil || d < 0 {
			add("%s must be a non-negative duration", key)
		}
	}

	minSlides, maxSlides := v.GetInt("deck.min_slides"), v.GetInt("deck.max_slides")
	if minSlides < 0 {
		add("deck.min_slides must not be negative")
	}
	if maxSlides > 0 && maxSlides < minSlides {
		add("deck.max_slides must not be less than deck.min_slides")
	}

	if strings.TrimSpace(v.GetString("server.addr")) == "" {
		add("server.addr is required")
	}
	if v.GetInt("layout.line_char_width") <= 0 {
		add("layout.line_char_width must be greater than 0")
	}
	if lengthInches(v, "layout.line_height") <= 0 {
		add("layout.line_height must be greater than 0")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// LayoutConfig returns the placement constants with configured overrides.
func LayoutConfig(v *viper.Viper) layout.Config {
	cfg := layout.DefaultConfig()
	if n := v.GetInt("layout.line_char_width"); n > 0 {
		cfg.LineCharWidth = n
	}
	if h := lengthInches(v, "layout.line_height"); h > 0 {
		cfg.LineHeight = h
	}
	if img := strings.TrimSpace(v.GetString("layout.fallback_image")); img != "" {
		cfg.FallbackImage = img
	}
	return cfg
}

// ModelConfig returns the chat model settings, including the deck rules
// the model output must satisfy.
func ModelConfig(v *viper.Viper) generator.Config {
	timeout, _ := parseDuration(v.GetString("model.timeout"))
	return generator.Config{
		APIKey:  v.GetString("model.api_key"),
		BaseURL: v.GetString("model.base_url"),
		Model:   v.GetString("model.name"),
		Timeout: timeout,
		Rules:   Rules(v),
	}
}

// Rules returns the deck validation rules.
func Rules(v *viper.Viper) deck.Rules {
	r := deck.DefaultRules()
	r.MinSlides = v.GetInt("deck.min_slides")
	r.MaxSlides = v.GetInt("deck.max_slides")
	return r
}

// FetchTimeout is the per-image download timeout used by exporters.
func FetchTimeout(v *viper.Viper) time.Duration {
	d, _ := parseDuration(v.GetString("export.fetch_timeout"))
	return d
}

// lengthInches 读取带单位的长度并换算为英寸，无法解析时返回 0。
func lengthInches(v *viper.Viper, key string) float64 {
	l, ok := layout.ParseLength(v.GetString(key))
	if !ok {
		return 0
	}
	return l.ToIN()
}

// parseDuration accepts Go durations and bare seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	return time.ParseDuration(s + "s")
}
