package main

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	charmlog "github.com/charmbracelet/log"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/spf13/viper"

	"github.com/anika57/slidecrafter/deck"
	"github.com/anika57/slidecrafter/generator"
	"github.com/anika57/slidecrafter/layout"
)

const sampleDeck = `{"slides":[
 {"title":"Intro","content":["**Solar** is cheap","Wind is steady"],"image_url":""},
 {"title":"Costs","content":["Down 90%"],"image_url":""},
 {"title":"Grid","content":["Storage"],"image_url":""},
 {"title":"Next","content":["Questions"],"image_url":""}
]}`

func offlinePipeline() pipeline {
	cfg := layout.DefaultConfig()
	return pipeline{layout: cfg, rules: deck.DefaultRules(), loader: newLoader(cfg, 0, true)}
}

func quietContext() context.Context {
	return charmlog.WithContext(context.Background(), newLogger(&bytes.Buffer{}, charmlog.DebugLevel))
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRunWritesPPTXAndPDF(t *testing.T) {
	input := writeFile(t, "deck.json", sampleDeck)
	dir := t.TempDir()

	for _, tc := range []struct {
		output string
		magic  string
	}{
		{output: filepath.Join(dir, "out", "deck.pptx"), magic: "PK"},
		{output: filepath.Join(dir, "deck.pdf"), magic: "%PDF"},
	} {
		debug := tc.output + ".json"
		opts := buildOpts{input: input, output: tc.output, debug: debug}
		if err := run(quietContext(), opts, offlinePipeline()); err != nil {
			t.Fatalf("run %s: %v", tc.output, err)
		}
		data, err := os.ReadFile(tc.output)
		if err != nil {
			t.Fatalf("read output: %v", err)
		}
		if !bytes.HasPrefix(data, []byte(tc.magic)) {
			t.Fatalf("%s: expected %q header", tc.output, tc.magic)
		}
		raw, err := os.ReadFile(debug)
		if err != nil {
			t.Fatalf("read debug: %v", err)
		}
		if !strings.Contains(string(raw), `"Intro"`) {
			t.Fatalf("debug JSON misses the first title: %s", raw)
		}
	}
}

func TestOfflineBuildUsesPlaceholder(t *testing.T) {
	input := writeFile(t, "deck.json", sampleDeck)
	output := filepath.Join(t.TempDir(), "deck.pptx")

	var logs bytes.Buffer
	ctx := charmlog.WithContext(context.Background(), newLogger(&logs, charmlog.DebugLevel))
	if err := run(ctx, buildOpts{input: input, output: output}, offlinePipeline()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if strings.Contains(logs.String(), "跳过") {
		t.Fatalf("first slide image should come from the placeholder, logs: %s", logs.String())
	}

	zr, err := zip.OpenReader(output)
	if err != nil {
		t.Fatalf("open pptx: %v", err)
	}
	defer zr.Close()
	media := 0
	for _, f := range zr.File {
		if strings.HasPrefix(f.Name, "ppt/media/") {
			media++
		}
	}
	if media == 0 {
		t.Fatalf("expected the placeholder to be embedded")
	}
}

func TestLoaderFallsBackToPlaceholder(t *testing.T) {
	cfg := layout.DefaultConfig()
	cfg.FallbackImage = "http://127.0.0.1:1/unreachable.png"
	img, err := newLoader(cfg, 0, false).Load(context.Background(), cfg.FallbackImage)
	if err != nil {
		t.Fatalf("expected placeholder for unreachable fallback image: %v", err)
	}
	if img.Width != placeholderWidth || img.Height != placeholderHeight {
		t.Fatalf("unexpected placeholder size %dx%d", img.Width, img.Height)
	}
	if _, err := newLoader(cfg, 0, true).Load(context.Background(), "https://example.com/other.png"); err == nil {
		t.Fatalf("offline loader must not serve other images")
	}
}

func TestRunOutline(t *testing.T) {
	input := writeFile(t, "talk.deck", `
deck "${topic}" {
  author: "Ada"
  slide "Hello ${topic}" {
    "first point"
  }
}
`)
	output := filepath.Join(t.TempDir(), "talk.pdf")
	var data any = map[string]any{"topic": "Energy"}
	records, meta, err := loadInput(charmlog.New(&bytes.Buffer{}), input, data, false, deck.DefaultRules())
	if err != nil {
		t.Fatalf("load outline: %v", err)
	}
	if meta.Title != "Energy" || meta.Author != "Ada" || meta.Creator != creator {
		t.Fatalf("unexpected meta: %+v", meta)
	}
	if len(records) != 1 || records[0].Title != "Hello Energy" {
		t.Fatalf("unexpected records: %+v", records)
	}

	opts := buildOpts{input: input, output: output, dataJSON: `{"topic":"Energy"}`}
	if err := run(quietContext(), opts, offlinePipeline()); err != nil {
		t.Fatalf("run outline: %v", err)
	}
}

func TestRunStrict(t *testing.T) {
	short := writeFile(t, "short.json", `{"slides":[{"title":"Only","content":["one"],"image_url":""}]}`)
	output := filepath.Join(t.TempDir(), "short.pptx")

	err := run(quietContext(), buildOpts{input: short, output: output, strict: true}, offlinePipeline())
	var verr *deck.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, statErr := os.Stat(output); statErr == nil {
		t.Fatalf("strict failure must not write output")
	}

	if err := run(quietContext(), buildOpts{input: short, output: output}, offlinePipeline()); err != nil {
		t.Fatalf("non-strict run should only warn: %v", err)
	}
}

func TestRunLenientFallback(t *testing.T) {
	broken := writeFile(t, "broken.json", `{"slides":[{"title":"Kept","content":"not a list"}]}`)
	output := filepath.Join(t.TempDir(), "broken.pptx")

	if err := run(quietContext(), buildOpts{input: broken, output: output, strict: true}, offlinePipeline()); err == nil {
		t.Fatalf("strict mode should reject malformed JSON")
	}
	if err := run(quietContext(), buildOpts{input: broken, output: output}, offlinePipeline()); err != nil {
		t.Fatalf("lenient run failed: %v", err)
	}
}

func TestRunBadDataJSON(t *testing.T) {
	input := writeFile(t, "deck.json", sampleDeck)
	opts := buildOpts{input: input, output: filepath.Join(t.TempDir(), "x.pptx"), dataJSON: "{"}
	if err := run(quietContext(), opts, offlinePipeline()); err == nil {
		t.Fatalf("expected data JSON error")
	}
}

func TestResolveFormat(t *testing.T) {
	cases := []struct {
		flag, output, want string
		wantErr            bool
	}{
		{output: "a.pptx", want: formatPPTX},
		{output: "a.PDF", want: formatPDF},
		{flag: ".pdf", output: "a.pptx", want: formatPDF},
		{output: "noext", want: formatPPTX},
		{output: "a.key", wantErr: true},
		{flag: "docx", wantErr: true},
	}
	for _, tc := range cases {
		got, err := resolveFormat(tc.flag, tc.output)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("resolveFormat(%q, %q): expected error", tc.flag, tc.output)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("resolveFormat(%q, %q) = %q, %v; want %q", tc.flag, tc.output, got, err, tc.want)
		}
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, charmlog.InfoLevel)
	l.Debug("hidden")
	l.Info("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Fatalf("unexpected log output: %q", out)
	}
}

func TestRootInjectsLogger(t *testing.T) {
	isolate(t)
	input := writeFile(t, "deck.json", sampleDeck)
	pptx := filepath.Join(t.TempDir(), "deck.pptx")
	if err := run(quietContext(), buildOpts{input: input, output: pptx}, offlinePipeline()); err != nil {
		t.Fatalf("build pptx: %v", err)
	}

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"-v", "import", "-i", pptx})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("import: %v", err)
	}
	// 子命令的调试日志应写到根命令注入的日志器，而不是默认日志器
	if !strings.Contains(stderr.String(), "读取完成") {
		t.Fatalf("expected debug log on the command's stderr, got %q", stderr.String())
	}
	if !strings.Contains(stdout.String(), `"Intro"`) {
		t.Fatalf("expected imported deck on stdout, got %q", stdout.String())
	}
}

type cannedModel struct{ reply string }

func (m cannedModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	return &schema.Message{Role: schema.Assistant, Content: m.reply}, nil
}

func (m cannedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GEMINI_API_KEY", "")
}

func TestRootGenerateAndEdit(t *testing.T) {
	isolate(t)
	orig := newGenerator
	t.Cleanup(func() { newGenerator = orig })
	newGenerator = func(context.Context, *viper.Viper) (*generator.Generator, error) {
		return generator.NewWithModel(cannedModel{reply: "```json\n" + sampleDeck + "\n```"}), nil
	}

	dir := t.TempDir()
	generated := filepath.Join(dir, "deck.json")
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"generate", "-o", generated, "clean", "energy"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("generate: %v", err)
	}
	raw, err := os.ReadFile(generated)
	if err != nil {
		t.Fatalf("read generated deck: %v", err)
	}
	d, err := deck.Decode(raw)
	if err != nil || len(d.Slides) != 4 {
		t.Fatalf("unexpected generated deck: %v %+v", err, d)
	}

	var stdout bytes.Buffer
	root = newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"edit", "-i", generated, "make", "it", "shorter"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !strings.Contains(stdout.String(), `"Intro"`) {
		t.Fatalf("edit should print the deck, got %q", stdout.String())
	}
}

func TestRootConfigMasksKey(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "super-secret")

	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"config"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("config: %v", err)
	}
	out := stdout.String()
	if strings.Contains(out, "super-secret") || !strings.Contains(out, "model.api_key = ********") {
		t.Fatalf("api key not masked: %q", out)
	}
	if !strings.Contains(out, "server.addr = :8080") {
		t.Fatalf("missing server.addr: %q", out)
	}
}

func TestRootRejectsBadConfig(t *testing.T) {
	isolate(t)
	path := writeFile(t, "slidecrafter.toml", "[deck]\nmin_slides = 9\nmax_slides = 2\n")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"--config", path, "config"})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected configuration error")
	}
}

func TestWriteDeckStdout(t *testing.T) {
	var buf bytes.Buffer
	d := deck.Deck{Slides: []deck.Slide{{Title: "A", Content: []string{}}}}
	if err := writeDeck(&buf, "-", d); err != nil {
		t.Fatalf("writeDeck: %v", err)
	}
	if !strings.HasSuffix(buf.String(), "\n") || !strings.Contains(buf.String(), `"A"`) {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
