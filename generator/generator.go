// Package generator asks a chat model for slide decks, either from a topic or
// by editing an existing deck.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/anika57/slidecrafter/binding"
	"github.com/anika57/slidecrafter/deck"
)

// Gemini is reached through its OpenAI-compatible endpoint.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-2.5-pro"
)

var (
	ErrMissingAPIKey = errors.New("generator: missing API key")
	ErrEmptyPrompt   = errors.New("generator: prompt is required")
	ErrEmptyResponse = errors.New("generator: model returned no content")
)

// Config selects the model endpoint. Rules bound the decks the model may
// return; the zero value means deck.DefaultRules().
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	Rules   deck.Rules
}

// Generator turns prompts into decks.
type Generator struct {
	model  model.BaseChatModel
	rules  deck.Rules
	logger *log.Logger
}

// New builds a generator backed by an OpenAI-compatible chat model.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	rules := cfg.Rules
	if rules == (deck.Rules{}) {
		rules = deck.DefaultRules()
	}
	rs, err := ResponseSchema(rules)
	if err != nil {
		return nil, err
	}
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        "presentation",
				Description: "Slides of a presentation",
				JSONSchema:  rs,
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}
	return NewWithModel(cm).WithRules(rules), nil
}

// NewWithModel wraps an existing chat model. Decks are checked against
// deck.DefaultRules() until WithRules says otherwise.
func NewWithModel(m model.BaseChatModel) *Generator {
	return &Generator{model: m, rules: deck.DefaultRules(), logger: log.Default()}
}

// WithRules sets the rules every returned deck must satisfy.
func (g *Generator) WithRules(r deck.Rules) *Generator {
	g.rules = r
	return g
}

// WithLogger sets the logger used for request tracing.
func (g *Generator) WithLogger(l *log.Logger) *Generator {
	if l != nil {
		g.logger = l
	}
	return g
}

// Generate creates a new deck about topic.
func (g *Generator) Generate(ctx context.Context, topic string) (deck.Deck, error) {
	if strings.TrimSpace(topic) == "" {
		return deck.Deck{}, ErrEmptyPrompt
	}
	user := binding.Interpolate(generateTemplate, binding.Vars{"topic": topic})
	return g.ask(ctx, "generate", generateInstruction+" "+describeSchema(g.rules), user)
}

// Edit applies instruction to current and returns the complete modified deck.
func (g *Generator) Edit(ctx context.Context, current deck.Deck, instruction string) (deck.Deck, error) {
	if strings.TrimSpace(instruction) == "" {
		return deck.Deck{}, ErrEmptyPrompt
	}
	body, err := current.JSON()
	if err != nil {
		return deck.Deck{}, fmt.Errorf("encode current deck: %w", err)
	}
	user := binding.Interpolate(editTemplate, binding.Vars{"deck": body, "request": instruction})
	return g.ask(ctx, "edit", editInstruction+" "+describeSchema(g.rules), user)
}

// Respond edits current when it has slides and generates from scratch otherwise.
func (g *Generator) Respond(ctx context.Context, prompt string, current deck.Deck) (deck.Deck, error) {
	if len(current.Slides) > 0 {
		return g.Edit(ctx, current, prompt)
	}
	return g.Generate(ctx, prompt)
}

func (g *Generator) ask(ctx context.Context, mode, system, user string) (deck.Deck, error) {
	messages := []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: user},
	}
	start := time.Now()
	resp, err := g.model.Generate(ctx, messages)
	if err != nil {
		return deck.Deck{}, fmt.Errorf("%s: model call failed: %w", mode, err)
	}
	if resp == nil {
		return deck.Deck{}, ErrEmptyResponse
	}
	content := ExtractJSON(resp.Content)
	if content == "" {
		return deck.Deck{}, ErrEmptyResponse
	}
	g.logger.Debug("model responded", "mode", mode, "bytes", len(content), "took", time.Since(start))

	d, err := deck.Decode([]byte(content))
	if err != nil {
		return deck.Deck{}, fmt.Errorf("%s: parse model output: %w", mode, err)
	}
	// 模型输出是进入放置引擎前的边界，不符合规则的 deck 不向外返回
	if err := deck.Validate(d, g.rules).Err(); err != nil {
		return deck.Deck{}, fmt.Errorf("%s: model output breaks the deck rules: %w", mode, err)
	}
	return d, nil
}

// ExtractJSON trims the response and removes a surrounding markdown code fence.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// 去掉语言标记，例如 ```json
		if lang := strings.TrimSpace(s[:nl]); !strings.ContainsAny(lang, "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
