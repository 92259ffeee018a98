package generator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anika57/slidecrafter/deck"
)

type fakeModel struct {
	reply   string
	err     error
	nilResp bool
	input   []*schema.Message
}

func (m *fakeModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.input = input
	if m.err != nil {
		return nil, m.err
	}
	if m.nilResp {
		return nil, nil
	}
	return &schema.Message{Role: schema.Assistant, Content: m.reply}, nil
}

func (m *fakeModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

const sampleReply = `{"slides":[
 {"title":"Solar","content":["**Cheap** now","Everywhere"],"image_url":"https://x/y.png"},
 {"title":"Wind","content":["Steady"],"image_url":""},
 {"title":"Storage","content":["Batteries"],"image_url":""},
 {"title":"Outlook","content":["Growth"],"image_url":""}
]}`

func TestGenerateBuildsPrompt(t *testing.T) {
	fm := &fakeModel{reply: sampleReply}
	d, err := NewWithModel(fm).Generate(context.Background(), "Clean energy")
	require.NoError(t, err)
	require.Len(t, d.Slides, 4)
	assert.Equal(t, "Solar", d.Slides[0].Title)
	assert.Equal(t, []string{"**Cheap** now", "Everywhere"}, d.Slides[0].Content)

	require.Len(t, fm.input, 2)
	assert.Equal(t, schema.System, fm.input[0].Role)
	assert.Contains(t, fm.input[0].Content, "expert presentation content generator")
	assert.Contains(t, fm.input[0].Content, `an array of 4 to 8 slides`)
	assert.Equal(t, schema.User, fm.input[1].Role)
	assert.Equal(t, `TOPIC: "Clean energy"`, fm.input[1].Content)
}

func TestEditEmbedsCurrentDeck(t *testing.T) {
	fm := &fakeModel{reply: "```json\n" + sampleReply + "\n```"}
	current := deck.Deck{Slides: []deck.Slide{{Title: "Old", Content: []string{"a"}}}}

	d, err := NewWithModel(fm).Edit(context.Background(), current, "make it shorter")
	require.NoError(t, err)
	assert.Equal(t, "Solar", d.Slides[0].Title)

	assert.Contains(t, fm.input[0].Content, "presentation editor")
	user := fm.input[1].Content
	assert.Contains(t, user, "CURRENT SLIDE JSON TO EDIT:\n```json\n{\n  \"slides\": [")
	assert.Contains(t, user, `"title": "Old"`)
	assert.Contains(t, user, "USER EDIT REQUEST: \"make it shorter\"")
}

func TestRespondPicksMode(t *testing.T) {
	fm := &fakeModel{reply: sampleReply}
	g := NewWithModel(fm)

	_, err := g.Respond(context.Background(), "topic", deck.Deck{})
	require.NoError(t, err)
	assert.Contains(t, fm.input[1].Content, "TOPIC:")

	_, err = g.Respond(context.Background(), "tweak", deck.Deck{Slides: []deck.Slide{{Title: "x"}}})
	require.NoError(t, err)
	assert.Contains(t, fm.input[1].Content, "USER EDIT REQUEST")
}

func TestGenerateErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewWithModel(&fakeModel{}).Generate(ctx, "  ")
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = NewWithModel(&fakeModel{}).Edit(ctx, deck.Deck{}, "")
	assert.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = NewWithModel(&fakeModel{reply: "   "}).Generate(ctx, "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	_, err = NewWithModel(&fakeModel{nilResp: true}).Generate(ctx, "x")
	assert.ErrorIs(t, err, ErrEmptyResponse)

	boom := errors.New("boom")
	_, err = NewWithModel(&fakeModel{err: boom}).Generate(ctx, "x")
	assert.ErrorIs(t, err, boom)

	_, err = NewWithModel(&fakeModel{reply: "not json"}).Generate(ctx, "x")
	assert.Error(t, err)

	_, err = NewWithModel(&fakeModel{reply: `{"title":"no slides"}`}).Generate(ctx, "x")
	assert.ErrorIs(t, err, deck.ErrNoSlides)
}

func TestRejectsDeckOutsideRules(t *testing.T) {
	ctx := context.Background()
	many := `{"slides":[` + strings.TrimSuffix(strings.Repeat(`{"title":"t","content":["a"],"image_url":""},`, 20), ",") + `]}`

	for name, reply := range map[string]string{
		"too few":  `{"slides":[{"title":"a","content":[]}]}`,
		"too many": many,
		"no title": strings.Replace(sampleReply, `"title":"Wind"`, `"title":""`, 1),
	} {
		_, err := NewWithModel(&fakeModel{reply: reply}).Generate(ctx, "x")
		var verr *deck.ValidationError
		require.ErrorAs(t, err, &verr, name)
		assert.NotEmpty(t, verr.Problems, name)

		_, err = NewWithModel(&fakeModel{reply: reply}).Edit(ctx, deck.Deck{}, "x")
		assert.ErrorAs(t, err, &verr, name)
	}

	// 放宽规则后同样的回复可以通过
	d, err := NewWithModel(&fakeModel{reply: `{"slides":[{"title":"a","content":[]}]}`}).
		WithRules(deck.Rules{}).Generate(ctx, "x")
	require.NoError(t, err)
	assert.Len(t, d.Slides, 1)
}

func TestPromptFollowsRules(t *testing.T) {
	fm := &fakeModel{reply: sampleReply}
	_, err := NewWithModel(fm).WithRules(deck.Rules{MinSlides: 3, MaxSlides: 5, MinBullets: 2, MaxBullets: 4}).Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Contains(t, fm.input[0].Content, "an array of 3 to 5 slides")
	assert.Contains(t, fm.input[0].Content, "array of 2 to 4 bullet point strings")
}

func TestResponseSchema(t *testing.T) {
	s, err := ResponseSchema(deck.DefaultRules())
	require.NoError(t, err)
	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var doc struct {
		Required   []string `json:"required"`
		Properties struct {
			Slides struct {
				Type     string `json:"type"`
				MinItems int    `json:"minItems"`
				MaxItems int    `json:"maxItems"`
				Items    struct {
					Required   []string                   `json:"required"`
					Properties map[string]json.RawMessage `json:"properties"`
				} `json:"items"`
			} `json:"slides"`
		} `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, []string{"slides"}, doc.Required)
	slides := doc.Properties.Slides
	assert.Equal(t, "array", slides.Type)
	assert.Equal(t, 4, slides.MinItems)
	assert.Equal(t, 8, slides.MaxItems)
	assert.ElementsMatch(t, []string{"title", "content", "image_url"}, slides.Items.Required)
	assert.Len(t, slides.Items.Properties, 3)
	assert.NotContains(t, string(slides.Items.Properties["content"]), "minItems")
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestNewDefaultsRules(t *testing.T) {
	g, err := New(context.Background(), Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, deck.DefaultRules(), g.rules)

	g, err = New(context.Background(), Config{APIKey: "k", Rules: deck.Rules{MinSlides: 2, MaxSlides: 3}})
	require.NoError(t, err)
	assert.Equal(t, 3, g.rules.MaxSlides)
}

func TestExtractJSON(t *testing.T) {
	cases := map[string]string{
		`{"a":1}`:                 `{"a":1}`,
		"  {\"a\":1}\n":           `{"a":1}`,
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		"```{\"a\":1}```":         `{"a":1}`,
		"":                        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExtractJSON(in), "input %q", in)
	}
}
