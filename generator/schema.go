package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eino-contrib/jsonschema"

	"github.com/anika57/slidecrafter/deck"
)

// 字段说明同时用于结构化输出的 schema 和提示词。
const (
	titleDescription   = "The main title of the slide."
	contentDescription = "An array of key bullet points. Use Markdown bolding (**text**) for emphasis."
	imageDescription   = "A placeholder or sample image URL for the slide."
)

// ResponseSchema returns the JSON schema sent as the model's response format.
// Slide and bullet counts follow r; zero bounds are left out.
func ResponseSchema(r deck.Rules) (*jsonschema.Schema, error) {
	content := map[string]any{
		"type":        "array",
		"description": contentDescription,
		"items":       map[string]any{"type": "string"},
	}
	setBounds(content, r.MinBullets, r.MaxBullets)

	slides := map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":     map[string]any{"type": "string", "description": titleDescription},
				"content":   content,
				"image_url": map[string]any{"type": "string", "description": imageDescription},
			},
			"required": []string{"title", "content", "image_url"},
		},
	}
	setBounds(slides, r.MinSlides, r.MaxSlides)

	raw, err := json.Marshal(map[string]any{
		"type":       "object",
		"properties": map[string]any{"slides": slides},
		"required":   []string{"slides"},
	})
	if err != nil {
		return nil, fmt.Errorf("encode response schema: %w", err)
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode response schema: %w", err)
	}
	return &s, nil
}

func setBounds(m map[string]any, lo, hi int) {
	if lo > 0 {
		m["minItems"] = lo
	}
	if hi > 0 {
		m["maxItems"] = hi
	}
}

// describeSchema 用文字重复 schema，供不支持结构化输出的端点参考。
func describeSchema(r deck.Rules) string {
	var b strings.Builder
	fmt.Fprintf(&b, `The JSON object has a single key "slides": an array of %s slides. `, countPhrase(r.MinSlides, r.MaxSlides, "any number of"))
	fmt.Fprintf(&b, `Each slide has "title" (string, %s), `, strings.ToLower(strings.TrimSuffix(titleDescription, ".")))
	fmt.Fprintf(&b, `"content" (array of %s bullet point strings; use Markdown bolding (**text**) for emphasis) `, countPhrase(r.MinBullets, r.MaxBullets, "4-6 key"))
	b.WriteString(`and "image_url" (string, a placeholder or sample image URL). All three fields are required.`)
	return b.String()
}

func countPhrase(lo, hi int, unbounded string) string {
	switch {
	case lo > 0 && hi > 0:
		return fmt.Sprintf("%d to %d", lo, hi)
	case lo > 0:
		return fmt.Sprintf("at least %d", lo)
	case hi > 0:
		return fmt.Sprintf("at most %d", hi)
	default:
		return unbounded
	}
}
