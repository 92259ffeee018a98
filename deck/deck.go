// Package deck defines the slide deck exchanged with the model and the HTTP API,
// and converts it into layout records at the boundary.
package deck

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anika57/slidecrafter/layout"
)

// ErrNoSlides is returned by Decode when the document has no slides array.
var ErrNoSlides = errors.New("deck: missing slides array")

// Slide mirrors one item of the model's output schema.
type Slide struct {
	Title    string   `json:"title"`
	Content  []string `json:"content"`
	ImageURL string   `json:"image_url,omitempty"`
}

// Deck is the top-level document: {"slides": [...]}.
type Deck struct {
	Slides []Slide `json:"slides"`
}

// Decode strictly parses a deck document. Unknown fields are ignored.
func Decode(data []byte) (Deck, error) {
	var envelope struct {
		Slides json.RawMessage `json:"slides"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return Deck{}, fmt.Errorf("decode deck: %w", err)
	}
	trimmed := bytes.TrimSpace(envelope.Slides)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Deck{}, ErrNoSlides
	}
	var d Deck
	if err := json.Unmarshal(data, &d); err != nil {
		return Deck{}, fmt.Errorf("decode deck: %w", err)
	}
	return d, nil
}

// Records converts the deck into placement records, keeping slide order.
// A nil Content stays nil so the placement engine treats it as absent.
func (d Deck) Records() []layout.SlideRecord {
	if len(d.Slides) == 0 {
		return nil
	}
	out := make([]layout.SlideRecord, 0, len(d.Slides))
	for _, s := range d.Slides {
		out = append(out, layout.SlideRecord{
			Title:    s.Title,
			Bullets:  s.Content,
			ImageRef: s.ImageURL,
		})
	}
	return out
}

// Lenient extracts placement records from arbitrary JSON, degrading silently:
// invalid JSON or a missing/non-array "slides" yields nil, items that are not
// objects are skipped, a non-array "content" yields nil bullets and non-string
// bullets are dropped.
func Lenient(data []byte) []layout.SlideRecord {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	items, ok := doc["slides"].([]any)
	if !ok {
		return nil
	}
	out := make([]layout.SlideRecord, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rec := layout.SlideRecord{}
		rec.Title, _ = obj["title"].(string)
		rec.ImageRef, _ = obj["image_url"].(string)
		if content, ok := obj["content"].([]any); ok {
			rec.Bullets = make([]string, 0, len(content))
			for _, c := range content {
				if s, ok := c.(string); ok {
					rec.Bullets = append(rec.Bullets, s)
				}
			}
		}
		out = append(out, rec)
	}
	return out
}

// JSON renders the deck as indented JSON, the form used in edit prompts.
func (d Deck) JSON() (string, error) {
	if d.Slides == nil {
		d.Slides = []Slide{}
	}
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
