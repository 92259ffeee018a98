package deck

import (
	"fmt"
	"strings"
)

// Rules are the business constraints the generator is asked to honour.
// A zero bound means "not checked".
type Rules struct {
	MinSlides    int
	MaxSlides    int
	MinBullets   int
	MaxBullets   int
	RequireImage bool
}

// DefaultRules matches the model schema: 4 to 8 slides.
func DefaultRules() Rules {
	return Rules{MinSlides: 4, MaxSlides: 8}
}

// Problem is one violated constraint. Path points at the offending field,
// e.g. "slides[2].title".
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// Report is the typed result of Validate.
type Report struct {
	Problems []Problem `json:"problems,omitempty"`
}

// OK reports whether no constraint was violated.
func (r Report) OK() bool { return len(r.Problems) == 0 }

// Err returns nil for a clean report, otherwise a *ValidationError.
func (r Report) Err() error {
	if r.OK() {
		return nil
	}
	return &ValidationError{Problems: r.Problems}
}

// ValidationError carries every problem found in a deck.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.String())
	}
	return "invalid deck: " + strings.Join(parts, "; ")
}

// Validate checks d against r and collects every problem instead of stopping
// at the first one.
func Validate(d Deck, r Rules) Report {
	var rep Report
	add := func(path, format string, args ...any) {
		rep.Problems = append(rep.Problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	n := len(d.Slides)
	if r.MinSlides > 0 && n < r.MinSlides {
		add("slides", "expected at least %d slides, got %d", r.MinSlides, n)
	}
	if r.MaxSlides > 0 && n > r.MaxSlides {
		add("slides", "expected at most %d slides, got %d", r.MaxSlides, n)
	}

	for i, s := range d.Slides {
		base := fmt.Sprintf("slides[%d]", i)
		if strings.TrimSpace(s.Title) == "" {
			add(base+".title", "title is required")
		}
		if s.Content == nil {
			add(base+".content", "content is required")
		} else {
			if r.MinBullets > 0 && len(s.Content) < r.MinBullets {
				add(base+".content", "expected at least %d bullets, got %d", r.MinBullets, len(s.Content))
			}
			if r.MaxBullets > 0 && len(s.Content) > r.MaxBullets {
				add(base+".content", "expected at most %d bullets, got %d", r.MaxBullets, len(s.Content))
			}
		}
		if r.RequireImage && strings.TrimSpace(s.ImageURL) == "" {
			add(base+".image_url", "image_url is required")
		}
	}
	return rep
}
