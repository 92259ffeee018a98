package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:;,]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	documentParser = participle.MustBuild[Document](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Document is the root AST node of an outline file.
type Document struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Title   StringLiteral  `parser:"Newline* 'deck' @String"`
	Entries []*Entry       `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Entry is either a slide block or a deck-level property (author, subject...).
type Entry struct {
	Slide    *SlideBlock `parser:"  @@"`
	Property *Property   `parser:"| @@"`
}

// SlideBlock describes one slide.
type SlideBlock struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Title StringLiteral  `parser:"'slide' @String"`
	Items []*Item        `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}'"`
}

// Item inside a slide: a bullet string or a property such as image.
type Item struct {
	Property *Property      `parser:"  @@"`
	Bullet   *StringLiteral `parser:"| @String"`
}

// Property uses colon syntax (key: "value").
type Property struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value StringLiteral  `parser:"':' Newline* @String"`
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses an outline from an io.Reader.
func Parse(r io.Reader) (*Document, error) {
	return documentParser.Parse("", r)
}

// ParseString parses an outline from a string.
func ParseString(input string) (*Document, error) {
	return documentParser.ParseString("", input)
}

// Slides returns the slide blocks in source order.
func (d *Document) Slides() []*SlideBlock {
	if d == nil {
		return nil
	}
	var out []*SlideBlock
	for _, e := range d.Entries {
		if e.Slide != nil {
			out = append(out, e.Slide)
		}
	}
	return out
}

// Properties returns the deck-level properties in source order.
func (d *Document) Properties() []*Property {
	if d == nil {
		return nil
	}
	var out []*Property
	for _, e := range d.Entries {
		if e.Property != nil {
			out = append(out, e.Property)
		}
	}
	return out
}
