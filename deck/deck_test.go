package deck

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anika57/slidecrafter/layout"
)

const sampleJSON = `{
  "slides": [
    {"title": "Intro", "content": ["**Solar** is cheap", "Wind"], "image_url": "https://example.com/a.png"},
    {"title": "Next", "content": []}
  ]
}`

func TestDecode(t *testing.T) {
	d, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)
	require.Len(t, d.Slides, 2)
	assert.Equal(t, "Intro", d.Slides[0].Title)
	assert.Equal(t, []string{"**Solar** is cheap", "Wind"}, d.Slides[0].Content)
	assert.Equal(t, "https://example.com/a.png", d.Slides[0].ImageURL)
	assert.NotNil(t, d.Slides[1].Content)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"title": "x"}`))
	assert.True(t, errors.Is(err, ErrNoSlides))

	_, err = Decode([]byte(`{"slides": null}`))
	assert.True(t, errors.Is(err, ErrNoSlides))

	_, err = Decode([]byte(`{"slides": 3}`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoSlides))

	_, err = Decode([]byte(`not json`))
	require.Error(t, err)
}

func TestRecords(t *testing.T) {
	d := Deck{Slides: []Slide{
		{Title: "a", Content: []string{"x"}, ImageURL: "http://i"},
		{Title: "b"},
	}}
	recs := d.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, layout.SlideRecord{Title: "a", Bullets: []string{"x"}, ImageRef: "http://i"}, recs[0])
	assert.Nil(t, recs[1].Bullets)
	assert.Nil(t, Deck{}.Records())
}

func TestLenient(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []layout.SlideRecord
	}{
		{name: "not json", in: `{{`, want: nil},
		{name: "missing slides", in: `{"foo": 1}`, want: nil},
		{name: "slides not array", in: `{"slides": {"title": "x"}}`, want: nil},
		{name: "top level array", in: `[{"title": "x"}]`, want: nil},
		{
			name: "mixed items",
			in:   `{"slides": [1, {"title": "a", "content": "oops"}, {"title": "b", "content": ["x", 2, "y"], "image_url": 7}]}`,
			want: []layout.SlideRecord{
				{Title: "a"},
				{Title: "b", Bullets: []string{"x", "y"}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Lenient([]byte(tc.in)))
		})
	}
}

func TestLenientFeedsPlacement(t *testing.T) {
	res := layout.Place(Lenient([]byte(`{"slides": "nope"}`)), layout.DefaultConfig())
	assert.Empty(t, res.Slides)

	res = layout.Place(Lenient([]byte(sampleJSON)), layout.DefaultConfig())
	require.Len(t, res.Slides, 2)
	assert.Len(t, res.Slides[1].Commands, 1)
}

func TestJSON(t *testing.T) {
	out, err := Deck{}.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"slides": []}`, out)

	d, err := Decode([]byte(sampleJSON))
	require.NoError(t, err)
	out, err = d.JSON()
	require.NoError(t, err)
	back, err := Decode([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, d, back)
}
