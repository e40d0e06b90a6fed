package description

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"ecomsync/internal/config"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"blank", "  \n ", ""},
		{"plain", "Soft cotton tee", "Soft cotton tee"},
		{"markup", "<p>Soft <strong>cotton</strong> tee</p>", "Soft cotton tee"},
		{"line breaks", "Line one\r\nLine two\nLine three", "Line one Line two Line three"},
		{"collapse", "  lots    of\t\tspace  ", "lots of space"},
		{"script dropped", "<script>alert(1)</script>Safe", "Safe"},
		{"entities decoded", "Fish &amp; Chips", "Fish & Chips"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestCleanTruncatesAtWordBoundary(t *testing.T) {
	in := "<div>" + strings.Repeat("word ", 100) + "</div>"

	got := Clean(in)

	assert.True(t, strings.HasSuffix(got, Ellipsis))
	body := strings.TrimSuffix(got, Ellipsis)
	assert.LessOrEqual(t, utf8.RuneCountInString(body), Width)
	assert.False(t, strings.HasSuffix(body, " "))
	for _, w := range strings.Split(body, " ") {
		assert.Equal(t, "word", w)
	}
}

func TestCleanExactWidthIsNotTruncated(t *testing.T) {
	in := strings.Repeat("a", Width)
	assert.Equal(t, in, Clean(in))
}

func TestCleanCutsOverlongWord(t *testing.T) {
	in := strings.Repeat("é", Width+20) + " tail"

	got := Clean(in)

	assert.Equal(t, strings.Repeat("é", Width)+Ellipsis, got)
}

func TestCleanBoundHoldsForManyInputs(t *testing.T) {
	inputs := []string{
		strings.Repeat("lorem ipsum dolor ", 40),
		strings.Repeat("<b>x</b> ", 500),
		strings.Repeat("abcdefghij", 29) + " " + strings.Repeat("k", 15),
	}
	for _, in := range inputs {
		got := Clean(in)
		body := strings.TrimSuffix(got, Ellipsis)
		assert.LessOrEqual(t, utf8.RuneCountInString(body), Width)
	}
}

func TestSelect(t *testing.T) {
	assert.Equal(t, "long", Select(config.DescriptionFull, "short", "long"))
	assert.Equal(t, "short", Select(config.DescriptionShort, "short", "long"))
	assert.Equal(t, "", Select(config.DescriptionShort, "", "long"))
	assert.Equal(t, "short", Select(config.DescriptionShortWithFallback, "short", "long"))
	assert.Equal(t, "long", Select(config.DescriptionShortWithFallback, " ", "long"))
}
