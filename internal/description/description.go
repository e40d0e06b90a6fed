// Package description turns store product descriptions into short plain text.
package description

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"

	"ecomsync/internal/config"
)

const (
	// Width is the column at which cleaned text is cut.
	Width    = 300
	Ellipsis = "..."
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", "\u00a0", " ")

// Clean strips markup from text, collapses whitespace and keeps the first
// Width-column line, appending an ellipsis when more text followed. When a
// step fails the best result produced so far is returned.
func Clean(text string) (out string) {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	out = text
	defer func() {
		// out holds the last completed stage
		recover()
	}()

	plain, err := stripTags(lineBreaks.Replace(text))
	if err != nil {
		return text
	}
	plain = strings.Join(strings.Fields(lineBreaks.Replace(plain)), " ")
	out = plain

	first, truncated := firstLine(plain, Width)
	if truncated {
		first += Ellipsis
	}
	out = first
	return out
}

// Select picks the description to sync according to the configured source.
func Select(source config.DescriptionSource, short, long string) string {
	switch source {
	case config.DescriptionFull:
		return long
	case config.DescriptionShort:
		return short
	default:
		if strings.TrimSpace(short) != "" {
			return short
		}
		return long
	}
}

// stripTags drops every tag and the contents of script and style elements.
func stripTags(s string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return b.String(), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			if isRawText(z) {
				skip++
			}
		case html.EndTagToken:
			if isRawText(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawText(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// firstLine word-wraps s at width runes and returns the first line. Words
// longer than width are cut so the line never exceeds it.
func firstLine(s string, width int) (string, bool) {
	if len([]rune(s)) <= width {
		return s, false
	}

	var line []rune
	for _, word := range strings.Split(s, " ") {
		w := []rune(word)
		if len(line) == 0 {
			if len(w) > width {
				return string(w[:width]), true
			}
			line = append(line, w...)
			continue
		}
		if len(line)+1+len(w) > width {
			return string(line), true
		}
		line = append(line, ' ')
		line = append(line, w...)
	}
	return string(line), false
}
