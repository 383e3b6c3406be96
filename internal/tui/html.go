package tui

import (
	"strings"

	"golang.org/x/net/html"
)

const listBullet = "• "

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "blockquote": true,
}

// StripHTML turns a catalog description into plain terminal text. Block
// elements end a line, list items get a bullet, and script and style bodies
// are dropped. Entities are decoded by the tokenizer.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	var (
		lines []string
		cur   strings.Builder
		skip  int
	)
	flush := func() {
		if line := strings.Join(strings.Fields(cur.String()), " "); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}

	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			flush()
			return strings.Join(lines, "\n")

		case html.TextToken:
			if skip == 0 {
				cur.Write(z.Text())
			}

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				if tt == html.StartTagToken {
					skip++
				}
			case blockTags[tag]:
				flush()
				if tag == "li" {
					cur.WriteString(listBullet)
				}
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			switch {
			case tag == "script" || tag == "style":
				if skip > 0 {
					skip--
				}
			case blockTags[tag]:
				flush()
			}
		}
	}
}

// truncate shortens s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
