package tui

import "testing"

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"plain text", "Hello World", "Hello World"},
		{"simple paragraph", "<p>Hello World</p>", "Hello World"},
		{"multiple paragraphs", "<p>First</p><p>Second</p>", "First\nSecond"},
		{"inline tags", "<p>This is <strong>bold</strong> and <em>italic</em></p>", "This is bold and italic"},
		{"list items get bullets", "<ul><li>Item 1</li><li>Item 2</li></ul>", "• Item 1\n• Item 2"},
		{"line breaks", "Line 1<br>Line 2<br/>Line 3", "Line 1\nLine 2\nLine 3"},
		{"entities", "<p>Fish &amp; Chips &lt;3</p>", "Fish & Chips <3"},
		{"non-breaking space", "100&nbsp;g", "100 g"},
		{"collapses whitespace", "<p>  lots   of\n\n space </p>", "lots of space"},
		{"drops script", "<p>Hi</p><script>alert('x')</script><p>There</p>", "Hi\nThere"},
		{"drops style", "<style>p { color: red }</style>Body", "Body"},
		{"headings", "<h2>Tasting notes</h2><p>Cherry, cocoa</p>", "Tasting notes\nCherry, cocoa"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.input); got != tt.expected {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"Ethiopia Guji", 8, "Ethiopi…"},
		{"Äthiopien", 4, "Äth…"},
		{"abc", 1, "…"},
		{"abc", 0, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.input, tt.width); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
	}
}
