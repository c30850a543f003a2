package feed

import (
	"testing"
)

func TestFingerprintDeterministic(t *testing.T) {
	entry := Entry{
		Title: "An Article",
		Link:  "https://example.com/article",
		Body:  "Some body text",
	}

	first := Fingerprint(entry)
	second := Fingerprint(entry)

	if first == "" {
		t.Fatal("Expected a non-empty fingerprint")
	}
	if first != second {
		t.Errorf("Expected repeated calls to produce identical fingerprints, got %s and %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("Expected 64 hex characters, got %d", len(first))
	}
}

func TestFingerprintIgnoresInsignificantDifferences(t *testing.T) {
	base := Entry{
		Title: "An Article",
		Link:  "https://example.com/article",
		Body:  "<p>Hello world</p>",
	}

	variants := []Entry{
		{Title: "An  Article", Link: "https://example.com/article", Body: "<p>Hello world</p>"},
		{Title: "An Article", Link: "https://example.com/article", Body: "<p>\n\tHello   world\n</p>"},
		{Title: "An Article", Link: "https://example.com/article", Body: "<div>Hello world</div>"},
		{Title: "An Article", Link: "https://example.com/article", Body: "Hello world"},
		{Title: "An Article", Link: "https://example.com/article ", Body: "Hello&#32;world"},
	}

	want := Fingerprint(base)
	for i, v := range variants {
		if got := Fingerprint(v); got != want {
			t.Errorf("Variant %d: expected whitespace/markup variance to hash identically", i)
		}
	}
}

func TestFingerprintDistinguishesEditedContent(t *testing.T) {
	base := Entry{
		Title: "An Article",
		Link:  "https://example.com/article",
		Body:  "Original body",
	}

	edited := []Entry{
		{Title: "An Article", Link: "https://example.com/article", Body: "Edited body"},
		{Title: "A Different Title", Link: "https://example.com/article", Body: "Original body"},
		{Title: "An Article", Link: "https://example.com/other", Body: "Original body"},
	}

	want := Fingerprint(base)
	for i, e := range edited {
		if got := Fingerprint(e); got == want {
			t.Errorf("Edit %d: expected a changed fingerprint", i)
		}
	}
}

func TestFingerprintFieldBoundaries(t *testing.T) {
	// Content must not leak across field boundaries
	a := Entry{Title: "ab", Link: "c", Body: "d"}
	b := Entry{Title: "a", Link: "bc", Body: "d"}

	if Fingerprint(a) == Fingerprint(b) {
		t.Error("Expected different field splits to produce different fingerprints")
	}
}

func TestCanonicalText(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"plain text", "plain text"},
		{"  spaced   out  ", "spaced out"},
		{"<p>tagged</p>", "tagged"},
		{"<a href=\"x\">link</a> text", "link text"},
		{"one<br>two", "one two"},
		{"&amp; &lt;ok&gt;", "& <ok>"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := canonicalText(tt.input); got != tt.expected {
			t.Errorf("canonicalText(%q): expected %q, got %q", tt.input, tt.expected, got)
		}
	}
}
