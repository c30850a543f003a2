package feed

import (
	"crypto/sha256"
	"encoding/hex"
	"html"
	"strings"
)

// Fingerprint computes the deduplication digest for an entry: sha256 over a
// canonical form of title, link and body. Canonicalization strips markup and
// whitespace variance so two serializations of the same entry hash
// identically, while any real edit to the body produces a new fingerprint.
func Fingerprint(entry Entry) string {
	canonical := canonicalText(entry.Title) + "\x00" +
		strings.TrimSpace(entry.Link) + "\x00" +
		canonicalText(entry.Body)

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// canonicalText reduces HTML-ish text to its significant content: tags
// removed, entities decoded, runs of whitespace collapsed to single spaces.
func canonicalText(s string) string {
	s = stripTags(s)
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

// stripTags removes anything between < and >, replacing each tag with a
// space so adjacent words do not fuse together.
func stripTags(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteRune(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	return b.String()
}
