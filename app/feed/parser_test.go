package feed

import (
	"errors"
	"testing"
)

const rssTwoItems = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <link>https://example.com</link>
    <description>Test Description</description>
    <item>
      <title>Test Item 1</title>
      <link>https://example.com/item1</link>
      <description>Test Item 1 Description</description>
      <guid>item-1</guid>
      <pubDate>Mon, 03 Jul 2023 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Test Item 2</title>
      <link>https://example.com/item2</link>
      <description>Test Item 2 Description</description>
      <guid>item-2</guid>
      <pubDate>Mon, 03 Jul 2023 11:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestParseRSS2(t *testing.T) {
	parser := NewParser()
	entries, kind, err := parser.Parse([]byte(rssTwoItems), "")
	if err != nil {
		t.Fatal(err)
	}

	if kind != KindRSS {
		t.Errorf("Expected kind rss, got %s", kind)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Title != "Test Item 1" {
		t.Errorf("Expected title 'Test Item 1', got '%s'", entry.Title)
	}
	if entry.Link != "https://example.com/item1" {
		t.Errorf("Expected link 'https://example.com/item1', got '%s'", entry.Link)
	}
	if entry.GUID != "item-1" {
		t.Errorf("Expected GUID 'item-1', got '%s'", entry.GUID)
	}
	if entry.Body != "Test Item 1 Description" {
		t.Errorf("Expected body from description, got '%s'", entry.Body)
	}
	if entry.Published == nil {
		t.Error("Expected published timestamp to be set")
	}
}

func TestParseAtom(t *testing.T) {
	atomData := `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Test Atom Feed</title>
  <link href="https://example.com"/>
  <id>https://example.com/feed</id>
  <updated>2023-07-03T12:00:00Z</updated>
  <entry>
    <title>Atom Entry 1</title>
    <link href="https://example.com/atom1"/>
    <id>atom-1</id>
    <updated>2023-07-03T10:00:00Z</updated>
    <published>2023-07-03T10:00:00Z</published>
    <summary>Atom Entry 1 Summary</summary>
    <content type="html">Atom Entry 1 Content</content>
  </entry>
</feed>`

	parser := NewParser()
	entries, kind, err := parser.Parse([]byte(atomData), "")
	if err != nil {
		t.Fatal(err)
	}

	if kind != KindAtom {
		t.Errorf("Expected kind atom, got %s", kind)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Title != "Atom Entry 1" {
		t.Errorf("Expected title 'Atom Entry 1', got '%s'", entry.Title)
	}
	if entry.Body != "Atom Entry 1 Content" {
		t.Errorf("Expected full content to win over summary, got '%s'", entry.Body)
	}
	if entry.GUID != "atom-1" {
		t.Errorf("Expected GUID 'atom-1', got '%s'", entry.GUID)
	}
	if entry.Published == nil {
		t.Error("Expected published timestamp to be set")
	}
}

func TestParseMissingOptionalFields(t *testing.T) {
	rssData := `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Sparse Feed</title>
    <item>
      <title>No Date No GUID</title>
      <link>https://example.com/sparse</link>
      <description>Body</description>
    </item>
  </channel>
</rss>`

	parser := NewParser()
	entries, _, err := parser.Parse([]byte(rssData), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}

	// Absent fields stay absent, never defaulted
	if entries[0].Published != nil {
		t.Errorf("Expected nil published for entry without a date, got %v", entries[0].Published)
	}
	if entries[0].GUID != "" {
		t.Errorf("Expected empty GUID for entry without one, got '%s'", entries[0].GUID)
	}
}

func TestParseHintIsNotAuthoritative(t *testing.T) {
	parser := NewParser()

	// A wrong hint must not change the detected schema
	entries, kind, err := parser.Parse([]byte(rssTwoItems), KindAtom)
	if err != nil {
		t.Fatal(err)
	}
	if kind != KindRSS {
		t.Errorf("Expected detection to override the hint, got kind %s", kind)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(entries))
	}
}

func TestParseUnrecognizedFormat(t *testing.T) {
	parser := NewParser()

	inputs := [][]byte{
		[]byte("<html><body>not a feed</body></html>"),
		[]byte("plain text"),
		[]byte(""),
	}

	for _, input := range inputs {
		if _, _, err := parser.Parse(input, ""); !errors.Is(err, ErrUnrecognizedFormat) {
			t.Errorf("Expected ErrUnrecognizedFormat for %q, got %v", input, err)
		}
	}
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		data string
		kind Kind
		ok   bool
	}{
		{"rss", `<?xml version="1.0"?><rss version="2.0"><channel></channel></rss>`, KindRSS, true},
		{"atom", `<feed xmlns="http://www.w3.org/2005/Atom"></feed>`, KindAtom, true},
		{"sitemap", `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></urlset>`, KindSitemap, true},
		{"sitemap index", `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></sitemapindex>`, KindSitemap, true},
		{"declared legacy encoding", `<?xml version="1.0" encoding="windows-1251"?><rss></rss>`, KindRSS, true},
		{"html", `<html><head></head></html>`, "", false},
		{"empty", ``, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := DetectKind([]byte(tt.data))
			if tt.ok && err != nil {
				t.Fatalf("Expected kind %s, got error %v", tt.kind, err)
			}
			if !tt.ok && err == nil {
				t.Fatalf("Expected error, got kind %s", kind)
			}
			if tt.ok && kind != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, kind)
			}
		})
	}
}

func TestParseSitemap(t *testing.T) {
	sitemapData := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/page1</loc></url>
  <url><loc> https://example.com/page2 </loc></url>
  <url><loc></loc></url>
</urlset>`

	urls, err := ParseSitemap([]byte(sitemapData))
	if err != nil {
		t.Fatal(err)
	}

	if len(urls) != 2 {
		t.Fatalf("Expected 2 URLs, got %d", len(urls))
	}
	if urls[0] != "https://example.com/page1" {
		t.Errorf("Expected first URL 'https://example.com/page1', got '%s'", urls[0])
	}
	if urls[1] != "https://example.com/page2" {
		t.Errorf("Expected trimmed second URL, got '%s'", urls[1])
	}
}

func TestParseSitemapIndex(t *testing.T) {
	indexData := `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://example.com/sitemap-posts.xml</loc></sitemap>
  <sitemap><loc>https://example.com/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`

	urls, err := ParseSitemapIndex([]byte(indexData))
	if err != nil {
		t.Fatal(err)
	}

	if len(urls) != 2 {
		t.Fatalf("Expected 2 child sitemaps, got %d", len(urls))
	}

	// A plain sitemap is not an index
	plainSitemap := `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></urlset>`
	if _, err := ParseSitemapIndex([]byte(plainSitemap)); err == nil {
		t.Error("Expected an error when parsing a plain sitemap as an index")
	}
}
