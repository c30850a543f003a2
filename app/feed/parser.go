package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"
)

type Parser struct {
	gofeedParser *gofeed.Parser
}

func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// DetectKind inspects the XML root element to classify the document:
// <rss>/<channel> is RSS, <feed> is Atom, <urlset>/<sitemapindex> is a
// sitemap. This is the validating check discovery relies on, so it reads
// only as far as the first start element.
func DetectKind(data []byte) (Kind, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	// Only the root tag name matters here, which is ASCII in every
	// encoding a feed realistically declares.
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return "", ErrUnrecognizedFormat
		}

		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		switch strings.ToLower(se.Name.Local) {
		case "rss", "channel", "rdf":
			return KindRSS, nil
		case "feed":
			return KindAtom, nil
		case "urlset", "sitemapindex":
			return KindSitemap, nil
		default:
			return "", ErrUnrecognizedFormat
		}
	}
}

// Parse normalizes RSS 2.0 or Atom bytes into entries. The hint is an
// optimization only: the schema is always selected by root-element
// inspection, and a mismatching hint is logged and ignored.
func (p *Parser) Parse(data []byte, hint Kind) ([]Entry, Kind, error) {
	kind, err := DetectKind(data)
	if err != nil {
		return nil, "", err
	}

	if hint != "" && hint != kind {
		slog.Debug("Feed kind hint mismatch", "hint", hint, "detected", kind)
	}

	if kind == KindSitemap {
		return nil, kind, fmt.Errorf("%w: sitemaps carry no entries", ErrUnrecognizedFormat)
	}

	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, kind, fmt.Errorf("%w: %s", ErrUnrecognizedFormat, err)
	}

	entries := make([]Entry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		entries = append(entries, normalizeItem(item))
	}

	return entries, kind, nil
}

func normalizeItem(item *gofeed.Item) Entry {
	entry := Entry{
		Title: item.Title,
		Link:  item.Link,
		GUID:  item.GUID,
	}

	// Prefer full content, fall back to the summary
	if item.Content != "" {
		entry.Body = item.Content
	} else {
		entry.Body = item.Description
	}

	if item.PublishedParsed != nil {
		entry.Published = item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		entry.Published = item.UpdatedParsed
	}

	return entry
}

// Sitemap XML structures per https://www.sitemaps.org/protocol.html

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapLoc `xml:"url"`
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// ParseSitemap extracts the content URLs listed in a standard sitemap.
func ParseSitemap(data []byte) ([]string, error) {
	var urlset sitemapURLSet
	if err := xml.Unmarshal(data, &urlset); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedFormat, err)
	}

	urls := make([]string, 0, len(urlset.URLs))
	for _, u := range urlset.URLs {
		if loc := strings.TrimSpace(u.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}

	return urls, nil
}

// ParseSitemapIndex extracts child sitemap URLs from a sitemap index.
// A plain <urlset> sitemap is not an index and returns an error; callers
// probing a sitemap candidate treat that as "no children".
func ParseSitemapIndex(data []byte) ([]string, error) {
	var index sitemapIndex
	if err := xml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnrecognizedFormat, err)
	}

	urls := make([]string, 0, len(index.Sitemaps))
	for _, s := range index.Sitemaps {
		if loc := strings.TrimSpace(s.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}

	return urls, nil
}
