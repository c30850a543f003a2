package feed

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

// ContentExtractor pulls the main article text out of a fetched web page,
// for entries whose feed carried only a stub summary.
type ContentExtractor struct{}

func NewContentExtractor() *ContentExtractor {
	return &ContentExtractor{}
}

func (e *ContentExtractor) Run(data []byte, pageURL string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("HTML data is empty")
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(data), parsedURL)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}

	if article.Content == "" {
		return "", fmt.Errorf("no content extracted from HTML data")
	}

	slog.Debug("Content extracted successfully",
		"url", pageURL,
		"title", article.Title,
		"content_length", len(article.Content))

	return article.Content, nil
}
