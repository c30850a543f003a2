package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/feedscout/feedscout/app/database"
)

// Fetcher downloads feeds, deduplicates their entries by fingerprint and
// records exactly one fetch log per attempt. All fetch failures are captured
// as outcomes; only storage failures are returned as errors.
type Fetcher struct {
	client      *http.Client
	parser      *Parser
	feeds       database.FeedRepository
	articles    database.ArticleRepository
	logs        database.FetchLogRepository
	health      *HealthTracker
	userAgent   string
	timeout     time.Duration
	maxBodySize int64

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewFetcher(client *http.Client, parser *Parser, feeds database.FeedRepository,
	articles database.ArticleRepository, logs database.FetchLogRepository,
	health *HealthTracker, userAgent string, timeout time.Duration, maxBodySize int64) *Fetcher {
	return &Fetcher{
		client:      client,
		parser:      parser,
		feeds:       feeds,
		articles:    articles,
		logs:        logs,
		health:      health,
		userAgent:   userAgent,
		timeout:     timeout,
		maxBodySize: maxBodySize,
		inFlight:    make(map[string]struct{}),
	}
}

// FetchFeed fetches one feed, stores its new articles and appends a fetch
// log entry. Overlapping fetches of the same feed are not allowed: when one
// is already in flight, the call defers to it and returns Skipped without
// touching the store.
func (f *Fetcher) FetchFeed(ctx context.Context, feed database.Feed) (FetchResult, error) {
	if !f.begin(feed.ID) {
		slog.Debug("Fetch already in flight, deferring", "feed", feed.URL)
		return FetchResult{Skipped: true}, nil
	}
	defer f.end(feed.ID)

	started := time.Now()

	result, etag, lastModified, err := f.attempt(ctx, feed)
	if err != nil {
		// Storage failure: nothing useful can be recorded
		return result, err
	}

	if err := f.finalize(feed, result, etag, lastModified); err != nil {
		return result, err
	}

	slog.Info("Feed fetched",
		"feed", feed.URL,
		"outcome", string(result.Outcome),
		"new", result.NewArticles,
		"duration", time.Since(started).String())

	return result, nil
}

// BatchItem is one feed's result within a batch fetch.
type BatchItem struct {
	FeedID  string      `json:"feed_id"`
	FeedURL string      `json:"feed_url"`
	Result  FetchResult `json:"result"`
	Error   string      `json:"error,omitempty"`
}

// FetchBatch fetches each feed as its own unit of work. A failure in one
// feed, storage failures included, never aborts the others.
func (f *Fetcher) FetchBatch(ctx context.Context, feeds []database.Feed) []BatchItem {
	items := make([]BatchItem, 0, len(feeds))

	for _, feed := range feeds {
		item := BatchItem{FeedID: feed.ID, FeedURL: feed.URL}

		result, err := f.FetchFeed(ctx, feed)
		item.Result = result
		if err != nil {
			item.Error = err.Error()
		}

		items = append(items, item)
	}

	return items
}

// attempt performs the network fetch, parse and article insertion. The
// returned error is non-nil only for storage failures.
func (f *Fetcher) attempt(ctx context.Context, feed database.Feed) (FetchResult, string, string, error) {
	body, resp, err := f.download(ctx, feed)
	if err != nil {
		return FetchResult{Outcome: classifyFetchError(err), ErrorDetail: err.Error()},
			feed.ETag, feed.LastModified, nil
	}

	if resp.StatusCode == http.StatusNotModified {
		return FetchResult{Outcome: OutcomeSuccess, NotModified: true},
			feed.ETag, feed.LastModified, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := fmt.Sprintf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		return FetchResult{Outcome: OutcomeHTTPError, ErrorDetail: detail},
			feed.ETag, feed.LastModified, nil
	}

	etag := resp.Header.Get("ETag")
	lastModified := resp.Header.Get("Last-Modified")

	// Sitemaps are discovery aids: confirm they still parse, but they
	// never yield articles.
	if feed.Kind == string(KindSitemap) {
		if _, err := ParseSitemap(body); err != nil {
			return FetchResult{Outcome: OutcomeParseError, ErrorDetail: err.Error()},
				etag, lastModified, nil
		}
		return FetchResult{Outcome: OutcomeSuccess}, etag, lastModified, nil
	}

	entries, _, err := f.parser.Parse(body, Kind(feed.Kind))
	if err != nil {
		return FetchResult{Outcome: OutcomeParseError, ErrorDetail: err.Error()},
			etag, lastModified, nil
	}

	newCount, err := f.storeNewEntries(feed, entries)
	if err != nil {
		return FetchResult{}, etag, lastModified, err
	}

	return FetchResult{Outcome: OutcomeSuccess, NewArticles: newCount}, etag, lastModified, nil
}

// storeNewEntries inserts entries whose fingerprint is not yet known for this
// feed, preserving the order they appeared in the feed.
func (f *Fetcher) storeNewEntries(feed database.Feed, entries []Entry) (int, error) {
	newCount := 0

	for _, entry := range entries {
		fingerprint := Fingerprint(entry)

		existing, err := f.articles.FindByFingerprint(feed.ID, fingerprint)
		if err != nil {
			return newCount, fmt.Errorf("failed to check for duplicate: %w", err)
		}
		if existing != nil {
			continue
		}

		article := database.Article{
			FeedID:           feed.ID,
			URL:              entry.Link,
			Title:            entry.Title,
			Content:          entry.Body,
			Fingerprint:      fingerprint,
			PublishedAt:      entry.Published,
			ExtractionStatus: "pending",
		}

		if _, err := f.articles.InsertArticle(article); err != nil {
			return newCount, fmt.Errorf("failed to insert article: %w", err)
		}
		newCount++
	}

	return newCount, nil
}

// finalize appends the fetch log and rolls the feed's health state forward.
func (f *Fetcher) finalize(feed database.Feed, result FetchResult, etag, lastModified string) error {
	_, err := f.logs.AppendFetchLog(database.FetchLog{
		FeedID:      feed.ID,
		Outcome:     string(result.Outcome),
		NewArticles: result.NewArticles,
		ErrorDetail: result.ErrorDetail,
	})
	if err != nil {
		return fmt.Errorf("failed to append fetch log: %w", err)
	}

	errorCount, state := f.health.Observe(feed.ErrorCount, result.Outcome)

	now := time.Now().UTC()
	fetchState := database.FetchState{
		LastFetchedAt: now,
		LastSuccessAt: feed.LastSuccessAt,
		ErrorCount:    errorCount,
		Active:        feed.Active,
		ETag:          etag,
		LastModified:  lastModified,
	}
	if result.Outcome == OutcomeSuccess {
		fetchState.LastSuccessAt = &now
	}
	if state == HealthInactive && feed.Active {
		fetchState.Active = false
		slog.Warn("Feed deactivated after consecutive errors",
			"feed", feed.URL, "error_count", errorCount)
	}

	if err := f.feeds.UpdateFetchState(feed.ID, fetchState); err != nil {
		return fmt.Errorf("failed to update feed fetch state: %w", err)
	}

	return nil
}

func (f *Fetcher) download(ctx context.Context, feed database.Feed) ([]byte, *http.Response, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	if feed.ETag != "" {
		req.Header.Set("If-None-Match", feed.ETag)
	}
	if feed.LastModified != "" {
		req.Header.Set("If-Modified-Since", feed.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, resp, err
	}

	return body, resp, nil
}

// classifyFetchError separates timeouts from other network failures.
func classifyFetchError(err error) Outcome {
	if errors.Is(err, context.DeadlineExceeded) {
		return OutcomeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTimeout
	}

	return OutcomeHTTPError
}

// begin claims the per-feed fetch slot; false means a fetch is in flight.
func (f *Fetcher) begin(feedID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, busy := f.inFlight[feedID]; busy {
		return false
	}
	f.inFlight[feedID] = struct{}{}
	return true
}

func (f *Fetcher) end(feedID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.inFlight, feedID)
}
