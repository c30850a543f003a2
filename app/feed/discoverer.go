package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// wellKnownFeedPaths are common feed locations probed when a site does not
// (or not fully) advertise its feeds in HTML.
var wellKnownFeedPaths = []string{
	"/rss",
	"/rss.xml",
	"/feed",
	"/feed.xml",
	"/feeds",
	"/atom",
	"/atom.xml",
	"/index.rss",
	"/index.xml",
	"/blog/rss",
	"/blog/feed",
	"/news/rss",
	"/news/feed",
	"/sitemap.xml",
	"/sitemap_index.xml",
	"/sitemaps.xml",
}

// feedLinkTypes are the media types accepted on <link rel="alternate"> tags.
var feedLinkTypes = []string{
	"application/rss+xml",
	"application/atom+xml",
	"application/rdf+xml",
	"text/xml",
}

// validationPrefixSize bounds how much of a candidate body is read for the
// validating parse; the root element identity fits comfortably in this.
const validationPrefixSize = 64 * 1024

// maxSitemapIndexDepth caps recursion through nested sitemap indexes.
const maxSitemapIndexDepth = 2

// Discoverer finds candidate feed and sitemap URLs for a website by scanning
// its HTML, probing well-known paths and reading robots.txt, then validates
// every candidate with a parse before reporting it.
type Discoverer struct {
	client           *http.Client
	userAgent        string
	timeout          time.Duration
	maxBodySize      int64
	probeConcurrency int
}

func NewDiscoverer(client *http.Client, userAgent string, timeout time.Duration,
	maxBodySize int64, probeConcurrency int) *Discoverer {
	if probeConcurrency < 1 {
		probeConcurrency = 1
	}
	return &Discoverer{
		client:           client,
		userAgent:        userAgent,
		timeout:          timeout,
		maxBodySize:      maxBodySize,
		probeConcurrency: probeConcurrency,
	}
}

// Discover runs all discovery strategies against a website root URL and
// returns the validated candidates. Strategies accumulate: a site may expose
// several feeds, so no strategy short-circuits the others. Individual
// candidate failures are dropped silently; only an unreachable root fails the
// whole discovery, wrapping ErrSiteUnreachable.
func (d *Discoverer) Discover(ctx context.Context, rootURL string) ([]Candidate, error) {
	base, err := url.Parse(rootURL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid root URL %q", ErrSiteUnreachable, rootURL)
	}

	body, _, err := d.get(ctx, rootURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSiteUnreachable, err)
	}

	set := newCandidateSet()

	// Strategy 1: feeds the site explicitly advertises in its HTML head
	for _, href := range extractFeedLinks(base, body) {
		set.add(href, ConfidenceHigh)
	}

	// Strategy 2: sitemaps declared in robots.txt
	for _, loc := range d.robotsSitemaps(ctx, base) {
		set.add(loc, ConfidenceMedium)
	}

	// Strategy 3: well-known path guesses, probed concurrently
	for _, probed := range d.probeWellKnownPaths(ctx, base) {
		set.add(probed, ConfidenceMedium)
	}

	candidates := d.validateAll(ctx, set)

	slog.Debug("Discovery finished",
		"root", rootURL,
		"raw_candidates", set.len(),
		"validated", len(candidates))

	return candidates, nil
}

// extractFeedLinks scans <link rel="alternate"> elements for feed media types
// and resolves their hrefs against the page URL.
func extractFeedLinks(base *url.URL, body []byte) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil
	}

	var links []string
	doc.Find(`link[rel="alternate"]`).Each(func(_ int, s *goquery.Selection) {
		linkType, _ := s.Attr("type")
		if !isFeedLinkType(linkType) {
			return
		}

		href, exists := s.Attr("href")
		if !exists || href == "" {
			return
		}

		if resolved := resolveURL(base, href); resolved != "" {
			links = append(links, resolved)
		}
	})

	return links
}

func isFeedLinkType(linkType string) bool {
	linkType = strings.ToLower(strings.TrimSpace(linkType))
	for _, t := range feedLinkTypes {
		if strings.HasPrefix(linkType, t) {
			return true
		}
	}
	return false
}

// robotsSitemaps reads /robots.txt and returns any Sitemap: declarations.
func (d *Discoverer) robotsSitemaps(ctx context.Context, base *url.URL) []string {
	robotsURL := resolveURL(base, "/robots.txt")
	body, status, err := d.get(ctx, robotsURL)
	if err != nil || status != http.StatusOK {
		return nil
	}

	var sitemaps []string
	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if len(line) < len("sitemap:") || !strings.EqualFold(line[:len("sitemap:")], "sitemap:") {
			continue
		}

		loc := strings.TrimSpace(line[len("sitemap:"):])
		if loc == "" {
			continue
		}
		if !strings.HasPrefix(loc, "http://") && !strings.HasPrefix(loc, "https://") {
			loc = resolveURL(base, loc)
		}
		if loc != "" {
			sitemaps = append(sitemaps, loc)
		}
	}

	return sitemaps
}

// probeWellKnownPaths issues lightweight HEAD requests against the well-known
// paths with bounded parallelism. Results are returned in path order so
// discovery output stays deterministic.
func (d *Discoverer) probeWellKnownPaths(ctx context.Context, base *url.URL) []string {
	hits := make([]bool, len(wellKnownFeedPaths))

	jobs := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < d.probeConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				candidate := resolveURL(base, wellKnownFeedPaths[idx])
				if candidate == "" {
					continue
				}
				hits[idx] = d.head(ctx, candidate)
			}
		}()
	}

	for idx := range wellKnownFeedPaths {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	var found []string
	for idx, hit := range hits {
		if hit {
			found = append(found, resolveURL(base, wellKnownFeedPaths[idx]))
		}
	}

	return found
}

// validateAll attempts a validating parse on every accumulated candidate.
// Candidates that do not parse as RSS, Atom or sitemap are dropped; sitemap
// indexes additionally surface their child sitemaps as candidates.
func (d *Discoverer) validateAll(ctx context.Context, set *candidateSet) []Candidate {
	var validated []Candidate

	pending := set.ordered()
	seen := make(map[string]bool, len(pending))

	depth := 0
	for len(pending) > 0 && depth <= maxSitemapIndexDepth {
		var children []Candidate

		for _, c := range pending {
			key := normalizeURL(c.URL)
			if seen[key] {
				continue
			}
			seen[key] = true

			kind, body, ok := d.validate(ctx, c.URL)
			if !ok {
				slog.Debug("Discovery candidate failed validation", "url", c.URL)
				continue
			}

			validated = append(validated, Candidate{URL: c.URL, Kind: kind, Confidence: c.Confidence})

			// A sitemap index is only a pointer to more sitemaps
			if kind == KindSitemap {
				if locs, err := ParseSitemapIndex(body); err == nil {
					for _, loc := range locs {
						children = append(children, Candidate{URL: loc, Confidence: c.Confidence})
					}
				}
			}
		}

		pending = children
		depth++
	}

	return validated
}

// validate fetches a bounded prefix of the candidate body and confirms its
// root element identifies a recognized format.
func (d *Discoverer) validate(ctx context.Context, candidateURL string) (Kind, []byte, bool) {
	body, status, err := d.get(ctx, candidateURL)
	if err != nil || status != http.StatusOK {
		return "", nil, false
	}

	prefix := body
	if len(prefix) > validationPrefixSize {
		prefix = prefix[:validationPrefixSize]
	}

	kind, err := DetectKind(prefix)
	if err != nil {
		return "", nil, false
	}

	return kind, body, true
}

func (d *Discoverer) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return body, resp.StatusCode, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return body, resp.StatusCode, nil
}

// head reports whether a HEAD request to the URL succeeds. Some servers
// reject HEAD outright, so 405 falls back to a GET.
func (d *Discoverer) head(ctx context.Context, rawURL string) bool {
	timeoutCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return false
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	resp.Body.Close()

	if resp.StatusCode == http.StatusMethodNotAllowed {
		_, status, _ := d.get(ctx, rawURL)
		return status == http.StatusOK
	}

	return resp.StatusCode == http.StatusOK
}

func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// normalizeURL produces the deduplication key for candidates: scheme and
// host lowercased, default ports removed, trailing slash stripped.
func normalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	if (u.Scheme == "http" && strings.HasSuffix(host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(host, ":443")) {
		host = host[:strings.LastIndex(host, ":")]
	}
	u.Host = host
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.Fragment = ""

	return u.String()
}

// candidateSet accumulates candidates across strategies, deduplicating by
// normalized URL and keeping the highest confidence seen for each.
type candidateSet struct {
	order []string
	byKey map[string]Candidate
}

func newCandidateSet() *candidateSet {
	return &candidateSet{byKey: make(map[string]Candidate)}
}

func (s *candidateSet) add(rawURL string, confidence Confidence) {
	key := normalizeURL(rawURL)

	existing, ok := s.byKey[key]
	if !ok {
		s.order = append(s.order, key)
		s.byKey[key] = Candidate{URL: rawURL, Confidence: confidence}
		return
	}

	// High beats medium; first URL spelling wins otherwise
	if existing.Confidence == ConfidenceMedium && confidence == ConfidenceHigh {
		existing.Confidence = ConfidenceHigh
		s.byKey[key] = existing
	}
}

func (s *candidateSet) ordered() []Candidate {
	out := make([]Candidate, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key])
	}
	return out
}

func (s *candidateSet) len() int {
	return len(s.byKey)
}
