package feed

import (
	"errors"
	"time"
)

// Kind identifies what a validated endpoint actually serves.
type Kind string

const (
	KindRSS     Kind = "rss"
	KindAtom    Kind = "atom"
	KindSitemap Kind = "sitemap"
)

// Confidence is the trust level a discovery strategy assigns to a candidate:
// high means the site explicitly advertised the URL, medium means it was a
// heuristic path guess that happened to respond.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
)

// Candidate is a URL proposed by a discovery strategy and confirmed by a
// validating parse.
type Candidate struct {
	URL        string     `json:"url"`
	Kind       Kind       `json:"kind"`
	Confidence Confidence `json:"confidence"`
}

// Entry is one normalized feed entry. Published and GUID stay absent when the
// feed carries none; they are never defaulted, since fingerprinting must not
// conflate "no timestamp" with a zero timestamp.
type Entry struct {
	Title     string
	Link      string
	GUID      string
	Published *time.Time
	Body      string
}

// Outcome classifies one fetch attempt for the fetch log.
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeHTTPError  Outcome = "http_error"
	OutcomeParseError Outcome = "parse_error"
	OutcomeTimeout    Outcome = "timeout"
)

// FetchResult summarizes one feed fetch. All failure modes are captured here
// rather than raised; only storage failures surface as errors.
type FetchResult struct {
	Outcome     Outcome `json:"outcome"`
	NewArticles int     `json:"new_articles"`
	ErrorDetail string  `json:"error_detail,omitempty"`
	NotModified bool    `json:"not_modified,omitempty"`
	// Skipped is true when another fetch of the same feed was already in
	// flight and this invocation deferred to it. No fetch log is written.
	Skipped bool `json:"skipped,omitempty"`
}

var (
	// ErrSiteUnreachable means the website root itself could not be fetched,
	// so discovery produced nothing at all.
	ErrSiteUnreachable = errors.New("site unreachable")

	// ErrUnrecognizedFormat means the bytes parse as neither RSS, Atom nor sitemap.
	ErrUnrecognizedFormat = errors.New("unrecognized feed format")
)
