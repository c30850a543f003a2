package database

import (
	"time"
)

// Website represents a registered website whose feeds are discovered and polled
type Website struct {
	ID           string // Database UUID
	URL          string // Root URL used for feed discovery
	Name         string
	Active       bool
	DiscoveredAt *time.Time // Last time feed discovery ran for this website
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Feed represents a discovered, validated feed or sitemap endpoint
type Feed struct {
	ID            string // Database UUID
	WebsiteID     string
	URL           string
	Kind          string // rss, atom or sitemap
	Title         string
	Active        bool
	ErrorCount    int    // Consecutive non-success fetch outcomes
	ETag          string // From the last successful response, for conditional GET
	LastModified  string // From the last successful response, for conditional GET
	LastFetchedAt *time.Time
	LastSuccessAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Article represents a deduplicated entry fetched from a feed.
// Articles are immutable after insert except for extraction fields.
type Article struct {
	ID               string // Database UUID
	FeedID           string
	URL              string
	Title            string
	Content          string
	Fingerprint      string     // Content hash, unique within a feed
	PublishedAt      *time.Time // Nullable: not all entries carry a date
	FirstSeenAt      time.Time
	ExtractionStatus string // pending, success, failed, skipped
	ExtractedAt      *time.Time
}

// FetchLog records the outcome of one fetch attempt for one feed. Append-only.
type FetchLog struct {
	ID          string // Database UUID
	FeedID      string
	AttemptedAt time.Time
	Outcome     string // success, http_error, parse_error, timeout
	NewArticles int
	ErrorDetail string
}

// FetchState carries the per-fetch feed bookkeeping written after every attempt
type FetchState struct {
	LastFetchedAt time.Time
	LastSuccessAt *time.Time
	ErrorCount    int
	Active        bool
	ETag          string
	LastModified  string
}
