package database

type WebsiteRepository interface {
	CreateWebsite(url, name string, active bool) (string, error)
	GetWebsite(id string) (*Website, error)
	GetWebsiteByURL(url string) (*Website, error)
	ListWebsites() ([]Website, error)
	ListActiveWebsites() ([]Website, error)
	SetWebsiteActive(id string, active bool) error
	MarkDiscovered(id string) error
	GetWebsiteCount() (int, error)
}

type FeedRepository interface {
	// CreateFeed inserts a feed unless one with the same URL already exists
	// for the website. Returns the feed id and whether a row was created.
	CreateFeed(websiteID, url, kind, title string) (string, bool, error)
	GetFeed(id string) (*Feed, error)
	GetFeedByURL(websiteID, url string) (*Feed, error)
	// ListFeeds returns all feeds, optionally scoped to one website ("" for all).
	ListFeeds(websiteID string) ([]Feed, error)
	// ListActiveFeeds returns active syndication feeds (rss/atom) eligible for
	// content polling. Sitemaps are discovery aids and are excluded here.
	ListActiveFeeds(websiteID string) ([]Feed, error)
	SetFeedActive(id string, active bool) error
	UpdateFetchState(id string, state FetchState) error
	GetFeedCount() (int, error)
	GetActiveFeedCount() (int, error)
}

type ArticleRepository interface {
	FindByFingerprint(feedID, fingerprint string) (*Article, error)
	InsertArticle(article Article) (string, error)
	ListArticles(feedID string, limit int) ([]Article, error)
	CountArticles(feedID string) (int, error)
	GetArticleCount() (int, error)
	// ListPendingExtraction returns articles still awaiting full-content extraction.
	ListPendingExtraction(limit int) ([]Article, error)
	UpdateExtractedContent(id string, content string, status string) error
}

type FetchLogRepository interface {
	AppendFetchLog(log FetchLog) (string, error)
	ListRecentLogs(feedID string, limit int) ([]FetchLog, error)
	// CountConsecutiveErrors reports the error streak since the last success.
	CountConsecutiveErrors(feedID string) (int, error)
}
