package api

import (
	"context"

	"github.com/feedscout/feedscout/app/database"
	"github.com/feedscout/feedscout/app/feed"
)

type DiscovererInterface interface {
	Discover(ctx context.Context, rootURL string) ([]feed.Candidate, error)
}

var _ DiscovererInterface = (*feed.Discoverer)(nil)

type FetcherInterface interface {
	FetchFeed(ctx context.Context, dbFeed database.Feed) (feed.FetchResult, error)
	FetchBatch(ctx context.Context, feeds []database.Feed) []feed.BatchItem
}

var _ FetcherInterface = (*feed.Fetcher)(nil)

type Handler struct {
	websiteRepo database.WebsiteRepository
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
	logRepo     database.FetchLogRepository
	discoverer  DiscovererInterface
	fetcher     FetcherInterface
}
