package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/feedscout/feedscout/app/database"
	"github.com/feedscout/feedscout/app/feed"
)

type FetchFeedTask struct {
	Task
	Feed    database.Feed
	fetcher *feed.Fetcher
}

func NewFetchFeedTask(dbFeed database.Feed, fetcher *feed.Fetcher) *FetchFeedTask {
	return &FetchFeedTask{
		Task:    NewTask(TaskTypeFetchFeed, dbFeed.URL),
		Feed:    dbFeed,
		fetcher: fetcher,
	}
}

func (t *FetchFeedTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.fetcher.FetchFeed(ctx, t.Feed)
	if err != nil {
		return fmt.Errorf("failed to fetch feed: %w", err)
	}

	if result.Skipped {
		slog.Debug("Fetch skipped, already in flight", "feed", t.Feed.URL)
		return nil
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"feed", t.Feed.URL,
		"duration", t.GetDuration(),
		"outcome", string(result.Outcome),
		"new", result.NewArticles)

	return nil
}
