package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/feedscout/feedscout/app/database"
	"github.com/feedscout/feedscout/app/feed"
)

type DiscoverWebsiteTask struct {
	Task
	Website     database.Website
	discoverer  *feed.Discoverer
	websiteRepo database.WebsiteRepository
	feedRepo    database.FeedRepository
}

func NewDiscoverWebsiteTask(website database.Website, discoverer *feed.Discoverer,
	websiteRepo database.WebsiteRepository, feedRepo database.FeedRepository) *DiscoverWebsiteTask {
	return &DiscoverWebsiteTask{
		Task:        NewTask(TaskTypeDiscoverWebsite, website.URL),
		Website:     website,
		discoverer:  discoverer,
		websiteRepo: websiteRepo,
		feedRepo:    feedRepo,
	}
}

func (t *DiscoverWebsiteTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	candidates, err := t.discoverer.Discover(ctx, t.Website.URL)
	if err != nil {
		return fmt.Errorf("failed to discover feeds: %w", err)
	}

	newCount := 0
	for _, candidate := range candidates {
		_, created, err := t.feedRepo.CreateFeed(t.Website.ID, candidate.URL, string(candidate.Kind), "")
		if err != nil {
			return fmt.Errorf("failed to register feed %s: %w", candidate.URL, err)
		}
		if created {
			newCount++
		}
	}

	// A completed scan counts as discovered even when it found nothing;
	// the website can be re-discovered explicitly through the API.
	if err := t.websiteRepo.MarkDiscovered(t.Website.ID); err != nil {
		return fmt.Errorf("failed to mark website discovered: %w", err)
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"website", t.Website.URL,
		"duration", t.GetDuration(),
		"candidates", len(candidates),
		"new", newCount)

	return nil
}
