package tasks

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/feedscout/feedscout/app/database"
	"github.com/feedscout/feedscout/app/feed"
)

type fakeRepo struct {
	websites map[string]*database.Website
	feeds    map[string]*database.Feed
	nextID   int
}

var (
	_ database.WebsiteRepository = (*fakeRepo)(nil)
	_ database.FeedRepository    = (*fakeRepo)(nil)
)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		websites: make(map[string]*database.Website),
		feeds:    make(map[string]*database.Feed),
	}
}

func (r *fakeRepo) CreateWebsite(url, name string, active bool) (string, error) {
	r.nextID++
	id := fmt.Sprintf("site-%d", r.nextID)
	r.websites[id] = &database.Website{ID: id, URL: url, Name: name, Active: active}
	return id, nil
}

func (r *fakeRepo) GetWebsite(id string) (*database.Website, error) {
	if w, ok := r.websites[id]; ok {
		copied := *w
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeRepo) GetWebsiteByURL(url string) (*database.Website, error) {
	for _, w := range r.websites {
		if w.URL == url {
			copied := *w
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ListWebsites() ([]database.Website, error) {
	var out []database.Website
	for _, w := range r.websites {
		out = append(out, *w)
	}
	return out, nil
}

func (r *fakeRepo) ListActiveWebsites() ([]database.Website, error) {
	var out []database.Website
	for _, w := range r.websites {
		if w.Active {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *fakeRepo) SetWebsiteActive(id string, active bool) error {
	if w, ok := r.websites[id]; ok {
		w.Active = active
	}
	return nil
}

func (r *fakeRepo) MarkDiscovered(id string) error {
	w, ok := r.websites[id]
	if !ok {
		return fmt.Errorf("website not found: %s", id)
	}
	now := time.Now().UTC()
	w.DiscoveredAt = &now
	return nil
}

func (r *fakeRepo) GetWebsiteCount() (int, error) {
	return len(r.websites), nil
}

func (r *fakeRepo) CreateFeed(websiteID, url, kind, title string) (string, bool, error) {
	for _, f := range r.feeds {
		if f.WebsiteID == websiteID && f.URL == url {
			return f.ID, false, nil
		}
	}
	r.nextID++
	id := fmt.Sprintf("feed-%d", r.nextID)
	r.feeds[id] = &database.Feed{ID: id, WebsiteID: websiteID, URL: url, Kind: kind, Title: title, Active: true}
	return id, true, nil
}

func (r *fakeRepo) GetFeed(id string) (*database.Feed, error) {
	if f, ok := r.feeds[id]; ok {
		copied := *f
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeRepo) GetFeedByURL(websiteID, url string) (*database.Feed, error) {
	for _, f := range r.feeds {
		if f.WebsiteID == websiteID && f.URL == url {
			copied := *f
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) ListFeeds(websiteID string) ([]database.Feed, error) {
	var out []database.Feed
	for _, f := range r.feeds {
		if f.WebsiteID == websiteID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListActiveFeeds(websiteID string) ([]database.Feed, error) {
	var out []database.Feed
	for _, f := range r.feeds {
		if f.WebsiteID == websiteID && f.Active && f.Kind != "sitemap" {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeRepo) SetFeedActive(id string, active bool) error {
	if f, ok := r.feeds[id]; ok {
		f.Active = active
	}
	return nil
}

func (r *fakeRepo) UpdateFetchState(id string, state database.FetchState) error {
	return nil
}

func (r *fakeRepo) GetFeedCount() (int, error) {
	return len(r.feeds), nil
}

func (r *fakeRepo) GetActiveFeedCount() (int, error) {
	count := 0
	for _, f := range r.feeds {
		if f.Active {
			count++
		}
	}
	return count, nil
}

func TestTaskRetryBookkeeping(t *testing.T) {
	task := NewTask(TaskTypeFetchFeed, "https://example.com/feed")

	if task.ID == "" {
		t.Error("Expected a generated task ID")
	}
	if task.GetType() != TaskTypeFetchFeed {
		t.Errorf("Expected type fetch_feed, got %s", task.GetType())
	}
	if task.GetSubject() != "https://example.com/feed" {
		t.Errorf("Unexpected subject: %s", task.GetSubject())
	}

	for i := 0; i < DefaultMaxRetries; i++ {
		if !task.CanRetry() {
			t.Fatalf("Expected retry %d to be allowed", i+1)
		}
		task.IncrementRetryCount()
	}
	if task.CanRetry() {
		t.Error("Expected retries exhausted after reaching the maximum")
	}

	if task.GetDuration() != 0 {
		t.Error("Expected zero duration before the task starts")
	}
	task.Start()
	if task.GetDuration() < 0 {
		t.Error("Expected non-negative duration after start")
	}
}

func TestDiscoverWebsiteTaskRegistersFeeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><head>
				<link rel="alternate" type="application/rss+xml" href="/feed.xml">
			</head></html>`))
		case "/feed.xml":
			w.Write([]byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>T</title></channel></rss>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	repo := newFakeRepo()
	websiteID, _ := repo.CreateWebsite(server.URL, "Test Site", true)
	website, _ := repo.GetWebsite(websiteID)

	discoverer := feed.NewDiscoverer(&http.Client{}, "test-agent", 5*time.Second, 1024*1024, 4)
	task := NewDiscoverWebsiteTask(*website, discoverer, repo, repo)
	task.Start()

	if err := task.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}

	feeds, _ := repo.ListFeeds(websiteID)
	if len(feeds) != 1 {
		t.Fatalf("Expected 1 registered feed, got %d", len(feeds))
	}
	if feeds[0].URL != server.URL+"/feed.xml" {
		t.Errorf("Unexpected feed URL: %s", feeds[0].URL)
	}
	if feeds[0].Kind != "rss" {
		t.Errorf("Expected kind rss, got %s", feeds[0].Kind)
	}

	updated, _ := repo.GetWebsite(websiteID)
	if updated.DiscoveredAt == nil {
		t.Error("Expected the website to be marked discovered")
	}

	// Re-running discovery must not duplicate feeds
	again := NewDiscoverWebsiteTask(*updated, discoverer, repo, repo)
	again.Start()
	if err := again.Execute(context.Background()); err != nil {
		t.Fatal(err)
	}
	feeds, _ = repo.ListFeeds(websiteID)
	if len(feeds) != 1 {
		t.Errorf("Expected discovery to stay idempotent, got %d feeds", len(feeds))
	}
}

func TestDiscoverWebsiteTaskUnreachableSite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	repo := newFakeRepo()
	websiteID, _ := repo.CreateWebsite(server.URL, "Dead Site", true)
	website, _ := repo.GetWebsite(websiteID)

	discoverer := feed.NewDiscoverer(&http.Client{}, "test-agent", time.Second, 1024*1024, 4)
	task := NewDiscoverWebsiteTask(*website, discoverer, repo, repo)
	task.Start()

	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Expected an error for an unreachable site")
	}

	// The site stays undiscovered so the next cycle retries it
	updated, _ := repo.GetWebsite(websiteID)
	if updated.DiscoveredAt != nil {
		t.Error("Expected website to remain undiscovered after a failed scan")
	}
}
