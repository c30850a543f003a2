package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/feedscout/feedscout/app/cfg"
	"github.com/feedscout/feedscout/app/database"
	"github.com/feedscout/feedscout/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	websiteRepo      database.WebsiteRepository
	feedRepo         database.FeedRepository
	articleRepo      database.ArticleRepository
	discoverer       *feed.Discoverer
	fetcher          *feed.Fetcher
	contentExtractor *feed.ContentExtractor
	httpClient       *http.Client
	userAgent        string
	fetchTimeout     time.Duration
	interval         time.Duration
	workerCount      int
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
}

func NewScheduler(websiteRepo database.WebsiteRepository, feedRepo database.FeedRepository,
	articleRepo database.ArticleRepository, discoverer *feed.Discoverer, fetcher *feed.Fetcher,
	contentExtractor *feed.ContentExtractor, httpClient *http.Client) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := cfg.Get()

	return &Scheduler{
		websiteRepo:      websiteRepo,
		feedRepo:         feedRepo,
		articleRepo:      articleRepo,
		discoverer:       discoverer,
		fetcher:          fetcher,
		contentExtractor: contentExtractor,
		httpClient:       httpClient,
		userAgent:        cfg.UserAgent,
		fetchTimeout:     time.Duration(cfg.FetchTimeout) * time.Second,
		interval:         time.Duration(cfg.SchedulerInterval) * time.Second,
		workerCount:      cfg.WorkerCount,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTasks()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// enqueueTasks schedules one polling cycle: undiscovered websites get a
// discovery scan, every active feed gets a fetch, and a single extraction
// sweep works through pending articles.
func (s *Scheduler) enqueueTasks() {
	websites, err := s.websiteRepo.ListActiveWebsites()
	if err != nil {
		slog.Error("Failed to list active websites", "error", err)
		return
	}
	if len(websites) == 0 {
		slog.Debug("No active websites found")
		return
	}

	slog.Debug("Scheduling polling cycle", "websites", len(websites))

	for _, website := range websites {
		if website.DiscoveredAt == nil {
			discoverTask := NewDiscoverWebsiteTask(website, s.discoverer, s.websiteRepo, s.feedRepo)
			if err := s.EnqueueTask(discoverTask); err != nil {
				slog.Warn("Failed to enqueue DiscoverWebsiteTask", "website", website.URL, "error", err)
			}
			// Feeds show up once discovery has run
			continue
		}

		feeds, err := s.feedRepo.ListActiveFeeds(website.ID)
		if err != nil {
			slog.Warn("Failed to list feeds, skipping website", "website", website.URL, "error", err)
			continue
		}

		for _, dbFeed := range feeds {
			fetchTask := NewFetchFeedTask(dbFeed, s.fetcher)
			if err := s.EnqueueTask(fetchTask); err != nil {
				slog.Warn("Failed to enqueue FetchFeedTask", "feed", dbFeed.URL, "error", err)
			}
		}
	}

	extractTask := NewExtractContentTask(s.httpClient, s.contentExtractor, s.articleRepo, s.userAgent, s.fetchTimeout)
	if err := s.EnqueueTask(extractTask); err != nil {
		slog.Warn("Failed to enqueue ExtractContentTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "subject", task.GetSubject(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
