package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/feedscout/feedscout/app/database"
	"github.com/feedscout/feedscout/app/feed"
)

// extractionBatchSize caps how many pending articles a single sweep handles.
const extractionBatchSize = 20

type ExtractContentTask struct {
	Task
	httpClient       *http.Client
	contentExtractor *feed.ContentExtractor
	articleRepo      database.ArticleRepository
	userAgent        string
	timeout          time.Duration
}

func NewExtractContentTask(httpClient *http.Client, contentExtractor *feed.ContentExtractor,
	articleRepo database.ArticleRepository, userAgent string, timeout time.Duration) *ExtractContentTask {
	return &ExtractContentTask{
		Task:             NewTask(TaskTypeExtractContent, "pending articles"),
		httpClient:       httpClient,
		contentExtractor: contentExtractor,
		articleRepo:      articleRepo,
		userAgent:        userAgent,
		timeout:          timeout,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	articles, err := t.articleRepo.ListPendingExtraction(extractionBatchSize)
	if err != nil {
		return fmt.Errorf("failed to get articles for content extraction: %w", err)
	}

	if len(articles) == 0 {
		slog.Debug("No articles need content extraction")
		return nil
	}

	successCount := 0
	errorCount := 0
	skippedCount := 0

	for _, article := range articles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if article.URL == "" {
			skippedCount++
			if err := t.articleRepo.UpdateExtractedContent(article.ID, article.Content, "skipped"); err != nil {
				slog.Error("Failed to update extraction status", "article_id", article.ID, "error", err)
			}
			continue
		}

		if err := t.extractContentForArticle(ctx, article); err != nil {
			slog.Error("Failed to extract content for article", "article_id", article.ID, "url", article.URL, "error", err)
			errorCount++

			if err := t.articleRepo.UpdateExtractedContent(article.ID, article.Content, "failed"); err != nil {
				slog.Error("Failed to update extraction status", "article_id", article.ID, "error", err)
			}
		} else {
			successCount++
		}
	}

	slog.Info("Task completed",
		"type", t.GetType(),
		"duration", t.GetDuration(),
		"success", successCount,
		"errors", errorCount,
		"skipped", skippedCount)

	return nil
}

func (t *ExtractContentTask) extractContentForArticle(ctx context.Context, article database.Article) error {
	data, err := t.fetchArticlePage(ctx, article.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch article page: %w", err)
	}

	extractedContent, err := t.contentExtractor.Run(data, article.URL)
	if err != nil {
		return fmt.Errorf("failed to extract content: %w", err)
	}

	if err := t.articleRepo.UpdateExtractedContent(article.ID, extractedContent, "success"); err != nil {
		return fmt.Errorf("failed to store extracted content: %w", err)
	}

	return nil
}

func (t *ExtractContentTask) fetchArticlePage(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(contentType), "text/html") {
		return nil, fmt.Errorf("content type is not HTML: %s", contentType)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
