package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feedscout/feedscout/app/database"
	"github.com/feedscout/feedscout/app/feed"
)

func NewHandler(websiteRepo database.WebsiteRepository, feedRepo database.FeedRepository,
	articleRepo database.ArticleRepository, logRepo database.FetchLogRepository,
	discoverer DiscovererInterface, fetcher FetcherInterface) *Handler {
	return &Handler{
		websiteRepo: websiteRepo,
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
		logRepo:     logRepo,
		discoverer:  discoverer,
		fetcher:     fetcher,
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if websiteCount, err := h.websiteRepo.GetWebsiteCount(); err == nil {
		health["websites"] = websiteCount
	}
	if feedCount, err := h.feedRepo.GetFeedCount(); err == nil {
		health["feeds"] = feedCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{}

	if count, err := h.websiteRepo.GetWebsiteCount(); err == nil {
		stats["websites"] = count
	}
	if count, err := h.feedRepo.GetFeedCount(); err == nil {
		stats["feeds"] = count
	}
	if count, err := h.feedRepo.GetActiveFeedCount(); err == nil {
		stats["active_feeds"] = count
	}
	if count, err := h.articleRepo.GetArticleCount(); err == nil {
		stats["articles"] = count
	}

	c.JSON(http.StatusOK, stats)
}

type createWebsiteRequest struct {
	URL    string `json:"url" binding:"required"`
	Name   string `json:"name"`
	Active *bool  `json:"active"`
}

func (h *Handler) CreateWebsite(c *gin.Context) {
	var req createWebsiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid website URL"})
		return
	}

	existing, err := h.websiteRepo.GetWebsiteByURL(req.URL)
	if err != nil {
		slog.Error("Database error", "operation", "get_website_by_url", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Website already registered", "id": existing.ID})
		return
	}

	name := req.Name
	if name == "" {
		name = parsed.Host
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	id, err := h.websiteRepo.CreateWebsite(req.URL, name, active)
	if err != nil {
		slog.Error("Database error", "operation", "create_website", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "url": req.URL, "name": name, "active": active})
}

func (h *Handler) ListWebsites(c *gin.Context) {
	websites, err := h.websiteRepo.ListWebsites()
	if err != nil {
		slog.Error("Database error", "operation", "list_websites", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"websites": websites,
		"total":    len(websites),
	})
}

// DiscoverWebsite runs feed discovery for a website and registers the
// validated candidates. Re-running is safe: known feeds are not duplicated.
func (h *Handler) DiscoverWebsite(c *gin.Context) {
	website, ok := h.lookupWebsite(c)
	if !ok {
		return
	}

	candidates, err := h.discoverer.Discover(c.Request.Context(), website.URL)
	if err != nil {
		if errors.Is(err, feed.ErrSiteUnreachable) {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Website unreachable", "message": err.Error()})
			return
		}
		slog.Error("Discovery failed", "website", website.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Discovery failed"})
		return
	}

	newCount := 0
	for _, candidate := range candidates {
		_, created, err := h.feedRepo.CreateFeed(website.ID, candidate.URL, string(candidate.Kind), "")
		if err != nil {
			slog.Error("Database error", "operation", "create_feed", "url", candidate.URL, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if created {
			newCount++
		}
	}

	if err := h.websiteRepo.MarkDiscovered(website.ID); err != nil {
		slog.Error("Database error", "operation", "mark_discovered", "website", website.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"website":    website.URL,
		"candidates": candidates,
		"new_feeds":  newCount,
	})
}

func (h *Handler) FetchWebsite(c *gin.Context) {
	website, ok := h.lookupWebsite(c)
	if !ok {
		return
	}

	feeds, err := h.feedRepo.ListActiveFeeds(website.ID)
	if err != nil {
		slog.Error("Database error", "operation", "list_active_feeds", "website", website.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := h.fetcher.FetchBatch(c.Request.Context(), feeds)

	c.JSON(http.StatusOK, map[string]interface{}{
		"website": website.URL,
		"results": items,
		"total":   len(items),
	})
}

// FetchFeed triggers a single fetch by feed ID. Deliberately works on
// inactive feeds too, so an operator can probe a deactivated feed without
// reactivating it first.
func (h *Handler) FetchFeed(c *gin.Context) {
	dbFeed, ok := h.lookupFeed(c)
	if !ok {
		return
	}

	result, err := h.fetcher.FetchFeed(c.Request.Context(), *dbFeed)
	if err != nil {
		slog.Error("Fetch failed", "feed", dbFeed.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Fetch failed", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feed":   dbFeed.URL,
		"result": result,
	})
}

func (h *Handler) FetchAll(c *gin.Context) {
	websites, err := h.websiteRepo.ListActiveWebsites()
	if err != nil {
		slog.Error("Database error", "operation", "list_active_websites", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	var allFeeds []database.Feed
	for _, website := range websites {
		feeds, err := h.feedRepo.ListActiveFeeds(website.ID)
		if err != nil {
			slog.Warn("Failed to list feeds, skipping website", "website", website.URL, "error", err)
			continue
		}
		allFeeds = append(allFeeds, feeds...)
	}

	items := h.fetcher.FetchBatch(c.Request.Context(), allFeeds)

	c.JSON(http.StatusOK, map[string]interface{}{
		"results": items,
		"total":   len(items),
	})
}

func (h *Handler) ListFeeds(c *gin.Context) {
	websiteID := c.Query("website_id")
	if websiteID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing website_id parameter"})
		return
	}

	feeds, err := h.feedRepo.ListFeeds(websiteID)
	if err != nil {
		slog.Error("Database error", "operation", "list_feeds", "website_id", websiteID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	infos := make([]map[string]interface{}, 0, len(feeds))
	for _, dbFeed := range feeds {
		info := map[string]interface{}{
			"id":              dbFeed.ID,
			"url":             dbFeed.URL,
			"kind":            dbFeed.Kind,
			"title":           dbFeed.Title,
			"active":          dbFeed.Active,
			"error_count":     dbFeed.ErrorCount,
			"last_fetched_at": dbFeed.LastFetchedAt,
			"last_success_at": dbFeed.LastSuccessAt,
		}
		if count, err := h.articleRepo.CountArticles(dbFeed.ID); err == nil {
			info["article_count"] = count
		}
		infos = append(infos, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": infos,
		"total": len(infos),
	})
}

func (h *Handler) ListArticles(c *gin.Context) {
	dbFeed, ok := h.lookupFeed(c)
	if !ok {
		return
	}

	limit := parseLimit(c.Query("limit"), 50)

	articles, err := h.articleRepo.ListArticles(dbFeed.ID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_articles", "feed", dbFeed.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feed":     dbFeed.URL,
		"articles": articles,
		"total":    len(articles),
	})
}

func (h *Handler) ListLogs(c *gin.Context) {
	dbFeed, ok := h.lookupFeed(c)
	if !ok {
		return
	}

	limit := parseLimit(c.Query("limit"), 20)

	logs, err := h.logRepo.ListRecentLogs(dbFeed.ID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_logs", "feed", dbFeed.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := map[string]interface{}{
		"feed":  dbFeed.URL,
		"logs":  logs,
		"total": len(logs),
	}
	if streak, err := h.logRepo.CountConsecutiveErrors(dbFeed.ID); err == nil {
		response["consecutive_errors"] = streak
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) lookupWebsite(c *gin.Context) (*database.Website, bool) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing website id parameter"})
		return nil, false
	}

	website, err := h.websiteRepo.GetWebsite(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_website", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if website == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Website not found"})
		return nil, false
	}

	return website, true
}

func (h *Handler) lookupFeed(c *gin.Context) (*database.Feed, bool) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing feed id parameter"})
		return nil, false
	}

	dbFeed, err := h.feedRepo.GetFeed(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if dbFeed == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Feed not found"})
		return nil, false
	}

	return dbFeed, true
}

func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return fallback
	}
	return limit
}
