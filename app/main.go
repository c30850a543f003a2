package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/feedscout/feedscout/app/api"
	"github.com/feedscout/feedscout/app/cfg"
	"github.com/feedscout/feedscout/app/config"
	"github.com/feedscout/feedscout/app/database"
	"github.com/feedscout/feedscout/app/feed"
	"github.com/feedscout/feedscout/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting FeedScout server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Connected to database")

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations applied", "version", version, "dirty", dirty)

	// Repositories
	websiteRepo := database.NewWebsiteRepository(db)
	feedRepo := database.NewFeedRepository(db)
	articleRepo := database.NewArticleRepository(db)
	logRepo := database.NewFetchLogRepository(db)

	// Seed websites from the configured YAML file, if present
	seedWebsites(appCfg.WebsitesFile, websiteRepo)

	httpClient := newHTTPClient(appCfg.MaxRedirects)

	// Core components
	parser := feed.NewParser()
	discoverer := feed.NewDiscoverer(httpClient, appCfg.UserAgent,
		time.Duration(appCfg.DiscoveryTimeout)*time.Second, appCfg.MaxBodySize, appCfg.ProbeConcurrency)
	health := feed.NewHealthTracker(appCfg.DegradedThreshold, appCfg.InactiveThreshold)
	fetcher := feed.NewFetcher(httpClient, parser, feedRepo, articleRepo, logRepo, health,
		appCfg.UserAgent, time.Duration(appCfg.FetchTimeout)*time.Second, appCfg.MaxBodySize)
	contentExtractor := feed.NewContentExtractor()

	// Background scheduler
	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(websiteRepo, feedRepo, articleRepo, discoverer, fetcher,
		contentExtractor, httpClient)
	scheduler.Start()
	defer scheduler.Stop()

	// HTTP server
	apiHandler := api.NewHandler(websiteRepo, feedRepo, articleRepo, logRepo, discoverer, fetcher)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("FeedScout server started")

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	// Scheduler is stopped via defer
	slog.Info("FeedScout server shutdown complete")
}

// seedWebsites registers the websites listed in the seed file. Already known
// URLs are left untouched, so the file can stay in place across restarts.
func seedWebsites(path string, websiteRepo database.WebsiteRepository) {
	loader := config.NewLoader(path)
	seeds, err := loader.Load()
	if err != nil {
		slog.Error("Failed to load websites seed file", "path", path, "error", err)
		os.Exit(1)
	}
	if len(seeds) == 0 {
		slog.Debug("No websites seed file found", "path", path)
		return
	}

	registered := 0
	for _, seed := range seeds {
		existing, err := websiteRepo.GetWebsiteByURL(seed.URL)
		if err != nil {
			slog.Warn("Failed to check website, skipping", "url", seed.URL, "error", err)
			continue
		}
		if existing != nil {
			continue
		}

		if _, err := websiteRepo.CreateWebsite(seed.URL, seed.Name, seed.IsActive()); err != nil {
			slog.Warn("Failed to register website, skipping", "url", seed.URL, "error", err)
			continue
		}
		registered++
	}

	slog.Info("Websites seeded", "file", path, "entries", len(seeds), "new", registered)
}

func newHTTPClient(maxRedirects int) *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}
