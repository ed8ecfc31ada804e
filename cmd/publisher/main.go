package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-bsky/app/api"
	"github.com/lysyi3m/rss-bsky/app/bluesky"
	"github.com/lysyi3m/rss-bsky/app/cfg"
	"github.com/lysyi3m/rss-bsky/app/database"
	"github.com/lysyi3m/rss-bsky/app/dedup"
	"github.com/lysyi3m/rss-bsky/app/feed"
	"github.com/lysyi3m/rss-bsky/app/metrics"
	"github.com/lysyi3m/rss-bsky/app/post"
	"github.com/lysyi3m/rss-bsky/app/tasks"
)

func main() {
	appCfg, err := cfg.Load(os.Args[1:])
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	setupLogger(appCfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = run(ctx, appCfg)
	stop()

	if err != nil {
		slog.Error("Publisher stopped with error", "error", err)
		os.Exit(1)
	}
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(ctx context.Context, appCfg *cfg.Cfg) error {
	slog.Info("Starting RSS Bsky", "version", appCfg.Version, "dry_run", appCfg.DryRun, "hours", appCfg.HoursBack)

	sources, err := feed.LoadSources(appCfg.FeedsFile)
	if err != nil {
		return err
	}
	slog.Info("Loaded feed list", "file", appCfg.FeedsFile, "feeds", len(sources))

	store, closeStore, err := openStore(ctx, appCfg)
	if err != nil {
		return err
	}
	defer closeStore()
	slog.Info("Dedup store loaded", "backend", appCfg.Store, "links", store.Len())

	httpClient := &http.Client{Timeout: appCfg.FetchTimeout()}

	mode := post.ModeLive
	var publisher post.Publisher
	if appCfg.DryRun {
		mode = post.ModeDryRun
		slog.Info("Dry run mode, nothing will be published")
	} else {
		client := bluesky.NewClient(appCfg.PDSHost, httpClient, appCfg.UserAgent, appCfg.Lang)
		if err := client.Login(ctx, appCfg.Username, appCfg.Password); err != nil {
			return fmt.Errorf("failed to log in to Bluesky: %w", err)
		}
		publisher = client
	}

	m := metrics.New("rss-bsky", appCfg.Version)

	cycle := tasks.Cycle{
		Sources:   sources,
		Cutoff:    appCfg.Cutoff,
		Mode:      mode,
		Collector: feed.NewCollector(feed.NewFetcher(httpClient, appCfg.UserAgent, appCfg.FetchTimeout()), appCfg.WorkerCount),
		Publisher: post.NewScheduler(post.NewFormatter(), publisher, store, appCfg.RecordOnPublish, os.Stdout),
		Store:     store,
		Metrics:   m,
	}

	if appCfg.Interval() == 0 {
		return runOnce(ctx, cycle)
	}

	return runDaemon(ctx, appCfg, cycle, store, m)
}

func openStore(ctx context.Context, appCfg *cfg.Cfg) (*dedup.Store, func(), error) {
	var backend dedup.Backend
	closeStore := func() {}

	switch appCfg.Store {
	case cfg.StoreSQLite:
		db, err := database.Open(appCfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		backend = database.NewLinkRepository(db)
		closeStore = func() {
			if err := db.Close(); err != nil {
				slog.Warn("Failed to close database", "error", err)
			}
		}
	default:
		backend = dedup.NewFileBackend(appCfg.PostedFile)
	}

	store, err := dedup.Open(ctx, backend)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	return store, closeStore, nil
}

func runOnce(ctx context.Context, cycle tasks.Cycle) error {
	task := tasks.NewPublishCycleTask(cycle)
	task.Start()

	err := task.Execute(ctx)

	fmt.Fprintln(os.Stdout, task.Summary.Message())

	if err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	return nil
}

func runDaemon(ctx context.Context, appCfg *cfg.Cfg, cycle tasks.Cycle, store *dedup.Store, m *metrics.Metrics) error {
	slog.Info("Starting scheduler", "interval", appCfg.Interval().String())

	scheduler := tasks.NewScheduler(cycle, appCfg.Interval())
	scheduler.Start()
	defer func() {
		scheduler.Stop()
		slog.Info("Scheduler stopped")
	}()

	if appCfg.Port == "" {
		<-ctx.Done()
		slog.Info("Shutting down")
		return nil
	}

	handler := api.NewHandler(scheduler, store, m, cycle.Sources, cycle.Mode.String(), appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      api.NewServer(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting status server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	var serverErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutting down")
	case serverErr = <-serverErrChan:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return serverErr
}
