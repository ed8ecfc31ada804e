package tasks

import (
	"context"
	"log/slog"
	"time"

	"github.com/lysyi3m/rss-bsky/app/feed"
	"github.com/lysyi3m/rss-bsky/app/metrics"
	"github.com/lysyi3m/rss-bsky/app/post"
)

// Cycle holds everything a publish cycle needs. It is shared by every
// task the scheduler creates.
type Cycle struct {
	Sources   []feed.Source
	Cutoff    func(now time.Time) time.Time
	Mode      post.Mode
	Collector CollectorInterface
	Publisher PublisherInterface
	Store     LinkStore
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

type PublishCycleTask struct {
	Task
	cycle   Cycle
	Stats   feed.Stats
	Summary post.Summary
}

func NewPublishCycleTask(cycle Cycle) *PublishCycleTask {
	return &PublishCycleTask{
		Task:  NewTask(TaskTypePublishCycle),
		cycle: cycle,
	}
}

// Execute collects fresh entries from every source and publishes them.
// Feed and item failures are contained; only cancellation is returned.
func (t *PublishCycleTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	now := time.Now
	if t.cycle.Now != nil {
		now = t.cycle.Now
	}
	cutoff := t.cycle.Cutoff(now())

	slog.Debug("Collecting feeds", "id", t.ID, "feeds", len(t.cycle.Sources), "cutoff", cutoff.Format(time.RFC3339))

	var published feed.LinkSet
	if t.cycle.Store != nil {
		published = t.cycle.Store
	}

	items, stats := t.cycle.Collector.Run(ctx, t.cycle.Sources, cutoff, published)
	t.Stats = stats

	if len(stats.FailedFeeds) > 0 {
		slog.Warn("Some feeds could not be fetched", "id", t.ID, "failed", stats.FailedFeeds)
	}

	t.Summary = t.cycle.Publisher.Run(ctx, items, t.cycle.Mode)

	storeSize := 0
	if t.cycle.Store != nil {
		storeSize = t.cycle.Store.Len()
	}

	if t.cycle.Metrics != nil {
		t.cycle.Metrics.ObserveCycle(stats, t.Summary, t.GetDuration(), storeSize)
	}

	slog.Info("Task completed",
		"type", string(t.Type),
		"id", t.ID,
		"mode", t.cycle.Mode.String(),
		"duration", t.GetDuration(),
		"feeds", stats.Feeds,
		"failed_feeds", len(stats.FailedFeeds),
		"entries", stats.Entries,
		"stale", stats.Stale,
		"duplicates", stats.Duplicates,
		"collected", stats.Collected,
		"published", t.Summary.Published,
		"would_publish", t.Summary.WouldPublish,
		"failed", t.Summary.Failed)

	return ctx.Err()
}
