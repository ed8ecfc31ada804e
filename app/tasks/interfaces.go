package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/rss-bsky/app/feed"
	"github.com/lysyi3m/rss-bsky/app/post"
)

// TaskSchedulerInterface runs publish cycles in daemon mode.
// Example usage:
//
//	scheduler := NewScheduler(cycle, 15*time.Minute)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	LastReport() (Report, bool)
	Runs() int
}

type CollectorInterface interface {
	Run(ctx context.Context, sources []feed.Source, cutoff time.Time, published feed.LinkSet) ([]feed.Item, feed.Stats)
}

type PublisherInterface interface {
	Run(ctx context.Context, items []feed.Item, mode post.Mode) post.Summary
}

// LinkStore is the read side of the dedup store
type LinkStore interface {
	feed.LinkSet
	Len() int
}

var (
	_ CollectorInterface = (*feed.Collector)(nil)
	_ PublisherInterface = (*post.Scheduler)(nil)
)
