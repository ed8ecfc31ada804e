package feed

import (
	"cmp"
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// MaxEntriesPerFeed bounds how many leading entries of a feed are considered
const MaxEntriesPerFeed = 5

type FetcherInterface interface {
	Fetch(ctx context.Context, url string) (*Result, error)
}

// LinkSet answers whether a link was already published
type LinkSet interface {
	Contains(link string) bool
}

var _ FetcherInterface = (*Fetcher)(nil)

// Stats counts what happened to entries during one collection run
type Stats struct {
	Feeds       int
	FailedFeeds []string
	Entries     int
	Stale       int
	Duplicates  int
	Collected   int
}

type Collector struct {
	fetcher FetcherInterface
	workers int
}

func NewCollector(fetcher FetcherInterface, workers int) *Collector {
	if workers <= 0 {
		workers = 1
	}
	return &Collector{
		fetcher: fetcher,
		workers: workers,
	}
}

type feedOutcome struct {
	items      []Item
	failed     bool
	entries    int
	stale      int
	duplicates int
}

// Run fetches every source and returns the entries newer than cutoff whose
// links are not in published. One feed failing never affects the others.
// Items are returned in source order, unsorted.
func (c *Collector) Run(ctx context.Context, sources []Source, cutoff time.Time, published LinkSet) ([]Item, Stats) {
	outcomes := make([]feedOutcome, len(sources))

	var g errgroup.Group
	g.SetLimit(c.workers)

	for i, source := range sources {
		g.Go(func() error {
			outcomes[i] = c.collectFeed(ctx, source, cutoff, published)
			return nil
		})
	}
	_ = g.Wait()

	stats := Stats{Feeds: len(sources)}
	seen := make(map[string]struct{})
	var items []Item

	for i, outcome := range outcomes {
		if outcome.failed {
			stats.FailedFeeds = append(stats.FailedFeeds, cmp.Or(sources[i].Name, sources[i].URL))
			continue
		}

		stats.Entries += outcome.entries
		stats.Stale += outcome.stale
		stats.Duplicates += outcome.duplicates

		for _, item := range outcome.items {
			if _, ok := seen[item.Link]; ok {
				slog.Debug("Entry already collected from another feed", "feed", item.Source, "link", item.Link)
				stats.Duplicates++
				continue
			}
			seen[item.Link] = struct{}{}
			items = append(items, item)
		}
	}

	stats.Collected = len(items)
	return items, stats
}

func (c *Collector) collectFeed(ctx context.Context, source Source, cutoff time.Time, published LinkSet) feedOutcome {
	result, err := c.fetcher.Fetch(ctx, source.URL)
	if err != nil {
		slog.Warn("Failed to fetch feed, skipping", "feed", cmp.Or(source.Name, source.URL), "url", source.URL, "error", err)
		return feedOutcome{failed: true}
	}

	name := source.DisplayName(result.Title)

	entries := result.Entries
	if len(entries) > MaxEntriesPerFeed {
		entries = entries[:MaxEntriesPerFeed]
	}

	outcome := feedOutcome{entries: len(entries)}
	for _, entry := range entries {
		if entry.Link == "" {
			slog.Debug("Entry without link, skipping", "feed", name, "title", entry.Title)
			continue
		}

		instant := ResolveInstant(entry)
		if instant.Before(cutoff) {
			outcome.stale++
			continue
		}

		if published != nil && published.Contains(entry.Link) {
			outcome.duplicates++
			continue
		}

		outcome.items = append(outcome.items, Item{
			Title:       entry.Title,
			Link:        entry.Link,
			Source:      name,
			DisplayDate: DisplayDate(entry, instant),
			Instant:     instant,
		})
	}

	slog.Debug("Feed collected",
		"feed", name,
		"entries", outcome.entries,
		"stale", outcome.stale,
		"duplicates", outcome.duplicates,
		"new", len(outcome.items))

	return outcome
}
