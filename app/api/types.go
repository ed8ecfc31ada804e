package api

import (
	"github.com/lysyi3m/rss-bsky/app/dedup"
	"github.com/lysyi3m/rss-bsky/app/feed"
	"github.com/lysyi3m/rss-bsky/app/metrics"
	"github.com/lysyi3m/rss-bsky/app/tasks"
)

// StatusProvider exposes the outcome of daemon cycles
type StatusProvider interface {
	LastReport() (tasks.Report, bool)
	Runs() int
}

type StoreSizer interface {
	Len() int
}

var (
	_ StatusProvider = (*tasks.Scheduler)(nil)
	_ StoreSizer     = (*dedup.Store)(nil)
)

type Handler struct {
	status  StatusProvider
	store   StoreSizer
	metrics *metrics.Metrics
	sources []feed.Source
	mode    string
	version string
}
