package metrics

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lysyi3m/rss-bsky/app/feed"
	"github.com/lysyi3m/rss-bsky/app/post"
)

// Metrics holds the Prometheus collectors for publish cycles
type Metrics struct {
	registry *prometheus.Registry

	FeedsFetched   prometheus.Counter
	FeedsFailed    prometheus.Counter
	EntriesSkipped *prometheus.CounterVec
	ItemsCollected prometheus.Counter
	Posts          *prometheus.CounterVec
	RecordFailures prometheus.Counter
	CycleDuration  prometheus.Histogram
	LastCycle      prometheus.Gauge
	DedupLinks     prometheus.Gauge
}

func New(serviceName, version string) *Metrics {
	prefix := strings.ReplaceAll(serviceName, "-", "_")

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FeedsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_feeds_fetched_total",
			Help: "Feeds fetched and parsed successfully",
		}),
		FeedsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_feeds_failed_total",
			Help: "Feeds skipped because fetching or parsing failed",
		}),
		EntriesSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_entries_skipped_total",
			Help: "Feed entries not selected for publishing",
		}, []string{"reason"}),
		ItemsCollected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_items_collected_total",
			Help: "Items selected for publishing",
		}),
		Posts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "_posts_total",
			Help: "Post attempts by outcome",
		}, []string{"outcome"}),
		RecordFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: prefix + "_record_failures_total",
			Help: "Published links that could not be recorded in the dedup store",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    prefix + "_cycle_duration_seconds",
			Help:    "Duration of a full collect and publish cycle",
			Buckets: prometheus.DefBuckets,
		}),
		LastCycle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_last_cycle_timestamp_seconds",
			Help: "Unix time of the last completed cycle",
		}),
		DedupLinks: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: prefix + "_dedup_links",
			Help: "Links currently held in the dedup store",
		}),
	}

	info := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: prefix + "_service_info",
		Help: "Service information",
	}, []string{"version"})
	info.WithLabelValues(version).Set(1)

	for _, reason := range []string{"stale", "duplicate"} {
		m.EntriesSkipped.WithLabelValues(reason)
	}
	for _, outcome := range []string{"published", "would_publish", "failed"} {
		m.Posts.WithLabelValues(outcome)
	}

	m.registry.MustRegister(
		m.FeedsFetched,
		m.FeedsFailed,
		m.EntriesSkipped,
		m.ItemsCollected,
		m.Posts,
		m.RecordFailures,
		m.CycleDuration,
		m.LastCycle,
		m.DedupLinks,
		info,
	)

	return m
}

// ObserveCycle records the outcome of one collect and publish cycle
func (m *Metrics) ObserveCycle(stats feed.Stats, summary post.Summary, duration time.Duration, storeSize int) {
	m.FeedsFetched.Add(float64(stats.Feeds - len(stats.FailedFeeds)))
	m.FeedsFailed.Add(float64(len(stats.FailedFeeds)))
	m.EntriesSkipped.WithLabelValues("stale").Add(float64(stats.Stale))
	m.EntriesSkipped.WithLabelValues("duplicate").Add(float64(stats.Duplicates))
	m.ItemsCollected.Add(float64(stats.Collected))

	m.Posts.WithLabelValues("published").Add(float64(summary.Published))
	m.Posts.WithLabelValues("would_publish").Add(float64(summary.WouldPublish))
	m.Posts.WithLabelValues("failed").Add(float64(summary.Failed))
	m.RecordFailures.Add(float64(summary.RecordFailed))

	m.CycleDuration.Observe(duration.Seconds())
	m.LastCycle.SetToCurrentTime()
	m.DedupLinks.Set(float64(storeSize))
}

// Handler returns the Prometheus metrics HTTP handler
func (m *Metrics) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
