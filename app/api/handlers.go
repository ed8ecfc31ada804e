package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/rss-bsky/app/feed"
	"github.com/lysyi3m/rss-bsky/app/metrics"
)

func NewHandler(status StatusProvider, store StoreSizer, m *metrics.Metrics, sources []feed.Source, mode, version string) *Handler {
	return &Handler{
		status:  status,
		store:   store,
		metrics: m,
		sources: sources,
		mode:    mode,
		version: version,
	}
}

// GetHealth reports "starting" until the first cycle finishes and
// "degraded" when the last cycle failed or every feed was unreachable.
func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"mode":      h.mode,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if h.store != nil {
		health["dedup_links"] = h.store.Len()
	}

	report, ok := h.status.LastReport()
	switch {
	case !ok:
		health["status"] = "starting"
	case report.Error != "" || (report.Feeds > 0 && len(report.FailedFeeds) == report.Feeds):
		health["status"] = "degraded"
		health["last_run"] = report
	default:
		health["last_run"] = report
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	feeds := make([]map[string]interface{}, 0, len(h.sources))
	for _, source := range h.sources {
		feeds = append(feeds, map[string]interface{}{
			"name": source.Name,
			"url":  source.URL,
		})
	}

	stats := map[string]interface{}{
		"runs":  h.status.Runs(),
		"feeds": feeds,
		"total": len(feeds),
	}

	if report, ok := h.status.LastReport(); ok {
		stats["last_run"] = report
	}

	c.JSON(http.StatusOK, stats)
}
