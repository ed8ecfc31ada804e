package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/lysyi3m/rss-bsky/app/feed"
	"github.com/lysyi3m/rss-bsky/app/post"
)

func TestObserveCycle(t *testing.T) {
	m := New("rss-bsky", "test")

	m.ObserveCycle(
		feed.Stats{Feeds: 3, FailedFeeds: []string{"Broken"}, Stale: 4, Duplicates: 2, Collected: 5},
		post.Summary{Mode: post.ModeLive, Total: 5, Published: 4, Failed: 1, RecordFailed: 1},
		1500*time.Millisecond,
		42,
	)

	if got := testutil.ToFloat64(m.FeedsFetched); got != 2 {
		t.Errorf("Expected 2 feeds fetched, got %v", got)
	}
	if got := testutil.ToFloat64(m.FeedsFailed); got != 1 {
		t.Errorf("Expected 1 feed failed, got %v", got)
	}
	if got := testutil.ToFloat64(m.EntriesSkipped.WithLabelValues("stale")); got != 4 {
		t.Errorf("Expected 4 stale entries, got %v", got)
	}
	if got := testutil.ToFloat64(m.Posts.WithLabelValues("published")); got != 4 {
		t.Errorf("Expected 4 published posts, got %v", got)
	}
	if got := testutil.ToFloat64(m.Posts.WithLabelValues("failed")); got != 1 {
		t.Errorf("Expected 1 failed post, got %v", got)
	}
	if got := testutil.ToFloat64(m.RecordFailures); got != 1 {
		t.Errorf("Expected 1 record failure, got %v", got)
	}
	if got := testutil.ToFloat64(m.DedupLinks); got != 42 {
		t.Errorf("Expected 42 dedup links, got %v", got)
	}
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New("rss-bsky", "1.2.3")

	r := gin.New()
	r.GET("/metrics", m.Handler())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `rss_bsky_service_info{version="1.2.3"} 1`) {
		t.Errorf("Expected service info in metrics output, got:\n%s", body)
	}
	if !strings.Contains(body, "rss_bsky_cycle_duration_seconds") {
		t.Error("Expected cycle duration histogram in metrics output")
	}
}
