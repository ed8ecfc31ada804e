package post

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lysyi3m/rss-bsky/app/feed"
)

type publishCall struct {
	text    string
	preview LinkPreview
}

type mockPublisher struct {
	calls []publishCall
	fail  map[string]error
}

func (m *mockPublisher) Publish(ctx context.Context, text string, preview LinkPreview) error {
	m.calls = append(m.calls, publishCall{text: text, preview: preview})
	if err, ok := m.fail[preview.URI]; ok {
		return err
	}
	return nil
}

type mockRecorder struct {
	links []string
	err   error
}

func (m *mockRecorder) Record(ctx context.Context, link string) error {
	if m.err != nil {
		return m.err
	}
	m.links = append(m.links, link)
	return nil
}

func testItems(now time.Time) []feed.Item {
	return []feed.Item{
		{Title: "Middle", Link: "https://x/middle", Source: "X", Instant: now.Add(-2 * time.Hour)},
		{Title: "Newest", Link: "https://x/newest", Source: "X", Instant: now.Add(-1 * time.Hour)},
		{Title: "Oldest", Link: "https://x/oldest", Source: "Y", Instant: now.Add(-3 * time.Hour)},
	}
}

func TestSchedulerPublishesOldestFirst(t *testing.T) {
	publisher := &mockPublisher{}
	scheduler := NewScheduler(NewFormatter(), publisher, nil, false, &bytes.Buffer{})

	summary := scheduler.Run(context.Background(), testItems(time.Now()), ModeLive)

	if summary.Published != 3 {
		t.Errorf("Expected 3 published, got %d", summary.Published)
	}

	expected := []string{"https://x/oldest", "https://x/middle", "https://x/newest"}
	if len(publisher.calls) != len(expected) {
		t.Fatalf("Expected %d publish calls, got %d", len(expected), len(publisher.calls))
	}
	for i, call := range publisher.calls {
		if call.preview.URI != expected[i] {
			t.Errorf("Call %d: expected %s, got %s", i, expected[i], call.preview.URI)
		}
	}
}

func TestSchedulerStableOrderForEqualInstants(t *testing.T) {
	now := time.Now()
	items := []feed.Item{
		{Title: "First", Link: "https://x/1", Instant: now},
		{Title: "Second", Link: "https://x/2", Instant: now},
		{Title: "Third", Link: "https://x/3", Instant: now},
	}
	publisher := &mockPublisher{}

	NewScheduler(NewFormatter(), publisher, nil, false, &bytes.Buffer{}).Run(context.Background(), items, ModeLive)

	for i, call := range publisher.calls {
		if call.preview.URI != items[i].Link {
			t.Errorf("Expected input order to be kept for ties, got %s at %d", call.preview.URI, i)
		}
	}
}

func TestSchedulerDoesNotReorderInput(t *testing.T) {
	items := testItems(time.Now())
	NewScheduler(NewFormatter(), &mockPublisher{}, nil, false, &bytes.Buffer{}).Run(context.Background(), items, ModeLive)

	if items[0].Title != "Middle" {
		t.Error("Expected caller's slice to be left untouched")
	}
}

func TestSchedulerLinkPreview(t *testing.T) {
	publisher := &mockPublisher{}
	item := feed.Item{Title: "Hello", Link: "https://x/hello", Source: "Blog", Instant: time.Now()}

	NewScheduler(NewFormatter(), publisher, nil, false, &bytes.Buffer{}).Run(context.Background(), []feed.Item{item}, ModeLive)

	if len(publisher.calls) != 1 {
		t.Fatalf("Expected 1 call, got %d", len(publisher.calls))
	}
	call := publisher.calls[0]
	if call.text != "📝 Hello\n✍️ Blog" {
		t.Errorf("Unexpected post text: %q", call.text)
	}
	if call.preview.Title != "Hello" {
		t.Errorf("Expected preview title 'Hello', got '%s'", call.preview.Title)
	}
	if call.preview.Description != "Article de Blog" {
		t.Errorf("Expected preview description naming the source, got '%s'", call.preview.Description)
	}
	if call.preview.URI != "https://x/hello" {
		t.Errorf("Expected preview URI to be the link, got '%s'", call.preview.URI)
	}
}

func TestSchedulerContinuesAfterFailure(t *testing.T) {
	publisher := &mockPublisher{fail: map[string]error{"https://x/middle": errors.New("rate limited")}}
	recorder := &mockRecorder{}

	summary := NewScheduler(NewFormatter(), publisher, recorder, true, &bytes.Buffer{}).Run(context.Background(), testItems(time.Now()), ModeLive)

	if len(publisher.calls) != 3 {
		t.Errorf("Expected every item to be attempted, got %d calls", len(publisher.calls))
	}
	if summary.Published != 2 || summary.Failed != 1 {
		t.Errorf("Expected 2 published and 1 failed, got %+v", summary)
	}
	if len(recorder.links) != 2 {
		t.Fatalf("Expected 2 recorded links, got %d", len(recorder.links))
	}
	for _, link := range recorder.links {
		if link == "https://x/middle" {
			t.Error("Expected failed publish not to be recorded")
		}
	}
}

func TestSchedulerRecordOnPublishDisabled(t *testing.T) {
	recorder := &mockRecorder{}

	summary := NewScheduler(NewFormatter(), &mockPublisher{}, recorder, false, &bytes.Buffer{}).Run(context.Background(), testItems(time.Now()), ModeLive)

	if summary.Published != 3 {
		t.Errorf("Expected 3 published, got %d", summary.Published)
	}
	if len(recorder.links) != 0 {
		t.Errorf("Expected no recorded links, got %v", recorder.links)
	}
}

func TestSchedulerRecordFailureDoesNotStopRun(t *testing.T) {
	recorder := &mockRecorder{err: errors.New("disk full")}

	summary := NewScheduler(NewFormatter(), &mockPublisher{}, recorder, true, &bytes.Buffer{}).Run(context.Background(), testItems(time.Now()), ModeLive)

	if summary.Published != 3 || summary.RecordFailed != 3 {
		t.Errorf("Expected 3 published and 3 record failures, got %+v", summary)
	}
}

func TestSchedulerDryRun(t *testing.T) {
	var out bytes.Buffer
	publisher := &mockPublisher{}
	recorder := &mockRecorder{}
	item := feed.Item{
		Title:       "Fresh article",
		Link:        "https://x/fresh",
		Source:      "Blog",
		DisplayDate: "Mon, 03 Jul 2023 10:00:00 GMT",
		Instant:     time.Now().Add(-2 * time.Hour),
	}

	summary := NewScheduler(NewFormatter(), publisher, recorder, true, &out).Run(context.Background(), []feed.Item{item}, ModeDryRun)

	if summary.WouldPublish != 1 || summary.Published != 0 {
		t.Errorf("Expected 1 would-publish and 0 published, got %+v", summary)
	}
	if len(publisher.calls) != 0 {
		t.Error("Expected no publish calls in dry-run mode")
	}
	if len(recorder.links) != 0 {
		t.Error("Expected dry-run not to record links")
	}

	preview := out.String()
	for _, want := range []string{"Title: Fresh article", "Source: Blog", "Date: Mon, 03 Jul 2023 10:00:00 GMT", "Link: https://x/fresh", "📝 Fresh article\n✍️ Blog", "🔗 https://x/fresh"} {
		if !strings.Contains(preview, want) {
			t.Errorf("Expected preview to contain %q, got:\n%s", want, preview)
		}
	}
	if summary.Message() != "🔍 [DRY RUN] 1 article(s) would be published." {
		t.Errorf("Unexpected summary message: %s", summary.Message())
	}
}

func TestSchedulerDryRunIsRepeatable(t *testing.T) {
	items := testItems(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	var first, second bytes.Buffer
	s1 := NewScheduler(NewFormatter(), nil, nil, false, &first).Run(context.Background(), items, ModeDryRun)
	s2 := NewScheduler(NewFormatter(), nil, nil, false, &second).Run(context.Background(), items, ModeDryRun)

	if s1 != s2 {
		t.Errorf("Expected identical summaries, got %+v and %+v", s1, s2)
	}
	if first.String() != second.String() {
		t.Error("Expected identical previews for identical input")
	}
}

func TestSchedulerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	publisher := &mockPublisher{}

	summary := NewScheduler(NewFormatter(), publisher, nil, false, &bytes.Buffer{}).Run(ctx, testItems(time.Now()), ModeLive)

	if len(publisher.calls) != 0 || summary.Published != 0 {
		t.Errorf("Expected nothing published after cancellation, got %+v", summary)
	}
}

func TestSummaryMessage(t *testing.T) {
	tests := []struct {
		summary  Summary
		expected string
	}{
		{Summary{Mode: ModeLive}, "ℹ️  No new articles to publish."},
		{Summary{Mode: ModeDryRun}, "ℹ️  No new articles to publish."},
		{Summary{Mode: ModeLive, Total: 2, Published: 2}, "🎉 2 article(s) published to Bluesky!"},
		{Summary{Mode: ModeLive, Total: 3, Published: 2, Failed: 1}, "🎉 2 article(s) published to Bluesky, 1 failed."},
		{Summary{Mode: ModeDryRun, Total: 4, WouldPublish: 4}, "🔍 [DRY RUN] 4 article(s) would be published."},
	}

	for _, tt := range tests {
		if got := tt.summary.Message(); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}
