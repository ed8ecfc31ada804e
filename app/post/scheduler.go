package post

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/lysyi3m/rss-bsky/app/feed"
)

type Mode int

const (
	ModeLive Mode = iota
	ModeDryRun
)

func (m Mode) String() string {
	if m == ModeDryRun {
		return "dry_run"
	}
	return "live"
}

// DescriptionTemplate is the link card description; %s is the source name
const DescriptionTemplate = "Article de %s"

// LinkPreview is the external embed attached to a post
type LinkPreview struct {
	Title       string
	Description string
	URI         string
}

type Publisher interface {
	Publish(ctx context.Context, text string, preview LinkPreview) error
}

type Recorder interface {
	Record(ctx context.Context, link string) error
}

// Summary aggregates the outcome of one publish run
type Summary struct {
	Mode         Mode
	Total        int
	Published    int
	WouldPublish int
	Failed       int
	RecordFailed int
}

// Message is the final line reported to the user
func (s Summary) Message() string {
	switch {
	case s.Total == 0:
		return "ℹ️  No new articles to publish."
	case s.Mode == ModeDryRun:
		return fmt.Sprintf("🔍 [DRY RUN] %d article(s) would be published.", s.WouldPublish)
	case s.Failed > 0:
		return fmt.Sprintf("🎉 %d article(s) published to Bluesky, %d failed.", s.Published, s.Failed)
	default:
		return fmt.Sprintf("🎉 %d article(s) published to Bluesky!", s.Published)
	}
}

type Scheduler struct {
	formatter       *Formatter
	publisher       Publisher
	recorder        Recorder
	recordOnPublish bool
	out             io.Writer
}

// NewScheduler wires the publish loop. publisher may be nil in dry-run
// mode; recorder is only used when recordOnPublish is set.
func NewScheduler(formatter *Formatter, publisher Publisher, recorder Recorder, recordOnPublish bool, out io.Writer) *Scheduler {
	return &Scheduler{
		formatter:       formatter,
		publisher:       publisher,
		recorder:        recorder,
		recordOnPublish: recordOnPublish,
		out:             out,
	}
}

// Run publishes items oldest first, one at a time. A failed publish is
// logged and skipped; the run never aborts on a single item. Dry-run mode
// only prints previews and touches no state.
func (s *Scheduler) Run(ctx context.Context, items []feed.Item, mode Mode) Summary {
	summary := Summary{Mode: mode, Total: len(items)}

	ordered := slices.Clone(items)
	slices.SortStableFunc(ordered, func(a, b feed.Item) int {
		return a.Instant.Compare(b.Instant)
	})

	for _, item := range ordered {
		if err := ctx.Err(); err != nil {
			slog.Warn("Publish run interrupted", "remaining", summary.Total-summary.Published-summary.WouldPublish-summary.Failed, "error", err)
			break
		}

		body := s.formatter.Run(item)

		if mode == ModeDryRun {
			s.preview(item, body)
			summary.WouldPublish++
			continue
		}

		preview := LinkPreview{
			Title:       item.Title,
			Description: fmt.Sprintf(DescriptionTemplate, item.Source),
			URI:         body.Link,
		}

		if err := s.publisher.Publish(ctx, body.Text, preview); err != nil {
			slog.Error("Failed to publish article", "feed", item.Source, "link", item.Link, "error", err)
			summary.Failed++
			continue
		}

		summary.Published++
		slog.Info("Article published", "feed", item.Source, "title", headline(item.Title), "link", item.Link)

		if s.recordOnPublish && s.recorder != nil {
			if err := s.recorder.Record(ctx, item.Link); err != nil {
				slog.Error("Failed to record published link", "link", item.Link, "error", err)
				summary.RecordFailed++
			}
		}
	}

	return summary
}

func (s *Scheduler) preview(item feed.Item, body Body) {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", strings.Repeat("=", 60))
	fmt.Fprintln(&b, "🔍 [DRY RUN] Article to publish:")
	fmt.Fprintf(&b, "Title: %s\n", item.Title)
	fmt.Fprintf(&b, "Source: %s\n", item.Source)
	fmt.Fprintf(&b, "Date: %s\n", item.DisplayDate)
	fmt.Fprintf(&b, "Link: %s\n", body.Link)
	fmt.Fprintf(&b, "\n📱 Bluesky post:\n%s\n🔗 %s\n", body.Text, body.Link)

	io.WriteString(s.out, b.String())
}

func headline(title string) string {
	runes := []rune(title)
	if len(runes) <= 50 {
		return title
	}
	return string(runes[:50]) + Ellipsis
}
