package post

import (
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/lysyi3m/rss-bsky/app/feed"
)

const (
	// MaxPostLength is the Bluesky post budget in characters
	MaxPostLength = 300

	TitleMarker  = "📝 "
	SourceMarker = "\n✍️ "
	Ellipsis     = "..."

	// reserved next to the link when deciding whether to truncate
	linkReservation = 3

	// room kept for both markers, the ellipsis and linkReservation when
	// sizing a truncated title; must stay >= their combined length
	truncationReserve = 20
)

// Body is a rendered post. Link travels separately as the embed target.
type Body struct {
	Text string
	Link string
}

type Formatter struct{}

func NewFormatter() *Formatter {
	return &Formatter{}
}

// Run renders item as "📝 {title}\n✍️ {source}". When the text plus the
// link would exceed MaxPostLength, the title is cut and suffixed with an
// ellipsis. If source and link alone leave no room, the title collapses to
// the bare ellipsis and the result may still exceed the budget.
func (f *Formatter) Run(item feed.Item) Body {
	title := norm.NFC.String(item.Title)
	source := norm.NFC.String(item.Source)
	link := item.Link

	text := render(title, source)

	if length(text)+length(link)+linkReservation > MaxPostLength {
		maxTitle := MaxPostLength - length(source) - length(link) - truncationReserve
		title = truncate(title, maxTitle) + Ellipsis
		text = render(title, source)
	}

	return Body{Text: text, Link: link}
}

func render(title, source string) string {
	return TitleMarker + title + SourceMarker + source
}

// length counts characters the way the budget does: one per code point
func length(s string) int {
	return utf8.RuneCountInString(s)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}

	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
