package feed

import (
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

// Epoch is assigned to entries that carry no usable date
var Epoch = time.Unix(0, 0).UTC()

// textual date layouts tried in order, RFC 2822 variants first
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 MST",
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
	time.RFC3339Nano,
}

// offsets of the RFC 822 zone names; Parse gives unknown abbreviations offset 0
var rfc822Zones = map[string]int{
	"EST": -5 * 3600,
	"EDT": -4 * 3600,
	"CST": -6 * 3600,
	"CDT": -5 * 3600,
	"MST": -7 * 3600,
	"MDT": -6 * 3600,
	"PST": -8 * 3600,
	"PDT": -7 * 3600,
}

func NewEntry(item *gofeed.Item) Entry {
	entry := Entry{
		Title: strings.TrimSpace(item.Title),
		Link:  strings.TrimSpace(item.Link),
	}

	if item.PublishedParsed != nil {
		t := *item.PublishedParsed
		entry.PublishedParsed = &t
	}
	if item.UpdatedParsed != nil {
		t := *item.UpdatedParsed
		entry.UpdatedParsed = &t
	}
	if s := strings.TrimSpace(item.Published); s != "" {
		entry.Published = &s
	}
	if s := strings.TrimSpace(item.Updated); s != "" {
		entry.Updated = &s
	}

	return entry
}

// ResolveInstant picks the entry's publication instant in UTC. Structured
// dates win over textual ones, published wins over updated, and an entry
// with nothing parseable gets Epoch.
func ResolveInstant(entry Entry) time.Time {
	for _, t := range []*time.Time{entry.PublishedParsed, entry.UpdatedParsed} {
		if t != nil {
			return t.UTC()
		}
	}

	for _, s := range []*string{entry.Published, entry.Updated} {
		if s == nil {
			continue
		}
		if t, ok := parseDate(*s); ok {
			return t.UTC()
		}
	}

	return Epoch
}

// DisplayDate is the human-readable date shown in previews
func DisplayDate(entry Entry, instant time.Time) string {
	if entry.Published != nil {
		return *entry.Published
	}
	if entry.Updated != nil {
		return *entry.Updated
	}
	return instant.Format("2006-01-02")
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return withZoneOffset(t), true
		}
	}

	return time.Time{}, false
}

func withZoneOffset(t time.Time) time.Time {
	name, offset := t.Zone()
	if offset != 0 {
		return t
	}
	zoneOffset, ok := rfc822Zones[name]
	if !ok {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.FixedZone(name, zoneOffset))
}
