package feed

import (
	"time"
)

// Source is one configured feed to poll
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Entry is a single feed item as exposed by the parser. Date fields are
// optional and nil when the feed did not carry them.
type Entry struct {
	Title string
	Link  string

	PublishedParsed *time.Time
	UpdatedParsed   *time.Time
	Published       *string
	Updated         *string
}

// Result is the outcome of fetching and parsing one feed
type Result struct {
	Title   string
	Entries []Entry
}

// Item is a normalized, publish-eligible entry. Link is the dedup key.
type Item struct {
	Title       string
	Link        string
	Source      string
	DisplayDate string
	Instant     time.Time
}

// Sources file layout

type sourcesFile struct {
	Feeds []Source `yaml:"feeds"`
}
