package cfg

import (
	"time"
)

type Cfg struct {
	// Bluesky account
	Username string
	Password string
	PDSHost  string
	Lang     string

	// Run configuration
	DryRun          bool
	HoursBack       int
	FeedsFile       string
	RecordOnPublish bool
	WorkerCount     int
	Timeout         int // seconds

	// Dedup store
	Store      string
	PostedFile string
	DBPath     string

	// Daemon mode
	RunInterval int // seconds, 0 runs once
	Port        string

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}

func (c *Cfg) Cutoff(now time.Time) time.Time {
	return now.UTC().Add(-time.Duration(c.HoursBack) * time.Hour)
}

func (c *Cfg) FetchTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c *Cfg) Interval() time.Duration {
	return time.Duration(c.RunInterval) * time.Second
}
