package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Bluesky account
	Username string `long:"username" short:"u" env:"BSKY_USERNAME" description:"Bluesky handle (e.g. your-handle.bsky.social)"`
	Password string `long:"password" short:"p" env:"BSKY_PASSWORD" description:"Bluesky app password"`
	PDSHost  string `long:"pds-host" env:"PDS_HOST" description:"PDS host used for XRPC calls (default https://bsky.social)"`
	Lang     string `long:"lang" env:"POST_LANG" description:"Language tag attached to posts (optional, e.g. fr)"`

	// Run configuration
	DryRun          bool   `long:"dry-run" env:"DRY_RUN" description:"Show what would be posted without publishing"`
	HoursBack       int    `long:"hours" env:"HOURS_BACK" default:"24" description:"How many hours back to look for articles"`
	FeedsFile       string `long:"feeds-file" env:"FEEDS_FILE" default:"feeds.yaml" description:"YAML file listing the feeds to poll"`
	RecordOnPublish bool   `long:"record-on-publish" env:"RECORD_ON_PUBLISH" description:"Record published links in the dedup store"`
	WorkerCount     int    `long:"workers" env:"WORKER_COUNT" default:"5" description:"Number of feeds fetched concurrently"`
	Timeout         int    `long:"timeout" env:"FETCH_TIMEOUT" default:"30" description:"HTTP timeout in seconds"`

	// Dedup store
	Store      string `long:"store" env:"DEDUP_STORE" default:"file" choice:"file" choice:"sqlite" description:"Dedup store backend"`
	PostedFile string `long:"posted-file" env:"POSTED_FILE" default:"posted_urls.txt" description:"Flat file of published links (file store)"`
	DBPath     string `long:"db-path" env:"DB_PATH" default:"rss-bsky.db" description:"SQLite database path (sqlite store)"`

	// Daemon mode
	RunInterval int    `long:"interval" env:"RUN_INTERVAL" default:"0" description:"Seconds between runs; 0 runs once and exits"`
	Port        string `long:"port" env:"PORT" description:"Status server port in daemon mode (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Bsky/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load reads .env (if present), environment variables and args. It
// returns nil, nil when help was requested.
func Load(args []string) (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Username:        raw.Username,
		Password:        raw.Password,
		PDSHost:         raw.PDSHost,
		Lang:            raw.Lang,
		DryRun:          raw.DryRun,
		HoursBack:       raw.HoursBack,
		FeedsFile:       raw.FeedsFile,
		RecordOnPublish: raw.RecordOnPublish,
		WorkerCount:     raw.WorkerCount,
		Timeout:         raw.Timeout,
		Store:           raw.Store,
		PostedFile:      raw.PostedFile,
		DBPath:          raw.DBPath,
		RunInterval:     raw.RunInterval,
		Port:            raw.Port,
		UserAgent:       raw.UserAgent,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	// daemon cycles rescan overlapping windows
	if cfg.RunInterval > 0 && !cfg.DryRun && !cfg.RecordOnPublish {
		cfg.RecordOnPublish = true
		slog.Info("Daemon mode records published links", "interval", cfg.Interval().String())
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	if !cfg.DryRun && (cfg.Username == "" || cfg.Password == "") {
		return fmt.Errorf("username and password are required unless --dry-run is set")
	}

	positiveFields := map[string]int{
		"hours":   cfg.HoursBack,
		"workers": cfg.WorkerCount,
		"timeout": cfg.Timeout,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive", fieldName)
		}
	}

	if cfg.RunInterval < 0 {
		return fmt.Errorf("interval must be non-negative")
	}

	return nil
}
