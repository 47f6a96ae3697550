package main

import (
	"context"
	"io"
	"time"

	"github.com/fwojciec/docindex"
	"github.com/fwojciec/docindex/crawl"
	diprom "github.com/fwojciec/docindex/prometheus"
)

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	IndexURL   string `name:"index-url" env:"UPSTASH_SEARCH_REST_URL" help:"Upstash Search REST URL"`
	IndexToken string `name:"index-token" env:"UPSTASH_SEARCH_REST_TOKEN" help:"Upstash Search REST token"`
	IndexName  string `name:"index-name" env:"UPSTASH_SEARCH_INDEX" default:"default" help:"Name of the index to sync"`
	DocURL     string `name:"doc-url" env:"DOC_URL" help:"Documentation base URL to crawl"`
	LocalDB    string `name:"local-db" help:"Sync into a local SQLite index at this path instead of Upstash"`

	DryRun      bool          `name:"dry-run" help:"Report changes without writing to the index"`
	SkipFailed  bool          `name:"skip-failed" help:"Skip pages that fail to fetch instead of aborting"`
	Concurrency int           `short:"c" default:"1" help:"Concurrent page fetches"`
	Retry       bool          `help:"Retry failed page fetches after 1s, 2s and 4s"`
	RPS         float64       `name:"rps" default:"0" help:"Requests per second per host (0 for no limit)"`
	Timeout     time.Duration `short:"t" default:"0s" help:"Fetch timeout per page (0 for none)"`

	JSON        bool   `help:"Print the result as JSON"`
	Verbose     bool   `short:"v" help:"Enable debug logging"`
	LogJSON     bool   `name:"log-json" help:"Write logs as JSON"`
	LogFile     string `name:"log-file" help:"Write logs to a rotated file instead of stderr"`
	MetricsFile string `name:"metrics-file" env:"DOCINDEX_METRICS_FILE" help:"Write Prometheus metrics to this file after the sync"`
}

// Validate checks option combinations that Kong tags cannot express.
func (c *CLI) Validate() error {
	if c.DocURL == "" {
		return docindex.Errorf(docindex.EINVALID, "--doc-url is required")
	}
	if c.LocalDB == "" {
		if c.IndexURL == "" {
			return docindex.Errorf(docindex.EINVALID, "--index-url (or UPSTASH_SEARCH_REST_URL) is required")
		}
		if c.IndexToken == "" {
			return docindex.Errorf(docindex.EINVALID, "--index-token (or UPSTASH_SEARCH_REST_TOKEN) is required")
		}
	}
	if c.IndexName == "" {
		return docindex.Errorf(docindex.EINVALID, "--index-name must not be empty")
	}
	if c.Concurrency < 1 {
		return docindex.Errorf(docindex.EINVALID, "--concurrency must be at least 1")
	}
	return nil
}

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Syncer *crawl.Syncer

	// Metrics, when set, records the result and is written to MetricsFile.
	Metrics     *diprom.Metrics
	MetricsFile string
	Now         func() time.Time
}

// SyncCmd runs one sync and reports the result.
type SyncCmd struct {
	URL   string
	Index string
	JSON  bool
}
