package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/docindex"
	"github.com/fwojciec/docindex/crawl"
	"github.com/fwojciec/docindex/goquery"
	dihttp "github.com/fwojciec/docindex/http"
	diprom "github.com/fwojciec/docindex/prometheus"
	dislog "github.com/fwojciec/docindex/slog"
	"github.com/fwojciec/docindex/sqlite"
	"github.com/fwojciec/docindex/upstash"
	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// A missing .env is fine; flags and the environment still apply.
	_ = godotenv.Load()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// HTTPClient is used for page, sitemap and Upstash requests.
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// DB is the local index database when --local-db is set.
	DB *sqlite.DB

	// logFile receives logs when --log-file is set.
	logFile io.Closer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var err error
	if m.DB != nil {
		err = m.DB.Close()
		m.DB = nil
	}
	if m.logFile != nil {
		if e := m.logFile.Close(); e != nil && err == nil {
			err = e
		}
		m.logFile = nil
	}
	return err
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("docindex"),
		kong.Description("Crawl a documentation site and sync its sections into a search index"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	// Handle no arguments
	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided. Run 'docindex --help' for usage")
	}

	// Handle help flags
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	if _, err := parser.Parse(args); err != nil {
		return err
	}

	if err := cli.Validate(); err != nil {
		fmt.Fprintf(stderr, "error: %s\n", docindex.ErrorMessage(err))
		return err
	}

	logOut := stderr
	if cli.LogFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   cli.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
		m.logFile = rotator
		logOut = rotator
	}
	defer m.Close()
	logger := newLogger(logOut, cli.Verbose, cli.LogJSON)

	var metrics *diprom.Metrics
	if cli.MetricsFile != "" {
		metrics = diprom.NewMetrics(cli.IndexName)
	}

	client := m.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	// Wire the index
	var index docindex.SearchIndex
	if cli.LocalDB != "" {
		m.DB = sqlite.NewDB(cli.LocalDB)
		if err := m.DB.Open(); err != nil {
			fmt.Fprintf(stderr, "error: %s\n", docindex.ErrorMessage(err))
			return err
		}
		index = sqlite.NewSearchIndex(m.DB, cli.IndexName)
	} else {
		index = upstash.NewClient(cli.IndexURL, cli.IndexToken, upstash.WithHTTPClient(client)).Index(cli.IndexName)
	}

	if metrics != nil {
		index = diprom.NewInstrumentedSearchIndex(index, metrics)
	}

	// Wire the crawl
	var fetcher docindex.Fetcher = dihttp.NewFetcher(
		dihttp.WithHTTPClient(client),
		dihttp.WithTimeout(cli.Timeout),
	)
	if metrics != nil {
		fetcher = diprom.NewInstrumentedFetcher(fetcher, metrics)
	}
	fetcher = dislog.NewLoggingFetcher(fetcher, logger)
	defer fetcher.Close()

	sitemaps := dislog.NewLoggingSitemapService(dihttp.NewSitemapService(client), logger)

	syncer := &crawl.Syncer{
		Discoverer: &crawl.Discoverer{
			Sitemaps: sitemaps,
			Fetcher:  fetcher,
			Links:    goquery.NewLinkExtractor(),
		},
		Fetcher:     fetcher,
		Extractor:   goquery.NewSectionExtractor(),
		Index:       dislog.NewLoggingSearchIndex(index, logger),
		Logger:      logger,
		Concurrency: cli.Concurrency,
		DryRun:      cli.DryRun,
	}
	if cli.SkipFailed {
		syncer.FailurePolicy = crawl.SkipFailedPages
	}
	if cli.Retry {
		syncer.RetryDelays = crawl.DefaultRetryDelays()
	}
	if cli.RPS > 0 {
		syncer.RateLimiter = crawl.NewDomainLimiter(cli.RPS)
	}

	cmd := &SyncCmd{
		URL:   cli.DocURL,
		Index: cli.IndexName,
		JSON:  cli.JSON,
	}
	return cmd.Run(&Dependencies{
		Ctx:         ctx,
		Stdout:      stdout,
		Stderr:      stderr,
		Syncer:      syncer,
		Metrics:     metrics,
		MetricsFile: cli.MetricsFile,
		Now:         time.Now,
	})
}

// newLogger builds the stderr logger. Debug output is enabled by verbose.
func newLogger(w io.Writer, verbose, asJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
