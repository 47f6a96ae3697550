package main

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fwojciec/docindex"
	"github.com/fwojciec/docindex/crawl"
)

// Run executes the sync command.
func (c *SyncCmd) Run(deps *Dependencies) error {
	if !c.JSON {
		// Progress is reported from worker goroutines when concurrency > 1.
		var mu sync.Mutex
		deps.Syncer.Progress = func(event crawl.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			switch event.Type {
			case crawl.ProgressStarted:
				fmt.Fprintf(deps.Stdout, "Crawling %d pages from %s\n", event.Total, c.URL)
			case crawl.ProgressFailed:
				fmt.Fprintf(deps.Stderr, "  failed %s: %s\n", event.URL, docindex.ErrorMessage(event.Error))
			}
		}
	}

	begin := deps.Now()
	result, err := deps.Syncer.Run(deps.Ctx, c.URL)
	if deps.Metrics != nil {
		deps.Metrics.ObserveResult(result, begin, deps.Now())
		if mErr := deps.Metrics.WriteFile(deps.MetricsFile); mErr != nil {
			fmt.Fprintf(deps.Stderr, "warning: %s\n", docindex.ErrorMessage(mErr))
		}
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(result); encErr != nil && err == nil {
			err = encErr
		}
		return err
	}

	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", docindex.ErrorMessage(err))
		return err
	}

	printSummary(deps, c.Index, result)
	return nil
}

func printSummary(deps *Dependencies, index string, result *docindex.Result) {
	for _, u := range result.SkippedPages {
		fmt.Fprintf(deps.Stdout, "  skipped %s\n", u)
	}

	if result.DryRun {
		fmt.Fprintf(deps.Stdout, "Dry run: would upsert %d and delete %d records in %q (%d sections from %d pages)\n",
			result.NewRecordsCount, result.DeletedRecordsCount, index, result.TotalRecordsCount, result.PagesCrawled)
		return
	}

	if result.NewRecordsCount == 0 && result.DeletedRecordsCount == 0 {
		fmt.Fprintf(deps.Stdout, "Index %q is up to date (%d sections from %d pages)\n",
			index, result.TotalRecordsCount, result.PagesCrawled)
		return
	}

	fmt.Fprintf(deps.Stdout, "Synced %q: %d new, %d deleted (%d sections from %d pages)\n",
		index, result.NewRecordsCount, result.DeletedRecordsCount, result.TotalRecordsCount, result.PagesCrawled)
}
