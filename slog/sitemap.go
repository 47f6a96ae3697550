// Package slog provides log/slog decorators for the docindex interfaces.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/docindex"
)

// Ensure LoggingSitemapService implements docindex.SitemapService.
var _ docindex.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with logging.
type LoggingSitemapService struct {
	next   docindex.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next docindex.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped service and logs the operation.
// A missing sitemap is expected on many sites and logs at warn level, since
// discovery falls back to page links. Other failures log at error level.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string) (urls []string, err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		switch {
		case docindex.ErrorCode(err) == docindex.EDISCOVERY:
			level = slog.LevelWarn
		case err != nil:
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "sitemap discovery",
			"url", baseURL,
			"count", len(urls),
			"fallback", err == nil && len(urls) == 0,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, baseURL)
}
