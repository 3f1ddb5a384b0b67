package fetch

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// Result is the settled outcome of fetching one media URL. A failed fetch is
// a Result with Err set, never a propagated error: sibling fetches must not
// be affected by it.
type Result struct {
	URL      string
	Filename string
	Data     []byte
	Err      error
}

// OK reports whether the fetch produced a payload.
func (r Result) OK() bool { return r.Err == nil }

// Fetcher retrieves media items through a Strategy, optionally gated by a
// rate limiter.
type Fetcher struct {
	strategy Strategy
	limiter  *rate.Limiter
	log      *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithRateLimit caps fetches at n requests per second. Zero or negative n
// leaves fetches ungated.
func WithRateLimit(n float64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(n), 1)
		}
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.log = log.With("component", "fetch")
	}
}

// NewFetcher creates a fetcher over the given strategy.
func NewFetcher(strategy Strategy, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		strategy: strategy,
		log:      slog.Default().With("component", "fetch"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves one media URL. The outcome is always captured in the
// returned Result; transport failures and non-OK statuses become Result.Err.
func (f *Fetcher) Fetch(ctx context.Context, mediaURL string) Result {
	res := Result{URL: mediaURL, Filename: Filename(mediaURL)}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			res.Err = err
			return res
		}
	}

	data, err := f.strategy.Fetch(ctx, mediaURL)
	if err != nil {
		f.log.Debug("fetch failed", "url", mediaURL, "strategy", f.strategy.Name(), "error", err)
		res.Err = err
		return res
	}

	f.log.Debug("fetch complete", "file", res.Filename, "bytes", len(data))
	res.Data = data
	return res
}

// Strategy returns the underlying proxying strategy.
func (f *Fetcher) Strategy() Strategy { return f.strategy }

// Filename derives an archive entry name from the final path segment of a
// media URL, with the query string dropped and percent-escapes decoded.
// Names are not deduplicated across URLs; two URLs sharing a final segment
// produce colliding entries.
func Filename(mediaURL string) string {
	const fallback = "media"

	u, err := url.Parse(mediaURL)
	if err != nil {
		return fallback
	}

	path := u.Path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}
	if path == "" {
		return fallback
	}
	return path
}
