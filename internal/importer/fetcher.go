package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pders01/mrkt/internal/catalog"
	"github.com/pders01/mrkt/internal/config"
)

const (
	maxFeedBytes      = 10 << 20
	defaultRetryAfter = 15 * time.Minute
)

// StatusError is a non-success HTTP answer from a feed server.
type StatusError struct {
	Code       int
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d", e.Code)
}

// Response is a feed body together with its cache validators.
type Response struct {
	Body         []byte
	ETag         string
	LastModified string
	NotModified  bool
}

type Fetcher struct {
	client      *http.Client
	userAgent   string
	ignoreCache bool
}

func NewFetcher(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Import.HTTPTimeout},
		userAgent: cfg.Import.UserAgent,
	}
}

// SetIgnoreCache makes Fetch skip the conditional request headers.
func (f *Fetcher) SetIgnoreCache(ignore bool) {
	f.ignoreCache = ignore
}

// Fetch downloads url. When meta carries validators from the previous import
// of the same URL, the request is conditional and a 304 yields NotModified.
func (f *Fetcher) Fetch(ctx context.Context, url string, meta *catalog.ImportMeta) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml, text/xml")

	if !f.ignoreCache && meta != nil && meta.FeedURL == url {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		out := &Response{NotModified: true}
		if meta != nil {
			out.ETag, out.LastModified = meta.ETag, meta.LastModified
		}
		return out, nil
	}
	if resp.StatusCode >= 400 {
		return nil, &StatusError{Code: resp.StatusCode, RetryAfter: retryAfter(resp)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return &Response{
		Body:         body,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}

// retryAfter reads Retry-After as seconds or an HTTP date.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
		return 0
	}
	return defaultRetryAfter
}
