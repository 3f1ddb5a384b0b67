// Package fetch retrieves individual media items through a pluggable
// proxying strategy.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUpstreamStatus is returned when the media host or proxy answers with a
// non-OK status.
var ErrUpstreamStatus = errors.New("upstream returned non-OK status")

// Strategy retrieves the bytes behind one media URL. Implementations differ
// only in how they reach the cross-origin-restricted host.
type Strategy interface {
	// Fetch retrieves the body of url.
	Fetch(ctx context.Context, url string) ([]byte, error)
	// Name identifies the strategy in logs and config.
	Name() string
}

// maxMediaBytes caps a single media item to guard against a misbehaving host.
const maxMediaBytes = 512 << 20

func defaultHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

func fetchBody(ctx context.Context, hc *http.Client, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// DirectStrategy fetches the raw media URL itself. This relies on the media
// host permitting the request; the proxy strategy exists for hosts that
// block it.
type DirectStrategy struct {
	httpClient *http.Client
}

// NewDirectStrategy creates a strategy that fetches media URLs directly.
func NewDirectStrategy() *DirectStrategy {
	return &DirectStrategy{httpClient: defaultHTTPClient()}
}

func (s *DirectStrategy) Name() string { return "direct" }

func (s *DirectStrategy) Fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	return fetchBody(ctx, s.httpClient, mediaURL)
}

// ProxyStrategy routes the media URL through the API server's proxy
// endpoint, which forwards the bytes from the media host.
type ProxyStrategy struct {
	baseURL    string
	httpClient *http.Client
}

// NewProxyStrategy creates a strategy that fetches through the API proxy
// at baseURL.
func NewProxyStrategy(baseURL string) *ProxyStrategy {
	return &ProxyStrategy{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: defaultHTTPClient(),
	}
}

func (s *ProxyStrategy) Name() string { return "proxy" }

func (s *ProxyStrategy) Fetch(ctx context.Context, mediaURL string) ([]byte, error) {
	reqURL := s.baseURL + "/api/proxy?url=" + url.QueryEscape(mediaURL)
	return fetchBody(ctx, s.httpClient, reqURL)
}
