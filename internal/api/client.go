// Package api is a client for the remote media-download job API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Mode selects how the server interprets an ambiguous target.
type Mode string

const (
	ModeProfile Mode = "profile"
	ModePost    Mode = "post"
	ModeAuto    Mode = "auto"
)

// Client talks to the download API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets a logger for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) {
		c.log = log.With("component", "api")
	}
}

// NewClient creates a download API client.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: slog.Default().With("component", "api"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmissionOutcome is the result of submitting a download job. The server
// speaks one of two contracts: an asynchronous one that returns a job id to
// poll, or a synchronous one that returns the resolved media URLs directly.
// Exactly one of the two accessors is meaningful; Async reports which.
type SubmissionOutcome struct {
	jobID     string
	mediaURLs []string
}

// NewAsyncOutcome constructs an outcome carrying a job id. Production code
// gets outcomes from Submit; this exists for fakes in tests.
func NewAsyncOutcome(jobID string) SubmissionOutcome {
	return SubmissionOutcome{jobID: jobID}
}

// NewSyncOutcome constructs an outcome carrying resolved media URLs.
func NewSyncOutcome(mediaURLs []string) SubmissionOutcome {
	return SubmissionOutcome{mediaURLs: mediaURLs}
}

// Async reports whether the outcome carries a job id to poll.
func (o SubmissionOutcome) Async() bool { return o.jobID != "" }

// JobID returns the job id for the asynchronous contract.
func (o SubmissionOutcome) JobID() string { return o.jobID }

// MediaURLs returns the resolved URLs for the synchronous contract.
func (o SubmissionOutcome) MediaURLs() []string { return o.mediaURLs }

type downloadRequest struct {
	Target       string `json:"target"`
	DownloadType Mode   `json:"download_type"`
}

// submitResponse covers both server contracts; the populated field decides
// which one this server speaks.
type submitResponse struct {
	JobID     string   `json:"job_id"`
	MediaURLs []string `json:"media_urls"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Submit creates a download job for target. The response shape is inspected
// exactly once here; callers branch on SubmissionOutcome.Async.
func (c *Client) Submit(ctx context.Context, target string, mode Mode) (SubmissionOutcome, error) {
	c.log.Debug("submitting download", "target", target, "mode", mode)

	body, err := json.Marshal(downloadRequest{Target: target, DownloadType: mode})
	if err != nil {
		return SubmissionOutcome{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/download", bytes.NewReader(body))
	if err != nil {
		return SubmissionOutcome{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("submit request failed", "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return SubmissionOutcome{}, ctxErr
		}
		return SubmissionOutcome{}, ErrUnavailable
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return SubmissionOutcome{}, fmt.Errorf("submit download: %s", errorDetail(resp))
	}

	var sr submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return SubmissionOutcome{}, fmt.Errorf("decode response: %w", err)
	}

	if sr.JobID != "" {
		c.log.Debug("job created", "job_id", sr.JobID)
		return SubmissionOutcome{jobID: sr.JobID}, nil
	}
	c.log.Debug("synchronous result", "media_urls", len(sr.MediaURLs))
	return SubmissionOutcome{mediaURLs: sr.MediaURLs}, nil
}

// Status fetches one status snapshot for a job.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status/"+url.PathEscape(jobID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("status request failed", "job_id", jobID, "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, ErrUnavailable
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("job status: %s", errorDetail(resp))
	}

	var status JobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &status, nil
}

// Profile is the lightweight preview metadata for a profile target.
type Profile struct {
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Followers int64  `json:"followers"`
	Posts     int64  `json:"posts"`
	IsPrivate bool   `json:"is_private"`
	Biography string `json:"biography,omitempty"`
}

// ProfileInfo fetches preview metadata for a username.
// A 404 maps to ErrProfileNotFound; callers treat that as "no preview".
func (c *Client) ProfileInfo(ctx context.Context, username string) (*Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/profile-info/"+url.PathEscape(username), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("profile-info request failed", "username", username, "error", err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, ErrUnavailable
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("profile %s: %w", username, ErrProfileNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile info: %s", errorDetail(resp))
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &p, nil
}

// errorDetail extracts the server's detail message from an error response,
// falling back to the HTTP status text.
func errorDetail(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err == nil {
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Detail != "" {
			return er.Detail
		}
	}
	return fmt.Sprintf("server returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}
