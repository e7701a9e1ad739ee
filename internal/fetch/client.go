// Package fetch downloads the wiki page and keeps it in an on-disk cache.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRPS     = 1.0
	defaultBurst   = 1

	// maxBodySize bounds a downloaded page. The real page is a few MB.
	maxBodySize = 64 << 20
)

// ErrBodyTooLarge is returned when a response exceeds maxBodySize.
var ErrBodyTooLarge = errors.New("fetch: response body too large")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	StatusText string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: HTTP %d: %s", e.URL, e.StatusCode, e.StatusText)
}

// Options configure a Client. Zero values use the defaults.
type Options struct {
	UserAgent     string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// Client is a rate-limited HTTP client for the wiki.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a client. A nil logger discards output.
func New(opts Options, logger *slog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = defaultRPS
	}
	if opts.Burst <= 0 {
		opts.Burst = defaultBurst
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		userAgent: opts.UserAgent,
		logger:    logger,
		now:       time.Now,
	}
}

// Page is a downloaded document with its metadata.
type Page struct {
	Body     []byte
	Metadata Metadata
}

// Metadata describes one download. It is stored next to the cached page.
type Metadata struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	DownloadDate time.Time `json:"downloadDate"`
	// Size is the body length in bytes.
	Size       int    `json:"size"`
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
}

// Get downloads url. Responses outside 2xx return a *StatusError.
func (c *Client) Get(ctx context.Context, url string) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "ja,en;q=0.8")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("fetch request", "url", url)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	text := statusText(resp)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode, StatusText: text}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, ErrBodyTooLarge
	}

	c.logger.Debug("fetch response",
		"url", url,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start),
	)

	return &Page{
		Body: body,
		Metadata: Metadata{
			ID:           uuid.NewString(),
			URL:          url,
			DownloadDate: c.now().UTC(),
			Size:         len(body),
			Status:       resp.StatusCode,
			StatusText:   text,
		},
	}, nil
}

// statusText returns the reason phrase of resp, for example "OK".
func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
