// Package imagehost uploads local image references to a hosting service and
// maps them to the hosted URLs.
package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Options tunes a Client. Zero values pick defaults.
type Options struct {
	// Root is the directory relative image references are read from.
	Root          string
	MaxConcurrent int
	Timeout       time.Duration
	StatsWindow   time.Duration
}

// Client communicates with the image host HTTP API.
type Client struct {
	baseURL       string
	apiKey        string
	root          string
	maxConcurrent int
	httpClient    *http.Client
	stats         *Stats
	log           *slog.Logger

	// backoff is swapped out in tests.
	backoff func(attempt int) time.Duration
}

func NewClient(baseURL, apiKey string, opts Options, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		root:          opts.Root,
		maxConcurrent: opts.MaxConcurrent,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		stats:   NewStats(opts.StatsWindow),
		log:     log,
		backoff: Backoff,
	}
}

// uploadResponse is the body returned by POST /upload.
type uploadResponse struct {
	URL string `json:"url"`
}

// Upload stores data under name and returns the hosted URL.
func (c *Client) Upload(ctx context.Context, name string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &RetryableError{
			StatusCode: resp.StatusCode,
			Message:    string(respBody),
		}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("upload %s: status %d: %s", name, resp.StatusCode, string(respBody))
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.URL == "" {
		return "", fmt.Errorf("upload %s: empty url in response", name)
	}
	return out.URL, nil
}

// uploadWithRetry retries transient failures with jittered backoff.
func (c *Client) uploadWithRetry(ctx context.Context, name string, data []byte) (string, error) {
	var lastErr error
	for attempt := range MaxRetries {
		start := time.Now()
		url, err := c.Upload(ctx, name, data)
		if err == nil {
			c.stats.Record(time.Since(start).Milliseconds(), int64(len(data)))
			return url, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == MaxRetries-1 {
			break
		}
		c.log.Warn("retryable upload error", "image", name, "attempt", attempt, "error", err)
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.stats.RecordFailure()
	return "", lastErr
}

// Resolve uploads every local reference in uris and returns the hosted URL
// for each one that succeeded. Remote references are skipped. Individual
// failures are logged and leave the reference unmapped; only cancellation of
// ctx is reported as an error.
func (c *Client) Resolve(ctx context.Context, uris []string) (map[string]string, error) {
	root, err := os.OpenRoot(c.root)
	if err != nil {
		return nil, fmt.Errorf("open image root: %w", err)
	}
	defer root.Close()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		mapping = make(map[string]string)
		sem     = make(chan struct{}, c.maxConcurrent)
	)
	for _, uri := range uris {
		if IsRemote(uri) {
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		}
		wg.Add(1)
		go func(uri string) {
			defer wg.Done()
			defer func() { <-sem }()

			data, err := readLocal(root, uri)
			if err != nil {
				c.log.Warn("skip image", "image", uri, "error", err)
				c.stats.RecordFailure()
				return
			}
			url, err := c.uploadWithRetry(ctx, path.Base(uri), data)
			if err != nil {
				c.log.Warn("upload failed", "image", uri, "error", err)
				return
			}
			c.log.Debug("uploaded image", "image", uri, "url", url, "size", humanize.Bytes(uint64(len(data))))

			mu.Lock()
			mapping[uri] = url
			mu.Unlock()
		}(uri)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return mapping, nil
}

// Stats returns the rolling upload statistics.
func (c *Client) Stats() StatsSnapshot {
	return c.stats.Snapshot()
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// IsRemote reports whether uri already points at a network or inline resource.
func IsRemote(uri string) bool {
	lower := strings.ToLower(uri)
	for _, prefix := range []string{"http://", "https://", "data:", "//"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

var errEmptyImage = errors.New("empty image file")

// readLocal reads uri beneath root. Leading ".." segments are clamped to root.
func readLocal(root *os.Root, uri string) ([]byte, error) {
	name := strings.TrimPrefix(path.Clean("/"+uri), "/")
	f, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errEmptyImage
	}
	return data, nil
}
