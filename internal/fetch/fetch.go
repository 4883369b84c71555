// Package fetch retrieves lesson pages and image assets over HTTP with
// bounded retry and an optional on-disk cache that revalidates with
// conditional requests.
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

	"github.com/consecrate/autocard/internal/cache"
)

// Client wraps http.Client with a user agent, limited retry on transient
// errors, and conditional revalidation against the cache.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxAttempts includes the initial attempt. Minimum 1.
	MaxAttempts int
	// PerRequestTimeout bounds each request.
	PerRequestTimeout time.Duration
	// Cache, when set, stores GET bodies and revalidation headers.
	Cache *cache.HTTPCache
}

// GetPage fetches a lesson page and fails on non-HTML content types.
func (c *Client) GetPage(ctx context.Context, pageURL string) ([]byte, error) {
	body, ct, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	if !isHTMLContentType(ct) {
		return nil, fmt.Errorf("unsupported content type for page: %s", ct)
	}
	return body, nil
}

// GetAsset fetches a binary asset (typically an image) and returns the
// body and its content type.
func (c *Client) GetAsset(ctx context.Context, assetURL string) ([]byte, string, error) {
	return c.get(ctx, assetURL)
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	var etag, lastMod string
	if c.Cache != nil {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		body, ct, status, newEtag, newLastMod, err := c.tryOnce(ctx, rawURL, etag, lastMod)
		if err == nil {
			if status == http.StatusNotModified && c.Cache != nil {
				if cached, err := c.Cache.LoadBody(ctx, rawURL); err == nil {
					return cached, ct, nil
				}
				// Cached meta without a body; refetch unconditionally.
				etag, lastMod = "", ""
				continue
			}
			if c.Cache != nil && status == http.StatusOK {
				_ = c.Cache.Save(ctx, rawURL, ct, newEtag, newLastMod, body)
			}
			return body, ct, nil
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			return nil, "", err
		}
		time.Sleep(time.Duration(i+1) * 200 * time.Millisecond)
	}
	if lastErr == nil {
		lastErr = errors.New("unknown fetch error")
	}
	return nil, "", lastErr
}

func (c *Client) tryOnce(ctx context.Context, rawURL, etag, lastMod string) ([]byte, string, int, string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", 0, "", "", fmt.Errorf("new request: %w", err)
	}
	if req.URL == nil || !isHTTPScheme(req.URL) {
		return nil, "", 0, "", "", fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(req.Context(), c.PerRequestTimeout)
		defer cancel()
		req = req.WithContext(ctx)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, "", 0, "", "", err
	}
	defer resp.Body.Close()

	ct := resp.Header.Get("Content-Type")
	switch {
	case resp.StatusCode >= 500:
		return nil, "", resp.StatusCode, "", "", fmt.Errorf("server error: %d", resp.StatusCode)
	case resp.StatusCode == http.StatusNotModified:
		return nil, ct, resp.StatusCode, "", "", nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, "", resp.StatusCode, "", "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", resp.StatusCode, "", "", fmt.Errorf("read body: %w", err)
	}
	return body, ct, resp.StatusCode, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(err.Error(), "server error:")
}

func isHTTPScheme(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	return ct == "" || strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}
