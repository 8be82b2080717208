// Package fetcher provides the HTTP client used by the analyzer: page
// fetches, raw document fetches, link probes and image probes, all with
// manual redirect following and transport errors mapped to status codes.
package fetcher

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxRedirects = 5

// Options configures a Client. Zero values fall back to the defaults below.
type Options struct {
	UserAgent         string
	PageTimeout       time.Duration
	RawTimeout        time.Duration
	HeadTimeout       time.Duration
	ImageProbeTimeout time.Duration
	MaxBodyBytes      int64
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		UserAgent:         "msd-seo-audit/1.0 (+https://github.com/upworkmkd/msd-seo-audit)",
		PageTimeout:       30 * time.Second,
		RawTimeout:        10 * time.Second,
		HeadTimeout:       10 * time.Second,
		ImageProbeTimeout: 5 * time.Second,
		MaxBodyBytes:      10 << 20,
	}
}

// Client implements the analyzer's PageFetcher, RawFetcher, LinkProber and
// ImageProber interfaces over a single shared transport.
type Client struct {
	http *http.Client
	opts Options
}

// New creates a Client with a pooled transport. Redirects are followed
// manually so the final URL can be reported and the hop count bounded.
func New(opts Options) *Client {
	defaults := DefaultOptions()
	if opts.UserAgent == "" {
		opts.UserAgent = defaults.UserAgent
	}
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = defaults.PageTimeout
	}
	if opts.RawTimeout <= 0 {
		opts.RawTimeout = defaults.RawTimeout
	}
	if opts.HeadTimeout <= 0 {
		opts.HeadTimeout = defaults.HeadTimeout
	}
	if opts.ImageProbeTimeout <= 0 {
		opts.ImageProbeTimeout = defaults.ImageProbeTimeout
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaults.MaxBodyBytes
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DisableCompression:  true,
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		opts: opts,
	}
}

// FetchPage retrieves a page for full analysis. On transport failure it
// returns the mapped status code together with the error.
func (c *Client) FetchPage(ctx context.Context, rawURL string) (int, []byte, http.Header, string, error) {
	resp, finalURL, err := c.do(ctx, http.MethodGet, rawURL, c.opts.PageTimeout)
	if err != nil {
		return MapTransportError(err), nil, nil, rawURL, err
	}
	defer resp.Body.Close()

	body, err := c.readBody(resp)
	if err != nil {
		return MapTransportError(err), nil, nil, finalURL, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, resp.Header, finalURL, nil
}

// FetchRaw retrieves a raw document such as a sitemap or robots.txt.
func (c *Client) FetchRaw(ctx context.Context, rawURL string) (int, []byte, string, error) {
	resp, finalURL, err := c.do(ctx, http.MethodGet, rawURL, c.opts.RawTimeout)
	if err != nil {
		return MapTransportError(err), nil, rawURL, err
	}
	defer resp.Body.Close()

	body, err := c.readBody(resp)
	if err != nil {
		return MapTransportError(err), nil, finalURL, fmt.Errorf("read body: %w", err)
	}
	return resp.StatusCode, body, finalURL, nil
}

// Head probes a link's liveness without downloading the body.
func (c *Client) Head(ctx context.Context, rawURL string) (int, error) {
	resp, _, err := c.do(ctx, http.MethodHead, rawURL, c.opts.HeadTimeout)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// ProbeImage reads an image's content type and size from a HEAD response.
func (c *Client) ProbeImage(ctx context.Context, rawURL string) (string, int64, error) {
	resp, _, err := c.do(ctx, http.MethodHead, rawURL, c.opts.ImageProbeTimeout)
	if err != nil {
		return "", 0, err
	}
	resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", 0, fmt.Errorf("probe %s: HTTP %d", rawURL, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if semi := strings.Index(contentType, ";"); semi != -1 {
		contentType = strings.TrimSpace(contentType[:semi])
	}
	return contentType, resp.ContentLength, nil
}

// do issues one request and follows up to maxRedirects hops by hand,
// returning the last response and the URL it was served from.
func (c *Client) do(ctx context.Context, method, rawURL string, timeout time.Duration) (*http.Response, string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)

	current := rawURL
	for hop := 0; ; hop++ {
		req, err := http.NewRequestWithContext(reqCtx, method, current, nil)
		if err != nil {
			cancel()
			return nil, current, fmt.Errorf("build request for %s: %w", current, err)
		}
		req.Header.Set("User-Agent", c.opts.UserAgent)
		req.Header.Set("Accept", "*/*")
		req.Header.Set("Accept-Encoding", "gzip")

		resp, err := c.http.Do(req)
		if err != nil {
			cancel()
			return nil, current, err
		}

		if !isRedirect(resp.StatusCode) {
			// The caller closes the body, which releases the context.
			resp.Body = &cancelingBody{ReadCloser: resp.Body, cancel: cancel}
			return resp, current, nil
		}

		location := resp.Header.Get("Location")
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		if hop >= maxRedirects {
			cancel()
			return nil, current, fmt.Errorf("stopped after %d redirects at %s", maxRedirects, current)
		}
		if location == "" {
			cancel()
			return nil, current, fmt.Errorf("redirect from %s without Location header", current)
		}

		next, err := resolveLocation(current, location)
		if err != nil {
			cancel()
			return nil, current, err
		}
		current = next
	}
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(io.LimitReader(reader, c.opts.MaxBodyBytes))
}

func resolveLocation(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", current, err)
	}
	next, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("parse redirect target %s: %w", location, err)
	}
	return base.ResolveReference(next).String(), nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// cancelingBody ties a request context's cancel func to body closure so
// handing the open body to the caller does not leak the context.
type cancelingBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelingBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// MapTransportError translates a transport failure into the status code an
// equivalent HTTP failure would carry: unresolvable or refused hosts read as
// 404, timeouts as 408 and everything else as 503.
func MapTransportError(err error) int {
	if err == nil {
		return 0
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return http.StatusNotFound
	}
	if strings.Contains(err.Error(), "connection refused") {
		return http.StatusNotFound
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return http.StatusRequestTimeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusRequestTimeout
	}

	return http.StatusServiceUnavailable
}
