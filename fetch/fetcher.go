// Package fetch downloads hosted AltSource documents and probes the
// artifacts they list, with retries, per-host circuit breaking and a
// DNS-cached transport.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/dnscache"
)

var (
	ErrNotFound     = errors.New("resource not found")
	ErrNotModified  = errors.New("resource not modified")
	ErrRateLimited  = errors.New("rate limited by host")
	ErrUpstreamDown = errors.New("host unavailable")
	ErrTooLarge     = errors.New("response body too large")
)

// DefaultUserAgent identifies requests made by this package.
const DefaultUserAgent = "altsource/1.0"

// Response is a successful GET.
type Response struct {
	Body        io.ReadCloser
	Size        int64 // -1 if unknown
	ContentType string
	ETag        string
}

// Client is the transport used by SourceClient and Prober.
type Client interface {
	Get(ctx context.Context, url, etag string) (*Response, error)
	Head(ctx context.Context, url string) (size int64, contentType string, err error)
}

// Fetcher performs HTTP requests with exponential retry on 429 and 5xx.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	maxRetries int
	baseDelay  time.Duration
	authFn     func(url string) (headerName, headerValue string)

	stop     chan struct{}
	stopOnce sync.Once
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxRetries sets the maximum retry attempts.
func WithMaxRetries(n int) Option {
	return func(f *Fetcher) {
		f.maxRetries = n
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
func WithBaseDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		f.baseDelay = d
	}
}

// WithAuthFunc sets a function returning an auth header for a URL, for
// sources hosted behind a token. Empty strings skip authentication.
func WithAuthFunc(fn func(url string) (headerName, headerValue string)) Option {
	return func(f *Fetcher) {
		f.authFn = fn
	}
}

// NewFetcher creates a Fetcher. Call Close to stop the DNS refresh loop.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		userAgent:  DefaultUserAgent,
		maxRetries: 3,
		baseDelay:  500 * time.Millisecond,
		stop:       make(chan struct{}),
	}
	f.client = &http.Client{
		Timeout:   time.Minute,
		Transport: f.cachedTransport(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fetcher) cachedTransport() *http.Transport {
	resolver := &dnscache.Resolver{}
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-f.stop:
				return
			case <-ticker.C:
				resolver.Refresh(true)
			}
		}
	}()

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, err
			}
			ips, err := resolver.LookupHost(ctx, host)
			if err != nil {
				return nil, err
			}
			for _, ip := range ips {
				conn, err := dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
				if err == nil {
					return conn, nil
				}
			}
			return nil, fmt.Errorf("failed to dial any resolved IP for %s", host)
		},
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Close stops background DNS refreshing.
func (f *Fetcher) Close() {
	f.stopOnce.Do(func() { close(f.stop) })
}

// Get downloads url. When etag is set the request is conditional and an
// unchanged resource yields ErrNotModified. The caller closes Response.Body.
func (f *Fetcher) Get(ctx context.Context, url, etag string) (*Response, error) {
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			// 10% jitter
			delay := f.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			delay += time.Duration(float64(delay) * (rand.Float64() * 0.1))

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := f.doGet(ctx, url, etag)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamDown) {
			continue
		}
		return nil, err
	}

	return nil, lastErr
}

func (f *Fetcher) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	if f.authFn != nil {
		if name, value := f.authFn(url); name != "" && value != "" {
			req.Header.Set(name, value)
		}
	}
	return req, nil
}

func (f *Fetcher) doGet(ctx context.Context, url, etag string) (*Response, error) {
	req, err := f.newRequest(ctx, http.MethodGet, url)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, */*")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return &Response{
			Body:        resp.Body,
			Size:        contentLength(resp.Header),
			ContentType: resp.Header.Get("Content-Type"),
			ETag:        resp.Header.Get("ETag"),
		}, nil

	case resp.StatusCode == http.StatusNotModified:
		_ = resp.Body.Close()
		return nil, ErrNotModified

	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, ErrNotFound

	case resp.StatusCode == http.StatusTooManyRequests:
		_ = resp.Body.Close()
		return nil, ErrRateLimited

	case resp.StatusCode >= 500:
		_ = resp.Body.Close()
		return nil, ErrUpstreamDown

	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
}

// Head returns the size and content type of url without downloading it.
// Size is -1 when the host sends no Content-Length.
func (f *Fetcher) Head(ctx context.Context, url string) (size int64, contentType string, err error) {
	req, err := f.newRequest(ctx, http.MethodHead, url)
	if err != nil {
		return 0, "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("head request: %w", err)
	}
	_ = resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, "", ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, "", ErrRateLimited
	case resp.StatusCode >= 500:
		return 0, "", ErrUpstreamDown
	case resp.StatusCode != http.StatusOK:
		return 0, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return contentLength(resp.Header), resp.Header.Get("Content-Type"), nil
}

func contentLength(h http.Header) int64 {
	if cl := h.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(cl, 10, 64); err == nil {
			return n
		}
	}
	return -1
}
