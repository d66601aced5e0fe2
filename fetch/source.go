package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/git-pkgs/altsource/internal/core"
)

// DefaultMaxSourceBytes caps the size of a downloaded source document.
const DefaultMaxSourceBytes = 8 << 20

type cachedSource struct {
	etag string
	src  core.Source
}

// SourceClient downloads hosted AltSource documents. Documents served with
// an ETag are cached and revalidated with If-None-Match.
type SourceClient struct {
	client   Client
	cache    *lru.Cache[string, cachedSource]
	maxBytes int64
}

// SourceOption configures a SourceClient.
type SourceOption func(*SourceClient)

// WithMaxBytes caps the accepted document size.
func WithMaxBytes(n int64) SourceOption {
	return func(s *SourceClient) {
		s.maxBytes = n
	}
}

// NewSourceClient creates a SourceClient caching up to cacheSize documents.
func NewSourceClient(c Client, cacheSize int, opts ...SourceOption) (*SourceClient, error) {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cache, err := lru.New[string, cachedSource](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating source cache: %w", err)
	}
	s := &SourceClient{
		client:   c,
		cache:    cache,
		maxBytes: DefaultMaxSourceBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// FetchSource downloads and imports the document at url. The result is a
// private copy the caller may edit.
func (s *SourceClient) FetchSource(ctx context.Context, url string) (core.Source, error) {
	cached, hit := s.cache.Get(url)

	var etag string
	if hit {
		etag = cached.etag
	}

	resp, err := s.client.Get(ctx, url, etag)
	if errors.Is(err, ErrNotModified) && hit {
		return cached.src.Clone(), nil
	}
	if err != nil {
		return core.Source{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return core.Source{}, fmt.Errorf("reading %s: %w", url, err)
	}
	if int64(len(data)) > s.maxBytes {
		return core.Source{}, fmt.Errorf("%s: %w (limit %d bytes)", url, ErrTooLarge, s.maxBytes)
	}

	src, err := core.Import(data)
	if err != nil {
		return core.Source{}, fmt.Errorf("importing %s: %w", url, err)
	}

	if resp.ETag != "" {
		s.cache.Add(url, cachedSource{etag: resp.ETag, src: src.Clone()})
	} else {
		s.cache.Remove(url)
	}
	return src, nil
}

// Forget drops any cached copy of url.
func (s *SourceClient) Forget(url string) {
	s.cache.Remove(url)
}
