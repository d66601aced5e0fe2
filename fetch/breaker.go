package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// BreakerClient wraps a Client with one circuit breaker per host, so a
// source listing many downloads from a dead mirror stops hammering it.
type BreakerClient struct {
	client   Client
	breakers map[string]*circuit.Breaker
	mu       sync.RWMutex
}

// NewBreakerClient wraps c.
func NewBreakerClient(c Client) *BreakerClient {
	return &BreakerClient{
		client:   c,
		breakers: make(map[string]*circuit.Breaker),
	}
}

func (b *BreakerClient) breaker(host string) *circuit.Breaker {
	b.mu.RLock()
	br, ok := b.breakers[host]
	b.mu.RUnlock()
	if ok {
		return br
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if br, ok := b.breakers[host]; ok {
		return br
	}

	// Trips after 5 consecutive failures.
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	br = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(5),
	})
	b.breakers[host] = br
	return br
}

// healthy reports errors that say nothing about the host being down.
func healthy(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotModified)
}

// Get calls the wrapped client's Get unless the host's breaker is open.
func (b *BreakerClient) Get(ctx context.Context, rawURL, etag string) (*Response, error) {
	host := hostKey(rawURL)
	br := b.breaker(host)
	if !br.Ready() {
		return nil, fmt.Errorf("circuit breaker open for %s: %w", host, ErrUpstreamDown)
	}

	var resp *Response
	var getErr error
	err := br.Call(func() error {
		resp, getErr = b.client.Get(ctx, rawURL, etag)
		if getErr != nil && !healthy(getErr) {
			return getErr
		}
		return nil
	}, 0)
	if getErr != nil {
		return nil, getErr
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Head calls the wrapped client's Head unless the host's breaker is open.
func (b *BreakerClient) Head(ctx context.Context, rawURL string) (size int64, contentType string, err error) {
	host := hostKey(rawURL)
	br := b.breaker(host)
	if !br.Ready() {
		return 0, "", fmt.Errorf("circuit breaker open for %s: %w", host, ErrUpstreamDown)
	}

	var headErr error
	err = br.Call(func() error {
		size, contentType, headErr = b.client.Head(ctx, rawURL)
		if headErr != nil && !healthy(headErr) {
			return headErr
		}
		return nil
	}, 0)
	if headErr != nil {
		return 0, "", headErr
	}
	return size, contentType, err
}

// States reports "open" or "closed" for every host seen so far.
func (b *BreakerClient) States() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	states := make(map[string]string, len(b.breakers))
	for host, br := range b.breakers {
		if br.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

func hostKey(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}
