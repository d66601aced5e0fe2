package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestBreakerClientGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleSource))
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()
	b := NewBreakerClient(f)

	if states := b.States(); len(states) != 0 {
		t.Errorf("expected no breakers yet, got %v", states)
	}

	resp, err := b.Get(context.Background(), server.URL+"/source.json", "")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	_ = resp.Body.Close()

	states := b.States()
	if len(states) != 1 {
		t.Fatalf("expected one breaker, got %v", states)
	}
	for host, state := range states {
		if state != "closed" {
			t.Errorf("%s: state = %s, want closed", host, state)
		}
	}
}

func TestBreakerClientHead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1234")
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()
	b := NewBreakerClient(f)

	size, _, err := b.Head(context.Background(), server.URL+"/app.ipa")
	if err != nil {
		t.Fatalf("Head failed: %v", err)
	}
	if size != 1234 {
		t.Errorf("size = %d, want 1234", size)
	}
}

func TestBreakerOpensOnFailures(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewFetcher(WithMaxRetries(0), WithBaseDelay(0))
	defer f.Close()
	b := NewBreakerClient(f)

	var lastErr error
	for range 10 {
		_, lastErr = b.Get(context.Background(), server.URL, "")
	}

	if !errors.Is(lastErr, ErrUpstreamDown) {
		t.Errorf("last error = %v, want ErrUpstreamDown", lastErr)
	}
	if got := requests.Load(); got >= 10 {
		t.Errorf("requests = %d, breaker should have stopped some", got)
	}
	for host, state := range b.States() {
		if state != "open" {
			t.Errorf("%s: state = %s, want open", host, state)
		}
	}
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher()
	defer f.Close()
	b := NewBreakerClient(f)

	for range 10 {
		if _, err := b.Get(context.Background(), server.URL, ""); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Get = %v, want ErrNotFound", err)
		}
	}
	for host, state := range b.States() {
		if state != "closed" {
			t.Errorf("%s: state = %s, want closed", host, state)
		}
	}
}

func TestHostKey(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/source.json", "example.com"},
		{"https://cdn.example.com:8443/apps/app.ipa", "cdn.example.com:8443"},
		{"not-a-url", "not-a-url"},
	}

	for _, tt := range tests {
		if got := hostKey(tt.url); got != tt.want {
			t.Errorf("hostKey(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
