package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/git-pkgs/altsource/internal/core"
)

func TestProbeSizes(t *testing.T) {
	var heads atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		heads.Add(1)
		switch r.URL.Path {
		case "/a.ipa":
			w.Header().Set("Content-Length", "1048576")
		case "/b.ipa":
			w.Header().Set("Content-Length", "2048")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	src := core.Source{
		Name: "Probe",
		Apps: []core.App{
			{
				BundleIdentifier: "com.a",
				Versions: []core.AppVersion{
					{Version: "2.0", DownloadURL: server.URL + "/a.ipa"},
					{Version: "1.0", DownloadURL: server.URL + "/b.ipa", Size: 99},
				},
			},
			{
				BundleIdentifier: "com.b",
				Versions: []core.AppVersion{
					{Version: "1.0", DownloadURL: server.URL + "/a.ipa"},
					{Version: "0.9", DownloadURL: server.URL + "/gone.ipa"},
					{Version: "0.8"},
				},
			},
		},
	}

	f := NewFetcher(WithMaxRetries(0))
	defer f.Close()

	result, err := NewProber(f, 2).ProbeSizes(context.Background(), src)
	if err != nil {
		t.Fatalf("ProbeSizes failed: %v", err)
	}

	if got := result.Source.Apps[0].Versions[0].Size; got != 1048576 {
		t.Errorf("a.ipa size = %d", got)
	}
	if got := result.Source.Apps[0].Versions[1].Size; got != 99 {
		t.Errorf("known size overwritten: %d", got)
	}
	if got := result.Source.Apps[1].Versions[0].Size; got != 1048576 {
		t.Errorf("shared URL size = %d", got)
	}
	if result.Updated != 2 {
		t.Errorf("Updated = %d, want 2", result.Updated)
	}
	if len(result.Failures) != 1 || result.Failures[0].URL != server.URL+"/gone.ipa" {
		t.Errorf("Failures = %+v", result.Failures)
	}
	// a.ipa is requested once, b.ipa not at all.
	if got := heads.Load(); got != 2 {
		t.Errorf("HEAD requests = %d, want 2", got)
	}
	if src.Apps[0].Versions[0].Size != 0 {
		t.Error("input source was modified")
	}
}

func TestProbeSizesCancelled(t *testing.T) {
	src := core.Source{Apps: []core.App{{
		Versions: []core.AppVersion{{DownloadURL: "http://127.0.0.1:1/app.ipa"}},
	}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(WithMaxRetries(0))
	defer f.Close()

	if _, err := NewProber(f, 1).ProbeSizes(ctx, src); err == nil {
		t.Error("expected error for cancelled context")
	}
}
