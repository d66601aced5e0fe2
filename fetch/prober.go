package fetch

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/git-pkgs/altsource/internal/core"
)

// ProbeFailure records a download URL whose size could not be determined.
type ProbeFailure struct {
	URL string
	Err error
}

// ProbeResult is the outcome of ProbeSizes.
type ProbeResult struct {
	Source   core.Source
	Updated  int
	Failures []ProbeFailure
}

// Prober fills in missing version sizes from the hosts serving the builds.
type Prober struct {
	client Client
	limit  int
}

// NewProber creates a Prober issuing at most limit requests at once.
func NewProber(c Client, limit int) *Prober {
	if limit <= 0 {
		limit = 8
	}
	return &Prober{client: c, limit: limit}
}

// ProbeSizes HEADs the download URL of every version whose size is zero
// and returns a copy of src with sizes taken from Content-Length. A URL that
// fails is listed in Failures and leaves its versions unchanged; only
// cancellation of ctx aborts the run.
func (p *Prober) ProbeSizes(ctx context.Context, src core.Source) (ProbeResult, error) {
	var urls []string
	seen := make(map[string]bool)
	for _, app := range src.Apps {
		for _, v := range app.Versions {
			if v.Size != 0 || v.DownloadURL == "" || seen[v.DownloadURL] {
				continue
			}
			seen[v.DownloadURL] = true
			urls = append(urls, v.DownloadURL)
		}
	}

	var (
		mu       sync.Mutex
		sizes    = make(map[string]int64, len(urls))
		failures = make(map[string]error)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for _, u := range urls {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			size, _, err := p.client.Head(gctx, u)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failures[u] = err
			case size > 0:
				sizes[u] = size
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ProbeResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return ProbeResult{}, err
	}

	out := src.Clone()
	result := ProbeResult{}
	for i := range out.Apps {
		for j := range out.Apps[i].Versions {
			v := &out.Apps[i].Versions[j]
			if v.Size != 0 {
				continue
			}
			if size, ok := sizes[v.DownloadURL]; ok {
				v.Size = size
				result.Updated++
			}
		}
	}
	for _, u := range urls {
		if err, ok := failures[u]; ok {
			result.Failures = append(result.Failures, ProbeFailure{URL: u, Err: err})
		}
	}
	result.Source = out
	return result, nil
}
