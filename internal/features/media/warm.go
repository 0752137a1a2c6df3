package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const warmConcurrency = 8

// Warmer fetches freshly uploaded CDN URLs once so the first viewer does
// not pay for the origin pull.
type Warmer struct {
	httpClient *http.Client
}

func NewWarmer(timeout time.Duration) *Warmer {
	return &Warmer{httpClient: &http.Client{Timeout: timeout}}
}

type WarmResult struct {
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
}

// Warm requests every URL and reports each outcome in input order. A
// failing URL never stops the others.
func (w *Warmer) Warm(ctx context.Context, urls []string) []WarmResult {
	results := make([]WarmResult, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmConcurrency)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = w.warmOne(ctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (w *Warmer) warmOne(ctx context.Context, url string) WarmResult {
	res := WarmResult{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	resp, err := w.httpClient.Do(req)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	res.Status = resp.StatusCode
	res.OK = resp.StatusCode >= 200 && resp.StatusCode < 400
	if !res.OK {
		res.Error = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return res
}
