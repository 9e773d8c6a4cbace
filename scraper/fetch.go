package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"homescout/httputil"
)

// Fetcher retrieves a page's raw bytes. The HTTP implementation is the
// default; the browser implementation exists for deployments where the
// classifieds site blocks plain clients.
type Fetcher interface {
	Get(ctx context.Context, pageURL string) ([]byte, error)
	Close() error
}

type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: client}
}

func (f *HTTPFetcher) Get(ctx context.Context, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", httputil.UserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (f *HTTPFetcher) Close() error {
	return nil
}
