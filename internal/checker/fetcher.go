package checker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FetchResult is the outcome of a single GET that produced an HTTP response.
type FetchResult struct {
	StatusCode int
	Body       string
	FinalURL   string // after following redirects
}

// HTTPFetcher implements Fetcher on net/http. One attempt per call, no
// retries; redirects are followed transparently.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
}

// NewHTTPFetcher creates a fetcher with a shared connection pool.
func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &HTTPFetcher{
		client:    client,
		userAgent: userAgent,
		headers:   make(map[string]string),
	}
}

// SetCustomHeaders adds headers sent with every request.
func (f *HTTPFetcher) SetCustomHeaders(headers map[string]string) {
	if f.headers == nil {
		f.headers = make(map[string]string)
	}
	for k, v := range headers {
		f.headers[k] = v
	}
}

// Fetch performs the GET. The returned error is transport-level only; its
// text is what the classifier later inspects for TLS hallmarks, so the
// underlying error message is preserved via %w.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	for name, value := range f.headers {
		req.Header.Set(name, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &FetchResult{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		FinalURL:   resp.Request.URL.String(),
	}, nil
}

// Close releases idle connections.
func (f *HTTPFetcher) Close() {
	f.client.CloseIdleConnections()
}
