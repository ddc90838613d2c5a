// Package fetcher downloads published price-list pages and converts their
// HTML to markdown, so price tables can be read by the markdown table parser.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// maxBodyBytes caps the size of a fetched page.
const maxBodyBytes = 32 << 20

// Fetcher abstracts URL fetching and conversion for testability.
type Fetcher interface {
	// FetchAsMarkdown fetches a URL and converts it to markdown.
	FetchAsMarkdown(ctx context.Context, urlStr string) (markdown string, err error)
}

// HTTPFetcher is the production implementation using real HTTP requests.
type HTTPFetcher struct {
	client *http.Client
	conv   *converter.Converter
}

// NewHTTPFetcher creates a new HTTPFetcher with sensible defaults.
func NewHTTPFetcher() *HTTPFetcher {
	return NewHTTPFetcherWithClient(&http.Client{
		Timeout: 30 * time.Second,
	})
}

// NewHTTPFetcherWithClient uses the given client, e.g. one from httptest.
func NewHTTPFetcherWithClient(c *http.Client) *HTTPFetcher {
	return &HTTPFetcher{client: c, conv: newConverter()}
}

// newConverter renders HTML tables as markdown pipe tables. Price lists
// often use plain <td> first rows as headers and colspan group titles.
func newConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithHeaderPromotion(true),
				table.WithSkipEmptyRows(true),
				table.WithSpanCellBehavior(table.SpanBehaviorMirror),
			),
		),
	)
}

// FetchAsMarkdown fetches a URL and converts HTML to markdown.
func (f *HTTPFetcher) FetchAsMarkdown(ctx context.Context, urlStr string) (string, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("parse URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", fmt.Errorf("unsupported URL scheme %q", parsedURL.Scheme)
	}

	// Base URL for relative link resolution
	domain := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "mcp-poz-match/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	markdown, err := f.conv.ConvertString(
		string(body),
		converter.WithDomain(domain),
	)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}

	return markdown, nil
}
