// Package firecrawl provides a client for the Firecrawl scraping API.
package firecrawl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Default base URL for the Firecrawl API. Endpoint paths carry their own
// version prefix because scrape and crawl live on different API versions.
const defaultBaseURL = "https://api.firecrawl.dev"

// Client defines the Firecrawl API operations.
type Client interface {
	Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResponse, error)
	Crawl(ctx context.Context, req CrawlRequest) (*CrawlResponse, error)
	GetCrawlStatus(ctx context.Context, id string) (*CrawlStatusResponse, error)
	CancelCrawl(ctx context.Context, id string) (*CancelResponse, error)
}

// ExtractSpec asks Firecrawl to run structured extraction on the page.
type ExtractSpec struct {
	Schema       map[string]any `json:"schema,omitempty"`
	Prompt       string         `json:"prompt,omitempty"`
	SystemPrompt string         `json:"systemPrompt,omitempty"`
}

// ScrapeRequest is the body for POST /v1/scrape.
type ScrapeRequest struct {
	URL                string       `json:"url"`
	Formats            []string     `json:"formats,omitempty"`
	OnlyMainContent    bool         `json:"onlyMainContent,omitempty"`
	WaitFor            int          `json:"waitFor,omitempty"`
	Timeout            int          `json:"timeout,omitempty"`
	Extract            *ExtractSpec `json:"extract,omitempty"`
	RemoveBase64Images bool         `json:"removeBase64Images,omitempty"`
	MaxAge             int          `json:"maxAge,omitempty"`
	Proxy              string       `json:"proxy,omitempty"`
}

// ScrapeResponse is the response from POST /v1/scrape.
type ScrapeResponse struct {
	Success bool     `json:"success"`
	Data    PageData `json:"data"`
	Error   string   `json:"error,omitempty"`
}

// PageData represents a single page result from Firecrawl.
type PageData struct {
	URL        string         `json:"url,omitempty"`
	Title      string         `json:"title,omitempty"`
	Content    string         `json:"content,omitempty"`
	Markdown   string         `json:"markdown,omitempty"`
	HTML       string         `json:"html,omitempty"`
	Extract    map[string]any `json:"extract,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	StatusCode int            `json:"statusCode,omitempty"`
}

// ScrapeOptions configures per-page scraping within a crawl.
type ScrapeOptions struct {
	Formats         []string `json:"formats,omitempty"`
	OnlyMainContent bool     `json:"onlyMainContent,omitempty"`
}

// CrawlRequest is the body for POST /v2/crawl.
type CrawlRequest struct {
	URL             string         `json:"url"`
	MaxDepth        int            `json:"maxDepth,omitempty"`
	Limit           int            `json:"limit,omitempty"`
	ChangeDetection bool           `json:"changeDetection,omitempty"`
	ExcludePaths    []string       `json:"excludePaths,omitempty"`
	ScrapeOptions   *ScrapeOptions `json:"scrapeOptions,omitempty"`
}

// CrawlResponse is the response from POST /v2/crawl. The job identifier has
// been observed under three different keys across API versions, so all three
// are mapped here and resolved by the caller in order.
type CrawlResponse struct {
	Success bool              `json:"success"`
	JobID   string            `json:"jobId,omitempty"`
	ID      string            `json:"id,omitempty"`
	Data    CrawlResponseData `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// CrawlResponseData is the nested envelope some API versions use.
type CrawlResponseData struct {
	JobID string `json:"jobId,omitempty"`
}

// CrawlStatusResponse is the response from GET /v2/crawl/{id}.
type CrawlStatusResponse struct {
	Success   bool       `json:"success"`
	Status    string     `json:"status"`
	Total     int        `json:"total"`
	Completed int        `json:"completed"`
	Data      []PageData `json:"data,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// CancelResponse is the response from DELETE /v2/crawl/{id}.
type CancelResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIError is returned when Firecrawl responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("firecrawl: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Firecrawl client. The base URL (default or
// override) is validated once here: an unusable base URL is a deployment
// problem and should abort startup, not surface per request.
func NewClient(apiKey string, opts ...Option) (Client, error) {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := validateBaseURL(c.baseURL); err != nil {
		return nil, err
	}
	c.baseURL = strings.TrimSuffix(c.baseURL, "/")
	return c, nil
}

// validateBaseURL rejects base URLs that could redirect API traffic:
// non-HTTP schemes and parent-path traversal segments.
func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return eris.Wrap(err, "firecrawl: parse base URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return eris.Errorf("firecrawl: base URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return eris.Errorf("firecrawl: base URL has no host: %q", raw)
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == ".." {
			return eris.Errorf("firecrawl: base URL contains parent path traversal: %q", raw)
		}
	}
	return nil
}

func (c *httpClient) Scrape(ctx context.Context, req ScrapeRequest) (*ScrapeResponse, error) {
	var resp ScrapeResponse
	if err := c.post(ctx, "/v1/scrape", req, &resp); err != nil {
		return nil, eris.Wrap(err, "firecrawl: scrape")
	}
	return &resp, nil
}

func (c *httpClient) Crawl(ctx context.Context, req CrawlRequest) (*CrawlResponse, error) {
	var resp CrawlResponse
	if err := c.post(ctx, "/v2/crawl", req, &resp); err != nil {
		return nil, eris.Wrap(err, "firecrawl: start crawl")
	}
	return &resp, nil
}

func (c *httpClient) GetCrawlStatus(ctx context.Context, id string) (*CrawlStatusResponse, error) {
	var resp CrawlStatusResponse
	if err := c.get(ctx, fmt.Sprintf("/v2/crawl/%s", id), &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("firecrawl: get crawl status %s", id))
	}
	return &resp, nil
}

func (c *httpClient) CancelCrawl(ctx context.Context, id string) (*CancelResponse, error) {
	var resp CancelResponse
	if err := c.del(ctx, fmt.Sprintf("/v2/crawl/%s", id), &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("firecrawl: cancel crawl %s", id))
	}
	return &resp, nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req, out)
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req, out)
}

func (c *httpClient) del(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}
