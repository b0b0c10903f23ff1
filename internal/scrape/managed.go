package scrape

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/webfetch/internal/classify"
	"github.com/sells-group/webfetch/internal/resilience"
	"github.com/sells-group/webfetch/pkg/firecrawl"
)

// ManagedStrategy delegates scraping to the Firecrawl service: JavaScript
// rendering, anti-bot bypass, and optional structured extraction, at the
// cost of an API call per page.
type ManagedStrategy struct {
	client firecrawl.Client
	retry  resilience.RetryConfig
}

// NewManagedStrategy wraps a Firecrawl client as a Strategy. Transient
// backend failures are retried with exponential backoff; everything else
// fails fast.
func NewManagedStrategy(client firecrawl.Client) *ManagedStrategy {
	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("firecrawl", "scrape")
	return &ManagedStrategy{
		client: client,
		retry:  cfg,
	}
}

// Name implements Strategy.
func (m *ManagedStrategy) Name() string { return BackendManaged }

// Scrape fetches a single URL via the managed service.
func (m *ManagedStrategy) Scrape(ctx context.Context, targetURL string, opts Options) (*Result, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, eris.Wrap(err, "managed: parse url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, eris.Errorf("managed: unsupported scheme %q", u.Scheme)
	}

	req := buildScrapeRequest(targetURL, opts)

	resp, err := resilience.Do(ctx, m.retry, func(ctx context.Context) (*firecrawl.ScrapeResponse, error) {
		resp, err := m.client.Scrape(ctx, req)
		if err != nil {
			var apiErr *firecrawl.APIError
			if errors.As(err, &apiErr) && resilience.IsTransientHTTPStatus(apiErr.StatusCode) {
				return nil, resilience.NewTransientError(err, apiErr.StatusCode)
			}
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		ce := classify.FromError(err)
		return &Result{Success: false, Error: ce.UserMessage}, nil
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "scrape not successful"
		}
		return &Result{Success: false, Error: msg}, nil
	}

	markdown := resp.Data.Markdown
	contentText := resp.Data.Content
	if contentText == "" {
		contentText = markdown
	}

	return &Result{
		Success: true,
		Managed: &ManagedPage{
			Content:  contentText,
			Markdown: markdown,
			HTML:     resp.Data.HTML,
			Extract:  resp.Data.Extract,
			Metadata: resp.Data.Metadata,
		},
	}, nil
}

// buildScrapeRequest maps caller options onto the Firecrawl wire request.
func buildScrapeRequest(targetURL string, opts Options) firecrawl.ScrapeRequest {
	formats := opts.Formats
	if len(formats) == 0 {
		formats = []string{"markdown"}
	}

	req := firecrawl.ScrapeRequest{
		URL:                targetURL,
		Formats:            formats,
		OnlyMainContent:    opts.OnlyMainContent,
		WaitFor:            int(opts.WaitFor / time.Millisecond),
		Timeout:            int(opts.RequestTimeout / time.Millisecond),
		RemoveBase64Images: opts.RemoveBase64Images,
		MaxAge:             int(opts.MaxAge / time.Millisecond),
		Proxy:              opts.ProxyTier,
	}

	if opts.ExtractSchema != nil || opts.ExtractPrompt != "" {
		req.Extract = &firecrawl.ExtractSpec{
			Schema: opts.ExtractSchema,
			Prompt: opts.ExtractPrompt,
		}
	}

	return req
}
