package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/webfetch/internal/content"
)

const maxDirectBodyBytes = 10 * 1024 * 1024

// defaultHeaders is the fixed header set sent on every direct fetch unless
// overridden by the caller. Computed once, never mutated.
var defaultHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.9",
}

// DirectStrategy fetches URLs with plain HTTP. No JavaScript rendering, no
// anti-bot handling; appropriate for static, unprotected pages only.
type DirectStrategy struct {
	client *http.Client
	parser *content.Dispatcher

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// NewDirectStrategy creates a DirectStrategy that normalizes responses
// through the given dispatcher.
func NewDirectStrategy(parser *content.Dispatcher) *DirectStrategy {
	return &DirectStrategy{
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		parser:   parser,
		limiters: make(map[string]*rate.Limiter),
		perHost:  10,
		burst:    10,
	}
}

// Name implements Strategy.
func (d *DirectStrategy) Name() string { return BackendDirect }

// Scrape fetches a single URL. Timeouts are enforced through context
// cancellation and reported as the distinct error "Request timeout". Non-2xx
// responses yield Success=false with status code and headers preserved; the
// body is not parsed as content in that case.
func (d *DirectStrategy) Scrape(ctx context.Context, targetURL string, opts Options) (*Result, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return nil, eris.Wrap(err, "direct: parse url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, eris.Errorf("direct: unsupported scheme %q", u.Scheme)
	}

	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = http.MethodGet
	}
	if method != http.MethodGet && method != http.MethodPost {
		return nil, eris.Errorf("direct: unsupported method %q", opts.Method)
	}

	// The deferred cancel is the cleanup path for the timeout timer; it runs
	// on success, failure, and timeout alike.
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var body io.Reader
	if method == http.MethodPost && opts.Body != "" {
		body = strings.NewReader(opts.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, targetURL, body)
	if err != nil {
		return nil, eris.Wrap(err, "direct: create request")
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	if err := d.limiterFor(u.Host).Wait(ctx); err != nil {
		return timeoutOrNetworkResult(err), nil
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return timeoutOrNetworkResult(err), nil
	}
	defer func() { _ = resp.Body.Close() }()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Read a bounded prefix for block detection only; failure bodies are
		// never parsed as content.
		peek, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		if blocked, blockType := DetectBlock(resp, peek); blocked {
			msg = fmt.Sprintf("%s (blocked: %s)", msg, blockType)
		}
		return &Result{
			Success: false,
			Error:   msg,
			Direct: &DirectPage{
				StatusCode:  resp.StatusCode,
				Headers:     flattenHeaders(resp.Header),
				ContentType: contentType,
			},
		}, nil
	}

	// The binary-vs-text decision must precede the body read; the two are
	// mutually exclusive on a single response stream.
	binary := d.parser.RequiresBinary(contentType)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDirectBodyBytes))
	if err != nil {
		return timeoutOrNetworkResult(err), nil
	}

	parsed := d.parser.Parse(ctx, raw, contentType)
	if binary {
		parsed.Metadata["binary"] = true
	}

	return &Result{
		Success: true,
		Direct: &DirectPage{
			Data:          parsed.Content,
			StatusCode:    resp.StatusCode,
			Headers:       flattenHeaders(resp.Header),
			ContentType:   contentType,
			ContentLength: len(raw),
			Metadata:      parsed.Metadata,
		},
	}, nil
}

func (d *DirectStrategy) limiterFor(host string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	lim, ok := d.limiters[host]
	if !ok {
		lim = rate.NewLimiter(d.perHost, d.burst)
		d.limiters[host] = lim
	}
	return lim
}

// timeoutOrNetworkResult converts a transport error into a failed Result,
// distinguishing timeouts from other network failures.
func timeoutOrNetworkResult(err error) *Result {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Result{Success: false, Error: "Request timeout"}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Result{Success: false, Error: "Request timeout"}
	}
	zap.L().Debug("direct: request failed", zap.Error(err))
	return &Result{Success: false, Error: err.Error()}
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
