package crawl

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/sells-group/webfetch/pkg/firecrawl"
)

// DefaultMaxDepth is the depth assigned to newly built crawl configs.
const DefaultMaxDepth = 3

// minMaxDepth is the floor applied to every outbound crawl request so the
// backend performs a meaningful traversal even when a caller configures a
// smaller depth.
const minMaxDepth = 3

// Config describes a crawl request before it is sent to the backend. Built
// once per target; never mutated after construction.
type Config struct {
	// URL is the crawl origin: scheme and host only, no path.
	URL             string
	ExcludePaths    []string
	MaxDepth        int
	ChangeDetection bool
}

// StartResult is the outcome of starting a crawl.
type StartResult struct {
	Success bool
	CrawlID string
	Error   string
}

// StatusResult is the outcome of a status query.
type StatusResult struct {
	Success   bool
	Status    string
	Total     int
	Completed int
	Pages     []firecrawl.PageData
	Error     string
}

// CancelResult is the outcome of a cancel request.
type CancelResult struct {
	Success bool
	Status  string
	Error   string
}

// ShouldStart reports whether a crawl may be started for the target URL:
// only http and https schemes qualify, and a URL that fails to parse never
// does. Run this gate before BuildConfig in user-facing flows.
func ShouldStart(targetURL string) bool {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// BuildConfig constructs a crawl config for the target URL. A parse failure
// returns nil, meaning "do not start a crawl"; it is not an error.
// Exclusion paths are resolved by exact-hostname lookup in the policy table,
// falling back to the universal default list.
func BuildConfig(targetURL string) *Config {
	u, err := url.Parse(targetURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return &Config{
		URL:             u.Scheme + "://" + u.Host,
		ExcludePaths:    excludePathsFor(u.Hostname()),
		MaxDepth:        DefaultMaxDepth,
		ChangeDetection: true,
	}
}

// Manager drives the crawl lifecycle against the managed backend. It holds
// no job state of its own; jobs live on the backend and are referenced by
// opaque id.
type Manager struct {
	client firecrawl.Client
}

// NewManager creates a Manager over a Firecrawl client.
func NewManager(client firecrawl.Client) *Manager {
	return &Manager{client: client}
}

// Start submits the crawl. Transport failures are captured and returned in
// the result rather than raised; callers needing categorization can run the
// raw status through the error classifier.
func (m *Manager) Start(ctx context.Context, cfg *Config) *StartResult {
	depth := cfg.MaxDepth
	if depth < minMaxDepth {
		depth = minMaxDepth
	}

	resp, err := m.client.Crawl(ctx, firecrawl.CrawlRequest{
		URL:             cfg.URL,
		MaxDepth:        depth,
		ChangeDetection: cfg.ChangeDetection,
		ExcludePaths:    cfg.ExcludePaths,
		ScrapeOptions: &firecrawl.ScrapeOptions{
			Formats:         []string{"markdown"},
			OnlyMainContent: true,
		},
	})
	if err != nil {
		return &StartResult{Success: false, Error: err.Error()}
	}

	id := resolveCrawlID(resp)
	if id == "" {
		msg := resp.Error
		if msg == "" {
			msg = "backend returned no crawl id"
		}
		return &StartResult{Success: false, Error: msg}
	}

	zap.L().Info("crawl: started",
		zap.String("crawl_id", id),
		zap.String("url", cfg.URL),
		zap.Int("max_depth", depth),
	)

	return &StartResult{Success: true, CrawlID: id}
}

// resolveCrawlID extracts the backend-assigned job id. The response shape is
// not stable across API versions, so the known locations are tried in order:
// top-level jobId, top-level id, then data.jobId.
func resolveCrawlID(resp *firecrawl.CrawlResponse) string {
	if resp.JobID != "" {
		return resp.JobID
	}
	if resp.ID != "" {
		return resp.ID
	}
	return resp.Data.JobID
}

// Status queries the backend for a crawl's progress. The manager never polls
// on its own; repeated status calls are the caller's responsibility.
func (m *Manager) Status(ctx context.Context, crawlID string) *StatusResult {
	resp, err := m.client.GetCrawlStatus(ctx, crawlID)
	if err != nil {
		return &StatusResult{Success: false, Error: err.Error()}
	}
	return &StatusResult{
		Success:   true,
		Status:    resp.Status,
		Total:     resp.Total,
		Completed: resp.Completed,
		Pages:     resp.Data,
	}
}

// Cancel asks the backend to stop a running crawl.
func (m *Manager) Cancel(ctx context.Context, crawlID string) *CancelResult {
	resp, err := m.client.CancelCrawl(ctx, crawlID)
	if err != nil {
		return &CancelResult{Success: false, Error: err.Error()}
	}
	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "cancel not acknowledged"
		}
		return &CancelResult{Success: false, Status: resp.Status, Error: msg}
	}

	zap.L().Info("crawl: cancelled", zap.String("crawl_id", crawlID))
	return &CancelResult{Success: true, Status: resp.Status}
}
