// Package scrape provides interchangeable backend strategies for fetching
// web content: a direct HTTP fetcher and a managed rendering service.
package scrape

import (
	"context"
	"time"
)

// Backend names accepted as an explicit strategy preference.
const (
	BackendDirect  = "direct"
	BackendManaged = "managed"
)

// Options is the per-call union of backend tunables. It is treated as
// immutable for the duration of a call; fields that don't apply to the
// selected backend are ignored.
type Options struct {
	// Backend forces a specific strategy ("direct" or "managed").
	// Empty means the selector decides from the feature flags below.
	Backend string

	// NeedsRendering indicates the page requires JavaScript execution.
	NeedsRendering bool

	// NeedsExtraction indicates structured extraction was requested.
	NeedsExtraction bool

	// Direct-fetch tunables.
	Timeout time.Duration
	Method  string
	Headers map[string]string
	Body    string

	// Managed-service tunables.
	Formats            []string
	OnlyMainContent    bool
	WaitFor            time.Duration
	RequestTimeout     time.Duration
	ExtractSchema      map[string]any
	ExtractPrompt      string
	RemoveBase64Images bool
	MaxAge             time.Duration
	ProxyTier          string // basic, stealth, or auto
}

// DirectPage is the result shape produced by the direct-fetch strategy.
type DirectPage struct {
	Data          string
	StatusCode    int
	Headers       map[string]string
	ContentType   string
	ContentLength int
	Metadata      map[string]any
}

// ManagedPage is the result shape produced by the managed-service strategy.
// The two shapes differ because the backends expose different fidelity;
// callers must not assume one shape across strategies.
type ManagedPage struct {
	Content  string
	Markdown string
	HTML     string
	Extract  map[string]any
	Metadata map[string]any
}

// Result is the outcome of a scrape attempt. Exactly one of Direct/Managed
// is populated on success, matching the strategy that produced it. On
// failure Error carries a human-readable message; Direct may additionally
// hold status code and headers for diagnostics.
type Result struct {
	Success bool
	Direct  *DirectPage
	Managed *ManagedPage
	Error   string
}

// Strategy is the capability both backends implement. Transport and
// HTTP-level failures are captured in the Result; the error return is
// reserved for caller misuse such as an invalid URL or unsupported scheme.
type Strategy interface {
	Name() string
	Scrape(ctx context.Context, targetURL string, opts Options) (*Result, error)
}
