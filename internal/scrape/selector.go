package scrape

// Selector picks exactly one backend strategy for a request before any
// network activity occurs. There is no automatic fallback between
// strategies: a failed direct fetch is not silently retried on the managed
// backend. Escalation is the caller's explicit choice.
type Selector struct {
	direct  Strategy
	managed Strategy
}

// NewSelector creates a Selector over the two backend strategies.
func NewSelector(direct, managed Strategy) *Selector {
	return &Selector{direct: direct, managed: managed}
}

// Select returns the strategy for the given options. An explicit Backend
// preference always wins; otherwise any feature only the managed backend
// provides (rendering, extraction, proxy tiers, render waits) selects it,
// and the direct fetcher is the default.
func (s *Selector) Select(opts Options) Strategy {
	switch opts.Backend {
	case BackendDirect:
		return s.direct
	case BackendManaged:
		return s.managed
	}

	if opts.NeedsRendering ||
		opts.NeedsExtraction ||
		opts.ExtractSchema != nil ||
		opts.ExtractPrompt != "" ||
		opts.WaitFor > 0 ||
		opts.ProxyTier != "" {
		return s.managed
	}

	return s.direct
}
