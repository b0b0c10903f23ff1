package scrape

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/webfetch/internal/crawl"
)

// Service fronts the selector and strategies with request-scoped logging and
// bounded multi-URL fetching.
type Service struct {
	selector *Selector
	matcher  *crawl.Matcher
}

// NewService creates a Service over the two backend strategies.
func NewService(direct, managed Strategy) *Service {
	return &Service{
		selector: NewSelector(direct, managed),
	}
}

// WithMatcher sets a path-exclusion matcher applied in ScrapeAll.
func (s *Service) WithMatcher(m *crawl.Matcher) *Service {
	s.matcher = m
	return s
}

// Scrape selects a strategy for the options and fetches one URL.
func (s *Service) Scrape(ctx context.Context, targetURL string, opts Options) (*Result, error) {
	requestID := uuid.NewString()
	strategy := s.selector.Select(opts)

	zap.L().Debug("scrape: dispatching",
		zap.String("request_id", requestID),
		zap.String("strategy", strategy.Name()),
		zap.String("url", targetURL),
	)

	result, err := strategy.Scrape(ctx, targetURL, opts)
	if err != nil {
		zap.L().Warn("scrape: rejected",
			zap.String("request_id", requestID),
			zap.String("url", targetURL),
			zap.Error(err),
		)
		return nil, err
	}

	if !result.Success {
		zap.L().Info("scrape: failed",
			zap.String("request_id", requestID),
			zap.String("strategy", strategy.Name()),
			zap.String("url", targetURL),
			zap.String("error", result.Error),
		)
	}
	return result, nil
}

// ScrapeAll fetches multiple URLs with bounded concurrency, all through the
// strategy the options select. URLs excluded by the matcher are skipped.
// Per-URL failures land in the result map; they never abort the batch.
func (s *Service) ScrapeAll(ctx context.Context, urls []string, maxConcurrent int, opts Options) map[string]*Result {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}

	var mu sync.Mutex
	results := make(map[string]*Result, len(urls))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for _, u := range urls {
		g.Go(func() error {
			if s.matcher != nil && s.matcher.IsExcluded(u) {
				zap.L().Debug("scrape: url excluded by policy", zap.String("url", u))
				return nil
			}

			result, err := s.Scrape(gCtx, u, opts)
			if err != nil {
				result = &Result{Success: false, Error: err.Error()}
			}

			mu.Lock()
			results[u] = result
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return results
}
