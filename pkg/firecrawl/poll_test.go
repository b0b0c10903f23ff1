package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollCrawl_CompletesAfterProgress(t *testing.T) {
	var calls atomic.Int32
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		status := "scraping"
		if n >= 3 {
			status = "completed"
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(CrawlStatusResponse{
			Success: true,
			Status:  status,
			Total:   5,
			Data:    []PageData{{URL: "https://example.com", Markdown: "# Home"}},
		})
	})

	resp, err := PollCrawl(context.Background(), c, "crawl-1",
		WithPollInterval(time.Millisecond),
		WithPollCap(2*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, "completed", resp.Status)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestPollCrawl_ReturnsCancelledState(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(CrawlStatusResponse{Success: true, Status: "cancelled"})
	})

	resp, err := PollCrawl(context.Background(), c, "crawl-1", WithPollInterval(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, "cancelled", resp.Status)
}

func TestPollCrawl_FailedJob(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(CrawlStatusResponse{Success: false, Status: "failed"})
	})

	_, err := PollCrawl(context.Background(), c, "crawl-1", WithPollInterval(time.Millisecond))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
}

func TestPollCrawl_Timeout(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(CrawlStatusResponse{Success: true, Status: "scraping"})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := PollCrawl(ctx, c, "crawl-1", WithPollInterval(5*time.Millisecond))
	require.Error(t, err)
}
