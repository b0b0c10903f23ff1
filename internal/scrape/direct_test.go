package scrape

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/webfetch/internal/content"
)

func newDirect() *DirectStrategy {
	return NewDirectStrategy(content.NewDispatcher())
}

func TestDirectStrategy_Name(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "direct", newDirect().Name())
}

func TestDirectStrategy_HTMLSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`<html><head><title>Acme Corp</title></head>
<body><article><h1>Welcome</h1><p>We build great products for customers all over the world, every single day.</p></article></body></html>`))
	}))
	defer srv.Close()

	result, err := newDirect().Scrape(context.Background(), srv.URL, Options{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.Direct)
	assert.Nil(t, result.Managed)
	assert.Equal(t, 200, result.Direct.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", result.Direct.ContentType)
	assert.Contains(t, result.Direct.Data, "Welcome")
	assert.Contains(t, result.Direct.Data, "great products")
	assert.Equal(t, "Acme Corp", result.Direct.Metadata["title"])
	assert.Positive(t, result.Direct.ContentLength)
}

func TestDirectStrategy_DefaultAndCallerHeaders(t *testing.T) {
	var gotUA, gotLang, gotCustom string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotLang = r.Header.Get("Accept-Language")
		gotCustom = r.Header.Get("X-Custom")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	result, err := newDirect().Scrape(context.Background(), srv.URL, Options{
		Headers: map[string]string{
			"User-Agent": "agent-override/1.0",
			"X-Custom":   "yes",
		},
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	// Caller headers win over defaults; untouched defaults still apply.
	assert.Equal(t, "agent-override/1.0", gotUA)
	assert.Equal(t, "en-US,en;q=0.9", gotLang)
	assert.Equal(t, "yes", gotCustom)
}

func TestDirectStrategy_Post(t *testing.T) {
	var gotMethod, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(200)
		_, _ = w.Write([]byte("accepted"))
	}))
	defer srv.Close()

	result, err := newDirect().Scrape(context.Background(), srv.URL, Options{
		Method: "POST",
		Body:   `{"q":"widgets"}`,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, `{"q":"widgets"}`, gotBody)
}

func TestDirectStrategy_Non2xxPreservesDiagnostics(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(503)
		_, _ = w.Write([]byte("service unavailable"))
	}))
	defer srv.Close()

	result, err := newDirect().Scrape(context.Background(), srv.URL, Options{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "HTTP 503")
	require.NotNil(t, result.Direct)
	assert.Equal(t, 503, result.Direct.StatusCode)
	assert.Equal(t, "120", result.Direct.Headers["Retry-After"])
	// The failure body is never parsed as content.
	assert.Empty(t, result.Direct.Data)
}

func TestDirectStrategy_BlockDetectionInError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cf-Ray", "abc123")
		w.WriteHeader(403)
		_, _ = w.Write([]byte("Access denied"))
	}))
	defer srv.Close()

	result, err := newDirect().Scrape(context.Background(), srv.URL, Options{})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "blocked: cloudflare")
}

func TestDirectStrategy_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer srv.Close()

	start := time.Now()
	result, err := newDirect().Scrape(context.Background(), srv.URL, Options{
		Timeout: time.Millisecond,
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Request timeout", result.Error)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}

func TestDirectStrategy_InvalidScheme(t *testing.T) {
	t.Parallel()
	_, err := newDirect().Scrape(context.Background(), "ftp://example.com/file", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestDirectStrategy_UnsupportedMethod(t *testing.T) {
	t.Parallel()
	_, err := newDirect().Scrape(context.Background(), "https://example.com", Options{Method: "DELETE"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported method")
}

func TestDirectStrategy_UnreachableHost(t *testing.T) {
	// A closed port fails fast with a connection error, not a hang.
	result, err := newDirect().Scrape(context.Background(), "http://127.0.0.1:1", Options{
		Timeout: 2 * time.Second,
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Error)
}

func TestDirectStrategy_BinaryContentTypeStillParses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.WriteHeader(200)
		_, _ = w.Write([]byte("%PDF-1.4 not really"))
	}))
	defer srv.Close()

	d := NewDirectStrategy(content.NewDispatcher(content.WithPdfToTextPath("/nonexistent/pdftotext")))
	result, err := d.Scrape(context.Background(), srv.URL, Options{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.Direct)
	assert.Equal(t, true, result.Direct.Metadata["binary"])
	assert.Contains(t, result.Direct.Data, "PDF document")
}
