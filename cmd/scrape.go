package main

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/webfetch/internal/content"
	"github.com/sells-group/webfetch/internal/crawl"
	"github.com/sells-group/webfetch/internal/scrape"
	"github.com/sells-group/webfetch/pkg/firecrawl"
)

var (
	scrapeBackend     string
	scrapeMethod      string
	scrapeHeaders     []string
	scrapeBody        string
	scrapeFormats     []string
	scrapeOnlyMain    bool
	scrapeWaitForMs   int
	scrapeTimeoutSecs int
	scrapeProxy       string
	scrapeRender      bool
	scrapeExclude     []string
	scrapeConcurrent  int
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape URL...",
	Short: "Fetch one or more URLs and print normalized results",
	Long: `Fetch URLs through the selected backend strategy.

The backend is chosen per request: an explicit --backend wins, otherwise
options that need the managed service (rendering, proxy tiers, render waits)
select it and the direct fetcher is the default. Results are printed as JSON,
one object per URL.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newScrapeService()
		if err != nil {
			return err
		}

		if len(scrapeExclude) > 0 {
			matcher, err := crawl.NewMatcher(scrapeExclude)
			if err != nil {
				return err
			}
			svc = svc.WithMatcher(matcher)
		}

		opts, err := buildScrapeOptions()
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		if len(args) == 1 {
			result, err := svc.Scrape(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return enc.Encode(result)
		}

		concurrent := scrapeConcurrent
		if concurrent == 0 {
			concurrent = cfg.Scrape.MaxConcurrent
		}
		results := svc.ScrapeAll(cmd.Context(), args, concurrent, opts)
		return enc.Encode(results)
	},
}

// newScrapeService wires the dispatcher and both backend strategies. An
// invalid configured base URL aborts here, before any request is attempted.
func newScrapeService() (*scrape.Service, error) {
	dispatcher := content.NewDispatcher(
		content.WithPdfToTextPath(cfg.Content.PdfToTextPath),
	)

	client, err := newFirecrawlClient()
	if err != nil {
		return nil, err
	}

	return scrape.NewService(
		scrape.NewDirectStrategy(dispatcher),
		scrape.NewManagedStrategy(client),
	), nil
}

func newFirecrawlClient() (firecrawl.Client, error) {
	return firecrawl.NewClient(cfg.Firecrawl.Key,
		firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL),
	)
}

func buildScrapeOptions() (scrape.Options, error) {
	headers := make(map[string]string, len(scrapeHeaders))
	for _, h := range scrapeHeaders {
		key, value, found := strings.Cut(h, ":")
		if !found {
			return scrape.Options{}, eris.Errorf("scrape: header %q is not in key:value form", h)
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	timeout := time.Duration(scrapeTimeoutSecs) * time.Second
	if scrapeTimeoutSecs == 0 {
		timeout = time.Duration(cfg.Scrape.TimeoutSecs) * time.Second
	}

	formats := scrapeFormats
	if len(formats) == 0 {
		formats = cfg.Scrape.Formats
	}

	proxy := scrapeProxy
	if proxy == "" {
		proxy = cfg.Scrape.Proxy
	}

	return scrape.Options{
		Backend:         scrapeBackend,
		NeedsRendering:  scrapeRender,
		Timeout:         timeout,
		Method:          scrapeMethod,
		Headers:         headers,
		Body:            scrapeBody,
		Formats:         formats,
		OnlyMainContent: scrapeOnlyMain,
		WaitFor:         time.Duration(scrapeWaitForMs) * time.Millisecond,
		RequestTimeout:  timeout,
		ProxyTier:       proxy,
	}, nil
}

func init() {
	scrapeCmd.Flags().StringVar(&scrapeBackend, "backend", "", "force a backend: direct or managed")
	scrapeCmd.Flags().StringVar(&scrapeMethod, "method", "GET", "HTTP method for direct fetches (GET or POST)")
	scrapeCmd.Flags().StringArrayVar(&scrapeHeaders, "header", nil, "extra request header (key:value, repeatable)")
	scrapeCmd.Flags().StringVar(&scrapeBody, "body", "", "request body for POST")
	scrapeCmd.Flags().StringSliceVar(&scrapeFormats, "format", nil, "managed output formats (markdown, html)")
	scrapeCmd.Flags().BoolVar(&scrapeOnlyMain, "only-main-content", false, "ask the managed backend to strip boilerplate")
	scrapeCmd.Flags().IntVar(&scrapeWaitForMs, "wait-for", 0, "managed render wait in milliseconds")
	scrapeCmd.Flags().IntVar(&scrapeTimeoutSecs, "timeout", 0, "request timeout in seconds")
	scrapeCmd.Flags().StringVar(&scrapeProxy, "proxy", "", "managed proxy tier: basic, stealth, or auto")
	scrapeCmd.Flags().BoolVar(&scrapeRender, "render", false, "page needs JavaScript rendering")
	scrapeCmd.Flags().StringArrayVar(&scrapeExclude, "exclude", nil, "path exclusion pattern (anchored regex, repeatable)")
	scrapeCmd.Flags().IntVar(&scrapeConcurrent, "concurrency", 0, "max concurrent fetches for multiple URLs")

	rootCmd.AddCommand(scrapeCmd)
}
