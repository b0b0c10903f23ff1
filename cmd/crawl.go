package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/webfetch/internal/crawl"
	"github.com/sells-group/webfetch/pkg/firecrawl"
)

var (
	crawlMaxDepth int
	crawlWatch    bool
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Manage multi-page crawl jobs on the managed backend",
}

var crawlStartCmd = &cobra.Command{
	Use:   "start URL",
	Short: "Start a crawl of the given site",
	Long: `Start an asynchronous crawl rooted at the URL's origin.

Exclusion paths are resolved from the per-hostname policy table (falling back
to the universal multilingual defaults). The job runs on the backend; use
"crawl status" to follow progress, or --watch to poll until it finishes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targetURL := args[0]
		if !crawl.ShouldStart(targetURL) {
			return eris.Errorf("crawl: refusing to crawl %q: only http and https URLs are supported", targetURL)
		}

		crawlCfg := crawl.BuildConfig(targetURL)
		if crawlCfg == nil {
			return eris.Errorf("crawl: could not build a crawl config for %q", targetURL)
		}
		if crawlMaxDepth > 0 {
			crawlCfg.MaxDepth = crawlMaxDepth
		} else if cfg.Crawl.MaxDepth > 0 {
			crawlCfg.MaxDepth = cfg.Crawl.MaxDepth
		}
		crawlCfg.ChangeDetection = cfg.Crawl.ChangeDetection

		client, err := newFirecrawlClient()
		if err != nil {
			return err
		}
		manager := crawl.NewManager(client)

		result := manager.Start(cmd.Context(), crawlCfg)
		if !result.Success {
			return eris.Errorf("crawl: start failed: %s", result.Error)
		}

		if !crawlWatch {
			return printJSON(result)
		}

		zap.L().Info("crawl: watching job", zap.String("crawl_id", result.CrawlID))
		status, err := firecrawl.PollCrawl(cmd.Context(), client, result.CrawlID)
		if err != nil {
			return err
		}
		return printJSON(status)
	},
}

var crawlStatusCmd = &cobra.Command{
	Use:   "status ID",
	Short: "Show the status of a crawl job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFirecrawlClient()
		if err != nil {
			return err
		}

		result := crawl.NewManager(client).Status(cmd.Context(), args[0])
		if !result.Success {
			return eris.Errorf("crawl: status failed: %s", result.Error)
		}
		return printJSON(result)
	},
}

var crawlCancelCmd = &cobra.Command{
	Use:   "cancel ID",
	Short: "Cancel a running crawl job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newFirecrawlClient()
		if err != nil {
			return err
		}

		result := crawl.NewManager(client).Cancel(cmd.Context(), args[0])
		if !result.Success {
			return eris.Errorf("crawl: cancel failed: %s", result.Error)
		}
		return printJSON(result)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	crawlStartCmd.Flags().IntVar(&crawlMaxDepth, "max-depth", 0, "crawl depth (clamped to a floor of 3 on send)")
	crawlStartCmd.Flags().BoolVar(&crawlWatch, "watch", false, "poll until the crawl finishes")

	crawlCmd.AddCommand(crawlStartCmd, crawlStatusCmd, crawlCancelCmd)
	rootCmd.AddCommand(crawlCmd)
}
