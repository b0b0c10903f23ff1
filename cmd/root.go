package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/webfetch/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "webfetch",
	Short: "Fetch and normalize web content for automated agents",
	Long:  "Fetches pages through a direct HTTP fetcher or a managed rendering service, normalizes HTML/PDF/text payloads into uniform text with metadata, and manages multi-page crawl jobs.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
