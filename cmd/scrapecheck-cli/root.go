package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/scrapecheck/client"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrapecheck-cli",
		Short: "Assess how hard a website is to scrape",
		Long: `scrapecheck-cli inspects a site's protections, technologies and data
delivery, and recommends a scraping approach with a difficulty rating.

recommend and robots run locally. analyze and batch call a scrapecheck
server; set SCRAPECHECK_API_URL and SCRAPECHECK_API_KEY or pass
--api-url and --api-key.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("api-url", os.Getenv("SCRAPECHECK_API_URL"),
		"Base URL of the scrapecheck server (default "+client.DefaultBaseURL+")")
	cmd.PersistentFlags().String("api-key", "",
		"API key sent as X-API-Key (default $SCRAPECHECK_API_KEY)")

	cmd.AddCommand(NewRecommendCmd())
	cmd.AddCommand(NewRobotsCmd())
	cmd.AddCommand(NewAnalyzeCmd())
	cmd.AddCommand(NewBatchCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// apiClient builds a client from the persistent flags.
func apiClient(cmd *cobra.Command, timeout time.Duration) *client.Client {
	apiURL, _ := cmd.Flags().GetString("api-url")
	apiKey, _ := cmd.Flags().GetString("api-key")
	if apiKey == "" {
		apiKey = os.Getenv("SCRAPECHECK_API_KEY")
	}
	return client.New(apiURL, apiKey, timeout)
}
