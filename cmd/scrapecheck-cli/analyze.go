package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/scrapecheck/models"
	"github.com/use-agent/scrapecheck/report"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Analyze a live site through a scrapecheck server",
		Long: `Analyze asks a scrapecheck server to load the page, collect its signals
and compose a recommendation.

Examples:
  scrapecheck-cli analyze https://example.com
  scrapecheck-cli analyze --mode browser --stealth https://shop.example
  scrapecheck-cli analyze --markdown https://example.com > report.md`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyzeCmd,
	}
	addAnalyzeFlags(cmd)
	cmd.Flags().BoolP("markdown", "m", false, "Print a Markdown report instead of JSON")
	return cmd
}

// NewBatchCmd creates the batch command.
func NewBatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <url>...",
		Short: "Analyze several sites through a scrapecheck server",
		Long: `Batch submits all URLs as one batch job, waits for it to finish and
prints the job status with every per-URL response.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runBatchCmd,
	}
	addAnalyzeFlags(cmd)
	return cmd
}

func addAnalyzeFlags(cmd *cobra.Command) {
	cmd.Flags().String("mode", models.ModeAuto, "Fetch mode: auto, http or browser")
	cmd.Flags().IntP("timeout", "t", 30, "Per-site analysis timeout in seconds")
	cmd.Flags().Bool("stealth", false, "Mask automation fingerprints in the browser")
	cmd.Flags().Bool("skip-robots", false, "Do not fetch robots.txt")
}

func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("mode")
	timeout, _ := cmd.Flags().GetInt("timeout")
	stealth, _ := cmd.Flags().GetBool("stealth")
	skipRobots, _ := cmd.Flags().GetBool("skip-robots")
	markdown, _ := cmd.Flags().GetBool("markdown")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := apiClient(cmd, time.Duration(timeout+30)*time.Second)
	resp, err := c.Analyze(ctx, &models.AnalyzeRequest{
		URL:        args[0],
		Mode:       mode,
		Timeout:    timeout,
		Stealth:    stealth,
		SkipRobots: skipRobots,
	})
	if err != nil {
		return fmt.Errorf("analyze %s: %w", args[0], err)
	}

	if markdown && resp.Analysis != nil {
		return report.WriteMarkdown(cmd.OutOrStdout(), resp.Analysis, resp.Recommendation)
	}
	return writeJSON(cmd.OutOrStdout(), resp)
}

func runBatchCmd(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("mode")
	timeout, _ := cmd.Flags().GetInt("timeout")
	stealth, _ := cmd.Flags().GetBool("stealth")
	skipRobots, _ := cmd.Flags().GetBool("skip-robots")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := apiClient(cmd, time.Duration(timeout+30)*time.Second)
	status, err := c.Batch(ctx, &models.BatchRequest{
		URLs: args,
		Options: models.BatchOptions{
			Mode:       mode,
			Timeout:    timeout,
			Stealth:    stealth,
			SkipRobots: skipRobots,
		},
	})
	if err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	return writeJSON(cmd.OutOrStdout(), status)
}
