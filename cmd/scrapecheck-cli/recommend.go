package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/use-agent/scrapecheck/advisor"
	"github.com/use-agent/scrapecheck/models"
	"github.com/use-agent/scrapecheck/report"
)

// NewRecommendCmd creates the recommend command.
func NewRecommendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recommend <snapshot.json|->",
		Short: "Compose a recommendation from a saved analysis snapshot",
		Long: `Recommend reads a site analysis snapshot (the "analysis" object of an
analyze response) and prints the scraping recommendation. No network
access is needed.

Examples:
  scrapecheck-cli recommend snapshot.json
  scrapecheck-cli recommend --markdown snapshot.json > report.md
  cat snapshot.json | scrapecheck-cli recommend -`,
		Args: cobra.ExactArgs(1),
		RunE: runRecommendCmd,
	}
	cmd.Flags().BoolP("markdown", "m", false, "Print a full Markdown report instead of JSON")
	return cmd
}

func runRecommendCmd(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}

	var snapshot models.SiteAnalysisResult
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}
	snapshot.Normalize()
	rec := advisor.Compose(&snapshot)

	markdown, _ := cmd.Flags().GetBool("markdown")
	if markdown {
		return report.WriteMarkdown(cmd.OutOrStdout(), &snapshot, rec)
	}
	return writeJSON(cmd.OutOrStdout(), rec)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
