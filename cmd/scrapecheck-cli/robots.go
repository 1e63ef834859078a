package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/use-agent/scrapecheck/robots"
)

// NewRobotsCmd creates the robots command.
func NewRobotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "robots <robots.txt|->",
		Short: "Parse a robots.txt file",
		Long: `Robots parses a robots.txt file and prints the rules that apply to
all crawlers: whether the site is fully blocked, the notable disallowed
paths, the crawl delay and the sitemaps.

Examples:
  scrapecheck-cli robots robots.txt
  curl -s https://example.com/robots.txt | scrapecheck-cli robots -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), robots.Parse(string(data)))
		},
	}
}

// readInput reads path, or stdin when path is "-".
func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
