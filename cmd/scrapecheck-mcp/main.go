package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/scrapecheck/advisor"
	"github.com/use-agent/scrapecheck/client"
	"github.com/use-agent/scrapecheck/models"
	"github.com/use-agent/scrapecheck/report"
)

func main() {
	apiURL := os.Getenv("SCRAPECHECK_API_URL")
	apiKey := os.Getenv("SCRAPECHECK_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "SCRAPECHECK_API_KEY is required")
		os.Exit(1)
	}

	s := newServer(
		client.New(apiURL, apiKey, 180*time.Second),
		client.New(apiURL, apiKey, 600*time.Second),
	)

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// newServer registers every tool. batch uses a client with a longer
// timeout since it waits for the whole job.
func newServer(c, batch *client.Client) *server.MCPServer {
	s := server.NewMCPServer(
		"scrapecheck",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	analyzeTool := mcp.NewTool("analyze_site",
		mcp.WithDescription("Analyze a website before scraping it. Detects anti-bot protection, CAPTCHAs, WAFs, technologies, how data is delivered (server-rendered, SPA with API, hybrid) and robots.txt rules, then recommends a scraping approach with a difficulty rating."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The URL of the page to analyze"),
		),
		mcp.WithString("mode",
			mcp.Description("Fetch mode: 'auto' (default, races plain HTTP against a headless browser), 'http' (plain HTTP only), or 'browser' (headless Chrome, captures XHR/fetch traffic)"),
			mcp.Enum(models.ModeAuto, models.ModeHTTP, models.ModeBrowser),
		),
		mcp.WithBoolean("stealth",
			mcp.Description("Mask automation fingerprints in the browser (default: false)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'markdown' (default, a readable report) or 'json' (the raw analysis response)"),
			mcp.Enum("markdown", "json"),
		),
	)
	s.AddTool(analyzeTool, handleAnalyzeSite(c))

	recommendTool := mcp.NewTool("recommend",
		mcp.WithDescription("Compose a scraping recommendation from a previously collected site analysis snapshot without loading the site again."),
		mcp.WithString("snapshot",
			mcp.Required(),
			mcp.Description("JSON site analysis snapshot, as returned in the 'analysis' field of analyze_site"),
		),
	)
	s.AddTool(recommendTool, handleRecommend())

	robotsTool := mcp.NewTool("parse_robots",
		mcp.WithDescription("Parse robots.txt rules that apply to all crawlers. Pass either the raw content or any URL on the site."),
		mcp.WithString("content",
			mcp.Description("Raw robots.txt text"),
		),
		mcp.WithString("url",
			mcp.Description("Any URL on the site; its /robots.txt is fetched"),
		),
	)
	s.AddTool(robotsTool, handleParseRobots(c))

	batchTool := mcp.NewTool("batch_analyze",
		mcp.WithDescription("Analyze several websites in parallel and return the difficulty and recommended approach for each."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of URLs to analyze"),
		),
		mcp.WithString("mode",
			mcp.Description("Fetch mode applied to every URL: 'auto' (default), 'http', or 'browser'"),
			mcp.Enum(models.ModeAuto, models.ModeHTTP, models.ModeBrowser),
		),
	)
	s.AddTool(batchTool, handleBatchAnalyze(batch))

	return s
}

func handleAnalyzeSite(c *client.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		resp, err := c.Analyze(ctx, &models.AnalyzeRequest{
			URL:     url,
			Mode:    request.GetString("mode", ""),
			Stealth: request.GetBool("stealth", false),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("analysis failed: %v", err)), nil
		}
		if !resp.Success || resp.Analysis == nil {
			errMsg := "analysis failed"
			if resp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		if request.GetString("format", "markdown") == "json" {
			out, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
			}
			return mcp.NewToolResultText(string(out)), nil
		}

		var sb strings.Builder
		if err := report.WriteMarkdown(&sb, resp.Analysis, resp.Recommendation); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to render report: %v", err)), nil
		}
		fmt.Fprintf(&sb, "\n---\nEngine: %s, status %d, %dms\n", resp.EngineUsed, resp.StatusCode, resp.Timing.TotalMs)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// handleRecommend composes locally; the advisor is pure so no API round
// trip is needed.
func handleRecommend() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString("snapshot")
		if err != nil {
			return mcp.NewToolResultError("snapshot is required"), nil
		}

		var snapshot models.SiteAnalysisResult
		if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("snapshot must be valid JSON: %v", err)), nil
		}
		snapshot.Normalize()

		return mcp.NewToolResultText(formatRecommendation(advisor.Compose(&snapshot))), nil
	}
}

func handleParseRobots(c *client.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		var content *string
		if v, ok := args["content"].(string); ok {
			content = &v
		}
		url := request.GetString("url", "")
		if (content == nil) == (url == "") {
			return mcp.NewToolResultError("provide exactly one of content or url"), nil
		}

		resp, err := c.Robots(ctx, content, url)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("robots request failed: %v", err)), nil
		}
		if resp.Robots == nil {
			return mcp.NewToolResultText("No robots.txt found."), nil
		}
		return mcp.NewToolResultText(formatRobots(resp.Robots)), nil
	}
}

func handleBatchAnalyze(c *client.Client) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		status, err := c.Batch(ctx, &models.BatchRequest{
			URLs:    urls,
			Options: models.BatchOptions{Mode: request.GetString("mode", "")},
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Batch %s: %s (%d/%d completed)\n\n", status.ID, status.Status, status.Completed, status.Total)
		for i, r := range status.Results {
			target := ""
			if i < len(urls) {
				target = urls[i]
			}
			switch {
			case r == nil:
				fmt.Fprintf(&sb, "--- [%d] %s: no result ---\n\n", i+1, target)
			case !r.Success || r.Recommendation == nil:
				errMsg := "unknown error"
				if r.Error != nil {
					errMsg = r.Error.Message
				}
				fmt.Fprintf(&sb, "--- [%d] %s: FAILED: %s ---\n\n", i+1, target, errMsg)
			default:
				fmt.Fprintf(&sb, "--- [%d] %s ---\n%s\n", i+1, target, formatRecommendation(r.Recommendation))
			}
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func formatRecommendation(rec *models.ScrapingRecommendation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Difficulty: %s\nApproach: %s\n", rec.Difficulty, rec.Approach)
	if len(rec.Details) > 0 {
		sb.WriteString("\nFindings:\n")
		for _, d := range rec.Details {
			sb.WriteString("- " + d + "\n")
		}
	}
	if len(rec.Tools) > 0 {
		sb.WriteString("\nSuggested tools: " + strings.Join(rec.Tools, ", ") + "\n")
	}
	return sb.String()
}

func formatRobots(r *models.RobotsTxtAnalysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Fully blocked: %t\n", r.FullyBlocked)
	if r.CrawlDelay != nil {
		fmt.Fprintf(&sb, "Crawl delay: %gs\n", *r.CrawlDelay)
	}
	if len(r.KeyDisallows) > 0 {
		sb.WriteString("Disallowed paths:\n")
		for _, p := range r.KeyDisallows {
			sb.WriteString("- " + p + "\n")
		}
	}
	if len(r.SitemapURLs) > 0 {
		sb.WriteString("Sitemaps:\n")
		for _, u := range r.SitemapURLs {
			sb.WriteString("- " + u + "\n")
		}
	}
	return sb.String()
}
