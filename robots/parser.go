// Package robots parses robots.txt into the summary used by the advisor and
// fetches it best-effort from a site's origin.
package robots

import (
	"math"
	"strconv"
	"strings"

	"github.com/use-agent/scrapecheck/models"
)

// MaxKeyDisallows caps RobotsTxtAnalysis.KeyDisallows.
const MaxKeyDisallows = 20

const (
	directiveSitemap    = "sitemap:"
	directiveUserAgent  = "user-agent:"
	directiveDisallow   = "disallow:"
	directiveCrawlDelay = "crawl-delay:"
)

// Parse summarises raw robots.txt text. It never fails.
//
// Scope tracking is a single flag: every User-agent line replaces the
// current scope, so only the last User-agent line before a rule block
// decides whether the block applies to "*". Consecutive User-agent lines
// are NOT merged into one group.
//
// Sitemap lines are global and collected regardless of scope. Disallow and
// Crawl-delay lines count only in "*" scope; the last valid Crawl-delay wins.
// A valid value is the whole field parsed as a finite float, so "5s" or a
// trailing "# comment" makes the line invalid.
func Parse(text string) *models.RobotsTxtAnalysis {
	res := &models.RobotsTxtAnalysis{
		Found:        true,
		SitemapURLs:  []string{},
		KeyDisallows: []string{},
	}

	inWildcardAgent := false
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lower := strings.ToLower(line)

		switch {
		case strings.HasPrefix(lower, directiveSitemap):
			if v := value(line, directiveSitemap); v != "" {
				res.SitemapURLs = append(res.SitemapURLs, v)
			}

		case strings.HasPrefix(lower, directiveUserAgent):
			inWildcardAgent = value(line, directiveUserAgent) == "*"

		case !inWildcardAgent:
			// Rules for other agents are ignored.

		case strings.HasPrefix(lower, directiveDisallow):
			path := value(line, directiveDisallow)
			if path == "/" {
				res.FullyBlocked = true
			}
			if path != "" {
				res.KeyDisallows = append(res.KeyDisallows, path)
			}

		case strings.HasPrefix(lower, directiveCrawlDelay):
			d, err := strconv.ParseFloat(value(line, directiveCrawlDelay), 64)
			if err == nil && !math.IsNaN(d) && !math.IsInf(d, 0) {
				res.CrawlDelay = &d
			}
		}
	}

	if len(res.KeyDisallows) > MaxKeyDisallows {
		res.KeyDisallows = res.KeyDisallows[:MaxKeyDisallows]
	}
	return res
}

// value returns the trimmed text after the directive prefix.
func value(line, directive string) string {
	return strings.TrimSpace(line[len(directive):])
}
