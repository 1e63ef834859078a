// Package report renders an analysis snapshot and its recommendation as a
// human-readable Markdown document.
package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/use-agent/scrapecheck/endpoints"
	"github.com/use-agent/scrapecheck/models"
)

const timeLayout = "2006-01-02 15:04:05 MST"

// WriteMarkdown writes the report for s and rec to w.
//
// The endpoint sections are built by applying the endpoint predicates to
// the snapshot directly, not taken from the recommendation text.
func WriteMarkdown(w io.Writer, s *models.SiteAnalysisResult, rec *models.ScrapingRecommendation) error {
	md := markdown.NewMarkdown(w)

	writeHeader(md, s, rec)
	writeVerdict(md, rec)
	writeDetections(md, "Protection", s.AntiBotDetections, "No anti-bot, CAPTCHA or WAF signals detected.")
	writeDetections(md, "Technologies", s.Technologies, "No technologies fingerprinted.")
	writeDelivery(md, s.DataDelivery)
	writeEndpoints(md, s.InterceptedRequests)
	writeRobots(md, s.RobotsTxt)

	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Generated by scrapecheck. Advisory only: always respect the site's terms and robots.txt.*")

	return md.Build()
}

func writeHeader(md *markdown.Markdown, s *models.SiteAnalysisResult, rec *models.ScrapingRecommendation) {
	md.H1("Scraping Feasibility Report")
	md.PlainText("")

	analyzed := "-"
	if !s.AnalyzedAt.IsZero() {
		analyzed = s.AnalyzedAt.Format(timeLayout)
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URL", orDash(cell(s.URL))},
			{"Analyzed", analyzed},
			{"Difficulty", "**" + string(rec.Difficulty) + "**"},
			{"Approach", rec.Approach},
		},
	})
	md.PlainText("")

	switch rec.Difficulty {
	case models.DifficultyVeryHard:
		md.Caution("Very hard target: expect active bot management and plan for bypass tooling.")
	case models.DifficultyHard:
		md.Warning("Hard target: several obstacles need to be handled before data can be collected.")
	case models.DifficultyModerate:
		md.Important("Moderate target: some protection or rendering work is required.")
	default:
		md.Tip("Easy target: no significant obstacles detected.")
	}
	md.PlainText("")
}

func writeVerdict(md *markdown.Markdown, rec *models.ScrapingRecommendation) {
	md.H2("Findings")
	md.PlainText("")
	md.BulletList(rec.Details...)
	md.PlainText("")

	md.H2("Suggested Tools")
	md.PlainText("")
	if len(rec.Tools) == 0 {
		md.PlainText("No specific tooling suggested.")
	} else {
		md.BulletList(rec.Tools...)
	}
	md.PlainText("")
}

func writeDetections(md *markdown.Markdown, title string, ds []models.Detection, empty string) {
	md.H2(title)
	md.PlainText("")
	if len(ds) == 0 {
		md.PlainText(empty)
		md.PlainText("")
		return
	}
	rows := make([][]string, len(ds))
	for i, d := range ds {
		rows[i] = []string{d.Name, d.Category, strconv.Itoa(d.Confidence), orDash(truncate(cell(d.Evidence), 80))}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Name", "Category", "Confidence", "Evidence"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeDelivery(md *markdown.Markdown, dd models.DataDelivery) {
	md.H2("Data Delivery")
	md.PlainText("")

	method := dd.DataDeliveryMethod
	if method == "" {
		method = models.DeliveryUnknown
	}
	structured := "no"
	if dd.HasStructuredData {
		structured = "yes (" + strings.Join(dd.StructuredDataTypes, ", ") + ")"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Signal", "Value"},
		Rows: [][]string{
			{"Method", method},
			{"Structured data", structured},
			{"SPA indicators", yesNo(dd.HasSPAIndicators)},
			{"Embedded API data", yesNo(dd.HasAPIDataInPage)},
		},
	})
	md.PlainText("")
	if len(dd.Evidence) > 0 {
		md.Details("Evidence", strings.Join(dd.Evidence, "\n"))
		md.PlainText("")
	}
}

func writeEndpoints(md *markdown.Markdown, ir models.InterceptedRequests) {
	api, other := endpoints.Partition(ir.Endpoints)
	direct := endpoints.FilterDirectAPI(ir.Endpoints)

	md.H2("API Endpoints")
	md.PlainText("")
	md.PlainTextf("%d request(s) captured during page load.", ir.TotalRequests)
	md.PlainText("")
	if len(api) == 0 {
		md.PlainText("No API-like endpoints observed.")
		md.PlainText("")
	} else {
		endpointTable(md, api)
	}

	if len(direct) > 0 {
		md.H3("Direct API Candidates")
		md.PlainText("")
		items := make([]string, len(direct))
		for i, ep := range direct {
			items[i] = "`" + ep.Endpoint + "` (" + strings.Join(ep.Methods, ", ") + ")"
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(other) > 0 {
		md.H3("Other Requests")
		md.PlainText("")
		endpointTable(md, other)
	}
}

func endpointTable(md *markdown.Markdown, eps []models.Endpoint) {
	rows := make([][]string, len(eps))
	for i, ep := range eps {
		sample := "-"
		if len(ep.SampleURLs) > 0 {
			sample = truncate(cell(ep.SampleURLs[0]), 60)
		}
		rows[i] = []string{"`" + cell(ep.Endpoint) + "`", strings.Join(ep.Methods, ", "), strconv.Itoa(ep.Count), sample}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Endpoint", "Methods", "Count", "Sample"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeRobots(md *markdown.Markdown, r *models.RobotsTxtAnalysis) {
	md.H2("robots.txt")
	md.PlainText("")
	if r == nil {
		md.PlainText("Not available.")
		md.PlainText("")
		return
	}

	delay := "-"
	if r.CrawlDelay != nil {
		delay = strconv.FormatFloat(*r.CrawlDelay, 'f', -1, 64) + "s"
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rule", "Value"},
		Rows: [][]string{
			{"Fully blocked for *", yesNo(r.FullyBlocked)},
			{"Crawl-delay", delay},
			{"Sitemaps", strconv.Itoa(len(r.SitemapURLs))},
		},
	})
	md.PlainText("")
	if r.FullyBlocked {
		md.Caution("robots.txt disallows all crawling for generic user agents.")
		md.PlainText("")
	}

	if len(r.KeyDisallows) > 0 {
		md.H3("Disallowed Paths")
		md.PlainText("")
		items := make([]string, len(r.KeyDisallows))
		for i, p := range r.KeyDisallows {
			items[i] = "`" + p + "`"
		}
		md.BulletList(items...)
		md.PlainText("")
	}
	if len(r.SitemapURLs) > 0 {
		md.H3("Sitemaps")
		md.PlainText("")
		md.BulletList(r.SitemapURLs...)
		md.PlainText("")
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// cell escapes characters that would break a table row.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// truncate shortens s to maxLen bytes with an ellipsis.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
