package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/scrapecheck/advisor"
	"github.com/use-agent/scrapecheck/models"
)

func TestWriteMarkdown_FullReport(t *testing.T) {
	delay := 2.5
	s := (&models.SiteAnalysisResult{
		URL:        "https://shop.example.com/",
		AnalyzedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		AntiBotDetections: []models.Detection{
			{Name: "Cloudflare", Category: models.CategoryAntiBot, Confidence: 95, Evidence: "header server: cloudflare"},
		},
		Technologies: []models.Detection{{Name: "Shopify", Category: "ecommerce", Confidence: 60}},
		DataDelivery: models.DataDelivery{DataDeliveryMethod: models.DeliverySPAAPI, HasSPAIndicators: true},
		InterceptedRequests: models.InterceptedRequests{
			TotalRequests: 12,
			Endpoints: []models.Endpoint{
				{Endpoint: "/products.json", Methods: []string{"GET"}, Count: 2, SampleURLs: []string{"https://shop.example.com/products.json?page=1"}},
				{Endpoint: "/api/cart", Methods: []string{"GET", "POST"}, Count: 1},
				{Endpoint: "/static/app.css", Methods: []string{"GET"}, Count: 1},
			},
		},
		RobotsTxt: &models.RobotsTxtAnalysis{
			Found:        true,
			CrawlDelay:   &delay,
			SitemapURLs:  []string{"https://shop.example.com/sitemap.xml"},
			KeyDisallows: []string{"/checkout"},
		},
	}).Normalize()
	rec := advisor.Compose(s)

	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, s, rec); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Scraping Feasibility Report",
		"https://shop.example.com/",
		string(rec.Difficulty),
		rec.Approach,
		"Cloudflare",
		"Shopify",
		"spa-api",
		"12 request(s) captured",
		"/products.json",
		"### Direct API Candidates",
		"`/api/cart` (GET, POST)",
		"### Other Requests",
		"/static/app.css",
		"2.5s",
		"`/checkout`",
		"https://shop.example.com/sitemap.xml",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}

	// The narrow predicate must not list the .json endpoint as a direct API.
	direct := out[strings.Index(out, "### Direct API Candidates"):strings.Index(out, "### Other Requests")]
	if strings.Contains(direct, "/products.json") {
		t.Error("/products.json listed as direct API candidate")
	}
}

func TestWriteMarkdown_EmptySnapshot(t *testing.T) {
	s := (&models.SiteAnalysisResult{}).Normalize()
	rec := advisor.Compose(s)

	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, s, rec); err != nil {
		t.Fatalf("WriteMarkdown: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"No anti-bot, CAPTCHA or WAF signals detected.",
		"No API-like endpoints observed.",
		"Not available.",
		advisor.FallbackDetail,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(out, "Direct API Candidates") {
		t.Error("empty snapshot should not render a direct API section")
	}
}

func TestCellEscapesPipes(t *testing.T) {
	if got := cell("a|b\nc"); got != `a\|b c` {
		t.Errorf("cell = %q", got)
	}
}
