package advisor

import (
	"fmt"
	"strings"

	"github.com/use-agent/scrapecheck/endpoints"
	"github.com/use-agent/scrapecheck/models"
)

// HighConfidence is the minimum confidence for an "antibot" detection to
// count as a confirmed bot-management product.
const HighConfidence = 80

// Finding is what a single rule contributes to the verdict.
type Finding struct {
	ScoreDelta int
	Details    []string
	Tools      []string
}

// Rule is one step of the heuristic. Eval receives the snapshot and the
// details emitted by earlier rules; it must not modify either.
type Rule struct {
	Name string
	Eval func(s *models.SiteAnalysisResult, emitted []string) Finding
}

// Rules returns the heuristic steps in evaluation order. The order is part
// of the output contract: it fixes the sequence of details and tools.
func Rules() []Rule {
	return []Rule{
		{Name: "high-confidence-antibot", Eval: antiBotRule},
		{Name: "captcha", Eval: captchaRule},
		{Name: "waf", Eval: wafRule},
		{Name: "data-delivery", Eval: deliveryRule},
		{Name: "structured-data", Eval: structuredDataRule},
		{Name: "api-endpoints", Eval: apiEndpointsRule},
		{Name: "framework-markers", Eval: markersRule},
		{Name: "technologies", Eval: technologyRule},
	}
}

// vendorHint is a bot-management vendor with its own score penalty and tool.
type vendorHint struct {
	match      string
	scoreDelta int
	tool       string
}

var vendorHints = []vendorHint{
	{"cloudflare", 0, "Cloudflare bypass: FlareSolverr, cloudscraper or a stealth browser that solves the JS challenge"},
	{"akamai", 1, "Akamai bypass: real browser TLS/HTTP2 fingerprint (curl_cffi, stealth browser) + residential proxies"},
	{"datadome", 2, "DataDome bypass: residential/mobile proxies + fully patched stealth browser with human-like behavior"},
	{"perimeterx", 2, "PerimeterX (HUMAN) bypass: stealth browser with realistic mouse/keyboard events + residential proxies"},
}

func antiBotRule(s *models.SiteAnalysisResult, _ []string) Finding {
	names := uniqueNames(highConfidenceAntiBot(s))
	if len(names) == 0 {
		return Finding{}
	}

	f := Finding{
		ScoreDelta: 3,
		Details: []string{fmt.Sprintf(
			"Anti-bot protection detected: %s — requests without a real browser fingerprint are likely to be challenged or blocked",
			strings.Join(names, ", "))},
	}
	for _, v := range vendorHints {
		if anyContainsFold(names, v.match) {
			f.ScoreDelta += v.scoreDelta
			f.Tools = append(f.Tools, v.tool)
		}
	}
	return f
}

func captchaRule(s *models.SiteAnalysisResult, _ []string) Finding {
	names := uniqueNames(byCategory(s.AntiBotDetections, models.CategoryCaptcha))
	if len(names) == 0 {
		return Finding{}
	}
	return Finding{
		ScoreDelta: 2,
		Details: []string{fmt.Sprintf(
			"CAPTCHA detected: %s — expect challenges on repeated or automated access", strings.Join(names, ", "))},
		Tools: []string{"CAPTCHA solving service (2Captcha, Anti-Captcha, CapSolver)"},
	}
}

func wafRule(s *models.SiteAnalysisResult, _ []string) Finding {
	names := uniqueNames(byCategory(s.AntiBotDetections, models.CategoryWAF))
	if len(names) == 0 {
		return Finding{}
	}
	return Finding{
		ScoreDelta: 1,
		Details: []string{fmt.Sprintf(
			"Web application firewall detected: %s — keep request rates low and headers realistic", strings.Join(names, ", "))},
	}
}

func deliveryRule(s *models.SiteAnalysisResult, _ []string) Finding {
	switch s.DataDelivery.DataDeliveryMethod {
	case models.DeliveryServerRendered:
		return Finding{
			Details: []string{"Content is server-rendered — the data is present in the initial HTML response"},
			Tools:   []string{"HTTP client + HTML parser (requests + BeautifulSoup, Cheerio, goquery)"},
		}

	case models.DeliverySPAAPI:
		f := Finding{
			ScoreDelta: 1,
			Details:    []string{"Content is rendered client-side by a single-page app that loads its data through background requests"},
		}
		if direct := endpoints.FilterDirectAPI(s.InterceptedRequests.Endpoints); len(direct) > 0 {
			f.Details = append(f.Details, fmt.Sprintf(
				"Found %d API endpoint(s) feeding the page — they can likely be called directly", len(direct)))
			f.Tools = append(f.Tools, "Direct API calls (replay the intercepted requests with an HTTP client)")
		} else {
			f.Tools = append(f.Tools, "Headless browser (Playwright, Puppeteer) to render the page")
		}
		return f

	case models.DeliveryHybrid:
		return Finding{
			Details: []string{"Content is partly server-rendered and partly loaded by JavaScript after page load"},
			Tools:   []string{"HTTP client for the initial HTML + headless browser or API calls for dynamic parts"},
		}
	}
	return Finding{}
}

func structuredDataRule(s *models.SiteAnalysisResult, _ []string) Finding {
	if !s.DataDelivery.HasStructuredData {
		return Finding{}
	}
	types := "unspecified types"
	if len(s.DataDelivery.StructuredDataTypes) > 0 {
		types = strings.Join(s.DataDelivery.StructuredDataTypes, ", ")
	}
	return Finding{
		Details: []string{fmt.Sprintf("Structured data available (%s)", types)},
		Tools:   []string{"JSON-LD extraction (parse <script type=\"application/ld+json\"> blocks)"},
	}
}

// apiEndpointsRule reports the broad API count unless an earlier detail
// already talks about API endpoints. The guard is a substring match on the
// emitted text, not a flag.
func apiEndpointsRule(s *models.SiteAnalysisResult, emitted []string) Finding {
	api, _ := endpoints.Partition(s.InterceptedRequests.Endpoints)
	if len(api) == 0 || anyContains(emitted, "API endpoint") {
		return Finding{}
	}
	return Finding{
		Details: []string{fmt.Sprintf("%d API endpoint(s) intercepted during page load", len(api))},
	}
}

// frameworkMarker is a detail emitted when any of keys is present in
// SiteAnalysisResult.WindowProperties.
type frameworkMarker struct {
	keys   []string
	detail string
}

var frameworkMarkers = []frameworkMarker{
	{[]string{"__NEXT_DATA__"}, "Next.js page data (__NEXT_DATA__) is embedded in the page — parse the JSON instead of the DOM"},
	{[]string{"__NUXT__"}, "Nuxt state (__NUXT__) is embedded in the page — the initial data can be read from the inline script"},
	{[]string{"__APOLLO_STATE__", "__RELAY_STORE__"}, "GraphQL client cache (Apollo/Relay) is embedded in the page — query results are available as JSON"},
	{[]string{"__INITIAL_STATE__", "__PRELOADED_STATE__"}, "Preloaded application state is embedded in the page — extract it from the inline script"},
}

func markersRule(s *models.SiteAnalysisResult, _ []string) Finding {
	var f Finding
	for _, m := range frameworkMarkers {
		for _, k := range m.keys {
			if _, ok := s.WindowProperties[k]; ok {
				f.Details = append(f.Details, m.detail)
				break
			}
		}
	}
	return f
}

func technologyRule(s *models.SiteAnalysisResult, _ []string) Finding {
	var f Finding
	if hasTechnology(s, "WordPress") {
		f.Details = append(f.Details, "WordPress site — content is often available through the REST API at /wp-json/wp/v2/")
		f.Tools = append(f.Tools, "WordPress REST API (/wp-json/wp/v2/posts, /wp-json/wp/v2/pages)")
	}
	if hasTechnology(s, "Shopify") {
		f.Details = append(f.Details, "Shopify store — product data is usually exposed at /products.json and /products/<handle>.json")
	}
	return f
}

func highConfidenceAntiBot(s *models.SiteAnalysisResult) []models.Detection {
	var out []models.Detection
	for _, d := range s.AntiBotDetections {
		if d.Category == models.CategoryAntiBot && d.Confidence >= HighConfidence {
			out = append(out, d)
		}
	}
	return out
}

func byCategory(ds []models.Detection, category string) []models.Detection {
	var out []models.Detection
	for _, d := range ds {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}

// uniqueNames returns detection names deduplicated by exact match, in
// first-seen order.
func uniqueNames(ds []models.Detection) []string {
	seen := make(map[string]struct{}, len(ds))
	var names []string
	for _, d := range ds {
		if _, ok := seen[d.Name]; ok {
			continue
		}
		seen[d.Name] = struct{}{}
		names = append(names, d.Name)
	}
	return names
}

func hasTechnology(s *models.SiteAnalysisResult, name string) bool {
	for _, t := range s.Technologies {
		if t.Name == name {
			return true
		}
	}
	return false
}

func anyContains(ss []string, sub string) bool {
	for _, s := range ss {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func anyContainsFold(ss []string, sub string) bool {
	for _, s := range ss {
		if strings.Contains(strings.ToLower(s), sub) {
			return true
		}
	}
	return false
}
