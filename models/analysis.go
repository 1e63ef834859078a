package models

import "time"

// Anti-bot detection categories.
const (
	CategoryAntiBot = "antibot"
	CategoryCaptcha = "captcha"
	CategoryWAF     = "waf"
)

// Data delivery methods.
const (
	DeliveryServerRendered = "server-rendered"
	DeliverySPAAPI         = "spa-api"
	DeliveryHybrid         = "hybrid"
	DeliveryUnknown        = "unknown"
)

// SiteAnalysisResult is the signal snapshot observed on a single page.
// It is produced once per analysis run by the collector and is never
// mutated afterwards.
type SiteAnalysisResult struct {
	// AntiBotDetections lists bot-management, CAPTCHA and WAF signals in
	// the order they were observed.
	AntiBotDetections []Detection `json:"antiBotDetections"`

	// Technologies lists fingerprinted technologies (CMS, frameworks, ...).
	Technologies []Detection `json:"technologies"`

	DataDelivery        DataDelivery        `json:"dataDelivery"`
	InterceptedRequests InterceptedRequests `json:"interceptedRequests"`

	// WindowProperties maps a framework marker (e.g. "__NEXT_DATA__") to a
	// short preview of its value. Only the presence of a key is meaningful.
	WindowProperties map[string]string `json:"windowProperties"`

	// RobotsTxt is nil when robots.txt was not fetched or the fetch failed.
	RobotsTxt *RobotsTxtAnalysis `json:"robotsTxt,omitempty"`

	AnalyzedAt time.Time `json:"analyzedAt"`
	URL        string    `json:"url"`
}

// Detection is a single fingerprint hit.
type Detection struct {
	Name string `json:"name"`

	// Category is "antibot", "captcha" or "waf" for anti-bot detections,
	// and a free-form technology category (e.g. "cms") for technologies.
	Category string `json:"category"`

	// Confidence is 0-100.
	Confidence int    `json:"confidence"`
	Evidence   string `json:"evidence"`
}

// DataDelivery describes how page content reaches the client.
type DataDelivery struct {
	HasStructuredData   bool     `json:"hasStructuredData"`
	StructuredDataTypes []string `json:"structuredDataTypes"`

	// DataDeliveryMethod is one of the Delivery* constants.
	DataDeliveryMethod string   `json:"dataDeliveryMethod"`
	HasSPAIndicators   bool     `json:"hasSPAIndicators"`
	HasAPIDataInPage   bool     `json:"hasAPIDataInPage"`
	Evidence           []string `json:"evidence"`
}

// InterceptedRequests aggregates the network activity seen during page load.
type InterceptedRequests struct {
	TotalRequests int        `json:"totalRequests"`
	Endpoints     []Endpoint `json:"endpoints"`
}

// Endpoint is a request path observed one or more times during page load.
type Endpoint struct {
	Endpoint   string   `json:"endpoint"`
	Methods    []string `json:"methods"`
	Count      int      `json:"count"`
	SampleURLs []string `json:"sampleUrls"`
}

// RobotsTxtAnalysis summarises a parsed robots.txt.
type RobotsTxtAnalysis struct {
	// Found is always true; an absent robots.txt is a nil *RobotsTxtAnalysis.
	Found        bool `json:"found"`
	FullyBlocked bool `json:"fullyBlocked"`

	// CrawlDelay is nil when no valid Crawl-delay applies to "*".
	CrawlDelay   *float64 `json:"crawlDelay"`
	SitemapURLs  []string `json:"sitemapUrls"`
	KeyDisallows []string `json:"keyDisallows"`
}

// Normalize replaces nil collections with empty ones and defaults an empty
// delivery method to "unknown", so downstream consumers never see a missing
// field. It returns the receiver for chaining.
func (r *SiteAnalysisResult) Normalize() *SiteAnalysisResult {
	if r.AntiBotDetections == nil {
		r.AntiBotDetections = []Detection{}
	}
	if r.Technologies == nil {
		r.Technologies = []Detection{}
	}
	if r.DataDelivery.StructuredDataTypes == nil {
		r.DataDelivery.StructuredDataTypes = []string{}
	}
	if r.DataDelivery.Evidence == nil {
		r.DataDelivery.Evidence = []string{}
	}
	if r.DataDelivery.DataDeliveryMethod == "" {
		r.DataDelivery.DataDeliveryMethod = DeliveryUnknown
	}
	if r.InterceptedRequests.Endpoints == nil {
		r.InterceptedRequests.Endpoints = []Endpoint{}
	}
	for i := range r.InterceptedRequests.Endpoints {
		ep := &r.InterceptedRequests.Endpoints[i]
		if ep.Methods == nil {
			ep.Methods = []string{}
		}
		if ep.SampleURLs == nil {
			ep.SampleURLs = []string{}
		}
	}
	if r.WindowProperties == nil {
		r.WindowProperties = map[string]string{}
	}
	if r.RobotsTxt != nil {
		if r.RobotsTxt.SitemapURLs == nil {
			r.RobotsTxt.SitemapURLs = []string{}
		}
		if r.RobotsTxt.KeyDisallows == nil {
			r.RobotsTxt.KeyDisallows = []string{}
		}
	}
	return r
}
