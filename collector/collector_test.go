package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/use-agent/scrapecheck/engine"
	"github.com/use-agent/scrapecheck/models"
)

const longText = `Lorem ipsum dolor sit amet, consectetur adipiscing elit. Sed do eiusmod
tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud
exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat. Duis aute irure dolor
in reprehenderit in voluptate velit esse cillum dolore eu fugiat nulla pariatur.`

func newTestPage(t *testing.T, html string, headers http.Header, cookies ...string) *Page {
	t.Helper()
	p, err := NewPage(&engine.FetchResult{
		HTML:        html,
		FinalURL:    "https://shop.example.com/products",
		Headers:     headers,
		CookieNames: cookies,
	})
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	return p
}

func findDetection(ds []models.Detection, name string) (models.Detection, bool) {
	for _, d := range ds {
		if d.Name == name {
			return d, true
		}
	}
	return models.Detection{}, false
}

func TestDetectAntiBot_CloudflareChallenge(t *testing.T) {
	html := `<html><head><title>Just a moment...</title></head><body>
		<script src="/cdn-cgi/challenge-platform/h/b/orchestrate/jsch/v1"></script></body></html>`
	p := newTestPage(t, html, http.Header{
		"Server": {"cloudflare"},
		"Cf-Ray": {"8a1b2c3d4e5f-AMS"},
	})

	d, ok := findDetection(DetectAntiBot(p), "Cloudflare")
	if !ok {
		t.Fatal("Cloudflare not detected")
	}
	if d.Category != models.CategoryAntiBot {
		t.Errorf("Category = %q", d.Category)
	}
	if d.Confidence < 80 {
		t.Errorf("challenge page confidence = %d, want >= 80", d.Confidence)
	}
	if !strings.Contains(d.Evidence, "challenge-platform") {
		t.Errorf("Evidence = %q", d.Evidence)
	}
}

func TestDetectAntiBot_CloudflareCDNStaysBelowThreshold(t *testing.T) {
	p := newTestPage(t, "<html><body>"+longText+"</body></html>", http.Header{
		"Server": {"cloudflare"},
		"Cf-Ray": {"8a1b2c3d4e5f-AMS"},
	})
	d, ok := findDetection(DetectAntiBot(p), "Cloudflare")
	if !ok {
		t.Fatal("Cloudflare not detected")
	}
	if d.Confidence >= 80 {
		t.Errorf("CDN-only confidence = %d, want < 80", d.Confidence)
	}
}

func TestDetectAntiBot_CookiesFromEngineAndSetCookie(t *testing.T) {
	p := newTestPage(t, "<html><body></body></html>", http.Header{
		"Set-Cookie": {"incap_ses_123_456=abc; path=/", "visid_incap_456=def; path=/"},
	}, "_abck", "bm_sz")

	ds := DetectAntiBot(p)
	akamai, ok := findDetection(ds, "Akamai Bot Manager")
	if !ok || akamai.Confidence != 100 {
		t.Errorf("Akamai = %+v, found=%v", akamai, ok)
	}
	imperva, ok := findDetection(ds, "Imperva Incapsula")
	if !ok || imperva.Category != models.CategoryWAF {
		t.Errorf("Imperva = %+v, found=%v", imperva, ok)
	}
}

func TestDetectAntiBot_Captchas(t *testing.T) {
	html := `<html><body><form><div class="h-captcha" data-sitekey="x"></div></form>
		<script src="https://www.google.com/recaptcha/api.js"></script></body></html>`
	ds := DetectAntiBot(newTestPage(t, html, nil))

	for _, name := range []string{"hCaptcha", "reCAPTCHA"} {
		d, ok := findDetection(ds, name)
		if !ok {
			t.Errorf("%s not detected", name)
			continue
		}
		if d.Category != models.CategoryCaptcha || d.Confidence != 100 {
			t.Errorf("%s = %+v", name, d)
		}
	}
}

func TestDetectAntiBot_OrderAntiBotCaptchaWAF(t *testing.T) {
	html := `<html><body><div class="g-recaptcha"></div></body></html>`
	p := newTestPage(t, html, http.Header{"X-Sucuri-Id": {"1"}}, "datadome")

	var cats []string
	for _, d := range DetectAntiBot(p) {
		cats = append(cats, d.Category)
	}
	want := []string{models.CategoryAntiBot, models.CategoryCaptcha, models.CategoryWAF}
	if !reflect.DeepEqual(cats, want) {
		t.Errorf("categories = %v, want %v", cats, want)
	}
}

func TestDetectAntiBot_CleanPage(t *testing.T) {
	ds := DetectAntiBot(newTestPage(t, "<html><body>"+longText+"</body></html>", nil))
	if len(ds) != 0 {
		t.Errorf("expected no detections, got %+v", ds)
	}
}

func TestDetectTechnologies(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"wordpress generator", `<html><head><meta name="generator" content="WordPress 6.4"></head><body><img src="/wp-content/a.png"></body></html>`, "WordPress"},
		{"shopify cdn", `<html><head><link rel="stylesheet" href="//cdn.shopify.com/s/files/theme.css"></head></html>`, "Shopify"},
		{"next data", `<html><body><div id="__next"></div><script id="__NEXT_DATA__" type="application/json">{}</script></body></html>`, "Next.js"},
		{"angular", `<html><body><app-root ng-version="17.0.0"></app-root></body></html>`, "Angular"},
		{"jquery", `<html><head><script src="/js/jquery-3.7.1.min.js"></script></head></html>`, "jQuery"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := DetectTechnologies(newTestPage(t, tt.html, nil))
			if _, ok := findDetection(ds, tt.want); !ok {
				t.Errorf("%s not detected in %+v", tt.want, ds)
			}
		})
	}
}

func TestClassifyDelivery_ServerRendered(t *testing.T) {
	p := newTestPage(t, "<html><body><article>"+longText+"</article></body></html>", nil)
	dd := ClassifyDelivery(p, nil, nil)
	if dd.DataDeliveryMethod != models.DeliveryServerRendered {
		t.Errorf("method = %q", dd.DataDeliveryMethod)
	}
	if dd.HasSPAIndicators || dd.HasAPIDataInPage || dd.HasStructuredData {
		t.Errorf("unexpected flags: %+v", dd)
	}
}

func TestClassifyDelivery_SPAShell(t *testing.T) {
	html := `<html><body><noscript>You need to enable JavaScript to run this app.</noscript>
		<div id="root"></div><script src="/static/js/main.js"></script></body></html>`
	dd := ClassifyDelivery(newTestPage(t, html, nil), nil, nil)
	if dd.DataDeliveryMethod != models.DeliverySPAAPI {
		t.Errorf("method = %q", dd.DataDeliveryMethod)
	}
	if !dd.HasSPAIndicators {
		t.Error("HasSPAIndicators = false")
	}
	if len(dd.Evidence) < 2 {
		t.Errorf("Evidence = %v", dd.Evidence)
	}
}

func TestClassifyDelivery_SPAShellWithEmbeddedState(t *testing.T) {
	html := `<html><body><div id="app"></div>
		<script>window.__INITIAL_STATE__ = {"items":[1,2,3]};</script></body></html>`
	dd := ClassifyDelivery(newTestPage(t, html, nil), nil, nil)
	if dd.DataDeliveryMethod != models.DeliveryHybrid {
		t.Errorf("method = %q", dd.DataDeliveryMethod)
	}
	if !dd.HasAPIDataInPage {
		t.Error("HasAPIDataInPage = false")
	}
}

func TestClassifyDelivery_RenderedPageWithAPICallsIsHybrid(t *testing.T) {
	p := newTestPage(t, "<html><body><main>"+longText+"</main></body></html>", nil)
	eps := []models.Endpoint{{Endpoint: "/api/products", Methods: []string{"GET"}, Count: 1}}
	dd := ClassifyDelivery(p, nil, eps)
	if dd.DataDeliveryMethod != models.DeliveryHybrid {
		t.Errorf("method = %q", dd.DataDeliveryMethod)
	}
}

func TestClassifyDelivery_WindowPropsCountAsEmbeddedData(t *testing.T) {
	p := newTestPage(t, "<html><body>"+longText+"</body></html>", nil)
	dd := ClassifyDelivery(p, map[string]string{"__NUXT__": "{}"}, nil)
	if !dd.HasAPIDataInPage {
		t.Error("HasAPIDataInPage = false")
	}
}

func TestClassifyDelivery_EmptyBodyIsUnknown(t *testing.T) {
	dd := ClassifyDelivery(newTestPage(t, "<html><body></body></html>", nil), nil, nil)
	if dd.DataDeliveryMethod != models.DeliveryUnknown {
		t.Errorf("method = %q", dd.DataDeliveryMethod)
	}
}

func TestStructuredDataTypes(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">{"@context":"https://schema.org","@type":"Product","name":"x"}</script>
		<script type="application/ld+json">{"@graph":[{"@type":["Organization","Brand"]},{"@type":"Product"}]}</script>
		<script type="application/ld+json">not json</script>
		</head><body><div itemscope itemtype="https://schema.org/BreadcrumbList"></div></body></html>`
	p := newTestPage(t, html, nil)

	got := structuredDataTypes(p.Doc)
	want := []string{"Product", "Organization", "Brand", "BreadcrumbList"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("types = %v, want %v", got, want)
	}
}

func TestAggregateEndpoints(t *testing.T) {
	reqs := []engine.CapturedRequest{
		{URL: "https://shop.example.com/", Method: "GET", ResourceType: "Document"},
		{URL: "https://shop.example.com/api/products?page=1", Method: "GET", ResourceType: "XHR"},
		{URL: "https://shop.example.com/app.js", Method: "GET", ResourceType: "Script"},
		{URL: "https://shop.example.com/graphql", Method: "post", ResourceType: "Fetch"},
		{URL: "https://shop.example.com/api/products?page=2", Method: "GET", ResourceType: "XHR"},
		{URL: "https://shop.example.com/api/products?page=3", Method: "POST", ResourceType: "XHR"},
		{URL: "https://shop.example.com/api/products?page=4", Method: "GET", ResourceType: "XHR"},
		{URL: "https://shop.example.com/api/products?page=1", Method: "GET", ResourceType: "XHR"},
		{URL: "data:application/json,{}", Method: "GET", ResourceType: "Fetch"},
	}

	got := AggregateEndpoints(reqs)
	if got.TotalRequests != len(reqs) {
		t.Errorf("TotalRequests = %d, want %d", got.TotalRequests, len(reqs))
	}
	if len(got.Endpoints) != 2 {
		t.Fatalf("Endpoints = %+v", got.Endpoints)
	}

	products := got.Endpoints[0]
	if products.Endpoint != "/api/products" || products.Count != 5 {
		t.Errorf("products = %+v", products)
	}
	if !reflect.DeepEqual(products.Methods, []string{"GET", "POST"}) {
		t.Errorf("methods = %v", products.Methods)
	}
	if len(products.SampleURLs) != maxSampleURLs {
		t.Errorf("samples = %v", products.SampleURLs)
	}

	gql := got.Endpoints[1]
	if gql.Endpoint != "/graphql" || !reflect.DeepEqual(gql.Methods, []string{"POST"}) {
		t.Errorf("graphql = %+v", gql)
	}
}

func TestAggregateEndpoints_Empty(t *testing.T) {
	got := AggregateEndpoints(nil)
	if got.TotalRequests != 0 || got.Endpoints == nil || len(got.Endpoints) != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestInlineMarkers(t *testing.T) {
	html := `<html><body>
		<script id="__NEXT_DATA__" type="application/json">{"props":{}}</script>
		<script>window.__APOLLO_STATE__ = {"ROOT_QUERY":{}};</script>
		<script>if (window.__NUXT__ == null) {}</script>
		</body></html>`
	got := InlineMarkers(newTestPage(t, html, nil))

	if got["__NEXT_DATA__"] != `{"props":{}}` {
		t.Errorf("__NEXT_DATA__ = %q", got["__NEXT_DATA__"])
	}
	if !strings.HasPrefix(got["__APOLLO_STATE__"], `{"ROOT_QUERY"`) {
		t.Errorf("__APOLLO_STATE__ = %q", got["__APOLLO_STATE__"])
	}
	if _, ok := got["__NUXT__"]; ok {
		t.Error("comparison must not count as an assignment")
	}
}

type fakeFetcher struct {
	result *engine.FetchResult
	err    error
	mode   string
}

func (f *fakeFetcher) Dispatch(_ context.Context, _ *engine.FetchRequest, mode string) (*engine.FetchResult, error) {
	f.mode = mode
	return f.result, f.err
}

func TestCollect_PageAndRobots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("User-agent: *\nDisallow: /admin\nSitemap: https://example.com/sitemap.xml\n"))
	}))
	defer srv.Close()

	pageURL := srv.URL + "/products"
	f := &fakeFetcher{result: &engine.FetchResult{
		HTML:       "<html><body>" + longText + "</body></html>",
		StatusCode: 200,
		FinalURL:   pageURL,
		EngineName: "http",
		Requests: []engine.CapturedRequest{
			{URL: srv.URL + "/api/items", Method: "GET", ResourceType: "XHR"},
		},
	}}
	c := New(f, srv.Client(), true)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	res, err := c.Collect(context.Background(), pageURL, Options{Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if f.mode != engine.ModeAuto {
		t.Errorf("mode = %q, want auto", f.mode)
	}
	if res.EngineUsed != "http" || res.StatusCode != 200 || res.FinalURL != pageURL {
		t.Errorf("result meta = %+v", res)
	}

	a := res.Analysis
	if a.URL != pageURL || !a.AnalyzedAt.Equal(fixed) {
		t.Errorf("URL/AnalyzedAt = %q %v", a.URL, a.AnalyzedAt)
	}
	if a.RobotsTxt == nil || !reflect.DeepEqual(a.RobotsTxt.KeyDisallows, []string{"/admin"}) {
		t.Errorf("RobotsTxt = %+v", a.RobotsTxt)
	}
	if len(a.InterceptedRequests.Endpoints) != 1 {
		t.Errorf("Endpoints = %+v", a.InterceptedRequests.Endpoints)
	}
	if a.DataDelivery.DataDeliveryMethod != models.DeliveryHybrid {
		t.Errorf("delivery = %q", a.DataDelivery.DataDeliveryMethod)
	}
	if a.WindowProperties == nil || a.AntiBotDetections == nil {
		t.Error("snapshot not normalized")
	}
}

func TestCollect_SkipRobots(t *testing.T) {
	f := &fakeFetcher{result: &engine.FetchResult{HTML: "<html></html>", EngineName: "http"}}
	c := New(f, nil, true)

	res, err := c.Collect(context.Background(), "http://127.0.0.1:1/", Options{SkipRobots: true, Mode: engine.ModeHTTP})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if res.Analysis.RobotsTxt != nil {
		t.Errorf("RobotsTxt = %+v, want nil", res.Analysis.RobotsTxt)
	}
	if f.mode != engine.ModeHTTP {
		t.Errorf("mode = %q", f.mode)
	}
}

func TestCollect_ErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"typed error passes through", models.NewAnalysisError(models.ErrCodeBrowserCrash, "boom", nil), models.ErrCodeBrowserCrash},
		{"deadline", context.DeadlineExceeded, models.ErrCodeTimeout},
		{"no engine", engine.ErrNoEngine, models.ErrCodeInvalidInput},
		{"other", errors.New("connection refused"), models.ErrCodeNavigation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(&fakeFetcher{err: tt.err}, nil, false)
			_, err := c.Collect(context.Background(), "https://example.com", Options{})
			var ae *models.AnalysisError
			if !errors.As(err, &ae) {
				t.Fatalf("err = %v, want *AnalysisError", err)
			}
			if ae.Code != tt.code {
				t.Errorf("Code = %q, want %q", ae.Code, tt.code)
			}
		})
	}
}
