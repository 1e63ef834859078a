package collector

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/scrapecheck/endpoints"
	"github.com/use-agent/scrapecheck/models"
	"golang.org/x/net/html"
)

// minContentText is the visible text length below which a body is treated
// as an unrendered shell.
const minContentText = 200

var reNoscript = regexp.MustCompile(`<noscript[^>]*>[^<]*(enable|activate|turn on|requires?)\s+javascript`)

// spaRoots are mount points that client-side frameworks render into.
var spaRoots = []string{"#root", "#app", "#__next", "#__nuxt", "#___gatsby", "app-root"}

// embeddedStateMarkers are inline script fragments that carry page data
// as JSON for client-side hydration.
var embeddedStateMarkers = []string{
	"__NEXT_DATA__",
	"__NUXT__",
	"__APOLLO_STATE__",
	"__RELAY_STORE__",
	"__INITIAL_STATE__",
	"__PRELOADED_STATE__",
	"__remixContext",
}

// ClassifyDelivery decides how content reaches the browser: rendered on
// the server, fetched by a client-side app, or a mix of both.
func ClassifyDelivery(p *Page, windowProps map[string]string, eps []models.Endpoint) models.DataDelivery {
	dd := models.DataDelivery{
		StructuredDataTypes: structuredDataTypes(p.Doc),
		Evidence:            []string{},
	}
	dd.HasStructuredData = len(dd.StructuredDataTypes) > 0
	if dd.HasStructuredData {
		dd.Evidence = append(dd.Evidence, "structured data: "+strings.Join(dd.StructuredDataTypes, ", "))
	}

	textLen := len(extractVisibleText(p.HTML))
	spaEvidence := spaIndicators(p, textLen)
	dd.HasSPAIndicators = len(spaEvidence) > 0
	dd.Evidence = append(dd.Evidence, spaEvidence...)

	if ev := embeddedState(p, windowProps); ev != "" {
		dd.HasAPIDataInPage = true
		dd.Evidence = append(dd.Evidence, ev)
	}

	apiEps, _ := endpoints.Partition(eps)
	apiCount := len(apiEps)
	if apiCount > 0 {
		dd.Evidence = append(dd.Evidence, fmt.Sprintf("%d API-like request(s) during load", apiCount))
	}

	switch {
	case dd.HasSPAIndicators && dd.HasAPIDataInPage:
		dd.DataDeliveryMethod = models.DeliveryHybrid
	case dd.HasSPAIndicators:
		dd.DataDeliveryMethod = models.DeliverySPAAPI
	case textLen >= minContentText && (dd.HasAPIDataInPage || apiCount > 0):
		dd.DataDeliveryMethod = models.DeliveryHybrid
	case textLen >= minContentText:
		dd.DataDeliveryMethod = models.DeliveryServerRendered
	default:
		dd.DataDeliveryMethod = models.DeliveryUnknown
	}
	return dd
}

// spaIndicators returns evidence that the document is a client-rendered
// shell: empty mount points, JavaScript-required notices, or many scripts
// around little text.
func spaIndicators(p *Page, textLen int) []string {
	var ev []string

	for _, sel := range spaRoots {
		root := p.Doc.Find(sel).First()
		if root.Length() == 0 {
			continue
		}
		if root.Children().Length() == 0 && strings.TrimSpace(root.Text()) == "" {
			ev = append(ev, "empty mount point "+sel)
		}
	}

	if reNoscript.MatchString(p.lowerHTML) {
		ev = append(ev, "noscript asks for JavaScript")
	}

	scripts := len(p.ScriptSrcs) + len(p.InlineScripts)
	if scripts > 10 && textLen < 500 {
		ev = append(ev, fmt.Sprintf("%d scripts with little visible text", scripts))
	} else if scripts > 0 && textLen < minContentText && len(ev) > 0 {
		ev = append(ev, "little visible text")
	}
	return ev
}

// embeddedState reports the first hydration payload found inline or on
// window, or "" when none is present.
func embeddedState(p *Page, windowProps map[string]string) string {
	for _, m := range embeddedStateMarkers {
		if _, ok := windowProps[m]; ok {
			return "window." + m + " present"
		}
	}
	for _, m := range embeddedStateMarkers {
		if p.Doc.Find("script#"+m).Length() > 0 {
			return "inline " + m
		}
		for _, s := range p.InlineScripts {
			if strings.Contains(s, m) {
				return "inline " + m
			}
		}
	}
	found := ""
	p.Doc.Find(`script[type="application/json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(strings.TrimSpace(s.Text())) > 100 {
			found = "inline application/json payload"
			return false
		}
		return true
	})
	return found
}

// structuredDataTypes collects schema.org types from JSON-LD blocks and
// microdata, de-duplicated in document order.
func structuredDataTypes(doc *goquery.Document) []string {
	types := []string{}
	seen := map[string]struct{}{}
	add := func(t string) {
		t = strings.TrimSpace(t)
		if i := strings.LastIndexByte(t, '/'); i >= 0 {
			t = t[i+1:]
		}
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		types = append(types, t)
	}

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(s.Text()), &v); err != nil {
			return
		}
		walkLDTypes(v, add)
	})
	doc.Find("[itemtype]").Each(func(_ int, s *goquery.Selection) {
		for _, t := range strings.Fields(s.AttrOr("itemtype", "")) {
			add(t)
		}
	})
	return types
}

// walkLDTypes visits @type values at the top level, inside arrays and
// inside @graph.
func walkLDTypes(v any, add func(string)) {
	switch node := v.(type) {
	case []any:
		for _, item := range node {
			walkLDTypes(item, add)
		}
	case map[string]any:
		switch t := node["@type"].(type) {
		case string:
			add(t)
		case []any:
			for _, item := range t {
				if s, ok := item.(string); ok {
					add(s)
				}
			}
		}
		if graph, ok := node["@graph"]; ok {
			walkLDTypes(graph, add)
		}
	}
}

// extractVisibleText extracts the visible text from within <body>, stripping
// all tags and <script>/<style> content. Used for heuristic analysis only.
func extractVisibleText(body string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(body))
	var buf strings.Builder
	inBody := false
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "body" {
				inBody = true
			}
			if tag == "script" || tag == "style" || tag == "noscript" || tag == "template" {
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			if tag == "script" || tag == "style" || tag == "noscript" || tag == "template" {
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
