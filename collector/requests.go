package collector

import (
	"net/url"
	"slices"
	"strings"

	"github.com/use-agent/scrapecheck/engine"
	"github.com/use-agent/scrapecheck/models"
)

// maxSampleURLs bounds the sample URLs kept per endpoint.
const maxSampleURLs = 3

// dataResourceTypes are the request types that can carry page data.
var dataResourceTypes = map[string]struct{}{
	"XHR":         {},
	"Fetch":       {},
	"EventSource": {},
	"WebSocket":   {},
}

// AggregateEndpoints groups the page's XHR/fetch requests by path. Methods
// are upper-cased, de-duplicated and sorted; endpoints keep the order in
// which their path was first requested. TotalRequests counts every
// captured request, not only data requests.
func AggregateEndpoints(reqs []engine.CapturedRequest) models.InterceptedRequests {
	out := models.InterceptedRequests{
		TotalRequests: len(reqs),
		Endpoints:     []models.Endpoint{},
	}
	index := map[string]int{}

	for _, r := range reqs {
		if _, ok := dataResourceTypes[r.ResourceType]; !ok {
			continue
		}
		path := endpointPath(r.URL)
		if path == "" {
			continue
		}

		i, seen := index[path]
		if !seen {
			i = len(out.Endpoints)
			index[path] = i
			out.Endpoints = append(out.Endpoints, models.Endpoint{
				Endpoint:   path,
				Methods:    []string{},
				SampleURLs: []string{},
			})
		}
		ep := &out.Endpoints[i]
		ep.Count++

		method := strings.ToUpper(strings.TrimSpace(r.Method))
		if method == "" {
			method = "GET"
		}
		if !slices.Contains(ep.Methods, method) {
			ep.Methods = append(ep.Methods, method)
			slices.Sort(ep.Methods)
		}
		if len(ep.SampleURLs) < maxSampleURLs && !slices.Contains(ep.SampleURLs, r.URL) {
			ep.SampleURLs = append(ep.SampleURLs, r.URL)
		}
	}
	return out
}

// endpointPath returns the path of raw, "/" for an empty path, or "" when
// raw is not an http(s) URL.
func endpointPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}
