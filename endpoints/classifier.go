// Package endpoints classifies intercepted network endpoints.
//
// Two predicates are exposed and they deliberately disagree:
//
//   - IsAPILike is the broad test used for the generic endpoint count and
//     for choosing direct API consumption as the approach.
//   - IsDirectAPI is the narrow test used when the page is an API-driven
//     single-page app, to decide whether replaying its calls is viable.
//
// Renderers re-apply both to build their own endpoint sections.
package endpoints

import (
	"slices"
	"strings"

	"github.com/use-agent/scrapecheck/models"
)

var apiLikeMarkers = []string{"/api/", "/graphql", ".json", "/v1/", "/v2/", "/rest/"}

var directAPIMarkers = []string{"/api/", "/graphql"}

// IsAPILike reports whether the lower-cased path contains any broad API
// marker or the endpoint was observed with a POST request.
func IsAPILike(ep models.Endpoint) bool {
	return containsAny(strings.ToLower(ep.Endpoint), apiLikeMarkers) ||
		slices.Contains(ep.Methods, "POST")
}

// IsDirectAPI reports whether the lower-cased path contains "/api/" or
// "/graphql". Methods are not considered.
func IsDirectAPI(ep models.Endpoint) bool {
	return containsAny(strings.ToLower(ep.Endpoint), directAPIMarkers)
}

// Partition splits endpoints by IsAPILike, preserving relative order.
// Both returned slices are non-nil.
func Partition(eps []models.Endpoint) (api, other []models.Endpoint) {
	api = []models.Endpoint{}
	other = []models.Endpoint{}
	for _, ep := range eps {
		if IsAPILike(ep) {
			api = append(api, ep)
		} else {
			other = append(other, ep)
		}
	}
	return api, other
}

// FilterDirectAPI returns the endpoints matching IsDirectAPI, in order.
func FilterDirectAPI(eps []models.Endpoint) []models.Endpoint {
	out := []models.Endpoint{}
	for _, ep := range eps {
		if IsDirectAPI(ep) {
			out = append(out, ep)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
