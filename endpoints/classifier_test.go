package endpoints

import (
	"testing"

	"github.com/use-agent/scrapecheck/models"
)

func ep(path string, methods ...string) models.Endpoint {
	return models.Endpoint{Endpoint: path, Methods: methods, Count: 1}
}

func TestIsAPILike(t *testing.T) {
	tests := []struct {
		name string
		ep   models.Endpoint
		want bool
	}{
		{"api segment", ep("/api/products", "GET"), true},
		{"graphql", ep("/graphql", "GET"), true},
		{"json file", ep("/data/feed.json", "GET"), true},
		{"v1", ep("/v1/items", "GET"), true},
		{"v2", ep("/svc/v2/items", "GET"), true},
		{"rest", ep("/rest/catalog", "GET"), true},
		{"upper case path", ep("/API/Products", "GET"), true},
		{"post only", ep("/collect", "POST"), true},
		{"plain get", ep("/static/app.js", "GET"), false},
		{"api without trailing slash", ep("/api", "GET"), false},
		{"lowercase post not matched", ep("/collect", "post"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAPILike(tt.ep); got != tt.want {
				t.Errorf("IsAPILike(%+v) = %v, want %v", tt.ep, got, tt.want)
			}
		})
	}
}

func TestIsDirectAPI(t *testing.T) {
	tests := []struct {
		name string
		ep   models.Endpoint
		want bool
	}{
		{"api segment", ep("/api/products", "GET"), true},
		{"graphql", ep("/GraphQL", "POST"), true},
		{"json is not direct", ep("/data/feed.json", "GET"), false},
		{"v1 is not direct", ep("/v1/items", "GET"), false},
		{"rest is not direct", ep("/rest/catalog", "GET"), false},
		{"post is not direct", ep("/collect", "POST"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDirectAPI(tt.ep); got != tt.want {
				t.Errorf("IsDirectAPI(%+v) = %v, want %v", tt.ep, got, tt.want)
			}
		})
	}
}

func TestPartition_PreservesOrder(t *testing.T) {
	in := []models.Endpoint{
		ep("/a.js", "GET"),
		ep("/api/one", "GET"),
		ep("/b.css", "GET"),
		ep("/track", "POST"),
		ep("/v1/two", "GET"),
	}

	api, other := Partition(in)

	wantAPI := []string{"/api/one", "/track", "/v1/two"}
	wantOther := []string{"/a.js", "/b.css"}
	if len(api) != len(wantAPI) || len(other) != len(wantOther) {
		t.Fatalf("got api=%d other=%d, want api=%d other=%d", len(api), len(other), len(wantAPI), len(wantOther))
	}
	for i, w := range wantAPI {
		if api[i].Endpoint != w {
			t.Errorf("api[%d] = %q, want %q", i, api[i].Endpoint, w)
		}
	}
	for i, w := range wantOther {
		if other[i].Endpoint != w {
			t.Errorf("other[%d] = %q, want %q", i, other[i].Endpoint, w)
		}
	}
}

func TestPartition_Empty(t *testing.T) {
	api, other := Partition(nil)
	if api == nil || other == nil {
		t.Error("Partition must return non-nil slices")
	}
	if len(api)+len(other) != 0 {
		t.Error("expected empty partitions")
	}
}

func TestFilterDirectAPI_NarrowerThanPartition(t *testing.T) {
	in := []models.Endpoint{
		ep("/api/one", "GET"),
		ep("/feed.json", "GET"),
		ep("/graphql", "POST"),
		ep("/beacon", "POST"),
	}

	direct := FilterDirectAPI(in)
	api, _ := Partition(in)

	if len(direct) != 2 || direct[0].Endpoint != "/api/one" || direct[1].Endpoint != "/graphql" {
		t.Errorf("FilterDirectAPI = %+v", direct)
	}
	if len(api) != 4 {
		t.Errorf("broad partition should match all four, got %d", len(api))
	}
}
