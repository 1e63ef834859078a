package engine

import (
	"context"
	"net/http"
	"time"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http", "browser", "browser-stealth").
	Name() string

	// Fetch loads the page and returns everything observable about it.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// FetchRequest contains everything an engine needs to load a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
	Timeout time.Duration
	Stealth bool
}

// FetchResult is the output of a successful engine fetch. The HTTP engine
// fills only the response-level fields; browser engines also capture the
// network activity and window globals seen during page load.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string

	// Headers are the main document's response headers.
	Headers http.Header

	// CookieNames are the names of cookies set while loading the page.
	CookieNames []string

	// Requests are the sub-requests observed during page load, in order.
	Requests []CapturedRequest

	// WindowProperties maps present window globals to a short preview.
	// Nil when the engine cannot evaluate JavaScript.
	WindowProperties map[string]string
}

// CapturedRequest is a single network request issued by the page.
type CapturedRequest struct {
	URL          string
	Method       string
	ResourceType string // CDP resource type, e.g. "XHR", "Fetch", "Script"
}

// WindowMarkers are the window globals probed after page load. The first
// six drive the recommendation; the rest are kept as evidence.
var WindowMarkers = []string{
	"__NEXT_DATA__",
	"__NUXT__",
	"__APOLLO_STATE__",
	"__RELAY_STORE__",
	"__INITIAL_STATE__",
	"__PRELOADED_STATE__",
	"__remixContext",
	"__GATSBY",
	"__SVELTEKIT_DATA__",
	"Shopify",
	"wp",
}
