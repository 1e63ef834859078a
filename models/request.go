package models

// Fetch modes accepted by AnalyzeRequest.Mode.
const (
	ModeAuto    = "auto"
	ModeHTTP    = "http"
	ModeBrowser = "browser"
)

// AnalyzeRequest is the payload for POST /api/v1/analyze.
type AnalyzeRequest struct {
	// URL is the target page to analyze. Required.
	URL string `json:"url" binding:"required,url"`

	// Mode controls how the page is loaded.
	// "auto" (default): race the HTTP engine against the browser engines.
	// "http": pure HTTP only; no network interception or window probing.
	// "browser": force headless Chrome so XHR/fetch traffic is captured.
	Mode string `json:"mode,omitempty" binding:"omitempty,oneof=auto http browser"`

	// Timeout is the maximum duration in seconds for the whole analysis.
	// Default: 30. Max: 120.
	Timeout int `json:"timeout,omitempty" binding:"omitempty,min=1,max=120"`

	// Stealth masks common automation fingerprints in the browser engine.
	Stealth bool `json:"stealth,omitempty"`

	// SkipRobots disables the best-effort robots.txt fetch.
	SkipRobots bool `json:"skip_robots,omitempty"`

	// Headers are extra request headers sent with the page fetch.
	Headers map[string]string `json:"headers,omitempty"`

	// MaxAge enables the response cache: a cached analysis younger than
	// MaxAge milliseconds is returned as-is. 0 disables caching.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults applies default values to unset fields.
func (r *AnalyzeRequest) Defaults() {
	if r.Mode == "" {
		r.Mode = ModeAuto
	}
	if r.Timeout == 0 {
		r.Timeout = 30
	}
}

// RobotsRequest is the payload for POST /api/v1/robots.
// Exactly one of Content or URL must be set.
type RobotsRequest struct {
	// Content is raw robots.txt text to parse.
	Content *string `json:"content,omitempty"`

	// URL is any page on the target site; {origin}/robots.txt is fetched.
	URL string `json:"url,omitempty" binding:"omitempty,url"`
}
