package models

// AnalyzeResponse is the response for POST /api/v1/analyze.
type AnalyzeResponse struct {
	// Success indicates whether the analysis completed without errors.
	Success bool `json:"success"`

	// Analysis is the collected signal snapshot.
	Analysis *SiteAnalysisResult `json:"analysis,omitempty"`

	// Recommendation is the verdict composed from Analysis.
	Recommendation *ScrapingRecommendation `json:"recommendation,omitempty"`

	// StatusCode is the HTTP status code of the analyzed page.
	StatusCode int `json:"status_code,omitempty"`

	// FinalURL is the URL after following all redirects.
	FinalURL string `json:"final_url,omitempty"`

	// EngineUsed indicates which fetch engine produced the page
	// (e.g. "http", "browser", "browser-stealth").
	EngineUsed string `json:"engine_used,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus is "hit", "miss", or empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`

	// CollectMs is the time spent loading the page and extracting signals.
	CollectMs int64 `json:"collect_ms"`

	// ComposeMs is the time spent composing the recommendation.
	ComposeMs int64 `json:"compose_ms"`
}

// RecommendResponse is the response for POST /api/v1/recommend.
type RecommendResponse struct {
	Success        bool                    `json:"success"`
	Recommendation *ScrapingRecommendation `json:"recommendation,omitempty"`

	// APIEndpoints are the endpoints matching the broad API predicate.
	APIEndpoints []Endpoint `json:"api_endpoints"`

	// DirectAPIEndpoints are the endpoints matching the narrow
	// /api/ or /graphql predicate.
	DirectAPIEndpoints []Endpoint `json:"direct_api_endpoints"`

	Error *ErrorDetail `json:"error,omitempty"`
}

// RobotsResponse is the response for POST /api/v1/robots.
type RobotsResponse struct {
	Success bool `json:"success"`

	// Robots is nil when the fetch failed or robots.txt does not exist.
	Robots *RobotsTxtAnalysis `json:"robots"`
	Error  *ErrorDetail       `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Engines   []string  `json:"engines"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

// ErrorResponse is the envelope for requests rejected before reaching a
// handler (auth, rate limit).
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
