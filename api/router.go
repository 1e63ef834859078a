package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scrapecheck/api/handler"
	"github.com/use-agent/scrapecheck/api/middleware"
	"github.com/use-agent/scrapecheck/cache"
	"github.com/use-agent/scrapecheck/config"
)

// Deps are the collaborators the routes are wired to.
type Deps struct {
	Analyzer handler.Analyzer

	// RobotsClient fetches robots.txt for POST /robots; nil uses
	// http.DefaultClient.
	RobotsClient *http.Client

	// Stats reports browser pool usage; nil when the browser is disabled.
	Stats handler.StatsFunc

	// Engines names the dispatcher's engines for the health report.
	Engines []string

	Cache     *cache.Cache
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
// ctx bounds background goroutines such as batch job expiry.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health stays outside auth so monitoring probes always work.
func NewRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health: no auth required.
	v1.GET("/health", handler.Health(deps.Stats, deps.Engines, deps.StartTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	// Live analysis
	protected.POST("/analyze", handler.Analyze(deps.Analyzer, cfg.Collector, deps.Cache))

	// Offline: snapshot in, verdict out
	protected.POST("/recommend", handler.Recommend())
	protected.POST("/report", handler.Report())
	protected.POST("/robots", handler.Robots(deps.RobotsClient))

	// Batch
	store := handler.NewBatchStore(ctx, cfg.Batch.JobTTL)
	protected.POST("/batch/analyze", handler.PostBatch(deps.Analyzer, store, cfg))
	protected.GET("/batch/:id", handler.GetBatch(store))

	return r
}
