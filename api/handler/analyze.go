package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scrapecheck/advisor"
	"github.com/use-agent/scrapecheck/cache"
	"github.com/use-agent/scrapecheck/collector"
	"github.com/use-agent/scrapecheck/config"
	"github.com/use-agent/scrapecheck/models"
)

// Analyzer loads a page and extracts its signal snapshot.
// *collector.Collector satisfies it.
type Analyzer interface {
	Collect(ctx context.Context, pageURL string, opts collector.Options) (*collector.Result, error)
}

// Analyze returns a handler for POST /api/v1/analyze.
//
// Orchestration flow:
//  1. Parse & validate request, apply defaults.
//  2. Cache lookup when max_age is set.
//  3. Collector.Collect → snapshot           (records collect_ms)
//  4. advisor.Compose  → recommendation      (records compose_ms)
//  5. Fill Timing, store in cache, return 200.
func Analyze(an Analyzer, cfg config.CollectorConfig, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.AnalyzeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		req.Defaults()

		// ── 2. Cache lookup ────────────────────────────────────────
		cacheKey := cache.Key(&req)
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				resp := *cached
				resp.CacheStatus = "hit"
				resp.Timing = models.TimingInfo{
					TotalMs: time.Since(totalStart).Milliseconds(),
				}
				c.JSON(http.StatusOK, resp)
				return
			}
		}

		// ── 3-4. Collect + compose ─────────────────────────────────
		resp, err := analyzeOne(c.Request.Context(), an, cfg, &req)
		if err != nil {
			respondError(c, err, resp.Timing)
			return
		}

		// ── 5. Cache store ──────────────────────────────────────────
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, resp)
			out := *resp
			out.CacheStatus = "miss"
			c.JSON(http.StatusOK, out)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// analyzeOne runs collection and composition for one URL. On error the
// returned response still carries the timing gathered so far.
func analyzeOne(ctx context.Context, an Analyzer, cfg config.CollectorConfig, req *models.AnalyzeRequest) (*models.AnalyzeResponse, error) {
	totalStart := time.Now()

	result, err := an.Collect(ctx, req.URL, collector.Options{
		Mode:       req.Mode,
		Timeout:    cfg.ClampTimeout(req.Timeout),
		Stealth:    req.Stealth,
		SkipRobots: req.SkipRobots,
		Headers:    req.Headers,
	})
	collectMs := time.Since(totalStart).Milliseconds()
	if err != nil {
		return &models.AnalyzeResponse{
			Success: false,
			Timing: models.TimingInfo{
				TotalMs:   time.Since(totalStart).Milliseconds(),
				CollectMs: collectMs,
			},
		}, err
	}

	composeStart := time.Now()
	rec := advisor.Compose(result.Analysis)
	composeMs := time.Since(composeStart).Milliseconds()

	return &models.AnalyzeResponse{
		Success:        true,
		Analysis:       result.Analysis,
		Recommendation: rec,
		StatusCode:     result.StatusCode,
		FinalURL:       result.FinalURL,
		EngineUsed:     result.EngineUsed,
		Timing: models.TimingInfo{
			TotalMs:   time.Since(totalStart).Milliseconds(),
			CollectMs: collectMs,
			ComposeMs: composeMs,
		},
	}, nil
}

// toAnalysisError converts any error into a typed AnalysisError.
func toAnalysisError(err error) *models.AnalysisError {
	var ae *models.AnalysisError
	if errors.As(err, &ae) {
		return ae
	}
	return models.NewAnalysisError(models.ErrCodeInternal, err.Error(), err)
}

// respondError maps an AnalysisError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	ae := toAnalysisError(err)
	c.JSON(mapErrorToStatus(ae), models.AnalyzeResponse{
		Success: false,
		Error:   ae.ToDetail(),
		Timing:  timing,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.AnalysisError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNavigation:
		return http.StatusBadGateway // 502
	case models.ErrCodeBrowserCrash:
		return http.StatusServiceUnavailable // 503
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeNotFound:
		return http.StatusNotFound // 404
	default:
		return http.StatusInternalServerError // 500
	}
}

// badRequest writes a 400 with the generic error envelope.
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: msg,
		},
	})
}
