package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scrapecheck/advisor"
	"github.com/use-agent/scrapecheck/endpoints"
	"github.com/use-agent/scrapecheck/models"
	"github.com/use-agent/scrapecheck/report"
)

// Recommend returns a handler for POST /api/v1/recommend. The body is a
// snapshot collected elsewhere; nothing is fetched.
func Recommend() gin.HandlerFunc {
	return func(c *gin.Context) {
		var s models.SiteAnalysisResult
		if err := c.ShouldBindJSON(&s); err != nil {
			c.JSON(http.StatusBadRequest, models.RecommendResponse{
				Success:            false,
				APIEndpoints:       []models.Endpoint{},
				DirectAPIEndpoints: []models.Endpoint{},
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}
		s.Normalize()

		api, _ := endpoints.Partition(s.InterceptedRequests.Endpoints)
		c.JSON(http.StatusOK, models.RecommendResponse{
			Success:            true,
			Recommendation:     advisor.Compose(&s),
			APIEndpoints:       api,
			DirectAPIEndpoints: endpoints.FilterDirectAPI(s.InterceptedRequests.Endpoints),
		})
	}
}

// Report returns a handler for POST /api/v1/report, rendering a snapshot
// and its recommendation as Markdown.
func Report() gin.HandlerFunc {
	return func(c *gin.Context) {
		var s models.SiteAnalysisResult
		if err := c.ShouldBindJSON(&s); err != nil {
			badRequest(c, err.Error())
			return
		}
		s.Normalize()

		var buf bytes.Buffer
		if err := report.WriteMarkdown(&buf, &s, advisor.Compose(&s)); err != nil {
			respondError(c, err, models.TimingInfo{})
			return
		}
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", buf.Bytes())
	}
}
