package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scrapecheck/models"
	"github.com/use-agent/scrapecheck/robots"
)

// Robots returns a handler for POST /api/v1/robots.
//
// With "content" the text is parsed directly. With "url" the site's
// robots.txt is fetched best-effort: a missing or unreachable file is a
// successful response with a null "robots".
func Robots(client *http.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RobotsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		switch {
		case req.Content != nil && req.URL != "":
			badRequest(c, "provide either content or url, not both")
		case req.Content != nil:
			c.JSON(http.StatusOK, models.RobotsResponse{
				Success: true,
				Robots:  robots.Parse(*req.Content),
			})
		case req.URL != "":
			c.JSON(http.StatusOK, models.RobotsResponse{
				Success: true,
				Robots:  robots.Fetch(c.Request.Context(), client, req.URL),
			})
		default:
			badRequest(c, "one of content or url is required")
		}
	}
}
