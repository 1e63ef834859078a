// Package advisor turns a site signal snapshot into a scraping verdict.
//
// Compose is a pure function: it reads its argument, allocates fresh state
// and returns a new recommendation. It is safe for concurrent use.
package advisor

import (
	"github.com/use-agent/scrapecheck/endpoints"
	"github.com/use-agent/scrapecheck/models"
)

// Approaches, in the order they are considered.
const (
	ApproachSimpleHTTP = "Simple HTTP scraping"
	ApproachDirectAPI  = "Direct API consumption"
	ApproachHeadless   = "Headless browser scraping"
	ApproachSession    = "HTTP scraping with session handling"
	ApproachAdvanced   = "Advanced scraping with anti-bot bypass"
)

// Fallback verdict used when no rule produced a detail.
const (
	FallbackDetail = "No significant obstacles detected — standard scraping should work"
	FallbackTool   = "HTTP client + HTML parser"
)

var rules = Rules()

// Compose evaluates every rule in order and derives difficulty and approach
// from the accumulated score.
func Compose(s *models.SiteAnalysisResult) *models.ScrapingRecommendation {
	score, details, tools := assess(s)

	rec := &models.ScrapingRecommendation{
		Approach:   approach(s, score),
		Difficulty: Bucket(score),
		Details:    details,
		Tools:      tools,
	}
	if len(rec.Details) == 0 {
		rec.Details = []string{FallbackDetail}
		rec.Tools = []string{FallbackTool}
	}
	return rec
}

// assess runs the rule table and returns the raw score with the emitted
// details and tools.
func assess(s *models.SiteAnalysisResult) (int, []string, []string) {
	score := 0
	details := []string{}
	tools := []string{}
	for _, r := range rules {
		f := r.Eval(s, details)
		score += f.ScoreDelta
		details = append(details, f.Details...)
		tools = append(tools, f.Tools...)
	}
	return score, details, tools
}

// Bucket maps a score to its difficulty: <=1 easy, <=3 moderate, <=5 hard,
// otherwise very-hard.
func Bucket(score int) models.Difficulty {
	switch {
	case score <= 1:
		return models.DifficultyEasy
	case score <= 3:
		return models.DifficultyModerate
	case score <= 5:
		return models.DifficultyHard
	default:
		return models.DifficultyVeryHard
	}
}

// approach picks the first matching strategy.
func approach(s *models.SiteAnalysisResult, score int) string {
	if score == 0 && s.DataDelivery.DataDeliveryMethod == models.DeliveryServerRendered {
		return ApproachSimpleHTTP
	}
	api, _ := endpoints.Partition(s.InterceptedRequests.Endpoints)
	if len(api) > 0 && len(highConfidenceAntiBot(s)) == 0 {
		return ApproachDirectAPI
	}
	if score <= 2 {
		if s.DataDelivery.HasSPAIndicators {
			return ApproachHeadless
		}
		return ApproachSession
	}
	return ApproachAdvanced
}
