// Package collector loads a page and turns what was observed into a
// models.SiteAnalysisResult snapshot.
package collector

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/scrapecheck/engine"
	"github.com/use-agent/scrapecheck/models"
	"github.com/use-agent/scrapecheck/robots"
	"golang.org/x/sync/errgroup"
)

// Fetcher loads a page with the engines allowed by mode.
// *engine.Dispatcher satisfies it.
type Fetcher interface {
	Dispatch(ctx context.Context, req *engine.FetchRequest, mode string) (*engine.FetchResult, error)
}

// Options tune a single collection run.
type Options struct {
	Mode       string
	Timeout    time.Duration
	Stealth    bool
	SkipRobots bool
	Headers    map[string]string
}

// Result is a snapshot plus facts about how the page was loaded.
type Result struct {
	Analysis   *models.SiteAnalysisResult
	StatusCode int
	FinalURL   string
	EngineUsed string
}

// Collector gathers page signals. It is safe for concurrent use.
type Collector struct {
	fetcher      Fetcher
	robotsClient *http.Client
	fetchRobots  bool
	now          func() time.Time
}

// New creates a Collector. robotsClient may be nil; fetchRobots=false
// disables robots.txt lookups regardless of Options.SkipRobots.
func New(fetcher Fetcher, robotsClient *http.Client, fetchRobots bool) *Collector {
	return &Collector{
		fetcher:      fetcher,
		robotsClient: robotsClient,
		fetchRobots:  fetchRobots,
		now:          time.Now,
	}
}

// Collect loads pageURL and robots.txt concurrently and extracts every
// signal from the page. A failed robots.txt fetch leaves RobotsTxt nil;
// a failed page load is returned as an *models.AnalysisError.
func (c *Collector) Collect(ctx context.Context, pageURL string, opts Options) (*Result, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	mode := opts.Mode
	if mode == "" {
		mode = engine.ModeAuto
	}

	var (
		page      *engine.FetchResult
		robotsTxt *models.RobotsTxtAnalysis
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := c.fetcher.Dispatch(gctx, &engine.FetchRequest{
			URL:     pageURL,
			Headers: opts.Headers,
			Timeout: opts.Timeout,
			Stealth: opts.Stealth,
		}, mode)
		if err != nil {
			return err
		}
		page = res
		return nil
	})
	if c.fetchRobots && !opts.SkipRobots {
		g.Go(func() error {
			robotsTxt = robots.Fetch(gctx, c.robotsClient, pageURL)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, classifyError(ctx, err)
	}

	analysis, err := c.Analyze(pageURL, page)
	if err != nil {
		return nil, err
	}
	analysis.RobotsTxt = robotsTxt

	slog.Info("page analyzed",
		"url", pageURL,
		"engine", page.EngineName,
		"status", page.StatusCode,
		"antibot", len(analysis.AntiBotDetections),
		"technologies", len(analysis.Technologies),
		"endpoints", len(analysis.InterceptedRequests.Endpoints),
		"delivery", analysis.DataDelivery.DataDeliveryMethod,
	)

	return &Result{
		Analysis:   analysis,
		StatusCode: page.StatusCode,
		FinalURL:   page.FinalURL,
		EngineUsed: page.EngineName,
	}, nil
}

// Analyze extracts the snapshot from an already fetched page. RobotsTxt is
// left nil.
func (c *Collector) Analyze(pageURL string, res *engine.FetchResult) (*models.SiteAnalysisResult, error) {
	if res.FinalURL == "" {
		res.FinalURL = pageURL
	}
	p, err := NewPage(res)
	if err != nil {
		return nil, models.NewAnalysisError(models.ErrCodeInternal, "failed to parse page HTML", err)
	}

	windowProps := res.WindowProperties
	if windowProps == nil {
		windowProps = InlineMarkers(p)
	}
	intercepted := AggregateEndpoints(res.Requests)

	analysis := &models.SiteAnalysisResult{
		AntiBotDetections:   DetectAntiBot(p),
		Technologies:        DetectTechnologies(p),
		DataDelivery:        ClassifyDelivery(p, windowProps, intercepted.Endpoints),
		InterceptedRequests: intercepted,
		WindowProperties:    windowProps,
		AnalyzedAt:          c.now().UTC(),
		URL:                 pageURL,
	}
	return analysis.Normalize(), nil
}

// classifyError maps dispatcher failures to typed AnalysisErrors.
func classifyError(ctx context.Context, err error) error {
	var ae *models.AnalysisError
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return models.NewAnalysisError(models.ErrCodeTimeout, "analysis timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewAnalysisError(models.ErrCodeTimeout, "analysis canceled", err)
	case errors.Is(err, engine.ErrNoEngine):
		return models.NewAnalysisError(models.ErrCodeInvalidInput, "no engine available for the requested mode", err)
	default:
		return models.NewAnalysisError(models.ErrCodeNavigation, "failed to load page", err)
	}
}
