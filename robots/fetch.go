package robots

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/use-agent/scrapecheck/models"
)

const (
	fetchTimeout = 10 * time.Second
	maxBodySize  = 1 << 20 // 1 MB
)

// URLFor returns {origin}/robots.txt for any page URL on the site.
func URLFor(pageURL string) (string, bool) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return u.Scheme + "://" + u.Host + "/robots.txt", true
}

// Fetch performs a single unauthenticated GET of {origin}/robots.txt and
// parses it. Any failure (bad URL, network error, non-2xx status, read
// error) yields nil: robots.txt is an optional enrichment and its absence
// is not an error. There is no retry.
//
// A nil client falls back to http.DefaultClient.
func Fetch(ctx context.Context, client *http.Client, pageURL string) *models.RobotsTxtAnalysis {
	robotsURL, ok := URLFor(pageURL)
	if !ok {
		return nil
	}
	if client == nil {
		client = http.DefaultClient
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}

	resp, err := client.Do(req)
	if err != nil {
		slog.Debug("robots: fetch failed", "url", robotsURL, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Debug("robots: non-2xx response", "url", robotsURL, "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		slog.Debug("robots: read body failed", "url", robotsURL, "error", err)
		return nil
	}

	return Parse(string(body))
}
