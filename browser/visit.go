package browser

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/scrapecheck/engine"
	"github.com/use-agent/scrapecheck/models"
	"github.com/ysmood/gson"
)

// probeJS returns {name: preview} for every marker present on window.
const probeJS = `(keys) => {
	const out = {};
	for (const k of keys) {
		try {
			if (!(k in window) || window[k] === undefined) continue;
			const v = window[k];
			let s;
			try { s = typeof v === 'string' ? v : JSON.stringify(v); } catch (e) { s = undefined; }
			if (s === undefined) s = typeof v;
			out[k] = String(s).slice(0, 200);
		} catch (e) {}
	}
	return out;
}`

// Visit loads req.URL in a pooled tab and records what the page does.
// It satisfies engine.BrowserFetchFunc.
//
// Order matters: stealth and the hijack router must be installed before
// navigation, otherwise they do not apply to the document being loaded.
func (b *Browser) Visit(ctx context.Context, req *engine.FetchRequest) (*engine.FetchResult, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	b.activePages.Add(1)
	defer b.activePages.Add(-1)

	page, err := b.pagePool.Get(func() (*rod.Page, error) {
		return b.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewAnalysisError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", err)
	}

	// Reset with the original page reference so cleanup works even after
	// the request context has expired.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		b.pagePool.Put(page)
	}()

	if req.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	if len(req.Headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: toHeadersMap(req.Headers)}.Call(page)
	}

	rec := &requestRecorder{}
	router := setupHijack(page, b.collectorCfg.BlockedResourceTypes, rec)
	defer func() { _ = router.Stop() }()

	p := page.Context(ctx)

	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation to target URL failed")
	}

	settle := b.collectorCfg.SettleTime
	if settle <= 0 {
		settle = 500 * time.Millisecond
	}
	if err := p.WaitDOMStable(settle, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract page HTML")
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &engine.FetchResult{
		HTML:             rawHTML,
		Title:            evalStringOrEmpty(p, `() => document.title`),
		StatusCode:       navigationStatus(p),
		FinalURL:         finalURL,
		CookieNames:      cookieNames(p, finalURL),
		Requests:         rec.snapshot(),
		WindowProperties: probeWindow(p),
	}, nil
}

// navigationStatus reads the document status from the Navigation Timing
// API, which needs no CDP network listeners. 0 when unavailable.
func navigationStatus(p *rod.Page) int {
	res, err := p.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

func probeWindow(p *rod.Page) map[string]string {
	out := map[string]string{}
	res, err := p.Eval(probeJS, engine.WindowMarkers)
	if err != nil {
		slog.Debug("window probe failed", "error", err)
		return out
	}
	for k, v := range res.Value.Map() {
		out[k] = v.Str()
	}
	return out
}

// cookieNames lists cookies visible to pageURL, including HttpOnly ones
// that page scripts cannot see.
func cookieNames(p *rod.Page, pageURL string) []string {
	cookies, err := p.Cookies([]string{pageURL})
	if err != nil {
		slog.Debug("cookie read failed", "error", err)
		return nil
	}
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	return names
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to proto.NetworkHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// categorizeError wraps raw errors into typed AnalysisErrors so the API
// layer can map them to HTTP status codes.
func categorizeError(err error, msg string) *models.AnalysisError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewAnalysisError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewAnalysisError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewAnalysisError(models.ErrCodeNavigation, msg, err)
	}
}
