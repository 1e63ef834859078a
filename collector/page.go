package collector

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/scrapecheck/engine"
)

// Page is a parsed, case-normalised view of a fetched document that the
// detectors match against.
type Page struct {
	URL  string
	Host string

	// HTML is the raw document; lowerHTML is its lower-cased copy.
	HTML      string
	lowerHTML string

	Doc *goquery.Document

	// Headers are keyed by lower-cased name.
	Headers map[string][]string

	// Cookies holds lower-cased cookie names.
	Cookies []string

	// ScriptSrcs are the lower-cased src attributes of <script> tags.
	ScriptSrcs []string

	// InlineScripts are the bodies of <script> tags without a src.
	InlineScripts []string

	// Meta maps lower-cased meta name/property to content.
	Meta map[string]string

	// Requests are the lower-cased URLs of captured sub-requests.
	RequestURLs []string
}

// NewPage parses res into a Page. Cookie names come from the engine and,
// for engines that only see headers, from Set-Cookie.
func NewPage(res *engine.FetchResult) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(res.HTML))
	if err != nil {
		return nil, err
	}

	p := &Page{
		URL:       res.FinalURL,
		HTML:      res.HTML,
		lowerHTML: strings.ToLower(res.HTML),
		Doc:       doc,
		Headers:   normalizeHeaders(res.Headers),
		Meta:      map[string]string{},
	}
	if u, err := url.Parse(res.FinalURL); err == nil {
		p.Host = strings.ToLower(u.Hostname())
	}

	seen := map[string]struct{}{}
	addCookie := func(name string) {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		p.Cookies = append(p.Cookies, name)
	}
	for _, name := range res.CookieNames {
		addCookie(name)
	}
	for _, c := range (&http.Response{Header: res.Headers}).Cookies() {
		addCookie(c.Name)
	}

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			p.ScriptSrcs = append(p.ScriptSrcs, strings.ToLower(src))
			return
		}
		p.InlineScripts = append(p.InlineScripts, s.Text())
	})

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key := s.AttrOr("name", "")
		if key == "" {
			key = s.AttrOr("property", "")
		}
		if key == "" {
			return
		}
		p.Meta[strings.ToLower(key)] = s.AttrOr("content", "")
	})

	for _, r := range res.Requests {
		p.RequestURLs = append(p.RequestURLs, strings.ToLower(r.URL))
	}
	return p, nil
}

// Header returns the first value of the named header, lower-cased.
func (p *Page) Header(name string) string {
	vals := p.Headers[strings.ToLower(name)]
	if len(vals) == 0 {
		return ""
	}
	return strings.ToLower(vals[0])
}

// HasHeader reports whether the named header is present.
func (p *Page) HasHeader(name string) bool {
	_, ok := p.Headers[strings.ToLower(name)]
	return ok
}

func normalizeHeaders(h http.Header) map[string][]string {
	out := make(map[string][]string, len(h))
	for name, values := range h {
		out[strings.ToLower(name)] = values
	}
	return out
}
