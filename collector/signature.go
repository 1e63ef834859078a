package collector

import (
	"strings"

	"github.com/andybalholm/cascadia"
	"github.com/use-agent/scrapecheck/models"
)

type indicatorKind int

const (
	kindHeader indicatorKind = iota
	kindCookie
	kindScript
	kindHTML
	kindSelector
	kindMeta
)

// indicator is one piece of evidence for a signature. Weights of all
// matching indicators are summed into the detection confidence.
type indicator struct {
	kind   indicatorKind
	key    string // header/meta name, cookie prefix, substring or selector source
	value  string // substring required in the header/meta value; "" means presence
	sel    cascadia.Selector
	weight int
}

// Signature fingerprints one product.
type Signature struct {
	Name       string
	Category   string
	indicators []indicator
}

func header(name, contains string, weight int) indicator {
	return indicator{kind: kindHeader, key: strings.ToLower(name), value: strings.ToLower(contains), weight: weight}
}

func cookie(prefix string, weight int) indicator {
	return indicator{kind: kindCookie, key: strings.ToLower(prefix), weight: weight}
}

// script matches script src attributes and captured request URLs.
func script(substr string, weight int) indicator {
	return indicator{kind: kindScript, key: strings.ToLower(substr), weight: weight}
}

func markup(substr string, weight int) indicator {
	return indicator{kind: kindHTML, key: strings.ToLower(substr), weight: weight}
}

func selector(css string, weight int) indicator {
	return indicator{kind: kindSelector, key: css, sel: cascadia.MustCompile(css), weight: weight}
}

func meta(name, contains string, weight int) indicator {
	return indicator{kind: kindMeta, key: strings.ToLower(name), value: strings.ToLower(contains), weight: weight}
}

// match returns the indicator descriptions that fire on p.
func (ind indicator) match(p *Page) (string, bool) {
	switch ind.kind {
	case kindHeader:
		if !p.HasHeader(ind.key) {
			return "", false
		}
		if ind.value == "" {
			return "header " + ind.key, true
		}
		if strings.Contains(p.Header(ind.key), ind.value) {
			return "header " + ind.key + ": " + ind.value, true
		}
	case kindCookie:
		for _, c := range p.Cookies {
			if strings.HasPrefix(c, ind.key) {
				return "cookie " + c, true
			}
		}
	case kindScript:
		for _, src := range p.ScriptSrcs {
			if strings.Contains(src, ind.key) {
				return "script " + ind.key, true
			}
		}
		for _, u := range p.RequestURLs {
			if strings.Contains(u, ind.key) {
				return "request " + ind.key, true
			}
		}
	case kindHTML:
		if strings.Contains(p.lowerHTML, ind.key) {
			return "html " + ind.key, true
		}
	case kindSelector:
		if p.Doc.FindMatcher(ind.sel).Length() > 0 {
			return "element " + ind.key, true
		}
	case kindMeta:
		content, ok := p.Meta[ind.key]
		if ok && strings.Contains(strings.ToLower(content), ind.value) {
			return "meta " + ind.key, true
		}
	}
	return "", false
}

// Match evaluates every indicator and returns a detection when at least one
// fires. Confidence is the capped sum of matching weights.
func (s Signature) Match(p *Page) (models.Detection, bool) {
	var evidence []string
	confidence := 0
	for _, ind := range s.indicators {
		if ev, ok := ind.match(p); ok {
			evidence = append(evidence, ev)
			confidence += ind.weight
		}
	}
	if len(evidence) == 0 {
		return models.Detection{}, false
	}
	return models.Detection{
		Name:       s.Name,
		Category:   s.Category,
		Confidence: min(confidence, 100),
		Evidence:   strings.Join(evidence, "; "),
	}, true
}

// detect runs sigs in order and returns every hit.
func detect(sigs []Signature, p *Page) []models.Detection {
	out := []models.Detection{}
	for _, sig := range sigs {
		if d, ok := sig.Match(p); ok {
			out = append(out, d)
		}
	}
	return out
}
