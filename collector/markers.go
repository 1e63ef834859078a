package collector

import (
	"strings"

	"github.com/use-agent/scrapecheck/engine"
)

const markerPreviewLen = 200

// InlineMarkers finds window globals assigned by inline scripts, for
// engines that cannot evaluate JavaScript. A marker counts when a script
// carries it as its id or assigns window.<marker>.
func InlineMarkers(p *Page) map[string]string {
	out := map[string]string{}
	for _, m := range engine.WindowMarkers {
		if s := p.Doc.Find("script#" + m).First(); s.Length() > 0 {
			out[m] = preview(s.Text())
			continue
		}
		needle := "window." + m
		for _, body := range p.InlineScripts {
			i := strings.Index(body, needle)
			if i < 0 {
				continue
			}
			rest := strings.TrimLeft(body[i+len(needle):], " \t")
			if !strings.HasPrefix(rest, "=") || strings.HasPrefix(rest, "==") {
				continue
			}
			out[m] = preview(strings.TrimLeft(rest[1:], " \t"))
			break
		}
	}
	return out
}

func preview(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > markerPreviewLen {
		return s[:markerPreviewLen]
	}
	return s
}
