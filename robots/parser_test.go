package robots

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestParse_FullyBlocked(t *testing.T) {
	res := Parse("User-agent: *\nDisallow: /private\nDisallow: /\n")

	if !res.Found {
		t.Error("Found should always be true")
	}
	if !res.FullyBlocked {
		t.Error("expected FullyBlocked for Disallow: / under *")
	}
	want := []string{"/private", "/"}
	if !reflect.DeepEqual(res.KeyDisallows, want) {
		t.Errorf("KeyDisallows = %v, want %v", res.KeyDisallows, want)
	}
	if res.CrawlDelay != nil {
		t.Errorf("CrawlDelay = %v, want nil", *res.CrawlDelay)
	}
}

func TestParse_FullyBlockedOnlyUnderWildcard(t *testing.T) {
	res := Parse("User-agent: Googlebot\nDisallow: /\n\nUser-agent: *\nDisallow: /admin\n")

	if res.FullyBlocked {
		t.Error("Disallow: / for a named agent must not set FullyBlocked")
	}
	if !reflect.DeepEqual(res.KeyDisallows, []string{"/admin"}) {
		t.Errorf("KeyDisallows = %v, want [/admin]", res.KeyDisallows)
	}
}

func TestParse_DisallowMustBeExactlySlash(t *testing.T) {
	res := Parse("User-agent: *\nDisallow: /*\nDisallow: /search\n")
	if res.FullyBlocked {
		t.Error("only an exact '/' path blocks the whole site")
	}
}

func TestParse_KeyDisallowsCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	for i := 0; i < 150; i++ {
		fmt.Fprintf(&b, "Disallow: /path-%d\n", i)
	}

	res := Parse(b.String())
	if len(res.KeyDisallows) != MaxKeyDisallows {
		t.Fatalf("len(KeyDisallows) = %d, want %d", len(res.KeyDisallows), MaxKeyDisallows)
	}
	if res.KeyDisallows[0] != "/path-0" || res.KeyDisallows[19] != "/path-19" {
		t.Errorf("cap must keep the first entries in source order, got %v", res.KeyDisallows)
	}
}

func TestParse_SitemapsAreGlobal(t *testing.T) {
	text := `Sitemap: https://example.com/top.xml
User-agent: Bingbot
Sitemap: https://example.com/bing.xml
Disallow: /nope
User-agent: *
Sitemap: https://example.com/star.xml
Sitemap:
`
	res := Parse(text)

	want := []string{
		"https://example.com/top.xml",
		"https://example.com/bing.xml",
		"https://example.com/star.xml",
	}
	if !reflect.DeepEqual(res.SitemapURLs, want) {
		t.Errorf("SitemapURLs = %v, want %v", res.SitemapURLs, want)
	}
	if len(res.KeyDisallows) != 0 {
		t.Errorf("Bingbot rules leaked into wildcard scope: %v", res.KeyDisallows)
	}
}

func TestParse_CrawlDelayLastValidWins(t *testing.T) {
	res := Parse("User-agent: *\nCrawl-delay: 5\nCrawl-delay: soon\nCrawl-delay: 2.5\nCrawl-delay: NaN\n")

	if res.CrawlDelay == nil {
		t.Fatal("expected a crawl delay")
	}
	if *res.CrawlDelay != 2.5 {
		t.Errorf("CrawlDelay = %v, want 2.5", *res.CrawlDelay)
	}
}

func TestParse_CrawlDelayRequiresWholeNumber(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  *float64
	}{
		{"plain", "10", ptr(10)},
		{"fraction", "0.5", ptr(0.5)},
		{"surrounding space", "   3   ", ptr(3)},
		{"trailing comment", "10 # seconds", nil},
		{"unit suffix", "5s", nil},
		{"infinity", "Inf", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Parse("User-agent: *\nCrawl-delay: " + tt.value + "\n")
			switch {
			case tt.want == nil && res.CrawlDelay != nil:
				t.Errorf("CrawlDelay = %v, want nil", *res.CrawlDelay)
			case tt.want != nil && res.CrawlDelay == nil:
				t.Errorf("CrawlDelay = nil, want %v", *tt.want)
			case tt.want != nil && *res.CrawlDelay != *tt.want:
				t.Errorf("CrawlDelay = %v, want %v", *res.CrawlDelay, *tt.want)
			}
		})
	}
}

func TestParse_CrawlDelayIgnoredOutsideWildcard(t *testing.T) {
	res := Parse("User-agent: slurp\nCrawl-delay: 10\n")
	if res.CrawlDelay != nil {
		t.Errorf("CrawlDelay = %v, want nil", *res.CrawlDelay)
	}
}

// Consecutive User-agent lines do not form a group: the last one decides
// the scope of the rules that follow.
func TestParse_UserAgentLinesResetScope(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		wantBlocked bool
	}{
		{"wildcard last", "User-agent: Googlebot\nUser-agent: *\nDisallow: /\n", true},
		{"wildcard first", "User-agent: *\nUser-agent: Googlebot\nDisallow: /\n", false},
		{"agent value trimmed", "User-agent:    *   \nDisallow: /\n", true},
		{"partial wildcard", "User-agent: *bot\nDisallow: /\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.text).FullyBlocked; got != tt.wantBlocked {
				t.Errorf("FullyBlocked = %v, want %v", got, tt.wantBlocked)
			}
		})
	}
}

func TestParse_CommentsBlanksAndCase(t *testing.T) {
	text := "# robots for example.com\r\n\r\nUSER-AGENT: *\r\n  DISALLOW: /tmp  \r\n# Disallow: /\r\ndisallow:\r\n"
	res := Parse(text)

	if res.FullyBlocked {
		t.Error("commented-out Disallow: / must be ignored")
	}
	if !reflect.DeepEqual(res.KeyDisallows, []string{"/tmp"}) {
		t.Errorf("KeyDisallows = %v, want [/tmp]", res.KeyDisallows)
	}
}

func TestParse_Empty(t *testing.T) {
	res := Parse("")
	if !res.Found || res.FullyBlocked || res.CrawlDelay != nil {
		t.Errorf("unexpected result for empty input: %+v", res)
	}
	if res.SitemapURLs == nil || res.KeyDisallows == nil {
		t.Error("collections must be non-nil")
	}
}

func ptr(f float64) *float64 { return &f }
