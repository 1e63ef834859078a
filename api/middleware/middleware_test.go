package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/scrapecheck/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handlers ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(handlers...)
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextKeyAPIKey))
	})
	return r
}

func do(r http.Handler, header, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := newEngine(Auth([]string{"k1", "", "k2"}))

	tests := []struct {
		name   string
		header string
		value  string
		status int
		body   string
	}{
		{"missing", "", "", http.StatusUnauthorized, ""},
		{"x-api-key", "X-API-Key", "k1", http.StatusOK, "k1"},
		{"bearer", "Authorization", "Bearer k2", http.StatusOK, "k2"},
		{"wrong key", "X-API-Key", "nope", http.StatusUnauthorized, ""},
		{"prefix of valid key", "X-API-Key", "k", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, tt.header, tt.value)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			if tt.status == http.StatusOK && w.Body.String() != tt.body {
				t.Errorf("api key in context = %q, want %q", w.Body.String(), tt.body)
			}
		})
	}
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	r := newEngine(Auth(nil))
	if w := do(r, "", ""); w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	r := newEngine(RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.1, Burst: 2}))

	for i := range 2 {
		if w := do(r, "", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
	w := do(r, "", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}

func TestRateLimit_PerIdentity(t *testing.T) {
	r := newEngine(Auth([]string{"a", "b"}), RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.1, Burst: 1}))

	if w := do(r, "X-API-Key", "a"); w.Code != http.StatusOK {
		t.Fatalf("a: %d", w.Code)
	}
	if w := do(r, "X-API-Key", "a"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("a second: %d", w.Code)
	}
	if w := do(r, "X-API-Key", "b"); w.Code != http.StatusOK {
		t.Fatalf("b should have its own bucket: %d", w.Code)
	}
}

func TestLimiterSet_EvictIdle(t *testing.T) {
	s := &limiterSet{limiters: map[string]*limiterEntry{}, limit: 1, burst: 1}
	now := time.Now()
	s.get("old", now.Add(-2*idleLimiterTTL))
	s.get("new", now)

	s.evictIdle(now.Add(-idleLimiterTTL))

	if _, ok := s.limiters["old"]; ok {
		t.Error("idle entry not evicted")
	}
	if _, ok := s.limiters["new"]; !ok {
		t.Error("active entry evicted")
	}
}
