package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != 8080 || cfg.Server.Mode != "release" {
		t.Errorf("server defaults: %+v", cfg.Server)
	}
	if !cfg.Browser.Enabled || !cfg.Browser.Headless {
		t.Errorf("browser defaults: %+v", cfg.Browser)
	}
	if !cfg.Collector.FetchRobots {
		t.Error("robots fetch should be on by default")
	}
	want := []time.Duration{0, 2 * time.Second, 5 * time.Second}
	if !reflect.DeepEqual(cfg.Engine.EscalationDelays, want) {
		t.Errorf("EscalationDelays = %v", cfg.Engine.EscalationDelays)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCRAPECHECK_PORT", "9090")
	t.Setenv("SCRAPECHECK_BROWSER", "false")
	t.Setenv("SCRAPECHECK_API_KEYS", " a , ,b ")
	t.Setenv("SCRAPECHECK_RATE_RPS", "0.5")
	t.Setenv("SCRAPECHECK_ESCALATION_DELAYS", "0s, 1s, bogus")
	t.Setenv("SCRAPECHECK_MAX_TIMEOUT", "not-a-duration")

	cfg := Load()

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Browser.Enabled {
		t.Error("browser should be disabled")
	}
	if !reflect.DeepEqual(cfg.Auth.APIKeys, []string{"a", "b"}) {
		t.Errorf("APIKeys = %v", cfg.Auth.APIKeys)
	}
	if cfg.RateLimit.RequestsPerSecond != 0.5 {
		t.Errorf("RequestsPerSecond = %v", cfg.RateLimit.RequestsPerSecond)
	}
	if !reflect.DeepEqual(cfg.Engine.EscalationDelays, []time.Duration{0, time.Second}) {
		t.Errorf("EscalationDelays = %v", cfg.Engine.EscalationDelays)
	}
	if cfg.Collector.MaxTimeout != 120*time.Second {
		t.Errorf("invalid duration should fall back, got %v", cfg.Collector.MaxTimeout)
	}
}

func TestClampTimeout(t *testing.T) {
	c := CollectorConfig{DefaultTimeout: 30 * time.Second, MaxTimeout: 60 * time.Second}
	tests := []struct {
		in   int
		want time.Duration
	}{
		{0, 30 * time.Second},
		{10, 10 * time.Second},
		{600, 60 * time.Second},
	}
	for _, tt := range tests {
		if got := c.ClampTimeout(tt.in); got != tt.want {
			t.Errorf("ClampTimeout(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
