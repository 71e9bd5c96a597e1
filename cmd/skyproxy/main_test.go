package main

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cbegin/skydrone-go/internal/proxy"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"SKYPROXY_HTTP_ADDR", "SKYPROXY_UPSTREAM_URL", "SKYPROXY_CACHE_TTL", "SKYPROXY_UPSTREAM_TIMEOUT"} {
		t.Setenv(k, "")
	}
	cfg := loadConfig(testLogger)
	if cfg.Addr != ":8080" || cfg.UpstreamURL != defaultUpstreamURL || cfg.CacheTTL != proxy.DefaultTTL {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	tests := []struct {
		name    string
		ttl     string
		timeout string
		wantTTL time.Duration
		wantTO  time.Duration
	}{
		{"valid", "90s", "3s", 90 * time.Second, 3 * time.Second},
		{"garbage keeps defaults", "soon", "-1s", proxy.DefaultTTL, 10 * time.Second},
		{"zero keeps default", "0", "250ms", proxy.DefaultTTL, 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SKYPROXY_HTTP_ADDR", "127.0.0.1:9999")
			t.Setenv("SKYPROXY_UPSTREAM_URL", "http://upstream.test/search")
			t.Setenv("SKYPROXY_CACHE_TTL", tt.ttl)
			t.Setenv("SKYPROXY_UPSTREAM_TIMEOUT", tt.timeout)
			cfg := loadConfig(testLogger)
			if cfg.Addr != "127.0.0.1:9999" || cfg.UpstreamURL != "http://upstream.test/search" {
				t.Errorf("addr/url = %q %q", cfg.Addr, cfg.UpstreamURL)
			}
			if cfg.CacheTTL != tt.wantTTL || cfg.UpstreamTimeout != tt.wantTO {
				t.Errorf("ttl %v timeout %v, want %v %v", cfg.CacheTTL, cfg.UpstreamTimeout, tt.wantTTL, tt.wantTO)
			}
		})
	}
}
