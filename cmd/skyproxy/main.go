package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cbegin/skydrone-go/internal/observation"
	"github.com/cbegin/skydrone-go/internal/proxy"
)

const defaultUpstreamURL = "https://mast.stsci.edu/search/jwst/api/v0.1/search"

type config struct {
	Addr            string
	UpstreamURL     string
	CacheTTL        time.Duration
	UpstreamTimeout time.Duration
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg := loadConfig(logger)
	upstream := observation.NewSearcher(cfg.UpstreamURL, cfg.UpstreamTimeout)
	cache := proxy.NewCache(upstream, cfg.CacheTTL, logger)
	srv := proxy.NewServer(cfg.Addr, logger, cache)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting server",
			"addr", cfg.Addr,
			"upstream", upstream.URL(),
			"cache_ttl", cfg.CacheTTL.String(),
			"upstream_timeout", cfg.UpstreamTimeout.String(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

func loadConfig(logger *slog.Logger) config {
	cfg := config{
		Addr:            ":8080",
		UpstreamURL:     defaultUpstreamURL,
		CacheTTL:        proxy.DefaultTTL,
		UpstreamTimeout: observation.DefaultTimeout,
	}

	if v := os.Getenv("SKYPROXY_HTTP_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("SKYPROXY_UPSTREAM_URL"); v != "" {
		cfg.UpstreamURL = v
	}
	cfg.CacheTTL = durationEnv(logger, "SKYPROXY_CACHE_TTL", cfg.CacheTTL)
	cfg.UpstreamTimeout = durationEnv(logger, "SKYPROXY_UPSTREAM_TIMEOUT", cfg.UpstreamTimeout)
	return cfg
}

// durationEnv reads a Go duration ("90s", "5m"); invalid or non-positive
// values keep the default.
func durationEnv(logger *slog.Logger, key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		logger.Warn("invalid "+key+" value, using default", "value", v, "default", def.String())
		return def
	}
	return d
}
