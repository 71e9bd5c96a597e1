package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cbegin/skydrone-go"
	"github.com/cbegin/skydrone-go/internal/metrics"
	"github.com/cbegin/skydrone-go/internal/observation"
)

const defaultProxyURL = "http://localhost:8080/api/observations"

func main() {
	var (
		sampleRate  = flag.Int("sample-rate", 48000, "output sample rate")
		variantName = flag.String("variant", "compact", "voice bank: compact|rich")
		seed        = flag.Uint64("seed", 1, "seed for every randomized parameter")
		proxyURL    = flag.String("proxy-url", defaultProxyURL, "observation proxy endpoint (empty = default observation only)")
		poll        = flag.Duration("poll", observation.DefaultPollInterval, "observation poll interval")
		renderPath  = flag.String("render", "", "render offline to this WAV file instead of playing")
		seconds     = flag.Float64("seconds", 30, "length of an offline render")
		duration    = flag.Duration("duration", 0, "stop live playback after this long (0 = until interrupted)")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
		verbose     = flag.Bool("v", false, "debug logging")

		volume  = flag.Float64("volume", 0.7, "volume macro 0..1")
		space   = flag.Float64("space", 0.5, "space macro 0..1")
		colour  = flag.Float64("colour", 0.5, "colour macro 0..1")
		scatter = flag.Float64("scatter", 0.35, "scatter macro 0..1")
		pulse   = flag.Float64("pulse", 0.3, "pulse macro 0..1")
		zoom    = flag.Float64("zoom", 0.6, "zoom macro 0..1")
		root    = flag.Int("root", 0, "chord root in semitones from C2 (-12..+12)")
		mode    = flag.String("mode", "MAJ", "chord mode: MAJ|MIN|SUS|DOM|LYD|DOR")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	variant, err := skydrone.ParseVariant(*variantName)
	if err != nil {
		fatal(logger, "invalid flag", err)
	}

	opts := []skydrone.Option{
		skydrone.WithSampleRate(*sampleRate),
		skydrone.WithVariant(variant),
		skydrone.WithSeed(*seed),
		skydrone.WithLogger(logger),
		skydrone.WithOutput(*renderPath == ""),
	}
	if *metricsAddr != "" {
		opts = append(opts, skydrone.WithRecorder(metrics.EngineRecorder{}))
	}
	s, err := skydrone.NewSession(opts...)
	if err != nil {
		fatal(logger, "creating session", err)
	}
	s.SetVolume(*volume)
	s.SetSpace(*space)
	s.SetColour(*colour)
	s.SetScatter(*scatter)
	s.SetPulse(*pulse)
	s.SetZoom(*zoom)
	s.SetChord(*root, *mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *metricsAddr != "" {
		if err := metrics.RegisterOutputLevel(s.OutputLevel); err != nil {
			fatal(logger, "registering output level gauge", err)
		}
		go serveMetrics(ctx, *metricsAddr, logger)
	}

	var client *observation.Client
	if strings.TrimSpace(*proxyURL) != "" {
		client = observation.NewClient(*proxyURL, observation.DefaultTimeout, logger)
	}

	if *renderPath != "" {
		if err := render(ctx, s, client, *renderPath, *seconds, logger); err != nil {
			fatal(logger, "rendering", err)
		}
		return
	}
	if err := play(ctx, s, client, *poll, *duration, logger); err != nil {
		fatal(logger, "playing", err)
	}
}

func render(ctx context.Context, s *skydrone.Session, client *observation.Client, path string, seconds float64, logger *slog.Logger) error {
	if err := s.Start(); err != nil {
		return err
	}
	if client != nil {
		s.Observe(client.FetchLatest(ctx))
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := s.RenderWAV(f, seconds); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("render complete", "path", path, "seconds", seconds, "target", s.Status().Observation.TargetName)
	return s.Close()
}

func play(ctx context.Context, s *skydrone.Session, client *observation.Client, poll, duration time.Duration, logger *slog.Logger) error {
	if err := s.Start(); err != nil {
		return err
	}
	if client != nil {
		poller := observation.NewPoller(client, poll, s.Observe, logger)
		go poller.Run(ctx)
	}
	logger.Info("playing", "sample_rate", s.SampleRate())

	var timeout <-chan time.Time
	if duration > 0 {
		timeout = time.After(duration)
	}
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
		case <-timeout:
			running = false
		case <-ticker.C:
			st := s.Status()
			logger.Debug("status",
				"target", st.Observation.TargetName,
				"level", s.OutputLevel(),
				"cutoff_hz", st.Cutoff,
				"evolution_ticks", st.EvolutionTicks,
				"position_frames", s.PlaybackPosition(),
			)
		}
	}

	logger.Info("fading out")
	if err := s.Stop(); err != nil {
		return err
	}
	time.Sleep(500 * time.Millisecond)
	return s.Close()
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	logger.Info("serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics listen error", "error", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	fmt.Fprintln(os.Stderr, "skydrone:", err)
	os.Exit(1)
}
