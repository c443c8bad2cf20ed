// Command clipforge ingests one long-form video and produces top-K
// vertical short-form clips with burned-in captions, per SPEC_FULL.md.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/clipforge/clipforge/internal/clipforgeerr"
	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/health"
	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/orchestrator"
	"github.com/clipforge/clipforge/internal/trace"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("clipforge", flag.ContinueOnError)
	url := fs.String("url", "", "source video URL (required unless --health-check)")
	k := fs.Int("k", 0, "number of top clips to produce (0 = use config default)")
	outputDir := fs.String("output-dir", "", "directory for rendered clips and job log (empty = use config default)")
	configPath := fs.String("config", "", "path to an optional JSON config file")
	healthCheck := fs.Bool("health-check", false, "probe the ASR and chat servers and exit")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	graderConcurrency := fs.Int("grader-concurrency", 0, "max in-flight grading requests (0 = use config default)")
	renderConcurrency := fs.Int("render-concurrency", 0, "max concurrent renders (0 = use config default)")
	logLevel := fs.String("log-level", "", "log level: debug|info|warn|error (empty = use config default)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.FromEnv(config.Default())
	if *configPath != "" {
		loaded, err := config.LoadFile(*configPath, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return clipforgeerr.ExitCode(clipforgeerr.New(clipforgeerr.Config, "config", err))
		}
		cfg = loaded
	}

	if *url != "" {
		cfg.SourceURL = *url
	}
	if *k > 0 {
		cfg.K = *k
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *graderConcurrency > 0 {
		cfg.GraderConcurrency = *graderConcurrency
	}
	if *renderConcurrency > 0 {
		cfg.RenderConcurrency = *renderConcurrency
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	cfg.Verbose = cfg.Verbose || *verbose

	setupLogging(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *healthCheck {
		return runHealthCheck(ctx, cfg)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return clipforgeerr.ExitCode(clipforgeerr.New(clipforgeerr.Config, "config", err))
	}

	return runJob(ctx, cfg)
}

func setupLogging(cfg config.Config) {
	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func runJob(ctx context.Context, cfg config.Config) int {
	var tracer *trace.Tracer
	if cfg.TraceDBPath != "" {
		store, err := trace.Open(cfg.TraceDBPath)
		if err != nil {
			slog.Warn("trace store unavailable, continuing without tracing", "error", err)
		} else {
			defer store.Close()
			tracer = trace.NewTracer(store, media.IDFromURL(cfg.SourceURL), cfg.SourceURL)
			defer tracer.Close()
		}
	}

	o := orchestrator.New(tracer)
	result, err := o.Run(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return clipforgeerr.ExitCode(err)
	}

	code := clipforgeerr.RenderExitCode(result.PlanCount, result.ClipCount)
	slog.Info("job complete", "job_id", result.JobID, "clips", result.ClipCount, "planned", result.PlanCount, "job_log", result.JobLogPath, "exit_code", code)
	return code
}

func runHealthCheck(ctx context.Context, cfg config.Config) int {
	checker := health.NewChecker()
	statuses := checker.CheckAll(ctx, cfg.WhisperServerURL, cfg.ChatServerURL)

	allHealthy := true
	for _, s := range statuses {
		if s.Healthy {
			slog.Info("endpoint healthy", "name", s.Name, "url", s.URL, "latency_ms", s.LatencyMs)
		} else {
			allHealthy = false
			slog.Error("endpoint unhealthy", "name", s.Name, "url", s.URL, "error", s.Error)
		}
	}

	if !allHealthy {
		return clipforgeerr.ExitCode(clipforgeerr.New(clipforgeerr.Health, "health_check", fmt.Errorf("one or more endpoints unhealthy")))
	}
	return 0
}
