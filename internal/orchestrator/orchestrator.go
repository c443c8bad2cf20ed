package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/clipforge/clipforge/internal/asr"
	"github.com/clipforge/clipforge/internal/clipforgeerr"
	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/embed"
	"github.com/clipforge/clipforge/internal/grader"
	"github.com/clipforge/clipforge/internal/grader/anthropic"
	"github.com/clipforge/clipforge/internal/grader/openai"
	"github.com/clipforge/clipforge/internal/httpx"
	"github.com/clipforge/clipforge/internal/ingest"
	"github.com/clipforge/clipforge/internal/joblog"
	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/metrics"
	"github.com/clipforge/clipforge/internal/rank"
	"github.com/clipforge/clipforge/internal/render"
	"github.com/clipforge/clipforge/internal/renderplan"
	"github.com/clipforge/clipforge/internal/retry"
	"github.com/clipforge/clipforge/internal/scenedetect"
	"github.com/clipforge/clipforge/internal/textfeat"
	"github.com/clipforge/clipforge/internal/trace"
	"github.com/clipforge/clipforge/internal/vectorindex"
	"github.com/clipforge/clipforge/internal/window"
	"golang.org/x/sync/errgroup"
)

// Result is everything the CLI needs to report about a finished job.
type Result struct {
	JobID       string
	FinalState  State
	PlanCount   int
	ClipCount   int
	JobLogPath  string
	OutputPaths []string
}

// Orchestrator runs one job at a time (the CLI process is single-job; §1
// names a long-running multi-tenant server as a non-goal).
type Orchestrator struct {
	Tracer *trace.Tracer
}

// New creates an Orchestrator. tracer may be nil to disable tracing.
func New(tracer *trace.Tracer) *Orchestrator {
	return &Orchestrator{Tracer: tracer}
}

// Run drives cfg's job through every stage of §4.J's state machine,
// writing the per-clip CSV log to cfg.OutputDir on success. A fatal error
// at any stage before RANKING aborts the job (clipforgeerr carries the
// Kind for exit-code mapping); per-window grading failures and per-clip
// render failures degrade rather than abort, per §4.F/§4.I.
func (o *Orchestrator) Run(ctx context.Context, cfg config.Config) (*Result, error) {
	start := time.Now()
	jobID := media.IDFromURL(cfg.SourceURL)

	metrics.JobsActive.Inc()
	defer metrics.JobsActive.Dec()

	fail := func(st State, kind clipforgeerr.Kind, stage string, err error) (*Result, error) {
		if ctx.Err() != nil {
			st, kind = StateCancelled, clipforgeerr.Cancelled
		}
		wrapped := clipforgeerr.New(kind, stage, err)
		metrics.JobsTotal.WithLabelValues(string(st)).Inc()
		if o.Tracer != nil {
			o.Tracer.EndJob(time.Since(start).Seconds()*1000, string(st))
		}
		if kind == clipforgeerr.Cancelled {
			slog.Info("job cancelled", "job_id", jobID, "stage", stage)
			return &Result{JobID: jobID, FinalState: st}, wrapped
		}
		metrics.Errors.WithLabelValues(stage, string(kind)).Inc()
		slog.Error("job failed", "job_id", jobID, "stage", stage, "state", st, "error", err)
		return &Result{JobID: jobID, FinalState: st}, wrapped
	}

	arena, err := NewArena(filepath.Join(cfg.ScratchDir, jobID), cfg.ScratchQuotaBytes)
	if err != nil {
		return fail(StateFailed, clipforgeerr.Config, "arena", err)
	}
	defer arena.Cleanup()

	// INGESTING
	var asset media.Asset
	ingestErr := o.stage("ingest", func() error {
		adapter := &ingest.Adapter{DownloaderPath: cfg.DownloaderPath, FFprobePath: cfg.FFprobePath}
		return retry.Do(ctx, retry.IngestBackoff(), retryable, func(ctx context.Context) error {
			fetchCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
			defer cancel()
			a, err := adapter.Fetch(fetchCtx, cfg.SourceURL, arena.Dir)
			if err != nil {
				return err
			}
			asset = a
			return nil
		})
	})
	if ingestErr != nil {
		return fail(StateFailed, clipforgeerr.Ingest, "ingest", ingestErr)
	}

	// TRANSCRIBING ∥ SCENE_DETECTING
	var transcript media.Transcript
	var cuts []media.SceneCut
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return o.stage("transcribe", func() error {
			client := asr.New(cfg.WhisperServerURL, httpx.NewPooled(4, 10*time.Minute))
			return retry.Do(gctx, retry.AsrBackoff(), retryable, func(ctx context.Context) error {
				t, err := client.Transcribe(ctx, asset.LocalPath)
				if err != nil {
					return err
				}
				transcript = t
				return nil
			})
		})
	})
	g.Go(func() error {
		return o.stage("scene_detect", func() error {
			detector := &scenedetect.Detector{FFmpegPath: cfg.FFmpegPath, Threshold: cfg.SceneCutThreshold}
			cuts = detector.Detect(gctx, asset.LocalPath)
			return nil
		})
	})
	if err := g.Wait(); err != nil {
		return fail(StateFailed, clipforgeerr.Asr, "transcribe", err)
	}

	result := &Result{JobID: jobID}
	if len(transcript.Tokens) == 0 {
		slog.Warn("empty transcript, writing header-only job log", "job_id", jobID)
		return o.finishEmpty(cfg, jobID, start, result)
	}

	// WINDOWING
	var windows []media.Window
	if err := o.stage("window", func() error {
		windows = window.Generate(jobID, transcript, cuts, window.Params{
			TargetLength: cfg.WindowDuration,
			Stride:       cfg.WindowStride,
			MinLength:    cfg.WindowMin,
			MaxLength:    cfg.WindowMax,
		})
		metrics.WindowsConsidered.Observe(float64(len(windows)))
		return nil
	}); err != nil {
		return fail(StateFailed, clipforgeerr.Windowing, "window", err)
	}
	if len(windows) == 0 {
		return o.finishEmpty(cfg, jobID, start, result)
	}

	// FEATURIZING ∥ GRADING
	idf := textfeat.BuildCorpusIDF(windows)
	embedder := o.buildEmbedder(ctx, cfg, jobID)

	features := make([]media.TextFeatures, len(windows))
	var grades []media.LLMGrade
	g2, gctx2 := errgroup.WithContext(ctx)
	g2.Go(func() error {
		return o.stage("featurize", func() error {
			indices := make([]int, len(windows))
			for i := range indices {
				indices[i] = i
			}
			runBounded(gctx2, indices, min(runtime.NumCPU(), 4), func(ctx context.Context, i int) {
				w := windows[i]
				f, err := textfeat.Compute(ctx, w, idf, embedder)
				if err != nil {
					metrics.Errors.WithLabelValues("featurize", "compute").Inc()
					features[i] = media.TextFeatures{}
					return
				}
				features[i] = f
				if embedder != nil {
					for _, kp := range f.KeyPhrases {
						if err := embedder.IndexPhrase(ctx, kp.Phrase, w.ID); err != nil {
							slog.Warn("index phrase failed", "job_id", jobID, "error", err)
						}
					}
				}
			})
			return nil
		})
	})
	g2.Go(func() error {
		return o.stage("grade", func() error {
			router := grader.NewRouter(graderBackends(cfg), cfg.GraderEngine)
			eng := grader.New(router, cfg.GraderEngine, cfg.GraderConcurrency)
			g, err := eng.Grade(gctx2, windows)
			grades = g
			return err
		})
	})
	if err := g2.Wait(); err != nil {
		return fail(StateFailed, clipforgeerr.Grade, "grade", err)
	}

	// RANKING
	var ranked []media.RankedClip
	if err := o.stage("rank", func() error {
		ranked = rank.SelectTopK(windows, features, grades, cfg.K, rank.Default())
		return nil
	}); err != nil {
		return fail(StateFailed, clipforgeerr.Windowing, "rank", err)
	}
	if len(ranked) == 0 {
		return o.finishEmpty(cfg, jobID, start, result)
	}

	// PLANNING
	var plans []media.RenderPlan
	if err := o.stage("plan", func() error {
		if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
			return err
		}
		planner := renderplan.New(cfg.OutputDir, nil)
		plans = planner.Plan(jobID, asset.LocalPath, asset.DurationSec, ranked, transcript)
		return nil
	}); err != nil {
		return fail(StateFailed, clipforgeerr.Render, "plan", err)
	}

	// RENDERING
	rows := make([]media.JobLogRow, len(plans))
	rendered := make([]bool, len(plans))
	probe := render.NewHWProbe(cfg.FFmpegPath, cfg.VAAPIDevice)
	profiles, err := render.LoadProfiles()
	if err != nil {
		return fail(StateFailed, clipforgeerr.Render, "render", err)
	}
	renderer := render.New(cfg.FFmpegPath, probe, profiles, arena.Dir)

	_ = o.stage("render", func() error {
		runBounded(ctx, plans, cfg.RenderConcurrency, func(ctx context.Context, plan media.RenderPlan) {
			idx := plan.ClipRank - 1
			row := joblog.RowForClip(jobID, plan.ClipRank, ranked[idx], plan.OutputPath)

			release, err := arena.Reserve(ctx, estimateClipBytes(plan))
			if err != nil {
				rows[idx] = joblog.AnnotateError(row, err)
				return
			}
			defer release()

			if _, err := renderer.Render(ctx, plan, cfg.RenderQuality); err != nil {
				rows[idx] = joblog.AnnotateError(row, err)
				return
			}
			rows[idx] = row
			rendered[idx] = true
		})
		return nil
	})

	outputs := make([]string, 0, len(plans))
	for i, plan := range plans {
		if rendered[i] {
			outputs = append(outputs, plan.OutputPath)
		}
	}

	logPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_job_log.csv", jobID))
	if err := joblog.Write(logPath, rows); err != nil {
		return fail(StateFailed, clipforgeerr.Render, "joblog", err)
	}

	metrics.JobsTotal.WithLabelValues(string(StateDone)).Inc()
	metrics.E2EDuration.Observe(time.Since(start).Seconds())
	if o.Tracer != nil {
		o.Tracer.EndJob(time.Since(start).Seconds()*1000, string(StateDone))
	}

	return &Result{
		JobID:       jobID,
		FinalState:  StateDone,
		PlanCount:   len(plans),
		ClipCount:   len(outputs),
		JobLogPath:  logPath,
		OutputPaths: outputs,
	}, nil
}

// stage wraps fn with the tracer's span recording when tracing is enabled.
func (o *Orchestrator) stage(name string, fn func() error) error {
	if o.Tracer == nil {
		return fn()
	}
	return o.Tracer.Stage(name, fn)
}

// finishEmpty handles the three "nothing to clip" edge cases from §4.J/§9:
// an empty transcript, zero candidate windows, or zero ranked clips all
// converge on the same header-only job log rather than an error.
func (o *Orchestrator) finishEmpty(cfg config.Config, jobID string, start time.Time, result *Result) (*Result, error) {
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return result, clipforgeerr.New(clipforgeerr.Render, "joblog", err)
	}
	logPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("%s_job_log.csv", jobID))
	if err := joblog.Write(logPath, nil); err != nil {
		return result, clipforgeerr.New(clipforgeerr.Render, "joblog", err)
	}
	metrics.JobsTotal.WithLabelValues(string(StateDone)).Inc()
	metrics.E2EDuration.Observe(time.Since(start).Seconds())
	if o.Tracer != nil {
		o.Tracer.EndJob(time.Since(start).Seconds()*1000, string(StateDone))
	}
	result.FinalState = StateDone
	result.JobLogPath = logPath
	return result, nil
}

// buildEmbedder constructs the optional embedding-based keyphrase
// extractor. Per §4.E, embedding enrichment is additive, not required:
// any setup failure degrades to nil (statistical extraction only) rather
// than failing the job.
func (o *Orchestrator) buildEmbedder(ctx context.Context, cfg config.Config, jobID string) *textfeat.EmbeddingExtractor {
	if cfg.EmbedServerURL == "" || cfg.VectorIndexURL == "" {
		return nil
	}
	embedClient := embed.New(cfg.EmbedServerURL, cfg.EmbedModel, httpx.NewPooled(4, 30*time.Second))
	indexClient := vectorindex.New(cfg.VectorIndexURL, httpx.NewPooled(4, 30*time.Second))
	extractor := textfeat.NewEmbeddingExtractor(embedClient, indexClient, jobID)
	if _, err := extractor.Prepare(ctx); err != nil {
		slog.Warn("embedding extractor unavailable, using statistical keyphrases only", "job_id", jobID, "error", err)
		return nil
	}
	return extractor
}

// graderBackends builds the engine→Backend map from the configured API
// key. An engine with no key configured is simply absent from the map;
// Router then returns an error for that window, which the grader degrades
// to a sentinel grade rather than aborting the job.
func graderBackends(cfg config.Config) map[string]grader.Backend {
	backends := make(map[string]grader.Backend, 2)
	if cfg.GraderAPIKey == "" {
		return backends
	}
	switch cfg.GraderEngine {
	case "anthropic":
		backends["anthropic"] = anthropic.New(cfg.GraderAPIKey, cfg.ChatServerURL, cfg.GraderModel)
	default:
		backends["openai"] = openai.New(cfg.GraderAPIKey, cfg.ChatServerURL, cfg.GraderModel)
	}
	return backends
}

// estimateClipBytes bounds the scratch/output quota a render is expected
// to consume, from its duration and a blended-bitrate estimate.
func estimateClipBytes(plan media.RenderPlan) int64 {
	duration := plan.CutEnd - plan.CutStart
	if duration <= 0 {
		duration = 1
	}
	const blendedBitsPerSec = 1_500_000
	return int64(duration * blendedBitsPerSec / 8)
}

// retryable classifies ingest/ASR errors as worth retrying unless they
// carry a clipforgeerr marking them as a non-transient config problem.
func retryable(err error) bool {
	return !clipforgeerr.Is(err, clipforgeerr.Config)
}
