// Package app wires the pipeline together and orchestrates a single run.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/logoscout/logoscout/internal/clock/system"
	"github.com/logoscout/logoscout/internal/config"
	"github.com/logoscout/logoscout/internal/crawler"
	"github.com/logoscout/logoscout/internal/dispatcher"
	goqueryextractor "github.com/logoscout/logoscout/internal/extractor/goquery"
	collyfetcher "github.com/logoscout/logoscout/internal/fetcher/colly"
	"github.com/logoscout/logoscout/internal/metrics"
	"github.com/logoscout/logoscout/internal/policy/pacing"
	"github.com/logoscout/logoscout/internal/queue/memory"
	"github.com/logoscout/logoscout/internal/sink"
	"github.com/logoscout/logoscout/internal/worker"
)

// App holds the configuration and long-lived collaborators for one run.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	clock  crawler.Clock
}

// New creates an App.
func New(cfg config.Config, logger *zap.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		clock:  system.New(),
	}
}

// Run executes the whole pipeline: seed the work queue from in, fan out
// workers and the sink, wait for the drain, shut everything down, and
// report the summary. It returns only startup or output errors; per-item
// failures stay inside the pipeline.
func (a *App) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	logger := a.logger.With(zap.String("run_id", uuid.NewString()))

	items, err := ReadTargets(in, logger)
	if err != nil {
		return fmt.Errorf("read targets: %w", err)
	}
	if len(items) == 0 {
		logger.Warn("no domains provided on stdin")
		return nil
	}

	metrics.Init()
	if a.cfg.Metrics.Enabled {
		a.serveMetrics(ctx, logger)
	}

	pacer, err := pacing.FromConfig(a.cfg.Pacing)
	if err != nil {
		return fmt.Errorf("build pacer: %w", err)
	}
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: a.cfg.Crawler.UserAgent,
		Timeout:   a.cfg.Timeout(),
		MaxConns:  a.cfg.Crawler.Concurrency,
	}, pacer)
	extractor := goqueryextractor.New()
	summary := metrics.NewSummary(a.clock)

	work := memory.NewQueue[crawler.WorkItem]()
	results := memory.NewQueue[*crawler.Record]()
	for _, item := range items {
		work.Enqueue(item)
	}

	permits := semaphore.NewWeighted(int64(a.cfg.Crawler.Concurrency))
	workers := make([]*worker.Worker, a.cfg.Crawler.Workers)
	for i := range workers {
		workers[i] = worker.New(work, results, permits, fetcher, extractor, summary, logger)
	}

	logger.Info("pipeline starting",
		zap.Int("targets", len(items)),
		zap.Int("workers", a.cfg.Crawler.Workers),
		zap.Int("concurrency", a.cfg.Crawler.Concurrency),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.New(workers).Run(runCtx)
	}()

	sinkErr := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sinkErr <- sink.NewCSV(results, out, logger).Run(runCtx)
	}()

	// Drain: every work item acknowledged, then the sentinel, then every
	// result acknowledged. Only after that are workers and sink canceled.
	if err := a.join(runCtx, work, sinkErr); err != nil {
		cancel()
		wg.Wait()
		return fmt.Errorf("work queue drain: %w", err)
	}
	results.Enqueue(nil)
	if err := a.join(runCtx, results, sinkErr); err != nil {
		cancel()
		wg.Wait()
		return fmt.Errorf("result queue drain: %w", err)
	}

	cancel()
	wg.Wait()
	if err := <-sinkErr; err != nil {
		return fmt.Errorf("sink: %w", err)
	}

	a.report(logger, summary.Snapshot())
	return nil
}

type joiner interface {
	Join(ctx context.Context) error
}

// join waits for a queue drain while watching for an early sink failure,
// which would otherwise leave the drain waiting forever.
func (a *App) join(ctx context.Context, q joiner, sinkErr chan error) error {
	joinDone := make(chan error, 1)
	go func() {
		joinDone <- q.Join(ctx)
	}()
	select {
	case err := <-joinDone:
		return err
	case err := <-sinkErr:
		// Put the result back for the final read. A clean sink exit means
		// the sentinel was just consumed, so the drain completes anyway.
		sinkErr <- err
		if err != nil {
			return err
		}
		return <-joinDone
	}
}

func (a *App) report(logger *zap.Logger, snap metrics.Snapshot) {
	logger.Info("processing complete",
		zap.Uint64("total_processed", snap.TotalProcessed),
		zap.Duration("elapsed", snap.Elapsed),
		zap.Float64("domains_per_sec", snap.Rate()),
	)
	logger.Info("logo discovery rate",
		zap.Uint64("logos_found", snap.LogosFound),
		zap.Uint64("total_processed", snap.TotalProcessed),
		zap.Float64("success_percent", snap.SuccessPercent()),
	)
	for kind, count := range snap.ErrorCounts {
		logger.Info("error breakdown",
			zap.String("kind", string(kind)),
			zap.Uint64("count", count),
		)
	}
}

// ReadTargets reads newline-separated domains, skipping blank lines and
// collapsing duplicates while preserving first-seen order. Lines that do
// not normalize to a fetchable URL are logged and dropped.
func ReadTargets(in io.Reader, logger *zap.Logger) ([]crawler.WorkItem, error) {
	scanner := bufio.NewScanner(in)
	seen := make(map[string]struct{})
	var items []crawler.WorkItem

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		item, err := crawler.NormalizeTarget(line)
		if err != nil {
			logger.Warn("skipping invalid target", zap.String("line", line), zap.Error(err))
			continue
		}
		if _, dup := seen[item.URL]; dup {
			continue
		}
		seen[item.URL] = struct{}{}
		items = append(items, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return items, nil
}

// serveMetrics exposes /metrics and /healthz for the duration of the run.
func (a *App) serveMetrics(ctx context.Context, logger *zap.Logger) {
	router := chi.NewRouter()
	router.Handle("/metrics", metrics.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Metrics.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		logger.Info("metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
}
