// Package worker implements the crawl pipeline execution loop.
package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/logoscout/logoscout/internal/crawler"
	"github.com/logoscout/logoscout/internal/metrics"
	"github.com/logoscout/logoscout/internal/queue/memory"
)

// Worker consumes work items and executes the fetch-extract pipeline.
// Every dequeued item is acknowledged exactly once, whatever the outcome.
type Worker struct {
	work      *memory.Queue[crawler.WorkItem]
	results   *memory.Queue[*crawler.Record]
	permits   *semaphore.Weighted
	fetcher   crawler.Fetcher
	extractor crawler.Extractor
	summary   *metrics.Summary
	logger    *zap.Logger
}

// New constructs a Worker. The permit semaphore is shared across the pool
// and bounds simultaneous in-flight fetches.
func New(
	work *memory.Queue[crawler.WorkItem],
	results *memory.Queue[*crawler.Record],
	permits *semaphore.Weighted,
	fetcher crawler.Fetcher,
	extractor crawler.Extractor,
	summary *metrics.Summary,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		work:      work,
		results:   results,
		permits:   permits,
		fetcher:   fetcher,
		extractor: extractor,
		summary:   summary,
		logger:    logger,
	}
}

// Run blocks, consuming work items until the context finishes. Workers
// never terminate on their own; the orchestrator cancels them once the
// work queue is confirmed drained.
func (w *Worker) Run(ctx context.Context) {
	for {
		item, err := w.work.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Error("work dequeue failed", zap.Error(err))
			continue
		}
		w.process(ctx, item)
	}
}

func (w *Worker) process(ctx context.Context, item crawler.WorkItem) {
	defer w.work.Done()

	if err := w.permits.Acquire(ctx, 1); err != nil {
		// Only happens on shutdown, after the queue already drained.
		return
	}
	metrics.IncFetchesInFlight()
	result := w.fetcher.Fetch(ctx, item.URL)
	metrics.DecFetchesInFlight()
	w.permits.Release(1)

	if result.Failed() {
		if ctx.Err() != nil {
			return
		}
		w.summary.RecordError(result.Kind)
		metrics.ObserveError(string(result.Kind))
		w.logger.Error("fetch failed",
			zap.String("url", item.URL),
			zap.String("kind", string(result.Kind)),
			zap.Error(result.Err),
		)
		return
	}

	logoURL, faviconURL, err := w.extract(item.URL, result.Body)
	if err != nil {
		w.summary.RecordError(crawler.ErrKindParse)
		metrics.ObserveError(string(crawler.ErrKindParse))
		w.logger.Error("extract failed", zap.String("url", item.URL), zap.Error(err))
		return
	}

	w.summary.RecordSuccess(logoURL != "")
	metrics.ObserveSuccess(logoURL != "", result.Duration)
	w.logger.Info("page processed",
		zap.String("domain", item.Domain),
		zap.String("logo_url", logoURL),
		zap.String("favicon_url", faviconURL),
	)
	w.results.Enqueue(&crawler.Record{
		Domain:     item.Domain,
		LogoURL:    logoURL,
		FaviconURL: faviconURL,
	})
}

// extract shields the worker loop from extractor panics. A panic counts as
// a parse failure for the current item only.
func (w *Worker) extract(baseURL string, body []byte) (logoURL string, faviconURL string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	logoURL, faviconURL = w.extractor.Extract(baseURL, body)
	return logoURL, faviconURL, nil
}
