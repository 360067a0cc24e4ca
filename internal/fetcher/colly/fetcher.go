// Package collyfetcher implements the Fetcher port using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/logoscout/logoscout/internal/crawler"
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// MaxConns caps simultaneously open connections. Workers hold at most
	// this many permits, so the transport cap matches the permit count.
	MaxConns int
}

// Fetcher fetches single pages through a shared, connection-pooled
// transport. Failures are classified in-band; it never returns an error.
type Fetcher struct {
	cfg           Config
	pacer         crawler.Pacer
	transport     *http.Transport
	baseCollector *colly.Collector
}

// New builds a Fetcher. The pacer gates every request.
func New(cfg Config, pacer crawler.Pacer) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	// Error statuses flow through OnResponse; the 2xx check below decides
	// success so that 204/206 are not misclassified.
	c.ParseHTTPErrorResponse = true

	transport := newHTTPTransport(cfg.MaxConns)
	c.WithTransport(transport)

	return &Fetcher{
		cfg:           cfg,
		pacer:         pacer,
		transport:     transport,
		baseCollector: c,
	}
}

// Fetch executes a single paced HTTP GET. Redirects are followed by the
// underlying transport; any non-2xx final status is a failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) crawler.FetchResult {
	if err := f.pacer.Wait(ctx); err != nil {
		return crawler.FetchResult{URL: url, Kind: Classify(err, 0), Err: err}
	}

	start := time.Now()
	collector := f.buildCollector()

	var (
		body     []byte
		finalURL = url
		status   int
		fetchErr error
	)
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
		status = r.StatusCode
		finalURL = r.Request.URL.String()
	})
	collector.OnError(func(r *colly.Response, err error) {
		fetchErr = err
		if r != nil && r.StatusCode != 0 {
			status = r.StatusCode
		}
	})

	err := f.runCollector(ctx, collector, url)
	duration := time.Since(start)
	if err == nil {
		err = fetchErr
	}
	if err == nil && (status < http.StatusOK || status >= http.StatusMultipleChoices) {
		err = fmt.Errorf("unexpected status %d", status)
	}
	if err != nil {
		return crawler.FetchResult{
			URL:      finalURL,
			Status:   status,
			Duration: duration,
			Kind:     Classify(err, status),
			Err:      err,
		}
	}
	return crawler.FetchResult{
		URL:      finalURL,
		Status:   status,
		Body:     body,
		Duration: duration,
	}
}

func (f *Fetcher) buildCollector() *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.IgnoreRobotsTxt = true
	collector.ParseHTTPErrorResponse = true
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)
	collector.WithTransport(f.transport)
	return collector
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("visit %s: %w", url, err)
		}
		return nil
	}
}

// Classify maps a fetch failure to its ErrorKind. Timeouts win over status
// errors because a timed-out request has no meaningful final status.
func Classify(err error, status int) crawler.ErrorKind {
	var netErr net.Error
	var dnsErr *net.DNSError
	var opErr *net.OpError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return crawler.ErrKindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return crawler.ErrKindTimeout
	case status != 0 && (status < http.StatusOK || status >= http.StatusMultipleChoices):
		return crawler.ErrKindHTTPStatus
	case errors.As(err, &dnsErr), errors.As(err, &opErr):
		return crawler.ErrKindNetwork
	default:
		return crawler.ErrKindUnknown
	}
}

func newHTTPTransport(maxConns int) *http.Transport {
	if maxConns <= 0 {
		maxConns = 10
	}
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxConnsPerHost:       maxConns,
		MaxIdleConns:          maxConns,
		IdleConnTimeout:       90 * time.Second,
	}
}
