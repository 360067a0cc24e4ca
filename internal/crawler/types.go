// Package crawler defines core types shared across subsystems.
package crawler

import "time"

// ErrorKind classifies a per-item failure for metrics and logging.
// It is never used for control flow.
type ErrorKind string

// Failure classifications recorded in the run summary.
const (
	ErrKindTimeout    ErrorKind = "timeout_error"
	ErrKindHTTPStatus ErrorKind = "http_error"
	ErrKindNetwork    ErrorKind = "network_error"
	ErrKindParse      ErrorKind = "parse_error"
	ErrKindUnknown    ErrorKind = "unknown_error"
)

// WorkItem is one unit of crawl work. The URL is derived from the domain
// once, at ingestion, and both fields are immutable afterwards.
type WorkItem struct {
	Domain string
	URL    string
}

// FetchResult is returned by a Fetcher. Exactly one of Body or Kind is
// populated: a successful fetch carries the response body, a failed one
// carries its classification plus the underlying error for logging.
type FetchResult struct {
	URL      string
	Status   int
	Body     []byte
	Duration time.Duration
	Kind     ErrorKind
	Err      error
}

// Failed reports whether the fetch produced an error instead of a body.
func (r FetchResult) Failed() bool {
	return r.Kind != ""
}

// Record is one output row. Empty strings mean "not found"; the record
// keeps a fixed arity so the CSV shape never varies.
type Record struct {
	Domain     string
	LogoURL    string
	FaviconURL string
}
