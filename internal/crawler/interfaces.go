package crawler

import (
	"context"
	"time"
)

// Fetcher retrieves a URL and reports the outcome in-band. Failures are
// classified on the result rather than returned as an error so they never
// cross worker boundaries as exceptions.
type Fetcher interface {
	Fetch(ctx context.Context, url string) FetchResult
}

// Extractor locates logo and favicon candidates in an already-fetched
// document. Both return values default to "" and any relative candidate is
// resolved against baseURL. It must tolerate malformed or empty markup.
type Extractor interface {
	Extract(baseURL string, body []byte) (logoURL string, faviconURL string)
}

// Pacer throttles outbound requests. Wait blocks until the next request may
// be issued or the context ends.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
