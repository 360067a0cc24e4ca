package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/logoscout/logoscout/internal/crawler"
	"github.com/logoscout/logoscout/internal/policy/pacing"
)

func newTestFetcher(timeout time.Duration) *Fetcher {
	return New(Config{UserAgent: "logoscout-test", Timeout: timeout, MaxConns: 4}, pacing.NewFixed(0))
}

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>hello</body></html>")
	}))
	defer srv.Close()

	result := newTestFetcher(5 * time.Second).Fetch(context.Background(), srv.URL)
	require.False(t, result.Failed())
	require.Equal(t, http.StatusOK, result.Status)
	require.Contains(t, string(result.Body), "hello")
}

func TestFetchFollowsRedirects(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/landing", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/landing", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>landed</html>")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	result := newTestFetcher(5 * time.Second).Fetch(context.Background(), srv.URL)
	require.False(t, result.Failed())
	require.Contains(t, string(result.Body), "landed")
}

func TestFetchNonOKStatusIsFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	result := newTestFetcher(5 * time.Second).Fetch(context.Background(), srv.URL)
	require.True(t, result.Failed())
	require.Equal(t, crawler.ErrKindHTTPStatus, result.Kind)
	require.Nil(t, result.Body)
}

func TestFetchTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	result := newTestFetcher(50 * time.Millisecond).Fetch(context.Background(), srv.URL)
	require.True(t, result.Failed())
	require.Equal(t, crawler.ErrKindTimeout, result.Kind)
}

func TestFetchConnectionRefused(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	result := newTestFetcher(time.Second).Fetch(context.Background(), url)
	require.True(t, result.Failed())
	require.Equal(t, crawler.ErrKindNetwork, result.Kind)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		want   crawler.ErrorKind
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: crawler.ErrKindTimeout},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, want: crawler.ErrKindTimeout},
		{name: "status 404", err: errors.New("Not Found"), status: 404, want: crawler.ErrKindHTTPStatus},
		{name: "status 500", err: errors.New("Internal Server Error"), status: 500, want: crawler.ErrKindHTTPStatus},
		{name: "dns failure", err: &net.DNSError{Err: "no such host"}, want: crawler.ErrKindNetwork},
		{name: "conn refused", err: &net.OpError{Op: "dial", Err: errors.New("connection refused")}, want: crawler.ErrKindNetwork},
		{name: "anything else", err: errors.New("mystery"), want: crawler.ErrKindUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Classify(tc.err, tc.status))
		})
	}
}

func TestFetchAppliesPacingDelay(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	f := New(Config{Timeout: time.Second, MaxConns: 1}, pacing.NewFixed(50*time.Millisecond))
	start := time.Now()
	result := f.Fetch(context.Background(), srv.URL)
	require.False(t, result.Failed())
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}
