package sink

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/logoscout/logoscout/internal/crawler"
	"github.com/logoscout/logoscout/internal/queue/memory"
)

func TestCSVWritesRecordsInArrivalOrder(t *testing.T) {
	t.Parallel()

	results := memory.NewQueue[*crawler.Record]()
	var buf bytes.Buffer
	s := NewCSV(results, &buf, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background())
	}()

	results.Enqueue(&crawler.Record{Domain: "b.com", LogoURL: "https://b.com/logo.png", FaviconURL: ""})
	results.Enqueue(&crawler.Record{Domain: "a.com", LogoURL: "", FaviconURL: "https://a.com/f.ico"})
	results.Enqueue(nil)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sink did not stop on sentinel")
	}

	want := "domain,logo_url,favicon_url\n" +
		"b.com,https://b.com/logo.png,\n" +
		"a.com,,https://a.com/f.ico\n"
	require.Equal(t, want, buf.String())
	require.Zero(t, results.Outstanding(), "sink must acknowledge everything it consumed")
}

func TestCSVQuotesEmbeddedSeparators(t *testing.T) {
	t.Parallel()

	results := memory.NewQueue[*crawler.Record]()
	var buf bytes.Buffer
	s := NewCSV(results, &buf, zap.NewNop())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(context.Background())
	}()

	results.Enqueue(&crawler.Record{Domain: "odd.com", LogoURL: `https://odd.com/a,b"c.png`})
	results.Enqueue(nil)
	require.NoError(t, <-done)

	require.Contains(t, buf.String(), `"https://odd.com/a,b""c.png"`)
}

func TestCSVStopsOnCancel(t *testing.T) {
	t.Parallel()

	results := memory.NewQueue[*crawler.Record]()
	s := NewCSV(results, &bytes.Buffer{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sink did not stop on cancel")
	}
}
