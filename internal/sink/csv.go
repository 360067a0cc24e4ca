// Package sink writes pipeline results to their terminal output.
package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/logoscout/logoscout/internal/crawler"
	"github.com/logoscout/logoscout/internal/queue/memory"
)

// CSV is the single consumer of the result queue. It writes records in
// arrival order until it sees the nil sentinel, acknowledging every item
// it consumes. Rows are flushed as they arrive so output streams.
type CSV struct {
	results *memory.Queue[*crawler.Record]
	writer  *csv.Writer
	logger  *zap.Logger
}

// NewCSV creates a sink writing to out.
func NewCSV(results *memory.Queue[*crawler.Record], out io.Writer, logger *zap.Logger) *CSV {
	return &CSV{
		results: results,
		writer:  csv.NewWriter(out),
		logger:  logger,
	}
}

// Run consumes the result queue until the sentinel arrives or the context
// finishes. A write failure is fatal to the sink but not to the workers.
func (s *CSV) Run(ctx context.Context) error {
	if err := s.writer.Write([]string{"domain", "logo_url", "favicon_url"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	s.writer.Flush()

	for {
		record, err := s.results.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("result dequeue: %w", err)
		}

		if record == nil {
			s.results.Done()
			s.writer.Flush()
			if err := s.writer.Error(); err != nil {
				return fmt.Errorf("flush output: %w", err)
			}
			s.logger.Debug("sink received shutdown sentinel")
			return nil
		}

		err = s.writer.Write([]string{record.Domain, record.LogoURL, record.FaviconURL})
		s.writer.Flush()
		s.results.Done()
		if err == nil {
			err = s.writer.Error()
		}
		if err != nil {
			return fmt.Errorf("write record for %s: %w", record.Domain, err)
		}
	}
}
