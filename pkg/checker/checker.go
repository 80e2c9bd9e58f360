package checker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ccollicutt/verixfer/pkg/metrics"
	"github.com/ccollicutt/verixfer/pkg/parser"
	"github.com/ccollicutt/verixfer/pkg/xferlog"
)

// DefaultBatchSize is the number of lines validated per parallel batch.
const DefaultBatchSize = 1024

// Checker validates every line of a source.
type Checker struct {
	workers   int
	batchSize int
	logger    *zap.Logger
	metrics   *metrics.Collector
}

// Option configures checker behavior.
type Option func(*Checker)

// WithWorkers sets the number of goroutines validating a batch.
// Values below 2 keep the single-threaded path.
func WithWorkers(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithBatchSize sets how many lines are read ahead for parallel validation.
func WithBatchSize(n int) Option {
	return func(c *Checker) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records every result in the collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Checker) {
		c.metrics = m
	}
}

// New creates a checker.
func New(opts ...Option) *Checker {
	c := &Checker{
		workers:   1,
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check reads src to the end and writes a Finding to sink for every invalid
// line, in input order. Content problems never produce an error; only
// reading, the sink, or ctx can fail the run.
func (c *Checker) Check(ctx context.Context, src parser.LineSource, sink Sink) (*Summary, error) {
	sum := &Summary{StartTime: time.Now()}
	if named, ok := src.(interface{ Source() string }); ok {
		sum.Sources = append(sum.Sources, named.Source())
	}

	var err error
	if c.workers > 1 {
		err = c.checkParallel(ctx, src, sink, sum)
	} else {
		err = c.checkSequential(ctx, src, sink, sum)
	}

	sum.EndTime = time.Now()
	c.metrics.ObserveDuration(sum.Duration())
	if err != nil {
		return nil, err
	}

	c.logger.Debug("check finished",
		zap.Strings("sources", sum.Sources),
		zap.Int("lines", sum.LinesRead),
		zap.Int("invalid", sum.LinesInvalid),
		zap.Duration("duration", sum.Duration()),
	)
	return sum, nil
}

func (c *Checker) checkSequential(ctx context.Context, src parser.LineSource, sink Sink, sum *Summary) error {
	for {
		line, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading log source: %w", err)
		}

		if err := c.emit(ctx, sink, sum, line, xferlog.Validate(line.Raw)); err != nil {
			return err
		}
	}
}

// checkParallel validates fixed-size batches concurrently. Results land in a
// slice indexed by position and are emitted in order once the batch is done,
// so output matches the sequential path byte for byte.
func (c *Checker) checkParallel(ctx context.Context, src parser.LineSource, sink Sink, sum *Summary) error {
	batch := make([]*parser.LogLine, 0, c.batchSize)
	results := make([]xferlog.Result, c.batchSize)

	for {
		batch = batch[:0]
		eof := false
		for len(batch) < c.batchSize {
			line, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				eof = true
				break
			}
			if err != nil {
				return fmt.Errorf("reading log source: %w", err)
			}
			batch = append(batch, line)
		}

		if err := c.validateBatch(ctx, batch, results); err != nil {
			return err
		}

		for i, line := range batch {
			if err := c.emit(ctx, sink, sum, line, results[i]); err != nil {
				return err
			}
		}

		if eof {
			return nil
		}
	}
}

func (c *Checker) validateBatch(ctx context.Context, batch []*parser.LogLine, results []xferlog.Result) error {
	if len(batch) == 0 {
		return nil
	}

	chunk := (len(batch) + c.workers - 1) / c.workers
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for start := 0; start < len(batch); start += chunk {
		start := start
		end := min(start+chunk, len(batch))
		g.Go(func() error {
			for i := start; i < end; i++ {
				results[i] = xferlog.Validate(batch[i].Raw)
			}
			return gctx.Err()
		})
	}

	return g.Wait()
}

func (c *Checker) emit(ctx context.Context, sink Sink, sum *Summary, line *parser.LogLine, r xferlog.Result) error {
	sum.record(r)
	c.metrics.Observe(r)

	if r.OK() {
		return nil
	}

	f := Finding{
		Source:    line.Source,
		Line:      line.LineNum,
		Field:     r.Field(),
		FieldName: r.Field().Name(),
		Raw:       line.Raw,
	}
	if err := sink.WriteFinding(ctx, f); err != nil {
		return fmt.Errorf("writing finding for %s:%d: %w", line.Source, line.LineNum, err)
	}
	return nil
}
