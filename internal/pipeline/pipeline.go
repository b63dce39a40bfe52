package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/typhoonwatch/bulletin-etl/internal/domain"
	"github.com/typhoonwatch/bulletin-etl/internal/observability"
)

// BatchExtractor reads up to batchSize raw bulletin documents from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawDocument, error)
}

// Transformer converts a raw document into an extracted bulletin envelope.
// An error means the message itself was undecodable; a readable message
// whose bulletin text resists extraction still produces an envelope, with
// a null record.
type Transformer interface {
	Transform(ctx context.Context, doc domain.RawDocument) (domain.ExtractedBulletin, error)
}

// BatchLoader writes extracted bulletins to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, bulletins []domain.ExtractedBulletin) error
}

// Pipeline orchestrates the extract-transform-load loop.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil if the pipeline has processed at least one
// bulletin, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not processed any bulletins yet")
	}
	return nil
}

// Run executes the batch ETL loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during Kafka outages.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !p.processBatch(ctx, &backoff, maxBackoff) {
			return nil
		}
	}
}

// processBatch runs one extract-transform-load cycle. Returns false if the pipeline should stop.
func (p *Pipeline) processBatch(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	start := time.Now()

	batch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("extract batch failed", "error", err)
		return p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	if len(batch) == 0 {
		return ctx.Err() == nil
	}

	p.metrics.MessagesConsumed.Add(float64(len(batch)))
	p.metrics.BatchSize.Observe(float64(len(batch)))
	*backoff = 200 * time.Millisecond

	loaded, ok := p.transformAndLoad(ctx, batch, backoff, maxBackoff)
	if !ok {
		return false
	}

	if loaded > 0 {
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.ready.Store(true)
	}
	return true
}

// transformAndLoad transforms each document in the batch, loads the
// successes, and commits offsets. Undecodable messages are skipped and
// committed so one bad payload never wedges the partition. Returns the
// number of successfully loaded bulletins and false if the pipeline
// should stop.
func (p *Pipeline) transformAndLoad(ctx context.Context, batch []domain.RawDocument, backoff *time.Duration, maxBackoff time.Duration) (int, bool) {
	outBatch := make([]domain.ExtractedBulletin, 0, len(batch))
	successfulDocs := make([]domain.RawDocument, 0, len(batch))

	for _, doc := range batch {
		out, err := p.transformer.Transform(ctx, doc)
		if err != nil {
			p.logger.Warn("transform failed, skipping message",
				"error", err,
				"topic", doc.Topic,
				"partition", doc.Partition,
				"offset", doc.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commitOffset(ctx, doc)
			continue
		}
		if out.Record == nil {
			p.metrics.NullRecords.Inc()
		}
		outBatch = append(outBatch, out)
		successfulDocs = append(successfulDocs, doc)
	}

	if len(outBatch) == 0 {
		return 0, true
	}

	if err := p.loader.LoadBatch(ctx, outBatch); err != nil {
		p.logger.Error("load batch failed", "error", err, "batch_size", len(outBatch))
		return 0, p.backoffOrStop(ctx, backoff, maxBackoff)
	}

	p.metrics.MessagesProduced.Add(float64(len(outBatch)))

	for _, doc := range successfulDocs {
		p.commitOffset(ctx, doc)
	}

	return len(outBatch), true
}

// backoffOrStop checks for context cancellation, sleeps with the current backoff,
// and advances the backoff. Returns false if the pipeline should stop.
func (p *Pipeline) backoffOrStop(ctx context.Context, backoff *time.Duration, maxBackoff time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	if !sleepWithContext(ctx, *backoff) {
		return false
	}
	*backoff = nextBackoff(*backoff, maxBackoff)
	return true
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, doc domain.RawDocument) {
	if doc.Commit == nil {
		return
	}
	if err := doc.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", doc.Topic, "partition", doc.Partition, "offset", doc.Offset)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
