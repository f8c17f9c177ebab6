package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"hbpr-validation-service/pkg/hbpr"
	"hbpr-validation-service/pkg/logger"
	"hbpr-validation-service/pkg/metrics"
)

// RecordValidator validates one record block
type RecordValidator interface {
	Validate(block hbpr.RawRecordBlock) hbpr.Result
}

// BatchValidator fans record blocks out to a bounded pool of workers.
// Each worker takes a fixed-size batch, so a record that panics only costs
// the unfinished records of its own batch.
type BatchValidator struct {
	validator RecordValidator
	workers   int
	batchSize int
	metrics   *metrics.Metrics
	logger    logger.Logger
}

// NewBatchValidator creates a new batch validator
func NewBatchValidator(validator RecordValidator, workers, batchSize int, metrics *metrics.Metrics, logger logger.Logger) *BatchValidator {
	if workers < 1 {
		workers = 1
	}
	if batchSize < 1 {
		batchSize = 1
	}
	return &BatchValidator{
		validator: validator,
		workers:   workers,
		batchSize: batchSize,
		metrics:   metrics,
		logger:    logger,
	}
}

// ValidateAll validates every block and returns the results in input order.
// It only fails when ctx is cancelled before all batches were started.
func (b *BatchValidator) ValidateAll(ctx context.Context, blocks []hbpr.RawRecordBlock) ([]hbpr.Result, error) {
	results := make([]hbpr.Result, len(blocks))
	if len(blocks) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for start := 0; start < len(blocks); start += b.batchSize {
		start := start
		end := start + b.batchSize
		if end > len(blocks) {
			end = len(blocks)
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b.runBatch(blocks[start:end], results[start:end])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch validation aborted: %w", err)
	}

	b.logger.Info("Validated records",
		"records", len(blocks),
		"batches", (len(blocks)+b.batchSize-1)/b.batchSize,
		"workers", b.workers)

	return results, nil
}

func (b *BatchValidator) runBatch(blocks []hbpr.RawRecordBlock, results []hbpr.Result) {
	started := time.Now()
	next := 0

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered panic while validating batch",
				"hbnb", blocks[next].SequenceNumber,
				"batchSize", len(blocks),
				"panic", r)
			b.metrics.ObserveError("validate_batch")
			for i := next; i < len(blocks); i++ {
				results[i] = failedResult(blocks[i], r)
				b.observe(results[i])
			}
		}
		b.metrics.ObserveBatch(started)
	}()

	for ; next < len(blocks); next++ {
		res := b.validator.Validate(blocks[next])
		results[next] = res
		b.observe(res)
	}
}

func (b *BatchValidator) observe(res hbpr.Result) {
	b.metrics.ObserveOutcome(string(res.Outcome))
	for _, c := range hbpr.Categories {
		b.metrics.ObserveViolations(strings.ToLower(c.String()), len(res.Report.Messages(c)))
	}
}

func failedResult(block hbpr.RawRecordBlock, cause interface{}) hbpr.Result {
	res := hbpr.Result{
		Record:  hbpr.ParsedPassengerRecord{HbnbNumber: block.SequenceNumber},
		Outcome: hbpr.OutcomeParseFailed,
	}
	res.Report.Add(hbpr.CategoryOther, fmt.Sprintf("HBPR%d,\tUnexpected failure while validating: %v", block.SequenceNumber, cause))
	return res
}
