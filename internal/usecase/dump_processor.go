package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/domain/repository"
	"hbpr-validation-service/pkg/hbpr"
	"hbpr-validation-service/pkg/logger"
	"hbpr-validation-service/pkg/metrics"
	"hbpr-validation-service/pkg/sentinel"
)

// ProcessorType is recorded on every dump this processor finishes
const ProcessorType = "hbpr"

// DumpProcessor stores the records of a dump and validates them
type DumpProcessor struct {
	dumpRepo   repository.DumpRepository
	recordRepo repository.RecordRepository
	resultRepo repository.ResultRepository
	flightRepo repository.FlightRepository
	cache      repository.ReportCache
	segmenter  *hbpr.Segmenter
	batch      *BatchValidator
	metrics    *metrics.Metrics
	logger     logger.Logger
}

// NewDumpProcessor creates a new dump processor. flightRepo and cache may
// be nil when Postgres or Redis are not configured.
func NewDumpProcessor(
	dumpRepo repository.DumpRepository,
	recordRepo repository.RecordRepository,
	resultRepo repository.ResultRepository,
	flightRepo repository.FlightRepository,
	cache repository.ReportCache,
	segmenter *hbpr.Segmenter,
	batch *BatchValidator,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *DumpProcessor {
	return &DumpProcessor{
		dumpRepo:   dumpRepo,
		recordRepo: recordRepo,
		resultRepo: resultRepo,
		flightRepo: flightRepo,
		cache:      cache,
		segmenter:  segmenter,
		batch:      batch,
		metrics:    metrics,
		logger:     logger,
	}
}

// ProcessDump segments body, stores full and simple records, refreshes the
// missing-number set, validates every full record and upserts the results.
// The dump is marked processed with its final status. An error is returned
// only when nothing could be validated.
func (p *DumpProcessor) ProcessDump(ctx context.Context, body string, dumpID string) error {
	p.logger.Info("Starting dump processing", "dumpId", dumpID)

	steps := entity.ProcessSteps{}
	extractedData := make(map[string]interface{})

	seg := p.segmenter.Segment(body)
	flightID := seg.Flight.ID()
	steps.BlocksSegmented = len(seg.Blocks)
	steps.PlaceholdersFound = len(seg.Placeholders)
	steps.Diagnostics = len(seg.Diagnostics)

	extractedData["flightId"] = flightID
	extractedData["blocks"] = len(seg.Blocks)
	extractedData["placeholders"] = len(seg.Placeholders)
	if len(seg.Diagnostics) > 0 {
		diagnostics := make([]string, 0, len(seg.Diagnostics))
		for _, d := range seg.Diagnostics {
			diagnostics = append(diagnostics, d.String())
		}
		extractedData["diagnostics"] = diagnostics
	}

	if len(seg.Blocks) == 0 && len(seg.Placeholders) == 0 {
		p.logger.Warn("Dump holds no HBPR records", "dumpId", dumpID)
		return p.dumpRepo.MarkAsProcessed(ctx, dumpID, entity.StatusSkipped, ProcessorType, "",
			"No HBPR records found", extractedData)
	}

	p.dumpRepo.UpdateProcessSteps(ctx, dumpID, steps)

	if p.flightRepo != nil && !seg.Flight.IsZero() {
		flight := &entity.Flight{
			FlightID:     flightID,
			FlightNumber: seg.Flight.FlightNumber,
			FlightDate:   seg.Flight.FlightDate,
			Origin:       seg.Flight.Origin,
		}
		if err := p.flightRepo.Upsert(ctx, flight); err != nil {
			p.logger.Warn("Failed to upsert flight", "flightId", flightID, "error", err)
			p.metrics.ObserveError("upsert_flight")
		}
	}

	var processError error
	stored := make([]hbpr.RawRecordBlock, 0, len(seg.Blocks))
	replacedCount := 0

	for _, block := range seg.Blocks {
		rec := entity.NewPassengerRecord(flightID, dumpID, block)
		replaced, err := p.recordRepo.SaveFull(ctx, rec)
		if err != nil {
			p.logger.Error("Failed to store record", "flightId", flightID, "hbnb", block.SequenceNumber, "error", err)
			p.metrics.ObserveError("save_record")
			processError = err
			continue
		}
		if replaced {
			replacedCount++
			if err := p.resultRepo.MarkStale(ctx, flightID, block.SequenceNumber); err != nil {
				p.logger.Warn("Failed to mark result stale", "flightId", flightID, "hbnb", block.SequenceNumber, "error", err)
			}
		}
		stored = append(stored, block)
	}

	for _, placeholder := range seg.Placeholders {
		rec := entity.NewSimpleRecord(flightID, placeholder.SequenceNumber, placeholder.Text)
		if err := p.recordRepo.SaveSimple(ctx, rec); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				p.logger.Debug("Full record already stored, placeholder ignored", "flightId", flightID, "hbnb", placeholder.SequenceNumber)
				continue
			}
			p.logger.Error("Failed to store simple record", "flightId", flightID, "hbnb", placeholder.SequenceNumber, "error", err)
			p.metrics.ObserveError("save_simple")
			processError = err
		}
	}

	if missing, err := refreshMissing(ctx, p.recordRepo, p.metrics, flightID); err != nil {
		p.logger.Error("Failed to refresh missing numbers", "flightId", flightID, "error", err)
		p.metrics.ObserveError("refresh_missing")
	} else {
		extractedData["missing"] = missing.Numbers
	}

	validated, invalid, parseFailed := 0, 0, 0
	results, err := p.batch.ValidateAll(ctx, stored)
	if err != nil {
		p.logger.Error("Validation aborted", "dumpId", dumpID, "error", err)
		processError = err
	}

	now := time.Now()
	for _, res := range results {
		vr := entity.NewValidationResult(flightID, res, now)
		if err := p.resultRepo.Upsert(ctx, vr); err != nil {
			p.logger.Error("Failed to store validation result", "flightId", flightID, "hbnb", vr.HbnbNumber, "error", err)
			p.metrics.ObserveError("save_result")
			processError = err
			continue
		}
		validated++
		switch res.Outcome {
		case hbpr.OutcomeInvalid:
			invalid++
		case hbpr.OutcomeParseFailed:
			invalid++
			parseFailed++
		}
	}

	steps.RecordsValidated = validated
	steps.RecordsInvalid = invalid
	p.dumpRepo.UpdateProcessSteps(ctx, dumpID, steps)

	if p.cache != nil {
		if err := p.cache.Invalidate(ctx, flightID); err != nil {
			p.logger.Warn("Failed to invalidate report cache", "flightId", flightID, "error", err)
		}
	}

	finalStatus := entity.StatusCompleted
	errorDetail := ""
	if processError != nil {
		if validated == 0 && len(seg.Blocks) > 0 {
			finalStatus = entity.StatusFailed
			errorDetail = processError.Error()
		} else {
			errorDetail = fmt.Sprintf("Partially completed: %d/%d records validated. Error: %v",
				validated, len(seg.Blocks), processError)
			processError = nil
		}
	}

	extractedData["validated"] = validated
	extractedData["invalid"] = invalid
	extractedData["parseFailed"] = parseFailed
	extractedData["replaced"] = replacedCount

	if err := p.dumpRepo.MarkAsProcessed(ctx, dumpID, finalStatus, ProcessorType, flightID, errorDetail, extractedData); err != nil {
		p.logger.Error("Failed to mark dump as processed", "dumpId", dumpID, "error", err)
		return err
	}
	p.metrics.ObserveDump()

	p.logger.Info("Dump processing completed",
		"dumpId", dumpID,
		"flightId", flightID,
		"status", finalStatus,
		"validated", validated,
		"invalid", invalid)

	return processError
}

// refreshMissing recomputes and persists the missing-number set of a flight
func refreshMissing(ctx context.Context, records repository.RecordRepository, m *metrics.Metrics, flightID string) (*entity.MissingNumbers, error) {
	observed, err := records.ObservedNumbers(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to list observed numbers: %w", err)
	}
	missing := entity.NewMissingNumbers(flightID, observed, time.Now())
	if err := records.SaveMissing(ctx, missing); err != nil {
		return nil, fmt.Errorf("failed to save missing numbers: %w", err)
	}
	m.SetMissing(flightID, len(missing.Numbers))
	return missing, nil
}
