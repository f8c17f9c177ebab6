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

// MaxPageSize bounds the invalid-record listing
const MaxPageSize = 100

// RecordView is one stored record with its latest result and history
type RecordView struct {
	Record   *entity.PassengerRecord  `json:"record"`
	Result   *entity.ValidationResult `json:"result,omitempty"`
	Versions []*entity.RecordVersion  `json:"versions"`
}

// ReportService answers reporting queries and maintains simple records
type ReportService struct {
	recordRepo repository.RecordRepository
	resultRepo repository.ResultRepository
	cache      repository.ReportCache
	batch      *BatchValidator
	metrics    *metrics.Metrics
	logger     logger.Logger
}

// NewReportService creates a new report service. cache may be nil.
func NewReportService(
	recordRepo repository.RecordRepository,
	resultRepo repository.ResultRepository,
	cache repository.ReportCache,
	batch *BatchValidator,
	metrics *metrics.Metrics,
	logger logger.Logger,
) *ReportService {
	return &ReportService{
		recordRepo: recordRepo,
		resultRepo: resultRepo,
		cache:      cache,
		batch:      batch,
		metrics:    metrics,
		logger:     logger,
	}
}

// Summary returns the statistics and category counts of a flight, from
// the cache when possible
func (s *ReportService) Summary(ctx context.Context, flightID string) (*entity.FlightSummary, error) {
	if s.cache != nil {
		summary, err := s.cache.GetSummary(ctx, flightID)
		if err == nil {
			return summary, nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.Warn("Report cache read failed", "flightId", flightID, "error", err)
		}
	}

	full, err := s.recordRepo.ListFull(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	simple, err := s.recordRepo.ListSimple(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to list simple records: %w", err)
	}
	if len(full) == 0 && len(simple) == 0 {
		return nil, fmt.Errorf("flight %s: %w", flightID, sentinel.ErrNotFound)
	}

	results, err := s.resultRepo.ListByFlight(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	missing, err := s.Missing(ctx, flightID)
	if err != nil {
		return nil, err
	}

	summary := entity.NewFlightSummary(flightID, len(full), len(simple), results, missing, time.Now())

	if s.cache != nil {
		if err := s.cache.SetSummary(ctx, summary); err != nil {
			s.logger.Warn("Report cache write failed", "flightId", flightID, "error", err)
		}
	}

	return summary, nil
}

// Missing returns the missing-number set of a flight, recomputing it when
// none was persisted yet
func (s *ReportService) Missing(ctx context.Context, flightID string) (*entity.MissingNumbers, error) {
	missing, err := s.recordRepo.GetMissing(ctx, flightID)
	if err == nil {
		return missing, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, fmt.Errorf("failed to load missing numbers: %w", err)
	}

	observed, err := s.recordRepo.ObservedNumbers(ctx, flightID)
	if err != nil {
		return nil, fmt.Errorf("failed to list observed numbers: %w", err)
	}
	if len(observed) == 0 {
		return nil, fmt.Errorf("flight %s: %w", flightID, sentinel.ErrNotFound)
	}
	return entity.NewMissingNumbers(flightID, observed, time.Now()), nil
}

// InvalidPage lists records with violations, ordered by hbnb. page starts
// at 1 and size is between 1 and MaxPageSize.
func (s *ReportService) InvalidPage(ctx context.Context, flightID string, page, size int) (*entity.InvalidPage, error) {
	if page < 1 || size < 1 || size > MaxPageSize {
		return nil, fmt.Errorf("page %d size %d: %w", page, size, sentinel.ErrInvalidInput)
	}

	items, total, err := s.resultRepo.ListInvalid(ctx, flightID, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list invalid records: %w", err)
	}
	if items == nil {
		items = []*entity.ValidationResult{}
	}

	return &entity.InvalidPage{
		FlightID: flightID,
		Page:     page,
		Size:     size,
		Total:    total,
		Items:    items,
	}, nil
}

// Results returns every stored result of a flight ordered by hbnb
func (s *ReportService) Results(ctx context.Context, flightID string) ([]*entity.ValidationResult, error) {
	return s.resultRepo.ListByFlight(ctx, flightID)
}

// Record returns one full record with its result and version history
func (s *ReportService) Record(ctx context.Context, flightID string, hbnb int) (*RecordView, error) {
	rec, err := s.recordRepo.GetFull(ctx, flightID, hbnb)
	if err != nil {
		return nil, err
	}

	view := &RecordView{Record: rec}

	result, err := s.resultRepo.Get(ctx, flightID, hbnb)
	switch {
	case err == nil:
		view.Result = result
	case !errors.Is(err, sentinel.ErrNotFound):
		return nil, err
	}

	view.Versions, err = s.recordRepo.ListVersions(ctx, flightID, hbnb)
	if err != nil {
		return nil, err
	}
	if view.Versions == nil {
		view.Versions = []*entity.RecordVersion{}
	}

	return view, nil
}

// Revalidate validates the stored text of one record again and replaces
// its result
func (s *ReportService) Revalidate(ctx context.Context, flightID string, hbnb int) (*entity.ValidationResult, error) {
	rec, err := s.recordRepo.GetFull(ctx, flightID, hbnb)
	if err != nil {
		return nil, err
	}

	results, err := s.batch.ValidateAll(ctx, []hbpr.RawRecordBlock{rec.Block()})
	if err != nil {
		return nil, err
	}

	vr := entity.NewValidationResult(flightID, results[0], time.Now())
	if err := s.resultRepo.Upsert(ctx, vr); err != nil {
		return nil, fmt.Errorf("failed to store result: %w", err)
	}
	s.invalidate(ctx, flightID)

	s.logger.Info("Record revalidated", "flightId", flightID, "hbnb", hbnb, "outcome", vr.Outcome)
	return vr, nil
}

// CreateSimple stores a placeholder record for a number. It fails with
// sentinel.ErrConflict when a full record exists.
func (s *ReportService) CreateSimple(ctx context.Context, flightID string, hbnb int, text string) (*entity.SimpleRecord, error) {
	if hbnb < 1 || flightID == "" {
		return nil, fmt.Errorf("simple record %s:%d: %w", flightID, hbnb, sentinel.ErrInvalidInput)
	}

	rec := entity.NewSimpleRecord(flightID, hbnb, text)
	rec.CreatedAt = time.Now()
	if err := s.recordRepo.SaveSimple(ctx, rec); err != nil {
		return nil, err
	}

	s.afterSimpleChange(ctx, flightID)
	return rec, nil
}

// DeleteSimple removes a placeholder record
func (s *ReportService) DeleteSimple(ctx context.Context, flightID string, hbnb int) error {
	if err := s.recordRepo.DeleteSimple(ctx, flightID, hbnb); err != nil {
		return err
	}

	s.afterSimpleChange(ctx, flightID)
	return nil
}

func (s *ReportService) afterSimpleChange(ctx context.Context, flightID string) {
	if _, err := refreshMissing(ctx, s.recordRepo, s.metrics, flightID); err != nil {
		s.logger.Error("Failed to refresh missing numbers", "flightId", flightID, "error", err)
		s.metrics.ObserveError("refresh_missing")
	}
	s.invalidate(ctx, flightID)
}

func (s *ReportService) invalidate(ctx context.Context, flightID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, flightID); err != nil {
		s.logger.Warn("Failed to invalidate report cache", "flightId", flightID, "error", err)
	}
}
