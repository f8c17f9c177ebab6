package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/pkg/hbpr"
	"hbpr-validation-service/pkg/logger"
	"hbpr-validation-service/pkg/sentinel"
)

// paxText lays a record out the way the check-in host prints it, with the
// class letter on column 40 of the name row
func paxText(seq int, name string, bn int, passport string) string {
	left := fmt.Sprintf("  1. %-20s", name)
	if bn > 0 {
		left += fmt.Sprintf("BN%03d  ", bn)
	}
	left += "14H"
	return strings.Join([]string{
		fmt.Sprintf(">HBPR: CA984/25JUL25*LAX,%d", seq),
		fmt.Sprintf("%-40s%s  %s", left, "Y", "PEK") + "  FBA/2PC  ET  R/EXST  BAG2",
		"    PNR RL MXYZ12",
		"    BAG2/46/1 CA123456 PEK",
		"    PAXLST :" + strings.Fields(name)[0],
		"    PASSPORT :" + passport,
	}, "\n")
}

const (
	validPassport   = "P/E12345678/CHN/CHN/850101/300101/M"
	expiredPassport = "P/E12345678/CHN/CHN/850101/240101/M"
	flightID        = "CA984_25JUL25_LAX"
)

func testValidator() *hbpr.Validator {
	return hbpr.NewValidator(hbpr.DefaultRules(), logger.NewNop(), hbpr.WithClock(func() time.Time {
		return time.Date(2025, time.July, 25, 10, 0, 0, 0, time.UTC)
	}))
}

type fakeDumpRepo struct {
	mu    sync.Mutex
	dumps map[string]*entity.Dump
	order []string
	steps []entity.ProcessSteps
}

func newFakeDumpRepo() *fakeDumpRepo {
	return &fakeDumpRepo{dumps: make(map[string]*entity.Dump)}
}

func (r *fakeDumpRepo) Save(ctx context.Context, dump *entity.Dump) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.dumps[dump.ID]; ok {
		return sentinel.ErrConflict
	}
	copied := *dump
	r.dumps[dump.ID] = &copied
	r.order = append(r.order, dump.ID)
	return nil
}

func (r *fakeDumpRepo) FindByID(ctx context.Context, id string) (*entity.Dump, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dumps[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *d
	return &copied, nil
}

func (r *fakeDumpRepo) FindUnprocessed(ctx context.Context, limit int) ([]*entity.Dump, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Dump
	for _, id := range r.order {
		d := r.dumps[id]
		if d.ProcessStatus == entity.StatusPending && len(out) < limit {
			copied := *d
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeDumpRepo) UpdateStatus(ctx context.Context, id string, status string, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dumps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.ProcessStatus = status
	d.ProcessStartedAt = startedAt
	return nil
}

func (r *fakeDumpRepo) UpdateProcessSteps(ctx context.Context, id string, steps entity.ProcessSteps) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dumps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.ProcessSteps = steps
	r.steps = append(r.steps, steps)
	return nil
}

func (r *fakeDumpRepo) MarkAsProcessed(ctx context.Context, id, status, processorType, flightID, errorDetail string, extractedData map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dumps[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	d.ProcessStatus = status
	d.ProcessorType = processorType
	d.FlightID = flightID
	d.ErrorDetail = errorDetail
	d.ExtractedData = extractedData
	d.ProcessedAt = time.Now()
	return nil
}

func (r *fakeDumpRepo) ResetProcessingDumps(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.dumps {
		if d.ProcessStatus == entity.StatusProcessing {
			d.ProcessStatus = entity.StatusPending
		}
	}
	return nil
}

type fakeRecordRepo struct {
	mu       sync.Mutex
	full     map[string]*entity.PassengerRecord
	simple   map[string]*entity.SimpleRecord
	versions []*entity.RecordVersion
	missing  map[string]*entity.MissingNumbers
	saveErr  error
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{
		full:    make(map[string]*entity.PassengerRecord),
		simple:  make(map[string]*entity.SimpleRecord),
		missing: make(map[string]*entity.MissingNumbers),
	}
}

func (r *fakeRecordRepo) SaveFull(ctx context.Context, rec *entity.PassengerRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return false, r.saveErr
	}
	key := entity.RecordKey(rec.FlightID, rec.HbnbNumber)
	replaced := false
	if existing, ok := r.full[key]; ok {
		rec.Version = existing.Version
		if existing.RawText != rec.RawText {
			r.versions = append(r.versions, entity.NewRecordVersion(existing, time.Now()))
			rec.Version++
			replaced = true
		}
	} else {
		rec.Version = 1
	}
	copied := *rec
	r.full[key] = &copied
	delete(r.simple, key)
	return replaced, nil
}

func (r *fakeRecordRepo) GetFull(ctx context.Context, flightID string, hbnb int) (*entity.PassengerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.full[entity.RecordKey(flightID, hbnb)]
	if !ok {
		return nil, fmt.Errorf("record: %w", sentinel.ErrNotFound)
	}
	copied := *rec
	return &copied, nil
}

func (r *fakeRecordRepo) ListFull(ctx context.Context, flightID string) ([]*entity.PassengerRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.PassengerRecord
	for _, rec := range r.full {
		if rec.FlightID == flightID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HbnbNumber < out[j].HbnbNumber })
	return out, nil
}

func (r *fakeRecordRepo) ListVersions(ctx context.Context, flightID string, hbnb int) ([]*entity.RecordVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.RecordVersion
	for _, v := range r.versions {
		if v.FlightID == flightID && v.HbnbNumber == hbnb {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *fakeRecordRepo) SaveSimple(ctx context.Context, rec *entity.SimpleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := entity.RecordKey(rec.FlightID, rec.HbnbNumber)
	if _, ok := r.full[key]; ok {
		return fmt.Errorf("full record exists: %w", sentinel.ErrConflict)
	}
	copied := *rec
	r.simple[key] = &copied
	return nil
}

func (r *fakeRecordRepo) DeleteSimple(ctx context.Context, flightID string, hbnb int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := entity.RecordKey(flightID, hbnb)
	if _, ok := r.simple[key]; !ok {
		return fmt.Errorf("simple record: %w", sentinel.ErrNotFound)
	}
	delete(r.simple, key)
	return nil
}

func (r *fakeRecordRepo) ListSimple(ctx context.Context, flightID string) ([]*entity.SimpleRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.SimpleRecord
	for _, rec := range r.simple {
		if rec.FlightID == flightID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HbnbNumber < out[j].HbnbNumber })
	return out, nil
}

func (r *fakeRecordRepo) ObservedNumbers(ctx context.Context, flightID string) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, rec := range r.full {
		if rec.FlightID == flightID {
			out = append(out, rec.HbnbNumber)
		}
	}
	for _, rec := range r.simple {
		if rec.FlightID == flightID {
			out = append(out, rec.HbnbNumber)
		}
	}
	sort.Ints(out)
	return out, nil
}

func (r *fakeRecordRepo) SaveMissing(ctx context.Context, missing *entity.MissingNumbers) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missing[missing.FlightID] = missing
	return nil
}

func (r *fakeRecordRepo) GetMissing(ctx context.Context, flightID string) (*entity.MissingNumbers, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.missing[flightID]
	if !ok {
		return nil, fmt.Errorf("missing: %w", sentinel.ErrNotFound)
	}
	return m, nil
}

type fakeResultRepo struct {
	mu      sync.Mutex
	results map[string]*entity.ValidationResult
	upserts int
}

func newFakeResultRepo() *fakeResultRepo {
	return &fakeResultRepo{results: make(map[string]*entity.ValidationResult)}
}

func (r *fakeResultRepo) Upsert(ctx context.Context, result *entity.ValidationResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *result
	copied.Stale = false
	r.results[entity.RecordKey(result.FlightID, result.HbnbNumber)] = &copied
	r.upserts++
	return nil
}

func (r *fakeResultRepo) Get(ctx context.Context, flightID string, hbnb int) (*entity.ValidationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[entity.RecordKey(flightID, hbnb)]
	if !ok {
		return nil, fmt.Errorf("result: %w", sentinel.ErrNotFound)
	}
	copied := *res
	return &copied, nil
}

func (r *fakeResultRepo) MarkStale(ctx context.Context, flightID string, hbnb int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res, ok := r.results[entity.RecordKey(flightID, hbnb)]; ok {
		res.Stale = true
	}
	return nil
}

func (r *fakeResultRepo) ListByFlight(ctx context.Context, flightID string) ([]*entity.ValidationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ValidationResult
	for _, res := range r.results {
		if res.FlightID == flightID {
			copied := *res
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HbnbNumber < out[j].HbnbNumber })
	return out, nil
}

func (r *fakeResultRepo) ListInvalid(ctx context.Context, flightID string, page, size int) ([]*entity.ValidationResult, int64, error) {
	all, _ := r.ListByFlight(ctx, flightID)
	var invalid []*entity.ValidationResult
	for _, res := range all {
		if res.Outcome != string(hbpr.OutcomeValid) {
			invalid = append(invalid, res)
		}
	}
	total := int64(len(invalid))
	start := (page - 1) * size
	if start >= len(invalid) {
		return nil, total, nil
	}
	end := start + size
	if end > len(invalid) {
		end = len(invalid)
	}
	return invalid[start:end], total, nil
}

type fakeFlightRepo struct {
	mu      sync.Mutex
	flights map[string]*entity.Flight
}

func newFakeFlightRepo() *fakeFlightRepo {
	return &fakeFlightRepo{flights: make(map[string]*entity.Flight)}
}

func (r *fakeFlightRepo) GetByFlightID(ctx context.Context, flightID string) (*entity.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flights[flightID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return f, nil
}

func (r *fakeFlightRepo) Upsert(ctx context.Context, flight *entity.Flight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *flight
	r.flights[flight.FlightID] = &copied
	return nil
}

type fakeCache struct {
	mu          sync.Mutex
	summaries   map[string]*entity.FlightSummary
	invalidated []string
	sets        int
	getErr      error
}

func newFakeCache() *fakeCache {
	return &fakeCache{summaries: make(map[string]*entity.FlightSummary)}
}

func (c *fakeCache) GetSummary(ctx context.Context, flightID string) (*entity.FlightSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	s, ok := c.summaries[flightID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s, nil
}

func (c *fakeCache) SetSummary(ctx context.Context, summary *entity.FlightSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summaries[summary.Stats.FlightID] = summary
	c.sets++
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, flightID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.summaries, flightID)
	c.invalidated = append(c.invalidated, flightID)
	return nil
}

var errBoom = errors.New("boom")
