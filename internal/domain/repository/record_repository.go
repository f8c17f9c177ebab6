package repository

import (
	"context"

	"hbpr-validation-service/internal/domain/entity"
)

// RecordRepository stores the raw record text of every flight.
//
// SaveFull replaces an existing record after copying it into the version
// history and removes any simple record with the same number. It reports
// whether an existing record was replaced.
type RecordRepository interface {
	SaveFull(ctx context.Context, rec *entity.PassengerRecord) (bool, error)
	GetFull(ctx context.Context, flightID string, hbnb int) (*entity.PassengerRecord, error)
	ListFull(ctx context.Context, flightID string) ([]*entity.PassengerRecord, error)
	ListVersions(ctx context.Context, flightID string, hbnb int) ([]*entity.RecordVersion, error)

	SaveSimple(ctx context.Context, rec *entity.SimpleRecord) error
	DeleteSimple(ctx context.Context, flightID string, hbnb int) error
	ListSimple(ctx context.Context, flightID string) ([]*entity.SimpleRecord, error)

	ObservedNumbers(ctx context.Context, flightID string) ([]int, error)
	SaveMissing(ctx context.Context, missing *entity.MissingNumbers) error
	GetMissing(ctx context.Context, flightID string) (*entity.MissingNumbers, error)
}
