package repository

import (
	"context"

	"hbpr-validation-service/internal/domain/entity"
)

// ResultRepository stores flattened validation results
type ResultRepository interface {
	Upsert(ctx context.Context, result *entity.ValidationResult) error
	Get(ctx context.Context, flightID string, hbnb int) (*entity.ValidationResult, error)
	MarkStale(ctx context.Context, flightID string, hbnb int) error
	ListByFlight(ctx context.Context, flightID string) ([]*entity.ValidationResult, error)
	ListInvalid(ctx context.Context, flightID string, page, size int) ([]*entity.ValidationResult, int64, error)
}
