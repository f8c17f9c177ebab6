package repository

import (
	"context"

	"hbpr-validation-service/internal/domain/entity"
)

// ReportCache keeps computed flight summaries between ingestions
type ReportCache interface {
	GetSummary(ctx context.Context, flightID string) (*entity.FlightSummary, error)
	SetSummary(ctx context.Context, summary *entity.FlightSummary) error
	Invalidate(ctx context.Context, flightID string) error
}
