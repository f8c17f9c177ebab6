package repository

import (
	"context"
	"time"

	"hbpr-validation-service/internal/domain/entity"
)

// DumpRepository defines the interface for dump storage operations
type DumpRepository interface {
	Save(ctx context.Context, dump *entity.Dump) error
	FindByID(ctx context.Context, id string) (*entity.Dump, error)
	FindUnprocessed(ctx context.Context, limit int) ([]*entity.Dump, error)
	UpdateStatus(ctx context.Context, id string, status string, startedAt time.Time) error
	UpdateProcessSteps(ctx context.Context, id string, steps entity.ProcessSteps) error
	MarkAsProcessed(ctx context.Context, id, status, processorType, flightID, errorDetail string, extractedData map[string]interface{}) error
	ResetProcessingDumps(ctx context.Context) error
}
