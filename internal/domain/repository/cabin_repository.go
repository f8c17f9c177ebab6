package repository

import (
	"context"

	"hbpr-validation-service/internal/domain/entity"
)

// CabinClassRepository defines the interface for the cabin class master table
type CabinClassRepository interface {
	ListAll(ctx context.Context) ([]*entity.CabinClass, error)
	GetBySubClass(ctx context.Context, subClass string) (*entity.CabinClass, error)
}
