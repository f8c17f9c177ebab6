package repository

import (
	"context"

	"hbpr-validation-service/internal/domain/entity"
)

// FlightRepository defines the interface for flight master operations
type FlightRepository interface {
	GetByFlightID(ctx context.Context, flightID string) (*entity.Flight, error)
	Upsert(ctx context.Context, flight *entity.Flight) error
}
