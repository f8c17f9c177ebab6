package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/domain/repository"
	"hbpr-validation-service/pkg/sentinel"
)

// GormFlightRepository implements the FlightRepository interface
type GormFlightRepository struct {
	db *gorm.DB
}

// NewGormFlightRepository creates a new GORM flight repository
func NewGormFlightRepository(db *gorm.DB) repository.FlightRepository {
	return &GormFlightRepository{
		db: db,
	}
}

// Flights GORM model for database mapping
type Flights struct {
	ID           uint           `gorm:"primaryKey"`
	FlightID     string         `gorm:"column:flight_id;uniqueIndex"`
	FlightNumber string         `gorm:"column:flight_number;index"`
	FlightDate   string         `gorm:"column:flight_date"`
	Origin       string         `gorm:"column:origin"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName overrides the default table name
func (Flights) TableName() string {
	return "m_flights"
}

// GetByFlightID finds a flight by its id
func (r *GormFlightRepository) GetByFlightID(ctx context.Context, flightID string) (*entity.Flight, error) {
	var flight Flights
	result := r.db.WithContext(ctx).Where("flight_id = ?", flightID).First(&flight)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("flight %s: %w", flightID, sentinel.ErrNotFound)
		}
		return nil, result.Error
	}

	return toFlightEntity(flight), nil
}

// Upsert creates the flight or refreshes its descriptive columns
func (r *GormFlightRepository) Upsert(ctx context.Context, flight *entity.Flight) error {
	model := Flights{
		FlightID:     flight.FlightID,
		FlightNumber: flight.FlightNumber,
		FlightDate:   flight.FlightDate,
		Origin:       flight.Origin,
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "flight_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"flight_number", "flight_date", "origin", "updated_at"}),
	}).Create(&model)
	if result.Error != nil {
		return fmt.Errorf("failed to upsert flight %s: %w", flight.FlightID, result.Error)
	}

	flight.ID = model.ID
	return nil
}

func toFlightEntity(f Flights) *entity.Flight {
	return &entity.Flight{
		ID:           f.ID,
		FlightID:     f.FlightID,
		FlightNumber: f.FlightNumber,
		FlightDate:   f.FlightDate,
		Origin:       f.Origin,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
		DeletedAt:    f.DeletedAt,
	}
}
