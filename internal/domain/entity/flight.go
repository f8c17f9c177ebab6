package entity

import (
	"time"

	"gorm.io/gorm"
)

// Flight is a flight known to the service, keyed by its flight id
type Flight struct {
	ID           uint
	FlightID     string
	FlightNumber string
	FlightDate   string
	Origin       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt
}
