package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"hbpr-validation-service/pkg/hbpr"
)

// RecordKey is the store key of a record, {flightId}:{hbnb}
func RecordKey(flightID string, hbnb int) string {
	return fmt.Sprintf("%s:%d", flightID, hbnb)
}

// PassengerRecord is the raw text of one full HBPR record of a flight
type PassengerRecord struct {
	Key        string    `bson:"key" json:"-"` // unique index
	FlightID   string    `bson:"flightId" json:"flight_id"`
	HbnbNumber int       `bson:"hbnbNumber" json:"hbnb_number"`
	RawText    string    `bson:"rawText" json:"raw_text"`
	DumpID     string    `bson:"dumpId" json:"dump_id"`
	Version    int       `bson:"version" json:"version"`
	CreatedAt  time.Time `bson:"createdAt" json:"created_at"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updated_at"`
}

// NewPassengerRecord wraps a segmented block for storage
func NewPassengerRecord(flightID, dumpID string, block hbpr.RawRecordBlock) *PassengerRecord {
	return &PassengerRecord{
		Key:        RecordKey(flightID, block.SequenceNumber),
		FlightID:   flightID,
		HbnbNumber: block.SequenceNumber,
		RawText:    block.Text,
		DumpID:     dumpID,
	}
}

// Block turns the stored record back into validator input
func (r *PassengerRecord) Block() hbpr.RawRecordBlock {
	return hbpr.RawRecordBlock{SequenceNumber: r.HbnbNumber, Text: r.RawText}
}

// SimpleRecord is a placeholder: the host printed only a one-line stub
type SimpleRecord struct {
	Key        string    `bson:"key" json:"-"`
	FlightID   string    `bson:"flightId" json:"flight_id"`
	HbnbNumber int       `bson:"hbnbNumber" json:"hbnb_number"`
	RawText    string    `bson:"rawText" json:"raw_text"`
	CreatedAt  time.Time `bson:"createdAt" json:"created_at"`
}

// NewSimpleRecord creates a placeholder record. An empty text gets the
// stub the host would have printed.
func NewSimpleRecord(flightID string, hbnb int, text string) *SimpleRecord {
	if text == "" {
		text = fmt.Sprintf("HBPR *,%d", hbnb)
	}
	return &SimpleRecord{
		Key:        RecordKey(flightID, hbnb),
		FlightID:   flightID,
		HbnbNumber: hbnb,
		RawText:    text,
	}
}

// RecordVersion is the content a full record had before it was replaced
type RecordVersion struct {
	ID         string    `bson:"_id" json:"id"`
	FlightID   string    `bson:"flightId" json:"flight_id"`
	HbnbNumber int       `bson:"hbnbNumber" json:"hbnb_number"`
	Version    int       `bson:"version" json:"version"`
	RawText    string    `bson:"rawText" json:"raw_text"`
	DumpID     string    `bson:"dumpId" json:"dump_id"`
	CreatedAt  time.Time `bson:"createdAt" json:"created_at"`
}

// NewRecordVersion snapshots rec
func NewRecordVersion(rec *PassengerRecord, at time.Time) *RecordVersion {
	return &RecordVersion{
		ID:         uuid.NewString(),
		FlightID:   rec.FlightID,
		HbnbNumber: rec.HbnbNumber,
		Version:    rec.Version,
		RawText:    rec.RawText,
		DumpID:     rec.DumpID,
		CreatedAt:  at,
	}
}

// MissingNumbers is the persisted completeness gap of a flight
type MissingNumbers struct {
	FlightID  string    `bson:"flightId" json:"flight_id"`
	Numbers   []int     `bson:"numbers" json:"numbers"`
	MinHbnb   int       `bson:"minHbnb" json:"min_hbnb"`
	MaxHbnb   int       `bson:"maxHbnb" json:"max_hbnb"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updated_at"`
}

// NewMissingNumbers computes the gap set from every observed number
func NewMissingNumbers(flightID string, observed []int, at time.Time) *MissingNumbers {
	m := &MissingNumbers{
		FlightID:  flightID,
		Numbers:   hbpr.MissingNumbers(observed),
		UpdatedAt: at,
	}
	if m.Numbers == nil {
		m.Numbers = []int{}
	}
	for i, n := range observed {
		if i == 0 || n < m.MinHbnb {
			m.MinHbnb = n
		}
		if i == 0 || n > m.MaxHbnb {
			m.MaxHbnb = n
		}
	}
	return m
}
