package entity

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"hbpr-validation-service/pkg/hbpr"
)

// CabinClass maps a booking sub-class to its cabin family
type CabinClass struct {
	ID          uint
	SubClass    string
	Family      string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt
}

// CabinTable builds the resolver lookup from master rows. Rows with an
// unknown family are ignored.
func CabinTable(classes []*CabinClass) hbpr.CabinTable {
	table := make(hbpr.CabinTable, len(classes))
	for _, c := range classes {
		family := hbpr.CabinFamily(strings.ToUpper(strings.TrimSpace(c.Family)))
		switch family {
		case hbpr.CabinPremium, hbpr.CabinEconomy, hbpr.CabinOther:
			table[strings.ToUpper(strings.TrimSpace(c.SubClass))] = family
		}
	}
	return table
}
