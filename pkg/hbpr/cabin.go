package hbpr

import "strings"

// CabinTable maps booking sub-class letters to cabin families
type CabinTable map[string]CabinFamily

const (
	premiumSubClasses = "FAOJCDRZI"
	economySubClasses = "YBMEHKLQGSNVUTWX"
)

// DefaultCabinTable is the lookup used when no master table is configured
func DefaultCabinTable() CabinTable {
	t := make(CabinTable, len(premiumSubClasses)+len(economySubClasses))
	for _, c := range premiumSubClasses {
		t[string(c)] = CabinPremium
	}
	for _, c := range economySubClasses {
		t[string(c)] = CabinEconomy
	}
	return t
}

// Resolve maps a sub-class letter to its family. Unknown letters resolve
// to CabinOther.
func (t CabinTable) Resolve(subClass string) CabinFamily {
	if family, ok := t[strings.ToUpper(strings.TrimSpace(subClass))]; ok {
		return family
	}
	return CabinOther
}

// Rules carries every tunable of the entitlement engine and the checks
type Rules struct {
	CarrierCode       string
	HomeNationalities []string
	Cabins            CabinTable

	PremiumPieceWeight int
	EconomyPieceWeight int
	InfantWeight       int
	ForeignGoldWeight  int

	NameMatchThreshold float64
	ClassMinOffset     int
}

// DefaultRules returns the values used by the carrier's ground handling
func DefaultRules() Rules {
	return Rules{
		CarrierCode:        "CA",
		HomeNationalities:  []string{"CHN", "CN"},
		Cabins:             DefaultCabinTable(),
		PremiumPieceWeight: 32,
		EconomyPieceWeight: 23,
		InfantWeight:       23,
		ForeignGoldWeight:  23,
		NameMatchThreshold: 0.95,
		ClassMinOffset:     38,
	}
}

// WeightPerPiece is the per-piece weight limit for a cabin family.
// Other is weighed like Economy.
func (r Rules) WeightPerPiece(c CabinFamily) int {
	if c == CabinPremium {
		return r.PremiumPieceWeight
	}
	return r.EconomyPieceWeight
}

// ResolveCabin resolves a sub-class letter with the configured table
func (r Rules) ResolveCabin(subClass string) CabinFamily {
	if r.Cabins == nil {
		return DefaultCabinTable().Resolve(subClass)
	}
	return r.Cabins.Resolve(subClass)
}

// HomeNationality reports whether nat needs no visa
func (r Rules) HomeNationality(nat string) bool {
	for _, h := range r.HomeNationalities {
		if strings.EqualFold(h, nat) {
			return true
		}
	}
	return false
}
