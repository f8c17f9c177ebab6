package hbpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCabinTableResolve(t *testing.T) {
	table := DefaultCabinTable()

	tests := []struct {
		subClass string
		want     CabinFamily
	}{
		{"F", CabinPremium},
		{"J", CabinPremium},
		{"i", CabinPremium},
		{"Y", CabinEconomy},
		{" K ", CabinEconomy},
		{"P", CabinOther},
		{"", CabinOther},
	}

	for _, tt := range tests {
		t.Run(tt.subClass, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Resolve(tt.subClass))
		})
	}
}

func TestRulesWeightPerPiece(t *testing.T) {
	r := DefaultRules()
	assert.Equal(t, 32, r.WeightPerPiece(CabinPremium))
	assert.Equal(t, 23, r.WeightPerPiece(CabinEconomy))
	assert.Equal(t, 23, r.WeightPerPiece(CabinOther))
}

func TestRulesResolveCabinWithoutTable(t *testing.T) {
	r := DefaultRules()
	r.Cabins = nil
	assert.Equal(t, CabinPremium, r.ResolveCabin("C"))

	r.Cabins = CabinTable{"P": CabinPremium}
	assert.Equal(t, CabinPremium, r.ResolveCabin("P"))
	assert.Equal(t, CabinOther, r.ResolveCabin("Y"))
}

func TestRulesHomeNationality(t *testing.T) {
	r := DefaultRules()
	assert.True(t, r.HomeNationality("CHN"))
	assert.True(t, r.HomeNationality("cn"))
	assert.False(t, r.HomeNationality("USA"))
}
