package hbpr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripNameSuffix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ZHANG/WEI MR", "ZHANG/WEI"},
		{"ZHANG/WEI/MRS", "ZHANG/WEI"},
		{"SMITH/JOHN MSTR", "SMITH/JOHN"},
		{"ADAMS/JIMS", "ADAMS/JIMS"},
		{"ZHANG/WEIMR", "ZHANG/WEIMR"},
		{"MR", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripNameSuffix(tt.in))
		})
	}
}

func TestMatchNames(t *testing.T) {
	tests := []struct {
		name     string
		booking  string
		document string
		matched  bool
		stage    int
	}{
		{"honorific only", "ZHANG/WEI MR", "ZHANG/WEI", true, 1},
		{"document longer", "LI/NA", "LI/NA MS", true, 1},
		{"one letter typo", "JON SMITH", "JOHN SMITH", false, 2},
		{"close enough", "WANG/XIAOMINGZHANGSAN", "WANG/XIAOMINGZHANGSAM", true, 2},
		{"different", "LI/NA", "ZHAO/LEI", false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MatchNames(tt.booking, tt.document, 0.95)
			assert.Equal(t, tt.matched, m.Matched)
			assert.Equal(t, tt.stage, m.Stage)
		})
	}
}

func TestNameViolationMessage(t *testing.T) {
	m := MatchNames("JON SMITH", "JOHN SMITH", 0.95)
	assert.InDelta(t, 0.9, m.Similarity, 1e-9)
	assert.Equal(t, "HBPR3,\tThe Booking and Passport names match 90.0%", NameViolation(3, m.Similarity))
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "ab", 2},
		{"kitten", "sitting", 3},
		{"flaw", "lawn", 2},
		{"ZHANG", "ZHANG", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, LevenshteinDistance(tt.a, tt.b))
			assert.Equal(t, tt.want, LevenshteinDistance(tt.b, tt.a))
		})
	}

	assert.Equal(t, 1.0, LevenshteinSimilarity("", ""))
	assert.Equal(t, 0.0, LevenshteinSimilarity("abc", "xyz"))
}
