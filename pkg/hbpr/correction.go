package hbpr

import (
	"errors"
	"regexp"
)

// ErrNotCorrection is returned when a text holds no correction command header
var ErrNotCorrection = errors.New("no correction command header found")

// A correction command header looks like "PR: CA984/25JUL25*LAX,12PD  ...".
var correctionHeaderRe = regexp.MustCompile(`(?m)^([ \t]*)>?PR:([ \t]*[^,\n]+),(\d{1,3})PD(\s)`)

// IsCorrectionCommand reports whether text carries at least one PR header
func IsCorrectionCommand(text string) bool {
	return correctionHeaderRe.MatchString(Normalize(text))
}

// TranslateCorrection rewrites correction command headers into primary
// HBPR headers. "PR:" becomes ">HBPR:" and the "PD" suffix becomes two
// spaces, so every column after the sequence comma keeps its distance from
// that comma and positional extraction behaves as for an HBPR record.
func TranslateCorrection(text string) (string, error) {
	normalized := Normalize(text)
	if !correctionHeaderRe.MatchString(normalized) {
		return "", ErrNotCorrection
	}
	return correctionHeaderRe.ReplaceAllString(normalized, "${1}>HBPR:${2},${3}  ${4}"), nil
}
