package hbpr

import (
	"fmt"
	"strings"
)

// nameSuffixes are honorifics the host appends to booking names
var nameSuffixes = []string{"MR", "MS", "MRS", "MSTR", "PHD", "CHD", "INF", "VIP"}

// NameMatch is the outcome of comparing booking and document names
type NameMatch struct {
	Matched    bool
	Stage      int
	Similarity float64
}

// StripNameSuffix removes one trailing honorific token, if present
func StripNameSuffix(name string) string {
	for _, sfx := range nameSuffixes {
		if name == sfx {
			return ""
		}
		if !strings.HasSuffix(name, sfx) {
			continue
		}
		rest := name[:len(name)-len(sfx)]
		if strings.HasSuffix(rest, " ") || strings.HasSuffix(rest, "/") {
			return strings.TrimRight(rest, " /")
		}
	}
	return name
}

// containmentCount counts token pairs where a short token occurs in a long one
func containmentCount(short, long string) int {
	count := 0
	for _, sh := range strings.Split(short, "/") {
		if sh == "" {
			continue
		}
		for _, lo := range strings.Split(long, "/") {
			if strings.Contains(lo, sh) {
				count++
			}
		}
	}
	return count
}

// MatchNames compares a booking name with a travel-document name. Stage 1
// strips one honorific from each and accepts when more than one token
// containment is found. Stage 2 runs only if stage 1 fails and accepts when
// the normalized Levenshtein similarity exceeds threshold.
func MatchNames(booking, document string, threshold float64) NameMatch {
	short, long := document, booking
	if len(booking) < len(document) {
		short, long = booking, document
	}

	if containmentCount(StripNameSuffix(short), StripNameSuffix(long)) > 1 {
		return NameMatch{Matched: true, Stage: 1, Similarity: 1}
	}

	sim := LevenshteinSimilarity(short, long)
	return NameMatch{Matched: sim > threshold, Stage: 2, Similarity: sim}
}

// NameViolation formats the stage 2 failure message
func NameViolation(hbnb int, similarity float64) string {
	return fmt.Sprintf("HBPR%d,\tThe Booking and Passport names match %.1f%%", hbnb, similarity*100)
}

// LevenshteinDistance is the edit distance between a and b, computed over
// runes with two rolling rows.
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// LevenshteinSimilarity is 1 - distance/max(len). Two empty strings are
// identical.
func LevenshteinSimilarity(a, b string) float64 {
	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(LevenshteinDistance(a, b))/float64(maxLen)
}
