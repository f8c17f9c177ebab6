package hbpr

import (
	"regexp"
	"strconv"
	"strings"
)

// Match is one pattern hit located in a text. Start and End are byte
// offsets into the searched text, Groups holds the capture groups.
type Match struct {
	Start  int
	End    int
	Groups []string
}

// Group returns capture group i or an empty string
func (m Match) Group(i int) string {
	if i < 0 || i >= len(m.Groups) {
		return ""
	}
	return m.Groups[i]
}

// Find returns the offset of the first occurrence of pattern at or after
// start, or -1.
func Find(text, pattern string, start int) int {
	if start < 0 {
		start = 0
	}
	if start > len(text) {
		return -1
	}
	idx := strings.Index(text[start:], pattern)
	if idx < 0 {
		return -1
	}
	return start + idx
}

// FindPattern returns the first match of re at or after start
func FindPattern(re *regexp.Regexp, text string, start int) (Match, bool) {
	if start < 0 {
		start = 0
	}
	if start > len(text) {
		return Match{}, false
	}
	loc := re.FindStringSubmatchIndex(text[start:])
	if loc == nil {
		return Match{}, false
	}
	return toMatch(text, loc, start), true
}

// FindAllPattern returns every non-overlapping match of re in text
func FindAllPattern(re *regexp.Regexp, text string) []Match {
	locs := re.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	out := make([]Match, 0, len(locs))
	for _, loc := range locs {
		out = append(out, toMatch(text, loc, 0))
	}
	return out
}

func toMatch(text string, loc []int, offset int) Match {
	m := Match{Start: loc[0] + offset, End: loc[1] + offset}
	m.Groups = make([]string, len(loc)/2)
	for i := 0; i < len(loc)/2; i++ {
		if loc[2*i] < 0 {
			continue
		}
		m.Groups[i] = text[loc[2*i]+offset : loc[2*i+1]+offset]
	}
	return m
}

// Slice returns text[from:to] clamped to the text bounds
func Slice(text string, from, to int) string {
	if from < 0 {
		from = 0
	}
	if to > len(text) {
		to = len(text)
	}
	if from >= to {
		return ""
	}
	return text[from:to]
}

// LineAt returns the line that contains offset, without its newline
func LineAt(text string, offset int) string {
	if offset < 0 || offset > len(text) {
		return ""
	}
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	end := Find(text, "\n", offset)
	if end < 0 {
		end = len(text)
	}
	return text[start:end]
}

// ParseInt converts s to an int, returning 0 when s is not a number
func ParseInt(s string) int {
	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}
