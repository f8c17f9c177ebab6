package hbpr

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"hbpr-validation-service/pkg/logger"
)

// UnknownFlightID identifies dumps that carry placeholder records only
const UnknownFlightID = "UNKNOWN_FLIGHT"

var (
	headerStartRe   = regexp.MustCompile(`^>\s?HBPR:`)
	headerRe        = regexp.MustCompile(`^>\s?HBPR:\s*([^,]+),\s*(\d+)`)
	placeholderRe   = regexp.MustCompile(`(?i)^>?\s*hbpr\s*[^,:]*,\s*(\d+)\s*$`)
	controlHeaderRe = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]HBPR:`)
	delHeaderRe     = regexp.MustCompile(`(?i)del\s?HBPR:`)
	bareHeaderRe    = regexp.MustCompile(`(?m)^([ \t]*)HBPR:`)
	controlCharsRe  = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	flightTokenRe   = regexp.MustCompile(`^([A-Z0-9]{2}\d{1,4}[A-Z]?)(?:/(\w+))?(?:\*([A-Z]{3}))?`)
)

// FlightRef identifies the flight a dump belongs to
type FlightRef struct {
	FlightNumber string `json:"flight_number"`
	FlightDate   string `json:"flight_date"`
	Origin       string `json:"origin"`
}

// ID is the flight key used by the record store, e.g. CA984_25JUL25_LAX
func (f FlightRef) ID() string {
	if f.FlightNumber == "" {
		return UnknownFlightID
	}
	parts := []string{f.FlightNumber}
	if f.FlightDate != "" {
		parts = append(parts, f.FlightDate)
	}
	if f.Origin != "" {
		parts = append(parts, f.Origin)
	}
	return strings.Join(parts, "_")
}

// IsZero reports whether no flight was identified
func (f FlightRef) IsZero() bool {
	return f.FlightNumber == ""
}

// ParseFlightRef parses a header flight token like "CA984/25JUL25*LAX"
func ParseFlightRef(token string) FlightRef {
	token = strings.TrimSpace(token)
	m := flightTokenRe.FindStringSubmatch(token)
	if m == nil {
		return FlightRef{FlightNumber: token}
	}
	return FlightRef{FlightNumber: m[1], FlightDate: m[2], Origin: m[3]}
}

// Diagnostic is a non-fatal segmentation problem tied to a dump line
type Diagnostic struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s", d.Line, d.Message)
}

// Segmentation is the outcome of cutting one dump into record blocks
type Segmentation struct {
	Flight       FlightRef        `json:"flight"`
	Blocks       []RawRecordBlock `json:"blocks"`
	Placeholders []RawRecordBlock `json:"placeholders"`
	Missing      []int            `json:"missing"`
	Diagnostics  []Diagnostic     `json:"diagnostics"`
}

// Observed returns every sequence number seen, full or placeholder, sorted
func (s Segmentation) Observed() []int {
	seen := make(map[int]struct{}, len(s.Blocks)+len(s.Placeholders))
	for _, b := range s.Blocks {
		seen[b.SequenceNumber] = struct{}{}
	}
	for _, p := range s.Placeholders {
		seen[p.SequenceNumber] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// Segmenter splits host dumps into RawRecordBlocks
type Segmenter struct {
	logger logger.Logger
}

// NewSegmenter creates a new segmenter
func NewSegmenter(logger logger.Logger) *Segmenter {
	return &Segmenter{logger: logger}
}

// Normalize repairs the transport damage commonly found in captured dumps:
// invalid UTF-8 is dropped, line endings become LF, a control byte or a
// literal "del" in front of HBPR: becomes '>', a header missing its prefix
// gets one, and remaining control characters become spaces.
func Normalize(dump string) string {
	text := strings.ToValidUTF8(dump, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = controlHeaderRe.ReplaceAllString(text, ">HBPR:")
	text = delHeaderRe.ReplaceAllString(text, ">HBPR:")
	text = bareHeaderRe.ReplaceAllString(text, "${1}>HBPR:")
	return controlCharsRe.ReplaceAllString(text, " ")
}

// StripPageBreak removes trailing blanks and the teleprinter page-break
// marker '+' that the host prints at the right margin.
func StripPageBreak(line string) string {
	line = strings.TrimRight(line, " \t")
	return strings.TrimRight(line, "+")
}

// ContainsRecords reports whether a dump holds at least one HBPR header or
// placeholder stub
func ContainsRecords(dump string) bool {
	for _, line := range strings.Split(Normalize(dump), "\n") {
		trimmed := strings.TrimSpace(line)
		if headerStartRe.MatchString(trimmed) || placeholderRe.MatchString(trimmed) {
			return true
		}
	}
	return false
}

type openBlock struct {
	seq   int
	lines []string
}

// Segment cuts a dump into blocks. Blocks sharing a sequence number are
// merged in arrival order with the repeated header dropped. Placeholder
// stubs never open or close a block.
func (s *Segmenter) Segment(dump string) Segmentation {
	var (
		result       Segmentation
		order        []int
		blocks       = make(map[int]*openBlock)
		placeholders = make(map[int]string)
		current      *openBlock
	)

	lines := strings.Split(Normalize(dump), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := StripPageBreak(raw)
		trimmed := strings.TrimSpace(line)

		switch {
		case headerStartRe.MatchString(trimmed):
			current = nil
			m := headerRe.FindStringSubmatch(trimmed)
			if m == nil {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{Line: lineNo, Message: "header without a sequence number dropped"})
				s.logger.Warn("Dropping header without sequence number", "line", lineNo)
				continue
			}
			seq, err := strconv.Atoi(m[2])
			if err != nil {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{Line: lineNo, Message: "unparsable sequence number " + m[2]})
				s.logger.Warn("Dropping header with unparsable sequence number", "line", lineNo, "value", m[2])
				continue
			}

			flight := ParseFlightRef(m[1])
			if result.Flight.IsZero() {
				result.Flight = flight
			} else if flight.ID() != result.Flight.ID() {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{
					Line:    lineNo,
					Message: fmt.Sprintf("record %d belongs to %s, dump is %s", seq, flight.ID(), result.Flight.ID()),
				})
				s.logger.Warn("Dropping record of another flight", "line", lineNo, "hbnb", seq, "flight", flight.ID())
				continue
			}

			if b, ok := blocks[seq]; ok {
				current = b
				s.logger.Debug("Merging continuation transmission", "hbnb", seq, "line", lineNo)
				continue
			}
			current = &openBlock{seq: seq, lines: []string{line}}
			blocks[seq] = current
			order = append(order, seq)

		case placeholderRe.MatchString(trimmed):
			m := placeholderRe.FindStringSubmatch(trimmed)
			seq, err := strconv.Atoi(m[1])
			if err != nil {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{Line: lineNo, Message: "unparsable placeholder " + trimmed})
				continue
			}
			placeholders[seq] = trimmed

		case strings.HasPrefix(trimmed, ">"):
			// another host command closes the open record
			current = nil

		default:
			if current != nil {
				current.lines = append(current.lines, line)
			}
		}
	}

	for _, seq := range order {
		b := blocks[seq]
		result.Blocks = append(result.Blocks, RawRecordBlock{
			SequenceNumber: seq,
			Text:           strings.Join(b.lines, "\n"),
		})
	}

	placeholderSeqs := make([]int, 0, len(placeholders))
	for seq := range placeholders {
		if _, full := blocks[seq]; full {
			continue
		}
		placeholderSeqs = append(placeholderSeqs, seq)
	}
	sort.Ints(placeholderSeqs)
	for _, seq := range placeholderSeqs {
		result.Placeholders = append(result.Placeholders, RawRecordBlock{
			SequenceNumber: seq,
			Text:           placeholders[seq],
			IsPlaceholder:  true,
		})
	}

	result.Missing = MissingNumbers(result.Observed())

	s.logger.Info("Segmented dump",
		"flight", result.Flight.ID(),
		"full", len(result.Blocks),
		"placeholders", len(result.Placeholders),
		"missing", len(result.Missing),
		"diagnostics", len(result.Diagnostics))

	return result
}

// MissingNumbers returns {min..max} minus observed, ascending
func MissingNumbers(observed []int) []int {
	if len(observed) == 0 {
		return nil
	}
	seen := make(map[int]struct{}, len(observed))
	lo, hi := observed[0], observed[0]
	for _, n := range observed {
		seen[n] = struct{}{}
		if n < lo {
			lo = n
		}
		if n > hi {
			hi = n
		}
	}
	var missing []int
	for n := lo; n <= hi; n++ {
		if _, ok := seen[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}
