package hbpr

import (
	"fmt"
	"strings"
	"time"
)

// paxRecord builds a host record laid out the way the check-in host prints
// it: the class letter lands on column 40 of the name row.
type paxRecord struct {
	seq    int
	name   string
	bn     int
	seat   string
	class  string
	dest   string
	extras []string
	body   []string
}

func (p paxRecord) header() string {
	return fmt.Sprintf(">HBPR: CA984/25JUL25*LAX,%d", p.seq)
}

func (p paxRecord) nameRow() string {
	left := fmt.Sprintf("  1. %-20s", p.name)
	if p.bn > 0 {
		left += fmt.Sprintf("BN%03d  ", p.bn)
	}
	left += p.seat
	row := fmt.Sprintf("%-40s%s  %s", left, p.class, p.dest)
	if len(p.extras) > 0 {
		row += "  " + strings.Join(p.extras, "  ")
	}
	return row
}

func (p paxRecord) text() string {
	lines := append([]string{p.header(), p.nameRow()}, p.body...)
	return strings.Join(lines, "\n")
}

func (p paxRecord) block() RawRecordBlock {
	return RawRecordBlock{SequenceNumber: p.seq, Text: p.text()}
}

// zhangWei is an accepted home-nationality passenger with two bags
// inside a two-piece economy allowance
func zhangWei() paxRecord {
	return paxRecord{
		seq:    1,
		name:   "ZHANG/WEI MR",
		bn:     12,
		seat:   "14H",
		class:  "Y",
		dest:   "PEK",
		extras: []string{"FBA/2PC", "ET", "R/EXST", "BAG2"},
		body: []string{
			"    PNR RL MXYZ12",
			"    BAG2/46/1 CA123456 PEK",
			"    PAXLST :ZHANG/WEI",
			"    PASSPORT :P/E12345678/CHN/CHN/850101/300101/M",
		},
	}
}

func fixedClock(year int, month time.Month, day int) Clock {
	return func() time.Time {
		return time.Date(year, month, day, 10, 0, 0, 0, time.UTC)
	}
}
