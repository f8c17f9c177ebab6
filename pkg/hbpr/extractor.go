package hbpr

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"hbpr-validation-service/pkg/logger"
)

var (
	nameRe          = regexp.MustCompile(`(\d\.\s)([A-Z/+\s]{3,17})`)
	boardingRe      = regexp.MustCompile(`BN(\d{3})`)
	seatRe          = regexp.MustCompile(`\s+\*?(\d{1,2}[A-Z])\s+`)
	classRe         = regexp.MustCompile(`([A-Z])\s+`)
	destinationRe   = regexp.MustCompile(`([A-Z]{3})`)
	pnrRe           = regexp.MustCompile(`PNR\s+RL\s+([A-Z0-9]+)`)
	paxlstRe        = regexp.MustCompile(`PAXLST\s*:([A-Z/]+)`)
	checkedBagRe    = regexp.MustCompile(`BAG(\d{1,2})/(\d{1,3})/\d+\s`)
	expcRe          = regexp.MustCompile(`EXPC-\s`)
	expcWeightRe    = regexp.MustCompile(`/(\d{1,2})KG-`)
	asvcRe          = regexp.MustCompile(`ASVC-[^\n]*`)
	asvcBaggageRe   = regexp.MustCompile(`/PDBG/(\d+)PC`)
	fbaRe           = regexp.MustCompile(`\sFBA/(\d)PC`)
	ifbaRe          = regexp.MustCompile(`\sIFBA/\dPC`)
	staffTicketRe   = regexp.MustCompile(`\sPAD-SA\s`)
	frequentFlyerRe = regexp.MustCompile(`FF/([A-Z]{2}\s[A-Z0-9]+/[A-Z](?:/\*[GS])?)`)
	ckinRe          = regexp.MustCompile(`CKIN\s+[^\n]*`)
	inboundRe       = regexp.MustCompile(`\s(I/[A-Z]{2}\d+/\d{2}[A-Z]{3})\s`)
	outboundRe      = regexp.MustCompile(`\s(O/[A-Z]{2}\d+/\d{2}[A-Z]{3})\s`)
	recordHeaderRe  = regexp.MustCompile(`>\s?HBPR:\s*([^,\n]+),`)
)

const (
	passportMarker = "PASSPORT :"
	visaInfoMarker = "VISA INFO:"
	ckinVisaMarker = "CKIN VISA"
	propertyColumn = 40
	stationOffset  = 37
	staffAllowance = 2
)

// NameField is the passenger name and the name row it was found on. Row
// starts at the item-number marker; offsets of the later row rules are
// relative to it.
type NameField struct {
	Name string
	Row  string
}

// LocateName finds the passenger name token near the leading item number
func LocateName(text string, start int) (NameField, int, bool) {
	m, ok := FindPattern(nameRe, text, start)
	if !ok {
		return NameField{}, start, false
	}
	rowEnd := Find(text, "\n", m.End)
	if rowEnd < 0 {
		rowEnd = len(text)
	}
	return NameField{
		Name: strings.TrimSpace(m.Group(2)),
		Row:  Slice(text, m.Start, rowEnd),
	}, m.End, true
}

// LocateBoardingNumber finds the BNnnn token on the name row
func LocateBoardingNumber(row string, start int) (int, int, bool) {
	m, ok := FindPattern(boardingRe, row, start)
	if !ok {
		return 0, start, false
	}
	return ParseInt(m.Group(1)), m.End, true
}

// LocateSeat finds a seat such as 14H or *13D after start
func LocateSeat(row string, start int) (string, int, bool) {
	m, ok := FindPattern(seatRe, row, start)
	if !ok {
		return "", start, false
	}
	return m.Group(1), m.End, true
}

// LocateClass finds the booking sub-class letter. The letter sits in the
// right half of the row, so the search never starts before minOffset.
func LocateClass(row string, start, minOffset int) (string, int, bool) {
	if start < minOffset {
		start = minOffset
	}
	m, ok := FindPattern(classRe, row, start)
	if !ok {
		return "", start, false
	}
	return m.Group(1), m.End, true
}

// LocateDestination finds the 3-letter station following the class letter
func LocateDestination(row string, start int) (string, int, bool) {
	m, ok := FindPattern(destinationRe, row, start)
	if !ok {
		return "", start, false
	}
	return m.Group(1), m.End, true
}

// ExtractPNR returns the booking reference
func ExtractPNR(text string) (string, bool) {
	m, ok := FindPattern(pnrRe, text, 0)
	if !ok {
		return "", false
	}
	return m.Group(1), true
}

// ExtractPassportName returns the travel-document name of the PAXLST line
func ExtractPassportName(text string) (string, bool) {
	m, ok := FindPattern(paxlstRe, text, 0)
	if !ok {
		return "", false
	}
	name := strings.TrimRight(strings.TrimSpace(m.Group(1)), "/")
	return name, name != ""
}

// ExtractCheckedBags returns the checked pieces and total weight
func ExtractCheckedBags(text string) (pieces, weight int, ok bool) {
	m, ok := FindPattern(checkedBagRe, text, 0)
	if !ok {
		return 0, 0, false
	}
	return ParseInt(m.Group(1)), ParseInt(m.Group(2)), true
}

// ExtractExcess reads the EXPC statement. Pieces is the digit right after
// the marker; weight is the sum of every nn KG line item that follows.
func ExtractExcess(text string) (*ExcessBaggage, bool) {
	m, ok := FindPattern(expcRe, text, 0)
	if !ok {
		return nil, false
	}
	excess := &ExcessBaggage{}
	if m.End < len(text) && text[m.End] >= '0' && text[m.End] <= '9' {
		excess.Pieces = int(text[m.End] - '0')
	}
	pos := m.Start
	for {
		w, found := FindPattern(expcWeightRe, text, pos)
		if !found {
			break
		}
		excess.Weight += ParseInt(w.Group(1))
		pos = w.End
	}
	return excess, true
}

// ExtractAncillary returns every ASVC line and the baggage pieces they
// grant. Only items tagged /PDBG/ are prepaid baggage.
func ExtractAncillary(text string) (lines []string, pieces int) {
	for _, m := range FindAllPattern(asvcRe, text) {
		line := strings.TrimSpace(m.Group(0))
		lines = append(lines, line)
		for _, pc := range FindAllPattern(asvcBaggageRe, line) {
			pieces += ParseInt(pc.Group(1))
		}
	}
	return lines, pieces
}

// Allowance is the regular checked-baggage allowance statement
type Allowance struct {
	AdultPieces int
	Infant      bool
	Staff       bool
}

// ExtractAllowance reads FBA/IFBA. Staff tickets (PAD-SA) always get the
// default two pieces.
func ExtractAllowance(text string) Allowance {
	var a Allowance
	if m, ok := FindPattern(fbaRe, text, 0); ok {
		a.AdultPieces = ParseInt(m.Group(1))
	}
	if _, ok := FindPattern(ifbaRe, text, 0); ok {
		a.Infant = true
	}
	if _, ok := FindPattern(staffTicketRe, text, 0); ok {
		a.Staff = true
		a.AdultPieces = staffAllowance
	}
	return a
}

// FlyerBenefit is what a frequent-flyer token grants
type FlyerBenefit struct {
	Token        string
	CarrierFlyer bool
	BonusPieces  int
}

// ExtractFlyer reads the FF token. Gold (/*G) grants a bonus piece to any
// member; silver (/*S) only to members of the operating carrier.
func ExtractFlyer(text, carrierCode string) (FlyerBenefit, bool) {
	m, ok := FindPattern(frequentFlyerRe, text, 0)
	if !ok {
		return FlyerBenefit{}, false
	}
	fb := FlyerBenefit{Token: m.Group(1)}
	fb.CarrierFlyer = carrierCode != "" && strings.HasPrefix(fb.Token, carrierCode)
	switch {
	case strings.Contains(m.Group(0), "/*G"):
		fb.BonusPieces = 1
	case strings.Contains(m.Group(0), "/*S") && fb.CarrierFlyer:
		fb.BonusPieces = 1
	}
	return fb, true
}

// ExtractCheckIn returns every CKIN line and the first one mentioning EXBG
func ExtractCheckIn(text string) (lines []string, exbg string) {
	for _, m := range FindAllPattern(ckinRe, text) {
		line := strings.TrimSpace(m.Group(0))
		lines = append(lines, line)
		if exbg == "" && strings.Contains(line, "EXBG") {
			exbg = line
		}
	}
	return lines, exbg
}

// PassportDoc is the slash-delimited travel-document line
type PassportDoc struct {
	Parts       []string
	Nationality string
	Expiry      time.Time
	HasExpiry   bool
}

// ExtractPassport reads the PASSPORT line. Fewer than six parts means no
// expiry is available, which is not an error.
func ExtractPassport(text string) (PassportDoc, bool) {
	idx := Find(text, passportMarker, 0)
	if idx < 0 {
		return PassportDoc{}, false
	}
	start := idx + len(passportMarker)
	end := Find(text, " ", start)
	if nl := Find(text, "\n", start); nl >= 0 && (end < 0 || nl < end) {
		end = nl
	}
	if end < 0 {
		end = len(text)
	}
	doc := PassportDoc{Parts: strings.Split(Slice(text, start, end), "/")}
	if len(doc.Parts) >= 4 {
		doc.Nationality = strings.TrimSpace(doc.Parts[3])
	}
	if len(doc.Parts) >= 6 {
		if exp, err := time.Parse("060102", strings.TrimSpace(doc.Parts[5])); err == nil {
			doc.Expiry = exp
			doc.HasExpiry = true
		}
	}
	return doc, true
}

// HasVisaInformation reports whether a visa or check-in visa marker is present
func HasVisaInformation(text string) bool {
	return Find(text, visaInfoMarker, 0) >= 0 || Find(text, ckinVisaMarker, 0) >= 0
}

// ConnectingLeg is an inbound or outbound flight with its station
type ConnectingLeg struct {
	Flight  string
	Station string
}

// ExtractConnections returns the inbound and outbound legs, each optional
func ExtractConnections(text string) (inbound, outbound ConnectingLeg) {
	if m, ok := FindPattern(inboundRe, text, 0); ok {
		inbound = ConnectingLeg{
			Flight:  strings.TrimPrefix(m.Group(1), "I/"),
			Station: strings.TrimSpace(Slice(text, m.Start+stationOffset, m.Start+stationOffset+3)),
		}
	}
	if m, ok := FindPattern(outboundRe, text, 0); ok {
		outbound = ConnectingLeg{
			Flight:  strings.TrimPrefix(m.Group(1), "O/"),
			Station: strings.TrimSpace(Slice(text, m.Start+stationOffset, m.Start+stationOffset+3)),
		}
	}
	return inbound, outbound
}

var (
	droppedPropertyPrefixes = []string{"R", "ESTA", "TKNE", "FBA", "IFBA", "SNR", "BAG", "FOID/", "OSR", "TMC"}
	droppedProperties       = map[string]bool{"ASR": true, "RES": true, "OSR": true, "ABP": true, "M1/0": true, "F1/0": true}
)

// ExtractProperties collects the residual tokens printed from column 40 of
// the name row and its continuation lines, minus everything already
// covered by another field. stations are the codes to discard as well.
func ExtractProperties(text string, stations ...string) []string {
	skipStation := make(map[string]bool, len(stations))
	for _, s := range stations {
		if s != "" {
			skipStation[s] = true
		}
	}
	indent := strings.Repeat(" ", propertyColumn)

	var tokens []string
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, indent) && !strings.HasPrefix(line, "  1.") {
			continue
		}
		tokens = append(tokens, strings.Fields(Slice(line, propertyColumn, len(line)))...)
	}

	var props []string
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if strings.HasPrefix(tok, "FF/") {
			// the membership number follows the FF/ token
			i++
			continue
		}
		if len(tok) == 1 || droppedProperties[tok] || skipStation[tok] || hasAnyPrefix(tok, droppedPropertyPrefixes) {
			continue
		}
		props = append(props, tok)
	}
	return props
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Extractor turns RawRecordBlocks into ParsedPassengerRecords
type Extractor struct {
	rules  Rules
	logger logger.Logger
}

// NewExtractor creates a new extractor
func NewExtractor(rules Rules, logger logger.Logger) *Extractor {
	return &Extractor{
		rules:  rules,
		logger: logger,
	}
}

// Extract parses one block. When the name or the class letter cannot be
// located the record is structurally unusable: the bool is false, the
// returned record carries only the sequence number and the string holds the
// diagnostic.
func (e *Extractor) Extract(block RawRecordBlock) (ParsedPassengerRecord, string, bool) {
	text := block.Text
	hbnb := block.SequenceNumber
	log := e.logger.With("hbnb", hbnb)

	name, _, found := LocateName(text, 0)
	if !found {
		return ParsedPassengerRecord{HbnbNumber: hbnb}, fmt.Sprintf("HBPR%d,\tPassenger name not found.", hbnb), false
	}
	row := name.Row
	searchStart := 1

	bn, next, hasBN := LocateBoardingNumber(row, 0)
	if hasBN {
		searchStart = next
	}
	seat, next, hasSeat := LocateSeat(row, searchStart)
	if hasSeat {
		searchStart = next
	}
	subClass, next, hasClass := LocateClass(row, searchStart, e.rules.ClassMinOffset)
	if !hasClass {
		return ParsedPassengerRecord{HbnbNumber: hbnb}, fmt.Sprintf("HBPR%d,\tNo valid class found.", hbnb), false
	}
	destination, _, _ := LocateDestination(row, next)

	rec := ParsedPassengerRecord{
		HbnbNumber:     hbnb,
		BoardingNumber: bn,
		Name:           name.Name,
		Seat:           seat,
		SubClass:       subClass,
		Cabin:          e.rules.ResolveCabin(subClass),
		Destination:    destination,
	}
	log.Debug("Header fields located",
		"name", rec.Name, "bn", rec.BoardingNumber, "seat", rec.Seat,
		"class", rec.SubClass, "cabin", rec.Cabin, "destination", rec.Destination)

	rec.PNR, _ = ExtractPNR(text)
	rec.PassportName, _ = ExtractPassportName(text)
	rec.BagPieces, rec.BagWeight, _ = ExtractCheckedBags(text)

	allowance := ExtractAllowance(text)
	rec.AdultAllowancePieces = allowance.AdultPieces
	rec.InfantAllowance = allowance.Infant
	rec.StaffTicket = allowance.Staff

	rec.Excess, _ = ExtractExcess(text)
	rec.AsvcMessages, rec.AncillaryPieces = ExtractAncillary(text)

	if ff, ok := ExtractFlyer(text, e.rules.CarrierCode); ok {
		rec.FrequentFlyer = ff.Token
		rec.CarrierFlyer = ff.CarrierFlyer
		rec.FlyerBonus = ff.BonusPieces
	}

	rec.CkinMessages, rec.CkinExbg = ExtractCheckIn(text)

	if doc, ok := ExtractPassport(text); ok {
		rec.PassportNationality = doc.Nationality
		if doc.HasExpiry {
			rec.PassportExpiry = doc.Expiry.Format(DateLayout)
		} else if len(doc.Parts) >= 6 {
			log.Debug("Passport expiry unreadable", "value", doc.Parts[5])
		}
	}
	rec.HasVisaInfo = HasVisaInformation(text)

	inbound, outbound := ExtractConnections(text)
	rec.InboundFlight, rec.InboundStation = inbound.Flight, inbound.Station
	rec.OutboundFlight, rec.OutboundStation = outbound.Flight, outbound.Station
	if outbound.Station != "" {
		rec.Destination = outbound.Station
	}

	rec.Properties = ExtractProperties(text, destination, rec.Destination, headerOrigin(text))

	log.Debug("Auxiliary sections extracted",
		"pnr", rec.PNR, "bags", rec.BagPieces, "bagWeight", rec.BagWeight,
		"fba", rec.AdultAllowancePieces, "ifba", rec.InfantAllowance,
		"expcPieces", rec.ExcessPieces(), "expcWeight", rec.ExcessWeight(),
		"asvcPieces", rec.AncillaryPieces, "ff", rec.FrequentFlyer,
		"bonus", rec.FlyerBonus, "carrierFlyer", rec.CarrierFlyer,
		"properties", len(rec.Properties))

	return rec, "", true
}

func headerOrigin(text string) string {
	m, ok := FindPattern(recordHeaderRe, text, 0)
	if !ok {
		return ""
	}
	return ParseFlightRef(m.Group(1)).Origin
}
