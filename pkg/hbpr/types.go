package hbpr

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the layout used when storing passport expiry dates
const DateLayout = "2006-01-02"

// RawRecordBlock is one passenger record as cut out of a dump
type RawRecordBlock struct {
	SequenceNumber int    `json:"sequence_number"`
	Text           string `json:"text"`
	IsPlaceholder  bool   `json:"is_placeholder"`
}

// CabinFamily is the fare group a booking sub-class resolves to
type CabinFamily string

const (
	CabinPremium CabinFamily = "PREMIUM"
	CabinEconomy CabinFamily = "ECONOMY"
	CabinOther   CabinFamily = "OTHER"
)

// ExcessBaggage is a purchased excess-baggage (EXPC) statement
type ExcessBaggage struct {
	Pieces int `json:"pieces"`
	Weight int `json:"weight"`
}

// BaggageEntitlement is the maximum checked baggage a passenger may carry
type BaggageEntitlement struct {
	Pieces int `json:"pieces"`
	Weight int `json:"weight"`
}

// ParsedPassengerRecord is the structured form of one RawRecordBlock
type ParsedPassengerRecord struct {
	HbnbNumber     int         `json:"hbnb_number"`
	BoardingNumber int         `json:"boarding_number"`
	PNR            string      `json:"pnr"`
	Name           string      `json:"name"`
	Seat           string      `json:"seat"`
	SubClass       string      `json:"class"`
	Cabin          CabinFamily `json:"cabin_family"`
	Destination    string      `json:"destination"`

	BagPieces int `json:"bag_piece"`
	BagWeight int `json:"bag_weight"`

	AdultAllowancePieces int            `json:"fba_piece"`
	InfantAllowance      bool           `json:"ifba"`
	StaffTicket          bool           `json:"staff_ticket"`
	Excess               *ExcessBaggage `json:"expc,omitempty"`
	AncillaryPieces      int            `json:"asvc_piece"`

	FrequentFlyer string `json:"ff"`
	CarrierFlyer  bool   `json:"is_ca_flyer"`
	FlyerBonus    int    `json:"flyer_benefit"`

	PassportName        string `json:"pspt_name"`
	PassportExpiry      string `json:"pspt_exp_date"`
	PassportNationality string `json:"nationality"`
	HasVisaInfo         bool   `json:"has_visa_info"`

	InboundFlight   string `json:"inbound_flight"`
	OutboundFlight  string `json:"outbound_flight"`
	InboundStation  string `json:"inbound_station"`
	OutboundStation string `json:"outbound_station"`

	Properties   []string `json:"properties"`
	CkinMessages []string `json:"ckin_msg"`
	AsvcMessages []string `json:"asvc_msg"`
	CkinExbg     string   `json:"ckin_exbg"`
}

// Accepted reports whether the passenger has checked in
func (r ParsedPassengerRecord) Accepted() bool {
	return r.BoardingNumber > 0
}

// InfantPieces is the piece count granted by the infant allowance
func (r ParsedPassengerRecord) InfantPieces() int {
	if r.InfantAllowance {
		return 1
	}
	return 0
}

// ExcessPieces returns the excess statement piece count or zero
func (r ParsedPassengerRecord) ExcessPieces() int {
	if r.Excess == nil {
		return 0
	}
	return r.Excess.Pieces
}

// ExcessWeight returns the excess statement weight or zero
func (r ParsedPassengerRecord) ExcessWeight() int {
	if r.Excess == nil {
		return 0
	}
	return r.Excess.Weight
}

// Category is a closed set of violation buckets
type Category int

const (
	CategoryBaggage Category = iota
	CategoryPassport
	CategoryName
	CategoryVisa
	CategoryOther

	numCategories
)

// Categories lists every category in report order
var Categories = [numCategories]Category{
	CategoryBaggage,
	CategoryPassport,
	CategoryName,
	CategoryVisa,
	CategoryOther,
}

func (c Category) String() string {
	switch c {
	case CategoryBaggage:
		return "Baggage"
	case CategoryPassport:
		return "Passport"
	case CategoryName:
		return "Name"
	case CategoryVisa:
		return "Visa"
	case CategoryOther:
		return "Other"
	}
	return "Unknown"
}

// ErrorReport maps every category to its ordered violation messages.
// The zero value is an empty report.
type ErrorReport struct {
	messages [numCategories][]string
}

func (r *ErrorReport) Add(c Category, msg string) {
	r.messages[c] = append(r.messages[c], msg)
}

// Messages returns a copy of the messages recorded for c
func (r ErrorReport) Messages(c Category) []string {
	if len(r.messages[c]) == 0 {
		return nil
	}
	out := make([]string, len(r.messages[c]))
	copy(out, r.messages[c])
	return out
}

// Joined returns the messages of c separated by newlines
func (r ErrorReport) Joined(c Category) string {
	return strings.Join(r.messages[c], "\n")
}

// Empty reports whether no category holds a message
func (r ErrorReport) Empty() bool {
	return r.Count() == 0
}

// Count is the number of non-empty categories
func (r ErrorReport) Count() int {
	n := 0
	for _, c := range Categories {
		if len(r.messages[c]) > 0 {
			n++
		}
	}
	return n
}

// Total is the number of messages across all categories
func (r ErrorReport) Total() int {
	n := 0
	for _, c := range Categories {
		n += len(r.messages[c])
	}
	return n
}

func (r ErrorReport) MarshalJSON() ([]byte, error) {
	out := make(map[string][]string, numCategories)
	for _, c := range Categories {
		msgs := r.messages[c]
		if msgs == nil {
			msgs = []string{}
		}
		out[c.String()] = msgs
	}
	return json.Marshal(out)
}

// Outcome is the terminal state of one record validation
type Outcome string

const (
	OutcomeParseFailed Outcome = "PARSE_FAILED"
	OutcomeValid       Outcome = "VALID"
	OutcomeInvalid     Outcome = "INVALID"
)

// Result is everything one validation run produces for a block
type Result struct {
	Record      ParsedPassengerRecord `json:"record"`
	Report      ErrorReport           `json:"errors"`
	Outcome     Outcome               `json:"outcome"`
	Entitlement *BaggageEntitlement   `json:"entitlement,omitempty"`
}

// Clock returns the current time; injectable so expiry checks are testable
type Clock func() time.Time
