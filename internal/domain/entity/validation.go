package entity

import (
	"strings"
	"time"

	"hbpr-validation-service/pkg/hbpr"
)

// ValidationResult is the flattened, persisted form of one validated record.
// Upserted by (flightId, hbnb_number).
type ValidationResult struct {
	Key        string `bson:"key" json:"-"`
	FlightID   string `bson:"flightId" json:"flight_id"`
	HbnbNumber int    `bson:"hbnb_number" json:"hbnb_number"`

	BoardingNumber int    `bson:"boarding_number" json:"boarding_number"`
	PNR            string `bson:"pnr" json:"pnr"`
	Name           string `bson:"name" json:"name"`
	Seat           string `bson:"seat" json:"seat"`
	Class          string `bson:"class" json:"class"`
	CabinFamily    string `bson:"cabin_family" json:"cabin_family"`
	Destination    string `bson:"destination" json:"destination"`

	BagPiece           int `bson:"bag_piece" json:"bag_piece"`
	BagWeight          int `bson:"bag_weight" json:"bag_weight"`
	BagAllowance       int `bson:"bag_allowance" json:"bag_allowance"`
	BagWeightAllowance int `bson:"bag_weight_allowance" json:"bag_weight_allowance"`

	FF           string `bson:"ff" json:"ff"`
	PsptName     string `bson:"pspt_name" json:"pspt_name"`
	PsptExpDate  string `bson:"pspt_exp_date" json:"pspt_exp_date"`
	Nationality  string `bson:"nationality" json:"nationality"`
	CkinMsg      string `bson:"ckin_msg" json:"ckin_msg"`
	AsvcMsg      string `bson:"asvc_msg" json:"asvc_msg"`
	ExpcPiece    int    `bson:"expc_piece" json:"expc_piece"`
	ExpcWeight   int    `bson:"expc_weight" json:"expc_weight"`
	AsvcPiece    int    `bson:"asvc_piece" json:"asvc_piece"`
	FbaPiece     int    `bson:"fba_piece" json:"fba_piece"`
	IfbaPiece    int    `bson:"ifba_piece" json:"ifba_piece"`
	FlyerBenefit int    `bson:"flyer_benefit" json:"flyer_benefit"`
	IsCaFlyer    bool   `bson:"is_ca_flyer" json:"is_ca_flyer"`

	InboundFlight  string `bson:"inbound_flight" json:"inbound_flight"`
	OutboundFlight string `bson:"outbound_flight" json:"outbound_flight"`
	Properties     string `bson:"properties" json:"properties"`

	HasError      bool   `bson:"has_error" json:"has_error"`
	ErrorBaggage  string `bson:"error_baggage" json:"error_baggage"`
	ErrorPassport string `bson:"error_passport" json:"error_passport"`
	ErrorName     string `bson:"error_name" json:"error_name"`
	ErrorVisa     string `bson:"error_visa" json:"error_visa"`
	ErrorOther    string `bson:"error_other" json:"error_other"`
	ErrorCount    int    `bson:"error_count" json:"error_count"`
	Outcome       string `bson:"outcome" json:"outcome"`
	IsValid       bool   `bson:"is_valid" json:"is_valid"`
	Stale         bool   `bson:"stale" json:"stale"`

	ValidatedAt time.Time `bson:"validated_at" json:"validated_at"`
}

// NewValidationResult flattens a validator result for flightID
func NewValidationResult(flightID string, res hbpr.Result, validatedAt time.Time) *ValidationResult {
	rec := res.Record
	v := &ValidationResult{
		Key:            RecordKey(flightID, rec.HbnbNumber),
		FlightID:       flightID,
		HbnbNumber:     rec.HbnbNumber,
		BoardingNumber: rec.BoardingNumber,
		PNR:            rec.PNR,
		Name:           rec.Name,
		Seat:           rec.Seat,
		Class:          rec.SubClass,
		CabinFamily:    string(rec.Cabin),
		Destination:    rec.Destination,
		BagPiece:       rec.BagPieces,
		BagWeight:      rec.BagWeight,
		FF:             rec.FrequentFlyer,
		PsptName:       rec.PassportName,
		PsptExpDate:    rec.PassportExpiry,
		Nationality:    rec.PassportNationality,
		CkinMsg:        strings.Join(rec.CkinMessages, "; "),
		AsvcMsg:        strings.Join(rec.AsvcMessages, "; "),
		ExpcPiece:      rec.ExcessPieces(),
		ExpcWeight:     rec.ExcessWeight(),
		AsvcPiece:      rec.AncillaryPieces,
		FbaPiece:       rec.AdultAllowancePieces,
		IfbaPiece:      rec.InfantPieces(),
		FlyerBenefit:   rec.FlyerBonus,
		IsCaFlyer:      rec.CarrierFlyer,
		InboundFlight:  rec.InboundFlight,
		OutboundFlight: rec.OutboundFlight,
		Properties:     strings.Join(rec.Properties, ","),

		ErrorBaggage:  res.Report.Joined(hbpr.CategoryBaggage),
		ErrorPassport: res.Report.Joined(hbpr.CategoryPassport),
		ErrorName:     res.Report.Joined(hbpr.CategoryName),
		ErrorVisa:     res.Report.Joined(hbpr.CategoryVisa),
		ErrorOther:    res.Report.Joined(hbpr.CategoryOther),
		ErrorCount:    res.Report.Count(),
		Outcome:       string(res.Outcome),
		IsValid:       res.Outcome == hbpr.OutcomeValid,
		ValidatedAt:   validatedAt,
	}
	v.HasError = v.ErrorCount > 0
	if res.Entitlement != nil {
		v.BagAllowance = res.Entitlement.Pieces
		v.BagWeightAllowance = res.Entitlement.Weight
	}
	return v
}

// Errors returns the non-empty category strings keyed by category name
func (v *ValidationResult) Errors() map[string]string {
	out := make(map[string]string)
	for _, c := range hbpr.Categories {
		if s := v.categoryText(c); s != "" {
			out[c.String()] = s
		}
	}
	return out
}

func (v *ValidationResult) categoryText(c hbpr.Category) string {
	switch c {
	case hbpr.CategoryBaggage:
		return v.ErrorBaggage
	case hbpr.CategoryPassport:
		return v.ErrorPassport
	case hbpr.CategoryName:
		return v.ErrorName
	case hbpr.CategoryVisa:
		return v.ErrorVisa
	case hbpr.CategoryOther:
		return v.ErrorOther
	}
	return ""
}

// CategoryCounts is the number of records with at least one violation in
// each category
type CategoryCounts struct {
	Baggage  int `json:"baggage"`
	Passport int `json:"passport"`
	Name     int `json:"name"`
	Visa     int `json:"visa"`
	Other    int `json:"other"`
}

// Add counts every non-empty category of v
func (c *CategoryCounts) Add(v *ValidationResult) {
	if v.ErrorBaggage != "" {
		c.Baggage++
	}
	if v.ErrorPassport != "" {
		c.Passport++
	}
	if v.ErrorName != "" {
		c.Name++
	}
	if v.ErrorVisa != "" {
		c.Visa++
	}
	if v.ErrorOther != "" {
		c.Other++
	}
}

// FlightStats are the validation statistics of one flight
type FlightStats struct {
	FlightID      string `json:"flight_id"`
	TotalRecords  int    `json:"total_records"`
	Validated     int    `json:"validated"`
	Valid         int    `json:"valid"`
	Invalid       int    `json:"invalid"`
	ParseFailed   int    `json:"parse_failed"`
	Stale         int    `json:"stale"`
	SimpleRecords int    `json:"simple_records"`
	Missing       int    `json:"missing"`
	MinHbnb       int    `json:"min_hbnb"`
	MaxHbnb       int    `json:"max_hbnb"`
}

// FlightSummary is the cached reporting view of a flight
type FlightSummary struct {
	Stats       FlightStats    `json:"stats"`
	Categories  CategoryCounts `json:"categories"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// InvalidPage is one page of invalid records ordered by hbnb
type InvalidPage struct {
	FlightID string              `json:"flight_id"`
	Page     int                 `json:"page"`
	Size     int                 `json:"size"`
	Total    int64               `json:"total"`
	Items    []*ValidationResult `json:"items"`
}

// NewFlightSummary aggregates the results of a flight. missing may be nil.
func NewFlightSummary(flightID string, totalRecords, simpleRecords int, results []*ValidationResult, missing *MissingNumbers, at time.Time) *FlightSummary {
	summary := &FlightSummary{
		Stats: FlightStats{
			FlightID:      flightID,
			TotalRecords:  totalRecords,
			Validated:     len(results),
			SimpleRecords: simpleRecords,
		},
		GeneratedAt: at,
	}
	if missing != nil {
		summary.Stats.Missing = len(missing.Numbers)
		summary.Stats.MinHbnb = missing.MinHbnb
		summary.Stats.MaxHbnb = missing.MaxHbnb
	}

	for _, r := range results {
		switch hbpr.Outcome(r.Outcome) {
		case hbpr.OutcomeValid:
			summary.Stats.Valid++
		case hbpr.OutcomeInvalid:
			summary.Stats.Invalid++
		case hbpr.OutcomeParseFailed:
			summary.Stats.Invalid++
			summary.Stats.ParseFailed++
		}
		if r.Stale {
			summary.Stats.Stale++
		}
		summary.Categories.Add(r)
	}
	return summary
}
