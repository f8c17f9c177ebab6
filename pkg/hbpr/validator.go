package hbpr

import (
	"fmt"
	"time"

	"hbpr-validation-service/pkg/logger"
)

// State is a step of the per-record validation state machine
type State string

const (
	StateInit         State = "INIT"
	StateHeaderParsed State = "HEADER_PARSED"
	StateBodyParsed   State = "BODY_PARSED"
	StateParseFailed  State = "PARSE_FAILED"
	StateValidated    State = "VALIDATED"
)

// Validator runs extraction and every business check on one block.
// It keeps no per-record state, so one Validator can serve many goroutines.
type Validator struct {
	rules     Rules
	extractor *Extractor
	clock     Clock
	logger    logger.Logger
}

// Option customises a Validator
type Option func(*Validator)

// WithClock replaces time.Now, used for passport expiry
func WithClock(clock Clock) Option {
	return func(v *Validator) {
		v.clock = clock
	}
}

// NewValidator creates a validator for rules
func NewValidator(rules Rules, logger logger.Logger, opts ...Option) *Validator {
	v := &Validator{
		rules:     rules,
		extractor: NewExtractor(rules, logger),
		clock:     time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Rules returns the rule set the validator applies
func (v *Validator) Rules() Rules {
	return v.rules
}

// Validate parses and checks one block. Every call allocates its own
// result; running it twice on the same block with the same clock yields
// identical results.
func (v *Validator) Validate(block RawRecordBlock) Result {
	log := v.logger.With("hbnb", block.SequenceNumber)
	state := StateInit

	rec, fatal, ok := v.extractor.Extract(block)
	if !ok {
		var res Result
		res.Record = rec
		res.Report.Add(CategoryOther, fatal)
		res.Outcome = OutcomeParseFailed
		log.Debug("Record transition", "from", state, "to", StateParseFailed, "reason", fatal)
		return res
	}
	log.Debug("Record transition", "from", state, "to", StateHeaderParsed)
	state = StateBodyParsed

	res := Result{Record: rec}
	if !rec.Accepted() {
		res.Outcome = OutcomeValid
		log.Debug("Record transition", "from", state, "to", StateValidated, "reason", "no boarding number, checks skipped")
		return res
	}

	ent := v.rules.Entitlement(AllowanceInputFrom(rec))
	res.Entitlement = &ent
	for _, msg := range v.rules.CheckBaggage(rec.HbnbNumber, rec, ent) {
		res.Report.Add(CategoryBaggage, msg)
	}

	if msg, expired := v.checkPassportExpiry(rec); expired {
		res.Report.Add(CategoryPassport, msg)
	}
	if msg, missing := v.checkVisa(rec); missing {
		res.Report.Add(CategoryVisa, msg)
	}
	if rec.PassportName == "" {
		log.Debug("Name check skipped", "reason", "no PAXLST name")
	} else if msg, mismatch := v.checkName(rec); mismatch {
		res.Report.Add(CategoryName, msg)
	}

	res.Outcome = OutcomeValid
	if !res.Report.Empty() {
		res.Outcome = OutcomeInvalid
	}
	log.Debug("Record transition", "from", state, "to", StateValidated,
		"outcome", res.Outcome,
		"allowedPieces", ent.Pieces, "allowedWeight", ent.Weight,
		"violations", res.Report.Total())
	return res
}

// checkPassportExpiry flags a document whose expiry date is before
// tomorrow. The comparison is on calendar dates in the clock's location.
func (v *Validator) checkPassportExpiry(rec ParsedPassengerRecord) (string, bool) {
	if rec.PassportExpiry == "" {
		return "", false
	}
	now := v.clock()
	expiry, err := time.ParseInLocation(DateLayout, rec.PassportExpiry, now.Location())
	if err != nil {
		return "", false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := today.AddDate(0, 0, 1)
	if tomorrow.After(expiry) {
		return fmt.Sprintf("HBPR%d,\tThe passport expired on %s.", rec.HbnbNumber, expiry.Format("02Jan2006")), true
	}
	return "", false
}

// checkVisa requires visa information from passengers outside the home
// nationalities
func (v *Validator) checkVisa(rec ParsedPassengerRecord) (string, bool) {
	nat := rec.PassportNationality
	if nat == "" || v.rules.HomeNationality(nat) || rec.HasVisaInfo {
		return "", false
	}
	return fmt.Sprintf("HBPR%d,\tNo visa information found for %s passport holder\nPAX: %s, BN: %d",
		rec.HbnbNumber, nat, rec.Name, rec.BoardingNumber), true
}

func (v *Validator) checkName(rec ParsedPassengerRecord) (string, bool) {
	match := MatchNames(rec.Name, rec.PassportName, v.rules.NameMatchThreshold)
	if match.Matched {
		return "", false
	}
	return NameViolation(rec.HbnbNumber, match.Similarity), true
}
