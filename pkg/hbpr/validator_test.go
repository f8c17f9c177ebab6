package hbpr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hbpr-validation-service/pkg/logger"
)

func newTestValidator() *Validator {
	return NewValidator(DefaultRules(), logger.NewNop(), WithClock(fixedClock(2025, time.July, 25)))
}

func withPassport(p paxRecord, doc string) paxRecord {
	body := make([]string, len(p.body))
	copy(body, p.body)
	body[3] = "    PASSPORT :" + doc
	p.body = body
	return p
}

func TestValidateCleanRecord(t *testing.T) {
	res := newTestValidator().Validate(zhangWei().block())

	assert.Equal(t, OutcomeValid, res.Outcome)
	assert.True(t, res.Report.Empty())
	require.NotNil(t, res.Entitlement)
	assert.Equal(t, BaggageEntitlement{Pieces: 2, Weight: 46}, *res.Entitlement)
}

func TestValidatePassportExpiryBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		expiry  string
		message string
	}{
		{"expired yesterday", "250724", "HBPR1,\tThe passport expired on 24Jul2025."},
		{"expires today", "250725", "HBPR1,\tThe passport expired on 25Jul2025."},
		{"expires tomorrow", "250726", ""},
		{"far future", "300101", ""},
	}

	v := newTestValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := withPassport(zhangWei(), "P/E12345678/CHN/CHN/850101/"+tt.expiry+"/M")
			res := v.Validate(p.block())

			if tt.message == "" {
				assert.Empty(t, res.Report.Messages(CategoryPassport))
				assert.Equal(t, OutcomeValid, res.Outcome)
				return
			}
			assert.Equal(t, []string{tt.message}, res.Report.Messages(CategoryPassport))
			assert.Equal(t, OutcomeInvalid, res.Outcome)
		})
	}
}

func TestValidateVisa(t *testing.T) {
	p := zhangWei()
	p.name = "SMITH/JOHN MR"
	p = withPassport(p, "P/X1234567/USA/USA/800101/300101/M")
	p.body[2] = "    PAXLST :SMITH/JOHN"

	v := newTestValidator()
	res := v.Validate(p.block())
	assert.Equal(t, []string{"HBPR1,\tNo visa information found for USA passport holder\nPAX: SMITH/JOHN MR, BN: 12"},
		res.Report.Messages(CategoryVisa))
	assert.Equal(t, OutcomeInvalid, res.Outcome)

	p.body = append(p.body, "    VISA INFO: V/US/B1B2")
	res = v.Validate(p.block())
	assert.Empty(t, res.Report.Messages(CategoryVisa))
	assert.Equal(t, OutcomeValid, res.Outcome)
}

func TestValidateNames(t *testing.T) {
	v := newTestValidator()

	p := zhangWei()
	p.body[2] = "    PAXLST :ZHAO/LEI"
	res := v.Validate(p.block())
	require.Len(t, res.Report.Messages(CategoryName), 1)
	assert.Contains(t, res.Report.Joined(CategoryName), "HBPR1,\tThe Booking and Passport names match")

	// without APIS data there is no document name to compare
	p = zhangWei()
	p.body = []string{p.body[0], p.body[1], p.body[3]}
	res = v.Validate(p.block())
	assert.Empty(t, res.Report.Messages(CategoryName))
	assert.Equal(t, OutcomeValid, res.Outcome)
}

func TestValidateBaggageViolation(t *testing.T) {
	p := zhangWei()
	p.body[1] = "    BAG3/60/1 CA123456 PEK"
	p.body = append(p.body, "    CKIN EXBG PAID 1PC")

	res := newTestValidator().Validate(p.block())
	assert.Equal(t, []string{"HBPR1,\thas 1 extra bag(s).", "CKIN EXBG PAID 1PC"}, res.Report.Messages(CategoryBaggage))
	assert.Equal(t, 1, res.Report.Count())
	assert.Equal(t, OutcomeInvalid, res.Outcome)
}

func TestValidateSkipsChecksWithoutBoardingNumber(t *testing.T) {
	p := withPassport(zhangWei(), "P/E12345678/USA/USA/850101/200101/M")
	p.bn = 0
	p.body[1] = "    BAG9/300/1 CA123456 PEK"

	res := newTestValidator().Validate(p.block())
	assert.Equal(t, OutcomeValid, res.Outcome)
	assert.True(t, res.Report.Empty())
	assert.Nil(t, res.Entitlement)
}

func TestValidateParseFailure(t *testing.T) {
	res := newTestValidator().Validate(RawRecordBlock{SequenceNumber: 9, Text: ">HBPR: CA984/25JUL25*LAX,9"})

	assert.Equal(t, OutcomeParseFailed, res.Outcome)
	assert.Equal(t, []string{"HBPR9,\tPassenger name not found."}, res.Report.Messages(CategoryOther))
	assert.Equal(t, 9, res.Record.HbnbNumber)
}

func TestValidateIsRepeatable(t *testing.T) {
	v := newTestValidator()
	p := withPassport(zhangWei(), "P/E12345678/USA/USA/850101/250101/M")

	first := v.Validate(p.block())
	second := v.Validate(p.block())
	assert.Equal(t, first, second)
	assert.Equal(t, 2, first.Report.Count())
}
