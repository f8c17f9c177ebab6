package hbpr

import "fmt"

// AllowanceInput is everything the entitlement rules look at
type AllowanceInput struct {
	Cabin           CabinFamily
	FlyerBonus      int
	CarrierFlyer    bool
	AdultPieces     int
	Infant          bool
	AncillaryPieces int
	Excess          *ExcessBaggage
}

// AllowanceInputFrom builds the rule input from a parsed record
func AllowanceInputFrom(rec ParsedPassengerRecord) AllowanceInput {
	return AllowanceInput{
		Cabin:           rec.Cabin,
		FlyerBonus:      rec.FlyerBonus,
		CarrierFlyer:    rec.CarrierFlyer,
		AdultPieces:     rec.AdultAllowancePieces,
		Infant:          rec.InfantAllowance,
		AncillaryPieces: rec.AncillaryPieces,
		Excess:          rec.Excess,
	}
}

func (in AllowanceInput) hasRegularAllowance() bool {
	return in.AdultPieces > 0 || in.Infant
}

// Entitlement computes the maximum pieces and weight a passenger may check.
//
// An excess statement without a regular allowance replaces the computation:
// excess pieces plus prepaid pieces, excess weight plus prepaid pieces at the
// cabin rate. Otherwise pieces are bonus + prepaid + adult + infant; weight
// is charged at the cabin rate, except that a bonus piece of a flyer from
// another carrier is capped at ForeignGoldWeight. The infant allowance adds
// InfantWeight once. When an excess statement coexists with the regular
// allowance its figures are a floor on the result.
func (r Rules) Entitlement(in AllowanceInput) BaggageEntitlement {
	wpp := r.WeightPerPiece(in.Cabin)

	if in.Excess != nil && !in.hasRegularAllowance() {
		return BaggageEntitlement{
			Pieces: in.Excess.Pieces + in.AncillaryPieces,
			Weight: in.Excess.Weight + in.AncillaryPieces*wpp,
		}
	}

	infantPieces := 0
	if in.Infant {
		infantPieces = 1
	}

	ent := BaggageEntitlement{
		Pieces: in.FlyerBonus + in.AncillaryPieces + in.AdultPieces + infantPieces,
	}
	if in.CarrierFlyer {
		ent.Weight = (in.FlyerBonus + in.AncillaryPieces + in.AdultPieces) * wpp
	} else {
		ent.Weight = in.FlyerBonus*r.ForeignGoldWeight + (in.AncillaryPieces+in.AdultPieces)*wpp
	}
	if in.Infant {
		ent.Weight += r.InfantWeight
	}

	if in.Excess != nil {
		ent.Pieces = max(ent.Pieces, in.Excess.Pieces)
		ent.Weight = max(ent.Weight, in.Excess.Weight)
	}
	return ent
}

// CheckBaggage compares checked baggage with the entitlement. Over-piece is
// checked first; over-weight only when the pieces fit; average weight only
// when neither fired, so one cause yields one message. Each over-weight
// check also requires the load to exceed the plain cabin rate.
func (r Rules) CheckBaggage(hbnb int, rec ParsedPassengerRecord, ent BaggageEntitlement) []string {
	wpp := r.WeightPerPiece(rec.Cabin)
	var msgs []string

	switch {
	case rec.BagPieces > ent.Pieces:
		msgs = append(msgs, fmt.Sprintf("HBPR%d,\thas %d extra bag(s).", hbnb, rec.BagPieces-ent.Pieces))

	case rec.BagWeight > ent.Weight:
		if rec.BagWeight > wpp*rec.BagPieces {
			msgs = append(msgs, fmt.Sprintf("HBPR%d,\tthe baggage is overweight %d KGs.", hbnb, rec.BagWeight-ent.Weight))
		}

	case rec.BagPieces > 0 && ent.Pieces > 0:
		average := float64(rec.BagWeight) / float64(rec.BagPieces)
		allowed := float64(ent.Weight) / float64(ent.Pieces)
		if average > allowed && average > float64(wpp) {
			msgs = append(msgs, fmt.Sprintf("HBPR%d,\tthe baggage average weight is overweight %.1f KGs.", hbnb, average-allowed))
		}
	}

	if len(msgs) == 0 {
		return nil
	}
	if rec.CkinExbg != "" {
		return append(msgs, rec.CkinExbg)
	}
	return append(msgs, fmt.Sprintf("HBPR%d,\tno CKIN EXBG remark recorded.", hbnb))
}
