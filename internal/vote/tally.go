package vote

import (
	"github.com/abrezinsky/cuevote/internal/models"
)

// Fraction is an exact ratio used for thresholds and quorum policy
type Fraction struct {
	Num int64
	Den int64
}

// Threshold is the share of cast weight that must vote "out" for a vote to pass
var Threshold = Fraction{Num: 65, Den: 100}

// FractionFromFloat converts a ratio such as 0.5 into a Fraction in ten-thousandths
func FractionFromFloat(f float64) Fraction {
	return Fraction{Num: int64(f*10000 + 0.5), Den: 10000}
}

// Float64 returns the fraction as a decimal number
func (f Fraction) Float64() float64 {
	if f.Den == 0 {
		return 0
	}
	return float64(f.Num) / float64(f.Den)
}

// Of returns ceil(w × f), the smallest weight that reaches the fraction of w
func (f Fraction) Of(w models.Weight) models.Weight {
	if f.Den <= 0 || w <= 0 || f.Num <= 0 {
		return 0
	}
	n := int64(w) * f.Num
	q := n / f.Den
	if n%f.Den != 0 {
		q++
	}
	return models.Weight(q)
}

// TallyOutcome is the binary result of a threshold evaluation
type TallyOutcome string

const (
	TallyPass TallyOutcome = "pass"
	TallyFail TallyOutcome = "fail"
)

// Tally is the result of evaluating accumulated ballot weights
type Tally struct {
	CastWeight models.Weight
	QuorumMet  bool
	Outcome    TallyOutcome
}

// Evaluate decides quorum and threshold from accumulated weights.
// Quorum counts every ballot regardless of choice; the threshold is measured
// against cast weight, so non-voters never count against the target.
func Evaluate(outWeight, keepWeight, quorumRequired models.Weight, threshold Fraction) Tally {
	cast := outWeight + keepWeight
	t := Tally{
		CastWeight: cast,
		QuorumMet:  cast > 0 && cast >= quorumRequired,
		Outcome:    TallyFail,
	}
	if t.QuorumMet && int64(outWeight)*threshold.Den >= threshold.Num*int64(cast) {
		t.Outcome = TallyPass
	}
	return t
}

// outcomeOf maps a tally to the vote outcome it resolves to
func outcomeOf(t Tally) models.Outcome {
	switch {
	case !t.QuorumMet:
		return models.OutcomeNoQuorum
	case t.Outcome == TallyPass:
		return models.OutcomePassed
	default:
		return models.OutcomeFailed
	}
}
