package afford

import (
	"errors"
	"math"
)

var ErrInvalidInput = errors.New("afford: invalid input")

type Verdict string

const (
	VerdictAffordable Verdict = "affordable"
	VerdictStretching Verdict = "stretching"
	VerdictOverBudget Verdict = "over_budget"
	VerdictUnknown    Verdict = "unknown"
)

// Thresholds are verdict cut-offs in percent of budget.
type Thresholds struct {
	AffordableMax int
	StretchingMax int
}

func DefaultThresholds() Thresholds {
	return Thresholds{AffordableMax: 75, StretchingMax: 90}
}

type Affordability struct {
	Percent int
	Verdict Verdict
}

// Rate scores rent against a monthly budget using the default thresholds.
func Rate(rent, budget float64) Affordability {
	return RateWith(rent, budget, DefaultThresholds())
}

// RateWith scores rent against a monthly budget. Percent is clamped to
// [0,100] for display; the verdict uses the raw ratio, so the boundary sits
// exactly at the thresholds. A zero or negative budget yields an unknown
// verdict rather than an error.
func RateWith(rent, budget float64, t Thresholds) Affordability {
	if t.AffordableMax <= 0 || t.StretchingMax < t.AffordableMax {
		t = DefaultThresholds()
	}
	if budget <= 0 {
		return Affordability{Percent: 0, Verdict: VerdictUnknown}
	}
	ratio := rent / budget * 100
	display := int(math.Round(ratio))
	if display < 0 {
		display = 0
	}
	if display > 100 {
		display = 100
	}
	verdict := VerdictOverBudget
	switch {
	case ratio <= float64(t.AffordableMax):
		verdict = VerdictAffordable
	case ratio <= float64(t.StretchingMax):
		verdict = VerdictStretching
	}
	return Affordability{Percent: display, Verdict: verdict}
}

type LoanEstimate struct {
	Interest       float64
	TotalRepayable float64
	MonthlyPayment float64
}

// EstimateLoan computes a flat-rate rent-advance estimate. Interest is charged
// once on the principal, not compounded per period.
func EstimateLoan(principal, annualRatePercent float64, termMonths int) (LoanEstimate, error) {
	if termMonths <= 0 {
		return LoanEstimate{}, ErrInvalidInput
	}
	if principal < 0 || annualRatePercent < 0 {
		return LoanEstimate{}, ErrInvalidInput
	}
	interest := principal * annualRatePercent / 100
	total := principal + interest
	return LoanEstimate{
		Interest:       interest,
		TotalRepayable: total,
		MonthlyPayment: total / float64(termMonths),
	}, nil
}
