package core

import "github.com/shopspring/decimal"

// Summary holds the values derived from a budget and its entries.
// It is computed on demand and never stored alongside the state.
type Summary struct {
	TotalExpenses   Money
	TotalIncomes    Money
	Available       Money // may be negative once spending exceeds budget and incomes
	UsagePercentage float64
}

// UsageTier classifies how much of the budget has been spent.
type UsageTier int

const (
	TierLow    UsageTier = iota // up to 50%
	TierMedium                  // up to 75%
	TierHigh                    // above 75%
)

var hundred = decimal.NewFromInt(100)

// Aggregate sums entries against budget. Entries without a usable amount are
// skipped so that malformed stored data never breaks the totals.
func Aggregate(budget Money, entries []Entry) Summary {
	var s Summary
	for _, e := range entries {
		if !e.Amount.Valid() {
			continue
		}
		if e.IsIncome() {
			s.TotalIncomes = s.TotalIncomes.Add(e.Amount)
		} else {
			s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
		}
	}
	s.Available = budget.Sub(s.TotalExpenses).Add(s.TotalIncomes)
	s.UsagePercentage = usagePercentage(s.TotalExpenses, budget)
	return s
}

// usagePercentage returns spent/budget*100 rounded to one decimal, or 0 when
// no budget is configured.
func usagePercentage(spent, budget Money) float64 {
	if budget.Cents <= 0 {
		return 0
	}
	pct := decimal.NewFromInt(spent.Cents).
		Mul(hundred).
		Div(decimal.NewFromInt(budget.Cents)).
		Round(1)
	return pct.InexactFloat64()
}

// Tier maps the usage percentage to its tier.
func (s Summary) Tier() UsageTier {
	switch {
	case s.UsagePercentage <= 50:
		return TierLow
	case s.UsagePercentage <= 75:
		return TierMedium
	default:
		return TierHigh
	}
}

// Color returns the display colour for the tier.
func (t UsageTier) Color() string {
	switch t {
	case TierLow:
		return "#00b760"
	case TierMedium:
		return "#fcd856"
	default:
		return "#e5053a"
	}
}

func (t UsageTier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	default:
		return "high"
	}
}
