package sequencing

import (
	"github.com/rgehrsitz/wealthplan/internal/brackets"
	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/shopspring/decimal"
)

// bracketHeadroom returns how much ordinary income can still be added to
// taxableIncome before it spills into the next federal bracket. Both
// strategies use it to size the Roth conversion; the bracket-fill strategy
// also uses it to size its additional traditional withdrawal.
func bracketHeadroom(taxableIncome decimal.Decimal, status domain.FilingStatus, table *brackets.Table) decimal.Decimal {
	bs := table.FederalBracketsFor(status)
	if len(bs) == 0 {
		return zero
	}
	for i, b := range bs {
		if i+1 >= len(bs) {
			// top bracket: no ceiling, treat as unlimited headroom
			return decimal.NewFromInt(1 << 40)
		}
		nextMin := bs[i+1].Min
		if taxableIncome.GreaterThanOrEqual(b.Min) && taxableIncome.LessThan(nextMin) {
			return nextMin.Sub(taxableIncome)
		}
	}
	return zero
}
