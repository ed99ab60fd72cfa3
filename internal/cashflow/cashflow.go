// Package cashflow implements the cash-flow aggregator: turning a
// scenario's income and expense streams into one month's totals, handling
// frequency normalization, start/end windows, and inflation or custom
// growth indexing.
package cashflow

import (
	"time"

	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/shopspring/decimal"
)

// MonthlyCashFlow sums every stream's contribution for the given month
// index, where month 0 is the first month of the projection starting at
// startDate.
func MonthlyCashFlow(streams []domain.Stream, monthIndex int, startDate time.Time, assumptions domain.Assumptions) (income, expenses decimal.Decimal) {
	monthDate := startDate.AddDate(0, monthIndex, 0)

	for _, s := range streams {
		amount := contribution(s, monthIndex, startDate, monthDate, assumptions)
		if amount.IsZero() {
			continue
		}
		if s.IsIncome {
			income = income.Add(amount)
		} else {
			expenses = expenses.Add(amount)
		}
	}
	return income, expenses
}

func contribution(s domain.Stream, monthIndex int, startDate, monthDate time.Time, assumptions domain.Assumptions) decimal.Decimal {
	streamStartIdx := monthsBetween(startDate, s.StartDate)
	if streamStartIdx < 0 {
		streamStartIdx = 0
	}
	if monthIndex < streamStartIdx {
		return decimal.Zero
	}
	if s.EndDate != nil {
		streamEndIdx := monthsBetween(startDate, *s.EndDate)
		if monthIndex > streamEndIdx {
			return decimal.Zero
		}
	}

	base := normalize(s, monthIndex, streamStartIdx)
	if base.IsZero() {
		return decimal.Zero
	}

	elapsedMonths := monthIndex - streamStartIdx
	if elapsedMonths < 0 {
		elapsedMonths = 0
	}
	yearsSinceStart := elapsedMonths / 12

	rate := s.GrowthRate
	if s.InflationIndexed {
		rate = assumptions.InflationRate
	}
	if yearsSinceStart == 0 || rate.IsZero() {
		return base
	}
	factor := decimal.NewFromInt(1).Add(rate).Pow(decimal.NewFromInt(int64(yearsSinceStart)))
	return base.Mul(factor)
}

// normalize spreads a stream's base amount evenly across months according to
// its stated frequency: annual/12, quarterly/3, monthly as-is, one-time only
// in its exact start month.
func normalize(s domain.Stream, monthIndex, streamStartIdx int) decimal.Decimal {
	switch s.Frequency {
	case domain.Monthly:
		return s.BaseAmount
	case domain.Quarterly:
		return s.BaseAmount.Div(decimal.NewFromInt(3))
	case domain.Annual:
		return s.BaseAmount.Div(decimal.NewFromInt(12))
	case domain.OneTime:
		if monthIndex == streamStartIdx {
			return s.BaseAmount
		}
		return decimal.Zero
	default:
		return s.BaseAmount
	}
}

// IncomeByCharacter sums this month's income streams split into their
// social-security and other-ordinary portions, the decomposition the
// withdrawal sequencer needs to synthesize a tax year. Capital-gains and
// tax-free income streams are excluded: those characters come from
// withdrawals, not recurring cash-flow streams, in this model.
func IncomeByCharacter(streams []domain.Stream, monthIndex int, startDate time.Time, assumptions domain.Assumptions) (socialSecurity, otherOrdinary decimal.Decimal) {
	monthDate := startDate.AddDate(0, monthIndex, 0)
	for _, s := range streams {
		if !s.IsIncome {
			continue
		}
		amount := contribution(s, monthIndex, startDate, monthDate, assumptions)
		if amount.IsZero() {
			continue
		}
		switch s.TaxCharacter {
		case domain.TaxSocialSecurity:
			socialSecurity = socialSecurity.Add(amount)
		case domain.TaxCapitalGains, domain.TaxFree:
			// handled elsewhere; excluded here
		default:
			otherOrdinary = otherOrdinary.Add(amount)
		}
	}
	return socialSecurity, otherOrdinary
}

// monthsBetween returns how many whole months after from the date to lands,
// which may be negative if to precedes from.
func monthsBetween(from, to time.Time) int {
	years := to.Year() - from.Year()
	months := int(to.Month()) - int(from.Month())
	total := years*12 + months
	if to.Day() < from.Day() {
		total--
	}
	return total
}
