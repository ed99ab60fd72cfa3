// Package tax implements the pure tax engine: one household-year of income in,
// one fully itemized TaxResult out. No component here holds state between
// calls; the Monte Carlo orchestrator depends on that to run paths in
// parallel without locking.
package tax

import (
	"github.com/rgehrsitz/wealthplan/internal/brackets"
	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/shopspring/decimal"
)

var (
	zero    = decimal.Zero
	half    = decimal.NewFromFloat(0.5)
	percent85 = decimal.NewFromFloat(0.85)
)

// Calculate runs the full ten-step algorithm against one year of income for
// a household, using the supplied bracket table.
func Calculate(income domain.IncomeBreakdown, h domain.Household, table *brackets.Table) domain.TaxResult {
	taxableSS := calculateTaxableSocialSecurity(income, h, table)

	agi := income.OrdinaryIncome.
		Add(income.LongTermCapitalGains).
		Add(income.QualifiedDividends).
		Add(taxableSS)

	magi := agi.Add(income.MunicipalBondInterest)

	stdDeduction := table.StandardDeductionFor(h)

	taxableIncome := agi.Sub(stdDeduction)
	if taxableIncome.LessThan(zero) {
		taxableIncome = zero
	}

	preferentialIncome := income.LongTermCapitalGains.Add(income.QualifiedDividends)
	federalTax, marginalRate := calculateFederalTax(taxableIncome, preferentialIncome, h.FilingStatus, table)

	stateTax := calculateStateTax(taxableIncome, h, table)

	irmaa := calculateIRMAA(magi, h, table)

	niit := calculateNIIT(agi, income.LongTermCapitalGains.Add(income.QualifiedDividends), h.FilingStatus, table)

	totalTax := federalTax.Add(stateTax).Add(irmaa.TotalAnnual).Add(niit)

	effectiveRate := zero
	if agi.GreaterThan(zero) {
		effectiveRate = totalTax.Div(agi)
	}

	return domain.TaxResult{
		TaxableSocialSecurity: taxableSS,
		AGI:                   agi,
		MAGI:                  magi,
		StandardDeduction:     stdDeduction,
		TaxableIncome:         taxableIncome,
		FederalTax:            federalTax,
		StateTax:              stateTax,
		IRMAA:                 irmaa,
		NIIT:                  niit,
		TotalTax:              totalTax,
		EffectiveRate:         effectiveRate,
		MarginalRate:          marginalRate,
	}
}

// calculateTaxableSocialSecurity implements the three-tier combined-income
// formula, parameterized by filing status rather than hardcoded to
// married-filing-jointly thresholds. The result never exceeds 85% of the
// gross benefit.
func calculateTaxableSocialSecurity(income domain.IncomeBreakdown, h domain.Household, table *brackets.Table) decimal.Decimal {
	ss := income.SocialSecurityGross
	if ss.IsZero() {
		return zero
	}

	provisional := income.OrdinaryIncome.
		Add(income.LongTermCapitalGains).
		Add(income.QualifiedDividends).
		Add(half.Mul(ss))

	thresholds := table.SSThresholdFor(h.FilingStatus)
	cap := percent85.Mul(ss)

	switch {
	case provisional.LessThanOrEqual(thresholds.Tier1):
		return zero
	case provisional.LessThanOrEqual(thresholds.Tier2):
		taxable := half.Mul(decimal.Min(ss, provisional.Sub(thresholds.Tier1)))
		return decimal.Min(taxable, cap)
	default:
		tier1Ceiling := half.Mul(decimal.Min(ss, thresholds.Tier2.Sub(thresholds.Tier1)))
		excess := provisional.Sub(thresholds.Tier2)
		taxable := tier1Ceiling.Add(percent85.Mul(excess))
		return decimal.Min(taxable, cap)
	}
}

// calculateFederalTax walks the ordinary-income brackets, then stacks
// preferential income (LTCG + qualified dividends) on top per the
// preferential-rate stacking rule, and returns the marginal rate applicable
// to the household's full taxable income.
func calculateFederalTax(taxableIncome, preferentialIncome decimal.Decimal, status domain.FilingStatus, table *brackets.Table) (decimal.Decimal, decimal.Decimal) {
	ordinaryPortion := taxableIncome.Sub(preferentialIncome)
	if ordinaryPortion.LessThan(zero) {
		ordinaryPortion = zero
	}

	ordinaryTax := walkBrackets(table.FederalBracketsFor(status), ordinaryPortion)
	ltcgTax := walkStackedBrackets(table.LTCGBracketsFor(status), ordinaryPortion, preferentialIncome)

	marginal := marginalRate(table.FederalBracketsFor(status), taxableIncome)

	return ordinaryTax.Add(ltcgTax), marginal
}

// walkBrackets applies a simple marginal bracket walk to an amount, assuming
// brackets are sorted ascending by Min and the last bracket has no upper
// bound.
func walkBrackets(bs []brackets.Bracket, amount decimal.Decimal) decimal.Decimal {
	if amount.LessThanOrEqual(zero) || len(bs) == 0 {
		return zero
	}
	total := zero
	for i, b := range bs {
		upper := decimal.NewFromInt(1 << 62) // effectively unbounded
		if i+1 < len(bs) {
			upper = bs[i+1].Min
		}
		if amount.LessThanOrEqual(b.Min) {
			break
		}
		taxableInBracket := decimal.Min(amount, upper).Sub(b.Min)
		if taxableInBracket.LessThan(zero) {
			continue
		}
		total = total.Add(taxableInBracket.Mul(b.Rate))
	}
	return total
}

// walkStackedBrackets taxes preferentialIncome against bs, but as if it sits
// on top of ordinaryPortion: the bracket occupied by the first dollar of
// preferential income is wherever ordinaryPortion lands, not bracket zero.
func walkStackedBrackets(bs []brackets.Bracket, ordinaryPortion, preferentialIncome decimal.Decimal) decimal.Decimal {
	if preferentialIncome.LessThanOrEqual(zero) || len(bs) == 0 {
		return zero
	}
	stackBottom := ordinaryPortion
	stackTop := ordinaryPortion.Add(preferentialIncome)

	total := zero
	for i, b := range bs {
		upper := decimal.NewFromInt(1 << 62)
		if i+1 < len(bs) {
			upper = bs[i+1].Min
		}
		lo := decimal.Max(stackBottom, b.Min)
		hi := decimal.Min(stackTop, upper)
		if hi.LessThanOrEqual(lo) {
			continue
		}
		total = total.Add(hi.Sub(lo).Mul(b.Rate))
	}
	return total
}

// marginalRate returns the rate of the topmost bracket whose threshold is at
// or below taxableIncome.
func marginalRate(bs []brackets.Bracket, taxableIncome decimal.Decimal) decimal.Decimal {
	if len(bs) == 0 {
		return zero
	}
	rate := bs[0].Rate
	for _, b := range bs {
		if taxableIncome.GreaterThanOrEqual(b.Min) {
			rate = b.Rate
		}
	}
	return rate
}

// calculateStateTax dispatches on the state's tagged rule variant.
func calculateStateTax(taxableIncome decimal.Decimal, h domain.Household, table *brackets.Table) decimal.Decimal {
	rule := table.StateRuleFor(h.State)
	switch rule.Kind {
	case brackets.StateFlat:
		if taxableIncome.LessThanOrEqual(zero) {
			return zero
		}
		return taxableIncome.Mul(rule.FlatRate)
	case brackets.StateProgressive:
		bs, ok := rule.Progressive[h.FilingStatus]
		if !ok {
			bs = rule.Progressive[domain.Single]
		}
		return walkBrackets(bs, taxableIncome)
	default:
		return zero
	}
}

// calculateIRMAA applies the Medicare surcharge ladder, multiplying the
// monthly per-person surcharges by the count of Medicare-eligible household
// members and annualizing.
func calculateIRMAA(magi decimal.Decimal, h domain.Household, table *brackets.Table) domain.IRMAAResult {
	eligible := h.MedicareEligibleCount()
	if eligible == 0 {
		return domain.IRMAAResult{MAGI: magi}
	}

	tier, idx := table.IRMAATierFor(magi, h.FilingStatus)
	count := decimal.NewFromInt(int64(eligible))
	monthlyTotal := tier.PartBMonthly.Add(tier.PartDMonthly).Mul(count)
	annual := monthlyTotal.Mul(decimal.NewFromInt(12))

	return domain.IRMAAResult{
		Tier:         idx,
		MAGI:         magi,
		PartBMonthly: tier.PartBMonthly,
		PartDMonthly: tier.PartDMonthly,
		TotalAnnual:  annual,
	}
}

// calculateNIIT applies the 3.8% net investment income tax above the
// filing-status threshold, against the lesser of investment income or the
// excess of AGI over the threshold.
func calculateNIIT(agi, investmentIncome decimal.Decimal, status domain.FilingStatus, table *brackets.Table) decimal.Decimal {
	threshold := table.NIITThresholdFor(status)
	if agi.LessThanOrEqual(threshold) {
		return zero
	}
	excess := agi.Sub(threshold)
	base := decimal.Min(investmentIncome, excess)
	if base.LessThan(zero) {
		return zero
	}
	return base.Mul(table.NIITRate)
}
