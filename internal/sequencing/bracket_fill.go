package sequencing

import (
	"fmt"

	"github.com/rgehrsitz/wealthplan/internal/brackets"
	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/rgehrsitz/wealthplan/internal/rmd"
	"github.com/rgehrsitz/wealthplan/internal/tax"
	"github.com/shopspring/decimal"
)

// BracketFillStrategy satisfies RMDs and QCD exactly like the standard
// strategy, but then covers the remaining spending gap with additional
// traditional-IRA withdrawals, up to the ceiling of the current federal
// bracket, before touching Roth or taxable money, so ordinary income is
// pulled forward into years it's cheap rather than deferred into a year it
// might not be. It never draws more than the remaining spending gap.
type BracketFillStrategy struct{}

func NewBracketFillStrategy() *BracketFillStrategy { return &BracketFillStrategy{} }

func (s *BracketFillStrategy) Name() string { return "bracket_fill" }

func (s *BracketFillStrategy) Plan(h domain.Household, buckets domain.AccountBuckets, needs Needs, ages Ages, table *brackets.Table, opts Options) domain.WithdrawalPlan {
	withdrawals := map[domain.BucketType]decimal.Decimal{
		domain.BucketTaxable:         zero,
		domain.BucketTraditionalIRA:  zero,
		domain.BucketTraditional401k: zero,
		domain.BucketRothIRA:         zero,
	}
	var notes []string

	// Phase 1: RMD seeding, identical to the standard strategy.
	rmdTrad := rmd.RequiredDistribution(ages.Age1, buckets.TraditionalIRA, table)
	rmd401k := rmd.RequiredDistribution(ages.Age1, buckets.Traditional401k, table)
	withdrawals[domain.BucketTraditionalIRA] = rmdTrad
	withdrawals[domain.BucketTraditional401k] = rmd401k
	rmds := map[domain.BucketType]decimal.Decimal{
		domain.BucketTraditionalIRA:  rmdTrad,
		domain.BucketTraditional401k: rmd401k,
	}

	// Phase 2: gap computation.
	otherIncome := needs.SocialSecurityIncome.Add(needs.OtherOrdinaryIncome).Add(rmdTrad).Add(rmd401k)
	remaining := needs.TargetSpending.Sub(otherIncome)
	if remaining.LessThan(zero) {
		remaining = zero
	}

	// Phase 3: qualified charitable distribution.
	qcd := zero
	if needs.CharitableGiving.GreaterThan(zero) && rmdTrad.GreaterThan(zero) {
		qcd = decimal.Min(needs.CharitableGiving, decimal.Min(maxQCD, rmdTrad))
		remaining = remaining.Sub(qcd)
		if remaining.LessThan(zero) {
			remaining = zero
		}
		notes = append(notes, fmt.Sprintf("qcd %s applied against traditional IRA RMD", qcd.StringFixed(2)))
	}

	// Phase 4: fill the current federal bracket with additional traditional
	// withdrawals, capped at the remaining spending gap, before drawing Roth
	// or taxable money. The baseline taxable
	// income used to size headroom is an estimate (ordinary income plus RMDs
	// already seeded, less the standard deduction and QCD), since the exact
	// figure isn't known until the tax engine runs in phase 7.
	ordinaryBaseline := needs.OtherOrdinaryIncome.Add(rmdTrad).Add(rmd401k).Sub(qcd)
	if ordinaryBaseline.LessThan(zero) {
		ordinaryBaseline = zero
	}
	baselineTaxable := ordinaryBaseline.Sub(table.StandardDeductionFor(h))
	if baselineTaxable.LessThan(zero) {
		baselineTaxable = zero
	}
	availableTrad := buckets.TraditionalIRA.Sub(rmdTrad)
	if remaining.GreaterThan(zero) && availableTrad.GreaterThan(zero) {
		headroom := bracketHeadroom(baselineTaxable, h.FilingStatus, table)
		fill := decimal.Min(remaining, decimal.Min(headroom, availableTrad))
		if fill.GreaterThan(zero) {
			withdrawals[domain.BucketTraditionalIRA] = withdrawals[domain.BucketTraditionalIRA].Add(fill)
			remaining = remaining.Sub(fill)
			notes = append(notes, fmt.Sprintf("bracket fill drew %s from traditional IRA", fill.StringFixed(2)))
		}
	}

	// Phase 5: Roth draw, gated by AllowRothWithdrawals, ahead of taxable.
	if opts.AllowRothWithdrawals && remaining.GreaterThan(zero) {
		drawRoth := decimal.Min(remaining, buckets.RothIRA)
		withdrawals[domain.BucketRothIRA] = drawRoth
		remaining = remaining.Sub(drawRoth)
	}

	// Phase 6: taxable draw last, with tax-loss harvesting against the gain
	// embedded in the draw.
	taxableDraw := decimal.Min(remaining, buckets.Taxable)
	withdrawals[domain.BucketTaxable] = taxableDraw
	remaining = remaining.Sub(taxableDraw)

	gainRatio := zero
	if buckets.Taxable.GreaterThan(zero) {
		unrealizedGain := buckets.Taxable.Sub(buckets.TaxableBasis)
		if unrealizedGain.GreaterThan(zero) {
			gainRatio = unrealizedGain.Div(buckets.Taxable)
		}
	}
	embeddedGain := taxableDraw.Mul(gainRatio)
	harvested := decimal.Min(needs.LossesAvailable, embeddedGain)
	if harvested.LessThan(zero) {
		harvested = zero
	}

	shortfall := remaining
	if shortfall.GreaterThan(zero) {
		notes = append(notes, fmt.Sprintf("shortfall of %s after exhausting available buckets", shortfall.StringFixed(2)))
	}

	// Phase 7: income synthesis and tax calculation.
	tradWithdrawn := withdrawals[domain.BucketTraditionalIRA].Add(withdrawals[domain.BucketTraditional401k])
	ordinary := needs.OtherOrdinaryIncome.Add(tradWithdrawn).Sub(qcd)
	if ordinary.LessThan(zero) {
		ordinary = zero
	}
	realizedGain := embeddedGain.Sub(harvested)
	if realizedGain.LessThan(zero) {
		realizedGain = zero
	}
	income := domain.IncomeBreakdown{
		OrdinaryIncome:       ordinary,
		LongTermCapitalGains: realizedGain,
		SocialSecurityGross:  needs.SocialSecurityIncome,
		RothDistributions:    withdrawals[domain.BucketRothIRA],
	}
	taxResult := tax.Calculate(income, h, table)

	// Phase 8: Roth-conversion optimizer, same mechanics as the standard
	// strategy.
	remainingTrad := buckets.TraditionalIRA.Sub(withdrawals[domain.BucketTraditionalIRA])
	conversionPlan := domain.RothConversionPlan{Recommendation: "skip"}
	if opts.RothConversionBudget.GreaterThan(zero) && remainingTrad.GreaterThan(zero) {
		headroom := bracketHeadroom(taxResult.TaxableIncome, h.FilingStatus, table)
		conversion := decimal.Min(opts.RothConversionBudget, decimal.Min(headroom, remainingTrad))
		if conversion.GreaterThan(zero) {
			additionalTax := conversion.Mul(taxResult.MarginalRate)
			futureRate := opts.FutureMarginalRateAssumption
			futureSavings := conversion.Mul(futureRate)
			recommendation := "skip"
			breakEven := decimal.Zero
			if futureSavings.GreaterThan(additionalTax) {
				recommendation = "convert"
				rateDelta := futureRate.Sub(taxResult.MarginalRate)
				if rateDelta.GreaterThan(zero) {
					breakEven = additionalTax.Div(conversion.Mul(rateDelta))
				}
			}
			conversionPlan = domain.RothConversionPlan{
				Amount:          conversion,
				AdditionalTax:   additionalTax,
				CurrentMarginal: taxResult.MarginalRate,
				FutureMarginal:  futureRate,
				BreakEvenYears:  breakEven,
				Recommendation:  recommendation,
			}
		}
	}

	// Phase 9: advisory efficiency score, same scoring rules as the standard
	// strategy; the bracket-fill draw itself earns no bonus.
	score := decimal.NewFromInt(100)
	var breakdown string
	if qcd.GreaterThan(zero) {
		score = score.Add(decimal.NewFromInt(10))
		breakdown += "+10 qcd "
	}
	if harvested.GreaterThan(zero) {
		score = score.Add(decimal.NewFromInt(5))
		breakdown += "+5 harvest "
	}
	if taxResult.AGI.GreaterThan(zero) {
		combinedRatePct := taxResult.FederalTax.Add(taxResult.StateTax).Div(taxResult.AGI).Mul(decimal.NewFromInt(100))
		if combinedRatePct.GreaterThan(decimal.NewFromInt(25)) {
			penalty := combinedRatePct.Sub(decimal.NewFromInt(25)).Mul(decimal.NewFromFloat(0.5))
			score = score.Sub(penalty)
			breakdown += fmt.Sprintf("-%s rate penalty ", penalty.StringFixed(1))
		}
	}
	if score.GreaterThan(decimal.NewFromInt(100)) {
		score = decimal.NewFromInt(100)
	}
	if score.LessThan(zero) {
		score = zero
	}

	return domain.WithdrawalPlan{
		Withdrawals:      withdrawals,
		RMDs:             rmds,
		QCDUsed:          qcd,
		TaxLossHarvested: harvested,
		RothConversion:   conversionPlan,
		Shortfall:        shortfall,
		EfficiencyScore:  score,
		ScoreBreakdown:   breakdown,
		Notes:            notes,
		Tax:              taxResult,
	}
}
