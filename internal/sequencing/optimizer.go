package sequencing

import (
	"fmt"

	"github.com/rgehrsitz/wealthplan/internal/brackets"
	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/rgehrsitz/wealthplan/internal/rmd"
	"github.com/rgehrsitz/wealthplan/internal/tax"
	"github.com/shopspring/decimal"
)

// Optimize runs the nine-phase withdrawal sequencing algorithm for one tax
// year: RMD seeding, gap computation, qualified charitable distribution,
// taxable-account draw with loss harvesting, tax-deferred draw, Roth draw,
// income synthesis against the tax engine, Roth-conversion sizing, and an
// advisory efficiency score.
//
// RMDs are computed against the primary holder's age (ages.Age1): the
// household's account buckets are a single aggregate balance sheet, not
// split per owner, so there is no way to apply one spouse's RMD schedule to
// only that spouse's share of a bucket. Two-owner households are therefore
// a simplification on the RMD side; see DESIGN.md.
func Optimize(h domain.Household, buckets domain.AccountBuckets, needs Needs, ages Ages, table *brackets.Table, opts Options) domain.WithdrawalPlan {
	withdrawals := map[domain.BucketType]decimal.Decimal{
		domain.BucketTaxable:         zero,
		domain.BucketTraditionalIRA:  zero,
		domain.BucketTraditional401k: zero,
		domain.BucketRothIRA:         zero,
	}
	var notes []string

	// Phase 1: RMD seeding.
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

	// Phase 3: qualified charitable distribution, capped at the lesser of
	// the household's charitable intent, the annual QCD ceiling, and the
	// traditional-IRA RMD.
	qcd := zero
	if needs.CharitableGiving.GreaterThan(zero) && rmdTrad.GreaterThan(zero) {
		qcd = decimal.Min(needs.CharitableGiving, decimal.Min(maxQCD, rmdTrad))
		remaining = remaining.Sub(qcd)
		if remaining.LessThan(zero) {
			remaining = zero
		}
		notes = append(notes, fmt.Sprintf("qcd %s applied against traditional IRA RMD", qcd.StringFixed(2)))
	}

	// Phase 4: taxable-account draw, with tax-loss harvesting against the
	// gain embedded in the draw.
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

	// Phase 5: tax-deferred draw beyond the RMD, traditional IRA first then
	// 401(k).
	availableTrad := buckets.TraditionalIRA.Sub(rmdTrad)
	drawTrad := decimal.Min(remaining, availableTrad)
	if drawTrad.GreaterThan(zero) {
		withdrawals[domain.BucketTraditionalIRA] = withdrawals[domain.BucketTraditionalIRA].Add(drawTrad)
		remaining = remaining.Sub(drawTrad)
	}
	available401k := buckets.Traditional401k.Sub(rmd401k)
	draw401k := decimal.Min(remaining, available401k)
	if draw401k.GreaterThan(zero) {
		withdrawals[domain.BucketTraditional401k] = withdrawals[domain.BucketTraditional401k].Add(draw401k)
		remaining = remaining.Sub(draw401k)
	}

	// Phase 6: Roth draw, gated by AllowRothWithdrawals.
	if opts.AllowRothWithdrawals {
		drawRoth := decimal.Min(remaining, buckets.RothIRA)
		withdrawals[domain.BucketRothIRA] = drawRoth
		remaining = remaining.Sub(drawRoth)
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

	// Phase 8: Roth-conversion optimizer, sized against remaining bracket
	// headroom. The future marginal rate used to judge whether a conversion
	// pays off is a scenario-level assumption, surfaced on the plan rather
	// than hardcoded, since no Monte Carlo path knows tomorrow's bracket
	// structure with any certainty.
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

	// Phase 9: advisory efficiency score.
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
