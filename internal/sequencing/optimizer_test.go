package sequencing

import (
	"testing"

	"github.com/rgehrsitz/wealthplan/internal/brackets"
	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func household() domain.Household {
	return domain.Household{State: "TX", FilingStatus: domain.MarriedFilingJoint, Age1: 75, Age2: 73, HasSpouse: true}
}

func fullBuckets() domain.AccountBuckets {
	return domain.AccountBuckets{
		Taxable:         decimal.NewFromInt(200_000),
		TaxableBasis:    decimal.NewFromInt(140_000),
		TraditionalIRA:  decimal.NewFromInt(500_000),
		Traditional401k: decimal.NewFromInt(100_000),
		RothIRA:         decimal.NewFromInt(150_000),
	}
}

func TestWithdrawalsNeverBelowRMDs(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	plan := Optimize(household(), fullBuckets(), Needs{TargetSpending: decimal.NewFromInt(10_000)}, Ages{Age1: 75, Age2: 73}, table, Options{})
	for bucket, rmdAmt := range plan.RMDs {
		assert.True(t, plan.Withdrawals[bucket].GreaterThanOrEqual(rmdAmt))
	}
}

func TestRothDisallowedYieldsZeroRothWithdrawal(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	needs := Needs{TargetSpending: decimal.NewFromInt(900_000)}
	plan := Optimize(household(), fullBuckets(), needs, Ages{Age1: 75, Age2: 73}, table, Options{AllowRothWithdrawals: false})
	assert.True(t, plan.Withdrawals[domain.BucketRothIRA].IsZero())
}

func TestRothAllowedDrawsWhenNeeded(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	needs := Needs{TargetSpending: decimal.NewFromInt(900_000)}
	plan := Optimize(household(), fullBuckets(), needs, Ages{Age1: 75, Age2: 73}, table, Options{AllowRothWithdrawals: true})
	assert.True(t, plan.Withdrawals[domain.BucketRothIRA].GreaterThan(decimal.Zero))
}

func TestQCDCappedByRMDAndAnnualCeiling(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	needs := Needs{TargetSpending: decimal.NewFromInt(10_000), CharitableGiving: decimal.NewFromInt(200_000)}
	plan := Optimize(household(), fullBuckets(), needs, Ages{Age1: 75, Age2: 73}, table, Options{})
	rmdTrad := plan.RMDs[domain.BucketTraditionalIRA]
	assert.True(t, plan.QCDUsed.LessThanOrEqual(rmdTrad))
	assert.True(t, plan.QCDUsed.LessThanOrEqual(decimal.NewFromInt(105_000)))
}

func TestNoShortfallWhenBucketsSufficientAndRothAllowed(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	needs := Needs{TargetSpending: decimal.NewFromInt(50_000)}
	plan := Optimize(household(), fullBuckets(), needs, Ages{Age1: 75, Age2: 73}, table, Options{AllowRothWithdrawals: true})
	assert.True(t, plan.Shortfall.IsZero())
}

func TestShortfallWhenBucketsExhausted(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	small := domain.AccountBuckets{Taxable: decimal.NewFromInt(1_000)}
	needs := Needs{TargetSpending: decimal.NewFromInt(50_000)}
	plan := Optimize(household(), small, needs, Ages{Age1: 68, Age2: 66}, table, Options{AllowRothWithdrawals: true})
	assert.True(t, plan.Shortfall.GreaterThan(decimal.Zero))
}

func TestEfficiencyScoreWithinBounds(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	needs := Needs{TargetSpending: decimal.NewFromInt(50_000)}
	plan := Optimize(household(), fullBuckets(), needs, Ages{Age1: 75, Age2: 73}, table, Options{})
	assert.True(t, plan.EfficiencyScore.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, plan.EfficiencyScore.LessThanOrEqual(decimal.NewFromInt(100)))
}

func TestNoBucketDrawnBelowZero(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	needs := Needs{TargetSpending: decimal.NewFromInt(900_000)}
	plan := Optimize(household(), fullBuckets(), needs, Ages{Age1: 75, Age2: 73}, table, Options{AllowRothWithdrawals: true})
	assert.True(t, plan.Withdrawals[domain.BucketTaxable].LessThanOrEqual(fullBuckets().Taxable))
	assert.True(t, plan.Withdrawals[domain.BucketRothIRA].LessThanOrEqual(fullBuckets().RothIRA))
}
