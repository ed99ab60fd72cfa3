package sequencing

import (
	"testing"

	"github.com/rgehrsitz/wealthplan/internal/brackets"
	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBracketFillNeverWithdrawsBelowRMDs(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	strategy := NewBracketFillStrategy()
	plan := strategy.Plan(household(), fullBuckets(), Needs{TargetSpending: decimal.NewFromInt(40_000)}, Ages{Age1: 75, Age2: 73}, table, Options{})
	for bucket, rmdAmt := range plan.RMDs {
		assert.True(t, plan.Withdrawals[bucket].GreaterThanOrEqual(rmdAmt))
	}
}

func TestBracketFillPrefersTraditionalOverTaxable(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	needs := Needs{TargetSpending: decimal.NewFromInt(60_000)}
	standard := Optimize(household(), fullBuckets(), needs, Ages{Age1: 75, Age2: 73}, table, Options{})
	bracketFill := NewBracketFillStrategy().Plan(household(), fullBuckets(), needs, Ages{Age1: 75, Age2: 73}, table, Options{})

	assert.True(t, bracketFill.Withdrawals[domain.BucketTraditionalIRA].GreaterThanOrEqual(standard.Withdrawals[domain.BucketTraditionalIRA]))
}

func TestBracketFillNoShortfallWithAmpleBalances(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	plan := NewBracketFillStrategy().Plan(household(), fullBuckets(), Needs{TargetSpending: decimal.NewFromInt(30_000)}, Ages{Age1: 75, Age2: 73}, table, Options{})
	assert.True(t, plan.Shortfall.IsZero())
}

func TestNewStrategyResolvesByName(t *testing.T) {
	standard, err := NewStrategy("standard")
	require.NoError(t, err)
	assert.Equal(t, "standard", standard.Name())

	bracketFill, err := NewStrategy("bracket_fill")
	require.NoError(t, err)
	assert.Equal(t, "bracket_fill", bracketFill.Name())

	_, err = NewStrategy("unknown")
	assert.Error(t, err)
}
