package rmd

import (
	"testing"

	"github.com/rgehrsitz/wealthplan/internal/brackets"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestZeroBeforeAge73(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	assert.True(t, RequiredDistribution(72, decimal.NewFromInt(500_000), table).IsZero())
}

func TestDivisorAt73(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	got := RequiredDistribution(73, decimal.NewFromInt(1_000_000), table)
	want := decimal.NewFromInt(1_000_000).Div(decimal.RequireFromString("26.5"))
	assert.True(t, got.Equal(want))
}

func TestClampsAbove100(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	at100 := RequiredDistribution(100, decimal.NewFromInt(100_000), table)
	at110 := RequiredDistribution(110, decimal.NewFromInt(100_000), table)
	assert.True(t, at100.Equal(at110))
}

func TestZeroBalanceYieldsZero(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	assert.True(t, RequiredDistribution(80, decimal.Zero, table).IsZero())
}

func TestRMDGrowsWithBalance(t *testing.T) {
	table := brackets.MustLoadEmbedded(2024)
	small := RequiredDistribution(80, decimal.NewFromInt(100_000), table)
	large := RequiredDistribution(80, decimal.NewFromInt(500_000), table)
	assert.True(t, large.GreaterThan(small))
}
