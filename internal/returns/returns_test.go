package returns

import (
	"testing"

	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeterministicReturnsConstantEachMonth(t *testing.T) {
	gen := NewDeterministic(domain.ReturnModel{ScalarMean: decimal.NewFromFloat(0.06)})
	a, _ := gen.Next()
	b, _ := gen.Next()
	assert.True(t, a.Equal(b))
	assert.True(t, a.GreaterThan(decimal.Zero))
}

func TestSameSeedProducesSameSequence(t *testing.T) {
	model := domain.ReturnModel{ScalarMean: decimal.NewFromFloat(0.06), ScalarVol: decimal.NewFromFloat(0.15)}
	a := NewSyntheticGBM(model, 42)
	b := NewSyntheticGBM(model, 42)
	for i := 0; i < 12; i++ {
		av, _ := a.Next()
		bv, _ := b.Next()
		assert.True(t, av.Equal(bv))
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	model := domain.ReturnModel{ScalarMean: decimal.NewFromFloat(0.06), ScalarVol: decimal.NewFromFloat(0.15)}
	a := NewSyntheticGBM(model, 1)
	b := NewSyntheticGBM(model, 2)
	av, _ := a.Next()
	bv, _ := b.Next()
	assert.False(t, av.Equal(bv))
}

func twoAssetModel() domain.ReturnModel {
	return domain.ReturnModel{
		AssetClasses:    []string{"stocks", "bonds"},
		ExpectedReturns: []decimal.Decimal{decimal.NewFromFloat(0.08), decimal.NewFromFloat(0.03)},
		Covariance: [][]decimal.Decimal{
			{decimal.NewFromFloat(0.0324), decimal.NewFromFloat(0.001)},
			{decimal.NewFromFloat(0.001), decimal.NewFromFloat(0.0025)},
		},
		Allocation: []decimal.Decimal{decimal.NewFromFloat(0.6), decimal.NewFromFloat(0.4)},
	}
}

func TestStochasticFactorizesCovarianceAndDraws(t *testing.T) {
	gen, err := NewStochastic(twoAssetModel(), 7)
	require.NoError(t, err)
	r, err := gen.Next()
	require.NoError(t, err)
	assert.True(t, r.Abs().LessThan(decimal.NewFromFloat(1.0)))
}

func TestStochasticSameSeedReproducible(t *testing.T) {
	a, err := NewStochastic(twoAssetModel(), 99)
	require.NoError(t, err)
	b, err := NewStochastic(twoAssetModel(), 99)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		av, _ := a.Next()
		bv, _ := b.Next()
		assert.True(t, av.Equal(bv))
	}
}

func TestStochasticRejectsDimensionMismatch(t *testing.T) {
	model := twoAssetModel()
	model.Allocation = []decimal.Decimal{decimal.NewFromFloat(1.0)}
	_, err := NewStochastic(model, 1)
	assert.Error(t, err)
}

func TestNewDispatchesOnModelShape(t *testing.T) {
	gen, err := New(twoAssetModel(), 1, true)
	require.NoError(t, err)
	_, ok := gen.(*Stochastic)
	assert.True(t, ok)

	gen, err = New(domain.ReturnModel{ScalarMean: decimal.NewFromFloat(0.05)}, 1, false)
	require.NoError(t, err)
	_, ok = gen.(*Deterministic)
	assert.True(t, ok)
}
