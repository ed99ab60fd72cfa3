// Package returns implements the return generator: the component that
// produces one portfolio return per simulated month, either as a single
// deterministic scalar or as a Cholesky-factored, correlated draw across
// multiple asset classes.
package returns

import (
	"fmt"
	"math"

	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"
)

// Generator produces this month's portfolio return and advances its
// internal state. A Generator is never shared across paths: each Monte
// Carlo path gets its own, seeded independently.
type Generator interface {
	Next() (decimal.Decimal, error)
}

// Deterministic always returns the same blended monthly mean, used for the
// single "project" (non-Monte-Carlo) run.
type Deterministic struct {
	monthly decimal.Decimal
}

// NewDeterministic builds a Deterministic generator from a scenario's scalar
// mean annual return.
func NewDeterministic(model domain.ReturnModel) *Deterministic {
	annual, _ := model.ScalarMean.Float64()
	monthly := math.Pow(1+annual, 1.0/12) - 1
	return &Deterministic{monthly: decimal.NewFromFloat(monthly)}
}

func (d *Deterministic) Next() (decimal.Decimal, error) {
	return d.monthly, nil
}

// SyntheticGBM is the geometric-Brownian-motion fallback used when no
// market-data covariance model is supplied. It neither sets nor reads the
// return model's Synthetic field, and the Monte Carlo result carries no flag
// marking a run as synthetic rather than market-calibrated.
type SyntheticGBM struct {
	meanMonthly float64
	volMonthly  float64
	rng         *pcg32
}

// NewSyntheticGBM builds a single-asset lognormal return generator seeded
// independently per path.
func NewSyntheticGBM(model domain.ReturnModel, seed int64) *SyntheticGBM {
	annualMean, _ := model.ScalarMean.Float64()
	annualVol, _ := model.ScalarVol.Float64()
	meanMonthly := annualMean / 12
	volMonthly := annualVol / math.Sqrt(12)
	return &SyntheticGBM{
		meanMonthly: meanMonthly,
		volMonthly:  volMonthly,
		rng:         newPCG32(seed),
	}
}

func (g *SyntheticGBM) Next() (decimal.Decimal, error) {
	z := g.rng.normFloat64()
	logReturn := g.meanMonthly - 0.5*g.volMonthly*g.volMonthly + g.volMonthly*z
	return decimal.NewFromFloat(math.Expm1(logReturn)), nil
}

// Stochastic draws a joint-Gaussian monthly return across multiple asset
// classes, correlated via a once-per-run Cholesky factorization of the
// annual covariance matrix, then dotted with the scenario's allocation
// weights.
type Stochastic struct {
	n           int
	lower       [][]float64 // lower-triangular Cholesky factor of the annual covariance
	meanMonthly []float64
	allocation  []float64
	rng         *pcg32
}

// NewStochastic builds a Stochastic generator for one Monte Carlo path. seed
// must be unique per path (base seed XOR path index) so paths are
// independent but individually reproducible.
func NewStochastic(model domain.ReturnModel, seed int64) (*Stochastic, error) {
	n := len(model.AssetClasses)
	if n == 0 {
		return nil, fmt.Errorf("returns: model has no asset classes")
	}
	if len(model.ExpectedReturns) != n || len(model.Allocation) != n || len(model.Covariance) != n {
		return nil, fmt.Errorf("returns: model dimensions do not match asset-class count")
	}

	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v, _ := model.Covariance[i][j].Float64()
			cov.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		// regularize the diagonal and retry, matching the teacher's
		// fallback when the covariance matrix isn't quite positive-definite
		// due to rounding in the input data.
		for i := 0; i < n; i++ {
			cov.SetSym(i, i, cov.At(i, i)+1e-10)
		}
		if ok := chol.Factorize(cov); !ok {
			return nil, fmt.Errorf("returns: covariance matrix is not positive-definite")
		}
	}

	var lowerDense mat.TriDense
	chol.LTo(&lowerDense)
	lower := make([][]float64, n)
	for i := 0; i < n; i++ {
		lower[i] = make([]float64, n)
		for j := 0; j <= i; j++ {
			lower[i][j] = lowerDense.At(i, j)
		}
	}

	meanMonthly := make([]float64, n)
	for i, m := range model.ExpectedReturns {
		v, _ := m.Float64()
		meanMonthly[i] = v / 12
	}

	allocation := make([]float64, n)
	for i, a := range model.Allocation {
		v, _ := a.Float64()
		allocation[i] = v
	}

	return &Stochastic{
		n:           n,
		lower:       lower,
		meanMonthly: meanMonthly,
		allocation:  allocation,
		rng:         newPCG32(seed),
	}, nil
}

func (s *Stochastic) Next() (decimal.Decimal, error) {
	z := make([]float64, s.n)
	for i := range z {
		z[i] = s.rng.normFloat64()
	}

	// correlated = lower * z, scaled from annual to monthly volatility by
	// dividing by sqrt(12).
	monthlyScale := 1.0 / math.Sqrt(12)
	portfolioReturn := 0.0
	for i := 0; i < s.n; i++ {
		shock := 0.0
		for j := 0; j <= i; j++ {
			shock += s.lower[i][j] * z[j]
		}
		assetReturn := s.meanMonthly[i] + shock*monthlyScale
		portfolioReturn += s.allocation[i] * assetReturn
	}

	if math.IsNaN(portfolioReturn) || math.IsInf(portfolioReturn, 0) {
		return decimal.Zero, domain.NewNumericDegeneracyError("non-finite portfolio return generated")
	}

	return decimal.NewFromFloat(portfolioReturn), nil
}

// New builds the appropriate generator for a return model: Stochastic when
// multiple asset classes with a covariance matrix are supplied, otherwise a
// scalar-mean generator (Deterministic or SyntheticGBM).
func New(model domain.ReturnModel, seed int64, stochastic bool) (Generator, error) {
	if len(model.AssetClasses) > 0 && stochastic {
		return NewStochastic(model, seed)
	}
	if stochastic {
		return NewSyntheticGBM(model, seed), nil
	}
	return NewDeterministic(model), nil
}
