// Package montecarlo implements the Monte Carlo orchestrator: running many
// independent projection-driver paths under correlated or scalar stochastic
// returns and aggregating their terminal outcomes into a success-rate and
// percentile summary.
package montecarlo

import (
	"context"
	"runtime"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rgehrsitz/wealthplan/internal/brackets"
	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/rgehrsitz/wealthplan/internal/projection"
	"github.com/rgehrsitz/wealthplan/internal/returns"
	"github.com/shopspring/decimal"
)

// successThreshold is the minimum fraction of paths that must survive the
// full horizon without depleting every bucket for a run to be reported
// without a numeric-degeneracy warning.
const successThreshold = 0.99

// ProgressFunc is invoked from the aggregating goroutine, never from a path
// worker, so a slow or blocking callback can never stall a worker.
type ProgressFunc func(completed, total int)

// Options configures a simulation run.
type Options struct {
	Paths    int
	Workers  int
	Logger   domain.Logger
	Progress ProgressFunc
}

type pathOutcome struct {
	index    int
	terminal decimal.Decimal
	depleted bool
	survived int
	doubled  bool
	rows     []domain.TimeSeriesRow
	err      error
}

// Simulate runs opts.Paths independent projections of scenario, each seeded
// deterministically from scenario.Assumptions.Seed XOR the path index, and
// aggregates their terminal balances into a SimulationResult.
func Simulate(ctx context.Context, scenario domain.Scenario, table *brackets.Table, opts Options) (*domain.SimulationResult, error) {
	if opts.Paths <= 0 {
		opts.Paths = 1000
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
		if workers < 1 {
			workers = 1
		}
	}
	logger := opts.Logger
	if logger == nil {
		logger = domain.NopLogger{}
	}

	starting := scenario.Buckets.Total()

	jobs := make(chan int)
	results := make(chan pathOutcome)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- runPath(ctx, scenario, table, idx)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < opts.Paths; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	terminals := make([]decimal.Decimal, 0, opts.Paths)
	var depletedCount, doubledCount, preservedCount, failedCount, completed int
	var referenceRows []domain.TimeSeriesRow

	for outcome := range results {
		completed++
		if outcome.err != nil {
			// A single path's numeric failure doesn't abort the run: it is
			// logged and folded in as a depleted outcome. The run only fails
			// outright once failures exceed the numeric-degeneracy tolerance.
			failedCount++
			logger.Warnf("path %d failed, treating as depleted: %v", outcome.index, outcome.err)
			terminals = append(terminals, decimal.Zero)
			depletedCount++
			if opts.Progress != nil && completed%1000 == 0 {
				opts.Progress(completed, opts.Paths)
			}
			continue
		}
		terminals = append(terminals, outcome.terminal)
		if outcome.depleted {
			depletedCount++
		}
		if outcome.doubled {
			doubledCount++
		}
		if outcome.terminal.GreaterThanOrEqual(starting) {
			preservedCount++
		}
		if outcome.index == 0 {
			referenceRows = outcome.rows
		}
		if opts.Progress != nil && completed%1000 == 0 {
			opts.Progress(completed, opts.Paths)
		}
	}

	if ctx.Err() != nil {
		return nil, domain.NewCancelledError()
	}

	n := len(terminals)
	if n == 0 {
		return nil, domain.NewNumericDegeneracyError("all %d paths failed before producing a terminal balance", opts.Paths)
	}

	failureFraction := decimal.NewFromInt(int64(failedCount)).Div(decimal.NewFromInt(int64(n)))
	if failureFraction.GreaterThan(decimal.NewFromFloat(1-successThreshold)) {
		return nil, domain.NewNumericDegeneracyError("%d of %d paths failed (%s), above the %.0f%% tolerance", failedCount, n, failureFraction.StringFixed(4), (1-successThreshold)*100)
	}

	sort.Slice(terminals, func(i, j int) bool { return terminals[i].LessThan(terminals[j]) })

	result := &domain.SimulationResult{
		RunID:         uuid.NewString(),
		N:             n,
		HorizonMonths: scenario.Assumptions.HorizonMonths,
		SuccessRate:   decimal.NewFromInt(int64(n - depletedCount)).Div(decimal.NewFromInt(int64(n))),
		PDepleted:     decimal.NewFromInt(int64(depletedCount)).Div(decimal.NewFromInt(int64(n))),
		PDoubled:      decimal.NewFromInt(int64(doubledCount)).Div(decimal.NewFromInt(int64(n))),
		PPreserved:    decimal.NewFromInt(int64(preservedCount)).Div(decimal.NewFromInt(int64(n))),
		P5:            percentile(terminals, 0.05),
		P50:           percentile(terminals, 0.50),
		P95:           percentile(terminals, 0.95),
		AverageEnding: average(terminals),
		ReferencePath: referenceRows,
	}

	if result.SuccessRate.LessThan(decimal.NewFromFloat(successThreshold)) {
		logger.Warnf("success rate %s below the %.0f%% numeric-degeneracy tolerance", result.SuccessRate.StringFixed(4), successThreshold*100)
	}

	return result, nil
}

func runPath(ctx context.Context, scenario domain.Scenario, table *brackets.Table, index int) pathOutcome {
	pathScenario := scenario
	seed := scenario.Assumptions.Seed ^ int64(index)

	gen, err := returns.New(pathScenario.Returns, seed, true)
	if err != nil {
		return pathOutcome{index: index, err: err}
	}

	driver := projection.New(pathScenario, table, gen, nil)
	rows, err := driver.Run(ctx)
	if err != nil {
		return pathOutcome{index: index, err: err}
	}

	last := rows[len(rows)-1]
	starting := scenario.Buckets.Total()
	survived := len(rows)
	for i, r := range rows {
		if r.Depleted {
			survived = i + 1
			break
		}
	}

	outcome := pathOutcome{
		index:    index,
		terminal: last.Balances.Total(),
		depleted: last.Depleted,
		survived: survived,
		doubled:  last.Balances.Total().GreaterThanOrEqual(starting.Mul(decimal.NewFromInt(2))),
	}
	if index == 0 {
		outcome.rows = rows
	}
	return outcome
}

// percentile returns the floor-indexed percentile of an ascending-sorted
// slice: index = floor(p * (n-1)), never interpolated between neighbors.
// This diverges deliberately from an interpolated percentile: with a fixed
// seed the reported percentile must always land on an actually observed
// path's terminal value.
func percentile(sorted []decimal.Decimal, p float64) decimal.Decimal {
	n := len(sorted)
	if n == 0 {
		return decimal.Zero
	}
	idx := int(p * float64(n-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}

func average(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total.Div(decimal.NewFromInt(int64(len(values))))
}
