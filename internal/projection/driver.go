// Package projection implements the projection driver: the monthly loop
// that ties the cash-flow aggregator, withdrawal sequencer, and return
// generator together into one deterministic, month-by-month run.
package projection

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/wealthplan/internal/brackets"
	"github.com/rgehrsitz/wealthplan/internal/cashflow"
	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/rgehrsitz/wealthplan/internal/returns"
	"github.com/rgehrsitz/wealthplan/internal/sequencing"
	"github.com/shopspring/decimal"
)

// Driver owns one run's mutable state: its balance sheet and its state-
// machine phase. Idle -> Running -> {Succeeded, Failed, Cancelled}.
type Driver struct {
	scenario domain.Scenario
	table    *brackets.Table
	gen      returns.Generator
	logger   domain.Logger
	strategy sequencing.Strategy

	state    domain.RunState
	balances domain.AccountBuckets
}

// New builds a driver for one scenario, against one bracket table and one
// return generator. The generator is the caller's choice: deterministic for
// "project", a freshly seeded stochastic generator per path for "simulate".
// The scenario's Assumptions.SequencingStrategy picks the withdrawal strategy
// ("standard" or "bracket_fill"); an unrecognized name falls back to standard
// with a warning rather than failing the run.
func New(scenario domain.Scenario, table *brackets.Table, gen returns.Generator, logger domain.Logger) *Driver {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	strategy, err := sequencing.NewStrategy(scenario.Assumptions.SequencingStrategy)
	if err != nil {
		logger.Warnf("%v; falling back to the standard sequencing strategy", err)
		strategy = sequencing.NewStandardStrategy()
	}
	return &Driver{
		scenario: scenario,
		table:    table,
		gen:      gen,
		logger:   logger,
		strategy: strategy,
		state:    domain.StateIdle,
		balances: scenario.Buckets,
	}
}

// State returns the driver's current run-state.
func (d *Driver) State() domain.RunState {
	return d.state
}

// Run executes the monthly loop for the scenario's full horizon. On
// cancellation, partial results are discarded; the caller only learns the
// run was cancelled.
func (d *Driver) Run(ctx context.Context) ([]domain.TimeSeriesRow, error) {
	d.state = domain.StateRunning
	rows := make([]domain.TimeSeriesRow, 0, d.scenario.Assumptions.HorizonMonths)

	var annualIncomeOrdinary, annualIncomeSS, annualExpenses decimal.Decimal

	for m := 0; m < d.scenario.Assumptions.HorizonMonths; m++ {
		select {
		case <-ctx.Done():
			d.state = domain.StateCancelled
			return nil, domain.NewCancelledError()
		default:
		}

		income, expenses := cashflow.MonthlyCashFlow(d.scenario.IncomeStreams, m, d.scenario.Assumptions.StartDate, d.scenario.Assumptions)
		ssPortion, ordinaryPortion := cashflow.IncomeByCharacter(d.scenario.IncomeStreams, m, d.scenario.Assumptions.StartDate, d.scenario.Assumptions)

		annualIncomeOrdinary = annualIncomeOrdinary.Add(ordinaryPortion)
		annualIncomeSS = annualIncomeSS.Add(ssPortion)
		annualExpenses = annualExpenses.Add(expenses)

		netCF := income.Sub(expenses)

		row := domain.TimeSeriesRow{
			MonthIndex:  m,
			Date:        d.scenario.Assumptions.StartDate.AddDate(0, m, 0),
			NetCashFlow: netCF,
		}

		isDecember := (m+1)%12 == 0
		if isDecember {
			needs := sequencing.Needs{
				TargetSpending:       annualExpenses,
				SocialSecurityIncome: annualIncomeSS,
				OtherOrdinaryIncome:  annualIncomeOrdinary,
				CharitableGiving:     d.scenario.Assumptions.AnnualCharitableGiving,
				LossesAvailable:      d.scenario.Assumptions.AnnualLossesAvailable,
			}
			opts := sequencing.Options{
				AllowRothWithdrawals:         d.scenario.Assumptions.AllowRothWithdrawals,
				RothConversionBudget:         d.scenario.Assumptions.RothConversionBudget,
				FutureMarginalRateAssumption: d.scenario.Assumptions.FutureMarginalRateAssumption,
			}
			ages := sequencing.Ages{Age1: d.scenario.Household.Age1, Age2: d.scenario.Household.Age2}

			plan := d.strategy.Plan(d.scenario.Household, d.balances, needs, ages, d.table, opts)

			d.applyPlan(plan)

			row.TotalWithdrawn = plan.TotalWithdrawn()
			row.FederalTax = plan.Tax.FederalTax
			row.StateTax = plan.Tax.StateTax
			row.IRMAASurcharge = plan.Tax.IRMAA.TotalAnnual
			row.NIITTax = plan.Tax.NIIT
			row.TotalTax = plan.Tax.TotalTax
			if plan.Shortfall.GreaterThan(decimal.Zero) {
				row.Notes = fmt.Sprintf("shortfall %s", plan.Shortfall.StringFixed(2))
			}

			d.balances.Taxable = d.balances.Taxable.Sub(plan.Tax.TotalTax)

			annualIncomeOrdinary = decimal.Zero
			annualIncomeSS = decimal.Zero
			annualExpenses = decimal.Zero
		} else if netCF.GreaterThan(decimal.Zero) {
			d.balances.Taxable = d.balances.Taxable.Add(netCF)
		}

		monthlyReturn, err := d.gen.Next()
		if err != nil {
			d.state = domain.StateFailed
			return nil, err
		}
		uplift := d.scenario.Assumptions.TaxAlpha.Div(decimal.NewFromInt(12))
		growthRate := monthlyReturn.Add(uplift)

		d.grow(growthRate)
		d.balances = d.balances.ClampFloor()

		row.Balances = d.balances
		row.Depleted = d.balances.Depleted()
		rows = append(rows, row)
	}

	d.state = domain.StateSucceeded
	return rows, nil
}

func (d *Driver) grow(rate decimal.Decimal) {
	factor := decimal.NewFromInt(1).Add(rate)
	d.balances.Taxable = d.balances.Taxable.Mul(factor)
	d.balances.TraditionalIRA = d.balances.TraditionalIRA.Mul(factor)
	d.balances.Traditional401k = d.balances.Traditional401k.Mul(factor)
	d.balances.RothIRA = d.balances.RothIRA.Mul(factor)
	d.balances.HSA = d.balances.HSA.Mul(factor)
}

func (d *Driver) applyPlan(plan domain.WithdrawalPlan) {
	d.balances.Taxable = d.balances.Taxable.Sub(plan.Withdrawals[domain.BucketTaxable])
	d.balances.TraditionalIRA = d.balances.TraditionalIRA.Sub(plan.Withdrawals[domain.BucketTraditionalIRA])
	d.balances.Traditional401k = d.balances.Traditional401k.Sub(plan.Withdrawals[domain.BucketTraditional401k])
	d.balances.RothIRA = d.balances.RothIRA.Sub(plan.Withdrawals[domain.BucketRothIRA])

	if plan.RothConversion.Amount.GreaterThan(decimal.Zero) {
		d.balances.TraditionalIRA = d.balances.TraditionalIRA.Sub(plan.RothConversion.Amount)
		d.balances.RothIRA = d.balances.RothIRA.Add(plan.RothConversion.Amount)
	}
}
