// Package rmd implements the required-minimum-distribution calculator: a
// single pure lookup against the IRS Uniform Lifetime Table, clamped above
// the table's highest tabulated age.
package rmd

import (
	"github.com/rgehrsitz/wealthplan/internal/brackets"
	"github.com/shopspring/decimal"
)

// RequiredDistribution returns the amount a household must withdraw from a
// tax-deferred bucket this year, given the account holder's age and the
// bucket's balance at the start of the year. Returns zero for anyone under
// 73; returns zero if the balance is zero or negative.
func RequiredDistribution(age int, balance decimal.Decimal, table *brackets.Table) decimal.Decimal {
	if balance.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	factor, ok := table.RMDFactor(age)
	if !ok || factor.IsZero() {
		return decimal.Zero
	}
	return balance.Div(factor)
}
