// Package sequencing implements the withdrawal sequencer: given a spending
// gap and a household's account buckets, decide which buckets to draw from,
// in what order, and how much Roth conversion (if any) makes sense against
// this year's bracket headroom.
package sequencing

import (
	"fmt"

	"github.com/rgehrsitz/wealthplan/internal/brackets"
	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/shopspring/decimal"
)

// Needs is the spending and income picture the sequencer fills a gap
// against for one tax year.
type Needs struct {
	TargetSpending       decimal.Decimal
	SocialSecurityIncome decimal.Decimal
	OtherOrdinaryIncome  decimal.Decimal // pensions, annuities, and similar non-SS ordinary income
	CharitableGiving     decimal.Decimal
	LossesAvailable      decimal.Decimal // unrealized losses available to harvest in the taxable bucket
}

// Ages carries the account holders' ages, used for RMD eligibility. RMDs are
// computed against Age1 only; neither strategy reads Age2.
type Ages struct {
	Age1 int
	Age2 int
}

// Options are the household-level sequencing knobs that don't change
// year to year.
type Options struct {
	AllowRothWithdrawals         bool
	RothConversionBudget         decimal.Decimal
	FutureMarginalRateAssumption decimal.Decimal
}

var zero = decimal.Zero

// maxQCD is the annual qualified-charitable-distribution cap.
var maxQCD = decimal.NewFromInt(105_000)

// Strategy is a withdrawal-sequencing algorithm: given a household's account
// buckets and a tax year's spending need, produce a withdrawal plan. Optimize
// (wrapped by StandardStrategy) is the default ordering; BracketFillStrategy
// is an alternate an advisor can opt into.
type Strategy interface {
	Name() string
	Plan(h domain.Household, buckets domain.AccountBuckets, needs Needs, ages Ages, table *brackets.Table, opts Options) domain.WithdrawalPlan
}

// StandardStrategy runs the nine-phase Optimize algorithm: RMD, QCD, taxable,
// tax-deferred, Roth, in that order.
type StandardStrategy struct{}

func NewStandardStrategy() *StandardStrategy { return &StandardStrategy{} }

func (s *StandardStrategy) Name() string { return "standard" }

func (s *StandardStrategy) Plan(h domain.Household, buckets domain.AccountBuckets, needs Needs, ages Ages, table *brackets.Table, opts Options) domain.WithdrawalPlan {
	return Optimize(h, buckets, needs, ages, table, opts)
}

// NewStrategy resolves a strategy by name: "standard" or "bracket_fill".
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "", "standard":
		return NewStandardStrategy(), nil
	case "bracket_fill":
		return NewBracketFillStrategy(), nil
	default:
		return nil, fmt.Errorf("sequencing: unrecognized strategy %q", name)
	}
}
