// Package brackets holds the immutable, tax-year-tagged reference tables the
// tax engine and RMD calculator look values up in: federal and
// long-term-capital-gains brackets, standard deductions, IRMAA tiers, state
// rules, Social-Security taxability thresholds, NIIT thresholds, and the IRS
// Uniform Lifetime Table. Everything here is loaded once and never mutated.
package brackets

import (
	"fmt"

	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/shopspring/decimal"
)

// Bracket is one marginal-rate tier. Min is the lower bound (inclusive); the
// upper bound is implied by the next bracket in the slice.
type Bracket struct {
	Min  decimal.Decimal `yaml:"min"`
	Rate decimal.Decimal `yaml:"rate"`
}

// FilingBrackets keys a set of brackets by filing status.
type FilingBrackets map[domain.FilingStatus][]Bracket

// IRMAATier is one rung of the Medicare surcharge ladder. Unbounded marks the
// top tier, the fallthrough the spec calls the Infinity sentinel.
type IRMAATier struct {
	Unbounded       bool            `yaml:"unbounded"`
	CeilingSingle   decimal.Decimal `yaml:"ceiling_single"`
	CeilingJoint    decimal.Decimal `yaml:"ceiling_joint"`
	PartBMonthly    decimal.Decimal `yaml:"part_b_monthly"`
	PartDMonthly    decimal.Decimal `yaml:"part_d_monthly"`
}

// Ceiling returns the MAGI ceiling that applies for the given filing status.
// Married-filing-separate households use the single ceiling: IRMAA does not
// grant MFS its own, wider ladder.
func (t IRMAATier) Ceiling(status domain.FilingStatus) decimal.Decimal {
	if status == domain.MarriedFilingJoint {
		return t.CeilingJoint
	}
	return t.CeilingSingle
}

// StateRuleKind is the tagged variant a state's rule implements.
type StateRuleKind string

const (
	StateNone        StateRuleKind = "none"
	StateFlat        StateRuleKind = "flat"
	StateProgressive StateRuleKind = "progressive"
)

// StateRule is one state's income-tax treatment.
type StateRule struct {
	Kind        StateRuleKind  `yaml:"kind"`
	FlatRate    decimal.Decimal `yaml:"flat_rate"`
	Progressive FilingBrackets `yaml:"progressive"`
}

// SSThreshold is the two-tier Social-Security taxability threshold pair for
// one filing status.
type SSThreshold struct {
	Tier1 decimal.Decimal `yaml:"tier1"`
	Tier2 decimal.Decimal `yaml:"tier2"`
}

// Table is the complete tagged snapshot of reference data for one
// (jurisdiction-agnostic federal, jurisdiction-specific state) tax year.
type Table struct {
	TaxYear int `yaml:"tax_year"`
	Version string `yaml:"version"`

	Federal FilingBrackets `yaml:"federal"`
	LTCG    FilingBrackets `yaml:"ltcg"`

	StandardDeduction         map[domain.FilingStatus]decimal.Decimal `yaml:"standard_deduction"`
	AdditionalDeductionSenior map[domain.FilingStatus]decimal.Decimal `yaml:"additional_deduction_senior"`

	IRMAATiers []IRMAATier `yaml:"irmaa_tiers"`

	NIITThreshold map[domain.FilingStatus]decimal.Decimal `yaml:"niit_threshold"`
	NIITRate      decimal.Decimal                         `yaml:"niit_rate"`

	SSThresholds map[domain.FilingStatus]SSThreshold `yaml:"ss_thresholds"`

	StateRules map[string]StateRule `yaml:"state_rules"`

	RMDFactors map[int]decimal.Decimal `yaml:"rmd_factors"`
}

// FederalBracketsFor returns the federal brackets for a filing status,
// falling back to Single if the status is unrecognized.
func (t *Table) FederalBracketsFor(status domain.FilingStatus) []Bracket {
	if b, ok := t.Federal[status]; ok {
		return b
	}
	return t.Federal[domain.Single]
}

// LTCGBracketsFor mirrors FederalBracketsFor for the capital-gains ladder.
func (t *Table) LTCGBracketsFor(status domain.FilingStatus) []Bracket {
	if b, ok := t.LTCG[status]; ok {
		return b
	}
	return t.LTCG[domain.Single]
}

// StandardDeductionFor computes the full standard deduction for a household,
// base amount plus the per-senior additional deduction.
func (t *Table) StandardDeductionFor(h domain.Household) decimal.Decimal {
	base, ok := t.StandardDeduction[h.FilingStatus]
	if !ok {
		base = t.StandardDeduction[domain.Single]
	}
	additional, ok := t.AdditionalDeductionSenior[h.FilingStatus]
	if !ok {
		additional = t.AdditionalDeductionSenior[domain.Single]
	}
	seniors := decimal.NewFromInt(int64(h.SeniorCount()))
	return base.Add(additional.Mul(seniors))
}

// NIITThresholdFor returns the NIIT AGI threshold for a filing status.
func (t *Table) NIITThresholdFor(status domain.FilingStatus) decimal.Decimal {
	if v, ok := t.NIITThreshold[status]; ok {
		return v
	}
	return t.NIITThreshold[domain.Single]
}

// SSThresholdFor returns the Social-Security taxability thresholds for a
// filing status.
func (t *Table) SSThresholdFor(status domain.FilingStatus) SSThreshold {
	if v, ok := t.SSThresholds[status]; ok {
		return v
	}
	return t.SSThresholds[domain.Single]
}

// StateRuleFor looks up a state's rule by two-letter code, falling back to
// StateNone for any state not tabulated (treated as no state income tax).
func (t *Table) StateRuleFor(code string) StateRule {
	if r, ok := t.StateRules[code]; ok {
		return r
	}
	return StateRule{Kind: StateNone}
}

// IRMAATierFor walks the tier ladder ascending and returns the first tier
// whose ceiling is greater than or equal to MAGI, using strict
// less-than-or-equal semantics and falling through to the Unbounded tier if
// every finite ceiling is exceeded.
func (t *Table) IRMAATierFor(magi decimal.Decimal, status domain.FilingStatus) (IRMAATier, int) {
	for i, tier := range t.IRMAATiers {
		if tier.Unbounded || magi.LessThanOrEqual(tier.Ceiling(status)) {
			return tier, i + 1
		}
	}
	if len(t.IRMAATiers) == 0 {
		return IRMAATier{}, 0
	}
	last := t.IRMAATiers[len(t.IRMAATiers)-1]
	return last, len(t.IRMAATiers)
}

// RMDFactor returns the Uniform Lifetime Table divisor for an age, clamping
// to the table's highest tabulated age for anyone older.
func (t *Table) RMDFactor(age int) (decimal.Decimal, bool) {
	if age < 73 {
		return decimal.Zero, false
	}
	if f, ok := t.RMDFactors[age]; ok {
		return f, true
	}
	maxAge := 0
	for a := range t.RMDFactors {
		if a > maxAge {
			maxAge = a
		}
	}
	if age > maxAge && maxAge > 0 {
		return t.RMDFactors[maxAge], true
	}
	return decimal.Zero, false
}

// Validate does a basic sanity pass over a loaded table, used right after
// YAML parsing so a malformed bracket file fails fast with a clear error
// rather than producing silently wrong tax results later.
func (t *Table) Validate() error {
	if t.TaxYear == 0 {
		return fmt.Errorf("bracket table: missing tax_year")
	}
	if len(t.Federal) == 0 {
		return fmt.Errorf("bracket table: missing federal brackets")
	}
	if len(t.RMDFactors) == 0 {
		return fmt.Errorf("bracket table: missing rmd_factors")
	}
	return nil
}
