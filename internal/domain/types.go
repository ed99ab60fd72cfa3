// Package domain holds the shared types passed between the tax engine,
// sequencer, cash-flow aggregator, return generator, projection driver, and
// Monte Carlo orchestrator. None of these types carry behavior that belongs
// to a single component; they are the nouns the rest of the module agrees on.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FilingStatus is the household's federal filing status.
type FilingStatus string

const (
	Single                FilingStatus = "single"
	MarriedFilingJoint    FilingStatus = "married_joint"
	MarriedFilingSeparate FilingStatus = "married_separate"
	HeadOfHousehold       FilingStatus = "head_of_household"
)

// BucketType names an account bucket. Kept as a tagged string rather than a
// polymorphic account hierarchy, matching the spec's Design Notes.
type BucketType string

const (
	BucketTaxable          BucketType = "taxable"
	BucketTraditionalIRA   BucketType = "ira_traditional"
	BucketTraditional401k  BucketType = "401k_traditional"
	BucketRothIRA          BucketType = "ira_roth"
	BucketHSA              BucketType = "hsa"
)

// Household is the tax and age context a scenario is projected against.
type Household struct {
	State        string       `yaml:"state"`
	FilingStatus FilingStatus `yaml:"filing_status"`
	Age1         int          `yaml:"age1"`
	Age2         int          `yaml:"age2"` // zero when there is no second filer
	HasSpouse    bool         `yaml:"has_spouse"`
}

// MedicareEligibleCount returns how many household members are 65 or older,
// the multiplier IRMAA surcharges are applied against.
func (h Household) MedicareEligibleCount() int {
	n := 0
	if h.Age1 >= 65 {
		n++
	}
	if h.HasSpouse && h.Age2 >= 65 {
		n++
	}
	return n
}

// SeniorCount returns how many filers are 65 or older, for the additional
// standard deduction.
func (h Household) SeniorCount() int {
	n := 0
	if h.Age1 >= 65 {
		n++
	}
	if h.HasSpouse && h.Age2 >= 65 {
		n++
	}
	return n
}

// AccountBuckets is the household's balance sheet, one scalar per bucket.
// Deliberately flat rather than per-owner: the spec models a household's
// withdrawal sequencing, not each spouse's individual accounts.
type AccountBuckets struct {
	Taxable         decimal.Decimal `yaml:"taxable"`
	TaxableBasis    decimal.Decimal `yaml:"taxable_basis"` // cost basis of the taxable bucket, for gain-ratio withdrawals
	TraditionalIRA  decimal.Decimal `yaml:"traditional_ira"`
	Traditional401k decimal.Decimal `yaml:"traditional_401k"`
	RothIRA         decimal.Decimal `yaml:"roth_ira"`
	HSA             decimal.Decimal `yaml:"hsa"`
}

// Total sums every bucket.
func (b AccountBuckets) Total() decimal.Decimal {
	return b.Taxable.Add(b.TraditionalIRA).Add(b.Traditional401k).Add(b.RothIRA).Add(b.HSA)
}

// ClampFloor returns a copy with every bucket floored at zero.
func (b AccountBuckets) ClampFloor() AccountBuckets {
	zero := decimal.Zero
	floor := func(d decimal.Decimal) decimal.Decimal {
		if d.LessThan(zero) {
			return zero
		}
		return d
	}
	b.Taxable = floor(b.Taxable)
	b.TraditionalIRA = floor(b.TraditionalIRA)
	b.Traditional401k = floor(b.Traditional401k)
	b.RothIRA = floor(b.RothIRA)
	b.HSA = floor(b.HSA)
	return b
}

// Depleted reports whether every bucket is exhausted.
func (b AccountBuckets) Depleted() bool {
	return b.Taxable.IsZero() && b.TraditionalIRA.IsZero() && b.Traditional401k.IsZero() &&
		b.RothIRA.IsZero() && b.HSA.IsZero()
}

// IncomeBreakdown is the pre-tax income picture for a single tax year, the
// input to the tax engine.
type IncomeBreakdown struct {
	OrdinaryIncome        decimal.Decimal
	LongTermCapitalGains  decimal.Decimal
	QualifiedDividends    decimal.Decimal
	SocialSecurityGross   decimal.Decimal
	RothDistributions     decimal.Decimal // tax-free, never enters AGI
	MunicipalBondInterest decimal.Decimal // excluded from AGI, added back for MAGI
}

// IRMAAResult is the Medicare surcharge outcome for a tax year.
type IRMAAResult struct {
	Tier        int
	MAGI        decimal.Decimal
	PartBMonthly decimal.Decimal
	PartDMonthly decimal.Decimal
	TotalAnnual decimal.Decimal
}

// TaxResult is the complete output of the tax engine for one household-year.
type TaxResult struct {
	TaxableSocialSecurity decimal.Decimal
	AGI                   decimal.Decimal
	MAGI                  decimal.Decimal
	StandardDeduction     decimal.Decimal
	TaxableIncome         decimal.Decimal
	FederalTax            decimal.Decimal
	StateTax              decimal.Decimal
	IRMAA                 IRMAAResult
	NIIT                  decimal.Decimal
	TotalTax              decimal.Decimal
	EffectiveRate         decimal.Decimal
	MarginalRate          decimal.Decimal
}

// RothConversionPlan is the optional Roth-conversion recommendation produced
// during withdrawal sequencing.
type RothConversionPlan struct {
	Amount           decimal.Decimal
	AdditionalTax    decimal.Decimal
	CurrentMarginal  decimal.Decimal
	FutureMarginal   decimal.Decimal
	BreakEvenYears   decimal.Decimal
	Recommendation   string // "convert" or "skip"
}

// WithdrawalPlan is the output of one year's withdrawal sequencing pass.
type WithdrawalPlan struct {
	Withdrawals      map[BucketType]decimal.Decimal
	RMDs             map[BucketType]decimal.Decimal
	QCDUsed          decimal.Decimal
	TaxLossHarvested decimal.Decimal
	RothConversion   RothConversionPlan
	Shortfall        decimal.Decimal
	EfficiencyScore  decimal.Decimal
	ScoreBreakdown   string
	Notes            []string
	Tax              TaxResult
}

// TotalWithdrawn sums every bucket's withdrawal for the year.
func (p WithdrawalPlan) TotalWithdrawn() decimal.Decimal {
	total := decimal.Zero
	for _, v := range p.Withdrawals {
		total = total.Add(v)
	}
	return total
}

// StreamFrequency is how often a cash-flow stream contributes.
type StreamFrequency string

const (
	Monthly  StreamFrequency = "monthly"
	Quarterly StreamFrequency = "quarterly"
	Annual   StreamFrequency = "annual"
	OneTime  StreamFrequency = "one_time"
)

// TaxCharacter tells the cash-flow aggregator and sequencer how a stream's
// dollars should be treated by the tax engine when it counts as income.
type TaxCharacter string

const (
	TaxOrdinary        TaxCharacter = "ordinary"
	TaxCapitalGains    TaxCharacter = "capital_gains"
	TaxFree            TaxCharacter = "tax_free"
	TaxSocialSecurity  TaxCharacter = "social_security"
)

// Stream is a single recurring or one-time income or expense line item.
type Stream struct {
	Name             string          `yaml:"name"`
	BaseAmount       decimal.Decimal `yaml:"base_amount"`
	Frequency        StreamFrequency `yaml:"frequency"`
	StartDate        time.Time       `yaml:"start_date"`
	EndDate          *time.Time      `yaml:"end_date,omitempty"`
	GrowthRate       decimal.Decimal `yaml:"growth_rate"`
	InflationIndexed bool            `yaml:"inflation_indexed"`
	TaxCharacter     TaxCharacter    `yaml:"tax_character"`
	IsIncome         bool            `yaml:"is_income"`
}

// Goal is an advisor-facing savings target, surfaced in reporting only.
type Goal struct {
	Name         string          `yaml:"name"`
	TargetAmount decimal.Decimal `yaml:"target_amount"`
	TargetDate   time.Time       `yaml:"target_date"`
}

// ReturnModel describes how the return generator should produce monthly
// portfolio returns, either as a single blended scalar or as a full
// multi-asset-class covariance model.
type ReturnModel struct {
	AssetClasses    []string             `yaml:"asset_classes,omitempty"`
	ExpectedReturns []decimal.Decimal    `yaml:"expected_returns,omitempty"` // annual, one per asset class
	Covariance      [][]decimal.Decimal  `yaml:"covariance,omitempty"`       // annual, n x n
	Allocation      []decimal.Decimal    `yaml:"allocation,omitempty"`       // weights, one per asset class, sums to 1

	// ScalarMean/ScalarVol back both the deterministic mode (mean only) and
	// the synthetic GBM fallback used when no market-data model is supplied.
	ScalarMean decimal.Decimal `yaml:"scalar_mean"`
	ScalarVol  decimal.Decimal `yaml:"scalar_vol"`
	Synthetic  bool            `yaml:"synthetic"`
}

// Assumptions carries the scenario-wide knobs the projection driver and
// sequencer need but that don't belong on the household or the balance
// sheet.
type Assumptions struct {
	StartDate                    time.Time       `yaml:"start_date"`
	HorizonMonths                int             `yaml:"horizon_months"`
	InflationRate                decimal.Decimal `yaml:"inflation_rate"`
	HealthcareInflationRate      decimal.Decimal `yaml:"healthcare_inflation_rate"`
	TaxAlpha                     decimal.Decimal `yaml:"tax_alpha"`
	TaxYear                      int             `yaml:"tax_year"`
	AllowRothWithdrawals         bool            `yaml:"allow_roth_withdrawals"`
	RothConversionBudget         decimal.Decimal `yaml:"roth_conversion_budget"`
	FutureMarginalRateAssumption decimal.Decimal `yaml:"future_marginal_rate_assumption"` // surfaced assumption, not hardcoded
	AnnualCharitableGiving       decimal.Decimal `yaml:"annual_charitable_giving"`
	AnnualLossesAvailable        decimal.Decimal `yaml:"annual_losses_available"`
	Seed                         int64           `yaml:"seed"`
	// SequencingStrategy selects the withdrawal-sequencing algorithm: "standard"
	// (default) or "bracket_fill". Empty resolves to "standard".
	SequencingStrategy string `yaml:"sequencing_strategy"`
}

// Scenario bundles everything a single deterministic projection or Monte
// Carlo path needs.
type Scenario struct {
	Household      Household      `yaml:"household"`
	Buckets        AccountBuckets `yaml:"buckets"`
	IncomeStreams  []Stream    `yaml:"income_streams"`
	ExpenseStreams []Stream    `yaml:"expense_streams"`
	Goals          []Goal      `yaml:"goals"`
	Returns        ReturnModel `yaml:"returns"`
	Assumptions    Assumptions `yaml:"assumptions"`
}

// TimeSeriesRow is one month's emitted projection output.
type TimeSeriesRow struct {
	MonthIndex       int
	Date             time.Time
	Balances         AccountBuckets
	NetCashFlow      decimal.Decimal
	TotalWithdrawn   decimal.Decimal
	FederalTax       decimal.Decimal
	StateTax         decimal.Decimal
	IRMAASurcharge   decimal.Decimal
	NIITTax          decimal.Decimal
	TotalTax         decimal.Decimal
	Depleted         bool
	Notes            string
}

// RunState is the projection/simulation state machine's current phase.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateRunning   RunState = "running"
	StateSucceeded RunState = "succeeded"
	StateFailed    RunState = "failed"
	StateCancelled RunState = "cancelled"
)

// SimulationPath is one Monte Carlo path's retained outcome. Monthly rows are
// discarded after the path completes except for a single retained reference
// path, keeping memory bounded across thousands of paths.
type SimulationPath struct {
	TerminalValue  decimal.Decimal
	Depleted       bool
	MonthsSurvived int
	DoubledStarting bool
}

// SimulationResult is the aggregate output of a Monte Carlo run.
type SimulationResult struct {
	RunID          string
	N              int
	HorizonMonths  int
	SuccessRate    decimal.Decimal
	PDepleted      decimal.Decimal
	PDoubled       decimal.Decimal
	PPreserved     decimal.Decimal
	P5             decimal.Decimal
	P50            decimal.Decimal
	P95            decimal.Decimal
	AverageEnding  decimal.Decimal
	ReferencePath  []TimeSeriesRow
	Duration       time.Duration
}
