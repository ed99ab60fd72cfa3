package cashflow

import (
	"testing"
	"time"

	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func start() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

func TestMonthlyStreamContributesEveryMonth(t *testing.T) {
	streams := []domain.Stream{{
		Name: "pension", BaseAmount: decimal.NewFromInt(2000), Frequency: domain.Monthly,
		StartDate: start(), IsIncome: true,
	}}
	income, _ := MonthlyCashFlow(streams, 5, start(), domain.Assumptions{})
	assert.True(t, income.Equal(decimal.NewFromInt(2000)))
}

func TestAnnualStreamSpreadAcrossTwelveMonths(t *testing.T) {
	streams := []domain.Stream{{
		Name: "property tax", BaseAmount: decimal.NewFromInt(12000), Frequency: domain.Annual,
		StartDate: start(), IsIncome: false,
	}}
	_, expenses := MonthlyCashFlow(streams, 0, start(), domain.Assumptions{})
	assert.True(t, expenses.Equal(decimal.NewFromInt(1000)))
}

func TestOneTimeStreamOnlyAppliesAtStartMonth(t *testing.T) {
	streams := []domain.Stream{{
		Name: "inheritance", BaseAmount: decimal.NewFromInt(50000), Frequency: domain.OneTime,
		StartDate: start(), IsIncome: true,
	}}
	atStart, _ := MonthlyCashFlow(streams, 0, start(), domain.Assumptions{})
	later, _ := MonthlyCashFlow(streams, 1, start(), domain.Assumptions{})
	assert.True(t, atStart.Equal(decimal.NewFromInt(50000)))
	assert.True(t, later.IsZero())
}

func TestStreamDoesNotContributeBeforeItsStart(t *testing.T) {
	futureStart := start().AddDate(1, 0, 0)
	streams := []domain.Stream{{
		Name: "ss", BaseAmount: decimal.NewFromInt(1500), Frequency: domain.Monthly,
		StartDate: futureStart, IsIncome: true,
	}}
	income, _ := MonthlyCashFlow(streams, 0, start(), domain.Assumptions{})
	assert.True(t, income.IsZero())
}

func TestStreamDoesNotContributeAfterItsEnd(t *testing.T) {
	end := start().AddDate(0, 6, 0)
	streams := []domain.Stream{{
		Name: "part time job", BaseAmount: decimal.NewFromInt(3000), Frequency: domain.Monthly,
		StartDate: start(), EndDate: &end, IsIncome: true,
	}}
	within, _ := MonthlyCashFlow(streams, 3, start(), domain.Assumptions{})
	after, _ := MonthlyCashFlow(streams, 10, start(), domain.Assumptions{})
	assert.True(t, within.Equal(decimal.NewFromInt(3000)))
	assert.True(t, after.IsZero())
}

func TestInflationIndexingGrowsOverYears(t *testing.T) {
	streams := []domain.Stream{{
		Name: "spending", BaseAmount: decimal.NewFromInt(5000), Frequency: domain.Monthly,
		StartDate: start(), InflationIndexed: true, IsIncome: false,
	}}
	assumptions := domain.Assumptions{InflationRate: decimal.NewFromFloat(0.03)}
	_, firstYear := MonthlyCashFlow(streams, 5, start(), assumptions)
	_, thirdYear := MonthlyCashFlow(streams, 30, start(), assumptions)
	assert.True(t, thirdYear.GreaterThan(firstYear))
}
