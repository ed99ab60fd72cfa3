package projection

import (
	"testing"

	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func decemberRow(monthIndex int, surcharge decimal.Decimal) domain.TimeSeriesRow {
	return domain.TimeSeriesRow{MonthIndex: monthIndex, IRMAASurcharge: surcharge}
}

func TestAnalyzeIRMAARiskNoBreaches(t *testing.T) {
	rows := []domain.TimeSeriesRow{decemberRow(11, decimal.Zero), decemberRow(23, decimal.Zero)}
	analysis := AnalyzeIRMAARisk(rows)
	assert.Empty(t, analysis.BreachYears)
	assert.Empty(t, analysis.Recommendations)
	assert.True(t, analysis.TotalIRMAACost.IsZero())
}

func TestAnalyzeIRMAARiskDetectsBreachAndFirstYear(t *testing.T) {
	rows := []domain.TimeSeriesRow{
		decemberRow(11, decimal.Zero),
		decemberRow(23, decimal.NewFromInt(3000)),
		decemberRow(35, decimal.Zero),
	}
	analysis := AnalyzeIRMAARisk(rows)
	assert.Equal(t, []int{2}, analysis.BreachYears)
	assert.Equal(t, 2, analysis.FirstBreachYear)
	assert.Equal(t, []int{3}, analysis.WarningYears)
	assert.True(t, analysis.TotalIRMAACost.Equal(decimal.NewFromInt(3000)))
	assert.NotEmpty(t, analysis.Recommendations)
}

func TestAnalyzeIRMAARiskCountsConsecutiveBreaches(t *testing.T) {
	rows := []domain.TimeSeriesRow{
		decemberRow(11, decimal.NewFromInt(1000)),
		decemberRow(23, decimal.NewFromInt(1000)),
		decemberRow(35, decimal.NewFromInt(1000)),
		decemberRow(47, decimal.Zero),
	}
	analysis := AnalyzeIRMAARisk(rows)
	assert.Equal(t, 3, analysis.ConsecutiveBreachYears)
	assert.Equal(t, 1, analysis.FirstBreachYear)
}

func TestAnalyzeIRMAARiskIgnoresNonDecemberRows(t *testing.T) {
	rows := []domain.TimeSeriesRow{
		{MonthIndex: 5, IRMAASurcharge: decimal.NewFromInt(500)},
	}
	analysis := AnalyzeIRMAARisk(rows)
	assert.Empty(t, analysis.BreachYears)
}
