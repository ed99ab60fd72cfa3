package projection

import (
	"fmt"

	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/shopspring/decimal"
)

// IRMAAYearRisk is one year's Medicare surcharge exposure, for advisor-facing
// reporting rather than anything the sequencer or tax engine consults.
type IRMAAYearRisk struct {
	Year      int
	Surcharge decimal.Decimal
	IsBreach  bool
	IsWarning bool
}

// IRMAARiskAnalysis is a post-projection sweep over a run's emitted rows,
// surfacing which years carried an IRMAA surcharge, how costly the breaches
// were in aggregate, and a few textual recommendations.
type IRMAARiskAnalysis struct {
	BreachYears            []int
	WarningYears           []int
	TotalIRMAACost         decimal.Decimal
	FirstBreachYear        int
	ConsecutiveBreachYears int
	HighRiskYears          []IRMAAYearRisk
	Recommendations        []string
}

// AnalyzeIRMAARisk walks a completed run's December rows looking for IRMAA
// breaches. A year is a "warning" year when it dodged a surcharge but the
// year immediately before it didn't — a household that recently cleared a
// threshold is still close enough to it to be worth watching.
func AnalyzeIRMAARisk(rows []domain.TimeSeriesRow) IRMAARiskAnalysis {
	analysis := IRMAARiskAnalysis{}

	var previousBreach bool
	var currentRun int

	for _, r := range rows {
		isDecember := (r.MonthIndex+1)%12 == 0
		if !isDecember {
			continue
		}
		year := r.MonthIndex/12 + 1
		breach := r.IRMAASurcharge.GreaterThan(decimal.Zero)

		if breach {
			analysis.BreachYears = append(analysis.BreachYears, year)
			if analysis.FirstBreachYear == 0 {
				analysis.FirstBreachYear = year
			}
			analysis.TotalIRMAACost = analysis.TotalIRMAACost.Add(r.IRMAASurcharge)
			analysis.HighRiskYears = append(analysis.HighRiskYears, IRMAAYearRisk{Year: year, Surcharge: r.IRMAASurcharge, IsBreach: true})

			currentRun++
			if currentRun > analysis.ConsecutiveBreachYears {
				analysis.ConsecutiveBreachYears = currentRun
			}
		} else {
			currentRun = 0
			if previousBreach {
				analysis.WarningYears = append(analysis.WarningYears, year)
				analysis.HighRiskYears = append(analysis.HighRiskYears, IRMAAYearRisk{Year: year, IsWarning: true})
			}
		}
		previousBreach = breach
	}

	analysis.Recommendations = generateIRMAARecommendations(analysis)
	return analysis
}

func generateIRMAARecommendations(analysis IRMAARiskAnalysis) []string {
	var recs []string
	if len(analysis.BreachYears) == 0 {
		return recs
	}

	recs = append(recs, "IRMAA breaches detected; consider strategies to reduce MAGI in the affected years")

	if analysis.TotalIRMAACost.GreaterThan(decimal.NewFromInt(10_000)) {
		recs = append(recs, fmt.Sprintf("total IRMAA surcharge of %s over %d years is large enough to be worth actively planning around", analysis.TotalIRMAACost.StringFixed(0), len(analysis.BreachYears)))
	}

	if analysis.FirstBreachYear > 0 && analysis.FirstBreachYear <= 5 {
		recs = append(recs, "breaches start early in the horizon; consider Roth conversions before the breach years to reduce future MAGI")
	} else {
		recs = append(recs, "breaches start mid-horizon; review Social Security timing and the withdrawal sequence leading into them")
	}

	if analysis.ConsecutiveBreachYears >= 3 {
		recs = append(recs, fmt.Sprintf("%d consecutive breach years detected; a systematic change to the withdrawal sequence is likely needed, not a one-year fix", analysis.ConsecutiveBreachYears))
	}

	recs = append(recs, "drawing from Roth instead of traditional accounts in breach years avoids adding to MAGI")

	return recs
}
