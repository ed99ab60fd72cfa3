package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenarioYAML = `
household:
  state: TX
  filing_status: married_joint
  age1: 65
  age2: 63
  has_spouse: true
buckets:
  taxable: "200000"
  traditional_ira: "600000"
income_streams:
  - name: social security
    base_amount: "3000"
    frequency: monthly
    start_date: 2026-01-01T00:00:00Z
    is_income: true
    tax_character: social_security
expense_streams:
  - name: living expenses
    base_amount: "6000"
    frequency: monthly
    start_date: 2026-01-01T00:00:00Z
assumptions:
  start_date: 2026-01-01T00:00:00Z
  horizon_months: 360
  inflation_rate: "0.025"
`

func writeTemp(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadFromFileValidScenario(t *testing.T) {
	path := writeTemp(t, validScenarioYAML)
	parser := NewScenarioParser()
	scenario, err := parser.LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 65, scenario.Household.Age1)
	assert.Equal(t, 360, scenario.Assumptions.HorizonMonths)
	assert.NotZero(t, scenario.Assumptions.Seed)
}

func TestLoadFromFileMissingFile(t *testing.T) {
	parser := NewScenarioParser()
	_, err := parser.LoadFromFile("/nonexistent/scenario.yaml")
	assert.Error(t, err)
}

func TestValidateRejectsZeroAge(t *testing.T) {
	parser := NewScenarioParser()
	path := writeTemp(t, `
household:
  filing_status: single
  age1: 0
assumptions:
  start_date: 2026-01-01T00:00:00Z
  horizon_months: 12
`)
	_, err := parser.LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidateRejectsMissingHorizon(t *testing.T) {
	parser := NewScenarioParser()
	path := writeTemp(t, `
household:
  filing_status: single
  age1: 70
assumptions:
  start_date: 2026-01-01T00:00:00Z
`)
	_, err := parser.LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidateRejectsUnrecognizedFilingStatus(t *testing.T) {
	parser := NewScenarioParser()
	path := writeTemp(t, `
household:
  filing_status: unknown_status
  age1: 70
assumptions:
  start_date: 2026-01-01T00:00:00Z
  horizon_months: 12
`)
	_, err := parser.LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidateRejectsAgeAboveRange(t *testing.T) {
	parser := NewScenarioParser()
	path := writeTemp(t, `
household:
  state: TX
  filing_status: single
  age1: 140
assumptions:
  start_date: 2026-01-01T00:00:00Z
  horizon_months: 12
`)
	_, err := parser.LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidateRejectsHorizonAboveRange(t *testing.T) {
	parser := NewScenarioParser()
	path := writeTemp(t, `
household:
  state: TX
  filing_status: single
  age1: 70
assumptions:
  start_date: 2026-01-01T00:00:00Z
  horizon_months: 5000
`)
	_, err := parser.LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidateRejectsUnrecognizedStateCode(t *testing.T) {
	parser := NewScenarioParser()
	path := writeTemp(t, `
household:
  state: ZZ
  filing_status: single
  age1: 70
assumptions:
  start_date: 2026-01-01T00:00:00Z
  horizon_months: 12
`)
	_, err := parser.LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidateRejectsNegativeBucketBalance(t *testing.T) {
	parser := NewScenarioParser()
	path := writeTemp(t, `
household:
  state: TX
  filing_status: single
  age1: 70
buckets:
  taxable: "-100"
assumptions:
  start_date: 2026-01-01T00:00:00Z
  horizon_months: 12
`)
	_, err := parser.LoadFromFile(path)
	assert.Error(t, err)
}

func TestValidateRejectsSpouseWithoutAge2(t *testing.T) {
	parser := NewScenarioParser()
	path := writeTemp(t, `
household:
  filing_status: married_joint
  age1: 70
  has_spouse: true
assumptions:
  start_date: 2026-01-01T00:00:00Z
  horizon_months: 12
`)
	_, err := parser.LoadFromFile(path)
	assert.Error(t, err)
}
