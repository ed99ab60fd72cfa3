package brackets

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed data/2024.yaml
var embedded2024 []byte

// Load parses a bracket table from YAML bytes, matching the teacher's
// InputParser.LoadFromFile convention of unmarshal-then-validate.
func Load(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("brackets: parse failed: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("brackets: %w", err)
	}
	return &t, nil
}

// MustLoadEmbedded loads the baked-in table for a tax year. Only 2024 is
// embedded today; any other year falls back to it, matching the teacher's
// NewFederalTaxCalculator fallback-on-empty-config pattern rather than
// failing a caller who asked for a year the table doesn't have yet.
func MustLoadEmbedded(taxYear int) *Table {
	t, err := Load(embedded2024)
	if err != nil {
		panic(fmt.Sprintf("brackets: embedded table failed to parse: %v", err))
	}
	if taxYear != 0 {
		t.TaxYear = taxYear
	}
	return t
}
