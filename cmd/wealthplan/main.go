package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/rgehrsitz/wealthplan/internal/brackets"
	"github.com/rgehrsitz/wealthplan/internal/config"
	"github.com/rgehrsitz/wealthplan/internal/domain"
	"github.com/rgehrsitz/wealthplan/internal/montecarlo"
	"github.com/rgehrsitz/wealthplan/internal/projection"
	"github.com/rgehrsitz/wealthplan/internal/returns"
	"github.com/spf13/cobra"
)

// simpleCLILogger implements domain.Logger using the standard log package.
type simpleCLILogger struct{}

func (simpleCLILogger) Debugf(format string, args ...any) { log.Printf("DEBUG: "+format, args...) }
func (simpleCLILogger) Infof(format string, args ...any)  { log.Printf("INFO: "+format, args...) }
func (simpleCLILogger) Warnf(format string, args ...any)  { log.Printf("WARN: "+format, args...) }
func (simpleCLILogger) Errorf(format string, args ...any) { log.Printf("ERROR: "+format, args...) }

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "wealthplan",
	Short: "Household wealth projection and Monte Carlo retirement engine",
	Long:  "Projects a household's account balances against tax rules and withdrawal sequencing, deterministically or across a Monte Carlo ensemble of return paths.",
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "wealthplan %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(os.Stdout, info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

func loadScenarioAndTable(scenarioFile string, taxYear int) (*domain.Scenario, *brackets.Table, error) {
	parser := config.NewScenarioParser()
	scenario, err := parser.LoadFromFile(scenarioFile)
	if err != nil {
		return nil, nil, err
	}
	year := taxYear
	if year == 0 {
		year = scenario.Assumptions.TaxYear
	}
	table := brackets.MustLoadEmbedded(year)
	return scenario, table, nil
}

func projectCmd() *cobra.Command {
	var taxYear int
	var outFormat string
	cmd := &cobra.Command{
		Use:   "project [scenario-file]",
		Short: "Run a single deterministic projection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, table, err := loadScenarioAndTable(args[0], taxYear)
			if err != nil {
				return err
			}
			gen, err := returns.New(scenario.Returns, scenario.Assumptions.Seed, false)
			if err != nil {
				return err
			}
			driver := projection.New(*scenario, table, gen, simpleCLILogger{})
			rows, err := driver.Run(context.Background())
			if err != nil {
				return err
			}
			return writeRows(os.Stdout, rows, outFormat)
		},
	}
	cmd.Flags().IntVar(&taxYear, "tax-year", 0, "tax year bracket table to use (defaults to the scenario's tax_year, falling back to 2024)")
	cmd.Flags().StringVar(&outFormat, "format", "csv", "output format: csv or json")
	return cmd
}

func simulateCmd() *cobra.Command {
	var taxYear, paths, workers int
	var outFormat string
	cmd := &cobra.Command{
		Use:   "simulate [scenario-file]",
		Short: "Run a Monte Carlo ensemble of stochastic projections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scenario, table, err := loadScenarioAndTable(args[0], taxYear)
			if err != nil {
				return err
			}
			opts := montecarlo.Options{
				Paths:   paths,
				Workers: workers,
				Logger:  simpleCLILogger{},
				Progress: func(completed, total int) {
					fmt.Fprintf(os.Stderr, "progress: %d/%d paths\n", completed, total)
				},
			}
			result, err := montecarlo.Simulate(context.Background(), *scenario, table, opts)
			if err != nil {
				return err
			}
			if outFormat == "json" {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}
			fmt.Printf("runs: %d\nsuccess rate: %s\np5: %s\np50: %s\np95: %s\naverage ending: %s\n",
				result.N, result.SuccessRate.StringFixed(4), result.P5.StringFixed(2),
				result.P50.StringFixed(2), result.P95.StringFixed(2), result.AverageEnding.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().IntVar(&taxYear, "tax-year", 0, "tax year bracket table to use")
	cmd.Flags().IntVar(&paths, "paths", 10000, "number of Monte Carlo paths")
	cmd.Flags().IntVar(&workers, "workers", 0, "worker goroutines (defaults to the number of CPUs)")
	cmd.Flags().StringVar(&outFormat, "format", "text", "output format: text or json")
	return cmd
}

func writeRows(w *os.File, rows []domain.TimeSeriesRow, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	cw := csv.NewWriter(w)
	defer cw.Flush()
	header := []string{"month", "date", "taxable", "traditional_ira", "traditional_401k", "roth_ira", "hsa", "total_withdrawn", "federal_tax", "state_tax", "irmaa", "niit", "total_tax", "depleted", "notes"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			fmt.Sprintf("%d", r.MonthIndex),
			r.Date.Format("2006-01-02"),
			r.Balances.Taxable.StringFixed(2),
			r.Balances.TraditionalIRA.StringFixed(2),
			r.Balances.Traditional401k.StringFixed(2),
			r.Balances.RothIRA.StringFixed(2),
			r.Balances.HSA.StringFixed(2),
			r.TotalWithdrawn.StringFixed(2),
			r.FederalTax.StringFixed(2),
			r.StateTax.StringFixed(2),
			r.IRMAASurcharge.StringFixed(2),
			r.NIITTax.StringFixed(2),
			r.TotalTax.StringFixed(2),
			fmt.Sprintf("%t", r.Depleted),
			r.Notes,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	rootCmd.AddCommand(versionCmd(), projectCmd(), simulateCmd())
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
