// Package reporter renders a reconciliation result as an xlsx
// workbook, JSON, or a console summary.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"golang-conciliation-service/internal/aggregator"
	"golang-conciliation-service/internal/matcher"
	"golang-conciliation-service/internal/reconciler"
	"golang-conciliation-service/pkg/errors"
	"golang-conciliation-service/pkg/logger"
)

// Format represents the available output formats
type Format string

const (
	FormatXLSX    Format = "xlsx"
	FormatJSON    Format = "json"
	FormatConsole Format = "console"
)

// IsValid checks if the format is supported
func (f Format) IsValid() bool {
	switch f {
	case FormatXLSX, FormatJSON, FormatConsole:
		return true
	}
	return false
}

// Config holds report generation options
type Config struct {
	Format Format `json:"format"`

	// CurrencyFormat is the xlsx number format applied to amount columns
	CurrencyFormat string `json:"currency_format"`

	// IncludeMatchedRows controls whether fully matched rows appear in
	// the joined table output
	IncludeMatchedRows bool `json:"include_matched_rows"`
}

// DefaultConfig returns the default report configuration
func DefaultConfig() *Config {
	return &Config{
		Format:             FormatConsole,
		CurrencyFormat:     `"$"#,##0`,
		IncludeMatchedRows: true,
	}
}

// Validate validates the report configuration
func (c *Config) Validate() error {
	if !c.Format.IsValid() {
		return errors.ReportError(errors.CodeUnsupportedFormat, string(c.Format), nil)
	}
	if c.CurrencyFormat == "" {
		return errors.ReportError(errors.CodeRenderFailed, "empty currency format", nil)
	}
	return nil
}

// Generator renders reconciliation results
type Generator struct {
	config *Config
	log    logger.Logger
}

// NewGenerator creates a report generator
func NewGenerator(config *Config) (*Generator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Generator{
		config: config,
		log:    logger.GetGlobalLogger().WithComponent("reporter"),
	}, nil
}

// Generate writes the report for the result to w in the configured
// format
func (g *Generator) Generate(result *reconciler.Result, w io.Writer) error {
	if result == nil {
		return errors.ReportError(errors.CodeRenderFailed, "nil result", nil)
	}

	switch g.config.Format {
	case FormatXLSX:
		return g.generateWorkbook(result, w)
	case FormatJSON:
		return g.generateJSON(result, w)
	case FormatConsole:
		return g.generateConsole(result, w)
	default:
		return errors.ReportError(errors.CodeUnsupportedFormat, string(g.config.Format), nil)
	}
}

// jsonReport is the envelope for the JSON rendering
type jsonReport struct {
	GeneratedAt time.Time          `json:"generated_at"`
	Result      *reconciler.Result `json:"result"`
}

func (g *Generator) generateJSON(result *reconciler.Result, w io.Writer) error {
	report := &jsonReport{
		GeneratedAt: time.Now(),
		Result:      result,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return errors.ReportError(errors.CodeRenderFailed, "json encoding", err)
	}
	return nil
}

func (g *Generator) generateConsole(result *reconciler.Result, w io.Writer) error {
	s := result.Match.Summary

	var err error
	write := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	write("CONCILIACION BANCARIA\n")
	write("=====================\n\n")

	write("Resumen\n")
	write("-------\n")
	write("Movimientos contabilidad: %d (total %d)\n", s.LedgerRows, s.LedgerTotal)
	write("Movimientos extracto:     %d (total %d)\n", s.ExtractRows, s.ExtractTotal)
	write("Emparejados:              %d\n", s.MatchedRows)
	write("Solo contabilidad:        %d\n", s.UnmatchedLedger)
	write("Solo extracto:            %d\n\n", s.UnmatchedExtract)

	write("Casos\n")
	write("-----\n")
	for _, c := range matcher.AllCases {
		cr := result.Match.CaseFor(c)
		if cr == nil {
			continue
		}
		write("%-50s %4d movimientos, total %d\n", cr.Title, len(cr.Rows), cr.Total)
	}
	write("\n")

	write("Gastos bancarios\n")
	write("----------------\n")
	for _, section := range aggregateSections(result.Aggregates) {
		write("%s:\n", section.name)
		if len(section.buckets) == 0 {
			write("  (sin movimientos)\n")
		}
		for _, b := range section.buckets {
			write("  %-35s %3d x, total %d\n", b.Label, b.Count, b.Total)
		}
	}
	write("\n")

	write("Documento: layout %s, estrategia %q, filas %d/%d\n",
		result.StatementInfo.Layout, result.StatementInfo.Strategy,
		result.StatementInfo.RowsKept, result.StatementInfo.RowsSeen)
	write("Procesado en %v\n", result.Duration)

	if err != nil {
		return errors.ReportError(errors.CodeRenderFailed, "console output", err)
	}
	return nil
}

// aggSection pairs a report heading with its aggregate buckets
type aggSection struct {
	name    string
	buckets []aggregator.Bucket
}

func aggregateSections(summary *aggregator.Summary) []aggSection {
	if summary == nil {
		return nil
	}
	return []aggSection{
		{name: "Ingresos", buckets: summary.Income},
		{name: "Gastos Bancarios", buckets: summary.BankFees},
		{name: "Impuestos", buckets: summary.Taxes},
	}
}
