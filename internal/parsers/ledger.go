package parsers

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang-conciliation-service/internal/models"
	"golang-conciliation-service/internal/normalizer"
	"golang-conciliation-service/pkg/errors"
	"golang-conciliation-service/pkg/logger"

	"github.com/xuri/excelize/v2"
)

// LedgerConfig configures how the accounting ledger file is read
type LedgerConfig struct {
	// SheetName selects the workbook sheet; empty means the first sheet
	SheetName string `json:"sheet_name,omitempty"`

	// Header aliases, compared after text normalization. Date and
	// amount must resolve exactly; the concept column is optional and
	// matched by substring.
	DateAliases    []string `json:"date_aliases"`
	AmountAliases  []string `json:"amount_aliases"`
	ConceptAliases []string `json:"concept_aliases"`
}

// DefaultLedgerConfig returns the default ledger configuration
func DefaultLedgerConfig() *LedgerConfig {
	return &LedgerConfig{
		DateAliases:    []string{"FECHA"},
		AmountAliases:  []string{"MOVIMIENTO", "VALOR"},
		ConceptAliases: []string{"CONCEPTO", "DESCRIPCION", "DETALLE"},
	}
}

// Validate validates the ledger configuration
func (c *LedgerConfig) Validate() error {
	if len(c.DateAliases) == 0 {
		return fmt.Errorf("at least one date column alias is required")
	}
	if len(c.AmountAliases) == 0 {
		return fmt.Errorf("at least one amount column alias is required")
	}
	return nil
}

// LedgerParser reads the accounting ledger from an xlsx workbook or a
// CSV file and produces the ledger movement table.
type LedgerParser struct {
	config *LedgerConfig
	norm   *normalizer.Normalizer
	log    logger.Logger
}

// NewLedgerParser creates a LedgerParser
func NewLedgerParser(config *LedgerConfig, norm *normalizer.Normalizer) (*LedgerParser, error) {
	if config == nil {
		config = DefaultLedgerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "ledger", config, err)
	}
	return &LedgerParser{
		config: config,
		norm:   norm,
		log:    logger.GetGlobalLogger().WithComponent("ledger_parser"),
	}, nil
}

// ParseFile reads and normalizes the ledger at the given path. Unlike
// statement parsing, a ledger whose columns cannot be resolved is a
// hard error: silently reconciling against a misread ledger would be
// worse than failing.
func (p *LedgerParser) ParseFile(path string) (*models.MovementTable, *ParseStats, error) {
	var rows [][]string
	var err error
	var source string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		source = "xlsx"
		rows, err = p.readWorkbook(path)
	default:
		source = "csv"
		rows, err = p.readCSV(path)
	}
	if err != nil {
		return nil, nil, err
	}

	table, stats, err := p.parseRows(path, rows)
	if err != nil {
		return nil, nil, err
	}
	stats.Strategy = source

	p.log.WithFields(logger.Fields{
		"file":      filepath.Base(path),
		"source":    source,
		"rows_seen": stats.RowsSeen,
		"rows_kept": stats.RowsKept,
	}).Info("Parsed ledger file")

	return table, stats, nil
}

func (p *LedgerParser) readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.LedgerSchemaError(errors.CodeUnreadableBook, path, nil, err)
	}
	defer f.Close()

	sheet := p.config.SheetName
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.LedgerSchemaError(errors.CodeUnreadableBook, path, nil, err).
			WithContext("sheet", sheet)
	}
	return rows, nil
}

func (p *LedgerParser) readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileNotFound, path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.LedgerSchemaError(errors.CodeUnreadableBook, path, nil, err)
	}
	return rows, nil
}

// columnLayout is the resolved position of each ledger column
type columnLayout struct {
	date    int
	amount  int
	concept int
}

func (p *LedgerParser) parseRows(path string, rows [][]string) (*models.MovementTable, *ParseStats, error) {
	headerIdx, header := firstPopulatedRow(rows)
	if headerIdx < 0 {
		return nil, nil, errors.LedgerSchemaError(errors.CodeTooFewColumns, path, nil, nil)
	}

	if countPopulated(header) < 3 {
		return nil, nil, errors.LedgerSchemaError(errors.CodeTooFewColumns, path, header, nil)
	}

	layout, err := p.resolveColumns(path, header)
	if err != nil {
		return nil, nil, err
	}

	raw := models.NewRawTable()
	for _, row := range rows[headerIdx+1:] {
		if countPopulated(row) == 0 {
			continue
		}
		desc := ""
		if layout.concept >= 0 {
			desc = cellAt(row, layout.concept)
		}
		raw.Append(cellAt(row, layout.date), desc, cellAt(row, layout.amount))
	}

	table, dropped := p.norm.Table(raw, models.OriginLedger)
	stats := &ParseStats{
		RowsSeen:    raw.Len(),
		RowsKept:    table.Len(),
		RowsDropped: dropped,
	}
	return table, stats, nil
}

// resolveColumns maps the header to column positions using the
// configured aliases. Date and amount are mandatory.
func (p *LedgerParser) resolveColumns(path string, header []string) (*columnLayout, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = normalizer.NormalizeText(h)
	}

	layout := &columnLayout{date: -1, amount: -1, concept: -1}

	for _, alias := range p.config.DateAliases {
		if idx := indexOf(normalized, normalizer.NormalizeText(alias)); idx >= 0 {
			layout.date = idx
			break
		}
	}
	for _, alias := range p.config.AmountAliases {
		if idx := indexOf(normalized, normalizer.NormalizeText(alias)); idx >= 0 {
			layout.amount = idx
			break
		}
	}
	for _, alias := range p.config.ConceptAliases {
		target := normalizer.NormalizeText(alias)
		for i, h := range normalized {
			if i != layout.date && i != layout.amount && strings.Contains(h, target) {
				layout.concept = i
				break
			}
		}
		if layout.concept >= 0 {
			break
		}
	}

	if layout.date < 0 || layout.amount < 0 {
		return nil, errors.LedgerSchemaError(errors.CodeMissingColumn, path, header, nil)
	}
	return layout, nil
}

func firstPopulatedRow(rows [][]string) (int, []string) {
	for i, row := range rows {
		if countPopulated(row) > 0 {
			return i, row
		}
	}
	return -1, nil
}

func countPopulated(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

func indexOf(haystack []string, needle string) int {
	for i, h := range haystack {
		if h == needle {
			return i
		}
	}
	return -1
}

func cellAt(row []string, idx int) string {
	if idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}
