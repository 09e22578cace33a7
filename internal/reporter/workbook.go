package reporter

import (
	"fmt"
	"io"

	"golang-conciliation-service/internal/matcher"
	"golang-conciliation-service/internal/models"
	"golang-conciliation-service/internal/reconciler"
	"golang-conciliation-service/pkg/errors"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names, in workbook order
const (
	sheetJoined  = "Conciliacion"
	sheetCases   = "Casos"
	sheetCharges = "Gastos Bancarios"
)

var joinedHeaders = []string{
	"FECHA_CONTABILIDAD",
	"CONCEPTO_CONTABILIDAD",
	"VALOR_CONTABILIDAD",
	"FECHA_EXTRACTO",
	"DESCRIPCION_EXTRACTO",
	"VALOR_EXTRACTO",
}

// workbookStyles holds the style ids used across all sheets
type workbookStyles struct {
	title    int
	header   int
	currency int
}

func (g *Generator) generateWorkbook(result *reconciler.Result, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetJoined); err != nil {
		return errors.ReportError(errors.CodeRenderFailed, "workbook setup", err)
	}
	for _, name := range []string{sheetCases, sheetCharges} {
		if _, err := f.NewSheet(name); err != nil {
			return errors.ReportError(errors.CodeRenderFailed, "workbook setup", err)
		}
	}

	styles, err := newWorkbookStyles(f, g.config.CurrencyFormat)
	if err != nil {
		return errors.ReportError(errors.CodeRenderFailed, "workbook styles", err)
	}

	if err := g.writeJoinedSheet(f, styles, result); err != nil {
		return err
	}
	if err := g.writeCasesSheet(f, styles, result); err != nil {
		return err
	}
	if err := g.writeChargesSheet(f, styles, result); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return errors.ReportError(errors.CodeRenderFailed, "workbook output", err)
	}
	return nil
}

func newWorkbookStyles(f *excelize.File, currencyFormat string) (*workbookStyles, error) {
	title, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 12}})
	if err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	currency, err := f.NewStyle(&excelize.Style{CustomNumFmt: &currencyFormat})
	if err != nil {
		return nil, err
	}
	return &workbookStyles{title: title, header: header, currency: currency}, nil
}

// writeJoinedSheet renders the full joined table with ledger columns
// on the left and extract columns on the right. Absent sides stay as
// empty cells.
func (g *Generator) writeJoinedSheet(f *excelize.File, styles *workbookStyles, result *reconciler.Result) error {
	if err := writeRow(f, sheetJoined, 1, 1, toCells(joinedHeaders)); err != nil {
		return err
	}
	if err := styleRange(f, sheetJoined, 1, 1, len(joinedHeaders), 1, styles.header); err != nil {
		return err
	}

	r := 2
	for _, row := range result.Match.Rows {
		if !g.config.IncludeMatchedRows && row.Ledger != nil && row.Extract != nil {
			continue
		}
		cells := make([]interface{}, 6)
		if row.Ledger != nil {
			cells[0] = row.Ledger.Date
			cells[1] = row.Ledger.Description
			cells[2] = row.Ledger.Amount
		}
		if row.Extract != nil {
			cells[3] = row.Extract.Date
			cells[4] = row.Extract.Description
			cells[5] = row.Extract.Amount
		}
		if err := writeRow(f, sheetJoined, 1, r, cells); err != nil {
			return err
		}
		for _, col := range []int{3, 6} {
			if cells[col-1] == nil {
				continue
			}
			if err := styleRange(f, sheetJoined, col, r, col, r, styles.currency); err != nil {
				return err
			}
		}
		r++
	}

	if err := f.SetColWidth(sheetJoined, "A", "F", 24); err != nil {
		return errors.ReportError(errors.CodeRenderFailed, "column widths", err)
	}
	return nil
}

// writeCasesSheet stacks the four case tables with a bold title and a
// total row each
func (g *Generator) writeCasesSheet(f *excelize.File, styles *workbookStyles, result *reconciler.Result) error {
	r := 1
	for _, c := range matcher.AllCases {
		cr := result.Match.CaseFor(c)
		if cr == nil {
			continue
		}

		if err := writeRow(f, sheetCases, 1, r, []interface{}{cr.Title}); err != nil {
			return err
		}
		if err := styleRange(f, sheetCases, 1, r, 1, r, styles.title); err != nil {
			return err
		}
		r++

		if err := writeRow(f, sheetCases, 1, r, []interface{}{"FECHA", "DESCRIPCION", "VALOR"}); err != nil {
			return err
		}
		if err := styleRange(f, sheetCases, 1, r, 3, r, styles.header); err != nil {
			return err
		}
		r++

		for _, row := range cr.Rows {
			m := caseMovement(row)
			if m == nil {
				continue
			}
			if err := writeRow(f, sheetCases, 1, r, []interface{}{m.Date, m.Description, m.Amount}); err != nil {
				return err
			}
			if err := styleRange(f, sheetCases, 3, r, 3, r, styles.currency); err != nil {
				return err
			}
			r++
		}

		if err := writeRow(f, sheetCases, 1, r, []interface{}{"TOTAL", nil, cr.Total}); err != nil {
			return err
		}
		if err := styleRange(f, sheetCases, 1, r, 1, r, styles.header); err != nil {
			return err
		}
		if err := styleRange(f, sheetCases, 3, r, 3, r, styles.currency); err != nil {
			return err
		}
		r += 2
	}

	if err := f.SetColWidth(sheetCases, "A", "C", 30); err != nil {
		return errors.ReportError(errors.CodeRenderFailed, "column widths", err)
	}
	return nil
}

// writeChargesSheet stacks the income, bank fee and tax aggregates
func (g *Generator) writeChargesSheet(f *excelize.File, styles *workbookStyles, result *reconciler.Result) error {
	r := 1
	for _, section := range aggregateSections(result.Aggregates) {
		if err := writeRow(f, sheetCharges, 1, r, []interface{}{section.name}); err != nil {
			return err
		}
		if err := styleRange(f, sheetCharges, 1, r, 1, r, styles.title); err != nil {
			return err
		}
		r++

		if err := writeRow(f, sheetCharges, 1, r, []interface{}{"CONCEPTO", "CANTIDAD", "TOTAL"}); err != nil {
			return err
		}
		if err := styleRange(f, sheetCharges, 1, r, 3, r, styles.header); err != nil {
			return err
		}
		r++

		for _, b := range section.buckets {
			if err := writeRow(f, sheetCharges, 1, r, []interface{}{b.Label, b.Count, b.Total}); err != nil {
				return err
			}
			if err := styleRange(f, sheetCharges, 3, r, 3, r, styles.currency); err != nil {
				return err
			}
			r++
		}
		r++
	}

	if err := f.SetColWidth(sheetCharges, "A", "C", 32); err != nil {
		return errors.ReportError(errors.CodeRenderFailed, "column widths", err)
	}
	return nil
}

// caseMovement returns the populated side of an unmatched row
func caseMovement(row *matcher.MatchedRow) *models.Movement {
	if row.Ledger != nil {
		return row.Ledger
	}
	return row.Extract
}

func writeRow(f *excelize.File, sheet string, col, row int, cells []interface{}) error {
	for i, v := range cells {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+i, row)
		if err != nil {
			return errors.ReportError(errors.CodeRenderFailed, "cell addressing", err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return errors.ReportError(errors.CodeRenderFailed, fmt.Sprintf("cell %s", cell), err)
		}
	}
	return nil
}

func styleRange(f *excelize.File, sheet string, startCol, startRow, endCol, endRow, style int) error {
	start, err := excelize.CoordinatesToCellName(startCol, startRow)
	if err != nil {
		return errors.ReportError(errors.CodeRenderFailed, "cell addressing", err)
	}
	end, err := excelize.CoordinatesToCellName(endCol, endRow)
	if err != nil {
		return errors.ReportError(errors.CodeRenderFailed, "cell addressing", err)
	}
	if err := f.SetCellStyle(sheet, start, end, style); err != nil {
		return errors.ReportError(errors.CodeRenderFailed, "cell style", err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
