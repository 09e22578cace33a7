package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"golang-conciliation-service/internal/aggregator"
	"golang-conciliation-service/internal/classifier"
	"golang-conciliation-service/internal/matcher"
	"golang-conciliation-service/internal/models"
	"golang-conciliation-service/internal/parsers"
	"golang-conciliation-service/internal/reconciler"

	"github.com/xuri/excelize/v2"
)

func sampleResult(t *testing.T) *reconciler.Result {
	t.Helper()

	ledger := models.NewMovementTable(models.OriginLedger)
	ledger.Append(models.NewMovement("02/01/2025", "PAGO PROVEEDOR", -1500))
	ledger.Append(models.NewMovement("05/01/2025", "ENTRADA SOLO CONTABILIDAD", 300))

	extract := models.NewMovementTable(models.OriginExtract)
	extract.Append(models.NewMovement("02/01/2025", "PAGO BANCO", -1500))
	extract.Append(models.NewMovement("09/01/2025", "IMPTO GOBIERNO 4X1000", -4520))

	match, err := matcher.NewEngine().Match(ledger, extract)
	if err != nil {
		t.Fatalf("match failed: %v", err)
	}

	return &reconciler.Result{
		Match:      match,
		Aggregates: aggregator.New(nil).Aggregate(extract),
		StatementInfo: &parsers.ParseStats{
			Layout:   classifier.LayoutAccountStatement,
			Strategy: "line_pattern",
			RowsSeen: 2,
			RowsKept: 2,
		},
		LedgerInfo:  &parsers.ParseStats{RowsSeen: 2, RowsKept: 2},
		ProcessedAt: time.Now(),
		Duration:    25 * time.Millisecond,
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
	if err := (&Config{Format: "pdf", CurrencyFormat: "#"}).Validate(); err == nil {
		t.Error("unsupported format should fail validation")
	}
	if _, err := NewGenerator(&Config{Format: FormatJSON}); err == nil {
		t.Error("empty currency format should fail")
	}
}

func TestGenerateJSON(t *testing.T) {
	g, err := NewGenerator(&Config{Format: FormatJSON, CurrencyFormat: `"$"#,##0`, IncludeMatchedRows: true})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := g.Generate(sampleResult(t), &buf); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var report map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if report["generated_at"] == nil || report["result"] == nil {
		t.Errorf("missing envelope fields: %v", report)
	}
}

func TestGenerateConsole(t *testing.T) {
	g, err := NewGenerator(nil)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := g.Generate(sampleResult(t), &buf); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"CONCILIACION BANCARIA",
		"Caso 1: Entradas en Contabilidad no en Extracto",
		"Caso 4: Salidas en Extracto no en Contabilidad",
		"IMPTO GOBIERNO 4X1000",
		"Emparejados:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console output missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateWorkbook(t *testing.T) {
	g, err := NewGenerator(&Config{Format: FormatXLSX, CurrencyFormat: `"$"#,##0`, IncludeMatchedRows: true})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := g.Generate(sampleResult(t), &buf); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	expected := []string{sheetJoined, sheetCases, sheetCharges}
	if len(sheets) != len(expected) {
		t.Fatalf("sheets = %v, expected %v", sheets, expected)
	}
	for i, name := range expected {
		if sheets[i] != name {
			t.Errorf("sheet %d = %q, expected %q", i, sheets[i], name)
		}
	}

	// Joined sheet header and first row
	if v, _ := f.GetCellValue(sheetJoined, "A1"); v != "FECHA_CONTABILIDAD" {
		t.Errorf("A1 = %q", v)
	}
	if v, _ := f.GetCellValue(sheetJoined, "A2"); v != "02/01/2025" {
		t.Errorf("A2 = %q", v)
	}
	// Matched row carries both sides
	if v, _ := f.GetCellValue(sheetJoined, "E2"); v != "PAGO BANCO" {
		t.Errorf("E2 = %q", v)
	}

	// Cases sheet starts with case 1 title
	if v, _ := f.GetCellValue(sheetCases, "A1"); !strings.Contains(v, "Caso 1") {
		t.Errorf("cases A1 = %q", v)
	}

	// Charges sheet has the fee bucket
	rows, err := f.GetRows(sheetCharges)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	found := false
	for _, row := range rows {
		for _, cell := range row {
			if cell == "IMPTO GOBIERNO 4X1000" {
				found = true
			}
		}
	}
	if !found {
		t.Error("charges sheet missing fee bucket label")
	}
}

func TestGenerateWorkbookExcludesMatched(t *testing.T) {
	g, err := NewGenerator(&Config{Format: FormatXLSX, CurrencyFormat: `"$"#,##0`, IncludeMatchedRows: false})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}

	var buf bytes.Buffer
	if err := g.Generate(sampleResult(t), &buf); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetJoined)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	// Header plus the two unmatched rows only
	if len(rows) != 3 {
		t.Errorf("joined rows = %d, expected 3", len(rows))
	}
}

func TestGenerateNilResult(t *testing.T) {
	g, err := NewGenerator(nil)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	if err := g.Generate(nil, &bytes.Buffer{}); err == nil {
		t.Error("nil result should fail")
	}
}
