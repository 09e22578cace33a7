package parsers

import (
	"context"
	"testing"

	"golang-conciliation-service/internal/classifier"
	"golang-conciliation-service/internal/extractor"
	"golang-conciliation-service/internal/normalizer"
)

func testNormalizer(t *testing.T) *normalizer.Normalizer {
	t.Helper()
	n, err := normalizer.New(&normalizer.Config{DefaultYear: 2025})
	if err != nil {
		t.Fatalf("failed to create normalizer: %v", err)
	}
	return n
}

func TestInferYear(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected int
	}{
		{
			name:     "period marker wins",
			text:     "ESTADO DE CUENTA\nDESDE: 2024/01/01 HASTA: 2024/01/31\nGENERADO 2025",
			expected: 2024,
		},
		{
			name:     "first standalone year",
			text:     "EXTRACTO 2023 BANCO",
			expected: 2023,
		},
		{
			name:     "fallback to default",
			text:     "SIN FECHAS AQUI",
			expected: 2025,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inferYear(tt.text, 2025); got != tt.expected {
				t.Errorf("inferYear() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestParseAccountLines(t *testing.T) {
	p := NewStatementParser(extractor.New(), testNormalizer(t))

	text := "ESTADO DE CUENTA\n" +
		"DESDE: 2025/03/01\n" +
		"FECHA DESCRIPCION VALOR SALDO\n" +
		"02/03 PAGO PROVEEDOR ACME -1,500.00 8,500.00\n" +
		"15/03 ABONO INTERESES AHORROS 12.50 8,512.50\n" +
		"TOTAL 8,512.50\n"

	raw := p.parseAccountLines(text)
	if raw.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", raw.Len())
	}

	first := raw.Rows[0]
	if first.Date != "02/03/2025" {
		t.Errorf("date = %q, expected 02/03/2025", first.Date)
	}
	if first.Description != "PAGO PROVEEDOR ACME" {
		t.Errorf("description = %q", first.Description)
	}
	if first.Amount != "-1,500.00" {
		t.Errorf("amount = %q, expected the movement not the balance", first.Amount)
	}

	if raw.Rows[1].Amount != "12.50" {
		t.Errorf("second amount = %q, expected 12.50", raw.Rows[1].Amount)
	}
}

func TestFindHeaderRow(t *testing.T) {
	grid := extractor.Grid{
		{"BANCO EJEMPLO"},
		{"MOVIMIENTO DIARIO"},
		{"FECHA", "DESCRIPCIÓN", "SUCURSAL/CANAL", "VALOR"},
		{"2025/01/02", "PAGO", "OFICINA", "150.00"},
	}
	if got := findHeaderRow(grid); got != 2 {
		t.Errorf("findHeaderRow() = %d, expected 2", got)
	}

	noHeader := extractor.Grid{{"SOLO", "TEXTO"}}
	if got := findHeaderRow(noHeader); got != -1 {
		t.Errorf("findHeaderRow() = %d, expected -1", got)
	}
}

func TestFindHeaderRowDeepHeaderIgnored(t *testing.T) {
	grid := make(extractor.Grid, 0, headerSearchRows+2)
	for i := 0; i < headerSearchRows; i++ {
		grid = append(grid, []string{"RELLENO"})
	}
	grid = append(grid, []string{"FECHA", "DESCRIPCION", "VALOR"})

	if got := findHeaderRow(grid); got != -1 {
		t.Errorf("header beyond the search window should not be found, got %d", got)
	}
}

func TestBorderedRow(t *testing.T) {
	tests := []struct {
		name   string
		row    []string
		date   string
		desc   string
		amount string
		ok     bool
	}{
		{
			name:   "standard row",
			row:    []string{"2025/01/02", "PAGO NOMINA", "REF123", "-1,500.00"},
			date:   "2025/01/02",
			desc:   "PAGO NOMINA",
			amount: "-1,500.00",
			ok:     true,
		},
		{
			name:   "trailing empty cells skipped",
			row:    []string{"2025/01/02", "ABONO", "20.00", "", ""},
			date:   "2025/01/02",
			desc:   "ABONO",
			amount: "20.00",
			ok:     true,
		},
		{
			name: "day first date rejected",
			row:  []string{"02/01/2025", "PAGO", "150.00"},
			ok:   false,
		},
		{
			name: "too few cells",
			row:  []string{"2025/01/02", "150.00"},
			ok:   false,
		},
		{
			name: "no amount cell",
			row:  []string{"2025/01/02", "PAGO", ""},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, desc, amount, ok := borderedRow(tt.row)
			if ok != tt.ok {
				t.Fatalf("ok = %v, expected %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if date != tt.date || desc != tt.desc || amount != tt.amount {
				t.Errorf("got (%q, %q, %q), expected (%q, %q, %q)",
					date, desc, amount, tt.date, tt.desc, tt.amount)
			}
		})
	}
}

func TestParseDailyText(t *testing.T) {
	text := "MOVIMIENTO DIARIO\n" +
		"FECHA SUCURSAL/CANAL REFERENCIA VALOR\n" +
		"2025/01/02 COMPRA SUPERMERCADO 990123 -45,300.00\n" +
		"2025/01/03 ABONO INTERESES 12.50\n" +
		"SIN FECHA AL INICIO 99.00\n"

	raw := parseDailyText(text)
	if raw.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", raw.Len())
	}

	first := raw.Rows[0]
	if first.Date != "2025/01/02" {
		t.Errorf("date = %q", first.Date)
	}
	if first.Amount != "-45,300.00" {
		t.Errorf("amount = %q, expected trailing token", first.Amount)
	}
	if first.Description != "COMPRA SUPERMERCADO 990123" {
		t.Errorf("description = %q", first.Description)
	}
}

func TestParseNoTextDocument(t *testing.T) {
	p := NewStatementParser(extractor.New(), testNormalizer(t))

	table, stats, err := p.Parse(context.Background(), []byte("definitely not a pdf"))
	if err != nil {
		t.Fatalf("unreadable document must not error: %v", err)
	}
	if !table.IsEmpty() {
		t.Errorf("expected empty table, got %d rows", table.Len())
	}
	if stats.Layout != classifier.LayoutNoText {
		t.Errorf("layout = %s, expected %s", stats.Layout, classifier.LayoutNoText)
	}
	if stats.RowsSeen != 0 || stats.RowsKept != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestParseCancelledContext(t *testing.T) {
	p := NewStatementParser(extractor.New(), testNormalizer(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := p.Parse(ctx, nil); err == nil {
		t.Error("cancelled context should abort parsing")
	}
}

func TestParseBorderedGrids(t *testing.T) {
	p := NewStatementParser(extractor.New(), testNormalizer(t))

	grids := []extractor.Grid{
		{
			{"MOVIMIENTO DIARIO"},
			{"FECHA", "DESCRIPCION", "REFERENCIA", "VALOR"},
			{"2025/01/02", "PAGO PROVEEDOR", "001", "-150.00"},
			{"2025/01/03", "ABONO", "002", "20.00"},
			{"TOTAL", "", "", "-130.00"},
		},
		{
			// Page without a header contributes nothing
			{"2025/01/04", "IGNORADO", "003", "5.00"},
		},
	}

	raw := p.parseBorderedGrids(grids)
	if raw.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", raw.Len())
	}
	if raw.Rows[0].Date != "2025/01/02" || raw.Rows[0].Amount != "-150.00" {
		t.Errorf("unexpected first row: %+v", raw.Rows[0])
	}
}
