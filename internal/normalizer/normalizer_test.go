package normalizer

import (
	"testing"

	"golang-conciliation-service/internal/models"
)

func mustNormalizer(t *testing.T, cfg *Config) *Normalizer {
	t.Helper()
	n, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create normalizer: %v", err)
	}
	return n
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "pago a proveedores", "PAGO A PROVEEDORES"},
		{"accents folded", "Comisión Pago a Nómina", "COMISION PAGO A NOMINA"},
		{"all accented vowels", "áéíóú Ü", "AEIOU U"},
		{"whitespace collapsed", "  IMPTO   GOBIERNO\t4X1000 ", "IMPTO GOBIERNO 4X1000"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeText(tt.input); got != tt.expected {
				t.Errorf("NormalizeText(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDate(t *testing.T) {
	n := mustNormalizer(t, &Config{DefaultYear: 2025})

	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{"day first", "02/01/2025", "02/01/2025", true},
		{"day first unpadded", "2/1/2025", "02/01/2025", true},
		{"year first", "2025/01/02", "02/01/2025", true},
		{"two digit year", "02/01/25", "02/01/2025", true},
		{"no year takes default", "15/03", "15/03/2025", true},
		{"dash separator", "02-01-2025", "02/01/2025", true},
		{"ambiguous day first wins", "05/03/2025", "05/03/2025", true},
		{"invalid day", "32/01/2025", "", false},
		{"invalid month", "01/13/2025", "", false},
		{"not a leap day", "29/02/2025", "", false},
		{"leap day", "29/02/2024", "29/02/2024", true},
		{"garbage", "FECHA", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Date(tt.input)
			if ok != tt.ok {
				t.Fatalf("Date(%q) ok = %v, expected %v", tt.input, ok, tt.ok)
			}
			if got != tt.expected {
				t.Errorf("Date(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAmount(t *testing.T) {
	n := mustNormalizer(t, nil)

	tests := []struct {
		name     string
		input    string
		expected int64
		ok       bool
	}{
		{"plain integer", "1500", 1500, true},
		{"decimal rounds half away from zero", "(1,234.50)", -1235, true},
		{"positive half rounds up", "10.5", 11, true},
		{"rounds down below half", "10.4", 10, true},
		{"currency sign", "$2,500.00", 2500, true},
		{"explicit negative", "-300.25", -300, true},
		{"parentheses beat sign", "($45.10)", -45, true},
		{"internal spaces", "1 234.00", 1234, true},
		{"zero", "0.00", 0, true},
		{"empty", "", 0, false},
		{"only symbols", "$()", 0, false},
		{"garbage", "VALOR", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Amount(tt.input)
			if ok != tt.ok {
				t.Fatalf("Amount(%q) ok = %v, expected %v", tt.input, ok, tt.ok)
			}
			if got != tt.expected {
				t.Errorf("Amount(%q) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTableDropsBadRows(t *testing.T) {
	n := mustNormalizer(t, nil)

	raw := models.NewRawTable()
	raw.Append("02/01/2025", "pago proveedor", "150.00")
	raw.Append("not a date", "bad row", "10.00")
	raw.Append("03/01/2025", "comisión", "not a number")
	raw.Append("2025/01/04", "abono", "(20.00)")

	table, dropped := n.Table(raw, models.OriginExtract)

	if dropped != 2 {
		t.Errorf("dropped = %d, expected 2", dropped)
	}
	if table.Len() != 2 {
		t.Fatalf("Len() = %d, expected 2", table.Len())
	}
	if table.Origin != models.OriginExtract {
		t.Errorf("origin = %s, expected %s", table.Origin, models.OriginExtract)
	}

	first := table.Movements[0]
	if first.Date != "02/01/2025" || first.Description != "PAGO PROVEEDOR" || first.Amount != 150 {
		t.Errorf("unexpected first movement: %+v", first)
	}
	second := table.Movements[1]
	if second.Date != "04/01/2025" || second.Amount != -20 {
		t.Errorf("unexpected second movement: %+v", second)
	}
}

func TestTableNil(t *testing.T) {
	n := mustNormalizer(t, nil)
	table, dropped := n.Table(nil, models.OriginLedger)
	if dropped != 0 || !table.IsEmpty() {
		t.Errorf("nil raw table should normalize to empty table, got %d rows, %d dropped",
			table.Len(), dropped)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (&Config{DefaultYear: 2025}).Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
	if err := (&Config{DefaultYear: 0}).Validate(); err == nil {
		t.Error("zero default year should be rejected")
	}
	if _, err := New(&Config{DefaultYear: 3000}); err == nil {
		t.Error("out of range default year should fail construction")
	}
}
