package extractor

import (
	"reflect"
	"testing"

	"golang-conciliation-service/pkg/errors"

	"github.com/ledongthuc/pdf"
)

func text(s string, x, w float64) pdf.Text {
	return pdf.Text{S: s, X: x, W: w, Y: 700, FontSize: 10}
}

func TestJoinWords(t *testing.T) {
	tests := []struct {
		name     string
		row      []pdf.Text
		expected string
	}{
		{
			name:     "adjacent fragments merge",
			row:      []pdf.Text{text("PA", 10, 10), text("GO", 20, 10)},
			expected: "PAGO",
		},
		{
			name:     "gap inserts space",
			row:      []pdf.Text{text("PAGO", 10, 20), text("NOMINA", 40, 30)},
			expected: "PAGO NOMINA",
		},
		{
			name:     "empty row",
			row:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinWords(tt.row); got != tt.expected {
				t.Errorf("joinWords() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestSplitCells(t *testing.T) {
	// Three clusters separated by wide gaps, middle one split by a
	// narrow word gap only
	row := []pdf.Text{
		text("2025/01/02", 10, 50),
		text("PAGO", 100, 20),
		text("NOMINA", 125, 30),
		text("1,500.00", 300, 40),
	}

	got := splitCells(row)
	expected := []string{"2025/01/02", "PAGO NOMINA", "1,500.00"}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("splitCells() = %v, expected %v", got, expected)
	}
}

func TestDetectAnchors(t *testing.T) {
	rows := [][]cellCluster{
		{{start: 10, text: "a"}, {start: 100, text: "b"}, {start: 300, text: "c"}},
		{{start: 11, text: "d"}, {start: 101, text: "e"}, {start: 299, text: "f"}},
		{{start: 9, text: "g"}, {start: 102, text: "h"}, {start: 301, text: "i"}},
		{{start: 200, text: "stray"}},
	}

	anchors := detectAnchors(rows)
	if len(anchors) != 3 {
		t.Fatalf("expected 3 anchors, got %v", anchors)
	}
	if anchors[0] > 15 || anchors[1] < 95 || anchors[1] > 110 || anchors[2] < 290 {
		t.Errorf("unexpected anchor positions: %v", anchors)
	}
}

func TestAlignToAnchors(t *testing.T) {
	at := func(s string, x, y float64) pdf.Text {
		return pdf.Text{S: s, X: x, W: 40, Y: y, FontSize: 10}
	}

	rows := [][]pdf.Text{
		{at("FECHA", 10, 700), at("DESCRIPCION", 100, 700), at("VALOR", 300, 700)},
		{at("2025/01/02", 10, 680), at("PAGO", 100, 680), at("150.00", 300, 680)},
		{at("2025/01/03", 10, 660), at("ABONO", 100, 660), at("-20.00", 300, 660)},
	}

	grid := alignToAnchors(rows)
	if len(grid) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(grid))
	}
	for _, row := range grid {
		if len(row) != 3 {
			t.Fatalf("expected 3 aligned cells per row, got %v", row)
		}
	}
	if grid[1][0] != "2025/01/02" || grid[1][2] != "150.00" {
		t.Errorf("unexpected aligned row: %v", grid[1])
	}
}

func TestAlignToAnchorsNoStructure(t *testing.T) {
	// Two rows with unrelated positions: no anchors, rows kept loose
	rows := [][]pdf.Text{
		{text("ESTADO DE CUENTA", 50, 100)},
		{pdf.Text{S: "TOTAL", X: 200, W: 40, Y: 650, FontSize: 10}},
	}

	grid := alignToAnchors(rows)
	if len(grid) != 2 {
		t.Fatalf("expected 2 loose rows, got %d", len(grid))
	}
	if grid[0][0] != "ESTADO DE CUENTA" {
		t.Errorf("unexpected loose row content: %v", grid[0])
	}
}

func TestTextUnreadableDocument(t *testing.T) {
	e := New()
	if got := e.Text([]byte("not a pdf at all")); got != "" {
		t.Errorf("unreadable document should yield empty text, got %q", got)
	}
	if grids := e.TextGrids([]byte{0x01, 0x02}); len(grids) != 0 {
		t.Errorf("unreadable document should yield no grids, got %d", len(grids))
	}
	if grids := e.LatticeGrids(nil); len(grids) != 0 {
		t.Errorf("empty document should yield no lattice grids, got %d", len(grids))
	}
}

func TestOpenReturnsExtractionError(t *testing.T) {
	_, err := New().open([]byte("not a pdf at all"))
	if err == nil {
		t.Fatal("garbage bytes should not open")
	}

	cerr, ok := errors.AsConciliadorError(err)
	if !ok {
		t.Fatalf("expected a categorized error, got %T", err)
	}
	if cerr.Category != errors.CategoryExtraction || cerr.Code != errors.CodeUnreadablePDF {
		t.Errorf("category/code = %s/%s", cerr.Category, cerr.Code)
	}
}
