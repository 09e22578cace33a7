package models

import "testing"

func TestMovementJoinKey(t *testing.T) {
	tests := []struct {
		name     string
		movement *Movement
		expected string
	}{
		{
			name:     "positive amount",
			movement: NewMovement("02/01/2025", "PAGO PROVEEDOR", 150000),
			expected: "02/01/2025_150000",
		},
		{
			name:     "negative amount keeps sign",
			movement: NewMovement("15/03/2025", "IMPTO GOBIERNO 4X1000", -4520),
			expected: "15/03/2025_-4520",
		},
		{
			name:     "zero amount",
			movement: NewMovement("31/12/2025", "", 0),
			expected: "31/12/2025_0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.movement.JoinKey(); got != tt.expected {
				t.Errorf("JoinKey() = %q, expected %q", got, tt.expected)
			}
		})
	}
}

func TestMovementJoinKeyEquality(t *testing.T) {
	a := NewMovement("02/01/2025", "ABONO INTERESES AHORROS", 1200)
	b := NewMovement("02/01/2025", "OTRA DESCRIPCION", 1200)

	// Keys ignore the description on purpose
	if a.JoinKey() != b.JoinKey() {
		t.Errorf("movements with same date and amount should share a key: %q vs %q",
			a.JoinKey(), b.JoinKey())
	}
}

func TestOriginIsValid(t *testing.T) {
	if !OriginLedger.IsValid() {
		t.Error("OriginLedger should be valid")
	}
	if !OriginExtract.IsValid() {
		t.Error("OriginExtract should be valid")
	}
	if Origin("OTHER").IsValid() {
		t.Error("unknown origin should not be valid")
	}
}

func TestMovementTableSum(t *testing.T) {
	table := NewMovementTable(OriginExtract)
	table.Append(NewMovement("01/01/2025", "A", 100))
	table.Append(NewMovement("02/01/2025", "B", -40))
	table.Append(NewMovement("03/01/2025", "C", 0))

	if got := table.Sum(); got != 60 {
		t.Errorf("Sum() = %d, expected 60", got)
	}
	if got := table.Len(); got != 3 {
		t.Errorf("Len() = %d, expected 3", got)
	}
	if table.IsEmpty() {
		t.Error("table with rows should not be empty")
	}
}

func TestMovementTableValidate(t *testing.T) {
	table := NewMovementTable(OriginLedger)
	table.Append(NewMovement("01/01/2025", "OK", 10))
	if err := table.Validate(); err != nil {
		t.Errorf("valid table should pass validation: %v", err)
	}

	table.Append(NewMovement("", "NO DATE", 10))
	if err := table.Validate(); err == nil {
		t.Error("table with empty-date movement should fail validation")
	}

	bad := &MovementTable{Origin: Origin("NOPE")}
	if err := bad.Validate(); err == nil {
		t.Error("table with invalid origin should fail validation")
	}
}

func TestRawTableAppend(t *testing.T) {
	raw := NewRawTable()
	if !raw.IsEmpty() {
		t.Error("new raw table should be empty")
	}

	raw.Append("2025/01/02", "pago nomina", "(1,234.50)")
	if raw.Len() != 1 {
		t.Fatalf("Len() = %d, expected 1", raw.Len())
	}
	row := raw.Rows[0]
	if row.Date != "2025/01/02" || row.Amount != "(1,234.50)" {
		t.Errorf("raw row fields not preserved verbatim: %+v", row)
	}
}
