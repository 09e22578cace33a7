package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Origin identifies which input a movement table came from
type Origin string

const (
	// OriginLedger marks movements loaded from the accounting ledger
	OriginLedger Origin = "LEDGER"
	// OriginExtract marks movements parsed from the bank statement PDF
	OriginExtract Origin = "EXTRACT"
)

// String returns the string representation of Origin
func (o Origin) String() string {
	return string(o)
}

// IsValid checks if the origin is valid
func (o Origin) IsValid() bool {
	return o == OriginLedger || o == OriginExtract
}

// Movement is one fully normalized money movement. Date is always
// dd/mm/yyyy, Description is uppercase with accents folded, and Amount
// is in integer minor units with the sign preserved.
type Movement struct {
	Date        string `json:"date"`
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
}

// NewMovement creates a new Movement instance
func NewMovement(date, description string, amount int64) *Movement {
	return &Movement{
		Date:        date,
		Description: description,
		Amount:      amount,
	}
}

// JoinKey derives the composite reconciliation key: the normalized date
// and the decimal amount string joined with an underscore. Two movements
// match exactly when their keys are equal.
func (m *Movement) JoinKey() string {
	return m.Date + "_" + strconv.FormatInt(m.Amount, 10)
}

// Validate performs basic validation on the Movement
func (m *Movement) Validate() error {
	if strings.TrimSpace(m.Date) == "" {
		return fmt.Errorf("movement date cannot be empty")
	}
	return nil
}

// String returns a string representation of the Movement
func (m *Movement) String() string {
	return fmt.Sprintf("Movement{Date: %s, Description: %s, Amount: %d}",
		m.Date, m.Description, m.Amount)
}

// Equals compares two Movement instances for equality
func (m *Movement) Equals(other *Movement) bool {
	if other == nil {
		return false
	}
	return m.Date == other.Date &&
		m.Description == other.Description &&
		m.Amount == other.Amount
}

// MovementTable is an ordered collection of movements from a single
// origin. Tables are built fresh per request and never shared.
type MovementTable struct {
	Origin    Origin      `json:"origin"`
	Movements []*Movement `json:"movements"`
}

// NewMovementTable creates an empty table for the given origin
func NewMovementTable(origin Origin) *MovementTable {
	return &MovementTable{
		Origin:    origin,
		Movements: make([]*Movement, 0),
	}
}

// Append adds a movement to the table preserving insertion order
func (t *MovementTable) Append(m *Movement) {
	t.Movements = append(t.Movements, m)
}

// Len returns the number of movements in the table
func (t *MovementTable) Len() int {
	return len(t.Movements)
}

// IsEmpty reports whether the table has no movements
func (t *MovementTable) IsEmpty() bool {
	return len(t.Movements) == 0
}

// Sum returns the signed total of all movement amounts in minor units
func (t *MovementTable) Sum() int64 {
	var total int64
	for _, m := range t.Movements {
		total += m.Amount
	}
	return total
}

// Validate checks the table origin and every contained movement
func (t *MovementTable) Validate() error {
	if !t.Origin.IsValid() {
		return fmt.Errorf("invalid table origin: %s", t.Origin)
	}
	for i, m := range t.Movements {
		if m == nil {
			return fmt.Errorf("movement at index %d is nil", i)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("movement at index %d: %w", i, err)
		}
	}
	return nil
}

// RawMovement is a movement as lifted from an input document, before
// normalization. All fields are verbatim strings.
type RawMovement struct {
	Date        string
	Description string
	Amount      string
}

// RawTable is an ordered collection of raw movements produced by a
// layout parser strategy.
type RawTable struct {
	Rows []*RawMovement
}

// NewRawTable creates an empty raw table
func NewRawTable() *RawTable {
	return &RawTable{Rows: make([]*RawMovement, 0)}
}

// Append adds a raw row to the table
func (t *RawTable) Append(date, description, amount string) {
	t.Rows = append(t.Rows, &RawMovement{
		Date:        date,
		Description: description,
		Amount:      amount,
	})
}

// Len returns the number of raw rows
func (t *RawTable) Len() int {
	return len(t.Rows)
}

// IsEmpty reports whether the raw table has no rows
func (t *RawTable) IsEmpty() bool {
	return len(t.Rows) == 0
}
