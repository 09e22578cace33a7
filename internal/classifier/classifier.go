package classifier

import (
	"regexp"
	"strings"

	"golang-conciliation-service/internal/normalizer"
)

// Layout identifies the recognized statement document layouts
type Layout string

const (
	// LayoutAccountStatement is the monthly account statement with
	// day/month lines and running balance
	LayoutAccountStatement Layout = "ACCOUNT_STATEMENT"
	// LayoutDailyMovement is the daily movement report with bordered
	// tables and full YYYY/MM/DD dates
	LayoutDailyMovement Layout = "DAILY_MOVEMENT"
	// LayoutNoText marks documents with no extractable text
	LayoutNoText Layout = "NO_TEXT"
	// LayoutUnknown marks readable documents matching no known layout
	LayoutUnknown Layout = "UNKNOWN"
)

// String returns the string representation of Layout
func (l Layout) String() string {
	return string(l)
}

// IsValid checks if the layout is one of the recognized values
func (l Layout) IsValid() bool {
	switch l {
	case LayoutAccountStatement, LayoutDailyMovement, LayoutNoText, LayoutUnknown:
		return true
	}
	return false
}

var fullDateToken = regexp.MustCompile(`\b20\d{2}/\d{2}/\d{2}\b`)

// Classify determines the statement layout from the document's plain
// text. It is a pure function: same text, same answer, no side effects.
func Classify(text string) Layout {
	norm := normalizer.NormalizeText(text)
	if norm == "" {
		return LayoutNoText
	}

	if strings.Contains(norm, "ESTADO DE CUENTA") &&
		strings.Contains(norm, "SALDO") &&
		strings.Contains(norm, "VALOR") {
		return LayoutAccountStatement
	}

	if strings.Contains(norm, "SUCURSAL/CANAL") &&
		strings.Contains(norm, "REFERENCIA") &&
		fullDateToken.MatchString(norm) {
		return LayoutDailyMovement
	}

	return LayoutUnknown
}
