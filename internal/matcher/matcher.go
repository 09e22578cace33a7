// Package matcher joins the ledger and extract movement tables and
// splits the differences into the four reconciliation cases.
package matcher

import (
	"fmt"

	"golang-conciliation-service/internal/models"
	"golang-conciliation-service/pkg/errors"
	"golang-conciliation-service/pkg/logger"
)

// Case identifies one of the four discrepancy cases
type Case int

const (
	// CaseNone marks rows outside every case: matched rows and
	// unmatched rows with a zero amount
	CaseNone Case = iota
	// CaseLedgerIncome is a positive ledger movement absent from the extract
	CaseLedgerIncome
	// CaseLedgerOutflow is a negative ledger movement absent from the extract
	CaseLedgerOutflow
	// CaseExtractIncome is a positive extract movement absent from the ledger
	CaseExtractIncome
	// CaseExtractOutflow is a negative extract movement absent from the ledger
	CaseExtractOutflow
)

// AllCases lists the four cases in report order: incomes first, then
// outflows on the ledger side, then outflows on the extract side
var AllCases = []Case{CaseLedgerIncome, CaseExtractIncome, CaseLedgerOutflow, CaseExtractOutflow}

// String returns the case identifier
func (c Case) String() string {
	switch c {
	case CaseLedgerIncome:
		return "CASO_1"
	case CaseExtractIncome:
		return "CASO_2"
	case CaseLedgerOutflow:
		return "CASO_3"
	case CaseExtractOutflow:
		return "CASO_4"
	default:
		return "NONE"
	}
}

// Title returns the human heading used in reports
func (c Case) Title() string {
	switch c {
	case CaseLedgerIncome:
		return "Caso 1: Entradas en Contabilidad no en Extracto"
	case CaseExtractIncome:
		return "Caso 2: Entradas en Extracto no en Contabilidad"
	case CaseLedgerOutflow:
		return "Caso 3: Salidas en Contabilidad no en Extracto"
	case CaseExtractOutflow:
		return "Caso 4: Salidas en Extracto no en Contabilidad"
	default:
		return "Sin caso"
	}
}

// MatchedRow is one row of the joined table. Exactly one side may be
// nil, meaning the movement has no counterpart under the join key.
type MatchedRow struct {
	Key     string           `json:"key"`
	Ledger  *models.Movement `json:"ledger,omitempty"`
	Extract *models.Movement `json:"extract,omitempty"`
}

// ClassifyRow assigns a joined row to its discrepancy case. It is the
// single classification rule for the whole system: matched rows and
// zero-amount unmatched rows return ok=false and belong to no case.
func ClassifyRow(row *MatchedRow) (Case, bool) {
	switch {
	case row.Ledger != nil && row.Extract != nil:
		return CaseNone, false
	case row.Ledger != nil && row.Ledger.Amount > 0:
		return CaseLedgerIncome, true
	case row.Ledger != nil && row.Ledger.Amount < 0:
		return CaseLedgerOutflow, true
	case row.Extract != nil && row.Extract.Amount > 0:
		return CaseExtractIncome, true
	case row.Extract != nil && row.Extract.Amount < 0:
		return CaseExtractOutflow, true
	default:
		return CaseNone, false
	}
}

// CaseResult collects the rows and signed total of one case
type CaseResult struct {
	Case  Case          `json:"case"`
	Title string        `json:"title"`
	Rows  []*MatchedRow `json:"rows"`
	Total int64         `json:"total"`
}

// Summary carries the headline counts and totals of a match run
type Summary struct {
	LedgerRows       int   `json:"ledger_rows"`
	ExtractRows      int   `json:"extract_rows"`
	MatchedRows      int   `json:"matched_rows"`
	UnmatchedLedger  int   `json:"unmatched_ledger"`
	UnmatchedExtract int   `json:"unmatched_extract"`
	LedgerTotal      int64 `json:"ledger_total"`
	ExtractTotal     int64 `json:"extract_total"`
}

// Result is the outcome of matching the two tables
type Result struct {
	Rows    []*MatchedRow `json:"rows"`
	Cases   []*CaseResult `json:"cases"`
	Summary *Summary      `json:"summary"`
}

// CaseFor returns the result bucket for the given case
func (r *Result) CaseFor(c Case) *CaseResult {
	for _, cr := range r.Cases {
		if cr.Case == c {
			return cr
		}
	}
	return nil
}

// Engine performs the exact-key full outer join
type Engine struct {
	log logger.Logger
}

// NewEngine creates a matching engine
func NewEngine() *Engine {
	return &Engine{
		log: logger.GetGlobalLogger().WithComponent("matcher"),
	}
}

// Match joins the ledger table against the extract table on the exact
// composite key (date plus amount) and classifies every unmatched row.
//
// The join is a full outer join without deduplication: when several
// movements on both sides share a key, each ledger movement pairs with
// each extract movement under that key. That fan-out mirrors how
// same-day same-amount movements are indistinguishable on the key and
// is a documented limitation, not a defect to silently collapse.
func (e *Engine) Match(ledger, extract *models.MovementTable) (*Result, error) {
	if ledger == nil || extract == nil {
		return nil, errors.ReconciliationError(errors.CodeProcessingError, "match", fmt.Errorf("nil movement table"))
	}
	if ledger.Origin != models.OriginLedger || extract.Origin != models.OriginExtract {
		return nil, errors.ReconciliationError(errors.CodeOriginMismatch, "match", nil).
			WithContext("first_origin", ledger.Origin).
			WithContext("second_origin", extract.Origin)
	}

	extractByKey := make(map[string][]int, extract.Len())
	for i, m := range extract.Movements {
		key := m.JoinKey()
		extractByKey[key] = append(extractByKey[key], i)
	}
	extractSeen := make([]bool, extract.Len())

	result := &Result{
		Rows: make([]*MatchedRow, 0, ledger.Len()+extract.Len()),
	}

	for _, m := range ledger.Movements {
		key := m.JoinKey()
		indices, ok := extractByKey[key]
		if !ok {
			result.Rows = append(result.Rows, &MatchedRow{Key: key, Ledger: m})
			continue
		}
		for _, idx := range indices {
			result.Rows = append(result.Rows, &MatchedRow{
				Key:     key,
				Ledger:  m,
				Extract: extract.Movements[idx],
			})
			extractSeen[idx] = true
		}
	}

	for i, m := range extract.Movements {
		if !extractSeen[i] {
			result.Rows = append(result.Rows, &MatchedRow{Key: m.JoinKey(), Extract: m})
		}
	}

	result.Cases = e.classify(result.Rows)
	result.Summary = e.summarize(ledger, extract, result.Rows)

	e.log.WithFields(logger.Fields{
		"ledger_rows":       result.Summary.LedgerRows,
		"extract_rows":      result.Summary.ExtractRows,
		"matched_rows":      result.Summary.MatchedRows,
		"unmatched_ledger":  result.Summary.UnmatchedLedger,
		"unmatched_extract": result.Summary.UnmatchedExtract,
	}).Info("Matched movement tables")

	return result, nil
}

func (e *Engine) classify(rows []*MatchedRow) []*CaseResult {
	byCase := make(map[Case]*CaseResult, len(AllCases))
	results := make([]*CaseResult, 0, len(AllCases))
	for _, c := range AllCases {
		cr := &CaseResult{Case: c, Title: c.Title(), Rows: make([]*MatchedRow, 0)}
		byCase[c] = cr
		results = append(results, cr)
	}

	for _, row := range rows {
		c, ok := ClassifyRow(row)
		if !ok {
			continue
		}
		cr := byCase[c]
		cr.Rows = append(cr.Rows, row)
		if row.Ledger != nil {
			cr.Total += row.Ledger.Amount
		} else if row.Extract != nil {
			cr.Total += row.Extract.Amount
		}
	}
	return results
}

func (e *Engine) summarize(ledger, extract *models.MovementTable, rows []*MatchedRow) *Summary {
	s := &Summary{
		LedgerRows:   ledger.Len(),
		ExtractRows:  extract.Len(),
		LedgerTotal:  ledger.Sum(),
		ExtractTotal: extract.Sum(),
	}
	for _, row := range rows {
		switch {
		case row.Ledger != nil && row.Extract != nil:
			s.MatchedRows++
		case row.Ledger != nil:
			s.UnmatchedLedger++
		default:
			s.UnmatchedExtract++
		}
	}
	return s
}
