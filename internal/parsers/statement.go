// Package parsers turns extracted statement content and ledger files
// into movement tables.
package parsers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang-conciliation-service/internal/classifier"
	"golang-conciliation-service/internal/extractor"
	"golang-conciliation-service/internal/models"
	"golang-conciliation-service/internal/normalizer"
	"golang-conciliation-service/pkg/logger"
)

// ParseStats summarizes one parse run for aggregate logging
type ParseStats struct {
	Layout      classifier.Layout `json:"layout,omitempty"`
	Strategy    string            `json:"strategy,omitempty"`
	RowsSeen    int               `json:"rows_seen"`
	RowsKept    int               `json:"rows_kept"`
	RowsDropped int               `json:"rows_dropped"`
}

// StatementParser extracts the movement table from a bank statement PDF
type StatementParser struct {
	extractor *extractor.Extractor
	norm      *normalizer.Normalizer
	log       logger.Logger
}

// NewStatementParser creates a StatementParser
func NewStatementParser(ext *extractor.Extractor, norm *normalizer.Normalizer) *StatementParser {
	return &StatementParser{
		extractor: ext,
		norm:      norm,
		log:       logger.GetGlobalLogger().WithComponent("statement_parser"),
	}
}

// strategy is one attempt at lifting a raw table out of the document.
// Strategies run in order until one yields rows.
type strategy struct {
	name string
	run  func() *models.RawTable
}

// Parse classifies the statement and runs the layout's parsing
// strategies. Documents with no extractable text yield an empty table,
// never an error.
func (p *StatementParser) Parse(ctx context.Context, pdfData []byte) (*models.MovementTable, *ParseStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	text := p.extractor.Text(pdfData)
	layout := classifier.Classify(text)
	stats := &ParseStats{Layout: layout}

	var strategies []strategy
	switch layout {
	case classifier.LayoutNoText:
		// Nothing extractable, empty result by contract
	case classifier.LayoutAccountStatement:
		strategies = []strategy{p.lineStrategy(text)}
	case classifier.LayoutDailyMovement:
		strategies = []strategy{
			p.borderedStrategy("bordered_lattice", func() []extractor.Grid { return p.extractor.LatticeGrids(pdfData) }),
			p.borderedStrategy("bordered_text", func() []extractor.Grid { return p.extractor.TextGrids(pdfData) }),
			p.dailyTextStrategy(text),
		}
	default:
		strategies = []strategy{
			p.lineStrategy(text),
			p.borderedStrategy("bordered_lattice", func() []extractor.Grid { return p.extractor.LatticeGrids(pdfData) }),
			p.borderedStrategy("bordered_text", func() []extractor.Grid { return p.extractor.TextGrids(pdfData) }),
			p.dailyTextStrategy(text),
		}
	}

	raw := models.NewRawTable()
	for _, s := range strategies {
		if t := s.run(); t != nil && !t.IsEmpty() {
			stats.Strategy = s.name
			raw = t
			break
		}
	}

	table, dropped := p.norm.Table(raw, models.OriginExtract)
	stats.RowsSeen = raw.Len()
	stats.RowsKept = table.Len()
	stats.RowsDropped = dropped

	p.log.WithFields(logger.Fields{
		"layout":    layout,
		"strategy":  stats.Strategy,
		"rows_seen": stats.RowsSeen,
		"rows_kept": stats.RowsKept,
	}).Info("Parsed statement PDF")

	return table, stats, nil
}

// Account statement layout: one movement per line with a day/month
// date, description, signed amount and running balance.

var movementLine = regexp.MustCompile(`^(\d{1,2}/\d{2})\s+(.+?)\s+(-?[\d,]+\.\d{2})\s+([\d,]+\.\d{2})$`)

var (
	periodYear = regexp.MustCompile(`DESDE:\s*(20\d{2})/`)
	anyYear    = regexp.MustCompile(`\b20\d{2}\b`)
)

func (p *StatementParser) lineStrategy(text string) strategy {
	return strategy{
		name: "line_pattern",
		run:  func() *models.RawTable { return p.parseAccountLines(text) },
	}
}

func (p *StatementParser) parseAccountLines(text string) *models.RawTable {
	year := inferYear(text, p.norm.DefaultYear())
	raw := models.NewRawTable()

	for _, line := range strings.Split(text, "\n") {
		m := movementLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		// m[4] is the running balance, not a movement
		raw.Append(fmt.Sprintf("%s/%d", m[1], year), m[2], m[3])
	}
	return raw
}

// inferYear resolves the year the statement's day/month dates belong
// to: the period marker if present, otherwise the first four-digit
// year anywhere in the document, otherwise the configured default.
func inferYear(text string, fallback int) int {
	norm := normalizer.NormalizeText(text)
	if m := periodYear.FindStringSubmatch(norm); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			return y
		}
	}
	if m := anyYear.FindString(norm); m != "" {
		if y, err := strconv.Atoi(m); err == nil {
			return y
		}
	}
	return fallback
}

// Daily movement layout: bordered tables with a header row and strict
// YYYY/MM/DD dates in the first column.

var strictDate = regexp.MustCompile(`^20\d{2}/\d{2}/\d{2}$`)

// headerSearchRows bounds how deep into a grid the header may sit
const headerSearchRows = 12

func (p *StatementParser) borderedStrategy(name string, grids func() []extractor.Grid) strategy {
	return strategy{
		name: name,
		run:  func() *models.RawTable { return p.parseBorderedGrids(grids()) },
	}
}

func (p *StatementParser) parseBorderedGrids(grids []extractor.Grid) *models.RawTable {
	raw := models.NewRawTable()
	for _, grid := range grids {
		header := findHeaderRow(grid)
		if header < 0 {
			continue
		}
		for _, row := range grid[header+1:] {
			date, desc, amount, ok := borderedRow(row)
			if ok {
				raw.Append(date, desc, amount)
			}
		}
	}
	return raw
}

func findHeaderRow(grid extractor.Grid) int {
	limit := min(headerSearchRows, len(grid))
	for i := 0; i < limit; i++ {
		joined := normalizer.NormalizeText(strings.Join(grid[i], " "))
		if strings.Contains(joined, "FECHA") &&
			strings.Contains(joined, "DESCRIP") &&
			strings.Contains(joined, "VALOR") {
			return i
		}
	}
	return -1
}

// borderedRow reads one data row: date in the first cell, description
// in the second, amount in the last populated cell
func borderedRow(row []string) (date, desc, amount string, ok bool) {
	if len(row) < 3 {
		return "", "", "", false
	}

	first := strings.TrimSpace(row[0])
	if !strictDate.MatchString(first) {
		return "", "", "", false
	}

	last := ""
	for i := len(row) - 1; i > 1; i-- {
		if v := strings.TrimSpace(row[i]); v != "" {
			last = v
			break
		}
	}
	if last == "" {
		return "", "", "", false
	}

	return first, strings.TrimSpace(row[1]), last, true
}

// Text fallback for the daily layout: date-prefixed lines with the
// amount anchored at the end of the line.

var (
	dailyLine      = regexp.MustCompile(`^(20\d{2}/\d{2}/\d{2})\s+(.*)$`)
	trailingAmount = regexp.MustCompile(`(-?[\d.,]+)\s*$`)
)

func (p *StatementParser) dailyTextStrategy(text string) strategy {
	return strategy{
		name: "text_fallback",
		run:  func() *models.RawTable { return parseDailyText(text) },
	}
}

func parseDailyText(text string) *models.RawTable {
	raw := models.NewRawTable()
	for _, line := range strings.Split(text, "\n") {
		m := dailyLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		rest := m[2]
		am := trailingAmount.FindStringSubmatch(rest)
		if am == nil {
			continue
		}
		desc := strings.TrimSpace(strings.TrimSuffix(rest, am[0]))
		raw.Append(m[1], desc, am[1])
	}
	return raw
}
