// Package extractor pulls text and cell grids out of statement PDFs.
//
// The underlying pdf library panics on malformed documents, so every
// page walk runs behind a recover. Extraction never fails a request:
// anything unreadable degrades to empty output and the layout parsers
// decide what to do with whatever survived.
package extractor

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"golang-conciliation-service/pkg/errors"
	"golang-conciliation-service/pkg/logger"

	"github.com/ledongthuc/pdf"
)

// Grid is one page worth of extracted table cells
type Grid [][]string

const (
	// rowTolerance groups glyphs whose baselines differ by less than
	// this many points into the same visual row
	rowTolerance = 2.0

	// cellGap is the horizontal gap, in points, that separates two
	// clusters of text into different cells
	cellGap = 12.0

	// anchorTolerance merges near-identical column start positions
	anchorTolerance = 5.0

	// minAnchorRows is how many rows must share a column start before
	// it counts as a real table column
	minAnchorRows = 3
)

// Extractor reads statement PDFs from memory
type Extractor struct {
	log logger.Logger
}

// New creates an Extractor
func New() *Extractor {
	return &Extractor{
		log: logger.GetGlobalLogger().WithComponent("extractor"),
	}
}

// Text returns the plain text of the whole document, one line per
// visual row. An unreadable document yields the empty string.
func (e *Extractor) Text(data []byte) string {
	reader, err := e.open(data)
	if err != nil {
		e.log.WithError(err).Warn("Could not open PDF for text extraction")
		return ""
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		for _, line := range e.pageLines(reader, i) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// TextGrids derives one cell grid per page from positioned text: glyphs
// grouped into rows by baseline, rows split into cells on horizontal
// gaps. Pages that cannot be read contribute nothing.
func (e *Extractor) TextGrids(data []byte) []Grid {
	reader, err := e.open(data)
	if err != nil {
		e.log.WithError(err).Warn("Could not open PDF for grid extraction")
		return nil
	}

	var grids []Grid
	for i := 1; i <= reader.NumPage(); i++ {
		rows := e.pageTextRows(reader, i)
		grid := make(Grid, 0, len(rows))
		for _, row := range rows {
			cells := splitCells(row)
			if len(cells) > 0 {
				grid = append(grid, cells)
			}
		}
		if len(grid) > 0 {
			grids = append(grids, grid)
		}
	}
	return grids
}

// LatticeGrids is the second, independent table strategy. The document
// is re-read through the library's path-based opener from a temporary
// file, and cells are aligned onto column anchors detected across the
// whole page, which reconstructs bordered tables more faithfully than
// per-row gap splitting.
func (e *Extractor) LatticeGrids(data []byte) []Grid {
	tmp, err := os.CreateTemp("", "conciliador-*.pdf")
	if err != nil {
		e.log.WithError(err).Warn("Could not create temp file for lattice extraction")
		return nil
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		e.log.WithError(err).Warn("Could not write temp file for lattice extraction")
		return nil
	}
	if err := tmp.Close(); err != nil {
		e.log.WithError(err).Warn("Could not close temp file for lattice extraction")
		return nil
	}

	file, reader, err := e.openPath(tmp.Name())
	if err != nil {
		e.log.WithError(err).Warn("Could not open PDF for lattice extraction")
		return nil
	}
	defer file.Close()

	var grids []Grid
	for i := 1; i <= reader.NumPage(); i++ {
		rows := e.pageTextRows(reader, i)
		grid := alignToAnchors(rows)
		if len(grid) > 0 {
			grids = append(grids, grid)
		}
	}
	return grids
}

func (e *Extractor) open(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			reader = nil
			err = errors.ExtractionError(errors.CodeUnreadablePDF, "statement document", fmt.Errorf("pdf reader panic: %v", r))
		}
	}()
	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.ExtractionError(errors.CodeUnreadablePDF, "statement document", err)
	}
	return reader, nil
}

func (e *Extractor) openPath(path string) (file *os.File, reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			if file != nil {
				file.Close()
			}
			file, reader = nil, nil
			err = errors.ExtractionError(errors.CodeUnreadablePDF, path, fmt.Errorf("pdf reader panic: %v", r))
		}
	}()
	file, reader, err = pdf.Open(path)
	if err != nil {
		return nil, nil, errors.ExtractionError(errors.CodeUnreadablePDF, path, err)
	}
	return file, reader, nil
}

// pageLines extracts the text lines of one page, top to bottom
func (e *Extractor) pageLines(reader *pdf.Reader, pageNum int) (lines []string) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("page", pageNum).Debugf("Recovered page text panic: %v", r)
			lines = nil
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		e.log.WithField("page", pageNum).WithError(err).Debug("Could not read page rows")
		return nil
	}

	for _, row := range rows {
		line := joinWords(row.Content)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// pageTextRows groups a page's positioned glyphs into visual rows
func (e *Extractor) pageTextRows(reader *pdf.Reader, pageNum int) (rows [][]pdf.Text) {
	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("page", pageNum).Debugf("Recovered page content panic: %v", r)
			rows = nil
		}
	}()

	page := reader.Page(pageNum)
	if page.V.IsNull() {
		return nil
	}
	texts := page.Content().Text
	if len(texts) == 0 {
		return nil
	}

	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y > sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})

	var current []pdf.Text
	for _, t := range sorted {
		if t.S == "" {
			continue
		}
		if len(current) > 0 && math.Abs(current[0].Y-t.Y) > rowTolerance {
			rows = append(rows, current)
			current = nil
		}
		current = append(current, t)
	}
	if len(current) > 0 {
		rows = append(rows, current)
	}

	for _, row := range rows {
		sort.Slice(row, func(i, j int) bool { return row[i].X < row[j].X })
	}
	return rows
}

// joinWords merges glyph fragments into a line, inserting a space where
// the horizontal gap between fragments exceeds the glyph advance
func joinWords(texts []pdf.Text) string {
	var b strings.Builder
	var prevEnd float64
	for i, t := range texts {
		if i > 0 && t.X-prevEnd > wordGap(t) {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return strings.TrimSpace(b.String())
}

func wordGap(t pdf.Text) float64 {
	if t.FontSize > 0 {
		return math.Max(1.0, t.FontSize*0.3)
	}
	return 1.0
}

// splitCells breaks one visual row into cells wherever the horizontal
// gap between fragments is wide enough to be a column boundary
func splitCells(row []pdf.Text) []string {
	var cells []string
	var current []pdf.Text
	var prevEnd float64

	for i, t := range row {
		if i > 0 && t.X-prevEnd > cellGap {
			if cell := joinWords(current); cell != "" {
				cells = append(cells, cell)
			}
			current = nil
		}
		current = append(current, t)
		prevEnd = t.X + t.W
	}
	if cell := joinWords(current); cell != "" {
		cells = append(cells, cell)
	}
	return cells
}

// cellCluster is a run of fragments forming one prospective cell
type cellCluster struct {
	start float64
	text  string
}

// alignToAnchors detects the column start positions that repeat across
// a page's rows and rebuilds each row as one cell per detected column.
// Rows contributing to no anchor (titles, footers) are kept as loose
// cells so downstream header detection still sees them.
func alignToAnchors(rows [][]pdf.Text) Grid {
	clustered := make([][]cellCluster, 0, len(rows))
	for _, row := range rows {
		clustered = append(clustered, clusterRow(row))
	}

	anchors := detectAnchors(clustered)
	if len(anchors) < 2 {
		// No repeating column structure on this page
		var grid Grid
		for _, clusters := range clustered {
			cells := make([]string, 0, len(clusters))
			for _, c := range clusters {
				cells = append(cells, c.text)
			}
			if len(cells) > 0 {
				grid = append(grid, cells)
			}
		}
		return grid
	}

	var grid Grid
	for _, clusters := range clustered {
		if len(clusters) == 0 {
			continue
		}
		cells := make([]string, len(anchors))
		aligned := false
		for _, c := range clusters {
			idx := nearestAnchor(anchors, c.start)
			if idx < 0 {
				continue
			}
			aligned = true
			if cells[idx] == "" {
				cells[idx] = c.text
			} else {
				cells[idx] += " " + c.text
			}
		}
		if aligned {
			grid = append(grid, cells)
		} else {
			loose := make([]string, 0, len(clusters))
			for _, c := range clusters {
				loose = append(loose, c.text)
			}
			grid = append(grid, loose)
		}
	}
	return grid
}

func clusterRow(row []pdf.Text) []cellCluster {
	var clusters []cellCluster
	var current []pdf.Text
	var start, prevEnd float64

	flush := func() {
		if text := joinWords(current); text != "" {
			clusters = append(clusters, cellCluster{start: start, text: text})
		}
		current = nil
	}

	for i, t := range row {
		if i == 0 || t.X-prevEnd > cellGap {
			flush()
			start = t.X
		}
		current = append(current, t)
		prevEnd = t.X + t.W
	}
	flush()
	return clusters
}

// detectAnchors finds X positions where cells start in enough rows to
// look like table columns
func detectAnchors(rows [][]cellCluster) []float64 {
	type bucket struct {
		x     float64
		count int
	}
	var buckets []bucket

	for _, clusters := range rows {
		for _, c := range clusters {
			found := false
			for i := range buckets {
				if math.Abs(buckets[i].x-c.start) <= anchorTolerance {
					buckets[i].count++
					found = true
					break
				}
			}
			if !found {
				buckets = append(buckets, bucket{x: c.start, count: 1})
			}
		}
	}

	var anchors []float64
	for _, b := range buckets {
		if b.count >= minAnchorRows {
			anchors = append(anchors, b.x)
		}
	}
	sort.Float64s(anchors)
	return anchors
}

func nearestAnchor(anchors []float64, x float64) int {
	best := -1
	bestDist := math.MaxFloat64
	for i, a := range anchors {
		d := math.Abs(a - x)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	if bestDist > cellGap*2 {
		return -1
	}
	return best
}
