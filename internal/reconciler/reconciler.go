// Package reconciler orchestrates one reconciliation run: read the
// ledger, parse the statement PDF, match the tables and aggregate the
// bank charges. One request equals one run, with no shared state
// between runs.
package reconciler

import (
	"context"
	"time"

	"golang-conciliation-service/internal/aggregator"
	"golang-conciliation-service/internal/extractor"
	"golang-conciliation-service/internal/matcher"
	"golang-conciliation-service/internal/models"
	"golang-conciliation-service/internal/normalizer"
	"golang-conciliation-service/internal/parsers"
	"golang-conciliation-service/pkg/errors"
	"golang-conciliation-service/pkg/logger"
)

// Config aggregates the component configurations for a service
type Config struct {
	Normalizer *normalizer.Config    `json:"normalizer"`
	Ledger     *parsers.LedgerConfig `json:"ledger"`
	Aggregator *aggregator.Config    `json:"aggregator"`
}

// DefaultConfig returns a service configuration with all defaults
func DefaultConfig() *Config {
	return &Config{
		Normalizer: normalizer.DefaultConfig(),
		Ledger:     parsers.DefaultLedgerConfig(),
		Aggregator: aggregator.DefaultConfig(),
	}
}

// Validate validates the service configuration
func (c *Config) Validate() error {
	if c.Normalizer != nil {
		if err := c.Normalizer.Validate(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "normalizer", c.Normalizer, err)
		}
	}
	if c.Ledger != nil {
		if err := c.Ledger.Validate(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, "ledger", c.Ledger, err)
		}
	}
	return nil
}

// Request describes one reconciliation run
type Request struct {
	// PDFData is the statement document content. An unreadable or
	// empty document reconciles against an empty extract table.
	PDFData []byte

	// LedgerPath points at the accounting ledger workbook or CSV
	LedgerPath string
}

// Validate validates the request
func (r *Request) Validate() error {
	if r == nil {
		return errors.ValidationError(errors.CodeMissingField, "request", nil, nil)
	}
	if r.LedgerPath == "" {
		return errors.ValidationError(errors.CodeMissingField, "ledger_path", r.LedgerPath, nil)
	}
	return nil
}

// Result is the complete outcome of a reconciliation run
type Result struct {
	Match         *matcher.Result     `json:"match"`
	Aggregates    *aggregator.Summary `json:"aggregates"`
	StatementInfo *parsers.ParseStats `json:"statement_info"`
	LedgerInfo    *parsers.ParseStats `json:"ledger_info"`
	ProcessedAt   time.Time           `json:"processed_at"`
	Duration      time.Duration       `json:"duration"`
}

// Service wires the pipeline components together
type Service struct {
	config          *Config
	statementParser *parsers.StatementParser
	ledgerParser    *parsers.LedgerParser
	engine          *matcher.Engine
	aggregator      *aggregator.Aggregator
	log             logger.Logger
}

// NewService creates a reconciliation service from the configuration
func NewService(config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	norm, err := normalizer.New(config.Normalizer)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "normalizer", config.Normalizer, err)
	}

	ledgerParser, err := parsers.NewLedgerParser(config.Ledger, norm)
	if err != nil {
		return nil, err
	}

	return &Service{
		config:          config,
		statementParser: parsers.NewStatementParser(extractor.New(), norm),
		ledgerParser:    ledgerParser,
		engine:          matcher.NewEngine(),
		aggregator:      aggregator.New(config.Aggregator),
		log:             logger.GetGlobalLogger().WithComponent("reconciler"),
	}, nil
}

// Reconcile runs the full pipeline for one request. It either returns
// a complete result or a single descriptive error, never a partial
// report.
func (s *Service) Reconcile(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	s.log.WithField("ledger", req.LedgerPath).Info("Starting reconciliation")

	ledger, ledgerStats, err := s.ledgerParser.ParseFile(req.LedgerPath)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logger.Fields{
		"stage":     "ledger",
		"rows_kept": ledgerStats.RowsKept,
	}).Debug("Ledger stage complete")

	extract, stmtStats, err := s.statementParser.Parse(ctx, req.PDFData)
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logger.Fields{
		"stage":     "statement",
		"layout":    stmtStats.Layout,
		"rows_kept": stmtStats.RowsKept,
	}).Debug("Statement stage complete")

	match, err := s.engine.Match(ledger, extract)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Match:         match,
		Aggregates:    s.aggregator.Aggregate(extract),
		StatementInfo: stmtStats,
		LedgerInfo:    ledgerStats,
		ProcessedAt:   start,
		Duration:      time.Since(start),
	}

	s.log.WithFields(logger.Fields{
		"matched_rows":      match.Summary.MatchedRows,
		"unmatched_ledger":  match.Summary.UnmatchedLedger,
		"unmatched_extract": match.Summary.UnmatchedExtract,
		"duration":          result.Duration,
	}).Info("Reconciliation complete")

	return result, nil
}

// Extract runs only the statement half of the pipeline. It backs the
// diagnostic CLI command for inspecting what a PDF yields.
func (s *Service) Extract(ctx context.Context, pdfData []byte) (*models.MovementTable, *parsers.ParseStats, error) {
	return s.statementParser.Parse(ctx, pdfData)
}
