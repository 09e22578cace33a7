// Package config builds runtime configurations from CLI flags and the
// optional config file.
package config

import (
	"github.com/spf13/viper"

	"golang-conciliation-service/internal/aggregator"
	"golang-conciliation-service/internal/normalizer"
	"golang-conciliation-service/internal/parsers"
	"golang-conciliation-service/internal/reconciler"
	"golang-conciliation-service/internal/reporter"
	"golang-conciliation-service/pkg/errors"
)

// CreateNormalizerConfig creates the normalizer configuration with CLI
// overrides applied
func CreateNormalizerConfig() *normalizer.Config {
	config := normalizer.DefaultConfig()

	if year := viper.GetInt("default-year"); year != 0 {
		config.DefaultYear = year
	}

	return config
}

// CreateLedgerConfig creates the ledger parser configuration with CLI
// overrides applied
func CreateLedgerConfig() *parsers.LedgerConfig {
	config := parsers.DefaultLedgerConfig()

	config.SheetName = viper.GetString("sheet")

	// Alias overrides only come from the config file
	if aliases := viper.GetStringSlice("ledger.date-aliases"); len(aliases) > 0 {
		config.DateAliases = aliases
	}
	if aliases := viper.GetStringSlice("ledger.amount-aliases"); len(aliases) > 0 {
		config.AmountAliases = aliases
	}
	if aliases := viper.GetStringSlice("ledger.concept-aliases"); len(aliases) > 0 {
		config.ConceptAliases = aliases
	}

	return config
}

// CreateAggregatorConfig creates the bank-charge aggregation
// configuration. Label sets can be replaced from the config file for
// banks with different charge descriptions.
func CreateAggregatorConfig() *aggregator.Config {
	config := aggregator.DefaultConfig()

	if labels := viper.GetStringSlice("charges.income-labels"); len(labels) > 0 {
		config.IncomeLabels = labels
	}
	if labels := viper.GetStringSlice("charges.bank-fee-labels"); len(labels) > 0 {
		config.BankFeeLabels = labels
	}
	if labels := viper.GetStringSlice("charges.tax-labels"); len(labels) > 0 {
		config.TaxLabels = labels
	}

	return config
}

// CreateReconcilerConfig assembles the full service configuration
func CreateReconcilerConfig() *reconciler.Config {
	return &reconciler.Config{
		Normalizer: CreateNormalizerConfig(),
		Ledger:     CreateLedgerConfig(),
		Aggregator: CreateAggregatorConfig(),
	}
}

// CreateReportConfig creates a report configuration for the specified
// output format
func CreateReportConfig(format string) (*reporter.Config, error) {
	config := reporter.DefaultConfig()

	switch format {
	case "xlsx":
		config.Format = reporter.FormatXLSX
	case "json":
		config.Format = reporter.FormatJSON
	case "console":
		config.Format = reporter.FormatConsole
	default:
		return nil, errors.ReportError(errors.CodeUnsupportedFormat, format, nil)
	}

	if viper.IsSet("report.include-matched-rows") {
		config.IncludeMatchedRows = viper.GetBool("report.include-matched-rows")
	}

	return config, nil
}
