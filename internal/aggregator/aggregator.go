// Package aggregator groups bank statement movements into income,
// bank-fee and tax buckets by exact description label.
package aggregator

import (
	"golang-conciliation-service/internal/models"
	"golang-conciliation-service/internal/normalizer"
	"golang-conciliation-service/pkg/logger"
)

// Config holds the label sets for each bucket. Labels are compared
// after text normalization, so accents and case never matter.
type Config struct {
	IncomeLabels  []string `json:"income_labels"`
	BankFeeLabels []string `json:"bank_fee_labels"`
	TaxLabels     []string `json:"tax_labels"`
}

// DefaultConfig returns the stock label sets
func DefaultConfig() *Config {
	return &Config{
		IncomeLabels: []string{
			"ABONO INTERESES AHORROS",
			"AJUSTE INTERES AHORROS DB",
		},
		BankFeeLabels: []string{
			"IMPTO GOBIERNO 4X1000",
			"CUOTA MANEJO SUC VIRT EMPRESA",
			"COMISION PAGO A PROVEEDORES",
			"COMISION PAGO A NOMINA",
		},
		TaxLabels: []string{
			"IVA CUOTA MANEJO SUC VIRT EMP",
			"COBRO IVA PAGOS AUTOMATICOS",
		},
	}
}

// Bucket is the aggregate for one label
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	Total int64  `json:"total"`
}

// Summary carries the three aggregates in report order
type Summary struct {
	Income   []Bucket `json:"income"`
	BankFees []Bucket `json:"bank_fees"`
	Taxes    []Bucket `json:"taxes"`
}

// Aggregator computes label aggregates over the extract table
type Aggregator struct {
	config *Config
	log    logger.Logger
}

// New creates an Aggregator
func New(config *Config) *Aggregator {
	if config == nil {
		config = DefaultConfig()
	}
	return &Aggregator{
		config: config,
		log:    logger.GetGlobalLogger().WithComponent("aggregator"),
	}
}

// Aggregate sums the absolute amounts of extract movements whose
// description equals a configured label. Buckets follow the label
// declaration order; labels that matched nothing are omitted.
func (a *Aggregator) Aggregate(extract *models.MovementTable) *Summary {
	return &Summary{
		Income:   a.bucketize(extract, a.config.IncomeLabels),
		BankFees: a.bucketize(extract, a.config.BankFeeLabels),
		Taxes:    a.bucketize(extract, a.config.TaxLabels),
	}
}

func (a *Aggregator) bucketize(extract *models.MovementTable, labels []string) []Bucket {
	buckets := make([]Bucket, 0, len(labels))
	if extract == nil {
		return buckets
	}

	for _, label := range labels {
		target := normalizer.NormalizeText(label)
		bucket := Bucket{Label: target}
		for _, m := range extract.Movements {
			if m.Description != target {
				continue
			}
			bucket.Count++
			bucket.Total += abs(m.Amount)
		}
		if bucket.Count > 0 {
			buckets = append(buckets, bucket)
		}
	}
	return buckets
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
