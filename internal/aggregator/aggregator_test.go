package aggregator

import (
	"testing"

	"golang-conciliation-service/internal/models"
)

func extractWith(movements ...*models.Movement) *models.MovementTable {
	t := models.NewMovementTable(models.OriginExtract)
	for _, m := range movements {
		t.Append(m)
	}
	return t
}

func TestAggregateDefaults(t *testing.T) {
	extract := extractWith(
		models.NewMovement("02/01/2025", "IMPTO GOBIERNO 4X1000", -4520),
		models.NewMovement("09/01/2025", "IMPTO GOBIERNO 4X1000", -1200),
		models.NewMovement("15/01/2025", "COMISION PAGO A NOMINA", -9000),
		models.NewMovement("31/01/2025", "ABONO INTERESES AHORROS", 350),
		models.NewMovement("31/01/2025", "COBRO IVA PAGOS AUTOMATICOS", -780),
		models.NewMovement("20/01/2025", "PAGO PROVEEDOR CUALQUIERA", -5000),
	)

	summary := New(DefaultConfig()).Aggregate(extract)

	if len(summary.Income) != 1 {
		t.Fatalf("income buckets = %d, expected 1", len(summary.Income))
	}
	if summary.Income[0].Label != "ABONO INTERESES AHORROS" || summary.Income[0].Total != 350 {
		t.Errorf("unexpected income bucket: %+v", summary.Income[0])
	}

	if len(summary.BankFees) != 2 {
		t.Fatalf("bank fee buckets = %d, expected 2", len(summary.BankFees))
	}
	// Declaration order: 4x1000 before the nomina commission
	if summary.BankFees[0].Label != "IMPTO GOBIERNO 4X1000" {
		t.Errorf("bucket order should follow label declaration: %+v", summary.BankFees)
	}
	if summary.BankFees[0].Total != 5720 || summary.BankFees[0].Count != 2 {
		t.Errorf("amounts should be summed as absolute values: %+v", summary.BankFees[0])
	}

	if len(summary.Taxes) != 1 || summary.Taxes[0].Total != 780 {
		t.Errorf("unexpected tax buckets: %+v", summary.Taxes)
	}
}

func TestAggregateExactLabelOnly(t *testing.T) {
	extract := extractWith(
		models.NewMovement("02/01/2025", "IMPTO GOBIERNO 4X1000 EXTRA", -100),
	)

	summary := New(nil).Aggregate(extract)
	if len(summary.BankFees) != 0 {
		t.Errorf("near-miss labels must not match: %+v", summary.BankFees)
	}
}

func TestAggregateEmptyLabelsOmitted(t *testing.T) {
	summary := New(DefaultConfig()).Aggregate(extractWith())
	if len(summary.Income)+len(summary.BankFees)+len(summary.Taxes) != 0 {
		t.Errorf("empty extract should produce no buckets: %+v", summary)
	}

	if got := New(DefaultConfig()).Aggregate(nil); len(got.BankFees) != 0 {
		t.Errorf("nil extract should produce no buckets")
	}
}

func TestAggregateAccentInsensitiveLabels(t *testing.T) {
	cfg := &Config{BankFeeLabels: []string{"Comisión Pago a Nómina"}}
	extract := extractWith(
		models.NewMovement("02/01/2025", "COMISION PAGO A NOMINA", -500),
	)

	summary := New(cfg).Aggregate(extract)
	if len(summary.BankFees) != 1 || summary.BankFees[0].Total != 500 {
		t.Errorf("configured labels should normalize before comparison: %+v", summary.BankFees)
	}
}
