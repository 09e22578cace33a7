package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"golang-conciliation-service/cmd/conciliador/config"
	"golang-conciliation-service/internal/models"
	"golang-conciliation-service/internal/parsers"
	"golang-conciliation-service/internal/reconciler"
	"golang-conciliation-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	extractInputPDF string
	extractFormat   string
)

// extractCmd dumps what the statement pipeline reads from a PDF,
// useful for diagnosing statements that reconcile to zero matches
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract and print the movements read from a bank statement PDF",
	Long: `Extract runs only the PDF side of the pipeline: layout detection,
table extraction and normalization. It prints the detected layout, the
parsing strategy that produced rows, and the normalized movements.

Use it to verify a statement is readable before reconciling, or to see
why a reconciliation produced unexpected results.

Examples:
  conciliador extract --extract-pdf extracto.pdf
  conciliador extract -e extracto.pdf -f csv > movimientos.csv
  conciliador extract -e extracto.pdf -f json`,

	PreRunE: validateExtractFlags,
	RunE:    runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&extractInputPDF, "extract-pdf", "e", "", "path to the bank statement PDF (required)")
	extractCmd.Flags().StringVarP(&extractFormat, "output-format", "f", "console", "output format: console, json, csv")

	extractCmd.MarkFlagRequired("extract-pdf")
}

func validateExtractFlags(cmd *cobra.Command, args []string) error {
	if err := validateFileExists(extractInputPDF, "bank statement PDF"); err != nil {
		return err
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[extractFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", extractFormat)
	}

	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	pdfData, err := os.ReadFile(extractInputPDF)
	if err != nil {
		return errors.FileError(errors.CodeFileNotFound, extractInputPDF, err)
	}

	service, err := reconciler.NewService(config.CreateReconcilerConfig())
	if err != nil {
		return err
	}

	table, stats, err := service.Extract(ctx, pdfData)
	if err != nil {
		return err
	}

	switch extractFormat {
	case "json":
		return printExtractJSON(table, stats)
	case "csv":
		return printExtractCSV(table)
	default:
		return printExtractConsole(table, stats)
	}
}

func printExtractConsole(table *models.MovementTable, stats *parsers.ParseStats) error {
	fmt.Printf("Layout:    %s\n", stats.Layout)
	fmt.Printf("Strategy:  %s\n", stats.Strategy)
	fmt.Printf("Rows:      %d kept of %d seen\n\n", stats.RowsKept, stats.RowsSeen)

	if table.IsEmpty() {
		fmt.Println("No movements extracted.")
		if viper.GetBool("verbose") {
			fmt.Println("The PDF may be scanned, empty or in an unsupported layout.")
		}
		return nil
	}

	fmt.Printf("%-12s  %-45s  %15s\n", "FECHA", "DESCRIPCION", "VALOR")
	for _, m := range table.Movements {
		fmt.Printf("%-12s  %-45s  %15d\n", m.Date, m.Description, m.Amount)
	}
	fmt.Printf("\nTotal: %d movements, net %d\n", table.Len(), table.Sum())
	return nil
}

func printExtractJSON(table *models.MovementTable, stats *parsers.ParseStats) error {
	out := struct {
		Stats     *parsers.ParseStats `json:"stats"`
		Movements []*models.Movement  `json:"movements"`
	}{
		Stats:     stats,
		Movements: table.Movements,
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func printExtractCSV(table *models.MovementTable) error {
	w := csv.NewWriter(os.Stdout)

	if err := w.Write([]string{"fecha", "descripcion", "valor"}); err != nil {
		return err
	}
	for _, m := range table.Movements {
		record := []string{m.Date, m.Description, strconv.FormatInt(m.Amount, 10)}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
