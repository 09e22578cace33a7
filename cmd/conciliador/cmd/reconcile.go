package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang-conciliation-service/cmd/conciliador/config"
	"golang-conciliation-service/internal/reconciler"
	"golang-conciliation-service/internal/reporter"
	"golang-conciliation-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	extractPDF   string
	ledgerFile   string
	outputFormat string
	outputFile   string
	defaultYear  int
	ledgerSheet  string
)

// defaultWorkbookName is used when the xlsx format has no explicit
// output file; the workbook is binary and never goes to stdout
const defaultWorkbookName = "conciliacion.xlsx"

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile an accounting ledger with a bank statement PDF",
	Long: `Reconcile reads the accounting ledger (xlsx or CSV) and the bank
statement PDF, matches movements on exact date and amount, and writes a
report with the joined table, the four discrepancy cases and the
bank-charge summary.

Examples:
  # Workbook report next to the inputs
  conciliador reconcile --extract-pdf extracto.pdf --ledger-file contabilidad.xlsx

  # JSON to stdout
  conciliador reconcile -e extracto.pdf -l contabilidad.csv -f json

  # Statement without year markers, booked in a specific year
  conciliador reconcile -e extracto.pdf -l contabilidad.xlsx --default-year 2024`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringVarP(&extractPDF, "extract-pdf", "e", "", "path to the bank statement PDF (required)")
	reconcileCmd.Flags().StringVarP(&ledgerFile, "ledger-file", "l", "", "path to the accounting ledger xlsx or CSV (required)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "xlsx", "output format: xlsx, json, console")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: "+defaultWorkbookName+" for xlsx, stdout otherwise)")

	// Parsing configuration flags
	reconcileCmd.Flags().IntVar(&defaultYear, "default-year", 2025, "year assumed for statement dates without one")
	reconcileCmd.Flags().StringVar(&ledgerSheet, "sheet", "", "ledger workbook sheet name (default: first sheet)")

	reconcileCmd.MarkFlagRequired("extract-pdf")
	reconcileCmd.MarkFlagRequired("ledger-file")

	// Bind flags to viper
	viper.BindPFlag("extract-pdf", reconcileCmd.Flags().Lookup("extract-pdf"))
	viper.BindPFlag("ledger-file", reconcileCmd.Flags().Lookup("ledger-file"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("default-year", reconcileCmd.Flags().Lookup("default-year"))
	viper.BindPFlag("sheet", reconcileCmd.Flags().Lookup("sheet"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	extractPDF = viper.GetString("extract-pdf")
	ledgerFile = viper.GetString("ledger-file")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	defaultYear = viper.GetInt("default-year")
	ledgerSheet = viper.GetString("sheet")

	if extractPDF == "" {
		return fmt.Errorf("extract-pdf is required")
	}
	if ledgerFile == "" {
		return fmt.Errorf("ledger-file is required")
	}

	if err := validateFileExists(extractPDF, "bank statement PDF"); err != nil {
		return err
	}
	if err := validateFileExists(ledgerFile, "ledger file"); err != nil {
		return err
	}

	validFormats := map[string]bool{"xlsx": true, "json": true, "console": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: xlsx, json, console", outputFormat)
	}

	if outputFile == "" && outputFormat == "xlsx" {
		outputFile = defaultWorkbookName
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Statement PDF: %s\n", extractPDF)
		fmt.Fprintf(os.Stderr, "Ledger file: %s\n", ledgerFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	pdfData, err := os.ReadFile(extractPDF)
	if err != nil {
		return errors.FileError(errors.CodeFileNotFound, extractPDF, err)
	}

	service, err := reconciler.NewService(config.CreateReconcilerConfig())
	if err != nil {
		return err
	}

	result, err := service.Reconcile(ctx, &reconciler.Request{
		PDFData:    pdfData,
		LedgerPath: ledgerFile,
	})
	if err != nil {
		return err
	}

	reportConfig, err := config.CreateReportConfig(outputFormat)
	if err != nil {
		return err
	}
	generator, err := reporter.NewGenerator(reportConfig)
	if err != nil {
		return err
	}

	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return errors.FileError(errors.CodeFilePermission, outputFile, err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := generator.Generate(result, output); err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		s := result.Match.Summary
		fmt.Fprintf(os.Stderr, "\nReconciliation completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Processed %d ledger movements and %d statement movements.\n",
			s.LedgerRows, s.ExtractRows)
		fmt.Fprintf(os.Stderr, "Found %d matches, %d ledger-only, %d extract-only movements.\n",
			s.MatchedRows, s.UnmatchedLedger, s.UnmatchedExtract)
		fmt.Fprintf(os.Stderr, "Processing time: %v\n", result.Duration)
	}

	return nil
}
