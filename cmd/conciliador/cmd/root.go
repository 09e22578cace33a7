package cmd

import (
	"fmt"
	"os"

	"golang-conciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile   string
	verbose   bool
	logFormat string
	version   = "dev"
	commit    = "unknown"
	date      = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "conciliador",
	Short: "Bank statement reconciliation tool",
	Long: `Conciliador compares an accounting ledger against a bank statement PDF,
matches movements by date and amount, and reports the differences split
into four cases plus a bank-charge summary.

Examples:
  conciliador reconcile --extract-pdf extracto.pdf --ledger-file contabilidad.xlsx
  conciliador reconcile -e extracto.pdf -l contabilidad.xlsx -f json -o reporte.json
  conciliador extract --extract-pdf extracto.pdf
  conciliador version`,
	Version: getVersionString(),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text, json")

	// Bind flags to viper
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)

		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file: %s\n", err)
			os.Exit(1)
		}

		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}

	// Read environment variables that match
	viper.SetEnvPrefix("CONCILIADOR")
	viper.AutomaticEnv()

	configureLogging()
}

func configureLogging() {
	cfg := logger.DefaultConfig()
	if viper.GetBool("verbose") {
		cfg.Level = logger.DebugLevel
	}
	if viper.GetString("log-format") == "json" {
		cfg.Format = logger.JSONFormat
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %s\n", err)
		os.Exit(1)
	}
	logger.SetGlobalLogger(log)
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
