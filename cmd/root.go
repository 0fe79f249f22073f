// Package cmd wires the CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "listingpress",
	Short: "Generate print-ready property brochures from listing data",
	Long: `ListingPress turns commercial listing records into print-ready PDF
brochures: photos are classified and placed into page templates, marketing
copy is composed by AI (with a deterministic offline fallback), and the
result is rendered, scored, and stored.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
