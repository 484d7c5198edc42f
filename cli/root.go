// Package cli is the yarmarket command line: the HTTP server and the
// operator commands that run against the same database.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	rootCmd    *cobra.Command
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "yarmarket",
		Short: "Yar marketplace order and escrow service",
		Long: `yarmarket runs the marketplace API: checkout, vendor fulfillment,
payment reconciliation, escrow release and admin oversight.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (default ./config.yaml if present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(releaseEscrowCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(exportOrdersCmd)
	rootCmd.AddCommand(checkTotalsCmd)
}

// Execute runs the root command
func Execute(version string) error {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
