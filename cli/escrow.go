package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var releaseEscrowCmd = &cobra.Command{
	Use:   "release-escrow",
	Short: "Release escrow for every delivered order past its hold window",
	Long: `Runs one escrow sweep, the same pass the server runs on its interval.

Examples:
  yarmarket release-escrow
  yarmarket release-escrow --config /etc/yarmarket/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.close()

		n, err := a.engine.ReleaseDue(cmd.Context(), time.Now())
		fmt.Fprintf(cmd.OutOrStdout(), "released %d order(s)\n", n)
		return err
	},
}
