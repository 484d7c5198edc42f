package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/junaidrashid-git/yar-marketplace/notify"
)

var (
	exportOut   string
	exportSince string
)

var exportOrdersCmd = &cobra.Command{
	Use:   "export-orders",
	Short: "Write an xlsx report of orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		var since time.Time
		if exportSince != "" {
			t, err := time.Parse("2006-01-02", exportSince)
			if err != nil {
				return fmt.Errorf("--since must be YYYY-MM-DD: %w", err)
			}
			since = t
		}

		a, err := newApp(cmd.Context(), notify.Discard{})
		if err != nil {
			return err
		}
		defer a.close()

		f, err := os.Create(exportOut)
		if err != nil {
			return err
		}
		n, err := a.oversight(notify.Discard{}).ExportOrders(cmd.Context(), f, since)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d order(s) to %s\n", n, exportOut)
		return nil
	},
}

func init() {
	exportOrdersCmd.Flags().StringVarP(&exportOut, "out", "o", "orders.xlsx", "output file")
	exportOrdersCmd.Flags().StringVar(&exportSince, "since", "", "only orders created on or after this date (YYYY-MM-DD)")
}
