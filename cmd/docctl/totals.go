package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	financeapp "github.com/oneflow/backend/internal/application/finance"
)

func newTotalsCmd(app *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "totals [file]",
		Short: "Compute line amounts and document totals",
		Long: `Reads {"items": [...]} JSON, the body accepted by POST /finance/calculate,
from a file or standard input and prints every line amount with the
subtotal, tax and total.`,
		Example: `  echo '{"items":[{"product":"Consulting","quantity":10,"unit_price":5000,"tax_rate_percent":18}]}' | docctl totals`,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}
			return runTotals(app, src, cmd.OutOrStdout())
		},
	}
}

func runTotals(app *cli, src io.Reader, out io.Writer) error {
	var req financeapp.CalculateRequest
	if err := json.NewDecoder(src).Decode(&req); err != nil {
		return fmt.Errorf("failed to decode line items: %w", err)
	}

	totals := financeapp.NewDocumentService(nil, nil, nil, nil, app.log).Calculate(req)
	for i, item := range totals.Items {
		fmt.Fprintf(out, "%3d  %-30s %12s x %12s  @%6s%%  %14s\n", i+1, item.Product,
			item.Quantity.String(), item.UnitPrice.StringFixed(2), item.TaxRatePercent.String(), item.Amount.StringFixed(2))
	}
	fmt.Fprintf(out, "%-10s %14s\n", "Subtotal", totals.Subtotal.StringFixed(2))
	fmt.Fprintf(out, "%-10s %14s\n", "Tax", totals.Tax.StringFixed(2))
	fmt.Fprintf(out, "%-10s %14s\n", "Total", totals.Total.StringFixed(2))
	return nil
}
