package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Proton-105/vending-machine/internal/vending"
)

func pricesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prices",
		Short: "List products and accepted coins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			fmt.Fprintln(w, "PRODUCT\tPRICE")
			for _, product := range vending.Products() {
				price, _ := product.Price()
				fmt.Fprintf(w, "%s\t%s\n", product, vending.FormatCents(price))
			}

			fmt.Fprintln(w, "\nCOIN\tVALUE")
			for _, coin := range vending.Coins() {
				value := vending.FormatCents(coin.Value())
				if !coin.Accepted() {
					value = "rejected"
				}
				fmt.Fprintf(w, "%s\t%s\n", coin, value)
			}

			return w.Flush()
		},
	}
}
