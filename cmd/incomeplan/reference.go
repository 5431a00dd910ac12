package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rpgo/etf-income-planner/internal/output"
)

func newReferenceCmd(a *app) *cobra.Command {
	var referenceFile string

	cmd := &cobra.Command{
		Use:   "reference",
		Short: "List the ETFs and state tax rates the planner knows",
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := a.loadReference(referenceFile)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "ETFS")
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "  Ticker\tYield\tFrequency\tNext Pay Date")
			for _, ticker := range ref.Tickers() {
				etf, err := ref.ETF(ticker)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", etf.Ticker, output.FormatPercentage(etf.Yield.Shift(2)), etf.Frequency, etf.NextPayDate)
			}
			tw.Flush()

			fmt.Fprintln(out)
			fmt.Fprintln(out, "STATE TAX RATES")
			tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, state := range ref.States() {
				fmt.Fprintf(tw, "  %s\t%s\n", state, output.FormatPercentage(ref.StateRate(state).Shift(2)))
			}
			fmt.Fprintf(tw, "  (any other state)\t%s\n", output.FormatPercentage(ref.DefaultStateRate.Shift(2)))
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&referenceFile, "reference", "", "Reference data override file (YAML)")
	return cmd
}
