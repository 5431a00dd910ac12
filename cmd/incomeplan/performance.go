package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpgo/etf-income-planner/internal/config"
	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/rpgo/etf-income-planner/internal/output"
)

func newPerformanceCmd(a *app) *cobra.Command {
	opts := &planOptions{}

	cmd := &cobra.Command{
		Use:   "performance",
		Short: "Show the basket's weighted historical return",
		Example: `  incomeplan performance --etf JEPI=60 --etf SPYD=40 --prices ./prices --start 2020-01-01 --interval weekly`,
		RunE: func(cmd *cobra.Command, args []string) error {
			selection, weights, err := parseETFs(opts.etfs)
			if err != nil {
				return err
			}
			req := domain.PlanRequest{Selection: selection, Weights: weights}
			config.NormalizeTickers(&req)
			w := req.WeightMap()
			if len(w) == 0 {
				return fmt.Errorf("select at least one ETF with --etf")
			}

			var window domain.PerformanceWindow
			if err := opts.applyWindow(&window); err != nil {
				return err
			}
			if !window.Start.IsZero() && !window.End.IsZero() && window.Start.After(window.End.Time) {
				return fmt.Errorf("performance start %s is after end %s", window.Start, window.End)
			}

			prices := a.priceSource(opts.priceDir, opts.alpaca)
			if prices == nil {
				return fmt.Errorf("no price source configured: pass --prices, set PLANNER_PRICE_DIR or use --alpaca")
			}
			perf, err := a.newPlanner(nil, prices).Performance(cmd.Context(), domain.PerformanceRequest{Weights: w, Window: window})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(output.FormatPerformance(perf))
			return err
		},
	}
	cmd.Flags().StringArrayVar(&opts.etfs, "etf", []string{"JEPI", "SPYD"}, "ETF to include, as TICKER or TICKER=PERCENT (repeatable)")
	opts.bindOverlay(cmd)
	return cmd
}
