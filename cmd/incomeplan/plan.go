package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rpgo/etf-income-planner/internal/calculation"
	"github.com/rpgo/etf-income-planner/internal/config"
	"github.com/rpgo/etf-income-planner/internal/domain"
	"github.com/rpgo/etf-income-planner/internal/output"
)

// planOptions are the flags shared by plan and schedule. Only plan binds the
// overlay flags.
type planOptions struct {
	configFile    string
	referenceFile string
	investment    string
	income        string
	state         string
	etfs          []string

	performance bool
	start       string
	end         string
	interval    string
	renormalize bool
	priceDir    string
	alpaca      bool
}

func (o *planOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&o.configFile, "config", "c", "", "Plan file (YAML or JSON); flags override its values")
	f.StringVar(&o.referenceFile, "reference", "", "Reference data override file (YAML)")
	f.StringVar(&o.investment, "investment", "250000", "Investment amount in dollars")
	f.StringVar(&o.income, "income", domain.DefaultTaxableIncome.String(), "Current taxable income in dollars")
	f.StringVar(&o.state, "state", "Massachusetts", "State of residence (unlisted states use 5%)")
	f.StringArrayVar(&o.etfs, "etf", []string{"JEPI", "SPYD"}, "ETF to include, as TICKER or TICKER=PERCENT (repeatable)")
}

func (o *planOptions) bindOverlay(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&o.performance, "performance", false, "Add the historical performance overlay")
	f.StringVar(&o.start, "start", "", "Overlay start date (YYYY-MM-DD, default 2019-01-01)")
	f.StringVar(&o.end, "end", "", "Overlay end date (YYYY-MM-DD, default today)")
	f.StringVar(&o.interval, "interval", "", "Overlay sampling interval (daily|weekly|monthly)")
	f.BoolVar(&o.renormalize, "renormalize", false, "Rescale weights over the tickers that returned prices")
	f.StringVar(&o.priceDir, "prices", "", "Directory of <TICKER>.csv price files; overrides PLANNER_PRICE_DIR")
	f.BoolVar(&o.alpaca, "alpaca", false, "Fetch missing prices from Alpaca (needs APCA_API_KEY_ID/APCA_API_SECRET_KEY)")
}

// parseETFs turns --etf values into a selection and, when any value carries a
// percentage, a weight map.
func parseETFs(values []string) ([]string, map[string]decimal.Decimal, error) {
	var selection []string
	weights := map[string]decimal.Decimal{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			ticker, pct, hasPct := strings.Cut(part, "=")
			ticker = strings.ToUpper(strings.TrimSpace(ticker))
			selection = append(selection, ticker)
			if !hasPct {
				continue
			}
			w, err := decimal.NewFromString(strings.TrimSuffix(strings.TrimSpace(pct), "%"))
			if err != nil {
				return nil, nil, fmt.Errorf("invalid weight in --etf %q: %w", part, err)
			}
			weights[ticker] = w
		}
	}
	if len(weights) == 0 {
		weights = nil
	}
	return selection, weights, nil
}

// request builds the plan request from the plan file (if any) and flags.
// Without a file every flag applies, defaults included; with a file only the
// flags given on the command line override it.
func (o *planOptions) request(cmd *cobra.Command) (*domain.PlanRequest, error) {
	parser := config.NewInputParser()
	req := &domain.PlanRequest{}
	fromFile := o.configFile != ""
	if fromFile {
		data, err := os.ReadFile(o.configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", o.configFile, err)
		}
		if req, err = parser.ParsePlanRequest(data); err != nil {
			return nil, err
		}
	}
	use := func(name string) bool { return !fromFile || cmd.Flags().Changed(name) }

	if use("investment") {
		v, err := decimal.NewFromString(o.investment)
		if err != nil {
			return nil, fmt.Errorf("invalid --investment %q: %w", o.investment, err)
		}
		req.Investment = v
	}
	if use("income") {
		v, err := decimal.NewFromString(o.income)
		if err != nil {
			return nil, fmt.Errorf("invalid --income %q: %w", o.income, err)
		}
		req.TaxableIncome = &v
	}
	if use("state") {
		req.State = o.state
	}
	if use("etf") {
		selection, weights, err := parseETFs(o.etfs)
		if err != nil {
			return nil, err
		}
		req.Selection, req.Weights = selection, weights
	}

	if o.performance || cmd.Flags().Changed("start") || cmd.Flags().Changed("end") || cmd.Flags().Changed("interval") {
		window := domain.PerformanceWindow{}
		if req.Performance != nil {
			window = *req.Performance
		}
		if err := o.applyWindow(&window); err != nil {
			return nil, err
		}
		req.Performance = &window
	}

	config.NormalizeTickers(req)
	if err := parser.ValidatePlanRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (o *planOptions) applyWindow(w *domain.PerformanceWindow) error {
	if o.start != "" {
		if err := w.Start.UnmarshalText([]byte(o.start)); err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
	}
	if o.end != "" {
		if err := w.End.UnmarshalText([]byte(o.end)); err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
	}
	if o.interval != "" {
		if err := w.Interval.UnmarshalText([]byte(o.interval)); err != nil {
			return err
		}
	}
	if o.renormalize {
		w.Renormalize = true
	}
	return nil
}

// reportProblems prints validation problems as warnings.
func reportProblems(w io.Writer, err error) {
	var verr *config.ValidationError
	if errors.As(err, &verr) {
		for _, p := range verr.Problems {
			fmt.Fprintf(w, "⚠️  %s\n", p)
		}
	}
}

func newPlanCmd(a *app) *cobra.Command {
	opts := &planOptions{}
	var format, outputPath, savePlan string
	var example bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Estimate income and project the distribution calendar",
		Example: `  incomeplan plan --investment 100000 --income 45000 --state Texas --etf JEPI=50 --etf SPYD=50
  incomeplan plan -c plan.yaml --format xlsx -o summary.xlsx
  incomeplan plan --performance --prices ./prices --start 2020-01-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if example {
				data, err := config.NewInputParser().MarshalPlan(config.NewInputParser().CreateExamplePlan())
				if err != nil {
					return err
				}
				if outputPath != "" {
					return os.WriteFile(outputPath, data, 0644)
				}
				_, err = out.Write(data)
				return err
			}

			req, err := opts.request(cmd)
			if err != nil {
				reportProblems(cmd.ErrOrStderr(), err)
				return err
			}
			if savePlan != "" {
				if err := output.SavePlan(req, savePlan); err != nil {
					return fmt.Errorf("failed to save plan: %w", err)
				}
			}

			ref, err := a.loadReference(opts.referenceFile)
			if err != nil {
				return err
			}
			var prices calculation.PriceSource
			if req.Performance != nil {
				prices = a.priceSource(opts.priceDir, opts.alpaca)
			}
			result, err := a.newPlanner(ref, prices).Plan(cmd.Context(), *req)
			if err != nil {
				return err
			}
			return writeResult(out, result, format, outputPath)
		},
	}

	opts.bind(cmd)
	opts.bindOverlay(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "console", fmt.Sprintf("Output format (%s, or all)", strings.Join(output.AvailableFormatterNames(), "|")))
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().StringVar(&savePlan, "save-plan", "", "Also save the effective plan as YAML")
	cmd.Flags().BoolVar(&example, "example", false, "Print an example plan file and exit")
	return cmd
}

// textFormats are written to stdout when no output file is given.
var textFormats = map[string]bool{"console": true, "json": true, "csv": true, "summary-csv": true, "markdown": true}

func writeResult(out io.Writer, result *domain.PlanResult, format, path string) error {
	name := output.NormalizeFormatName(format)
	if path != "" || name == "all" || !textFormats[name] {
		files, err := output.GenerateReport(result, format, path)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(out, "Report written to %s\n", f)
		}
		return nil
	}

	f := output.GetFormatterByName(name)
	data, err := f.Format(result)
	if err != nil {
		return fmt.Errorf("%s formatter failed: %w", f.Name(), err)
	}
	if name == "markdown" && isTerminal(out) {
		if rendered, err := renderMarkdown(data); err == nil {
			data = rendered
		}
	}
	_, err = out.Write(data)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func renderMarkdown(md []byte) ([]byte, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return nil, err
	}
	s, err := r.Render(string(md))
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func newScheduleCmd(a *app) *cobra.Command {
	opts := &planOptions{}
	var outputPath string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the projected distribution schedule as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request(cmd)
			if err != nil {
				reportProblems(cmd.ErrOrStderr(), err)
				return err
			}
			req.Performance = nil
			ref, err := a.loadReference(opts.referenceFile)
			if err != nil {
				return err
			}
			result, err := a.newPlanner(ref, nil).Plan(cmd.Context(), *req)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), result, "csv", outputPath)
		},
	}
	opts.bind(cmd)
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
