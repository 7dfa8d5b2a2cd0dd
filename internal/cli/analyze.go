package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"option-sim/internal/logging"
	"option-sim/internal/models"
	"option-sim/internal/strategy"
	"option-sim/pkg/utils"
)

func newAnalyzeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a multi-leg option strategy",
		Long: `Analyze prices the given legs, aggregates cost and Greeks, and
projects probability-weighted P&L at the requested snapshot times.

Legs are given as KIND:STRIKE:QTY with optional key=value pairs:

  option-sim analyze --price 100 --dte 30 \
    --leg C:105:-1:mark=1.85 --leg C:110:1:mark=0.60

Snapshot selection is exclusive: --partitions, --days-forward or --at-dte.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(app, cmd)
		},
	}

	addStrategyFlags(cmd)
	cmd.Flags().Int("partitions", 0, "evenly partition the horizon into N snapshots")
	cmd.Flags().Float64("days-forward", 0, "snapshot after this many days pass")
	cmd.Flags().String("at-dte", "", "snapshot at this days-to-expiration value")
	cmd.Flags().Bool("margin", false, "include a margin requirement estimate")
	cmd.Flags().Bool("save", false, "persist the analysis run")

	return cmd
}

func runAnalyze(app *App, cmd *cobra.Command) error {
	output := NewOutput(cmd)

	strat, err := strategyFromFlags(app, cmd)
	if err != nil {
		return err
	}

	partitions, _ := cmd.Flags().GetInt("partitions")
	daysForward, _ := cmd.Flags().GetFloat64("days-forward")
	atDTE, _ := cmd.Flags().GetString("at-dte")

	req := strategy.SnapshotRequest{
		Partitions:  partitions,
		DaysForward: daysForward,
	}
	if atDTE != "" {
		dte, err := strconv.ParseFloat(atDTE, 64)
		if err != nil {
			return fmt.Errorf("invalid --at-dte value %q", atDTE)
		}
		req.DTE = models.Ptr(dte)
	}
	if req.Partitions != 0 || req.DaysForward != 0 || req.DTE != nil {
		if err := strat.AddPnL(req); err != nil {
			return err
		}
	}

	summary, err := strat.Summary()
	if err != nil {
		return err
	}

	record := models.AnalysisRecord{
		Symbol:    summary.Symbol,
		Title:     summary.Title,
		Summary:   summary,
		Legs:      strat.Legs(),
		Snapshots: strat.Snapshots(),
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		if app.Store == nil {
			return fmt.Errorf("store unavailable, cannot save analysis")
		}
		id, err := app.Store.SaveAnalysis(cmd.Context(), &record)
		if err != nil {
			return err
		}
		record.ID = id
		logger := logging.WithSymbol(app.Logger, record.Symbol)
		logger.Info().Int64("id", id).Msg("analysis saved")
	}

	withMargin, _ := cmd.Flags().GetBool("margin")

	if output.IsJSON() {
		payload := map[string]interface{}{"analysis": record}
		if withMargin {
			req, err := strat.Margin()
			if err != nil {
				return err
			}
			payload["margin"] = req
		}
		return output.JSON(payload)
	}

	printSummary(output, summary)
	output.Println()
	printLegs(output, record.Legs)

	if len(record.Snapshots) > 0 {
		output.Println()
		printSnapshots(output, record.Snapshots)
	}

	if withMargin {
		req, err := strat.Margin()
		if err != nil {
			return err
		}
		output.Println()
		output.Bold("Margin Estimate")
		output.Printf("  Cash Account:   %s\n", utils.FormatUSD(req.Cash))
		output.Printf("  Margin Account: %s\n", utils.FormatUSD(req.Margin))
	}

	if record.ID != 0 {
		output.Println()
		output.Dim("Saved as analysis #%d", record.ID)
	}
	return nil
}

func printSummary(output *Output, s models.StrategySummary) {
	output.Bold("%s  (%s @ %s)", s.Title, s.Symbol, utils.FormatUSD(s.UnderlyingPrice))
	output.Printf("  DTE:             %.1f\n", s.DaysToExpiration)
	output.Printf("  Volatility:      %.2f%%\n", s.Volatility*100)
	output.Printf("  Expected Move:   ±%s\n", utils.FormatUSD(s.ExpectedMove))
	output.Printf("  Cost:            %s\n", output.FormatPnL(-s.Cost))
	output.Printf("  POP:             %s\n", utils.FormatPercent(s.POP))
	output.Printf("  Expected Profit: %s\n", output.FormatPnL(s.ExpectedProfit))
	output.Printf("  Delta: %+.3f  Theta: %+.3f  Vega: %+.3f\n", s.Delta, s.Theta, s.Vega)
}

func printLegs(output *Output, legs []models.LegView) {
	table := NewTable(output, "Kind", "Strike", "Qty", "DTE", "Mark", "IV", "Delta", "Theta", "Vega")
	for _, leg := range legs {
		table.AddRow(
			leg.Kind.String(),
			fmt.Sprintf("%.2f", leg.Strike),
			utils.FormatQuantity(leg.Quantity),
			fmt.Sprintf("%.1f", leg.DaysToExpiration),
			fmt.Sprintf("%.2f", leg.Mark),
			fmt.Sprintf("%.1f%%", leg.Volatility*100),
			utils.FormatSigned(leg.Delta, 3),
			utils.FormatSigned(leg.Theta, 3),
			utils.FormatSigned(leg.Vega, 3),
		)
	}
	table.Render()
}

func printSnapshots(output *Output, snapshots []models.SnapshotView) {
	table := NewTable(output, "DTE", "StdDev", "POP", "Expected Profit")
	for _, snap := range snapshots {
		table.AddRow(
			fmt.Sprintf("%.1f", snap.DaysToExpiration),
			fmt.Sprintf("%.2f", snap.StdDev),
			utils.FormatPercent(snap.ProbabilityOfProfit),
			output.FormatPnL(snap.ExpectedProfit),
		)
	}
	table.Render()
}

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved analysis runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return fmt.Errorf("store unavailable")
			}
			symbol, _ := cmd.Flags().GetString("symbol")
			limit, _ := cmd.Flags().GetInt("limit")

			records, err := app.Store.GetAnalyses(cmd.Context(), symbol, limit)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(records)
			}
			if len(records) == 0 {
				output.Dim("No saved analyses.")
				return nil
			}
			table := NewTable(output, "ID", "Created", "Symbol", "Title", "Cost", "POP", "Expected Profit")
			for _, rec := range records {
				table.AddRow(
					strconv.FormatInt(rec.ID, 10),
					rec.CreatedAt,
					rec.Symbol,
					rec.Title,
					utils.FormatUSD(rec.Summary.Cost),
					utils.FormatPercent(rec.Summary.POP),
					output.FormatPnL(rec.Summary.ExpectedProfit),
				)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().String("symbol", "", "filter by underlying symbol")
	cmd.Flags().Int("limit", 20, "maximum rows")
	return cmd
}
