package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func newPayoffCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payoff",
		Short: "Export a strategy's payoff curve",
		Long: `Payoff evaluates the strategy's net P&L across the sampled price grid
at the given days to expiration and writes it as CSV (price,pnl), or as
JSON with --json. Use --dte 0 for the expiration payoff.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPayoff(app, cmd)
		},
	}

	addStrategyFlags(cmd)
	cmd.Flags().Float64("at-dte", 0, "days to expiration at evaluation time")
	cmd.Flags().String("output", "", "write to file instead of stdout")

	return cmd
}

func runPayoff(app *App, cmd *cobra.Command) error {
	output := NewOutput(cmd)

	strat, err := strategyFromFlags(app, cmd)
	if err != nil {
		return err
	}

	atDTE, _ := cmd.Flags().GetFloat64("at-dte")
	prices, pnl, err := strat.PayoffCurve(atDTE)
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"dte":    atDTE,
			"prices": prices,
			"pnl":    pnl,
		})
	}

	out := cmd.OutOrStdout()
	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"price", "pnl"}); err != nil {
		return err
	}
	for i := range prices {
		record := []string{
			strconv.FormatFloat(prices[i], 'f', 4, 64),
			strconv.FormatFloat(pnl[i], 'f', 4, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if outputPath != "" {
		output.Success("Wrote %d points to %s", len(prices), outputPath)
	}
	return nil
}
