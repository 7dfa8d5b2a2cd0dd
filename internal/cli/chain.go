package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"option-sim/internal/chain"
	"option-sim/internal/logging"
	"option-sim/internal/models"
	"option-sim/internal/strategy"
	"option-sim/pkg/utils"
)

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Option chain import and strategy building",
		Long: `Chain manages imported option chain snapshots. Snapshots are loaded
from CSV exports, stored locally, and used to build strategies by delta
or strike.`,
	}

	cmd.AddCommand(newChainImportCmd(app))
	cmd.AddCommand(newChainListCmd(app))
	cmd.AddCommand(newChainShowCmd(app))
	cmd.AddCommand(newChainDeleteCmd(app))
	cmd.AddCommand(newChainBuildCmd(app))

	return cmd
}

func requireStore(app *App) error {
	if app.Store == nil {
		return fmt.Errorf("store unavailable")
	}
	return nil
}

func newChainImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <csv-file>",
		Short: "Import a chain snapshot from CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening chain csv: %w", err)
			}
			defer f.Close()

			c, err := chain.FromCSV(f)
			if err != nil {
				return err
			}
			total := c.Len()

			if purge, _ := cmd.Flags().GetBool("purge"); purge {
				minOI, _ := cmd.Flags().GetInt64("min-open-interest")
				c = c.Purge(chain.PurgeOptions{MinOpenInterest: minOI})
			}

			source := filepath.Base(args[0])
			if err := app.Store.SaveChain(cmd.Context(), source, c.Quotes()); err != nil {
				return err
			}
			logger := logging.WithOperation(app.Logger, "chain-import")
			logger.Info().
				Str("source", source).
				Int("quotes", c.Len()).
				Int("dropped", total-c.Len()).
				Msg("chain imported")

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"source":      source,
					"imported":    c.Len(),
					"dropped":     total - c.Len(),
					"underlyings": c.Underlyings(),
				})
			}
			output.Success("Imported %d quotes from %s (%d dropped)", c.Len(), source, total-c.Len())
			output.Dim("Underlyings: %s", strings.Join(c.Underlyings(), ", "))
			return nil
		},
	}
	cmd.Flags().Bool("purge", true, "drop illiquid and extreme-delta contracts")
	cmd.Flags().Int64("min-open-interest", 0, "minimum open interest when purging")
	return cmd
}

func newChainListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored underlyings",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}
			symbols, err := app.Store.ListUnderlyings(cmd.Context())
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(symbols)
			}
			if len(symbols) == 0 {
				output.Dim("No chains stored.")
				return nil
			}
			for _, sym := range symbols {
				output.Println(sym)
			}
			return nil
		},
	}
}

func newChainShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <underlying>",
		Short: "Show a stored chain at one expiry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			expiry, err := loadExpiry(app, cmd, args[0])
			if err != nil {
				return err
			}

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"underlying":       expiry.Underlying(),
					"underlying_price": expiry.UnderlyingPrice(),
					"dte":              expiry.DaysToExpiration(),
					"atm_iv":           expiry.ATMIV(),
					"volume_ratio":     expiry.VolumeRatio(),
					"iv_skew_ratio":    expiry.IVSkewRatio(),
					"strikes":          expiry.Strikes(),
				})
			}

			output.Bold("%s @ %s, %.0f DTE", expiry.Underlying(),
				utils.FormatUSD(expiry.UnderlyingPrice()), expiry.DaysToExpiration())
			output.Printf("  ATM IV:       %.1f%%\n", expiry.ATMIV()*100)
			output.Printf("  Volume Skew:  %+.2f\n", expiry.VolumeRatio())
			output.Printf("  IV Skew:      %+.2f\n", expiry.IVSkewRatio())
			output.Printf("  Strikes:      %d\n", len(expiry.Strikes()))
			return nil
		},
	}
	cmd.Flags().Float64("dte", 30, "target days to expiration (closest expiry)")
	cmd.Flags().Bool("exact-dte", false, "require the exact expiry")
	return cmd
}

func newChainDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <underlying>",
		Short: "Delete the stored chain for an underlying",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := requireStore(app); err != nil {
				return err
			}
			if err := app.Store.DeleteChain(cmd.Context(), args[0]); err != nil {
				return err
			}
			output.Success("Deleted chain for %s", args[0])
			return nil
		},
	}
}

// loadExpiry loads the stored chain for an underlying and scopes it to the
// expiry closest to the --dte flag.
func loadExpiry(app *App, cmd *cobra.Command, underlying string) (*chain.ExpiryChain, error) {
	if err := requireStore(app); err != nil {
		return nil, err
	}
	quotes, err := app.Store.GetChain(cmd.Context(), underlying)
	if err != nil {
		return nil, err
	}
	sc, err := chain.New(quotes).Underlying(underlying)
	if err != nil {
		return nil, err
	}
	dte, _ := cmd.Flags().GetFloat64("dte")
	exact, _ := cmd.Flags().GetBool("exact-dte")
	return sc.AtDTE(dte, exact)
}

func newChainBuildCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build <underlying>",
		Short: "Build and analyze a strategy from a stored chain",
		Long: `Build selects contracts from a stored chain and analyzes the
resulting strategy. Supported shapes:

  straddle   --strike
  strangle   --delta
  vertical   --kind --delta --width
  condor     --delta --width
  contract   --kind --strike  (or --contract-symbol)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChainBuild(app, cmd, args[0])
		},
	}

	cmd.Flags().Float64("dte", 30, "target days to expiration (closest expiry)")
	cmd.Flags().Bool("exact-dte", false, "require the exact expiry")
	cmd.Flags().String("shape", "strangle", "strategy shape: straddle, strangle, vertical, condor, contract")
	cmd.Flags().Int("quantity", 1, "signed contract quantity (negative = short)")
	cmd.Flags().String("kind", "C", "option kind for vertical and contract shapes")
	cmd.Flags().Float64("delta", 0.16, "target absolute delta")
	cmd.Flags().Float64("width", 5, "wing width in strike points")
	cmd.Flags().Float64("strike", 0, "target strike")
	cmd.Flags().String("contract-symbol", "", "exact contract symbol")
	cmd.Flags().Int("partitions", 0, "evenly partition the horizon into N snapshots")

	return cmd
}

func runChainBuild(app *App, cmd *cobra.Command, underlying string) error {
	output := NewOutput(cmd)

	expiry, err := loadExpiry(app, cmd, underlying)
	if err != nil {
		return err
	}

	shape, _ := cmd.Flags().GetString("shape")
	quantity, _ := cmd.Flags().GetInt("quantity")
	kindFlag, _ := cmd.Flags().GetString("kind")
	delta, _ := cmd.Flags().GetFloat64("delta")
	width, _ := cmd.Flags().GetFloat64("width")
	strike, _ := cmd.Flags().GetFloat64("strike")
	contractSymbol, _ := cmd.Flags().GetString("contract-symbol")

	kind, err := models.ParseOptionKind(kindFlag)
	if err != nil {
		return err
	}

	var specs []models.LegSpec
	switch shape {
	case "straddle":
		if strike == 0 {
			strike = expiry.UnderlyingPrice()
		}
		specs, err = expiry.Straddle(quantity, strike)
	case "strangle":
		specs, err = expiry.Strangle(quantity, delta)
	case "vertical":
		specs, err = expiry.VerticalSpread(quantity, kind, delta, width)
	case "condor":
		specs, err = expiry.IronCondor(quantity, delta, width)
	case "contract":
		var spec models.LegSpec
		if contractSymbol != "" {
			spec, err = expiry.ContractBySymbol(quantity, contractSymbol)
		} else if strike != 0 {
			spec, err = expiry.ContractByStrike(quantity, kind, strike)
		} else {
			spec, err = expiry.ContractByDelta(quantity, kind, delta)
		}
		specs = []models.LegSpec{spec}
	default:
		return fmt.Errorf("unknown shape %q", shape)
	}
	if err != nil {
		return err
	}

	title := fmt.Sprintf("%s %s %.0f DTE", underlying, shape, expiry.DaysToExpiration())
	strat, err := strategy.New(strategy.Config{
		UnderlyingPrice:   expiry.UnderlyingPrice(),
		Symbol:            underlying,
		Title:             title,
		StdDevRange:       app.Config.Engine.StdDevRange,
		NumSimulations:    app.Config.Engine.NumSimulations,
		RiskFreeRate:      app.Config.Engine.RiskFreeRate,
		YearDays:          app.Config.Engine.YearDays,
		DefaultVolatility: app.Config.Engine.DefaultVolatility,
	})
	if err != nil {
		return err
	}
	strat.WithLogger(logging.WithSymbol(app.Logger, underlying))

	if err := strat.AddLegs(specs); err != nil {
		return err
	}

	if partitions, _ := cmd.Flags().GetInt("partitions"); partitions != 0 {
		if err := strat.AddPnL(strategy.SnapshotRequest{Partitions: partitions}); err != nil {
			return err
		}
	}

	summary, err := strat.Summary()
	if err != nil {
		return err
	}
	marginReq, err := strat.Margin()
	if err != nil {
		return err
	}

	if output.IsJSON() {
		return output.JSON(map[string]interface{}{
			"summary":   summary,
			"legs":      strat.Legs(),
			"snapshots": strat.Snapshots(),
			"margin":    marginReq,
		})
	}

	printSummary(output, summary)
	output.Println()
	printLegs(output, strat.Legs())
	if snapshots := strat.Snapshots(); len(snapshots) > 0 {
		output.Println()
		printSnapshots(output, snapshots)
	}
	output.Println()
	output.Bold("Margin Estimate")
	output.Printf("  Cash Account:   %s\n", utils.FormatUSD(marginReq.Cash))
	output.Printf("  Margin Account: %s\n", utils.FormatUSD(marginReq.Margin))
	return nil
}
