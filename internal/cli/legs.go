package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"option-sim/internal/models"
	"option-sim/internal/strategy"
)

// parseLegSpec parses a leg flag of the form KIND:STRIKE:QTY[:key=value,...].
// KIND is C, P or S; stock legs use strike 0. Recognized keys are mark, vol,
// dte and delta.
//
//	C:110:-1:mark=3.35
//	P:90:2:vol=0.25,dte=45
//	S:0:100
func parseLegSpec(s string) (models.LegSpec, error) {
	parts := strings.SplitN(s, ":", 4)
	if len(parts) < 3 {
		return models.LegSpec{}, fmt.Errorf("leg %q: want KIND:STRIKE:QTY[:key=value,...]", s)
	}

	kind, err := models.ParseOptionKind(parts[0])
	if err != nil {
		return models.LegSpec{}, fmt.Errorf("leg %q: %w", s, err)
	}
	strike, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return models.LegSpec{}, fmt.Errorf("leg %q: invalid strike %q", s, parts[1])
	}
	quantity, err := strconv.Atoi(parts[2])
	if err != nil {
		return models.LegSpec{}, fmt.Errorf("leg %q: invalid quantity %q", s, parts[2])
	}

	spec := models.LegSpec{Kind: kind, Strike: strike, Quantity: quantity}
	if len(parts) == 4 && parts[3] != "" {
		for _, pair := range strings.Split(parts[3], ",") {
			key, value, found := strings.Cut(pair, "=")
			if !found {
				return models.LegSpec{}, fmt.Errorf("leg %q: malformed option %q", s, pair)
			}
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return models.LegSpec{}, fmt.Errorf("leg %q: invalid %s value %q", s, key, value)
			}
			switch key {
			case "mark":
				spec.Mark = models.Ptr(v)
			case "vol":
				spec.Volatility = models.Ptr(v)
			case "dte":
				spec.DaysToExpiration = models.Ptr(v)
			case "delta":
				spec.Delta = models.Ptr(v)
			default:
				return models.LegSpec{}, fmt.Errorf("leg %q: unknown option %q", s, key)
			}
		}
	}
	return spec, nil
}

// legSpecsFromFlags collects leg specs from the repeated --leg flag and the
// optional --legs-file JSON file.
func legSpecsFromFlags(cmd *cobra.Command) ([]models.LegSpec, error) {
	var specs []models.LegSpec

	legFlags, _ := cmd.Flags().GetStringArray("leg")
	for _, s := range legFlags {
		spec, err := parseLegSpec(s)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}

	legsFile, _ := cmd.Flags().GetString("legs-file")
	if legsFile != "" {
		data, err := os.ReadFile(legsFile)
		if err != nil {
			return nil, fmt.Errorf("reading legs file: %w", err)
		}
		var fromFile []models.LegSpec
		if err := json.Unmarshal(data, &fromFile); err != nil {
			return nil, fmt.Errorf("parsing legs file %s: %w", legsFile, err)
		}
		specs = append(specs, fromFile...)
	}

	if len(specs) == 0 {
		return nil, fmt.Errorf("no legs given: use --leg or --legs-file")
	}
	return specs, nil
}

// addStrategyFlags registers the flags shared by commands that construct a
// strategy from the command line.
func addStrategyFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("price", 0, "underlying price (required)")
	cmd.Flags().String("symbol", "", "underlying symbol")
	cmd.Flags().String("title", "", "strategy title")
	cmd.Flags().Float64("dte", 0, "default days to expiration (0 = derive from legs)")
	cmd.Flags().Float64("vol", 0, "volatility override (0 = derive from legs)")
	cmd.Flags().Float64("range", 0, "price grid width in standard deviations")
	cmd.Flags().Int("points", 0, "price grid point count")
	cmd.Flags().StringArray("leg", nil, "leg spec KIND:STRIKE:QTY[:key=value,...] (repeatable)")
	cmd.Flags().String("legs-file", "", "JSON file with an array of leg specs")
	cmd.MarkFlagRequired("price")
}

// strategyFromFlags builds and populates a strategy from the shared flags.
func strategyFromFlags(app *App, cmd *cobra.Command) (*strategy.Strategy, error) {
	price, _ := cmd.Flags().GetFloat64("price")
	symbol, _ := cmd.Flags().GetString("symbol")
	title, _ := cmd.Flags().GetString("title")
	dte, _ := cmd.Flags().GetFloat64("dte")
	vol, _ := cmd.Flags().GetFloat64("vol")
	stdRange, _ := cmd.Flags().GetFloat64("range")
	points, _ := cmd.Flags().GetInt("points")

	if stdRange == 0 {
		stdRange = app.Config.Engine.StdDevRange
	}
	if points == 0 {
		points = app.Config.Engine.NumSimulations
	}

	specs, err := legSpecsFromFlags(cmd)
	if err != nil {
		return nil, err
	}

	strat, err := strategy.New(strategy.Config{
		UnderlyingPrice:   price,
		Symbol:            symbol,
		Title:             title,
		DaysToExpiration:  dte,
		Volatility:        vol,
		StdDevRange:       stdRange,
		NumSimulations:    points,
		RiskFreeRate:      app.Config.Engine.RiskFreeRate,
		YearDays:          app.Config.Engine.YearDays,
		DefaultVolatility: app.Config.Engine.DefaultVolatility,
	})
	if err != nil {
		return nil, err
	}
	strat.WithLogger(app.Logger)

	if err := strat.AddLegs(specs); err != nil {
		return nil, err
	}
	return strat, nil
}
