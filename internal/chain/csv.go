package chain

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"option-sim/internal/errors"
	"option-sim/internal/models"
)

// Column names follow the TastyTrade chain export format.
var requiredColumns = []string{
	"underlying_symbol", "symbol", "option_type", "strike_price",
	"days_to_expiration", "underlying_price",
}

// FromCSV loads a chain snapshot from CSV. The first row is the header;
// repeated header rows inside the body (a quirk of appended exports) are
// skipped. Duplicate index listings (SPX vs SPXW and friends) are pruned
// in favor of the weekly symbol.
func FromCSV(r io.Reader) (*Chain, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading chain csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("chain csv missing column %q: %w", name, errors.ErrInvalidInput)
		}
	}

	var quotes []Quote
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading chain csv line %d: %w", line, err)
		}
		line++

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		// Appended exports repeat the header mid-file.
		if field("underlying_symbol") == "underlying_symbol" {
			continue
		}
		symbol := field("symbol")
		if strings.HasPrefix(symbol, "SPX ") ||
			strings.HasPrefix(symbol, "SQQQ1 ") ||
			strings.HasPrefix(symbol, "UVXY2 ") {
			continue
		}

		kind, err := models.ParseOptionKind(field("option_type"))
		if err != nil {
			return nil, fmt.Errorf("chain csv line %d: %w", line, err)
		}
		q := Quote{
			Symbol:         symbol,
			Underlying:     field("underlying_symbol"),
			Kind:           kind,
			ExpirationDate: field("expiration_date"),
		}
		q.Strike, err = parseFloat(field("strike_price"), line, "strike_price")
		if err != nil {
			return nil, err
		}
		q.DaysToExpiration, err = parseFloat(field("days_to_expiration"), line, "days_to_expiration")
		if err != nil {
			return nil, err
		}
		q.UnderlyingPrice, err = parseFloat(field("underlying_price"), line, "underlying_price")
		if err != nil {
			return nil, err
		}
		q.Bid = parseFloatDefault(field("bid_price"))
		q.Ask = parseFloatDefault(field("ask_price"))
		q.Mark = parseFloatDefault(field("mark"))
		q.Volatility = parseFloatDefault(field("volatility"))
		q.Delta = parseFloatDefault(field("delta"))
		q.OpenInterest = parseIntDefault(field("open_interest"))
		q.Volume = parseIntDefault(field("prev_day_volume"))
		if q.Volume == 0 {
			q.Volume = parseIntDefault(field("volume"))
		}
		quotes = append(quotes, q)
	}
	return New(quotes), nil
}

func parseFloat(s string, line int, column string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("chain csv line %d column %s: %w", line, column, errors.ErrInvalidInput)
	}
	return v, nil
}

func parseFloatDefault(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseIntDefault(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some exports quote volumes as floats.
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int64(f)
		}
		return 0
	}
	return v
}
