// Package utils provides shared formatting helpers.
package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatUSD formats an amount as US dollars with thousands separators,
// e.g. 19526.75 -> "$19,526.75". Negative amounts render as "-$...".
func FormatUSD(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	whole := int64(amount)
	cents := int64(math.Round((amount - float64(whole)) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}
	return fmt.Sprintf("%s$%s.%02d", sign, groupThousands(whole), cents)
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatPercent formats a fraction as a percentage with two decimals,
// e.g. 0.6234 -> "62.34%".
func FormatPercent(fraction float64) string {
	return fmt.Sprintf("%.2f%%", fraction*100)
}

// FormatSigned formats a value with an explicit sign, e.g. "+1.25" / "-0.40".
func FormatSigned(v float64, decimals int) string {
	format := fmt.Sprintf("%%+.%df", decimals)
	return fmt.Sprintf(format, v)
}

// FormatQuantity renders a signed contract quantity, e.g. "+2" / "-1".
func FormatQuantity(q int) string {
	return fmt.Sprintf("%+d", q)
}
