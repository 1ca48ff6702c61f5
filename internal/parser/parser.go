// Package parser extracts structured values (travel dates, monetary totals)
// out of the free-text flight descriptions customers type into the chat.
// Every function reports "no match" explicitly; nothing is silently defaulted.
package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoTotal is returned when a percentage price is requested but the order
// description carries no currency-marked total to compute it from.
var ErrNoTotal = errors.New("no currency-marked total found in description")

var (
	// Matches dates like 25-12-2025 or 25/12/2025 anywhere in the text.
	dateRe = regexp.MustCompile(`\b(\d{1,2})[-/](\d{1,2})[-/](\d{4})\b`)
	// Matches a $-marked number, tolerating thousand separators: $5000, $ 5,000.50
	totalRe = regexp.MustCompile(`\$\s*(\d{1,3}(?:,\d{3})+(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`)
	// A literal amount or a percentage like "50%".
	percentRe = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*%$`)
	amountRe  = regexp.MustCompile(`^\d+(?:\.\d{1,2})?$`)
)

// ExtractDate finds the first DD-MM-YYYY (or DD/MM/YYYY) date in text and
// returns it as ISO YYYY-MM-DD. The second return value is false when no
// valid date is present.
func ExtractDate(text string) (string, bool) {
	m := dateRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	parsed, err := time.Parse("2-1-2006", fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3]))
	if err != nil {
		return "", false
	}
	return parsed.Format("2006-01-02"), true
}

// ExtractTotal finds the first currency-marked number in text, e.g. the $5000
// in "vuelo CDMX-Cancún $5000". The second return value is false when the
// text carries no recognizable total.
func ExtractTotal(text string) (decimal.Decimal, bool) {
	m := totalRe.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ResolveAmount turns an administrator price spec into the final amount
// string. The spec is either a literal amount ("1000") or a percentage of the
// total embedded in the order description ("50%"). Percentages are rounded to
// two decimals; a percentage with no total in the description fails with
// ErrNoTotal.
func ResolveAmount(spec, details string) (string, error) {
	spec = strings.TrimSpace(spec)

	if m := percentRe.FindStringSubmatch(spec); m != nil {
		pct, err := decimal.NewFromString(m[1])
		if err != nil {
			return "", fmt.Errorf("invalid percentage %q: %w", spec, err)
		}
		total, ok := ExtractTotal(details)
		if !ok {
			return "", ErrNoTotal
		}
		return total.Mul(pct).Div(decimal.NewFromInt(100)).Round(2).StringFixed(2), nil
	}

	if !amountRe.MatchString(spec) {
		return "", fmt.Errorf("invalid amount %q: expected a number or a percentage like 50%%", spec)
	}
	return spec, nil
}
