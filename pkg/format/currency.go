// Package format renders amounts with locale-aware separators.
package format

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts for a single locale and currency symbol.
type Formatter struct {
	printer *message.Printer
	symbol  string
}

// NewFormatter builds a Formatter for a BCP 47 locale such as "id-ID" or "en-US".
func NewFormatter(locale, symbol string) (*Formatter, error) {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return nil, fmt.Errorf("invalid locale %q: %w", locale, err)
	}
	return &Formatter{printer: message.NewPrinter(tag), symbol: strings.TrimSpace(symbol)}, nil
}

// Currency returns the amount with the currency symbol, grouping separators
// and two decimals (e.g. "-$1,234.56" for en-US).
func (f *Formatter) Currency(amount float64) string {
	formatted := f.Number(math.Abs(amount))
	if amount < 0 && formatted != f.Number(0) {
		return "-" + f.symbol + formatted
	}
	return f.symbol + formatted
}

// Number returns the amount with grouping separators and two decimals.
func (f *Formatter) Number(amount float64) string {
	return f.printer.Sprintf("%.2f", amount)
}

// Integer returns a whole number with grouping separators.
func (f *Formatter) Integer(n int) string {
	return f.printer.Sprintf("%d", n)
}

// Percent renders a percentage with two decimals, e.g. "12.50%".
func (f *Formatter) Percent(percentage float64) string {
	return f.printer.Sprintf("%.2f", percentage) + "%"
}
