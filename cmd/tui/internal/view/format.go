package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const dbTimeout = 5 * time.Second

var (
	printer         = message.NewPrinter(language.English)
	displayCurrency = currency.MustParseISO("NGN")
)

// FormatAmount renders a major-unit amount with grouping, e.g. "NGN 1,234.50".
// The decimal is rounded half away from zero to the currency's standard scale
// before it is handed to the printer.
func FormatAmount(amount decimal.Decimal) string {
	scale, _ := currency.Standard.Rounding(displayCurrency)
	rounded := amount.Round(int32(scale)).InexactFloat64()

	return displayCurrency.String() + " " + printer.Sprint(number.Decimal(rounded, number.Scale(scale)))
}

// FormatTime formats a timestamp for table cells.
func FormatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

// DbCtx returns a context with a standard timeout for database operations.
func DbCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), dbTimeout)
}
