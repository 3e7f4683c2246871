package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	localPrinter   = message.NewPrinter(language.MustParse("es-CR"))
	paymentPrinter = message.NewPrinter(language.AmericanEnglish)
)

var symbols = map[string]string{
	"CRC": "₡",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
}

// FormatLocal renders a colón amount the way the storefront shows prices.
func FormatLocal(d decimal.Decimal) string {
	return "₡" + localPrinter.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// FormatPayment renders an amount in the payment currency with two decimals.
func FormatPayment(d decimal.Decimal, currency string) string {
	sym, ok := symbols[strings.ToUpper(currency)]
	if !ok {
		return paymentPrinter.Sprintf("%.2f", d.Round(2).InexactFloat64()) + " " + strings.ToUpper(currency)
	}
	return sym + paymentPrinter.Sprintf("%.2f", d.Round(2).InexactFloat64())
}
