package vending

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var currencyPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatCents renders an amount of cents as US currency with two decimals, e.g. 65 -> "$0.65".
func FormatCents(cents int) string {
	if cents < 0 {
		return "-" + FormatCents(-cents)
	}

	return currencyPrinter.Sprintf("$%.2f", float64(cents)/100)
}
