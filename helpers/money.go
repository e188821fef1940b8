package helpers

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatAmount renders an amount with its currency symbol for receipts and
// emails, e.g. "$ 100.00". Unknown currency codes fall back to "CODE amount".
func FormatAmount(amount decimal.Decimal, code string) string {
	unit, err := currency.ParseISO(strings.ToUpper(code))
	if err != nil {
		return fmt.Sprintf("%s %s", strings.ToUpper(code), amount.StringFixed(2))
	}

	value, _ := amount.Float64()
	p := message.NewPrinter(language.English)
	return p.Sprint(currency.Symbol(unit.Amount(value)))
}
