package menu

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/kitbot/shop/catalog"
)

// minorDigits is the number of fractional digits of the currency.
const minorDigits = 2

// EmptySelection is shown when a user has not selected anything.
const EmptySelection = "No selections yet"

// FormatPrice renders a price given in minor units, e.g. 101 -> "1.01".
func FormatPrice(minor int64) string {
	return decimal.New(minor, -minorDigits).StringFixed(minorDigits)
}

// Total sums the prices of list in minor units.
func Total(list []*catalog.Variant) int64 {
	var total int64
	for _, v := range list {
		total += v.Price()
	}
	return total
}

// Selections renders a numbered summary of list with a total line.
func Selections(list []*catalog.Variant) string {
	if len(list) == 0 {
		return EmptySelection
	}
	var b strings.Builder
	b.WriteString("Current selections:\n")
	for i, v := range list {
		fmt.Fprintf(&b, "%d. %s / %s - %s\n", i+1, v.Product().Name(), v.Name(), FormatPrice(v.Price()))
	}
	fmt.Fprintf(&b, "Total: %s", FormatPrice(Total(list)))
	return b.String()
}
