package catalog

import "github.com/shopspring/decimal"

var centsFactor = decimal.NewFromInt(100)

// PriceCents converts a catalog price to integer cents. All money math after
// checkout creation happens on cents.
func PriceCents(price decimal.Decimal) int64 {
	return price.Mul(centsFactor).Round(0).IntPart()
}
