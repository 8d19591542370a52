package services

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// baseUnitDecimals is the ledger's fixed-point scale: 1 display unit =
// 10^24 base units.
const baseUnitDecimals = 24

// displayPrecision is how many fractional digits balance strings carry.
const displayPrecision = 4

// ToDisplayUnits converts a base-unit integer string to a display-unit
// decimal string. All balance math stays in decimals; floats would
// drift at 24-digit scale.
func ToDisplayUnits(baseAmount string) (string, error) {
	d, err := decimal.NewFromString(baseAmount)
	if err != nil {
		return "", fmt.Errorf("invalid base-unit amount %q: %w", baseAmount, err)
	}
	return d.Shift(-baseUnitDecimals).StringFixed(displayPrecision), nil
}

// ToBaseUnits converts a display-unit decimal string to a base-unit
// integer string.
func ToBaseUnits(displayAmount string) (string, error) {
	d, err := decimal.NewFromString(displayAmount)
	if err != nil {
		return "", fmt.Errorf("invalid display amount %q: %w", displayAmount, err)
	}
	return d.Shift(baseUnitDecimals).Truncate(0).String(), nil
}
