package chain

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// tokenDecimals is fixed by the token contract.
const tokenDecimals = 18

// ParseAmount converts a decimal string in whole token units to base
// units (wei). Fractional digits beyond 18 decimals are rejected.
func ParseAmount(amount string) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("amount must not be negative: %s", amount)
	}

	shifted := d.Shift(tokenDecimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", amount, tokenDecimals)
	}

	return shifted.BigInt(), nil
}

// FormatAmount converts base units (wei) to a decimal string in whole
// token units, trimming trailing zeros.
func FormatAmount(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	return decimal.NewFromBigInt(wei, -tokenDecimals).String()
}
