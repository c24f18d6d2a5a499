package chain

import (
	"fmt"
	"math/big"
	"strings"
)

const nativeDecimals = 18

var weiPerMon = new(big.Int).Exp(big.NewInt(10), big.NewInt(nativeDecimals), nil)

// ParseAmount converts a native-currency decimal string ("0.1") into raw
// 18-decimal units without going through floating point, so no precision is
// lost. Empty strings and "0" both parse to zero.
func ParseAmount(amount string) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return new(big.Int), nil
	}

	whole, frac, _ := strings.Cut(amount, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > nativeDecimals {
		return nil, fmt.Errorf("amount %q has more than %d decimal places", amount, nativeDecimals)
	}

	wholePart, ok := new(big.Int).SetString(whole, 10)
	if !ok || wholePart.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount format: %s", amount)
	}

	result := new(big.Int).Mul(wholePart, weiPerMon)
	if frac != "" {
		// Right-pad the fractional digits to 18 places.
		fracPart, ok := new(big.Int).SetString(frac, 10)
		if !ok || fracPart.Sign() < 0 {
			return nil, fmt.Errorf("invalid amount format: %s", amount)
		}
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(nativeDecimals-len(frac))), nil)
		result.Add(result, fracPart.Mul(fracPart, scale))
	}

	return result, nil
}

// FormatAmount renders raw 18-decimal units as a human-readable decimal
// string with trailing zeros trimmed.
func FormatAmount(raw *big.Int) string {
	if raw == nil || raw.Sign() == 0 {
		return "0"
	}

	whole, frac := new(big.Int).QuoRem(raw, weiPerMon, new(big.Int))
	if frac.Sign() == 0 {
		return whole.String()
	}

	fracStr := strings.TrimRight(fmt.Sprintf("%018s", frac.String()), "0")
	return whole.String() + "." + fracStr
}
