package gacha

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var enUS = message.NewPrinter(language.AmericanEnglish)

// scaleUnits multiplies whole token units by 10^decimals exactly.
func scaleUnits(units *big.Int, decimals uint8) *big.Int {
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return scale.Mul(scale, units)
}

// FormatWhole renders raw base units as whole tokens grouped en-US style,
// rounding half away from zero: 1234567.5 → "1,234,568".
func FormatWhole(raw *big.Int, decimals uint8) string {
	whole := decimal.NewFromBigInt(raw, -int32(decimals)).Round(0).BigInt()
	if whole.IsInt64() {
		return enUS.Sprintf("%d", whole.Int64())
	}
	return groupDigits(whole.String())
}

// FormatExact renders raw base units at full precision without trailing
// zeros: 30000500000000000000000 with 18 decimals → "30000.5".
func FormatExact(raw *big.Int, decimals uint8) string {
	return decimal.NewFromBigInt(raw, -int32(decimals)).String()
}

// groupDigits inserts thousands separators into an integer string too large
// for the printer's int64 path.
func groupDigits(s string) string {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// ClampQuantity bounds a requested quantity to [0, available].
func ClampQuantity(q int, available uint64) int {
	if q <= 0 {
		return 0
	}
	if uint64(q) > available {
		return int(available)
	}
	return q
}

// CostLabel renders the price of count purchases, e.g. "30,000 CLEAN".
func CostLabel(unitPrice int64, count int, symbol string) string {
	total := new(big.Int).Mul(big.NewInt(unitPrice), big.NewInt(int64(count)))
	return FormatWhole(total, 0) + " " + symbol
}
