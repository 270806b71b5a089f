package risk

import (
	"math"
	"strings"
)

// Standard pip values per full lot for common pairs with a USD account.
var pipValues = map[string]float64{
	"EURUSD": 10,
	"GBPUSD": 10,
	"USDJPY": 9.40,
	"AUDUSD": 10,
	"USDCHF": 10.60,
	"USDCAD": 7.60,
	"NZDUSD": 10,
}

// PipValue returns the per-pip account-currency value for the pair at the
// given lot size. Unknown pairs fall back to the majors' default.
func PipValue(pair string, lotSize float64) float64 {
	v, ok := pipValues[strings.ToUpper(pair)]
	if !ok {
		v = 10
	}
	return v * lotSize
}

// PositionSize returns the lot size that risks riskPct of the balance over a
// stop of stopPips, rounded to the broker-standard two decimals.
func PositionSize(balance, riskPct float64, stopPips float64, pair string) float64 {
	if stopPips <= 0 || riskPct <= 0 {
		return 0
	}
	riskAmount := balance * riskPct / 100
	lossPerLot := stopPips * PipValue(pair, 1.0)
	if lossPerLot == 0 {
		return 0
	}
	return math.Round(riskAmount/lossPerLot*100) / 100
}
