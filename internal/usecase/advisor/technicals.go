package advisor

import (
	"math"

	"github.com/markcheno/go-talib"
	"gonum.org/v1/gonum/stat"

	"github.com/easyasset/eam-backend/internal/domain"
)

// tradingDays annualises daily volatility
const tradingDays = 252

// Technicals summarises recent price action. Nil fields had too little history.
type Technicals struct {
	Samples    int
	Change5d   *float64 // Percent
	Change20d  *float64 // Percent
	SMA20      *float64
	RSI14      *float64
	Volatility *float64 // Annualised, percent
	High       *float64
	Low        *float64
}

// ComputeTechnicals derives indicators from quotes sorted oldest first.
// Quotes without a usable close are ignored.
func ComputeTechnicals(quotes []*domain.Quote) Technicals {
	closes := make([]float64, 0, len(quotes))
	var high, low *float64
	for _, q := range quotes {
		if q == nil || !q.HasUsableClose() {
			continue
		}
		closes = append(closes, q.Close.InexactFloat64())

		if q.High != nil {
			h := q.High.InexactFloat64()
			if high == nil || h > *high {
				high = &h
			}
		}
		if q.Low != nil && q.Low.IsPositive() {
			l := q.Low.InexactFloat64()
			if low == nil || l < *low {
				low = &l
			}
		}
	}

	t := Technicals{
		Samples:   len(closes),
		Change5d:  priceChange(closes, 5),
		Change20d: priceChange(closes, 20),
		SMA20:     lastValue(closes, 20, talib.Sma),
		High:      high,
		Low:       low,
	}
	if len(closes) > 14 {
		t.RSI14 = lastValue(closes, 14, talib.Rsi)
	}
	t.Volatility = annualisedVolatility(closes)

	return t
}

// priceChange compares the last close with the close n trading days earlier,
// or the oldest close when history is shorter
func priceChange(closes []float64, n int) *float64 {
	if len(closes) < 2 {
		return nil
	}
	old := closes[max(0, len(closes)-n-1)]
	if old == 0 {
		return nil
	}
	change := (closes[len(closes)-1] - old) / old * 100
	return &change
}

func lastValue(closes []float64, period int, indicator func([]float64, int) []float64) *float64 {
	if len(closes) < period {
		return nil
	}
	out := indicator(closes, period)
	if len(out) == 0 {
		return nil
	}
	v := out[len(out)-1]
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func annualisedVolatility(closes []float64) *float64 {
	if len(closes) < 3 {
		return nil
	}
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] != 0 {
			returns = append(returns, (closes[i]-closes[i-1])/closes[i-1])
		}
	}
	if len(returns) < 2 {
		return nil
	}
	vol := stat.StdDev(returns, nil) * math.Sqrt(tradingDays) * 100
	return &vol
}
