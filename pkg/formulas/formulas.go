// Package formulas holds the small numeric building blocks shared by
// the evaluation code: RSI over daily closes and the peak-to-trough
// drawdown walk used for both price series and equity curves.
package formulas

import (
	talib "github.com/markcheno/go-talib"
)

// RSI returns the latest Relative Strength Index value for a close
// series (oldest first), or nil when the series is shorter than
// period+1 or the computation produced no valid value.
func RSI(closes []float64, period int) *float64 {
	if period <= 0 || len(closes) < period+1 {
		return nil
	}

	series := talib.Rsi(closes, period)
	if len(series) == 0 {
		return nil
	}
	last := series[len(series)-1]
	if last != last { // NaN
		return nil
	}
	return &last
}

// MaxDrawdown walks a value series (prices or an equity curve, oldest
// first) and returns the worst peak-to-trough drop as a positive
// percentage together with its absolute size. Fewer than 2 points is
// no drawdown.
func MaxDrawdown(values []float64) (pct, amount float64) {
	if len(values) < 2 {
		return 0, 0
	}

	peak := values[0]
	for _, v := range values[1:] {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		drop := peak - v
		if drop > amount {
			amount = drop
		}
		if p := drop / peak * 100; p > pct {
			pct = p
		}
	}
	return pct, amount
}
