// Package analysis evaluates how the published watchlists would have
// performed: paper-trade accounting, aggregate metrics and technical
// snapshots over stored daily closes.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/daybreak-kr/daybreak/pkg/formulas"
)

// TradeResult is one simulated open-to-close trade.
type TradeResult struct {
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	EntryPrice     float64 `json:"entry_price"`
	ExitPrice      float64 `json:"exit_price"`
	Quantity       int     `json:"quantity"`
	InvestedAmount float64 `json:"invested_amount"`
	CurrentValue   float64 `json:"current_value"`
	PnL            float64 `json:"pnl"`
	PnLRate        float64 `json:"pnl_rate"` // percent
}

// PerformanceMetrics aggregates a batch of trade results.
type PerformanceMetrics struct {
	TotalInvested float64 `json:"total_invested"`
	TotalValue    float64 `json:"total_value"`
	TotalPnL      float64 `json:"total_pnl"`
	TotalPnLRate  float64 `json:"total_pnl_rate"`
	WinRate       float64 `json:"win_rate"`
	WinCount      int     `json:"win_count"`
	LossCount     int     `json:"loss_count"`
	MDD           float64 `json:"mdd"` // percent, positive
}

// CalculatePaperTrade simulates buying at the entry price with a fixed
// cash allocation (whole shares only) and marking at the exit price.
func CalculatePaperTrade(symbol, name string, entryPrice, exitPrice, perStockCash float64) TradeResult {
	quantity := 0
	if entryPrice > 0 {
		quantity = int(perStockCash / entryPrice)
	}

	invested := float64(quantity) * entryPrice
	value := float64(quantity) * exitPrice
	pnl := value - invested

	rate := 0.0
	if invested > 0 {
		rate = pnl / invested * 100
	}

	return TradeResult{
		Symbol:         symbol,
		Name:           name,
		EntryPrice:     entryPrice,
		ExitPrice:      exitPrice,
		Quantity:       quantity,
		InvestedAmount: invested,
		CurrentValue:   value,
		PnL:            pnl,
		PnLRate:        round2(rate),
	}
}

// CalculateMetrics rolls trade results into aggregate performance.
// Empty input yields the zero metrics, not an error.
func CalculateMetrics(trades []TradeResult) PerformanceMetrics {
	if len(trades) == 0 {
		return PerformanceMetrics{}
	}

	var invested, value float64
	winCount, lossCount := 0, 0
	worstRate := 0.0
	for _, t := range trades {
		invested += t.InvestedAmount
		value += t.CurrentValue
		if t.PnL > 0 {
			winCount++
		} else if t.PnL < 0 {
			lossCount++
		}
		if t.PnLRate < worstRate {
			worstRate = t.PnLRate
		}
	}

	pnl := value - invested
	pnlRate := 0.0
	if invested > 0 {
		pnlRate = pnl / invested * 100
	}

	return PerformanceMetrics{
		TotalInvested: round2(invested),
		TotalValue:    round2(value),
		TotalPnL:      round2(pnl),
		TotalPnLRate:  round2(pnlRate),
		WinRate:       round2(float64(winCount) / float64(len(trades)) * 100),
		WinCount:      winCount,
		LossCount:     lossCount,
		MDD:           round2(-worstRate),
	}
}

// CalculateMDD returns the maximum peak-to-trough drawdown of a price
// series, in positive percent. Fewer than 2 points is no drawdown.
func CalculateMDD(prices []float64) float64 {
	pct, _ := formulas.MaxDrawdown(prices)
	return round2(pct)
}

const rsiPeriod = 14

// TechnicalSnapshot condenses a daily close series into the few
// numbers the evening review shows.
type TechnicalSnapshot struct {
	RSI14            *float64 `json:"rsi_14,omitempty"`   // nil below 15 closes
	MeanDailyReturn  float64  `json:"mean_daily_return"`  // percent
	AnnualizedVol    float64  `json:"annualized_vol"`     // percent
	LastClose        float64  `json:"last_close"`
	PeriodReturnRate float64  `json:"period_return_rate"` // percent over the series
}

// Snapshot computes return statistics and a 14-day RSI over the close
// series, oldest first. Needs at least 2 closes.
func Snapshot(closes []float64) (TechnicalSnapshot, bool) {
	if len(closes) < 2 {
		return TechnicalSnapshot{}, false
	}

	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, (closes[i]-closes[i-1])/closes[i-1]*100)
	}
	if len(returns) == 0 {
		return TechnicalSnapshot{}, false
	}

	snapshot := TechnicalSnapshot{
		MeanDailyReturn: round2(stat.Mean(returns, nil)),
		LastClose:       closes[len(closes)-1],
	}
	if closes[0] != 0 {
		snapshot.PeriodReturnRate = round2((closes[len(closes)-1] - closes[0]) / closes[0] * 100)
	}
	if len(returns) >= 2 {
		// daily stddev scaled to a trading year
		snapshot.AnnualizedVol = round2(stat.StdDev(returns, nil) * math.Sqrt(252))
	}

	if value := formulas.RSI(closes, rsiPeriod); value != nil {
		last := round2(*value)
		snapshot.RSI14 = &last
	}

	return snapshot, true
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
