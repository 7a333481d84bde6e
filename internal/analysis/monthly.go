package analysis

import (
	"sort"

	"github.com/daybreak-kr/daybreak/pkg/formulas"
)

// MonthlyTrade is the slice of a stored paper trade the monthly
// aggregation needs.
type MonthlyTrade struct {
	Day            string  `json:"day"` // YYYY-MM-DD
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	PnL            float64 `json:"pnl"`
	PnLRate        float64 `json:"pnl_rate"`
	InvestedAmount float64 `json:"invested_amount"`
}

// DaySummary aggregates the trades of one calendar day.
type DaySummary struct {
	Day        string  `json:"day"`
	PnL        float64 `json:"pnl"`
	Invested   float64 `json:"invested"`
	ReturnRate float64 `json:"return_rate"` // percent
	TradeCount int     `json:"trade_count"`
}

// StockHighlight is the best or worst single trade of the month.
type StockHighlight struct {
	Name    string  `json:"name"`
	Symbol  string  `json:"symbol"`
	PnL     float64 `json:"pnl"`
	PnLRate float64 `json:"pnl_rate"`
}

// MonthlySummary aggregates one month of paper trades. MDD is nil when
// fewer than two trading days exist; a one-day equity curve cannot
// draw down.
type MonthlySummary struct {
	MonthPnL      float64         `json:"month_pnl"`
	MonthInvested float64         `json:"month_invested"`
	MonthReturn   float64         `json:"month_return"` // percent
	WinRate       float64         `json:"win_rate"`     // percent, draws excluded
	WinCount      int             `json:"win_count"`
	LossCount     int             `json:"loss_count"`
	DrawCount     int             `json:"draw_count"`
	TotalCount    int             `json:"total_count"`
	MDD           *float64        `json:"mdd,omitempty"` // percent, positive
	MDDAmount     float64         `json:"mdd_amount"`
	BestDay       *DaySummary     `json:"best_day,omitempty"`
	WorstDay      *DaySummary     `json:"worst_day,omitempty"`
	BestStock     *StockHighlight `json:"best_stock,omitempty"`
	WorstStock    *StockHighlight `json:"worst_stock,omitempty"`
}

// AggregateDailyTrades buckets trades by day, oldest first.
func AggregateDailyTrades(trades []MonthlyTrade) []DaySummary {
	type bucket struct {
		pnl, invested float64
		count         int
	}
	daily := make(map[string]*bucket)
	for _, t := range trades {
		b := daily[t.Day]
		if b == nil {
			b = &bucket{}
			daily[t.Day] = b
		}
		b.pnl += t.PnL
		b.invested += t.InvestedAmount
		b.count++
	}

	days := make([]string, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Strings(days)

	out := make([]DaySummary, 0, len(days))
	for _, day := range days {
		b := daily[day]
		rate := 0.0
		if b.invested > 0 {
			rate = b.pnl / b.invested * 100
		}
		out = append(out, DaySummary{
			Day:        day,
			PnL:        round2(b.pnl),
			Invested:   round2(b.invested),
			ReturnRate: round2(rate),
			TradeCount: b.count,
		})
	}
	return out
}

// AggregateMonthlyTrades rolls one month of trades into a summary.
// baseCash anchors the equity curve for drawdown; when zero the first
// day's invested amount is used instead.
func AggregateMonthlyTrades(trades []MonthlyTrade, baseCash float64) MonthlySummary {
	if len(trades) == 0 {
		return MonthlySummary{}
	}

	daySummaries := AggregateDailyTrades(trades)

	var monthPnL, monthInvested float64
	for _, d := range daySummaries {
		monthPnL += d.PnL
		monthInvested += d.Invested
	}
	monthReturn := 0.0
	if monthInvested > 0 {
		monthReturn = monthPnL / monthInvested * 100
	}

	winCount, lossCount, drawCount := 0, 0, 0
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			winCount++
		case t.PnL < 0:
			lossCount++
		default:
			drawCount++
		}
	}
	winRate := 0.0
	if winCount+lossCount > 0 {
		winRate = float64(winCount) / float64(winCount+lossCount) * 100
	}

	summary := MonthlySummary{
		MonthPnL:      round2(monthPnL),
		MonthInvested: round2(monthInvested),
		MonthReturn:   round2(monthReturn),
		WinRate:       round2(winRate),
		WinCount:      winCount,
		LossCount:     lossCount,
		DrawCount:     drawCount,
		TotalCount:    len(trades),
	}

	for i := range daySummaries {
		d := &daySummaries[i]
		if summary.BestDay == nil || d.PnL > summary.BestDay.PnL {
			summary.BestDay = d
		}
		if summary.WorstDay == nil || d.PnL < summary.WorstDay.PnL {
			summary.WorstDay = d
		}
	}

	for i := range trades {
		t := &trades[i]
		if summary.BestStock == nil || t.PnL > summary.BestStock.PnL {
			summary.BestStock = &StockHighlight{Name: t.Name, Symbol: t.Symbol, PnL: t.PnL, PnLRate: t.PnLRate}
		}
		if summary.WorstStock == nil || t.PnL < summary.WorstStock.PnL {
			summary.WorstStock = &StockHighlight{Name: t.Name, Symbol: t.Symbol, PnL: t.PnL, PnLRate: t.PnLRate}
		}
	}

	if len(daySummaries) >= 2 {
		mdd, amount := equityDrawdown(daySummaries, baseCash)
		summary.MDD = &mdd
		summary.MDDAmount = amount
	}

	return summary
}

// equityDrawdown builds the cumulative-PnL equity curve anchored at
// baseCash and returns the worst peak-to-trough drop as (percent,
// absolute).
func equityDrawdown(days []DaySummary, baseCash float64) (float64, float64) {
	if baseCash <= 0 {
		baseCash = days[0].Invested
	}

	curve := make([]float64, 0, len(days)+1)
	curve = append(curve, baseCash)
	cumulativePnL := 0.0
	for _, d := range days {
		cumulativePnL += d.PnL
		curve = append(curve, baseCash+cumulativePnL)
	}

	pct, amount := formulas.MaxDrawdown(curve)
	return round2(pct), round2(amount)
}
