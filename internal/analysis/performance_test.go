package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePaperTrade(t *testing.T) {
	result := CalculatePaperTrade("005930", "삼성전자", 70000, 71400, 1_000_000)

	assert.Equal(t, 14, result.Quantity) // whole shares only
	assert.Equal(t, 980000.0, result.InvestedAmount)
	assert.Equal(t, 999600.0, result.CurrentValue)
	assert.Equal(t, 19600.0, result.PnL)
	assert.Equal(t, 2.0, result.PnLRate)
}

func TestCalculatePaperTradeEntryTooExpensive(t *testing.T) {
	result := CalculatePaperTrade("207940", "삼성바이오로직스", 2_000_000, 2_100_000, 1_000_000)

	assert.Equal(t, 0, result.Quantity)
	assert.Equal(t, 0.0, result.InvestedAmount)
	assert.Equal(t, 0.0, result.PnL)
	assert.Equal(t, 0.0, result.PnLRate)
}

func TestCalculateMetrics(t *testing.T) {
	trades := []TradeResult{
		CalculatePaperTrade("005930", "삼성전자", 70000, 71400, 1_000_000), // +2.0%
		CalculatePaperTrade("000660", "SK하이닉스", 50000, 48500, 1_000_000), // -3.0%
	}

	m := CalculateMetrics(trades)

	assert.Equal(t, 1980000.0, m.TotalInvested)
	assert.Equal(t, 1969600.0, m.TotalValue)
	assert.Equal(t, -10400.0, m.TotalPnL)
	assert.Equal(t, -0.53, m.TotalPnLRate)
	assert.Equal(t, 1, m.WinCount)
	assert.Equal(t, 1, m.LossCount)
	assert.Equal(t, 50.0, m.WinRate)
	assert.Equal(t, 3.0, m.MDD)
}

func TestCalculateMetricsEmpty(t *testing.T) {
	assert.Equal(t, PerformanceMetrics{}, CalculateMetrics(nil))
}

func TestCalculateMDD(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   float64
	}{
		{"two equal drawdowns", []float64{100, 110, 99, 121, 108.9}, 10.0},
		{"monotonic rise", []float64{100, 105, 110}, 0.0},
		{"single price", []float64{100}, 0.0},
		{"empty", nil, 0.0},
		{"full history low", []float64{100, 80, 90, 85}, 20.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateMDD(tt.prices))
		})
	}
}

func TestSnapshot(t *testing.T) {
	snapshot, ok := Snapshot([]float64{100, 102, 101})
	require.True(t, ok)

	assert.Equal(t, 0.51, snapshot.MeanDailyReturn) // (2.0 - 0.98) / 2
	assert.Equal(t, 1.0, snapshot.PeriodReturnRate)
	assert.Equal(t, 101.0, snapshot.LastClose)
	assert.Greater(t, snapshot.AnnualizedVol, 0.0)
	assert.Nil(t, snapshot.RSI14) // not enough closes
}

func TestSnapshotRSI(t *testing.T) {
	closes := make([]float64, 0, 20)
	for i := 0; i < 20; i++ {
		closes = append(closes, 100+float64(i))
	}

	snapshot, ok := Snapshot(closes)
	require.True(t, ok)
	require.NotNil(t, snapshot.RSI14)
	// strictly rising series pegs the oscillator
	assert.Greater(t, *snapshot.RSI14, 70.0)
}

func TestSnapshotTooShort(t *testing.T) {
	_, ok := Snapshot([]float64{100})
	assert.False(t, ok)

	_, ok = Snapshot(nil)
	assert.False(t, ok)
}
