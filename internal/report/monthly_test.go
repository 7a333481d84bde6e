package report

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybreak-kr/daybreak/internal/analysis"
)

type fakeTradeSource struct {
	all       []analysis.MonthlyTrade
	providers []string
}

func (f *fakeTradeSource) TradesForMonth(_ context.Context, _ int, _ time.Month, includeDummy bool) ([]analysis.MonthlyTrade, []string, error) {
	if includeDummy {
		return f.all, f.providers, nil
	}
	var trades []analysis.MonthlyTrade
	for i, t := range f.all {
		if f.providers[i] == "yahoo" {
			trades = append(trades, t)
		}
	}
	return trades, nil, nil
}

func newTestMonthly(cfg MonthlyConfig, src *fakeTradeSource) *Monthly {
	return NewMonthly(cfg, src, zerolog.Nop()).
		WithClock(func() time.Time { return reportNow })
}

func TestMonthlyGenerate(t *testing.T) {
	src := &fakeTradeSource{
		all: []analysis.MonthlyTrade{
			{Day: "2026-06-01", Symbol: "005930", Name: "삼성전자", PnL: 20000, PnLRate: 2.0, InvestedAmount: 1_000_000},
			{Day: "2026-06-02", Symbol: "005930", Name: "삼성전자", PnL: -30000, PnLRate: -3.0, InvestedAmount: 1_000_000},
			{Day: "2026-06-02", Symbol: "000660", Name: "SK하이닉스", PnL: 5000, PnLRate: 1.0, InvestedAmount: 500_000},
		},
		providers: []string{"yahoo", "yahoo", "dummy"},
	}
	m := newTestMonthly(MonthlyConfig{PaperTradeAmount: 10_000_000}, src)

	text, err := m.Generate(context.Background())
	require.NoError(t, err)

	assert.Contains(t, text, "*📅 월간 성적표 - 2026-06*")
	// only the two yahoo trades count: +20,000 then -30,000
	assert.Contains(t, text, "총 손익: -10,000원 (-0.50%)")
	assert.Contains(t, text, "승률: 50.0% (1승 1패)")
	// drawdown off the 10,020,000 peak
	assert.Contains(t, text, "최대낙폭(MDD): -0.30% (-30,000원)")
	assert.Contains(t, text, "집계 대상 거래수: 2 (전체=3, 제외=1, dummy=1, yahoo=2)")

	assert.Contains(t, text, "베스트 데이: 2026-06-01 +20,000원 (+2.00%)")
	assert.Contains(t, text, "워스트 데이: 2026-06-02 -30,000원 (-3.00%)")
	assert.Contains(t, text, "베스트 종목: 삼성전자 (005930) +20,000원 (+2.00%)")
	assert.Contains(t, text, "워스트 종목: 삼성전자 (005930) -30,000원 (-3.00%)")

	assert.Contains(t, text, "월간 소폭 손실")
	assert.Contains(t, text, "면책 고지")
}

func TestMonthlyGenerateIncludeDummy(t *testing.T) {
	src := &fakeTradeSource{
		all: []analysis.MonthlyTrade{
			{Day: "2026-06-01", Symbol: "005930", Name: "삼성전자", PnL: 20000, PnLRate: 2.0, InvestedAmount: 1_000_000},
		},
		providers: []string{"dummy"},
	}
	m := newTestMonthly(MonthlyConfig{IncludeDummy: true, PaperTradeAmount: 10_000_000}, src)

	text, err := m.Generate(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "총 손익: +20,000원 (+2.00%)")
	assert.Contains(t, text, "최대낙폭(MDD): N/A (표본 부족)")
	assert.Contains(t, text, "이번 달 데이터가 1일뿐: 2026-06-01 +20,000원 (+2.00%)")
	assert.Contains(t, text, "집계 대상 거래수: 1 (dummy=1)")
}

func TestMonthlyGenerateEmpty(t *testing.T) {
	src := &fakeTradeSource{
		all: []analysis.MonthlyTrade{
			{Day: "2026-06-01", Symbol: "005930", Name: "삼성전자", PnL: 20000, PnLRate: 2.0, InvestedAmount: 1_000_000},
		},
		providers: []string{"dummy"},
	}
	m := newTestMonthly(MonthlyConfig{}, src)

	text, err := m.Generate(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "이번 달 데이터가 없습니다.")
	assert.Contains(t, text, "(전체 거래: 1건, yahoo 거래: 0건)")
	assert.Contains(t, text, "yahoo 거래가 없어 신뢰할 수 있는 집계가 불가능합니다")
}

func TestMonthlyMonthOverride(t *testing.T) {
	m := newTestMonthly(MonthlyConfig{MonthOverride: "2026-05"}, &fakeTradeSource{})

	text, err := m.Generate(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "*📅 월간 성적표 - 2026-05*")

	// malformed override falls back to the current month
	m = newTestMonthly(MonthlyConfig{MonthOverride: "May-2026"}, &fakeTradeSource{})
	text, err = m.Generate(context.Background())
	require.NoError(t, err)
	assert.Contains(t, text, "*📅 월간 성적표 - 2026-06*")
}
