package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/internal/news"
)

var reportNow = time.Date(2026, 6, 3, 7, 30, 0, 0, KST)

type fakeSource struct {
	articles []domain.NewsArticle
	err      error
}

func (f fakeSource) FetchNews(context.Context) ([]domain.NewsArticle, error) {
	return f.articles, f.err
}

type fakePicker struct {
	stocks []domain.WatchStock
	tone   domain.MarketTone
}

func (f *fakePicker) PickWatchStocks(_ context.Context, _ domain.NewsDigest, _ []domain.NewsArticle,
	_ map[string]domain.OvernightSignal, tone domain.MarketTone, _ time.Time, _ int) []domain.WatchStock {
	f.tone = tone
	return f.stocks
}

type memStore struct {
	symbols map[string]int64
	recs    []domain.Recommendation
}

func newMemStore() *memStore {
	return &memStore{symbols: make(map[string]int64)}
}

func (s *memStore) UpsertSymbol(_ context.Context, name, _ string) (int64, error) {
	if id, ok := s.symbols[name]; ok {
		return id, nil
	}
	id := int64(len(s.symbols) + 1)
	s.symbols[name] = id
	return id, nil
}

func (s *memStore) UpsertRecommendation(_ context.Context, rec domain.Recommendation) error {
	s.recs = append(s.recs, rec)
	return nil
}

func inWindowArticles() []domain.NewsArticle {
	at := func(t time.Time) *time.Time {
		u := t.UTC()
		return &u
	}
	return []domain.NewsArticle{
		{
			Title:       "삼성전자 실적 서프라이즈 발표",
			URL:         "https://news.example.co.kr/articles/1",
			PublishedAt: at(time.Date(2026, 6, 3, 6, 0, 0, 0, KST)),
			Source:      "연합뉴스",
		},
		{
			Title:       "연준 기준금리 동결 결정",
			URL:         "https://news.example.co.kr/articles/2",
			PublishedAt: at(time.Date(2026, 6, 3, 5, 0, 0, 0, KST)),
			Source:      "한국경제",
		},
	}
}

func watchStockFixture() domain.WatchStock {
	return domain.WatchStock{
		Name:      "삼성전자",
		Code:      "005930",
		Thesis:    "삼성전자 실적 모멘텀에 따른 관찰 필요",
		Catalysts: []string{"삼성전자 실적 서프라이즈 발표"},
		Risks:     []string{"반도체 업황 사이클 변동성", "재무데이터 확인 필요 (PER, 부채비율 등)"},
		Trigger:   "갭상승 시 추격 금지, 변동성 확인 후 관찰",
		Checklist: domain.Checklist{
			KnownCompany: 2, BusinessExplainable: 2, Growth3Y: 1,
			PERBand: 1, DebtBand: 1, ClearReason: 2,
		},
		TotalScore:       9,
		Confidence:       domain.ConfidenceMid,
		ConfidenceReason: "체크리스트 점수 양호 + catalyst 존재",
	}
}

func newTestMorning(cfg MorningConfig, source news.Provider, picker Picker,
	signals SignalsFunc, store RecommendationStore) *Morning {
	m := NewMorning(cfg, source, news.NewDigestBuilder(zerolog.Nop()), picker, signals, store, zerolog.Nop())
	return m.WithClock(func() time.Time { return reportNow })
}

func TestMorningGenerate(t *testing.T) {
	picker := &fakePicker{stocks: []domain.WatchStock{watchStockFixture()}}
	store := newMemStore()
	nasdaqPct, krwPct := 1.2, -0.4
	signals := func(context.Context, time.Time) map[string]domain.OvernightSignal {
		return map[string]domain.OvernightSignal{
			"Nasdaq": {Name: "Nasdaq", PctChange: &nasdaqPct, Success: true},
			"USDKRW": {Name: "USDKRW", PctChange: &krwPct, Success: true},
		}
	}

	cfg := MorningConfig{WindowMode: WindowModeStrict, OvernightEnabled: true}
	m := newTestMorning(cfg, fakeSource{articles: inWindowArticles()}, picker, signals, store)

	result, err := m.Generate(context.Background())
	require.NoError(t, err)

	assert.Contains(t, result.Text, "*📰 오전 리포트 - 2026-06-03*")
	assert.Contains(t, result.Text, "*수집:* 2건 → 시간필터: 2건 → 중복제거: 2건")
	assert.Contains(t, result.Text, "*📌 핵심 헤드라인*")
	assert.Contains(t, result.Text, "*📊 거시 요약*")
	assert.Contains(t, result.Text, "*📈 Overnight Signals*")
	assert.Contains(t, result.Text, "Nasdaq: +1.2%")
	assert.Contains(t, result.Text, "Risk On")
	assert.Contains(t, result.Text, "*🇰🇷 한국장 영향도:")
	assert.Contains(t, result.Text, "*👀 오늘의 관찰 리스트 (교육용 시뮬레이션)*")
	assert.Contains(t, result.Text, "*1. 삼성전자 (005930)*")
	assert.Contains(t, result.Text, "내가 아는 회사: 2/2점")
	assert.Contains(t, result.Text, "*총점: 9/12점*")
	assert.Contains(t, result.Text, "*확신도: 중 - 체크리스트 점수 양호 + catalyst 존재*")
	assert.Contains(t, result.Text, "면책 고지")

	// tone flowed into the picker
	assert.Equal(t, domain.ToneRiskOn, picker.tone)
	assert.Equal(t, domain.ToneRiskOn, result.Tone)

	// picks persisted in report order
	require.Len(t, store.recs, 1)
	assert.Equal(t, "2026-06-03", store.recs[0].Day)
	assert.Equal(t, 1, store.recs[0].Priority)
	assert.Equal(t, store.symbols["삼성전자"], store.recs[0].SymbolID)
	assert.Equal(t, 9, store.recs[0].TotalScore)
}

func TestMorningGenerateFetchFailure(t *testing.T) {
	m := newTestMorning(MorningConfig{WindowMode: WindowModeStrict},
		fakeSource{err: errors.New("rss down")}, &fakePicker{}, nil, nil)

	result, err := m.Generate(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Text, "⚠️ 뉴스 수집 실패")
	assert.Contains(t, result.Text, "rss down")
	assert.Contains(t, result.Text, "면책 고지")
	assert.Empty(t, result.WatchStocks)
}

func TestMorningGenerateEmptyWindow(t *testing.T) {
	stale := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	articles := []domain.NewsArticle{
		{Title: "오래된 기사", URL: "https://a.com/1", PublishedAt: &stale},
	}

	m := newTestMorning(MorningConfig{WindowMode: WindowModeStrict},
		fakeSource{articles: articles}, &fakePicker{}, nil, nil)

	result, err := m.Generate(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Text, "해당 시간 범위에 뉴스가 없습니다.")
	assert.Contains(t, result.Text, "*수집:* 1건 → 시간필터: 0건")
}

func TestMorningGenerateInvalidWindowMode(t *testing.T) {
	m := newTestMorning(MorningConfig{WindowMode: "hourly"},
		fakeSource{articles: inWindowArticles()}, &fakePicker{}, nil, nil)

	_, err := m.Generate(context.Background())
	assert.Error(t, err)
}

func TestMorningGenerateNowMode(t *testing.T) {
	cfg := MorningConfig{WindowMode: WindowModeNow, LookbackHours: 12}
	m := newTestMorning(cfg, fakeSource{articles: inWindowArticles()}, &fakePicker{}, nil, nil)

	result, err := m.Generate(context.Background())
	require.NoError(t, err)
	assert.Contains(t, result.Text, "*모드:* now (lookback 12시간)")
	assert.Contains(t, result.Text, "(개발 모드)")
	// overnight disabled: no signal section, picker saw mixed tone
	assert.NotContains(t, result.Text, "Overnight Signals")
	assert.Equal(t, domain.ToneMixed, result.Tone)
}

func TestDisplayURL(t *testing.T) {
	assert.Equal(t, "news.example.co.kr", displayURL("https://news.example.co.kr/articles/1"))
	assert.Equal(t, "no-scheme-plain-text", displayURL("no-scheme-plain-text"))
}
