package report

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/internal/market"
	"github.com/daybreak-kr/daybreak/internal/news"
)

const disclaimer = `---
*⚠️ 면책 고지*
본 시스템은 리서치 및 교육용 시뮬레이션입니다. 실제 투자 권유가 아니며, 투자 결정에 대한 책임은 사용자에게 있습니다. 과거 성과는 미래 수익을 보장하지 않습니다. 투자 전 충분한 검토와 전문가 상담을 권장합니다.`

// Picker selects the daily watch stocks from a finished digest.
type Picker interface {
	PickWatchStocks(ctx context.Context, digest domain.NewsDigest, articles []domain.NewsArticle,
		signals map[string]domain.OvernightSignal, tone domain.MarketTone,
		reportDate time.Time, maxCount int) []domain.WatchStock
}

// SignalsFunc fetches overnight signals for the report date. Failures
// live inside the individual signals, never as an error.
type SignalsFunc func(ctx context.Context, day time.Time) map[string]domain.OvernightSignal

// RecommendationStore persists the selected watch stocks. Optional;
// a nil store skips persistence.
type RecommendationStore interface {
	UpsertSymbol(ctx context.Context, name, code string) (int64, error)
	UpsertRecommendation(ctx context.Context, rec domain.Recommendation) error
}

// MorningConfig carries the knobs the morning cycle needs.
type MorningConfig struct {
	WindowMode       string
	LookbackHours    int
	OvernightEnabled bool
	DebugTags        bool
	MaxWatchStocks   int
}

// Morning runs the full morning cycle: collect, window-filter, digest,
// overnight signals, stock picking, rendering and persistence.
type Morning struct {
	cfg     MorningConfig
	source  news.Provider
	digests *news.DigestBuilder
	picker  Picker
	signals SignalsFunc // optional
	store   RecommendationStore
	log     zerolog.Logger
	now     func() time.Time
}

func NewMorning(
	cfg MorningConfig,
	source news.Provider,
	digests *news.DigestBuilder,
	picker Picker,
	signals SignalsFunc,
	store RecommendationStore,
	log zerolog.Logger,
) *Morning {
	if cfg.MaxWatchStocks <= 0 {
		cfg.MaxWatchStocks = 3
	}
	return &Morning{
		cfg:     cfg,
		source:  source,
		digests: digests,
		picker:  picker,
		signals: signals,
		store:   store,
		log:     log.With().Str("component", "morning-report").Logger(),
		now:     time.Now,
	}
}

// WithClock fixes the report clock.
func (m *Morning) WithClock(now func() time.Time) *Morning {
	m.now = now
	return m
}

// Result bundles the rendered report with the interim artifacts so the
// caller can persist or serve them.
type Result struct {
	Text        string
	Digest      domain.NewsDigest
	WatchStocks []domain.WatchStock
	Signals     map[string]domain.OvernightSignal
	Tone        domain.MarketTone
}

// Generate produces the morning report. Collection failures degrade to
// a short failure report; only a misconfigured window is an error.
func (m *Morning) Generate(ctx context.Context) (Result, error) {
	now := m.now().In(KST)
	today := now.Format("2006-01-02")
	stamp := now.Format("2006-01-02 15:04 KST")

	window, err := ComputeWindow(now, m.cfg.WindowMode, m.cfg.LookbackHours)
	if err != nil {
		return Result{}, err
	}

	articles, err := m.source.FetchNews(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("news collection failed")
		var sb strings.Builder
		fmt.Fprintf(&sb, "*📰 오전 리포트 - %s*\n\n", today)
		fmt.Fprintf(&sb, "*수집 시간:* %s\n\n", stamp)
		sb.WriteString("*⚠️ 뉴스 수집 실패*\n")
		fmt.Fprintf(&sb, "오류: %v\n\n", err)
		sb.WriteString(disclaimer)
		return Result{Text: sb.String()}, nil
	}

	fetchedCount := len(articles)
	filtered, debug := FilterByWindow(articles, window)
	m.log.Info().
		Int("fetched", fetchedCount).
		Int("in_window", len(filtered)).
		Int("too_old", debug.TooOld).
		Int("too_new", debug.TooNew).
		Int("no_time", debug.NoTime).
		Str("mode", window.Mode).
		Msg("window filter applied")

	if len(filtered) == 0 {
		var sb strings.Builder
		fmt.Fprintf(&sb, "*📰 오전 리포트 - %s*\n\n", today)
		fmt.Fprintf(&sb, "*수집 시간:* %s\n", stamp)
		fmt.Fprintf(&sb, "*기간:* %s ~ %s KST (%s 모드)\n",
			window.Start.Format("01/02 15:04"), window.End.Format("01/02 15:04"), window.Mode)
		fmt.Fprintf(&sb, "*수집:* %d건 → 시간필터: 0건\n\n", fetchedCount)
		sb.WriteString("해당 시간 범위에 뉴스가 없습니다.\n\n")
		sb.WriteString(disclaimer)
		return Result{Text: sb.String()}, nil
	}

	filtered = SortNewestFirst(filtered)

	var signals map[string]domain.OvernightSignal
	if m.cfg.OvernightEnabled && m.signals != nil {
		signals = m.signals(ctx, now)
	}

	digest := m.digests.Build(filtered, fetchedCount, len(filtered), signals)

	tone := domain.ToneMixed
	if len(signals) > 0 {
		tone = market.AssessMarketTone(signals)
	}

	stocks := m.picker.PickWatchStocks(ctx, digest, filtered, signals, tone, now, m.cfg.MaxWatchStocks)
	m.persist(ctx, today, stocks)

	text := m.render(digest, window, signals, tone, stocks, today, stamp)
	return Result{
		Text:        text,
		Digest:      digest,
		WatchStocks: stocks,
		Signals:     signals,
		Tone:        tone,
	}, nil
}

func (m *Morning) persist(ctx context.Context, today string, stocks []domain.WatchStock) {
	if m.store == nil {
		return
	}
	for i, stock := range stocks {
		symbolID, err := m.store.UpsertSymbol(ctx, stock.Name, stock.Code)
		if err != nil {
			m.log.Warn().Err(err).Str("name", stock.Name).Msg("symbol upsert failed")
			continue
		}
		rec := domain.Recommendation{
			Day:        today,
			SymbolID:   symbolID,
			Reason:     stock.Thesis,
			Priority:   i + 1,
			Confidence: stock.Confidence,
			TotalScore: stock.TotalScore,
		}
		if err := m.store.UpsertRecommendation(ctx, rec); err != nil {
			m.log.Warn().Err(err).Str("name", stock.Name).Msg("recommendation upsert failed")
		}
	}
}

// signalPriority orders the overnight section; unlisted names sort by
// move size after these.
var signalPriority = []string{"Nasdaq", "S&P500", "NVDA", "BTC", "USDKRW", "US10Y", "EWY", "DXY"}

var confidenceLabels = map[domain.Confidence]string{
	domain.ConfidenceHigh: "상",
	domain.ConfidenceMid:  "중",
	domain.ConfidenceLow:  "하",
}

func (m *Morning) render(
	digest domain.NewsDigest,
	window Window,
	signals map[string]domain.OvernightSignal,
	tone domain.MarketTone,
	stocks []domain.WatchStock,
	today, stamp string,
) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*📰 오전 리포트 - %s*\n\n", today)
	fmt.Fprintf(&sb, "*수집 시간:* %s\n", stamp)
	fmt.Fprintf(&sb, "*모드:* %s", window.Mode)
	if window.Mode == WindowModeNow && window.LookbackHours > 0 {
		fmt.Fprintf(&sb, " (lookback %d시간)", window.LookbackHours)
	}
	sb.WriteString("\n")

	modeLabel := "운영"
	if window.Mode == WindowModeNow {
		modeLabel = "개발"
	}
	fmt.Fprintf(&sb, "*기간:* %s ~ %s KST (%s 모드)\n",
		window.Start.Format("01/02 15:04"), window.End.Format("01/02 15:04"), modeLabel)
	fmt.Fprintf(&sb, "*수집:* %d건 → 시간필터: %d건 → 중복제거: %d건\n\n",
		digest.FetchedCount, digest.TimeFilteredCount, digest.DedupedCount)

	if len(digest.TopHeadlines) > 0 {
		sb.WriteString("*📌 핵심 헤드라인*\n")
		for i, headline := range digest.TopHeadlines {
			sb.WriteString(fmt.Sprintf("%d. %s%s\n", i+1, headline, m.debugTags(digest, headline)))
		}
		sb.WriteString("\n")
	}

	if digest.MacroSummary != "" {
		sb.WriteString("*📊 거시 요약*\n")
		sb.WriteString(digest.MacroSummary)
		sb.WriteString("\n\n")
	}

	renderSignals(&sb, signals, tone)

	if len(digest.SectorBullets) > 0 {
		sb.WriteString("*🏷️ 섹터별 주요 뉴스*\n")
		for _, sec := range digest.SectorBullets {
			fmt.Fprintf(&sb, "*%s*\n", sec.Sector)
			bullets := sec.Bullets
			if len(bullets) > 2 {
				bullets = bullets[:2]
			}
			for _, b := range bullets {
				fmt.Fprintf(&sb, "  • %s\n", b)
			}
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "*🇰🇷 한국장 영향도: %s*\n\n", digest.KoreaImpact)

	if len(digest.Sources) > 0 {
		sb.WriteString("*🔗 근거 링크*\n")
		for i, source := range digest.Sources {
			fmt.Fprintf(&sb, "%d. [%s](%s)\n", i+1, displayURL(source), source)
		}
		sb.WriteString("\n")
	}

	renderWatchStocks(&sb, stocks)

	sb.WriteString(disclaimer)
	return sb.String()
}

// debugTags annotates a headline with its scoring flags. Only emitted
// when debug tagging is on and the breakdown survived into the digest.
func (m *Morning) debugTags(digest domain.NewsDigest, headline string) string {
	if !m.cfg.DebugTags || digest.HeadlineDebug == nil {
		return ""
	}
	breakdown, ok := digest.HeadlineDebug[headline]
	if !ok {
		return ""
	}

	var tags []string
	if breakdown.Freshness > 0.7 {
		tags = append(tags, "[FRESH]")
	}
	if breakdown.RepeatPenalty > 0.3 {
		tags = append(tags, "[REPEAT]")
	}
	if breakdown.LatePenalty > 0.2 {
		tags = append(tags, "[LATE?]")
	}
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ")
}

func renderSignals(sb *strings.Builder, signals map[string]domain.OvernightSignal, tone domain.MarketTone) {
	if len(signals) == 0 {
		return
	}

	type namedSignal struct {
		name string
		pct  float64
	}
	var ok []namedSignal
	for name, sig := range signals {
		if sig.Success && sig.PctChange != nil {
			ok = append(ok, namedSignal{name, *sig.PctChange})
		}
	}

	sb.WriteString("*📈 Overnight Signals*\n")
	if len(ok) == 0 {
		sb.WriteString("  (신호 수집 실패)\n\n")
		return
	}

	rank := func(name string) int {
		for i, p := range signalPriority {
			if p == name {
				return i
			}
		}
		return len(signalPriority)
	}
	sort.Slice(ok, func(i, j int) bool {
		ri, rj := rank(ok[i].name), rank(ok[j].name)
		if ri != rj {
			return ri < rj
		}
		ai, aj := ok[i].pct, ok[j].pct
		if ai < 0 {
			ai = -ai
		}
		if aj < 0 {
			aj = -aj
		}
		return ai > aj
	})

	if len(ok) > 8 {
		ok = ok[:8]
	}
	for _, sig := range ok {
		emoji := "➖"
		if sig.pct > 0 {
			emoji = "📈"
		} else if sig.pct < 0 {
			emoji = "📉"
		}
		fmt.Fprintf(sb, "  %s %s: %+.1f%%\n", emoji, sig.name, sig.pct)
	}

	toneEmoji := map[domain.MarketTone]string{
		domain.ToneRiskOn:  "🟢",
		domain.ToneRiskOff: "🔴",
		domain.ToneMixed:   "🟡",
	}
	toneLabel := map[domain.MarketTone]string{
		domain.ToneRiskOn:  "Risk On",
		domain.ToneRiskOff: "Risk Off",
		domain.ToneMixed:   "Mixed",
	}
	fmt.Fprintf(sb, "\n*오늘의 톤: %s %s*\n\n", toneEmoji[tone], toneLabel[tone])
}

func renderWatchStocks(sb *strings.Builder, stocks []domain.WatchStock) {
	if len(stocks) == 0 {
		return
	}

	sb.WriteString("*👀 오늘의 관찰 리스트 (교육용 시뮬레이션)*\n\n")
	for i, stock := range stocks {
		fmt.Fprintf(sb, "*%d. %s (%s)*\n", i+1, stock.Name, stock.Code)
		fmt.Fprintf(sb, "*Thesis:* %s\n\n", stock.Thesis)

		sb.WriteString("*Catalyst:*\n")
		for _, c := range stock.Catalysts {
			fmt.Fprintf(sb, "  • %s\n", c)
		}
		sb.WriteString("\n")

		sb.WriteString("*Risk:*\n")
		for _, r := range stock.Risks {
			fmt.Fprintf(sb, "  • %s\n", r)
		}
		sb.WriteString("\n")

		fmt.Fprintf(sb, "*관찰 트리거:* %s\n\n", stock.Trigger)

		sb.WriteString("*체크리스트 점수:*\n")
		fmt.Fprintf(sb, "  • 내가 아는 회사: %d/2점\n", stock.Checklist.KnownCompany)
		fmt.Fprintf(sb, "  • 비즈니스 설명 가능: %d/2점\n", stock.Checklist.BusinessExplainable)
		fmt.Fprintf(sb, "  • 3년간 실적 성장: %d/2점\n", stock.Checklist.Growth3Y)
		fmt.Fprintf(sb, "  • PER 10~20: %d/2점\n", stock.Checklist.PERBand)
		fmt.Fprintf(sb, "  • 부채비율 100%% 이하: %d/2점\n", stock.Checklist.DebtBand)
		fmt.Fprintf(sb, "  • 살 이유 명확: %d/2점\n", stock.Checklist.ClearReason)
		fmt.Fprintf(sb, "*총점: %d/12점*\n\n", stock.TotalScore)

		fmt.Fprintf(sb, "*확신도: %s - %s*\n\n", confidenceLabels[stock.Confidence], stock.ConfidenceReason)
	}
	sb.WriteString("※ 일부 점수는 재무데이터 연동 전 가정치입니다\n\n")
}

// displayURL shortens a source link to its host for display.
func displayURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err == nil && parsed.Host != "" {
		return parsed.Host
	}
	if len(raw) > 50 {
		return raw[:50]
	}
	return raw
}
