package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/analysis"
	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/internal/market"
)

// RecommendedPick is one stored morning pick the evening cycle marks
// to market.
type RecommendedPick struct {
	RecommendationID string
	SymbolID         int64
	Name             string
	Code             string
}

// PaperTradeEntry is one simulated trade the evening cycle persists.
type PaperTradeEntry struct {
	Day              string
	EntryDay         string
	RecommendationID string
	Provider         string
	SymbolID         int64
	Result           analysis.TradeResult
}

// EveningStore reads the day's picks back and persists their prices
// and simulated trades.
type EveningStore interface {
	RecommendationsFor(ctx context.Context, day string) ([]RecommendedPick, error)
	SaveDailyPrice(ctx context.Context, symbolID int64, day string, bar domain.OHLC) error
	SavePaperTrade(ctx context.Context, trade PaperTradeEntry) error
}

// EveningConfig carries the knobs the evening cycle needs.
type EveningConfig struct {
	MarketProvider   string // recorded with each trade for later filtering
	PaperTradeAmount float64
	DevMode          bool // show invested/value detail per trade
}

// Evening marks the morning picks to market after the close: entry at
// the open, exit at the close, equal cash weight per pick.
type Evening struct {
	cfg    EveningConfig
	market market.Provider
	store  EveningStore
	log    zerolog.Logger
	now    func() time.Time
}

func NewEvening(cfg EveningConfig, provider market.Provider, store EveningStore, log zerolog.Logger) *Evening {
	return &Evening{
		cfg:    cfg,
		market: provider,
		store:  store,
		log:    log.With().Str("component", "evening_report").Logger(),
		now:    time.Now,
	}
}

// WithClock overrides the time source. Used in tests.
func (e *Evening) WithClock(now func() time.Time) *Evening {
	e.now = now
	return e
}

// Generate produces the evening report text. Per-symbol quote failures
// are reported inside the text, never as errors; only the pick lookup
// itself can fail.
func (e *Evening) Generate(ctx context.Context) (string, error) {
	now := e.now()
	today := now.In(KST).Format("2006-01-02")

	picks, err := e.store.RecommendationsFor(ctx, today)
	if err != nil {
		return "", fmt.Errorf("load picks for %s: %w", today, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*📊 오후 리포트 - %s*\n\n", today)

	if len(picks) == 0 {
		sb.WriteString("오늘 관찰 종목이 없습니다.\n\n")
		sb.WriteString(disclaimer)
		return sb.String(), nil
	}

	perStock := e.cfg.PaperTradeAmount / float64(len(picks))

	var results []analysis.TradeResult
	var failed []string
	for _, pick := range picks {
		bar, err := e.market.OHLC(ctx, pick.Code, now)
		if err != nil {
			e.log.Warn().Str("symbol", pick.Code).Err(err).Msg("Quote lookup failed")
			failed = append(failed, fmt.Sprintf("%s (%s) - 조회 실패", pick.Name, pick.Code))
			continue
		}

		result := analysis.CalculatePaperTrade(pick.Code, pick.Name, bar.Open, bar.Close, perStock)
		results = append(results, result)

		if err := e.store.SaveDailyPrice(ctx, pick.SymbolID, today, bar); err != nil {
			e.log.Error().Str("symbol", pick.Code).Err(err).Msg("Failed to store daily price")
		}
		if err := e.store.SavePaperTrade(ctx, PaperTradeEntry{
			Day:              today,
			EntryDay:         today,
			RecommendationID: pick.RecommendationID,
			Provider:         e.cfg.MarketProvider,
			SymbolID:         pick.SymbolID,
			Result:           result,
		}); err != nil {
			e.log.Error().Str("symbol", pick.Code).Err(err).Msg("Failed to store paper trade")
		}
	}

	if len(results) == 0 {
		sb.WriteString("오늘은 시세 데이터 확보 실패로 성과 계산 불가\n\n")
		if len(failed) > 0 {
			sb.WriteString("*실패한 종목:*\n")
			for _, f := range failed {
				fmt.Fprintf(&sb, "  · %s\n", f)
			}
			sb.WriteString("\n")
		}
		sb.WriteString(disclaimer)
		return sb.String(), nil
	}

	metrics := analysis.CalculateMetrics(results)

	fmt.Fprintf(&sb, "*가정 투자: %s원 (동일비중)*\n\n", commaInt(e.cfg.PaperTradeAmount))

	sb.WriteString("*[종목별 결과]*\n")
	for _, tr := range results {
		emoji := "➖"
		switch {
		case tr.PnL > 0:
			emoji = "📈"
		case tr.PnL < 0:
			emoji = "📉"
		}
		fmt.Fprintf(&sb, "%s *%s* (%s)\n", emoji, tr.Name, tr.Symbol)
		fmt.Fprintf(&sb, "  · 시가: %s원 / 종가: %s원\n", commaInt(tr.EntryPrice), commaInt(tr.ExitPrice))
		fmt.Fprintf(&sb, "  · 수량: %s주\n", commaInt(float64(tr.Quantity)))
		fmt.Fprintf(&sb, "  · 손익: %s원 (%+.2f%%)\n", commaSigned(tr.PnL), tr.PnLRate)
		if e.cfg.DevMode {
			fmt.Fprintf(&sb, "  · 투자금액: %s원 / 평가액: %s원\n", commaInt(tr.InvestedAmount), commaInt(tr.CurrentValue))
		}
		sb.WriteString("\n")
	}

	if len(failed) > 0 {
		sb.WriteString("*데이터 없음 (조회 실패):*\n")
		for _, f := range failed {
			fmt.Fprintf(&sb, "  · %s\n", f)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("*[전체 요약]*\n")
	fmt.Fprintf(&sb, "  · 총 투자금: %s원\n", commaInt(metrics.TotalInvested))
	fmt.Fprintf(&sb, "  · 현재 평가액: %s원\n", commaInt(metrics.TotalValue))
	fmt.Fprintf(&sb, "  · 총 손익: %s원 (%+.2f%%)\n", commaSigned(metrics.TotalPnL), metrics.TotalPnLRate)
	fmt.Fprintf(&sb, "  · 승률: %.1f%% (%d승 %d패)\n\n", metrics.WinRate, metrics.WinCount, metrics.LossCount)

	sb.WriteString("*[한 줄 회고]*\n")
	fmt.Fprintf(&sb, "%s\n\n", eveningReview(results, metrics))

	sb.WriteString(disclaimer)
	return sb.String(), nil
}

// eveningReview writes the one-line retrospective: observational tone,
// no predictions stated as fact.
func eveningReview(results []analysis.TradeResult, metrics analysis.PerformanceMetrics) string {
	if len(results) == 0 {
		return "관찰 종목이 없어 회고할 내용이 없습니다."
	}

	var sectors []string
	seen := map[string]bool{}
	for _, tr := range results {
		sector := ""
		switch {
		case strings.Contains(tr.Name, "반도체") || tr.Name == "삼성전자" || tr.Name == "SK하이닉스":
			sector = "반도체"
		case strings.Contains(tr.Name, "2차전지") || strings.Contains(tr.Name, "배터리") || strings.Contains(tr.Name, "에너지"):
			sector = "2차전지"
		case strings.Contains(tr.Name, "바이오") || strings.Contains(tr.Name, "제약"):
			sector = "바이오"
		}
		if sector != "" && !seen[sector] {
			seen[sector] = true
			sectors = append(sectors, sector)
		}
	}
	sectorText := "관찰 종목"
	if len(sectors) > 0 {
		sectorText = strings.Join(sectors, ", ")
	}

	var review string
	switch {
	case metrics.WinRate >= 66.7:
		review = fmt.Sprintf("뉴스 기반 %s 관찰은 단기 모멘텀 확인, 변동성은 여전히 큼", sectorText)
	case metrics.WinRate >= 33.3:
		review = fmt.Sprintf("%s 관찰 결과 혼조세, 개별 종목 변동성 확인 필요", sectorText)
	default:
		review = fmt.Sprintf("%s 관찰 결과 하락세, 시장 환경 재검토 필요", sectorText)
	}

	if metrics.TotalPnLRate > 0 {
		review += " | 다음날 상승 지속 여부 관찰"
	} else {
		review += " | 다음날 반등 여부 관찰"
	}
	return review
}

// commaInt renders a float as a whole number with thousands
// separators: 1234567.8 -> "1,234,568".
func commaInt(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.0f", v)

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// commaSigned is commaInt with an explicit leading sign.
func commaSigned(v float64) string {
	if v >= 0 {
		return "+" + commaInt(v)
	}
	return commaInt(v)
}
