package report

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/analysis"
)

// MonthlyTradeSource reads back the stored paper trades of one month.
type MonthlyTradeSource interface {
	TradesForMonth(ctx context.Context, year int, month time.Month, includeDummy bool) ([]analysis.MonthlyTrade, []string, error)
}

// MonthlyConfig carries the knobs the monthly cycle needs.
type MonthlyConfig struct {
	MonthOverride    string // "YYYY-MM", empty for the current month
	IncludeDummy     bool
	PaperTradeAmount float64
}

// Monthly renders the month scorecard from stored paper trades. Only
// real-market (yahoo) trades count unless dummy trades are explicitly
// included.
type Monthly struct {
	cfg    MonthlyConfig
	trades MonthlyTradeSource
	log    zerolog.Logger
	now    func() time.Time
}

func NewMonthly(cfg MonthlyConfig, trades MonthlyTradeSource, log zerolog.Logger) *Monthly {
	return &Monthly{
		cfg:    cfg,
		trades: trades,
		log:    log.With().Str("component", "monthly_report").Logger(),
		now:    time.Now,
	}
}

// WithClock overrides the time source. Used in tests.
func (m *Monthly) WithClock(now func() time.Time) *Monthly {
	m.now = now
	return m
}

// targetMonth resolves the reporting month: the override when it
// parses, otherwise the current KST month.
func (m *Monthly) targetMonth() (int, time.Month) {
	if m.cfg.MonthOverride != "" {
		if t, err := time.Parse("2006-01", m.cfg.MonthOverride); err == nil {
			return t.Year(), t.Month()
		}
		m.log.Error().Str("override", m.cfg.MonthOverride).Msg("Invalid month override, using current month")
	}
	now := m.now().In(KST)
	return now.Year(), now.Month()
}

// Generate produces the monthly scorecard text.
func (m *Monthly) Generate(ctx context.Context) (string, error) {
	year, month := m.targetMonth()
	monthStr := fmt.Sprintf("%d-%02d", year, month)

	// all trades give the provider breakdown; the filtered set is scored
	allTrades, providers, err := m.trades.TradesForMonth(ctx, year, month, true)
	if err != nil {
		return "", fmt.Errorf("load trades for %s: %w", monthStr, err)
	}
	trades := allTrades
	if !m.cfg.IncludeDummy {
		trades, _, err = m.trades.TradesForMonth(ctx, year, month, false)
		if err != nil {
			return "", fmt.Errorf("load trades for %s: %w", monthStr, err)
		}
	}

	yahooCount := 0
	providerCounts := map[string]int{}
	for _, p := range providers {
		providerCounts[p]++
		if p == "yahoo" {
			yahooCount++
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "*📅 월간 성적표 - %s*\n\n", monthStr)

	if len(trades) == 0 {
		sb.WriteString("이번 달 데이터가 없습니다.\n")
		if len(allTrades) > 0 {
			fmt.Fprintf(&sb, "(전체 거래: %d건, yahoo 거래: %d건)\n", len(allTrades), yahooCount)
			if yahooCount == 0 {
				sb.WriteString("\n⚠️ *yahoo 거래가 없어 신뢰할 수 있는 집계가 불가능합니다.*\n")
				sb.WriteString("MARKET_PROVIDER=yahoo로 evening 리포트를 실행하여 실제 시세 기반 거래를 생성하세요.\n")
			}
		}
		sb.WriteString("\n")
		sb.WriteString(disclaimer)
		return sb.String(), nil
	}

	summary := analysis.AggregateMonthlyTrades(trades, m.cfg.PaperTradeAmount)

	sb.WriteString("*[요약]*\n")
	fmt.Fprintf(&sb, "  · 총 손익: %s원 (%+.2f%%)\n", commaSigned(summary.MonthPnL), summary.MonthReturn)

	winLossDraw := fmt.Sprintf("%d승 %d패", summary.WinCount, summary.LossCount)
	if summary.DrawCount > 0 {
		winLossDraw += fmt.Sprintf(" %d무", summary.DrawCount)
	}
	fmt.Fprintf(&sb, "  · 승률: %.1f%% (%s)\n", summary.WinRate, winLossDraw)

	if summary.MDD != nil {
		fmt.Fprintf(&sb, "  · 최대낙폭(MDD): -%.2f%% (-%s원)\n", *summary.MDD, commaInt(summary.MDDAmount))
	} else {
		sb.WriteString("  · 최대낙폭(MDD): N/A (표본 부족)\n")
	}

	fmt.Fprintf(&sb, "  · %s\n\n", tradeCountLine(len(trades), len(allTrades), providerCounts))

	if summary.BestDay != nil && summary.WorstDay != nil {
		sb.WriteString("*[일별 하이라이트]*\n")
		if summary.BestDay.Day == summary.WorstDay.Day {
			fmt.Fprintf(&sb, "  · 이번 달 데이터가 1일뿐: %s %s원 (%+.2f%%)\n",
				summary.BestDay.Day, commaSigned(summary.BestDay.PnL), summary.BestDay.ReturnRate)
		} else {
			fmt.Fprintf(&sb, "  · 베스트 데이: %s %s원 (%+.2f%%)\n",
				summary.BestDay.Day, commaSigned(summary.BestDay.PnL), summary.BestDay.ReturnRate)
			fmt.Fprintf(&sb, "  · 워스트 데이: %s %s원 (%+.2f%%)\n",
				summary.WorstDay.Day, commaSigned(summary.WorstDay.PnL), summary.WorstDay.ReturnRate)
		}
		sb.WriteString("\n")
	}

	if summary.BestStock != nil || summary.WorstStock != nil {
		sb.WriteString("*[종목 하이라이트]*\n")
		if summary.BestStock != nil {
			fmt.Fprintf(&sb, "  · 베스트 종목: %s (%s) %s원 (%+.2f%%)\n",
				summary.BestStock.Name, summary.BestStock.Symbol,
				commaSigned(summary.BestStock.PnL), summary.BestStock.PnLRate)
		}
		if summary.WorstStock != nil {
			fmt.Fprintf(&sb, "  · 워스트 종목: %s (%s) %s원 (%+.2f%%)\n",
				summary.WorstStock.Name, summary.WorstStock.Symbol,
				commaSigned(summary.WorstStock.PnL), summary.WorstStock.PnLRate)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("*[코멘트]*\n")
	fmt.Fprintf(&sb, "%s\n\n", monthlyComment(summary))

	sb.WriteString(disclaimer)
	return sb.String(), nil
}

func tradeCountLine(included, total int, providerCounts map[string]int) string {
	line := fmt.Sprintf("집계 대상 거래수: %d", included)

	var parts []string
	for _, p := range sortedKeys(providerCounts) {
		parts = append(parts, fmt.Sprintf("%s=%d", p, providerCounts[p]))
	}
	detail := strings.Join(parts, ", ")

	if total > included {
		return fmt.Sprintf("%s (전체=%d, 제외=%d, %s)", line, total, total-included, detail)
	}
	if detail != "" {
		return fmt.Sprintf("%s (%s)", line, detail)
	}
	return line
}

func monthlyComment(summary analysis.MonthlySummary) string {
	var comments []string

	var review string
	switch {
	case summary.MonthReturn > 5.0:
		review = "월간 수익률이 양호했으나, 변동성 관리가 필요"
	case summary.MonthReturn > 0:
		review = "월간 소폭 수익, 개별 종목 선택의 중요성 확인"
	case summary.MonthReturn > -5.0:
		review = "월간 소폭 손실, 진입 타이밍과 리스크 관리 재검토 필요"
	default:
		review = "월간 손실 발생, 시장 환경과 관찰 기준 재점검 필요"
	}
	comments = append(comments, "• "+review)

	if summary.WinRate < 50 {
		comments = append(comments, "• 승률 개선: 노이즈 필터 강화 및 섹터 분산 고려")
	}
	if summary.MDD != nil {
		if *summary.MDD > 10 {
			comments = append(comments, "• MDD 관리: 손절 기준 명확화 및 포지션 크기 조정")
		} else if *summary.MDD > 5 {
			comments = append(comments, "• 변동성 관리: 리스크 관리 강화")
		}
	}

	return strings.Join(comments, "\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
