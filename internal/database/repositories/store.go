package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/analysis"
	"github.com/daybreak-kr/daybreak/internal/domain"
	"github.com/daybreak-kr/daybreak/internal/report"
)

// ReportStore bundles the repositories behind the report package's
// storage interfaces: recommendation persistence for the morning
// cycle, price and trade persistence for the evening cycle, trade
// readback for the monthly scorecard.
type ReportStore struct {
	*RecommendationRepository
	prices *PriceRepository
	trades *PaperTradeRepository
}

var (
	_ report.RecommendationStore = (*ReportStore)(nil)
	_ report.EveningStore        = (*ReportStore)(nil)
	_ report.MonthlyTradeSource  = (*ReportStore)(nil)
)

func NewReportStore(db *sql.DB, log zerolog.Logger) *ReportStore {
	return &ReportStore{
		RecommendationRepository: NewRecommendationRepository(db, log),
		prices:                   NewPriceRepository(db, log),
		trades:                   NewPaperTradeRepository(db, log),
	}
}

// Prices exposes the daily-price repository for direct use.
func (s *ReportStore) Prices() *PriceRepository {
	return s.prices
}

// RecommendationsFor returns the morning picks stored for one day.
func (s *ReportStore) RecommendationsFor(ctx context.Context, day string) ([]report.RecommendedPick, error) {
	rows, err := s.ListByDay(ctx, day)
	if err != nil {
		return nil, err
	}
	picks := make([]report.RecommendedPick, 0, len(rows))
	for _, r := range rows {
		picks = append(picks, report.RecommendedPick{
			RecommendationID: r.ID,
			SymbolID:         r.SymbolID,
			Name:             r.Name,
			Code:             r.Code,
		})
	}
	return picks, nil
}

// SaveDailyPrice stores one daily bar for a symbol.
func (s *ReportStore) SaveDailyPrice(ctx context.Context, symbolID int64, day string, bar domain.OHLC) error {
	return s.prices.Upsert(ctx, symbolID, day, bar)
}

// SavePaperTrade stores one simulated trade.
func (s *ReportStore) SavePaperTrade(ctx context.Context, trade report.PaperTradeEntry) error {
	return s.trades.Upsert(ctx, PaperTradeRecord{
		Day:              trade.Day,
		SymbolID:         trade.SymbolID,
		RecommendationID: trade.RecommendationID,
		EntryDay:         trade.EntryDay,
		Provider:         trade.Provider,
		Result:           trade.Result,
	})
}

// TradesForMonth returns one month of trades for aggregation, plus the
// per-trade provider names for the breakdown line.
func (s *ReportStore) TradesForMonth(ctx context.Context, year int, month time.Month, includeDummy bool) ([]analysis.MonthlyTrade, []string, error) {
	records, err := s.trades.ListByMonth(ctx, year, month, includeDummy)
	if err != nil {
		return nil, nil, err
	}

	trades := make([]analysis.MonthlyTrade, 0, len(records))
	providers := make([]string, 0, len(records))
	for _, rec := range records {
		trades = append(trades, analysis.MonthlyTrade{
			Day:            rec.Day,
			Symbol:         rec.Result.Symbol,
			Name:           rec.Result.Name,
			PnL:            rec.Result.PnL,
			PnLRate:        rec.Result.PnLRate,
			InvestedAmount: rec.Result.InvestedAmount,
		})
		providers = append(providers, rec.Provider)
	}
	return trades, providers, nil
}
