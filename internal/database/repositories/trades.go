package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/analysis"
)

// PaperTradeRecord is one stored simulated trade.
type PaperTradeRecord struct {
	ID               int64
	Day              string
	SymbolID         int64
	RecommendationID string
	EntryDay         string
	Provider         string // "yahoo", "dummy" or "unknown"
	Result           analysis.TradeResult
}

// PaperTradeRepository persists simulated trades for the monthly
// performance summary.
type PaperTradeRepository struct {
	*BaseRepository
}

func NewPaperTradeRepository(db *sql.DB, log zerolog.Logger) *PaperTradeRepository {
	return &PaperTradeRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "paper_trades").Logger()),
	}
}

// Upsert stores one simulated trade. Reruns for the same (day, symbol)
// replace the earlier row.
func (r *PaperTradeRepository) Upsert(ctx context.Context, rec PaperTradeRecord) error {
	if rec.Provider == "" {
		rec.Provider = "unknown"
	}

	var recommendationID interface{}
	if rec.RecommendationID != "" {
		recommendationID = rec.RecommendationID
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO paper_trades
			(day, symbol_id, recommendation_id, entry_day, entry_price, current_price,
			 quantity, invested_amount, current_value, pnl, pnl_rate, market_provider)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (day, symbol_id) DO UPDATE
		SET recommendation_id = excluded.recommendation_id,
		    entry_day         = excluded.entry_day,
		    entry_price       = excluded.entry_price,
		    current_price     = excluded.current_price,
		    quantity          = excluded.quantity,
		    invested_amount   = excluded.invested_amount,
		    current_value     = excluded.current_value,
		    pnl               = excluded.pnl,
		    pnl_rate          = excluded.pnl_rate,
		    market_provider   = excluded.market_provider`,
		rec.Day, rec.SymbolID, recommendationID, rec.EntryDay,
		rec.Result.EntryPrice, rec.Result.ExitPrice, rec.Result.Quantity,
		rec.Result.InvestedAmount, rec.Result.CurrentValue,
		rec.Result.PnL, rec.Result.PnLRate, rec.Provider,
	)
	if err != nil {
		return fmt.Errorf("upsert paper trade for day %s: %w", rec.Day, err)
	}
	return nil
}

// ListByMonth returns the trades recorded in one calendar month,
// oldest first. Dummy-provider trades are excluded unless requested;
// the monthly summary reports real market data only by default.
func (r *PaperTradeRepository) ListByMonth(ctx context.Context, year int, month time.Month, includeDummy bool) ([]PaperTradeRecord, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	where := sq.And{
		sq.GtOrEq{"pt.day": start.Format("2006-01-02")},
		sq.LtOrEq{"pt.day": end.Format("2006-01-02")},
	}
	if !includeDummy {
		where = append(where, sq.Eq{"pt.market_provider": "yahoo"})
	}

	rows, err := r.builder().
		Select("pt.id", "pt.day", "pt.symbol_id", "pt.recommendation_id",
			"pt.entry_day", "pt.entry_price", "pt.current_price", "pt.quantity",
			"pt.invested_amount", "pt.current_value", "pt.pnl", "pt.pnl_rate",
			"pt.market_provider", "s.code", "s.name").
		From("paper_trades pt").
		Join("symbols s ON s.id = pt.symbol_id").
		Where(where).
		OrderBy("pt.day ASC", "pt.symbol_id ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list paper trades for %d-%02d: %w", year, month, err)
	}
	defer rows.Close()

	var out []PaperTradeRecord
	for rows.Next() {
		var rec PaperTradeRecord
		var recommendationID sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Day, &rec.SymbolID, &recommendationID,
			&rec.EntryDay, &rec.Result.EntryPrice, &rec.Result.ExitPrice,
			&rec.Result.Quantity, &rec.Result.InvestedAmount, &rec.Result.CurrentValue,
			&rec.Result.PnL, &rec.Result.PnLRate, &rec.Provider,
			&rec.Result.Symbol, &rec.Result.Name); err != nil {
			return nil, fmt.Errorf("scan paper trade: %w", err)
		}
		rec.RecommendationID = recommendationID.String
		out = append(out, rec)
	}
	return out, rows.Err()
}
