package repositories

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/domain"
)

// PriceRepository stores daily OHLC bars per symbol. The evening cycle
// appends one bar per tracked symbol; the performance module reads
// close series back for return and RSI computation.
type PriceRepository struct {
	*BaseRepository
}

func NewPriceRepository(db *sql.DB, log zerolog.Logger) *PriceRepository {
	return &PriceRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "prices").Logger()),
	}
}

// Upsert stores one daily bar. Reruns for the same (symbol, day)
// replace the earlier row.
func (r *PriceRepository) Upsert(ctx context.Context, symbolID int64, day string, bar domain.OHLC) error {
	var volume interface{}
	if bar.Volume > 0 {
		volume = bar.Volume
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_prices
			(symbol_id, day, open, high, low, close, volume, change_rate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol_id, day) DO UPDATE
		SET open        = excluded.open,
		    high        = excluded.high,
		    low         = excluded.low,
		    close       = excluded.close,
		    volume      = excluded.volume,
		    change_rate = excluded.change_rate`,
		symbolID, day, bar.Open, bar.High, bar.Low, bar.Close, volume, bar.ChangePct,
	)
	if err != nil {
		return fmt.Errorf("upsert daily price for symbol %d on %s: %w", symbolID, day, err)
	}
	return nil
}

// Closes returns up to limit most recent closes for a symbol in
// chronological order, oldest first.
func (r *PriceRepository) Closes(ctx context.Context, symbolID int64, limit int) ([]float64, error) {
	if limit <= 0 {
		limit = 60
	}

	rows, err := r.builder().
		Select("close").
		From("daily_prices").
		Where(sq.Eq{"symbol_id": symbolID}).
		OrderBy("day DESC").
		Limit(uint64(limit)).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("closes for symbol %d: %w", symbolID, err)
	}
	defer rows.Close()

	var reversed []float64
	for rows.Next() {
		var c float64
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan close: %w", err)
		}
		reversed = append(reversed, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	closes := make([]float64, len(reversed))
	for i, c := range reversed {
		closes[len(reversed)-1-i] = c
	}
	return closes, nil
}

// LastClose returns the newest stored close for a symbol, or false
// when no bar exists.
func (r *PriceRepository) LastClose(ctx context.Context, symbolID int64) (float64, bool, error) {
	var c float64
	row := r.builder().
		Select("close").
		From("daily_prices").
		Where(sq.Eq{"symbol_id": symbolID}).
		OrderBy("day DESC").
		Limit(1).
		QueryRowContext(ctx)
	if err := row.Scan(&c); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("last close for symbol %d: %w", symbolID, err)
	}
	return c, true, nil
}
