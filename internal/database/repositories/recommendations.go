package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/domain"
)

// RecommendationRow joins a recommendation with its symbol for display.
type RecommendationRow struct {
	domain.Recommendation
	Name string `json:"name"`
	Code string `json:"code"`
}

// RecommendationRepository persists daily watchlist picks. It also
// fronts the symbols master so callers can store a pick in one call
// sequence without holding two repositories.
type RecommendationRepository struct {
	*BaseRepository
	symbols *SymbolRepository
}

func NewRecommendationRepository(db *sql.DB, log zerolog.Logger) *RecommendationRepository {
	return &RecommendationRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "recommendations").Logger()),
		symbols:        NewSymbolRepository(db, log),
	}
}

// UpsertSymbol inserts or refreshes a symbol and returns its row id.
func (r *RecommendationRepository) UpsertSymbol(ctx context.Context, name, code string) (int64, error) {
	return r.symbols.Upsert(ctx, name, code)
}

// UpsertRecommendation stores one pick for a report date. A rerun for
// the same (day, symbol) replaces the earlier row; the row id is minted
// here when the caller left it empty.
func (r *RecommendationRepository) UpsertRecommendation(ctx context.Context, rec domain.Recommendation) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recommendations
			(id, day, symbol_id, reason, priority, confidence, total_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (day, symbol_id) DO UPDATE
		SET reason      = excluded.reason,
		    priority    = excluded.priority,
		    confidence  = excluded.confidence,
		    total_score = excluded.total_score,
		    created_at  = excluded.created_at`,
		rec.ID, rec.Day, rec.SymbolID, rec.Reason,
		rec.Priority, string(rec.Confidence), rec.TotalScore, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert recommendation for day %s: %w", rec.Day, err)
	}
	return nil
}

// ListByDay returns the picks for one report date, highest priority
// first.
func (r *RecommendationRepository) ListByDay(ctx context.Context, day string) ([]RecommendationRow, error) {
	rows, err := r.builder().
		Select("r.id", "r.day", "r.symbol_id", "r.reason", "r.priority",
			"r.confidence", "r.total_score", "r.created_at", "s.name", "s.code").
		From("recommendations r").
		Join("symbols s ON s.id = r.symbol_id").
		Where(sq.Eq{"r.day": day}).
		OrderBy("r.priority ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recommendations for %s: %w", day, err)
	}
	defer rows.Close()

	var out []RecommendationRow
	for rows.Next() {
		var rec RecommendationRow
		var confidence string
		if err := rows.Scan(&rec.ID, &rec.Day, &rec.SymbolID, &rec.Reason,
			&rec.Priority, &confidence, &rec.TotalScore, &rec.CreatedAt,
			&rec.Name, &rec.Code); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		rec.Confidence = domain.Confidence(confidence)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// LatestDay returns the most recent report date with stored picks, or
// "" when the table is empty.
func (r *RecommendationRepository) LatestDay(ctx context.Context) (string, error) {
	var day sql.NullString
	row := r.builder().
		Select("MAX(day)").
		From("recommendations").
		QueryRowContext(ctx)
	if err := row.Scan(&day); err != nil {
		return "", fmt.Errorf("latest recommendation day: %w", err)
	}
	return day.String, nil
}
