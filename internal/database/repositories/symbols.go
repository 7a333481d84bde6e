package repositories

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/domain"
)

// SymbolRepository manages the security master table.
type SymbolRepository struct {
	*BaseRepository
}

func NewSymbolRepository(db *sql.DB, log zerolog.Logger) *SymbolRepository {
	return &SymbolRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "symbols").Logger()),
	}
}

// Upsert inserts or refreshes a symbol and returns its row id. The
// security code is the natural key; the display name may change.
func (r *SymbolRepository) Upsert(ctx context.Context, name, code string) (int64, error) {
	if code == "" {
		return 0, fmt.Errorf("symbol code is required")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO symbols (code, name, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (code) DO UPDATE
		SET name = excluded.name, updated_at = CURRENT_TIMESTAMP`,
		code, name,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert symbol %s: %w", code, err)
	}

	var id int64
	row := r.builder().
		Select("id").
		From("symbols").
		Where(sq.Eq{"code": code}).
		QueryRowContext(ctx)
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup symbol %s: %w", code, err)
	}
	return id, nil
}

// GetByCode returns the symbol for a security code, or nil when absent.
func (r *SymbolRepository) GetByCode(ctx context.Context, code string) (*domain.Symbol, error) {
	var s domain.Symbol
	row := r.builder().
		Select("id", "name", "code").
		From("symbols").
		Where(sq.Eq{"code": code}).
		QueryRowContext(ctx)
	if err := row.Scan(&s.ID, &s.Name, &s.Code); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get symbol %s: %w", code, err)
	}
	return &s, nil
}

// List returns all symbols ordered by name.
func (r *SymbolRepository) List(ctx context.Context) ([]domain.Symbol, error) {
	rows, err := r.builder().
		Select("id", "name", "code").
		From("symbols").
		OrderBy("name ASC").
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()

	var out []domain.Symbol
	for rows.Next() {
		var s domain.Symbol
		if err := rows.Scan(&s.ID, &s.Name, &s.Code); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
