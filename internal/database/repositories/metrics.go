package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/daybreak-kr/daybreak/internal/domain"
)

// MetricsCacheRepository stores fetched financial metrics keyed by
// (security code, trading day) so reruns within a day skip the
// upstream quote API. Rows are never evicted; stale days are simply
// never read again.
type MetricsCacheRepository struct {
	*BaseRepository
}

func NewMetricsCacheRepository(db *sql.DB, log zerolog.Logger) *MetricsCacheRepository {
	return &MetricsCacheRepository{
		BaseRepository: NewBase(db, log.With().Str("repo", "metrics_cache").Logger()),
	}
}

// GetMetrics returns the cached metrics for a code and day, or nil on
// a cache miss. A row that no longer unmarshals is treated as a miss.
func (r *MetricsCacheRepository) GetMetrics(ctx context.Context, code string, day time.Time) (*domain.FinancialMetrics, error) {
	var payload string
	row := r.builder().
		Select("payload").
		From("metrics_cache").
		Where(sq.Eq{"code": code, "day": day.Format("2006-01-02")}).
		QueryRowContext(ctx)
	if err := row.Scan(&payload); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get metrics for %s: %w", code, err)
	}

	var metrics domain.FinancialMetrics
	if err := json.Unmarshal([]byte(payload), &metrics); err != nil {
		r.log.Warn().Str("code", code).Err(err).Msg("Discarding unreadable metrics cache row")
		return nil, nil
	}
	return &metrics, nil
}

// PutMetrics stores metrics for a code and day, replacing any earlier
// row for the same key.
func (r *MetricsCacheRepository) PutMetrics(ctx context.Context, code string, day time.Time, metrics domain.FinancialMetrics) error {
	payload, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("encode metrics for %s: %w", code, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO metrics_cache (code, day, payload)
		VALUES (?, ?, ?)
		ON CONFLICT (code, day) DO UPDATE
		SET payload = excluded.payload, created_at = CURRENT_TIMESTAMP`,
		code, day.Format("2006-01-02"), string(payload),
	)
	if err != nil {
		return fmt.Errorf("put metrics for %s: %w", code, err)
	}
	return nil
}
