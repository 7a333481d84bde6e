// Package repositories holds the SQLite persistence for the report
// pipeline: symbols master, daily recommendations, daily prices, paper
// trades and the financial-metrics cache.
package repositories

import (
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
)

// BaseRepository provides common database operations
type BaseRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewBase creates a new base repository
func NewBase(db *sql.DB, log zerolog.Logger) *BaseRepository {
	return &BaseRepository{
		db:  db,
		log: log,
	}
}

// DB returns the database connection
func (r *BaseRepository) DB() *sql.DB {
	return r.db
}

// builder returns a squirrel statement builder bound to this
// repository's connection. SQLite uses ? placeholders, squirrel's
// default.
func (r *BaseRepository) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.RunWith(r.db)
}
