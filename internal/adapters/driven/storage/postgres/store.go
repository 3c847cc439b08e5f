// Package postgres provides a PostgreSQL-backed record store for
// deployments where several ingest workers share one database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sethvargo/go-retry"

	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RecordStore = (*Store)(nil)

const (
	defaultListLimit = 50

	// uniqueViolation is the SQLSTATE for a unique constraint failure.
	uniqueViolation = "23505"

	pingAttempts = 10
	pingInterval = 2 * time.Second
)

const schema = `
CREATE TABLE IF NOT EXISTS posts (
	seq          BIGSERIAL,
	id           TEXT PRIMARY KEY,
	url          TEXT NOT NULL UNIQUE,
	content      TEXT NOT NULL,
	author       TEXT NOT NULL DEFAULT '',
	group_name   TEXT NOT NULL DEFAULT '',
	city         TEXT,
	neighborhood TEXT,
	street       TEXT,
	location     TEXT,
	price        BIGINT CHECK (price IS NULL OR price BETWEEN 1000 AND 50000000),
	rooms        TEXT,
	phone        TEXT,
	category     TEXT NOT NULL,
	is_broker    BOOLEAN NOT NULL DEFAULT FALSE,
	confidence   DOUBLE PRECISION,
	reason       TEXT,
	filter_match TEXT,
	relevant     BOOLEAN NOT NULL DEFAULT FALSE,
	scanned_at   TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_posts_relevant_created ON posts (relevant, created_at DESC);
`

// Store is a PostgreSQL-backed driven.RecordStore.
type Store struct {
	db *sql.DB
}

// Open connects to dsn, waits for the server to accept connections,
// and creates the schema if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: %w: empty DSN", domain.ErrInvalidInput)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := waitForServer(ctx, db, pingBackoff()); err != nil {
		db.Close()
		return nil, err
	}

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func pingBackoff() retry.Backoff {
	return retry.WithMaxRetries(pingAttempts-1, retry.NewConstant(pingInterval))
}

// waitForServer pings db until it answers or backoff is exhausted.
func waitForServer(ctx context.Context, db *sql.DB, backoff retry.Backoff) error {
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("postgres: ping failed after retries: %w", err)
	}
	return nil
}

// New wraps an already opened database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the posts table and its indexes.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Exists reports whether a record for url was already written.
func (s *Store) Exists(ctx context.Context, url string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM posts WHERE url = $1)", url).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: exists: %w", err)
	}
	return exists, nil
}

// Insert writes a new record. A duplicate url returns domain.ErrAlreadyExists.
func (s *Store) Insert(ctx context.Context, r domain.PostRecord) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	d := r.Details

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO posts (
			id, url, content, author, group_name,
			city, neighborhood, street, location, price, rooms, phone,
			category, is_broker, confidence, reason, filter_match, relevant,
			scanned_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (url) DO NOTHING`,
		r.ID, r.URL, r.Content, r.Author, r.GroupName,
		nullString(d.City), nullString(d.Neighborhood), nullString(d.Street), nullString(d.Location),
		nullPrice(d.Price), nullString(d.Rooms), nullString(d.Phone),
		string(r.Category), r.IsBroker, nullFloat(r.Confidence),
		nullString(r.Reason), nullString(r.FilterMatch), r.Relevant,
		pq.NullTime{Time: r.ScannedAt, Valid: !r.ScannedAt.IsZero()}, r.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("postgres: insert: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: insert: %w", err)
	}
	if n == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// List returns records newest first.
func (s *Store) List(ctx context.Context, opts driven.ListOptions) ([]domain.PostRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, url, content, author, group_name,
			city, neighborhood, street, location, price, rooms, phone,
			category, is_broker, confidence, reason, filter_match, relevant,
			scanned_at, created_at
		FROM posts
		WHERE NOT $1 OR relevant
		ORDER BY created_at DESC, seq DESC
		LIMIT $2`, opts.RelevantOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list: %w", err)
	}
	defer rows.Close()

	var records []domain.PostRecord
	for rows.Next() {
		var r domain.PostRecord
		var city, neighborhood, street, location, rooms, phone sql.NullString
		var reason, filterMatch sql.NullString
		var category string
		var price sql.NullInt64
		var confidence sql.NullFloat64
		var scannedAt pq.NullTime
		if err := rows.Scan(&r.ID, &r.URL, &r.Content, &r.Author, &r.GroupName,
			&city, &neighborhood, &street, &location, &price, &rooms, &phone,
			&category, &r.IsBroker, &confidence, &reason, &filterMatch, &r.Relevant,
			&scannedAt, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan: %w", err)
		}

		r.Details = domain.ExtractedDetails{
			Price:        price.Int64,
			City:         city.String,
			Neighborhood: neighborhood.String,
			Street:       street.String,
			Location:     location.String,
			Rooms:        rooms.String,
			Phone:        phone.String,
		}
		r.Category = domain.Category(category)
		r.Reason = reason.String
		r.FilterMatch = filterMatch.String
		if confidence.Valid {
			c := confidence.Float64
			r.Confidence = &c
		}
		if scannedAt.Valid {
			r.ScannedAt = scannedAt.Time
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullPrice(p int64) sql.NullInt64 {
	return sql.NullInt64{Int64: p, Valid: p != 0}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
