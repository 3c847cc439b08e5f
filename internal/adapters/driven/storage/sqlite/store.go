package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/homeradar/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.RecordStore = (*Store)(nil)

// defaultListLimit applies when ListOptions.Limit is zero.
const defaultListLimit = 50

// Store is a SQLite-backed driven.RecordStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.homeradar/data/posts.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".homeradar", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "posts.db")

	// WAL lets the posts command read while an ingest pass writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations and records each applied version.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_posts.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Exists reports whether a record for url was already written.
func (s *Store) Exists(ctx context.Context, url string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM posts WHERE url = ?", url).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking post: %w", err)
	}
	return true, nil
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
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO NOTHING
	`, r.ID, r.URL, r.Content, r.Author, r.GroupName,
		nullString(d.City), nullString(d.Neighborhood), nullString(d.Street), nullString(d.Location),
		nullPrice(d.Price), nullString(d.Rooms), nullString(d.Phone),
		string(r.Category), boolInt(r.IsBroker), nullFloat(r.Confidence),
		nullString(r.Reason), nullString(r.FilterMatch), boolInt(r.Relevant),
		nullTime(r.ScannedAt), r.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
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

	query := `
		SELECT id, url, content, author, group_name,
			city, neighborhood, street, location, price, rooms, phone,
			category, is_broker, confidence, reason, filter_match, relevant,
			scanned_at, created_at
		FROM posts`
	if opts.RelevantOnly {
		query += " WHERE relevant = 1"
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	defer rows.Close()

	var records []domain.PostRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func scanRecord(rows *sql.Rows) (domain.PostRecord, error) {
	var r domain.PostRecord
	var city, neighborhood, street, location, rooms, phone sql.NullString
	var reason, filterMatch sql.NullString
	var category string
	var price sql.NullInt64
	var confidence sql.NullFloat64
	var isBroker, relevant int
	var scannedAt sql.NullTime
	if err := rows.Scan(&r.ID, &r.URL, &r.Content, &r.Author, &r.GroupName,
		&city, &neighborhood, &street, &location, &price, &rooms, &phone,
		&category, &isBroker, &confidence, &reason, &filterMatch, &relevant,
		&scannedAt, &r.CreatedAt); err != nil {
		return r, fmt.Errorf("scanning post: %w", err)
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
	r.IsBroker = isBroker != 0
	r.Relevant = relevant != 0
	r.Reason = reason.String
	r.FilterMatch = filterMatch.String
	if confidence.Valid {
		c := confidence.Float64
		r.Confidence = &c
	}
	if scannedAt.Valid {
		r.ScannedAt = scannedAt.Time
	}
	return r, nil
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

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
