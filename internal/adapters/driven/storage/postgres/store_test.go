package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
)

var columns = []string{
	"id", "url", "content", "author", "group_name",
	"city", "neighborhood", "street", "location", "price", "rooms", "phone",
	"category", "is_broker", "confidence", "reason", "filter_match", "relevant",
	"scanned_at", "created_at",
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return New(db), mock
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func TestStore_ImplementsInterface(t *testing.T) {
	var _ driven.RecordStore = (*Store)(nil)
}

func TestOpen_EmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func newPingMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return db, mock
}

func TestWaitForServer_RetriesUntilPingSucceeds(t *testing.T) {
	db, mock := newPingMock(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing()

	backoff := retry.WithMaxRetries(5, retry.NewConstant(time.Millisecond))

	assert.NoError(t, waitForServer(context.Background(), db, backoff))
}

func TestWaitForServer_GivesUp(t *testing.T) {
	db, mock := newPingMock(t)
	for i := 0; i < 3; i++ {
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	}

	backoff := retry.WithMaxRetries(2, retry.NewConstant(time.Millisecond))
	err := waitForServer(context.Background(), db, backoff)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestWaitForServer_StopsOnCancel(t *testing.T) {
	db, mock := newPingMock(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	backoff := retry.WithMaxRetries(5, retry.NewConstant(time.Hour))

	assert.Error(t, waitForServer(ctx, db, backoff))
}

func TestStore_Migrate(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS posts`).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.Migrate(context.Background()))
}

func TestStore_Migrate_Error(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS posts`).WillReturnError(errors.New("permission denied"))

	err := store.Migrate(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "migrate")
}

func TestStore_Exists(t *testing.T) {
	for _, want := range []bool{true, false} {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs("https://fb.com/p/1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(want))

		got, err := store.Exists(context.Background(), "https://fb.com/p/1")

		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestStore_Insert(t *testing.T) {
	store, mock := newMockStore(t)
	confidence := 0.9
	rec := domain.PostRecord{
		ID:         "id-1",
		URL:        "https://fb.com/p/1",
		Content:    "דירה למכירה",
		Details:    domain.ExtractedDetails{Price: 2500000, City: "ירושלים"},
		Category:   domain.CategoryRelevant,
		Confidence: &confidence,
		Relevant:   true,
	}

	args := anyArgs(20)
	args[0], args[1], args[9], args[12], args[17] = "id-1", "https://fb.com/p/1", int64(2500000), "RELEVANT", true
	mock.ExpectExec(`INSERT INTO posts`).WithArgs(args...).WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, store.Insert(context.Background(), rec))
}

func TestStore_Insert_Duplicates(t *testing.T) {
	tests := []struct {
		name   string
		expect func(sqlmock.Sqlmock)
	}{
		{"on conflict skipped", func(m sqlmock.Sqlmock) {
			m.ExpectExec(`INSERT INTO posts`).WillReturnResult(sqlmock.NewResult(0, 0))
		}},
		{"unique violation", func(m sqlmock.Sqlmock) {
			m.ExpectExec(`INSERT INTO posts`).WillReturnError(&pq.Error{Code: uniqueViolation})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.expect(mock)

			err := store.Insert(context.Background(), domain.PostRecord{ID: "x", URL: "u"})

			assert.ErrorIs(t, err, domain.ErrAlreadyExists)
		})
	}
}

func TestStore_Insert_Error(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(`INSERT INTO posts`).WillReturnError(errors.New("connection refused"))

	err := store.Insert(context.Background(), domain.PostRecord{ID: "x", URL: "u"})

	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrAlreadyExists)
	assert.Contains(t, err.Error(), "postgres: insert")
}

func TestStore_List(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(columns).
		AddRow("id-2", "u2", "דירה בחיפה", "Avi", "דירות בחיפה",
			"חיפה", "הדר", nil, "הדר", int64(900000), "3", nil,
			"SUSPECTED_BROKER", true, 0.8, "agent listing", nil, true,
			created, created).
		AddRow("id-1", "u1", "תיווך", "", "",
			nil, nil, nil, nil, nil, nil, nil,
			"BROKER", true, nil, "broker keyword: תיווך", "תיווך", false,
			nil, created.Add(-time.Hour))
	mock.ExpectQuery(`SELECT (.+) FROM posts`).WithArgs(false, 10).WillReturnRows(rows)

	records, err := store.List(context.Background(), driven.ListOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "u2", first.URL)
	assert.Equal(t, int64(900000), first.Details.Price)
	assert.Equal(t, "חיפה", first.Details.City)
	assert.Equal(t, "הדר", first.Details.Location)
	assert.Equal(t, domain.CategorySuspectedBroker, first.Category)
	require.NotNil(t, first.Confidence)
	assert.InDelta(t, 0.8, *first.Confidence, 1e-9)
	assert.True(t, first.ScannedAt.Equal(created))

	second := records[1]
	assert.Nil(t, second.Confidence)
	assert.Equal(t, "תיווך", second.FilterMatch)
	assert.False(t, second.Relevant)
	assert.True(t, second.ScannedAt.IsZero())
}

func TestStore_List_DefaultLimitRelevantOnly(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT (.+) FROM posts`).
		WithArgs(true, defaultListLimit).
		WillReturnRows(sqlmock.NewRows(columns))

	records, err := store.List(context.Background(), driven.ListOptions{RelevantOnly: true})

	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStore_List_QueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT (.+) FROM posts`).WillReturnError(errors.New("boom"))

	_, err := store.List(context.Background(), driven.ListOptions{})

	assert.Error(t, err)
}
