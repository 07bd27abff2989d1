package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizboard/internal/metrics"
)

func newTestDB(t *testing.T) (*DB, *metrics.Metrics) {
	t.Helper()

	m := metrics.New(nil)
	db, err := Open(context.Background(), Options{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		AutoMigrate: true,
		Metrics:     m,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})

	err = db.InTx(context.Background(), "scratch", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `CREATE TABLE scratch (value TEXT NOT NULL UNIQUE)`)
		return err
	})
	require.NoError(t, err)
	return db, m
}

func countScratch(t *testing.T, db *DB, value string) int {
	t.Helper()

	// A bounded context turns a leaked connection into a test failure instead of a hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var count int
	err := db.InTx(ctx, "scratch.count", func(ctx context.Context, tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM scratch WHERE value = ?`, value).Scan(&count)
	})
	require.NoError(t, err)
	return count
}

func insertScratch(ctx context.Context, tx *sql.Tx, value string) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO scratch (value) VALUES (?)`, value)
	return err
}

func TestOpenCreatesSchema(t *testing.T) {
	db, _ := newTestDB(t)

	var tables []string
	err := db.InTx(context.Background(), "tables", func(ctx context.Context, tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('user', 'quiz', 'user_score') ORDER BY name`)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return err
			}
			tables = append(tables, name)
		}
		return rows.Err()
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"quiz", "user", "user_score"}, tables)

	// Migrating twice is harmless.
	require.NoError(t, db.Migrate(context.Background()))
}

func TestInTxCommitsOnSuccess(t *testing.T) {
	db, m := newTestDB(t)

	err := db.InTx(context.Background(), "insert", func(ctx context.Context, tx *sql.Tx) error {
		return insertScratch(ctx, tx, "kept")
	})
	require.NoError(t, err)

	assert.Equal(t, 1, countScratch(t, db, "kept"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxTotal.WithLabelValues("insert", "commit")))
}

func TestInTxRollsBackOnError(t *testing.T) {
	db, m := newTestDB(t)
	errBoom := errors.New("boom")

	err := db.InTx(context.Background(), "insert", func(ctx context.Context, tx *sql.Tx) error {
		if err := insertScratch(ctx, tx, "discarded"); err != nil {
			return err
		}
		return errBoom
	})
	require.ErrorIs(t, err, errBoom)

	assert.Equal(t, 0, countScratch(t, db, "discarded"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxTotal.WithLabelValues("insert", "rollback")))
}

func TestInTxRollsBackOnPanic(t *testing.T) {
	db, _ := newTestDB(t)

	require.PanicsWithValue(t, "kaboom", func() {
		_ = db.InTx(context.Background(), "insert", func(ctx context.Context, tx *sql.Tx) error {
			if err := insertScratch(ctx, tx, "panicked"); err != nil {
				return err
			}
			panic("kaboom")
		})
	})

	assert.Equal(t, 0, countScratch(t, db, "panicked"))
}

func TestInTxRollsBackWhenContextCancelled(t *testing.T) {
	db, _ := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())

	err := db.InTx(ctx, "insert", func(ctx context.Context, tx *sql.Tx) error {
		if err := insertScratch(ctx, tx, "cancelled"); err != nil {
			return err
		}
		cancel()
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, 0, countScratch(t, db, "cancelled"))
}

func TestInTxReportsCommitFailure(t *testing.T) {
	db, m := newTestDB(t)
	ctx := context.Background()

	err := db.InTx(ctx, "deferred_fk", func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `CREATE TABLE parent (id INTEGER PRIMARY KEY)`); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `CREATE TABLE child (
			parent_id INTEGER REFERENCES parent(id) DEFERRABLE INITIALLY DEFERRED
		)`)
		return err
	})
	require.NoError(t, err)

	// The dangling reference is only checked at COMMIT.
	err = db.InTx(ctx, "orphan", func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO child (parent_id) VALUES (42)`)
		return err
	})
	require.ErrorIs(t, err, ErrCommit)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TxTotal.WithLabelValues("orphan", "commit_error")))

	var orphans int
	err = db.InTx(ctx, "count", func(ctx context.Context, tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM child`).Scan(&orphans)
	})
	require.NoError(t, err)
	assert.Zero(t, orphans)
}

func TestIsUniqueViolation(t *testing.T) {
	db, _ := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InTx(ctx, "first", func(ctx context.Context, tx *sql.Tx) error {
		return insertScratch(ctx, tx, "dup")
	}))

	err := db.InTx(ctx, "second", func(ctx context.Context, tx *sql.Tx) error {
		return insertScratch(ctx, tx, "dup")
	})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsForeignKeyViolation(err))
	assert.False(t, IsUniqueViolation(errors.New("plain")))
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("quiz.db", 3*time.Second)
	assert.True(t, strings.HasPrefix(dsn, "quiz.db?"))
	assert.Contains(t, dsn, "_busy_timeout=3000")
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "_journal_mode=WAL")

	memory := buildDSN(":memory:", time.Second)
	assert.NotContains(t, memory, "_journal_mode")

	withQuery := buildDSN("file:quiz.db?cache=shared", time.Second)
	assert.True(t, strings.HasPrefix(withQuery, "file:quiz.db?cache=shared&"))
}
