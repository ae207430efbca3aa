package recorder

import (
	"context"
	"database/sql"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"CardWatch/internal/model"
)

// timeLayout matches the text form of Python datetimes, so databases written by
// earlier versions of this job stay readable.
const timeLayout = "2006-01-02 15:04:05.000000"

// SQLiteStore persists balance history to a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (or creates) the SQLite database and ensures the schema.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &model.StorageError{Op: "open", Err: errors.Wrap(err, "create database directory")}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, &model.StorageError{Op: "open", Err: err}
	}
	// A single connection keeps every statement on one SQLite handle.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, &model.StorageError{Op: "open", Err: errors.Wrap(err, "set WAL mode")}
	}

	s := &SQLiteStore{db: db, logger: logger, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, &model.StorageError{Op: "migrate", Err: err}
	}

	logger.Info("sqlite store opened", zap.String("path", dbPath))
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS balance (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		"when" DATETIME,
		value REAL
	)`)
	return err
}

func (s *SQLiteStore) AppendBalance(ctx context.Context, value float64) error {
	when := s.now().UTC().Format(timeLayout)
	if _, err := s.db.ExecContext(ctx, `INSERT INTO balance ("when", value) VALUES (?, ?)`, when, value); err != nil {
		return &model.StorageError{Op: "append", Err: err}
	}
	s.logger.Debug("balance appended", zap.Float64("value", value), zap.String("when", when))
	return nil
}

func (s *SQLiteStore) CurrentBalance(ctx context.Context) (float64, error) {
	var value float64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM balance ORDER BY id DESC LIMIT 1`).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0.0, nil
	case err != nil:
		return 0, &model.StorageError{Op: "current balance", Err: err}
	}
	return value, nil
}

func (s *SQLiteStore) History(ctx context.Context) iter.Seq2[float64, error] {
	return func(yield func(float64, error) bool) {
		for rec, err := range s.Records(ctx) {
			if !yield(rec.Value, err) || err != nil {
				return
			}
		}
	}
}

func (s *SQLiteStore) Records(ctx context.Context) iter.Seq2[model.BalanceRecord, error] {
	return func(yield func(model.BalanceRecord, error) bool) {
		rows, err := s.db.QueryContext(ctx, `SELECT id, "when", value FROM balance ORDER BY id ASC`)
		if err != nil {
			yield(model.BalanceRecord{}, &model.StorageError{Op: "history", Err: err})
			return
		}
		defer rows.Close()

		for rows.Next() {
			var (
				rec  model.BalanceRecord
				when sql.NullString
			)
			if err := rows.Scan(&rec.ID, &when, &rec.Value); err != nil {
				yield(model.BalanceRecord{}, &model.StorageError{Op: "history", Err: err})
				return
			}
			if when.Valid {
				t, err := parseWhen(when.String)
				if err != nil {
					yield(model.BalanceRecord{}, &model.StorageError{Op: "history", Err: err})
					return
				}
				rec.ObservedAt = t
			}
			if !yield(rec, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(model.BalanceRecord{}, &model.StorageError{Op: "history", Err: err})
		}
	}
}

// parseWhen accepts timestamps with or without fractional seconds.
func parseWhen(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{timeLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("parse timestamp %q", v)
}

func (s *SQLiteStore) Close() error {
	s.logger.Info("closing sqlite store")
	return s.db.Close()
}
