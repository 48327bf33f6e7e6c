package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the single-node TickStore. ":memory:" works for tests.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect sqlite: %w", err)
	}

	// one writer; also keeps a :memory: database on a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range sqlitePragmas {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", stmt, err)
		}
	}
	if _, err := db.Exec(sqliteTicksDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}
	return &SQLiteStore{path: path, db: db}, nil
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
}

const sqliteTicksDDL = `
CREATE TABLE IF NOT EXISTS token_ticks (
  id        INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id    TEXT    NOT NULL,
  ts_ms     INTEGER NOT NULL,
  pair      TEXT    NOT NULL,
  price     REAL    NOT NULL,
  change24h REAL    NOT NULL,
  volume    REAL    NOT NULL,
  direction TEXT    NOT NULL,
  source    TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_token_ticks_pair_ts ON token_ticks(pair, ts_ms);
`

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, ticks []Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO token_ticks (run_id, ts_ms, pair, price, change24h, volume, direction, source)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, t := range ticks {
		if _, err := stmt.ExecContext(ctx, t.RunID, t.TsMs, t.Pair, t.Price, t.Change24h, t.Volume, t.Direction, t.Source); err != nil {
			return fmt.Errorf("insert %s: %w", t.Pair, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Recent(ctx context.Context, pair string, limit int) ([]Tick, error) {
	limit = clampLimit(limit)

	// id breaks ties between ticks sharing a millisecond
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, ts_ms, pair, price, change24h, volume, direction, source
FROM token_ticks
WHERE pair = ?
ORDER BY ts_ms DESC, id DESC
LIMIT ?`, pair, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Tick, 0, limit)
	for rows.Next() {
		var t Tick
		if err := rows.Scan(&t.RunID, &t.TsMs, &t.Pair, &t.Price, &t.Change24h, &t.Volume, &t.Direction, &t.Source); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reverseTicks(out)
	return out, nil
}
