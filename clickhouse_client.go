package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	clickhouse "github.com/ClickHouse/clickhouse-go/v2"
)

type ClickHouseConfig struct {
	Enabled     bool
	Host        string
	Port        int
	User        string
	Pass        string
	DB          string
	Secure      bool
	AsyncInsert bool
}

// ClickHouseStore keeps ticks in a MergeTree table. Inserts go through the
// native batch API; reads go through database/sql.
type ClickHouseStore struct {
	cfg  ClickHouseConfig
	conn clickhouse.Conn
	db   *sql.DB
	log  *Logger
}

func (c *ClickHouseStore) Name() string { return "clickhouse" }
func (c *ClickHouseStore) Addr() string { return fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port) }
func (c *ClickHouseStore) Database() string {
	if c == nil {
		return ""
	}
	return c.cfg.DB
}

func (c *ClickHouseStore) Close() error {
	if c == nil {
		return nil
	}
	var err error
	if c.db != nil {
		err = c.db.Close()
	}
	if c.conn != nil {
		if cerr := c.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

var safeIdentRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func validateIdent(s string) error {
	if s == "" {
		return fmt.Errorf("empty identifier")
	}
	if !safeIdentRe.MatchString(s) {
		return fmt.Errorf("unsafe identifier %q (allowed: [a-zA-Z0-9_])", s)
	}
	return nil
}

func (cfg ClickHouseConfig) options(database string) *clickhouse.Options {
	opt := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)},
		Auth: clickhouse.Auth{
			Database: database,
			Username: cfg.User,
			Password: cfg.Pass,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		Settings:        clickhouse.Settings{},
		MaxOpenConns:    4,
		MaxIdleConns:    4,
		ConnMaxLifetime: 30 * time.Minute,
	}
	if cfg.Secure {
		opt.TLS = &tls.Config{}
	}
	if cfg.AsyncInsert {
		opt.Settings["async_insert"] = 1
		opt.Settings["wait_for_async_insert"] = 0
	} else {
		opt.Settings["async_insert"] = 0
	}
	return opt
}

func (cfg *ClickHouseConfig) applyDefaults() {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port <= 0 {
		cfg.Port = 9000
	}
	if cfg.User == "" {
		cfg.User = "default"
	}
}

// OpenClickHouseStore creates the database and table if needed.
func OpenClickHouseStore(ctx context.Context, cfg ClickHouseConfig, log *Logger) (*ClickHouseStore, error) {
	if err := validateIdent(cfg.DB); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	// 1) Connect to "default" to ensure the target database exists.
	connDefault, err := clickhouse.Open(cfg.options("default"))
	if err != nil {
		return nil, fmt.Errorf("clickhouse open(default): %w", err)
	}
	{
		ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := connDefault.Ping(ctxPing); err != nil {
			_ = connDefault.Close()
			return nil, fmt.Errorf("clickhouse ping(default): %w", err)
		}
		ddlDB := fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.DB)
		if err := connDefault.Exec(ctxPing, ddlDB); err != nil {
			_ = connDefault.Close()
			return nil, fmt.Errorf("create database: %w", err)
		}
	}
	_ = connDefault.Close()

	// 2) Connect to the target DB and ensure the table exists.
	conn, err := clickhouse.Open(cfg.options(cfg.DB))
	if err != nil {
		return nil, fmt.Errorf("clickhouse open(%s): %w", cfg.DB, err)
	}
	{
		ctxDDL, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		if err := conn.Exec(ctxDDL, clickhouseTicksDDL); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("clickhouse ddl: %w", err)
		}
	}

	// 3) database/sql handle for reads.
	db := clickhouse.OpenDB(cfg.options(cfg.DB))
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)

	{
		ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			_ = db.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("clickhouse db.Ping: %w", err)
		}
	}

	log.Infof("clickhouse ready addr=%s:%d db=%s async_insert=%v", cfg.Host, cfg.Port, cfg.DB, cfg.AsyncInsert)

	return &ClickHouseStore{cfg: cfg, conn: conn, db: db, log: log}, nil
}

const clickhouseTicksDDL = `
CREATE TABLE IF NOT EXISTS token_ticks
(
  run_id String,
  ts DateTime64(3, 'UTC'),
  pair LowCardinality(String),
  price Float64,
  change24h Float64,
  volume Float64,
  direction LowCardinality(String),
  source LowCardinality(String)
)
ENGINE = MergeTree
PARTITION BY toDate(ts)
ORDER BY (pair, ts, run_id)
`

func (c *ClickHouseStore) Append(ctx context.Context, ticks []Tick) error {
	if c == nil || c.conn == nil {
		return fmt.Errorf("no clickhouse conn")
	}

	b, err := c.conn.PrepareBatch(ctx, `
INSERT INTO token_ticks
(run_id, ts, pair, price, change24h, volume, direction, source)
`)
	if err != nil {
		return err
	}
	for _, t := range ticks {
		if err := b.Append(
			t.RunID,
			time.UnixMilli(t.TsMs).UTC(),
			t.Pair,
			t.Price,
			t.Change24h,
			t.Volume,
			t.Direction,
			t.Source,
		); err != nil {
			return err
		}
	}
	return b.Send()
}

func (c *ClickHouseStore) Recent(ctx context.Context, pair string, limit int) ([]Tick, error) {
	if c == nil || c.db == nil {
		return nil, fmt.Errorf("clickhouse not configured")
	}
	limit = clampLimit(limit)

	rows, err := c.db.QueryContext(ctx, `
SELECT run_id, ts, pair, price, change24h, volume, direction, source
FROM token_ticks
WHERE pair = ?
ORDER BY ts DESC
LIMIT ?
`, pair, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Tick, 0, limit)
	for rows.Next() {
		var t Tick
		var ts time.Time
		if err := rows.Scan(&t.RunID, &ts, &t.Pair, &t.Price, &t.Change24h, &t.Volume, &t.Direction, &t.Source); err != nil {
			return nil, err
		}
		t.TsMs = ts.UnixMilli()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	reverseTicks(out)
	return out, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

func reverseTicks(ts []Tick) {
	for i, j := 0, len(ts)-1; i < j; i, j = i+1, j-1 {
		ts[i], ts[j] = ts[j], ts[i]
	}
}
