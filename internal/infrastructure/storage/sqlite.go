package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/algo_trade_runner/internal/domain"
)

// SQLiteStore is the local candle database. It is the backfill target and
// the secondary history source the gateway client falls back to when the
// live API returns no rows.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS candles (
			symbol TEXT NOT NULL,
			exchange TEXT NOT NULL,
			interval TEXT NOT NULL,
			ts INTEGER NOT NULL,
			open REAL NOT NULL,
			high REAL NOT NULL,
			low REAL NOT NULL,
			close REAL NOT NULL,
			volume REAL NOT NULL,
			PRIMARY KEY (symbol, exchange, interval, ts)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_candles_lookup ON candles(symbol, exchange, interval, ts);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}

	return nil
}

func (s *SQLiteStore) SaveCandles(ctx context.Context, symbol, exchange, interval string, candles domain.Series) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO candles
		(symbol, exchange, interval, ts, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range candles {
		_, err := stmt.ExecContext(ctx, symbol, exchange, interval,
			c.Timestamp.Unix(), c.Open, c.High, c.Low, c.Close, c.Volume)
		if err != nil {
			return fmt.Errorf("failed to insert candle %s@%d: %w", symbol, c.Timestamp.Unix(), err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetCandles(ctx context.Context, symbol, exchange, interval string, start, end time.Time) (domain.Series, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ts, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND exchange = ? AND interval = ? AND ts >= ? AND ts <= ?
		ORDER BY ts ASC`,
		symbol, exchange, interval, start.Unix(), end.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles domain.Series
	for rows.Next() {
		var ts int64
		var c domain.Candle
		if err := rows.Scan(&ts, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		c.Timestamp = time.Unix(ts, 0).UTC()
		candles = append(candles, c)
	}

	return candles, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
