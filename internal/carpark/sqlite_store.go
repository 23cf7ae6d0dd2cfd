package carpark

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists the carpark dataset between runs so the bot can start
// serving before the first refresh completes.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLiteStore opens (and initializes) the dataset database at path.
func NewSQLiteStore(path string, log *slog.Logger) (*SQLiteStore, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite dataset %q: %w", path, err)
	}

	store := &SQLiteStore{db: db, log: log}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	const schema = `
		CREATE TABLE IF NOT EXISTS carparks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			latitude REAL NOT NULL,
			longitude REAL NOT NULL,
			rates_json TEXT NOT NULL DEFAULT '[]',
			source_url TEXT NOT NULL DEFAULT ''
		)
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create carparks table: %w", err)
	}

	return nil
}

// Save replaces the stored dataset with carparks in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, carparks []Carpark) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin dataset transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM carparks`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear carparks: %w", err)
	}

	const insert = `
		INSERT INTO carparks (id, name, latitude, longitude, rates_json, source_url)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	for _, c := range carparks {
		rates, err := json.Marshal(c.Rates)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("encode rates for carpark %q: %w", c.ID, err)
		}

		if _, err := tx.ExecContext(ctx, insert,
			c.ID, c.Name, c.Coordinate.Latitude, c.Coordinate.Longitude, string(rates), c.SourceURL,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert carpark %q: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit dataset: %w", err)
	}

	s.log.Info("carpark dataset saved", slog.Int("count", len(carparks)))

	return nil
}

// Load reads the full stored dataset.
func (s *SQLiteStore) Load(ctx context.Context) ([]Carpark, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, latitude, longitude, rates_json, source_url
		FROM carparks
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("select carparks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var carparks []Carpark
	for rows.Next() {
		var (
			c         Carpark
			ratesJSON string
		)

		if err := rows.Scan(&c.ID, &c.Name, &c.Coordinate.Latitude, &c.Coordinate.Longitude, &ratesJSON, &c.SourceURL); err != nil {
			return nil, fmt.Errorf("scan carpark row: %w", err)
		}

		if err := json.Unmarshal([]byte(ratesJSON), &c.Rates); err != nil {
			s.log.Warn("skipping carpark with malformed rates", slog.String("id", c.ID), slog.Any("error", err))
			continue
		}

		carparks = append(carparks, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate carparks: %w", err)
	}

	return carparks, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
