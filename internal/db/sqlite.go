package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/RichardoC/pad-agent/internal/models"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS exchanges (
    id TEXT PRIMARY KEY,
    provider TEXT NOT NULL,
    model TEXT NOT NULL,
    query TEXT NOT NULL,
    allow_search BOOLEAN NOT NULL DEFAULT 0,
    reply TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    duration_ms INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS exchanges_created_at ON exchanges(created_at);`

type Database struct {
	db *sql.DB
}

func New(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db}, nil
}

func (db *Database) Close() error {
	return db.db.Close()
}

// SaveExchange assigns an id and timestamp to ex and stores it.
func (db *Database) SaveExchange(ex *models.Exchange) error {
	ex.ID = uuid.NewString()
	ex.CreatedAt = time.Now().UTC()

	_, err := db.db.Exec(`
        INSERT INTO exchanges (id, provider, model, query, allow_search, reply, error, duration_ms, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ex.ID, ex.Provider, ex.Model, ex.Query, ex.AllowSearch, ex.Reply, ex.Error, ex.Duration, ex.CreatedAt)
	return err
}

// RecentExchanges returns up to limit exchanges, newest first.
func (db *Database) RecentExchanges(limit int) ([]models.Exchange, error) {
	query := `
        SELECT id, provider, model, query, allow_search, reply, error, duration_ms, created_at
        FROM exchanges
        ORDER BY created_at DESC, rowid DESC
        LIMIT ?`

	rows, err := db.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	exchanges := make([]models.Exchange, 0)
	for rows.Next() {
		var ex models.Exchange
		if err := rows.Scan(&ex.ID, &ex.Provider, &ex.Model, &ex.Query, &ex.AllowSearch,
			&ex.Reply, &ex.Error, &ex.Duration, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, rows.Err()
}

// PurgeBefore deletes exchanges older than cutoff and reports how many went.
func (db *Database) PurgeBefore(cutoff time.Time) (int64, error) {
	res, err := db.db.Exec("DELETE FROM exchanges WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
