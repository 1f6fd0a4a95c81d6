package database

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// InitPostgres abre la conexión a Postgres y crea las tablas del ledger
// si no existen. Se usa cuando STORAGE_DRIVER=postgres.
func InitPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS slices (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			currency TEXT NOT NULL,
			goal TEXT NOT NULL,
			current_amount TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS slice_transactions (
			id TEXT PRIMARY KEY,
			slice_id TEXT NOT NULL REFERENCES slices(id),
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			amount TEXT NOT NULL,
			reference TEXT DEFAULT '',
			timestamp TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS ledger_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			schema_version INTEGER NOT NULL,
			version BIGINT NOT NULL
		)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, err
		}
	}

	return db, nil
}
