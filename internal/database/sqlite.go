package database

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

var DB *sql.DB

// InitDB abre la base SQLite embebida y crea las tablas si no existen
func InitDB() error {
	path := os.Getenv("DB_PATH")
	if path == "" {
		path = filepath.Join("database", "slices.db")
	}

	var err error
	DB, err = OpenSQLite(path)
	return err
}

// OpenSQLite abre (o crea) la base en la ruta indicada con el esquema completo
func OpenSQLite(path string) (*sql.DB, error) {
	// Crear el directorio si no existe
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// Crear tabla de usuarios si no existe
	createUsersSQL := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err = db.Exec(createUsersSQL); err != nil {
		return nil, err
	}

	// Crear tabla de slices (reservas de ahorro)
	createSlicesSQL := `
	CREATE TABLE IF NOT EXISTS slices (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		currency TEXT NOT NULL,
		goal TEXT NOT NULL,
		current_amount TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`

	if _, err = db.Exec(createSlicesSQL); err != nil {
		return nil, err
	}

	// Crear tabla de transacciones por slice. seq preserva el orden de
	// inserción, que es el orden cronológico del historial.
	createTransactionsSQL := `
	CREATE TABLE IF NOT EXISTS slice_transactions (
		id TEXT PRIMARY KEY,
		slice_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		reference TEXT DEFAULT '',
		timestamp DATETIME NOT NULL,
		FOREIGN KEY(slice_id) REFERENCES slices(id)
	);`

	if _, err = db.Exec(createTransactionsSQL); err != nil {
		return nil, err
	}

	// Metadatos de la colección: versión de esquema y contador optimista
	createMetaSQL := `
	CREATE TABLE IF NOT EXISTS ledger_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		schema_version INTEGER NOT NULL,
		version INTEGER NOT NULL
	);`

	if _, err = db.Exec(createMetaSQL); err != nil {
		return nil, err
	}

	return db, nil
}
