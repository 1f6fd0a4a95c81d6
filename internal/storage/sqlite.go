package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/slicesapp/Slices_Api/internal/models"
)

// SQLiteStore persiste la colección en la base SQLite embebida. Aunque el
// esquema es relacional, la semántica sigue siendo la del prototipo: se
// carga la colección completa al iniciar y cada Save la reescribe entera.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Load() (*Collection, error) {
	col := NewCollection()

	err := s.db.QueryRow(`SELECT schema_version, version FROM ledger_meta WHERE id = 1`).
		Scan(&col.SchemaVersion, &col.Version)
	if err == sql.ErrNoRows {
		return col, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	rows, err := s.db.Query(
		`SELECT id, name, currency, goal, current_amount, created_at
		FROM slices ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sl models.Slice
		var goal, current string
		var createdAt time.Time
		if err := rows.Scan(&sl.ID, &sl.Name, &sl.Currency, &goal, &current, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
		}
		if sl.Goal, err = decimal.NewFromString(goal); err != nil {
			return nil, fmt.Errorf("%w: meta inválida en slice %s: %v", models.ErrPersistence, sl.ID, err)
		}
		if sl.CurrentAmount, err = decimal.NewFromString(current); err != nil {
			return nil, fmt.Errorf("%w: balance inválido en slice %s: %v", models.ErrPersistence, sl.ID, err)
		}
		sl.CreatedAt = createdAt
		sl.Transactions = []models.Transaction{}
		col.Slices = append(col.Slices, sl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	for i := range col.Slices {
		txs, err := s.loadTransactions(col.Slices[i].ID)
		if err != nil {
			return nil, err
		}
		col.Slices[i].Transactions = txs
	}

	return col, nil
}

func (s *SQLiteStore) loadTransactions(sliceID string) ([]models.Transaction, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, amount, reference, timestamp
		FROM slice_transactions WHERE slice_id = ? ORDER BY seq`, sliceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		var amount string
		if err := rows.Scan(&tx.ID, &tx.Kind, &amount, &tx.Reference, &tx.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
		}
		if tx.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("%w: monto inválido en transacción %s: %v", models.ErrPersistence, tx.ID, err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *SQLiteStore) Save(col *Collection) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	// Verificación optimista contra la versión guardada
	var stored int64
	row := tx.QueryRow(`SELECT version FROM ledger_meta WHERE id = 1`)
	switch scanErr := row.Scan(&stored); scanErr {
	case sql.ErrNoRows:
		stored = 0
	case nil:
	default:
		err = fmt.Errorf("%w: %v", models.ErrPersistence, scanErr)
		return err
	}
	if stored != col.Version-1 {
		err = fmt.Errorf("%w: guardada %d, esperada %d", models.ErrVersionConflict, stored, col.Version-1)
		return err
	}

	// Reescritura completa de la colección
	if _, err = tx.Exec(`DELETE FROM slice_transactions`); err != nil {
		err = fmt.Errorf("%w: %v", models.ErrPersistence, err)
		return err
	}
	if _, err = tx.Exec(`DELETE FROM slices`); err != nil {
		err = fmt.Errorf("%w: %v", models.ErrPersistence, err)
		return err
	}

	for _, sl := range col.Slices {
		if _, err = tx.Exec(
			`INSERT INTO slices (id, name, currency, goal, current_amount, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sl.ID, sl.Name, sl.Currency, sl.Goal.String(), sl.CurrentAmount.String(), sl.CreatedAt,
		); err != nil {
			err = fmt.Errorf("%w: %v", models.ErrPersistence, err)
			return err
		}
		for seq, t := range sl.Transactions {
			if _, err = tx.Exec(
				`INSERT INTO slice_transactions (id, slice_id, seq, kind, amount, reference, timestamp)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				t.ID, sl.ID, seq, t.Kind, t.Amount.String(), t.Reference, t.Timestamp,
			); err != nil {
				err = fmt.Errorf("%w: %v", models.ErrPersistence, err)
				return err
			}
		}
	}

	if _, err = tx.Exec(
		`INSERT INTO ledger_meta (id, schema_version, version) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET schema_version = excluded.schema_version, version = excluded.version`,
		col.SchemaVersion, col.Version,
	); err != nil {
		err = fmt.Errorf("%w: %v", models.ErrPersistence, err)
		return err
	}

	return err
}
