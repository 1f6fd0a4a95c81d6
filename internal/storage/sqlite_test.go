package storage_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/slicesapp/Slices_Api/internal/database"
	"github.com/slicesapp/Slices_Api/internal/models"
	"github.com/slicesapp/Slices_Api/internal/storage"
)

func newSQLiteStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("error abriendo la base: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return storage.NewSQLiteStore(db)
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newSQLiteStore(t)

	empty, err := store.Load()
	if err != nil {
		t.Fatalf("error cargando colección vacía: %v", err)
	}
	if empty.Version != 0 || len(empty.Slices) != 0 {
		t.Errorf("la colección inicial debería estar vacía: %+v", empty)
	}

	if err := store.Save(sampleCollection(1)); err != nil {
		t.Fatalf("error guardando: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("error recargando: %v", err)
	}
	if loaded.Version != 1 {
		t.Errorf("versión incorrecta: %d", loaded.Version)
	}
	if len(loaded.Slices) != 1 {
		t.Fatalf("se esperaba 1 slice, hay %d", len(loaded.Slices))
	}
	got := loaded.Slices[0]
	if got.ID != "s1" || got.Currency != "ETH" || !got.Goal.Equal(decimal.NewFromInt(10)) {
		t.Errorf("slice recuperada incorrecta: %+v", got)
	}
	if len(got.Transactions) != 1 || got.Transactions[0].Kind != models.TransactionDeposit {
		t.Errorf("historial recuperado incorrecto: %+v", got.Transactions)
	}
}

func TestSQLiteStoreReescrituraCompleta(t *testing.T) {
	store := newSQLiteStore(t)

	if err := store.Save(sampleCollection(1)); err != nil {
		t.Fatalf("error guardando: %v", err)
	}

	// Guardar una colección sin slices con la versión siguiente debe
	// vaciar la base: cada Save reescribe todo
	col := storage.NewCollection()
	col.Version = 2
	if err := store.Save(col); err != nil {
		t.Fatalf("error guardando colección vacía: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("error recargando: %v", err)
	}
	if len(loaded.Slices) != 0 {
		t.Errorf("la reescritura no vació la colección: %d slices", len(loaded.Slices))
	}
}

func TestSQLiteStoreConflictoDeVersion(t *testing.T) {
	store := newSQLiteStore(t)

	if err := store.Save(sampleCollection(1)); err != nil {
		t.Fatalf("error guardando: %v", err)
	}

	err := store.Save(sampleCollection(1))
	if !errors.Is(err, models.ErrVersionConflict) {
		t.Fatalf("se esperaba ErrVersionConflict, se obtuvo %v", err)
	}

	// El conflicto no debe haber tocado el estado guardado
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("error recargando: %v", err)
	}
	if loaded.Version != 1 || len(loaded.Slices) != 1 {
		t.Errorf("el conflicto modificó el estado guardado: %+v", loaded)
	}
}
