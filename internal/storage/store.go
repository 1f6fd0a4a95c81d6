package storage

import (
	"github.com/slicesapp/Slices_Api/internal/models"
)

// SchemaVersion es la versión actual del layout persistido. Permite
// migrar colecciones guardadas por versiones anteriores de la app.
const SchemaVersion = 1

// Collection es la unidad completa de persistencia: la lista entera de
// slices se lee una sola vez al iniciar y se reescribe completa en cada
// mutación. Version es un contador optimista por colección: un Save cuya
// versión no sea exactamente la siguiente a la guardada se rechaza con
// ErrVersionConflict en lugar de pisar silenciosamente la otra escritura.
type Collection struct {
	SchemaVersion int            `json:"schema_version"`
	Version       int64          `json:"version"`
	Slices        []models.Slice `json:"slices"`
}

// NewCollection devuelve una colección vacía lista para usar
func NewCollection() *Collection {
	return &Collection{
		SchemaVersion: SchemaVersion,
		Version:       0,
		Slices:        []models.Slice{},
	}
}

// Store es la capa de persistencia del ledger. La implementación puede
// ser un archivo JSON, SQLite o Postgres sin que el ledger cambie.
type Store interface {
	// Load lee la colección completa. Si no existe estado previo
	// devuelve una colección vacía, nunca error.
	Load() (*Collection, error)
	// Save reescribe la colección completa. col.Version ya viene
	// incrementado por el ledger; la implementación verifica que la
	// versión guardada sea col.Version-1 antes de escribir.
	Save(col *Collection) error
}
