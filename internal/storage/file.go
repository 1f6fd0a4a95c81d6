package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/slicesapp/Slices_Api/internal/models"
)

// FileStore persiste la colección como un único archivo JSON, el
// equivalente directo del localStorage de los prototipos.
type FileStore struct {
	path string
}

// NewFileStore crea un store sobre el archivo indicado, creando el
// directorio si no existe
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Load() (*Collection, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return NewCollection(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	var col Collection
	if err := json.Unmarshal(data, &col); err != nil {
		return nil, fmt.Errorf("%w: no se pudo parsear %s: %v", models.ErrPersistence, s.path, err)
	}
	if col.Slices == nil {
		col.Slices = []models.Slice{}
	}
	return &col, nil
}

func (s *FileStore) Save(col *Collection) error {
	// Verificación optimista: si otro proceso escribió una versión
	// igual o posterior, rechazamos en lugar de pisarla
	current, err := s.Load()
	if err != nil {
		return err
	}
	if current.Version != col.Version-1 {
		return fmt.Errorf("%w: guardada %d, esperada %d", models.ErrVersionConflict, current.Version, col.Version-1)
	}

	data, err := json.MarshalIndent(col, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}

	// Escritura a archivo temporal + rename para no dejar un JSON a medias
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %v", models.ErrPersistence, err)
	}
	return nil
}
