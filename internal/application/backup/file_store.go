package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/spf13/afero"
)

const (
	filePrefix = "backup-"
	fileExt    = ".json"
	nameLayout = "20060102T150405.000000000Z"
)

// FileStore guarda los snapshots como archivos JSON en un directorio.
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore construye el almacén sobre fs (afero.NewOsFs en producción, MemMapFs en tests).
func NewFileStore(fs afero.Fs, dir string) *FileStore {
	return &FileStore{fs: fs, dir: dir}
}

// Dir directorio de respaldos.
func (s *FileStore) Dir() string { return s.dir }

// Ensure crea el directorio si no existe y verifica que se pueda escribir.
func (s *FileStore) Ensure() error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("backup dir %s: %w", s.dir, err)
	}
	probe := filepath.Join(s.dir, ".probe")
	if err := afero.WriteFile(s.fs, probe, nil, 0o600); err != nil {
		return fmt.Errorf("backup dir %s no escribible: %w", s.dir, err)
	}
	return s.fs.Remove(probe)
}

// NameFor nombre de archivo para un snapshot tomado en at.
func NameFor(at time.Time) string {
	return filePrefix + at.UTC().Format(nameLayout) + fileExt
}

// Write escribe el documento en un temporal y lo renombra, para no dejar archivos a medias.
func (s *FileStore) Write(name string, data []byte) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}
	final := filepath.Join(s.dir, name)
	tmp := final + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o600); err != nil {
		return "", err
	}
	if err := s.fs.Rename(tmp, final); err != nil {
		_ = s.fs.Remove(tmp)
		return "", err
	}
	return final, nil
}

// Read contenido de un respaldo. NotFound si no existe.
func (s *FileStore) Read(name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.NotFound("backup", name)
	}
	return data, err
}

// header campos de cabecera del snapshot, sin decodificar las filas.
type header struct {
	Version     int       `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	RecordCount int       `json:"record_count"`
}

// List respaldos guardados, más recientes primero. Los archivos ilegibles se omiten.
func (s *FileStore) List() ([]entity.BackupHandle, error) {
	entries, err := afero.ReadDir(s.fs, s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []entity.BackupHandle{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]entity.BackupHandle, 0, len(entries))
	for _, fi := range entries {
		name := fi.Name()
		if fi.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		p := filepath.Join(s.dir, name)
		data, err := afero.ReadFile(s.fs, p)
		if err != nil {
			continue
		}
		var h header
		if err := json.Unmarshal(data, &h); err != nil {
			continue
		}
		out = append(out, entity.BackupHandle{
			Name:        name,
			Path:        p,
			Version:     h.Version,
			CreatedAt:   h.Timestamp,
			RecordCount: h.RecordCount,
			Size:        fi.Size(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return domain.Invalid("name", "nombre de respaldo inválido")
	}
	return nil
}
