package backup_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/Inventario-ledger/internal/application/backup"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_EscribirLeerListar(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := backup.NewFileStore(fs, "/data/backups")
	require.NoError(t, s.Ensure())

	older := backup.NameFor(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	newer := backup.NameFor(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC))
	_, err := s.Write(older, []byte(`{"version":1,"timestamp":"2024-01-01T10:00:00Z","record_count":4,"data":{}}`))
	require.NoError(t, err)
	p, err := s.Write(newer, []byte(`{"version":2,"timestamp":"2024-03-01T10:00:00Z","record_count":7,"data":{}}`))
	require.NoError(t, err)
	assert.Equal(t, "/data/backups/"+newer, p)

	// basura en el directorio que List ignora
	require.NoError(t, afero.WriteFile(fs, "/data/backups/notas.txt", []byte("x"), 0o600))
	require.NoError(t, afero.WriteFile(fs, "/data/backups/backup-roto.json", []byte("{"), 0o600))

	got, err := s.Read(older)
	require.NoError(t, err)
	assert.Contains(t, string(got), `"record_count":4`)

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer, list[0].Name, "más reciente primero")
	assert.Equal(t, 2, list[0].Version)
	assert.Equal(t, 7, list[0].RecordCount)
	assert.Equal(t, older, list[1].Name)

	tmp, err := afero.Exists(fs, "/data/backups/"+newer+".tmp")
	require.NoError(t, err)
	assert.False(t, tmp)
}

func TestFileStore_NoExiste(t *testing.T) {
	s := backup.NewFileStore(afero.NewMemMapFs(), "/vacio")

	list, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.Read("backup-x.json")
	var nf *domain.NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestFileStore_NombreInvalido(t *testing.T) {
	s := backup.NewFileStore(afero.NewMemMapFs(), "/b")
	for _, name := range []string{"", "../fuera.json", "a/b.json", ".oculto"} {
		_, err := s.Read(name)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), "nombre %q", name)
		_, err = s.Write(name, nil)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), "nombre %q", name)
	}
}

func TestFileStore_EnsureSoloLectura(t *testing.T) {
	s := backup.NewFileStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/b")
	assert.Error(t, s.Ensure())
}
