package backup

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// MinSupportedVersion versión de esquema más antigua que se puede importar.
const MinSupportedVersion = 1

const schemaURL = "snapshot.schema.json"

//go:embed snapshot.schema.json
var schemaJSON []byte

var snapshotSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse snapshot schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("add snapshot schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// Encode serializa el snapshot para guardarlo en archivo.
func Encode(s *entity.Snapshot) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Decode valida el documento contra el esquema embebido y lo convierte en snapshot.
// Los números de las filas se conservan como json.Number.
func Decode(doc []byte) (*entity.Snapshot, error) {
	sch, err := snapshotSchema()
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if err != nil {
		return nil, &domain.BackupFormatError{Reason: "json inválido", Err: err}
	}
	if err := sch.Validate(inst); err != nil {
		return nil, &domain.BackupFormatError{Reason: "no cumple el formato de snapshot", Err: err}
	}

	var s entity.Snapshot
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&s); err != nil {
		return nil, &domain.BackupFormatError{Reason: "snapshot ilegible", Err: err}
	}
	return &s, nil
}

// CheckVersion la versión debe estar entre MinSupportedVersion y la versión actual del esquema.
func CheckVersion(version, current int) error {
	if version < MinSupportedVersion || version > current {
		return &domain.BackupFormatError{
			Reason: fmt.Sprintf("versión %d no soportada (admitidas %d..%d)", version, MinSupportedVersion, current),
		}
	}
	return nil
}

// dataSize bytes de la sección data serializada.
func dataSize(data map[string][]entity.Row) (int, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}
