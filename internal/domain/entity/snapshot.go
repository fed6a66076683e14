package entity

import "time"

// Row fila cruda de una tabla en un snapshot (columna -> valor serializable).
type Row map[string]any

// Snapshot exportación versionada de todas las filas activas.
type Snapshot struct {
	Version     int              `json:"version"`
	Timestamp   time.Time        `json:"timestamp"`
	RecordCount int              `json:"record_count"`
	Size        int              `json:"size"`
	Data        map[string][]Row `json:"data"`
}

// BackupHandle referencia a un respaldo almacenado.
type BackupHandle struct {
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	RecordCount int       `json:"record_count"`
	Size        int64     `json:"size"`
}
