package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jhoicas/Inventario-ledger/internal/domain"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.SnapshotRepository = (*SnapshotRepo)(nil)

// SnapshotRepo acceso crudo por tabla para respaldo y restauración. No aplica reglas de negocio;
// los nombres de tabla y columna salen siempre de trackedTables.
type SnapshotRepo struct {
	q Querier
	d Dialect
}

// NewSnapshotRepository construye el adaptador (pool o tx).
func NewSnapshotRepository(q Querier, d Dialect) *SnapshotRepo {
	return &SnapshotRepo{q: q, d: d}
}

// Tables tablas rastreadas en orden de claves foráneas.
func (r *SnapshotRepo) Tables() []string {
	names := make([]string, len(trackedTables))
	for i, t := range trackedTables {
		names[i] = t.Name
	}
	return names
}

// Optional tablas que pueden faltar en un almacenamiento antiguo.
func (r *SnapshotRepo) Optional(table string) bool {
	t, ok := lookupTable(table)
	return ok && t.Optional
}

// Exists indica si la tabla está creada en el esquema actual.
func (r *SnapshotRepo) Exists(ctx context.Context, table string) (bool, error) {
	def, err := r.lookup(table)
	if err != nil {
		return false, err
	}
	var b sq.SelectBuilder
	if r.d == DialectPostgres {
		b = r.d.Builder().Select("COUNT(*)").From("information_schema.tables").
			Where(sq.Eq{"table_name": def.Name}).Where("table_schema = current_schema()")
	} else {
		b = r.d.Builder().Select("COUNT(*)").From("sqlite_master").
			Where(sq.Eq{"type": "table", "name": def.Name})
	}
	row, err := queryRow(ctx, r.q, "table exists", b)
	if err != nil {
		return false, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return false, classify("table exists", err)
	}
	return n > 0, nil
}

// ExportActive filas activas de la tabla con valores serializables (decimales y fechas como texto).
func (r *SnapshotRepo) ExportActive(ctx context.Context, table string) ([]entity.Row, error) {
	def, err := r.lookup(table)
	if err != nil {
		return nil, err
	}
	b := whereActive(r.d.Builder().Select(def.columnNames()...).From(def.Name)).OrderBy("created_at ASC", "id ASC")
	res, err := Execute(ctx, r.q, b)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", def.Name, err)
	}
	set := res.(RowSet)
	out := make([]entity.Row, 0, len(set.Rows))
	for _, values := range set.Rows {
		row := make(entity.Row, len(set.Columns))
		for i, name := range set.Columns {
			col, _ := def.column(name)
			v, err := exportValue(col, values[i])
			if err != nil {
				return nil, fmt.Errorf("export %s.%s: %w", def.Name, name, err)
			}
			row[name] = v
		}
		out = append(out, row)
	}
	return out, nil
}

// CountActive cantidad de filas activas.
func (r *SnapshotRepo) CountActive(ctx context.Context, table string) (int, error) {
	def, err := r.lookup(table)
	if err != nil {
		return 0, err
	}
	row, err := queryRow(ctx, r.q, "count active", whereActive(r.d.Builder().Select("COUNT(*)").From(def.Name)))
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, classify("count active "+def.Name, err)
	}
	return int(n), nil
}

// TombstoneActive borrado lógico de todas las filas activas de la tabla.
func (r *SnapshotRepo) TombstoneActive(ctx context.Context, table string, at time.Time) (int64, error) {
	def, err := r.lookup(table)
	if err != nil {
		return 0, err
	}
	stmt := r.d.Builder().Update(def.Name).Set("deleted_at", utc(at)).Where(sq.Eq{"deleted_at": nil})
	return exec(ctx, r.q, "tombstone "+def.Name, stmt)
}

// Restore inserta la fila conservando su id; si el id existe (p. ej. tombstone) la revive.
func (r *SnapshotRepo) Restore(ctx context.Context, table string, row entity.Row) error {
	def, err := r.lookup(table)
	if err != nil {
		return err
	}
	for name := range row {
		if _, ok := def.column(name); !ok {
			return &domain.BackupFormatError{Reason: fmt.Sprintf("columna desconocida %s.%s", def.Name, name)}
		}
	}

	names := def.columnNames()
	values := make([]any, len(def.Columns))
	for i, col := range def.Columns {
		v, err := importValue(col, row[col.Name])
		if err != nil {
			return &domain.BackupFormatError{Reason: fmt.Sprintf("%s.%s", def.Name, col.Name), Err: err}
		}
		values[i] = v
	}
	id, _ := values[0].(string)
	if id == "" {
		return &domain.BackupFormatError{Reason: fmt.Sprintf("%s: fila sin id", def.Name)}
	}

	updates := make([]string, 0, len(names)-1)
	for _, name := range names[1:] {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", name, name))
	}
	stmt := r.d.Builder().Insert(def.Name).Columns(names...).Values(values...).
		Suffix("ON CONFLICT (id) DO UPDATE SET " + strings.Join(updates, ", "))
	_, err = exec(ctx, r.q, "restore "+def.Name, Keyed{ID: id, Stmt: stmt})
	return err
}

func (r *SnapshotRepo) lookup(table string) (TableDef, error) {
	def, ok := lookupTable(table)
	if !ok {
		return TableDef{}, &domain.BackupFormatError{Reason: fmt.Sprintf("tabla no rastreada %q", table)}
	}
	return def, nil
}

func exportValue(col Column, v any) (any, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return nil, nil
	}
	switch col.Kind {
	case KindTime:
		switch t := v.(type) {
		case time.Time:
			return t.UTC().Format(time.RFC3339Nano), nil
		case string:
			parsed, err := parseTime(t)
			if err != nil {
				return nil, err
			}
			return parsed.Format(time.RFC3339Nano), nil
		}
	case KindDecimal:
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	default:
		switch s := v.(type) {
		case string:
			return s, nil
		case int64:
			return strconv.FormatInt(s, 10), nil
		}
	}
	return nil, fmt.Errorf("tipo %T inesperado", v)
}

func importValue(col Column, v any) (any, error) {
	if v == nil {
		switch {
		case col.Nullable:
			return nil, nil
		case col.Kind == KindDecimal:
			return decimal.Zero, nil
		case col.Kind == KindText:
			return "", nil
		}
		return nil, fmt.Errorf("valor requerido")
	}
	switch col.Kind {
	case KindTime:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("fecha debe ser texto, no %T", v)
		}
		if s == "" && col.Nullable {
			return nil, nil
		}
		return parseTime(s)
	case KindDecimal:
		return toDecimal(v)
	default:
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case json.Number:
			s = t.String()
		default:
			return nil, fmt.Errorf("texto esperado, no %T", v)
		}
		if s == "" && col.Nullable {
			return nil, nil
		}
		return s, nil
	}
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, nil
	case string:
		return decimal.NewFromString(t)
	case json.Number:
		return decimal.NewFromString(t.String())
	case float64:
		return decimal.NewFromFloat(t), nil
	case int64:
		return decimal.NewFromInt(t), nil
	}
	return decimal.Zero, fmt.Errorf("decimal esperado, no %T", v)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, error) {
	var err error
	for _, layout := range timeLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha %q: %w", s, err)
}
