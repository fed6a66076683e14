package sqlstore

// ColumnKind cómo se serializa una columna en un snapshot.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindDecimal
	KindTime
)

// Column columna rastreada por respaldo/restauración.
type Column struct {
	Name     string
	Kind     ColumnKind
	Nullable bool
}

// TableDef tabla rastreada. Las columnas salen de aquí y nunca de datos del usuario.
type TableDef struct {
	Name     string
	Optional bool
	Columns  []Column
}

func text(name string) Column     { return Column{Name: name, Kind: KindText} }
func textNull(name string) Column { return Column{Name: name, Kind: KindText, Nullable: true} }
func num(name string) Column      { return Column{Name: name, Kind: KindDecimal} }
func ts(name string) Column       { return Column{Name: name, Kind: KindTime} }
func tsNull(name string) Column   { return Column{Name: name, Kind: KindTime, Nullable: true} }

// trackedTables en orden de dependencia de claves foráneas.
var trackedTables = []TableDef{
	{Name: "categories", Optional: true, Columns: []Column{
		text("id"), text("name"), ts("created_at"), ts("updated_at"), tsNull("deleted_at"),
	}},
	{Name: "parties", Columns: []Column{
		text("id"), text("name"), text("type"), text("phone"), text("email"),
		num("outstanding_balance"), ts("created_at"), ts("updated_at"), tsNull("deleted_at"),
	}},
	{Name: "items", Columns: []Column{
		text("id"), text("sku"), text("name"), text("unit"), num("cost_price"), num("sale_price"),
		num("current_stock"), num("min_stock"), num("max_stock"), textNull("category_id"),
		ts("created_at"), ts("updated_at"), tsNull("deleted_at"),
	}},
	{Name: "invoices", Columns: []Column{
		text("id"), text("invoice_number"), text("kind"), text("party_id"),
		num("subtotal"), num("discount_pct"), num("discount_amount"), num("tax_pct"),
		num("tax_amount"), num("total"), text("status"), ts("issued_at"), tsNull("due_date"),
		tsNull("cancelled_at"), ts("created_at"), ts("updated_at"), tsNull("deleted_at"),
	}},
	{Name: "invoice_items", Columns: []Column{
		text("id"), text("invoice_id"), text("item_id"), num("quantity"), num("unit_price"),
		num("total"), ts("created_at"), tsNull("deleted_at"),
	}},
	{Name: "payments", Optional: true, Columns: []Column{
		text("id"), text("party_id"), textNull("invoice_id"), num("amount"), ts("paid_at"),
		text("note"), ts("created_at"), tsNull("deleted_at"),
	}},
	{Name: "stock_movements", Columns: []Column{
		text("id"), text("item_id"), text("direction"), num("quantity"), num("rate"),
		num("total_value"), text("reference_type"), text("reference_id"), text("note"),
		num("stock_after"), ts("created_at"), tsNull("deleted_at"),
	}},
	{Name: "notifications", Optional: true, Columns: []Column{
		text("id"), text("kind"), text("item_id"), text("message"), ts("created_at"),
		tsNull("read_at"), tsNull("deleted_at"),
	}},
}

func lookupTable(name string) (TableDef, bool) {
	for _, t := range trackedTables {
		if t.Name == name {
			return t, true
		}
	}
	return TableDef{}, false
}

func (t TableDef) column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t TableDef) columnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
