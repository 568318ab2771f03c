package sqlstore

// schema returns the migration statements for d. Timestamps are stored as
// RFC 3339 text in both dialects.
func schema(d dialect) []string {
	id := "INTEGER PRIMARY KEY AUTOINCREMENT"
	integer := "INTEGER"
	if d == dialectPostgres {
		id = "BIGSERIAL PRIMARY KEY"
		integer = "BIGINT"
	}

	return []string{
		// Append-only ledger
		`CREATE TABLE IF NOT EXISTS ledger_entries (
			id ` + id + `,
			resource TEXT NOT NULL,
			change ` + integer + ` NOT NULL,
			context TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_entries_resource
			ON ledger_entries(resource)`,

		// Idempotency markers
		`CREATE TABLE IF NOT EXISTS executed_orders (
			order_id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			response TEXT,
			created_at TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS carts (
			id ` + id + `,
			customer_name TEXT NOT NULL,
			character_class TEXT NOT NULL DEFAULT '',
			level ` + integer + ` NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cart_items (
			cart_id ` + integer + ` NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
			sku TEXT NOT NULL,
			quantity ` + integer + ` NOT NULL CHECK (quantity > 0),
			unit_price ` + integer + ` NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (cart_id, sku)
		)`,
	}
}
