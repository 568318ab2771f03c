/*
Package sqlstore provides a SQL-backed implementation of shop.Store.

PURPOSE:
  Persists the ledger, executed orders and carts in SQLite (mattn/go-sqlite3)
  or PostgreSQL (jackc/pgx through database/sql). Both dialects share the
  same queries; only the schema, placeholders and error codes differ.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on ledger_entries
  - No DELETE statements on ledger_entries
  - Corrections are new entries (see shop.ResetDeltas)

KEY TABLES:
  ledger_entries:  Immutable signed deltas, one row per resource change
  executed_orders: Idempotency markers, PRIMARY KEY(order_id)
  carts:           Open carts
  cart_items:      Cart lines, PRIMARY KEY(cart_id, sku), upserted

IDEMPOTENCY:
  InsertOrder relies on the primary key. A unique violation is mapped to
  ledger.ErrDuplicateOrder and rolls back the surrounding transaction.

CONCURRENCY:
  SQLite: sync.RWMutex, one open connection, WAL journal.
  PostgreSQL: each WithTx takes a transaction-scoped advisory lock, so
  writers serialize in the database and read-check-append stays consistent
  across processes. Plain reads take no lock.

USAGE:
  store, err := sqlstore.NewSQLite("./data/shop.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := shop.NewService(store)

MIGRATION:
  Schema is auto-migrated on open with CREATE ... IF NOT EXISTS.

SEE ALSO:
  - ledger/store.go: ResourceStore, OrderStore
  - shop/store.go: CartStore, Store
  - store/memory: in-memory implementation for tests
*/
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/warp/potion-shop/ledger"
	"github.com/warp/potion-shop/shop"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) String() string {
	if d == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// ledgerLockKey is the advisory lock id serializing PostgreSQL writers.
const ledgerLockKey = 7_410_031

// Store implements shop.Store on database/sql.
type Store struct {
	db      *sql.DB
	dialect dialect
	mu      sync.RWMutex
}

var _ shop.Store = (*Store)(nil)

func open(db *sql.DB, d dialect) (*Store, error) {
	s := &Store{db: db, dialect: d}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate %s database: %w", d, err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// lock guards SQLite, which is opened with a single connection. PostgreSQL
// relies on the database.
func (s *Store) lock() func() {
	if s.dialect == dialectPostgres {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) rlock() func() {
	if s.dialect == dialectPostgres {
		return func() {}
	}
	s.mu.RLock()
	return s.mu.RUnlock
}

func (s *Store) conn() *conn {
	return &conn{q: s.db, dialect: s.dialect}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx shop.Tx) error) error {
	defer s.lock()()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if s.dialect == dialectPostgres {
		if _, err := sqlTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", ledgerLockKey); err != nil {
			return fmt.Errorf("failed to lock ledger: %w", err)
		}
	}

	if err := fn(&conn{q: sqlTx, dialect: s.dialect}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// =============================================================================
// STORE METHODS - Writes go through WithTx, reads through the pool
// =============================================================================

func (s *Store) Append(ctx context.Context, entries []ledger.Entry) error {
	return s.WithTx(ctx, func(tx shop.Tx) error { return tx.Append(ctx, entries) })
}

func (s *Store) Sum(ctx context.Context, resources []ledger.Resource) (ledger.Balances, error) {
	defer s.rlock()()
	return s.conn().Sum(ctx, resources)
}

func (s *Store) Entries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	defer s.rlock()()
	return s.conn().Entries(ctx, filter)
}

func (s *Store) LookupOrder(ctx context.Context, orderID string) (*ledger.ExecutedOrder, error) {
	defer s.rlock()()
	return s.conn().LookupOrder(ctx, orderID)
}

func (s *Store) InsertOrder(ctx context.Context, order ledger.ExecutedOrder) error {
	return s.WithTx(ctx, func(tx shop.Tx) error { return tx.InsertOrder(ctx, order) })
}

func (s *Store) CreateCart(ctx context.Context, c shop.Cart) (shop.Cart, error) {
	var out shop.Cart
	err := s.WithTx(ctx, func(tx shop.Tx) error {
		var err error
		out, err = tx.CreateCart(ctx, c)
		return err
	})
	return out, err
}

func (s *Store) GetCart(ctx context.Context, id int64) (*shop.Cart, error) {
	defer s.rlock()()
	return s.conn().GetCart(ctx, id)
}

func (s *Store) UpsertCartItem(ctx context.Context, item shop.CartItem) error {
	return s.WithTx(ctx, func(tx shop.Tx) error { return tx.UpsertCartItem(ctx, item) })
}

func (s *Store) CartItems(ctx context.Context, cartID int64) ([]shop.CartItem, error) {
	defer s.rlock()()
	return s.conn().CartItems(ctx, cartID)
}

func (s *Store) DeleteCart(ctx context.Context, id int64) error {
	return s.WithTx(ctx, func(tx shop.Tx) error { return tx.DeleteCart(ctx, id) })
}

func (s *Store) DeleteAllCarts(ctx context.Context) error {
	return s.WithTx(ctx, func(tx shop.Tx) error { return tx.DeleteAllCarts(ctx) })
}

// =============================================================================
// CONN - Queries shared by the pool and transactions
// =============================================================================

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs queries against a *sql.DB or a *sql.Tx. Inside WithTx it is
// the shop.Tx handed to the caller.
type conn struct {
	q       queryer
	dialect dialect
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (c *conn) rebind(query string) string {
	if c.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (c *conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.rebind(query), args...)
}

func (c *conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.rebind(query), args...)
}

func (c *conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.rebind(query), args...)
}

func (c *conn) Append(ctx context.Context, entries []ledger.Entry) error {
	now := formatTime(time.Now())
	for _, e := range entries {
		_, err := c.exec(ctx,
			`INSERT INTO ledger_entries (resource, change, context, created_at) VALUES (?, ?, ?, ?)`,
			string(e.Resource), e.Change, e.Context, now,
		)
		if err != nil {
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
	}
	return nil
}

func (c *conn) Sum(ctx context.Context, resources []ledger.Resource) (ledger.Balances, error) {
	out := make(ledger.Balances, len(resources))
	if len(resources) == 0 {
		return out, nil
	}
	args := make([]any, len(resources))
	for i, r := range resources {
		out[r] = 0
		args[i] = string(r)
	}

	rows, err := c.query(ctx, `
		SELECT resource, CAST(COALESCE(SUM(change), 0) AS BIGINT)
		FROM ledger_entries
		WHERE resource IN (`+placeholders(len(args))+`)
		GROUP BY resource`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to sum ledger: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var total int64
		if err := rows.Scan(&name, &total); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		r, err := ledger.ParseResource(name)
		if err != nil {
			return nil, err
		}
		out[r] = total
	}
	return out, rows.Err()
}

func (c *conn) Entries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	query := `SELECT id, resource, change, context, created_at FROM ledger_entries`
	var args []any
	if len(filter.Resources) > 0 {
		for _, r := range filter.Resources {
			args = append(args, string(r))
		}
		query += ` WHERE resource IN (` + placeholders(len(args)) + `)`
	}
	query += ` ORDER BY id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := c.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			e         ledger.Entry
			resource  string
			createdAt string
		)
		if err := rows.Scan(&e.ID, &resource, &e.Change, &e.Context, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Resource = ledger.Resource(resource)
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (c *conn) LookupOrder(ctx context.Context, orderID string) (*ledger.ExecutedOrder, error) {
	var (
		o         ledger.ExecutedOrder
		response  sql.NullString
		createdAt string
	)
	err := c.queryRow(ctx,
		`SELECT order_id, kind, response, created_at FROM executed_orders WHERE order_id = ?`,
		orderID,
	).Scan(&o.OrderID, &o.Kind, &response, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up order: %w", err)
	}
	if response.Valid {
		o.Response = []byte(response.String)
	}
	o.CreatedAt = parseTime(createdAt)
	return &o, nil
}

func (c *conn) InsertOrder(ctx context.Context, order ledger.ExecutedOrder) error {
	var response sql.NullString
	if order.Response != nil {
		response = sql.NullString{String: string(order.Response), Valid: true}
	}
	_, err := c.exec(ctx,
		`INSERT INTO executed_orders (order_id, kind, response, created_at) VALUES (?, ?, ?, ?)`,
		order.OrderID, order.Kind, response, formatTime(time.Now()),
	)
	if err != nil {
		if c.isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ledger.ErrDuplicateOrder, order.OrderID)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (c *conn) CreateCart(ctx context.Context, cart shop.Cart) (shop.Cart, error) {
	cart.CreatedAt = time.Now().UTC()
	err := c.queryRow(ctx,
		`INSERT INTO carts (customer_name, character_class, level, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		cart.CustomerName, cart.CharacterClass, cart.Level, formatTime(cart.CreatedAt),
	).Scan(&cart.ID)
	if err != nil {
		return shop.Cart{}, fmt.Errorf("failed to create cart: %w", err)
	}
	return cart, nil
}

func (c *conn) GetCart(ctx context.Context, id int64) (*shop.Cart, error) {
	var (
		cart      shop.Cart
		createdAt string
	)
	err := c.queryRow(ctx,
		`SELECT id, customer_name, character_class, level, created_at FROM carts WHERE id = ?`, id,
	).Scan(&cart.ID, &cart.CustomerName, &cart.CharacterClass, &cart.Level, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	cart.CreatedAt = parseTime(createdAt)
	return &cart, nil
}

func (c *conn) UpsertCartItem(ctx context.Context, item shop.CartItem) error {
	_, err := c.exec(ctx, `
		INSERT INTO cart_items (cart_id, sku, quantity, unit_price, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (cart_id, sku) DO UPDATE SET
			quantity = cart_items.quantity + excluded.quantity,
			unit_price = excluded.unit_price,
			updated_at = excluded.updated_at`,
		item.CartID, item.SKU, item.Quantity, item.UnitPrice, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}
	return nil
}

func (c *conn) CartItems(ctx context.Context, cartID int64) ([]shop.CartItem, error) {
	rows, err := c.query(ctx,
		`SELECT cart_id, sku, quantity, unit_price, updated_at FROM cart_items WHERE cart_id = ? ORDER BY sku`,
		cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []shop.CartItem
	for rows.Next() {
		var (
			it        shop.CartItem
			updatedAt string
		)
		if err := rows.Scan(&it.CartID, &it.SKU, &it.Quantity, &it.UnitPrice, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		it.UpdatedAt = parseTime(updatedAt)
		items = append(items, it)
	}
	return items, rows.Err()
}

func (c *conn) DeleteCart(ctx context.Context, id int64) error {
	if _, err := c.exec(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}
	if _, err := c.exec(ctx, `DELETE FROM carts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func (c *conn) DeleteAllCarts(ctx context.Context) error {
	if _, err := c.exec(ctx, `DELETE FROM cart_items`); err != nil {
		return fmt.Errorf("failed to delete cart items: %w", err)
	}
	if _, err := c.exec(ctx, `DELETE FROM carts`); err != nil {
		return fmt.Errorf("failed to delete carts: %w", err)
	}
	return nil
}

func (c *conn) isUniqueViolation(err error) bool {
	if c.dialect == dialectPostgres {
		return isPostgresUniqueViolation(err)
	}
	return isSQLiteUniqueViolation(err)
}

// =============================================================================
// HELPERS
// =============================================================================

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
