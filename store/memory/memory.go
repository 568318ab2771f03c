// Package memory provides an in-memory shop.Store for tests and local runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/warp/potion-shop/ledger"
	"github.com/warp/potion-shop/shop"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store keeps entries, executed orders and carts in maps. Every call takes
// the store lock; WithTx holds it for the whole unit.
type Store struct {
	mu         sync.RWMutex
	entries    []ledger.Entry
	orders     map[string]ledger.ExecutedOrder
	carts      map[int64]shop.Cart
	items      map[int64][]shop.CartItem
	nextCartID int64
	now        func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		orders: make(map[string]ledger.ExecutedOrder),
		carts:  make(map[int64]shop.Cart),
		items:  make(map[int64][]shop.CartItem),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

var _ shop.Store = (*Store)(nil)

func (m *Store) Close() error { return nil }

func (m *Store) Append(_ context.Context, entries []ledger.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLocked(entries)
	return nil
}

func (m *Store) Sum(_ context.Context, resources []ledger.Resource) (ledger.Balances, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sumLocked(resources), nil
}

func (m *Store) Entries(_ context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entriesLocked(filter), nil
}

func (m *Store) LookupOrder(_ context.Context, orderID string) (*ledger.ExecutedOrder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lookupLocked(orderID), nil
}

func (m *Store) InsertOrder(_ context.Context, order ledger.ExecutedOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.insertOrderLocked(order)
}

func (m *Store) CreateCart(_ context.Context, c shop.Cart) (shop.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCartLocked(c), nil
}

func (m *Store) GetCart(_ context.Context, id int64) (*shop.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getCartLocked(id), nil
}

func (m *Store) UpsertCartItem(_ context.Context, item shop.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertItemLocked(item)
	return nil
}

func (m *Store) CartItems(_ context.Context, cartID int64) ([]shop.CartItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.itemsLocked(cartID), nil
}

func (m *Store) DeleteCart(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteCartLocked(id)
	return nil
}

func (m *Store) DeleteAllCarts(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts = make(map[int64]shop.Cart)
	m.items = make(map[int64][]shop.CartItem)
	return nil
}

// =============================================================================
// LOCKED HELPERS - Caller holds mu
// =============================================================================

func (m *Store) appendLocked(entries []ledger.Entry) {
	now := m.now()
	for _, e := range entries {
		e.ID = int64(len(m.entries)) + 1
		e.CreatedAt = now
		m.entries = append(m.entries, e)
	}
}

func (m *Store) sumLocked(resources []ledger.Resource) ledger.Balances {
	out := make(ledger.Balances, len(resources))
	want := make(map[ledger.Resource]bool, len(resources))
	for _, r := range resources {
		out[r] = 0
		want[r] = true
	}
	for _, e := range m.entries {
		if want[e.Resource] {
			out[e.Resource] += e.Change
		}
	}
	return out
}

func (m *Store) entriesLocked(filter ledger.Filter) []ledger.Entry {
	want := make(map[ledger.Resource]bool, len(filter.Resources))
	for _, r := range filter.Resources {
		want[r] = true
	}
	var out []ledger.Entry
	for i := len(m.entries) - 1; i >= 0; i-- {
		e := m.entries[i]
		if len(want) > 0 && !want[e.Resource] {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

func (m *Store) lookupLocked(orderID string) *ledger.ExecutedOrder {
	o, ok := m.orders[orderID]
	if !ok {
		return nil
	}
	return &o
}

func (m *Store) insertOrderLocked(order ledger.ExecutedOrder) error {
	if _, ok := m.orders[order.OrderID]; ok {
		return ledger.ErrDuplicateOrder
	}
	order.CreatedAt = m.now()
	m.orders[order.OrderID] = order
	return nil
}

func (m *Store) createCartLocked(c shop.Cart) shop.Cart {
	m.nextCartID++
	c.ID = m.nextCartID
	c.CreatedAt = m.now()
	m.carts[c.ID] = c
	return c
}

func (m *Store) getCartLocked(id int64) *shop.Cart {
	c, ok := m.carts[id]
	if !ok {
		return nil
	}
	return &c
}

func (m *Store) upsertItemLocked(item shop.CartItem) {
	item.UpdatedAt = m.now()
	lines := m.items[item.CartID]
	for i := range lines {
		if lines[i].SKU == item.SKU {
			lines[i].Quantity += item.Quantity
			lines[i].UnitPrice = item.UnitPrice
			lines[i].UpdatedAt = item.UpdatedAt
			return
		}
	}
	m.items[item.CartID] = append(lines, item)
}

func (m *Store) itemsLocked(cartID int64) []shop.CartItem {
	return append([]shop.CartItem(nil), m.items[cartID]...)
}

func (m *Store) deleteCartLocked(id int64) {
	delete(m.carts, id)
	delete(m.items, id)
}

// =============================================================================
// TRANSACTIONS - Snapshot + restore on error
// =============================================================================

// WithTx runs fn with the store locked. If fn fails, every write it made is
// undone.
func (m *Store) WithTx(ctx context.Context, fn func(shop.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	entries    int
	orders     map[string]ledger.ExecutedOrder
	carts      map[int64]shop.Cart
	items      map[int64][]shop.CartItem
	nextCartID int64
}

func (m *Store) snapshot() snapshot {
	s := snapshot{
		entries:    len(m.entries),
		orders:     make(map[string]ledger.ExecutedOrder, len(m.orders)),
		carts:      make(map[int64]shop.Cart, len(m.carts)),
		items:      make(map[int64][]shop.CartItem, len(m.items)),
		nextCartID: m.nextCartID,
	}
	for k, v := range m.orders {
		s.orders[k] = v
	}
	for k, v := range m.carts {
		s.carts[k] = v
	}
	for k, v := range m.items {
		s.items[k] = append([]shop.CartItem(nil), v...)
	}
	return s
}

// restore relies on entries being append-only: truncating drops exactly
// what the failed unit wrote.
func (m *Store) restore(s snapshot) {
	m.entries = m.entries[:s.entries]
	m.orders = s.orders
	m.carts = s.carts
	m.items = s.items
	m.nextCartID = s.nextCartID
}

// txView runs calls against the locked parent.
type txView struct {
	parent *Store
}

func (tv *txView) Append(_ context.Context, entries []ledger.Entry) error {
	tv.parent.appendLocked(entries)
	return nil
}

func (tv *txView) Sum(_ context.Context, resources []ledger.Resource) (ledger.Balances, error) {
	return tv.parent.sumLocked(resources), nil
}

func (tv *txView) Entries(_ context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	return tv.parent.entriesLocked(filter), nil
}

func (tv *txView) LookupOrder(_ context.Context, orderID string) (*ledger.ExecutedOrder, error) {
	return tv.parent.lookupLocked(orderID), nil
}

func (tv *txView) InsertOrder(_ context.Context, order ledger.ExecutedOrder) error {
	return tv.parent.insertOrderLocked(order)
}

func (tv *txView) CreateCart(_ context.Context, c shop.Cart) (shop.Cart, error) {
	return tv.parent.createCartLocked(c), nil
}

func (tv *txView) GetCart(_ context.Context, id int64) (*shop.Cart, error) {
	return tv.parent.getCartLocked(id), nil
}

func (tv *txView) UpsertCartItem(_ context.Context, item shop.CartItem) error {
	tv.parent.upsertItemLocked(item)
	return nil
}

func (tv *txView) CartItems(_ context.Context, cartID int64) ([]shop.CartItem, error) {
	return tv.parent.itemsLocked(cartID), nil
}

func (tv *txView) DeleteCart(_ context.Context, id int64) error {
	tv.parent.deleteCartLocked(id)
	return nil
}

func (tv *txView) DeleteAllCarts(_ context.Context) error {
	tv.parent.carts = make(map[int64]shop.Cart)
	tv.parent.items = make(map[int64][]shop.CartItem)
	return nil
}
