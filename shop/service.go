/*
service.go - Transactional orchestration

PURPOSE:
  Every mutating operation runs here as one store transaction:

    WithTx {
      guard.HasProcessed(order_id)    -> replay, no writes
      validate + compute deltas
      ledger.Post(deltas)             -> non-negative check + append
      guard.MarkProcessed(order_id)   -> last statement
    }

  A unique violation on the executed-orders key means another request with
  the same order id committed first. The loser's writes are rolled back and
  it returns the winner's cached response.

COLLABORATORS:
  - Observer: metrics hook, optional
  - OrderCache: read-through cache of executed-order responses, optional.
    The store stays authoritative; cache errors are logged and ignored.
*/
package shop

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/warp/potion-shop/ledger"
)

// Order kinds recorded with executed orders.
const (
	KindBarrels  = "barrels"
	KindBottles  = "bottles"
	KindCheckout = "checkout"
	KindCapacity = "capacity"
)

// Observer is notified of order outcomes.
type Observer interface {
	OrderApplied(kind string, entries []ledger.Entry)
	OrderReplayed(kind string)
	OrderRejected(kind string, err error)
}

// OrderCache caches executed-order responses by kind and order id.
type OrderCache interface {
	Get(ctx context.Context, kind, orderID string) ([]byte, bool, error)
	Put(ctx context.Context, kind, orderID string, response []byte) error
}

type nopObserver struct{}

func (nopObserver) OrderApplied(string, []ledger.Entry) {}
func (nopObserver) OrderReplayed(string)                {}
func (nopObserver) OrderRejected(string, error)         {}

// Service runs shop operations against a Store.
type Service struct {
	store    Store
	rng      Rand
	log      *slog.Logger
	observer Observer
	cache    OrderCache
}

// Option configures a Service.
type Option func(*Service)

func WithRand(r Rand) Option             { return func(s *Service) { s.rng = r } }
func WithLogger(l *slog.Logger) Option   { return func(s *Service) { s.log = l } }
func WithObserver(o Observer) Option     { return func(s *Service) { s.observer = o } }
func WithOrderCache(c OrderCache) Option { return func(s *Service) { s.cache = c } }

// NewService returns a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		rng:      NewRand(0),
		log:      slog.Default(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// READS
// =============================================================================

// Inventory returns a snapshot of every balance.
func (s *Service) Inventory(ctx context.Context) (Inventory, error) {
	b, err := ledger.NewAggregator(s.store).Snapshot(ctx)
	if err != nil {
		return Inventory{}, err
	}
	return InventoryFrom(b), nil
}

// Audit summarizes gold, ml and potions.
func (s *Service) Audit(ctx context.Context) (ledger.Audit, error) {
	return ledger.NewAggregator(s.store).Audit(ctx)
}

// Entries returns recent ledger entries, newest first.
func (s *Service) Entries(ctx context.Context, filter ledger.Filter) ([]ledger.Entry, error) {
	return ledger.New(s.store).Entries(ctx, filter)
}

// Catalog returns the customer catalog.
func (s *Service) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	inv, err := s.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	return BuildCatalog(inv), nil
}

// =============================================================================
// PLANS
// =============================================================================

// PlanBarrels validates the wholesale catalog and plans a purchase.
func (s *Service) PlanBarrels(ctx context.Context, catalog []Barrel) ([]BarrelOrder, error) {
	if err := ValidateCatalog(catalog); err != nil {
		return nil, err
	}
	inv, err := s.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	plan := PlanBarrels(inv, catalog, inv.MaxML(), s.rng)
	s.log.InfoContext(ctx, "barrel plan", "offers", len(catalog), "orders", len(plan))
	return plan, nil
}

// PlanBottles plans a bottling run.
func (s *Service) PlanBottles(ctx context.Context) ([]PotionMix, error) {
	inv, err := s.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	plan := PlanBottles(inv, s.rng)
	s.log.InfoContext(ctx, "bottle plan", "mixes", len(plan))
	return plan, nil
}

// PlanCapacity recommends storage purchases.
func (s *Service) PlanCapacity(ctx context.Context) (CapacityPlan, error) {
	inv, err := s.Inventory(ctx)
	if err != nil {
		return CapacityPlan{}, err
	}
	return PlanCapacity(inv), nil
}

// =============================================================================
// DELIVERIES
// =============================================================================

// DeliverBarrels applies a barrel delivery once per order id.
func (s *Service) DeliverBarrels(ctx context.Context, orderID string, barrels []Barrel) (bool, error) {
	entries, err := BarrelDeltas(barrels)
	if err != nil {
		s.observer.OrderRejected(KindBarrels, err)
		return false, err
	}
	out, err := s.execute(ctx, KindBarrels, orderID, func(ctx context.Context, tx Tx) ([]ledger.Entry, any, error) {
		return entries, nil, nil
	})
	return out.Replayed, err
}

// DeliverBottles applies a bottling delivery once per order id.
func (s *Service) DeliverBottles(ctx context.Context, orderID string, mixes []PotionMix) (bool, error) {
	entries, err := BottleDeltas(mixes)
	if err != nil {
		s.observer.OrderRejected(KindBottles, err)
		return false, err
	}
	out, err := s.execute(ctx, KindBottles, orderID, func(ctx context.Context, tx Tx) ([]ledger.Entry, any, error) {
		return entries, nil, nil
	})
	return out.Replayed, err
}

// DeliverCapacity buys storage units once per order id.
func (s *Service) DeliverCapacity(ctx context.Context, orderID string, plan CapacityPlan) (bool, error) {
	entries, err := CapacityDeltas(plan)
	if err != nil {
		s.observer.OrderRejected(KindCapacity, err)
		return false, err
	}
	out, err := s.execute(ctx, KindCapacity, orderID, func(ctx context.Context, tx Tx) ([]ledger.Entry, any, error) {
		return entries, nil, nil
	})
	return out.Replayed, err
}

// =============================================================================
// CARTS
// =============================================================================

// CreateCart opens a cart.
func (s *Service) CreateCart(ctx context.Context, c Cart) (Cart, error) {
	c.CustomerName = strings.TrimSpace(c.CustomerName)
	if c.CustomerName == "" {
		return Cart{}, fmt.Errorf("%w: customer_name is required", ErrInvalidCart)
	}
	if c.Level < 0 {
		return Cart{}, fmt.Errorf("%w: negative level", ErrInvalidCart)
	}
	return s.store.CreateCart(ctx, c)
}

// AddCartItem adds quantity of sku to a cart at the current base price.
func (s *Service) AddCartItem(ctx context.Context, cartID int64, sku string, quantity int64) error {
	return s.AddCartItems(ctx, cartID, []CartLine{{SKU: sku, Quantity: quantity}})
}

// AddCartItems adds every line to a cart in one transaction. Lines for the
// same sku accumulate, up to MaxCartQuantity per sku.
func (s *Service) AddCartItems(ctx context.Context, cartID int64, lines []CartLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: no items", ErrInvalidQuantity)
	}
	if len(lines) > MaxOrderLines {
		return fmt.Errorf("%w: %d items, max %d", ErrCatalogTooLarge, len(lines), MaxOrderLines)
	}
	items := make([]CartItem, 0, len(lines))
	for _, l := range lines {
		p, err := LookupSKU(l.SKU)
		if err != nil {
			return err
		}
		if l.Quantity <= 0 || l.Quantity > MaxCartQuantity {
			return fmt.Errorf("%w: %d, want 1..%d", ErrInvalidQuantity, l.Quantity, MaxCartQuantity)
		}
		items = append(items, CartItem{
			CartID:    cartID,
			SKU:       p.SKU,
			Quantity:  l.Quantity,
			UnitPrice: p.BasePrice,
		})
	}
	return s.store.WithTx(ctx, func(tx Tx) error {
		cart, err := tx.GetCart(ctx, cartID)
		if err != nil {
			return err
		}
		if cart == nil {
			return fmt.Errorf("%w: %d", ErrCartNotFound, cartID)
		}
		existing, err := tx.CartItems(ctx, cartID)
		if err != nil {
			return err
		}
		merged := make(map[string]int64, len(existing))
		for _, it := range existing {
			merged[it.SKU] = it.Quantity
		}
		for _, it := range items {
			merged[it.SKU] += it.Quantity
			if merged[it.SKU] > MaxCartQuantity {
				return fmt.Errorf("%w: %s would hold %d, max %d",
					ErrInvalidQuantity, it.SKU, merged[it.SKU], MaxCartQuantity)
			}
		}
		for _, it := range items {
			if err := tx.UpsertCartItem(ctx, it); err != nil {
				return err
			}
		}
		return nil
	})
}

// Checkout sells a cart once per order id. The order id must be a UUID.
func (s *Service) Checkout(ctx context.Context, cartID int64, orderID string) (CheckoutResult, error) {
	if _, err := uuid.Parse(strings.TrimSpace(orderID)); err != nil {
		err = fmt.Errorf("%w: %q", ErrInvalidOrderID, orderID)
		s.observer.OrderRejected(KindCheckout, err)
		return CheckoutResult{}, err
	}
	out, err := s.execute(ctx, KindCheckout, orderID, func(ctx context.Context, tx Tx) ([]ledger.Entry, any, error) {
		cart, err := tx.GetCart(ctx, cartID)
		if err != nil {
			return nil, nil, err
		}
		if cart == nil {
			return nil, nil, fmt.Errorf("%w: %d", ErrCartNotFound, cartID)
		}
		items, err := tx.CartItems(ctx, cartID)
		if err != nil {
			return nil, nil, err
		}
		res, entries, err := CheckoutDeltas(items)
		if err != nil {
			return nil, nil, err
		}
		if err := tx.DeleteCart(ctx, cartID); err != nil {
			return nil, nil, err
		}
		return entries, res, nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	var res CheckoutResult
	if err := json.Unmarshal(out.Response, &res); err != nil {
		return CheckoutResult{}, fmt.Errorf("decode cached checkout %s: %w", orderID, err)
	}
	return res, nil
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset restores the starting balances with corrective entries and deletes
// every cart. Executed orders are kept.
func (s *Service) Reset(ctx context.Context) error {
	err := s.store.WithTx(ctx, func(tx Tx) error {
		current, err := ledger.NewAggregator(tx).Snapshot(ctx)
		if err != nil {
			return err
		}
		if err := ledger.New(tx).Post(ctx, ResetDeltas(current)...); err != nil {
			return err
		}
		return tx.DeleteAllCarts(ctx)
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "shop reset", "gold", StartingGold)
	return nil
}

// Seed applies the starting balances when the ledger is empty.
func (s *Service) Seed(ctx context.Context) error {
	return s.store.WithTx(ctx, func(tx Tx) error {
		existing, err := tx.Entries(ctx, ledger.Filter{Limit: 1})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return nil
		}
		s.log.InfoContext(ctx, "seeding empty ledger", "gold", StartingGold)
		return ledger.New(tx).Post(ctx, ResetDeltas(ledger.Balances{})...)
	})
}

// =============================================================================
// IDEMPOTENT EXECUTION
// =============================================================================

type applyFunc func(ctx context.Context, tx Tx) (entries []ledger.Entry, response any, err error)

func (s *Service) execute(ctx context.Context, kind, orderID string, apply applyFunc) (ledger.Outcome, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		s.observer.OrderRejected(kind, ledger.ErrEmptyOrderID)
		return ledger.Outcome{}, ledger.ErrEmptyOrderID
	}
	log := s.log.With("kind", kind, "order_id", orderID)

	if s.cache != nil {
		resp, ok, err := s.cache.Get(ctx, kind, orderID)
		if err != nil {
			log.WarnContext(ctx, "order cache read failed", "error", err)
		} else if ok {
			s.observer.OrderReplayed(kind)
			log.InfoContext(ctx, "order replayed from cache")
			return ledger.Outcome{Response: resp, Replayed: true}, nil
		}
	}

	var posted []ledger.Entry
	var out ledger.Outcome
	err := s.store.WithTx(ctx, func(tx Tx) error {
		o, err := ledger.NewGuard(tx).Run(ctx, orderID, kind, func(ctx context.Context) ([]byte, error) {
			entries, response, err := apply(ctx, tx)
			if err != nil {
				return nil, err
			}
			if err := ledger.New(tx).Post(ctx, entries...); err != nil {
				return nil, err
			}
			posted = entries
			if response == nil {
				return nil, nil
			}
			return json.Marshal(response)
		})
		out = o
		return err
	})

	if ledger.IsDuplicateOrder(err) {
		existing, lerr := s.store.LookupOrder(ctx, orderID)
		if lerr != nil {
			return ledger.Outcome{}, fmt.Errorf("read winning order %s: %w", orderID, lerr)
		}
		if existing == nil {
			return ledger.Outcome{}, err
		}
		out, err = ledger.Replay(existing, kind)
	}
	if err != nil {
		s.observer.OrderRejected(kind, err)
		log.WarnContext(ctx, "order rejected", "error", err)
		return ledger.Outcome{}, err
	}

	if out.Replayed {
		s.observer.OrderReplayed(kind)
		log.InfoContext(ctx, "order replayed")
	} else {
		s.observer.OrderApplied(kind, posted)
		log.InfoContext(ctx, "order applied", "entries", len(posted))
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, kind, orderID, out.Response); err != nil {
			log.WarnContext(ctx, "order cache write failed", "error", err)
		}
	}
	return out, nil
}
