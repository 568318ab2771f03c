/*
handlers.go - HTTP API handlers for the potion shop

PURPOSE:
  Exposes the shop Service over REST. Handlers decode requests, call one
  Service method, and encode the result. No accounting happens here.

ENDPOINTS:
  Wholesale:
    POST /barrels/plan                 Plan a barrel purchase
    POST /barrels/deliver/{order_id}   Apply delivered barrels
    POST /bottler/plan                 Plan a bottling run
    POST /bottler/deliver/{order_id}   Apply bottled potions

  Customers:
    GET  /catalog/                     Sale catalog (public)
    POST /carts/                       Open a cart
    POST /carts/{cart_id}/items/{sku}  Add potions to a cart
    POST /carts/{cart_id}/checkout     Sell a cart

  Inventory:
    GET  /inventory/audit              Gold, ml and potion totals
    GET  /inventory/ledger             Recent ledger entries
    POST /inventory/plan               Plan a capacity purchase
    POST /inventory/deliver/{order_id} Buy capacity

  Admin:
    POST /admin/reset                  Back to the starting state

IDEMPOTENCY:
  Deliveries and checkout are keyed by order id. A replay answers like the
  first call; replayed deliveries also carry the Idempotent-Replayed header.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Cart not found
  - 409: Insufficient gold, ml or potions
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/warp/potion-shop/ledger"
	"github.com/warp/potion-shop/shop"
)

const (
	maxBodyBytes       = 1 << 20
	defaultLedgerLimit = 100
	maxLedgerLimit     = 1000

	replayedHeader = "Idempotent-Replayed"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *shop.Service
	Log     *slog.Logger

	// Ready reports backing store health for /healthz. Optional.
	Ready func(ctx context.Context) error
}

// NewHandler creates a new handler over svc.
func NewHandler(svc *shop.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{Service: svc, Log: log}
}

// =============================================================================
// BARRELS
// =============================================================================

// PlanBarrels returns the barrel purchase plan for a wholesale catalog.
// POST /barrels/plan
func (h *Handler) PlanBarrels(w http.ResponseWriter, r *http.Request) {
	var catalog []shop.Barrel
	if !h.decode(w, r, &catalog) {
		return
	}
	plan, err := h.Service.PlanBarrels(r.Context(), catalog)
	if err != nil {
		h.fail(w, r, "Failed to plan barrels", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// DeliverBarrels applies a barrel delivery.
// POST /barrels/deliver/{order_id}
func (h *Handler) DeliverBarrels(w http.ResponseWriter, r *http.Request) {
	var barrels []shop.Barrel
	if !h.decode(w, r, &barrels) {
		return
	}
	replayed, err := h.Service.DeliverBarrels(r.Context(), chi.URLParam(r, "order_id"), barrels)
	if err != nil {
		h.fail(w, r, "Failed to deliver barrels", err)
		return
	}
	writeNoContent(w, replayed)
}

// =============================================================================
// BOTTLER
// =============================================================================

// PlanBottles returns the bottling plan.
// POST /bottler/plan
func (h *Handler) PlanBottles(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Service.PlanBottles(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to plan bottling", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// DeliverBottles applies bottled potions.
// POST /bottler/deliver/{order_id}
func (h *Handler) DeliverBottles(w http.ResponseWriter, r *http.Request) {
	var mixes []shop.PotionMix
	if !h.decode(w, r, &mixes) {
		return
	}
	replayed, err := h.Service.DeliverBottles(r.Context(), chi.URLParam(r, "order_id"), mixes)
	if err != nil {
		h.fail(w, r, "Failed to deliver potions", err)
		return
	}
	writeNoContent(w, replayed)
}

// =============================================================================
// CATALOG & CARTS
// =============================================================================

// GetCatalog returns the sale catalog.
// GET /catalog/
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.Service.Catalog(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to build catalog", err)
		return
	}
	writeJSON(w, http.StatusOK, catalog)
}

// CreateCart opens a cart.
// POST /carts/
func (h *Handler) CreateCart(w http.ResponseWriter, r *http.Request) {
	var req CreateCartRequest
	if !h.decode(w, r, &req) {
		return
	}
	cart, err := h.Service.CreateCart(r.Context(), shop.Cart{
		CustomerName:   req.CustomerName,
		CharacterClass: req.CharacterClass,
		Level:          req.Level,
	})
	if err != nil {
		h.fail(w, r, "Failed to create cart", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateCartResponse{CartID: cart.ID})
}

// AddCartItem adds potions to a cart.
// POST /carts/{cart_id}/items/{sku}
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDParam(w, r)
	if !ok {
		return
	}
	var req CartItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	if err := h.Service.AddCartItem(r.Context(), cartID, chi.URLParam(r, "sku"), req.Quantity); err != nil {
		h.fail(w, r, "Failed to add item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddCartItems adds several lines to a cart at once.
// POST /carts/{cart_id}/items
func (h *Handler) AddCartItems(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDParam(w, r)
	if !ok {
		return
	}
	var lines []shop.CartLine
	if !h.decode(w, r, &lines) {
		return
	}
	if err := h.Service.AddCartItems(r.Context(), cartID, lines); err != nil {
		h.fail(w, r, "Failed to add items", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout sells a cart.
// POST /carts/{cart_id}/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	cartID, ok := cartIDParam(w, r)
	if !ok {
		return
	}
	var req CheckoutRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.Service.Checkout(r.Context(), cartID, req.OrderID)
	if err != nil {
		h.fail(w, r, "Checkout failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// =============================================================================
// INVENTORY
// =============================================================================

// GetAudit returns gold, ml and potion totals.
// GET /inventory/audit
func (h *Handler) GetAudit(w http.ResponseWriter, r *http.Request) {
	audit, err := h.Service.Audit(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to audit inventory", err)
		return
	}
	writeJSON(w, http.StatusOK, audit)
}

// GetLedger lists recent ledger entries, newest first.
// GET /inventory/ledger?resource=gold&resource=red_ml&limit=50
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	filter := ledger.Filter{Limit: defaultLedgerLimit}
	q := r.URL.Query()

	for _, name := range q["resource"] {
		res, err := ledger.ParseResource(name)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid resource", err)
			return
		}
		filter.Resources = append(filter.Resources, res)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxLedgerLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxLedgerLimit), err)
			return
		}
		filter.Limit = n
	}

	entries, err := h.Service.Entries(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "Failed to list ledger", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// PlanCapacity recommends storage purchases.
// POST /inventory/plan
func (h *Handler) PlanCapacity(w http.ResponseWriter, r *http.Request) {
	plan, err := h.Service.PlanCapacity(r.Context())
	if err != nil {
		h.fail(w, r, "Failed to plan capacity", err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// DeliverCapacity buys storage units.
// POST /inventory/deliver/{order_id}
func (h *Handler) DeliverCapacity(w http.ResponseWriter, r *http.Request) {
	var plan shop.CapacityPlan
	if !h.decode(w, r, &plan) {
		return
	}
	replayed, err := h.Service.DeliverCapacity(r.Context(), chi.URLParam(r, "order_id"), plan)
	if err != nil {
		h.fail(w, r, "Failed to buy capacity", err)
		return
	}
	writeNoContent(w, replayed)
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset restores the starting state.
// POST /admin/reset
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Reset(r.Context()); err != nil {
		h.fail(w, r, "Reset failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness, and store health when Ready is set.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, message string, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Log.ErrorContext(r.Context(), message, "error", err, "path", r.URL.Path)
	}
	resp := ErrorResponse{Error: message, Code: code}
	var ibe *ledger.InsufficientBalanceError
	switch {
	case errors.As(err, &ibe):
		resp.Details = map[string]any{
			"resource":  ibe.Resource,
			"available": ibe.Available,
			"requested": ibe.Requested,
		}
	case err != nil:
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// statusFor maps domain errors to HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case shop.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusConflict, "insufficient_balance"
	case shop.IsClientError(err):
		return http.StatusBadRequest, "invalid_request"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func cartIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "cart_id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid cart id", err)
		return 0, false
	}
	return id, true
}

func writeNoContent(w http.ResponseWriter, replayed bool) {
	if replayed {
		w.Header().Set(replayedHeader, "true")
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
