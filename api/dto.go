/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON shapes of the HTTP surface. Domain types that are already
  wire-shaped (shop.Barrel, shop.PotionMix, shop.CatalogEntry, ...) are
  sent as they are; this file holds the request bodies and the wrappers
  that exist only on the wire.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done by the shop package, not in DTOs.
*/
package api

import (
	"time"

	"github.com/warp/potion-shop/ledger"
)

// =============================================================================
// CART DTOs
// =============================================================================

// CreateCartRequest is the body of POST /carts/.
type CreateCartRequest struct {
	CustomerName   string `json:"customer_name"`
	CharacterClass string `json:"character_class"`
	Level          int    `json:"level"`
}

// CreateCartResponse returns the new cart id.
type CreateCartResponse struct {
	CartID int64 `json:"cart_id"`
}

// CartItemRequest is the body of POST /carts/{cart_id}/items/{sku}.
type CartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// CheckoutRequest is the body of POST /carts/{cart_id}/checkout.
// Payment is free text recorded by the caller's storefront; it is not
// processed.
type CheckoutRequest struct {
	OrderID string `json:"order_id"`
	Payment string `json:"payment"`
}

// =============================================================================
// LEDGER DTOs
// =============================================================================

// EntryDTO is one ledger row.
type EntryDTO struct {
	ID        int64     `json:"id"`
	Resource  string    `json:"resource"`
	Change    int64     `json:"change"`
	Context   string    `json:"context"`
	CreatedAt time.Time `json:"created_at"`
}

func toEntryDTOs(entries []ledger.Entry) []EntryDTO {
	out := make([]EntryDTO, len(entries))
	for i, e := range entries {
		out[i] = EntryDTO{
			ID:        e.ID,
			Resource:  string(e.Resource),
			Change:    e.Change,
			Context:   e.Context,
			CreatedAt: e.CreatedAt,
		}
	}
	return out
}

// =============================================================================
// COMMON
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
