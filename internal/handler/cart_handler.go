package handler

import (
	"net/http"
	"strings"

	"steel-spark/internal/identity"
	"steel-spark/internal/model"
	"steel-spark/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// CartHandler handles the signed-in user's cart.
type CartHandler struct {
	carts  service.CartService
	logger zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(carts service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, r, http.StatusOK)
}

// Add handles POST /api/cart/items.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req model.AddToCartRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if strings.TrimSpace(req.ProductID) == "" {
		writeMissingField(w, "productId", h.logger)
		return
	}

	item, err := h.carts.AddToCart(r.Context(), identity.UserFromContext(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		writeServiceError(w, err, "failed to add to cart", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// Update handles PUT /api/cart/items/{productId}.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateCartItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	user := identity.UserFromContext(r.Context())
	if err := h.carts.UpdateCartItem(r.Context(), user, mux.Vars(r)["productId"], req.Quantity); err != nil {
		writeServiceError(w, err, "failed to update cart item", h.logger)
		return
	}

	h.writeCart(w, r, http.StatusOK)
}

// Remove handles DELETE /api/cart/items/{productId}.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user := identity.UserFromContext(r.Context())
	if err := h.carts.RemoveFromCart(r.Context(), user, mux.Vars(r)["productId"]); err != nil {
		writeServiceError(w, err, "failed to remove cart item", h.logger)
		return
	}

	h.writeCart(w, r, http.StatusOK)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.ClearCart(r.Context(), identity.UserFromContext(r.Context())); err != nil {
		writeServiceError(w, err, "failed to clear cart", h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, status int) {
	user := identity.UserFromContext(r.Context())
	items, err := h.carts.Items(r.Context(), user)
	if err != nil {
		writeServiceError(w, err, "failed to load cart", h.logger)
		return
	}

	writeJSON(w, status, model.CartResponse{
		Items:     items,
		Total:     h.carts.CartTotal(user),
		ItemCount: h.carts.CartItemCount(user),
	})
}
