package handler

import (
	"net/http"

	"steel-spark/internal/identity"
	"steel-spark/internal/model"
	"steel-spark/internal/service"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	orders service.OrderService
	logger zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders: orders,
		logger: logger.With().Str("handler", "order").Logger(),
	}
}

// Place handles POST /api/orders by checking out the user's cart.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.PlaceOrder(r.Context(), identity.UserFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err, "failed to place order", h.logger)
		return
	}
	if order == nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeEmptyCart, "Cart is empty", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, model.NewOrderResponse(*order))
}

// List handles GET /api/orders. Admins see every order, customers their own.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	user := identity.UserFromContext(r.Context())
	if user == nil {
		writeServiceError(w, model.ErrUnauthenticated, "", h.logger)
		return
	}

	var orders []model.Order
	if identity.IsAdmin(user) {
		orders = h.orders.Orders()
	} else {
		orders = h.orders.OrdersByUser(user.ID)
	}

	resp := make([]model.OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, model.NewOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/orders/{id}. Another customer's order reads as not found.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := identity.UserFromContext(r.Context())
	if user == nil {
		writeServiceError(w, model.ErrUnauthenticated, "", h.logger)
		return
	}

	order, ok := h.orders.FindOrderByID(mux.Vars(r)["id"])
	if !ok || (!identity.IsAdmin(user) && order.UserID != user.ID) {
		writeServiceError(w, model.ErrOrderNotFound, "", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.NewOrderResponse(order))
}

// UpdateStatus handles PUT /api/orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateStatusRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.orders.UpdateOrderStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		writeServiceError(w, err, "failed to update order status", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.NewOrderResponse(*order))
}

// UpdatePrice handles PUT /api/orders/{id}/price.
func (h *OrderHandler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	var req model.UpdatePriceRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if req.Total == nil {
		writeMissingField(w, "total", h.logger)
		return
	}

	order, err := h.orders.UpdateOrderPrice(r.Context(), mux.Vars(r)["id"], *req.Total)
	if err != nil {
		writeServiceError(w, err, "failed to update order price", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.NewOrderResponse(*order))
}
