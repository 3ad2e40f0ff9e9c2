package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"steel-spark/internal/model"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testOrder(id, userID string) model.Order {
	return model.Order{
		ID:        id,
		UserID:    userID,
		UserName:  "Asha",
		Items:     cartLines(),
		Total:     decimal.NewFromInt(250),
		Status:    model.StatusRequested,
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestOrderHandler_Place(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockOrderService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "Success",
			setupMock: func(m *MockOrderService) {
				order := testOrder("o1", customer.ID)
				m.On("PlaceOrder", mock.Anything, customer).Return(&order, nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "Empty cart",
			setupMock: func(m *MockOrderService) {
				m.On("PlaceOrder", mock.Anything, customer).Return(nil, nil)
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeEmptyCart,
		},
		{
			name: "Gateway failure",
			setupMock: func(m *MockOrderService) {
				m.On("PlaceOrder", mock.Anything, customer).Return(nil, assert.AnError)
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   model.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := new(MockOrderService)
			tt.setupMock(orders)

			w := httptest.NewRecorder()
			req := asUser(httptest.NewRequest(http.MethodPost, "/api/orders", nil), customer)
			NewOrderHandler(orders, zerolog.Nop()).Place(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Contains(t, w.Body.String(), tt.expectedCode)
			} else {
				var resp model.OrderResponse
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, "o1", resp.ID)
				assert.Equal(t, model.StatusRequested, resp.Status)
				assert.True(t, resp.Total.Equal(decimal.NewFromInt(250)))
				assert.Equal(t, int64(0), resp.DiscountPercent)
			}
			orders.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_List(t *testing.T) {
	mine := testOrder("o1", customer.ID)
	theirs := testOrder("o2", "user-2")

	orders := new(MockOrderService)
	orders.On("Orders").Return([]model.Order{mine, theirs})
	orders.On("OrdersByUser", customer.ID).Return([]model.Order{mine})
	handler := NewOrderHandler(orders, zerolog.Nop())

	tests := []struct {
		name           string
		user           *model.User
		expectedStatus int
		expectedIDs    []string
	}{
		{name: "Customer sees own", user: customer, expectedStatus: http.StatusOK, expectedIDs: []string{"o1"}},
		{name: "Admin sees all", user: admin, expectedStatus: http.StatusOK, expectedIDs: []string{"o1", "o2"}},
		{name: "Signed out", user: nil, expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler.List(w, asUser(httptest.NewRequest(http.MethodGet, "/api/orders", nil), tt.user))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus != http.StatusOK {
				return
			}
			var resp []model.OrderResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			ids := make([]string, 0, len(resp))
			for _, o := range resp {
				ids = append(ids, o.ID)
			}
			assert.Equal(t, tt.expectedIDs, ids)
		})
	}
}

func TestOrderHandler_Get(t *testing.T) {
	theirs := testOrder("o2", "user-2")

	orders := new(MockOrderService)
	orders.On("FindOrderByID", "o2").Return(theirs, true)
	orders.On("FindOrderByID", "missing").Return(model.Order{}, false)
	handler := NewOrderHandler(orders, zerolog.Nop())

	get := func(id string, user *model.User) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := asUser(httptest.NewRequest(http.MethodGet, "/api/orders/"+id, nil), user)
		handler.Get(w, mux.SetURLVars(req, map[string]string{"id": id}))
		return w
	}

	assert.Equal(t, http.StatusOK, get("o2", admin).Code)
	assert.Equal(t, http.StatusNotFound, get("o2", customer).Code)
	assert.Equal(t, http.StatusNotFound, get("missing", admin).Code)
	assert.Equal(t, http.StatusUnauthorized, get("o2", nil).Code)
}

func TestOrderHandler_UpdateStatus(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockOrderService)
		expectedStatus int
	}{
		{
			name: "Approve",
			body: `{"status":"approved"}`,
			setupMock: func(m *MockOrderService) {
				order := testOrder("o1", customer.ID)
				order.Status = model.StatusApproved
				m.On("UpdateOrderStatus", mock.Anything, "o1", model.StatusApproved).Return(&order, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "Unknown status",
			body: `{"status":"shipped"}`,
			setupMock: func(m *MockOrderService) {
				m.On("UpdateOrderStatus", mock.Anything, "o1", model.OrderStatus("shipped")).Return(nil, model.ErrInvalidStatus)
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "Unknown order",
			body: `{"status":"rejected"}`,
			setupMock: func(m *MockOrderService) {
				m.On("UpdateOrderStatus", mock.Anything, "o1", model.StatusRejected).Return(nil, model.ErrOrderNotFound)
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orders := new(MockOrderService)
			tt.setupMock(orders)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPut, "/api/orders/o1/status", strings.NewReader(tt.body))
			NewOrderHandler(orders, zerolog.Nop()).UpdateStatus(w, mux.SetURLVars(req, map[string]string{"id": "o1"}))

			assert.Equal(t, tt.expectedStatus, w.Code)
			orders.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_UpdatePrice(t *testing.T) {
	t.Run("Reports discount", func(t *testing.T) {
		order := testOrder("o1", customer.ID)
		original := order.Total
		order.OriginalTotal = &original
		order.Total = decimal.NewFromInt(200)

		orders := new(MockOrderService)
		orders.On("UpdateOrderPrice", mock.Anything, "o1", mock.MatchedBy(func(d decimal.Decimal) bool {
			return d.Equal(decimal.NewFromInt(200))
		})).Return(&order, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/orders/o1/price", strings.NewReader(`{"total":200}`))
		NewOrderHandler(orders, zerolog.Nop()).UpdatePrice(w, mux.SetURLVars(req, map[string]string{"id": "o1"}))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp model.OrderResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, int64(20), resp.DiscountPercent)
		require.NotNil(t, resp.OriginalTotal)
		assert.True(t, resp.OriginalTotal.Equal(decimal.NewFromInt(250)))
	})

	t.Run("Missing total", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/orders/o1/price", strings.NewReader(`{}`))
		NewOrderHandler(new(MockOrderService), zerolog.Nop()).UpdatePrice(w, mux.SetURLVars(req, map[string]string{"id": "o1"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), model.ErrCodeMissingField)
	})

	t.Run("Negative total", func(t *testing.T) {
		orders := new(MockOrderService)
		orders.On("UpdateOrderPrice", mock.Anything, "o1", mock.Anything).Return(nil, model.ErrInvalidPrice)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/api/orders/o1/price", strings.NewReader(`{"total":-5}`))
		NewOrderHandler(orders, zerolog.Nop()).UpdatePrice(w, mux.SetURLVars(req, map[string]string{"id": "o1"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), model.ErrCodeInvalidPrice)
	})
}
