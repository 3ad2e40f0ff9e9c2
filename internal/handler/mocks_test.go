package handler

import (
	"context"
	"net/http"

	"steel-spark/internal/identity"
	"steel-spark/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockCatalogService is a mock implementation of CatalogService.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Load(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockCatalogService) Products() []model.Product {
	return m.Called().Get(0).([]model.Product)
}

func (m *MockCatalogService) ProductsByCategory(category model.Category) []model.Product {
	return m.Called(category).Get(0).([]model.Product)
}

func (m *MockCatalogService) ProductsBySubcategory(category model.Category, subcategory string) []model.Product {
	return m.Called(category, subcategory).Get(0).([]model.Product)
}

func (m *MockCatalogService) Subcategories(category model.Category) []string {
	return m.Called(category).Get(0).([]string)
}

func (m *MockCatalogService) CategoryProducts() map[model.Category][]model.Product {
	return m.Called().Get(0).(map[model.Category][]model.Product)
}

func (m *MockCatalogService) AddProduct(ctx context.Context, draft model.ProductDraft) (*model.Product, error) {
	args := m.Called(ctx, draft)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockCatalogService) UpdateProduct(ctx context.Context, product model.Product) (*model.Product, error) {
	args := m.Called(ctx, product)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockCatalogService) DeleteProduct(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogService) OnProductDeleted(fn func(productID string)) {
	m.Called(fn)
}

func (m *MockCatalogService) UpdateProductImage(ctx context.Context, id, image string) error {
	return m.Called(ctx, id, image).Error(0)
}

func (m *MockCatalogService) UpdateProductStock(ctx context.Context, id string, stock int) error {
	return m.Called(ctx, id, stock).Error(0)
}

func (m *MockCatalogService) UpdateProductPrice(ctx context.Context, id string, price decimal.Decimal) error {
	return m.Called(ctx, id, price).Error(0)
}

func (m *MockCatalogService) FindProductByID(id string) (model.Product, bool) {
	args := m.Called(id)
	return args.Get(0).(model.Product), args.Bool(1)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) Items(ctx context.Context, user *model.User) ([]model.CartItem, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartItem), args.Error(1)
}

func (m *MockCartService) AddToCart(ctx context.Context, user *model.User, productID string, quantity int) (*model.CartItem, error) {
	args := m.Called(ctx, user, productID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *MockCartService) UpdateCartItem(ctx context.Context, user *model.User, productID string, quantity int) error {
	return m.Called(ctx, user, productID, quantity).Error(0)
}

func (m *MockCartService) RemoveFromCart(ctx context.Context, user *model.User, productID string) error {
	return m.Called(ctx, user, productID).Error(0)
}

func (m *MockCartService) ClearCart(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockCartService) CartTotal(user *model.User) decimal.Decimal {
	return m.Called(user).Get(0).(decimal.Decimal)
}

func (m *MockCartService) CartItemCount(user *model.User) int {
	return m.Called(user).Int(0)
}

func (m *MockCartService) Forget(userID string) {
	m.Called(userID)
}

func (m *MockCartService) DropProduct(productID string) {
	m.Called(productID)
}

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Load(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockOrderService) PlaceOrder(ctx context.Context, user *model.User) (*model.Order, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrderPrice(ctx context.Context, id string, total decimal.Decimal) (*model.Order, error) {
	args := m.Called(ctx, id, total)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) Orders() []model.Order {
	return m.Called().Get(0).([]model.Order)
}

func (m *MockOrderService) OrdersByUser(userID string) []model.Order {
	return m.Called(userID).Get(0).([]model.Order)
}

func (m *MockOrderService) FindOrderByID(id string) (model.Order, bool) {
	args := m.Called(id)
	return args.Get(0).(model.Order), args.Bool(1)
}

// MockAuthenticator is a mock implementation of Authenticator.
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Register(ctx context.Context, name, email, password string) (*model.AuthResponse, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (*model.AuthResponse, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.AuthResponse), args.Error(1)
}

func (m *MockAuthenticator) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// MockImageStore is a mock implementation of imagestore.Store.
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	args := m.Called(ctx, key, contentType, data)
	return args.String(0), args.Error(1)
}

var (
	customer = &model.User{ID: "user-1", Name: "Asha", Email: "asha@example.com", Role: model.RoleCustomer}
	admin    = &model.User{ID: "admin-1", Name: "Ravi", Email: "ravi@sssteelindia.com", Role: model.RoleAdmin}
)

// asUser attaches user to the request context the way the auth middleware does.
func asUser(r *http.Request, user *model.User) *http.Request {
	if user == nil {
		return r
	}
	return r.WithContext(identity.WithUser(r.Context(), user))
}
