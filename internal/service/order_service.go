package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"steel-spark/internal/events"
	"steel-spark/internal/metrics"
	"steel-spark/internal/model"
	"steel-spark/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	carts     CartService
	catalog   CatalogService
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	mu     sync.RWMutex
	orders []model.Order
}

// NewOrderService creates a new order service. Call Load before serving reads.
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	carts CartService,
	catalog CatalogService,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger zerolog.Logger,
) OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &orderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		carts:     carts,
		catalog:   catalog,
		publisher: publisher,
		metrics:   m,
		logger:    logger.With().Str("service", "order").Logger(),
	}
}

func (s *orderService) Load(ctx context.Context) error {
	orders, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load orders")
		return fmt.Errorf("failed to load orders: %w", err)
	}

	s.mu.Lock()
	s.orders = orders
	s.mu.Unlock()

	s.logger.Info().Int("count", len(orders)).Msg("orders loaded")
	return nil
}

// PlaceOrder writes the order, its lines and the cart clear in one transaction.
func (s *orderService) PlaceOrder(ctx context.Context, user *model.User) (_ *model.Order, err error) {
	if user == nil {
		return nil, model.ErrUnauthenticated
	}

	items, err := s.carts.Items(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		s.logger.Debug().Str("user_id", user.ID).Msg("empty cart, no order placed")
		return nil, nil
	}

	defer func() { s.metrics.RecordOperation("order", "place", err) }()

	order := model.Order{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		UserName:  user.Name,
		Items:     items,
		Total:     model.CartTotal(items).Round(2),
		Status:    model.StatusRequested,
		CreatedAt: time.Now().UTC(),
	}

	lines := make([]model.OrderItem, len(items))
	for i, item := range items {
		lines[i] = model.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Product.Price,
		}
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, &order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to create order")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, lines); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID).
			Int("item_count", len(lines)).
			Msg("failed to create order items")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	cleared, err := s.cartRepo.ClearTx(ctx, tx, user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to clear cart")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}
	if cleared == 0 {
		// Another checkout already consumed the stored cart.
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		s.carts.Forget(user.ID)
		s.logger.Warn().Str("user_id", user.ID).Msg("stored cart already checked out, no order placed")
		return nil, nil
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to commit transaction")
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	s.mu.Lock()
	s.orders = append(s.orders, order)
	s.mu.Unlock()
	s.carts.Forget(user.ID)

	s.logger.Info().
		Str("order_id", order.ID).
		Str("user_id", user.ID).
		Int("item_count", len(lines)).
		Str("total", order.Total.String()).
		Msg("order placed")

	s.publish(ctx, events.TypeCreated, order)
	placed := cloneOrder(order)
	return &placed, nil
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, model.ErrInvalidStatus
	}
	if _, ok := s.FindOrderByID(id); !ok {
		return nil, model.ErrOrderNotFound
	}

	err := s.orderRepo.UpdateStatus(ctx, id, status)
	s.metrics.RecordOperation("order", "update_status", err)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id).Str("status", string(status)).Msg("failed to update order status")
		return nil, err
	}

	updated, ok := s.apply(id, func(o *model.Order) { o.Status = status })
	if !ok {
		return nil, model.ErrOrderNotFound
	}

	s.logger.Info().Str("order_id", id).Str("status", string(status)).Msg("order status updated")

	// Stock is decremented on every move to approved and never restored.
	if status == model.StatusApproved {
		s.decrementStock(ctx, updated)
	}

	s.publish(ctx, events.TypeStatusUpdated, updated)
	return &updated, nil
}

func (s *orderService) UpdateOrderPrice(ctx context.Context, id string, total decimal.Decimal) (*model.Order, error) {
	if total.IsNegative() {
		return nil, model.ErrInvalidPrice
	}
	total = total.Round(2)
	if _, ok := s.FindOrderByID(id); !ok {
		return nil, model.ErrOrderNotFound
	}

	original, err := s.orderRepo.UpdateTotal(ctx, id, total)
	s.metrics.RecordOperation("order", "update_price", err)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id).Str("total", total.String()).Msg("failed to update order price")
		return nil, err
	}

	updated, ok := s.apply(id, func(o *model.Order) {
		if o.OriginalTotal == nil {
			o.OriginalTotal = &original
		}
		o.Total = total
	})
	if !ok {
		return nil, model.ErrOrderNotFound
	}

	s.logger.Info().
		Str("order_id", id).
		Str("total", total.String()).
		Str("original_total", updated.OriginalTotal.String()).
		Msg("order price updated")

	s.publish(ctx, events.TypePriceUpdated, updated)
	return &updated, nil
}

func (s *orderService) Orders() []model.Order {
	return s.filter(func(model.Order) bool { return true })
}

func (s *orderService) OrdersByUser(userID string) []model.Order {
	return s.filter(func(o model.Order) bool { return o.UserID == userID })
}

func (s *orderService) FindOrderByID(id string) (model.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.orders {
		if o.ID == id {
			return cloneOrder(o), true
		}
	}
	return model.Order{}, false
}

// decrementStock lowers each line's product stock by the line quantity.
// Failures are logged and do not undo the status change.
func (s *orderService) decrementStock(ctx context.Context, order model.Order) {
	for _, item := range order.Items {
		product, ok := s.catalog.FindProductByID(item.ProductID)
		if !ok {
			s.logger.Warn().
				Str("order_id", order.ID).
				Str("product_id", item.ProductID).
				Msg("approved order references unknown product, stock unchanged")
			continue
		}
		if err := s.catalog.UpdateProductStock(ctx, item.ProductID, product.Stock-item.Quantity); err != nil {
			s.logger.Error().Err(err).
				Str("order_id", order.ID).
				Str("product_id", item.ProductID).
				Msg("failed to decrement stock for approved order")
		}
	}
}

func (s *orderService) publish(ctx context.Context, eventType string, order model.Order) {
	event := model.OrderEvent{
		Type:     eventType,
		OrderID:  order.ID,
		UserID:   order.UserID,
		Status:   order.Status,
		Total:    order.Total,
		Occurred: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).Str("type", eventType).Msg("failed to publish order event")
	}
}

// apply mutates the local order and returns a copy of the result.
func (s *orderService) apply(id string, fn func(*model.Order)) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.orders {
		if s.orders[i].ID == id {
			fn(&s.orders[i])
			return cloneOrder(s.orders[i]), true
		}
	}
	return model.Order{}, false
}

func (s *orderService) filter(keep func(model.Order) bool) []model.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, cloneOrder(o))
		}
	}
	return out
}

func cloneOrder(o model.Order) model.Order {
	o.Items = append([]model.CartItem{}, o.Items...)
	if o.OriginalTotal != nil {
		original := *o.OriginalTotal
		o.OriginalTotal = &original
	}
	return o
}
