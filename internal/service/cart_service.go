package service

import (
	"context"
	"fmt"
	"sync"

	"steel-spark/internal/metrics"
	"steel-spark/internal/model"
	"steel-spark/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartService implements CartService.
type cartService struct {
	repo    repository.CartRepository
	catalog CatalogService
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu    sync.RWMutex
	carts map[string][]model.CartItem
}

// NewCartService creates a new cart service.
func NewCartService(
	repo repository.CartRepository,
	catalog CatalogService,
	m *metrics.Metrics,
	logger zerolog.Logger,
) CartService {
	s := &cartService{
		repo:    repo,
		catalog: catalog,
		metrics: m,
		logger:  logger.With().Str("service", "cart").Logger(),
		carts:   make(map[string][]model.CartItem),
	}
	// cart_items rows cascade with the product; the held copies follow.
	if catalog != nil {
		catalog.OnProductDeleted(s.DropProduct)
	}
	return s
}

func (s *cartService) Items(ctx context.Context, user *model.User) ([]model.CartItem, error) {
	if user == nil {
		return nil, model.ErrUnauthenticated
	}
	if err := s.ensureLoaded(ctx, user.ID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CartItem{}, s.carts[user.ID]...), nil
}

func (s *cartService) AddToCart(ctx context.Context, user *model.User, productID string, quantity int) (*model.CartItem, error) {
	if user == nil {
		s.logger.Warn().Str("product_id", productID).Msg("add to cart without a signed-in user")
		return nil, model.ErrUnauthenticated
	}
	if quantity < 1 {
		return nil, model.ErrInvalidQuantity
	}
	product, ok := s.catalog.FindProductByID(productID)
	if !ok {
		return nil, model.ErrProductNotFound
	}
	if err := s.ensureLoaded(ctx, user.ID); err != nil {
		return nil, err
	}

	stored, err := s.repo.AddQuantity(ctx, user.ID, productID, quantity)
	s.metrics.RecordOperation("cart", "add", err)
	if err != nil {
		s.logger.Error().Err(err).
			Str("user_id", user.ID).
			Str("product_id", productID).
			Msg("failed to add item to cart")
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.carts[user.ID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = stored
			line := items[i]
			return &line, nil
		}
	}
	line := model.CartItem{ProductID: productID, Quantity: stored, Product: product}
	s.carts[user.ID] = append(items, line)
	return &line, nil
}

func (s *cartService) UpdateCartItem(ctx context.Context, user *model.User, productID string, quantity int) error {
	if user == nil {
		return model.ErrUnauthenticated
	}
	quantity = model.ClampQuantity(quantity)
	if err := s.ensureLoaded(ctx, user.ID); err != nil {
		return err
	}

	err := s.repo.SetQuantity(ctx, user.ID, productID, quantity)
	s.metrics.RecordOperation("cart", "update", err)
	if err != nil {
		s.logger.Error().Err(err).
			Str("user_id", user.ID).
			Str("product_id", productID).
			Msg("failed to update cart item")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.carts[user.ID] {
		if s.carts[user.ID][i].ProductID == productID {
			s.carts[user.ID][i].Quantity = quantity
		}
	}
	return nil
}

func (s *cartService) RemoveFromCart(ctx context.Context, user *model.User, productID string) error {
	if user == nil {
		return model.ErrUnauthenticated
	}
	if err := s.ensureLoaded(ctx, user.ID); err != nil {
		return err
	}

	err := s.repo.Remove(ctx, user.ID, productID)
	s.metrics.RecordOperation("cart", "remove", err)
	if err != nil {
		s.logger.Error().Err(err).
			Str("user_id", user.ID).
			Str("product_id", productID).
			Msg("failed to remove item from cart")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := []model.CartItem{}
	for _, item := range s.carts[user.ID] {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	s.carts[user.ID] = kept
	return nil
}

func (s *cartService) ClearCart(ctx context.Context, user *model.User) error {
	if user == nil {
		return model.ErrUnauthenticated
	}

	err := s.repo.Clear(ctx, user.ID)
	s.metrics.RecordOperation("cart", "clear", err)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to clear cart")
		return err
	}

	s.mu.Lock()
	s.carts[user.ID] = []model.CartItem{}
	s.mu.Unlock()
	return nil
}

func (s *cartService) CartTotal(user *model.User) decimal.Decimal {
	if user == nil {
		return decimal.Zero
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CartTotal(s.carts[user.ID])
}

func (s *cartService) CartItemCount(user *model.User) int {
	if user == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CartItemCount(s.carts[user.ID])
}

func (s *cartService) Forget(userID string) {
	s.mu.Lock()
	delete(s.carts, userID)
	s.mu.Unlock()
}

func (s *cartService) DropProduct(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, items := range s.carts {
		kept := make([]model.CartItem, 0, len(items))
		for _, item := range items {
			if item.ProductID != productID {
				kept = append(kept, item)
			}
		}
		if len(kept) != len(items) {
			s.carts[userID] = kept
			s.logger.Debug().Str("user_id", userID).Str("product_id", productID).Msg("dropped deleted product from cart")
		}
	}
}

// ensureLoaded fetches the user's cart the first time it is needed.
func (s *cartService) ensureLoaded(ctx context.Context, userID string) error {
	s.mu.RLock()
	_, ok := s.carts[userID]
	s.mu.RUnlock()
	if ok {
		return nil
	}

	items, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load cart")
		return fmt.Errorf("failed to load cart: %w", err)
	}

	s.mu.Lock()
	if _, ok := s.carts[userID]; !ok {
		s.carts[userID] = items
	}
	s.mu.Unlock()
	return nil
}
