package service

import (
	"context"
	"fmt"
	"sync"

	"steel-spark/internal/metrics"
	"steel-spark/internal/model"
	"steel-spark/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const demoImage = "/placeholder.svg"

// demoProducts is the starter catalogue written into an empty products table.
var demoProducts = []model.ProductDraft{
	{Name: "MS Angle 25x25x3mm", Category: model.CategoryStructuralMaterials, Subcategory: "Angles", Price: decimal.NewFromInt(750), Stock: 100, Description: "Mild steel angle, ideal for construction and fabrication.", Image: demoImage},
	{Name: "MS Channel 75x40mm", Category: model.CategoryStructuralMaterials, Subcategory: "Channels", Price: decimal.NewFromInt(1250), Stock: 75, Description: "Standard mild steel channel for structural applications.", Image: demoImage},
	{Name: "MS Flat 25x6mm", Category: model.CategoryStructuralMaterials, Subcategory: "Flats", Price: decimal.NewFromInt(580), Stock: 120, Description: "Flat mild steel bar for various construction needs.", Image: demoImage},
	{Name: "MS I Beam 100x50mm", Category: model.CategoryStructuralMaterials, Subcategory: "I Beams", Price: decimal.NewFromInt(1800), Stock: 50, Description: "Standard I-beam for structural support in construction.", Image: demoImage},
	{Name: "TMT Bar 8mm", Category: model.CategoryStructuralMaterials, Subcategory: "TMT Bars", Price: decimal.NewFromInt(780), Stock: 200, Description: "High-quality TMT reinforcement bar for concrete structures.", Image: demoImage},
	{Name: "MS Round Pipe 1 inch", Category: model.CategorySteelPipes, Subcategory: "MS Round Pipes", Price: decimal.NewFromInt(450), Stock: 85, Description: "Standard mild steel round pipe for various applications.", Image: demoImage},
	{Name: "MS Square Pipe 25x25mm", Category: model.CategorySteelPipes, Subcategory: "MS Square Pipes", Price: decimal.NewFromInt(520), Stock: 65, Description: "Square-section mild steel pipe for construction and furniture.", Image: demoImage},
	{Name: "MS Rectangle Pipe 50x25mm", Category: model.CategorySteelPipes, Subcategory: "MS Rectangle Pipes", Price: decimal.NewFromInt(580), Stock: 70, Description: "Rectangular section mild steel pipe for construction needs.", Image: demoImage},
	{Name: "HR Sheet 2mm", Category: model.CategorySheetsPlates, Subcategory: "HR Sheets / Plates", Price: decimal.NewFromInt(1050), Stock: 40, Description: "Hot-rolled mild steel sheet for various industrial applications.", Image: demoImage},
	{Name: "CR Sheet 1mm", Category: model.CategorySheetsPlates, Subcategory: "CR Sheets", Price: decimal.NewFromInt(1250), Stock: 35, Description: "Cold-rolled steel sheet with smooth finish for precision applications.", Image: demoImage},
	{Name: "GI Sheet 0.8mm", Category: model.CategorySheetsPlates, Subcategory: "GI Sheets", Price: decimal.NewFromInt(1450), Stock: 30, Description: "Galvanized iron sheet with zinc coating for corrosion resistance.", Image: demoImage},
	{Name: "Roofing Sheet 0.5mm", Category: model.CategorySheetsPlates, Subcategory: "Roofing Sheets", Price: decimal.NewFromInt(980), Stock: 60, Description: "Corrugated roofing sheet for industrial and residential roofing.", Image: demoImage},
}

// catalogService implements CatalogService.
type catalogService struct {
	repo     repository.ProductRepository
	metrics  *metrics.Metrics
	seedDemo bool
	logger   zerolog.Logger

	mu        sync.RWMutex
	products  []model.Product
	onDeleted []func(productID string)
}

// NewCatalogService creates a new catalog service. Call Load before serving reads.
func NewCatalogService(
	repo repository.ProductRepository,
	m *metrics.Metrics,
	seedDemo bool,
	logger zerolog.Logger,
) CatalogService {
	return &catalogService{
		repo:     repo,
		metrics:  m,
		seedDemo: seedDemo,
		logger:   logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *catalogService) Load(ctx context.Context) error {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load products")
		return fmt.Errorf("failed to load products: %w", err)
	}

	if len(products) == 0 && s.seedDemo {
		s.logger.Info().Int("count", len(demoProducts)).Msg("no products found, seeding demo catalogue")
		for _, draft := range demoProducts {
			p := newProduct(draft)
			if err := s.repo.Create(ctx, &p); err != nil {
				s.logger.Error().Err(err).Str("name", draft.Name).Msg("failed to add demo product")
				continue
			}
			products = append(products, p)
		}
	}

	s.mu.Lock()
	s.products = products
	s.mu.Unlock()

	s.logger.Info().Int("count", len(products)).Msg("catalogue loaded")
	return nil
}

func (s *catalogService) Products() []model.Product {
	return s.filter(func(model.Product) bool { return true })
}

func (s *catalogService) ProductsByCategory(category model.Category) []model.Product {
	return s.filter(func(p model.Product) bool { return p.Category == category })
}

func (s *catalogService) ProductsBySubcategory(category model.Category, subcategory string) []model.Product {
	return s.filter(func(p model.Product) bool {
		return p.Category == category && p.Subcategory == subcategory
	})
}

func (s *catalogService) Subcategories(category model.Category) []string {
	seen := make(map[string]bool)
	subcategories := []string{}
	for _, p := range s.ProductsByCategory(category) {
		if seen[p.Subcategory] {
			continue
		}
		seen[p.Subcategory] = true
		subcategories = append(subcategories, p.Subcategory)
	}
	return subcategories
}

func (s *catalogService) CategoryProducts() map[model.Category][]model.Product {
	grouped := make(map[model.Category][]model.Product, len(model.Categories))
	for _, c := range model.Categories {
		grouped[c] = []model.Product{}
	}
	for _, p := range s.Products() {
		grouped[p.Category] = append(grouped[p.Category], p)
	}
	return grouped
}

func (s *catalogService) AddProduct(ctx context.Context, draft model.ProductDraft) (*model.Product, error) {
	if !draft.Category.Valid() {
		return nil, model.ErrInvalidCategory
	}

	p := newProduct(draft)
	err := s.repo.Create(ctx, &p)
	s.metrics.RecordOperation("catalog", "add_product", err)
	if err != nil {
		s.logger.Error().Err(err).Str("name", draft.Name).Msg("failed to add product")
		return nil, err
	}

	s.mu.Lock()
	s.products = append(s.products, p)
	s.mu.Unlock()

	s.logger.Info().Str("product_id", p.ID).Str("name", p.Name).Msg("product added")
	return &p, nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, product model.Product) (*model.Product, error) {
	if !product.Category.Valid() {
		return nil, model.ErrInvalidCategory
	}
	product.Price = model.ClampPrice(product.Price)
	product.Stock = model.ClampStock(product.Stock)

	err := s.repo.Update(ctx, &product)
	s.metrics.RecordOperation("catalog", "update_product", err)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID).Msg("failed to update product")
		return nil, err
	}

	s.mutate(product.ID, func(p *model.Product) {
		createdAt := p.CreatedAt
		*p = product
		if p.CreatedAt.IsZero() {
			p.CreatedAt = createdAt
		}
	})
	return &product, nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	s.metrics.RecordOperation("catalog", "delete_product", err)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return err
	}

	s.mu.Lock()
	kept := s.products[:0]
	for _, p := range s.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.products = kept
	hooks := append([]func(string){}, s.onDeleted...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(id)
	}

	s.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

func (s *catalogService) OnProductDeleted(fn func(productID string)) {
	s.mu.Lock()
	s.onDeleted = append(s.onDeleted, fn)
	s.mu.Unlock()
}

func (s *catalogService) UpdateProductImage(ctx context.Context, id, image string) error {
	err := s.repo.UpdateImage(ctx, id, image)
	s.metrics.RecordOperation("catalog", "update_image", err)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to update product image")
		return err
	}

	s.mutate(id, func(p *model.Product) { p.Image = image })
	return nil
}

func (s *catalogService) UpdateProductStock(ctx context.Context, id string, stock int) error {
	stock = model.ClampStock(stock)

	err := s.repo.UpdateStock(ctx, id, stock)
	s.metrics.RecordOperation("catalog", "update_stock", err)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Int("stock", stock).Msg("failed to update product stock")
		return err
	}

	s.mutate(id, func(p *model.Product) { p.Stock = stock })
	return nil
}

func (s *catalogService) UpdateProductPrice(ctx context.Context, id string, price decimal.Decimal) error {
	price = model.ClampPrice(price)

	err := s.repo.UpdatePrice(ctx, id, price)
	s.metrics.RecordOperation("catalog", "update_price", err)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Str("price", price.String()).Msg("failed to update product price")
		return err
	}

	s.mutate(id, func(p *model.Product) { p.Price = price })
	return nil
}

func (s *catalogService) FindProductByID(id string) (model.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

func (s *catalogService) filter(keep func(model.Product) bool) []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []model.Product{}
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}

// mutate applies fn to the local product with the given ID, if held.
func (s *catalogService) mutate(id string, fn func(*model.Product)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.products {
		if s.products[i].ID == id {
			fn(&s.products[i])
			return
		}
	}
}

func newProduct(draft model.ProductDraft) model.Product {
	return model.Product{
		ID:          uuid.NewString(),
		Name:        draft.Name,
		Category:    draft.Category,
		Subcategory: draft.Subcategory,
		Price:       model.ClampPrice(draft.Price),
		Stock:       model.ClampStock(draft.Stock),
		Description: draft.Description,
		Image:       draft.Image,
	}
}
