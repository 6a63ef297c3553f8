package memory

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductRepository is an in-memory implementation of domain.ProductRepository
type ProductRepository struct {
	mu       sync.RWMutex
	nextID   int64
	products map[int64]domain.Product
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewProductRepository creates a new in-memory product repository
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		products: make(map[int64]domain.Product),
		tracer:   tracer,
		logger:   logger,
	}
}

// Save inserts or overwrites a product
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Save")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if product.IsNew() {
		r.nextID++
		product = product.WithID(r.nextID)
	} else if _, exists := r.products[product.ID()]; !exists {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		return domain.Product{}, domain.ErrProductNotFound
	}

	r.products[product.ID()] = product

	span.SetAttributes(attribute.Int64("product.id", product.ID()))
	r.logger.DebugContext(ctx, "Product saved in repository",
		slog.Int64("product_id", product.ID()),
		slog.String("product_category", product.Category()),
	)

	span.SetStatus(codes.Ok, "Product saved")
	return product, nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		r.logger.DebugContext(ctx, "Product not found in repository",
			slog.Int64("product_id", id),
		)
		return domain.Product{}, domain.ErrProductNotFound
	}

	span.SetStatus(codes.Ok, "Product found")
	return product, nil
}

// FindAllByCategory returns one page of the products in a category, ordered by category then id
func (r *ProductRepository) FindAllByCategory(ctx context.Context, category string, page domain.PageRequest) (domain.Page[domain.Product], error) {
	_, span := r.tracer.Start(ctx, "ProductRepository.FindAllByCategory")
	defer span.End()

	span.SetAttributes(attribute.String("product.category", category))

	r.mu.RLock()
	matches := make([]domain.Product, 0)
	for _, product := range r.products {
		if product.Category() == category {
			matches = append(matches, product)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Category() != matches[j].Category() {
			return matches[i].Category() < matches[j].Category()
		}
		return matches[i].ID() < matches[j].ID()
	})

	span.SetAttributes(attribute.Int("product.count", len(matches)))
	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return domain.NewPage(slice(matches, page), page, int64(len(matches))), nil
}

// FindDistinctCategories returns one page of distinct categories in ascending order
func (r *ProductRepository) FindDistinctCategories(ctx context.Context, page domain.PageRequest) (domain.Page[string], error) {
	_, span := r.tracer.Start(ctx, "ProductRepository.FindDistinctCategories")
	defer span.End()

	r.mu.RLock()
	seen := make(map[string]struct{})
	for _, product := range r.products {
		seen[product.Category()] = struct{}{}
	}
	r.mu.RUnlock()

	categories := make([]string, 0, len(seen))
	for category := range seen {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	span.SetAttributes(attribute.Int("category.count", len(categories)))
	span.SetStatus(codes.Ok, "Categories retrieved successfully")
	return domain.NewPage(slice(categories, page), page, int64(len(categories))), nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, product domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", product.ID()))

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID()]; !exists {
		span.RecordError(domain.ErrProductNotFound)
		span.SetStatus(codes.Error, "Product not found")
		return domain.ErrProductNotFound
	}
	delete(r.products, product.ID())

	r.logger.DebugContext(ctx, "Product deleted from repository",
		slog.Int64("product_id", product.ID()),
	)

	span.SetStatus(codes.Ok, "Product deleted")
	return nil
}

func slice[T any](items []T, page domain.PageRequest) []T {
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
