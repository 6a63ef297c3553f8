package relational

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// productRow is the stored form of a product.
type productRow struct {
	ID        int64     `gorm:"column:product_id;primaryKey;autoIncrement"`
	Category  string    `gorm:"column:category;type:varchar(100);not null;index:idx_product_category"`
	Name      string    `gorm:"column:name;type:varchar(255);not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (productRow) TableName() string { return "product" }

func toRow(p domain.Product) productRow {
	return productRow{ID: p.ID(), Category: p.Category(), Name: p.Name()}
}

func (r productRow) toDomain() domain.Product {
	return domain.RestoreProduct(r.ID, r.Category, r.Name)
}

// AutoMigrate creates or updates the product table.
func AutoMigrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&productRow{}); err != nil {
		return fmt.Errorf("migrate product table: %w", err)
	}
	return nil
}

// ProductRepository is a gorm implementation of domain.ProductRepository
type ProductRepository struct {
	db     *gorm.DB
	tracer trace.Tracer
	logger *slog.Logger
}

// NewProductRepository creates a new relational product repository
func NewProductRepository(db *gorm.DB, tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		db:     db,
		tracer: tracer,
		logger: logger,
	}
}

// Save inserts a new row or overwrites the row with the product's id
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Save")
	defer span.End()

	row := toRow(product)

	if product.IsNew() {
		if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
			return domain.Product{}, r.fail(span, "insert product", err)
		}
	} else {
		result := r.db.WithContext(ctx).
			Model(&productRow{}).
			Where("product_id = ?", row.ID).
			Updates(map[string]any{
				"category":   row.Category,
				"name":       row.Name,
				"updated_at": time.Now(),
			})
		if result.Error != nil {
			return domain.Product{}, r.fail(span, "update product", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.Product{}, r.fail(span, "update product", domain.ErrProductNotFound)
		}
	}

	span.SetAttributes(attribute.Int64("product.id", row.ID))
	r.logger.DebugContext(ctx, "Product saved in store",
		slog.Int64("product_id", row.ID),
		slog.Bool("inserted", product.IsNew()),
	)

	span.SetStatus(codes.Ok, "Product saved")
	return row.toDomain(), nil
}

// FindByID retrieves a product by ID
func (r *ProductRepository) FindByID(ctx context.Context, id int64) (domain.Product, error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	var row productRow
	if err := r.db.WithContext(ctx).Where("product_id = ?", id).Take(&row).Error; err != nil {
		return domain.Product{}, r.fail(span, "find product", err)
	}

	span.SetStatus(codes.Ok, "Product found")
	return row.toDomain(), nil
}

// FindAllByCategory returns one page of the products in a category, ordered by category then id
func (r *ProductRepository) FindAllByCategory(ctx context.Context, category string, page domain.PageRequest) (domain.Page[domain.Product], error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindAllByCategory")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.category", category),
		attribute.Int("page.number", page.Page),
		attribute.Int("page.size", page.Size),
	)

	byCategory := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&productRow{}).Where("category = ?", category)
	}

	var total int64
	if err := byCategory().Count(&total).Error; err != nil {
		return domain.Page[domain.Product]{}, r.fail(span, "count products", err)
	}

	var rows []productRow
	err := byCategory().
		Order("category ASC").
		Order("product_id ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Find(&rows).Error
	if err != nil {
		return domain.Page[domain.Product]{}, r.fail(span, "list products", err)
	}

	products := make([]domain.Product, len(rows))
	for i, row := range rows {
		products[i] = row.toDomain()
	}

	span.SetAttributes(attribute.Int64("product.total", total))
	span.SetStatus(codes.Ok, "Products retrieved successfully")
	return domain.NewPage(products, page, total), nil
}

// FindDistinctCategories returns one page of distinct categories in ascending order
func (r *ProductRepository) FindDistinctCategories(ctx context.Context, page domain.PageRequest) (domain.Page[string], error) {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.FindDistinctCategories")
	defer span.End()

	var total int64
	if err := r.db.WithContext(ctx).Model(&productRow{}).Distinct("category").Count(&total).Error; err != nil {
		return domain.Page[string]{}, r.fail(span, "count categories", err)
	}

	var categories []string
	err := r.db.WithContext(ctx).
		Model(&productRow{}).
		Distinct("category").
		Order("category ASC").
		Offset(page.Offset()).
		Limit(page.Size).
		Pluck("category", &categories).Error
	if err != nil {
		return domain.Page[string]{}, r.fail(span, "list categories", err)
	}

	span.SetAttributes(attribute.Int64("category.total", total))
	span.SetStatus(codes.Ok, "Categories retrieved successfully")
	return domain.NewPage(categories, page, total), nil
}

// Delete removes the row with the product's id
func (r *ProductRepository) Delete(ctx context.Context, product domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", product.ID()))

	result := r.db.WithContext(ctx).Where("product_id = ?", product.ID()).Delete(&productRow{})
	if result.Error != nil {
		return r.fail(span, "delete product", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.fail(span, "delete product", domain.ErrProductNotFound)
	}

	r.logger.DebugContext(ctx, "Product deleted from store",
		slog.Int64("product_id", product.ID()),
	)

	span.SetStatus(codes.Ok, "Product deleted")
	return nil
}

// fail classifies a store error and records it on the span.
func (r *ProductRepository) fail(span trace.Span, op string, err error) error {
	err = translateError(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, op+" failed")
	if errors.Is(err, domain.ErrProductNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func translateError(err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, domain.ErrProductNotFound):
		return domain.ErrProductNotFound
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, gorm.ErrInvalidDB),
		errors.As(err, &netErr):
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	default:
		return err
	}
}
