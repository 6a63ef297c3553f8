package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrops-br/product-catalog-api/internal/app/dto"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// DefaultCategoryListLimit bounds ListAllCategories when no limit is configured.
const DefaultCategoryListLimit = 1000

// ErrEmptyPatch is returned for a patch that names no field.
var ErrEmptyPatch = fmt.Errorf("%w: patch must set category or name", domain.ErrValidation)

// ProductService handles product use cases
type ProductService struct {
	repo                  domain.ProductRepository
	tracer                trace.Tracer
	logger                *slog.Logger
	categoryListLimit     int
	productCreatedCounter metric.Int64Counter
	productOperations     metric.Int64Counter
}

// Option customizes a ProductService
type Option func(*ProductService)

// WithCategoryListLimit caps how many categories ListAllCategories returns.
func WithCategoryListLimit(limit int) Option {
	return func(s *ProductService) {
		if limit > 0 {
			s.categoryListLimit = limit
		}
	}
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
	opts ...Option,
) *ProductService {
	productCreatedCounter, _ := meter.Int64Counter(
		"products.created.total",
		metric.WithDescription("Total number of products created"),
	)

	productOperations, _ := meter.Int64Counter(
		"products.operations",
		metric.WithDescription("Total number of product operations"),
	)

	s := &ProductService{
		repo:                  repo,
		tracer:                tracer,
		logger:                logger,
		categoryListLimit:     DefaultCategoryListLimit,
		productCreatedCounter: productCreatedCounter,
		productOperations:     productOperations,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CategoryListLimit is the cap applied by ListAllCategories
func (s *ProductService) CategoryListLimit() int {
	return s.categoryListLimit
}

// CreateProduct creates a new product
func (s *ProductService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	span.SetAttributes(attribute.String("product.category", req.Category))

	s.logger.InfoContext(ctx, "Creating product",
		slog.String("category", req.Category),
		slog.String("name", req.Name),
	)

	product, err := domain.NewProduct(req.Category, req.Name)
	if err != nil {
		return nil, s.fail(ctx, span, "create", "Validation failed", err)
	}

	product, err = s.repo.Save(ctx, product)
	if err != nil {
		return nil, s.fail(ctx, span, "create", "Failed to store product", err)
	}

	span.SetAttributes(attribute.Int64("product.id", product.ID()))

	s.productCreatedCounter.Add(ctx, 1)
	s.record(ctx, "create", "success")

	s.logger.InfoContext(ctx, "Product created successfully",
		slog.Int64("product_id", product.ID()),
	)

	span.SetStatus(codes.Ok, "Product created successfully")
	return dto.ToProductResponse(product), nil
}

// GetProductByID retrieves a product by ID
func (s *ProductService) GetProductByID(ctx context.Context, id int64) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductByID")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	s.logger.InfoContext(ctx, "Getting product by ID",
		slog.Int64("product_id", id),
	)

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "read", "Failed to load product", err)
	}

	s.record(ctx, "read", "success")

	span.SetStatus(codes.Ok, "Product retrieved successfully")
	return dto.ToProductResponse(product), nil
}

// UpdateProduct overwrites category and name of an existing product
func (s *ProductService) UpdateProduct(ctx context.Context, req *dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.UpdateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("product.id", req.ID),
		attribute.String("product.category", req.Category),
	)

	s.logger.InfoContext(ctx, "Updating product",
		slog.Int64("product_id", req.ID),
	)

	current, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		return nil, s.fail(ctx, span, "update", "Failed to load product", err)
	}

	replacement, err := domain.NewProduct(req.Category, req.Name)
	if err != nil {
		return nil, s.fail(ctx, span, "update", "Validation failed", err)
	}

	saved, err := s.repo.Save(ctx, replacement.WithID(current.ID()))
	if err != nil {
		return nil, s.fail(ctx, span, "update", "Failed to store product", err)
	}

	s.record(ctx, "update", "success")

	s.logger.InfoContext(ctx, "Product updated successfully",
		slog.Int64("product_id", saved.ID()),
	)

	span.SetStatus(codes.Ok, "Product updated successfully")
	return dto.ToProductResponse(saved), nil
}

// PatchProduct changes only the fields present in req
func (s *ProductService) PatchProduct(ctx context.Context, id int64, req *dto.PatchProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.PatchProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	if req.IsEmpty() {
		return nil, s.fail(ctx, span, "patch", "Validation failed", ErrEmptyPatch)
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "patch", "Failed to load product", err)
	}

	if req.Category != nil {
		if product, err = product.WithCategory(*req.Category); err != nil {
			return nil, s.fail(ctx, span, "patch", "Validation failed", err)
		}
	}
	if req.Name != nil {
		if product, err = product.WithName(*req.Name); err != nil {
			return nil, s.fail(ctx, span, "patch", "Validation failed", err)
		}
	}

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		return nil, s.fail(ctx, span, "patch", "Failed to store product", err)
	}

	s.record(ctx, "patch", "success")

	s.logger.InfoContext(ctx, "Product patched successfully",
		slog.Int64("product_id", saved.ID()),
		slog.Bool("category_changed", req.Category != nil),
		slog.Bool("name_changed", req.Name != nil),
	)

	span.SetStatus(codes.Ok, "Product patched successfully")
	return dto.ToProductResponse(saved), nil
}

// DeleteProduct removes a product
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "ProductService.DeleteProduct")
	defer span.End()

	span.SetAttributes(attribute.Int64("product.id", id))

	s.logger.InfoContext(ctx, "Deleting product",
		slog.Int64("product_id", id),
	)

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.fail(ctx, span, "delete", "Failed to load product", err)
	}

	if err := s.repo.Delete(ctx, product); err != nil {
		return s.fail(ctx, span, "delete", "Failed to delete product", err)
	}

	s.record(ctx, "delete", "success")

	s.logger.InfoContext(ctx, "Product deleted successfully",
		slog.Int64("product_id", id),
	)

	span.SetStatus(codes.Ok, "Product deleted successfully")
	return nil
}

// ListProductsByCategory returns one page of a category, sorted by category
func (s *ProductService) ListProductsByCategory(ctx context.Context, req *dto.GetProductListRequest) (*dto.ProductListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProductsByCategory")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.category", req.Category),
		attribute.Int("page.number", req.Page),
		attribute.Int("page.size", req.Size),
	)

	pageReq, err := domain.NewPageRequest(req.Page, req.Size)
	if err != nil {
		return nil, s.fail(ctx, span, "list", "Validation failed", err)
	}

	page, err := s.repo.FindAllByCategory(ctx, req.Category, pageReq)
	if err != nil {
		return nil, s.fail(ctx, span, "list", "Failed to retrieve products", err)
	}

	span.SetAttributes(
		attribute.Int("product.count", len(page.Items)),
		attribute.Int64("product.total", page.TotalElements),
	)

	s.record(ctx, "list", "success")

	s.logger.InfoContext(ctx, "Products listed successfully",
		slog.String("category", req.Category),
		slog.Int("count", len(page.Items)),
		slog.Int64("total", page.TotalElements),
	)

	span.SetStatus(codes.Ok, "Products listed successfully")
	return dto.ToProductListResponse(page), nil
}

// ListCategories returns one page of distinct categories in ascending order
func (s *ProductService) ListCategories(ctx context.Context, req *dto.GetCategoryListRequest) (*dto.CategoryListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListCategories")
	defer span.End()

	span.SetAttributes(
		attribute.Int("page.number", req.Page),
		attribute.Int("page.size", req.Size),
	)

	pageReq, err := domain.NewBoundedPageRequest(req.Page, req.Size, s.categoryListLimit)
	if err != nil {
		return nil, s.fail(ctx, span, "list_categories", "Validation failed", err)
	}

	page, err := s.repo.FindDistinctCategories(ctx, pageReq)
	if err != nil {
		return nil, s.fail(ctx, span, "list_categories", "Failed to retrieve categories", err)
	}

	span.SetAttributes(attribute.Int64("category.total", page.TotalElements))

	s.record(ctx, "list_categories", "success")

	span.SetStatus(codes.Ok, "Categories listed successfully")
	return dto.ToCategoryListResponse(page), nil
}

// ListAllCategories returns the first CategoryListLimit distinct categories
func (s *ProductService) ListAllCategories(ctx context.Context) ([]string, error) {
	resp, err := s.ListCategories(ctx, &dto.GetCategoryListRequest{Page: 0, Size: s.categoryListLimit})
	if err != nil {
		return nil, err
	}
	if resp.TotalElements > int64(len(resp.Categories)) {
		s.logger.WarnContext(ctx, "Category list truncated",
			slog.Int("limit", s.categoryListLimit),
			slog.Int64("total", resp.TotalElements),
		)
	}
	return resp.Categories, nil
}

// fail records err on the span, logs it and counts the failed operation.
func (s *ProductService) fail(ctx context.Context, span trace.Span, operation, status string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, status)

	result := resultOf(err)
	if result == "failure" {
		s.logger.ErrorContext(ctx, status,
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
	} else {
		s.logger.WarnContext(ctx, status,
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
	}

	s.record(ctx, operation, result)
	return err
}

func (s *ProductService) record(ctx context.Context, operation, result string) {
	s.productOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "failure"
	}
}
