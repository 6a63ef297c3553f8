package dto

import (
	"github.com/mrops-br/product-catalog-api/internal/domain"
)

// CreateProductRequest represents the request to create a product
type CreateProductRequest struct {
	Category string `json:"category" validate:"required,max=100"`
	Name     string `json:"name" validate:"required,max=255"`
}

// UpdateProductRequest replaces both mutable fields of an existing product.
type UpdateProductRequest struct {
	ID       int64  `json:"id" validate:"required,gt=0"`
	Category string `json:"category" validate:"required,max=100"`
	Name     string `json:"name" validate:"required,max=255"`
}

// ReplaceProductRequest is the body of PUT /products/{productId}; the id comes from the path.
type ReplaceProductRequest struct {
	Category string `json:"category" validate:"required,max=100"`
	Name     string `json:"name" validate:"required,max=255"`
}

// PatchProductRequest changes only the fields that are present.
type PatchProductRequest struct {
	Category *string `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
}

// IsEmpty reports whether the patch carries no field at all.
func (r *PatchProductRequest) IsEmpty() bool {
	return r.Category == nil && r.Name == nil
}

// GetProductListRequest selects one page of products in a category
type GetProductListRequest struct {
	Category string `json:"category" validate:"required,max=100"`
	Page     int    `json:"page" validate:"gte=0"`
	Size     int    `json:"size" validate:"gte=1,lte=100"`
}

// GetCategoryListRequest selects one page of distinct categories
type GetCategoryListRequest struct {
	Page int `json:"page" validate:"gte=0"`
	Size int `json:"size" validate:"gte=1"`
}

// ProductResponse represents the product response
type ProductResponse struct {
	ID       int64  `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
}

// ProductListResponse is one page of products
type ProductListResponse struct {
	Products      []*ProductResponse `json:"products"`
	TotalPages    int                `json:"totalPages"`
	TotalElements int64              `json:"totalElements"`
	Page          int                `json:"page"`
}

// CategoryListResponse is one page of distinct categories
type CategoryListResponse struct {
	Categories    []string `json:"categories"`
	TotalPages    int      `json:"totalPages"`
	TotalElements int64    `json:"totalElements"`
	Page          int      `json:"page"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p domain.Product) *ProductResponse {
	return &ProductResponse{
		ID:       p.ID(),
		Category: p.Category(),
		Name:     p.Name(),
	}
}

// ToProductResponseList converts a list of domain Products to ProductResponse list
func ToProductResponseList(products []domain.Product) []*ProductResponse {
	responses := make([]*ProductResponse, len(products))
	for i, p := range products {
		responses[i] = ToProductResponse(p)
	}
	return responses
}

// ToProductListResponse converts a page of products
func ToProductListResponse(page domain.Page[domain.Product]) *ProductListResponse {
	return &ProductListResponse{
		Products:      ToProductResponseList(page.Items),
		TotalPages:    page.TotalPages(),
		TotalElements: page.TotalElements,
		Page:          page.Page,
	}
}

// ToCategoryListResponse converts a page of categories
func ToCategoryListResponse(page domain.Page[string]) *CategoryListResponse {
	return &CategoryListResponse{
		Categories:    page.Items,
		TotalPages:    page.TotalPages(),
		TotalElements: page.TotalElements,
		Page:          page.Page,
	}
}
