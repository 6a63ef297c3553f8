package domain

import (
	"context"
	"errors"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrStoreUnavailable = errors.New("product store unavailable")
)

// ProductRepository defines the contract for product storage
type ProductRepository interface {
	// Save inserts a new product when it has no id, otherwise it overwrites
	// the stored row with the same id. The returned product carries the id.
	Save(ctx context.Context, product Product) (Product, error)
	FindByID(ctx context.Context, id int64) (Product, error)
	// FindAllByCategory returns matches ordered ascending by category.
	FindAllByCategory(ctx context.Context, category string, page PageRequest) (Page[Product], error)
	FindDistinctCategories(ctx context.Context, page PageRequest) (Page[string], error)
	Delete(ctx context.Context, product Product) error
}
