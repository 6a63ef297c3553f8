package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	MaxCategoryLength = 100
	MaxNameLength     = 255
)

var (
	// ErrValidation is the parent of every input validation failure.
	ErrValidation = errors.New("validation failed")

	ErrInvalidProductCategory = fmt.Errorf("%w: product category must be 1-%d characters", ErrValidation, MaxCategoryLength)
	ErrInvalidProductName     = fmt.Errorf("%w: product name must be 1-%d characters", ErrValidation, MaxNameLength)
)

// Product represents the product entity.
//
// A Product is a value: it is built with NewProduct and changed only by
// deriving a copy through the With* methods.
type Product struct {
	id       int64
	category string
	name     string
}

// NewProduct creates a new, not yet persisted product with validation
func NewProduct(category, name string) (Product, error) {
	product := Product{
		category: category,
		name:     name,
	}

	if err := product.Validate(); err != nil {
		return Product{}, err
	}

	return product, nil
}

// RestoreProduct rebuilds a persisted product from stored fields.
// Stored rows are trusted and not re-validated.
func RestoreProduct(id int64, category, name string) Product {
	return Product{id: id, category: category, name: name}
}

func (p Product) ID() int64        { return p.id }
func (p Product) Category() string { return p.category }
func (p Product) Name() string     { return p.name }

// IsNew reports whether the store has not assigned an id yet.
func (p Product) IsNew() bool { return p.id == 0 }

// WithID returns a copy carrying the store-assigned id.
func (p Product) WithID(id int64) Product {
	p.id = id
	return p
}

// WithCategory returns a validated copy with the category replaced.
func (p Product) WithCategory(category string) (Product, error) {
	p.category = category
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// WithName returns a validated copy with the name replaced.
func (p Product) WithName(name string) (Product, error) {
	p.name = name
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

// Validate performs business validation on the product
func (p Product) Validate() error {
	if n := utf8.RuneCountInString(p.category); n == 0 || n > MaxCategoryLength {
		return ErrInvalidProductCategory
	}
	if n := utf8.RuneCountInString(p.name); n == 0 || n > MaxNameLength {
		return ErrInvalidProductName
	}
	return nil
}
