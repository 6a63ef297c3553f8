package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/product-catalog-api/internal/app/dto"
	"github.com/mrops-br/product-catalog-api/internal/app/service"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http/response"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/http/validation"
)

const (
	// maxBodyBytes caps every request body
	maxBodyBytes = 1 << 20

	defaultPageSize = 20
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service   *service.ProductService
	validator *validation.Validator
	logger    *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, validator *validation.Validator, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service:   service,
		validator: validator,
		logger:    logger,
	}
}

// ListProducts handles GET /products?category=&page=&size=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := queryInt(query.Get("page"), "page", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	size, err := queryInt(query.Get("size"), "size", defaultPageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req := dto.GetProductListRequest{Category: query.Get("category"), Page: page, Size: size}
	h.listProducts(w, r, &req)
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	h.createProduct(w, r, http.StatusCreated)
}

// GetProduct handles GET /products/{productId} and GET /get/product/by/{productId}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// ReplaceProduct handles PUT /products/{productId}
func (h *ProductHandler) ReplaceProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var body dto.ReplaceProductRequest
	if err := h.decode(w, r, &body); err != nil {
		h.fail(w, r, err)
		return
	}

	h.updateProduct(w, r, &dto.UpdateProductRequest{ID: id, Category: body.Category, Name: body.Name})
}

// PatchProduct handles PATCH /products/{productId}
func (h *ProductHandler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var req dto.PatchProductRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.service.PatchProduct(r.Context(), id, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/{productId}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCategories handles GET /categories?page=&size=
func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := queryInt(query.Get("page"), "page", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	size, err := queryInt(query.Get("size"), "size", defaultPageSize)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	req := dto.GetCategoryListRequest{Page: page, Size: size}
	if err := h.validator.Struct(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	categories, err := h.service.ListCategories(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, categories)
}

// LegacyCreateProduct handles POST /create/product
func (h *ProductHandler) LegacyCreateProduct(w http.ResponseWriter, r *http.Request) {
	h.createProduct(w, r, http.StatusOK)
}

// LegacyDeleteProduct handles POST /delete/product/{productId}
func (h *ProductHandler) LegacyDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, true)
}

// LegacyUpdateProduct handles POST /update/product
func (h *ProductHandler) LegacyUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProductRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	h.updateProduct(w, r, &req)
}

// LegacyListProducts handles POST /product/list
func (h *ProductHandler) LegacyListProducts(w http.ResponseWriter, r *http.Request) {
	var req dto.GetProductListRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	h.listProducts(w, r, &req)
}

// LegacyListCategories handles GET /product/category/list
func (h *ProductHandler) LegacyListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListAllCategories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, categories)
}

func (h *ProductHandler) createProduct(w http.ResponseWriter, r *http.Request, status int) {
	var req dto.CreateProductRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, status, product)
}

func (h *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request, req *dto.UpdateProductRequest) {
	if err := h.validator.Struct(req); err != nil {
		h.fail(w, r, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, product)
}

func (h *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request, req *dto.GetProductListRequest) {
	if err := h.validator.Struct(req); err != nil {
		h.fail(w, r, err)
		return
	}

	products, err := h.service.ListProductsByCategory(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, products)
}

// decode reads a size-capped JSON body into dst
func (h *ProductHandler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)

		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return fmt.Errorf("%w: request body exceeds %d bytes", domain.ErrValidation, tooLarge.Limit)
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: request body is empty", domain.ErrValidation)
		default:
			return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrValidation, err)
		}
	}
	return nil
}

func (h *ProductHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	response.FromError(w, r, h.logger, err)
}

func productID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "productId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: productId must be a positive integer, got %q", domain.ErrValidation, raw)
	}
	return id, nil
}

func queryInt(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrValidation, name, raw)
	}
	return v, nil
}
