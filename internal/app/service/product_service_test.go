package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"testing"

	"github.com/mrops-br/product-catalog-api/internal/app/dto"
	"github.com/mrops-br/product-catalog-api/internal/domain"
	"github.com/mrops-br/product-catalog-api/internal/infrastructure/repository/memory"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

type fixture struct {
	svc      *ProductService
	spans    *tracetest.SpanRecorder
	reader   *sdkmetric.ManualReader
	ctx      context.Context
	teardown func()
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	logger := slog.New(slog.DiscardHandler)

	repo := memory.NewProductRepository(noop.NewTracerProvider().Tracer("test"), logger)
	svc := NewProductService(repo, tp.Tracer("test"), mp.Meter("test"), logger, opts...)

	return &fixture{
		svc:    svc,
		spans:  spans,
		reader: reader,
		ctx:    context.Background(),
		teardown: func() {
			_ = tp.Shutdown(context.Background())
			_ = mp.Shutdown(context.Background())
		},
	}
}

func (f *fixture) create(t *testing.T, category, name string) *dto.ProductResponse {
	t.Helper()
	p, err := f.svc.CreateProduct(f.ctx, &dto.CreateProductRequest{Category: category, Name: name})
	if err != nil {
		t.Fatalf("CreateProduct(%s, %s): %v", category, name, err)
	}
	return p
}

// operations sums products.operations by "operation/result".
func (f *fixture) operations(t *testing.T) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := f.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}

	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch m.Name {
				case "products.operations":
					op, _ := dp.Attributes.Value(attribute.Key("operation"))
					res, _ := dp.Attributes.Value(attribute.Key("result"))
					out[op.AsString()+"/"+res.AsString()] += dp.Value
				case "products.created.total":
					out["created"] += dp.Value
				}
			}
		}
	}
	return out
}

func TestProductService_CatalogScenario(t *testing.T) {
	f := newFixture(t)
	defer f.teardown()

	ids := make([]int64, 0, 100)
	for i := 0; i < 100; i++ {
		p := f.create(t, fmt.Sprintf("category%d", i), fmt.Sprintf("name%d", i))
		ids = append(ids, p.ID)
	}

	first, err := f.svc.GetProductByID(f.ctx, ids[0])
	if err != nil {
		t.Fatalf("GetProductByID: %v", err)
	}
	if first.Category != "category0" || first.Name != "name0" {
		t.Errorf("first product = %+v", first)
	}

	updated, err := f.svc.UpdateProduct(f.ctx, &dto.UpdateProductRequest{ID: ids[0], Category: "category0", Name: "renamed"})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.ID != ids[0] || updated.Name != "renamed" {
		t.Errorf("updated = %+v", updated)
	}

	list, err := f.svc.ListProductsByCategory(f.ctx, &dto.GetProductListRequest{Category: "category0", Page: 0, Size: 10})
	if err != nil {
		t.Fatalf("ListProductsByCategory: %v", err)
	}
	if len(list.Products) != 1 || list.TotalElements != 1 || list.TotalPages != 1 || list.Page != 0 {
		t.Errorf("list = %+v", list)
	}

	if err := f.svc.DeleteProduct(f.ctx, ids[0]); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if _, err := f.svc.GetProductByID(f.ctx, ids[0]); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}

	ops := f.operations(t)
	if ops["created"] != 100 || ops["create/success"] != 100 {
		t.Errorf("create counters = %d/%d", ops["created"], ops["create/success"])
	}
	if ops["read/not_found"] != 1 || ops["delete/success"] != 1 || ops["update/success"] != 1 {
		t.Errorf("operation counters = %v", ops)
	}
}

func TestProductService_CreateInvalid(t *testing.T) {
	f := newFixture(t)
	defer f.teardown()

	_, err := f.svc.CreateProduct(f.ctx, &dto.CreateProductRequest{Category: "", Name: "x"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	ended := f.spans.Ended()
	if len(ended) != 1 || ended[0].Name() != "ProductService.CreateProduct" {
		t.Fatalf("unexpected spans %v", ended)
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", ended[0].Status().Code)
	}
	if ops := f.operations(t); ops["create/invalid"] != 1 || ops["created"] != 0 {
		t.Errorf("counters = %v", ops)
	}
}

func TestProductService_UpdateMissing(t *testing.T) {
	f := newFixture(t)
	defer f.teardown()

	_, err := f.svc.UpdateProduct(f.ctx, &dto.UpdateProductRequest{ID: 99, Category: "c", Name: "n"})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProductService_UpdateReplacesBothFields(t *testing.T) {
	f := newFixture(t)
	defer f.teardown()

	p := f.create(t, "books", "Dune")

	_, err := f.svc.UpdateProduct(f.ctx, &dto.UpdateProductRequest{ID: p.ID, Category: "", Name: "Dune Messiah"})
	if !errors.Is(err, domain.ErrInvalidProductCategory) {
		t.Fatalf("expected blank category to be rejected, got %v", err)
	}

	got, _ := f.svc.GetProductByID(f.ctx, p.ID)
	if got.Category != "books" || got.Name != "Dune" {
		t.Errorf("failed update must not change the product: %+v", got)
	}
}

func TestProductService_PatchProduct(t *testing.T) {
	strPtr := func(s string) *string { return &s }

	tests := []struct {
		name     string
		req      dto.PatchProductRequest
		wantErr  error
		wantCat  string
		wantName string
	}{
		{name: "name only", req: dto.PatchProductRequest{Name: strPtr("Children of Dune")}, wantCat: "books", wantName: "Children of Dune"},
		{name: "category only", req: dto.PatchProductRequest{Category: strPtr("sci-fi")}, wantCat: "sci-fi", wantName: "Dune"},
		{name: "both", req: dto.PatchProductRequest{Category: strPtr("sci-fi"), Name: strPtr("Dune I")}, wantCat: "sci-fi", wantName: "Dune I"},
		{name: "empty", req: dto.PatchProductRequest{}, wantErr: ErrEmptyPatch},
		{name: "blank name", req: dto.PatchProductRequest{Name: strPtr("")}, wantErr: domain.ErrInvalidProductName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			defer f.teardown()
			p := f.create(t, "books", "Dune")

			got, err := f.svc.PatchProduct(f.ctx, p.ID, &tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PatchProduct: %v", err)
			}
			if got.ID != p.ID || got.Category != tt.wantCat || got.Name != tt.wantName {
				t.Errorf("patched = %+v", got)
			}
		})
	}
}

func TestProductService_PatchMissing(t *testing.T) {
	f := newFixture(t)
	defer f.teardown()

	name := "x"
	if _, err := f.svc.PatchProduct(f.ctx, 5, &dto.PatchProductRequest{Name: &name}); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestProductService_DeleteMissing(t *testing.T) {
	f := newFixture(t)
	defer f.teardown()

	if err := f.svc.DeleteProduct(f.ctx, 42); !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if ops := f.operations(t); ops["delete/not_found"] != 1 {
		t.Errorf("counters = %v", ops)
	}
}

func TestProductService_ListProductsByCategoryBounds(t *testing.T) {
	f := newFixture(t)
	defer f.teardown()

	for i := 0; i < 5; i++ {
		f.create(t, "books", fmt.Sprintf("book%d", i))
	}
	f.create(t, "games", "chess")

	page, err := f.svc.ListProductsByCategory(f.ctx, &dto.GetProductListRequest{Category: "books", Page: 1, Size: 2})
	if err != nil {
		t.Fatalf("ListProductsByCategory: %v", err)
	}
	if len(page.Products) != 2 || page.TotalElements != 5 || page.TotalPages != 3 || page.Page != 1 {
		t.Errorf("page = %+v", page)
	}
	for _, p := range page.Products {
		if p.Category != "books" {
			t.Errorf("foreign category in page: %+v", p)
		}
	}

	for _, req := range []dto.GetProductListRequest{
		{Category: "books", Page: -1, Size: 10},
		{Category: "books", Page: 0, Size: 0},
		{Category: "books", Page: 0, Size: domain.MaxPageSize + 1},
		{Category: "books", Page: math.MaxInt/10 + 1, Size: 10},
	} {
		if _, err := f.svc.ListProductsByCategory(f.ctx, &req); !errors.Is(err, domain.ErrInvalidPageRequest) {
			t.Errorf("%+v: expected invalid page request, got %v", req, err)
		}
	}

	empty, err := f.svc.ListProductsByCategory(f.ctx, &dto.GetProductListRequest{Category: "none", Page: 0, Size: 10})
	if err != nil {
		t.Fatalf("ListProductsByCategory: %v", err)
	}
	if empty.Products == nil || len(empty.Products) != 0 || empty.TotalPages != 0 {
		t.Errorf("empty page = %+v", empty)
	}
}

func TestProductService_ListCategories(t *testing.T) {
	f := newFixture(t, WithCategoryListLimit(2))
	defer f.teardown()

	for _, c := range []string{"toys", "books", "games", "books"} {
		f.create(t, c, "item")
	}

	page, err := f.svc.ListCategories(f.ctx, &dto.GetCategoryListRequest{Page: 1, Size: 2})
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(page.Categories) != 1 || page.Categories[0] != "toys" || page.TotalElements != 3 || page.TotalPages != 2 {
		t.Errorf("page = %+v", page)
	}

	if _, err := f.svc.ListCategories(f.ctx, &dto.GetCategoryListRequest{Page: 0, Size: 3}); !errors.Is(err, domain.ErrInvalidPageRequest) {
		t.Errorf("size above the configured limit must be rejected, got %v", err)
	}
	if _, err := f.svc.ListCategories(f.ctx, &dto.GetCategoryListRequest{Page: math.MaxInt / 2, Size: 2}); !errors.Is(err, domain.ErrInvalidPageRequest) {
		t.Errorf("page whose offset overflows must be rejected, got %v", err)
	}

	all, err := f.svc.ListAllCategories(f.ctx)
	if err != nil {
		t.Fatalf("ListAllCategories: %v", err)
	}
	if len(all) != 2 || all[0] != "books" || all[1] != "games" {
		t.Errorf("ListAllCategories = %v, want [books games]", all)
	}
}

func TestWithCategoryListLimit_IgnoresNonPositive(t *testing.T) {
	f := newFixture(t, WithCategoryListLimit(0))
	defer f.teardown()

	if got := f.svc.CategoryListLimit(); got != DefaultCategoryListLimit {
		t.Errorf("CategoryListLimit() = %d, want %d", got, DefaultCategoryListLimit)
	}
}
