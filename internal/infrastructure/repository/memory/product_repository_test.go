package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/mrops-br/product-catalog-api/internal/domain"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestRepository() *ProductRepository {
	return NewProductRepository(noop.NewTracerProvider().Tracer("test"), slog.New(slog.DiscardHandler))
}

func mustProduct(t *testing.T, category, name string) domain.Product {
	t.Helper()
	p, err := domain.NewProduct(category, name)
	if err != nil {
		t.Fatalf("NewProduct(%q, %q): %v", category, name, err)
	}
	return p
}

func TestProductRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository()

	first, err := repo.Save(ctx, mustProduct(t, "books", "Go in Action"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	second, err := repo.Save(ctx, mustProduct(t, "books", "Concurrency in Go"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if first.ID() == 0 || second.ID() <= first.ID() {
		t.Fatalf("ids not assigned increasingly: %d, %d", first.ID(), second.ID())
	}

	got, err := repo.FindByID(ctx, first.ID())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if got != first {
		t.Errorf("FindByID = %+v, want %+v", got, first)
	}

	renamed, _ := got.WithName("Go in Action, 2nd ed.")
	if _, err := repo.Save(ctx, renamed); err != nil {
		t.Fatalf("Save (overwrite): %v", err)
	}
	got, _ = repo.FindByID(ctx, first.ID())
	if got.Name() != "Go in Action, 2nd ed." {
		t.Errorf("overwrite not applied, name = %q", got.Name())
	}

	if _, err := repo.FindByID(ctx, 999); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("FindByID(999) error = %v, want %v", err, domain.ErrProductNotFound)
	}
	if _, err := repo.Save(ctx, renamed.WithID(999)); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("Save with unknown id error = %v, want %v", err, domain.ErrProductNotFound)
	}
}

func TestProductRepository_FindAllByCategory(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository()

	for i := 0; i < 25; i++ {
		if _, err := repo.Save(ctx, mustProduct(t, "books", fmt.Sprintf("book%d", i))); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if _, err := repo.Save(ctx, mustProduct(t, "games", "chess")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	tests := []struct {
		name       string
		page       domain.PageRequest
		wantItems  int
		wantPages  int
		wantFirstN string
	}{
		{name: "first page", page: domain.PageRequest{Page: 0, Size: 10}, wantItems: 10, wantPages: 3, wantFirstN: "book0"},
		{name: "last page", page: domain.PageRequest{Page: 2, Size: 10}, wantItems: 5, wantPages: 3, wantFirstN: "book20"},
		{name: "past the end", page: domain.PageRequest{Page: 5, Size: 10}, wantItems: 0, wantPages: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.FindAllByCategory(ctx, "books", tt.page)
			if err != nil {
				t.Fatalf("FindAllByCategory: %v", err)
			}
			if len(page.Items) != tt.wantItems {
				t.Fatalf("items = %d, want %d", len(page.Items), tt.wantItems)
			}
			if page.TotalElements != 25 {
				t.Errorf("total = %d, want 25", page.TotalElements)
			}
			if page.TotalPages() != tt.wantPages {
				t.Errorf("total pages = %d, want %d", page.TotalPages(), tt.wantPages)
			}
			if tt.wantFirstN != "" && page.Items[0].Name() != tt.wantFirstN {
				t.Errorf("first item = %q, want %q", page.Items[0].Name(), tt.wantFirstN)
			}
			for i := 1; i < len(page.Items); i++ {
				if page.Items[i-1].ID() >= page.Items[i].ID() {
					t.Errorf("items not ordered by id inside the category")
				}
			}
		})
	}
}

func TestProductRepository_FindDistinctCategories(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository()

	for _, c := range []string{"toys", "books", "games", "books", "toys"} {
		if _, err := repo.Save(ctx, mustProduct(t, c, "item")); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	page, err := repo.FindDistinctCategories(ctx, domain.PageRequest{Page: 0, Size: 10})
	if err != nil {
		t.Fatalf("FindDistinctCategories: %v", err)
	}

	want := []string{"books", "games", "toys"}
	if len(page.Items) != len(want) {
		t.Fatalf("categories = %v, want %v", page.Items, want)
	}
	for i := range want {
		if page.Items[i] != want[i] {
			t.Errorf("categories[%d] = %q, want %q", i, page.Items[i], want[i])
		}
	}
	if page.TotalElements != 3 {
		t.Errorf("total = %d, want 3", page.TotalElements)
	}
}

func TestProductRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository()

	saved, err := repo.Save(ctx, mustProduct(t, "books", "Go in Action"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := repo.Delete(ctx, saved); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, saved.ID()); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("FindByID after delete error = %v, want %v", err, domain.ErrProductNotFound)
	}
	if err := repo.Delete(ctx, saved); !errors.Is(err, domain.ErrProductNotFound) {
		t.Errorf("second Delete error = %v, want %v", err, domain.ErrProductNotFound)
	}
}
