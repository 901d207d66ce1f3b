package services

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"
	"testing"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
)

type stubUploader struct {
	url     string
	err     error
	uploads []string
}

func (s *stubUploader) UploadProductImage(_ context.Context, productID string, contentType string, _ io.Reader) (string, error) {
	s.uploads = append(s.uploads, productID+":"+contentType)
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

func newTestCatalogService(t *testing.T, products *stubProductRepo, images ImageUploader) CatalogService {
	t.Helper()
	if products == nil {
		products = newStubProductRepo()
	}
	svc, err := NewCatalogService(CatalogServiceDeps{Products: products, Images: images})
	if err != nil {
		t.Fatalf("NewCatalogService: %v", err)
	}
	return svc
}

func TestCreateProductMintsSlugAndSanitises(t *testing.T) {
	products := newStubProductRepo()
	svc := newTestCatalogService(t, products, nil)

	product, err := svc.Create(context.Background(), CreateProductCommand{
		Name:        "Blue Shirt",
		Price:       49.5,
		Stock:       10,
		Description: `Soft cotton <script>alert("x")</script><b>shirt</b>`,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !regexp.MustCompile(`^blue-shirt-[0-9a-z]{4}$`).MatchString(product.Slug) {
		t.Fatalf("slug = %q", product.Slug)
	}
	if strings.Contains(product.Description, "script") {
		t.Fatalf("description not sanitised: %q", product.Description)
	}
	if !strings.Contains(product.Description, "<b>shirt</b>") {
		t.Fatalf("benign markup stripped: %q", product.Description)
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc := newTestCatalogService(t, nil, nil)

	_, err := svc.Create(context.Background(), CreateProductCommand{
		Name:     "x",
		Price:    -1,
		Stock:    -3,
		Discount: 150,
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(vErr.Fields) != 4 {
		t.Fatalf("expected 4 field errors, got %+v", vErr.Fields)
	}
}

func TestCreateProductsWithSameNameGetDistinctSlugs(t *testing.T) {
	products := newStubProductRepo()
	svc := newTestCatalogService(t, products, nil)

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		product, err := svc.Create(context.Background(), CreateProductCommand{Name: "Blue Shirt", Price: 10})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[product.Slug] {
			t.Fatalf("duplicate slug %q", product.Slug)
		}
		seen[product.Slug] = true
	}
}

func TestGetProductByIDThenSlug(t *testing.T) {
	products := newStubProductRepo()
	svc := newTestCatalogService(t, products, nil)

	created, err := svc.Create(context.Background(), CreateProductCommand{Name: "Red Scarf", Price: 15})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	byID, err := svc.Get(context.Background(), created.ID)
	if err != nil || byID.ID != created.ID {
		t.Fatalf("Get by id: %v %+v", err, byID)
	}
	bySlug, err := svc.Get(context.Background(), created.Slug)
	if err != nil || bySlug.ID != created.ID {
		t.Fatalf("Get by slug: %v %+v", err, bySlug)
	}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAppliesQuerySubstringMatch(t *testing.T) {
	products := newStubProductRepo()
	svc := newTestCatalogService(t, products, nil)

	for _, name := range []string{"Blue Shirt", "Blue Jeans", "Red Scarf"} {
		if _, err := svc.Create(context.Background(), CreateProductCommand{Name: name, Price: 10}); err != nil {
			t.Fatalf("Create %q: %v", name, err)
		}
	}

	matched, err := svc.List(context.Background(), domain.ProductListFilter{Query: "blue"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matched))
	}
	for _, product := range matched {
		if !strings.Contains(strings.ToLower(product.Name), "blue") {
			t.Fatalf("unexpected match %q", product.Name)
		}
	}
}

func TestUpdateProductKeepsSlugOnRename(t *testing.T) {
	products := newStubProductRepo()
	svc := newTestCatalogService(t, products, nil)

	created, err := svc.Create(context.Background(), CreateProductCommand{Name: "Blue Shirt", Price: 10})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	name := "Navy Shirt"
	price := 12.5
	updated, err := svc.Update(context.Background(), created.ID, UpdateProductCommand{Name: &name, Price: &price})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Navy Shirt" || updated.Price != 12.5 {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Slug != created.Slug {
		t.Fatalf("slug changed on rename: %q -> %q", created.Slug, updated.Slug)
	}
}

func TestUpdateProductRejectsBadDiscount(t *testing.T) {
	products := newStubProductRepo()
	svc := newTestCatalogService(t, products, nil)

	created, err := svc.Create(context.Background(), CreateProductCommand{Name: "Blue Shirt", Price: 10})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	discount := 120.0
	_, err = svc.Update(context.Background(), created.ID, UpdateProductCommand{Discount: &discount})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestAttachImageAppendsURL(t *testing.T) {
	products := newStubProductRepo()
	uploader := &stubUploader{url: "https://cdn.example.com/products/p/img.jpg"}
	svc := newTestCatalogService(t, products, uploader)

	created, err := svc.Create(context.Background(), CreateProductCommand{Name: "Blue Shirt", Price: 10})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.AttachImage(context.Background(), created.ID, "image/jpeg", strings.NewReader("img-bytes"))
	if err != nil {
		t.Fatalf("AttachImage: %v", err)
	}
	if len(updated.Images) != 1 || updated.Images[0] != uploader.url {
		t.Fatalf("images = %+v", updated.Images)
	}
	if len(uploader.uploads) != 1 || uploader.uploads[0] != created.ID+":image/jpeg" {
		t.Fatalf("uploads = %+v", uploader.uploads)
	}
}

func TestAttachImageWithoutUploaderFails(t *testing.T) {
	svc := newTestCatalogService(t, nil, nil)
	if _, err := svc.AttachImage(context.Background(), "prod-1", "image/png", strings.NewReader("x")); err == nil {
		t.Fatal("expected error when image uploads are not configured")
	}
}
