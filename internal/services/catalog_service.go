package services

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	"github.com/Zllawi/bassmaStore/internal/platform/textutil"
	"github.com/Zllawi/bassmaStore/internal/repositories"
)

// ImageUploader stores a product image and returns its public URL.
type ImageUploader interface {
	UploadProductImage(ctx context.Context, productID string, contentType string, r io.Reader) (string, error)
}

// CatalogServiceDeps bundles collaborators required to construct a catalog service.
type CatalogServiceDeps struct {
	Products repositories.ProductRepository
	Images   ImageUploader
	Logger   *zap.Logger
}

type catalogService struct {
	products  repositories.ProductRepository
	images    ImageUploader
	logger    *zap.Logger
	sanitizer *bluemonday.Policy
}

// NewCatalogService constructs the product catalog service. The image uploader
// is optional; AttachImage fails when it is absent.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Products == nil {
		return nil, errors.New("catalog service: product repository is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &catalogService{
		products:  deps.Products,
		images:    deps.Images,
		logger:    logger,
		sanitizer: bluemonday.UGCPolicy(),
	}, nil
}

// List returns catalog entries matching the filter. Category, price bounds,
// sort, and limit are handled by the repository; the free-text query is applied
// here as a case-insensitive name substring match.
func (s *catalogService) List(ctx context.Context, filter domain.ProductListFilter) ([]domain.Product, error) {
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	if query == "" {
		return products, nil
	}
	matched := make([]domain.Product, 0, len(products))
	for _, product := range products {
		if strings.Contains(strings.ToLower(product.Name), query) {
			matched = append(matched, product)
		}
	}
	return matched, nil
}

// Get resolves a product by document ID first, then by slug.
func (s *catalogService) Get(ctx context.Context, idOrSlug string) (domain.Product, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return domain.Product{}, ErrNotFound
	}

	product, err := s.products.FindByID(ctx, idOrSlug)
	if err == nil {
		return product, nil
	}
	if mapped := mapRepositoryError(err); !errors.Is(mapped, ErrNotFound) {
		return domain.Product{}, mapped
	}

	product, found, err := s.products.FindBySlug(ctx, idOrSlug)
	if err != nil {
		return domain.Product{}, mapRepositoryError(err)
	}
	if !found {
		return domain.Product{}, ErrNotFound
	}
	return product, nil
}

// Create validates the input, mints a unique slug from the name, sanitises the
// description, and stores the product.
func (s *catalogService) Create(ctx context.Context, cmd CreateProductCommand) (domain.Product, error) {
	vErr := &ValidationError{}
	name := strings.TrimSpace(cmd.Name)
	if len(name) < 2 {
		vErr.Add("name", "must be at least 2 characters")
	}
	if cmd.Price < 0 {
		vErr.Add("price", "must not be negative")
	}
	if cmd.Stock < 0 {
		vErr.Add("stock", "must not be negative")
	}
	if cmd.Discount < 0 || cmd.Discount > 100 {
		vErr.Add("discount", "must be between 0 and 100")
	}
	if err := vErr.ErrOrNil(); err != nil {
		return domain.Product{}, err
	}

	product := domain.Product{
		Name:        name,
		Slug:        textutil.SlugWithSuffix(name),
		Price:       cmd.Price,
		Images:      append([]string(nil), cmd.Images...),
		Category:    strings.TrimSpace(cmd.Category),
		Stock:       cmd.Stock,
		Description: s.sanitizer.Sanitize(cmd.Description),
		IsFeatured:  cmd.IsFeatured,
		Discount:    cmd.Discount,
	}

	saved, err := s.products.Insert(ctx, product)
	if err != nil {
		return domain.Product{}, mapRepositoryError(err)
	}
	return saved, nil
}

// Update applies the supplied fields to an existing product. The slug is never
// regenerated; product URLs stay stable across renames.
func (s *catalogService) Update(ctx context.Context, productID string, cmd UpdateProductCommand) (domain.Product, error) {
	product, err := s.products.FindByID(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, mapRepositoryError(err)
	}

	vErr := &ValidationError{}
	if cmd.Name != nil {
		if name := strings.TrimSpace(*cmd.Name); len(name) < 2 {
			vErr.Add("name", "must be at least 2 characters")
		} else {
			product.Name = name
		}
	}
	if cmd.Price != nil {
		if *cmd.Price < 0 {
			vErr.Add("price", "must not be negative")
		} else {
			product.Price = *cmd.Price
		}
	}
	if cmd.Stock != nil {
		if *cmd.Stock < 0 {
			vErr.Add("stock", "must not be negative")
		} else {
			product.Stock = *cmd.Stock
		}
	}
	if cmd.Discount != nil {
		if *cmd.Discount < 0 || *cmd.Discount > 100 {
			vErr.Add("discount", "must be between 0 and 100")
		} else {
			product.Discount = *cmd.Discount
		}
	}
	if cmd.Images != nil {
		product.Images = append([]string(nil), (*cmd.Images)...)
	}
	if cmd.Category != nil {
		product.Category = strings.TrimSpace(*cmd.Category)
	}
	if cmd.Description != nil {
		product.Description = s.sanitizer.Sanitize(*cmd.Description)
	}
	if cmd.IsFeatured != nil {
		product.IsFeatured = *cmd.IsFeatured
	}
	if err := vErr.ErrOrNil(); err != nil {
		return domain.Product{}, err
	}

	saved, err := s.products.Update(ctx, product)
	if err != nil {
		return domain.Product{}, mapRepositoryError(err)
	}
	return saved, nil
}

// Delete removes the product from the catalog.
func (s *catalogService) Delete(ctx context.Context, productID string) error {
	if err := s.products.Delete(ctx, strings.TrimSpace(productID)); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

// AttachImage uploads the image and appends its public URL to the product.
func (s *catalogService) AttachImage(ctx context.Context, productID string, contentType string, r io.Reader) (domain.Product, error) {
	if s.images == nil {
		return domain.Product{}, errors.New("catalog service: image uploads are not configured")
	}

	product, err := s.products.FindByID(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, mapRepositoryError(err)
	}

	url, err := s.images.UploadProductImage(ctx, product.ID, contentType, r)
	if err != nil {
		return domain.Product{}, err
	}

	product.Images = append(product.Images, url)
	saved, err := s.products.Update(ctx, product)
	if err != nil {
		return domain.Product{}, mapRepositoryError(err)
	}
	return saved, nil
}
