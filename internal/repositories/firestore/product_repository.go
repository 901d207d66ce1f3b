package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	pfirestore "github.com/Zllawi/bassmaStore/internal/platform/firestore"
	"github.com/Zllawi/bassmaStore/internal/repositories"
)

const (
	productsCollection = "products"
	maxProductPage     = 100
)

type productDocument struct {
	Name        string    `firestore:"name"`
	Slug        string    `firestore:"slug"`
	Price       float64   `firestore:"price"`
	Images      []string  `firestore:"images,omitempty"`
	Category    string    `firestore:"category,omitempty"`
	Stock       int64     `firestore:"stock"`
	Description string    `firestore:"description,omitempty"`
	IsFeatured  bool      `firestore:"isFeatured"`
	Discount    float64   `firestore:"discount"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// ProductRepository persists catalog entries in Firestore.
type ProductRepository struct {
	provider *pfirestore.Provider
	products *pfirestore.BaseRepository[productDocument]
}

// NewProductRepository constructs a Firestore-backed product repository.
func NewProductRepository(provider *pfirestore.Provider) (*ProductRepository, error) {
	if provider == nil {
		return nil, errors.New("product repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[productDocument](provider, productsCollection, nil, nil)
	return &ProductRepository{provider: provider, products: base}, nil
}

// Insert stores a new product document.
func (r *ProductRepository) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if r == nil || r.provider == nil {
		return domain.Product{}, errors.New("product repository not initialised")
	}

	coll, err := r.products.CollectionRef(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	now := time.Now().UTC()
	doc := productDocumentFrom(product)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	ref := coll.NewDoc()
	if strings.TrimSpace(product.ID) != "" {
		ref = coll.Doc(strings.TrimSpace(product.ID))
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return domain.Product{}, pfirestore.WrapError("products.insert", err)
	}
	return doc.toDomain(ref.ID), nil
}

// FindByID fetches a product by document ID.
func (r *ProductRepository) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	doc, err := r.products.Get(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// FindBySlug looks a product up by its unique slug.
func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (domain.Product, bool, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return domain.Product{}, false, nil
	}
	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("slug", "==", slug).Limit(1)
	})
	if err != nil {
		return domain.Product{}, false, err
	}
	if len(docs) == 0 {
		return domain.Product{}, false, nil
	}
	return docs[0].Data.toDomain(docs[0].ID), true, nil
}

// List returns products matching the structured parts of the filter. Category
// and price bounds are pushed to Firestore; free-text name matching is applied
// by the caller because Firestore has no substring queries.
func (r *ProductRepository) List(ctx context.Context, filter domain.ProductListFilter) ([]domain.Product, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxProductPage {
		limit = maxProductPage
	}

	docs, err := r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		if category := strings.TrimSpace(filter.Category); category != "" {
			q = q.Where("category", "==", category)
		}
		if filter.MinPrice != nil {
			q = q.Where("price", ">=", *filter.MinPrice)
		}
		if filter.MaxPrice != nil {
			q = q.Where("price", "<=", *filter.MaxPrice)
		}
		q = applyProductSort(q, filter)
		return q.Limit(limit)
	})
	if err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		products = append(products, doc.Data.toDomain(doc.ID))
	}
	return products, nil
}

// Update overwrites the product document, preserving its creation time.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) (domain.Product, error) {
	id := strings.TrimSpace(product.ID)
	if id == "" {
		return domain.Product{}, errors.New("products: product id is required")
	}

	existing, err := r.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	doc := productDocumentFrom(product)
	doc.CreatedAt = existing.Data.CreatedAt
	doc.UpdatedAt = time.Now().UTC()
	if doc.Slug == "" {
		doc.Slug = existing.Data.Slug
	}

	if _, err := r.products.Set(ctx, id, doc); err != nil {
		return domain.Product{}, err
	}
	return doc.toDomain(id), nil
}

// Delete removes the product document.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	return r.products.Delete(ctx, strings.TrimSpace(productID))
}

// applyProductSort maps the filter sort field to a Firestore ordering. When a
// price range filter is present Firestore requires the first ordering to be on
// the price field, so the requested sort is applied only when compatible.
func applyProductSort(q firestore.Query, filter domain.ProductListFilter) firestore.Query {
	priceFiltered := filter.MinPrice != nil || filter.MaxPrice != nil

	sort := strings.TrimSpace(filter.Sort)
	direction := firestore.Asc
	if strings.HasPrefix(sort, "-") {
		direction = firestore.Desc
		sort = strings.TrimPrefix(sort, "-")
	}

	switch sort {
	case "price":
		return q.OrderBy("price", direction)
	case "name":
		if priceFiltered {
			return q.OrderBy("price", firestore.Asc)
		}
		return q.OrderBy("name", direction)
	case "createdAt", "":
		if priceFiltered {
			return q.OrderBy("price", firestore.Asc)
		}
		if sort == "" {
			direction = firestore.Desc
		}
		return q.OrderBy("createdAt", direction)
	default:
		if priceFiltered {
			return q.OrderBy("price", firestore.Asc)
		}
		return q.OrderBy("createdAt", firestore.Desc)
	}
}

func productDocumentFrom(product domain.Product) productDocument {
	return productDocument{
		Name:        strings.TrimSpace(product.Name),
		Slug:        strings.TrimSpace(product.Slug),
		Price:       product.Price,
		Images:      append([]string(nil), product.Images...),
		Category:    strings.TrimSpace(product.Category),
		Stock:       product.Stock,
		Description: product.Description,
		IsFeatured:  product.IsFeatured,
		Discount:    product.Discount,
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:          id,
		Name:        d.Name,
		Slug:        d.Slug,
		Price:       d.Price,
		Images:      append([]string(nil), d.Images...),
		Category:    d.Category,
		Stock:       d.Stock,
		Description: d.Description,
		IsFeatured:  d.IsFeatured,
		Discount:    d.Discount,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)
