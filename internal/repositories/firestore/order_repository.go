package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	pfirestore "github.com/Zllawi/bassmaStore/internal/platform/firestore"
	"github.com/Zllawi/bassmaStore/internal/repositories"
)

const (
	ordersCollection = "orders"
	maxOrderPage     = 100
)

type orderItemDocument struct {
	ProductID string  `firestore:"productId"`
	Name      string  `firestore:"name,omitempty"`
	Qty       int64   `firestore:"qty"`
	Price     float64 `firestore:"price"`
}

type orderDocument struct {
	UserID             string              `firestore:"userId"`
	Items              []orderItemDocument `firestore:"items"`
	Total              float64             `firestore:"total"`
	Status             string              `firestore:"status"`
	Address            string              `firestore:"address"`
	CustomerName       string              `firestore:"customerName"`
	CustomerPhone      string              `firestore:"customerPhone"`
	City               string              `firestore:"city,omitempty"`
	Region             string              `firestore:"region,omitempty"`
	AddressDescription string              `firestore:"addressDescription,omitempty"`
	InvoiceRef         string              `firestore:"invoiceRef"`
	CreatedAt          time.Time           `firestore:"createdAt"`
	UpdatedAt          time.Time           `firestore:"updatedAt"`
}

// OrderRepository persists orders in Firestore.
type OrderRepository struct {
	provider *pfirestore.Provider
	orders   *pfirestore.BaseRepository[orderDocument]
}

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[orderDocument](provider, ordersCollection, nil, nil)
	return &OrderRepository{provider: provider, orders: base}, nil
}

// Insert stores a new order document.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	if r == nil || r.provider == nil {
		return domain.Order{}, errors.New("order repository not initialised")
	}

	coll, err := r.orders.CollectionRef(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	now := time.Now().UTC()
	doc := orderDocumentFrom(order)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	ref := coll.NewDoc()
	if strings.TrimSpace(order.ID) != "" {
		ref = coll.Doc(strings.TrimSpace(order.ID))
	}
	if _, err := ref.Create(ctx, doc); err != nil {
		return domain.Order{}, pfirestore.WrapError("orders.insert", err)
	}
	return doc.toDomain(ref.ID), nil
}

// FindByID fetches an order by document ID.
func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	doc, err := r.orders.Get(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.Order{}, err
	}
	return doc.Data.toDomain(doc.ID), nil
}

// ListByUser returns the user's orders, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, errors.New("orders: user id is required")
	}
	if limit <= 0 || limit > maxOrderPage {
		limit = maxOrderPage
	}

	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("userId", "==", uid).OrderBy("createdAt", firestore.Desc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}
	return ordersFromDocs(docs), nil
}

// List returns orders matching the admin filter, newest first.
func (r *OrderRepository) List(ctx context.Context, filter domain.OrderListFilter) ([]domain.Order, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxOrderPage {
		limit = maxOrderPage
	}

	docs, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		if filter.Status != "" {
			q = q.Where("status", "==", string(filter.Status))
		}
		if uid := strings.TrimSpace(filter.UserID); uid != "" {
			q = q.Where("userId", "==", uid)
		}
		return q.OrderBy("createdAt", firestore.Desc).Limit(limit)
	})
	if err != nil {
		return nil, err
	}
	return ordersFromDocs(docs), nil
}

// Update overwrites the order's mutable fields, preserving creation time and
// the minted invoice reference.
func (r *OrderRepository) Update(ctx context.Context, order domain.Order) (domain.Order, error) {
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return domain.Order{}, errors.New("orders: order id is required")
	}

	existing, err := r.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	doc := orderDocumentFrom(order)
	doc.CreatedAt = existing.Data.CreatedAt
	doc.UpdatedAt = time.Now().UTC()
	if doc.InvoiceRef == "" {
		doc.InvoiceRef = existing.Data.InvoiceRef
	}

	if _, err := r.orders.Set(ctx, id, doc); err != nil {
		return domain.Order{}, err
	}
	return doc.toDomain(id), nil
}

// UpdateStatus rewrites only the status field.
func (r *OrderRepository) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return domain.Order{}, errors.New("orders: order id is required")
	}

	now := time.Now().UTC()
	if _, err := r.orders.Update(ctx, id, []firestore.Update{
		{Path: "status", Value: string(status)},
		{Path: "updatedAt", Value: now},
	}); err != nil {
		return domain.Order{}, err
	}
	return r.FindByID(ctx, id)
}

// Delete removes the order document.
func (r *OrderRepository) Delete(ctx context.Context, orderID string) error {
	return r.orders.Delete(ctx, strings.TrimSpace(orderID))
}

// Stats counts orders and sums their totals by streaming only the total field.
func (r *OrderRepository) Stats(ctx context.Context) (domain.OrderStats, error) {
	coll, err := r.orders.CollectionRef(ctx)
	if err != nil {
		return domain.OrderStats{}, err
	}

	iter := coll.Select("total").Documents(ctx)
	defer iter.Stop()

	var stats domain.OrderStats
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return domain.OrderStats{}, pfirestore.WrapError("orders.stats", err)
		}
		stats.Count++
		if raw, err := snap.DataAt("total"); err == nil {
			switch v := raw.(type) {
			case float64:
				stats.Sales += v
			case int64:
				stats.Sales += float64(v)
			}
		}
	}
	return stats, nil
}

func ordersFromDocs(docs []pfirestore.Document[orderDocument]) []domain.Order {
	orders := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, doc.Data.toDomain(doc.ID))
	}
	return orders
}

func orderDocumentFrom(order domain.Order) orderDocument {
	items := make([]orderItemDocument, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemDocument{
			ProductID: strings.TrimSpace(item.ProductID),
			Name:      strings.TrimSpace(item.Name),
			Qty:       item.Qty,
			Price:     item.Price,
		})
	}
	return orderDocument{
		UserID:             strings.TrimSpace(order.UserID),
		Items:              items,
		Total:              order.Total,
		Status:             string(order.Status),
		Address:            strings.TrimSpace(order.Address),
		CustomerName:       strings.TrimSpace(order.CustomerName),
		CustomerPhone:      strings.TrimSpace(order.CustomerPhone),
		City:               strings.TrimSpace(order.City),
		Region:             strings.TrimSpace(order.Region),
		AddressDescription: strings.TrimSpace(order.AddressDescription),
		InvoiceRef:         strings.TrimSpace(order.InvoiceRef),
		CreatedAt:          order.CreatedAt,
		UpdatedAt:          order.UpdatedAt,
	}
}

func (d orderDocument) toDomain(id string) domain.Order {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, item := range d.Items {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Qty:       item.Qty,
			Price:     item.Price,
		})
	}
	return domain.Order{
		ID:                 id,
		UserID:             d.UserID,
		Items:              items,
		Total:              d.Total,
		Status:             domain.OrderStatus(d.Status),
		Address:            d.Address,
		CustomerName:       d.CustomerName,
		CustomerPhone:      d.CustomerPhone,
		City:               d.City,
		Region:             d.Region,
		AddressDescription: d.AddressDescription,
		InvoiceRef:         d.InvoiceRef,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)
