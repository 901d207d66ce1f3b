package domain

import (
	"time"
)

// UserRole enumerates the authorisation levels a user account can hold.
type UserRole string

const (
	// RoleUser is the default role assigned at registration.
	RoleUser UserRole = "user"
	// RoleAdmin grants access to back-office endpoints.
	RoleAdmin UserRole = "admin"
)

// User is a customer or administrator account. The scalar address fields
// mirror the profile-level shipping details used as fallback when an order
// does not specify them explicitly.
type User struct {
	ID                 string
	Name               string
	Email              string
	PasswordHash       string
	Role               UserRole
	Phone              string
	City               string
	Region             string
	AddressDescription string
	TokenVersion       int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Address is a saved entry in a user's address book. At most one address per
// user carries IsDefault; the repository enforces that invariant
// transactionally.
type Address struct {
	ID                 string
	Label              string
	Name               string
	Phone              string
	City               string
	Region             string
	Address            string
	AddressDescription string
	IsDefault          bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Product is a catalog entry. Prices are stored as the original system stored
// them (floating point currency units).
type Product struct {
	ID          string
	Name        string
	Slug        string
	Price       float64
	Images      []string
	Category    string
	Stock       int64
	Description string
	IsFeatured  bool
	Discount    float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OrderStatus describes the lifecycle state of an order.
type OrderStatus string

const (
	// OrderStatusPending is assigned at creation time.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaid marks orders with confirmed payment.
	OrderStatusPaid OrderStatus = "paid"
	// OrderStatusShipped marks orders handed to a carrier.
	OrderStatusShipped OrderStatus = "shipped"
	// OrderStatusCanceled marks orders withdrawn by an administrator.
	OrderStatusCanceled OrderStatus = "canceled"
)

// KnownOrderStatus reports whether the value is one of the recognised states.
// Transitions are deliberately permissive: the back-office may overwrite any
// status with any other known status (pending -> paid/shipped/canceled,
// paid -> shipped/canceled, shipped -> canceled describe the expected path,
// but none of it is enforced server side).
func KnownOrderStatus(status OrderStatus) bool {
	switch status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCanceled:
		return true
	}
	return false
}

// OrderItem is a line item snapshot copied from the catalog at creation time.
// Name may be empty when the referenced product no longer exists.
type OrderItem struct {
	ProductID string
	Name      string
	Qty       int64
	Price     float64
}

// Order is a persisted checkout. InvoiceRef is the human-facing, zero-padded
// sequential identifier minted exactly once at creation unless pre-supplied.
type Order struct {
	ID                 string
	UserID             string
	Items              []OrderItem
	Total              float64
	Status             OrderStatus
	Address            string
	CustomerName       string
	CustomerPhone      string
	City               string
	Region             string
	AddressDescription string
	InvoiceRef         string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OrderStats aggregates back-office order metrics.
type OrderStats struct {
	Count int64
	Sales float64
}

// OrderListFilter narrows admin order listings.
type OrderListFilter struct {
	Status OrderStatus
	UserID string
	Limit  int
}

// ProductListFilter narrows catalog listings. Query matches product names
// case-insensitively; Sort accepts a field name with an optional leading '-'
// for descending order.
type ProductListFilter struct {
	Query    string
	Category string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
	Limit    int
}

// PaymentIntent is the gateway handle for collecting payment on an order.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       float64
	Currency     string
}
