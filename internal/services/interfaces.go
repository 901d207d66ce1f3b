package services

import (
	"context"
	"io"
	"time"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
)

// CounterService hands out sequence values and invoice references.
type CounterService interface {
	Next(ctx context.Context, key string) (int64, error)
	NextInvoiceRef(ctx context.Context) (string, error)
}

// RegisterCommand carries the input for account creation.
type RegisterCommand struct {
	Name               string
	Email              string
	Password           string
	Phone              string
	City               string
	Region             string
	AddressDescription string
}

// LoginCommand carries credentials for authentication.
type LoginCommand struct {
	Email    string
	Password string
}

// AuthResult is returned by Register, Login, and Refresh.
type AuthResult struct {
	User         domain.User
	AccessToken  string
	RefreshToken string
	RefreshTTL   time.Duration
}

// UpdateProfileCommand carries the mutable profile fields. Nil pointers leave
// the current value untouched.
type UpdateProfileCommand struct {
	Name               *string
	Phone              *string
	City               *string
	Region             *string
	AddressDescription *string
	Password           *string
}

// UserService owns accounts, authentication, and the address book.
type UserService interface {
	Register(ctx context.Context, cmd RegisterCommand) (AuthResult, error)
	Login(ctx context.Context, cmd LoginCommand) (AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (AuthResult, error)
	Logout(ctx context.Context, userID string) error

	GetProfile(ctx context.Context, userID string) (domain.User, error)
	UpdateProfile(ctx context.Context, userID string, cmd UpdateProfileCommand) (domain.User, error)

	ListUsers(ctx context.Context, limit int) ([]domain.User, error)
	UpdateUser(ctx context.Context, userID string, cmd UpdateProfileCommand) (domain.User, error)
	DeleteUser(ctx context.Context, userID string) error

	ListAddresses(ctx context.Context, userID string) ([]domain.Address, error)
	CreateAddress(ctx context.Context, userID string, addr domain.Address) (domain.Address, error)
	UpdateAddress(ctx context.Context, userID string, addr domain.Address) (domain.Address, error)
	DeleteAddress(ctx context.Context, userID string, addressID string) error
	SetDefaultAddress(ctx context.Context, userID string, addressID string) (domain.Address, error)
}

// CreateProductCommand carries catalog creation input.
type CreateProductCommand struct {
	Name        string
	Price       float64
	Images      []string
	Category    string
	Stock       int64
	Description string
	IsFeatured  bool
	Discount    float64
}

// UpdateProductCommand carries partial catalog updates.
type UpdateProductCommand struct {
	Name        *string
	Price       *float64
	Images      *[]string
	Category    *string
	Stock       *int64
	Description *string
	IsFeatured  *bool
	Discount    *float64
}

// CatalogService owns the product catalog.
type CatalogService interface {
	List(ctx context.Context, filter domain.ProductListFilter) ([]domain.Product, error)
	Get(ctx context.Context, idOrSlug string) (domain.Product, error)
	Create(ctx context.Context, cmd CreateProductCommand) (domain.Product, error)
	Update(ctx context.Context, productID string, cmd UpdateProductCommand) (domain.Product, error)
	Delete(ctx context.Context, productID string) error
	AttachImage(ctx context.Context, productID string, contentType string, r io.Reader) (domain.Product, error)
}

// OrderItemInput is a single requested line item.
type OrderItemInput struct {
	ProductID string
	Name      string
	Qty       int64
	Price     float64
}

// CreateOrderCommand carries checkout input. Address and customer fields are
// optional; missing values fall back to the default saved address and then the
// user profile.
type CreateOrderCommand struct {
	UserID             string
	Items              []OrderItemInput
	Total              float64
	Address            string
	CustomerName       string
	CustomerPhone      string
	City               string
	Region             string
	AddressDescription string
	InvoiceRef         string
}

// UpdateOrderCommand carries the admin-editable order fields.
type UpdateOrderCommand struct {
	Status     *domain.OrderStatus
	InvoiceRef *string
}

// OrderService owns checkout and order administration.
type OrderService interface {
	Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error)
	Mine(ctx context.Context, userID string, limit int) ([]domain.Order, error)
	Get(ctx context.Context, orderID string) (domain.Order, error)
	List(ctx context.Context, filter domain.OrderListFilter) ([]domain.Order, error)
	Update(ctx context.Context, orderID string, cmd UpdateOrderCommand) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error)
	Delete(ctx context.Context, orderID string) error
	Stats(ctx context.Context) (domain.OrderStats, error)
	Pay(ctx context.Context, orderID string) (domain.PaymentIntent, error)
}

// PaymentGateway collects payment for an order.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, order domain.Order) (domain.PaymentIntent, error)
}

// OrderEventMessage is the payload published on order lifecycle events.
type OrderEventMessage struct {
	Event      string    `json:"event"`
	OrderID    string    `json:"orderId"`
	UserID     string    `json:"userId"`
	Status     string    `json:"status"`
	InvoiceRef string    `json:"invoiceRef,omitempty"`
	Total      float64   `json:"total"`
	OccurredAt time.Time `json:"occurredAt"`
}

// OrderEventPublisher forwards order events to interested consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, message OrderEventMessage) (string, error)
}

// SystemService reports process health and dependency readiness.
type SystemService interface {
	Health(ctx context.Context) (domain.HealthReport, error)
	Uptime() time.Duration
}
