package repositories

import (
	"context"
	"errors"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
)

// ErrEmailTaken is returned when inserting a user whose email already exists.
var ErrEmailTaken = errors.New("users: email already registered")

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// CounterRepository hands out monotonically increasing sequence values.
// Next must be safe under concurrent callers: no two calls for the same key
// may observe the same value.
type CounterRepository interface {
	Next(ctx context.Context, key string) (int64, error)
}

// UserRepository persists user accounts keyed by document ID.
type UserRepository interface {
	Insert(ctx context.Context, user domain.User) (domain.User, error)
	FindByID(ctx context.Context, userID string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, bool, error)
	Update(ctx context.Context, user domain.User) (domain.User, error)
	BumpTokenVersion(ctx context.Context, userID string) (int64, error)
	List(ctx context.Context, limit int) ([]domain.User, error)
	Delete(ctx context.Context, userID string) error
}

// AddressRepository persists entries of a user's address book. At most one
// address per user may carry IsDefault at a time.
type AddressRepository interface {
	List(ctx context.Context, userID string) ([]domain.Address, error)
	Get(ctx context.Context, userID string, addressID string) (domain.Address, error)
	Insert(ctx context.Context, userID string, addr domain.Address) (domain.Address, error)
	Update(ctx context.Context, userID string, addr domain.Address) (domain.Address, error)
	Delete(ctx context.Context, userID string, addressID string) error
	SetDefault(ctx context.Context, userID string, addressID string) (domain.Address, error)
	FindDefault(ctx context.Context, userID string) (domain.Address, bool, error)
}

// ProductRepository persists catalog entries.
type ProductRepository interface {
	Insert(ctx context.Context, product domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, productID string) (domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (domain.Product, bool, error)
	List(ctx context.Context, filter domain.ProductListFilter) ([]domain.Product, error)
	Update(ctx context.Context, product domain.Product) (domain.Product, error)
	Delete(ctx context.Context, productID string) error
}

// OrderRepository persists orders.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error)
	List(ctx context.Context, filter domain.OrderListFilter) ([]domain.Order, error)
	Update(ctx context.Context, order domain.Order) (domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error)
	Delete(ctx context.Context, orderID string) error
	Stats(ctx context.Context) (domain.OrderStats, error)
}

// HealthRepository evaluates dependency probes for readiness reporting.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.HealthReport, error)
}
