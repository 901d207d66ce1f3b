package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	"github.com/Zllawi/bassmaStore/internal/platform/auth"
	"github.com/Zllawi/bassmaStore/internal/platform/httpx"
	"github.com/Zllawi/bassmaStore/internal/services"
)

// fakeGuard injects a fixed identity instead of verifying tokens.
type fakeGuard struct {
	identity *auth.Identity
}

func (g *fakeGuard) RequireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if g.identity == nil {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), g.identity)))
		})
	}
}

func (g *fakeGuard) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				httpx.WriteError(r.Context(), w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
				return
			}
			for _, role := range roles {
				if identity.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			httpx.WriteError(r.Context(), w, httpx.NewError("forbidden", "insufficient permissions", http.StatusForbidden))
		})
	}
}

type stubUserService struct {
	registerFn       func(context.Context, services.RegisterCommand) (services.AuthResult, error)
	loginFn          func(context.Context, services.LoginCommand) (services.AuthResult, error)
	refreshFn        func(context.Context, string) (services.AuthResult, error)
	logoutFn         func(context.Context, string) error
	getProfileFn     func(context.Context, string) (domain.User, error)
	updateProfileFn  func(context.Context, string, services.UpdateProfileCommand) (domain.User, error)
	listUsersFn      func(context.Context, int) ([]domain.User, error)
	updateUserFn     func(context.Context, string, services.UpdateProfileCommand) (domain.User, error)
	deleteUserFn     func(context.Context, string) error
	listAddressesFn  func(context.Context, string) ([]domain.Address, error)
	createAddressFn  func(context.Context, string, domain.Address) (domain.Address, error)
	updateAddressFn  func(context.Context, string, domain.Address) (domain.Address, error)
	deleteAddressFn  func(context.Context, string, string) error
	setDefaultAddrFn func(context.Context, string, string) (domain.Address, error)
}

func (s *stubUserService) Register(ctx context.Context, cmd services.RegisterCommand) (services.AuthResult, error) {
	return s.registerFn(ctx, cmd)
}

func (s *stubUserService) Login(ctx context.Context, cmd services.LoginCommand) (services.AuthResult, error) {
	return s.loginFn(ctx, cmd)
}

func (s *stubUserService) Refresh(ctx context.Context, token string) (services.AuthResult, error) {
	return s.refreshFn(ctx, token)
}

func (s *stubUserService) Logout(ctx context.Context, userID string) error {
	return s.logoutFn(ctx, userID)
}

func (s *stubUserService) GetProfile(ctx context.Context, userID string) (domain.User, error) {
	return s.getProfileFn(ctx, userID)
}

func (s *stubUserService) UpdateProfile(ctx context.Context, userID string, cmd services.UpdateProfileCommand) (domain.User, error) {
	return s.updateProfileFn(ctx, userID, cmd)
}

func (s *stubUserService) ListUsers(ctx context.Context, limit int) ([]domain.User, error) {
	return s.listUsersFn(ctx, limit)
}

func (s *stubUserService) UpdateUser(ctx context.Context, userID string, cmd services.UpdateProfileCommand) (domain.User, error) {
	return s.updateUserFn(ctx, userID, cmd)
}

func (s *stubUserService) DeleteUser(ctx context.Context, userID string) error {
	return s.deleteUserFn(ctx, userID)
}

func (s *stubUserService) ListAddresses(ctx context.Context, userID string) ([]domain.Address, error) {
	return s.listAddressesFn(ctx, userID)
}

func (s *stubUserService) CreateAddress(ctx context.Context, userID string, addr domain.Address) (domain.Address, error) {
	return s.createAddressFn(ctx, userID, addr)
}

func (s *stubUserService) UpdateAddress(ctx context.Context, userID string, addr domain.Address) (domain.Address, error) {
	return s.updateAddressFn(ctx, userID, addr)
}

func (s *stubUserService) DeleteAddress(ctx context.Context, userID string, addressID string) error {
	return s.deleteAddressFn(ctx, userID, addressID)
}

func (s *stubUserService) SetDefaultAddress(ctx context.Context, userID string, addressID string) (domain.Address, error) {
	return s.setDefaultAddrFn(ctx, userID, addressID)
}

type stubCatalogService struct {
	listFn        func(context.Context, domain.ProductListFilter) ([]domain.Product, error)
	getFn         func(context.Context, string) (domain.Product, error)
	createFn      func(context.Context, services.CreateProductCommand) (domain.Product, error)
	updateFn      func(context.Context, string, services.UpdateProductCommand) (domain.Product, error)
	deleteFn      func(context.Context, string) error
	attachImageFn func(context.Context, string, string, io.Reader) (domain.Product, error)
}

func (s *stubCatalogService) List(ctx context.Context, filter domain.ProductListFilter) ([]domain.Product, error) {
	return s.listFn(ctx, filter)
}

func (s *stubCatalogService) Get(ctx context.Context, idOrSlug string) (domain.Product, error) {
	return s.getFn(ctx, idOrSlug)
}

func (s *stubCatalogService) Create(ctx context.Context, cmd services.CreateProductCommand) (domain.Product, error) {
	return s.createFn(ctx, cmd)
}

func (s *stubCatalogService) Update(ctx context.Context, productID string, cmd services.UpdateProductCommand) (domain.Product, error) {
	return s.updateFn(ctx, productID, cmd)
}

func (s *stubCatalogService) Delete(ctx context.Context, productID string) error {
	return s.deleteFn(ctx, productID)
}

func (s *stubCatalogService) AttachImage(ctx context.Context, productID string, contentType string, r io.Reader) (domain.Product, error) {
	return s.attachImageFn(ctx, productID, contentType, r)
}

type stubOrderService struct {
	createFn       func(context.Context, services.CreateOrderCommand) (domain.Order, error)
	mineFn         func(context.Context, string, int) ([]domain.Order, error)
	getFn          func(context.Context, string) (domain.Order, error)
	listFn         func(context.Context, domain.OrderListFilter) ([]domain.Order, error)
	updateFn       func(context.Context, string, services.UpdateOrderCommand) (domain.Order, error)
	updateStatusFn func(context.Context, string, domain.OrderStatus) (domain.Order, error)
	deleteFn       func(context.Context, string) error
	statsFn        func(context.Context) (domain.OrderStats, error)
	payFn          func(context.Context, string) (domain.PaymentIntent, error)
}

func (s *stubOrderService) Create(ctx context.Context, cmd services.CreateOrderCommand) (domain.Order, error) {
	return s.createFn(ctx, cmd)
}

func (s *stubOrderService) Mine(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	return s.mineFn(ctx, userID, limit)
}

func (s *stubOrderService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	return s.getFn(ctx, orderID)
}

func (s *stubOrderService) List(ctx context.Context, filter domain.OrderListFilter) ([]domain.Order, error) {
	return s.listFn(ctx, filter)
}

func (s *stubOrderService) Update(ctx context.Context, orderID string, cmd services.UpdateOrderCommand) (domain.Order, error) {
	return s.updateFn(ctx, orderID, cmd)
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	return s.updateStatusFn(ctx, orderID, status)
}

func (s *stubOrderService) Delete(ctx context.Context, orderID string) error {
	return s.deleteFn(ctx, orderID)
}

func (s *stubOrderService) Stats(ctx context.Context) (domain.OrderStats, error) {
	return s.statsFn(ctx)
}

func (s *stubOrderService) Pay(ctx context.Context, orderID string) (domain.PaymentIntent, error) {
	return s.payFn(ctx, orderID)
}

type stubSystemService struct {
	report domain.HealthReport
	err    error
	uptime time.Duration
}

func (s *stubSystemService) Health(context.Context) (domain.HealthReport, error) {
	return s.report, s.err
}

func (s *stubSystemService) Uptime() time.Duration { return s.uptime }
