package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	"github.com/Zllawi/bassmaStore/internal/repositories"
)

const (
	orderEventCreated       = "order.created"
	orderEventStatusChanged = "order.status_changed"
)

// OrderServiceDeps bundles collaborators required to construct an order service.
// Publisher and Gateway are optional; events are skipped and Pay fails when absent.
type OrderServiceDeps struct {
	Orders    repositories.OrderRepository
	Products  repositories.ProductRepository
	Users     repositories.UserRepository
	Addresses repositories.AddressRepository
	Counter   CounterService
	Publisher OrderEventPublisher
	Gateway   PaymentGateway
	Logger    *zap.Logger
	Clock     func() time.Time
}

type orderService struct {
	orders    repositories.OrderRepository
	products  repositories.ProductRepository
	users     repositories.UserRepository
	addresses repositories.AddressRepository
	counter   CounterService
	publisher OrderEventPublisher
	gateway   PaymentGateway
	logger    *zap.Logger
	clock     func() time.Time
}

// NewOrderService constructs the checkout and order administration service.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Orders == nil {
		return nil, errors.New("order service: order repository is required")
	}
	if deps.Products == nil {
		return nil, errors.New("order service: product repository is required")
	}
	if deps.Users == nil {
		return nil, errors.New("order service: user repository is required")
	}
	if deps.Addresses == nil {
		return nil, errors.New("order service: address repository is required")
	}
	if deps.Counter == nil {
		return nil, errors.New("order service: counter service is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &orderService{
		orders:    deps.Orders,
		products:  deps.Products,
		users:     deps.Users,
		addresses: deps.Addresses,
		counter:   deps.Counter,
		publisher: deps.Publisher,
		gateway:   deps.Gateway,
		logger:    logger,
		clock:     clock,
	}, nil
}

// Create validates the command, enriches item names from the catalog, resolves
// the shipping address, mints the invoice reference, and persists the order
// with status pending.
func (s *orderService) Create(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error) {
	userID := strings.TrimSpace(cmd.UserID)

	vErr := &ValidationError{}
	if userID == "" {
		vErr.Add("userId", "is required")
	}
	if len(cmd.Items) == 0 {
		vErr.Add("items", "at least one item is required")
	}
	for i, item := range cmd.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			vErr.Add(fmt.Sprintf("items[%d].productId", i), "is required")
		}
		if item.Qty <= 0 {
			vErr.Add(fmt.Sprintf("items[%d].qty", i), "must be a positive integer")
		}
		if item.Price < 0 {
			vErr.Add(fmt.Sprintf("items[%d].price", i), "must not be negative")
		}
	}
	if cmd.Total < 0 {
		vErr.Add("total", "must not be negative")
	}
	if err := vErr.ErrOrNil(); err != nil {
		return domain.Order{}, err
	}

	items := s.enrichItems(ctx, cmd.Items)

	resolved, err := s.resolveAddress(ctx, userID, cmd)
	if err != nil {
		return domain.Order{}, err
	}

	invoiceRef := strings.TrimSpace(cmd.InvoiceRef)
	if invoiceRef == "" {
		invoiceRef, err = s.counter.NextInvoiceRef(ctx)
		if err != nil {
			return domain.Order{}, err
		}
	}

	order := domain.Order{
		UserID:             userID,
		Items:              items,
		Total:              cmd.Total,
		Status:             domain.OrderStatusPending,
		Address:            resolved.Address,
		CustomerName:       resolved.CustomerName,
		CustomerPhone:      resolved.CustomerPhone,
		City:               resolved.City,
		Region:             resolved.Region,
		AddressDescription: resolved.AddressDescription,
		InvoiceRef:         invoiceRef,
	}

	saved, err := s.orders.Insert(ctx, order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.publishEvent(ctx, orderEventCreated, saved)
	return saved, nil
}

// enrichItems copies the requested line items, filling missing names from the
// catalog. Lookup failures leave the name empty; a deleted product must not
// block checkout.
func (s *orderService) enrichItems(ctx context.Context, inputs []OrderItemInput) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(inputs))
	for _, input := range inputs {
		item := domain.OrderItem{
			ProductID: strings.TrimSpace(input.ProductID),
			Name:      strings.TrimSpace(input.Name),
			Qty:       input.Qty,
			Price:     input.Price,
		}
		if item.Name == "" && item.ProductID != "" {
			product, err := s.products.FindByID(ctx, item.ProductID)
			if err != nil {
				s.logger.Debug("order item product lookup failed",
					zap.String("product_id", item.ProductID),
					zap.Error(err))
			} else {
				item.Name = product.Name
			}
		}
		items = append(items, item)
	}
	return items
}

func (s *orderService) resolveAddress(ctx context.Context, userID string, cmd CreateOrderCommand) (ResolvedAddress, error) {
	request := AddressFields{
		CustomerName:       cmd.CustomerName,
		CustomerPhone:      cmd.CustomerPhone,
		City:               cmd.City,
		Region:             cmd.Region,
		AddressDescription: cmd.AddressDescription,
		Address:            cmd.Address,
	}

	layers := []AddressFields{request}
	if requestIncomplete(request) {
		if addr, ok, err := s.addresses.FindDefault(ctx, userID); err != nil {
			s.logger.Debug("default address lookup failed", zap.String("user_id", userID), zap.Error(err))
		} else if ok {
			layers = append(layers, AddressFieldsFromAddress(addr))
		}

		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			s.logger.Debug("profile lookup failed", zap.String("user_id", userID), zap.Error(err))
		} else {
			layers = append(layers, AddressFieldsFromUser(user))
		}
	}

	return ResolveShippingAddress(layers...)
}

func requestIncomplete(request AddressFields) bool {
	return strings.TrimSpace(request.CustomerName) == "" ||
		strings.TrimSpace(request.CustomerPhone) == "" ||
		strings.TrimSpace(request.City) == "" ||
		strings.TrimSpace(request.Region) == "" ||
		strings.TrimSpace(request.AddressDescription) == "" ||
		strings.TrimSpace(request.Address) == ""
}

// Mine returns the caller's orders.
func (s *orderService) Mine(ctx context.Context, userID string, limit int) ([]domain.Order, error) {
	uid := strings.TrimSpace(userID)
	if uid == "" {
		return nil, &ValidationError{Fields: []FieldError{{Field: "userId", Message: "is required"}}}
	}
	return s.orders.ListByUser(ctx, uid, limit)
}

// Get fetches a single order.
func (s *orderService) Get(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.orders.FindByID(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.Order{}, mapRepositoryError(err)
	}
	return order, nil
}

// List returns orders matching the admin filter.
func (s *orderService) List(ctx context.Context, filter domain.OrderListFilter) ([]domain.Order, error) {
	if filter.Status != "" && !domain.KnownOrderStatus(filter.Status) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOrderStatus, filter.Status)
	}
	return s.orders.List(ctx, filter)
}

// Update rewrites only the status and invoice reference fields.
func (s *orderService) Update(ctx context.Context, orderID string, cmd UpdateOrderCommand) (domain.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	if cmd.Status != nil {
		if !domain.KnownOrderStatus(*cmd.Status) {
			return domain.Order{}, fmt.Errorf("%w: %q", ErrUnknownOrderStatus, *cmd.Status)
		}
		order.Status = *cmd.Status
	}
	if cmd.InvoiceRef != nil {
		order.InvoiceRef = strings.TrimSpace(*cmd.InvoiceRef)
	}

	saved, err := s.orders.Update(ctx, order)
	if err != nil {
		return domain.Order{}, mapRepositoryError(err)
	}
	return saved, nil
}

// UpdateStatus overwrites the status with any known value. Transitions are
// permissive; the back-office owns the lifecycle.
func (s *orderService) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	if !domain.KnownOrderStatus(status) {
		return domain.Order{}, fmt.Errorf("%w: %q", ErrUnknownOrderStatus, status)
	}
	saved, err := s.orders.UpdateStatus(ctx, strings.TrimSpace(orderID), status)
	if err != nil {
		return domain.Order{}, mapRepositoryError(err)
	}
	s.publishEvent(ctx, orderEventStatusChanged, saved)
	return saved, nil
}

// Delete removes the order.
func (s *orderService) Delete(ctx context.Context, orderID string) error {
	if err := s.orders.Delete(ctx, strings.TrimSpace(orderID)); err != nil {
		return mapRepositoryError(err)
	}
	return nil
}

// Stats aggregates order count and gross sales.
func (s *orderService) Stats(ctx context.Context) (domain.OrderStats, error) {
	return s.orders.Stats(ctx)
}

// Pay creates a payment intent for the order through the configured gateway.
func (s *orderService) Pay(ctx context.Context, orderID string) (domain.PaymentIntent, error) {
	if s.gateway == nil {
		return domain.PaymentIntent{}, errors.New("order service: payment gateway not configured")
	}
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return domain.PaymentIntent{}, err
	}
	return s.gateway.CreateIntent(ctx, order)
}

// publishEvent forwards the lifecycle event best effort; failures are logged
// and never fail the originating operation.
func (s *orderService) publishEvent(ctx context.Context, event string, order domain.Order) {
	if s.publisher == nil {
		return
	}
	message := OrderEventMessage{
		Event:      event,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     string(order.Status),
		InvoiceRef: order.InvoiceRef,
		Total:      order.Total,
		OccurredAt: s.clock().UTC(),
	}
	if _, err := s.publisher.PublishOrderEvent(ctx, message); err != nil {
		s.logger.Warn("order event publish failed",
			zap.String("event", event),
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
}

// mapRepositoryError converts persistence not-found errors into the service
// sentinel so handlers can translate them to 404s.
func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) && repoErr.IsNotFound() {
		return fmt.Errorf("%w: %s", ErrNotFound, err.Error())
	}
	return err
}
