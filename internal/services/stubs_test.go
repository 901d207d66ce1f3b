package services

import (
	"context"
	"strconv"
	"sync"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	"github.com/Zllawi/bassmaStore/internal/repositories"
)

type notFoundError struct{ msg string }

func (e *notFoundError) Error() string       { return e.msg }
func (e *notFoundError) IsNotFound() bool    { return true }
func (e *notFoundError) IsConflict() bool    { return false }
func (e *notFoundError) IsUnavailable() bool { return false }

var _ repositories.RepositoryError = (*notFoundError)(nil)

type stubOrderRepo struct {
	mu       sync.Mutex
	orders   map[string]domain.Order
	inserted []domain.Order
	insertFn func(context.Context, domain.Order) (domain.Order, error)
	statsFn  func(context.Context) (domain.OrderStats, error)
	nextID   int
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: map[string]domain.Order{}}
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	s.nextID++
	order.ID = "order-" + strconv.Itoa(s.nextID)
	s.orders[order.ID] = order
	s.inserted = append(s.inserted, order)
	return order, nil
}

func (s *stubOrderRepo) FindByID(_ context.Context, orderID string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, &notFoundError{msg: "order " + orderID + " not found"}
	}
	return order, nil
}

func (s *stubOrderRepo) ListByUser(_ context.Context, userID string, _ int) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Order
	for _, order := range s.orders {
		if order.UserID == userID {
			result = append(result, order)
		}
	}
	return result, nil
}

func (s *stubOrderRepo) List(_ context.Context, filter domain.OrderListFilter) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Order
	for _, order := range s.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.UserID != "" && order.UserID != filter.UserID {
			continue
		}
		result = append(result, order)
	}
	return result, nil
}

func (s *stubOrderRepo) Update(_ context.Context, order domain.Order) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[order.ID]; !ok {
		return domain.Order{}, &notFoundError{msg: "order " + order.ID + " not found"}
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrderRepo) UpdateStatus(_ context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok {
		return domain.Order{}, &notFoundError{msg: "order " + orderID + " not found"}
	}
	order.Status = status
	s.orders[orderID] = order
	return order, nil
}

func (s *stubOrderRepo) Delete(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		return &notFoundError{msg: "order " + orderID + " not found"}
	}
	delete(s.orders, orderID)
	return nil
}

func (s *stubOrderRepo) Stats(ctx context.Context) (domain.OrderStats, error) {
	if s.statsFn != nil {
		return s.statsFn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats domain.OrderStats
	for _, order := range s.orders {
		stats.Count++
		stats.Sales += order.Total
	}
	return stats, nil
}

type stubProductRepo struct {
	mu       sync.Mutex
	products map[string]domain.Product
	insertFn func(context.Context, domain.Product) (domain.Product, error)
	listFn   func(context.Context, domain.ProductListFilter) ([]domain.Product, error)
	findErr  error
	nextID   int
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: map[string]domain.Product{}}
}

func (s *stubProductRepo) Insert(ctx context.Context, product domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertFn != nil {
		return s.insertFn(ctx, product)
	}
	s.nextID++
	product.ID = "prod-" + strconv.Itoa(s.nextID)
	s.products[product.ID] = product
	return product, nil
}

func (s *stubProductRepo) FindByID(_ context.Context, productID string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return domain.Product{}, s.findErr
	}
	product, ok := s.products[productID]
	if !ok {
		return domain.Product{}, &notFoundError{msg: "product " + productID + " not found"}
	}
	return product, nil
}

func (s *stubProductRepo) FindBySlug(_ context.Context, slug string) (domain.Product, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, product := range s.products {
		if product.Slug == slug {
			return product, true, nil
		}
	}
	return domain.Product{}, false, nil
}

func (s *stubProductRepo) List(ctx context.Context, filter domain.ProductListFilter) ([]domain.Product, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Product
	for _, product := range s.products {
		result = append(result, product)
	}
	return result, nil
}

func (s *stubProductRepo) Update(_ context.Context, product domain.Product) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[product.ID]; !ok {
		return domain.Product{}, &notFoundError{msg: "product " + product.ID + " not found"}
	}
	s.products[product.ID] = product
	return product, nil
}

func (s *stubProductRepo) Delete(_ context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		return &notFoundError{msg: "product " + productID + " not found"}
	}
	delete(s.products, productID)
	return nil
}

type stubUserRepo struct {
	mu       sync.Mutex
	users    map[string]domain.User
	insertFn func(context.Context, domain.User) (domain.User, error)
	findErr  error
	nextID   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: map[string]domain.User{}}
}

func (s *stubUserRepo) put(user domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		s.nextID++
		user.ID = "user-" + strconv.Itoa(s.nextID)
	}
	s.users[user.ID] = user
	return user
}

func (s *stubUserRepo) Insert(ctx context.Context, user domain.User) (domain.User, error) {
	if s.insertFn != nil {
		return s.insertFn(ctx, user)
	}
	s.mu.Lock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			s.mu.Unlock()
			return domain.User{}, ErrEmailTaken
		}
	}
	s.mu.Unlock()
	return s.put(user), nil
}

func (s *stubUserRepo) FindByID(_ context.Context, userID string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return domain.User{}, s.findErr
	}
	user, ok := s.users[userID]
	if !ok {
		return domain.User{}, &notFoundError{msg: "user " + userID + " not found"}
	}
	return user, nil
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (s *stubUserRepo) Update(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return domain.User{}, &notFoundError{msg: "user " + user.ID + " not found"}
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *stubUserRepo) BumpTokenVersion(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return 0, &notFoundError{msg: "user " + userID + " not found"}
	}
	user.TokenVersion++
	s.users[userID] = user
	return user.TokenVersion, nil
}

func (s *stubUserRepo) List(_ context.Context, _ int) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.User
	for _, user := range s.users {
		result = append(result, user)
	}
	return result, nil
}

func (s *stubUserRepo) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return &notFoundError{msg: "user " + userID + " not found"}
	}
	delete(s.users, userID)
	return nil
}

type stubAddressRepo struct {
	mu        sync.Mutex
	byUser    map[string][]domain.Address
	defaultFn func(context.Context, string) (domain.Address, bool, error)
	nextID    int
}

func newStubAddressRepo() *stubAddressRepo {
	return &stubAddressRepo{byUser: map[string][]domain.Address{}}
}

func (s *stubAddressRepo) List(_ context.Context, userID string) ([]domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Address(nil), s.byUser[userID]...), nil
}

func (s *stubAddressRepo) Get(_ context.Context, userID string, addressID string) (domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, addr := range s.byUser[userID] {
		if addr.ID == addressID {
			return addr, nil
		}
	}
	return domain.Address{}, &notFoundError{msg: "address " + addressID + " not found"}
}

func (s *stubAddressRepo) Insert(_ context.Context, userID string, addr domain.Address) (domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	addr.ID = "addr-" + strconv.Itoa(s.nextID)
	if len(s.byUser[userID]) == 0 {
		addr.IsDefault = true
	}
	if addr.IsDefault {
		s.clearDefaultLocked(userID, addr.ID)
	}
	s.byUser[userID] = append(s.byUser[userID], addr)
	return addr, nil
}

func (s *stubAddressRepo) Update(_ context.Context, userID string, addr domain.Address) (domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.byUser[userID] {
		if existing.ID == addr.ID {
			if addr.IsDefault {
				s.clearDefaultLocked(userID, addr.ID)
			}
			s.byUser[userID][i] = addr
			return addr, nil
		}
	}
	return domain.Address{}, &notFoundError{msg: "address " + addr.ID + " not found"}
}

func (s *stubAddressRepo) Delete(_ context.Context, userID string, addressID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	addrs := s.byUser[userID]
	for i, addr := range addrs {
		if addr.ID == addressID {
			s.byUser[userID] = append(addrs[:i], addrs[i+1:]...)
			return nil
		}
	}
	return &notFoundError{msg: "address " + addressID + " not found"}
}

func (s *stubAddressRepo) SetDefault(_ context.Context, userID string, addressID string) (domain.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, addr := range s.byUser[userID] {
		if addr.ID == addressID {
			s.clearDefaultLocked(userID, addressID)
			s.byUser[userID][i].IsDefault = true
			return s.byUser[userID][i], nil
		}
	}
	return domain.Address{}, &notFoundError{msg: "address " + addressID + " not found"}
}

func (s *stubAddressRepo) FindDefault(ctx context.Context, userID string) (domain.Address, bool, error) {
	if s.defaultFn != nil {
		return s.defaultFn(ctx, userID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, addr := range s.byUser[userID] {
		if addr.IsDefault {
			return addr, true, nil
		}
	}
	return domain.Address{}, false, nil
}

func (s *stubAddressRepo) clearDefaultLocked(userID string, exceptID string) {
	for i, addr := range s.byUser[userID] {
		if addr.ID != exceptID {
			s.byUser[userID][i].IsDefault = false
		}
	}
}

func (s *stubAddressRepo) defaults(userID string) []domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Address
	for _, addr := range s.byUser[userID] {
		if addr.IsDefault {
			result = append(result, addr)
		}
	}
	return result
}

type fakeCounterService struct {
	mu     sync.Mutex
	seq    int64
	nextFn func(context.Context, string) (int64, error)
	calls  []string
}

func (f *fakeCounterService) Next(ctx context.Context, key string) (int64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, key)
	f.mu.Unlock()
	if f.nextFn != nil {
		return f.nextFn(ctx, key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return f.seq, nil
}

func (f *fakeCounterService) NextInvoiceRef(ctx context.Context) (string, error) {
	seq, err := f.Next(ctx, orderInvoiceCounterKey)
	if err != nil {
		return "", err
	}
	return FormatInvoice(seq, invoiceRefWidth)
}

type stubPublisher struct {
	mu       sync.Mutex
	messages []OrderEventMessage
	err      error
}

func (s *stubPublisher) PublishOrderEvent(_ context.Context, message OrderEventMessage) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.messages = append(s.messages, message)
	return "msg-1", nil
}

type stubGateway struct {
	intent domain.PaymentIntent
	err    error
	orders []domain.Order
}

func (s *stubGateway) CreateIntent(_ context.Context, order domain.Order) (domain.PaymentIntent, error) {
	s.orders = append(s.orders, order)
	if s.err != nil {
		return domain.PaymentIntent{}, s.err
	}
	return s.intent, nil
}
