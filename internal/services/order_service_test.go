package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
)

func newTestOrderService(t *testing.T, deps OrderServiceDeps) OrderService {
	t.Helper()
	if deps.Orders == nil {
		deps.Orders = newStubOrderRepo()
	}
	if deps.Products == nil {
		deps.Products = newStubProductRepo()
	}
	if deps.Users == nil {
		deps.Users = newStubUserRepo()
	}
	if deps.Addresses == nil {
		deps.Addresses = newStubAddressRepo()
	}
	if deps.Counter == nil {
		deps.Counter = &fakeCounterService{}
	}
	svc, err := NewOrderService(deps)
	if err != nil {
		t.Fatalf("new order service: %v", err)
	}
	return svc
}

func TestOrderCreateMintsInvoiceAndPersistsPending(t *testing.T) {
	orders := newStubOrderRepo()
	users := newStubUserRepo()
	users.put(domain.User{ID: "user-1", Name: "Ali", Phone: "0911111111", City: "Tripoli", Region: "Center", AddressDescription: "Near the park"})
	counter := &fakeCounterService{seq: 6}
	publisher := &stubPublisher{}

	svc := newTestOrderService(t, OrderServiceDeps{Orders: orders, Users: users, Counter: counter, Publisher: publisher})

	order, err := svc.Create(context.Background(), CreateOrderCommand{
		UserID: "user-1",
		Items:  []OrderItemInput{{ProductID: "prod-1", Name: "Shirt", Qty: 2, Price: 10}},
		Total:  20,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending status, got %q", order.Status)
	}
	if order.InvoiceRef != "0007" {
		t.Fatalf("expected invoice ref 0007, got %q", order.InvoiceRef)
	}
	if order.Address != "Tripoli - Center - Near the park" {
		t.Fatalf("unexpected address %q", order.Address)
	}
	if order.CustomerName != "Ali" || order.CustomerPhone != "0911111111" {
		t.Fatalf("expected profile fallback, got %q / %q", order.CustomerName, order.CustomerPhone)
	}

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if len(publisher.messages) != 1 || publisher.messages[0].Event != orderEventCreated {
		t.Fatalf("expected one order.created event, got %#v", publisher.messages)
	}
}

func TestOrderCreateKeepsSuppliedInvoiceRef(t *testing.T) {
	counter := &fakeCounterService{}
	users := newStubUserRepo()
	users.put(domain.User{ID: "user-1", City: "Tripoli"})
	svc := newTestOrderService(t, OrderServiceDeps{Users: users, Counter: counter})

	order, err := svc.Create(context.Background(), CreateOrderCommand{
		UserID:     "user-1",
		Items:      []OrderItemInput{{ProductID: "prod-1", Qty: 1, Price: 5}},
		Total:      5,
		Address:    "12 Main St",
		InvoiceRef: "CUSTOM-9",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.InvoiceRef != "CUSTOM-9" {
		t.Fatalf("expected supplied ref kept, got %q", order.InvoiceRef)
	}
	counter.mu.Lock()
	defer counter.mu.Unlock()
	if len(counter.calls) != 0 {
		t.Fatalf("counter should not be consulted, got calls %v", counter.calls)
	}
}

func TestOrderCreateAccumulatesValidationErrors(t *testing.T) {
	svc := newTestOrderService(t, OrderServiceDeps{})

	_, err := svc.Create(context.Background(), CreateOrderCommand{
		UserID: "user-1",
		Items:  []OrderItemInput{{ProductID: "", Qty: 0, Price: -1}},
		Total:  -3,
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(vErr.Fields) != 4 {
		t.Fatalf("expected 4 field errors, got %d: %v", len(vErr.Fields), vErr.Fields)
	}
}

func TestOrderCreateSwallowsProductLookupFailure(t *testing.T) {
	products := newStubProductRepo()
	products.findErr = errors.New("backend down")
	users := newStubUserRepo()
	users.put(domain.User{ID: "user-1", City: "Tripoli"})

	svc := newTestOrderService(t, OrderServiceDeps{Products: products, Users: users})

	order, err := svc.Create(context.Background(), CreateOrderCommand{
		UserID: "user-1",
		Items:  []OrderItemInput{{ProductID: "gone-product", Qty: 1, Price: 9}},
		Total:  9,
	})
	if err != nil {
		t.Fatalf("create should succeed despite lookup failure: %v", err)
	}
	if order.Items[0].Name != "" {
		t.Fatalf("expected empty item name, got %q", order.Items[0].Name)
	}
}

func TestOrderCreateEnrichesItemNames(t *testing.T) {
	products := newStubProductRepo()
	products.products["prod-1"] = domain.Product{ID: "prod-1", Name: "Blue Shirt"}
	users := newStubUserRepo()
	users.put(domain.User{ID: "user-1", City: "Tripoli"})

	svc := newTestOrderService(t, OrderServiceDeps{Products: products, Users: users})

	order, err := svc.Create(context.Background(), CreateOrderCommand{
		UserID: "user-1",
		Items: []OrderItemInput{
			{ProductID: "prod-1", Qty: 1, Price: 9},
			{ProductID: "prod-1", Name: "Already Named", Qty: 1, Price: 9},
		},
		Total: 18,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.Items[0].Name != "Blue Shirt" {
		t.Fatalf("expected enriched name, got %q", order.Items[0].Name)
	}
	if order.Items[1].Name != "Already Named" {
		t.Fatalf("expected supplied name kept, got %q", order.Items[1].Name)
	}
}

func TestOrderCreateMissingAddressAborts(t *testing.T) {
	users := newStubUserRepo()
	users.put(domain.User{ID: "user-1", Name: "No Address"})
	counter := &fakeCounterService{}

	svc := newTestOrderService(t, OrderServiceDeps{Users: users, Counter: counter})

	_, err := svc.Create(context.Background(), CreateOrderCommand{
		UserID: "user-1",
		Items:  []OrderItemInput{{ProductID: "prod-1", Qty: 1, Price: 5}},
		Total:  5,
	})
	if !errors.Is(err, ErrMissingAddress) {
		t.Fatalf("expected ErrMissingAddress, got %v", err)
	}
	counter.mu.Lock()
	defer counter.mu.Unlock()
	if len(counter.calls) != 0 {
		t.Fatalf("counter must not be consumed when address resolution fails")
	}
}

func TestOrderCreateUsesDefaultAddressBeforeProfile(t *testing.T) {
	users := newStubUserRepo()
	users.put(domain.User{ID: "user-1", Name: "Profile Name", City: "Tripoli"})
	addresses := newStubAddressRepo()
	if _, err := addresses.Insert(context.Background(), "user-1", domain.Address{
		Name: "Saved Name", Phone: "0922222222", City: "Benghazi", Region: "North", AddressDescription: "Blue gate",
	}); err != nil {
		t.Fatalf("seed address: %v", err)
	}

	svc := newTestOrderService(t, OrderServiceDeps{Users: users, Addresses: addresses})

	order, err := svc.Create(context.Background(), CreateOrderCommand{
		UserID: "user-1",
		Items:  []OrderItemInput{{ProductID: "prod-1", Qty: 1, Price: 5}},
		Total:  5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if order.CustomerName != "Saved Name" || order.City != "Benghazi" {
		t.Fatalf("expected saved address to win, got %q / %q", order.CustomerName, order.City)
	}
}

func TestOrderCreateCounterFailureAborts(t *testing.T) {
	counter := &fakeCounterService{nextFn: func(context.Context, string) (int64, error) {
		return 0, ErrCounterUnavailable
	}}
	users := newStubUserRepo()
	users.put(domain.User{ID: "user-1", City: "Tripoli"})
	orders := newStubOrderRepo()

	svc := newTestOrderService(t, OrderServiceDeps{Orders: orders, Users: users, Counter: counter})

	_, err := svc.Create(context.Background(), CreateOrderCommand{
		UserID: "user-1",
		Items:  []OrderItemInput{{ProductID: "prod-1", Qty: 1, Price: 5}},
		Total:  5,
	})
	if !errors.Is(err, ErrCounterUnavailable) {
		t.Fatalf("expected ErrCounterUnavailable, got %v", err)
	}
	orders.mu.Lock()
	defer orders.mu.Unlock()
	if len(orders.inserted) != 0 {
		t.Fatalf("no order must be persisted when the counter fails")
	}
}

func TestOrderCreatePublishFailureDoesNotFail(t *testing.T) {
	users := newStubUserRepo()
	users.put(domain.User{ID: "user-1", City: "Tripoli"})
	publisher := &stubPublisher{err: errors.New("topic gone")}

	svc := newTestOrderService(t, OrderServiceDeps{Users: users, Publisher: publisher})

	if _, err := svc.Create(context.Background(), CreateOrderCommand{
		UserID: "user-1",
		Items:  []OrderItemInput{{ProductID: "prod-1", Qty: 1, Price: 5}},
		Total:  5,
	}); err != nil {
		t.Fatalf("create should succeed despite publish failure: %v", err)
	}
}

func TestOrderUpdateStatusValidatesAndPublishes(t *testing.T) {
	orders := newStubOrderRepo()
	orders.orders["order-1"] = domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusPending}
	publisher := &stubPublisher{}

	svc := newTestOrderService(t, OrderServiceDeps{Orders: orders, Publisher: publisher})

	if _, err := svc.UpdateStatus(context.Background(), "order-1", "exploded"); !errors.Is(err, ErrUnknownOrderStatus) {
		t.Fatalf("expected ErrUnknownOrderStatus, got %v", err)
	}

	order, err := svc.UpdateStatus(context.Background(), "order-1", domain.OrderStatusShipped)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if order.Status != domain.OrderStatusShipped {
		t.Fatalf("unexpected status %q", order.Status)
	}

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if len(publisher.messages) != 1 || publisher.messages[0].Event != orderEventStatusChanged {
		t.Fatalf("expected one status change event, got %#v", publisher.messages)
	}
}

func TestOrderUpdateRewritesAllowedFieldsOnly(t *testing.T) {
	orders := newStubOrderRepo()
	orders.orders["order-1"] = domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusPending, InvoiceRef: "0001", Total: 9}

	svc := newTestOrderService(t, OrderServiceDeps{Orders: orders})

	status := domain.OrderStatusPaid
	ref := "0042"
	order, err := svc.Update(context.Background(), "order-1", UpdateOrderCommand{Status: &status, InvoiceRef: &ref})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if order.Status != domain.OrderStatusPaid || order.InvoiceRef != "0042" {
		t.Fatalf("unexpected result %+v", order)
	}
	if order.Total != 9 {
		t.Fatalf("total must be untouched, got %v", order.Total)
	}
}

func TestOrderGetMapsNotFound(t *testing.T) {
	svc := newTestOrderService(t, OrderServiceDeps{})
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOrderStats(t *testing.T) {
	orders := newStubOrderRepo()
	orders.orders["a"] = domain.Order{ID: "a", Total: 10}
	orders.orders["b"] = domain.Order{ID: "b", Total: 15.5}

	svc := newTestOrderService(t, OrderServiceDeps{Orders: orders})

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Count != 2 || stats.Sales != 25.5 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestOrderPayUsesGateway(t *testing.T) {
	orders := newStubOrderRepo()
	orders.orders["order-1"] = domain.Order{ID: "order-1", Total: 30}
	gateway := &stubGateway{intent: domain.PaymentIntent{ID: "pi_1", ClientSecret: "cs_1", Amount: 30, Currency: "usd"}}

	svc := newTestOrderService(t, OrderServiceDeps{Orders: orders, Gateway: gateway})

	intent, err := svc.Pay(context.Background(), "order-1")
	if err != nil {
		t.Fatalf("pay: %v", err)
	}
	if intent.ID != "pi_1" {
		t.Fatalf("unexpected intent %+v", intent)
	}
	if len(gateway.orders) != 1 || gateway.orders[0].ID != "order-1" {
		t.Fatalf("gateway did not receive the order")
	}
}
