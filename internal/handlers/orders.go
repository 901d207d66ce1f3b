package handlers

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	"github.com/Zllawi/bassmaStore/internal/platform/auth"
	"github.com/Zllawi/bassmaStore/internal/platform/httpx"
	"github.com/Zllawi/bassmaStore/internal/services"
)

// OrderHandlers exposes checkout and order administration endpoints.
type OrderHandlers struct {
	orders services.OrderService
	guard  AuthMiddleware
}

// NewOrderHandlers constructs the order handler set.
func NewOrderHandlers(orders services.OrderService, guard AuthMiddleware) *OrderHandlers {
	return &OrderHandlers{orders: orders, guard: guard}
}

// Routes registers the order endpoints. All of them require authentication;
// listing, stats, edits, and deletes additionally require the admin role.
func (h *OrderHandlers) Routes(r chi.Router) {
	r.Use(h.guard.RequireAuth())

	r.Post("/", h.create)
	r.Get("/me", h.mine)
	r.Get("/{orderID}", h.get)
	r.Post("/{orderID}:pay", h.pay)

	r.Group(func(admin chi.Router) {
		admin.Use(h.guard.RequireRole(auth.RoleAdmin))
		admin.Get("/", h.list)
		admin.Get("/stats", h.stats)
		admin.Patch("/{orderID}", h.update)
		admin.Patch("/{orderID}/status", h.updateStatus)
		admin.Delete("/{orderID}", h.delete)
	})
}

type orderItemRequest struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Qty       json.RawMessage `json:"qty"`
	Price     json.RawMessage `json:"price"`
}

type createOrderRequest struct {
	Items              []orderItemRequest `json:"items"`
	Total              json.RawMessage    `json:"total"`
	Address            string             `json:"address"`
	CustomerName       string             `json:"customerName"`
	CustomerPhone      string             `json:"customerPhone"`
	City               string             `json:"city"`
	Region             string             `json:"region"`
	AddressDescription string             `json:"addressDescription"`
	InvoiceRef         string             `json:"invoiceRef"`
}

func (h *OrderHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cmd := services.CreateOrderCommand{
		UserID:             identity.UserID,
		Address:            req.Address,
		CustomerName:       req.CustomerName,
		CustomerPhone:      req.CustomerPhone,
		City:               req.City,
		Region:             req.Region,
		AddressDescription: req.AddressDescription,
		InvoiceRef:         req.InvoiceRef,
	}
	vErr := &services.ValidationError{}

	total, set, err := parseFlexibleNumber(req.Total, "total")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	if !set {
		vErr.Add("total", "is required")
	}
	cmd.Total = total

	for i, item := range req.Items {
		qty, _, err := parseFlexibleNumber(item.Qty, "qty")
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
			return
		}
		if qty != math.Trunc(qty) {
			vErr.Add(fmt.Sprintf("items[%d].qty", i), "must be an integer")
		}
		price, _, err := parseFlexibleNumber(item.Price, "price")
		if err != nil {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
			return
		}
		cmd.Items = append(cmd.Items, services.OrderItemInput{
			ProductID: item.ProductID,
			Name:      item.Name,
			Qty:       int64(qty),
			Price:     price,
		})
	}

	if err := vErr.ErrOrNil(); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	order, err := h.orders.Create(ctx, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+order.ID)
	writeJSON(w, http.StatusCreated, buildOrderPayload(order))
}

func (h *OrderHandlers) mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orders, err := h.orders.Mine(ctx, identity.UserID, 0)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, buildOrderPayload(order))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *OrderHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	order, err := h.orders.Get(ctx, orderID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if order.UserID != identity.UserID && !identity.IsAdmin() {
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "insufficient permissions", http.StatusForbidden))
		return
	}
	writeJSON(w, http.StatusOK, buildOrderPayload(order))
}

func (h *OrderHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := domain.OrderListFilter{
		Status: domain.OrderStatus(strings.TrimSpace(query.Get("status"))),
		UserID: strings.TrimSpace(query.Get("userId")),
	}
	if filter.Status != "" && !domain.KnownOrderStatus(filter.Status) {
		httpx.WriteError(ctx, w, httpx.NewError("unknown_status", "unknown order status", http.StatusBadRequest))
		return
	}

	orders, err := h.orders.List(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payload = append(payload, buildOrderPayload(order))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *OrderHandlers) stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.orders.Stats(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": stats.Count,
		"sales": stats.Sales,
	})
}

type updateOrderRequest struct {
	Status     *string `json:"status"`
	InvoiceRef *string `json:"invoiceRef"`
}

func (h *OrderHandlers) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	var req updateOrderRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cmd := services.UpdateOrderCommand{InvoiceRef: req.InvoiceRef}
	if req.Status != nil {
		status := domain.OrderStatus(strings.TrimSpace(*req.Status))
		cmd.Status = &status
	}

	order, err := h.orders.Update(ctx, orderID, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildOrderPayload(order))
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandlers) updateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	var req updateStatusRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	order, err := h.orders.UpdateStatus(ctx, orderID, domain.OrderStatus(strings.TrimSpace(req.Status)))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildOrderPayload(order))
}

func (h *OrderHandlers) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	if orderID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "order id is required", http.StatusBadRequest))
		return
	}

	if err := h.orders.Delete(ctx, orderID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandlers) pay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, ok := requireIdentity(w, r)
	if !ok {
		return
	}

	orderID := strings.TrimSpace(chi.URLParam(r, "orderID"))
	order, err := h.orders.Get(ctx, orderID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	if order.UserID != identity.UserID && !identity.IsAdmin() {
		httpx.WriteError(ctx, w, httpx.NewError("forbidden", "insufficient permissions", http.StatusForbidden))
		return
	}

	intent, err := h.orders.Pay(ctx, orderID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"paymentIntentId": intent.ID,
		"clientSecret":    intent.ClientSecret,
		"amount":          intent.Amount,
		"currency":        intent.Currency,
	})
}
