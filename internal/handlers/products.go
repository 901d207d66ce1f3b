package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	"github.com/Zllawi/bassmaStore/internal/platform/auth"
	"github.com/Zllawi/bassmaStore/internal/platform/httpx"
	"github.com/Zllawi/bassmaStore/internal/platform/storage"
	"github.com/Zllawi/bassmaStore/internal/platform/textutil"
	"github.com/Zllawi/bassmaStore/internal/services"
)

const maxImageUploadMemory = 8 << 20

// ProductHandlers exposes the public catalog and its admin management endpoints.
type ProductHandlers struct {
	catalog services.CatalogService
	guard   AuthMiddleware
}

// NewProductHandlers constructs the catalog handler set.
func NewProductHandlers(catalog services.CatalogService, guard AuthMiddleware) *ProductHandlers {
	return &ProductHandlers{catalog: catalog, guard: guard}
}

// Routes registers the catalog endpoints.
func (h *ProductHandlers) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{idOrSlug}", h.get)

	r.Group(func(admin chi.Router) {
		admin.Use(h.guard.RequireAuth())
		admin.Use(h.guard.RequireRole(auth.RoleAdmin))
		admin.Post("/", h.create)
		admin.Patch("/{productID}", h.update)
		admin.Delete("/{productID}", h.delete)
		admin.Post("/{productID}/images", h.uploadImage)
	})
}

func (h *ProductHandlers) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := domain.ProductListFilter{
		Query:    strings.TrimSpace(query.Get("q")),
		Category: strings.TrimSpace(query.Get("category")),
		Sort:     strings.TrimSpace(query.Get("sort")),
	}

	// Price bounds accept localised digit strings (Arabic-Indic digits,
	// comma decimals) the same way the rest of the numeric inputs do.
	if raw := strings.TrimSpace(query.Get("minPrice")); raw != "" {
		value, ok := textutil.ParseNumber(raw)
		if !ok {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "minPrice is not a number", http.StatusBadRequest))
			return
		}
		filter.MinPrice = &value
	}
	if raw := strings.TrimSpace(query.Get("maxPrice")); raw != "" {
		value, ok := textutil.ParseNumber(raw)
		if !ok {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "maxPrice is not a number", http.StatusBadRequest))
			return
		}
		filter.MaxPrice = &value
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "limit must be a non-negative integer", http.StatusBadRequest))
			return
		}
		filter.Limit = limit
	}

	products, err := h.catalog.List(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	payload := make([]productPayload, 0, len(products))
	for _, product := range products {
		payload = append(payload, buildProductPayload(product))
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *ProductHandlers) get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	idOrSlug := strings.TrimSpace(chi.URLParam(r, "idOrSlug"))
	product, err := h.catalog.Get(ctx, idOrSlug)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildProductPayload(product))
}

type productRequest struct {
	Name        string          `json:"name"`
	Price       json.RawMessage `json:"price"`
	Images      []string        `json:"images"`
	Category    string          `json:"category"`
	Stock       *int64          `json:"stock"`
	Description string          `json:"description"`
	IsFeatured  bool            `json:"isFeatured"`
	Discount    json.RawMessage `json:"discount"`
}

// parseFlexibleNumber accepts JSON numbers as well as localised digit strings.
func parseFlexibleNumber(raw json.RawMessage, field string) (float64, bool, error) {
	if len(raw) == 0 {
		return 0, false, nil
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber, true, nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if value, ok := textutil.ParseNumber(asString); ok {
			return value, true, nil
		}
	}
	return 0, false, errors.New(field + " is not a number")
}

func (h *ProductHandlers) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req productRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	price, _, err := parseFlexibleNumber(req.Price, "price")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}
	discount, _, err := parseFlexibleNumber(req.Discount, "discount")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	cmd := services.CreateProductCommand{
		Name:        req.Name,
		Price:       price,
		Images:      req.Images,
		Category:    req.Category,
		Description: req.Description,
		IsFeatured:  req.IsFeatured,
		Discount:    discount,
	}
	if req.Stock != nil {
		cmd.Stock = *req.Stock
	}

	product, err := h.catalog.Create(ctx, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.Header().Set("Location", strings.TrimSuffix(r.URL.Path, "/")+"/"+product.ID)
	writeJSON(w, http.StatusCreated, buildProductPayload(product))
}

type productUpdateRequest struct {
	Name        *string         `json:"name"`
	Price       json.RawMessage `json:"price"`
	Images      *[]string       `json:"images"`
	Category    *string         `json:"category"`
	Stock       *int64          `json:"stock"`
	Description *string         `json:"description"`
	IsFeatured  *bool           `json:"isFeatured"`
	Discount    json.RawMessage `json:"discount"`
}

func (h *ProductHandlers) update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	var req productUpdateRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cmd := services.UpdateProductCommand{
		Name:        req.Name,
		Images:      req.Images,
		Category:    req.Category,
		Stock:       req.Stock,
		Description: req.Description,
		IsFeatured:  req.IsFeatured,
	}
	if price, set, err := parseFlexibleNumber(req.Price, "price"); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	} else if set {
		cmd.Price = &price
	}
	if discount, set, err := parseFlexibleNumber(req.Discount, "discount"); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	} else if set {
		cmd.Discount = &discount
	}

	product, err := h.catalog.Update(ctx, productID, cmd)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildProductPayload(product))
}

func (h *ProductHandlers) delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	if err := h.catalog.Delete(ctx, productID); err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProductHandlers) uploadImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	productID := strings.TrimSpace(chi.URLParam(r, "productID"))
	if productID == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "product id is required", http.StatusBadRequest))
		return
	}

	if err := r.ParseMultipartForm(maxImageUploadMemory); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "multipart form is required", http.StatusBadRequest))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "image file is required", http.StatusBadRequest))
		return
	}
	defer file.Close()

	product, err := h.catalog.AttachImage(ctx, productID, header.Header.Get("Content-Type"), file)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrContentTypeDenied):
			httpx.WriteError(ctx, w, httpx.NewError("unsupported_media_type", "image type not allowed", http.StatusUnsupportedMediaType))
		case errors.Is(err, storage.ErrImageTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "image exceeds maximum size", http.StatusRequestEntityTooLarge))
		default:
			writeServiceError(ctx, w, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, buildProductPayload(product))
}
