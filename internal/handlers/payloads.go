package handlers

import (
	"time"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
)

type userPayload struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	Phone              string `json:"phone,omitempty"`
	City               string `json:"city,omitempty"`
	Region             string `json:"region,omitempty"`
	AddressDescription string `json:"addressDescription,omitempty"`
	CreatedAt          string `json:"createdAt,omitempty"`
}

func buildUserPayload(user domain.User) userPayload {
	return userPayload{
		ID:                 user.ID,
		Name:               user.Name,
		Email:              user.Email,
		Role:               string(user.Role),
		Phone:              user.Phone,
		City:               user.City,
		Region:             user.Region,
		AddressDescription: user.AddressDescription,
		CreatedAt:          formatTime(user.CreatedAt),
	}
}

type addressPayload struct {
	ID                 string `json:"id"`
	Label              string `json:"label,omitempty"`
	Name               string `json:"name,omitempty"`
	Phone              string `json:"phone,omitempty"`
	City               string `json:"city,omitempty"`
	Region             string `json:"region,omitempty"`
	Address            string `json:"address,omitempty"`
	AddressDescription string `json:"addressDescription,omitempty"`
	IsDefault          bool   `json:"isDefault"`
}

func buildAddressPayload(addr domain.Address) addressPayload {
	return addressPayload{
		ID:                 addr.ID,
		Label:              addr.Label,
		Name:               addr.Name,
		Phone:              addr.Phone,
		City:               addr.City,
		Region:             addr.Region,
		Address:            addr.Address,
		AddressDescription: addr.AddressDescription,
		IsDefault:          addr.IsDefault,
	}
}

type productPayload struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Price       float64  `json:"price"`
	Images      []string `json:"images"`
	Category    string   `json:"category,omitempty"`
	Stock       int64    `json:"stock"`
	Description string   `json:"description,omitempty"`
	IsFeatured  bool     `json:"isFeatured"`
	Discount    float64  `json:"discount"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

func buildProductPayload(product domain.Product) productPayload {
	images := product.Images
	if images == nil {
		images = []string{}
	}
	return productPayload{
		ID:          product.ID,
		Name:        product.Name,
		Slug:        product.Slug,
		Price:       product.Price,
		Images:      images,
		Category:    product.Category,
		Stock:       product.Stock,
		Description: product.Description,
		IsFeatured:  product.IsFeatured,
		Discount:    product.Discount,
		CreatedAt:   formatTime(product.CreatedAt),
	}
}

type orderItemPayload struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name,omitempty"`
	Qty       int64   `json:"qty"`
	Price     float64 `json:"price"`
}

type orderPayload struct {
	ID                 string             `json:"id"`
	UserID             string             `json:"userId"`
	Items              []orderItemPayload `json:"items"`
	Total              float64            `json:"total"`
	Status             string             `json:"status"`
	Address            string             `json:"address"`
	CustomerName       string             `json:"customerName,omitempty"`
	CustomerPhone      string             `json:"customerPhone,omitempty"`
	City               string             `json:"city,omitempty"`
	Region             string             `json:"region,omitempty"`
	AddressDescription string             `json:"addressDescription,omitempty"`
	InvoiceRef         string             `json:"invoiceRef,omitempty"`
	CreatedAt          string             `json:"createdAt,omitempty"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{
			ProductID: item.ProductID,
			Name:      item.Name,
			Qty:       item.Qty,
			Price:     item.Price,
		})
	}
	return orderPayload{
		ID:                 order.ID,
		UserID:             order.UserID,
		Items:              items,
		Total:              order.Total,
		Status:             string(order.Status),
		Address:            order.Address,
		CustomerName:       order.CustomerName,
		CustomerPhone:      order.CustomerPhone,
		City:               order.City,
		Region:             order.Region,
		AddressDescription: order.AddressDescription,
		InvoiceRef:         order.InvoiceRef,
		CreatedAt:          formatTime(order.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
