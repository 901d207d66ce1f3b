package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Zllawi/bassmaStore/internal/repositories"
)

const (
	orderInvoiceCounterKey = "order_invoice"
	invoiceRefWidth        = 4
)

// FormatInvoice renders a sequence value as a decimal string zero-padded to at
// least width digits. Values wider than width pass through unpadded, so the
// reference stays faithful to the raw sequence.
func FormatInvoice(n int64, width int) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidSequenceValue, n)
	}
	digits := strconv.FormatInt(n, 10)
	if width > len(digits) {
		digits = strings.Repeat("0", width-len(digits)) + digits
	}
	return digits, nil
}

// CounterServiceDeps bundles collaborators required to construct a counter service.
type CounterServiceDeps struct {
	Repository repositories.CounterRepository
}

type counterService struct {
	repo repositories.CounterRepository
}

// NewCounterService constructs a service that manages sequence counters on top
// of the repository.
func NewCounterService(deps CounterServiceDeps) (CounterService, error) {
	if deps.Repository == nil {
		return nil, errors.New("counter service: repository is required")
	}
	return &counterService{repo: deps.Repository}, nil
}

// Next returns the next value for the named counter. Store failures surface as
// ErrCounterUnavailable; no fallback value is ever substituted.
func (s *counterService) Next(ctx context.Context, key string) (int64, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return 0, &ValidationError{Fields: []FieldError{{Field: "key", Message: "is required"}}}
	}

	value, err := s.repo.Next(ctx, key)
	if err != nil {
		var counterErr *repositories.CounterError
		if errors.As(err, &counterErr) {
			switch counterErr.Code {
			case repositories.CounterErrorInvalidInput:
				return 0, &ValidationError{Fields: []FieldError{{Field: "key", Message: counterErr.Message}}}
			case repositories.CounterErrorUnavailable:
				return 0, fmt.Errorf("%w: %s", ErrCounterUnavailable, counterErr.Message)
			}
		}
		return 0, err
	}
	return value, nil
}

// NextInvoiceRef mints the next order invoice reference.
func (s *counterService) NextInvoiceRef(ctx context.Context) (string, error) {
	seq, err := s.Next(ctx, orderInvoiceCounterKey)
	if err != nil {
		return "", err
	}
	return FormatInvoice(seq, invoiceRefWidth)
}
