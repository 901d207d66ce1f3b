package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	"github.com/Zllawi/bassmaStore/internal/services"
)

// DummyGateway accepts every payment without contacting a provider. It is used
// in local development and when no Stripe key is configured.
type DummyGateway struct {
	currency string
	now      func() time.Time
}

// NewDummyGateway constructs a gateway that fabricates payment intents locally.
func NewDummyGateway(currency string) *DummyGateway {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "USD"
	}
	return &DummyGateway{currency: currency, now: time.Now}
}

// CreateIntent returns a synthetic intent tied to the order.
func (g *DummyGateway) CreateIntent(_ context.Context, order domain.Order) (domain.PaymentIntent, error) {
	stamp := g.now().UTC().UnixNano()
	return domain.PaymentIntent{
		ID:           fmt.Sprintf("dummy_%s_%d", order.ID, stamp),
		ClientSecret: fmt.Sprintf("dummy_secret_%d", stamp),
		Amount:       order.Total,
		Currency:     g.currency,
	}, nil
}

var _ services.PaymentGateway = (*DummyGateway)(nil)
