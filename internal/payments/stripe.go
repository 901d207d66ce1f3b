package payments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"go.uber.org/zap"

	domain "github.com/Zllawi/bassmaStore/internal/domain"
	"github.com/Zllawi/bassmaStore/internal/services"
)

type stripeIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

// StripeGatewayConfig configures the Stripe payment gateway.
type StripeGatewayConfig struct {
	APIKey   string
	Currency string
	Backends *stripe.Backends
	Logger   *zap.Logger
	Intents  stripeIntentAPI
}

// StripeGateway collects order payments through Stripe payment intents.
type StripeGateway struct {
	intents  stripeIntentAPI
	currency string
	logger   *zap.Logger
}

// NewStripeGateway constructs a Stripe-backed payment gateway.
func NewStripeGateway(cfg StripeGatewayConfig) (*StripeGateway, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Intents == nil {
		return nil, errors.New("stripe: api key is required")
	}

	intents := cfg.Intents
	if intents == nil {
		sc := client.New(apiKey, cfg.Backends)
		intents = sc.PaymentIntents
	}

	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "usd"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StripeGateway{intents: intents, currency: currency, logger: logger}, nil
}

// CreateIntent creates a payment intent for the order total. Amounts are
// converted to the currency's minor unit.
func (g *StripeGateway) CreateIntent(ctx context.Context, order domain.Order) (domain.PaymentIntent, error) {
	if g == nil || g.intents == nil {
		return domain.PaymentIntent{}, errors.New("stripe: gateway is not configured")
	}
	if order.Total <= 0 {
		return domain.PaymentIntent{}, fmt.Errorf("stripe: order %s has non-positive total", order.ID)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minorUnits(order.Total)),
		Currency: stripe.String(g.currency),
		Metadata: map[string]string{
			"orderId": order.ID,
			"userId":  order.UserID,
		},
	}
	params.Context = ctx
	if ref := strings.TrimSpace(order.InvoiceRef); ref != "" {
		params.Metadata["invoiceRef"] = ref
		params.SetIdempotencyKey("order-invoice-" + ref)
	}

	intent, err := g.intents.New(params)
	if err != nil {
		return domain.PaymentIntent{}, fmt.Errorf("stripe: create payment intent: %w", err)
	}

	g.logger.Info("payment intent created",
		zap.String("orderId", order.ID),
		zap.String("paymentIntent", intent.ID),
		zap.Int64("amount", intent.Amount),
	)

	return domain.PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       float64(intent.Amount) / 100,
		Currency:     strings.ToUpper(string(intent.Currency)),
	}, nil
}

func minorUnits(total float64) int64 {
	return int64(math.Round(total * 100))
}

var _ services.PaymentGateway = (*StripeGateway)(nil)
