// Package payment talks to the Razorpay payment gateway.
package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"property-service/internal/config"
)

var ErrMissingCredentials = errors.New("razorpay key id and key secret are required")

type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
}

// Gateway is everything the lead lifecycle needs from a payment provider.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// MaxAmount is the largest amount whose paise value is exact in a float64,
// well inside the int64 range of ToMinorUnits.
const MaxAmount = float64(1<<53) / 100

// ToMinorUnits converts rupees to paise. Callers bound amount by MaxAmount.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// orderCreator is satisfied by the SDK's order resource.
type orderCreator interface {
	Create(data map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type RazorpayGateway struct {
	keyID     string
	keySecret string
	currency  string
	timeout   time.Duration
	orders    orderCreator
	breaker   *gobreaker.CircuitBreaker
	logger    *logrus.Entry
}

// NewRazorpayGateway fails when credentials are missing so a misconfigured
// deployment stops at startup.
func NewRazorpayGateway(cfg config.RazorpayConfig, logger *logrus.Logger) (*RazorpayGateway, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, ErrMissingCredentials
	}
	client := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	return newRazorpayGateway(cfg, client.Order, logger), nil
}

func newRazorpayGateway(cfg config.RazorpayConfig, orders orderCreator, logger *logrus.Logger) *RazorpayGateway {
	entry := logger.WithField("component", "razorpay")

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	currency := cfg.Currency
	if currency == "" {
		currency = "INR"
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "razorpay-orders",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			entry.WithFields(logrus.Fields{
				"circuit_breaker": name,
				"from":            from.String(),
				"to":              to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &RazorpayGateway{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		currency:  currency,
		timeout:   timeout,
		orders:    orders,
		breaker:   breaker,
		logger:    entry,
	}
}

func (g *RazorpayGateway) KeyID() string {
	return g.keyID
}

// CreateOrder creates an order once. Failures are returned, never retried.
func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("invalid order amount %d", req.AmountMinor)
	}
	currency := req.Currency
	if currency == "" {
		currency = g.currency
	}

	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":          req.AmountMinor,
		"currency":        currency,
		"receipt":         req.Receipt,
		"notes":           notes,
		"partial_payment": false,
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.create(ctx, data)
	})
	if err != nil {
		g.logger.WithError(err).WithField("receipt", req.Receipt).Error("Failed to create order")
		return nil, err
	}

	return parseOrder(result.(map[string]interface{}), req.Receipt)
}

// create bounds the SDK call, which has no context support, by the configured timeout.
func (g *RazorpayGateway) create(ctx context.Context, data map[string]interface{}) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type reply struct {
		body map[string]interface{}
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		body, err := g.orders.Create(data, nil)
		done <- reply{body: body, err: err}
	}()

	select {
	case r := <-done:
		return r.body, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("order request abandoned: %w", ctx.Err())
	}
}

func parseOrder(body map[string]interface{}, receipt string) (*Order, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("gateway response missing order id")
	}

	order := &Order{ID: id, Receipt: receipt}
	order.Currency, _ = body["currency"].(string)
	order.Status, _ = body["status"].(string)

	switch amount := body["amount"].(type) {
	case float64:
		order.AmountMinor = int64(amount)
	case int64:
		order.AmountMinor = amount
	case int:
		order.AmountMinor = int64(amount)
	}
	return order, nil
}

// VerifySignature checks the checkout signature over "order_id|payment_id".
func (g *RazorpayGateway) VerifySignature(orderID, paymentID, signature string) bool {
	if orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return utils.VerifyPaymentSignature(params, signature, g.keySecret)
}
