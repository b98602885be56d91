package testutil

import (
	"context"
	"fmt"
	"sync"

	"property-service/internal/payment"
)

// FakeGateway is an in-memory payment.Gateway. A signature is valid when it
// equals ValidSignature(orderID, paymentID).
type FakeGateway struct {
	mu       sync.Mutex
	Err      error
	Requests []payment.OrderRequest
	next     int
}

func (f *FakeGateway) CreateOrder(_ context.Context, req payment.OrderRequest) (*payment.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Requests = append(f.Requests, req)
	if f.Err != nil {
		return nil, f.Err
	}
	f.next++
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	return &payment.Order{
		ID:          fmt.Sprintf("order_test_%d", f.next),
		AmountMinor: req.AmountMinor,
		Currency:    currency,
		Receipt:     req.Receipt,
		Status:      "created",
	}, nil
}

func (f *FakeGateway) VerifySignature(orderID, paymentID, signature string) bool {
	return signature == ValidSignature(orderID, paymentID)
}

func (f *FakeGateway) KeyID() string {
	return "rzp_test_key"
}

func ValidSignature(orderID, paymentID string) string {
	return "sig:" + orderID + "|" + paymentID
}
