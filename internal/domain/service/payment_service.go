package service

import "context"

// ChargeRequest is what booking and subscription flows hand to the gateway.
// Amount is in cents.
type ChargeRequest struct {
	OrderID     string
	Amount      int64
	Currency    string
	Description string
	CustomerID  string
	Email       string
}

type ChargeResult struct {
	TransactionID string
	Status        string // "succeeded", "pending", "failed"
}

type RefundResult struct {
	RefundID string
	Status   string
}

type PaymentService interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	Refund(ctx context.Context, transactionID string, amount int64) (*RefundResult, error)
}
