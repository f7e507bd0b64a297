package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"roadmech/pkg/errors"
)

// StripePaymentService talks to the Stripe charges API over HTTP.
type StripePaymentService struct {
	secretKey string
	baseURL   string
	client    *http.Client
}

func NewStripePaymentService(secretKey string) *StripePaymentService {
	return &StripePaymentService{
		secretKey: secretKey,
		baseURL:   "https://api.stripe.com/v1",
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type stripeCharge struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Paid   bool   `json:"paid"`
}

type stripeRefund struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *StripePaymentService) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	log.Printf("Creating charge for order %s, amount %d", req.OrderID, req.Amount)

	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", currency)
	form.Set("description", req.Description)
	form.Set("metadata[order_id]", req.OrderID)
	form.Set("metadata[customer_id]", req.CustomerID)
	if req.Email != "" {
		form.Set("receipt_email", req.Email)
	}

	body, err := s.post(ctx, "/charges", form)
	if err != nil {
		return nil, err
	}

	var charge stripeCharge
	if err := json.Unmarshal(body, &charge); err != nil {
		return nil, errors.ExternalService("Failed to parse payment response", err)
	}

	status := "failed"
	switch {
	case charge.Paid || charge.Status == "succeeded":
		status = "succeeded"
	case charge.Status == "pending":
		status = "pending"
	}

	log.Printf("Charge %s for order %s: %s", charge.ID, req.OrderID, status)
	return &ChargeResult{TransactionID: charge.ID, Status: status}, nil
}

func (s *StripePaymentService) Refund(ctx context.Context, transactionID string, amount int64) (*RefundResult, error) {
	log.Printf("Refunding charge %s, amount %d", transactionID, amount)

	form := url.Values{}
	form.Set("charge", transactionID)
	if amount > 0 {
		form.Set("amount", strconv.FormatInt(amount, 10))
	}

	body, err := s.post(ctx, "/refunds", form)
	if err != nil {
		return nil, err
	}

	var refund stripeRefund
	if err := json.Unmarshal(body, &refund); err != nil {
		return nil, errors.ExternalService("Failed to parse refund response", err)
	}

	return &RefundResult{RefundID: refund.ID, Status: refund.Status}, nil
}

func (s *StripePaymentService) post(ctx context.Context, path string, form url.Values) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Internal("Failed to create payment request", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.secretKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, errors.ExternalService("Payment gateway unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.ExternalService("Failed to read payment response", err)
	}

	if resp.StatusCode != http.StatusOK {
		var stripeErr stripeError
		if json.Unmarshal(body, &stripeErr) == nil && stripeErr.Error.Message != "" {
			log.Printf("Stripe API error: %s", stripeErr.Error.Message)
			return nil, errors.ExternalService(stripeErr.Error.Message, fmt.Errorf("stripe: %s", stripeErr.Error.Type))
		}
		return nil, errors.ExternalService("Payment gateway error", fmt.Errorf("status %d", resp.StatusCode))
	}

	return body, nil
}
