package gateways

import (
	"context"
	"encoding/json"
	"github.com/shopspring/decimal"
)

// PaymentGateway is the outbound payment provider. Implementations never
// return Go errors: every outcome is folded into the result's Success flag.
type PaymentGateway interface {
	Initiate(ctx context.Context, req InitiateRequest) InitiateResult
	CheckStatus(ctx context.Context, merchantTransactionID string) StatusResult
	VerifyCallback(response, xVerify string) bool
}

type InitiateRequest struct {
	Amount                decimal.Decimal
	MerchantTransactionID string
	UserID                string
}

type InitiateResult struct {
	Success     bool
	RedirectURL string
	Message     string
}

type StatusResult struct {
	Success bool        `json:"success"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    *StatusData `json:"data,omitempty"`
}

type StatusData struct {
	MerchantID            string          `json:"merchantId,omitempty"`
	MerchantTransactionID string          `json:"merchantTransactionId"`
	TransactionID         string          `json:"transactionId,omitempty"`
	Amount                int64           `json:"amount"`
	State                 string          `json:"state,omitempty"`
	ResponseCode          string          `json:"responseCode,omitempty"`
	PaymentInstrument     json.RawMessage `json:"paymentInstrument,omitempty"`
}
