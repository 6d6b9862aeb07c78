package dtos

import (
	"github.com/mufasadev/payment-gateway/internal/domain/gateways"
	"github.com/mufasadev/payment-gateway/internal/domain/models"
	"github.com/shopspring/decimal"
)

// PayRequest is the body of POST /api/payment/pay. Amount is in major units
// and accepts both JSON numbers and strings.
type PayRequest struct {
	Name   string          `json:"name" validate:"max=255"`
	Email  string          `json:"email" validate:"omitempty,email"`
	Amount decimal.Decimal `json:"amount"`
	UserID string          `json:"userId" validate:"max=255"`
}

type PayResponse struct {
	Success               bool   `json:"success"`
	RedirectURL           string `json:"redirectUrl"`
	MerchantTransactionID string `json:"merchantTransactionId"`
}

// CallbackRequest is the provider's server-to-server notification.
type CallbackRequest struct {
	Response string `json:"response"`
}

// CallbackPayload is the decoded form of CallbackRequest.Response.
type CallbackPayload struct {
	Success bool                `json:"success"`
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Data    CallbackPayloadData `json:"data"`
}

type CallbackPayloadData struct {
	MerchantID            string `json:"merchantId"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	TransactionID         string `json:"transactionId"`
	Amount                int64  `json:"amount"`
	State                 string `json:"state"`
	ResponseCode          string `json:"responseCode"`
	Code                  string `json:"code"`
}

// StatusCode returns data.code, falling back to the top-level code.
func (p CallbackPayload) StatusCode() string {
	if p.Data.Code != "" {
		return p.Data.Code
	}
	return p.Code
}

// StatusResponse is the body of GET /api/payment/status/{id}. TransactionID
// and Amount lift the most used fields of Data to the top level.
type StatusResponse struct {
	Success       bool                 `json:"success"`
	Code          string               `json:"code,omitempty"`
	Message       string               `json:"message,omitempty"`
	TransactionID string               `json:"transactionId,omitempty"`
	Amount        int64                `json:"amount,omitempty"`
	Data          *gateways.StatusData `json:"data,omitempty"`
}

func NewStatusResponse(r gateways.StatusResult) *StatusResponse {
	resp := &StatusResponse{
		Success: r.Success,
		Code:    r.Code,
		Message: r.Message,
		Data:    r.Data,
	}
	if r.Data != nil {
		resp.TransactionID = r.Data.TransactionID
		resp.Amount = r.Data.Amount
	}
	return resp
}

type TransactionResponse struct {
	Success     bool                `json:"success"`
	Transaction *models.Transaction `json:"transaction"`
}
