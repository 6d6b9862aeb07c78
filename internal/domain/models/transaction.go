package models

import (
	"github.com/shopspring/decimal"
	"time"
)

type TransactionStatus string

const (
	StatusPending TransactionStatus = "PENDING"
	StatusSuccess TransactionStatus = "SUCCESS"
	StatusFailed  TransactionStatus = "FAILED"
)

// Provider status codes reported by the gateway.
const (
	ProviderCodePaymentSuccess = "PAYMENT_SUCCESS"
	ProviderCodePaymentPending = "PAYMENT_PENDING"
)

// IsTerminal reports whether no further status change is allowed.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// CanTransition reports whether a row in status s may be moved to next.
// Re-applying the current status is always allowed and changes nothing.
func (s TransactionStatus) CanTransition(next TransactionStatus) bool {
	return s == StatusPending || s == next
}

// StatusFromProviderCode maps a gateway code to the internal status.
// Anything that is not an explicit success or pending code is a failure.
func StatusFromProviderCode(code string) TransactionStatus {
	switch code {
	case ProviderCodePaymentSuccess:
		return StatusSuccess
	case ProviderCodePaymentPending:
		return StatusPending
	default:
		return StatusFailed
	}
}

type Transaction struct {
	ID                    int64             `db:"id" json:"-"`
	MerchantTransactionID string            `db:"merchant_transaction_id" json:"merchantTransactionId"`
	UserID                string            `db:"user_id" json:"userId,omitempty"`
	Amount                decimal.Decimal   `db:"amount" json:"amount"`
	Status                TransactionStatus `db:"status" json:"status"`
	ProviderTransactionID string            `db:"provider_transaction_id" json:"providerTransactionId,omitempty"`
	ResponseData          string            `db:"response_data" json:"responseData,omitempty"`
	CreatedAt             time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time         `db:"updated_at" json:"updatedAt"`
}

// TransactionUpdate is a sparse update: nil fields are left untouched.
type TransactionUpdate struct {
	Status                *TransactionStatus
	ProviderTransactionID *string
	ResponseData          *string
}

// IsEmpty reports whether the update carries no fields.
func (u TransactionUpdate) IsEmpty() bool {
	return u.Status == nil && u.ProviderTransactionID == nil && u.ResponseData == nil
}

// WithStatus returns a copy of u that sets the status.
func (u TransactionUpdate) WithStatus(s TransactionStatus) TransactionUpdate {
	u.Status = &s
	return u
}

// WithProviderTransactionID returns a copy of u that sets the provider id.
func (u TransactionUpdate) WithProviderTransactionID(id string) TransactionUpdate {
	u.ProviderTransactionID = &id
	return u
}

// WithResponseData returns a copy of u that sets the provider payload kept for audit.
func (u TransactionUpdate) WithResponseData(data string) TransactionUpdate {
	u.ResponseData = &data
	return u
}
