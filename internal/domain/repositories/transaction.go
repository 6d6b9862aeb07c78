package repositories

import (
	"context"
	"github.com/mufasadev/payment-gateway/internal/domain/models"
	"time"
)

const (
	UniqueViolationError = "23505"
)

type TransactionRepository interface {
	Create(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error)
	UpdatePartial(ctx context.Context, merchantTransactionID string, update models.TransactionUpdate) (*models.Transaction, error)
	GetByMerchantTransactionID(ctx context.Context, merchantTransactionID string) (*models.Transaction, error)
	// ListPending returns PENDING rows created before createdBefore, never
	// checked ones first, then the least recently checked.
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Transaction, error)
	// MarkChecked records that a PENDING row was polled without a result.
	MarkChecked(ctx context.Context, merchantTransactionID string) error
}
