package repositories

import (
	"github.com/mufasadev/payment-gateway/internal/domain/models"
	apperrors "github.com/mufasadev/payment-gateway/internal/errors"
)

// resolveGuardedUpdate explains why a conditional update matched no row.
// current is the row as it is now, nil when it does not exist.
func resolveGuardedUpdate(merchantTransactionID string, current *models.Transaction, update models.TransactionUpdate) (*models.Transaction, error) {
	if current == nil {
		return nil, apperrors.NewTransactionNotFoundError(merchantTransactionID)
	}

	// Duplicate delivery of the outcome the row already holds.
	if update.Status != nil && current.Status.IsTerminal() && current.Status.CanTransition(*update.Status) {
		return current, nil
	}

	requested := ""
	if update.Status != nil {
		requested = string(*update.Status)
	}
	return current, apperrors.NewTransactionFinalizedError(merchantTransactionID, string(current.Status), requested)
}

func statusArg(s *models.TransactionStatus) *string {
	if s == nil {
		return nil
	}
	v := string(*s)
	return &v
}
