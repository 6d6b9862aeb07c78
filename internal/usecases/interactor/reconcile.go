package interactor

import (
	"context"
	"encoding/json"
	"github.com/mufasadev/payment-gateway/internal/domain/gateways"
	"github.com/mufasadev/payment-gateway/internal/domain/models"
	"github.com/mufasadev/payment-gateway/internal/domain/repositories"
	apperrors "github.com/mufasadev/payment-gateway/internal/errors"
	"github.com/mufasadev/payment-gateway/pkg/log"
	"github.com/rs/zerolog"
	"strings"
	"time"
)

// Codes of this family describe the payment itself. Other codes (bad
// request, internal error, unknown transaction) say nothing about it.
const paymentCodePrefix = "PAYMENT_"

// ReconcilePendingInteractor polls the gateway for transactions that have
// been PENDING for too long, for when a callback never arrived.
type ReconcilePendingInteractor struct {
	transactionRepository repositories.TransactionRepository
	gateway               gateways.PaymentGateway
	pendingAfter          time.Duration
	batchSize             int
	now                   func() time.Time
	logger                *zerolog.Logger
}

func NewReconcilePendingInteractor(transactionRepository repositories.TransactionRepository, gateway gateways.PaymentGateway, pendingAfter time.Duration, batchSize int) *ReconcilePendingInteractor {
	l := log.GetLogger()
	return &ReconcilePendingInteractor{
		transactionRepository: transactionRepository,
		gateway:               gateway,
		pendingAfter:          pendingAfter,
		batchSize:             batchSize,
		now:                   time.Now,
		logger:                &l,
	}
}

// Execute reconciles one batch of stale PENDING transactions.
func (r *ReconcilePendingInteractor) Execute(ctx context.Context) error {
	pending, err := r.transactionRepository.ListPending(ctx, r.now().Add(-r.pendingAfter), r.batchSize)
	if err != nil {
		r.logger.Error().Err(err).Msg(apperrors.ErrFailedReconcilePending)
		return err
	}

	resolved := 0
	for _, tx := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result := r.gateway.CheckStatus(ctx, tx.MerchantTransactionID)
		if status, ok := applyGatewayOutcome(ctx, r.transactionRepository, r.logger, tx.MerchantTransactionID, result); ok && status.IsTerminal() {
			resolved++
			continue
		}

		// Still open: move it behind the rows not checked yet.
		if err := r.transactionRepository.MarkChecked(ctx, tx.MerchantTransactionID); err != nil {
			r.logger.Error().Err(err).Str("merchant_transaction_id", tx.MerchantTransactionID).Msg("failed to mark transaction as checked")
		}
	}

	if len(pending) > 0 {
		r.logger.Info().Int("checked", len(pending)).Int("resolved", resolved).Msg("pending transactions reconciled")
	}
	return nil
}

// applyGatewayOutcome stores the payment outcome carried by a status result.
// It reports the applied status and whether anything was written. Failures
// are logged only.
func applyGatewayOutcome(ctx context.Context, repo repositories.TransactionRepository, logger *zerolog.Logger, merchantTransactionID string, result gateways.StatusResult) (models.TransactionStatus, bool) {
	if !strings.HasPrefix(result.Code, paymentCodePrefix) {
		return "", false
	}

	status := models.StatusFromProviderCode(result.Code)
	if status == models.StatusPending {
		return status, false
	}

	update := models.TransactionUpdate{}.WithStatus(status)
	if result.Data != nil && result.Data.TransactionID != "" {
		update = update.WithProviderTransactionID(result.Data.TransactionID)
	}
	if data, err := json.Marshal(result); err == nil {
		update = update.WithResponseData(string(data))
	}

	l := logger.With().
		Str("merchant_transaction_id", merchantTransactionID).
		Str("code", result.Code).
		Str("status", string(status)).
		Logger()

	if _, err := repo.UpdatePartial(ctx, merchantTransactionID, update); err != nil {
		var notFound *apperrors.TransactionNotFoundError
		var finalized *apperrors.TransactionFinalizedError
		if apperrors.As(err, &notFound) || apperrors.As(err, &finalized) {
			l.Debug().Err(err).Msg("gateway outcome not applied")
		} else {
			l.Error().Err(err).Msg("failed to apply gateway outcome")
		}
		return status, false
	}

	l.Info().Msg("gateway outcome applied")
	return status, true
}
