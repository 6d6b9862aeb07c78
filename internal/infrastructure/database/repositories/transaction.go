package repositories

import (
	"context"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mufasadev/payment-gateway/internal/domain/models"
	"github.com/mufasadev/payment-gateway/internal/domain/repositories"
	apperrors "github.com/mufasadev/payment-gateway/internal/errors"
	"github.com/mufasadev/payment-gateway/pkg/log"
	"github.com/rs/zerolog"
	"time"
)

type TransactionRepositoryImpl struct {
	db     *pgxpool.Pool
	logger *zerolog.Logger
}

// NewTransactionRepositoryImpl creates new instance of TransactionRepositoryImpl.
func NewTransactionRepositoryImpl(db *pgxpool.Pool) repositories.TransactionRepository {
	l := log.GetLogger()
	return &TransactionRepositoryImpl{
		db:     db,
		logger: &l,
	}
}

const pgColumns = `id, merchant_transaction_id, COALESCE(user_id, ''), amount, status,
  COALESCE(provider_transaction_id, ''), COALESCE(response_data, ''), created_at, updated_at`

const pgInsertTransaction = `
INSERT INTO transactions (merchant_transaction_id, user_id, amount, status)
VALUES ($1, NULLIF($2, ''), $3::NUMERIC(10,2), $4)
RETURNING ` + pgColumns

// Create inserts a new transaction row.
func (r *TransactionRepositoryImpl) Create(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	row := r.db.QueryRow(ctx, pgInsertTransaction,
		transaction.MerchantTransactionID,
		transaction.UserID,
		transaction.Amount,
		string(transaction.Status),
	)

	created, err := scanPGTransaction(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.NewTransactionDuplicateError()
		}
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	return created, nil
}

// The status column only moves while the row is PENDING; the other columns
// are touched only when their argument is not NULL.
const pgUpdatePartial = `
UPDATE transactions
SET status = COALESCE($2::VARCHAR, status),
    provider_transaction_id = COALESCE($3::VARCHAR, provider_transaction_id),
    response_data = COALESCE($4::TEXT, response_data),
    updated_at = now()
WHERE merchant_transaction_id = $1
  AND ($2::VARCHAR IS NULL OR status = 'PENDING')
RETURNING ` + pgColumns

// UpdatePartial applies the non-nil fields of update to the transaction.
func (r *TransactionRepositoryImpl) UpdatePartial(ctx context.Context, merchantTransactionID string, update models.TransactionUpdate) (*models.Transaction, error) {
	if update.IsEmpty() {
		return nil, nil
	}

	row := r.db.QueryRow(ctx, pgUpdatePartial,
		merchantTransactionID,
		statusArg(update.Status),
		update.ProviderTransactionID,
		update.ResponseData,
	)

	updated, err := scanPGTransaction(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	current, err := r.GetByMerchantTransactionID(ctx, merchantTransactionID)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("merchant_transaction_id", merchantTransactionID).Msg("conditional update matched no row")
	return resolveGuardedUpdate(merchantTransactionID, current, update)
}

// GetByMerchantTransactionID returns transaction by merchant transaction id.
func (r *TransactionRepositoryImpl) GetByMerchantTransactionID(ctx context.Context, merchantTransactionID string) (*models.Transaction, error) {
	row := r.db.QueryRow(ctx,
		"SELECT "+pgColumns+" FROM transactions WHERE merchant_transaction_id = $1",
		merchantTransactionID,
	)

	tx, err := scanPGTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	return tx, nil
}

const pgListPending = `
SELECT ` + pgColumns + `
FROM transactions
WHERE status = $1 AND created_at < $2
ORDER BY checked_at NULLS FIRST, created_at
LIMIT $3`

// ListPending returns PENDING transactions created before createdBefore,
// least recently checked first.
func (r *TransactionRepositoryImpl) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Transaction, error) {
	rows, err := r.db.Query(ctx, pgListPending,
		string(models.StatusPending), createdBefore, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()

	txs := make([]models.Transaction, 0)
	for rows.Next() {
		tx, err := scanPGTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending: %w", err)
		}
		txs = append(txs, *tx)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}

	return txs, nil
}

// MarkChecked stamps checked_at on a PENDING transaction. Other rows are left alone.
func (r *TransactionRepositoryImpl) MarkChecked(ctx context.Context, merchantTransactionID string) error {
	_, err := r.db.Exec(ctx,
		"UPDATE transactions SET checked_at = now() WHERE merchant_transaction_id = $1 AND status = $2",
		merchantTransactionID, string(models.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("mark checked: %w", err)
	}
	return nil
}

func scanPGTransaction(row pgx.Row) (*models.Transaction, error) {
	tx := &models.Transaction{}
	var status string
	err := row.Scan(
		&tx.ID,
		&tx.MerchantTransactionID,
		&tx.UserID,
		&tx.Amount,
		&status,
		&tx.ProviderTransactionID,
		&tx.ResponseData,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	tx.Status = models.TransactionStatus(status)
	return tx, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == repositories.UniqueViolationError
}
