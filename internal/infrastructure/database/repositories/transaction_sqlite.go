package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/mufasadev/payment-gateway/internal/domain/models"
	"github.com/mufasadev/payment-gateway/internal/domain/repositories"
	apperrors "github.com/mufasadev/payment-gateway/internal/errors"
	"github.com/mufasadev/payment-gateway/pkg/log"
	"github.com/rs/zerolog"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Fixed width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02 15:04:05.000000000"

type SQLiteTransactionRepository struct {
	db     *sql.DB
	logger *zerolog.Logger
	now    func() time.Time
}

// NewSQLiteTransactionRepository creates a TransactionRepository backed by SQLite.
func NewSQLiteTransactionRepository(db *sql.DB) repositories.TransactionRepository {
	l := log.GetLogger()
	return &SQLiteTransactionRepository{
		db:     db,
		logger: &l,
		now:    time.Now,
	}
}

const sqliteColumns = `id, merchant_transaction_id, COALESCE(user_id, ''), amount, status,
  COALESCE(provider_transaction_id, ''), COALESCE(response_data, ''), created_at, updated_at`

func (r *SQLiteTransactionRepository) Create(ctx context.Context, transaction *models.Transaction) (*models.Transaction, error) {
	now := formatSQLiteTime(r.now())
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO transactions (merchant_transaction_id, user_id, amount, status, created_at, updated_at)
		VALUES (?, NULLIF(?, ''), ?, ?, ?, ?)
		RETURNING `+sqliteColumns,
		transaction.MerchantTransactionID,
		transaction.UserID,
		transaction.Amount.StringFixed(2),
		string(transaction.Status),
		now,
		now,
	)

	created, err := scanSQLiteTransaction(row)
	if err != nil {
		if isSQLiteConstraint(err) {
			return nil, apperrors.NewTransactionDuplicateError()
		}
		return nil, fmt.Errorf("insert transaction: %w", err)
	}

	return created, nil
}

func (r *SQLiteTransactionRepository) UpdatePartial(ctx context.Context, merchantTransactionID string, update models.TransactionUpdate) (*models.Transaction, error) {
	if update.IsEmpty() {
		return nil, nil
	}

	status := statusArg(update.Status)
	row := r.db.QueryRowContext(ctx, `
		UPDATE transactions
		SET status = COALESCE(?, status),
		    provider_transaction_id = COALESCE(?, provider_transaction_id),
		    response_data = COALESCE(?, response_data),
		    updated_at = ?
		WHERE merchant_transaction_id = ?
		  AND (? IS NULL OR status = 'PENDING')
		RETURNING `+sqliteColumns,
		status,
		update.ProviderTransactionID,
		update.ResponseData,
		formatSQLiteTime(r.now()),
		merchantTransactionID,
		status,
	)

	updated, err := scanSQLiteTransaction(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update transaction: %w", err)
	}

	current, err := r.GetByMerchantTransactionID(ctx, merchantTransactionID)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().Str("merchant_transaction_id", merchantTransactionID).Msg("conditional update matched no row")
	return resolveGuardedUpdate(merchantTransactionID, current, update)
}

func (r *SQLiteTransactionRepository) GetByMerchantTransactionID(ctx context.Context, merchantTransactionID string) (*models.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+sqliteColumns+" FROM transactions WHERE merchant_transaction_id = ?",
		merchantTransactionID,
	)

	tx, err := scanSQLiteTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (r *SQLiteTransactionRepository) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+sqliteColumns+" FROM transactions WHERE status = ? AND created_at < ? ORDER BY checked_at NULLS FIRST, created_at LIMIT ?",
		string(models.StatusPending), formatSQLiteTime(createdBefore), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	defer rows.Close()

	txs := make([]models.Transaction, 0)
	for rows.Next() {
		tx, err := scanSQLiteTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending: %w", err)
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

func (r *SQLiteTransactionRepository) MarkChecked(ctx context.Context, merchantTransactionID string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET checked_at = ? WHERE merchant_transaction_id = ? AND status = ?",
		formatSQLiteTime(r.now()), merchantTransactionID, string(models.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("mark checked: %w", err)
	}
	return nil
}

func scanSQLiteTransaction(scanner interface {
	Scan(dest ...any) error
}) (*models.Transaction, error) {
	tx := &models.Transaction{}
	var status, createdAt, updatedAt string

	if err := scanner.Scan(
		&tx.ID,
		&tx.MerchantTransactionID,
		&tx.UserID,
		&tx.Amount,
		&status,
		&tx.ProviderTransactionID,
		&tx.ResponseData,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	tx.Status = models.TransactionStatus(status)

	var err error
	if tx.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if tx.UpdatedAt, err = time.Parse(sqliteTimeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return tx, nil
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func isSQLiteConstraint(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}
