package repositories

import (
	"context"
	"github.com/google/uuid"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mufasadev/payment-gateway/internal/config"
	"github.com/mufasadev/payment-gateway/internal/domain/models"
	"github.com/mufasadev/payment-gateway/internal/domain/repositories"
	apperr "github.com/mufasadev/payment-gateway/internal/errors"
	"github.com/mufasadev/payment-gateway/internal/infrastructure/database/db_client"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestSQLiteTransactionRepository(t *testing.T) {
	testTransactionRepository(t, func(t *testing.T) repositories.TransactionRepository {
		return newSQLiteRepo(t)
	})
}

func TestPGTransactionRepository(t *testing.T) {
	db := setupDB(t)
	testTransactionRepository(t, func(t *testing.T) repositories.TransactionRepository {
		require.NoError(t, truncateTransactionsTable(db))
		return NewTransactionRepositoryImpl(db)
	})
}

func testTransactionRepository(t *testing.T, newRepo func(t *testing.T) repositories.TransactionRepository) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		repo := newRepo(t)
		id := newID()

		created, err := repo.Create(ctx, pendingTransaction(id, "5.49"))
		require.NoError(t, err)
		assert.Equal(t, id, created.MerchantTransactionID)
		assert.Equal(t, "U1", created.UserID)
		assert.True(t, created.Amount.Equal(decimal.RequireFromString("5.49")), created.Amount.String())
		assert.Equal(t, models.StatusPending, created.Status)
		assert.Empty(t, created.ProviderTransactionID)
		assert.Empty(t, created.ResponseData)
		assert.False(t, created.CreatedAt.IsZero())

		stored, err := repo.GetByMerchantTransactionID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, created.ID, stored.ID)
	})

	t.Run("create_without_user", func(t *testing.T) {
		repo := newRepo(t)
		tx := pendingTransaction(newID(), "1")
		tx.UserID = ""

		created, err := repo.Create(ctx, tx)
		require.NoError(t, err)
		assert.Empty(t, created.UserID)
	})

	t.Run("duplicate", func(t *testing.T) {
		repo := newRepo(t)
		id := newID()

		_, err := repo.Create(ctx, pendingTransaction(id, "10"))
		require.NoError(t, err)

		_, err = repo.Create(ctx, pendingTransaction(id, "20"))
		var dup *apperr.TransactionDuplicateError
		assert.ErrorAs(t, err, &dup)

		stored, err := repo.GetByMerchantTransactionID(ctx, id)
		require.NoError(t, err)
		assert.True(t, stored.Amount.Equal(decimal.NewFromInt(10)))
	})

	t.Run("get_missing", func(t *testing.T) {
		repo := newRepo(t)
		tx, err := repo.GetByMerchantTransactionID(ctx, newID())
		assert.NoError(t, err)
		assert.Nil(t, tx)
	})

	t.Run("empty_update_is_noop", func(t *testing.T) {
		repo := newRepo(t)
		id := newID()
		created, err := repo.Create(ctx, pendingTransaction(id, "10"))
		require.NoError(t, err)

		updated, err := repo.UpdatePartial(ctx, id, models.TransactionUpdate{})
		assert.NoError(t, err)
		assert.Nil(t, updated)

		// also for ids that do not exist
		_, err = repo.UpdatePartial(ctx, newID(), models.TransactionUpdate{})
		assert.NoError(t, err)

		stored, err := repo.GetByMerchantTransactionID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, created.Status, stored.Status)
		assert.Equal(t, created.UpdatedAt.UTC(), stored.UpdatedAt.UTC())
	})

	t.Run("sparse_update", func(t *testing.T) {
		repo := newRepo(t)
		id := newID()
		_, err := repo.Create(ctx, pendingTransaction(id, "10"))
		require.NoError(t, err)

		_, err = repo.UpdatePartial(ctx, id, models.TransactionUpdate{}.WithResponseData(`{"a":1}`))
		require.NoError(t, err)

		updated, err := repo.UpdatePartial(ctx, id, models.TransactionUpdate{}.WithProviderTransactionID("T1"))
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, updated.Status)
		assert.Equal(t, "T1", updated.ProviderTransactionID)
		assert.Equal(t, `{"a":1}`, updated.ResponseData)
		assert.Equal(t, "U1", updated.UserID)
		assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))
	})

	t.Run("not_found", func(t *testing.T) {
		repo := newRepo(t)
		id := newID()

		_, err := repo.UpdatePartial(ctx, id, models.TransactionUpdate{}.WithStatus(models.StatusSuccess))
		var nf *apperr.TransactionNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, id, nf.MerchantTransactionID)

		_, err = repo.UpdatePartial(ctx, id, models.TransactionUpdate{}.WithResponseData("x"))
		assert.ErrorAs(t, err, &nf)

		tx, err := repo.GetByMerchantTransactionID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, tx)
	})

	t.Run("pending_to_success", func(t *testing.T) {
		repo := newRepo(t)
		id := newID()
		_, err := repo.Create(ctx, pendingTransaction(id, "549"))
		require.NoError(t, err)

		updated, err := repo.UpdatePartial(ctx, id, models.TransactionUpdate{}.
			WithStatus(models.StatusSuccess).
			WithProviderTransactionID("T2301").
			WithResponseData(`{"code":"PAYMENT_SUCCESS"}`))
		require.NoError(t, err)
		assert.Equal(t, models.StatusSuccess, updated.Status)
		assert.Equal(t, "T2301", updated.ProviderTransactionID)
	})

	t.Run("same_terminal_status_is_idempotent", func(t *testing.T) {
		repo := newRepo(t)
		id := newID()
		_, err := repo.Create(ctx, pendingTransaction(id, "549"))
		require.NoError(t, err)

		update := models.TransactionUpdate{}.WithStatus(models.StatusSuccess).WithProviderTransactionID("T1")
		first, err := repo.UpdatePartial(ctx, id, update)
		require.NoError(t, err)

		second, err := repo.UpdatePartial(ctx, id, update)
		require.NoError(t, err)
		assert.Equal(t, first.Status, second.Status)
		assert.Equal(t, first.ProviderTransactionID, second.ProviderTransactionID)
		assert.Equal(t, first.UpdatedAt.UTC(), second.UpdatedAt.UTC())
	})

	t.Run("terminal_status_is_not_reverted", func(t *testing.T) {
		for _, terminal := range []models.TransactionStatus{models.StatusSuccess, models.StatusFailed} {
			repo := newRepo(t)
			id := newID()
			_, err := repo.Create(ctx, pendingTransaction(id, "1"))
			require.NoError(t, err)

			_, err = repo.UpdatePartial(ctx, id, models.TransactionUpdate{}.WithStatus(terminal).WithResponseData("final"))
			require.NoError(t, err)

			for _, next := range []models.TransactionStatus{models.StatusPending, models.StatusSuccess, models.StatusFailed} {
				if next == terminal {
					continue
				}
				current, err := repo.UpdatePartial(ctx, id, models.TransactionUpdate{}.WithStatus(next).WithResponseData("stale"))
				var fin *apperr.TransactionFinalizedError
				require.ErrorAs(t, err, &fin, "%s -> %s", terminal, next)
				assert.Equal(t, string(terminal), fin.Current)
				assert.Equal(t, terminal, current.Status)
			}

			stored, err := repo.GetByMerchantTransactionID(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, terminal, stored.Status)
			assert.Equal(t, "final", stored.ResponseData)
		}
	})

	t.Run("concurrent_out_of_order_updates", func(t *testing.T) {
		repo := newRepo(t)
		id := newID()
		_, err := repo.Create(ctx, pendingTransaction(id, "100"))
		require.NoError(t, err)

		statuses := []models.TransactionStatus{models.StatusPending, models.StatusSuccess, models.StatusPending, models.StatusSuccess}
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(s models.TransactionStatus) {
				defer wg.Done()
				_, err := repo.UpdatePartial(ctx, id, models.TransactionUpdate{}.WithStatus(s))
				var fin *apperr.TransactionFinalizedError
				if err != nil && !apperr.As(err, &fin) {
					t.Error(err)
				}
			}(statuses[i%len(statuses)])
		}
		wg.Wait()

		stored, err := repo.GetByMerchantTransactionID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusSuccess, stored.Status)
	})

	t.Run("list_pending", func(t *testing.T) {
		repo := newRepo(t)
		pendingA, pendingB, done := newID(), newID(), newID()
		for _, id := range []string{pendingA, pendingB, done} {
			_, err := repo.Create(ctx, pendingTransaction(id, "1"))
			require.NoError(t, err)
		}
		_, err := repo.UpdatePartial(ctx, done, models.TransactionUpdate{}.WithStatus(models.StatusFailed))
		require.NoError(t, err)

		pending, err := repo.ListPending(ctx, time.Now().Add(time.Hour), 10)
		require.NoError(t, err)
		ids := make([]string, 0, len(pending))
		for _, p := range pending {
			assert.Equal(t, models.StatusPending, p.Status)
			ids = append(ids, p.MerchantTransactionID)
		}
		assert.ElementsMatch(t, []string{pendingA, pendingB}, ids)

		limited, err := repo.ListPending(ctx, time.Now().Add(time.Hour), 1)
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		none, err := repo.ListPending(ctx, time.Now().Add(-time.Hour), 10)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("list_pending_rotates_checked_rows", func(t *testing.T) {
		repo := newRepo(t)
		older, newer := newID(), newID()
		for _, id := range []string{older, newer} {
			_, err := repo.Create(ctx, pendingTransaction(id, "1"))
			require.NoError(t, err)
		}
		before := time.Now().Add(time.Hour)

		first, err := repo.ListPending(ctx, before, 1)
		require.NoError(t, err)
		require.Len(t, first, 1)
		assert.Equal(t, older, first[0].MerchantTransactionID)

		require.NoError(t, repo.MarkChecked(ctx, older))
		next, err := repo.ListPending(ctx, before, 1)
		require.NoError(t, err)
		require.Len(t, next, 1)
		assert.Equal(t, newer, next[0].MerchantTransactionID, "unchecked rows come first")

		require.NoError(t, repo.MarkChecked(ctx, newer))
		again, err := repo.ListPending(ctx, before, 2)
		require.NoError(t, err)
		require.Len(t, again, 2)
		assert.Equal(t, older, again[0].MerchantTransactionID, "least recently checked first")
	})

	t.Run("mark_checked_leaves_row_untouched", func(t *testing.T) {
		repo := newRepo(t)
		id := newID()
		created, err := repo.Create(ctx, pendingTransaction(id, "1"))
		require.NoError(t, err)

		require.NoError(t, repo.MarkChecked(ctx, id))
		require.NoError(t, repo.MarkChecked(ctx, newID()))

		stored, err := repo.GetByMerchantTransactionID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusPending, stored.Status)
		assert.Equal(t, created.UpdatedAt.UTC(), stored.UpdatedAt.UTC())
	})
}

func TestSQLiteListPendingOrder(t *testing.T) {
	repo := newSQLiteRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	ids := []string{newID(), newID(), newID()}
	for i, id := range []string{ids[2], ids[0], ids[1]} {
		created := base.Add(time.Duration([]int{2, 0, 1}[i]) * time.Minute)
		repo.now = func() time.Time { return created }
		_, err := repo.Create(ctx, pendingTransaction(id, "1"))
		require.NoError(t, err)
	}

	pending, err := repo.ListPending(ctx, base.Add(90*time.Second), 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, ids[0], pending[0].MerchantTransactionID)
	assert.Equal(t, ids[1], pending[1].MerchantTransactionID)
	assert.True(t, base.Equal(pending[0].CreatedAt), pending[0].CreatedAt.String())
}

// Test helpers and setup functions
// =================================
func newID() string {
	return "MUID-" + uuid.New().String()
}

func pendingTransaction(id, amount string) *models.Transaction {
	return &models.Transaction{
		MerchantTransactionID: id,
		UserID:                "U1",
		Amount:                decimal.RequireFromString(amount),
		Status:                models.StatusPending,
	}
}

func newSQLiteRepo(t *testing.T) *SQLiteTransactionRepository {
	db, err := db_client.OpenSQLite(filepath.Join(t.TempDir(), "payments.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteTransactionRepository(db).(*SQLiteTransactionRepository)
}

// Setup DB, skipping when no Postgres is reachable with the configured DSN.
func setupDB(t *testing.T) *pgxpool.Pool {
	cnf := config.Load()

	pgConfig, err := pgxpool.ParseConfig(cnf.DSN())
	require.NoError(t, err)

	pgConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	db, err := pgxpool.NewWithConfig(ctx, pgConfig)
	require.NoError(t, err)
	if err = db.Ping(ctx); err != nil {
		db.Close()
		t.Skipf("postgres not available: %v", err)
	}
	t.Cleanup(db.Close)

	require.NoError(t, db_client.NewPGClient(cnf.PostgreSQL).Migrate(context.Background(), db))
	return db
}

// Truncate transactions table
func truncateTransactionsTable(db *pgxpool.Pool) error {
	_, err := db.Exec(context.Background(), "TRUNCATE TABLE transactions")
	return err
}
