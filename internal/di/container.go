package di

import (
	"context"
	"database/sql"
	"fmt"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mufasadev/payment-gateway/internal/config"
	"github.com/mufasadev/payment-gateway/internal/domain/gateways"
	"github.com/mufasadev/payment-gateway/internal/domain/repositories"
	"github.com/mufasadev/payment-gateway/internal/infrastructure/api/handlers"
	"github.com/mufasadev/payment-gateway/internal/infrastructure/database/db_client"
	repoimpl "github.com/mufasadev/payment-gateway/internal/infrastructure/database/repositories"
	"github.com/mufasadev/payment-gateway/internal/infrastructure/gateway"
	"github.com/mufasadev/payment-gateway/internal/usecases/interactor"
)

// Storage is the transaction store chosen by STORAGE_BACKEND together with
// its health probe and release function.
type Storage struct {
	TransactionRepository repositories.TransactionRepository
	Ping                  handlers.Pinger
	Close                 func()
}

// NewStorage connects to the configured backend and prepares its schema.
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		db, err := db_client.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return newSQLiteStorage(db), nil
	case config.BackendPostgres:
		pgClient := db_client.NewPGClient(cfg.PostgreSQL)
		db, err := pgClient.Connect()
		if err != nil {
			return nil, err
		}
		if err = pgClient.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		return newPGStorage(db), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func newPGStorage(db *pgxpool.Pool) *Storage {
	return &Storage{
		TransactionRepository: repoimpl.NewTransactionRepositoryImpl(db),
		Ping:                  db.Ping,
		Close:                 db.Close,
	}
}

func newSQLiteStorage(db *sql.DB) *Storage {
	return &Storage{
		TransactionRepository: repoimpl.NewSQLiteTransactionRepository(db),
		Ping:                  db.PingContext,
		Close:                 func() { db.Close() },
	}
}

type Container struct {
	PaymentGateway             gateways.PaymentGateway
	PaymentInteractor          *interactor.PaymentInteractor
	ReconcilePendingInteractor *interactor.ReconcilePendingInteractor
	PaymentHandler             *handlers.PaymentHandler
	HealthHandler              *handlers.HealthHandler
}

// NewContainer creates a new Container instance.
func NewContainer(cfg *config.Config, storage *Storage) (*Container, error) {
	pendingAfter, err := cfg.Process.PendingAfterDuration()
	if err != nil {
		return nil, fmt.Errorf("pending after: %w", err)
	}
	batch, err := cfg.Process.Batch()
	if err != nil {
		return nil, fmt.Errorf("batch size: %w", err)
	}

	paymentGateway := gateway.NewPhonePeClient(cfg.Gateway, cfg.Public, nil)

	paymentInteractor := interactor.NewPaymentInteractor(storage.TransactionRepository, paymentGateway)
	paymentHandler := handlers.NewPaymentHandler(paymentInteractor)

	reconcilePendingInteractor := interactor.NewReconcilePendingInteractor(storage.TransactionRepository, paymentGateway, pendingAfter, batch)

	healthHandler := handlers.NewHealthHandler(storage.Ping)

	return &Container{
		PaymentGateway:             paymentGateway,
		PaymentInteractor:          paymentInteractor,
		ReconcilePendingInteractor: reconcilePendingInteractor,
		PaymentHandler:             paymentHandler,
		HealthHandler:              healthHandler,
	}, nil
}
