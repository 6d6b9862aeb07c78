package interactor

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"github.com/mufasadev/payment-gateway/internal/domain/gateways"
	"github.com/mufasadev/payment-gateway/internal/domain/models"
	"github.com/mufasadev/payment-gateway/internal/domain/repositories"
	apperrors "github.com/mufasadev/payment-gateway/internal/errors"
	"github.com/mufasadev/payment-gateway/internal/usecases/dtos"
	"github.com/mufasadev/payment-gateway/pkg/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"strings"
)

const merchantTransactionIDPrefix = "MUID-"

// Largest amount a NUMERIC(10,2) column holds is below this.
var maxAmount = decimal.New(1, 8)

// NewMerchantTransactionID returns a fresh merchant transaction id.
func NewMerchantTransactionID() string {
	return merchantTransactionIDPrefix + uuid.NewString()
}

type PaymentInteractor struct {
	transactionRepository repositories.TransactionRepository
	gateway               gateways.PaymentGateway
	newID                 func() string
	logger                *zerolog.Logger
}

func NewPaymentInteractor(transactionRepository repositories.TransactionRepository, gateway gateways.PaymentGateway) *PaymentInteractor {
	l := log.GetLogger()
	return &PaymentInteractor{
		transactionRepository: transactionRepository,
		gateway:               gateway,
		newID:                 NewMerchantTransactionID,
		logger:                &l,
	}
}

// Pay records a PENDING transaction and asks the gateway for a pay page.
// A gateway refusal marks the transaction FAILED.
func (i *PaymentInteractor) Pay(ctx context.Context, req *dtos.PayRequest) (*dtos.PayResponse, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	transaction, err := i.transactionRepository.Create(ctx, &models.Transaction{
		MerchantTransactionID: i.newID(),
		UserID:                strings.TrimSpace(req.UserID),
		Amount:                req.Amount.Round(2),
		Status:                models.StatusPending,
	})
	if err != nil {
		return nil, err
	}

	logger := i.logger.With().Str("merchant_transaction_id", transaction.MerchantTransactionID).Logger()

	result := i.gateway.Initiate(ctx, gateways.InitiateRequest{
		Amount:                transaction.Amount,
		MerchantTransactionID: transaction.MerchantTransactionID,
		UserID:                transaction.UserID,
	})
	if !result.Success {
		logger.Warn().Str("message", result.Message).Msg("gateway refused payment initiation")

		update := models.TransactionUpdate{}.WithStatus(models.StatusFailed)
		if _, err := i.transactionRepository.UpdatePartial(ctx, transaction.MerchantTransactionID, update); err != nil {
			logger.Error().Err(err).Msg("failed to mark transaction as failed")
		}
		return nil, apperrors.NewGatewayError(result.Message)
	}

	logger.Info().Msg("payment initiated")
	return &dtos.PayResponse{
		Success:               true,
		RedirectURL:           result.RedirectURL,
		MerchantTransactionID: transaction.MerchantTransactionID,
	}, nil
}

// HandleCallback records the outcome reported by the provider. The caller
// must have verified the callback signature. Callbacks for unknown or
// already finalized transactions are logged and acknowledged.
func (i *PaymentInteractor) HandleCallback(ctx context.Context, req *dtos.CallbackRequest) error {
	payload, raw, err := decodeCallback(req.Response)
	if err != nil {
		i.logger.Error().Err(err).Msg(apperrors.ErrInvalidCallbackData)
		return apperrors.NewBadRequestError(apperrors.ErrInvalidCallbackData)
	}

	id := payload.Data.MerchantTransactionID
	code := payload.StatusCode()
	status := models.StatusFromProviderCode(code)
	logger := i.logger.With().
		Str("merchant_transaction_id", id).
		Str("code", code).
		Str("status", string(status)).
		Logger()

	update := models.TransactionUpdate{}.WithStatus(status).WithResponseData(raw)
	if payload.Data.TransactionID != "" {
		update = update.WithProviderTransactionID(payload.Data.TransactionID)
	}

	_, err = i.transactionRepository.UpdatePartial(ctx, id, update)
	if err != nil {
		var notFound *apperrors.TransactionNotFoundError
		var finalized *apperrors.TransactionFinalizedError
		switch {
		case apperrors.As(err, &notFound):
			logger.Error().Err(err).Msg("callback for unknown transaction")
			return nil
		case apperrors.As(err, &finalized):
			logger.Warn().Err(err).Msg("callback ignored for finalized transaction")
			return nil
		}
		return err
	}

	logger.Info().Msg("callback processed")
	return nil
}

// CheckStatus asks the gateway for the live status of a transaction and
// applies any payment outcome it reports to the local record.
func (i *PaymentInteractor) CheckStatus(ctx context.Context, merchantTransactionID string) (*dtos.StatusResponse, error) {
	if merchantTransactionID == "" {
		return nil, apperrors.NewBadRequestError(apperrors.ErrMerchantTransactionIDRequired)
	}

	result := i.gateway.CheckStatus(ctx, merchantTransactionID)
	applyGatewayOutcome(ctx, i.transactionRepository, i.logger, merchantTransactionID, result)

	if !result.Success {
		return nil, apperrors.NewGatewayError(result.Message)
	}
	return dtos.NewStatusResponse(result), nil
}

// GetTransaction returns the locally stored transaction.
func (i *PaymentInteractor) GetTransaction(ctx context.Context, merchantTransactionID string) (*models.Transaction, error) {
	if merchantTransactionID == "" {
		return nil, apperrors.NewBadRequestError(apperrors.ErrMerchantTransactionIDRequired)
	}

	tx, err := i.transactionRepository.GetByMerchantTransactionID(ctx, merchantTransactionID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, apperrors.NewTransactionNotFoundError(merchantTransactionID)
	}
	return tx, nil
}

func validateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.NewBadRequestError(apperrors.ErrInvalidAmount)
	}
	if !amount.Equal(amount.Round(2)) {
		return apperrors.NewBadRequestError("Amount must not have more than two decimal places")
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return apperrors.NewBadRequestError(apperrors.ErrInvalidAmount)
	}
	return nil
}

// decodeCallback returns the decoded payload and its raw JSON text.
func decodeCallback(response string) (*dtos.CallbackPayload, string, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, "", fmt.Errorf("empty response")
	}

	raw, err := base64.StdEncoding.DecodeString(response)
	if err != nil {
		if raw, err = base64.URLEncoding.DecodeString(response); err != nil {
			return nil, "", fmt.Errorf("decode base64: %w", err)
		}
	}

	var payload dtos.CallbackPayload
	if err = json.Unmarshal(raw, &payload); err != nil {
		return nil, "", fmt.Errorf("decode json: %w", err)
	}
	if payload.Data.MerchantTransactionID == "" {
		return nil, "", fmt.Errorf("missing data.merchantTransactionId")
	}

	return &payload, string(raw), nil
}
