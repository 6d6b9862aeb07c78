package handlers

import (
	"context"
	"encoding/json"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mufasadev/payment-gateway/internal/errors"
	http2 "github.com/mufasadev/payment-gateway/internal/infrastructure/api/http"
	"github.com/mufasadev/payment-gateway/internal/usecases/dtos"
	"github.com/mufasadev/payment-gateway/internal/usecases/interactor"
	"github.com/mufasadev/payment-gateway/pkg/log"
	"github.com/rs/zerolog"
	"net/http"
	"time"
)

// Covers one gateway round trip plus storage.
const requestTimeout = 30 * time.Second

type PaymentHandler struct {
	interactor *interactor.PaymentInteractor
	validate   *validator.Validate
	logger     *zerolog.Logger
}

func NewPaymentHandler(interactor *interactor.PaymentInteractor) *PaymentHandler {
	logger := log.GetLogger()
	return &PaymentHandler{
		interactor: interactor,
		validate:   validator.New(),
		logger:     &logger,
	}
}

// Pay handles POST /api/payment/pay.
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var dto dtos.PayRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
		errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidRequestBody))
		return
	}
	if err := h.validate.Struct(dto); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrInvalidRequestBody)
		errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidRequestBody))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp, err := h.interactor.Pay(ctx, &dto)
	if err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedProcessPayment)
		errors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Callback handles POST /api/payment/callback. The signature has already
// been checked by the middleware.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var dto dtos.CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
		errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidCallbackData))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	if err := h.interactor.HandleCallback(ctx, &dto); err != nil {
		h.logger.Error().Err(err).Msg(errors.ErrFailedProcessCallback)
		errors.HandleHTTPError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// Status handles GET /api/payment/status/{merchantTransactionId}.
func (h *PaymentHandler) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, http2.MerchantTransactionIDParam)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	resp, err := h.interactor.CheckStatus(ctx, id)
	if err != nil {
		h.logger.Error().Err(err).Str("merchant_transaction_id", id).Msg(errors.ErrFailedCheckStatus)
		errors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetTransaction handles GET /api/payment/transactions/{merchantTransactionId}.
func (h *PaymentHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, http2.MerchantTransactionIDParam)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	tx, err := h.interactor.GetTransaction(ctx, id)
	if err != nil {
		h.logger.Error().Err(err).Str("merchant_transaction_id", id).Msg("failed to get transaction")
		errors.HandleHTTPError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dtos.TransactionResponse{Success: true, Transaction: tx})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
