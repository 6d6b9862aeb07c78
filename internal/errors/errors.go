package errors

import (
	"errors"
	"fmt"
)

const (
	ErrFailedReconcilePending         = "Failed to reconcile pending transactions"
	ErrorFailedToConnectToTheDatabase = "Failed to connect to the database"
	ErrorInvalidConfiguration         = "Invalid configuration"
	ErrorFailedToRunTheServer         = "Failed to run the server"
	ErrorFailedToShutdownTheServer    = "Failed to shutdown the server"
	ErrFailedDecodeRequestBody        = "Failed to decode request body"
	ErrInvalidRequestBody             = "Invalid request body"
	ErrInvalidCallbackData            = "Invalid callback data"
	ErrInvalidAmount                  = "Invalid amount"
	ErrFailedProcessPayment           = "Failed to process payment"
	ErrFailedProcessCallback          = "Failed to process callback"
	ErrFailedCheckStatus              = "Failed to check payment status"
	ErrMerchantTransactionIDRequired  = "merchantTransactionId is required"
	ErrInternalServerError            = "Internal Server Error"
)

type BadRequestError struct {
	Message string
}

func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{Message: message}
}

func (e *BadRequestError) Error() string {
	return fmt.Sprintf("Bad request: %s", e.Message)
}

type TransactionDuplicateError struct{}

func NewTransactionDuplicateError() *TransactionDuplicateError {
	return &TransactionDuplicateError{}
}

func (e *TransactionDuplicateError) Error() string {
	return "transaction already exists"
}

type TransactionNotFoundError struct {
	MerchantTransactionID string
}

func NewTransactionNotFoundError(id string) *TransactionNotFoundError {
	return &TransactionNotFoundError{MerchantTransactionID: id}
}

func (e *TransactionNotFoundError) Error() string {
	return fmt.Sprintf("transaction %s not found", e.MerchantTransactionID)
}

// TransactionFinalizedError is returned when an update would change the
// status of a transaction that already reached SUCCESS or FAILED.
type TransactionFinalizedError struct {
	MerchantTransactionID string
	Current               string
	Requested             string
}

func NewTransactionFinalizedError(id, current, requested string) *TransactionFinalizedError {
	return &TransactionFinalizedError{MerchantTransactionID: id, Current: current, Requested: requested}
}

func (e *TransactionFinalizedError) Error() string {
	return fmt.Sprintf("transaction %s is %s, refusing move to %s", e.MerchantTransactionID, e.Current, e.Requested)
}

// GatewayError carries a message that is safe to show to the payer.
type GatewayError struct {
	Message string
}

func NewGatewayError(message string) *GatewayError {
	return &GatewayError{Message: message}
}

func (e *GatewayError) Error() string {
	return e.Message
}

type SignatureMismatchError struct{}

func NewSignatureMismatchError() *SignatureMismatchError {
	return &SignatureMismatchError{}
}

func (e *SignatureMismatchError) Error() string {
	return "invalid callback signature"
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
