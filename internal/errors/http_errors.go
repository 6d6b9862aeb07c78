package errors

import (
	"encoding/json"
	"net/http"
)

type HTTPError struct {
	Code    int    `json:"-"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// NewHTTPError converts err into the response written by HandleHTTPError.
func NewHTTPError(err error) *HTTPError {
	var (
		badRequest *BadRequestError
		gateway    *GatewayError
		signature  *SignatureMismatchError
		notFound   *TransactionNotFoundError
		duplicate  *TransactionDuplicateError
	)

	switch {
	case As(err, &badRequest):
		return &HTTPError{Code: http.StatusBadRequest, Message: badRequest.Message}
	case As(err, &gateway):
		return &HTTPError{Code: http.StatusBadRequest, Message: gateway.Message}
	case As(err, &signature):
		return &HTTPError{Code: http.StatusBadRequest, Message: signature.Error()}
	case As(err, &notFound):
		return &HTTPError{Code: http.StatusNotFound, Message: notFound.Error()}
	case As(err, &duplicate):
		return &HTTPError{Code: http.StatusUnprocessableEntity, Message: duplicate.Error()}
	default:
		return &HTTPError{Code: http.StatusInternalServerError, Message: ErrInternalServerError}
	}
}

// HandleHTTPError handles http errors
func HandleHTTPError(w http.ResponseWriter, err error) {
	httpErr := NewHTTPError(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.Code)
	json.NewEncoder(w).Encode(httpErr)
}
