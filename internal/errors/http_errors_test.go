package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPError(t *testing.T) {
	tests := []struct {
		err     error
		code    int
		message string
	}{
		{NewBadRequestError(ErrInvalidAmount), http.StatusBadRequest, ErrInvalidAmount},
		{NewGatewayError("Merchant is blocked"), http.StatusBadRequest, "Merchant is blocked"},
		{NewSignatureMismatchError(), http.StatusBadRequest, "invalid callback signature"},
		{NewTransactionNotFoundError("MUID-1"), http.StatusNotFound, "transaction MUID-1 not found"},
		{NewTransactionDuplicateError(), http.StatusUnprocessableEntity, "transaction already exists"},
		{fmt.Errorf("insert transaction: %w", NewTransactionDuplicateError()), http.StatusUnprocessableEntity, "transaction already exists"},
		{fmt.Errorf("connection refused to 10.0.0.5"), http.StatusInternalServerError, ErrInternalServerError},
		{NewTransactionFinalizedError("MUID-1", "SUCCESS", "PENDING"), http.StatusInternalServerError, ErrInternalServerError},
	}

	for _, tt := range tests {
		httpErr := NewHTTPError(tt.err)
		assert.Equal(t, tt.code, httpErr.Code, tt.err.Error())
		assert.Equal(t, tt.message, httpErr.Message)
		assert.False(t, httpErr.Success)
	}
}

func TestHandleHTTPError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleHTTPError(rec, NewGatewayError("Payment initiation failed"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"success": false, "message": "Payment initiation failed"}, body)
}
