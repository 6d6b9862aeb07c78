package middlewares

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mufasadev/payment-gateway/pkg/checksum"
	"github.com/stretchr/testify/assert"
)

func TestCallbackSignatureMiddleware(t *testing.T) {
	signer := checksum.New("salt-key", "1")
	verifier := verifierFunc(func(response, xVerify string) bool {
		return signer.Verify(xVerify, response)
	})

	var reached string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		reached = string(body)
		w.WriteHeader(http.StatusOK)
	})
	handler := CallbackSignatureMiddleware(verifier)(next)

	body := `{"response":"eyJjb2RlIjoiUEFZTUVOVF9TVUNDRVNTIn0="}`
	tests := []struct {
		name    string
		body    string
		xVerify string
		code    int
	}{
		{"valid", body, signer.Sign("eyJjb2RlIjoiUEFZTUVOVF9TVUNDRVNTIn0="), http.StatusOK},
		{"missing_header", body, "", http.StatusBadRequest},
		{"wrong_key", body, checksum.New("other", "1").Sign("eyJjb2RlIjoiUEFZTUVOVF9TVUNDRVNTIn0="), http.StatusBadRequest},
		{"empty_response", `{"response":""}`, signer.Sign(""), http.StatusBadRequest},
		{"not_json", `response=abc`, signer.Sign("abc"), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reached = ""
			req := httptest.NewRequest(http.MethodPost, "/api/payment/callback", strings.NewReader(tt.body))
			if tt.xVerify != "" {
				req.Header.Set("X-VERIFY", tt.xVerify)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, tt.body, reached, "body is restored for the handler")
			} else {
				assert.Empty(t, reached)
			}
		})
	}
}

type verifierFunc func(response, xVerify string) bool

func (f verifierFunc) VerifyCallback(response, xVerify string) bool {
	return f(response, xVerify)
}
