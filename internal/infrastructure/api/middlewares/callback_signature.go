package middlewares

import (
	"bytes"
	"encoding/json"
	"github.com/mufasadev/payment-gateway/internal/errors"
	http2 "github.com/mufasadev/payment-gateway/internal/infrastructure/api/http"
	"github.com/mufasadev/payment-gateway/pkg/log"
	"io"
	"net/http"
)

const maxCallbackBody = 1 << 20

// CallbackVerifier checks the X-VERIFY header of a provider callback.
type CallbackVerifier interface {
	VerifyCallback(response, xVerify string) bool
}

// CallbackSignatureMiddleware rejects callbacks whose X-VERIFY header does
// not sign the "response" field of the body. The body is restored for the
// next handler.
func CallbackSignatureMiddleware(verifier CallbackVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.GetLogger()

			body, err := io.ReadAll(io.LimitReader(r.Body, maxCallbackBody))
			if err != nil {
				logger.Error().Err(err).Msg(errors.ErrFailedDecodeRequestBody)
				errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidRequestBody))
				return
			}
			r.Body.Close()

			var payload struct {
				Response string `json:"response"`
			}
			if err = json.Unmarshal(body, &payload); err != nil || payload.Response == "" {
				logger.Error().Err(err).Msg(errors.ErrInvalidCallbackData)
				errors.HandleHTTPError(w, errors.NewBadRequestError(errors.ErrInvalidCallbackData))
				return
			}

			if !verifier.VerifyCallback(payload.Response, r.Header.Get(http2.HeaderXVerify)) {
				logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("callback signature mismatch")
				errors.HandleHTTPError(w, errors.NewSignatureMismatchError())
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
