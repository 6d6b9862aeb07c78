package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"github.com/mufasadev/payment-gateway/internal/config"
	"github.com/mufasadev/payment-gateway/internal/domain/gateways"
	"github.com/mufasadev/payment-gateway/pkg/checksum"
	"github.com/mufasadev/payment-gateway/pkg/log"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	HeaderXVerify    = "X-VERIFY"
	HeaderMerchantID = "X-MERCHANT-ID"

	RedirectModePost   = "POST"
	InstrumentPayPage  = "PAY_PAGE"
	placeholderMobile  = "9999999999"
	maxResponseBytes   = 1 << 20
	msgInitiateFailed  = "Payment initiation failed"
	msgConnectFailed   = "Failed to connect to payment gateway"
	msgStatusFailed    = "Failed to check payment status"
	msgFractionalMinor = "Amount must not have more than two decimal places"
)

var hundred = decimal.NewFromInt(100)

// PayPayload is the JSON document that gets base64 encoded into the pay request.
type PayPayload struct {
	MerchantID            string            `json:"merchantId"`
	MerchantTransactionID string            `json:"merchantTransactionId"`
	MerchantUserID        string            `json:"merchantUserId"`
	Amount                int64             `json:"amount"`
	RedirectURL           string            `json:"redirectUrl"`
	RedirectMode          string            `json:"redirectMode"`
	CallbackURL           string            `json:"callbackUrl"`
	MobileNumber          string            `json:"mobileNumber"`
	PaymentInstrument     PaymentInstrument `json:"paymentInstrument"`
}

type PaymentInstrument struct {
	Type string `json:"type"`
}

type payRequest struct {
	Request string `json:"request"`
}

type payResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantTransactionID string `json:"merchantTransactionId"`
		InstrumentResponse    struct {
			Type         string `json:"type"`
			RedirectInfo struct {
				URL    string `json:"url"`
				Method string `json:"method"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

type PhonePeClient struct {
	gateway config.Gateway
	public  config.Public
	signer  *checksum.Signer
	http    *http.Client
	logger  *zerolog.Logger
}

// NewPhonePeClient creates a gateway client. A nil httpClient gets one with the configured timeout.
func NewPhonePeClient(gw config.Gateway, pub config.Public, httpClient *http.Client) *PhonePeClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: gw.Timeout()}
	}
	l := log.GetLogger()
	return &PhonePeClient{
		gateway: gw,
		public:  pub,
		signer:  checksum.New(gw.SaltKey, gw.SaltIndex),
		http:    httpClient,
		logger:  &l,
	}
}

// ToMinorUnits converts a major-unit amount to the integer minor units the gateway expects.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(hundred)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than two decimal places", amount.String())
	}
	return minor.IntPart(), nil
}

// EncodePayload serializes the payload to base64 JSON.
func EncodePayload(p PayPayload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodePayload reverses EncodePayload.
func DecodePayload(encoded string) (PayPayload, error) {
	var p PayPayload
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return p, err
	}
	err = json.Unmarshal(raw, &p)
	return p, err
}

// BuildPayload builds the pay request document for req.
func (c *PhonePeClient) BuildPayload(req gateways.InitiateRequest) (PayPayload, error) {
	minor, err := ToMinorUnits(req.Amount)
	if err != nil {
		return PayPayload{}, err
	}
	return PayPayload{
		MerchantID:            c.gateway.MerchantID,
		MerchantTransactionID: req.MerchantTransactionID,
		MerchantUserID:        req.UserID,
		Amount:                minor,
		RedirectURL:           c.public.RedirectURL(req.MerchantTransactionID),
		RedirectMode:          RedirectModePost,
		CallbackURL:           c.public.CallbackURL(),
		MobileNumber:          placeholderMobile,
		PaymentInstrument:     PaymentInstrument{Type: InstrumentPayPage},
	}, nil
}

// Initiate opens a hosted pay page for the transaction.
func (c *PhonePeClient) Initiate(ctx context.Context, req gateways.InitiateRequest) gateways.InitiateResult {
	payload, err := c.BuildPayload(req)
	if err != nil {
		return gateways.InitiateResult{Message: msgFractionalMinor}
	}

	encoded, err := EncodePayload(payload)
	if err != nil {
		c.logger.Error().Err(err).Str("merchant_transaction_id", req.MerchantTransactionID).Msg("failed to encode pay payload")
		return gateways.InitiateResult{Message: msgInitiateFailed}
	}

	body, err := json.Marshal(payRequest{Request: encoded})
	if err != nil {
		return gateways.InitiateResult{Message: msgInitiateFailed}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(checksum.PayPath), bytes.NewReader(body))
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to build pay request")
		return gateways.InitiateResult{Message: msgConnectFailed}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(HeaderXVerify, c.signer.PayChecksum(encoded))

	var resp payResponse
	status, err := c.do(httpReq, &resp)
	if err != nil {
		c.logger.Error().Err(err).Str("merchant_transaction_id", req.MerchantTransactionID).Msg("payment gateway request failed")
		return gateways.InitiateResult{Message: orDefault(resp.Message, msgConnectFailed)}
	}
	if !isSuccessStatus(status) {
		c.logger.Error().Int("status", status).Str("code", resp.Code).Str("merchant_transaction_id", req.MerchantTransactionID).Msg("payment gateway rejected pay request")
		return gateways.InitiateResult{Message: orDefault(resp.Message, msgConnectFailed)}
	}
	if !resp.Success {
		return gateways.InitiateResult{Message: orDefault(resp.Message, msgInitiateFailed)}
	}

	redirect := resp.Data.InstrumentResponse.RedirectInfo.URL
	if redirect == "" {
		c.logger.Error().Str("merchant_transaction_id", req.MerchantTransactionID).Msg("payment gateway returned no redirect url")
		return gateways.InitiateResult{Message: msgInitiateFailed}
	}

	return gateways.InitiateResult{Success: true, RedirectURL: redirect, Message: resp.Message}
}

// CheckStatus asks the gateway for the current outcome of a transaction.
func (c *PhonePeClient) CheckStatus(ctx context.Context, merchantTransactionID string) gateways.StatusResult {
	apiPath := checksum.StatusAPIPath(c.gateway.MerchantID, merchantTransactionID)
	target := c.endpoint(fmt.Sprintf("%s/%s/%s", checksum.StatusPath, url.PathEscape(c.gateway.MerchantID), url.PathEscape(merchantTransactionID)))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to build status request")
		return gateways.StatusResult{Message: msgStatusFailed}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(HeaderMerchantID, c.gateway.MerchantID)
	httpReq.Header.Set(HeaderXVerify, c.signer.Sign(apiPath))

	var resp gateways.StatusResult
	status, err := c.do(httpReq, &resp)
	if err != nil {
		c.logger.Error().Err(err).Str("merchant_transaction_id", merchantTransactionID).Msg("payment status request failed")
		return gateways.StatusResult{Code: resp.Code, Message: orDefault(resp.Message, msgStatusFailed)}
	}
	if !isSuccessStatus(status) {
		c.logger.Error().Int("status", status).Str("code", resp.Code).Str("merchant_transaction_id", merchantTransactionID).Msg("payment gateway rejected status request")
		resp.Success = false
		resp.Message = orDefault(resp.Message, msgStatusFailed)
		return resp
	}

	return resp
}

// VerifyCallback checks the X-VERIFY header the gateway sends with a callback.
func (c *PhonePeClient) VerifyCallback(response, xVerify string) bool {
	return c.signer.Verify(xVerify, response)
}

// do sends req and decodes a JSON body into out, for error responses too.
// A body that does not decode is only an error on 2xx responses.
func (c *PhonePeClient) do(req *http.Request, out interface{}) (int, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return res.StatusCode, fmt.Errorf("read body: %w", err)
	}

	if err = json.Unmarshal(raw, out); err != nil && isSuccessStatus(res.StatusCode) {
		return res.StatusCode, fmt.Errorf("decode body: %w", err)
	}

	return res.StatusCode, nil
}

func (c *PhonePeClient) endpoint(path string) string {
	return strings.TrimRight(c.gateway.HostURL, "/") + path
}

func isSuccessStatus(code int) bool {
	return code >= 200 && code < 300
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
