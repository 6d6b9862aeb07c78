// Package checkout is a client for the payment backend that starts a
// checkout and waits for its outcome the way the status page does.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/mufasadev/payment-gateway/pkg/log"
	"github.com/mufasadev/payment-gateway/pkg/util/repeat"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultAttempts = 5
	DefaultDelay    = 3 * time.Second

	codePaymentSuccess = "PAYMENT_SUCCESS"
	codePaymentPending = "PAYMENT_PENDING"

	msgStatusUnavailable = "An error occurred while checking the payment status."
	msgPaymentFailed     = "Payment failed or was cancelled."
)

type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailed  Outcome = "FAILED"
	OutcomePending Outcome = "PENDING"
)

type PayRequest struct {
	Name   string          `json:"name,omitempty"`
	Email  string          `json:"email,omitempty"`
	Amount decimal.Decimal `json:"amount"`
	UserID string          `json:"userId,omitempty"`
}

// Result is what AwaitOutcome observed on its last attempt.
type Result struct {
	Outcome       Outcome
	Code          string
	Message       string
	TransactionID string
	Attempts      int
}

type statusResponse struct {
	Success       bool   `json:"success"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	TransactionID string `json:"transactionId"`
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.http = c
	}
}

// WithPolling overrides the number of status attempts and the delay between them.
func WithPolling(attempts int, delay time.Duration) Option {
	return func(cl *Client) {
		if attempts > 0 {
			cl.attempts = attempts
		}
		if delay >= 0 {
			cl.delay = delay
		}
	}
}

type Client struct {
	baseURL  string
	http     *http.Client
	attempts int
	delay    time.Duration
	logger   *zerolog.Logger
}

func NewClient(baseURL string, opts ...Option) *Client {
	l := log.GetLogger()
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 30 * time.Second},
		attempts: DefaultAttempts,
		delay:    DefaultDelay,
		logger:   &l,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type PayResult struct {
	RedirectURL           string
	MerchantTransactionID string
}

// Pay starts a checkout and returns the provider's pay page URL. A refusal
// is returned as an error carrying the server's message.
func (c *Client) Pay(ctx context.Context, req PayRequest) (*PayResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/payment/pay", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp struct {
		Success               bool   `json:"success"`
		RedirectURL           string `json:"redirectUrl"`
		MerchantTransactionID string `json:"merchantTransactionId"`
		Message               string `json:"message"`
	}
	status, err := c.do(httpReq, &resp)
	if err != nil {
		return nil, fmt.Errorf("pay request: %w", err)
	}
	if status != http.StatusOK || !resp.Success || resp.RedirectURL == "" {
		if resp.Message == "" {
			resp.Message = fmt.Sprintf("unexpected status %d", status)
		}
		return nil, errors.New(resp.Message)
	}

	return &PayResult{RedirectURL: resp.RedirectURL, MerchantTransactionID: resp.MerchantTransactionID}, nil
}

// AwaitOutcome polls the status endpoint until the payment succeeds or
// fails. When every attempt reports PAYMENT_PENDING the outcome is Pending.
// Only cancellation of ctx is returned as an error.
func (c *Client) AwaitOutcome(ctx context.Context, merchantTransactionID string) (*Result, error) {
	result := &Result{Outcome: OutcomePending}

	err := repeat.Until(ctx, c.attempts, c.delay, func(attempt int) (bool, error) {
		result.Attempts = attempt

		resp, err := c.status(ctx, merchantTransactionID)
		if err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			c.logger.Warn().Err(err).Str("merchant_transaction_id", merchantTransactionID).Int("attempt", attempt).Msg("status check failed")
			result.Outcome, result.Message = OutcomeFailed, msgStatusUnavailable
			return true, nil
		}

		result.Code, result.Message, result.TransactionID = resp.Code, resp.Message, resp.TransactionID
		switch {
		case resp.Success && resp.Code == codePaymentSuccess:
			result.Outcome = OutcomeSuccess
			return true, nil
		case resp.Code == codePaymentPending:
			return false, nil
		default:
			result.Outcome = OutcomeFailed
			if result.Message == "" {
				result.Message = msgPaymentFailed
			}
			return true, nil
		}
	})

	if err != nil && !errors.Is(err, repeat.ErrAttemptsExhausted) {
		return nil, err
	}
	return result, nil
}

// status returns the decoded body for 200 and 400 answers; both carry an outcome.
func (c *Client) status(ctx context.Context, merchantTransactionID string) (*statusResponse, error) {
	target := fmt.Sprintf("%s/api/payment/status/%s", c.baseURL, url.PathEscape(merchantTransactionID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	var resp statusResponse
	status, err := c.do(httpReq, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK && status != http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %d", status)
	}
	return &resp, nil
}

func (c *Client) do(req *http.Request, out interface{}) (int, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return res.StatusCode, err
	}
	if err = json.Unmarshal(raw, out); err != nil {
		return res.StatusCode, fmt.Errorf("decode body: %w", err)
	}
	return res.StatusCode, nil
}
