package main

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/mufasadev/payment-gateway/pkg/checkout"
	"github.com/mufasadev/payment-gateway/pkg/log"
	"github.com/shopspring/decimal"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"
)

var apiURL = envOr("API_URL", "http://localhost:4000")
var amount = envOr("CHECKOUT_AMOUNT", "549")

// Time the payer gets on the pay page before polling starts.
var payWindow = envOr("CHECKOUT_WAIT_SECONDS", "20")

func main() {
	log.Init("checkout", log.WithConsoleLogger(), log.WithLogLevel(envOr("LOG_LEVEL", "info")))
	logger := log.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	value, err := decimal.NewFromString(amount)
	if err != nil {
		logger.Fatal().Err(err).Str("amount", amount).Msg("invalid CHECKOUT_AMOUNT")
	}
	wait, err := strconv.Atoi(payWindow)
	if err != nil {
		logger.Fatal().Err(err).Str("wait", payWindow).Msg("invalid CHECKOUT_WAIT_SECONDS")
	}

	client := checkout.NewClient(apiURL)

	payment, err := client.Pay(ctx, checkout.PayRequest{
		Name:   envOr("CHECKOUT_NAME", "Test Payer"),
		Email:  os.Getenv("CHECKOUT_EMAIL"),
		Amount: value,
		UserID: envOr("CHECKOUT_USER_ID", "U-"+uuid.NewString()[:8]),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("payment initiation failed")
	}
	fmt.Printf("Transaction %s created. Complete the payment at:\n%s\n", payment.MerchantTransactionID, payment.RedirectURL)

	select {
	case <-ctx.Done():
		return
	case <-time.After(time.Duration(wait) * time.Second):
	}

	result, err := client.AwaitOutcome(ctx, payment.MerchantTransactionID)
	if err != nil {
		logger.Fatal().Err(err).Msg("status polling interrupted")
	}

	fmt.Printf("Payment %s: %s (attempts: %d, code: %s, provider transaction: %s)\n",
		payment.MerchantTransactionID, result.Outcome, result.Attempts, result.Code, result.TransactionID)
	if result.Message != "" {
		fmt.Println(result.Message)
	}
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
