package routers

import (
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mufasadev/payment-gateway/internal/config"
	"github.com/mufasadev/payment-gateway/internal/di"
	http2 "github.com/mufasadev/payment-gateway/internal/infrastructure/api/http"
	"github.com/mufasadev/payment-gateway/internal/infrastructure/api/middlewares"
)

func NewRouter(container *di.Container, public config.Public) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{public.FrontendURL},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", http2.HeaderXVerify},
		MaxAge:         300,
	}))

	router.Get("/healthz", container.HealthHandler.Healthz)

	router.Route("/api/payment", func(r chi.Router) {
		ph := container.PaymentHandler
		r.Post("/pay", ph.Pay)
		r.With(middlewares.CallbackSignatureMiddleware(container.PaymentGateway)).Post("/callback", ph.Callback)
		r.Get(fmt.Sprintf("/status/{%s}", http2.MerchantTransactionIDParam), ph.Status)
		r.Get(fmt.Sprintf("/transactions/{%s}", http2.MerchantTransactionIDParam), ph.GetTransaction)
	})

	return router
}
