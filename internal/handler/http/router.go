package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func NewRouter(h *WithdrawalHandler, jwtSecret string, logger *zap.SugaredLogger) *chi.Mux {
	r := chi.NewRouter()

	// Public-API posture: mirror the deployment this fronts. Narrow the
	// origins for a private install.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api/admin/withdrawals", func(r chi.Router) {
		r.Use(Authenticate(jwtSecret, logger))

		r.Get("/", h.ListWithdrawals)
		r.Get("/{id}", h.GetWithdrawal)
		r.Post("/process", h.ProcessWithdrawal)
	})

	return r
}
