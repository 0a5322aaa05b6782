package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/josh-kwaku/gvbank-ledger/internal/handler"
	"github.com/josh-kwaku/gvbank-ledger/internal/middleware"
	"github.com/josh-kwaku/gvbank-ledger/internal/repository"
)

type handlers struct {
	health        *handler.HealthHandler
	auth          *handler.AuthHandler
	accounts      *handler.AccountHandler
	money         *handler.MoneyHandler
	admin         *handler.AdminHandler
	notifications *handler.NotificationHandler
}

type routerConfig struct {
	jwtSecret     string
	allowedOrigin string
	logger        *slog.Logger
	idempotency   *repository.IdempotencyRepository
}

func newRouter(rc routerConfig, h handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(rc.logger))
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(rc.allowedOrigin))

	r.Get("/health", h.health.Liveness)
	r.Get("/health/ready", h.health.Readiness)
	r.Get("/docs", handler.ServeDocs())
	r.Get("/docs/openapi.yaml", handler.ServeSpec())

	authMW := middleware.Auth(rc.jwtSecret)
	idem := middleware.Idempotency(rc.idempotency)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", h.auth.Signup)
		r.Post("/auth/login", h.auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMW)

			r.Get("/me", h.auth.Me)
			r.Get("/recipients/{accountNumber}", h.auth.LookupRecipient)

			r.Get("/accounts", h.accounts.List)
			r.Get("/accounts/{id}/postings", h.accounts.Postings)
			r.Get("/balances/{currency}", h.accounts.Balance)

			r.Get("/deposit-instruments", h.money.DepositInstruments)
			r.Get("/transactions", h.money.ListTransactions)
			r.Get("/transactions/{id}", h.money.GetTransaction)
			r.Post("/transactions/{id}/cancel", h.money.Cancel)
			r.Get("/withdrawals", h.money.ListWithdrawals)

			r.Get("/notifications", h.notifications.List)
			r.Post("/notifications", h.notifications.Send)

			r.Group(func(r chi.Router) {
				r.Use(idem)
				r.Post("/deposits", h.money.Deposit)
				r.Post("/withdrawals", h.money.Withdraw)
				r.Post("/transfers/external", h.money.ExternalTransfer)
				r.Post("/transfers/crypto", h.money.CryptoTransfer)
				r.Post("/transfers/internal", h.money.InternalTransfer)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/stats", h.admin.Stats)
				r.Get("/transactions", h.admin.ListTransactions)
				r.Get("/transactions/pending", h.admin.ListPending)
				r.Post("/transactions/{id}/approve", h.admin.Approve)
				r.Post("/transactions/{id}/reject", h.admin.Reject)

				r.Get("/withdrawals", h.admin.ListWithdrawals)
				r.Post("/withdrawals/{id}/approve", h.admin.ApproveWithdrawal)
				r.Post("/withdrawals/{id}/reject", h.admin.RejectWithdrawal)

				r.Get("/settings", h.admin.ListSettings)
				r.Put("/settings/{key}", h.admin.PutSetting)

				r.Get("/instruments", h.admin.ListInstruments)
				r.Post("/instruments/bank", h.admin.CreateBankDetails)
				r.Post("/instruments/crypto", h.admin.CreateCryptoWallet)
				r.Patch("/instruments/{kind}/{id}", h.admin.SetInstrumentActive)

				r.Get("/accounts/{id}/reconcile", h.admin.Reconcile)
			})
		})
	})

	return r
}
