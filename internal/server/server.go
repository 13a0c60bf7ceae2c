// Package server exposes the application services over HTTP with JSON
// bodies. Routes follow the method-pattern form of net/http's ServeMux.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/middleware"
	"github.com/tallyhq/tally/internal/models"
	"github.com/tallyhq/tally/internal/reconcile"
	"github.com/tallyhq/tally/internal/service"
	"github.com/tallyhq/tally/internal/storage"
)

// Server wires the application services into an http.Handler.
type Server struct {
	auth       *service.AuthService
	subs       *service.SubscriptionService
	txns       *service.TransactionService
	balances   *service.BalanceService
	jwtManager *auth.JWTManager
}

func New(authSvc *service.AuthService, subs *service.SubscriptionService, txns *service.TransactionService, balances *service.BalanceService, jwtManager *auth.JWTManager) *Server {
	return &Server{
		auth:       authSvc,
		subs:       subs,
		txns:       txns,
		balances:   balances,
		jwtManager: jwtManager,
	}
}

// Handler builds the route table. Every route gets metrics and logging;
// everything except registration and login requires a valid token.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	public := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.Metrics(pattern, h))
	}
	private := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, middleware.Metrics(pattern, middleware.RequireAuth(s.jwtManager, h)))
	}

	public("POST /api/v1/auth/register", s.handleRegister)
	public("POST /api/v1/auth/login", s.handleLogin)
	private("GET /api/v1/me", s.handleGetProfile)
	private("PATCH /api/v1/me", s.handleUpdateProfile)

	private("POST /api/v1/subscriptions", s.handleCreateSubscription)
	private("GET /api/v1/subscriptions", s.handleListSubscriptions)
	private("GET /api/v1/subscriptions/{id}", s.handleGetSubscription)
	private("PUT /api/v1/subscriptions/{id}", s.handleUpdateSubscription)
	private("DELETE /api/v1/subscriptions/{id}", s.handleDeleteSubscription)
	private("POST /api/v1/subscriptions/{id}/join", s.handleJoinSubscription)
	private("POST /api/v1/subscriptions/{id}/leave", s.handleLeaveSubscription)
	private("POST /api/v1/subscriptions/{id}/confirm", s.handleConfirmContribution)
	private("GET /api/v1/subscriptions/{id}/renewal", s.handleNextRenewal)
	private("GET /api/v1/spend", s.handleSpend)

	private("POST /api/v1/transactions", s.handleCreateTransaction)
	private("GET /api/v1/transactions", s.handleListTransactions)
	private("GET /api/v1/transactions/{id}", s.handleGetTransaction)
	private("PUT /api/v1/transactions/{id}", s.handleUpdateTransaction)
	private("DELETE /api/v1/transactions/{id}", s.handleDeleteTransaction)
	private("POST /api/v1/settle", s.handleSettle)

	private("GET /api/v1/balances", s.handleBalances)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return middleware.Logging(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidArgument),
		errors.Is(err, auth.ErrWeakPassword):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, auth.ErrEmailExists),
		errors.Is(err, reconcile.ErrPayerCannotLeave):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
		// Do not leak internals to the client.
		writeJSON(w, status, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.ErrInvalidArgument
	}
	return nil
}
