package server

import (
	"fmt"
	"net/http"

	"github.com/tallyhq/tally/internal/middleware"
	"github.com/tallyhq/tally/internal/models"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionJSON
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	txn, err := fromTransactionJSON(req)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.txns.Create(r.Context(), middleware.GetUserID(r.Context()), txn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(created))
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	txns, err := s.txns.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]transactionJSON, len(txns))
	for i, txn := range txns {
		out[i] = toTransactionJSON(txn)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := s.txns.Get(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(txn))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionJSON
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	txn, err := fromTransactionJSON(req)
	if err != nil {
		writeError(w, err)
		return
	}
	txn.ID = r.PathValue("id")

	updated, err := s.txns.Update(r.Context(), middleware.GetUserID(r.Context()), txn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionJSON(updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.txns.Delete(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settleRequest struct {
	ToUserID     string `json:"to_user_id"`
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currency_code"`
	Date         string `json:"date"`
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		writeError(w, fmt.Errorf("%w: bad date", models.ErrInvalidArgument))
		return
	}

	txn, err := s.txns.Settle(r.Context(), middleware.GetUserID(r.Context()),
		req.ToUserID, req.Amount, req.CurrencyCode, date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionJSON(txn))
}

// handleBalances returns the caller's per-user balances, converted into a
// single currency when ?converted=true.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	callerID := middleware.GetUserID(r.Context())

	var (
		balances []models.UserBalance
		err      error
	)
	if r.URL.Query().Get("converted") == "true" {
		balances, err = s.balances.ConvertedBalances(r.Context(), callerID)
	} else {
		balances, err = s.balances.Balances(r.Context(), callerID)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalancesJSON(balances))
}
