package server

import (
	"fmt"
	"net/http"

	"github.com/tallyhq/tally/internal/middleware"
	"github.com/tallyhq/tally/internal/models"
)

func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionJSON
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sub, err := fromSubscriptionJSON(req)
	if err != nil {
		writeError(w, err)
		return
	}

	created, err := s.subs.Create(r.Context(), middleware.GetUserID(r.Context()), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionJSON(created))
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.subs.List(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]subscriptionJSON, len(subs))
	for i, sub := range subs {
		out[i] = toSubscriptionJSON(sub)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subs.Get(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionJSON(sub))
}

func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionJSON
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	sub, err := fromSubscriptionJSON(req)
	if err != nil {
		writeError(w, err)
		return
	}
	sub.ID = r.PathValue("id")

	updated, err := s.subs.Update(r.Context(), middleware.GetUserID(r.Context()), sub)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionJSON(updated))
}

func (s *Server) handleDeleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.subs.Delete(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type joinRequest struct {
	ContributionID string `json:"contribution_id"`
}

func (s *Server) handleJoinSubscription(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sub, err := s.subs.Join(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"), req.ContributionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionJSON(sub))
}

func (s *Server) handleLeaveSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.subs.Leave(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionJSON(sub))
}

func (s *Server) handleConfirmContribution(w http.ResponseWriter, r *http.Request) {
	if err := s.subs.ConfirmContribution(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNextRenewal(w http.ResponseWriter, r *http.Request) {
	renewal, err := s.subs.NextRenewal(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]any{"next_renewal": nil}
	if !renewal.IsZero() {
		resp["next_renewal"] = renewal.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSpend reports the caller's spend over a date range, split into the
// subscription share and one-off transaction share.
func (s *Server) handleSpend(w http.ResponseWriter, r *http.Request) {
	from, to, err := dateRange(r)
	if err != nil {
		writeError(w, err)
		return
	}
	callerID := middleware.GetUserID(r.Context())

	subSpend, err := s.subs.Spend(r.Context(), callerID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	txnSpend, err := s.txns.Spend(r.Context(), callerID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{
		"subscriptions": subSpend,
		"transactions":  txnSpend,
		"total":         subSpend + txnSpend,
	})
}

func dateRange(r *http.Request) (from, to models.Date, err error) {
	q := r.URL.Query()
	from, err = models.ParseDate(q.Get("from"))
	if err != nil {
		return from, to, fmt.Errorf("%w: bad from date", models.ErrInvalidArgument)
	}
	to, err = models.ParseDate(q.Get("to"))
	if err != nil {
		return from, to, fmt.Errorf("%w: bad to date", models.ErrInvalidArgument)
	}
	return from, to, nil
}
