// Package api exposes the finance service over JSON HTTP.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/omsharma/finbuddy/backend/internal/model"
	"github.com/omsharma/finbuddy/backend/internal/search"
	"github.com/omsharma/finbuddy/backend/internal/service"
)

// userIDHeader carries the caller identity. Authentication is handled at the
// edge; the backend trusts this header.
const userIDHeader = "X-User-ID"

// Handler serves the HTTP API.
type Handler struct {
	svc *service.FinanceService
}

// New creates the API handler.
func New(svc *service.FinanceService) *Handler {
	return &Handler{svc: svc}
}

// Register mounts all routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	mux.HandleFunc("POST /api/transactions", h.withUser(h.createTransaction))
	mux.HandleFunc("GET /api/transactions", h.withUser(h.listTransactions))
	mux.HandleFunc("GET /api/transactions/{id}", h.withUser(h.getTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", h.withUser(h.updateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", h.withUser(h.deleteTransaction))
	mux.HandleFunc("GET /api/search", h.withUser(h.searchTransactions))

	mux.HandleFunc("POST /api/subscriptions", h.withUser(h.createSubscription))
	mux.HandleFunc("GET /api/subscriptions", h.withUser(h.listSubscriptions))
	mux.HandleFunc("GET /api/subscriptions/lookup", h.withUser(h.lookupSubscription))
	mux.HandleFunc("POST /api/subscriptions/check-payments", h.withUser(h.checkPayments))
	mux.HandleFunc("GET /api/subscriptions/{id}", h.withUser(h.getSubscription))
	mux.HandleFunc("PUT /api/subscriptions/{id}", h.withUser(h.updateSubscription))
	mux.HandleFunc("DELETE /api/subscriptions/{id}", h.withUser(h.deleteSubscription))

	mux.HandleFunc("POST /api/budgets", h.withUser(h.createBudget))
	mux.HandleFunc("GET /api/budgets", h.withUser(h.listBudgets))
	mux.HandleFunc("DELETE /api/budgets/{id}", h.withUser(h.deleteBudget))

	mux.HandleFunc("GET /api/notifications", h.withUser(h.listNotifications))
	mux.HandleFunc("POST /api/notifications/{id}/read", h.withUser(h.markNotificationRead))
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID string)

// withUser rejects requests without a caller identity.
func (h *Handler) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(userIDHeader)
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "X-User-ID header is required")
			return
		}
		next(w, r, userID)
	}
}

// Transactions

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var txn model.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		writeError(w, http.StatusBadRequest, string(service.CodeInvalidInput), "invalid JSON body")
		return
	}
	txn.UserID = userID

	created, err := h.svc.CreateTransaction(r.Context(), &txn)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	q := r.URL.Query()
	params := service.ListTransactionsParams{
		Type:      model.TransactionType(q.Get("type")),
		PageSize:  parseInt32(q.Get("pageSize")),
		PageToken: q.Get("pageToken"),
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeError(w, http.StatusBadRequest, string(service.CodeInvalidInput), "since must be RFC3339")
			return
		}
		params.DateFloor = &t
	}

	txns, nextToken, err := h.svc.ListTransactions(r.Context(), userID, params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions":  txns,
		"nextPageToken": nextToken,
	})
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	txn, err := h.svc.GetTransaction(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txn)
}

func (h *Handler) updateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var txn model.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		writeError(w, http.StatusBadRequest, string(service.CodeInvalidInput), "invalid JSON body")
		return
	}
	txn.ID = r.PathValue("id")
	txn.UserID = userID

	updated, err := h.svc.UpdateTransaction(r.Context(), &txn)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.svc.DeleteTransaction(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) searchTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	q := r.URL.Query()
	params := search.Params{
		Query:    q.Get("q"),
		UserID:   userID,
		Category: q.Get("category"),
		Type:     model.TransactionType(q.Get("type")),
		Page:     int(parseInt32(q.Get("page"))),
		PageSize: int(parseInt32(q.Get("pageSize"))),
	}

	resp, err := h.svc.SearchTransactions(r.Context(), params)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Subscriptions

func (h *Handler) createSubscription(w http.ResponseWriter, r *http.Request, userID string) {
	var sub model.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, string(service.CodeInvalidInput), "invalid JSON body")
		return
	}
	sub.UserID = userID

	created, err := h.svc.CreateSubscription(r.Context(), &sub)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listSubscriptions(w http.ResponseWriter, r *http.Request, userID string) {
	status := model.SubscriptionStatus(r.URL.Query().Get("status"))
	subs, err := h.svc.ListSubscriptions(r.Context(), userID, status)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
}

func (h *Handler) lookupSubscription(w http.ResponseWriter, r *http.Request, userID string) {
	result, err := h.svc.LookupSubscription(r.Context(), userID, r.URL.Query().Get("name"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) checkPayments(w http.ResponseWriter, r *http.Request, userID string) {
	summary, err := h.svc.CheckPayments(r.Context(), userID, r.URL.Query().Get("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) getSubscription(w http.ResponseWriter, r *http.Request, userID string) {
	sub, err := h.svc.GetSubscription(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *Handler) updateSubscription(w http.ResponseWriter, r *http.Request, userID string) {
	var sub model.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, http.StatusBadRequest, string(service.CodeInvalidInput), "invalid JSON body")
		return
	}
	sub.ID = r.PathValue("id")
	sub.UserID = userID

	updated, err := h.svc.UpdateSubscription(r.Context(), &sub)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteSubscription(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.svc.DeleteSubscription(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Budgets

func (h *Handler) createBudget(w http.ResponseWriter, r *http.Request, userID string) {
	var budget model.Budget
	if err := json.NewDecoder(r.Body).Decode(&budget); err != nil {
		writeError(w, http.StatusBadRequest, string(service.CodeInvalidInput), "invalid JSON body")
		return
	}
	budget.UserID = userID

	created, err := h.svc.CreateBudget(r.Context(), &budget)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) listBudgets(w http.ResponseWriter, r *http.Request, userID string) {
	budgets, err := h.svc.ListBudgets(r.Context(), userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": budgets})
}

func (h *Handler) deleteBudget(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.svc.DeleteBudget(r.Context(), userID, r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Notifications

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request, userID string) {
	q := r.URL.Query()
	unreadOnly := q.Get("unread") == "true"
	notifications, nextToken, err := h.svc.ListNotifications(r.Context(), userID, unreadOnly, parseInt32(q.Get("pageSize")), q.Get("pageToken"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"nextPageToken": nextToken,
	})
}

func (h *Handler) markNotificationRead(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.svc.MarkNotificationRead(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helpers

func parseInt32(s string) int32 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0
	}
	return int32(n)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[API] failed to encode response: %v", err)
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": errorBody{Code: code, Message: message}})
}

// writeServiceError maps service error codes onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	code := service.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case service.CodeInvalidInput:
		status = http.StatusBadRequest
	case service.CodeNotFound:
		status = http.StatusNotFound
	}

	message := err.Error()
	var se *service.ServiceError
	if errors.As(err, &se) {
		message = se.Message
	}
	if status == http.StatusInternalServerError {
		log.Printf("[API] internal error: %v", err)
		message = "internal error"
	}
	writeError(w, status, string(code), message)
}
