package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omsharma/finbuddy/backend/internal/model"
	"github.com/omsharma/finbuddy/backend/internal/recurring"
	"github.com/omsharma/finbuddy/backend/internal/service"
	"github.com/omsharma/finbuddy/backend/internal/store"
	"github.com/omsharma/finbuddy/backend/internal/textmatch"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()

	st := store.NewMemoryStore()
	detector := recurring.NewDetector(textmatch.FuzzyMatch, textmatch.CleanBankText)
	matcher := recurring.NewMatcher(textmatch.FuzzyMatch)
	svc := service.NewFinanceService(st, detector, matcher, nil)

	mux := http.NewServeMux()
	New(svc).Register(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, st
}

func doJSON(t *testing.T, method, url, userID string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequiresUserHeader(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/transactions")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTransactionLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/transactions", "user-1", map[string]any{
		"date":     time.Now().Format(time.RFC3339),
		"amount":   499,
		"type":     "expense",
		"merchant": "NETFLIX",
		"category": "entertainment",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created model.Transaction
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.ID)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/transactions/"+created.ID, "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// another user cannot see it
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/transactions/"+created.ID, "user-2", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/transactions/"+created.ID, "user-1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/transactions/"+created.ID, "user-1", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestInvalidTransactionRejected(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/transactions", "user-1", map[string]any{
		"amount": 0,
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "INVALID_INPUT", body.Error.Code)
}

func TestLookupThenCheckPaymentsFlow(t *testing.T) {
	srv, _ := newTestServer(t)

	// seed three months of Netflix charges
	base := time.Now().AddDate(0, 0, -62)
	for i := 0; i < 3; i++ {
		resp := doJSON(t, http.MethodPost, srv.URL+"/api/transactions", "user-1", map[string]any{
			"date":     base.AddDate(0, 0, i*30).Format(time.RFC3339),
			"amount":   499,
			"type":     "expense",
			"merchant": "UPI/NETFLIX ENTERTAINMENT/402935773301",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	// lookup suggests a monthly subscription
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/subscriptions/lookup?name=netflix", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var lookup struct {
		Matches    []recurring.MatchSummary `json:"matches"`
		Suggestion *recurring.Suggestion    `json:"suggestion"`
	}
	decodeBody(t, resp, &lookup)
	require.NotNil(t, lookup.Suggestion)
	assert.Equal(t, model.FrequencyMonthly, lookup.Suggestion.Frequency)
	assert.Len(t, lookup.Matches, 3)

	// accept the suggestion
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/subscriptions", "user-1", map[string]any{
		"name":            "Netflix",
		"merchantPattern": lookup.Suggestion.MatchedMerchant,
		"amount":          lookup.Suggestion.Amount,
		"frequency":       lookup.Suggestion.Frequency,
		"nextExpected":    lookup.Suggestion.NextExpected.Format(time.RFC3339),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var sub model.Subscription
	decodeBody(t, resp, &sub)
	require.NotEmpty(t, sub.ID)

	// the most recent charge falls in the lookback window: the checker
	// should settle it
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/subscriptions/check-payments", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary service.PaymentCheckSummary
	decodeBody(t, resp, &summary)
	assert.Equal(t, 1, summary.Checked)
	assert.Equal(t, 1, summary.Matched)

	// state advanced and the payment was recorded
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/subscriptions/"+sub.ID, "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var settled model.Subscription
	decodeBody(t, resp, &settled)
	require.Len(t, settled.PaymentHistory, 1)
	assert.True(t, settled.PaymentHistory[0].Auto)
	assert.False(t, settled.LastCharged.IsZero())

	// a second run matches nothing new
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/subscriptions/check-payments", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &summary)
	assert.Equal(t, 0, summary.Matched)
	assert.Equal(t, 1, summary.Unmatched)

	// a payment-detected notification landed
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/notifications?unread=true", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var notifications struct {
		Notifications []*model.Notification `json:"notifications"`
	}
	decodeBody(t, resp, &notifications)
	require.NotEmpty(t, notifications.Notifications)
	assert.Equal(t, "payment_detected", notifications.Notifications[0].Type)
}

func TestSearchUnconfigured(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/search?q=netflix", "user-1", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBudgetEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/budgets", "user-1", map[string]any{
		"name":     "Groceries",
		"category": "groceries",
		"amount":   5000,
		"period":   "monthly",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var budget model.Budget
	decodeBody(t, resp, &budget)
	require.NotEmpty(t, budget.ID)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/transactions", "user-1", map[string]any{
		"date":     time.Now().Format(time.RFC3339),
		"amount":   1200,
		"type":     "expense",
		"merchant": "BIG BAZAAR",
		"category": "groceries",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/budgets", "user-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listed struct {
		Budgets []struct {
			Budget *model.Budget `json:"budget"`
			Spent  float64       `json:"spent"`
		} `json:"budgets"`
	}
	decodeBody(t, resp, &listed)
	require.Len(t, listed.Budgets, 1)
	assert.Equal(t, 1200.0, listed.Budgets[0].Spent)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/budgets/"+budget.ID, "user-1", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}
