package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omsharma/finbuddy/backend/internal/model"
)

func day(date string) time.Time {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMemoryStoreTransactionCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	txn := &model.Transaction{
		UserID:   "user-1",
		Date:     day("2024-03-05"),
		Amount:   499,
		Type:     model.TransactionExpense,
		Merchant: "NETFLIX",
	}
	require.NoError(t, s.CreateTransaction(ctx, txn))
	require.NotEmpty(t, txn.ID)

	got, err := s.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "NETFLIX", got.Merchant)

	got.Category = "entertainment"
	require.NoError(t, s.UpdateTransaction(ctx, got))

	updated, err := s.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, "entertainment", updated.Category)

	require.NoError(t, s.DeleteTransaction(ctx, txn.ID))
	_, err = s.GetTransaction(ctx, txn.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStoreListTransactionsFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	txns := []*model.Transaction{
		{UserID: "user-1", Date: day("2024-01-10"), Amount: 100, Type: model.TransactionExpense},
		{UserID: "user-1", Date: day("2024-03-10"), Amount: 200, Type: model.TransactionExpense},
		{UserID: "user-1", Date: day("2024-03-15"), Amount: 50000, Type: model.TransactionIncome},
		{UserID: "user-2", Date: day("2024-03-12"), Amount: 300, Type: model.TransactionExpense},
	}
	for _, txn := range txns {
		require.NoError(t, s.CreateTransaction(ctx, txn))
	}

	floor := day("2024-02-01")
	got, _, err := s.ListTransactions(ctx, "user-1", model.TransactionExpense, &floor, 100, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 200.0, got[0].Amount)

	// no type filter, no floor: both user-1 expenses plus the income,
	// date ascending like the Firestore date-floor query
	all, _, err := s.ListTransactions(ctx, "user-1", "", nil, 100, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, day("2024-01-10"), all[0].Date)
	assert.Equal(t, day("2024-03-15"), all[2].Date)
}

func TestMemoryStoreListTransactionsPagination(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.CreateTransaction(ctx, &model.Transaction{
			UserID: "user-1",
			Date:   day("2024-03-05"),
			Amount: float64(i + 1),
			Type:   model.TransactionExpense,
		}))
	}

	page1, token, err := s.ListTransactions(ctx, "user-1", "", nil, 2, "")
	require.NoError(t, err)
	assert.Len(t, page1, 2)
	require.NotEmpty(t, token)

	page2, token, err := s.ListTransactions(ctx, "user-1", "", nil, 2, token)
	require.NoError(t, err)
	assert.Len(t, page2, 2)
	require.NotEmpty(t, token)

	page3, token, err := s.ListTransactions(ctx, "user-1", "", nil, 2, token)
	require.NoError(t, err)
	assert.Len(t, page3, 1)
	assert.Empty(t, token)

	seen := make(map[string]bool)
	for _, txn := range append(append(page1, page2...), page3...) {
		assert.False(t, seen[txn.ID], "transaction %s returned twice", txn.ID)
		seen[txn.ID] = true
	}
}

func TestMemoryStoreRecordSubscriptionPayment(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	sub := &model.Subscription{
		UserID:       "user-1",
		Name:         "Netflix",
		Amount:       499,
		Frequency:    model.FrequencyMonthly,
		Status:       model.SubscriptionActive,
		NextExpected: day("2024-03-05"),
	}
	require.NoError(t, s.CreateSubscription(ctx, sub))

	record := model.PaymentRecord{
		Date:          day("2024-03-06"),
		Amount:        499,
		TransactionID: "t1",
		Auto:          true,
		DetectedAt:    time.Now(),
	}
	require.NoError(t, s.RecordSubscriptionPayment(ctx, sub.ID, day("2024-03-06"), day("2024-04-06"), record))

	got, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, day("2024-03-06"), got.LastCharged)
	assert.Equal(t, day("2024-04-06"), got.NextExpected)
	require.Len(t, got.PaymentHistory, 1)
	assert.Equal(t, "t1", got.PaymentHistory[0].TransactionID)

	err = s.RecordSubscriptionPayment(ctx, "missing", day("2024-03-06"), day("2024-04-06"), record)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	sub := &model.Subscription{UserID: "user-1", Name: "Netflix", Status: model.SubscriptionActive}
	require.NoError(t, s.CreateSubscription(ctx, sub))

	got, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	got.Name = "mutated"
	got.PaymentHistory = append(got.PaymentHistory, model.PaymentRecord{TransactionID: "x"})

	again, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Netflix", again.Name)
	assert.Empty(t, again.PaymentHistory)
}

func TestMemoryStoreListSubscriptionsByStatus(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.CreateSubscription(ctx, &model.Subscription{UserID: "user-1", Name: "A", Status: model.SubscriptionActive}))
	require.NoError(t, s.CreateSubscription(ctx, &model.Subscription{UserID: "user-1", Name: "B", Status: model.SubscriptionPaused}))
	require.NoError(t, s.CreateSubscription(ctx, &model.Subscription{UserID: "user-2", Name: "C", Status: model.SubscriptionActive}))

	active, err := s.ListSubscriptions(ctx, "user-1", model.SubscriptionActive)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "A", active[0].Name)

	all, err := s.ListSubscriptions(ctx, "user-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestMemoryStoreNotifications(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	n := &model.Notification{UserID: "user-1", Type: "payment_detected", Title: "Payment Detected: Netflix"}
	require.NoError(t, s.CreateNotification(ctx, n))

	unread, _, err := s.ListNotifications(ctx, "user-1", true, 100, "")
	require.NoError(t, err)
	require.Len(t, unread, 1)

	require.NoError(t, s.MarkNotificationRead(ctx, n.ID))

	unread, _, err = s.ListNotifications(ctx, "user-1", true, 100, "")
	require.NoError(t, err)
	assert.Empty(t, unread)

	all, _, err := s.ListNotifications(ctx, "user-1", false, 100, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestPageTokenRoundTrip(t *testing.T) {
	token := EncodePageToken("doc-123")
	require.NotEmpty(t, token)

	docID, err := DecodePageToken(token)
	require.NoError(t, err)
	assert.Equal(t, "doc-123", docID)

	docID, err = DecodePageToken("")
	require.NoError(t, err)
	assert.Empty(t, docID)

	_, err = DecodePageToken("%%%not-base64%%%")
	assert.Error(t, err)
}
