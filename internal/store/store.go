package store

import (
	"context"
	"encoding/base64"
	"errors"
	"time"

	"github.com/omsharma/finbuddy/backend/internal/model"
)

//go:generate mockgen -source=store.go -destination=store_mock.go -package=store

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for all database operations used by the service.
type Store interface {
	// Transaction operations
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, txnID string) (*model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, txnID string) error
	ListTransactions(ctx context.Context, userID string, txType model.TransactionType, dateFloor *time.Time, pageSize int32, pageToken string) ([]*model.Transaction, string, error)

	// Subscription operations
	CreateSubscription(ctx context.Context, sub *model.Subscription) error
	GetSubscription(ctx context.Context, subID string) (*model.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *model.Subscription) error
	DeleteSubscription(ctx context.Context, subID string) error
	ListSubscriptions(ctx context.Context, userID string, status model.SubscriptionStatus) ([]*model.Subscription, error)
	// RecordSubscriptionPayment atomically advances a subscription's schedule
	// and appends one payment-history record in a single document update.
	RecordSubscriptionPayment(ctx context.Context, subID string, lastCharged, nextExpected time.Time, record model.PaymentRecord) error

	// Budget operations
	CreateBudget(ctx context.Context, budget *model.Budget) error
	GetBudget(ctx context.Context, budgetID string) (*model.Budget, error)
	ListBudgets(ctx context.Context, userID string) ([]*model.Budget, error)
	DeleteBudget(ctx context.Context, budgetID string) error

	// Notification operations
	CreateNotification(ctx context.Context, notification *model.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, pageSize int32, pageToken string) ([]*model.Notification, string, error)
	MarkNotificationRead(ctx context.Context, notificationID string) error
}

// EncodePageToken encodes a document ID into a page token.
func EncodePageToken(docID string) string {
	if docID == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(docID))
}

// DecodePageToken decodes a page token back to a document ID.
func DecodePageToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
