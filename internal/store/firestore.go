package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/omsharma/finbuddy/backend/internal/model"
)

const (
	transactionsCollection  = "transactions"
	subscriptionsCollection = "subscriptions"
	budgetsCollection       = "budgets"
	notificationsCollection = "notifications"
)

// FirestoreStore implements the Store interface using Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) Store {
	return &FirestoreStore{client: client}
}

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// applyDateAwarePagination handles pagination for queries with a date floor.
// Firestore requires OrderBy on inequality fields first, so we use
// OrderBy("Date") + OrderBy(__name__) and a composite StartAfter cursor.
func (s *FirestoreStore) applyDateAwarePagination(ctx context.Context, query firestore.Query, collection string, pageSize int32, pageToken string) (firestore.Query, error) {
	query = query.OrderBy("Date", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)

	if pageToken != "" {
		docID, err := DecodePageToken(pageToken)
		if err != nil {
			return query, fmt.Errorf("invalid page token: %w", err)
		}
		cursorDoc, err := s.client.Collection(collection).Doc(docID).Get(ctx)
		if err != nil {
			return query, fmt.Errorf("failed to fetch cursor document: %w", err)
		}
		dateVal := cursorDoc.Data()["Date"]
		query = query.StartAfter(dateVal, docID)
	}

	if pageSize <= 0 {
		pageSize = 100
	}
	query = query.Limit(int(pageSize) + 1) // +1 to detect next page
	return query, nil
}

// applyCursorPagination adds OrderBy + StartAfter + Limit for plain
// cursor-based pagination.
func (s *FirestoreStore) applyCursorPagination(query firestore.Query, pageSize int32, pageToken string) (firestore.Query, error) {
	query = query.OrderBy(firestore.DocumentID, firestore.Asc)

	if pageToken != "" {
		docID, err := DecodePageToken(pageToken)
		if err != nil {
			return query, fmt.Errorf("invalid page token: %w", err)
		}
		query = query.StartAfter(docID)
	}

	if pageSize <= 0 {
		pageSize = 100
	}
	query = query.Limit(int(pageSize) + 1)
	return query, nil
}

// Transaction operations

func (s *FirestoreStore) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	_, err := s.client.Collection(transactionsCollection).Doc(txn.ID).Set(ctx, txn)
	return err
}

func (s *FirestoreStore) GetTransaction(ctx context.Context, txnID string) (*model.Transaction, error) {
	doc, err := s.client.Collection(transactionsCollection).Doc(txnID).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("transaction %s: %w", txnID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	var txn model.Transaction
	if err := doc.DataTo(&txn); err != nil {
		return nil, fmt.Errorf("failed to parse transaction: %w", err)
	}
	return &txn, nil
}

func (s *FirestoreStore) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	_, err := s.client.Collection(transactionsCollection).Doc(txn.ID).Set(ctx, txn)
	return err
}

func (s *FirestoreStore) DeleteTransaction(ctx context.Context, txnID string) error {
	_, err := s.client.Collection(transactionsCollection).Doc(txnID).Delete(ctx)
	return err
}

// ListTransactions lists a user's transactions, optionally narrowed by type
// and a date floor.
// NOTE: Field names must match Go struct field names (PascalCase) as that's
// how Firestore serializes the model structs.
func (s *FirestoreStore) ListTransactions(ctx context.Context, userID string, txType model.TransactionType, dateFloor *time.Time, pageSize int32, pageToken string) ([]*model.Transaction, string, error) {
	query := s.client.Collection(transactionsCollection).Query.Where("UserID", "==", userID)
	if txType != "" {
		query = query.Where("Type", "==", string(txType))
	}

	var err error
	if dateFloor != nil {
		query = query.Where("Date", ">=", *dateFloor)
		query, err = s.applyDateAwarePagination(ctx, query, transactionsCollection, pageSize, pageToken)
	} else {
		query, err = s.applyCursorPagination(query, pageSize, pageToken)
	}
	if err != nil {
		return nil, "", err
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list transactions: %w", err)
	}

	if pageSize <= 0 {
		pageSize = 100
	}

	var nextPageToken string
	if len(docs) > int(pageSize) {
		docs = docs[:pageSize]
		nextPageToken = EncodePageToken(docs[pageSize-1].Ref.ID)
	}

	txns := make([]*model.Transaction, 0, len(docs))
	for _, doc := range docs {
		var txn model.Transaction
		if err := doc.DataTo(&txn); err != nil {
			return nil, "", fmt.Errorf("failed to parse transaction: %w", err)
		}
		txns = append(txns, &txn)
	}
	return txns, nextPageToken, nil
}

// Subscription operations

func (s *FirestoreStore) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	_, err := s.client.Collection(subscriptionsCollection).Doc(sub.ID).Set(ctx, sub)
	return err
}

func (s *FirestoreStore) GetSubscription(ctx context.Context, subID string) (*model.Subscription, error) {
	doc, err := s.client.Collection(subscriptionsCollection).Doc(subID).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("subscription %s: %w", subID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	var sub model.Subscription
	if err := doc.DataTo(&sub); err != nil {
		return nil, fmt.Errorf("failed to parse subscription: %w", err)
	}
	return &sub, nil
}

func (s *FirestoreStore) UpdateSubscription(ctx context.Context, sub *model.Subscription) error {
	_, err := s.client.Collection(subscriptionsCollection).Doc(sub.ID).Set(ctx, sub)
	return err
}

func (s *FirestoreStore) DeleteSubscription(ctx context.Context, subID string) error {
	_, err := s.client.Collection(subscriptionsCollection).Doc(subID).Delete(ctx)
	return err
}

func (s *FirestoreStore) ListSubscriptions(ctx context.Context, userID string, status model.SubscriptionStatus) ([]*model.Subscription, error) {
	query := s.client.Collection(subscriptionsCollection).Query.Where("UserID", "==", userID)
	if status != "" {
		query = query.Where("Status", "==", string(status))
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	subs := make([]*model.Subscription, 0, len(docs))
	for _, doc := range docs {
		var sub model.Subscription
		if err := doc.DataTo(&sub); err != nil {
			return nil, fmt.Errorf("failed to parse subscription: %w", err)
		}
		subs = append(subs, &sub)
	}
	return subs, nil
}

// RecordSubscriptionPayment advances the schedule and appends the payment
// record in one document update, so concurrent runs over disjoint
// subscriptions cannot corrupt each other.
func (s *FirestoreStore) RecordSubscriptionPayment(ctx context.Context, subID string, lastCharged, nextExpected time.Time, record model.PaymentRecord) error {
	_, err := s.client.Collection(subscriptionsCollection).Doc(subID).Update(ctx, []firestore.Update{
		{Path: "LastCharged", Value: lastCharged},
		{Path: "NextExpected", Value: nextExpected},
		{Path: "UpdatedAt", Value: time.Now()},
		{Path: "PaymentHistory", Value: firestore.ArrayUnion(record)},
	})
	if err != nil {
		if notFound(err) {
			return fmt.Errorf("subscription %s: %w", subID, ErrNotFound)
		}
		return fmt.Errorf("failed to record subscription payment: %w", err)
	}
	return nil
}

// Budget operations

func (s *FirestoreStore) CreateBudget(ctx context.Context, budget *model.Budget) error {
	_, err := s.client.Collection(budgetsCollection).Doc(budget.ID).Set(ctx, budget)
	return err
}

func (s *FirestoreStore) GetBudget(ctx context.Context, budgetID string) (*model.Budget, error) {
	doc, err := s.client.Collection(budgetsCollection).Doc(budgetID).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("budget %s: %w", budgetID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}

	var budget model.Budget
	if err := doc.DataTo(&budget); err != nil {
		return nil, fmt.Errorf("failed to parse budget: %w", err)
	}
	return &budget, nil
}

func (s *FirestoreStore) ListBudgets(ctx context.Context, userID string) ([]*model.Budget, error) {
	docs, err := s.client.Collection(budgetsCollection).Query.
		Where("UserID", "==", userID).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	budgets := make([]*model.Budget, 0, len(docs))
	for _, doc := range docs {
		var budget model.Budget
		if err := doc.DataTo(&budget); err != nil {
			return nil, fmt.Errorf("failed to parse budget: %w", err)
		}
		budgets = append(budgets, &budget)
	}
	return budgets, nil
}

func (s *FirestoreStore) DeleteBudget(ctx context.Context, budgetID string) error {
	_, err := s.client.Collection(budgetsCollection).Doc(budgetID).Delete(ctx)
	return err
}

// Notification operations

func (s *FirestoreStore) CreateNotification(ctx context.Context, notification *model.Notification) error {
	_, err := s.client.Collection(notificationsCollection).Doc(notification.ID).Set(ctx, notification)
	return err
}

func (s *FirestoreStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool, pageSize int32, pageToken string) ([]*model.Notification, string, error) {
	query := s.client.Collection(notificationsCollection).Query.Where("UserID", "==", userID)
	if unreadOnly {
		query = query.Where("IsRead", "==", false)
	}

	query, err := s.applyCursorPagination(query, pageSize, pageToken)
	if err != nil {
		return nil, "", err
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list notifications: %w", err)
	}

	if pageSize <= 0 {
		pageSize = 100
	}

	var nextPageToken string
	if len(docs) > int(pageSize) {
		docs = docs[:pageSize]
		nextPageToken = EncodePageToken(docs[pageSize-1].Ref.ID)
	}

	notifications := make([]*model.Notification, 0, len(docs))
	for _, doc := range docs {
		var n model.Notification
		if err := doc.DataTo(&n); err != nil {
			return nil, "", fmt.Errorf("failed to parse notification: %w", err)
		}
		notifications = append(notifications, &n)
	}
	return notifications, nextPageToken, nil
}

func (s *FirestoreStore) MarkNotificationRead(ctx context.Context, notificationID string) error {
	_, err := s.client.Collection(notificationsCollection).Doc(notificationID).Update(ctx, []firestore.Update{
		{Path: "IsRead", Value: true},
	})
	if err != nil {
		if notFound(err) {
			return fmt.Errorf("notification %s: %w", notificationID, ErrNotFound)
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}
